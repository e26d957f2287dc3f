package analyzer

import (
	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/typesystem"
)

// decodeState threads the optional concerns of one decoding pass: synonym
// dependency collection for type-definition groups, and the opaque IDs
// that must not appear because they would escape their scope.
type decodeState struct {
	deps      *[]typesystem.SynonymID
	forbidden *symbols.OpaqueSet
}

// DecodeType translates a handwritten type into internal form.
func (c *Checker) DecodeType(pre Pre, te ast.TypeExpr) (typesystem.Type, diagnostics.Error) {
	return c.decodeType(pre, te, decodeState{})
}

// DecodeTypeCollect is DecodeType while recording every synonym the type
// references, for the dependency graph of a type-definition group.
func (c *Checker) DecodeTypeCollect(pre Pre, te ast.TypeExpr, deps *[]typesystem.SynonymID) (typesystem.Type, diagnostics.Error) {
	return c.decodeType(pre, te, decodeState{deps: deps})
}

// DecodeTypeForbidding is DecodeType while rejecting references to the
// given opaque IDs.
func (c *Checker) DecodeTypeForbidding(pre Pre, te ast.TypeExpr, forbidden *symbols.OpaqueSet) (typesystem.Type, diagnostics.Error) {
	return c.decodeType(pre, te, decodeState{forbidden: forbidden})
}

// BindTypeParams introduces rigid cells for the handwritten type and row
// parameters of a binder, extending pre. The returned ID lists follow
// declaration order.
func (c *Checker) BindTypeParams(pre Pre, params []ast.TypeParam, rows []ast.RowParam) (Pre, []typesystem.BoundID, []typesystem.BoundRowID, diagnostics.Error) {
	typeScope := make(map[string]typesystem.VarRef, len(pre.TypeParams)+len(params))
	for name, v := range pre.TypeParams {
		typeScope[name] = v
	}
	rowScope := make(map[string]typesystem.RowVarRef, len(pre.RowParams)+len(rows))
	for name, v := range pre.RowParams {
		rowScope[name] = v
	}
	seen := map[string]bool{}
	bids := make([]typesystem.BoundID, 0, len(params))
	inner := pre
	inner.TypeParams = typeScope
	inner.RowParams = rowScope
	for _, p := range params {
		if seen[p.Name] {
			return Pre{}, nil, nil, &diagnostics.TypeParameterBoundMoreThanOnce{Loc: diagnostics.At(p.Range), Name: p.Name}
		}
		seen[p.Name] = true
		kind, err := c.decodeKind(inner, p.Kind)
		if err != nil {
			return Pre{}, nil, nil, err
		}
		v, bid := c.ctx.FreshMustBeBound(p.Name, kind)
		typeScope[p.Name] = v
		bids = append(bids, bid)
	}
	seenRows := map[string]bool{}
	brids := make([]typesystem.BoundRowID, 0, len(rows))
	for _, p := range rows {
		if seenRows[p.Name] {
			return Pre{}, nil, nil, &diagnostics.RowParameterBoundMoreThanOnce{Loc: diagnostics.At(p.Range), Name: p.Name}
		}
		seenRows[p.Name] = true
		kind, err := c.decodeLabelMap(inner, p.Labels, decodeState{})
		if err != nil {
			return Pre{}, nil, nil, err
		}
		v, brid := c.ctx.FreshMustBeBoundRow(p.Name, kind)
		rowScope[p.Name] = v
		brids = append(brids, brid)
	}
	return inner, bids, brids, nil
}

func (c *Checker) decodeKind(pre Pre, ke *ast.KindExpr) (typesystem.BaseKind, diagnostics.Error) {
	if ke == nil {
		return typesystem.UniversalKind{}, nil
	}
	if ke.Name != nil {
		if ke.Name.Name == "o" {
			return typesystem.UniversalKind{}, nil
		}
		return nil, &diagnostics.UndefinedKindName{Loc: diagnostics.At(ke.Range), Name: ke.Name.Name}
	}
	fields, err := c.decodeLabelMap(pre, ke.Record, decodeState{})
	if err != nil {
		return nil, err
	}
	return typesystem.RecordKind{Fields: fields}, nil
}

func (c *Checker) decodeLabelMap(pre Pre, fields []ast.LabeledType, st decodeState) (map[string]typesystem.Type, diagnostics.Error) {
	out := make(map[string]typesystem.Type, len(fields))
	for _, f := range fields {
		if _, ok := out[f.Label]; ok {
			return nil, &diagnostics.DuplicatedLabel{Loc: diagnostics.At(f.Range), Label: f.Label}
		}
		ty, err := c.decodeType(pre, f.Type, st)
		if err != nil {
			return nil, err
		}
		out[f.Label] = ty
	}
	return out, nil
}

func (c *Checker) decodeType(pre Pre, te ast.TypeExpr, st decodeState) (typesystem.Type, diagnostics.Error) {
	switch te := te.(type) {
	case *ast.TypeVarExpr:
		v, ok := pre.TypeParams[te.Name]
		if !ok {
			return nil, &diagnostics.UnboundTypeParameter{Loc: diagnostics.At(te.Range), Name: te.Name}
		}
		return v, nil

	case *ast.TypeName:
		return c.decodeTypeName(pre, te, st)

	case *ast.FuncTypeExpr:
		dom, err := c.decodeDomain(pre, te.Dom, st)
		if err != nil {
			return nil, err
		}
		cod, err := c.decodeType(pre, te.Cod, st)
		if err != nil {
			return nil, err
		}
		return typesystem.Func{Dom: dom, Cod: cod}, nil

	case *ast.EffFuncTypeExpr:
		dom, err := c.decodeDomain(pre, te.Dom, st)
		if err != nil {
			return nil, err
		}
		recv, err := c.decodeType(pre, te.Eff, st)
		if err != nil {
			return nil, err
		}
		cod, err := c.decodeType(pre, te.Cod, st)
		if err != nil {
			return nil, err
		}
		return typesystem.EffFunc{Dom: dom, Eff: &typesystem.Effect{Receive: recv}, Cod: cod}, nil

	case *ast.ProductTypeExpr:
		types := make([]typesystem.Type, len(te.Types))
		for i, sub := range te.Types {
			ty, err := c.decodeType(pre, sub, st)
			if err != nil {
				return nil, err
			}
			types[i] = ty
		}
		return typesystem.Product{Types: types}, nil

	case *ast.RecordTypeExpr:
		fields, err := c.decodeLabelMap(pre, te.Fields, st)
		if err != nil {
			return nil, err
		}
		return typesystem.Record{Fields: fields}, nil
	}
	panic("analyzer: unknown type expression")
}

// builtinScalars are the type names that decode without an environment
// lookup.
var builtinScalars = map[string]typesystem.BaseKindTag{
	"unit":   typesystem.UnitType,
	"bool":   typesystem.BoolType,
	"int":    typesystem.IntType,
	"float":  typesystem.FloatType,
	"char":   typesystem.CharType,
	"binary": typesystem.BinaryType,
}

func (c *Checker) decodeTypeName(pre Pre, te *ast.TypeName, st decodeState) (typesystem.Type, diagnostics.Error) {
	args := make([]typesystem.Type, len(te.Args))
	for i, a := range te.Args {
		ty, err := c.decodeType(pre, a, st)
		if err != nil {
			return nil, err
		}
		args[i] = ty
	}

	if len(te.Path) == 0 {
		if tag, ok := builtinScalars[te.Name.Name]; ok {
			if len(args) != 0 {
				return nil, &diagnostics.InvalidNumberOfTypeArguments{Loc: diagnostics.At(te.Range), Name: te.Name.Name, Expected: 0, Got: len(args)}
			}
			return typesystem.Base{Tag: tag}, nil
		}
		switch te.Name.Name {
		case "pid":
			if len(args) != 1 {
				return nil, &diagnostics.InvalidNumberOfTypeArguments{Loc: diagnostics.At(te.Range), Name: "pid", Expected: 1, Got: len(args)}
			}
			return typesystem.Pid{Receive: args[0]}, nil
		case "format":
			if len(args) != 1 {
				return nil, &diagnostics.InvalidNumberOfTypeArguments{Loc: diagnostics.At(te.Range), Name: "format", Expected: 1, Got: len(args)}
			}
			return typesystem.Format{Arg: args[0]}, nil
		}
	}

	entry, err := c.findTypeEntry(pre, te)
	if err != nil {
		return nil, err
	}
	if entry.Arity != len(args) {
		return nil, &diagnostics.InvalidNumberOfTypeArguments{Loc: diagnostics.At(te.Range), Name: te.Name.Name, Expected: entry.Arity, Got: len(args)}
	}
	if oid, ok := entry.ID.(typesystem.OpaqueID); ok && st.forbidden.Has(oid) {
		return nil, &diagnostics.OpaqueIDExtrudesScopeViaType{Loc: diagnostics.At(te.Range), Name: te.Name.Name}
	}
	if sid, ok := entry.ID.(typesystem.SynonymID); ok && st.deps != nil {
		*st.deps = append(*st.deps, sid)
	}
	if err := c.checkArgKinds(te, entry.ID, args); err != nil {
		return nil, err
	}
	return typesystem.Data{ID: entry.ID, Args: args}, nil
}

// checkArgKinds rejects arguments that can never inhabit a record-kinded
// parameter of the named type.
func (c *Checker) checkArgKinds(te *ast.TypeName, id typesystem.TypeID, args []typesystem.Type) diagnostics.Error {
	var params []typesystem.BoundID
	switch id := id.(type) {
	case typesystem.SynonymID:
		if !c.ctx.HasSynonym(id) {
			// Within a definition group the member's own parameters are
			// not registered yet; their kinds are checked at use sites.
			return nil
		}
		params = c.ctx.Synonym(id).Params
	case typesystem.VariantID:
		if !c.ctx.HasVariant(id) {
			return nil
		}
		params = c.ctx.Variant(id).Params
	default:
		return nil
	}
	for i, p := range params {
		if i >= len(args) {
			break
		}
		if _, wantRecord := c.ctx.BoundKind(p).(typesystem.RecordKind); !wantRecord {
			continue
		}
		switch c.ctx.Resolve(args[i]).(type) {
		case typesystem.Record, typesystem.VarRef:
		default:
			return &diagnostics.KindContradiction{Loc: diagnostics.At(te.Range), Name: te.Name.Name}
		}
	}
	return nil
}

func (c *Checker) findTypeEntry(pre Pre, te *ast.TypeName) (symbols.TypeEntry, diagnostics.Error) {
	if len(te.Path) == 0 {
		entry, ok := pre.Env.FindType(te.Name.Name)
		if !ok {
			return symbols.TypeEntry{}, &diagnostics.UndefinedTypeName{Loc: diagnostics.At(te.Range), Name: te.Name.Name}
		}
		return entry, nil
	}
	rec, err := c.ResolveModulePath(pre, te.Path)
	if err != nil {
		return symbols.TypeEntry{}, err
	}
	entry, ok := rec.FindType(te.Name.Name)
	if !ok {
		return symbols.TypeEntry{}, &diagnostics.UndefinedTypeName{Loc: diagnostics.At(te.Range), Name: te.Name.Name}
	}
	return entry, nil
}

// ResolveModulePath walks a projection path down to the record of its last
// module.
func (c *Checker) ResolveModulePath(pre Pre, path []ast.Ident) (*symbols.SigRecord, diagnostics.Error) {
	head := path[0]
	entry, ok := pre.Env.FindModule(head.Name)
	if !ok {
		return nil, &diagnostics.UnboundModuleName{Loc: diagnostics.At(head.Range), Name: head.Name}
	}
	rec, err := structureRecord(entry.Sig, head)
	if err != nil {
		return nil, err
	}
	for _, seg := range path[1:] {
		sub, ok := rec.FindModule(seg.Name)
		if !ok {
			return nil, &diagnostics.UnboundModuleName{Loc: diagnostics.At(seg.Range), Name: seg.Name}
		}
		rec, err = structureRecord(sub.Sig, seg)
		if err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func structureRecord(sig symbols.Signature, name ast.Ident) (*symbols.SigRecord, diagnostics.Error) {
	st, ok := sig.(*symbols.StructureSig)
	if !ok {
		return nil, &diagnostics.NotOfStructureType{Loc: diagnostics.At(name.Range), Name: name.Name}
	}
	return st.Record, nil
}

func (c *Checker) decodeDomain(pre Pre, de ast.DomainExpr, st decodeState) (*typesystem.Domain, diagnostics.Error) {
	ordered := make([]typesystem.Type, len(de.Ordered))
	for i, te := range de.Ordered {
		ty, err := c.decodeType(pre, te, st)
		if err != nil {
			return nil, err
		}
		ordered[i] = ty
	}
	mandatory, err := c.decodeLabelMap(pre, de.Mandatory, st)
	if err != nil {
		return nil, err
	}
	optional, err := c.decodeRow(pre, de.Optional, st)
	if err != nil {
		return nil, err
	}
	return &typesystem.Domain{Ordered: ordered, Mandatory: mandatory, Optional: optional}, nil
}

func (c *Checker) decodeRow(pre Pre, re *ast.RowExpr, st decodeState) (typesystem.Row, diagnostics.Error) {
	if re == nil {
		return typesystem.FixedRow{Fields: map[string]typesystem.Type{}}, nil
	}
	if re.Var != nil {
		v, ok := pre.RowParams[re.Var.Name]
		if !ok {
			return nil, &diagnostics.UnboundRowParameter{Loc: diagnostics.At(re.Var.Range), Name: re.Var.Name}
		}
		return v, nil
	}
	fields, err := c.decodeLabelMap(pre, re.Fields, st)
	if err != nil {
		return nil, err
	}
	return typesystem.FixedRow{Fields: fields}, nil
}
