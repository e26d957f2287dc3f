package modules

import (
	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/typesystem"
)

// decodeSig elaborates a signature expression to an abstracted signature.
// Looking a signature name up copies it, so every use gets fresh opaque
// IDs.
func (el *Elaborator) decodeSig(env symbols.Env, address []string, se ast.SigExpr) (symbols.Abstracted, diagnostics.Error) {
	switch se := se.(type) {
	case *ast.SigVar:
		entry, ok := env.FindSignature(se.Name.Name)
		if !ok {
			return symbols.Abstracted{}, &diagnostics.UnboundSignatureName{Loc: diagnostics.At(se.Range), Name: se.Name.Name}
		}
		return symbols.CopyAbstracted(el.ctx, entry.Abs), nil

	case *ast.SigProj:
		target, err := el.elaborateModule(env, address, se.Target)
		if err != nil {
			return symbols.Abstracted{}, err
		}
		rec, rerr := recordOf(target.abs.Sig, se.Range)
		if rerr != nil {
			return symbols.Abstracted{}, rerr
		}
		entry, ok := rec.FindSignature(se.Name.Name)
		if !ok {
			return symbols.Abstracted{}, &diagnostics.UnboundSignatureName{Loc: diagnostics.At(se.Range), Name: se.Name.Name}
		}
		return symbols.CopyAbstracted(el.ctx, entry.Abs), nil

	case *ast.SigDecls:
		return el.decodeSigDecls(env, address, se)

	case *ast.SigFunctor:
		domAbs, err := el.decodeSig(env, address, se.Domain)
		if err != nil {
			return symbols.Abstracted{}, err
		}
		if _, ok := domAbs.Sig.(*symbols.FunctorSig); ok {
			return symbols.Abstracted{}, &diagnostics.SupportOnlyFirstOrderFunctor{Loc: diagnostics.At(se.Domain.Span())}
		}
		codEnv := env.AddModule(se.Param.Name, symbols.ModuleEntry{Sig: domAbs.Sig, Space: se.Param.Name})
		codAbs, err := el.decodeSig(codEnv, address, se.Cod)
		if err != nil {
			return symbols.Abstracted{}, err
		}
		fsig := &symbols.FunctorSig{
			Opaques:  domAbs.Opaques,
			Domain:   domAbs.Sig,
			Codomain: codAbs,
		}
		return symbols.Abstracted{Opaques: symbols.NewOpaqueSet(), Sig: fsig}, nil

	case *ast.SigWithType:
		return el.decodeWithType(env, address, se)
	}
	panic("modules: unknown signature expression")
}

func (el *Elaborator) decodeSigDecls(env symbols.Env, address []string, se *ast.SigDecls) (symbols.Abstracted, diagnostics.Error) {
	rec := symbols.NewSigRecord()
	opaques := symbols.NewOpaqueSet()
	local := env
	space := spaceOf(address)

	add := func(item symbols.SigItem, rng ast.Node) diagnostics.Error {
		merged, conflict, ok := rec.DisjointUnion(singleton(item))
		if !ok {
			return &diagnostics.ConflictInSignature{Loc: diagnostics.At(rng.Span()), Name: conflict}
		}
		rec = merged
		return nil
	}

	for _, d := range se.Decls {
		switch d := d.(type) {
		case *ast.DeclVal:
			pre, _, _, err := el.chk.BindTypeParams(el.basePre(local), d.TypeParams, d.RowParams)
			if err != nil {
				return symbols.Abstracted{}, err
			}
			ty, err := el.chk.DecodeType(pre, d.Type)
			if err != nil {
				return symbols.Abstracted{}, err
			}
			poly, err := el.chk.Generalize(0, ty, d.Type.Span())
			if err != nil {
				return symbols.Abstracted{}, err
			}
			gname := ir.Global{Space: space, Name: d.Name.Name, Arity: declaredArity(el.ctx, poly)}
			entry := symbols.NewValEntry(poly, gname, d.Name.Range)
			entry.MarkUsed()
			if err := add(symbols.SigItem{Class: symbols.ValClass, Name: d.Name.Name, Val: entry}, d); err != nil {
				return symbols.Abstracted{}, err
			}

		case *ast.DeclType:
			items, introduced, err := el.decodeDeclType(local, address, d)
			if err != nil {
				return symbols.Abstracted{}, err
			}
			for _, item := range items {
				if aerr := add(item, d); aerr != nil {
					return symbols.Abstracted{}, aerr
				}
				if item.Class == symbols.TypeClass {
					local = local.AddType(item.Name, item.Type)
				}
				if item.Class == symbols.CtorClass {
					local = local.AddCtor(item.Name, item.Ctor)
				}
			}
			opaques = opaques.Union(introduced)

		case *ast.DeclModule:
			subAbs, err := el.decodeSig(local, append(append([]string{}, address...), d.Name.Name), d.Sig)
			if err != nil {
				return symbols.Abstracted{}, err
			}
			entry := symbols.ModuleEntry{Sig: subAbs.Sig, Space: d.Name.Name}
			if err := add(symbols.SigItem{Class: symbols.ModuleClass, Name: d.Name.Name, Module: entry}, d); err != nil {
				return symbols.Abstracted{}, err
			}
			local = local.AddModule(d.Name.Name, entry)
			opaques = opaques.Union(subAbs.Opaques)

		case *ast.DeclSig:
			subAbs, err := el.decodeSig(local, address, d.Sig)
			if err != nil {
				return symbols.Abstracted{}, err
			}
			// A nested signature must not capture this signature's own
			// abstract types: refining or copying it later could not keep
			// them in scope.
			if escaping := el.mentionsOpaques(subAbs.Sig, opaques); escaping != "" {
				return symbols.Abstracted{}, &diagnostics.OpaqueIDExtrudesScopeViaSignature{Loc: diagnostics.At(d.Range), Name: escaping}
			}
			entry := symbols.SigEntry{Abs: subAbs}
			if err := add(symbols.SigItem{Class: symbols.SignatureClass, Name: d.Name.Name, Sig: entry}, d); err != nil {
				return symbols.Abstracted{}, err
			}
			local = local.AddSignature(d.Name.Name, entry)

		case *ast.DeclInclude:
			subAbs, err := el.decodeSig(local, address, d.Sig)
			if err != nil {
				return symbols.Abstracted{}, err
			}
			subRec, rerr := recordOf(subAbs.Sig, d.Range)
			if rerr != nil {
				return symbols.Abstracted{}, &diagnostics.NotAStructureSignature{Loc: diagnostics.At(d.Range)}
			}
			merged, conflict, ok := rec.DisjointUnion(subRec)
			if !ok {
				return symbols.Abstracted{}, &diagnostics.ConflictInSignature{Loc: diagnostics.At(d.Range), Name: conflict}
			}
			rec = merged
			local = symbols.OpenRecord(local, subRec)
			opaques = opaques.Union(subAbs.Opaques)
		}
	}
	return symbols.Abstracted{Opaques: opaques, Sig: &symbols.StructureSig{Record: rec}}, nil
}

func (el *Elaborator) decodeDeclType(env symbols.Env, address []string, d *ast.DeclType) ([]symbols.SigItem, *symbols.OpaqueSet, diagnostics.Error) {
	arity := len(d.Params)

	// Opaque declaration: a fresh existential.
	if d.Body == nil && d.Ctors == nil {
		oid := el.ctx.FreshOpaqueID(d.Name.Name, address, typesystem.UniversalArity(arity))
		item := symbols.SigItem{
			Class: symbols.TypeClass,
			Name:  d.Name.Name,
			Type:  symbols.TypeEntry{ID: oid, Arity: arity},
		}
		return []symbols.SigItem{item}, symbols.NewOpaqueSet(oid), nil
	}

	pre, bids, _, err := el.chk.BindTypeParams(el.basePre(env), d.Params, nil)
	if err != nil {
		return nil, nil, err
	}

	if d.Body != nil {
		sid := el.ctx.FreshSynonymID()
		body, err := el.chk.DecodeType(pre, d.Body)
		if err != nil {
			return nil, nil, err
		}
		poly, err := el.chk.Generalize(0, body, d.Body.Span())
		if err != nil {
			return nil, nil, err
		}
		el.ctx.RegisterSynonym(sid, &typesystem.SynonymDef{
			Name:   d.Name.Name,
			Path:   address,
			Params: bids,
			Body:   poly,
		})
		item := symbols.SigItem{
			Class: symbols.TypeClass,
			Name:  d.Name.Name,
			Type:  symbols.TypeEntry{ID: sid, Arity: arity},
		}
		return []symbols.SigItem{item}, symbols.NewOpaqueSet(), nil
	}

	vid := el.ctx.FreshVariantID()
	ctors := make([]typesystem.CtorEntry, len(d.Ctors))
	for j, cd := range d.Ctors {
		params := make([]typesystem.Type, len(cd.Params))
		for k, pte := range cd.Params {
			ty, err := el.chk.DecodeType(pre, pte)
			if err != nil {
				return nil, nil, err
			}
			poly, err := el.chk.Generalize(0, ty, pte.Span())
			if err != nil {
				return nil, nil, err
			}
			params[k] = poly
		}
		ctors[j] = typesystem.CtorEntry{Name: cd.Name.Name, ID: el.ctx.FreshConstructorID(), Params: params}
	}
	el.ctx.RegisterVariant(vid, &typesystem.VariantDef{
		Name:   d.Name.Name,
		Path:   address,
		Params: bids,
		Ctors:  ctors,
	})
	items := []symbols.SigItem{{
		Class: symbols.TypeClass,
		Name:  d.Name.Name,
		Type:  symbols.TypeEntry{ID: vid, Arity: arity},
	}}
	for _, ce := range ctors {
		items = append(items, symbols.SigItem{
			Class: symbols.CtorClass,
			Name:  ce.Name,
			Ctor:  symbols.CtorEntry{Variant: vid, Ctor: ce.ID, ParamTypes: ce.Params},
		})
	}
	return items, symbols.NewOpaqueSet(), nil
}

// decodeWithType refines an opaque member of a structure signature into a
// transparent synonym.
func (el *Elaborator) decodeWithType(env symbols.Env, address []string, se *ast.SigWithType) (symbols.Abstracted, diagnostics.Error) {
	abs, err := el.decodeSig(env, address, se.Sig)
	if err != nil {
		return symbols.Abstracted{}, err
	}
	rec, rerr := recordOf(abs.Sig, se.Range)
	if rerr != nil {
		return symbols.Abstracted{}, &diagnostics.NotAStructureSignature{Loc: diagnostics.At(se.Range)}
	}
	entry, ok := rec.FindType(se.Name.Name)
	if !ok {
		return symbols.Abstracted{}, &diagnostics.UndefinedTypeName{Loc: diagnostics.At(se.Name.Range), Name: se.Name.Name}
	}
	oid, isOpaque := entry.ID.(typesystem.OpaqueID)
	if !isOpaque || !abs.Opaques.Has(oid) {
		return symbols.Abstracted{}, &diagnostics.CannotRestrictTransparentType{Loc: diagnostics.At(se.Name.Range), Name: se.Name.Name}
	}
	if entry.Arity != len(se.Params) {
		return symbols.Abstracted{}, &diagnostics.InvalidNumberOfTypeArguments{
			Loc:      diagnostics.At(se.Range),
			Name:     se.Name.Name,
			Expected: entry.Arity,
			Got:      len(se.Params),
		}
	}

	pre, bids, _, err := el.chk.BindTypeParams(el.basePre(env), se.Params, nil)
	if err != nil {
		return symbols.Abstracted{}, err
	}
	// The replacement must not mention the signature's own abstract types;
	// they would escape through the refinement.
	body, err := el.chk.DecodeTypeForbidding(pre, se.Rhs, abs.Opaques)
	if err != nil {
		return symbols.Abstracted{}, err
	}
	poly, err := el.chk.Generalize(0, body, se.Rhs.Span())
	if err != nil {
		return symbols.Abstracted{}, err
	}
	sid := el.ctx.FreshSynonymID()
	el.ctx.RegisterSynonym(sid, &typesystem.SynonymDef{
		Name:   se.Name.Name,
		Path:   address,
		Params: bids,
		Body:   poly,
	})

	remaining := symbols.NewOpaqueSet()
	for _, id := range abs.Opaques.Sorted() {
		if id != oid {
			remaining = remaining.Union(symbols.NewOpaqueSet(id))
		}
	}
	refined := symbols.SubstSignature(abs.Sig, func(id typesystem.TypeID) typesystem.TypeID {
		if id == typesystem.TypeID(oid) {
			return sid
		}
		return id
	})
	return symbols.Abstracted{Opaques: remaining, Sig: refined}, nil
}

// declaredArity stamps a declared value with the ordered arity of its
// type's root arrow.
func declaredArity(ctx *typesystem.Context, poly typesystem.Type) int {
	switch t := ctx.Resolve(poly).(type) {
	case typesystem.Func:
		return len(t.Dom.Ordered)
	case typesystem.EffFunc:
		return len(t.Dom.Ordered)
	}
	return 0
}

// mentionsOpaques reports the display name of the first of the given
// opaques referenced anywhere in the signature, or the empty string.
func (el *Elaborator) mentionsOpaques(sig symbols.Signature, set *symbols.OpaqueSet) string {
	if set.Len() == 0 {
		return ""
	}
	found := ""
	symbols.SubstSignature(sig, func(id typesystem.TypeID) typesystem.TypeID {
		if oid, ok := id.(typesystem.OpaqueID); ok && set.Has(oid) && found == "" {
			found = el.ctx.Opaque(oid).Name
		}
		return id
	})
	return found
}
