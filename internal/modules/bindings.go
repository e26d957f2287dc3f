package modules

import (
	"github.com/sester-lang/sester/internal/analyzer"
	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

// elaborateBindings folds structure bindings left to right, threading the
// environment and accumulating the signature record, the existential
// opaques, and the emitted IR.
func (el *Elaborator) elaborateBindings(env symbols.Env, address []string, bindings []ast.Binding) (*symbols.SigRecord, *symbols.OpaqueSet, []ir.Binding, diagnostics.Error) {
	rec := symbols.NewSigRecord()
	opaques := symbols.NewOpaqueSet()
	var out []ir.Binding

	for _, b := range bindings {
		var items []symbols.SigItem
		var emitted []ir.Binding
		var introduced *symbols.OpaqueSet
		var err diagnostics.Error

		switch b := b.(type) {
		case *ast.BindVal:
			env, items, emitted, err = el.bindVal(env, address, b)
		case *ast.BindType:
			env, items, err = el.bindType(env, address, b)
		case *ast.BindModule:
			env, items, emitted, introduced, err = el.bindModule(env, address, b)
		case *ast.BindInclude:
			env, items, emitted, introduced, err = el.bindInclude(env, address, b)
		case *ast.BindSig:
			env, items, err = el.bindSig(env, address, b)
		default:
			panic("modules: unknown binding")
		}
		if err != nil {
			return nil, nil, nil, err
		}

		for _, item := range items {
			merged, conflict, ok := rec.DisjointUnion(singleton(item))
			if !ok {
				return nil, nil, nil, &diagnostics.ConflictInSignature{Loc: diagnostics.At(b.Span()), Name: conflict}
			}
			rec = merged
		}
		opaques = opaques.Union(introduced)
		out = append(out, emitted...)
	}
	return rec, opaques, out, nil
}

func singleton(item symbols.SigItem) *symbols.SigRecord {
	return symbols.NewSigRecord().Add(item)
}

func (el *Elaborator) basePre(env symbols.Env) analyzer.Pre {
	return analyzer.Pre{
		Level:      0,
		Env:        env,
		TypeParams: map[string]typesystem.VarRef{},
		RowParams:  map[string]typesystem.RowVarRef{},
	}
}

// Value names start lowercase, module and signature names uppercase; the
// parser is lenient about this so the elaborator enforces it.
func isLowerName(name string) bool {
	return name != "" && name[0] >= 'a' && name[0] <= 'z'
}

func isUpperName(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

func checkValName(name ast.Ident) diagnostics.Error {
	if !isLowerName(name.Name) {
		return &diagnostics.InvalidIdentifier{Loc: diagnostics.At(name.Range), Name: name.Name}
	}
	return nil
}

func checkModName(name ast.Ident) diagnostics.Error {
	if !isUpperName(name.Name) {
		return &diagnostics.InvalidIdentifier{Loc: diagnostics.At(name.Range), Name: name.Name}
	}
	return nil
}

func lambdaArity(e ast.Expr) int {
	if lam, ok := e.(*ast.Lambda); ok {
		return len(lam.Params)
	}
	return 0
}

func (el *Elaborator) bindVal(env symbols.Env, address []string, b *ast.BindVal) (symbols.Env, []symbols.SigItem, []ir.Binding, diagnostics.Error) {
	space := spaceOf(address)
	for _, vb := range b.Bindings {
		if err := checkValName(vb.Name); err != nil {
			return env, nil, nil, err
		}
	}

	if b.External != nil {
		vb := b.Bindings[0]
		pre, _, _, err := el.chk.BindTypeParams(el.basePre(env), vb.TypeParams, vb.RowParams)
		if err != nil {
			return env, nil, nil, err
		}
		ty, err := el.chk.DecodeType(pre, vb.Annot)
		if err != nil {
			return env, nil, nil, err
		}
		poly, err := el.chk.Generalize(0, ty, vb.Annot.Span())
		if err != nil {
			return env, nil, nil, err
		}
		gname := ir.Global{Space: space, Name: vb.Name.Name, Arity: b.External.Arity}
		entry := symbols.NewValEntry(poly, gname, vb.Name.Range)
		entry.MarkUsed()
		env = env.AddValue(vb.Name.Name, entry)
		item := symbols.SigItem{Class: symbols.ValClass, Name: vb.Name.Name, Val: entry}
		return env, []symbols.SigItem{item}, nil, nil
	}

	if b.Rec {
		return el.bindValRec(env, space, b)
	}

	var items []symbols.SigItem
	var emitted []ir.Binding
	for _, vb := range b.Bindings {
		pre, _, _, err := el.chk.BindTypeParams(el.basePre(env), vb.TypeParams, vb.RowParams)
		if err != nil {
			return env, nil, nil, err
		}
		res, err := el.chk.InferExpr(pre.Deeper(), vb.Body)
		if err != nil {
			return env, nil, nil, err
		}
		if vb.Annot != nil {
			annot, err := el.chk.DecodeType(pre, vb.Annot)
			if err != nil {
				return env, nil, nil, err
			}
			if uerr := el.unify(vb.Body.Span(), res.Type, annot); uerr != nil {
				return env, nil, nil, uerr
			}
		}
		poly, err := el.chk.Generalize(0, res.Type, vb.Body.Span())
		if err != nil {
			return env, nil, nil, err
		}
		gname := ir.Global{Space: space, Name: vb.Name.Name, Arity: lambdaArity(vb.Body)}
		entry := symbols.NewValEntry(poly, gname, vb.Name.Range)
		env = env.AddValue(vb.Name.Name, entry)
		items = append(items, symbols.SigItem{Class: symbols.ValClass, Name: vb.Name.Name, Val: entry})
		emitted = append(emitted, ir.Binding{Name: gname, Value: res.Value})
	}
	return env, items, emitted, nil
}

// bindValRec pre-registers every name of the group at a fresh type one
// level down, checks the bodies, then generalizes. Module-level recursion
// needs no closure trick: the bodies reference each other by global name.
func (el *Elaborator) bindValRec(env symbols.Env, space string, b *ast.BindVal) (symbols.Env, []symbols.SigItem, []ir.Binding, diagnostics.Error) {
	n := len(b.Bindings)
	vars := make([]typesystem.Type, n)
	gnames := make([]ir.Global, n)
	recEnv := env
	for i, vb := range b.Bindings {
		vars[i] = el.ctx.FreshVar(1)
		gnames[i] = ir.Global{Space: space, Name: vb.Name.Name, Arity: lambdaArity(vb.Body)}
		recEnv = recEnv.AddValue(vb.Name.Name, symbols.NewValEntry(vars[i], gnames[i], vb.Name.Range))
	}

	values := make([]ir.Value, n)
	for i, vb := range b.Bindings {
		pre, _, _, err := el.chk.BindTypeParams(el.basePre(recEnv), vb.TypeParams, vb.RowParams)
		if err != nil {
			return env, nil, nil, err
		}
		res, err := el.chk.InferExpr(pre.Deeper(), vb.Body)
		if err != nil {
			return env, nil, nil, err
		}
		if vb.Annot != nil {
			annot, err := el.chk.DecodeType(pre, vb.Annot)
			if err != nil {
				return env, nil, nil, err
			}
			if uerr := el.unify(vb.Body.Span(), res.Type, annot); uerr != nil {
				return env, nil, nil, uerr
			}
		}
		if uerr := el.unify(vb.Body.Span(), res.Type, vars[i]); uerr != nil {
			return env, nil, nil, uerr
		}
		values[i] = res.Value
	}

	var items []symbols.SigItem
	var emitted []ir.Binding
	for i, vb := range b.Bindings {
		poly, err := el.chk.Generalize(0, vars[i], vb.Body.Span())
		if err != nil {
			return env, nil, nil, err
		}
		entry := symbols.NewValEntry(poly, gnames[i], vb.Name.Range)
		env = env.AddValue(vb.Name.Name, entry)
		items = append(items, symbols.SigItem{Class: symbols.ValClass, Name: vb.Name.Name, Val: entry})
		emitted = append(emitted, ir.Binding{Name: gnames[i], Value: values[i]})
	}
	return env, items, emitted, nil
}

// bindType elaborates a `type ... and ...` group: IDs first so members can
// reference each other, then bodies, then the synonym cycle check.
func (el *Elaborator) bindType(env symbols.Env, address []string, b *ast.BindType) (symbols.Env, []symbols.SigItem, diagnostics.Error) {
	type allocated struct {
		def ast.TypeDef
		sid typesystem.SynonymID
		vid typesystem.VariantID
		isVariant bool
	}

	graph := typesystem.NewSynonymGraph()
	allocs := make([]allocated, len(b.Defs))
	groupEnv := env
	for i, def := range b.Defs {
		a := allocated{def: def, isVariant: def.Ctors != nil}
		var id typesystem.TypeID
		if a.isVariant {
			a.vid = el.ctx.FreshVariantID()
			id = a.vid
		} else {
			a.sid = el.ctx.FreshSynonymID()
			id = a.sid
			graph.AddVertex(a.sid)
		}
		allocs[i] = a
		groupEnv = groupEnv.AddType(def.Name.Name, symbols.TypeEntry{ID: id, Arity: len(def.Params)})
	}

	var items []symbols.SigItem
	for _, a := range allocs {
		pre, bids, _, err := el.chk.BindTypeParams(el.basePre(groupEnv), a.def.Params, nil)
		if err != nil {
			return env, nil, err
		}

		if !a.isVariant {
			var deps []typesystem.SynonymID
			body, err := el.chk.DecodeTypeCollect(pre, a.def.Body, &deps)
			if err != nil {
				return env, nil, err
			}
			poly, err := el.chk.Generalize(0, body, a.def.Body.Span())
			if err != nil {
				return env, nil, err
			}
			el.ctx.RegisterSynonym(a.sid, &typesystem.SynonymDef{
				Name:   a.def.Name.Name,
				Path:   address,
				Params: bids,
				Body:   poly,
			})
			for _, dep := range deps {
				graph.AddEdge(a.sid, dep)
			}
			items = append(items, symbols.SigItem{
				Class: symbols.TypeClass,
				Name:  a.def.Name.Name,
				Type:  symbols.TypeEntry{ID: a.sid, Arity: len(bids)},
			})
			continue
		}

		ctors := make([]typesystem.CtorEntry, len(a.def.Ctors))
		for j, cd := range a.def.Ctors {
			params := make([]typesystem.Type, len(cd.Params))
			for k, pte := range cd.Params {
				ty, err := el.chk.DecodeType(pre, pte)
				if err != nil {
					return env, nil, err
				}
				poly, err := el.chk.Generalize(0, ty, pte.Span())
				if err != nil {
					return env, nil, err
				}
				params[k] = poly
			}
			ctors[j] = typesystem.CtorEntry{Name: cd.Name.Name, ID: el.ctx.FreshConstructorID(), Params: params}
		}
		el.ctx.RegisterVariant(a.vid, &typesystem.VariantDef{
			Name:   a.def.Name.Name,
			Path:   address,
			Params: bids,
			Ctors:  ctors,
		})
		items = append(items, symbols.SigItem{
			Class: symbols.TypeClass,
			Name:  a.def.Name.Name,
			Type:  symbols.TypeEntry{ID: a.vid, Arity: len(bids)},
		})
		for _, ce := range ctors {
			entry := symbols.CtorEntry{Variant: a.vid, Ctor: ce.ID, ParamTypes: ce.Params}
			groupEnv = groupEnv.AddCtor(ce.Name, entry)
			items = append(items, symbols.SigItem{Class: symbols.CtorClass, Name: ce.Name, Ctor: entry})
		}
	}

	if cycle := graph.FindCycle(); cycle != nil {
		return env, nil, diagnostics.NewCyclicSynonym(el.ctx, b.Range, cycle)
	}
	return groupEnv, items, nil
}

func (el *Elaborator) bindModule(env symbols.Env, address []string, b *ast.BindModule) (symbols.Env, []symbols.SigItem, []ir.Binding, *symbols.OpaqueSet, diagnostics.Error) {
	if err := checkModName(b.Name); err != nil {
		return env, nil, nil, nil, err
	}
	subAddress := append(append([]string{}, address...), b.Name.Name)
	res, err := el.elaborateModule(env, subAddress, b.Body)
	if err != nil {
		return env, nil, nil, nil, err
	}
	if b.Sig != nil {
		sigAbs, err := el.decodeSig(env, subAddress, b.Sig)
		if err != nil {
			return env, nil, nil, nil, err
		}
		res.abs, err = el.seal(b.Range, res, sigAbs)
		if err != nil {
			return env, nil, nil, nil, err
		}
	}
	entry := symbols.ModuleEntry{Sig: res.abs.Sig, Space: res.space}
	env = env.AddModule(b.Name.Name, entry)
	item := symbols.SigItem{Class: symbols.ModuleClass, Name: b.Name.Name, Module: entry}
	return env, []symbols.SigItem{item}, res.bindings, res.abs.Opaques, nil
}

func (el *Elaborator) bindInclude(env symbols.Env, address []string, b *ast.BindInclude) (symbols.Env, []symbols.SigItem, []ir.Binding, *symbols.OpaqueSet, diagnostics.Error) {
	res, err := el.elaborateModule(env, address, b.Target)
	if err != nil {
		return env, nil, nil, nil, err
	}
	rec, rerr := recordOf(res.abs.Sig, b.Range)
	if rerr != nil {
		return env, nil, nil, nil, rerr
	}
	var items []symbols.SigItem
	rec.Items(func(item symbols.SigItem) bool {
		items = append(items, item)
		return true
	})
	env = symbols.OpenRecord(env, rec)
	return env, items, res.bindings, res.abs.Opaques, nil
}

func (el *Elaborator) bindSig(env symbols.Env, address []string, b *ast.BindSig) (symbols.Env, []symbols.SigItem, diagnostics.Error) {
	if err := checkModName(b.Name); err != nil {
		return env, nil, err
	}
	abs, err := el.decodeSig(env, address, b.Sig)
	if err != nil {
		return env, nil, err
	}
	entry := symbols.SigEntry{Abs: abs}
	env = env.AddSignature(b.Name.Name, entry)
	return env, []symbols.SigItem{{Class: symbols.SignatureClass, Name: b.Name.Name, Sig: entry}}, nil
}

func (el *Elaborator) unify(rng token.Range, actual, expected typesystem.Type) diagnostics.Error {
	res := el.ctx.Unify(actual, expected)
	switch res.Outcome {
	case typesystem.Consistent:
		return nil
	case typesystem.Inclusion:
		return diagnostics.NewInclusion(el.ctx, rng, res.Var, actual, expected)
	case typesystem.InclusionRow:
		return diagnostics.NewInclusionRow(el.ctx, rng, res.RowVar, actual, expected)
	default:
		return diagnostics.NewContradiction(el.ctx, rng, actual, expected)
	}
}
