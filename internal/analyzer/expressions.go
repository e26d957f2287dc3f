package analyzer

import (
	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

// InferExpr types an expression, elaborating it to IR. The effect of the
// result is nil for pure expressions.
func (c *Checker) InferExpr(pre Pre, e ast.Expr) (Inferred, diagnostics.Error) {
	switch e := e.(type) {
	case *ast.Literal:
		ty, cst, err := c.constType(pre, e.Const, e.Range)
		if err != nil {
			return Inferred{}, err
		}
		return Inferred{Type: ty, Value: ir.BaseConst{Const: cst}}, nil

	case *ast.Var:
		return c.inferVar(pre, e)

	case *ast.Lambda:
		return c.inferLambda(pre, e)

	case *ast.Apply:
		return c.inferApply(pre, e)

	case *ast.If:
		return c.inferIf(pre, e)

	case *ast.LetIn:
		return c.inferLet(pre, e)

	case *ast.LetRecIn:
		return c.inferLetRec(pre, e)

	case *ast.Do:
		return c.inferDo(pre, e)

	case *ast.Receive:
		return c.inferReceive(pre, e)

	case *ast.Tuple:
		types := make([]typesystem.Type, len(e.Elems))
		vals := make([]ir.Value, len(e.Elems))
		var eff *typesystem.Effect
		for i, sub := range e.Elems {
			res, err := c.InferExpr(pre, sub)
			if err != nil {
				return Inferred{}, err
			}
			eff, err = c.mergeEffects(sub.Span(), eff, res.Eff)
			if err != nil {
				return Inferred{}, err
			}
			types[i] = res.Type
			vals[i] = res.Value
		}
		return Inferred{Type: typesystem.Product{Types: types}, Eff: eff, Value: ir.Tuple{Elems: vals}}, nil

	case *ast.ListNil:
		return Inferred{
			Type:  c.builtin.ListOf(c.ctx.FreshVar(pre.Level)),
			Value: ir.ListNil{},
		}, nil

	case *ast.ListCons:
		head, err := c.InferExpr(pre, e.Head)
		if err != nil {
			return Inferred{}, err
		}
		tail, err := c.InferExpr(pre, e.Tail)
		if err != nil {
			return Inferred{}, err
		}
		if uerr := c.unify(e.Tail.Span(), tail.Type, c.builtin.ListOf(head.Type)); uerr != nil {
			return Inferred{}, uerr
		}
		eff, merr := c.mergeEffects(e.Range, head.Eff, tail.Eff)
		if merr != nil {
			return Inferred{}, merr
		}
		return Inferred{Type: tail.Type, Eff: eff, Value: ir.ListCons{Head: head.Value, Tail: tail.Value}}, nil

	case *ast.RecordExpr:
		return c.inferRecord(pre, e)

	case *ast.RecordAccess:
		target, err := c.InferExpr(pre, e.Target)
		if err != nil {
			return Inferred{}, err
		}
		fieldTy := c.ctx.FreshVar(pre.Level)
		constrained := c.ctx.FreshVarWithKind(pre.Level, typesystem.RecordKind{
			Fields: map[string]typesystem.Type{e.Label: fieldTy},
		})
		if uerr := c.unify(e.Range, target.Type, constrained); uerr != nil {
			return Inferred{}, uerr
		}
		return Inferred{
			Type:  fieldTy,
			Eff:   target.Eff,
			Value: ir.RecordAccess{Target: target.Value, Label: e.Label},
		}, nil

	case *ast.RecordUpdate:
		return c.inferRecordUpdate(pre, e)

	case *ast.CtorApp:
		return c.inferCtorApp(pre, e)

	case *ast.Case:
		return c.inferCase(pre, e)

	case *ast.Freeze:
		return c.inferFreeze(pre, e)

	case *ast.FreezeUpdate:
		return c.inferFreezeUpdate(pre, e)
	}
	panic("analyzer: unknown expression")
}

func (c *Checker) inferVar(pre Pre, e *ast.Var) (Inferred, diagnostics.Error) {
	var entry symbols.ValEntry
	if len(e.Path) == 0 {
		found, ok := pre.Env.FindValue(e.Name.Name)
		if !ok {
			return Inferred{}, &diagnostics.UnboundVariable{Loc: diagnostics.At(e.Range), Name: e.Name.Name}
		}
		entry = found
	} else {
		rec, err := c.ResolveModulePath(pre, e.Path)
		if err != nil {
			return Inferred{}, err
		}
		found, ok := rec.FindVal(e.Name.Name)
		if !ok {
			return Inferred{}, &diagnostics.UnboundVariable{Loc: diagnostics.At(e.Range), Name: e.Name.Name}
		}
		entry = found
	}
	entry.MarkUsed()
	return Inferred{
		Type:  c.ctx.Instantiate(pre.Level, entry.Poly),
		Value: ir.Var{Name: entry.Name},
	}, nil
}

func (c *Checker) inferLambda(pre Pre, e *ast.Lambda) (Inferred, diagnostics.Error) {
	env := pre.Env

	ordered := make([]typesystem.Type, len(e.Params))
	orderedLocals := make([]ir.Local, len(e.Params))
	for i, p := range e.Params {
		ty := c.ctx.FreshVar(pre.Level)
		local := c.freshLocal(p.Name.Name)
		env = env.AddValue(p.Name.Name, symbols.NewValEntry(ty, local, p.Name.Range))
		ordered[i] = ty
		orderedLocals[i] = local
	}

	mandatory := make(map[string]typesystem.Type, len(e.Labeled))
	mandatoryLocals := make(map[string]ir.Local, len(e.Labeled))
	for _, p := range e.Labeled {
		if _, ok := mandatory[p.Label]; ok {
			return Inferred{}, &diagnostics.DuplicatedLabel{Loc: diagnostics.At(p.Name.Range), Label: p.Label}
		}
		ty := c.ctx.FreshVar(pre.Level)
		local := c.freshLocal(p.Name.Name)
		env = env.AddValue(p.Name.Name, symbols.NewValEntry(ty, local, p.Name.Range))
		mandatory[p.Label] = ty
		mandatoryLocals[p.Label] = local
	}

	// Each optional parameter is seen at option<T> by the body unless a
	// default fills it, in which case the body sees T and the default must
	// have type T.
	optFields := make(map[string]typesystem.Type, len(e.Optional))
	optParams := make([]ir.OptParam, 0, len(e.Optional))
	for _, p := range e.Optional {
		if _, ok := optFields[p.Label]; ok {
			return Inferred{}, &diagnostics.DuplicatedLabel{Loc: diagnostics.At(p.Name.Range), Label: p.Label}
		}
		if _, ok := mandatory[p.Label]; ok {
			return Inferred{}, &diagnostics.DuplicatedLabel{Loc: diagnostics.At(p.Name.Range), Label: p.Label}
		}
		inner := c.ctx.FreshVar(pre.Level)
		local := c.freshLocal(p.Name.Name)
		var defVal ir.Value
		if p.Default != nil {
			def, err := c.InferExpr(pre, p.Default)
			if err != nil {
				return Inferred{}, err
			}
			if def.Eff != nil {
				return Inferred{}, diagnostics.NewContradiction(c.ctx, p.Default.Span(), def.Type, inner)
			}
			if uerr := c.unify(p.Default.Span(), def.Type, inner); uerr != nil {
				return Inferred{}, uerr
			}
			defVal = def.Value
			env = env.AddValue(p.Name.Name, symbols.NewValEntry(inner, local, p.Name.Range))
		} else {
			env = env.AddValue(p.Name.Name, symbols.NewValEntry(c.builtin.OptionOf(inner), local, p.Name.Range))
		}
		optFields[p.Label] = inner
		optParams = append(optParams, ir.OptParam{Label: p.Label, Var: local, Default: defVal})
	}

	body, err := c.InferExpr(pre.WithEnv(env), e.Body)
	if err != nil {
		return Inferred{}, err
	}

	dom := &typesystem.Domain{
		Ordered:   ordered,
		Mandatory: mandatory,
		Optional:  typesystem.FixedRow{Fields: optFields},
	}
	lambda := ir.Lambda{
		Ordered:   orderedLocals,
		Mandatory: mandatoryLocals,
		Optional:  optParams,
		Body:      body.Value,
	}
	if body.Eff != nil {
		return Inferred{
			Type:  typesystem.EffFunc{Dom: dom, Eff: body.Eff, Cod: body.Type},
			Value: lambda,
		}, nil
	}
	return Inferred{Type: typesystem.Func{Dom: dom, Cod: body.Type}, Value: lambda}, nil
}

// checkedArgs is the elaborated argument set of an application.
type checkedArgs struct {
	ordered   []ir.Value
	mandatory map[string]ir.Value
	optional  map[string]ir.Value
	eff       *typesystem.Effect
}

func (c *Checker) inferApply(pre Pre, e *ast.Apply) (Inferred, diagnostics.Error) {
	fn, err := c.InferExpr(pre, e.Fun)
	if err != nil {
		return Inferred{}, err
	}

	if lerr := checkDuplicateArgLabels(e); lerr != nil {
		return Inferred{}, lerr
	}

	var dom *typesystem.Domain
	var cod typesystem.Type
	var calleeEff *typesystem.Effect

	switch ft := c.ctx.Resolve(fn.Type).(type) {
	case typesystem.Func:
		dom, cod = ft.Dom, ft.Cod
	case typesystem.EffFunc:
		dom, cod, calleeEff = ft.Dom, ft.Cod, ft.Eff
	default:
		// The callee's shape is unknown: infer the domain from the
		// actuals and unify with a pure function type.
		dom = c.domainFromActuals(pre, e)
		cod = c.ctx.FreshVar(pre.Level)
		if uerr := c.unify(e.Fun.Span(), fn.Type, typesystem.Func{Dom: dom, Cod: cod}); uerr != nil {
			return Inferred{}, uerr
		}
	}

	args, err := c.checkArgsAgainstDomain(pre, e, dom)
	if err != nil {
		return Inferred{}, err
	}

	eff, merr := c.mergeEffects(e.Range, fn.Eff, args.eff)
	if merr != nil {
		return Inferred{}, merr
	}
	eff, merr = c.mergeEffects(e.Range, eff, calleeEff)
	if merr != nil {
		return Inferred{}, merr
	}

	apply := ir.Apply{
		OptionalRow: c.ctx.ResolveRow(dom.Optional),
		Ordered:     args.ordered,
		Mandatory:   args.mandatory,
		Optional:    args.optional,
	}
	var value ir.Value
	if v, ok := fn.Value.(ir.Var); ok {
		apply.Name = v.Name
		value = apply
	} else {
		tmp := c.freshLocal("f")
		apply.Name = tmp
		value = ir.LetIn{Var: tmp, Bound: fn.Value, Body: apply}
	}
	return Inferred{Type: cod, Eff: eff, Value: value}, nil
}

func checkDuplicateArgLabels(e *ast.Apply) diagnostics.Error {
	seen := map[string]bool{}
	for _, a := range e.Labeled {
		if seen[a.Label] {
			return &diagnostics.DuplicatedLabel{Loc: diagnostics.At(a.Range), Label: a.Label}
		}
		seen[a.Label] = true
	}
	for _, a := range e.Optional {
		if seen[a.Label] {
			return &diagnostics.DuplicatedLabel{Loc: diagnostics.At(a.Range), Label: a.Label}
		}
		seen[a.Label] = true
	}
	return nil
}

// domainFromActuals builds the domain an unknown callee must have: fresh
// types per argument and a free optional row constrained by the supplied
// optional labels.
func (c *Checker) domainFromActuals(pre Pre, e *ast.Apply) *typesystem.Domain {
	ordered := make([]typesystem.Type, len(e.Args))
	for i := range e.Args {
		ordered[i] = c.ctx.FreshVar(pre.Level)
	}
	mandatory := make(map[string]typesystem.Type, len(e.Labeled))
	for _, a := range e.Labeled {
		mandatory[a.Label] = c.ctx.FreshVar(pre.Level)
	}
	optKind := make(map[string]typesystem.Type, len(e.Optional))
	for _, a := range e.Optional {
		optKind[a.Label] = c.ctx.FreshVar(pre.Level)
	}
	return &typesystem.Domain{
		Ordered:   ordered,
		Mandatory: mandatory,
		Optional:  c.ctx.FreshRowVar(pre.Level, optKind),
	}
}

func (c *Checker) checkArgsAgainstDomain(pre Pre, e *ast.Apply, dom *typesystem.Domain) (checkedArgs, diagnostics.Error) {
	out := checkedArgs{
		mandatory: map[string]ir.Value{},
		optional:  map[string]ir.Value{},
	}

	if len(e.Args) != len(dom.Ordered) {
		return out, &diagnostics.BadArityOfOrderedArguments{
			Loc:      diagnostics.At(e.Range),
			Expected: len(dom.Ordered),
			Got:      len(e.Args),
		}
	}
	for i, a := range e.Args {
		res, err := c.InferExpr(pre, a)
		if err != nil {
			return out, err
		}
		if uerr := c.unify(a.Span(), res.Type, dom.Ordered[i]); uerr != nil {
			return out, uerr
		}
		var merr diagnostics.Error
		out.eff, merr = c.mergeEffects(a.Span(), out.eff, res.Eff)
		if merr != nil {
			return out, merr
		}
		out.ordered = append(out.ordered, res.Value)
	}

	for _, a := range e.Labeled {
		expected, ok := dom.Mandatory[a.Label]
		if !ok {
			return out, &diagnostics.UnexpectedMandatoryLabel{Loc: diagnostics.At(a.Range), Label: a.Label}
		}
		res, err := c.InferExpr(pre, a.Value)
		if err != nil {
			return out, err
		}
		if uerr := c.unify(a.Range, res.Type, expected); uerr != nil {
			return out, uerr
		}
		var merr diagnostics.Error
		out.eff, merr = c.mergeEffects(a.Range, out.eff, res.Eff)
		if merr != nil {
			return out, merr
		}
		out.mandatory[a.Label] = res.Value
	}
	for label := range dom.Mandatory {
		if _, ok := out.mandatory[label]; !ok {
			return out, &diagnostics.MissingMandatoryLabel{Loc: diagnostics.At(e.Range), Label: label}
		}
	}

	for _, a := range e.Optional {
		res, err := c.InferExpr(pre, a.Value)
		if err != nil {
			return out, err
		}
		if uerr := c.supplyOptional(pre, a, dom.Optional, res.Type); uerr != nil {
			return out, uerr
		}
		var merr diagnostics.Error
		out.eff, merr = c.mergeEffects(a.Range, out.eff, res.Eff)
		if merr != nil {
			return out, merr
		}
		out.optional[a.Label] = res.Value
	}

	return out, nil
}

// supplyOptional checks one optional argument against the callee's row. A
// fixed row must already carry the label; a free row variable is extended
// with it.
func (c *Checker) supplyOptional(pre Pre, a ast.LabeledArg, row typesystem.Row, actual typesystem.Type) diagnostics.Error {
	resolved := c.ctx.ResolveRow(row)
	switch r := resolved.(type) {
	case typesystem.FixedRow:
		expected, ok := r.Fields[a.Label]
		if !ok {
			return &diagnostics.UnexpectedOptionalLabel{Loc: diagnostics.At(a.Range), Label: a.Label}
		}
		return c.unify(a.Range, actual, expected)
	case typesystem.RowVarRef:
		if kty, ok := c.ctx.RowVarKind(r.ID)[a.Label]; ok {
			return c.unify(a.Range, actual, kty)
		}
		extension := c.ctx.FreshRowVar(pre.Level, map[string]typesystem.Type{a.Label: actual})
		res := c.ctx.UnifyRows(resolved, extension)
		if !res.OK() {
			return &diagnostics.UnexpectedOptionalLabel{Loc: diagnostics.At(a.Range), Label: a.Label}
		}
		return nil
	}
	return &diagnostics.UnexpectedOptionalLabel{Loc: diagnostics.At(a.Range), Label: a.Label}
}

func (c *Checker) inferIf(pre Pre, e *ast.If) (Inferred, diagnostics.Error) {
	cond, err := c.InferExpr(pre, e.Cond)
	if err != nil {
		return Inferred{}, err
	}
	if uerr := c.unify(e.Cond.Span(), cond.Type, typesystem.Base{Tag: typesystem.BoolType}); uerr != nil {
		return Inferred{}, uerr
	}
	then, err := c.InferExpr(pre, e.Then)
	if err != nil {
		return Inferred{}, err
	}
	els, err := c.InferExpr(pre, e.Else)
	if err != nil {
		return Inferred{}, err
	}
	if uerr := c.unify(e.Else.Span(), els.Type, then.Type); uerr != nil {
		return Inferred{}, uerr
	}
	eff, merr := c.mergeEffects(e.Range, cond.Eff, then.Eff)
	if merr != nil {
		return Inferred{}, merr
	}
	eff, merr = c.mergeEffects(e.Range, eff, els.Eff)
	if merr != nil {
		return Inferred{}, merr
	}
	// There is no conditional in the output language; a bool case does it.
	value := ir.Case{
		Scrutinee: cond.Value,
		Branches: []ir.Branch{
			{Pat: ir.PConst{Const: ir.BoolConst{Value: true}}, Body: then.Value},
			{Pat: ir.PConst{Const: ir.BoolConst{Value: false}}, Body: els.Value},
		},
	}
	return Inferred{Type: then.Type, Eff: eff, Value: value}, nil
}

func (c *Checker) inferDo(pre Pre, e *ast.Do) (Inferred, diagnostics.Error) {
	bound, err := c.InferExpr(pre, e.Bound)
	if err != nil {
		return Inferred{}, err
	}
	boundEff := c.computation(pre, bound.Eff)

	env := pre.Env
	var local ir.Local
	if e.Name != nil {
		local = c.freshLocal(e.Name.Name)
		env = env.AddValue(e.Name.Name, symbols.NewValEntry(bound.Type, local, e.Name.Range))
	} else {
		local = c.freshLocal("_")
		if uerr := c.unify(e.Bound.Span(), bound.Type, typesystem.Base{Tag: typesystem.UnitType}); uerr != nil {
			return Inferred{}, uerr
		}
	}

	body, err := c.InferExpr(pre.WithEnv(env), e.Body)
	if err != nil {
		return Inferred{}, err
	}
	bodyEff := c.computation(pre, body.Eff)
	eff, merr := c.mergeEffects(e.Range, boundEff, bodyEff)
	if merr != nil {
		return Inferred{}, merr
	}
	return Inferred{
		Type:  body.Type,
		Eff:   eff,
		Value: ir.LetIn{Var: local, Bound: bound.Value, Body: body.Value},
	}, nil
}

func (c *Checker) inferReceive(pre Pre, e *ast.Receive) (Inferred, diagnostics.Error) {
	recvTy := c.ctx.FreshVar(pre.Level)
	resultTy := c.ctx.FreshVar(pre.Level)
	eff := &typesystem.Effect{Receive: recvTy}

	branches := make([]ir.Branch, len(e.Arms))
	for i, arm := range e.Arms {
		patTy, ipat, bm, err := c.InferPattern(pre, arm.Pat)
		if err != nil {
			return Inferred{}, err
		}
		if uerr := c.unify(arm.Pat.Span(), patTy, recvTy); uerr != nil {
			return Inferred{}, uerr
		}
		body, err := c.InferExpr(pre.WithEnv(bm.Extend(pre.Env)), arm.Body)
		if err != nil {
			return Inferred{}, err
		}
		if uerr := c.unify(arm.Body.Span(), body.Type, resultTy); uerr != nil {
			return Inferred{}, uerr
		}
		var merr diagnostics.Error
		eff, merr = c.mergeEffects(arm.Body.Span(), eff, c.computation(pre, body.Eff))
		if merr != nil {
			return Inferred{}, merr
		}
		branches[i] = ir.Branch{Pat: ipat, Body: body.Value}
	}
	return Inferred{Type: resultTy, Eff: eff, Value: ir.Receive{Branches: branches}}, nil
}

func (c *Checker) inferCase(pre Pre, e *ast.Case) (Inferred, diagnostics.Error) {
	scrut, err := c.InferExpr(pre, e.Scrutinee)
	if err != nil {
		return Inferred{}, err
	}
	resultTy := c.ctx.FreshVar(pre.Level)
	eff := scrut.Eff

	branches := make([]ir.Branch, len(e.Arms))
	for i, arm := range e.Arms {
		patTy, ipat, bm, err := c.InferPattern(pre, arm.Pat)
		if err != nil {
			return Inferred{}, err
		}
		if uerr := c.unify(arm.Pat.Span(), patTy, scrut.Type); uerr != nil {
			return Inferred{}, uerr
		}
		body, err := c.InferExpr(pre.WithEnv(bm.Extend(pre.Env)), arm.Body)
		if err != nil {
			return Inferred{}, err
		}
		if uerr := c.unify(arm.Body.Span(), body.Type, resultTy); uerr != nil {
			return Inferred{}, uerr
		}
		var merr diagnostics.Error
		eff, merr = c.mergeEffects(arm.Body.Span(), eff, body.Eff)
		if merr != nil {
			return Inferred{}, merr
		}
		branches[i] = ir.Branch{Pat: ipat, Body: body.Value}
	}
	return Inferred{Type: resultTy, Eff: eff, Value: ir.Case{Scrutinee: scrut.Value, Branches: branches}}, nil
}

func (c *Checker) inferRecord(pre Pre, e *ast.RecordExpr) (Inferred, diagnostics.Error) {
	fields := make(map[string]typesystem.Type, len(e.Fields))
	vals := make(map[string]ir.Value, len(e.Fields))
	var eff *typesystem.Effect
	for _, f := range e.Fields {
		if _, ok := fields[f.Label]; ok {
			return Inferred{}, &diagnostics.DuplicatedLabel{Loc: diagnostics.At(f.Range), Label: f.Label}
		}
		res, err := c.InferExpr(pre, f.Value)
		if err != nil {
			return Inferred{}, err
		}
		var merr diagnostics.Error
		eff, merr = c.mergeEffects(f.Range, eff, res.Eff)
		if merr != nil {
			return Inferred{}, merr
		}
		fields[f.Label] = res.Type
		vals[f.Label] = res.Value
	}
	return Inferred{Type: typesystem.Record{Fields: fields}, Eff: eff, Value: ir.RecordValue{Fields: vals}}, nil
}

func (c *Checker) inferRecordUpdate(pre Pre, e *ast.RecordUpdate) (Inferred, diagnostics.Error) {
	target, err := c.InferExpr(pre, e.Target)
	if err != nil {
		return Inferred{}, err
	}
	eff := target.Eff
	kindFields := make(map[string]typesystem.Type, len(e.Fields))
	vals := make(map[string]ir.Value, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := kindFields[f.Label]; ok {
			return Inferred{}, &diagnostics.DuplicatedLabel{Loc: diagnostics.At(f.Range), Label: f.Label}
		}
		res, err := c.InferExpr(pre, f.Value)
		if err != nil {
			return Inferred{}, err
		}
		var merr diagnostics.Error
		eff, merr = c.mergeEffects(f.Range, eff, res.Eff)
		if merr != nil {
			return Inferred{}, merr
		}
		kindFields[f.Label] = res.Type
		vals[f.Label] = res.Value
	}
	constrained := c.ctx.FreshVarWithKind(pre.Level, typesystem.RecordKind{Fields: kindFields})
	if uerr := c.unify(e.Range, target.Type, constrained); uerr != nil {
		return Inferred{}, uerr
	}
	return Inferred{
		Type:  target.Type,
		Eff:   eff,
		Value: ir.RecordUpdate{Target: target.Value, Fields: vals},
	}, nil
}

func (c *Checker) inferCtorApp(pre Pre, e *ast.CtorApp) (Inferred, diagnostics.Error) {
	entry, err := c.findCtor(pre, e.Path, e.Name)
	if err != nil {
		return Inferred{}, err
	}
	if len(entry.ParamTypes) != len(e.Args) {
		return Inferred{}, &diagnostics.InvalidNumberOfConstructorArguments{
			Loc:      diagnostics.At(e.Range),
			Name:     e.Name.Name,
			Expected: len(entry.ParamTypes),
			Got:      len(e.Args),
		}
	}
	dataTy, paramTys := c.instantiateCtor(pre, entry)
	vals := make([]ir.Value, len(e.Args))
	var eff *typesystem.Effect
	for i, a := range e.Args {
		res, aerr := c.InferExpr(pre, a)
		if aerr != nil {
			return Inferred{}, aerr
		}
		if uerr := c.unify(a.Span(), res.Type, paramTys[i]); uerr != nil {
			return Inferred{}, uerr
		}
		var merr diagnostics.Error
		eff, merr = c.mergeEffects(a.Span(), eff, res.Eff)
		if merr != nil {
			return Inferred{}, merr
		}
		vals[i] = res.Value
	}
	return Inferred{
		Type: dataTy,
		Eff:  eff,
		Value: ir.Constructor{
			Variant: entry.Variant,
			Ctor:    entry.Ctor,
			Name:    e.Name.Name,
			Args:    vals,
		},
	}, nil
}

func (c *Checker) inferFreeze(pre Pre, e *ast.Freeze) (Inferred, diagnostics.Error) {
	target, err := c.inferVar(pre, &e.Target)
	if err != nil {
		return Inferred{}, err
	}
	gname, ok := target.Value.(ir.Var).Name.(ir.Global)
	if !ok {
		return Inferred{}, &diagnostics.CannotFreezeNonGlobalName{Loc: diagnostics.At(e.Target.Range), Name: e.Target.Name.Name}
	}

	ft, ok := c.ctx.Resolve(target.Type).(typesystem.EffFunc)
	if !ok {
		// An unconstrained target is pinned to an effectful function of
		// the written arity.
		ordered := make([]typesystem.Type, len(e.Args))
		for i := range ordered {
			ordered[i] = c.ctx.FreshVar(pre.Level)
		}
		ft = typesystem.EffFunc{
			Dom: &typesystem.Domain{
				Ordered:   ordered,
				Mandatory: map[string]typesystem.Type{},
				Optional:  typesystem.FixedRow{Fields: map[string]typesystem.Type{}},
			},
			Eff: &typesystem.Effect{Receive: c.ctx.FreshVar(pre.Level)},
			Cod: c.ctx.FreshVar(pre.Level),
		}
		if uerr := c.unify(e.Target.Range, target.Type, ft); uerr != nil {
			return Inferred{}, uerr
		}
	}

	rest, args, eff, err := c.checkFreezeArgs(pre, e.Args, e.Range, ft.Dom.Ordered)
	if err != nil {
		return Inferred{}, err
	}
	frozen := typesystem.Frozen{
		Rest: &typesystem.Domain{
			Ordered:   rest,
			Mandatory: ft.Dom.Mandatory,
			Optional:  ft.Dom.Optional,
		},
		Receive: ft.Eff.Receive,
		Return:  ft.Cod,
	}
	return Inferred{Type: frozen, Eff: eff, Value: ir.Freeze{Name: gname, Args: args}}, nil
}

func (c *Checker) inferFreezeUpdate(pre Pre, e *ast.FreezeUpdate) (Inferred, diagnostics.Error) {
	target, err := c.InferExpr(pre, e.Target)
	if err != nil {
		return Inferred{}, err
	}
	frozen, ok := c.ctx.Resolve(target.Type).(typesystem.Frozen)
	if !ok {
		expected := typesystem.Frozen{
			Rest:    typesystem.NewDomain(),
			Receive: c.ctx.FreshVar(pre.Level),
			Return:  c.ctx.FreshVar(pre.Level),
		}
		return Inferred{}, diagnostics.NewContradiction(c.ctx, e.Target.Span(), target.Type, expected)
	}

	rest, args, eff, err := c.checkFreezeArgs(pre, e.Args, e.Range, frozen.Rest.Ordered)
	if err != nil {
		return Inferred{}, err
	}
	eff, merr := c.mergeEffects(e.Range, target.Eff, eff)
	if merr != nil {
		return Inferred{}, merr
	}
	out := typesystem.Frozen{
		Rest: &typesystem.Domain{
			Ordered:   rest,
			Mandatory: frozen.Rest.Mandatory,
			Optional:  frozen.Rest.Optional,
		},
		Receive: frozen.Receive,
		Return:  frozen.Return,
	}
	return Inferred{Type: out, Eff: eff, Value: ir.FreezeUpdate{Target: target.Value, Args: args}}, nil
}

// checkFreezeArgs matches freeze argument slots against the expected
// ordered types: filled slots unify, holes stay in the remaining domain.
func (c *Checker) checkFreezeArgs(pre Pre, fargs []ast.FreezeArg, rng token.Range, expected []typesystem.Type) ([]typesystem.Type, []ir.FreezeArg, *typesystem.Effect, diagnostics.Error) {
	if len(fargs) != len(expected) {
		return nil, nil, nil, &diagnostics.BadArityOfOrderedArguments{
			Loc:      diagnostics.At(rng),
			Expected: len(expected),
			Got:      len(fargs),
		}
	}
	var rest []typesystem.Type
	var eff *typesystem.Effect
	args := make([]ir.FreezeArg, len(fargs))
	for i, fa := range fargs {
		if fa.Hole {
			rest = append(rest, expected[i])
			args[i] = ir.FreezeArg{Hole: true}
			continue
		}
		res, err := c.InferExpr(pre, fa.Value)
		if err != nil {
			return nil, nil, nil, err
		}
		if uerr := c.unify(fa.Range, res.Type, expected[i]); uerr != nil {
			return nil, nil, nil, uerr
		}
		var merr diagnostics.Error
		eff, merr = c.mergeEffects(fa.Range, eff, res.Eff)
		if merr != nil {
			return nil, nil, nil, merr
		}
		args[i] = ir.FreezeArg{Value: res.Value}
	}
	return rest, args, eff, nil
}
