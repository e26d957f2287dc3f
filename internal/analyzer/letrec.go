package analyzer

import (
	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/typesystem"
)

func (c *Checker) inferLet(pre Pre, e *ast.LetIn) (Inferred, diagnostics.Error) {
	if pv, ok := e.Pat.(*ast.PVar); ok {
		return c.inferLetVar(pre, e, pv)
	}

	// A pattern binding is not generalized; every bound name stays
	// monomorphic.
	bound, err := c.InferExpr(pre, e.Bound)
	if err != nil {
		return Inferred{}, err
	}
	patTy, ipat, bm, err := c.InferPattern(pre, e.Pat)
	if err != nil {
		return Inferred{}, err
	}
	if uerr := c.unify(e.Pat.Span(), patTy, bound.Type); uerr != nil {
		return Inferred{}, uerr
	}
	env := bm.Extend(pre.Env)
	body, err := c.InferExpr(pre.WithEnv(env), e.Body)
	if err != nil {
		return Inferred{}, err
	}
	for _, pb := range bm.Bindings() {
		if entry, ok := env.FindValue(pb.Name); ok {
			c.warnUnused(pb.Name, entry, pb.Range)
		}
	}
	eff, merr := c.mergeEffects(e.Range, bound.Eff, body.Eff)
	if merr != nil {
		return Inferred{}, merr
	}
	return Inferred{
		Type: body.Type,
		Eff:  eff,
		Value: ir.Case{
			Scrutinee: bound.Value,
			Branches:  []ir.Branch{{Pat: ipat, Body: body.Value}},
		},
	}, nil
}

func (c *Checker) inferLetVar(pre Pre, e *ast.LetIn, pv *ast.PVar) (Inferred, diagnostics.Error) {
	bound, err := c.InferExpr(pre.Deeper(), e.Bound)
	if err != nil {
		return Inferred{}, err
	}
	poly, gerr := c.Generalize(pre.Level, bound.Type, e.Bound.Span())
	if gerr != nil {
		return Inferred{}, gerr
	}
	local := c.freshLocal(pv.Name.Name)
	entry := symbols.NewValEntry(poly, local, pv.Range)
	body, err := c.InferExpr(pre.WithEnv(pre.Env.AddValue(pv.Name.Name, entry)), e.Body)
	if err != nil {
		return Inferred{}, err
	}
	c.warnUnused(pv.Name.Name, entry, pv.Range)
	eff, merr := c.mergeEffects(e.Range, bound.Eff, body.Eff)
	if merr != nil {
		return Inferred{}, merr
	}
	return Inferred{
		Type:  body.Type,
		Eff:   eff,
		Value: ir.LetIn{Var: local, Bound: bound.Value, Body: body.Value},
	}, nil
}

func (c *Checker) inferLetRec(pre Pre, e *ast.LetRecIn) (Inferred, diagnostics.Error) {
	deeper := pre.Deeper()
	n := len(e.Bindings)

	locals := make([]ir.Local, n)
	vars := make([]typesystem.Type, n)
	recEnv := pre.Env
	for i, b := range e.Bindings {
		locals[i] = c.freshLocal(b.Name.Name)
		vars[i] = c.ctx.FreshVar(deeper.Level)
		recEnv = recEnv.AddValue(b.Name.Name, symbols.NewValEntry(vars[i], locals[i], b.Name.Range))
	}

	lambdas := make([]ir.Lambda, n)
	for i, b := range e.Bindings {
		res, err := c.inferLambda(deeper.WithEnv(recEnv), b.Fun)
		if err != nil {
			return Inferred{}, err
		}
		if uerr := c.unify(b.Fun.Range, res.Type, vars[i]); uerr != nil {
			return Inferred{}, uerr
		}
		lambdas[i] = res.Value.(ir.Lambda)
	}

	bodyEnv := pre.Env
	entries := make([]symbols.ValEntry, n)
	for i, b := range e.Bindings {
		poly, gerr := c.Generalize(pre.Level, vars[i], b.Fun.Range)
		if gerr != nil {
			return Inferred{}, gerr
		}
		entries[i] = symbols.NewValEntry(poly, locals[i], b.Name.Range)
		bodyEnv = bodyEnv.AddValue(b.Name.Name, entries[i])
	}

	body, err := c.InferExpr(pre.WithEnv(bodyEnv), e.Body)
	if err != nil {
		return Inferred{}, err
	}
	for i, b := range e.Bindings {
		c.warnUnused(b.Name.Name, entries[i], b.Name.Range)
	}

	if n == 1 {
		// A single recursive binding closes over itself directly.
		lam := lambdas[0]
		lam.Self = &locals[0]
		return Inferred{
			Type:  body.Type,
			Eff:   body.Eff,
			Value: ir.LetIn{Var: locals[0], Bound: lam, Body: body.Value},
		}, nil
	}

	// A mutually recursive group becomes one self-recursive closure that
	// returns the tuple of the definitions; every use site projects its
	// member out of a fresh call, so no definition is duplicated.
	group := c.freshLocal("rec")
	groupPats := make([]ir.Pattern, n)
	for i := range locals {
		groupPats[i] = ir.PVar{Var: locals[i]}
	}
	groupCall := ir.Apply{
		Name:        group,
		OptionalRow: typesystem.FixedRow{Fields: map[string]typesystem.Type{}},
		Mandatory:   map[string]ir.Value{},
		Optional:    map[string]ir.Value{},
	}
	rebind := func(inner ir.Value) ir.Value {
		return ir.Case{
			Scrutinee: groupCall,
			Branches:  []ir.Branch{{Pat: ir.PTuple{Elems: groupPats}, Body: inner}},
		}
	}

	members := make([]ir.Value, n)
	for i := range lambdas {
		lam := lambdas[i]
		lam.Body = rebind(lam.Body)
		members[i] = lam
	}
	groupLambda := ir.Lambda{
		Self:      &group,
		Mandatory: map[string]ir.Local{},
		Body:      ir.Tuple{Elems: members},
	}
	return Inferred{
		Type:  body.Type,
		Eff:   body.Eff,
		Value: ir.LetIn{Var: group, Bound: groupLambda, Body: rebind(body.Value)},
	}, nil
}
