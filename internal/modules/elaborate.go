// Package modules elaborates the module calculus: structures, functors,
// projections, includes, signature ascription, and signature subtyping.
// Value bindings are delegated to the analyzer.
package modules

import (
	"strings"

	"github.com/sester-lang/sester/internal/analyzer"
	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

// Elaborator drives module elaboration over a shared checker.
type Elaborator struct {
	ctx *typesystem.Context
	chk *analyzer.Checker
}

// New creates an elaborator sharing the checker's context.
func New(chk *analyzer.Checker) *Elaborator {
	return &Elaborator{ctx: chk.Ctx(), chk: chk}
}

// modResult is the outcome of elaborating one module expression.
type modResult struct {
	abs      symbols.Abstracted
	bindings []ir.Binding
	space    string
}

func spaceOf(address []string) string {
	return strings.Join(address, ".")
}

// ElaborateSource elaborates a parsed compilation unit: the root structure,
// optionally sealed by its signature ascription. It returns the extended
// environment, the abstracted signature of the root module, its output
// space, and the emitted bindings.
func (el *Elaborator) ElaborateSource(env symbols.Env, src *ast.Source) (symbols.Env, symbols.Abstracted, string, []ir.Binding, diagnostics.Error) {
	address := []string{src.Name.Name}
	res, err := el.elaborateModule(env, address, &ast.ModBinds{Bindings: src.Bindings, Range: src.Range})
	if err != nil {
		return symbols.Env{}, symbols.Abstracted{}, "", nil, err
	}
	if src.Sig != nil {
		sigAbs, err := el.decodeSig(env, address, *src.Sig)
		if err != nil {
			return symbols.Env{}, symbols.Abstracted{}, "", nil, err
		}
		res.abs, err = el.seal(src.Range, res, sigAbs)
		if err != nil {
			return symbols.Env{}, symbols.Abstracted{}, "", nil, err
		}
	}
	if _, ok := res.abs.Sig.(*symbols.StructureSig); !ok {
		return symbols.Env{}, symbols.Abstracted{}, "", nil, &diagnostics.RootModuleMustBeStructure{Loc: diagnostics.At(src.Range)}
	}
	env = env.AddModule(src.Name.Name, symbols.ModuleEntry{Sig: res.abs.Sig, Space: res.space})
	return env, res.abs, res.space, res.bindings, nil
}

func (el *Elaborator) elaborateModule(env symbols.Env, address []string, me ast.ModuleExpr) (modResult, diagnostics.Error) {
	switch me := me.(type) {
	case *ast.ModVar:
		entry, ok := env.FindModule(me.Name.Name)
		if !ok {
			return modResult{}, &diagnostics.UnboundModuleName{Loc: diagnostics.At(me.Range), Name: me.Name.Name}
		}
		return modResult{
			abs:   symbols.Abstracted{Opaques: symbols.NewOpaqueSet(), Sig: entry.Sig},
			space: entry.Space,
		}, nil

	case *ast.ModBinds:
		rec, opaques, bindings, err := el.elaborateBindings(env, address, me.Bindings)
		if err != nil {
			return modResult{}, err
		}
		return modResult{
			abs:      symbols.Abstracted{Opaques: opaques, Sig: &symbols.StructureSig{Record: rec}},
			bindings: bindings,
			space:    spaceOf(address),
		}, nil

	case *ast.ModProj:
		target, err := el.elaborateModule(env, address, me.Target)
		if err != nil {
			return modResult{}, err
		}
		rec, rerr := recordOf(target.abs.Sig, me.Range)
		if rerr != nil {
			return modResult{}, rerr
		}
		entry, ok := rec.FindModule(me.Name.Name)
		if !ok {
			return modResult{}, &diagnostics.UnboundModuleName{Loc: diagnostics.At(me.Range), Name: me.Name.Name}
		}
		return modResult{
			abs:   symbols.Abstracted{Opaques: symbols.NewOpaqueSet(), Sig: entry.Sig},
			space: entry.Space,
		}, nil

	case *ast.ModFunctor:
		return el.elaborateFunctor(env, address, me)

	case *ast.ModApply:
		return el.elaborateApply(env, address, me)

	case *ast.ModCoerce:
		target, err := el.elaborateModule(env, address, me.Target)
		if err != nil {
			return modResult{}, err
		}
		sigAbs, err := el.decodeSig(env, address, me.Sig)
		if err != nil {
			return modResult{}, err
		}
		sealed, err := el.seal(me.Range, target, sigAbs)
		if err != nil {
			return modResult{}, err
		}
		target.abs = sealed
		return target, nil
	}
	panic("modules: unknown module expression")
}

func (el *Elaborator) elaborateFunctor(env symbols.Env, address []string, me *ast.ModFunctor) (modResult, diagnostics.Error) {
	domAbs, err := el.decodeSig(env, address, me.Domain)
	if err != nil {
		return modResult{}, err
	}
	if _, ok := domAbs.Sig.(*symbols.FunctorSig); ok {
		return modResult{}, &diagnostics.SupportOnlyFirstOrderFunctor{Loc: diagnostics.At(me.Domain.Span())}
	}

	// Typecheck the body once against the abstract domain; applications
	// re-elaborate it against their actual arguments.
	bodyEnv := env.AddModule(me.Param.Name, symbols.ModuleEntry{Sig: domAbs.Sig, Space: me.Param.Name})
	bodyRes, err := el.elaborateModule(bodyEnv, append(append([]string{}, address...), me.Param.Name), me.Body)
	if err != nil {
		return modResult{}, err
	}

	fsig := &symbols.FunctorSig{
		Opaques:  domAbs.Opaques,
		Domain:   domAbs.Sig,
		Codomain: bodyRes.abs,
		Closure:  &symbols.FunctorClosure{Param: me.Param.Name, Body: me.Body, Env: env},
	}
	return modResult{
		abs:   symbols.Abstracted{Opaques: symbols.NewOpaqueSet(), Sig: fsig},
		space: spaceOf(address),
	}, nil
}

func (el *Elaborator) elaborateApply(env symbols.Env, address []string, me *ast.ModApply) (modResult, diagnostics.Error) {
	fn, err := el.elaborateModule(env, address, me.Fun)
	if err != nil {
		return modResult{}, err
	}
	fsig, ok := fn.abs.Sig.(*symbols.FunctorSig)
	if !ok {
		return modResult{}, &diagnostics.NotOfFunctorType{Loc: diagnostics.At(me.Fun.Span()), Name: moduleName(me.Fun)}
	}
	arg, err := el.elaborateModule(env, address, me.Arg)
	if err != nil {
		return modResult{}, err
	}
	argRec, rerr := recordOf(arg.abs.Sig, me.Arg.Span())
	if rerr != nil {
		return modResult{}, rerr
	}

	witness, err := el.subtypeAbstract(me.Range, argRec, symbols.Abstracted{Opaques: fsig.Opaques, Sig: fsig.Domain})
	if err != nil {
		return modResult{}, err
	}
	cod := symbols.Abstracted{
		Opaques: fsig.Codomain.Opaques,
		Sig:     symbols.SubstSignature(fsig.Codomain.Sig, witness.apply),
	}
	cod = symbols.CopyAbstracted(el.ctx, cod)

	// Re-elaborate the stored body against the actual argument so the
	// emitted bindings close over the argument's global names.
	var bindings []ir.Binding
	if fsig.Closure != nil {
		appEnv := fsig.Closure.Env.AddModule(fsig.Closure.Param, symbols.ModuleEntry{Sig: arg.abs.Sig, Space: arg.space})
		res, err := el.elaborateModule(appEnv, address, fsig.Closure.Body)
		if err != nil {
			return modResult{}, err
		}
		bindings = res.bindings
	}
	return modResult{abs: cod, bindings: bindings, space: spaceOf(address)}, nil
}

func moduleName(me ast.ModuleExpr) string {
	if mv, ok := me.(*ast.ModVar); ok {
		return mv.Name.Name
	}
	return "_"
}

func recordOf(sig symbols.Signature, rng token.Range) (*symbols.SigRecord, diagnostics.Error) {
	st, ok := sig.(*symbols.StructureSig)
	if !ok {
		return nil, &diagnostics.NotOfStructureType{Loc: diagnostics.At(rng), Name: "_"}
	}
	return st.Record, nil
}

// seal checks the module against the ascribed signature and abstracts it,
// keeping the module's runtime names behind the signature's entries.
func (el *Elaborator) seal(rng token.Range, target modResult, sigAbs symbols.Abstracted) (symbols.Abstracted, diagnostics.Error) {
	targetRec, rerr := recordOf(target.abs.Sig, rng)
	if rerr != nil {
		return symbols.Abstracted{}, rerr
	}
	copied := symbols.CopyAbstracted(el.ctx, sigAbs)
	sealedRec, rerr2 := recordOf(copied.Sig, rng)
	if rerr2 != nil {
		return symbols.Abstracted{}, &diagnostics.NotAStructureSignature{Loc: diagnostics.At(rng)}
	}
	if _, err := el.subtypeAbstract(rng, targetRec, copied); err != nil {
		return symbols.Abstracted{}, err
	}
	sealed := copyClosure(sealedRec, targetRec)
	return symbols.Abstracted{Opaques: copied.Opaques, Sig: &symbols.StructureSig{Record: sealed}}, nil
}

// copyClosure rewrites the value entries of a sealed record to carry the
// implementing module's output names, recursing into member modules.
func copyClosure(sealed, actual *symbols.SigRecord) *symbols.SigRecord {
	out := symbols.NewSigRecord()
	sealed.Items(func(item symbols.SigItem) bool {
		switch item.Class {
		case symbols.ValClass:
			if impl, ok := actual.FindVal(item.Name); ok {
				impl.MarkUsed()
				entry := item.Val
				entry.Name = impl.Name
				item.Val = entry
			}
		case symbols.ModuleClass:
			implMod, ok := actual.FindModule(item.Name)
			if !ok {
				break
			}
			sealedSub, okSealed := item.Module.Sig.(*symbols.StructureSig)
			actualSub, okActual := implMod.Sig.(*symbols.StructureSig)
			if okSealed && okActual {
				entry := item.Module
				entry.Sig = &symbols.StructureSig{Record: copyClosure(sealedSub.Record, actualSub.Record)}
				entry.Space = implMod.Space
				item.Module = entry
			}
		}
		out = out.Add(item)
		return true
	})
	return out
}
