// Package analyzer implements the manual-type decoder and the expression
// and pattern checker. The module elaborator drives it binding by binding;
// everything here works over an explicit typesystem.Context and a
// persistent environment.
package analyzer

import (
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

// Checker carries the shared context, the builtin type IDs, and the
// warnings collected so far. Errors are not collected: the first one aborts
// and propagates.
type Checker struct {
	ctx      *typesystem.Context
	builtin  *Builtin
	Warnings []diagnostics.Warning
}

// New creates a checker over the given context and builtin table.
func New(ctx *typesystem.Context, builtin *Builtin) *Checker {
	return &Checker{ctx: ctx, builtin: builtin}
}

// NewWithPrimitives builds a fresh checker together with the primitives
// environment. This is the usual entry point.
func NewWithPrimitives(ctx *typesystem.Context) (*Checker, symbols.Env) {
	env, builtin := Primitives(ctx)
	return New(ctx, builtin), env
}

// Builtins exposes the builtin type IDs.
func (c *Checker) Builtins() *Builtin { return c.builtin }

// Ctx exposes the underlying context.
func (c *Checker) Ctx() *typesystem.Context { return c.ctx }

// Pre is the per-scope inference state: the current generalization level,
// the environment, and the handwritten type and row parameters in scope.
type Pre struct {
	Level      int
	Env        symbols.Env
	TypeParams map[string]typesystem.VarRef
	RowParams  map[string]typesystem.RowVarRef
}

// WithEnv returns a copy of pre with the environment replaced.
func (p Pre) WithEnv(env symbols.Env) Pre {
	p.Env = env
	return p
}

// Deeper returns a copy of pre one level down.
func (p Pre) Deeper() Pre {
	p.Level++
	return p
}

// Inferred is the outcome of checking one expression: its type, its effect
// when the expression is a computation, and the elaborated IR.
type Inferred struct {
	Type  typesystem.Type
	Eff   *typesystem.Effect
	Value ir.Value
}

// unify wraps the solver, converting a failure into the typed error for
// the given range.
func (c *Checker) unify(rng token.Range, actual, expected typesystem.Type) diagnostics.Error {
	res := c.ctx.Unify(actual, expected)
	switch res.Outcome {
	case typesystem.Consistent:
		return nil
	case typesystem.Inclusion:
		return diagnostics.NewInclusion(c.ctx, rng, res.Var, actual, expected)
	case typesystem.InclusionRow:
		return diagnostics.NewInclusionRow(c.ctx, rng, res.RowVar, actual, expected)
	default:
		return diagnostics.NewContradiction(c.ctx, rng, actual, expected)
	}
}

// mergeEffects combines the effects of sub-computations: a pure side is
// absorbed, two effectful sides have their receive types unified.
func (c *Checker) mergeEffects(rng token.Range, e1, e2 *typesystem.Effect) (*typesystem.Effect, diagnostics.Error) {
	if e1 == nil {
		return e2, nil
	}
	if e2 == nil {
		return e1, nil
	}
	if err := c.unify(rng, e1.Receive, e2.Receive); err != nil {
		return nil, err
	}
	return e1, nil
}

// computation coerces a pure expression into a computation that can run in
// any process, giving it an unconstrained receive type.
func (c *Checker) computation(pre Pre, eff *typesystem.Effect) *typesystem.Effect {
	if eff != nil {
		return eff
	}
	return &typesystem.Effect{Receive: c.ctx.FreshVar(pre.Level)}
}

// freshLocal mints a numbered local carrying the source spelling.
func (c *Checker) freshLocal(hint string) ir.Local {
	return ir.Local{Number: c.ctx.FreshLocal(), Hint: hint}
}

// warnUnused records an unused-binding warning when the entry was never
// referenced.
func (c *Checker) warnUnused(name string, entry symbols.ValEntry, rng token.Range) {
	if entry.IsUsed() {
		return
	}
	c.Warnings = append(c.Warnings, &diagnostics.UnusedVariable{Loc: diagnostics.At(rng), Name: name})
}

// Generalize wraps the level-based generalizer, converting the cyclic-kind
// failure into its typed error.
func (c *Checker) Generalize(lev int, t typesystem.Type, rng token.Range) (typesystem.Type, diagnostics.Error) {
	pty, err := c.ctx.Generalize(lev, t)
	if err != nil {
		return nil, &diagnostics.CyclicTypeParameter{Loc: diagnostics.At(rng)}
	}
	return pty, nil
}
