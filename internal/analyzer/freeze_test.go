package analyzer

import (
	"testing"

	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/typesystem"
)

func TestFreezeGlobalWithHoles(t *testing.T) {
	chk, pre := newTestChecker(t)
	ctx := chk.Ctx()
	// send is a runtime-provided global of arity 2; freezing it with two
	// holes leaves both parameters in the remaining domain.
	expr := &ast.Freeze{
		Target: ast.Var{Name: ident("send")},
		Args:   []ast.FreezeArg{{Hole: true}, {Hole: true}},
	}
	res := mustInfer(t, chk, pre, expr)
	frozen, ok := ctx.Resolve(res.Type).(typesystem.Frozen)
	if !ok {
		t.Fatalf("type = %s, want frozen", ctx.TypeString(res.Type))
	}
	if len(frozen.Rest.Ordered) != 2 {
		t.Fatalf("remaining slots = %d, want 2", len(frozen.Rest.Ordered))
	}
	pid, ok := ctx.Resolve(frozen.Rest.Ordered[0]).(typesystem.Pid)
	if !ok {
		t.Fatalf("first slot = %s, want a pid", ctx.TypeString(frozen.Rest.Ordered[0]))
	}
	if !ctx.TypesEqual(ctx.Resolve(pid.Receive), ctx.Resolve(frozen.Rest.Ordered[1])) {
		t.Fatalf("pid message and payload types differ: %s", ctx.TypeString(res.Type))
	}
	if !ctx.TypesEqual(ctx.Resolve(frozen.Return), typesystem.Base{Tag: typesystem.UnitType}) {
		t.Fatalf("return = %s, want unit", ctx.TypeString(frozen.Return))
	}
}

func TestFreezeFilledSlotUnifies(t *testing.T) {
	chk, pre := newTestChecker(t)
	ctx := chk.Ctx()
	// Filling the payload slot with an int pins the pid's message type.
	expr := &ast.Freeze{
		Target: ast.Var{Name: ident("send")},
		Args: []ast.FreezeArg{
			{Hole: true},
			{Value: lit(ast.IntConst{Value: 7})},
		},
	}
	res := mustInfer(t, chk, pre, expr)
	frozen := ctx.Resolve(res.Type).(typesystem.Frozen)
	if len(frozen.Rest.Ordered) != 1 {
		t.Fatalf("remaining slots = %d, want 1", len(frozen.Rest.Ordered))
	}
	pid := ctx.Resolve(frozen.Rest.Ordered[0]).(typesystem.Pid)
	if got := ctx.Resolve(pid.Receive); !ctx.TypesEqual(got, typesystem.Base{Tag: typesystem.IntType}) {
		t.Fatalf("pid receive = %s, want int", ctx.TypeString(got))
	}
}

func TestFreezeLocalNameRejected(t *testing.T) {
	chk, pre := newTestChecker(t)
	expr := letIn("f",
		lam([]string{"x"}, vr("x")),
		&ast.Freeze{Target: ast.Var{Name: ident("f")}, Args: []ast.FreezeArg{{Hole: true}}},
	)
	_, err := chk.InferExpr(pre, expr)
	if _, ok := err.(*diagnostics.CannotFreezeNonGlobalName); !ok {
		t.Fatalf("err = %v, want CannotFreezeNonGlobalName", err)
	}
}

func TestFreezeArityChecked(t *testing.T) {
	chk, pre := newTestChecker(t)
	expr := &ast.Freeze{
		Target: ast.Var{Name: ident("send")},
		Args:   []ast.FreezeArg{{Hole: true}},
	}
	_, err := chk.InferExpr(pre, expr)
	if _, ok := err.(*diagnostics.BadArityOfOrderedArguments); !ok {
		t.Fatalf("err = %v, want BadArityOfOrderedArguments", err)
	}
}
