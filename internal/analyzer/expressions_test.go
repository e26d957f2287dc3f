package analyzer

import (
	"testing"

	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

func newTestChecker(t *testing.T) (*Checker, Pre) {
	t.Helper()
	ctx := typesystem.NewContext()
	chk, env := NewWithPrimitives(ctx)
	pre := Pre{
		Level:      0,
		Env:        env,
		TypeParams: map[string]typesystem.VarRef{},
		RowParams:  map[string]typesystem.RowVarRef{},
	}
	return chk, pre
}

func ident(name string) ast.Ident { return ast.Ident{Name: name} }

func vr(name string) *ast.Var { return &ast.Var{Name: ident(name)} }

func lit(c ast.Const) ast.Expr { return &ast.Literal{Const: c} }

func lam(params []string, body ast.Expr) *ast.Lambda {
	ps := make([]ast.Param, len(params))
	for i, p := range params {
		ps[i] = ast.Param{Name: ident(p)}
	}
	return &ast.Lambda{Params: ps, Body: body}
}

func app(f ast.Expr, args ...ast.Expr) *ast.Apply {
	return &ast.Apply{Fun: f, Args: args}
}

func letIn(name string, bound, body ast.Expr) *ast.LetIn {
	return &ast.LetIn{Pat: &ast.PVar{Name: ident(name)}, Bound: bound, Body: body}
}

func mustInfer(t *testing.T, chk *Checker, pre Pre, e ast.Expr) Inferred {
	t.Helper()
	res, err := chk.InferExpr(pre, e)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	return res
}

func TestIdentityGeneralizesPerUse(t *testing.T) {
	chk, pre := newTestChecker(t)
	// let id = fun x -> x in (id(3), id(true))
	expr := letIn("id",
		lam([]string{"x"}, vr("x")),
		&ast.Tuple{Elems: []ast.Expr{
			app(vr("id"), lit(ast.IntConst{Value: 3})),
			app(vr("id"), lit(ast.BoolConst{Value: true})),
		}},
	)
	res := mustInfer(t, chk, pre, expr)
	want := typesystem.Product{Types: []typesystem.Type{
		typesystem.Base{Tag: typesystem.IntType},
		typesystem.Base{Tag: typesystem.BoolType},
	}}
	if !chk.Ctx().TypesEqual(res.Type, want) {
		t.Fatalf("type = %s, want int * bool", chk.Ctx().TypeString(res.Type))
	}
}

func TestIdentityPolytypeShape(t *testing.T) {
	chk, pre := newTestChecker(t)
	res := mustInfer(t, chk, pre.Deeper(), lam([]string{"x"}, vr("x")))
	poly, gerr := chk.Generalize(0, res.Type, token.Dummy())
	if gerr != nil {
		t.Fatalf("generalize: %v", gerr)
	}
	fn := poly.(typesystem.Func)
	dom, ok1 := fn.Dom.Ordered[0].(typesystem.BoundRef)
	cod, ok2 := fn.Cod.(typesystem.BoundRef)
	if !ok1 || !ok2 || dom.ID != cod.ID {
		t.Fatalf("identity polytype = %s, want one quantifier at both ends", chk.Ctx().TypeString(poly))
	}
}

// Inference over one AST is deterministic: two fresh runs render
// alpha-equivalent polytypes identically.
func TestInferenceIsDeterministic(t *testing.T) {
	expr := lam([]string{"f", "x"}, app(vr("f"), app(vr("f"), vr("x"))))
	run := func() string {
		chk, pre := newTestChecker(t)
		res := mustInfer(t, chk, pre.Deeper(), expr)
		poly, gerr := chk.Generalize(0, res.Type, token.Dummy())
		if gerr != nil {
			t.Fatalf("generalize: %v", gerr)
		}
		return chk.Ctx().TypeString(poly)
	}
	first := run()
	second := run()
	if first != second {
		t.Fatalf("runs disagree: %s vs %s", first, second)
	}
}

// let rec map(f, xs) = case xs of [] -> [] | x :: t -> f(x) :: map(f, t)
func TestMapInfersPolymorphicType(t *testing.T) {
	chk, pre := newTestChecker(t)
	ctx := chk.Ctx()

	caseExpr := &ast.Case{
		Scrutinee: vr("xs"),
		Arms: []ast.CaseArm{
			{Pat: &ast.PListNil{}, Body: &ast.ListNil{}},
			{
				Pat: &ast.PListCons{Head: &ast.PVar{Name: ident("x")}, Tail: &ast.PVar{Name: ident("t")}},
				Body: &ast.ListCons{
					Head: app(vr("f"), vr("x")),
					Tail: app(vr("map"), vr("f"), vr("t")),
				},
			},
		},
	}
	expr := &ast.LetRecIn{
		Bindings: []ast.RecBinding{{Name: ident("map"), Fun: lam([]string{"f", "xs"}, caseExpr)}},
		Body:     vr("map"),
	}

	res := mustInfer(t, chk, pre, expr)
	mono, ok := ctx.Resolve(res.Type).(typesystem.Func)
	if !ok {
		t.Fatalf("map type = %s, want a function", ctx.TypeString(res.Type))
	}
	if len(mono.Dom.Ordered) != 2 {
		t.Fatalf("map takes %d ordered args, want 2", len(mono.Dom.Ordered))
	}
	fparam, ok := ctx.Resolve(mono.Dom.Ordered[0]).(typesystem.Func)
	if !ok {
		t.Fatalf("first parameter = %s, want a function", ctx.TypeString(mono.Dom.Ordered[0]))
	}
	xs, ok := ctx.Resolve(mono.Dom.Ordered[1]).(typesystem.Data)
	if !ok || xs.ID != typesystem.TypeID(chk.Builtins().List) {
		t.Fatalf("second parameter = %s, want a list", ctx.TypeString(mono.Dom.Ordered[1]))
	}
	cod, ok := ctx.Resolve(mono.Cod).(typesystem.Data)
	if !ok || cod.ID != typesystem.TypeID(chk.Builtins().List) {
		t.Fatalf("codomain = %s, want a list", ctx.TypeString(mono.Cod))
	}
	if !ctx.TypesEqual(fparam.Dom.Ordered[0], xs.Args[0]) {
		t.Errorf("f's domain and the element type differ: %s", ctx.TypeString(res.Type))
	}
	if !ctx.TypesEqual(fparam.Cod, cod.Args[0]) {
		t.Errorf("f's codomain and the result element type differ: %s", ctx.TypeString(res.Type))
	}
	if ctx.TypesEqual(xs.Args[0], cod.Args[0]) {
		t.Errorf("input and output element types collapsed: %s", ctx.TypeString(res.Type))
	}
}

// r.name constrains r through a record kind; a record carrying more fields
// still unifies.
func TestRecordAccessThroughKindedVariable(t *testing.T) {
	chk, pre := newTestChecker(t)
	expr := app(
		lam([]string{"r"}, &ast.RecordAccess{Target: vr("r"), Label: "name"}),
		&ast.RecordExpr{Fields: []ast.FieldAssign{
			{Label: "name", Value: lit(ast.IntConst{Value: 1})},
			{Label: "age", Value: lit(ast.IntConst{Value: 2})},
		}},
	)
	res := mustInfer(t, chk, pre, expr)
	if !chk.Ctx().TypesEqual(res.Type, typesystem.Base{Tag: typesystem.IntType}) {
		t.Fatalf("access type = %s, want int", chk.Ctx().TypeString(res.Type))
	}
}

func TestRecordAccessMissingFieldIsInclusion(t *testing.T) {
	chk, pre := newTestChecker(t)
	expr := app(
		lam([]string{"r"}, &ast.RecordAccess{Target: vr("r"), Label: "name"}),
		&ast.RecordExpr{Fields: []ast.FieldAssign{
			{Label: "age", Value: lit(ast.IntConst{Value: 2})},
		}},
	)
	_, err := chk.InferExpr(pre, expr)
	if _, ok := err.(*diagnostics.InclusionError); !ok {
		t.Fatalf("err = %v, want InclusionError", err)
	}
}

// receive | n -> send(parent, n) inside spawn ties the spawned process's
// receive type to the parent pid's message type.
func TestReceiveSendSpawnWiring(t *testing.T) {
	chk, pre := newTestChecker(t)
	ctx := chk.Ctx()

	inner := &ast.Lambda{Body: &ast.Receive{
		Arms: []ast.CaseArm{{
			Pat:  &ast.PVar{Name: ident("n")},
			Body: app(vr("send"), vr("parent"), vr("n")),
		}},
	}}
	outer := lam([]string{"parent"}, app(vr("spawn"), inner))

	res := mustInfer(t, chk, pre, outer)
	ef, ok := ctx.Resolve(res.Type).(typesystem.EffFunc)
	if !ok {
		t.Fatalf("type = %s, want an effectful function", ctx.TypeString(res.Type))
	}
	parent, ok := ctx.Resolve(ef.Dom.Ordered[0]).(typesystem.Pid)
	if !ok {
		t.Fatalf("parent = %s, want a pid", ctx.TypeString(ef.Dom.Ordered[0]))
	}
	spawned, ok := ctx.Resolve(ef.Cod).(typesystem.Pid)
	if !ok {
		t.Fatalf("result = %s, want a pid", ctx.TypeString(ef.Cod))
	}
	if !ctx.TypesEqual(ctx.Resolve(parent.Receive), ctx.Resolve(spawned.Receive)) {
		t.Fatalf("parent and spawned receive types differ: %s", ctx.TypeString(res.Type))
	}
}

func TestDoUnifiesEffects(t *testing.T) {
	chk, pre := newTestChecker(t)
	ctx := chk.Ctx()
	// do x <- self in send(x, 3)
	expr := &ast.Do{
		Name:  &ast.Ident{Name: "x"},
		Bound: app(vr("self")),
		Body:  app(vr("send"), vr("x"), lit(ast.IntConst{Value: 3})),
	}
	res, err := chk.InferExpr(pre, expr)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if res.Eff == nil {
		t.Fatal("do yielded a pure result")
	}
	// self() : pid<t> in a process receiving t, and send(x, 3) forces
	// t = int.
	if got := ctx.Resolve(res.Eff.Receive); !ctx.TypesEqual(got, typesystem.Base{Tag: typesystem.IntType}) {
		t.Fatalf("receive type = %s, want int", ctx.TypeString(got))
	}
}

func TestMissingMandatoryLabel(t *testing.T) {
	chk, pre := newTestChecker(t)
	callee := &ast.Lambda{
		Labeled: []ast.LabeledParam{{Label: "k", Name: ident("k")}},
		Body:    vr("k"),
	}
	_, err := chk.InferExpr(pre, &ast.Apply{Fun: callee})
	if _, ok := err.(*diagnostics.MissingMandatoryLabel); !ok {
		t.Fatalf("err = %v, want MissingMandatoryLabel", err)
	}
}

func TestUnexpectedMandatoryLabel(t *testing.T) {
	chk, pre := newTestChecker(t)
	callee := lam([]string{"x"}, vr("x"))
	_, err := chk.InferExpr(pre, &ast.Apply{
		Fun:     callee,
		Args:    []ast.Expr{lit(ast.IntConst{Value: 1})},
		Labeled: []ast.LabeledArg{{Label: "k", Value: lit(ast.IntConst{Value: 1})}},
	})
	if _, ok := err.(*diagnostics.UnexpectedMandatoryLabel); !ok {
		t.Fatalf("err = %v, want UnexpectedMandatoryLabel", err)
	}
}

func TestBadArityOfOrderedArguments(t *testing.T) {
	chk, pre := newTestChecker(t)
	_, err := chk.InferExpr(pre, app(lam([]string{"x"}, vr("x"))))
	if _, ok := err.(*diagnostics.BadArityOfOrderedArguments); !ok {
		t.Fatalf("err = %v, want BadArityOfOrderedArguments", err)
	}
}

func TestDuplicatedArgumentLabel(t *testing.T) {
	chk, pre := newTestChecker(t)
	callee := &ast.Lambda{
		Labeled: []ast.LabeledParam{{Label: "k", Name: ident("k")}},
		Body:    vr("k"),
	}
	_, err := chk.InferExpr(pre, &ast.Apply{
		Fun: callee,
		Labeled: []ast.LabeledArg{
			{Label: "k", Value: lit(ast.IntConst{Value: 1})},
			{Label: "k", Value: lit(ast.IntConst{Value: 2})},
		},
	})
	if _, ok := err.(*diagnostics.DuplicatedLabel); !ok {
		t.Fatalf("err = %v, want DuplicatedLabel", err)
	}
}

func TestOptionalArgumentAgainstKnownCallee(t *testing.T) {
	chk, pre := newTestChecker(t)
	callee := &ast.Lambda{
		Params:   []ast.Param{{Name: ident("x")}},
		Optional: []ast.OptParam{{Label: "step", Name: ident("step"), Default: lit(ast.IntConst{Value: 1})}},
		Body:     vr("x"),
	}
	res := mustInfer(t, chk, pre, &ast.Apply{
		Fun:      callee,
		Args:     []ast.Expr{lit(ast.IntConst{Value: 10})},
		Optional: []ast.LabeledArg{{Label: "step", Value: lit(ast.IntConst{Value: 2})}},
	})
	if !chk.Ctx().TypesEqual(res.Type, typesystem.Base{Tag: typesystem.IntType}) {
		t.Fatalf("type = %s, want int", chk.Ctx().TypeString(res.Type))
	}

	_, err := chk.InferExpr(pre, &ast.Apply{
		Fun:      callee,
		Args:     []ast.Expr{lit(ast.IntConst{Value: 10})},
		Optional: []ast.LabeledArg{{Label: "depth", Value: lit(ast.IntConst{Value: 2})}},
	})
	if _, ok := err.(*diagnostics.UnexpectedOptionalLabel); !ok {
		t.Fatalf("err = %v, want UnexpectedOptionalLabel", err)
	}
}

// The default pins the optional's inner type, so a conflicting supply at a
// call site contradicts.
func TestOptionalSupplyContradictsDefault(t *testing.T) {
	chk, pre := newTestChecker(t)
	callee := &ast.Lambda{
		Optional: []ast.OptParam{{Label: "step", Name: ident("step"), Default: lit(ast.IntConst{Value: 1})}},
		Body:     vr("step"),
	}
	_, err := chk.InferExpr(pre, &ast.Apply{
		Fun:      callee,
		Optional: []ast.LabeledArg{{Label: "step", Value: lit(ast.BoolConst{Value: true})}},
	})
	if _, ok := err.(*diagnostics.ContradictionError); !ok {
		t.Fatalf("err = %v, want ContradictionError", err)
	}
}

func TestPatternDuplicateBinding(t *testing.T) {
	chk, pre := newTestChecker(t)
	expr := &ast.Case{
		Scrutinee: &ast.Tuple{Elems: []ast.Expr{lit(ast.IntConst{Value: 1}), lit(ast.IntConst{Value: 2})}},
		Arms: []ast.CaseArm{{
			Pat: &ast.PTuple{Elems: []ast.Pattern{
				&ast.PVar{Name: ident("x")},
				&ast.PVar{Name: ident("x")},
			}},
			Body: vr("x"),
		}},
	}
	_, err := chk.InferExpr(pre, expr)
	if _, ok := err.(*diagnostics.BoundMoreThanOnceInPattern); !ok {
		t.Fatalf("err = %v, want BoundMoreThanOnceInPattern", err)
	}
}

func TestUnboundVariable(t *testing.T) {
	chk, pre := newTestChecker(t)
	_, err := chk.InferExpr(pre, vr("nope"))
	if _, ok := err.(*diagnostics.UnboundVariable); !ok {
		t.Fatalf("err = %v, want UnboundVariable", err)
	}
}

func TestUnusedLetBindingWarns(t *testing.T) {
	chk, pre := newTestChecker(t)
	expr := letIn("x", lit(ast.IntConst{Value: 3}), lit(ast.IntConst{Value: 4}))
	if _, err := chk.InferExpr(pre, expr); err != nil {
		t.Fatalf("infer: %v", err)
	}
	if len(chk.Warnings) != 1 {
		t.Fatalf("warnings = %d, want 1", len(chk.Warnings))
	}
	if _, ok := chk.Warnings[0].(*diagnostics.UnusedVariable); !ok {
		t.Fatalf("warning = %T, want UnusedVariable", chk.Warnings[0])
	}
}

func TestFormatStringHoleTypes(t *testing.T) {
	chk, pre := newTestChecker(t)
	ctx := chk.Ctx()
	res := mustInfer(t, chk, pre, lit(ast.FormatConst{Raw: "char ~c list ~s"}))
	format, ok := ctx.Resolve(res.Type).(typesystem.Format)
	if !ok {
		t.Fatalf("type = %s, want a format", ctx.TypeString(res.Type))
	}
	prod, ok := format.Arg.(typesystem.Product)
	if !ok || len(prod.Types) != 2 {
		t.Fatalf("format argument = %s, want a two-hole product", ctx.TypeString(format.Arg))
	}
	if !ctx.TypesEqual(prod.Types[0], typesystem.Base{Tag: typesystem.CharType}) {
		t.Errorf("first hole = %s, want char", ctx.TypeString(prod.Types[0]))
	}
	if !ctx.TypesEqual(prod.Types[1], chk.Builtins().ListOf(typesystem.Base{Tag: typesystem.CharType})) {
		t.Errorf("second hole = %s, want list<char>", ctx.TypeString(prod.Types[1]))
	}
}

func TestFormatStringFreshHole(t *testing.T) {
	chk, pre := newTestChecker(t)
	ctx := chk.Ctx()
	res := mustInfer(t, chk, pre, lit(ast.FormatConst{Raw: "~p"}))
	format := ctx.Resolve(res.Type).(typesystem.Format)
	if _, ok := ctx.Resolve(format.Arg).(typesystem.VarRef); !ok {
		t.Fatalf("~p hole = %s, want an unconstrained variable", ctx.TypeString(format.Arg))
	}
}

func TestInvalidByteInBinaryLiteral(t *testing.T) {
	chk, pre := newTestChecker(t)
	_, err := chk.InferExpr(pre, lit(ast.BinaryConst{Values: []int{10, 300}}))
	ib, ok := err.(*diagnostics.InvalidByte)
	if !ok {
		t.Fatalf("err = %v, want InvalidByte", err)
	}
	if ib.Value != 300 {
		t.Fatalf("offending value = %d, want 300", ib.Value)
	}
}

func TestCtorApplicationArityChecked(t *testing.T) {
	chk, pre := newTestChecker(t)
	_, err := chk.InferExpr(pre, &ast.CtorApp{Name: ident("Some")})
	wrong, ok := err.(*diagnostics.InvalidNumberOfConstructorArguments)
	if !ok {
		t.Fatalf("err = %v, want InvalidNumberOfConstructorArguments", err)
	}
	if wrong.Expected != 1 || wrong.Got != 0 {
		t.Fatalf("expected/got = %d/%d, want 1/0", wrong.Expected, wrong.Got)
	}
}

func TestCtorApplication(t *testing.T) {
	chk, pre := newTestChecker(t)
	ctx := chk.Ctx()
	res := mustInfer(t, chk, pre, &ast.CtorApp{Name: ident("Some"), Args: []ast.Expr{lit(ast.IntConst{Value: 1})}})
	want := chk.Builtins().OptionOf(typesystem.Base{Tag: typesystem.IntType})
	if !ctx.TypesEqual(ctx.Resolve(res.Type), want) {
		t.Fatalf("Some(1) : %s, want option<int>", ctx.TypeString(res.Type))
	}
}
