package analyzer

import (
	"testing"

	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/typesystem"
)

func tyName(name string, args ...ast.TypeExpr) *ast.TypeName {
	return &ast.TypeName{Name: ident(name), Args: args}
}

func TestDecodeScalars(t *testing.T) {
	chk, pre := newTestChecker(t)
	cases := []struct {
		name string
		want typesystem.BaseKindTag
	}{
		{"unit", typesystem.UnitType},
		{"bool", typesystem.BoolType},
		{"int", typesystem.IntType},
		{"float", typesystem.FloatType},
		{"char", typesystem.CharType},
		{"binary", typesystem.BinaryType},
	}
	for _, tc := range cases {
		ty, err := chk.DecodeType(pre, tyName(tc.name))
		if err != nil {
			t.Fatalf("decode %s: %v", tc.name, err)
		}
		if got := ty.(typesystem.Base).Tag; got != tc.want {
			t.Errorf("decode %s = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDecodePid(t *testing.T) {
	chk, pre := newTestChecker(t)
	ty, err := chk.DecodeType(pre, tyName("pid", tyName("int")))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	pid, ok := ty.(typesystem.Pid)
	if !ok {
		t.Fatalf("decode pid<int> = %T, want Pid", ty)
	}
	if !chk.Ctx().TypesEqual(pid.Receive, typesystem.Base{Tag: typesystem.IntType}) {
		t.Fatalf("receive = %s, want int", chk.Ctx().TypeString(pid.Receive))
	}
	if _, err := chk.DecodeType(pre, tyName("pid")); err == nil {
		t.Fatal("pid without argument decoded")
	}
}

func TestDecodeUndefinedTypeName(t *testing.T) {
	chk, pre := newTestChecker(t)
	_, err := chk.DecodeType(pre, tyName("mystery"))
	if _, ok := err.(*diagnostics.UndefinedTypeName); !ok {
		t.Fatalf("err = %v, want UndefinedTypeName", err)
	}
}

func TestDecodeArityChecked(t *testing.T) {
	chk, pre := newTestChecker(t)
	_, err := chk.DecodeType(pre, tyName("list"))
	wrong, ok := err.(*diagnostics.InvalidNumberOfTypeArguments)
	if !ok {
		t.Fatalf("err = %v, want InvalidNumberOfTypeArguments", err)
	}
	if wrong.Expected != 1 || wrong.Got != 0 {
		t.Fatalf("expected/got = %d/%d, want 1/0", wrong.Expected, wrong.Got)
	}
}

func TestDecodeUnboundTypeParameter(t *testing.T) {
	chk, pre := newTestChecker(t)
	_, err := chk.DecodeType(pre, &ast.TypeVarExpr{Name: "a"})
	if _, ok := err.(*diagnostics.UnboundTypeParameter); !ok {
		t.Fatalf("err = %v, want UnboundTypeParameter", err)
	}
}

func TestBindTypeParamsRejectsDuplicates(t *testing.T) {
	chk, pre := newTestChecker(t)
	_, _, _, err := chk.BindTypeParams(pre, []ast.TypeParam{{Name: "a"}, {Name: "a"}}, nil)
	if _, ok := err.(*diagnostics.TypeParameterBoundMoreThanOnce); !ok {
		t.Fatalf("err = %v, want TypeParameterBoundMoreThanOnce", err)
	}
}

func TestBoundParameterIsRigid(t *testing.T) {
	chk, pre := newTestChecker(t)
	inner, bids, _, err := chk.BindTypeParams(pre, []ast.TypeParam{{Name: "a"}}, nil)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	ty, derr := chk.DecodeType(inner, &ast.TypeVarExpr{Name: "a"})
	if derr != nil {
		t.Fatalf("decode: %v", derr)
	}
	if res := chk.Ctx().Unify(ty, typesystem.Base{Tag: typesystem.IntType}); res.Outcome != typesystem.Contradiction {
		t.Fatalf("rigid parameter unified with int: %v", res.Outcome)
	}
	poly, gerr := chk.Generalize(0, ty, ast.Ident{}.Span())
	if gerr != nil {
		t.Fatalf("generalize: %v", gerr)
	}
	if got := poly.(typesystem.BoundRef).ID; got != bids[0] {
		t.Fatalf("parameter generalized to %d, want %d", got, bids[0])
	}
}

func TestDecodeRowParameter(t *testing.T) {
	chk, pre := newTestChecker(t)
	inner, _, brids, err := chk.BindTypeParams(pre, nil, []ast.RowParam{{
		Name:   "opts",
		Labels: []ast.LabeledType{{Label: "timeout", Type: tyName("int")}},
	}})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if len(brids) != 1 {
		t.Fatalf("bound row IDs = %d, want 1", len(brids))
	}
	fn, derr := chk.DecodeType(inner, &ast.FuncTypeExpr{
		Dom: ast.DomainExpr{Optional: &ast.RowExpr{Var: &ast.Ident{Name: "opts"}}},
		Cod: tyName("int"),
	})
	if derr != nil {
		t.Fatalf("decode: %v", derr)
	}
	row := fn.(typesystem.Func).Dom.Optional
	if _, ok := chk.Ctx().ResolveRow(row).(typesystem.RowVarRef); !ok {
		t.Fatalf("optional row = %T, want a row variable", row)
	}
	if _, err := chk.DecodeType(inner, &ast.FuncTypeExpr{
		Dom: ast.DomainExpr{Optional: &ast.RowExpr{Var: &ast.Ident{Name: "nope"}}},
		Cod: tyName("int"),
	}); err == nil {
		t.Fatal("unbound row parameter decoded")
	}
}
