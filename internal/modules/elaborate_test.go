package modules

import (
	"testing"

	"github.com/sester-lang/sester/internal/analyzer"
	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/typesystem"
)

func newTestElaborator(t *testing.T) (*Elaborator, symbols.Env) {
	t.Helper()
	ctx := typesystem.NewContext()
	chk, env := analyzer.NewWithPrimitives(ctx)
	return New(chk), env
}

func ident(name string) ast.Ident { return ast.Ident{Name: name} }

func tyName(name string, args ...ast.TypeExpr) *ast.TypeName {
	return &ast.TypeName{Name: ident(name), Args: args}
}

func projTy(mod, name string) *ast.TypeName {
	return &ast.TypeName{Path: []ast.Ident{ident(mod)}, Name: ident(name)}
}

func fnTy(dom, cod ast.TypeExpr) *ast.FuncTypeExpr {
	return &ast.FuncTypeExpr{Dom: ast.DomainExpr{Ordered: []ast.TypeExpr{dom}}, Cod: cod}
}

func identityLambda() *ast.Lambda {
	return &ast.Lambda{
		Params: []ast.Param{{Name: ident("x")}},
		Body:   &ast.Var{Name: ident("x")},
	}
}

func valBinding(name string, annot ast.TypeExpr, body ast.Expr) *ast.BindVal {
	return &ast.BindVal{Bindings: []ast.ValBinding{{Name: ident(name), Annot: annot, Body: body}}}
}

func source(name string, bindings ...ast.Binding) *ast.Source {
	return &ast.Source{Name: ident(name), Bindings: bindings}
}

func TestElaborateSimpleValue(t *testing.T) {
	el, env := newTestElaborator(t)
	src := source("Main", valBinding("f", nil, identityLambda()))
	_, abs, space, bindings, err := el.ElaborateSource(env, src)
	if err != nil {
		t.Fatalf("elaborate: %v", err)
	}
	if space != "Main" {
		t.Fatalf("space = %q, want Main", space)
	}
	rec := abs.Sig.(*symbols.StructureSig).Record
	entry, ok := rec.FindVal("f")
	if !ok {
		t.Fatal("f missing from the signature record")
	}
	gname, ok := entry.Name.(ir.Global)
	if !ok || gname.Space != "Main" || gname.Arity != 1 {
		t.Fatalf("f's output name = %#v, want Main:f/1", entry.Name)
	}
	if len(bindings) != 1 {
		t.Fatalf("emitted %d bindings, want 1", len(bindings))
	}
}

// type a = b and b = a is rejected with the cycle members reported.
func TestCyclicSynonymGroup(t *testing.T) {
	el, env := newTestElaborator(t)
	src := source("Main", &ast.BindType{Defs: []ast.TypeDef{
		{Name: ident("a"), Body: tyName("b")},
		{Name: ident("b"), Body: tyName("a")},
	}})
	_, _, _, _, err := el.ElaborateSource(env, src)
	cyc, ok := err.(*diagnostics.CyclicSynonymTypeDefinition)
	if !ok {
		t.Fatalf("err = %v, want CyclicSynonymTypeDefinition", err)
	}
	if len(cyc.Cycle) != 2 {
		t.Fatalf("cycle lists %d IDs, want 2", len(cyc.Cycle))
	}
}

func TestAcyclicSynonymGroupThroughVariant(t *testing.T) {
	el, env := newTestElaborator(t)
	// A variant breaks the chain: type a = tree and tree = Leaf | Node(a)
	// recurses only nominally.
	src := source("Main", &ast.BindType{Defs: []ast.TypeDef{
		{Name: ident("a"), Body: tyName("tree")},
		{Name: ident("tree"), Ctors: []ast.CtorDef{
			{Name: ident("Leaf")},
			{Name: ident("Node"), Params: []ast.TypeExpr{tyName("a")}},
		}},
	}})
	if _, _, _, _, err := el.ElaborateSource(env, src); err != nil {
		t.Fatalf("elaborate: %v", err)
	}
}

func TestDuplicateBindingConflicts(t *testing.T) {
	el, env := newTestElaborator(t)
	src := source("Main",
		valBinding("f", nil, identityLambda()),
		valBinding("f", nil, identityLambda()),
	)
	_, _, _, _, err := el.ElaborateSource(env, src)
	conflict, ok := err.(*diagnostics.ConflictInSignature)
	if !ok {
		t.Fatalf("err = %v, want ConflictInSignature", err)
	}
	if conflict.Name != "f" {
		t.Fatalf("conflict name = %q, want f", conflict.Name)
	}
}

func TestSealingHidesUnlistedMembers(t *testing.T) {
	el, env := newTestElaborator(t)
	sig := &ast.SigDecls{Decls: []ast.Decl{
		&ast.DeclVal{Name: ident("f"), Type: fnTy(tyName("int"), tyName("int"))},
	}}
	var sigExpr ast.SigExpr = sig
	src := &ast.Source{
		Name: ident("Main"),
		Sig:  &sigExpr,
		Bindings: []ast.Binding{
			valBinding("f", nil, identityLambda()),
			valBinding("g", nil, identityLambda()),
		},
	}
	_, abs, _, _, err := el.ElaborateSource(env, src)
	if err != nil {
		t.Fatalf("elaborate: %v", err)
	}
	rec := abs.Sig.(*symbols.StructureSig).Record
	if _, ok := rec.FindVal("g"); ok {
		t.Fatal("sealed signature still exposes g")
	}
	entry, ok := rec.FindVal("f")
	if !ok {
		t.Fatal("sealed signature lost f")
	}
	// The runtime name behind the signature is the implementation's.
	gname, ok := entry.Name.(ir.Global)
	if !ok || gname.Space != "Main" || gname.Name != "f" {
		t.Fatalf("sealed f resolves to %#v, want the implementing global", entry.Name)
	}
}

func TestSealingRejectsLessGeneralValue(t *testing.T) {
	el, env := newTestElaborator(t)
	// The signature demands polymorphism the implementation lacks.
	sig := &ast.SigDecls{Decls: []ast.Decl{
		&ast.DeclVal{
			Name:       ident("f"),
			TypeParams: []ast.TypeParam{{Name: "a"}},
			Type:       fnTy(&ast.TypeVarExpr{Name: "a"}, &ast.TypeVarExpr{Name: "a"}),
		},
	}}
	var sigExpr ast.SigExpr = sig
	src := &ast.Source{
		Name: ident("Main"),
		Sig:  &sigExpr,
		Bindings: []ast.Binding{
			valBinding("f", fnTy(tyName("int"), tyName("int")), identityLambda()),
		},
	}
	_, _, _, _, err := el.ElaborateSource(env, src)
	if _, ok := err.(*diagnostics.PolymorphicContradiction); !ok {
		t.Fatalf("err = %v, want PolymorphicContradiction", err)
	}
}

func TestSealingOpaqueType(t *testing.T) {
	el, env := newTestElaborator(t)
	sig := &ast.SigDecls{Decls: []ast.Decl{
		&ast.DeclType{Name: ident("t")},
		&ast.DeclVal{Name: ident("mk"), Type: fnTy(tyName("int"), tyName("t"))},
	}}
	var sigExpr ast.SigExpr = sig
	src := &ast.Source{
		Name: ident("Main"),
		Sig:  &sigExpr,
		Bindings: []ast.Binding{
			&ast.BindType{Defs: []ast.TypeDef{{Name: ident("t"), Body: tyName("int")}}},
			valBinding("mk", fnTy(tyName("int"), tyName("t")), identityLambda()),
		},
	}
	_, abs, _, _, err := el.ElaborateSource(env, src)
	if err != nil {
		t.Fatalf("elaborate: %v", err)
	}
	if abs.Opaques.Len() != 1 {
		t.Fatalf("existential opaques = %d, want 1", abs.Opaques.Len())
	}
	rec := abs.Sig.(*symbols.StructureSig).Record
	te, _ := rec.FindType("t")
	if _, ok := te.ID.(typesystem.OpaqueID); !ok {
		t.Fatalf("sealed t = %T, want an opaque ID", te.ID)
	}
}

// Two entries of the same functor quantify distinct opaque types, so a
// value mixing X.t and Y.t is ill-typed.
func TestFunctorOpaquesAreFreshPerEntry(t *testing.T) {
	el, env := newTestElaborator(t)
	sigS := &ast.BindSig{
		Name: ident("S"),
		Sig:  &ast.SigDecls{Decls: []ast.Decl{&ast.DeclType{Name: ident("t")}}},
	}
	inner := &ast.ModFunctor{
		Param:  ident("Y"),
		Domain: &ast.SigVar{Name: ident("S")},
		Body: &ast.ModBinds{Bindings: []ast.Binding{
			valBinding("f", fnTy(projTy("X", "t"), projTy("Y", "t")), identityLambda()),
		}},
	}
	outer := &ast.BindModule{
		Name: ident("F"),
		Body: &ast.ModFunctor{Param: ident("X"), Domain: &ast.SigVar{Name: ident("S")}, Body: inner},
	}
	_, _, _, _, err := el.ElaborateSource(env, source("Main", sigS, outer))
	if _, ok := err.(*diagnostics.ContradictionError); !ok {
		t.Fatalf("err = %v, want ContradictionError between distinct opaques", err)
	}
}

func TestFunctorApplication(t *testing.T) {
	el, env := newTestElaborator(t)
	ctx := el.ctx
	sigS := &ast.BindSig{
		Name: ident("S"),
		Sig: &ast.SigDecls{Decls: []ast.Decl{
			&ast.DeclType{Name: ident("t")},
			&ast.DeclVal{Name: ident("mk"), Type: fnTy(tyName("t"), tyName("t"))},
		}},
	}
	modM := &ast.BindModule{
		Name: ident("M"),
		Body: &ast.ModBinds{Bindings: []ast.Binding{
			&ast.BindType{Defs: []ast.TypeDef{{Name: ident("t"), Body: tyName("int")}}},
			valBinding("mk", fnTy(tyName("t"), tyName("t")), identityLambda()),
		}},
	}
	modF := &ast.BindModule{
		Name: ident("F"),
		Body: &ast.ModFunctor{
			Param:  ident("X"),
			Domain: &ast.SigVar{Name: ident("S")},
			Body: &ast.ModBinds{Bindings: []ast.Binding{
				valBinding("use", nil, &ast.Var{Path: []ast.Ident{ident("X")}, Name: ident("mk")}),
			}},
		},
	}
	modG := &ast.BindModule{
		Name: ident("G"),
		Body: &ast.ModApply{Fun: &ast.ModVar{Name: ident("F")}, Arg: &ast.ModVar{Name: ident("M")}},
	}
	_, abs, _, _, err := el.ElaborateSource(env, source("Main", sigS, modM, modF, modG))
	if err != nil {
		t.Fatalf("elaborate: %v", err)
	}
	rec := abs.Sig.(*symbols.StructureSig).Record
	gmod, ok := rec.FindModule("G")
	if !ok {
		t.Fatal("G missing")
	}
	grec := gmod.Sig.(*symbols.StructureSig).Record
	use, ok := grec.FindVal("use")
	if !ok {
		t.Fatal("G.use missing")
	}
	intToInt := typesystem.Func{
		Dom: typesystem.NewDomain(typesystem.Base{Tag: typesystem.IntType}),
		Cod: typesystem.Base{Tag: typesystem.IntType},
	}
	mono := ctx.Instantiate(0, use.Poly)
	if res := ctx.Unify(mono, intToInt); !res.OK() {
		t.Fatalf("G.use : %s, want int -> int through the witness", ctx.TypeString(use.Poly))
	}
}

func TestApplyNonFunctor(t *testing.T) {
	el, env := newTestElaborator(t)
	modM := &ast.BindModule{Name: ident("M"), Body: &ast.ModBinds{}}
	modG := &ast.BindModule{
		Name: ident("G"),
		Body: &ast.ModApply{Fun: &ast.ModVar{Name: ident("M")}, Arg: &ast.ModVar{Name: ident("M")}},
	}
	_, _, _, _, err := el.ElaborateSource(env, source("Main", modM, modG))
	if _, ok := err.(*diagnostics.NotOfFunctorType); !ok {
		t.Fatalf("err = %v, want NotOfFunctorType", err)
	}
}

func TestFunctorDomainMustBeFirstOrder(t *testing.T) {
	el, env := newTestElaborator(t)
	funSig := &ast.SigFunctor{
		Param:  ident("X"),
		Domain: &ast.SigDecls{},
		Cod:    &ast.SigDecls{},
	}
	mod := &ast.BindModule{
		Name: ident("F"),
		Body: &ast.ModFunctor{Param: ident("X"), Domain: funSig, Body: &ast.ModBinds{}},
	}
	_, _, _, _, err := el.ElaborateSource(env, source("Main", mod))
	if _, ok := err.(*diagnostics.SupportOnlyFirstOrderFunctor); !ok {
		t.Fatalf("err = %v, want SupportOnlyFirstOrderFunctor", err)
	}
}

func TestIncludeMergesAndConflicts(t *testing.T) {
	el, env := newTestElaborator(t)
	modM := &ast.BindModule{
		Name: ident("M"),
		Body: &ast.ModBinds{Bindings: []ast.Binding{valBinding("f", nil, identityLambda())}},
	}
	src := source("Main", modM,
		&ast.BindInclude{Target: &ast.ModVar{Name: ident("M")}},
	)
	_, abs, _, _, err := el.ElaborateSource(env, src)
	if err != nil {
		t.Fatalf("elaborate: %v", err)
	}
	rec := abs.Sig.(*symbols.StructureSig).Record
	if _, ok := rec.FindVal("f"); !ok {
		t.Fatal("included f missing")
	}

	el2, env2 := newTestElaborator(t)
	conflicting := source("Main", modM,
		&ast.BindInclude{Target: &ast.ModVar{Name: ident("M")}},
		&ast.BindInclude{Target: &ast.ModVar{Name: ident("M")}},
	)
	_, _, _, _, err = el2.ElaborateSource(env2, conflicting)
	if _, ok := err.(*diagnostics.ConflictInSignature); !ok {
		t.Fatalf("err = %v, want ConflictInSignature on double include", err)
	}
}

func TestWithTypeRefinesOpaque(t *testing.T) {
	el, env := newTestElaborator(t)
	base := &ast.SigDecls{Decls: []ast.Decl{
		&ast.DeclType{Name: ident("t")},
		&ast.DeclVal{Name: ident("get"), Type: fnTy(tyName("t"), tyName("int"))},
	}}
	refined := &ast.SigWithType{Sig: base, Name: ident("t"), Rhs: tyName("int")}
	abs, err := el.decodeSig(env, []string{"Main"}, refined)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if abs.Opaques.Len() != 0 {
		t.Fatalf("refined signature still abstracts %d types", abs.Opaques.Len())
	}
	rec := abs.Sig.(*symbols.StructureSig).Record
	te, _ := rec.FindType("t")
	if _, ok := te.ID.(typesystem.SynonymID); !ok {
		t.Fatalf("refined t = %T, want a synonym", te.ID)
	}
}

func TestWithTypeRejectsTransparent(t *testing.T) {
	el, env := newTestElaborator(t)
	base := &ast.SigDecls{Decls: []ast.Decl{
		&ast.DeclType{Name: ident("t"), Body: tyName("int")},
	}}
	refined := &ast.SigWithType{Sig: base, Name: ident("t"), Rhs: tyName("int")}
	_, err := el.decodeSig(env, []string{"Main"}, refined)
	if _, ok := err.(*diagnostics.CannotRestrictTransparentType); !ok {
		t.Fatalf("err = %v, want CannotRestrictTransparentType", err)
	}
}

func TestExternalBindingHasNoIR(t *testing.T) {
	el, env := newTestElaborator(t)
	src := source("Main", &ast.BindVal{
		External: &ast.ExternalSpec{Arity: 2},
		Bindings: []ast.ValBinding{{
			Name:  ident("native_add"),
			Annot: &ast.FuncTypeExpr{Dom: ast.DomainExpr{Ordered: []ast.TypeExpr{tyName("int"), tyName("int")}}, Cod: tyName("int")},
		}},
	})
	_, abs, _, bindings, err := el.ElaborateSource(env, src)
	if err != nil {
		t.Fatalf("elaborate: %v", err)
	}
	if len(bindings) != 0 {
		t.Fatalf("external binding emitted %d IR bindings, want 0", len(bindings))
	}
	rec := abs.Sig.(*symbols.StructureSig).Record
	entry, ok := rec.FindVal("native_add")
	if !ok {
		t.Fatal("external value missing from signature")
	}
	if got := entry.Name.(ir.Global).Arity; got != 2 {
		t.Fatalf("arity stamp = %d, want 2", got)
	}
}

func TestValueNameMustStartLowercase(t *testing.T) {
	el, env := newTestElaborator(t)
	src := source("Main", valBinding("Bad", nil, identityLambda()))
	_, _, _, _, err := el.ElaborateSource(env, src)
	if _, ok := err.(*diagnostics.InvalidIdentifier); !ok {
		t.Fatalf("err = %v, want InvalidIdentifier", err)
	}
}

func TestModuleNameMustStartUppercase(t *testing.T) {
	el, env := newTestElaborator(t)
	src := source("Main", &ast.BindModule{Name: ident("sub"), Body: &ast.ModBinds{}})
	_, _, _, _, err := el.ElaborateSource(env, src)
	if _, ok := err.(*diagnostics.InvalidIdentifier); !ok {
		t.Fatalf("err = %v, want InvalidIdentifier", err)
	}
}

func TestRecordKindedParameterRejectsScalarArgument(t *testing.T) {
	el, env := newTestElaborator(t)
	wrap := &ast.BindType{Defs: []ast.TypeDef{{
		Name: ident("wrap"),
		Params: []ast.TypeParam{{
			Name: "a",
			Kind: &ast.KindExpr{Record: []ast.LabeledType{{Label: "name", Type: tyName("int")}}},
		}},
		Body: &ast.TypeVarExpr{Name: "a"},
	}}}
	use := &ast.BindType{Defs: []ast.TypeDef{{
		Name: ident("bad"),
		Body: tyName("wrap", tyName("int")),
	}}}
	_, _, _, _, err := el.ElaborateSource(env, source("Main", wrap, use))
	if _, ok := err.(*diagnostics.KindContradiction); !ok {
		t.Fatalf("err = %v, want KindContradiction", err)
	}
}

func TestRecursiveModuleLevelBinding(t *testing.T) {
	el, env := newTestElaborator(t)
	// val rec loop = fun x -> loop(x)
	body := &ast.Lambda{
		Params: []ast.Param{{Name: ident("x")}},
		Body: &ast.Apply{
			Fun:  &ast.Var{Name: ident("loop")},
			Args: []ast.Expr{&ast.Var{Name: ident("x")}},
		},
	}
	src := source("Main", &ast.BindVal{
		Rec:      true,
		Bindings: []ast.ValBinding{{Name: ident("loop"), Body: body}},
	})
	_, abs, _, bindings, err := el.ElaborateSource(env, src)
	if err != nil {
		t.Fatalf("elaborate: %v", err)
	}
	if len(bindings) != 1 {
		t.Fatalf("emitted %d bindings, want 1", len(bindings))
	}
	rec := abs.Sig.(*symbols.StructureSig).Record
	if _, ok := rec.FindVal("loop"); !ok {
		t.Fatal("loop missing")
	}
}
