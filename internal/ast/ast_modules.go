package ast

import "github.com/sester-lang/sester/internal/token"

// ModuleExpr is a module-level expression.
type ModuleExpr interface {
	Node
	moduleExprNode()
}

// ModVar references a bound module.
type ModVar struct {
	Name  Ident
	Range token.Range
}

// ModBinds is a structure literal.
type ModBinds struct {
	Bindings []Binding
	Range    token.Range
}

// ModProj projects a member module out of a module.
type ModProj struct {
	Target ModuleExpr
	Name   Ident
	Range  token.Range
}

// ModFunctor abstracts a module over a parameter module.
type ModFunctor struct {
	Param  Ident
	Domain SigExpr
	Body   ModuleExpr
	Range  token.Range
}

// ModApply applies a functor to an argument module.
type ModApply struct {
	Fun   ModuleExpr
	Arg   ModuleExpr
	Range token.Range
}

// ModCoerce seals a module with a signature.
type ModCoerce struct {
	Target ModuleExpr
	Sig    SigExpr
	Range  token.Range
}

func (m *ModVar) Span() token.Range     { return m.Range }
func (m *ModBinds) Span() token.Range   { return m.Range }
func (m *ModProj) Span() token.Range    { return m.Range }
func (m *ModFunctor) Span() token.Range { return m.Range }
func (m *ModApply) Span() token.Range   { return m.Range }
func (m *ModCoerce) Span() token.Range  { return m.Range }

func (*ModVar) moduleExprNode()     {}
func (*ModBinds) moduleExprNode()   {}
func (*ModProj) moduleExprNode()    {}
func (*ModFunctor) moduleExprNode() {}
func (*ModApply) moduleExprNode()   {}
func (*ModCoerce) moduleExprNode()  {}

// SigExpr is a signature expression.
type SigExpr interface {
	Node
	sigExprNode()
}

// SigVar references a bound signature name.
type SigVar struct {
	Name  Ident
	Range token.Range
}

// SigProj projects a signature member out of a module.
type SigProj struct {
	Target ModuleExpr
	Name   Ident
	Range  token.Range
}

// SigDecls is a structure signature literal.
type SigDecls struct {
	Decls []Decl
	Range token.Range
}

// SigFunctor is a functor signature.
type SigFunctor struct {
	Param  Ident
	Domain SigExpr
	Cod    SigExpr
	Range  token.Range
}

// SigWithType refines an abstract type of a signature.
type SigWithType struct {
	Sig    SigExpr
	Name   Ident
	Params []TypeParam
	Rhs    TypeExpr
	Range  token.Range
}

func (s *SigVar) Span() token.Range      { return s.Range }
func (s *SigProj) Span() token.Range     { return s.Range }
func (s *SigDecls) Span() token.Range    { return s.Range }
func (s *SigFunctor) Span() token.Range  { return s.Range }
func (s *SigWithType) Span() token.Range { return s.Range }

func (*SigVar) sigExprNode()      {}
func (*SigProj) sigExprNode()     {}
func (*SigDecls) sigExprNode()    {}
func (*SigFunctor) sigExprNode()  {}
func (*SigWithType) sigExprNode() {}

// Decl is one entry of a structure signature.
type Decl interface {
	Node
	declNode()
}

// DeclVal requires a value of the given polytype.
type DeclVal struct {
	Name       Ident
	TypeParams []TypeParam
	RowParams  []RowParam
	Type       TypeExpr
	Range      token.Range
}

// CtorDef is one constructor of a variant definition.
type CtorDef struct {
	Name   Ident
	Params []TypeExpr
}

// DeclType requires a type. Body is set for a transparent synonym, Ctors
// for a variant, neither for an opaque type of the given arity.
type DeclType struct {
	Name   Ident
	Params []TypeParam
	Body   TypeExpr
	Ctors  []CtorDef
	Range  token.Range
}

// DeclModule requires a member module of the given signature.
type DeclModule struct {
	Name  Ident
	Sig   SigExpr
	Range token.Range
}

// DeclSig requires a signature member.
type DeclSig struct {
	Name  Ident
	Sig   SigExpr
	Range token.Range
}

// DeclInclude splices another structure signature into this one.
type DeclInclude struct {
	Sig   SigExpr
	Range token.Range
}

func (d *DeclVal) Span() token.Range     { return d.Range }
func (d *DeclType) Span() token.Range    { return d.Range }
func (d *DeclModule) Span() token.Range  { return d.Range }
func (d *DeclSig) Span() token.Range     { return d.Range }
func (d *DeclInclude) Span() token.Range { return d.Range }

func (*DeclVal) declNode()     {}
func (*DeclType) declNode()    {}
func (*DeclModule) declNode()  {}
func (*DeclSig) declNode()     {}
func (*DeclInclude) declNode() {}

// Binding is one structure-level binding.
type Binding interface {
	Node
	bindingNode()
}

// ValBinding is one definition of a BindVal group.
type ValBinding struct {
	Name       Ident
	TypeParams []TypeParam
	RowParams  []RowParam
	Annot      TypeExpr
	Body       Expr
}

// ExternalSpec marks a value implemented by the target runtime.
type ExternalSpec struct {
	Arity int
}

// BindVal binds values: a non-recursive or recursive group, or an external
// declaration with its arity stamp.
type BindVal struct {
	Rec      bool
	External *ExternalSpec
	Bindings []ValBinding
	Range    token.Range
}

// TypeDef is one definition of a BindType group: a synonym when Body is
// set, a variant when Ctors is set.
type TypeDef struct {
	Name   Ident
	Params []TypeParam
	Body   TypeExpr
	Ctors  []CtorDef
	Range  token.Range
}

// BindType binds a `type ... and ...` group.
type BindType struct {
	Defs  []TypeDef
	Range token.Range
}

// BindModule binds a module, optionally sealed with a signature.
type BindModule struct {
	Name  Ident
	Sig   SigExpr
	Body  ModuleExpr
	Range token.Range
}

// BindInclude merges a structure into the enclosing one.
type BindInclude struct {
	Target ModuleExpr
	Range  token.Range
}

// BindSig binds a signature name.
type BindSig struct {
	Name  Ident
	Sig   SigExpr
	Range token.Range
}

func (b *BindVal) Span() token.Range     { return b.Range }
func (b *BindType) Span() token.Range    { return b.Range }
func (b *BindModule) Span() token.Range  { return b.Range }
func (b *BindInclude) Span() token.Range { return b.Range }
func (b *BindSig) Span() token.Range     { return b.Range }

func (*BindVal) bindingNode()     {}
func (*BindType) bindingNode()    {}
func (*BindModule) bindingNode()  {}
func (*BindInclude) bindingNode() {}
func (*BindSig) bindingNode()     {}
