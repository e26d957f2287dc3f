package ast

import "github.com/sester-lang/sester/internal/token"

// TypeExpr is a handwritten type.
type TypeExpr interface {
	Node
	typeExprNode()
}

// TypeName applies a named type, possibly projected out of a module path,
// to type arguments. Builtin scalar names decode without an environment
// lookup.
type TypeName struct {
	Path  []Ident
	Name  Ident
	Args  []TypeExpr
	Range token.Range
}

// TypeVarExpr references a handwritten type parameter such as 'a.
type TypeVarExpr struct {
	Name  string
	Range token.Range
}

// FuncTypeExpr is a pure function type.
type FuncTypeExpr struct {
	Dom   DomainExpr
	Cod   TypeExpr
	Range token.Range
}

// EffFuncTypeExpr is an effectful function type with its receive type.
type EffFuncTypeExpr struct {
	Dom   DomainExpr
	Eff   TypeExpr
	Cod   TypeExpr
	Range token.Range
}

// ProductTypeExpr is a tuple type of two or more components.
type ProductTypeExpr struct {
	Types []TypeExpr
	Range token.Range
}

// RecordTypeExpr is a closed record type.
type RecordTypeExpr struct {
	Fields []LabeledType
	Range  token.Range
}

func (t *TypeName) Span() token.Range        { return t.Range }
func (t *TypeVarExpr) Span() token.Range     { return t.Range }
func (t *FuncTypeExpr) Span() token.Range    { return t.Range }
func (t *EffFuncTypeExpr) Span() token.Range { return t.Range }
func (t *ProductTypeExpr) Span() token.Range { return t.Range }
func (t *RecordTypeExpr) Span() token.Range  { return t.Range }

func (*TypeName) typeExprNode()        {}
func (*TypeVarExpr) typeExprNode()     {}
func (*FuncTypeExpr) typeExprNode()    {}
func (*EffFuncTypeExpr) typeExprNode() {}
func (*ProductTypeExpr) typeExprNode() {}
func (*RecordTypeExpr) typeExprNode()  {}

// DomainExpr is the argument shape of a handwritten function type.
type DomainExpr struct {
	Ordered   []TypeExpr
	Mandatory []LabeledType
	Optional  *RowExpr
}

// RowExpr is a handwritten optional row: either a closed label list or a
// row parameter reference.
type RowExpr struct {
	Fields []LabeledType
	Var    *Ident
	Range  token.Range
}

// KindExpr is a handwritten base kind: a kind name or a record kind.
type KindExpr struct {
	Name   *Ident
	Record []LabeledType
	Range  token.Range
}
