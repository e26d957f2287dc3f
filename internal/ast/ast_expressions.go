package ast

import "github.com/sester-lang/sester/internal/token"

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// Const is a literal payload as parsed.
type Const interface {
	constNode()
}

type UnitConst struct{}
type BoolConst struct{ Value bool }
type IntConst struct{ Value int64 }
type FloatConst struct{ Value float64 }
type CharConst struct{ Value rune }

// BinaryConst keeps raw integers so the checker can reject values outside
// the byte range.
type BinaryConst struct{ Values []int }

// FormatConst is an unparsed format string; the checker elaborates holes.
type FormatConst struct{ Raw string }

func (UnitConst) constNode()   {}
func (BoolConst) constNode()   {}
func (IntConst) constNode()    {}
func (FloatConst) constNode()  {}
func (CharConst) constNode()   {}
func (BinaryConst) constNode() {}
func (FormatConst) constNode() {}

// Literal is a constant expression.
type Literal struct {
	Const Const
	Range token.Range
}

// Var references a value, possibly projected out of a module path.
type Var struct {
	Path  []Ident
	Name  Ident
	Range token.Range
}

// Param is an ordered lambda parameter.
type Param struct {
	Name Ident
}

// LabeledParam is a mandatory labeled lambda parameter.
type LabeledParam struct {
	Label string
	Name  Ident
}

// OptParam is an optional labeled lambda parameter with an optional
// default expression.
type OptParam struct {
	Label   string
	Name    Ident
	Default Expr
}

// Lambda is a function literal.
type Lambda struct {
	Params   []Param
	Labeled  []LabeledParam
	Optional []OptParam
	Body     Expr
	Range    token.Range
}

// LabeledArg is a labeled argument at a call site.
type LabeledArg struct {
	Label string
	Value Expr
	Range token.Range
}

// Apply is a call with ordered, mandatory labeled, and optional labeled
// arguments.
type Apply struct {
	Fun      Expr
	Args     []Expr
	Labeled  []LabeledArg
	Optional []LabeledArg
	Range    token.Range
}

// If is a conditional.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
	Range token.Range
}

// LetIn is a non-recursive binding; the pattern is typically a variable.
type LetIn struct {
	Pat   Pattern
	Bound Expr
	Body  Expr
	Range token.Range
}

// RecBinding is one definition of a letrec group; bodies are lambdas.
type RecBinding struct {
	Name Ident
	Fun  *Lambda
}

// LetRecIn is a group of mutually recursive bindings.
type LetRecIn struct {
	Bindings []RecBinding
	Body     Expr
	Range    token.Range
}

// Do sequences two effectful computations, binding the first result.
// Name is nil when the result is discarded (unit bind).
type Do struct {
	Name  *Ident
	Bound Expr
	Body  Expr
	Range token.Range
}

// Receive awaits a message matching one of the arms.
type Receive struct {
	Arms  []CaseArm
	Range token.Range
}

// Tuple builds a product of two or more components.
type Tuple struct {
	Elems []Expr
	Range token.Range
}

type ListNil struct {
	Range token.Range
}

type ListCons struct {
	Head  Expr
	Tail  Expr
	Range token.Range
}

// FieldAssign is one field of a record construction or update, in source
// order so duplicates are detectable.
type FieldAssign struct {
	Label string
	Value Expr
	Range token.Range
}

type RecordExpr struct {
	Fields []FieldAssign
	Range  token.Range
}

type RecordAccess struct {
	Target Expr
	Label  string
	Range  token.Range
}

type RecordUpdate struct {
	Target Expr
	Fields []FieldAssign
	Range  token.Range
}

// CtorApp applies a variant constructor.
type CtorApp struct {
	Path  []Ident
	Name  Ident
	Args  []Expr
	Range token.Range
}

// CaseArm is one arm of a case or receive.
type CaseArm struct {
	Pat  Pattern
	Body Expr
}

type Case struct {
	Scrutinee Expr
	Arms      []CaseArm
	Range     token.Range
}

// FreezeArg is an argument slot of a freeze: a value or a hole.
type FreezeArg struct {
	Value Expr
	Hole  bool
	Range token.Range
}

// Freeze captures a module-level function with some arguments fixed.
type Freeze struct {
	Target Var
	Args   []FreezeArg
	Range  token.Range
}

// FreezeUpdate fills holes of an existing frozen value.
type FreezeUpdate struct {
	Target Expr
	Args   []FreezeArg
	Range  token.Range
}

func (e *Literal) Span() token.Range      { return e.Range }
func (e *Var) Span() token.Range          { return e.Range }
func (e *Lambda) Span() token.Range       { return e.Range }
func (e *Apply) Span() token.Range        { return e.Range }
func (e *If) Span() token.Range           { return e.Range }
func (e *LetIn) Span() token.Range        { return e.Range }
func (e *LetRecIn) Span() token.Range     { return e.Range }
func (e *Do) Span() token.Range           { return e.Range }
func (e *Receive) Span() token.Range      { return e.Range }
func (e *Tuple) Span() token.Range        { return e.Range }
func (e *ListNil) Span() token.Range      { return e.Range }
func (e *ListCons) Span() token.Range     { return e.Range }
func (e *RecordExpr) Span() token.Range   { return e.Range }
func (e *RecordAccess) Span() token.Range { return e.Range }
func (e *RecordUpdate) Span() token.Range { return e.Range }
func (e *CtorApp) Span() token.Range      { return e.Range }
func (e *Case) Span() token.Range         { return e.Range }
func (e *Freeze) Span() token.Range       { return e.Range }
func (e *FreezeUpdate) Span() token.Range { return e.Range }

func (*Literal) exprNode()      {}
func (*Var) exprNode()          {}
func (*Lambda) exprNode()       {}
func (*Apply) exprNode()        {}
func (*If) exprNode()           {}
func (*LetIn) exprNode()        {}
func (*LetRecIn) exprNode()     {}
func (*Do) exprNode()           {}
func (*Receive) exprNode()      {}
func (*Tuple) exprNode()        {}
func (*ListNil) exprNode()      {}
func (*ListCons) exprNode()     {}
func (*RecordExpr) exprNode()   {}
func (*RecordAccess) exprNode() {}
func (*RecordUpdate) exprNode() {}
func (*CtorApp) exprNode()      {}
func (*Case) exprNode()         {}
func (*Freeze) exprNode()       {}
func (*FreezeUpdate) exprNode() {}

// Pattern is a match pattern.
type Pattern interface {
	Node
	patternNode()
}

type PWildcard struct {
	Range token.Range
}

type PVar struct {
	Name  Ident
	Range token.Range
}

type PLiteral struct {
	Const Const
	Range token.Range
}

type PTuple struct {
	Elems []Pattern
	Range token.Range
}

type PListNil struct {
	Range token.Range
}

type PListCons struct {
	Head  Pattern
	Tail  Pattern
	Range token.Range
}

type PCtor struct {
	Path  []Ident
	Name  Ident
	Args  []Pattern
	Range token.Range
}

func (p *PWildcard) Span() token.Range { return p.Range }
func (p *PVar) Span() token.Range      { return p.Range }
func (p *PLiteral) Span() token.Range  { return p.Range }
func (p *PTuple) Span() token.Range    { return p.Range }
func (p *PListNil) Span() token.Range  { return p.Range }
func (p *PListCons) Span() token.Range { return p.Range }
func (p *PCtor) Span() token.Range     { return p.Range }

func (*PWildcard) patternNode() {}
func (*PVar) patternNode()      {}
func (*PLiteral) patternNode()  {}
func (*PTuple) patternNode()    {}
func (*PListNil) patternNode()  {}
func (*PListCons) patternNode() {}
func (*PCtor) patternNode()     {}
