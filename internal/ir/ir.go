// Package ir is the value language the elaborator emits. Every name is
// resolved: module-level values carry global names with an arity stamp,
// everything else a numbered local. The code generator for the target
// runtime consumes this tree unchanged.
package ir

import "github.com/sester-lang/sester/internal/typesystem"

// Name is a resolved output name.
type Name interface {
	nameNode()
}

// Local is a function-local name. Hint keeps the source spelling for
// readable output; Number is unique per compilation.
type Local struct {
	Number int
	Hint   string
}

// Global is a module-level name within an output space.
type Global struct {
	Space string
	Name  string
	Arity int
}

func (Local) nameNode()  {}
func (Global) nameNode() {}

// Value is an IR expression.
type Value interface {
	valueNode()
}

// Var references a resolved name.
type Var struct {
	Name Name
}

// Apply is a call site. The callee is always a name; computed callees are
// let-bound by the checker first. OptionalRow is the callee's resolved
// optional-argument row, so the code generator can fill defaults for
// optional labels absent from Optional.
type Apply struct {
	Name        Name
	OptionalRow typesystem.Row
	Ordered     []Value
	Mandatory   map[string]Value
	Optional    map[string]Value
}

// OptParam is an optional lambda parameter with its default, when one was
// written.
type OptParam struct {
	Label   string
	Var     Local
	Default Value
}

// Lambda is a function value. Self is set for self-recursive bindings.
type Lambda struct {
	Self      *Local
	Ordered   []Local
	Mandatory map[string]Local
	Optional  []OptParam
	Body      Value
}

// LetIn binds a local in Body.
type LetIn struct {
	Var   Local
	Bound Value
	Body  Value
}

// Branch is one arm of a case or receive.
type Branch struct {
	Pat  Pattern
	Body Value
}

// Case scrutinizes a value.
type Case struct {
	Scrutinee Value
	Branches  []Branch
}

// Receive awaits a message matching one of the branches.
type Receive struct {
	Branches []Branch
}

// Constructor builds a variant value.
type Constructor struct {
	Variant typesystem.VariantID
	Ctor    typesystem.ConstructorID
	Name    string
	Args    []Value
}

// Tuple builds a product value.
type Tuple struct {
	Elems []Value
}

// RecordValue builds a record.
type RecordValue struct {
	Fields map[string]Value
}

// RecordAccess projects a field.
type RecordAccess struct {
	Target Value
	Label  string
}

// RecordUpdate copies a record with some fields replaced.
type RecordUpdate struct {
	Target Value
	Fields map[string]Value
}

// ListNil is the empty list.
type ListNil struct{}

// ListCons prepends to a list.
type ListCons struct {
	Head Value
	Tail Value
}

// FreezeArg is one argument slot of a freeze: either a filled value or a
// hole to be supplied at thaw time.
type FreezeArg struct {
	Value Value
	Hole  bool
}

// Freeze captures a global function with some arguments fixed.
type Freeze struct {
	Name Global
	Args []FreezeArg
}

// FreezeUpdate fills more slots of an existing frozen value.
type FreezeUpdate struct {
	Target Value
	Args   []FreezeArg
}

// BaseConst is a literal.
type BaseConst struct {
	Const Const
}

func (Var) valueNode()          {}
func (Apply) valueNode()        {}
func (Lambda) valueNode()       {}
func (LetIn) valueNode()        {}
func (Case) valueNode()         {}
func (Receive) valueNode()      {}
func (Constructor) valueNode()  {}
func (Tuple) valueNode()        {}
func (RecordValue) valueNode()  {}
func (RecordAccess) valueNode() {}
func (RecordUpdate) valueNode() {}
func (ListNil) valueNode()      {}
func (ListCons) valueNode()     {}
func (Freeze) valueNode()       {}
func (FreezeUpdate) valueNode() {}
func (BaseConst) valueNode()    {}

// Pattern covers every value shape.
type Pattern interface {
	patternNode()
}

type PWildcard struct{}

type PVar struct {
	Var Local
}

type PConst struct {
	Const Const
}

type PTuple struct {
	Elems []Pattern
}

type PListNil struct{}

type PListCons struct {
	Head Pattern
	Tail Pattern
}

type PConstructor struct {
	Variant typesystem.VariantID
	Ctor    typesystem.ConstructorID
	Name    string
	Args    []Pattern
}

func (PWildcard) patternNode()    {}
func (PVar) patternNode()         {}
func (PConst) patternNode()       {}
func (PTuple) patternNode()       {}
func (PListNil) patternNode()     {}
func (PListCons) patternNode()    {}
func (PConstructor) patternNode() {}

// Const is a literal payload.
type Const interface {
	constNode()
}

type UnitConst struct{}

type BoolConst struct {
	Value bool
}

type IntConst struct {
	Value int64
}

type FloatConst struct {
	Value float64
}

type CharConst struct {
	Value rune
}

type BinaryConst struct {
	Bytes []byte
}

// FormatSegment is a literal run or a hole inside a format string.
type FormatSegment struct {
	Literal string
	Hole    byte
	IsHole  bool
}

type FormatConst struct {
	Segments []FormatSegment
}

func (UnitConst) constNode()   {}
func (BoolConst) constNode()   {}
func (IntConst) constNode()    {}
func (FloatConst) constNode()  {}
func (CharConst) constNode()   {}
func (BinaryConst) constNode() {}
func (FormatConst) constNode() {}

// Binding is one emitted module-level definition.
type Binding struct {
	Name  Global
	Value Value
}
