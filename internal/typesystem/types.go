package typesystem

// Type is the interface for all internal types. A Type value is either a
// monomorphic type or, when it contains Bound leaves, the body of a
// polymorphic type produced by Generalize. The two flavors never mix: a
// polytype contains no free variable references and a monotype contains no
// Bound leaves.
type Type interface {
	typeNode()
}

// BaseKindTag enumerates the base scalar types.
type BaseKindTag int

const (
	UnitType BaseKindTag = iota
	BoolType
	IntType
	FloatType
	CharType
	BinaryType
)

var baseNames = [...]string{"unit", "bool", "int", "float", "char", "binary"}

func (b BaseKindTag) String() string { return baseNames[b] }

// Base is a base scalar type.
type Base struct {
	Tag BaseKindTag
}

// Product is a tuple type of two or more components.
type Product struct {
	Types []Type
}

// Record is a closed record type mapping labels to types.
type Record struct {
	Fields map[string]Type
}

// Data is a named type applied to arguments. The ID is one of SynonymID,
// VariantID, or OpaqueID; equality is nominal.
type Data struct {
	ID   TypeID
	Args []Type
}

// Domain is the argument shape of a function: positional arguments,
// mandatory labeled arguments, and an optional-argument row.
type Domain struct {
	Ordered   []Type
	Mandatory map[string]Type
	Optional  Row
}

// Effect marks the receive type of an effectful computation.
type Effect struct {
	Receive Type
}

// Func is a pure function type.
type Func struct {
	Dom *Domain
	Cod Type
}

// EffFunc is an effectful function type; calling one yields a computation
// that may receive messages of the effect's receive type.
type EffFunc struct {
	Dom *Domain
	Eff *Effect
	Cod Type
}

// Pid is the type of a process identifier whose process receives messages
// of the given type.
type Pid struct {
	Receive Type
}

// Format is the type of a format string whose holes, collected in order,
// have the argument type (unit for no holes, a product for two or more).
type Format struct {
	Arg Type
}

// Frozen is the type of a frozen closure over a global name: Rest is the
// argument shape still to be supplied, Receive and Return describe the
// effectful call that thawing performs.
type Frozen struct {
	Rest    *Domain
	Receive Type
	Return  Type
}

// VarRef is a reference to a type-variable cell in a Context arena.
type VarRef struct {
	ID TypeVarID
}

// BoundRef is a universally quantified variable inside a polytype.
type BoundRef struct {
	ID BoundID
}

func (Base) typeNode()     {}
func (Product) typeNode()  {}
func (Record) typeNode()   {}
func (Data) typeNode()     {}
func (Func) typeNode()     {}
func (EffFunc) typeNode()  {}
func (Pid) typeNode()      {}
func (Format) typeNode()   {}
func (Frozen) typeNode()   {}
func (VarRef) typeNode()   {}
func (BoundRef) typeNode() {}

// Row is the optional-argument shape: a closed label map, a row-variable
// cell, or (inside polytypes only) a bound row.
type Row interface {
	rowNode()
}

// FixedRow is a closed optional-argument row.
type FixedRow struct {
	Fields map[string]Type
}

// RowVarRef is a reference to a row-variable cell in a Context arena.
type RowVarRef struct {
	ID RowVarID
}

// BoundRowRef is a universally quantified row inside a polytype.
type BoundRowRef struct {
	ID BoundRowID
}

func (FixedRow) rowNode()    {}
func (RowVarRef) rowNode()   {}
func (BoundRowRef) rowNode() {}

// NewDomain returns a domain with the given positional arguments, no
// mandatory labels, and an empty optional row.
func NewDomain(ordered ...Type) *Domain {
	return &Domain{
		Ordered:   ordered,
		Mandatory: map[string]Type{},
		Optional:  FixedRow{Fields: map[string]Type{}},
	}
}

func unitType() Type { return Base{Tag: UnitType} }

// HoleProduct packs the ordered hole types of a format string into a single
// argument type.
func HoleProduct(holes []Type) Type {
	switch len(holes) {
	case 0:
		return unitType()
	case 1:
		return holes[0]
	default:
		return Product{Types: holes}
	}
}
