package typesystem

import "fmt"

// TypeVarID indexes a type-variable cell in a Context arena.
type TypeVarID int

// RowVarID indexes a row-variable cell in a Context arena.
type RowVarID int

// BoundID identifies a universally quantified type variable of a polytype.
type BoundID int

// BoundRowID identifies a universally quantified row of a polytype.
type BoundRowID int

// ConstructorID identifies a constructor of a variant type.
type ConstructorID int

// TypeID is the identity of a named type. The three implementations are
// disjoint namespaces; equality is by serial number within a namespace.
type TypeID interface {
	typeIDMark()
}

// SynonymID identifies a transparent type abbreviation.
type SynonymID int

// VariantID identifies a nominal sum type.
type VariantID int

// OpaqueID identifies a type hidden behind a signature.
type OpaqueID int

func (SynonymID) typeIDMark() {}
func (VariantID) typeIDMark() {}
func (OpaqueID) typeIDMark()  {}

type varState int

const (
	stateFree varState = iota
	stateLink
	stateMustBeBound
)

// typeVarCell is one union-find cell. A Link cell is never reset; Resolve
// path-compresses chains as it follows them.
type typeVarCell struct {
	state varState
	level int
	kind  BaseKind
	link  Type
	bound BoundID
	name  string
}

type rowVarCell struct {
	state varState
	level int
	kind  map[string]Type
	link  Row
	bound BoundRowID
	name  string
}

// Context owns every monotonic counter and every process-wide table of the
// elaborator: the type- and row-variable arenas, the bound-kind stores, and
// the type-definition store. It is passed explicitly; there is no hidden
// singleton, and a Context must not be shared between concurrent checks.
type Context struct {
	typeVars []typeVarCell
	rowVars  []rowVarCell

	nextBound    BoundID
	nextBoundRow BoundRowID
	nextOpaque   OpaqueID
	nextSynonym  SynonymID
	nextVariant  VariantID
	nextCtor     ConstructorID
	nextLocal    int
	nextGlobal   int

	boundKinds    map[BoundID]BaseKind
	boundRowKinds map[BoundRowID]map[string]Type

	synonyms map[SynonymID]*SynonymDef
	variants map[VariantID]*VariantDef
	opaqueDefs map[OpaqueID]*OpaqueDef
}

// NewContext returns an empty context. Tests build a fresh one per case.
func NewContext() *Context {
	return &Context{
		boundKinds:    map[BoundID]BaseKind{},
		boundRowKinds: map[BoundRowID]map[string]Type{},
		synonyms:      map[SynonymID]*SynonymDef{},
		variants:      map[VariantID]*VariantDef{},
		opaqueDefs:    map[OpaqueID]*OpaqueDef{},
	}
}

// FreshVar allocates a free type variable at the given level with the
// universal kind.
func (ctx *Context) FreshVar(level int) VarRef {
	return ctx.FreshVarWithKind(level, UniversalKind{})
}

// FreshVarWithKind allocates a free type variable at the given level
// carrying a record-kind constraint.
func (ctx *Context) FreshVarWithKind(level int, kind BaseKind) VarRef {
	id := TypeVarID(len(ctx.typeVars))
	ctx.typeVars = append(ctx.typeVars, typeVarCell{state: stateFree, level: level, kind: kind})
	return VarRef{ID: id}
}

// FreshMustBeBound allocates a rigid type variable for a handwritten type
// parameter or a signature-matching skolem. It unifies only with itself and
// generalizes to the returned bound ID.
func (ctx *Context) FreshMustBeBound(name string, kind BaseKind) (VarRef, BoundID) {
	if kind == nil {
		kind = UniversalKind{}
	}
	bid := ctx.FreshBoundID(kind)
	id := TypeVarID(len(ctx.typeVars))
	ctx.typeVars = append(ctx.typeVars, typeVarCell{state: stateMustBeBound, bound: bid, name: name, kind: kind})
	return VarRef{ID: id}, bid
}

// FreshRowVar allocates a free row variable at the given level with the
// given label kind.
func (ctx *Context) FreshRowVar(level int, kind map[string]Type) RowVarRef {
	if kind == nil {
		kind = map[string]Type{}
	}
	id := RowVarID(len(ctx.rowVars))
	ctx.rowVars = append(ctx.rowVars, rowVarCell{state: stateFree, level: level, kind: kind})
	return RowVarRef{ID: id}
}

// FreshMustBeBoundRow allocates a rigid row variable for a handwritten row
// parameter.
func (ctx *Context) FreshMustBeBoundRow(name string, kind map[string]Type) (RowVarRef, BoundRowID) {
	if kind == nil {
		kind = map[string]Type{}
	}
	brid := ctx.FreshBoundRowID(kind)
	id := RowVarID(len(ctx.rowVars))
	ctx.rowVars = append(ctx.rowVars, rowVarCell{state: stateMustBeBound, bound: brid, name: name, kind: kind})
	return RowVarRef{ID: id}, brid
}

// FreshBoundID allocates a bound ID and registers its poly base kind.
func (ctx *Context) FreshBoundID(kind BaseKind) BoundID {
	id := ctx.nextBound
	ctx.nextBound++
	ctx.boundKinds[id] = kind
	return id
}

// FreshBoundRowID allocates a bound row ID and registers its label kind.
func (ctx *Context) FreshBoundRowID(kind map[string]Type) BoundRowID {
	id := ctx.nextBoundRow
	ctx.nextBoundRow++
	ctx.boundRowKinds[id] = kind
	return id
}

// BoundKind returns the registered base kind of a bound ID.
func (ctx *Context) BoundKind(id BoundID) BaseKind {
	k, ok := ctx.boundKinds[id]
	if !ok {
		panic(fmt.Sprintf("typesystem: unregistered bound ID %d", id))
	}
	return k
}

// SetBoundKind overwrites the kind of a bound ID. Generalize uses this to
// lift the kind of the variable it replaced.
func (ctx *Context) SetBoundKind(id BoundID, kind BaseKind) {
	ctx.boundKinds[id] = kind
}

// BoundRowKind returns the registered label kind of a bound row ID.
func (ctx *Context) BoundRowKind(id BoundRowID) map[string]Type {
	k, ok := ctx.boundRowKinds[id]
	if !ok {
		panic(fmt.Sprintf("typesystem: unregistered bound row ID %d", id))
	}
	return k
}

// SetBoundRowKind overwrites the label kind of a bound row ID.
func (ctx *Context) SetBoundRowKind(id BoundRowID, kind map[string]Type) {
	ctx.boundRowKinds[id] = kind
}

// FreshLocal returns the next local output-name number.
func (ctx *Context) FreshLocal() int {
	n := ctx.nextLocal
	ctx.nextLocal++
	return n
}

// FreshGlobal returns the next global output-name number.
func (ctx *Context) FreshGlobal() int {
	n := ctx.nextGlobal
	ctx.nextGlobal++
	return n
}

func (ctx *Context) cell(id TypeVarID) *typeVarCell {
	return &ctx.typeVars[id]
}

func (ctx *Context) rowCell(id RowVarID) *rowVarCell {
	return &ctx.rowVars[id]
}

// Resolve follows Link chains at the root of t, compressing paths so that
// repeated resolution is cheap. It never descends into sub-terms.
func (ctx *Context) Resolve(t Type) Type {
	v, ok := t.(VarRef)
	if !ok {
		return t
	}
	cell := ctx.cell(v.ID)
	if cell.state != stateLink {
		return t
	}
	resolved := ctx.Resolve(cell.link)
	cell.link = resolved
	return resolved
}

// ResolveRow follows Link chains at the root of a row.
func (ctx *Context) ResolveRow(r Row) Row {
	v, ok := r.(RowVarRef)
	if !ok {
		return r
	}
	cell := ctx.rowCell(v.ID)
	if cell.state != stateLink {
		return r
	}
	resolved := ctx.ResolveRow(cell.link)
	cell.link = resolved
	return resolved
}

// VarLevel returns the level of a free type variable.
func (ctx *Context) VarLevel(id TypeVarID) int {
	return ctx.cell(id).level
}

// VarKind returns the record-kind constraint of a free type variable.
func (ctx *Context) VarKind(id TypeVarID) BaseKind {
	return ctx.cell(id).kind
}

// RowVarKind returns the label kind of a free row variable.
func (ctx *Context) RowVarKind(id RowVarID) map[string]Type {
	return ctx.rowCell(id).kind
}

// IsFreeVar reports whether the cell is still unconstrained.
func (ctx *Context) IsFreeVar(id TypeVarID) bool {
	return ctx.cell(id).state == stateFree
}

func (ctx *Context) link(id TypeVarID, t Type) {
	cell := ctx.cell(id)
	if cell.state == stateLink {
		panic(fmt.Sprintf("typesystem: relinking type variable %d", id))
	}
	cell.state = stateLink
	cell.link = t
}

func (ctx *Context) linkRow(id RowVarID, r Row) {
	cell := ctx.rowCell(id)
	if cell.state == stateLink {
		panic(fmt.Sprintf("typesystem: relinking row variable %d", id))
	}
	cell.state = stateLink
	cell.link = r
}
