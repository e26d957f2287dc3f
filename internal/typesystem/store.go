package typesystem

import "fmt"

// SynonymDef is the definition of a transparent type abbreviation. Body is
// a polytype over Params.
type SynonymDef struct {
	Name   string
	Path   []string
	Params []BoundID
	Body   Type
}

// CtorEntry is one constructor of a variant, in declaration order. Params
// are polytypes over the owning variant's parameters.
type CtorEntry struct {
	Name   string
	ID     ConstructorID
	Params []Type
}

// VariantDef is the definition of a nominal sum type.
type VariantDef struct {
	Name   string
	Path   []string
	Params []BoundID
	Ctors  []CtorEntry
}

// Ctor returns the constructor with the given name, in O(n); variants are
// small.
func (v *VariantDef) Ctor(name string) (CtorEntry, bool) {
	for _, c := range v.Ctors {
		if c.Name == name {
			return c, true
		}
	}
	return CtorEntry{}, false
}

// OpaqueDef records the display name and kind of an opaque ID.
type OpaqueDef struct {
	Name string
	Path []string
	Kind Kind
}

// FreshSynonymID allocates a synonym ID. Its definition must be registered
// before the ID is used in unification.
func (ctx *Context) FreshSynonymID() SynonymID {
	id := ctx.nextSynonym
	ctx.nextSynonym++
	return id
}

// RegisterSynonym stores the definition for a synonym ID. Registering an ID
// twice is a programmer error.
func (ctx *Context) RegisterSynonym(id SynonymID, def *SynonymDef) {
	if _, ok := ctx.synonyms[id]; ok {
		panic(fmt.Sprintf("typesystem: synonym %d registered twice", id))
	}
	ctx.synonyms[id] = def
}

// Synonym returns the definition of a synonym ID.
func (ctx *Context) Synonym(id SynonymID) *SynonymDef {
	def, ok := ctx.synonyms[id]
	if !ok {
		panic(fmt.Sprintf("typesystem: unregistered synonym %d", id))
	}
	return def
}

// HasSynonym reports whether the synonym's definition has been registered.
// The decoder uses this while a recursive group is still being elaborated.
func (ctx *Context) HasSynonym(id SynonymID) bool {
	_, ok := ctx.synonyms[id]
	return ok
}

// FreshVariantID allocates a variant ID.
func (ctx *Context) FreshVariantID() VariantID {
	id := ctx.nextVariant
	ctx.nextVariant++
	return id
}

// FreshConstructorID allocates a constructor ID.
func (ctx *Context) FreshConstructorID() ConstructorID {
	id := ctx.nextCtor
	ctx.nextCtor++
	return id
}

// RegisterVariant stores the definition for a variant ID.
func (ctx *Context) RegisterVariant(id VariantID, def *VariantDef) {
	if _, ok := ctx.variants[id]; ok {
		panic(fmt.Sprintf("typesystem: variant %d registered twice", id))
	}
	ctx.variants[id] = def
}

// HasVariant reports whether the variant's definition has been registered.
func (ctx *Context) HasVariant(id VariantID) bool {
	_, ok := ctx.variants[id]
	return ok
}

// Variant returns the definition of a variant ID.
func (ctx *Context) Variant(id VariantID) *VariantDef {
	def, ok := ctx.variants[id]
	if !ok {
		panic(fmt.Sprintf("typesystem: unregistered variant %d", id))
	}
	return def
}

// FreshOpaqueID allocates an opaque ID and registers its display data and
// kind.
func (ctx *Context) FreshOpaqueID(name string, path []string, kind Kind) OpaqueID {
	id := ctx.nextOpaque
	ctx.nextOpaque++
	ctx.opaqueDefs[id] = &OpaqueDef{Name: name, Path: path, Kind: kind}
	return id
}

// Opaque returns the display data and kind of an opaque ID.
func (ctx *Context) Opaque(id OpaqueID) *OpaqueDef {
	def, ok := ctx.opaqueDefs[id]
	if !ok {
		panic(fmt.Sprintf("typesystem: unregistered opaque %d", id))
	}
	return def
}

// TypeIDArity returns the number of type arguments a named type expects.
func (ctx *Context) TypeIDArity(id TypeID) int {
	switch id := id.(type) {
	case SynonymID:
		return len(ctx.Synonym(id).Params)
	case VariantID:
		return len(ctx.Variant(id).Params)
	case OpaqueID:
		return ctx.Opaque(id).Kind.Arity()
	}
	panic("typesystem: unknown type ID namespace")
}

// TypeIDName returns the display name of a named type.
func (ctx *Context) TypeIDName(id TypeID) string {
	switch id := id.(type) {
	case SynonymID:
		return ctx.Synonym(id).Name
	case VariantID:
		return ctx.Variant(id).Name
	case OpaqueID:
		return ctx.Opaque(id).Name
	}
	panic("typesystem: unknown type ID namespace")
}
