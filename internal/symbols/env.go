// Package symbols holds the name-resolution environment and the signature
// values the module elaborator manipulates. The environment is persistent:
// extending it returns a new value and never mutates the receiver, so
// scopes nest by ordinary Go value passing.
package symbols

import (
	"github.com/benbjohnson/immutable"

	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

var emptyMap = immutable.NewSortedMap(nil)

// nameMap is a persistent map from names to entries, iterable in key order.
type nameMap struct {
	m *immutable.SortedMap
}

func newNameMap() nameMap { return nameMap{m: emptyMap} }

func (n nameMap) set(name string, v interface{}) nameMap {
	return nameMap{m: n.m.Set(name, v)}
}

func (n nameMap) get(name string) (interface{}, bool) {
	return n.m.Get(name)
}

func (n nameMap) rng(f func(name string, v interface{}) bool) {
	itr := n.m.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		if !f(k.(string), v) {
			return
		}
	}
}

// ValEntry is a bound value: its polytype and its resolved output name.
// The use flag is a shared cell so that marking a value used is visible
// through every environment extension that carries the same binding.
type ValEntry struct {
	Poly  typesystem.Type
	Name  ir.Name
	Range token.Range
	used  *bool
}

// NewValEntry builds an entry with an unset use flag.
func NewValEntry(poly typesystem.Type, name ir.Name, r token.Range) ValEntry {
	used := false
	return ValEntry{Poly: poly, Name: name, Range: r, used: &used}
}

// MarkUsed records that the binding was referenced.
func (v ValEntry) MarkUsed() {
	if v.used != nil {
		*v.used = true
	}
}

// IsUsed reports whether the binding was ever referenced.
func (v ValEntry) IsUsed() bool {
	return v.used == nil || *v.used
}

// TypeEntry is a bound type name. The namespace of the ID tells synonyms,
// variants, and opaque types apart.
type TypeEntry struct {
	ID    typesystem.TypeID
	Arity int
}

// CtorEntry is a bound constructor: the owning variant, the constructor
// serial, and the parameter polytypes over the variant's bound parameters.
type CtorEntry struct {
	Variant    typesystem.VariantID
	Ctor       typesystem.ConstructorID
	ParamTypes []typesystem.Type
}

// ModuleEntry is a bound module with its signature and output space.
type ModuleEntry struct {
	Sig   Signature
	Space string
}

// SigEntry is a bound signature name.
type SigEntry struct {
	Abs Abstracted
}

// Env is the name-resolution environment: five independent namespaces.
type Env struct {
	vals  nameMap
	types nameMap
	ctors nameMap
	mods  nameMap
	sigs  nameMap
}

// NewEnv returns an empty environment.
func NewEnv() Env {
	return Env{
		vals:  newNameMap(),
		types: newNameMap(),
		ctors: newNameMap(),
		mods:  newNameMap(),
		sigs:  newNameMap(),
	}
}

func (e Env) AddValue(name string, entry ValEntry) Env {
	e.vals = e.vals.set(name, entry)
	return e
}

func (e Env) FindValue(name string) (ValEntry, bool) {
	v, ok := e.vals.get(name)
	if !ok {
		return ValEntry{}, false
	}
	return v.(ValEntry), true
}

func (e Env) AddType(name string, entry TypeEntry) Env {
	e.types = e.types.set(name, entry)
	return e
}

func (e Env) FindType(name string) (TypeEntry, bool) {
	v, ok := e.types.get(name)
	if !ok {
		return TypeEntry{}, false
	}
	return v.(TypeEntry), true
}

func (e Env) AddCtor(name string, entry CtorEntry) Env {
	e.ctors = e.ctors.set(name, entry)
	return e
}

func (e Env) FindCtor(name string) (CtorEntry, bool) {
	v, ok := e.ctors.get(name)
	if !ok {
		return CtorEntry{}, false
	}
	return v.(CtorEntry), true
}

func (e Env) AddModule(name string, entry ModuleEntry) Env {
	e.mods = e.mods.set(name, entry)
	return e
}

func (e Env) FindModule(name string) (ModuleEntry, bool) {
	v, ok := e.mods.get(name)
	if !ok {
		return ModuleEntry{}, false
	}
	return v.(ModuleEntry), true
}

func (e Env) AddSignature(name string, entry SigEntry) Env {
	e.sigs = e.sigs.set(name, entry)
	return e
}

func (e Env) FindSignature(name string) (SigEntry, bool) {
	v, ok := e.sigs.get(name)
	if !ok {
		return SigEntry{}, false
	}
	return v.(SigEntry), true
}

// RangeValues iterates values in name order.
func (e Env) RangeValues(f func(name string, entry ValEntry) bool) {
	e.vals.rng(func(name string, v interface{}) bool {
		return f(name, v.(ValEntry))
	})
}
