package symbols

import (
	"sort"

	"github.com/sester-lang/sester/internal/ast"
	"github.com/sester-lang/sester/internal/typesystem"
)

// Signature is a module signature: a structure or a first-order functor.
type Signature interface {
	sigNode()
}

// StructureSig wraps the ordered record of a structure signature.
type StructureSig struct {
	Record *SigRecord
}

// FunctorSig is a functor signature. Opaques are the abstract types
// quantified over the domain; each application replaces them with the
// argument's types through the witness map.
// Closure carries what is needed to re-elaborate the body against an
// actual argument.
type FunctorSig struct {
	Opaques  *OpaqueSet
	Domain   Signature
	Codomain Abstracted
	Closure  *FunctorClosure
}

func (*StructureSig) sigNode() {}
func (*FunctorSig) sigNode()   {}

// FunctorClosure captures the functor body and the environment it was
// written in.
type FunctorClosure struct {
	Param string
	Body  ast.ModuleExpr
	Env   Env
}

// Abstracted is a signature together with the opaque IDs existentially
// quantified at its boundary.
type Abstracted struct {
	Opaques *OpaqueSet
	Sig     Signature
}

// OpaqueSet is a set of opaque IDs with deterministic iteration.
type OpaqueSet struct {
	ids map[typesystem.OpaqueID]struct{}
}

func NewOpaqueSet(ids ...typesystem.OpaqueID) *OpaqueSet {
	s := &OpaqueSet{ids: map[typesystem.OpaqueID]struct{}{}}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *OpaqueSet) Has(id typesystem.OpaqueID) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

func (s *OpaqueSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// Union returns a new set with the members of both.
func (s *OpaqueSet) Union(other *OpaqueSet) *OpaqueSet {
	out := NewOpaqueSet()
	for id := range s.ids {
		out.ids[id] = struct{}{}
	}
	if other != nil {
		for id := range other.ids {
			out.ids[id] = struct{}{}
		}
	}
	return out
}

// Sorted returns the members in serial order.
func (s *OpaqueSet) Sorted() []typesystem.OpaqueID {
	if s == nil {
		return nil
	}
	out := make([]typesystem.OpaqueID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SubstSignature rewrites every type ID mentioned by the signature through
// f: value polytypes, constructor parameter types, type entries, and
// nested modules, signatures, and functors.
func SubstSignature(sig Signature, f func(typesystem.TypeID) typesystem.TypeID) Signature {
	switch sig := sig.(type) {
	case *StructureSig:
		return &StructureSig{Record: SubstRecord(sig.Record, f)}
	case *FunctorSig:
		return &FunctorSig{
			Opaques:  sig.Opaques,
			Domain:   SubstSignature(sig.Domain, f),
			Codomain: Abstracted{Opaques: sig.Codomain.Opaques, Sig: SubstSignature(sig.Codomain.Sig, f)},
			Closure:  sig.Closure,
		}
	}
	return sig
}

// SubstRecord is SubstSignature on a bare record.
func SubstRecord(rec *SigRecord, f func(typesystem.TypeID) typesystem.TypeID) *SigRecord {
	out := NewSigRecord()
	rec.Items(func(item SigItem) bool {
		switch item.Class {
		case ValClass:
			entry := item.Val
			entry.Poly = typesystem.ReplaceTypeIDs(entry.Poly, f)
			item.Val = entry
		case TypeClass:
			item.Type = TypeEntry{ID: f(item.Type.ID), Arity: item.Type.Arity}
		case CtorClass:
			entry := item.Ctor
			if vid, ok := f(entry.Variant).(typesystem.VariantID); ok {
				entry.Variant = vid
			}
			params := make([]typesystem.Type, len(entry.ParamTypes))
			for i, p := range entry.ParamTypes {
				params[i] = typesystem.ReplaceTypeIDs(p, f)
			}
			entry.ParamTypes = params
			item.Ctor = entry
		case ModuleClass:
			entry := item.Module
			entry.Sig = SubstSignature(entry.Sig, f)
			item.Module = entry
		case SignatureClass:
			entry := item.Sig
			entry.Abs = Abstracted{Opaques: entry.Abs.Opaques, Sig: SubstSignature(entry.Abs.Sig, f)}
			item.Sig = entry
		}
		out = out.Add(item)
		return true
	})
	return out
}

// CopyAbstracted freshens every existential opaque ID of the signature, so
// that distinct uses of one signature never share abstract types.
func CopyAbstracted(ctx *typesystem.Context, abs Abstracted) Abstracted {
	if abs.Opaques.Len() == 0 {
		return abs
	}
	rename := make(map[typesystem.OpaqueID]typesystem.OpaqueID, abs.Opaques.Len())
	fresh := NewOpaqueSet()
	for _, old := range abs.Opaques.Sorted() {
		def := ctx.Opaque(old)
		next := ctx.FreshOpaqueID(def.Name, def.Path, def.Kind)
		rename[old] = next
		fresh.ids[next] = struct{}{}
	}
	f := func(id typesystem.TypeID) typesystem.TypeID {
		if oid, ok := id.(typesystem.OpaqueID); ok {
			if next, ok := rename[oid]; ok {
				return next
			}
		}
		return id
	}
	return Abstracted{Opaques: fresh, Sig: SubstSignature(abs.Sig, f)}
}

// OpenRecord brings every entry of a structure record into the
// environment, as include and module projection do.
func OpenRecord(env Env, rec *SigRecord) Env {
	rec.Items(func(item SigItem) bool {
		switch item.Class {
		case ValClass:
			env = env.AddValue(item.Name, item.Val)
		case TypeClass:
			env = env.AddType(item.Name, item.Type)
		case CtorClass:
			env = env.AddCtor(item.Name, item.Ctor)
		case ModuleClass:
			env = env.AddModule(item.Name, item.Module)
		case SignatureClass:
			env = env.AddSignature(item.Name, item.Sig)
		}
		return true
	})
	return env
}
