package modules

import (
	"github.com/sester-lang/sester/internal/diagnostics"
	"github.com/sester-lang/sester/internal/symbols"
	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

// witnessMap records, for each abstract or nominal type ID required by the
// target signature, the type ID the source module implements it with.
type witnessMap map[typesystem.TypeID]typesystem.TypeID

func (w witnessMap) apply(id typesystem.TypeID) typesystem.TypeID {
	if mapped, ok := w[id]; ok {
		return mapped
	}
	return id
}

// subtypeAbstract checks that the concrete record rec1 implements the
// abstracted signature abs2, in three phases: locate every required member
// and build the witness map, validate the witness map, then apply it and
// compare member by member.
func (el *Elaborator) subtypeAbstract(rng token.Range, rec1 *symbols.SigRecord, abs2 symbols.Abstracted) (witnessMap, diagnostics.Error) {
	rec2, rerr := recordOf(abs2.Sig, rng)
	if rerr != nil {
		return nil, &diagnostics.NotAStructureSignature{Loc: diagnostics.At(rng)}
	}
	w := witnessMap{}
	if err := el.lookupRecord(rng, rec1, rec2, abs2.Opaques, w); err != nil {
		return nil, err
	}
	if err := el.checkWellFormednessOfWitnessMap(rng, w); err != nil {
		return nil, err
	}
	if err := el.subtypeConcreteWithConcrete(rng, rec1, symbols.SubstRecord(rec2, w.apply)); err != nil {
		return nil, err
	}
	return w, nil
}

// lookupRecord locates a correspondent in rec1 for every member rec2
// requires, recording type-ID correspondences in w.
func (el *Elaborator) lookupRecord(rng token.Range, rec1, rec2 *symbols.SigRecord, opaques2 *symbols.OpaqueSet, w witnessMap) diagnostics.Error {
	var failure diagnostics.Error
	rec2.Items(func(item symbols.SigItem) bool {
		switch item.Class {
		case symbols.ValClass:
			if _, ok := rec1.FindVal(item.Name); !ok {
				failure = &diagnostics.MissingRequiredValName{Loc: diagnostics.At(rng), Name: item.Name}
			}

		case symbols.TypeClass:
			impl, ok := rec1.FindType(item.Name)
			if !ok {
				failure = &diagnostics.MissingRequiredTypeName{Loc: diagnostics.At(rng), Name: item.Name}
				return false
			}
			failure = el.witnessType(rng, item.Name, impl, item.Type, opaques2, w)

		case symbols.ModuleClass:
			impl, ok := rec1.FindModule(item.Name)
			if !ok {
				failure = &diagnostics.MissingRequiredModuleName{Loc: diagnostics.At(rng), Name: item.Name}
				return false
			}
			implRec, ok1 := impl.Sig.(*symbols.StructureSig)
			wantRec, ok2 := item.Module.Sig.(*symbols.StructureSig)
			if ok1 && ok2 {
				failure = el.lookupRecord(rng, implRec.Record, wantRec.Record, opaques2, w)
			}

		case symbols.SignatureClass:
			if _, ok := rec1.FindSignature(item.Name); !ok {
				failure = &diagnostics.MissingRequiredSignatureName{Loc: diagnostics.At(rng), Name: item.Name}
			}
		}
		return failure == nil
	})
	return failure
}

func (el *Elaborator) witnessType(rng token.Range, name string, impl, want symbols.TypeEntry, opaques2 *symbols.OpaqueSet, w witnessMap) diagnostics.Error {
	if oid, ok := want.ID.(typesystem.OpaqueID); ok && opaques2.Has(oid) {
		if impl.Arity != want.Arity {
			return &diagnostics.NotASubtypeTypeOpacity{Loc: diagnostics.At(rng), Name: name}
		}
		w[want.ID] = impl.ID
		return nil
	}
	switch want.ID.(type) {
	case typesystem.VariantID:
		vid1, ok := impl.ID.(typesystem.VariantID)
		if !ok {
			return &diagnostics.NotASubtypeVariant{Loc: diagnostics.At(rng), Name: name}
		}
		w[want.ID] = vid1
	case typesystem.SynonymID:
		sid1, ok := impl.ID.(typesystem.SynonymID)
		if !ok {
			return &diagnostics.NotASubtypeSynonym{Loc: diagnostics.At(rng), Name: name}
		}
		w[want.ID] = sid1
	case typesystem.OpaqueID:
		// A rigid opaque reference must be implemented by itself.
		if impl.ID != want.ID {
			return &diagnostics.NotASubtypeTypeOpacity{Loc: diagnostics.At(rng), Name: name}
		}
	}
	return nil
}

// checkWellFormednessOfWitnessMap validates nominal correspondences:
// mapped variants must have identical constructor sets with equivalent
// parameter types, mapped synonyms equivalent bodies. Both sides are
// instantiated at one shared parameter list before comparison.
func (el *Elaborator) checkWellFormednessOfWitnessMap(rng token.Range, w witnessMap) diagnostics.Error {
	for want, impl := range w {
		switch want := want.(type) {
		case typesystem.VariantID:
			if err := el.variantsEquivalent(rng, impl.(typesystem.VariantID), want, w); err != nil {
				return err
			}
		case typesystem.SynonymID:
			if err := el.synonymsEquivalent(rng, impl.(typesystem.SynonymID), want, w); err != nil {
				return err
			}
		}
	}
	return nil
}

// sharedParams instantiates two parameter lists with one set of rigid
// variables.
func (el *Elaborator) sharedParams(p1, p2 []typesystem.BoundID) (typesystem.Subst, typesystem.Subst) {
	s1 := typesystem.Subst{Types: map[typesystem.BoundID]typesystem.Type{}, Rows: map[typesystem.BoundRowID]typesystem.Row{}}
	s2 := typesystem.Subst{Types: map[typesystem.BoundID]typesystem.Type{}, Rows: map[typesystem.BoundRowID]typesystem.Row{}}
	for i := range p1 {
		v, _ := el.ctx.FreshMustBeBound("", typesystem.UniversalKind{})
		s1.Types[p1[i]] = v
		s2.Types[p2[i]] = v
	}
	return s1, s2
}

func (el *Elaborator) variantsEquivalent(rng token.Range, vid1, vid2 typesystem.VariantID, w witnessMap) diagnostics.Error {
	def1 := el.ctx.Variant(vid1)
	def2 := el.ctx.Variant(vid2)
	fail := func() diagnostics.Error {
		return &diagnostics.NotASubtypeVariant{Loc: diagnostics.At(rng), Name: def2.Name}
	}
	if len(def1.Params) != len(def2.Params) || len(def1.Ctors) != len(def2.Ctors) {
		return fail()
	}
	s1, s2 := el.sharedParams(def1.Params, def2.Params)
	for _, c2 := range def2.Ctors {
		c1, ok := def1.Ctor(c2.Name)
		if !ok || len(c1.Params) != len(c2.Params) {
			return fail()
		}
		for i := range c1.Params {
			t1 := s1.Apply(c1.Params[i])
			t2 := s2.Apply(typesystem.ReplaceTypeIDs(c2.Params[i], w.apply))
			if !el.ctx.TypesEqual(t1, t2) {
				return fail()
			}
		}
	}
	return nil
}

func (el *Elaborator) synonymsEquivalent(rng token.Range, sid1, sid2 typesystem.SynonymID, w witnessMap) diagnostics.Error {
	def1 := el.ctx.Synonym(sid1)
	def2 := el.ctx.Synonym(sid2)
	if len(def1.Params) != len(def2.Params) {
		return &diagnostics.NotASubtypeSynonym{Loc: diagnostics.At(rng), Name: def2.Name}
	}
	s1, s2 := el.sharedParams(def1.Params, def2.Params)
	t1 := s1.Apply(def1.Body)
	t2 := s2.Apply(typesystem.ReplaceTypeIDs(def2.Body, w.apply))
	if !el.ctx.TypesEqual(t1, t2) {
		return &diagnostics.NotASubtypeSynonym{Loc: diagnostics.At(rng), Name: def2.Name}
	}
	return nil
}

// subtypeConcreteWithConcrete compares member by member after the witness
// map has been applied to the required record.
func (el *Elaborator) subtypeConcreteWithConcrete(rng token.Range, rec1, rec2 *symbols.SigRecord) diagnostics.Error {
	var failure diagnostics.Error
	rec2.Items(func(item symbols.SigItem) bool {
		switch item.Class {
		case symbols.ValClass:
			impl, ok := rec1.FindVal(item.Name)
			if !ok {
				failure = &diagnostics.MissingRequiredValName{Loc: diagnostics.At(rng), Name: item.Name}
				return false
			}
			if !el.subtypePolyType(impl.Poly, item.Val.Poly) {
				// A failure against a quantified requirement means the
				// implementation could not track the signature's
				// polymorphism; anything else is a plain mismatch.
				if hasQuantifier(item.Val.Poly) {
					failure = &diagnostics.PolymorphicContradiction{Loc: diagnostics.At(rng), Name: item.Name}
				} else {
					failure = diagnostics.NewNotASubtype(el.ctx, rng, item.Name, impl.Poly, item.Val.Poly)
				}
			}

		case symbols.ModuleClass:
			impl, ok := rec1.FindModule(item.Name)
			if !ok {
				failure = &diagnostics.MissingRequiredModuleName{Loc: diagnostics.At(rng), Name: item.Name}
				return false
			}
			failure = el.subtypeSignature(rng, impl.Sig, item.Module.Sig)

		case symbols.SignatureClass:
			impl, ok := rec1.FindSignature(item.Name)
			if !ok {
				failure = &diagnostics.MissingRequiredSignatureName{Loc: diagnostics.At(rng), Name: item.Name}
				return false
			}
			// Signature members must be equivalent, not merely included.
			failure = el.signaturesEquivalent(rng, impl.Abs, item.Sig.Abs)
		}
		return failure == nil
	})
	return failure
}

// hasQuantifier reports whether the polytype carries any bound leaf.
func hasQuantifier(t typesystem.Type) bool {
	switch t := t.(type) {
	case typesystem.BoundRef:
		return true
	case typesystem.Product:
		for _, sub := range t.Types {
			if hasQuantifier(sub) {
				return true
			}
		}
	case typesystem.Record:
		for _, sub := range t.Fields {
			if hasQuantifier(sub) {
				return true
			}
		}
	case typesystem.Data:
		for _, sub := range t.Args {
			if hasQuantifier(sub) {
				return true
			}
		}
	case typesystem.Func:
		return domainHasQuantifier(t.Dom) || hasQuantifier(t.Cod)
	case typesystem.EffFunc:
		return domainHasQuantifier(t.Dom) || hasQuantifier(t.Eff.Receive) || hasQuantifier(t.Cod)
	case typesystem.Pid:
		return hasQuantifier(t.Receive)
	case typesystem.Format:
		return hasQuantifier(t.Arg)
	case typesystem.Frozen:
		return domainHasQuantifier(t.Rest) || hasQuantifier(t.Receive) || hasQuantifier(t.Return)
	}
	return false
}

func domainHasQuantifier(d *typesystem.Domain) bool {
	for _, sub := range d.Ordered {
		if hasQuantifier(sub) {
			return true
		}
	}
	for _, sub := range d.Mandatory {
		if hasQuantifier(sub) {
			return true
		}
	}
	if _, ok := d.Optional.(typesystem.BoundRowRef); ok {
		return true
	}
	if fixed, ok := d.Optional.(typesystem.FixedRow); ok {
		for _, sub := range fixed.Fields {
			if hasQuantifier(sub) {
				return true
			}
		}
	}
	return false
}

// subtypePolyType holds when the left polytype is at least as general as
// the right one: the right side is frozen into rigid variables, the left
// instantiated flexibly, and the two unified. Rigid variables only unify
// with themselves, which also forces consistent instantiation of repeated
// quantifiers.
func (el *Elaborator) subtypePolyType(p1, p2 typesystem.Type) bool {
	rigid := el.ctx.InstantiateRigid(p2)
	flexible := el.ctx.Instantiate(subtypeLevel, p1)
	return el.ctx.Unify(flexible, rigid).OK()
}

// subtypeLevel keeps throwaway instantiations above any level a caller
// generalizes at.
const subtypeLevel = 1 << 28

func (el *Elaborator) subtypeSignature(rng token.Range, s1, s2 symbols.Signature) diagnostics.Error {
	f1, okF1 := s1.(*symbols.FunctorSig)
	f2, okF2 := s2.(*symbols.FunctorSig)
	if okF1 != okF2 {
		return &diagnostics.NotAStructureSignature{Loc: diagnostics.At(rng)}
	}
	if !okF1 {
		rec1, rerr := recordOf(s1, rng)
		if rerr != nil {
			return rerr
		}
		_, err := el.subtypeAbstract(rng, rec1, symbols.Abstracted{Opaques: symbols.NewOpaqueSet(), Sig: s2})
		return err
	}

	// Functor subtyping: contravariant domain, covariant codomain under
	// the witness map the domain comparison produced.
	dom2, rerr := recordOf(f2.Domain, rng)
	if rerr != nil {
		return rerr
	}
	w, err := el.subtypeAbstract(rng, dom2, symbols.Abstracted{Opaques: f1.Opaques, Sig: f1.Domain})
	if err != nil {
		return err
	}
	cod1 := symbols.SubstSignature(f1.Codomain.Sig, w.apply)
	cod1Rec, rerr := recordOf(cod1, rng)
	if rerr != nil {
		return rerr
	}
	_, err = el.subtypeAbstract(rng, cod1Rec, f2.Codomain)
	return err
}

func (el *Elaborator) signaturesEquivalent(rng token.Range, a1, a2 symbols.Abstracted) diagnostics.Error {
	rec1, rerr := recordOf(a1.Sig, rng)
	if rerr == nil {
		if _, err := el.subtypeAbstract(rng, rec1, a2); err != nil {
			return err
		}
	}
	rec2, rerr2 := recordOf(a2.Sig, rng)
	if rerr2 == nil {
		if _, err := el.subtypeAbstract(rng, rec2, a1); err != nil {
			return err
		}
	}
	if rerr != nil || rerr2 != nil {
		return el.subtypeSignature(rng, a1.Sig, a2.Sig)
	}
	return nil
}
