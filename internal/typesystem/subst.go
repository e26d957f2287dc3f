package typesystem

// Subst maps the quantifiers of a polytype to replacement types and rows.
type Subst struct {
	Types map[BoundID]Type
	Rows  map[BoundRowID]Row
}

// Apply replaces every Bound leaf present in the substitution, leaving
// other leaves untouched.
func (s Subst) Apply(t Type) Type {
	switch t := t.(type) {
	case BoundRef:
		if rep, ok := s.Types[t.ID]; ok {
			return rep
		}
		return t
	case Product:
		return Product{Types: s.applyAll(t.Types)}
	case Record:
		return Record{Fields: s.applyFields(t.Fields)}
	case Data:
		return Data{ID: t.ID, Args: s.applyAll(t.Args)}
	case Func:
		return Func{Dom: s.applyDomain(t.Dom), Cod: s.Apply(t.Cod)}
	case EffFunc:
		return EffFunc{Dom: s.applyDomain(t.Dom), Eff: &Effect{Receive: s.Apply(t.Eff.Receive)}, Cod: s.Apply(t.Cod)}
	case Pid:
		return Pid{Receive: s.Apply(t.Receive)}
	case Format:
		return Format{Arg: s.Apply(t.Arg)}
	case Frozen:
		return Frozen{Rest: s.applyDomain(t.Rest), Receive: s.Apply(t.Receive), Return: s.Apply(t.Return)}
	default:
		return t
	}
}

// ApplyRow replaces bound rows present in the substitution.
func (s Subst) ApplyRow(r Row) Row {
	switch r := r.(type) {
	case BoundRowRef:
		if rep, ok := s.Rows[r.ID]; ok {
			return rep
		}
		return r
	case FixedRow:
		return FixedRow{Fields: s.applyFields(r.Fields)}
	default:
		return r
	}
}

func (s Subst) applyAll(ts []Type) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = s.Apply(t)
	}
	return out
}

func (s Subst) applyFields(fields map[string]Type) map[string]Type {
	out := make(map[string]Type, len(fields))
	for l, t := range fields {
		out[l] = s.Apply(t)
	}
	return out
}

func (s Subst) applyDomain(d *Domain) *Domain {
	return &Domain{
		Ordered:   s.applyAll(d.Ordered),
		Mandatory: s.applyFields(d.Mandatory),
		Optional:  s.ApplyRow(d.Optional),
	}
}

// ExpandSynonym substitutes args for the synonym's parameters in its body.
// The caller checks arity beforehand.
func (ctx *Context) ExpandSynonym(id SynonymID, args []Type) Type {
	def := ctx.Synonym(id)
	s := Subst{Types: make(map[BoundID]Type, len(def.Params)), Rows: map[BoundRowID]Row{}}
	for i, p := range def.Params {
		s.Types[p] = args[i]
	}
	return s.Apply(def.Body)
}

// CtorParamTypes instantiates the parameter types of a constructor with the
// given variant arguments.
func (ctx *Context) CtorParamTypes(variant VariantID, ctor CtorEntry, args []Type) []Type {
	def := ctx.Variant(variant)
	s := Subst{Types: make(map[BoundID]Type, len(def.Params)), Rows: map[BoundRowID]Row{}}
	for i, p := range def.Params {
		s.Types[p] = args[i]
	}
	out := make([]Type, len(ctor.Params))
	for i, p := range ctor.Params {
		out[i] = s.Apply(p)
	}
	return out
}

// ReplaceTypeIDs rewrites every Data node's ID through f, rebuilding the
// term. Signature matching uses this to apply witness maps.
func ReplaceTypeIDs(t Type, f func(TypeID) TypeID) Type {
	switch t := t.(type) {
	case Product:
		return Product{Types: replaceAll(t.Types, f)}
	case Record:
		return Record{Fields: replaceFields(t.Fields, f)}
	case Data:
		return Data{ID: f(t.ID), Args: replaceAll(t.Args, f)}
	case Func:
		return Func{Dom: replaceDomain(t.Dom, f), Cod: ReplaceTypeIDs(t.Cod, f)}
	case EffFunc:
		return EffFunc{
			Dom: replaceDomain(t.Dom, f),
			Eff: &Effect{Receive: ReplaceTypeIDs(t.Eff.Receive, f)},
			Cod: ReplaceTypeIDs(t.Cod, f),
		}
	case Pid:
		return Pid{Receive: ReplaceTypeIDs(t.Receive, f)}
	case Format:
		return Format{Arg: ReplaceTypeIDs(t.Arg, f)}
	case Frozen:
		return Frozen{
			Rest:    replaceDomain(t.Rest, f),
			Receive: ReplaceTypeIDs(t.Receive, f),
			Return:  ReplaceTypeIDs(t.Return, f),
		}
	default:
		return t
	}
}

// ReplaceRowTypeIDs rewrites Data IDs inside a row.
func ReplaceRowTypeIDs(r Row, f func(TypeID) TypeID) Row {
	if fixed, ok := r.(FixedRow); ok {
		return FixedRow{Fields: replaceFields(fixed.Fields, f)}
	}
	return r
}

func replaceAll(ts []Type, f func(TypeID) TypeID) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = ReplaceTypeIDs(t, f)
	}
	return out
}

func replaceFields(fields map[string]Type, f func(TypeID) TypeID) map[string]Type {
	out := make(map[string]Type, len(fields))
	for l, t := range fields {
		out[l] = ReplaceTypeIDs(t, f)
	}
	return out
}

func replaceDomain(d *Domain, f func(TypeID) TypeID) *Domain {
	return &Domain{
		Ordered:   replaceAll(d.Ordered, f),
		Mandatory: replaceFields(d.Mandatory, f),
		Optional:  ReplaceRowTypeIDs(d.Optional, f),
	}
}
