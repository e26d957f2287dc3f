package typesystem

type instantiator struct {
	ctx      *Context
	level    int
	rigid    bool
	typeVars map[BoundID]VarRef
	rowVars  map[BoundRowID]RowVarRef
}

// Instantiate replaces every bound leaf of the polytype with a fresh free
// variable at the given level, copying the registered kinds. The same bound
// ID always maps to the same fresh variable within one call.
func (ctx *Context) Instantiate(lev int, pty Type) Type {
	ins := &instantiator{
		ctx:      ctx,
		level:    lev,
		typeVars: map[BoundID]VarRef{},
		rowVars:  map[BoundRowID]RowVarRef{},
	}
	return ins.instType(pty)
}

// InstantiateAll instantiates several polytypes sharing one bound-ID scope,
// so that bound IDs common to them map to the same fresh variables.
func (ctx *Context) InstantiateAll(lev int, ptys []Type) []Type {
	ins := &instantiator{
		ctx:      ctx,
		level:    lev,
		typeVars: map[BoundID]VarRef{},
		rowVars:  map[BoundRowID]RowVarRef{},
	}
	out := make([]Type, len(ptys))
	for i, pty := range ptys {
		out[i] = ins.instType(pty)
	}
	return out
}

// InstantiateRigid replaces every bound leaf with a fresh rigid variable.
// Signature matching instantiates the more general side flexibly and the
// required side rigidly before unifying.
func (ctx *Context) InstantiateRigid(pty Type) Type {
	ins := &instantiator{
		ctx:      ctx,
		typeVars: map[BoundID]VarRef{},
		rowVars:  map[BoundRowID]RowVarRef{},
		rigid:    true,
	}
	return ins.instType(pty)
}

func (ins *instantiator) instType(t Type) Type {
	t = ins.ctx.Resolve(t)
	switch t := t.(type) {
	case BoundRef:
		if v, ok := ins.typeVars[t.ID]; ok {
			return v
		}
		kind := ins.instKind(ins.ctx.BoundKind(t.ID))
		var v VarRef
		if ins.rigid {
			v, _ = ins.ctx.FreshMustBeBound("", kind)
		} else {
			v = ins.ctx.FreshVarWithKind(ins.level, kind)
		}
		ins.typeVars[t.ID] = v
		return v
	case Product:
		return Product{Types: ins.instAll(t.Types)}
	case Record:
		return Record{Fields: ins.instFields(t.Fields)}
	case Data:
		return Data{ID: t.ID, Args: ins.instAll(t.Args)}
	case Func:
		return Func{Dom: ins.instDomain(t.Dom), Cod: ins.instType(t.Cod)}
	case EffFunc:
		return EffFunc{
			Dom: ins.instDomain(t.Dom),
			Eff: &Effect{Receive: ins.instType(t.Eff.Receive)},
			Cod: ins.instType(t.Cod),
		}
	case Pid:
		return Pid{Receive: ins.instType(t.Receive)}
	case Format:
		return Format{Arg: ins.instType(t.Arg)}
	case Frozen:
		return Frozen{
			Rest:    ins.instDomain(t.Rest),
			Receive: ins.instType(t.Receive),
			Return:  ins.instType(t.Return),
		}
	default:
		return t
	}
}

func (ins *instantiator) instKind(k BaseKind) BaseKind {
	rec, ok := k.(RecordKind)
	if !ok {
		return UniversalKind{}
	}
	return RecordKind{Fields: ins.instFields(rec.Fields)}
}

func (ins *instantiator) instAll(ts []Type) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = ins.instType(t)
	}
	return out
}

func (ins *instantiator) instFields(fields map[string]Type) map[string]Type {
	out := make(map[string]Type, len(fields))
	for l, t := range fields {
		out[l] = ins.instType(t)
	}
	return out
}

func (ins *instantiator) instDomain(d *Domain) *Domain {
	return &Domain{
		Ordered:   ins.instAll(d.Ordered),
		Mandatory: ins.instFields(d.Mandatory),
		Optional:  ins.instRow(d.Optional),
	}
}

func (ins *instantiator) instRow(r Row) Row {
	r = ins.ctx.ResolveRow(r)
	switch r := r.(type) {
	case BoundRowRef:
		if v, ok := ins.rowVars[r.ID]; ok {
			return v
		}
		kind := ins.instFields(ins.ctx.BoundRowKind(r.ID))
		var v RowVarRef
		if ins.rigid {
			v, _ = ins.ctx.FreshMustBeBoundRow("", kind)
		} else {
			v = ins.ctx.FreshRowVar(ins.level, kind)
		}
		ins.rowVars[r.ID] = v
		return v
	case FixedRow:
		return FixedRow{Fields: ins.instFields(r.Fields)}
	default:
		return r
	}
}
