package typesystem

// CyclicParameterError reports that generalization found a type variable
// whose record kind depends on the variable itself through nested kinds.
type CyclicParameterError struct {
	Var TypeVarID
}

func (e *CyclicParameterError) Error() string {
	return "cyclic dependency among generalized type parameters"
}

type generalizer struct {
	ctx        *Context
	level      int
	varToBound map[TypeVarID]BoundID
	rowToBound map[RowVarID]BoundRowID
	visiting   map[TypeVarID]bool
	visitingRows map[RowVarID]bool
}

// Generalize rewrites every free type and row variable of t with level
// greater than lev into a fresh bound ID, lifting its kind into the bound
// stores. Variables at or below lev are retained as mono leaves.
func (ctx *Context) Generalize(lev int, t Type) (Type, error) {
	g := &generalizer{
		ctx:        ctx,
		level:      lev,
		varToBound: map[TypeVarID]BoundID{},
		rowToBound: map[RowVarID]BoundRowID{},
		visiting:   map[TypeVarID]bool{},
		visitingRows: map[RowVarID]bool{},
	}
	return g.genType(t)
}

func (g *generalizer) genType(t Type) (Type, error) {
	t = g.ctx.Resolve(t)
	switch t := t.(type) {
	case VarRef:
		cell := g.ctx.cell(t.ID)
		if cell.state == stateMustBeBound {
			return BoundRef{ID: cell.bound}, nil
		}
		if cell.level <= g.level {
			return t, nil
		}
		if bid, ok := g.varToBound[t.ID]; ok {
			return BoundRef{ID: bid}, nil
		}
		if g.visiting[t.ID] {
			return nil, &CyclicParameterError{Var: t.ID}
		}
		g.visiting[t.ID] = true
		kind, err := g.genKind(cell.kind)
		if err != nil {
			return nil, err
		}
		delete(g.visiting, t.ID)
		bid := g.ctx.FreshBoundID(kind)
		g.varToBound[t.ID] = bid
		return BoundRef{ID: bid}, nil

	case Product:
		ts, err := g.genAll(t.Types)
		return Product{Types: ts}, err
	case Record:
		fs, err := g.genFields(t.Fields)
		return Record{Fields: fs}, err
	case Data:
		args, err := g.genAll(t.Args)
		return Data{ID: t.ID, Args: args}, err
	case Func:
		dom, err := g.genDomain(t.Dom)
		if err != nil {
			return nil, err
		}
		cod, err := g.genType(t.Cod)
		return Func{Dom: dom, Cod: cod}, err
	case EffFunc:
		dom, err := g.genDomain(t.Dom)
		if err != nil {
			return nil, err
		}
		recv, err := g.genType(t.Eff.Receive)
		if err != nil {
			return nil, err
		}
		cod, err := g.genType(t.Cod)
		return EffFunc{Dom: dom, Eff: &Effect{Receive: recv}, Cod: cod}, err
	case Pid:
		recv, err := g.genType(t.Receive)
		return Pid{Receive: recv}, err
	case Format:
		arg, err := g.genType(t.Arg)
		return Format{Arg: arg}, err
	case Frozen:
		rest, err := g.genDomain(t.Rest)
		if err != nil {
			return nil, err
		}
		recv, err := g.genType(t.Receive)
		if err != nil {
			return nil, err
		}
		ret, err := g.genType(t.Return)
		return Frozen{Rest: rest, Receive: recv, Return: ret}, err
	case Base:
		return t, nil
	case BoundRef:
		panic("typesystem: generalizing a polytype")
	}
	return t, nil
}

func (g *generalizer) genKind(k BaseKind) (BaseKind, error) {
	rec, ok := k.(RecordKind)
	if !ok {
		return UniversalKind{}, nil
	}
	fields, err := g.genFields(rec.Fields)
	if err != nil {
		return nil, err
	}
	return RecordKind{Fields: fields}, nil
}

func (g *generalizer) genAll(ts []Type) ([]Type, error) {
	out := make([]Type, len(ts))
	for i, t := range ts {
		gt, err := g.genType(t)
		if err != nil {
			return nil, err
		}
		out[i] = gt
	}
	return out, nil
}

func (g *generalizer) genFields(fields map[string]Type) (map[string]Type, error) {
	out := make(map[string]Type, len(fields))
	for l, t := range fields {
		gt, err := g.genType(t)
		if err != nil {
			return nil, err
		}
		out[l] = gt
	}
	return out, nil
}

func (g *generalizer) genDomain(d *Domain) (*Domain, error) {
	ordered, err := g.genAll(d.Ordered)
	if err != nil {
		return nil, err
	}
	mandatory, err := g.genFields(d.Mandatory)
	if err != nil {
		return nil, err
	}
	optional, err := g.genRow(d.Optional)
	if err != nil {
		return nil, err
	}
	return &Domain{Ordered: ordered, Mandatory: mandatory, Optional: optional}, nil
}

func (g *generalizer) genRow(r Row) (Row, error) {
	r = g.ctx.ResolveRow(r)
	switch r := r.(type) {
	case FixedRow:
		fields, err := g.genFields(r.Fields)
		if err != nil {
			return nil, err
		}
		return FixedRow{Fields: fields}, nil
	case RowVarRef:
		cell := g.ctx.rowCell(r.ID)
		if cell.state == stateMustBeBound {
			return BoundRowRef{ID: cell.bound}, nil
		}
		if cell.level <= g.level {
			return r, nil
		}
		if brid, ok := g.rowToBound[r.ID]; ok {
			return BoundRowRef{ID: brid}, nil
		}
		if g.visitingRows[r.ID] {
			return nil, &CyclicParameterError{}
		}
		g.visitingRows[r.ID] = true
		kind, err := g.genFields(cell.kind)
		if err != nil {
			return nil, err
		}
		delete(g.visitingRows, r.ID)
		brid := g.ctx.FreshBoundRowID(kind)
		g.rowToBound[r.ID] = brid
		return BoundRowRef{ID: brid}, nil
	case BoundRowRef:
		panic("typesystem: generalizing a polytype row")
	}
	return r, nil
}
