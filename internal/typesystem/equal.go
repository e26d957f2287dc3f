package typesystem

// TypesEqual reports structural equality of two types modulo link
// resolution and synonym expansion. Variable references are equal only when
// they resolve to the same cell; bound leaves only when the IDs coincide.
func (ctx *Context) TypesEqual(t1, t2 Type) bool {
	t1 = ctx.Resolve(t1)
	t2 = ctx.Resolve(t2)

	if d, ok := t1.(Data); ok {
		if sid, ok := d.ID.(SynonymID); ok {
			return ctx.TypesEqual(ctx.ExpandSynonym(sid, d.Args), t2)
		}
	}
	if d, ok := t2.(Data); ok {
		if sid, ok := d.ID.(SynonymID); ok {
			return ctx.TypesEqual(t1, ctx.ExpandSynonym(sid, d.Args))
		}
	}

	switch a := t1.(type) {
	case Base:
		b, ok := t2.(Base)
		return ok && a.Tag == b.Tag
	case VarRef:
		b, ok := t2.(VarRef)
		return ok && a.ID == b.ID
	case BoundRef:
		b, ok := t2.(BoundRef)
		return ok && a.ID == b.ID
	case Product:
		b, ok := t2.(Product)
		if !ok || len(a.Types) != len(b.Types) {
			return false
		}
		for i := range a.Types {
			if !ctx.TypesEqual(a.Types[i], b.Types[i]) {
				return false
			}
		}
		return true
	case Record:
		b, ok := t2.(Record)
		return ok && ctx.fieldsEqual(a.Fields, b.Fields)
	case Data:
		b, ok := t2.(Data)
		if !ok || a.ID != b.ID || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !ctx.TypesEqual(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case Func:
		b, ok := t2.(Func)
		return ok && ctx.domainsEqual(a.Dom, b.Dom) && ctx.TypesEqual(a.Cod, b.Cod)
	case EffFunc:
		b, ok := t2.(EffFunc)
		return ok && ctx.domainsEqual(a.Dom, b.Dom) &&
			ctx.TypesEqual(a.Eff.Receive, b.Eff.Receive) &&
			ctx.TypesEqual(a.Cod, b.Cod)
	case Pid:
		b, ok := t2.(Pid)
		return ok && ctx.TypesEqual(a.Receive, b.Receive)
	case Format:
		b, ok := t2.(Format)
		return ok && ctx.TypesEqual(a.Arg, b.Arg)
	case Frozen:
		b, ok := t2.(Frozen)
		return ok && ctx.domainsEqual(a.Rest, b.Rest) &&
			ctx.TypesEqual(a.Receive, b.Receive) &&
			ctx.TypesEqual(a.Return, b.Return)
	}
	return false
}

func (ctx *Context) fieldsEqual(m1, m2 map[string]Type) bool {
	if len(m1) != len(m2) {
		return false
	}
	for label, ty1 := range m1 {
		ty2, ok := m2[label]
		if !ok || !ctx.TypesEqual(ty1, ty2) {
			return false
		}
	}
	return true
}

func (ctx *Context) domainsEqual(d1, d2 *Domain) bool {
	if len(d1.Ordered) != len(d2.Ordered) {
		return false
	}
	for i := range d1.Ordered {
		if !ctx.TypesEqual(d1.Ordered[i], d2.Ordered[i]) {
			return false
		}
	}
	return ctx.fieldsEqual(d1.Mandatory, d2.Mandatory) &&
		ctx.RowsEqual(d1.Optional, d2.Optional)
}

// RowsEqual is the row analog of TypesEqual.
func (ctx *Context) RowsEqual(r1, r2 Row) bool {
	r1 = ctx.ResolveRow(r1)
	r2 = ctx.ResolveRow(r2)
	switch a := r1.(type) {
	case FixedRow:
		b, ok := r2.(FixedRow)
		return ok && ctx.fieldsEqual(a.Fields, b.Fields)
	case RowVarRef:
		b, ok := r2.(RowVarRef)
		return ok && a.ID == b.ID
	case BoundRowRef:
		b, ok := r2.(BoundRowRef)
		return ok && a.ID == b.ID
	}
	return false
}
