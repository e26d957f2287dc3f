package typesystem

// occursWalker performs the combined occurs check and level adjustment.
// The walk must visit the whole term even after the target has been found,
// because every free variable under the term needs its level lowered to the
// receiver's.
type occursWalker struct {
	ctx       *Context
	targetVar TypeVarID
	targetRow RowVarID
	forRow    bool
	level     int
	found     bool
	seenVars  map[TypeVarID]bool
	seenRows  map[RowVarID]bool
}

// occursLower reports whether the free variable id occurs in term, lowering
// the level of every free type and row variable under term on the way.
func (ctx *Context) occursLower(id TypeVarID, level int, term Type) bool {
	w := &occursWalker{
		ctx:       ctx,
		targetVar: id,
		level:     level,
		seenVars:  map[TypeVarID]bool{},
		seenRows:  map[RowVarID]bool{},
	}
	w.walkType(term)
	return w.found
}

// occursLowerRow is the row analog of occursLower.
func (ctx *Context) occursLowerRow(id RowVarID, level int, row Row) bool {
	w := &occursWalker{
		ctx:      ctx,
		targetRow: id,
		forRow:   true,
		level:    level,
		seenVars: map[TypeVarID]bool{},
		seenRows: map[RowVarID]bool{},
	}
	w.walkRow(row)
	return w.found
}

func (w *occursWalker) walkType(t Type) {
	t = w.ctx.Resolve(t)
	switch t := t.(type) {
	case VarRef:
		if w.seenVars[t.ID] {
			return
		}
		w.seenVars[t.ID] = true
		cell := w.ctx.cell(t.ID)
		if cell.state != stateFree {
			return
		}
		if !w.forRow && t.ID == w.targetVar {
			w.found = true
		}
		if cell.level > w.level {
			cell.level = w.level
		}
		if kind, ok := cell.kind.(RecordKind); ok {
			for _, fty := range kind.Fields {
				w.walkType(fty)
			}
		}
	case Product:
		for _, ty := range t.Types {
			w.walkType(ty)
		}
	case Record:
		for _, ty := range t.Fields {
			w.walkType(ty)
		}
	case Data:
		for _, ty := range t.Args {
			w.walkType(ty)
		}
	case Func:
		w.walkDomain(t.Dom)
		w.walkType(t.Cod)
	case EffFunc:
		w.walkDomain(t.Dom)
		w.walkType(t.Eff.Receive)
		w.walkType(t.Cod)
	case Pid:
		w.walkType(t.Receive)
	case Format:
		w.walkType(t.Arg)
	case Frozen:
		w.walkDomain(t.Rest)
		w.walkType(t.Receive)
		w.walkType(t.Return)
	}
}

func (w *occursWalker) walkDomain(d *Domain) {
	for _, ty := range d.Ordered {
		w.walkType(ty)
	}
	for _, ty := range d.Mandatory {
		w.walkType(ty)
	}
	w.walkRow(d.Optional)
}

func (w *occursWalker) walkRow(r Row) {
	r = w.ctx.ResolveRow(r)
	switch r := r.(type) {
	case RowVarRef:
		if w.seenRows[r.ID] {
			return
		}
		w.seenRows[r.ID] = true
		cell := w.ctx.rowCell(r.ID)
		if cell.state != stateFree {
			return
		}
		if w.forRow && r.ID == w.targetRow {
			w.found = true
		}
		if cell.level > w.level {
			cell.level = w.level
		}
		for _, fty := range cell.kind {
			w.walkType(fty)
		}
	case FixedRow:
		for _, ty := range r.Fields {
			w.walkType(ty)
		}
	}
}
