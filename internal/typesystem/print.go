package typesystem

import (
	"fmt"
	"sort"
	"strings"
)

// printer assigns stable display names to the variables it encounters, in
// first-seen order, so one diagnostic renders consistently.
type printer struct {
	ctx        *Context
	varNames   map[TypeVarID]string
	boundNames map[BoundID]string
	rowNames   map[RowVarID]string
	boundRows  map[BoundRowID]string
	next       int
	nextRow    int
}

// TypeString renders a type for diagnostics. Free variables print as 'a,
// 'b, ... and rigid variables keep their source names.
func (ctx *Context) TypeString(t Type) string {
	p := &printer{
		ctx:        ctx,
		varNames:   map[TypeVarID]string{},
		boundNames: map[BoundID]string{},
		rowNames:   map[RowVarID]string{},
		boundRows:  map[BoundRowID]string{},
	}
	return p.typ(t)
}

func (p *printer) fresh() string {
	name := "'" + varName(p.next)
	p.next++
	return name
}

func (p *printer) freshRow() string {
	name := "?$" + varName(p.nextRow)
	p.nextRow++
	return name
}

// varName yields a, b, ..., z, a1, b1, ...
func varName(n int) string {
	letter := string(rune('a' + n%26))
	if n < 26 {
		return letter
	}
	return fmt.Sprintf("%s%d", letter, n/26)
}

func (p *printer) typ(t Type) string {
	t = p.ctx.Resolve(t)
	switch t := t.(type) {
	case Base:
		return t.Tag.String()
	case VarRef:
		cell := p.ctx.cell(t.ID)
		if cell.state == stateMustBeBound && cell.name != "" {
			return "'" + cell.name
		}
		name, ok := p.varNames[t.ID]
		if !ok {
			name = p.fresh()
			p.varNames[t.ID] = name
		}
		return name
	case BoundRef:
		name, ok := p.boundNames[t.ID]
		if !ok {
			name = p.fresh()
			p.boundNames[t.ID] = name
		}
		return name
	case Product:
		parts := make([]string, len(t.Types))
		for i, ty := range t.Types {
			parts[i] = p.atom(ty)
		}
		return strings.Join(parts, " * ")
	case Record:
		return "{" + p.fields(t.Fields) + "}"
	case Data:
		name := p.dataName(t.ID)
		if len(t.Args) == 0 {
			return name
		}
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = p.typ(a)
		}
		return name + "<" + strings.Join(args, ", ") + ">"
	case Func:
		return "fun(" + p.domain(t.Dom) + ") -> " + p.typ(t.Cod)
	case EffFunc:
		return "fun(" + p.domain(t.Dom) + ") -[" + p.typ(t.Eff.Receive) + "]-> " + p.typ(t.Cod)
	case Pid:
		return "pid<" + p.typ(t.Receive) + ">"
	case Format:
		return "format<" + p.typ(t.Arg) + ">"
	case Frozen:
		return "frozen<(" + p.domain(t.Rest) + ") -[" + p.typ(t.Receive) + "]-> " + p.typ(t.Return) + ">"
	}
	return "?"
}

// atom parenthesizes types that would be ambiguous inside a product.
func (p *printer) atom(t Type) string {
	s := p.typ(t)
	switch p.ctx.Resolve(t).(type) {
	case Func, EffFunc, Product:
		return "(" + s + ")"
	}
	return s
}

func (p *printer) dataName(id TypeID) string {
	var path []string
	var name string
	switch id := id.(type) {
	case SynonymID:
		def := p.ctx.Synonym(id)
		path, name = def.Path, def.Name
	case VariantID:
		def := p.ctx.Variant(id)
		path, name = def.Path, def.Name
	case OpaqueID:
		def := p.ctx.Opaque(id)
		path, name = def.Path, def.Name
	}
	if len(path) == 0 {
		return name
	}
	return strings.Join(path, ".") + "." + name
}

func (p *printer) fields(fields map[string]Type) string {
	labels := make([]string, 0, len(fields))
	for l := range fields {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l + " : " + p.typ(fields[l])
	}
	return strings.Join(parts, ", ")
}

func (p *printer) domain(d *Domain) string {
	var parts []string
	for _, ty := range d.Ordered {
		parts = append(parts, p.typ(ty))
	}
	labels := make([]string, 0, len(d.Mandatory))
	for l := range d.Mandatory {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		parts = append(parts, "-"+l+" : "+p.typ(d.Mandatory[l]))
	}
	if row := p.row(d.Optional); row != "" {
		parts = append(parts, row)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) row(r Row) string {
	r = p.ctx.ResolveRow(r)
	switch r := r.(type) {
	case FixedRow:
		if len(r.Fields) == 0 {
			return ""
		}
		labels := make([]string, 0, len(r.Fields))
		for l := range r.Fields {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		parts := make([]string, len(labels))
		for i, l := range labels {
			parts[i] = "?" + l + " : " + p.typ(r.Fields[l])
		}
		return strings.Join(parts, ", ")
	case RowVarRef:
		cell := p.ctx.rowCell(r.ID)
		if cell.state == stateMustBeBound && cell.name != "" {
			return "?$" + cell.name
		}
		name, ok := p.rowNames[r.ID]
		if !ok {
			name = p.freshRow()
			p.rowNames[r.ID] = name
		}
		return name
	case BoundRowRef:
		name, ok := p.boundRows[r.ID]
		if !ok {
			name = p.freshRow()
			p.boundRows[r.ID] = name
		}
		return name
	}
	return ""
}
