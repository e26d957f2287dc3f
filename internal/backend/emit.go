// Package backend serializes elaborated IR to disk, one file per module
// space, in a stable textual form the target code generator consumes.
// Files are written to a uuid-suffixed temp name and renamed into place so
// an interrupted run never leaves a truncated output.
package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/sester-lang/sester/internal/config"
	"github.com/sester-lang/sester/internal/ir"
)

// Emit writes the bindings of one module space below outDir. The file name
// is derived from the space by replacing projection dots.
func Emit(outDir, space string, bindings []ir.Binding) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	// Nested module bindings carry their own spaces; group per space so
	// each emitted module lands in its own file.
	groups := map[string][]ir.Binding{}
	var order []string
	for _, b := range bindings {
		if _, ok := groups[b.Name.Space]; !ok {
			order = append(order, b.Name.Space)
		}
		groups[b.Name.Space] = append(groups[b.Name.Space], b)
	}
	if len(order) == 0 {
		order = append(order, space)
	}

	var files []string
	for _, sp := range order {
		path := filepath.Join(outDir, FileNameForSpace(sp))
		if err := writeAtomically(path, renderModule(sp, groups[sp])); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

// FileNameForSpace derives the output file name from a module path.
func FileNameForSpace(space string) string {
	return strings.ReplaceAll(space, ".", "_") + config.OutputFileExt
}

func writeAtomically(path, content string) error {
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func renderModule(space string, bindings []ir.Binding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "(module %q\n", space)
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  (define %s\n", renderName(bind.Name))
		writeValue(&b, bind.Value, 4)
		b.WriteString(")\n")
	}
	b.WriteString(")\n")
	return b.String()
}

func renderName(n ir.Name) string {
	switch n := n.(type) {
	case ir.Global:
		return fmt.Sprintf("%s:%s/%d", n.Space, n.Name, n.Arity)
	case ir.Local:
		if n.Hint != "" {
			return fmt.Sprintf("%s_%d", n.Hint, n.Number)
		}
		return fmt.Sprintf("v%d", n.Number)
	}
	return "?"
}

func writeValue(b *strings.Builder, v ir.Value, indent int) {
	pad := strings.Repeat(" ", indent)
	switch v := v.(type) {
	case ir.Var:
		fmt.Fprintf(b, "%s(var %s)\n", pad, renderName(v.Name))
	case ir.BaseConst:
		fmt.Fprintf(b, "%s(const %s)\n", pad, renderConst(v.Const))
	case ir.Apply:
		fmt.Fprintf(b, "%s(apply %s\n", pad, renderName(v.Name))
		for _, a := range v.Ordered {
			writeValue(b, a, indent+2)
		}
		for _, label := range sortedValueKeys(v.Mandatory) {
			fmt.Fprintf(b, "%s  (-%s\n", pad, label)
			writeValue(b, v.Mandatory[label], indent+4)
			fmt.Fprintf(b, "%s  )\n", pad)
		}
		for _, label := range sortedValueKeys(v.Optional) {
			fmt.Fprintf(b, "%s  (?%s\n", pad, label)
			writeValue(b, v.Optional[label], indent+4)
			fmt.Fprintf(b, "%s  )\n", pad)
		}
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.Lambda:
		fmt.Fprintf(b, "%s(lambda", pad)
		if v.Self != nil {
			fmt.Fprintf(b, " self=%s", renderName(*v.Self))
		}
		for _, p := range v.Ordered {
			fmt.Fprintf(b, " %s", renderName(p))
		}
		for _, label := range sortedLocalKeys(v.Mandatory) {
			fmt.Fprintf(b, " -%s=%s", label, renderName(v.Mandatory[label]))
		}
		for _, p := range v.Optional {
			fmt.Fprintf(b, " ?%s=%s", p.Label, renderName(p.Var))
		}
		b.WriteString("\n")
		for _, p := range v.Optional {
			if p.Default != nil {
				fmt.Fprintf(b, "%s  (default ?%s\n", pad, p.Label)
				writeValue(b, p.Default, indent+4)
				fmt.Fprintf(b, "%s  )\n", pad)
			}
		}
		writeValue(b, v.Body, indent+2)
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.LetIn:
		fmt.Fprintf(b, "%s(let %s\n", pad, renderName(v.Var))
		writeValue(b, v.Bound, indent+2)
		writeValue(b, v.Body, indent+2)
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.Case:
		fmt.Fprintf(b, "%s(case\n", pad)
		writeValue(b, v.Scrutinee, indent+2)
		writeBranches(b, v.Branches, indent+2)
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.Receive:
		fmt.Fprintf(b, "%s(receive\n", pad)
		writeBranches(b, v.Branches, indent+2)
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.Constructor:
		fmt.Fprintf(b, "%s(ctor %s/%d\n", pad, v.Name, v.Ctor)
		for _, a := range v.Args {
			writeValue(b, a, indent+2)
		}
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.Tuple:
		fmt.Fprintf(b, "%s(tuple\n", pad)
		for _, e := range v.Elems {
			writeValue(b, e, indent+2)
		}
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.RecordValue:
		fmt.Fprintf(b, "%s(record\n", pad)
		for _, label := range sortedValueKeys(v.Fields) {
			fmt.Fprintf(b, "%s  (%s\n", pad, label)
			writeValue(b, v.Fields[label], indent+4)
			fmt.Fprintf(b, "%s  )\n", pad)
		}
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.RecordAccess:
		fmt.Fprintf(b, "%s(access %s\n", pad, v.Label)
		writeValue(b, v.Target, indent+2)
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.RecordUpdate:
		fmt.Fprintf(b, "%s(update\n", pad)
		writeValue(b, v.Target, indent+2)
		for _, label := range sortedValueKeys(v.Fields) {
			fmt.Fprintf(b, "%s  (%s\n", pad, label)
			writeValue(b, v.Fields[label], indent+4)
			fmt.Fprintf(b, "%s  )\n", pad)
		}
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.ListNil:
		fmt.Fprintf(b, "%s(nil)\n", pad)
	case ir.ListCons:
		fmt.Fprintf(b, "%s(cons\n", pad)
		writeValue(b, v.Head, indent+2)
		writeValue(b, v.Tail, indent+2)
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.Freeze:
		fmt.Fprintf(b, "%s(freeze %s\n", pad, renderName(v.Name))
		writeFreezeArgs(b, v.Args, indent+2)
		fmt.Fprintf(b, "%s)\n", pad)
	case ir.FreezeUpdate:
		fmt.Fprintf(b, "%s(freeze-update\n", pad)
		writeValue(b, v.Target, indent+2)
		writeFreezeArgs(b, v.Args, indent+2)
		fmt.Fprintf(b, "%s)\n", pad)
	default:
		fmt.Fprintf(b, "%s(?)\n", pad)
	}
}

func writeBranches(b *strings.Builder, branches []ir.Branch, indent int) {
	pad := strings.Repeat(" ", indent)
	for _, br := range branches {
		fmt.Fprintf(b, "%s(branch %s\n", pad, renderPattern(br.Pat))
		writeValue(b, br.Body, indent+2)
		fmt.Fprintf(b, "%s)\n", pad)
	}
}

func writeFreezeArgs(b *strings.Builder, args []ir.FreezeArg, indent int) {
	pad := strings.Repeat(" ", indent)
	for _, a := range args {
		if a.Hole {
			fmt.Fprintf(b, "%s(hole)\n", pad)
			continue
		}
		writeValue(b, a.Value, indent)
	}
}

func renderPattern(p ir.Pattern) string {
	switch p := p.(type) {
	case ir.PWildcard:
		return "_"
	case ir.PVar:
		return renderName(p.Var)
	case ir.PConst:
		return renderConst(p.Const)
	case ir.PTuple:
		parts := make([]string, len(p.Elems))
		for i, e := range p.Elems {
			parts[i] = renderPattern(e)
		}
		return "(tuple " + strings.Join(parts, " ") + ")"
	case ir.PListNil:
		return "(nil)"
	case ir.PListCons:
		return "(cons " + renderPattern(p.Head) + " " + renderPattern(p.Tail) + ")"
	case ir.PConstructor:
		parts := make([]string, len(p.Args))
		for i, a := range p.Args {
			parts[i] = renderPattern(a)
		}
		return fmt.Sprintf("(ctor %s/%d %s)", p.Name, p.Ctor, strings.Join(parts, " "))
	}
	return "?"
}

func renderConst(c ir.Const) string {
	switch c := c.(type) {
	case ir.UnitConst:
		return "unit"
	case ir.BoolConst:
		return fmt.Sprintf("%t", c.Value)
	case ir.IntConst:
		return fmt.Sprintf("%d", c.Value)
	case ir.FloatConst:
		return fmt.Sprintf("%g", c.Value)
	case ir.CharConst:
		return fmt.Sprintf("%q", string(c.Value))
	case ir.BinaryConst:
		parts := make([]string, len(c.Bytes))
		for i, by := range c.Bytes {
			parts[i] = fmt.Sprintf("%d", by)
		}
		return "<<" + strings.Join(parts, ",") + ">>"
	case ir.FormatConst:
		var parts []string
		for _, s := range c.Segments {
			if s.IsHole {
				parts = append(parts, "~"+string(s.Hole))
			} else {
				parts = append(parts, s.Literal)
			}
		}
		return fmt.Sprintf("(format %q)", strings.Join(parts, ""))
	}
	return "?"
}

func sortedValueKeys(m map[string]ir.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedLocalKeys(m map[string]ir.Local) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
