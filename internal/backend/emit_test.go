package backend

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sester-lang/sester/internal/ir"
)

func TestEmitWritesOneFilePerSpace(t *testing.T) {
	dir := t.TempDir()
	bindings := []ir.Binding{
		{Name: ir.Global{Space: "Main", Name: "f", Arity: 1}, Value: ir.BaseConst{Const: ir.IntConst{Value: 3}}},
		{Name: ir.Global{Space: "Main.Sub", Name: "g", Arity: 0}, Value: ir.BaseConst{Const: ir.UnitConst{}}},
	}
	files, err := Emit(dir, "Main", bindings)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("emitted %d files, want 2", len(files))
	}

	data, err := os.ReadFile(filepath.Join(dir, "Main.sestir"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "(define Main:f/1") {
		t.Fatalf("missing definition header:\n%s", content)
	}
	if !strings.Contains(content, "(const 3)") {
		t.Fatalf("missing constant body:\n%s", content)
	}

	if _, err := os.Stat(filepath.Join(dir, "Main_Sub.sestir")); err != nil {
		t.Fatalf("nested module file: %v", err)
	}
}

func TestEmitLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	bindings := []ir.Binding{
		{Name: ir.Global{Space: "M", Name: "x", Arity: 0}, Value: ir.ListNil{}},
	}
	if _, err := Emit(dir, "M", bindings); err != nil {
		t.Fatalf("emit: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("stale temp file %s", e.Name())
		}
	}
}

func TestEmitEmptyModuleStillProducesFile(t *testing.T) {
	dir := t.TempDir()
	files, err := Emit(dir, "Empty", nil)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("emitted %d files, want 1", len(files))
	}
	if filepath.Base(files[0]) != "Empty.sestir" {
		t.Fatalf("file = %s, want Empty.sestir", files[0])
	}
}
