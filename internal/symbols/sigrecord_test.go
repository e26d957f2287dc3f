package symbols

import (
	"testing"

	"github.com/sester-lang/sester/internal/ir"
	"github.com/sester-lang/sester/internal/token"
	"github.com/sester-lang/sester/internal/typesystem"
)

func valItem(name string) SigItem {
	entry := NewValEntry(typesystem.Base{Tag: typesystem.IntType}, ir.Local{Number: 0, Hint: name}, token.Dummy())
	return SigItem{Class: ValClass, Name: name, Val: entry}
}

func TestSigRecordKeepsInsertionOrder(t *testing.T) {
	rec := NewSigRecord()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		rec = rec.Add(valItem(n))
	}
	var got []string
	rec.Items(func(item SigItem) bool {
		got = append(got, item.Name)
		return true
	})
	for i := range names {
		if got[i] != names[i] {
			t.Fatalf("iteration order %v, want %v", got, names)
		}
	}
}

func TestSigRecordNamespacesAreIndependent(t *testing.T) {
	rec := NewSigRecord()
	rec = rec.Add(valItem("x"))
	rec = rec.Add(SigItem{Class: TypeClass, Name: "x", Type: TypeEntry{ID: typesystem.SynonymID(0), Arity: 0}})
	if _, ok := rec.FindVal("x"); !ok {
		t.Fatal("val x lost")
	}
	if _, ok := rec.FindType("x"); !ok {
		t.Fatal("type x lost")
	}
}

func TestDisjointUnionPreservesLeftThenRight(t *testing.T) {
	left := NewSigRecord().Add(valItem("a")).Add(valItem("b"))
	right := NewSigRecord().Add(valItem("c"))
	merged, _, ok := left.DisjointUnion(right)
	if !ok {
		t.Fatal("disjoint union failed on disjoint records")
	}
	var got []string
	merged.Items(func(item SigItem) bool {
		got = append(got, item.Name)
		return true
	})
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestDisjointUnionRejectsDuplicate(t *testing.T) {
	left := NewSigRecord().Add(valItem("a"))
	right := NewSigRecord().Add(valItem("a"))
	_, conflict, ok := left.DisjointUnion(right)
	if ok {
		t.Fatal("duplicate name accepted")
	}
	if conflict != "a" {
		t.Fatalf("conflict = %q, want \"a\"", conflict)
	}
}

func TestAddShadowsInPlace(t *testing.T) {
	rec := NewSigRecord().Add(valItem("a")).Add(valItem("b"))
	replacement := valItem("a")
	rec = rec.Add(replacement)
	if rec.Len() != 2 {
		t.Fatalf("len = %d, want 2 after shadowing", rec.Len())
	}
}

func TestCopyAbstractedFreshensOpaques(t *testing.T) {
	ctx := typesystem.NewContext()
	oid := ctx.FreshOpaqueID("t", nil, typesystem.OrderZero())
	entry := NewValEntry(typesystem.Data{ID: oid}, ir.Local{}, token.Dummy())
	rec := NewSigRecord().Add(SigItem{Class: ValClass, Name: "x", Val: entry}).
		Add(SigItem{Class: TypeClass, Name: "t", Type: TypeEntry{ID: oid, Arity: 0}})
	abs := Abstracted{Opaques: NewOpaqueSet(oid), Sig: &StructureSig{Record: rec}}

	copied := CopyAbstracted(ctx, abs)
	if copied.Opaques.Has(oid) {
		t.Fatal("copy kept the original opaque ID")
	}
	copiedRec := copied.Sig.(*StructureSig).Record
	te, _ := copiedRec.FindType("t")
	fresh, ok := te.ID.(typesystem.OpaqueID)
	if !ok || fresh == oid {
		t.Fatalf("type entry not renamed: %v", te.ID)
	}
	ve, _ := copiedRec.FindVal("x")
	if got := ve.Poly.(typesystem.Data).ID; got != typesystem.TypeID(fresh) {
		t.Fatalf("val type mentions %v, want renamed %v", got, fresh)
	}
}
