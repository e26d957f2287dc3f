package typesystem

import "testing"

func TestSynonymGraphAcceptsDAG(t *testing.T) {
	g := NewSynonymGraph()
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	g.AddEdge(0, 2)
	if cycle := g.FindCycle(); cycle != nil {
		t.Fatalf("DAG reported cycle %v", cycle)
	}
}

func TestSynonymGraphFindsDirectCycle(t *testing.T) {
	g := NewSynonymGraph()
	g.AddEdge(0, 1)
	g.AddEdge(1, 0)
	cycle := g.FindCycle()
	if len(cycle) != 2 {
		t.Fatalf("cycle = %v, want both vertices", cycle)
	}
}

func TestSynonymGraphFindsSelfCycle(t *testing.T) {
	g := NewSynonymGraph()
	g.AddEdge(3, 3)
	cycle := g.FindCycle()
	if len(cycle) != 1 || cycle[0] != 3 {
		t.Fatalf("cycle = %v, want [3]", cycle)
	}
}

func TestSynonymGraphReportsInnerCycleOnly(t *testing.T) {
	g := NewSynonymGraph()
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)
	cycle := g.FindCycle()
	if len(cycle) != 2 {
		t.Fatalf("cycle = %v, want the two-vertex loop", cycle)
	}
	for _, sid := range cycle {
		if sid == 0 {
			t.Fatalf("entry vertex 0 is not part of the loop: %v", cycle)
		}
	}
}
