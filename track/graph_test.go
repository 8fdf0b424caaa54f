package track

import "testing"

func hasNode(xs []int16, v int16) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// TestNewGraphDerivesSwitchExitConflicts checks that a switch's two exits
// are recorded as conflicting with each other -- reserving one commits the
// physical switch away from the other.
func TestNewGraphDerivesSwitchExitConflicts(t *testing.T) {
	nodes := []Node{
		{ID: 0, Name: "enter", Kind: KindEnter, Next: [2]int16{1, NoNode}, Reverse: NoNode},
		{ID: 1, Name: "sw", Kind: KindSwitch, Next: [2]int16{2, 3}, Reverse: NoNode},
		{ID: 2, Name: "b", Kind: KindSensor, Next: [2]int16{4, NoNode}, Reverse: NoNode},
		{ID: 3, Name: "c", Kind: KindSensor, Next: [2]int16{4, NoNode}, Reverse: NoNode},
		{ID: 4, Name: "exit", Kind: KindExit, Next: [2]int16{NoNode, NoNode}, Reverse: NoNode},
	}
	g := NewGraph(nodes)

	if !hasNode(g.Nodes[2].Conflicts, 3) || !hasNode(g.Nodes[3].Conflicts, 2) {
		t.Fatalf("expected switch exits 2 and 3 to conflict, got %v / %v", g.Nodes[2].Conflicts, g.Nodes[3].Conflicts)
	}
}

// TestNewGraphDerivesMergePredecessorConflicts checks that two distinct
// predecessors feeding the same node conflict with each other, even when
// neither is itself the exit of a switch.
func TestNewGraphDerivesMergePredecessorConflicts(t *testing.T) {
	nodes := []Node{
		{ID: 0, Name: "b1", Kind: KindSensor, Next: [2]int16{2, NoNode}, Reverse: NoNode},
		{ID: 1, Name: "b2", Kind: KindSensor, Next: [2]int16{2, NoNode}, Reverse: NoNode},
		{ID: 2, Name: "merge", Kind: KindMerge, Next: [2]int16{NoNode, NoNode}, Reverse: NoNode},
	}
	g := NewGraph(nodes)

	if !hasNode(g.Nodes[0].Conflicts, 1) || !hasNode(g.Nodes[1].Conflicts, 0) {
		t.Fatalf("expected merge predecessors 0 and 1 to conflict, got %v / %v", g.Nodes[0].Conflicts, g.Nodes[1].Conflicts)
	}
}

func TestGraphNodeByNameAndNode(t *testing.T) {
	nodes := []Node{{ID: 0, Name: "only", Kind: KindSensor, Next: [2]int16{NoNode, NoNode}}}
	g := NewGraph(nodes)

	id, ok := g.NodeByName("only")
	if !ok || id != 0 {
		t.Fatalf("NodeByName(only) = (%d, %v), want (0, true)", id, ok)
	}
	if _, ok := g.NodeByName("missing"); ok {
		t.Fatal("NodeByName(missing) unexpectedly found a node")
	}

	if _, ok := g.Node(5); ok {
		t.Fatal("Node(5) unexpectedly found a node in a 1-node graph")
	}
	n, ok := g.Node(0)
	if !ok || n.Name != "only" {
		t.Fatalf("Node(0) = (%+v, %v), want name %q", n, ok, "only")
	}
}

func TestGraphCentralNodes(t *testing.T) {
	nodes := []Node{
		{ID: 0, Name: "n", Kind: KindSwitch, Next: [2]int16{1, 2}, Central: true, MirrorOf: 3},
		{ID: 1, Name: "e", Kind: KindSwitch, Next: [2]int16{2, 3}, Central: true, MirrorOf: 0},
		{ID: 2, Name: "not-central", Kind: KindSensor, Next: [2]int16{NoNode, NoNode}},
		{ID: 3, Name: "w", Kind: KindExit, Next: [2]int16{NoNode, NoNode}},
	}
	g := NewGraph(nodes)

	central := g.CentralNodes()
	if len(central) != 2 || !hasNode(central, 0) || !hasNode(central, 1) {
		t.Fatalf("CentralNodes() = %v, want [0 1]", central)
	}
	if g.IsCentral(2) {
		t.Fatal("expected node 2 not to be reported central")
	}
}
