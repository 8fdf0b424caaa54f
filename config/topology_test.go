package config

import (
	"testing"

	"trainctl/track"
)

func TestLoadTopologyAssignsSequentialIDs(t *testing.T) {
	for _, id := range []TopologyID{TopologyA, TopologyB} {
		g, err := LoadTopology(id)
		if err != nil {
			t.Fatalf("topology %d: %v", id, err)
		}
		for i, n := range g.Nodes {
			if int(n.ID) != i {
				t.Fatalf("topology %d: node %q has ID %d at index %d", id, n.Name, n.ID, i)
			}
		}
	}
}

func TestLoadTopologyResolvesEdgesByName(t *testing.T) {
	g, err := LoadTopology(TopologyA)
	if err != nil {
		t.Fatalf("LoadTopology: %v", err)
	}

	enter, ok := g.NodeByName("enter_a")
	if !ok {
		t.Fatal("expected enter_a to exist")
	}
	n, _ := g.Node(enter)
	sw1, ok := g.NodeByName("sw1")
	if !ok {
		t.Fatal("expected sw1 to exist")
	}
	if n.Ahead() != sw1 {
		t.Fatalf("expected enter_a.ahead to resolve to sw1 (%d), got %d", sw1, n.Ahead())
	}
}

func TestLoadTopologyACentralJunctionMirrors(t *testing.T) {
	g, err := LoadTopology(TopologyA)
	if err != nil {
		t.Fatalf("LoadTopology: %v", err)
	}

	cjN, ok := g.NodeByName("cj_n")
	if !ok {
		t.Fatal("expected cj_n to exist")
	}
	cjS, ok := g.NodeByName("cj_s")
	if !ok {
		t.Fatal("expected cj_s to exist")
	}

	n, _ := g.Node(cjN)
	if !n.Central {
		t.Fatal("expected cj_n to be marked central")
	}
	if n.MirrorOf != cjS {
		t.Fatalf("expected cj_n.MirrorOf == cj_s (%d), got %d", cjS, n.MirrorOf)
	}
	if !g.IsCentral(cjN) || !g.IsCentral(cjS) {
		t.Fatal("expected both central-junction switches reported central")
	}
}

func TestLoadTopologyBHasNoCentralJunction(t *testing.T) {
	g, err := LoadTopology(TopologyB)
	if err != nil {
		t.Fatalf("LoadTopology: %v", err)
	}
	for _, n := range g.Nodes {
		if n.Central {
			t.Fatalf("topology B should have no central nodes, found %q", n.Name)
		}
	}
}

func TestLoadTopologyUnknownID(t *testing.T) {
	if _, err := LoadTopology(TopologyID(99)); err == nil {
		t.Fatal("expected error for unknown topology id")
	}
}

func TestLoadTopologyDerivesSwitchExitConflicts(t *testing.T) {
	g, err := LoadTopology(TopologyA)
	if err != nil {
		t.Fatalf("LoadTopology: %v", err)
	}

	sw1, _ := g.NodeByName("sw1")
	n, _ := g.Node(sw1)
	s1 := n.Next[track.Straight]
	s2 := n.Next[track.Curved]

	s1Node, _ := g.Node(s1)
	if !contains(s1Node.Conflicts, s2) {
		t.Fatalf("expected %d to conflict with %d (sw1's two exits)", s1, s2)
	}
}

func contains(xs []int16, v int16) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
