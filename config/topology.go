package config

import (
	_ "embed"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"trainctl/track"
)

// TopologyID selects one of the two track layouts this repository ships,
// in place of the original's single ~140-node physical table (see
// SPEC_FULL.md's Open Question decision on track scale).
type TopologyID byte

const (
	TopologyA TopologyID = iota
	TopologyB
)

//go:embed topology_a.hcl
var topologyASource []byte

//go:embed topology_b.hcl
var topologyBSource []byte

// nodeBlock is the HCL shape of one track.Node before name references are
// resolved to indices. Grounded on the hcl.v2 + gohcl labeled-block pattern
// _examples/specialistvlad-burstgridgo/internal/hcl_adapter/loader.go uses
// for its own runner blocks.
type nodeBlock struct {
	Name string `hcl:"name,label"`
	Kind string `hcl:"kind"`

	Ahead    string `hcl:"ahead,optional"`
	Straight string `hcl:"straight,optional"`
	Curved   string `hcl:"curved,optional"`
	Reverse  string `hcl:"reverse,optional"`

	// Distance is the length of the ahead/straight edge, CurvedDistance
	// the length of the curved edge on a switch. Zero (unset) means "not
	// given" and defaults to 1, since every edge's distance must be
	// positive.
	Distance       int `hcl:"distance,optional"`
	CurvedDistance int `hcl:"curved_distance,optional"`

	Central  bool   `hcl:"central,optional"`
	MirrorOf string `hcl:"mirror_of,optional"`
}

type topologyFile struct {
	Nodes []nodeBlock `hcl:"node,block"`
}

// LoadTopology decodes the named embedded topology into a *track.Graph,
// assigning each node a sequential ID matching its slice index (track.Graph
// and the reservation authority both key reservedBy/switchDir slices
// directly off Node.ID).
func LoadTopology(id TopologyID) (*track.Graph, error) {
	var (
		src      []byte
		filename string
	)
	switch id {
	case TopologyA:
		src, filename = topologyASource, "topology_a.hcl"
	case TopologyB:
		src, filename = topologyBSource, "topology_b.hcl"
	default:
		return nil, fmt.Errorf("config: unknown topology id %d", id)
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	var raw topologyFile
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &raw); diags.HasErrors() {
		return nil, diags
	}

	byName := make(map[string]int16, len(raw.Nodes))
	for i, nb := range raw.Nodes {
		if _, exists := byName[nb.Name]; exists {
			return nil, fmt.Errorf("config: duplicate node name %q in %s", nb.Name, filename)
		}
		byName[nb.Name] = int16(i)
	}

	resolve := func(name string) (int16, error) {
		if name == "" {
			return track.NoNode, nil
		}
		id, ok := byName[name]
		if !ok {
			return track.NoNode, fmt.Errorf("config: %s references unknown node %q", filename, name)
		}
		return id, nil
	}

	nodes := make([]track.Node, len(raw.Nodes))
	for i, nb := range raw.Nodes {
		kind, err := parseKind(nb.Kind)
		if err != nil {
			return nil, fmt.Errorf("config: node %q: %w", nb.Name, err)
		}

		n := track.Node{
			ID:   int16(i),
			Name: nb.Name,
			Kind: kind,
		}

		ahead, err := resolve(nb.Ahead)
		if err != nil {
			return nil, err
		}
		straight, err := resolve(nb.Straight)
		if err != nil {
			return nil, err
		}
		curved, err := resolve(nb.Curved)
		if err != nil {
			return nil, err
		}
		rev, err := resolve(nb.Reverse)
		if err != nil {
			return nil, err
		}
		mirror, err := resolve(nb.MirrorOf)
		if err != nil {
			return nil, err
		}

		straightDist := int32(nb.Distance)
		if straightDist == 0 {
			straightDist = 1
		}
		curvedDist := int32(nb.CurvedDistance)
		if curvedDist == 0 {
			curvedDist = 1
		}

		if kind == track.KindSwitch {
			n.Next[track.Straight] = straight
			n.Next[track.Curved] = curved
			n.Distance[track.Straight] = straightDist
			n.Distance[track.Curved] = curvedDist
		} else {
			n.Next[track.Straight] = ahead
			n.Next[track.Curved] = track.NoNode
			n.Distance[track.Straight] = straightDist
		}
		n.Reverse = rev
		n.Central = nb.Central
		n.MirrorOf = mirror

		nodes[i] = n
	}

	return track.NewGraph(nodes), nil
}

func parseKind(s string) (track.NodeKind, error) {
	switch s {
	case "sensor":
		return track.KindSensor, nil
	case "switch":
		return track.KindSwitch, nil
	case "merge":
		return track.KindMerge, nil
	case "enter":
		return track.KindEnter, nil
	case "exit":
		return track.KindExit, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}
