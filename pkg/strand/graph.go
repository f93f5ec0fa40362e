package strand

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/polyedge"
)

// Node is one strand, placed at the centroid of its vertices.
type Node struct {
	ID       int
	Position r3.Vec
	Closed   bool
	Length   int // number of polyedge vertices
}

// Edge connects two strands that cross or touch. A is always less than B.
type Edge struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Graph is the strand adjacency graph: one node per polyedge, one edge per
// pair of polyedges that meet at a vertex.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build derives the strand graph of set over topo.
//
// For every vertex of polyedge i, each incident mesh edge belongs to some
// polyedge j; i and j are connected when i < j. Edges keep the order in
// which they are first found, so the result is deterministic for a given
// set. An INVALID_MESH error is returned if set does not cover topo.
func Build(topo mesh.Topology, set *polyedge.Set) (*Graph, error) {
	g := &Graph{Nodes: make([]Node, set.Len())}
	seen := make(map[Edge]bool)

	for i, pe := range set.Polyedges {
		g.Nodes[i] = Node{
			ID:       i,
			Position: mesh.Centroid(polyedge.Polyline(topo, pe)),
			Closed:   pe.IsClosed(),
			Length:   len(pe),
		}
		for _, v := range pe {
			for _, w := range topo.VertexNeighbors(v) {
				j, ok := set.Owner(v, w)
				if !ok {
					return nil, errors.New(errors.ErrCodeInvalidMesh, "edge %d-%d has no polyedge", v, w)
				}
				e := Edge{A: i, B: j}
				if i < j && !seen[e] {
					seen[e] = true
					g.Edges = append(g.Edges, e)
				}
			}
		}
	}
	return g, nil
}

// Neighbors returns the strands adjacent to node i.
func (g *Graph) Neighbors(i int) []int {
	var out []int
	for _, e := range g.Edges {
		switch i {
		case e.A:
			out = append(out, e.B)
		case e.B:
			out = append(out, e.A)
		}
	}
	return out
}

type nodeJSON struct {
	ID       int        `json:"id"`
	Position [3]float64 `json:"position"`
	Closed   bool       `json:"closed"`
	Length   int        `json:"length"`
}

// MarshalJSON encodes the position as an [x, y, z] triple.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{
		ID:       n.ID,
		Position: [3]float64{n.Position.X, n.Position.Y, n.Position.Z},
		Closed:   n.Closed,
		Length:   n.Length,
	})
}

// UnmarshalJSON decodes a node written by [Node.MarshalJSON].
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode node: %w", err)
	}
	*n = Node{
		ID:       raw.ID,
		Position: r3.Vec{X: raw.Position[0], Y: raw.Position[1], Z: raw.Position[2]},
		Closed:   raw.Closed,
		Length:   raw.Length,
	}
	return nil
}
