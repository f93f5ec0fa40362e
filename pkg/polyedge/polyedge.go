package polyedge

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/kagome/pkg/mesh"
)

// Polyedge is a chain of vertex ids following the straight-through rule.
// Consecutive ids are mesh edges. A polyedge whose first and last ids are
// equal is closed; every other polyedge is open.
type Polyedge []int

// IsClosed reports whether the polyedge forms a cycle.
func (p Polyedge) IsClosed() bool {
	return len(p) > 1 && p[0] == p[len(p)-1]
}

// Edges returns the undirected edges of p in traversal order.
func (p Polyedge) Edges() []mesh.Edge {
	if len(p) < 2 {
		return nil
	}
	edges := make([]mesh.Edge, 0, len(p)-1)
	for i := 0; i+1 < len(p); i++ {
		edges = append(edges, mesh.NewEdge(p[i], p[i+1]))
	}
	return edges
}

// Reversed returns a reversed copy of p.
func (p Polyedge) Reversed() Polyedge {
	out := slices.Clone(p)
	slices.Reverse(out)
	return out
}

// Polyline returns the vertex coordinates of p.
func Polyline(topo mesh.Topology, p Polyedge) []r3.Vec {
	pts := make([]r3.Vec, len(p))
	for i, v := range p {
		pts[i] = topo.VertexCoordinates(v)
	}
	return pts
}
