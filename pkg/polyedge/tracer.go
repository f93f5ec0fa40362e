package polyedge

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/mesh"
)

// Tracer follows strands across a mesh. It holds no state besides the
// topology, so a single Tracer may be shared between goroutines as long as
// the topology is safe for concurrent reads.
type Tracer struct {
	topo mesh.Topology
}

// NewTracer returns a tracer over topo.
func NewTracer(topo mesh.Topology) *Tracer {
	return &Tracer{topo: topo}
}

// Opposite returns the straight-through continuation at b for a strand
// arriving from a. The second result is false when the strand ends at b:
//
//   - valence 4: the neighbour two positions away from a in b's cyclic order
//   - valence 3: only along the boundary, the other boundary neighbour of b
//   - any other valence: no continuation
//
// A missing continuation is a stop signal, not an error.
func (t *Tracer) Opposite(a, b int) (int, bool) {
	nbrs := t.topo.VertexNeighbors(b)
	switch len(nbrs) {
	case 4:
		i := slices.Index(nbrs, a)
		if i < 0 {
			return 0, false
		}
		return nbrs[(i+2)%4], true
	case 3:
		if !t.topo.IsEdgeOnBoundary(a, b) {
			return 0, false
		}
		for _, w := range nbrs {
			if w != a && t.topo.IsEdgeOnBoundary(b, w) {
				return w, true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// Trace returns the polyedge through the directed edge u->v.
//
// The strand is extended from v until it closes or stops. On the first stop
// the sequence is reversed and extended from u. If that grew the strand, it
// is reversed once more at the second stop, so an open polyedge keeps the
// u->v direction whenever both of its ends lie beyond u and v. Growing past
// the vertex count means the topology is inconsistent; Trace then returns a
// TRACE_LIMIT error instead of a truncated polyedge.
func (t *Tracer) Trace(u, v int) (Polyedge, error) {
	pe := Polyedge{u, v}
	pivot := 0 // length at the first stop, 0 before it
	limit := t.topo.NumberOfVertices()

	for len(pe) <= limit {
		n := len(pe)
		w, ok := t.Opposite(pe[n-2], pe[n-1])
		if !ok {
			if pivot > 0 {
				if n > pivot {
					slices.Reverse(pe)
				}
				return pe, nil
			}
			slices.Reverse(pe)
			pivot = n
			continue
		}
		pe = append(pe, w)
		if pe.IsClosed() {
			return pe, nil
		}
	}
	return nil, errors.New(errors.ErrCodeTraceLimit,
		"trace from %d->%d exceeded %d vertices without closing", u, v, limit)
}

// TraceAll partitions the edges of the mesh into polyedges. Edges are
// visited in ascending order and every edge of a traced polyedge is marked
// in both orientations, so each edge ends up in exactly one polyedge.
func (t *Tracer) TraceAll() (*Set, error) {
	edges := t.topo.Edges()
	visited := make(map[mesh.Edge]bool, len(edges))
	var polyedges []Polyedge

	for _, e := range edges {
		if visited[e] {
			continue
		}
		pe, err := t.Trace(e.U, e.V)
		if err != nil {
			return nil, err
		}
		for _, edge := range pe.Edges() {
			visited[edge] = true
		}
		polyedges = append(polyedges, pe)
	}
	return NewSet(polyedges), nil
}

// Polyline returns the coordinates of the polyedge through u->v.
func (t *Tracer) Polyline(u, v int) ([]r3.Vec, error) {
	pe, err := t.Trace(u, v)
	if err != nil {
		return nil, err
	}
	return Polyline(t.topo, pe), nil
}
