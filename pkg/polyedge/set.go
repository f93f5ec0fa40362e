package polyedge

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/mesh"
)

// Set is the edge-partitioning polyedge collection of a mesh together with
// the edge->polyedge index. It is produced once by [Tracer.TraceAll] and
// then shared read-only by frames, weaving and strand graphs.
type Set struct {
	Polyedges []Polyedge
	owner     map[mesh.Edge]int
}

// NewSet indexes polyedges. If two polyedges share an edge the later one
// owns it; use [Set.CheckPartition] to detect that.
func NewSet(polyedges []Polyedge) *Set {
	s := &Set{Polyedges: polyedges, owner: make(map[mesh.Edge]int)}
	for i, pe := range polyedges {
		for _, e := range pe.Edges() {
			s.owner[e] = i
		}
	}
	return s
}

// Len returns the number of polyedges.
func (s *Set) Len() int { return len(s.Polyedges) }

// Owner returns the index of the polyedge containing the edge u-v, in
// either direction.
func (s *Set) Owner(u, v int) (int, bool) {
	i, ok := s.owner[mesh.NewEdge(u, v)]
	return i, ok
}

// Closed returns the number of closed polyedges.
func (s *Set) Closed() int {
	n := 0
	for _, pe := range s.Polyedges {
		if pe.IsClosed() {
			n++
		}
	}
	return n
}

// Polylines returns the coordinates of every polyedge in set order.
func (s *Set) Polylines(topo mesh.Topology) [][]r3.Vec {
	out := make([][]r3.Vec, len(s.Polyedges))
	for i, pe := range s.Polyedges {
		out[i] = Polyline(topo, pe)
	}
	return out
}

// CheckPartition verifies that the set covers every edge of topo exactly
// once and uses no other vertex pairs. A set loaded from a cache is checked
// this way before it is trusted.
func (s *Set) CheckPartition(topo mesh.Topology) error {
	seen := make(map[mesh.Edge]int)
	for i, pe := range s.Polyedges {
		if len(pe) < 2 {
			return errors.New(errors.ErrCodeInvalidMesh, "polyedge %d has %d vertices", i, len(pe))
		}
		for _, e := range pe.Edges() {
			if j, ok := seen[e]; ok {
				return errors.New(errors.ErrCodeInvalidMesh, "edge %d-%d in polyedges %d and %d", e.U, e.V, j, i)
			}
			seen[e] = i
		}
	}
	edges := topo.Edges()
	for _, e := range edges {
		if _, ok := seen[e]; !ok {
			return errors.New(errors.ErrCodeInvalidMesh, "edge %d-%d not covered", e.U, e.V)
		}
	}
	if len(seen) != len(edges) {
		return errors.New(errors.ErrCodeInvalidMesh, "polyedges use %d edges, mesh has %d", len(seen), len(edges))
	}
	return nil
}

// MarshalJSON encodes the set as a list of vertex id lists.
func (s *Set) MarshalJSON() ([]byte, error) {
	if s.Polyedges == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Polyedges)
}

// UnmarshalJSON decodes a list of vertex id lists and rebuilds the index.
func (s *Set) UnmarshalJSON(data []byte) error {
	var polyedges []Polyedge
	if err := json.Unmarshal(data, &polyedges); err != nil {
		return fmt.Errorf("decode polyedges: %w", err)
	}
	*s = *NewSet(polyedges)
	return nil
}
