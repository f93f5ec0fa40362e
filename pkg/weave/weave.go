// Package weave assigns over/under signs to the strands of a kagome mesh.
//
// At every vertex two strands cross. Walking the corners of each face, the
// strand entering a corner and the strand leaving it receive opposite signs,
// with triangles and other polygons using opposite conventions. On a valid
// kagome mesh the faces around a vertex alternate between triangles and
// hexagons, so every corner agrees and the strands alternate over and under.
package weave

import (
	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/polyedge"
)

const (
	Over  = +1
	Under = -1
)

// Conflict records a corner whose sign disagrees with an earlier corner for
// the same strand at the same vertex. The later sign is kept.
type Conflict struct {
	Vertex   int `json:"vertex"`
	Polyedge int `json:"polyedge"`
	Face     int `json:"face"`
	Previous int `json:"previous"`
	Current  int `json:"current"`
}

// Result holds the sign of every polyedge at each of its vertices, in
// polyedge order, plus any conflicts met while assigning them.
type Result struct {
	Offsets   [][]int    `json:"offsets"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Consistent reports whether every corner agreed.
func (r *Result) Consistent() bool { return len(r.Conflicts) == 0 }

type key struct {
	vertex, polyedge int
}

// Compute assigns weave signs for set over topo.
//
// For each corner u->v->w of a triangle, the polyedge owning u-v gets
// [Over] at v and the one owning v-w gets [Under]; non-triangular faces use
// the reverse. Later corners overwrite earlier ones and every change of
// sign is reported as a [Conflict]. An INVALID_MESH error is returned if
// set does not cover the edges of topo.
func Compute(topo mesh.Topology, set *polyedge.Set) (*Result, error) {
	signs := make(map[key]int)
	res := &Result{}

	record := func(v, u, f, sign int) error {
		i, ok := set.Owner(u, v)
		if !ok {
			return errors.New(errors.ErrCodeInvalidMesh, "edge %d-%d of face %d has no polyedge", u, v, f)
		}
		k := key{vertex: v, polyedge: i}
		if prev, ok := signs[k]; ok && prev != sign {
			res.Conflicts = append(res.Conflicts, Conflict{
				Vertex: v, Polyedge: i, Face: f, Previous: prev, Current: sign,
			})
		}
		signs[k] = sign
		return nil
	}

	for _, f := range topo.Faces() {
		vs := topo.FaceVertices(f)
		n := len(vs)
		sign := Under
		if n == 3 {
			sign = Over
		}
		for i := range n {
			u, v, w := vs[i], vs[(i+1)%n], vs[(i+2)%n]
			if err := record(v, u, f, sign); err != nil {
				return nil, err
			}
			if err := record(v, w, f, -sign); err != nil {
				return nil, err
			}
		}
	}

	res.Offsets = make([][]int, set.Len())
	for i, pe := range set.Polyedges {
		offsets := make([]int, len(pe))
		for j, v := range pe {
			s, ok := signs[key{vertex: v, polyedge: i}]
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidMesh, "polyedge %d has no face at vertex %d", i, v)
			}
			offsets[j] = s
		}
		res.Offsets[i] = offsets
	}
	return res, nil
}
