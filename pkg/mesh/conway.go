package mesh

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/kagome/pkg/errors"
)

// Ambo applies the Conway ambo operator: every edge becomes a vertex at its
// midpoint, every face shrinks to the polygon of its edge midpoints, and
// every interior vertex becomes a face around it. Applied to a triangle mesh
// this yields the trihexagonal (kagome) pattern with 4-valent vertices.
//
// New vertices follow the ascending order of [Mesh.Edges]. Faces from
// original faces come first, then vertex faces in ascending vertex order.
func Ambo(m *Mesh) (*Mesh, error) {
	edges := m.edges
	index := make(map[Edge]int, len(edges))
	vertices := make([]r3.Vec, len(edges))
	for i, e := range edges {
		index[e] = i
		vertices[i] = m.EdgeMidpoint(e.U, e.V)
	}

	faces := make([][]int, 0, len(m.faces)+len(m.vertices))
	for _, face := range m.faces {
		nf := make([]int, len(face))
		for i, u := range face {
			nf[i] = index[NewEdge(u, face[(i+1)%len(face)])]
		}
		faces = append(faces, nf)
	}

	for v := range m.vertices {
		if m.IsVertexOnBoundary(v) {
			continue
		}
		nbrs := slices.Clone(m.ordered[v])
		if len(nbrs) < 3 {
			continue
		}
		slices.Reverse(nbrs)
		nf := make([]int, len(nbrs))
		for i, n := range nbrs {
			nf[i] = index[NewEdge(v, n)]
		}
		faces = append(faces, nf)
	}

	return New(vertices, faces)
}

// Subdivide splits every triangle into four, k times, by inserting edge
// midpoints. Positions are not smoothed, so boundary vertices stay fixed.
//
// Returns an INVALID_MESH error if any face is not a triangle.
func Subdivide(m *Mesh, k int) (*Mesh, error) {
	vertices, faces := m.ToVerticesAndFaces()
	for range k {
		mid := make(map[Edge]int)
		midpoint := func(u, v int) int {
			e := NewEdge(u, v)
			if i, ok := mid[e]; ok {
				return i
			}
			vertices = append(vertices, r3.Scale(0.5, r3.Add(vertices[u], vertices[v])))
			mid[e] = len(vertices) - 1
			return mid[e]
		}

		next := make([][]int, 0, 4*len(faces))
		for f, face := range faces {
			if len(face) != 3 {
				return nil, errors.New(errors.ErrCodeInvalidMesh,
					"subdivision requires triangles, face %d has %d vertices", f, len(face))
			}
			a, b, c := face[0], face[1], face[2]
			ab, bc, ca := midpoint(a, b), midpoint(b, c), midpoint(c, a)
			next = append(next,
				[]int{ab, bc, ca},
				[]int{ab, b, bc},
				[]int{bc, c, ca},
				[]int{ca, a, ab},
			)
		}
		faces = next
	}
	return New(vertices, faces)
}

// FromCoarse builds a kagome mesh from a coarse mesh: k levels of triangle
// subdivision (skipped when k is 0), followed by [Ambo].
func FromCoarse(coarse *Mesh, k int) (*Mesh, error) {
	if k < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "subdivision level must be >= 0, got %d", k)
	}
	dense := coarse
	if k > 0 {
		var err error
		if dense, err = Subdivide(coarse, k); err != nil {
			return nil, err
		}
	}
	return Ambo(dense)
}
