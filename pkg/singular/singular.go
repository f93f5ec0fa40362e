// Package singular finds faces that break the triangle/hexagon alternation
// of a kagome mesh.
//
// On a regular kagome mesh every triangle is surrounded by hexagons and
// every hexagon by triangles. Around an irregular vertex of the coarse mesh
// the hexagon becomes some other polygon, and near a boundary faces lose
// neighbours. Such faces are singular.
package singular

import (
	"github.com/emirpasic/gods/trees/redblacktree"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/kagome/pkg/mesh"
)

const (
	triangle = 3
	hexagon  = 6
)

// Faces returns the singular faces of topo in ascending order. A face is
// singular if it is not a hexagon and all its neighbours are triangles, or
// if it is not a triangle and all its neighbours are hexagons. A face with
// no neighbours is singular.
func Faces(topo mesh.Topology) []int {
	return collect(topo, func(f int) bool {
		n := valence(topo, f)
		return (n != hexagon && neighborsAll(topo, f, triangle)) ||
			(n != triangle && neighborsAll(topo, f, hexagon))
	})
}

// NegativeFaces returns the faces with more than six vertices whose
// neighbours are all triangles. These are the singular faces around
// coarse vertices of valence greater than six.
func NegativeFaces(topo mesh.Topology) []int {
	return collect(topo, func(f int) bool {
		return valence(topo, f) > hexagon && neighborsAll(topo, f, triangle)
	})
}

// NegativePolygons returns the vertex coordinates of each negative face, in
// the order of [NegativeFaces].
func NegativePolygons(topo mesh.Topology) [][]r3.Vec {
	faces := NegativeFaces(topo)
	out := make([][]r3.Vec, len(faces))
	for i, f := range faces {
		vs := topo.FaceVertices(f)
		pts := make([]r3.Vec, len(vs))
		for j, v := range vs {
			pts[j] = topo.VertexCoordinates(v)
		}
		out[i] = pts
	}
	return out
}

// HexFaces returns the hexagons of topo.
func HexFaces(topo mesh.Topology) []int {
	return collect(topo, func(f int) bool { return valence(topo, f) == hexagon })
}

// TriFaces returns the triangles of topo.
func TriFaces(topo mesh.Topology) []int {
	return collect(topo, func(f int) bool { return valence(topo, f) == triangle })
}

// Report groups the face classification of one mesh.
type Report struct {
	Singular  []int `json:"singular"`
	Negative  []int `json:"negative"`
	Hexagons  int   `json:"hexagons"`
	Triangles int   `json:"triangles"`
}

// Classify runs all classifications on topo.
func Classify(topo mesh.Topology) Report {
	return Report{
		Singular:  Faces(topo),
		Negative:  NegativeFaces(topo),
		Hexagons:  len(HexFaces(topo)),
		Triangles: len(TriFaces(topo)),
	}
}

func valence(topo mesh.Topology, f int) int {
	return len(topo.FaceVertices(f))
}

func neighborsAll(topo mesh.Topology, f, n int) bool {
	for _, nbr := range topo.FaceNeighbors(f) {
		if valence(topo, nbr) != n {
			return false
		}
	}
	return true
}

// collect returns the faces matching keep as an ordered set, independent of
// the order the topology yields them in.
func collect(topo mesh.Topology, keep func(f int) bool) []int {
	set := redblacktree.NewWithIntComparator()
	for _, f := range topo.Faces() {
		if keep(f) {
			set.Put(f, nil)
		}
	}
	out := make([]int, 0, set.Size())
	it := set.Iterator()
	for it.Next() {
		out = append(out, it.Key().(int))
	}
	return out
}
