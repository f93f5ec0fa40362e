package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/kagome/pkg/errors"
)

const (
	minGridDim  = 1
	minTorusDim = 3
	minPolygon  = 3

	torusMajor = 2.0
	torusMinor = 1.0
)

// Grid returns a planar rows×cols grid of unit quads in the XY plane.
// Vertex (r, c) has id r*(cols+1)+c and sits at (c, r, 0); faces are
// counter-clockwise in row-major order.
func Grid(rows, cols int) (*Mesh, error) {
	if rows < minGridDim || cols < minGridDim {
		return nil, errors.New(errors.ErrCodeInvalidInput, "grid: rows=%d, cols=%d (each must be >= %d)", rows, cols, minGridDim)
	}
	vertices, id := gridVertices(rows, cols)
	faces := make([][]int, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			faces = append(faces, []int{id(r, c), id(r, c+1), id(r+1, c+1), id(r+1, c)})
		}
	}
	return New(vertices, faces)
}

// TriangleGrid is [Grid] with every quad split along its rising diagonal.
func TriangleGrid(rows, cols int) (*Mesh, error) {
	if rows < minGridDim || cols < minGridDim {
		return nil, errors.New(errors.ErrCodeInvalidInput, "triangle grid: rows=%d, cols=%d (each must be >= %d)", rows, cols, minGridDim)
	}
	vertices, id := gridVertices(rows, cols)
	faces := make([][]int, 0, 2*rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			a, b, cc, d := id(r, c), id(r, c+1), id(r+1, c+1), id(r+1, c)
			faces = append(faces, []int{a, b, cc}, []int{a, cc, d})
		}
	}
	return New(vertices, faces)
}

func gridVertices(rows, cols int) ([]r3.Vec, func(r, c int) int) {
	vertices := make([]r3.Vec, 0, (rows+1)*(cols+1))
	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			vertices = append(vertices, r3.Vec{X: float64(c), Y: float64(r)})
		}
	}
	return vertices, func(r, c int) int { return r*(cols+1) + c }
}

// QuadTorus returns an n×m quad mesh embedded as a ring torus. It has no
// boundary and every vertex is 4-valent.
func QuadTorus(n, m int) (*Mesh, error) {
	if n < minTorusDim || m < minTorusDim {
		return nil, errors.New(errors.ErrCodeInvalidInput, "torus: n=%d, m=%d (each must be >= %d)", n, m, minTorusDim)
	}
	vertices, id := torusVertices(n, m)
	faces := make([][]int, 0, n*m)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			faces = append(faces, []int{id(i, j), id(i+1, j), id(i+1, j+1), id(i, j+1)})
		}
	}
	return New(vertices, faces)
}

// TriangleTorus is [QuadTorus] with every quad split into two triangles, so
// every vertex is 6-valent. Its [Ambo] is a closed trihexagonal tiling.
func TriangleTorus(n, m int) (*Mesh, error) {
	if n < minTorusDim || m < minTorusDim {
		return nil, errors.New(errors.ErrCodeInvalidInput, "torus: n=%d, m=%d (each must be >= %d)", n, m, minTorusDim)
	}
	vertices, id := torusVertices(n, m)
	faces := make([][]int, 0, 2*n*m)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			a, b, c, d := id(i, j), id(i+1, j), id(i+1, j+1), id(i, j+1)
			faces = append(faces, []int{a, b, c}, []int{a, c, d})
		}
	}
	return New(vertices, faces)
}

func torusVertices(n, m int) ([]r3.Vec, func(i, j int) int) {
	vertices := make([]r3.Vec, 0, n*m)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		for j := 0; j < m; j++ {
			phi := 2 * math.Pi * float64(j) / float64(m)
			rho := torusMajor + torusMinor*math.Cos(phi)
			vertices = append(vertices, r3.Vec{
				X: rho * math.Cos(theta),
				Y: rho * math.Sin(theta),
				Z: torusMinor * math.Sin(phi),
			})
		}
	}
	return vertices, func(i, j int) int { return (i%n)*m + j%m }
}

// Rosette returns a regular k-gon (face 0, vertices 0..k-1) with one
// triangle attached outside each of its edges (faces 1..k, tip vertices
// k..2k-1).
func Rosette(k int) (*Mesh, error) {
	if k < minPolygon {
		return nil, errors.New(errors.ErrCodeInvalidInput, "rosette: k=%d (must be >= %d)", k, minPolygon)
	}
	vertices := make([]r3.Vec, 0, 2*k)
	for i := 0; i < k; i++ {
		a := 2 * math.Pi * float64(i) / float64(k)
		vertices = append(vertices, r3.Vec{X: math.Cos(a), Y: math.Sin(a)})
	}
	for i := 0; i < k; i++ {
		a := 2 * math.Pi * (float64(i) + 0.5) / float64(k)
		vertices = append(vertices, r3.Vec{X: 2 * math.Cos(a), Y: 2 * math.Sin(a)})
	}

	center := make([]int, k)
	for i := range center {
		center[i] = i
	}
	faces := [][]int{center}
	for i := 0; i < k; i++ {
		faces = append(faces, []int{(i + 1) % k, i, k + i})
	}
	return New(vertices, faces)
}
