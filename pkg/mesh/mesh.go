package mesh

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/kagome/pkg/errors"
)

// NoFace marks the outside of a boundary halfedge.
const NoFace = -1

// Edge is an undirected mesh edge, normalised so that U < V.
type Edge struct {
	U int `json:"u"`
	V int `json:"v"`
}

// NewEdge returns the normalised edge between u and v.
func NewEdge(u, v int) Edge {
	if u > v {
		u, v = v, u
	}
	return Edge{U: u, V: v}
}

// Topology is the read-only capability set the analysis packages consume.
// Implementations must return sequences in a stable, reproducible order.
type Topology interface {
	// NumberOfVertices returns the vertex count, used as the tracing bound.
	NumberOfVertices() int
	// Vertices returns all vertex ids in ascending order.
	Vertices() []int
	// Faces returns all face ids in ascending order.
	Faces() []int
	// Edges returns all undirected edges in ascending (U, V) order.
	Edges() []Edge
	// VertexNeighbors returns the neighbours of v in cyclic rotational order.
	VertexNeighbors(v int) []int
	// FaceVertices returns the cyclic vertex list of f.
	FaceVertices(f int) []int
	// FaceNeighbors returns the faces sharing an edge with f.
	FaceNeighbors(f int) []int
	// IsEdgeOnBoundary reports whether u-v has a face on one side only.
	IsEdgeOnBoundary(u, v int) bool
	// VertexCoordinates returns the position of v.
	VertexCoordinates(v int) r3.Vec
	// VertexNormal returns the unit normal at v.
	VertexNormal(v int) r3.Vec
}

// Mesh is an immutable polygon mesh backed by a halfedge map.
//
// Vertex and face ids are dense indices into the slices given to [New].
// All derived data (ordered neighbours, edges, normals) is computed once at
// construction, so a Mesh is safe for concurrent readers.
type Mesh struct {
	vertices []r3.Vec
	faces    [][]int

	// halfedge[u][v] is the face on the left of u->v, or NoFace.
	halfedge []map[int]int
	// nbrs holds neighbours in insertion order.
	nbrs    [][]int
	ordered [][]int
	edges   []Edge
	normals []r3.Vec
}

// Ensure Mesh implements Topology.
var _ Topology = (*Mesh)(nil)

// New builds a mesh from vertex positions and cyclic face vertex lists.
//
// Returns an INVALID_MESH error if a face has fewer than 3 vertices, repeats a
// vertex, references an unknown vertex, or if the same directed halfedge is
// used by two faces (inconsistent orientation or non-manifold edge).
func New(vertices []r3.Vec, faces [][]int) (*Mesh, error) {
	n := len(vertices)
	m := &Mesh{
		vertices: slices.Clone(vertices),
		faces:    make([][]int, len(faces)),
		halfedge: make([]map[int]int, n),
		nbrs:     make([][]int, n),
	}
	for i := range m.halfedge {
		m.halfedge[i] = make(map[int]int)
	}

	for f, face := range faces {
		if err := errors.ValidateFace(face, n); err != nil {
			return nil, fmt.Errorf("face %d: %w", f, err)
		}
		m.faces[f] = slices.Clone(face)
		for i, u := range face {
			v := face[(i+1)%len(face)]
			if other, ok := m.halfedge[u][v]; ok && other != NoFace {
				return nil, errors.New(errors.ErrCodeInvalidMesh,
					"halfedge %d->%d used by faces %d and %d", u, v, other, f)
			}
			m.link(u, v, f)
			if _, ok := m.halfedge[v][u]; !ok {
				m.link(v, u, NoFace)
			}
		}
	}

	m.ordered = make([][]int, n)
	for v := range m.ordered {
		m.ordered[v] = m.orderNeighbors(v)
	}
	m.edges = m.collectEdges()
	m.normals = m.vertexNormals()
	return m, nil
}

func (m *Mesh) link(u, v, f int) {
	if _, ok := m.halfedge[u][v]; !ok {
		m.nbrs[u] = append(m.nbrs[u], v)
	}
	m.halfedge[u][v] = f
}

// orderNeighbors walks the fan around v. On the boundary the walk starts at
// the neighbour across the outside halfedge so the fan is not cut in two.
func (m *Mesh) orderNeighbors(v int) []int {
	nbrs := m.nbrs[v]
	if len(nbrs) < 2 {
		return slices.Clone(nbrs)
	}

	start := nbrs[0]
	for _, n := range nbrs {
		if m.halfedge[v][n] == NoFace {
			start = n
			break
		}
	}

	ordered := []int{start}
	f := m.halfedge[start][v]
	for i := 0; i < len(nbrs) && f != NoFace; i++ {
		next := m.faceVertexAfter(f, v)
		if next == start {
			break
		}
		ordered = append(ordered, next)
		f = m.halfedge[next][v]
	}
	return ordered
}

func (m *Mesh) faceVertexAfter(f, v int) int {
	face := m.faces[f]
	i := slices.Index(face, v)
	return face[(i+1)%len(face)]
}

func (m *Mesh) collectEdges() []Edge {
	var edges []Edge
	for u, nbrs := range m.nbrs {
		for _, v := range nbrs {
			if u < v {
				edges = append(edges, Edge{U: u, V: v})
			}
		}
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.U != b.U {
			return a.U - b.U
		}
		return a.V - b.V
	})
	return edges
}

// NumberOfVertices returns the vertex count.
func (m *Mesh) NumberOfVertices() int { return len(m.vertices) }

// NumberOfFaces returns the face count.
func (m *Mesh) NumberOfFaces() int { return len(m.faces) }

// NumberOfEdges returns the undirected edge count.
func (m *Mesh) NumberOfEdges() int { return len(m.edges) }

// Vertices returns all vertex ids in ascending order.
func (m *Mesh) Vertices() []int { return ids(len(m.vertices)) }

// Faces returns all face ids in ascending order.
func (m *Mesh) Faces() []int { return ids(len(m.faces)) }

// Edges returns a copy of all undirected edges in ascending (U, V) order.
func (m *Mesh) Edges() []Edge { return slices.Clone(m.edges) }

// VertexNeighbors returns the neighbours of v in cyclic rotational order.
// The returned slice must not be modified.
func (m *Mesh) VertexNeighbors(v int) []int { return m.ordered[v] }

// VertexValence returns the number of edges incident to v.
func (m *Mesh) VertexValence(v int) int { return len(m.nbrs[v]) }

// FaceVertices returns the cyclic vertex list of f.
// The returned slice must not be modified.
func (m *Mesh) FaceVertices(f int) []int { return m.faces[f] }

// FaceNeighbors returns the faces sharing an edge with f, in face order,
// without duplicates.
func (m *Mesh) FaceNeighbors(f int) []int {
	face := m.faces[f]
	var out []int
	for i, u := range face {
		v := face[(i+1)%len(face)]
		nbr := m.halfedge[v][u]
		if nbr != NoFace && nbr != f && !slices.Contains(out, nbr) {
			out = append(out, nbr)
		}
	}
	return out
}

// VertexFaces returns the faces incident to v.
func (m *Mesh) VertexFaces(v int) []int {
	var out []int
	for _, n := range m.nbrs[v] {
		if f := m.halfedge[v][n]; f != NoFace && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// HasEdge reports whether u and v are adjacent.
func (m *Mesh) HasEdge(u, v int) bool {
	if u < 0 || u >= len(m.halfedge) {
		return false
	}
	_, ok := m.halfedge[u][v]
	return ok
}

// IsEdgeOnBoundary reports whether the edge u-v has a face on one side only.
// Returns false for vertex pairs that are not edges.
func (m *Mesh) IsEdgeOnBoundary(u, v int) bool {
	if !m.HasEdge(u, v) {
		return false
	}
	return m.halfedge[u][v] == NoFace || m.halfedge[v][u] == NoFace
}

// IsVertexOnBoundary reports whether v touches a boundary edge.
func (m *Mesh) IsVertexOnBoundary(v int) bool {
	for _, n := range m.nbrs[v] {
		if m.IsEdgeOnBoundary(v, n) {
			return true
		}
	}
	return false
}

// VertexCoordinates returns the position of v.
func (m *Mesh) VertexCoordinates(v int) r3.Vec { return m.vertices[v] }

// VertexNormal returns the unit normal at v: the normalised sum of the unit
// normals of its incident faces.
func (m *Mesh) VertexNormal(v int) r3.Vec { return m.normals[v] }

// ToVerticesAndFaces returns copies of the positions and face lists.
func (m *Mesh) ToVerticesAndFaces() ([]r3.Vec, [][]int) {
	faces := make([][]int, len(m.faces))
	for i, f := range m.faces {
		faces[i] = slices.Clone(f)
	}
	return slices.Clone(m.vertices), faces
}

func ids(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
