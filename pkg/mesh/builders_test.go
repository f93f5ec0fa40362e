package mesh

import (
	"testing"

	"github.com/matzehuels/kagome/pkg/errors"
)

func TestBuilders(t *testing.T) {
	tests := []struct {
		name                   string
		build                  func() (*Mesh, error)
		vertices, edges, faces int
	}{
		{"Grid", func() (*Mesh, error) { return Grid(2, 3) }, 12, 17, 6},
		{"TriangleGrid", func() (*Mesh, error) { return TriangleGrid(2, 2) }, 9, 16, 8},
		{"QuadTorus", func() (*Mesh, error) { return QuadTorus(4, 5) }, 20, 40, 20},
		{"TriangleTorus", func() (*Mesh, error) { return TriangleTorus(4, 4) }, 16, 48, 32},
		{"Rosette", func() (*Mesh, error) { return Rosette(5) }, 10, 15, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.build()
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if got := m.NumberOfVertices(); got != tt.vertices {
				t.Errorf("vertices = %d, want %d", got, tt.vertices)
			}
			if got := m.NumberOfEdges(); got != tt.edges {
				t.Errorf("edges = %d, want %d", got, tt.edges)
			}
			if got := m.NumberOfFaces(); got != tt.faces {
				t.Errorf("faces = %d, want %d", got, tt.faces)
			}
		})
	}
}

func TestTorusHasNoBoundary(t *testing.T) {
	m, err := TriangleTorus(4, 4)
	if err != nil {
		t.Fatalf("TriangleTorus: %v", err)
	}
	for _, e := range m.Edges() {
		if m.IsEdgeOnBoundary(e.U, e.V) {
			t.Fatalf("edge %v on boundary of a closed torus", e)
		}
	}
	for _, v := range m.Vertices() {
		if got := len(m.VertexNeighbors(v)); got != 6 {
			t.Errorf("valence(%d) = %d, want 6", v, got)
		}
	}
}

func TestBuildersRejectSmallSizes(t *testing.T) {
	builds := map[string]func() (*Mesh, error){
		"Grid":          func() (*Mesh, error) { return Grid(0, 2) },
		"TriangleGrid":  func() (*Mesh, error) { return TriangleGrid(2, 0) },
		"QuadTorus":     func() (*Mesh, error) { return QuadTorus(2, 4) },
		"TriangleTorus": func() (*Mesh, error) { return TriangleTorus(4, 2) },
		"Rosette":       func() (*Mesh, error) { return Rosette(2) },
	}
	for name, build := range builds {
		t.Run(name, func(t *testing.T) {
			_, err := build()
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidInput)
			}
		})
	}
}
