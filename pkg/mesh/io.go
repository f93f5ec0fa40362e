package mesh

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/kagome/pkg/errors"
)

// document is the JSON wire format for meshes:
//
//	{
//	  "vertices": [[0, 0, 0], [1, 0, 0], [0, 1, 0]],
//	  "faces": [[0, 1, 2]]
//	}
type document struct {
	Vertices [][3]float64 `json:"vertices"`
	Faces    [][]int      `json:"faces"`
}

// ReadJSON decodes a mesh document from r and builds the mesh.
// Decoding failures are INVALID_FORMAT errors; topology failures are
// INVALID_MESH errors from [New]. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Mesh, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode mesh")
	}
	vertices := make([]r3.Vec, len(doc.Vertices))
	for i, p := range doc.Vertices {
		vertices[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	return New(vertices, doc.Faces)
}

// ReadFile reads a mesh document from path.
func ReadFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSON encodes m as an indented mesh document.
func WriteJSON(m *Mesh, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDocument(m)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes m as a mesh document to path.
func WriteFile(m *Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(m, f)
}

// MarshalJSON returns the compact mesh document. The encoding is
// deterministic, so its hash identifies the mesh for caching.
func (m *Mesh) MarshalJSON() ([]byte, error) {
	return json.Marshal(toDocument(m))
}

// UnmarshalMesh decodes a mesh document from bytes.
func UnmarshalMesh(data []byte) (*Mesh, error) {
	return ReadJSON(bytes.NewReader(data))
}

func toDocument(m *Mesh) document {
	doc := document{
		Vertices: make([][3]float64, len(m.vertices)),
		Faces:    m.faces,
	}
	for i, p := range m.vertices {
		doc.Vertices[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return doc
}
