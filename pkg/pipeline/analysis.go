package pipeline

import (
	"time"

	"github.com/matzehuels/kagome/pkg/frame"
	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/polyedge"
	"github.com/matzehuels/kagome/pkg/singular"
	"github.com/matzehuels/kagome/pkg/strand"
	"github.com/matzehuels/kagome/pkg/weave"
)

// Analysis is the document produced for one mesh: everything derived from
// the traced polyedges. It is what the API stores and serves.
type Analysis struct {
	ID        string    `json:"id" bson:"_id"`
	MeshHash  string    `json:"mesh_hash" bson:"mesh_hash"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Converted bool      `json:"converted" bson:"converted"`
	Level     int       `json:"level" bson:"level"`
	Stats     Stats     `json:"stats" bson:"stats"`

	Polyedges []polyedge.Polyedge `json:"polyedges" bson:"polyedges"`
	Closed    []bool              `json:"closed" bson:"closed"`
	Singular  singular.Report     `json:"singular" bson:"singular"`
	Frames    [][]frame.Frame     `json:"frames,omitempty" bson:"frames,omitempty"`
	Weave     *weave.Result       `json:"weave" bson:"weave"`
	Strands   *strand.Graph       `json:"strands" bson:"strands"`
}

// Analyze runs every analysis that depends only on the mesh and its traced
// polyedges. Frames are included when withFrames is set.
func Analyze(m *mesh.Mesh, set *polyedge.Set, withFrames bool) (*Analysis, error) {
	w, err := weave.Compute(m, set)
	if err != nil {
		return nil, err
	}
	g, err := strand.Build(m, set)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Polyedges: set.Polyedges,
		Closed:    make([]bool, set.Len()),
		Singular:  singular.Classify(m),
		Weave:     w,
		Strands:   g,
	}
	for i, pe := range set.Polyedges {
		a.Closed[i] = pe.IsClosed()
	}
	if withFrames {
		a.Frames = frame.All(m, set)
	}
	a.Stats = Stats{
		Vertices:    m.NumberOfVertices(),
		Edges:       m.NumberOfEdges(),
		Faces:       m.NumberOfFaces(),
		Polyedges:   set.Len(),
		Closed:      set.Closed(),
		Singular:    len(a.Singular.Singular),
		Conflicts:   len(w.Conflicts),
		StrandEdges: len(g.Edges),
	}
	return a, nil
}

// Summary is the short listing form of an analysis.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	MeshHash  string    `json:"mesh_hash" bson:"mesh_hash"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Polyedges int       `json:"polyedges" bson:"polyedges"`
	Singular  int       `json:"singular" bson:"singular"`
}

// Summarize returns the listing form of a.
func (a *Analysis) Summarize() Summary {
	return Summary{
		ID:        a.ID,
		MeshHash:  a.MeshHash,
		CreatedAt: a.CreatedAt,
		Polyedges: a.Stats.Polyedges,
		Singular:  a.Stats.Singular,
	}
}
