package weave

import (
	"slices"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/polyedge"
)

func analyze(t *testing.T) func(*mesh.Mesh, error) (*mesh.Mesh, *polyedge.Set) {
	return func(m *mesh.Mesh, err error) (*mesh.Mesh, *polyedge.Set) {
		t.Helper()
		if err != nil {
			t.Fatalf("build mesh: %v", err)
		}
		set, err := polyedge.NewTracer(m).TraceAll()
		if err != nil {
			t.Fatalf("TraceAll: %v", err)
		}
		return m, set
	}
}

func TestComputeTriangle(t *testing.T) {
	m, set := analyze(t)(mesh.New([]r3.Vec{{X: 0}, {X: 1}, {Y: 1}}, [][]int{{0, 1, 2}}))

	res, err := Compute(m, set)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	want := [][]int{{Over, Under}, {Under, Over}, {Over, Under}}
	for i := range want {
		if !slices.Equal(res.Offsets[i], want[i]) {
			t.Errorf("offsets[%d] = %v, want %v", i, res.Offsets[i], want[i])
		}
	}
	if !res.Consistent() {
		t.Errorf("Conflicts = %v, want none", res.Conflicts)
	}
}

func TestComputeTrihexagonal(t *testing.T) {
	torus, err := mesh.TriangleTorus(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	m, set := analyze(t)(mesh.FromCoarse(torus, 0))

	res, err := Compute(m, set)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if !res.Consistent() {
		t.Errorf("Conflicts = %v, want none", res.Conflicts)
	}
	if len(res.Offsets) != set.Len() {
		t.Fatalf("len(Offsets) = %d, want %d", len(res.Offsets), set.Len())
	}
	for i, offsets := range res.Offsets {
		pe := set.Polyedges[i]
		if len(offsets) != len(pe) {
			t.Errorf("offsets[%d] has %d entries, want %d", i, len(offsets), len(pe))
		}
		for j, s := range offsets {
			if s != Over && s != Under {
				t.Errorf("offsets[%d][%d] = %d, want ±1", i, j, s)
			}
		}
		// The shared start of a closed strand has one sign.
		if offsets[0] != offsets[len(offsets)-1] {
			t.Errorf("offsets[%d] differ at the closing vertex: %v", i, offsets)
		}
	}
}

func TestComputeConflicts(t *testing.T) {
	m, set := analyze(t)(mesh.Grid(2, 2))

	res, err := Compute(m, set)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if res.Consistent() {
		t.Fatal("quad grid should not weave consistently")
	}
	if !slices.ContainsFunc(res.Conflicts, func(c Conflict) bool { return c.Vertex == 4 }) {
		t.Errorf("Conflicts = %v, want one at the center vertex", res.Conflicts)
	}
	for _, c := range res.Conflicts {
		if c.Previous != -c.Current {
			t.Errorf("conflict %+v: previous and current should differ in sign", c)
		}
	}
}

func TestComputeMismatchedSet(t *testing.T) {
	m, err := mesh.Grid(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Compute(m, polyedge.NewSet([]polyedge.Polyedge{{1, 0}}))
	if !errors.Is(err, errors.ErrCodeInvalidMesh) {
		t.Errorf("Compute() error = %v, want %s", err, errors.ErrCodeInvalidMesh)
	}
}
