package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/observability"
	"github.com/matzehuels/kagome/pkg/pipeline"
	"github.com/matzehuels/kagome/pkg/store"
)

func newTestServer(t *testing.T, mutate func(*pipeline.Config)) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	cfg := pipeline.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s := New(pipeline.NewRunner(nil, nil, logger), store.NewMemoryStore(), cfg, logger)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func meshBody(t *testing.T) func(*mesh.Mesh, error) io.Reader {
	return func(m *mesh.Mesh, err error) io.Reader {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := mesh.WriteJSON(m, &buf); err != nil {
			t.Fatal(err)
		}
		return &buf
	}
}

func do(t *testing.T, method, url string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decodeError(t *testing.T, data []byte) errors.Code {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode error body %q: %v", data, err)
	}
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, data := do(t, http.MethodGet, srv.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body healthBody
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Build.Version == "" {
		t.Errorf("health = %+v", body)
	}
}

func TestAnalysisLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, data := do(t, http.MethodPost, srv.URL+"/v1/analyses?frames=true", meshBody(t)(mesh.Grid(2, 2)))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, data)
	}
	var created pipeline.Analysis
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || len(created.Polyedges) != 6 || len(created.Frames) != 6 {
		t.Fatalf("created = id %q, %d polyedges, %d frame lists", created.ID, len(created.Polyedges), len(created.Frames))
	}
	if loc := resp.Header.Get("Location"); loc != "/v1/analyses/"+created.ID {
		t.Errorf("Location = %q", loc)
	}

	item := srv.URL + "/v1/analyses/" + created.ID

	resp, data = do(t, http.MethodGet, item, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var got pipeline.Analysis
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != created.ID || got.Stats.Polyedges != 6 || got.Strands == nil {
		t.Errorf("get = %+v", got.Stats)
	}

	resp, data = do(t, http.MethodGet, srv.URL+"/v1/analyses", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var list struct {
		Analyses []pipeline.Summary `json:"analyses"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Analyses) != 1 || list.Analyses[0].ID != created.ID {
		t.Errorf("list = %+v", list.Analyses)
	}

	resp, data = do(t, http.MethodGet, item+"/strands.dot?scale=2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dot status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(string(data), "graph strands {") || !strings.Contains(string(data), `pos="2.0000,0.0000!"`) {
		t.Errorf("dot = %s", data)
	}

	resp, _ = do(t, http.MethodDelete, item, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp, data = do(t, http.MethodGet, item, nil)
	if resp.StatusCode != http.StatusNotFound || decodeError(t, data) != errors.ErrCodeNotFound {
		t.Errorf("get after delete = %d %s", resp.StatusCode, data)
	}
}

func TestCreateConverts(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, data := do(t, http.MethodPost, srv.URL+"/v1/analyses?k=0", meshBody(t)(mesh.TriangleTorus(4, 4)))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	var a pipeline.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatal(err)
	}
	if !a.Converted || a.Stats.Vertices != 48 {
		t.Errorf("converted = %v, vertices = %d", a.Converted, a.Stats.Vertices)
	}
	if a.Stats.Closed != a.Stats.Polyedges || a.Stats.Conflicts != 0 {
		t.Errorf("stats = %+v", a.Stats)
	}
}

func TestCreateExplicitParamsOverrideDefaults(t *testing.T) {
	srv := newTestServer(t, func(cfg *pipeline.Config) {
		cfg.Analysis.Level = 1
		cfg.Analysis.Frames = true
	})
	create := func(t *testing.T, query string, body io.Reader) pipeline.Analysis {
		t.Helper()
		resp, data := do(t, http.MethodPost, srv.URL+"/v1/analyses"+query, body)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d: %s", resp.StatusCode, data)
		}
		var a pipeline.Analysis
		if err := json.Unmarshal(data, &a); err != nil {
			t.Fatal(err)
		}
		return a
	}

	t.Run("LevelZero", func(t *testing.T) {
		a := create(t, "?k=0", meshBody(t)(mesh.TriangleTorus(4, 4)))
		if !a.Converted || a.Level != 0 || a.Stats.Vertices != 48 {
			t.Errorf("converted = %v, level = %d, vertices = %d, want true, 0, 48", a.Converted, a.Level, a.Stats.Vertices)
		}
	})

	t.Run("ConfiguredLevel", func(t *testing.T) {
		a := create(t, "?convert=true", meshBody(t)(mesh.TriangleTorus(4, 4)))
		if a.Level != 1 || a.Stats.Vertices != 192 {
			t.Errorf("level = %d, vertices = %d, want 1, 192", a.Level, a.Stats.Vertices)
		}
	})

	t.Run("FramesOff", func(t *testing.T) {
		a := create(t, "?frames=false", meshBody(t)(mesh.Grid(2, 2)))
		if len(a.Frames) != 0 {
			t.Errorf("frames = %d lists, want none", len(a.Frames))
		}
	})

	t.Run("NoConvert", func(t *testing.T) {
		a := create(t, "", meshBody(t)(mesh.Grid(2, 2)))
		if a.Converted || a.Level != 0 || len(a.Frames) != 6 {
			t.Errorf("converted = %v, level = %d, frames = %d, want false, 0, 6", a.Converted, a.Level, len(a.Frames))
		}
	})
}

func TestCreateErrors(t *testing.T) {
	quads := func(t *testing.T) io.Reader { return meshBody(t)(mesh.Grid(1, 1)) }
	tests := []struct {
		name   string
		query  string
		body   func(t *testing.T) io.Reader
		status int
		code   errors.Code
	}{
		{"Garbage", "", func(*testing.T) io.Reader { return strings.NewReader("{") }, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"BadFace", "", func(*testing.T) io.Reader {
			return strings.NewReader(`{"vertices": [[0,0,0],[1,0,0]], "faces": [[0,1]]}`)
		}, http.StatusBadRequest, errors.ErrCodeInvalidMesh},
		{"BadLevel", "?k=x", quads, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"LevelRange", "?k=42", quads, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"BadBool", "?frames=maybe", quads, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"SubdivideQuads", "?k=1", quads, http.StatusBadRequest, errors.ErrCodeInvalidMesh},
	}

	srv := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, http.MethodPost, srv.URL+"/v1/analyses"+tt.query, tt.body(t))
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, data)
			}
			if code := decodeError(t, data); code != tt.code {
				t.Errorf("code = %s, want %s", code, tt.code)
			}
		})
	}
}

func TestCreateBodyLimit(t *testing.T) {
	srv := newTestServer(t, func(cfg *pipeline.Config) { cfg.Server.MaxBodyBytes = 16 })
	resp, _ := do(t, http.MethodPost, srv.URL+"/v1/analyses", meshBody(t)(mesh.Grid(2, 2)))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestListLimit(t *testing.T) {
	srv := newTestServer(t, nil)
	for range 3 {
		if resp, data := do(t, http.MethodPost, srv.URL+"/v1/analyses", meshBody(t)(mesh.Grid(1, 2))); resp.StatusCode != http.StatusCreated {
			t.Fatalf("create: %d %s", resp.StatusCode, data)
		}
	}

	_, data := do(t, http.MethodGet, srv.URL+"/v1/analyses?limit=2", nil)
	var list struct {
		Analyses []pipeline.Summary `json:"analyses"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Analyses) != 2 {
		t.Errorf("limit=2 returned %d", len(list.Analyses))
	}

	resp, _ := do(t, http.MethodGet, srv.URL+"/v1/analyses?limit=0", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d, want 400", resp.StatusCode)
	}
}

type recordingAPIHooks struct {
	observability.NoopAPIHooks
	mu     sync.Mutex
	routes []string
	status []int
}

func (h *recordingAPIHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
	h.status = append(h.status, status)
}

func TestObserveUsesRoutePattern(t *testing.T) {
	hooks := &recordingAPIHooks{}
	observability.SetAPIHooks(hooks)
	t.Cleanup(observability.Reset)

	srv := newTestServer(t, nil)
	do(t, http.MethodGet, srv.URL+"/v1/analyses/6f1c1f4e-8f43-4f7e-9a55-1b2d0c3e4f50", nil)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.routes) != 1 {
		t.Fatalf("responses = %v", hooks.routes)
	}
	if !strings.Contains(hooks.routes[0], "{id}") {
		t.Errorf("route = %q, want the {id} pattern", hooks.routes[0])
	}
	if hooks.status[0] != http.StatusNotFound {
		t.Errorf("status = %d, want 404", hooks.status[0])
	}
}
