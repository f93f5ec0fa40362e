package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kagome/pkg/cache"
	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/strand"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func mustMesh(t *testing.T) func(*mesh.Mesh, error) *mesh.Mesh {
	return func(m *mesh.Mesh, err error) *mesh.Mesh {
		t.Helper()
		if err != nil {
			t.Fatalf("build mesh: %v", err)
		}
		return m
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ValidateFormat(%q) code = %v, want INVALID_INPUT", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateLevel(t *testing.T) {
	tests := []struct {
		level   int
		wantErr bool
	}{
		{0, false},
		{3, false},
		{MaxLevel, false},
		{-1, true},
		{MaxLevel + 1, true},
	}

	for _, tt := range tests {
		err := ValidateLevel(tt.level)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateLevel(%d) error = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	grid := mustMesh(t)(mesh.Grid(2, 2))

	t.Run("Defaults", func(t *testing.T) {
		opts := Options{Mesh: grid}
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatalf("ValidateAndSetDefaults: %v", err)
		}
		if !slices.Equal(opts.Formats, []string{FormatJSON}) {
			t.Errorf("Formats = %v, want [json]", opts.Formats)
		}
		if opts.Scale != DefaultScale {
			t.Errorf("Scale = %v, want %v", opts.Scale, DefaultScale)
		}
		if opts.Logger == nil {
			t.Error("Logger should be set")
		}
	})

	t.Run("Dedupe", func(t *testing.T) {
		opts := Options{Mesh: grid, Formats: []string{"dot", "json", "dot"}}
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatalf("ValidateAndSetDefaults: %v", err)
		}
		if !slices.Equal(opts.Formats, []string{"dot", "json"}) {
			t.Errorf("Formats = %v, want [dot json]", opts.Formats)
		}
	})

	errTests := []struct {
		name string
		opts Options
	}{
		{"NoMesh", Options{}},
		{"LevelWithoutConvert", Options{Mesh: grid, Level: 1}},
		{"NegativeLevel", Options{Mesh: grid, Convert: true, Level: -1}},
		{"BadFormat", Options{Mesh: grid, Formats: []string{"gif"}}},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestExecuteGrid(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, quietLogger())
	defer runner.Close()

	opts := Options{
		Mesh:    mustMesh(t)(mesh.Grid(2, 2)),
		Formats: []string{FormatJSON, FormatDOT},
		Frames:  true,
	}
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.ID == "" || res.MeshHash == "" {
		t.Errorf("ID = %q, MeshHash = %q, want both set", res.ID, res.MeshHash)
	}
	if res.Stats.Vertices != 9 || res.Stats.Edges != 12 || res.Stats.Faces != 4 {
		t.Errorf("Stats sizes = %d/%d/%d, want 9/12/4", res.Stats.Vertices, res.Stats.Edges, res.Stats.Faces)
	}
	if res.Stats.Polyedges != 6 || res.Stats.Closed != 0 {
		t.Errorf("Polyedges = %d (closed %d), want 6 (closed 0)", res.Stats.Polyedges, res.Stats.Closed)
	}
	if res.CacheInfo != (CacheInfo{}) {
		t.Errorf("first run CacheInfo = %+v, want no hits", res.CacheInfo)
	}

	if len(res.Analysis.Frames) != 6 {
		t.Errorf("Frames = %d lists, want 6", len(res.Analysis.Frames))
	}
	if res.Analysis.ID != res.ID || res.Analysis.MeshHash != res.MeshHash {
		t.Error("analysis should carry the run id and mesh hash")
	}

	var g strand.Graph
	if err := json.Unmarshal(res.Artifacts[FormatJSON], &g); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if len(g.Nodes) != 6 {
		t.Errorf("strand nodes = %d, want 6", len(g.Nodes))
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "graph strands {") {
		t.Errorf("dot artifact = %q", res.Artifacts[FormatDOT])
	}

	again, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !again.CacheInfo.TraceHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want trace and render hits", again.CacheInfo)
	}
	if again.ID == res.ID {
		t.Error("each run should get a fresh id")
	}
	if again.MeshHash != res.MeshHash {
		t.Error("mesh hash should be stable")
	}
	if string(again.Artifacts[FormatDOT]) != string(res.Artifacts[FormatDOT]) {
		t.Error("cached dot artifact differs")
	}

	opts.Refresh = true
	fresh, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if fresh.CacheInfo != (CacheInfo{}) {
		t.Errorf("refresh CacheInfo = %+v, want no hits", fresh.CacheInfo)
	}
}

func TestExecuteConvert(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, quietLogger())

	opts := Options{
		Mesh:    mustMesh(t)(mesh.TriangleTorus(4, 4)),
		Convert: true,
		Formats: []string{FormatDOT},
	}
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Mesh.NumberOfVertices() != 48 {
		t.Errorf("kagome vertices = %d, want 48", res.Mesh.NumberOfVertices())
	}
	if res.Stats.Closed != res.Stats.Polyedges {
		t.Errorf("closed = %d, want all %d polyedges closed", res.Stats.Closed, res.Stats.Polyedges)
	}
	if res.Stats.Conflicts != 0 {
		t.Errorf("conflicts = %d, want 0", res.Stats.Conflicts)
	}
	if !res.Analysis.Converted {
		t.Error("analysis should be marked converted")
	}

	again, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	want := CacheInfo{MeshHit: true, TraceHit: true, RenderHit: true}
	if again.CacheInfo != want {
		t.Errorf("second run CacheInfo = %+v, want %+v", again.CacheInfo, want)
	}
}

func TestExecuteInvalidCachedSet(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, quietLogger())
	m := mustMesh(t)(mesh.Grid(2, 2))

	data, _ := m.MarshalJSON()
	key := runner.Keyer.PolyedgeKey(cache.Hash(data))
	if err := c.Set(ctx, key, []byte(`[[0,1]]`), time.Hour); err != nil {
		t.Fatal(err)
	}

	res, err := runner.Execute(ctx, Options{Mesh: m})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.CacheInfo.TraceHit {
		t.Error("a partial cached set must not be used")
	}
	if res.Set.Len() != 6 {
		t.Errorf("polyedges = %d, want 6", res.Set.Len())
	}
}

func TestExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(nil, nil, quietLogger())
	_, err := runner.Execute(ctx, Options{Mesh: mustMesh(t)(mesh.Grid(1, 1))})
	if err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestAnalyzeSummary(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	res, err := runner.Execute(context.Background(), Options{Mesh: mustMesh(t)(mesh.Rosette(7))})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	a := res.Analysis
	if !slices.Equal(a.Singular.Negative, []int{0}) {
		t.Errorf("Negative = %v, want [0]", a.Singular.Negative)
	}
	s := a.Summarize()
	if s.ID != res.ID || s.Singular != 1 || s.Polyedges != res.Stats.Polyedges {
		t.Errorf("Summarize() = %+v", s)
	}
	if a.Frames != nil {
		t.Error("frames should be omitted unless requested")
	}
	if !strings.Contains(res.Stats.String(), "1 singular faces") {
		t.Errorf("Stats.String() = %q", res.Stats.String())
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("File", func(t *testing.T) {
		path := write("full.toml", `
[analysis]
level = 2
formats = ["json", "svg"]
frames = true

[cache]
backend = "redis"
prefix = "test:"
[cache.redis]
url = "redis://localhost:6379/1"

[server]
addr = ":9090"
request_timeout = "45s"
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Analysis.Level != 2 || !cfg.Analysis.Frames {
			t.Errorf("Analysis = %+v", cfg.Analysis)
		}
		if !slices.Equal(cfg.Analysis.Formats, []string{"json", "svg"}) {
			t.Errorf("Formats = %v", cfg.Analysis.Formats)
		}
		if cfg.Cache.Backend != BackendRedis || cfg.Cache.Redis.URL != "redis://localhost:6379/1" {
			t.Errorf("Cache = %+v", cfg.Cache)
		}
		if cfg.Server.Addr != ":9090" || cfg.Server.RequestTimeout != 45*time.Second {
			t.Errorf("Server = %+v", cfg.Server)
		}
		// Untouched sections keep their defaults.
		if cfg.Store.Backend != BackendMemory || cfg.Analysis.Scale != DefaultScale {
			t.Errorf("defaults lost: store=%q scale=%v", cfg.Store.Backend, cfg.Analysis.Scale)
		}
	})

	t.Run("DefaultPathMissing", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Cache.Backend != BackendFile {
			t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
		}
	})

	t.Run("DefaultPath", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", home)
		want := filepath.Join(home, "kagome", "config.toml")
		if got := DefaultConfigPath(); got != want {
			t.Errorf("DefaultConfigPath() = %q, want %q", got, want)
		}
	})

	errTests := []struct {
		name string
		body string
	}{
		{"Syntax", "[cache\n"},
		{"UnknownKey", "[cache]\ncolour = \"red\"\n"},
		{"BadCacheBackend", "[cache]\nbackend = \"memcached\"\n"},
		{"MongoWithoutURI", "[store]\nbackend = \"mongo\"\n"},
		{"BadLevel", "[analysis]\nlevel = 99\n"},
		{"BadFormat", "[analysis]\nformats = [\"gif\"]\n"},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(write(tt.name+".toml", tt.body))
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("LoadConfig error = %v, want INVALID_INPUT", err)
			}
		})
	}

	t.Run("ExplicitMissing", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(dir, "absent.toml")); err == nil {
			t.Error("explicit missing path should fail")
		}
	})
}

func TestAnalysisConfigOptions(t *testing.T) {
	defaults := AnalysisConfig{Level: 2, Formats: []string{"svg"}, Scale: 3, Frames: true}
	no, yes := false, true
	zero, one := 0, 1
	half := 0.5

	tests := []struct {
		name string
		o    Overrides
		want Options
	}{
		{"Defaults", Overrides{}, Options{Formats: []string{"svg"}, Scale: 3, Frames: true}},
		{"Convert", Overrides{Convert: &yes}, Options{Convert: true, Level: 2, Formats: []string{"svg"}, Scale: 3, Frames: true}},
		{"ExplicitZeroLevel", Overrides{Level: &zero}, Options{Convert: true, Formats: []string{"svg"}, Scale: 3, Frames: true}},
		{"ExplicitLevel", Overrides{Level: &one}, Options{Convert: true, Level: 1, Formats: []string{"svg"}, Scale: 3, Frames: true}},
		{"FramesOff", Overrides{Frames: &no}, Options{Formats: []string{"svg"}, Scale: 3}},
		{"Render", Overrides{Formats: []string{"dot"}, Scale: &half, Detailed: &yes}, Options{Formats: []string{"dot"}, Scale: 0.5, Detailed: true, Frames: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := defaults.Options(tt.o)
			if got.Convert != tt.want.Convert || got.Level != tt.want.Level ||
				got.Scale != tt.want.Scale || got.Detailed != tt.want.Detailed || got.Frames != tt.want.Frames ||
				!slices.Equal(got.Formats, tt.want.Formats) {
				t.Errorf("Options() = %+v, want %+v", got, tt.want)
			}
		})
	}

	// A non-converting run must validate even with a configured level.
	opts := defaults.Options(Overrides{})
	opts.Mesh = mustMesh(t)(mesh.Grid(1, 1))
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("ValidateAndSetDefaults() = %v", err)
	}

	// The defaults' formats are copied, not shared.
	opts.Formats[0] = "png"
	if defaults.Formats[0] != "svg" {
		t.Error("Options() aliases the configured formats")
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	c, keyer, err := OpenCache(ctx, CacheConfig{Backend: BackendFile, Dir: t.TempDir(), Prefix: "t:"})
	if err != nil {
		t.Fatalf("OpenCache(file): %v", err)
	}
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("cache = %T, want *cache.FileCache", c)
	}
	if got := keyer.PolyedgeKey("abc"); !strings.HasPrefix(got, "t:") {
		t.Errorf("PolyedgeKey = %q, want t: prefix", got)
	}

	c, _, err = OpenCache(ctx, CacheConfig{Backend: BackendNone})
	if err != nil {
		t.Fatalf("OpenCache(none): %v", err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("cache = %T, want cache.NullCache", c)
	}

	if _, _, err := OpenCache(ctx, CacheConfig{Backend: "memcached"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("OpenCache(memcached) error = %v, want INVALID_INPUT", err)
	}
}
