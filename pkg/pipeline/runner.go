package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/kagome/pkg/cache"
	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/observability"
	"github.com/matzehuels/kagome/pkg/polyedge"
)

// Runner executes the pipeline against a cache. It keeps no per-run state,
// so one Runner may serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner returns a runner. A nil cache disables caching and a nil keyer
// uses [cache.DefaultKeyer].
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs all stages.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	res := &Result{ID: uuid.NewString()}
	hooks := observability.Pipeline()

	m := opts.Mesh
	if opts.Convert {
		start := time.Now()
		hooks.OnStageStart(ctx, observability.StageConvert)
		converted, hit, err := r.ConvertWithCacheInfo(ctx, m, opts.Level, opts.Refresh)
		res.Stats.ConvertTime = time.Since(start)
		hooks.OnStageComplete(ctx, observability.StageConvert, vertexCount(converted), res.Stats.ConvertTime, err)
		if err != nil {
			return nil, fmt.Errorf("convert: %w", err)
		}
		m = converted
		res.CacheInfo.MeshHit = hit
		r.Logger.Info("built kagome mesh",
			"level", opts.Level,
			"vertices", m.NumberOfVertices(),
			"faces", m.NumberOfFaces(),
			"cached", hit,
			"duration", res.Stats.ConvertTime)
	}
	res.Mesh = m

	data, err := m.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("hash mesh: %w", err)
	}
	res.MeshHash = cache.Hash(data)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	hooks.OnStageStart(ctx, observability.StageTrace)
	set, hit, err := r.TraceWithCacheInfo(ctx, m, res.MeshHash, opts.Refresh)
	res.Stats.TraceTime = time.Since(start)
	hooks.OnStageComplete(ctx, observability.StageTrace, setLen(set), res.Stats.TraceTime, err)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	res.Set = set
	res.CacheInfo.TraceHit = hit
	r.Logger.Info("traced polyedges",
		"polyedges", set.Len(),
		"closed", set.Closed(),
		"cached", hit,
		"duration", res.Stats.TraceTime)

	start = time.Now()
	hooks.OnStageStart(ctx, observability.StageAnalyze)
	a, err := Analyze(m, set, opts.Frames)
	analyzeTime := time.Since(start)
	hooks.OnStageComplete(ctx, observability.StageAnalyze, setLen(set), analyzeTime, err)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	a.ID = res.ID
	a.MeshHash = res.MeshHash
	a.CreatedAt = time.Now().UTC()
	a.Converted = opts.Convert
	a.Level = opts.Level
	res.Analysis = a
	res.Graph = a.Strands

	if n := len(a.Weave.Conflicts); n > 0 {
		hooks.OnWeaveConflicts(ctx, n)
		first := a.Weave.Conflicts[0]
		r.Logger.Warn("inconsistent weave",
			"conflicts", n,
			"vertex", first.Vertex,
			"polyedge", first.Polyedge,
			"face", first.Face)
	}
	if len(a.Singular.Singular) > 0 {
		r.Logger.Debug("singular faces", "faces", a.Singular.Singular, "negative", a.Singular.Negative)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start = time.Now()
	hooks.OnStageStart(ctx, observability.StageRender)
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, res, opts)
	res.Stats.RenderTime = time.Since(start)
	hooks.OnStageComplete(ctx, observability.StageRender, len(artifacts), res.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Artifacts = artifacts
	res.CacheInfo.RenderHit = hit
	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", res.Stats.RenderTime)

	stats := a.Stats
	stats.ConvertTime = res.Stats.ConvertTime
	stats.TraceTime = res.Stats.TraceTime
	stats.AnalyzeTime = analyzeTime
	stats.RenderTime = res.Stats.RenderTime
	res.Stats = stats
	a.Stats = stats
	return res, nil
}

// ConvertWithCacheInfo builds the kagome mesh of coarse at level and reports
// whether it came from the cache.
func (r *Runner) ConvertWithCacheInfo(ctx context.Context, coarse *mesh.Mesh, level int, refresh bool) (*mesh.Mesh, bool, error) {
	data, err := coarse.MarshalJSON()
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.MeshKey(cache.Hash(data), level)

	if !refresh {
		if cached, ok := r.lookup(ctx, key, "mesh"); ok {
			if m, err := mesh.UnmarshalMesh(cached); err == nil {
				return m, true, nil
			}
			r.Logger.Debug("discarding unreadable cached mesh", "key", key)
		}
	}

	m, err := mesh.FromCoarse(coarse, level)
	if err != nil {
		return nil, false, err
	}
	if out, err := m.MarshalJSON(); err == nil {
		r.store(ctx, key, "mesh", out, cache.MeshTTL)
	}
	return m, false, nil
}

// TraceWithCacheInfo traces m and reports whether the polyedges came from
// the cache. Cached sets are checked against the mesh before use.
func (r *Runner) TraceWithCacheInfo(ctx context.Context, m *mesh.Mesh, meshHash string, refresh bool) (*polyedge.Set, bool, error) {
	key := r.Keyer.PolyedgeKey(meshHash)

	if !refresh {
		if cached, ok := r.lookup(ctx, key, "polyedges"); ok {
			var set polyedge.Set
			if err := json.Unmarshal(cached, &set); err == nil && set.CheckPartition(m) == nil {
				return &set, true, nil
			}
			r.Logger.Warn("discarding invalid cached polyedges", "key", key)
		}
	}

	set, err := polyedge.NewTracer(m).TraceAll()
	if err != nil {
		return nil, false, err
	}
	if out, err := json.Marshal(set); err == nil {
		r.store(ctx, key, "polyedges", out, cache.PolyedgeTTL)
	}
	return set, false, nil
}

// RenderWithCacheInfo produces the requested artifacts for res. The render
// counts as a cache hit only if every format was cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *Result, opts Options) (map[string][]byte, bool, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(res.MeshHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, ok := r.lookup(ctx, key, "artifact"); ok {
				artifacts[format] = data
				continue
			}
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, res.Graph, opts.StrandOptions(), missing)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(res.MeshHash, opts.ArtifactKeyOpts(format))
		r.store(ctx, key, "artifact", data, cache.ArtifactTTL)
	}
	return artifacts, false, nil
}

// Close closes the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) lookup(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

// store writes to the cache. Failures only cost a future recomputation.
func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func vertexCount(m *mesh.Mesh) int {
	if m == nil {
		return 0
	}
	return m.NumberOfVertices()
}

func setLen(s *polyedge.Set) int {
	if s == nil {
		return 0
	}
	return s.Len()
}
