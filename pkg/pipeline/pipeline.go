// Package pipeline runs the complete kagome analysis.
//
// This package implements the load → convert → trace → classify → frames →
// weave → strands → render pipeline shared by the CLI and the HTTP API, so
// both entry points produce identical analyses and share one cache.
//
// # Stages
//
//  1. Convert: optionally build a kagome mesh from a coarse triangle mesh
//     ([mesh.FromCoarse]), cached by coarse mesh hash and level
//  2. Trace: partition the edges into polyedges, cached by mesh hash
//  3. Classify, Frames, Weave, Strands: cheap derived analyses, always
//     recomputed from the traced set
//  4. Render: strand graph artifacts (json, dot, svg, pdf, png), cached by
//     mesh hash and render options
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Mesh:    coarse,
//	    Convert: true,
//	    Level:   1,
//	    Formats: []string{"json", "svg"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kagome/pkg/cache"
	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/polyedge"
	"github.com/matzehuels/kagome/pkg/strand"
)

const (
	// DefaultScale is the strand graph drawing scale in inches per unit.
	DefaultScale = 1.0

	// MaxLevel bounds subdivision; each level quadruples the face count.
	MaxLevel = 6
)

// Output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPDF:  true,
	FormatPNG:  true,
}

// Options configures one pipeline run.
type Options struct {
	// Mesh is the input. With Convert it is the coarse triangle mesh,
	// otherwise it is analysed as is.
	Mesh    *mesh.Mesh `json:"-"`
	Convert bool       `json:"convert,omitempty"`
	Level   int        `json:"level,omitempty"`

	Formats  []string `json:"formats,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	// Frames includes per-vertex frames in the analysis document.
	Frames bool `json:"frames,omitempty"`
	// Refresh ignores cached entries (results are still written).
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result holds everything one run produced.
type Result struct {
	ID       string
	MeshHash string
	Mesh     *mesh.Mesh
	Set      *polyedge.Set
	Graph    *strand.Graph
	Analysis *Analysis

	// Artifacts are keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains sizes and stage timings.
type Stats struct {
	Vertices    int           `json:"vertices"`
	Edges       int           `json:"edges"`
	Faces       int           `json:"faces"`
	Polyedges   int           `json:"polyedges"`
	Closed      int           `json:"closed"`
	Singular    int           `json:"singular"`
	Conflicts   int           `json:"conflicts"`
	StrandEdges int           `json:"strand_edges"`
	ConvertTime time.Duration `json:"convert_time"`
	TraceTime   time.Duration `json:"trace_time"`
	AnalyzeTime time.Duration `json:"analyze_time"`
	RenderTime  time.Duration `json:"render_time"`
}

// CacheInfo records which cached stages were reused.
type CacheInfo struct {
	MeshHit   bool `json:"mesh_hit"`
	TraceHit  bool `json:"trace_hit"`
	RenderHit bool `json:"render_hit"`
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format %q (must be one of: json, dot, svg, pdf, png)", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLevel checks the subdivision level.
func ValidateLevel(level int) error {
	if level < 0 || level > MaxLevel {
		return errors.New(errors.ErrCodeInvalidInput, "level %d out of range [0, %d]", level, MaxLevel)
	}
	return nil
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Mesh == nil {
		return errors.New(errors.ErrCodeInvalidInput, "mesh is required")
	}
	if err := ValidateLevel(o.Level); err != nil {
		return err
	}
	if o.Level > 0 && !o.Convert {
		return errors.New(errors.ErrCodeInvalidInput, "level requires convert")
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetRenderDefaults fills in rendering defaults.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	o.Formats = dedupe(o.Formats)
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ArtifactKeyOpts returns the cache key options for format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Scale: o.Scale, Detailed: o.Detailed}
}

// StrandOptions returns the DOT options for the strand graph.
func (o *Options) StrandOptions() strand.Options {
	return strand.Options{Scale: o.Scale, Detailed: o.Detailed}
}

func dedupe(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// String summarises the stats on one line for logs.
func (s Stats) String() string {
	return fmt.Sprintf("%d vertices, %d polyedges (%d closed), %d singular faces, %d conflicts",
		s.Vertices, s.Polyedges, s.Closed, s.Singular, s.Conflicts)
}
