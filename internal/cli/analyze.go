package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kagome/pkg/pipeline"
	"github.com/matzehuels/kagome/pkg/store"
)

type analyzeOpts struct {
	output    string
	analysis  string
	overrides pipeline.Overrides
	save      bool
	noCache   bool
	refresh   bool
}

// analyzeCommand runs the full pipeline on one mesh.
func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts
	var (
		formatsStr       string
		level            int
		convert          bool
		scale            float64
		detailed, frames bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <mesh.json|url>",
		Short: "Trace polyedges and write strand graph artifacts",
		Long: `Trace the polyedges of a mesh, classify singular faces, compute weave
offsets and build the strand graph.

Artifacts are written to <base>_strands.<format> for each requested format
(json, dot, svg, pdf, png). --analysis writes the full analysis document.
With -k the input is treated as a coarse triangle mesh and converted first.
Flags left unset take their values from the [analysis] config section.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			opts.overrides = pipeline.Overrides{Formats: parseFormats(formatsStr)}
			if flags.Changed("level") {
				opts.overrides.Level = &level
			}
			if flags.Changed("convert") {
				opts.overrides.Convert = &convert
			}
			if flags.Changed("scale") {
				opts.overrides.Scale = &scale
			}
			if flags.Changed("detailed") {
				opts.overrides.Detailed = &detailed
			}
			if flags.Changed("frames") {
				opts.overrides.Frames = &frames
			}
			return c.runAnalyze(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "base path for artifacts (default <input>_strands)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json, dot, svg, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&opts.analysis, "analysis", "", "write the full analysis document to this file")
	cmd.Flags().IntVarP(&level, "level", "k", 0, "convert the input with this many subdivision levels")
	cmd.Flags().BoolVar(&convert, "convert", false, "treat the input as a coarse triangle mesh")
	cmd.Flags().Float64Var(&scale, "scale", 0, "strand graph drawing scale")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label strand nodes with their vertex count")
	cmd.Flags().BoolVar(&frames, "frames", false, "include per-vertex frames in the analysis document")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the analysis to the local store")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, input string, opts analyzeOpts) error {
	logger := loggerFromContext(ctx)

	m, err := c.loadMesh(ctx, input, opts.noCache)
	if err != nil {
		return err
	}
	logger.Debug("loaded mesh", "input", input, "vertices", m.NumberOfVertices(), "faces", m.NumberOfFaces())

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.config.Analysis.Options(opts.overrides)
	popts.Mesh = m
	popts.Refresh = opts.refresh
	popts.Logger = logger

	spinner := newSpinnerWithContext(ctx, "Analyzing "+input)
	spinner.Start()
	res, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}

	cached := res.CacheInfo.TraceHit
	printSuccess("Analyzed %s", input)
	printStats(res.Stats, cached)
	if n := res.Stats.Conflicts; n > 0 {
		printWarning("%d weave conflicts; the strands do not alternate everywhere", n)
	}

	base := basePath(opts.output, input)
	if opts.output == "" {
		base += "_strands"
	}
	formats := make([]string, 0, len(res.Artifacts))
	for f := range res.Artifacts {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	for _, f := range formats {
		path := fmt.Sprintf("%s.%s", base, f)
		if err := writeFile(path, res.Artifacts[f]); err != nil {
			return err
		}
		printFile(path)
	}

	if opts.analysis != "" {
		data, err := json.MarshalIndent(res.Analysis, "", "  ")
		if err != nil {
			return fmt.Errorf("encode analysis: %w", err)
		}
		if err := writeFile(opts.analysis, data); err != nil {
			return err
		}
		printFile(opts.analysis)
	}

	if opts.save {
		st, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Save(ctx, res.Analysis); err != nil {
			return fmt.Errorf("save analysis: %w", err)
		}
		printKeyValue("Saved", res.ID)
	} else {
		printNextStep("Explore the polyedges", "kagome browse "+input)
	}
	return nil
}

// openStore opens the configured store. The in-memory backend would lose
// everything when the command exits, so the CLI uses the disk store then.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg := c.config.Store
	if cfg.Backend == pipeline.BackendMemory {
		cfg.Backend = pipeline.BackendDisk
	}
	return store.Open(ctx, cfg)
}
