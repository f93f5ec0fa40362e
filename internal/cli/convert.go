package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kagome/pkg/mesh"
	"github.com/matzehuels/kagome/pkg/pipeline"
)

type convertOpts struct {
	output  string
	level   int
	noCache bool
}

// convertCommand builds a kagome mesh from a coarse triangle mesh.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert <mesh.json|url>",
		Short: "Build a kagome mesh from a coarse triangle mesh",
		Long: `Build a kagome mesh from a coarse triangle mesh: -k levels of midpoint
subdivision followed by the ambo operator.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("level") {
				opts.level = c.config.Analysis.Level
			}
			return c.runConvert(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <input>_kagome.json)")
	cmd.Flags().IntVarP(&opts.level, "level", "k", 0, "subdivision levels before ambo")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runConvert(ctx context.Context, input string, opts convertOpts) error {
	logger := loggerFromContext(ctx)
	if err := pipeline.ValidateLevel(opts.level); err != nil {
		return err
	}

	coarse, err := c.loadMesh(ctx, input, opts.noCache)
	if err != nil {
		return err
	}
	logger.Debug("loaded coarse mesh", "vertices", coarse.NumberOfVertices(), "faces", coarse.NumberOfFaces())

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	m, cached, err := runner.ConvertWithCacheInfo(ctx, coarse, opts.level, false)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	prog.done(fmt.Sprintf("Built kagome mesh at level %d", opts.level))

	out := opts.output
	if out == "" {
		out = basePath("", input) + "_kagome.json"
	}
	if err := mesh.WriteFile(m, out); err != nil {
		return err
	}

	status := iconFresh
	if cached {
		status = iconCached
	}
	printSuccess("Converted: %d vertices, %d faces (%s)", m.NumberOfVertices(), m.NumberOfFaces(), status)
	printFile(out)
	return nil
}
