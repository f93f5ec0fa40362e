package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/kagome/pkg/mesh"
)

type generateOpts struct {
	output string
	rows   int
	cols   int
	sides  int
}

// generateCommand writes builder meshes for demos and experiments.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{rows: 4, cols: 4, sides: 7}

	cmd := &cobra.Command{
		Use:   "generate <grid|trigrid|torus|tritorus|rosette>",
		Short: "Write a generated mesh as mesh JSON",
		Long: `Write a generated mesh as mesh JSON.

  grid      planar quad grid (--rows x --cols)
  trigrid   planar triangle grid
  torus     closed quad torus, every vertex 4-valent
  tritorus  closed triangle torus; convert it to get a trihexagonal torus
  rosette   a --sides polygon ringed by triangles`,
		ValidArgs: []string{"grid", "trigrid", "torus", "tritorus", "rosette"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := generate(args[0], opts)
			if err != nil {
				return err
			}
			if opts.output == "" {
				return mesh.WriteJSON(m, cmd.OutOrStdout())
			}
			if err := mesh.WriteFile(m, opts.output); err != nil {
				return err
			}
			printSuccess("Generated %s: %d vertices, %d faces", args[0], m.NumberOfVertices(), m.NumberOfFaces())
			printFile(opts.output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&opts.rows, "rows", opts.rows, "rows (grids) or ring segments (tori)")
	cmd.Flags().IntVar(&opts.cols, "cols", opts.cols, "columns (grids) or tube segments (tori)")
	cmd.Flags().IntVar(&opts.sides, "sides", opts.sides, "polygon sides (rosette)")
	return cmd
}

func generate(kind string, opts generateOpts) (*mesh.Mesh, error) {
	switch kind {
	case "grid":
		return mesh.Grid(opts.rows, opts.cols)
	case "trigrid":
		return mesh.TriangleGrid(opts.rows, opts.cols)
	case "torus":
		return mesh.QuadTorus(opts.rows, opts.cols)
	case "tritorus":
		return mesh.TriangleTorus(opts.rows, opts.cols)
	default:
		return mesh.Rosette(opts.sides)
	}
}
