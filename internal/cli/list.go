package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// listCommand shows saved analyses.
func (c *CLI) listCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List analyses saved with analyze --save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No saved analyses")
				return nil
			}

			rows := make([][]string, len(list))
			for i, s := range list {
				rows[i] = []string{
					s.ID,
					s.CreatedAt.Local().Format("2006-01-02 15:04"),
					fmt.Sprint(s.Polyedges),
					fmt.Sprint(s.Singular),
					shortHash(s.MeshHash),
				}
			}
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("ID", "Created", "Polyedges", "Singular", "Mesh").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
					}
					return lipgloss.NewStyle().Padding(0, 1)
				})
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of analyses")
	return cmd
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
