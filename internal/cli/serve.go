package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/kagome/internal/api"
	"github.com/matzehuels/kagome/pkg/store"
)

// serveCommand runs the HTTP API until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve analyses over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr != "" {
				c.config.Server.Addr = addr
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			st, err := store.Open(ctx, c.config.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			c.Logger.Info("starting server",
				"cache", c.config.Cache.Backend,
				"store", c.config.Store.Backend)
			return api.New(runner, st, c.config, c.Logger).ListenAndServe(ctx, c.config.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
