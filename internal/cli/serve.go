package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/codexrender/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the render HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			runner, err := c.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, server.Options{
				Defaults:      c.cfg.RenderDefaults(""),
				MaxConcurrent: c.cfg.Render.MaxConcurrent,
				MediaPrefix:   c.cfg.Storage.MediaPrefix,
				Logger:        c.Logger,
			})
			c.Logger.Info("serving",
				"entries", c.cfg.Store.Backend,
				"output", c.cfg.RenderOut(),
				"max_concurrent", c.cfg.Render.MaxConcurrent)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, e.g. :7070)")
	return cmd
}
