package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jylitalo/garminconnect/config"
	"github.com/jylitalo/garminconnect/server"
	"github.com/jylitalo/garminconnect/storage"
)

// serverCmd serves the stored metrics as JSON for dashboard consumers
func serverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve stored metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			port, _ := flags.GetInt("port")
			cfg, err := config.Get()
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.Port
			}
			db := storage.NewSqlite3(cfg.Database)
			if err := db.Open(); err != nil {
				return err
			}
			defer db.Close()
			slog.Info("starting server", "port", port)
			return server.Start(cmd.Context(), db, port)
		},
	}
	cmd.Flags().Int("port", 0, "override port from config file")
	return cmd
}
