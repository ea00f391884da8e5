package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jylitalo/garminconnect/config"
	"github.com/jylitalo/garminconnect/pkg/plot"
	"github.com/jylitalo/garminconnect/storage"
)

// plotCmd makes graphs from sqlite data
func plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Create cumulative steps graph per year",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			output, _ := flags.GetString("output")
			month, _ := flags.GetInt("month")
			day, _ := flags.GetInt("day")
			cfg, err := config.Get()
			if err != nil {
				return err
			}
			tz, err := time.LoadLocation(cfg.Garmin.Timezone)
			if err != nil {
				return err
			}
			db := storage.NewSqlite3(cfg.Database)
			if err := db.Open(); err != nil {
				return err
			}
			defer db.Close()
			return plot.Steps(db, month, day, tz, output)
		},
	}
	cmd.Flags().String("output", "steps.png", "output file")
	cmd.Flags().Int("month", 12, "only plot until this month")
	cmd.Flags().Int("day", 31, "only plot until this day of --month")
	return cmd
}
