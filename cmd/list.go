package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jylitalo/garminconnect/config"
	"github.com/jylitalo/garminconnect/storage"
)

// listCmd turns the sqlite db into a table of recent days
func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored daily metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			limit, _ := flags.GetInt("limit")
			year, _ := flags.GetInt("year")
			cfg, err := config.Get()
			if err != nil {
				return err
			}
			tz, err := time.LoadLocation(cfg.Garmin.Timezone)
			if err != nil {
				return err
			}
			db := storage.NewSqlite3(cfg.Database)
			if err = db.Open(); err != nil {
				return err
			}
			defer db.Close()
			opts := []storage.QueryOption{
				storage.WithOrder(storage.OrderConfig{
					OrderBy: []string{"Year desc", "Month desc", "Day desc"},
					Limit:   limit,
				}),
			}
			if year > 0 {
				opts = append(opts, storage.WithYear(year))
			}
			records, err := db.QueryDailyMetrics(opts...)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{
				"Date", "Steps", "Distance (km)", "Calories", "Resting HR",
				"Sleep (h)", "Stress", "Body battery", "HRV", "Readiness",
			})
			for _, r := range records {
				table.Append([]string{
					r.Date(tz).Format(time.DateOnly),
					cell(r.TotalSteps),
					fmt.Sprintf("%.1f", r.DistanceMeters/1000),
					cell(r.ActiveCalories),
					cell(r.RestingHR),
					fmt.Sprintf("%.1f", float64(r.SleepSeconds)/3600),
					cell(r.StressLevel),
					cell(r.BodyBattery),
					cell(r.HRV),
					cell(r.TrainingReadiness),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().Int("limit", 30, "number of days")
	cmd.Flags().Int("year", 0, "limit to one year")
	return cmd
}

// cell renders the -1 "missing" sentinel as blank
func cell(value int) string {
	if value < 0 {
		return ""
	}
	return strconv.Itoa(value)
}
