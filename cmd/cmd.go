package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func Execute(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:   "garminconnect",
		Short: "garminconnect fetches your daily health metrics from Garmin Connect",
	}
	rootCmd.AddCommand(configureCmd(), fetchCmd(), listCmd(), plotCmd(), serverCmd())
	return rootCmd.ExecuteContext(ctx)
}
