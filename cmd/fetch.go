package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jylitalo/garminconnect/config"
	"github.com/jylitalo/garminconnect/garmin"
	"github.com/jylitalo/garminconnect/pkg/telemetry"
	"github.com/jylitalo/garminconnect/storage"
)

// fetchCmd fetches today's health metrics from Garmin Connect
func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch daily metrics from Garmin Connect into the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			rebuild, _ := cmd.Flags().GetBool("rebuild")
			return fetch(cmd.Context(), rebuild)
		},
	}
	cmd.Flags().Bool("rebuild", false, "drop the local database before fetching")
	return cmd
}

func fetch(ctx context.Context, rebuild bool) error {
	ctx, span := telemetry.NewSpan(ctx, "fetch")
	defer span.End()

	cfg, err := config.Get()
	if err != nil {
		return telemetry.Error(span, err)
	}
	tz, err := time.LoadLocation(cfg.Garmin.Timezone)
	if err != nil {
		return telemetry.Error(span, fmt.Errorf("timezone %q: %w", cfg.Garmin.Timezone, err))
	}
	client, auth, err := newGarminClient(cfg)
	if err != nil {
		return telemetry.Error(span, err)
	}
	data, err := client.GetData(ctx, tz)
	if err != nil {
		return telemetry.Error(span, err)
	}
	// tokens may have been refreshed during the calls
	oauth1, oauth2 := auth.Tokens()
	if err = config.SaveTokens(cfg.Tokens, oauth1, oauth2); err != nil {
		return telemetry.Error(span, err)
	}
	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return telemetry.Error(span, err)
	}
	fmt.Println(string(text))

	db := storage.NewSqlite3(cfg.Database)
	if rebuild {
		if err = db.Remove(); err != nil {
			return telemetry.Error(span, err)
		}
	}
	errO := db.Open()
	defer db.Close()
	errC := db.Create()
	errI := db.InsertDailyMetrics(ctx, []storage.DailyMetricsRecord{recordFromData(time.Now().In(tz), data)})
	return telemetry.Error(span, errors.Join(errO, errC, errI))
}

// newGarminClient builds an authenticated client from stored token bundles.
func newGarminClient(cfg *config.Config) (*garmin.Client, *garmin.Auth, error) {
	oauth1, oauth2, err := config.LoadTokens(cfg.Tokens)
	if err != nil {
		return nil, nil, err
	}
	if oauth1 == nil || oauth2 == nil {
		return nil, nil, errors.New("no stored tokens, run `garminconnect configure` first")
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	auth := garmin.NewAuthFromTokens(httpClient, oauth1, oauth2)
	return garmin.NewClient(httpClient, auth), auth, nil
}

func recordFromData(day time.Time, data map[string]any) storage.DailyMetricsRecord {
	_, week := day.ISOWeek()
	return storage.DailyMetricsRecord{
		Year:              day.Year(),
		Month:             int(day.Month()),
		Day:               day.Day(),
		Week:              week,
		TotalSteps:        intFrom(data, "totalSteps"),
		DistanceMeters:    floatFrom(data, "totalDistanceMeters"),
		ActiveCalories:    intFrom(data, "activeCalories"),
		RestingHR:         intFrom(data, "restingHeartRate"),
		SleepSeconds:      intFrom(data, "sleepTimeSeconds"),
		StressLevel:       intFrom(data, "overallStressLevel"),
		BodyBattery:       intFrom(data, "bodyBattery"),
		HRV:               intFrom(data, "hrvValue"),
		TrainingReadiness: intFrom(data, "trainingReadinessScore"),
	}
}

// intFrom digs an int out of the flat mapping, -1 when the field is absent.
func intFrom(data map[string]any, key string) int {
	if value, ok := data[key].(int); ok {
		return value
	}
	return -1
}

func floatFrom(data map[string]any, key string) float64 {
	if value, ok := data[key].(float64); ok {
		return value
	}
	return -1
}
