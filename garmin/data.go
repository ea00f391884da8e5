package garmin

import (
	"context"
	"log/slog"
	"time"
)

// fallbackFetch retrieves a metric for today and, when the vendor has not
// aggregated today's value yet, retries the same accessor for yesterday.
func fallbackFetch[T any](
	ctx context.Context, name string, today, yesterday time.Time,
	fetch func(context.Context, time.Time) (T, error), missing func(T) bool,
) (T, error) {
	value, err := fetch(ctx, today)
	if err != nil {
		return value, err
	}
	if !missing(value) {
		return value, nil
	}
	slog.Debug("no data for today, falling back to yesterday", "metric", name)
	return fetch(ctx, yesterday)
}

// GetData aggregates the daily metrics into one flat mapping keyed the way
// sensor consumers expect. A failing accessor only drops its own fields;
// partial data beats no data on a dashboard.
func (c *Client) GetData(ctx context.Context, tz *time.Location) (map[string]any, error) {
	if _, err := c.auth.accessToken(); err != nil {
		return nil, err
	}
	today := time.Now().In(tz)
	yesterday := today.AddDate(0, 0, -1)
	data := map[string]any{}

	summary, err := fallbackFetch(ctx, "summary", today, yesterday,
		c.GetUserSummary, func(s *UserSummary) bool { return s == nil || s.TotalSteps == nil })
	switch {
	case err != nil:
		slog.Warn("user summary fetch failed", "err", err)
	case summary != nil:
		putInt(data, "totalSteps", summary.TotalSteps)
		putFloat(data, "totalDistanceMeters", summary.TotalDistanceMeters)
		putInt(data, "activeCalories", summary.ActiveCalories)
		putInt(data, "highlyActiveSeconds", summary.HighlyActiveSeconds)
		putInt(data, "sedentarySeconds", summary.SedentarySeconds)
		putInt(data, "floorsAscended", summary.FloorsAscended)
		putInt(data, "floorsDescended", summary.FloorsDescended)
		putInt(data, "minHeartRate", summary.MinHeartRate)
		putInt(data, "maxHeartRate", summary.MaxHeartRate)
		putInt(data, "restingHeartRate", summary.RestingHeartRate)
		putInt(data, "averageStressLevel", summary.AvgStressLevel)
		putInt(data, "maxStressLevel", summary.MaxStressLevel)
		putInt(data, "bodyBatteryCharged", summary.BodyBatteryCharged)
		putInt(data, "bodyBatteryDrained", summary.BodyBatteryDrained)
		putInt(data, "bodyBattery", summary.BodyBatteryMostRecent)
	}

	sleep, err := fallbackFetch(ctx, "sleep", today, yesterday,
		c.GetSleepData, func(s *SleepData) bool { return s == nil || s.TotalSleepSeconds == nil })
	switch {
	case err != nil:
		slog.Warn("sleep fetch failed", "err", err)
	case sleep != nil:
		putInt(data, "sleepTimeSeconds", sleep.TotalSleepSeconds)
		putInt(data, "deepSleepSeconds", sleep.DeepSleepSeconds)
		putInt(data, "lightSleepSeconds", sleep.LightSleepSeconds)
		putInt(data, "remSleepSeconds", sleep.RemSleepSeconds)
		putInt(data, "awakeSleepSeconds", sleep.AwakeSeconds)
	}

	stress, err := fallbackFetch(ctx, "stress", today, yesterday,
		c.GetStressData, func(s *StressData) bool { return s == nil || s.OverallStressLevel == nil })
	switch {
	case err != nil:
		slog.Warn("stress fetch failed", "err", err)
	case stress != nil:
		putInt(data, "overallStressLevel", stress.OverallStressLevel)
		putInt(data, "restStressDuration", stress.RestStressDuration)
		putInt(data, "lowStressDuration", stress.LowStressDuration)
		putInt(data, "mediumStressDuration", stress.MediumStressDuration)
		putInt(data, "highStressDuration", stress.HighStressDuration)
	}

	hrv, err := fallbackFetch(ctx, "hrv", today, yesterday,
		c.GetHRVData, func(h *HRVData) bool { return h == nil || h.HRVValue == nil })
	switch {
	case err != nil:
		slog.Warn("hrv fetch failed", "err", err)
	case hrv != nil:
		putInt(data, "hrvValue", hrv.HRVValue)
		if hrv.Status != nil {
			data["hrvStatus"] = *hrv.Status
		}
	}

	readiness, err := fallbackFetch(ctx, "trainingReadiness", today, yesterday,
		c.GetTrainingReadiness, func(r *TrainingReadiness) bool { return r == nil || r.Score == nil })
	switch {
	case err != nil:
		slog.Warn("training readiness fetch failed", "err", err)
	case readiness != nil:
		putInt(data, "trainingReadinessScore", readiness.Score)
		if readiness.Level != nil {
			data["trainingReadinessLevel"] = *readiness.Level
		}
	}

	return data, nil
}

func putInt(data map[string]any, key string, value *int) {
	if value != nil {
		data[key] = *value
	}
}

func putFloat(data map[string]any, key string, value *float64) {
	if value != nil {
		data[key] = *value
	}
}
