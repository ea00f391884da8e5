package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jylitalo/garminconnect/pkg/telemetry"
	"github.com/jylitalo/garminconnect/storage"
)

// Storage is the slice of the sqlite layer the server needs.
type Storage interface {
	QueryDailyMetrics(opts ...storage.QueryOption) ([]storage.DailyMetricsRecord, error)
	QueryYears(opts ...storage.QueryOption) ([]int, error)
	LastModified() (time.Time, error)
}

// setLastModified tells pollers how stale the database file is.
func setLastModified(c echo.Context, db Storage) {
	if modified, err := db.LastModified(); err == nil {
		c.Response().Header().Set(echo.HeaderLastModified, modified.Format(http.TimeFormat))
	}
}

type dailyMetrics struct {
	Date              string  `json:"date"`
	TotalSteps        int     `json:"totalSteps"`
	DistanceMeters    float64 `json:"totalDistanceMeters"`
	ActiveCalories    int     `json:"activeCalories"`
	RestingHR         int     `json:"restingHeartRate"`
	SleepSeconds      int     `json:"sleepTimeSeconds"`
	StressLevel       int     `json:"overallStressLevel"`
	BodyBattery       int     `json:"bodyBattery"`
	HRV               int     `json:"hrvValue"`
	TrainingReadiness int     `json:"trainingReadinessScore"`
}

func toDailyMetrics(r storage.DailyMetricsRecord) dailyMetrics {
	return dailyMetrics{
		Date:              fmt.Sprintf("%04d-%02d-%02d", r.Year, r.Month, r.Day),
		TotalSteps:        r.TotalSteps,
		DistanceMeters:    r.DistanceMeters,
		ActiveCalories:    r.ActiveCalories,
		RestingHR:         r.RestingHR,
		SleepSeconds:      r.SleepSeconds,
		StressLevel:       r.StressLevel,
		BodyBattery:       r.BodyBattery,
		HRV:               r.HRV,
		TrainingReadiness: r.TrainingReadiness,
	}
}

func newestFirst() storage.QueryOption {
	return storage.WithOrder(storage.OrderConfig{
		OrderBy: []string{"Year desc", "Month desc", "Day desc"},
	})
}

// latest answers with the most recent stored day, the shape home-automation
// sensors poll for.
func latest(ctx context.Context, db Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, span := telemetry.NewSpan(ctx, "server.latest")
		defer span.End()
		records, err := db.QueryDailyMetrics(
			storage.WithOrder(storage.OrderConfig{
				OrderBy: []string{"Year desc", "Month desc", "Day desc"},
				Limit:   1,
			}),
		)
		if err != nil {
			return telemetry.Error(span, err)
		}
		if len(records) == 0 {
			return echo.NewHTTPError(http.StatusNotFound, "no metrics stored yet")
		}
		setLastModified(c, db)
		return c.JSON(http.StatusOK, toDailyMetrics(records[0]))
	}
}

// daily lists stored days, optionally filtered with ?year=2026.
func daily(ctx context.Context, db Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, span := telemetry.NewSpan(ctx, "server.daily")
		defer span.End()
		opts := []storage.QueryOption{newestFirst()}
		if v := c.QueryParam("year"); v != "" {
			year, err := strconv.Atoi(v)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "year must be a number")
			}
			opts = append(opts, storage.WithYear(year))
		}
		records, err := db.QueryDailyMetrics(opts...)
		if err != nil {
			return telemetry.Error(span, err)
		}
		resp := make([]dailyMetrics, len(records))
		for idx, r := range records {
			resp[idx] = toDailyMetrics(r)
		}
		setLastModified(c, db)
		return c.JSON(http.StatusOK, resp)
	}
}

func years(ctx context.Context, db Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, span := telemetry.NewSpan(ctx, "server.years")
		defer span.End()
		values, err := db.QueryYears()
		if err != nil {
			return telemetry.Error(span, err)
		}
		return c.JSON(http.StatusOK, values)
	}
}

func newEcho(ctx context.Context, db Storage) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.GET("/api/latest", latest(ctx, db))
	e.GET("/api/daily", daily(ctx, db))
	e.GET("/api/years", years(ctx, db))
	return e
}

func Start(ctx context.Context, db Storage, port int) error {
	_, span := telemetry.NewSpan(ctx, "server.Start")
	defer span.End()
	return newEcho(ctx, db).Start(fmt.Sprintf(":%d", port))
}
