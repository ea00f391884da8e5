package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jylitalo/garminconnect/pkg/telemetry"
)

// DailyMetricsRecord is one day of flattened Garmin metrics, keyed by date.
// Values that were missing from the vendor are stored as -1 so they can be
// told apart from genuine zeroes.
type DailyMetricsRecord struct {
	Year              int
	Month             int
	Day               int
	Week              int
	TotalSteps        int
	DistanceMeters    float64
	ActiveCalories    int
	RestingHR         int
	SleepSeconds      int
	StressLevel       int
	BodyBattery       int
	HRV               int
	TrainingReadiness int
}

// Date returns the record's calendar date in the given location.
func (r DailyMetricsRecord) Date(tz *time.Location) time.Time {
	return time.Date(r.Year, time.Month(r.Month), r.Day, 0, 0, 0, 0, tz)
}

const DailyMetricsTable string = "DailyMetrics"

type OrderConfig struct {
	GroupBy []string
	OrderBy []string
	Limit   int
}

type QueryConfig struct {
	Day   int
	Month int
	Years []int
	Order *OrderConfig
}

type QueryOption func(c *QueryConfig)

func WithDayOfYear(day, month int) QueryOption {
	return func(c *QueryConfig) {
		c.Day = day
		c.Month = month
	}
}

func WithYear(year int) QueryOption {
	return func(c *QueryConfig) {
		c.Years = append(c.Years, year)
	}
}

func WithOrder(order OrderConfig) QueryOption {
	return func(c *QueryConfig) {
		c.Order = &order
	}
}

type Sqlite3 struct {
	path string
	db   *sql.DB
}

func NewSqlite3(path string) *Sqlite3 {
	return &Sqlite3{path: path}
}

func (sq *Sqlite3) Remove() error {
	if _, err := os.Stat(sq.path); err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return os.Remove(sq.path)
}

// LastModified returns error or it will tell when database was last modified
func (sq *Sqlite3) LastModified() (time.Time, error) {
	fi, err := os.Stat(sq.path)
	if err != nil {
		epoch := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
		return epoch, err
	}
	return fi.ModTime().UTC(), nil
}

func (sq *Sqlite3) Open() error {
	var err error

	if sq.db == nil {
		sq.db, err = sql.Open("sqlite3", sq.path)
	}
	return err
}

func (sq *Sqlite3) Close() error {
	if sq.db == nil {
		return nil
	}
	err := sq.db.Close()
	sq.db = nil
	return err
}

func (sq *Sqlite3) Create() error {
	if sq.db == nil {
		return errors.New("database is nil")
	}
	_, errTable := sq.db.Exec(`create table if not exists ` + DailyMetricsTable + ` (
		Year              integer,
		Month             integer,
		Day               integer,
		Week              integer,
		TotalSteps        integer,
		DistanceMeters    real,
		ActiveCalories    integer,
		RestingHR         integer,
		SleepSeconds      integer,
		StressLevel       integer,
		BodyBattery       integer,
		HRV               integer,
		TrainingReadiness integer
	)`)
	_, errIndex := sq.db.Exec(
		`create unique index if not exists DailyMetricsDate on ` +
			DailyMetricsTable + ` (Year, Month, Day)`,
	)
	return errors.Join(errTable, errIndex)
}

// InsertDailyMetrics upserts per-date rows, so re-fetching the same day
// during the evening keeps replacing the morning's partial numbers.
func (sq *Sqlite3) InsertDailyMetrics(ctx context.Context, records []DailyMetricsRecord) error {
	_, span := telemetry.NewSpan(ctx, "InsertDailyMetrics")
	defer span.End()
	if sq.db == nil {
		return telemetry.Error(span, errors.New("database is nil"))
	}
	tx, err := sq.db.Begin()
	if err != nil {
		return telemetry.Error(span, err)
	}
	fields := []string{
		"Year", "Month", "Day", "Week", "TotalSteps", "DistanceMeters", "ActiveCalories",
		"RestingHR", "SleepSeconds", "StressLevel", "BodyBattery", "HRV", "TrainingReadiness",
	}
	q := strings.Repeat("?,", len(fields)-1) + "?"
	stmt, err := tx.Prepare(
		"insert or replace into " + DailyMetricsTable + "(" + strings.Join(fields, ",") + ") values (" + q + ")",
	)
	if err != nil {
		return telemetry.Error(span, fmt.Errorf("InsertDailyMetrics caused %w", err))
	}
	defer stmt.Close()
	for _, r := range records {
		_, err = stmt.Exec(
			r.Year, r.Month, r.Day, r.Week, r.TotalSteps, r.DistanceMeters, r.ActiveCalories,
			r.RestingHR, r.SleepSeconds, r.StressLevel, r.BodyBattery, r.HRV, r.TrainingReadiness,
		)
		if err != nil {
			return telemetry.Error(span, fmt.Errorf("InsertDailyMetrics statement execution caused: %w", err))
		}
	}
	return telemetry.Error(span, tx.Commit())
}

func sqlQuery(fields []string, opts ...QueryOption) (string, []interface{}) {
	cfg := &QueryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	where := []string{}
	args := []string{}
	if cfg.Month > 0 && cfg.Day > 0 {
		where = append(where, "(Month < ? or (Month=? and Day<=?))")
		month := strconv.Itoa(cfg.Month)
		args = append(args, month, month, strconv.Itoa(cfg.Day))
	}
	if len(cfg.Years) > 0 {
		where = append(where, "(Year="+strings.Repeat("? or Year=", len(cfg.Years)-1)+"?)")
		for _, y := range cfg.Years {
			args = append(args, strconv.Itoa(y))
		}
	}
	condition := ""
	if len(where) > 0 {
		condition = " where " + strings.Join(where, " and ")
	}
	sorting := ""
	if cfg.Order != nil {
		if cfg.Order.GroupBy != nil {
			sorting += " group by " + strings.Join(cfg.Order.GroupBy, ",")
		}
		if cfg.Order.OrderBy != nil {
			sorting += " order by " + strings.Join(cfg.Order.OrderBy, ",")
		}
		if cfg.Order.Limit > 0 {
			sorting += " limit " + strconv.FormatInt(int64(cfg.Order.Limit), 10)
		}
	}
	ifArgs := make([]interface{}, len(args))
	for i, v := range args {
		ifArgs[i] = v
	}
	return fmt.Sprintf(
		"select %s from %s%s%s", strings.Join(fields, ","), DailyMetricsTable,
		condition, sorting,
	), ifArgs
}

func (sq *Sqlite3) Query(fields []string, opts ...QueryOption) (*sql.Rows, error) {
	if sq.db == nil {
		return nil, errors.New("database is nil")
	}
	query, values := sqlQuery(fields, opts...)
	rows, err := sq.db.Query(query, values...)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", query, err)
	}
	return rows, nil
}

// QueryYears creates list of distinct years which have records
func (sq *Sqlite3) QueryYears(opts ...QueryOption) ([]int, error) {
	if sq.db == nil {
		return nil, errors.New("database is nil")
	}
	opts = append(opts, WithOrder(OrderConfig{GroupBy: []string{"Year"}, OrderBy: []string{"Year"}}))
	rows, err := sq.Query([]string{"distinct(Year)"}, opts...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	years := []int{}
	for rows.Next() {
		var year int
		if err = rows.Scan(&year); err != nil {
			return years, err
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

// QueryDailyMetrics returns full rows, newest first unless opts say otherwise.
func (sq *Sqlite3) QueryDailyMetrics(opts ...QueryOption) ([]DailyMetricsRecord, error) {
	fields := []string{
		"Year", "Month", "Day", "Week", "TotalSteps", "DistanceMeters", "ActiveCalories",
		"RestingHR", "SleepSeconds", "StressLevel", "BodyBattery", "HRV", "TrainingReadiness",
	}
	rows, err := sq.Query(fields, opts...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []DailyMetricsRecord{}
	for rows.Next() {
		r := DailyMetricsRecord{}
		err = rows.Scan(
			&r.Year, &r.Month, &r.Day, &r.Week, &r.TotalSteps, &r.DistanceMeters, &r.ActiveCalories,
			&r.RestingHR, &r.SleepSeconds, &r.StressLevel, &r.BodyBattery, &r.HRV, &r.TrainingReadiness,
		)
		if err != nil {
			return records, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
