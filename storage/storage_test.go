package storage

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestRemoveAndLastModified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.sql")
	db := NewSqlite3(path)
	if err := db.Remove(); err != nil {
		t.Fatalf("Remove on a missing file returned %v", err)
	}
	if _, err := db.LastModified(); err == nil {
		t.Error("LastModified on a missing file did not fail")
	}
	if err := os.WriteFile(path, []byte("db"), 0o600); err != nil {
		t.Fatal(err)
	}
	modified, err := db.LastModified()
	if err != nil {
		t.Fatalf("LastModified returned %v", err)
	}
	if time.Since(modified) > time.Minute {
		t.Errorf("modification time %v is not recent", modified)
	}
	if err = db.Remove(); err != nil {
		t.Fatalf("Remove returned %v", err)
	}
	if _, err = os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("database file still exists after Remove")
	}
}

func TestRecordDate(t *testing.T) {
	r := DailyMetricsRecord{Year: 2026, Month: 8, Day: 28}
	if got := r.Date(time.UTC).Format(time.DateOnly); got != "2026-08-28" {
		t.Errorf("date was %s", got)
	}
}

func TestSqlQuery(t *testing.T) {
	values := []struct {
		name  string
		opts  []QueryOption
		query string
		args  []interface{}
	}{
		{
			"none", nil,
			"select TotalSteps from DailyMetrics", []interface{}{},
		},
		{
			"one_year", []QueryOption{WithYear(2026)},
			"select TotalSteps from DailyMetrics where (Year=?)", []interface{}{"2026"},
		},
		{
			"multiple_years", []QueryOption{WithYear(2025), WithYear(2026)},
			"select TotalSteps from DailyMetrics where (Year=? or Year=?)",
			[]interface{}{"2025", "2026"},
		},
		{
			"day_of_year", []QueryOption{WithDayOfYear(28, 8)},
			"select TotalSteps from DailyMetrics where (Month < ? or (Month=? and Day<=?))",
			[]interface{}{"8", "8", "28"},
		},
		{
			"order", []QueryOption{WithOrder(OrderConfig{
				GroupBy: []string{"Year"}, OrderBy: []string{"Year desc"}, Limit: 7,
			})},
			"select TotalSteps from DailyMetrics group by Year order by Year desc limit 7",
			[]interface{}{},
		},
		{
			"combined", []QueryOption{WithYear(2026), WithDayOfYear(12, 6),
				WithOrder(OrderConfig{OrderBy: []string{"Month", "Day"}})},
			"select TotalSteps from DailyMetrics where (Month < ? or (Month=? and Day<=?)) and (Year=?) order by Month,Day",
			[]interface{}{"6", "6", "12", "2026"},
		},
	}
	for _, value := range values {
		t.Run(value.name, func(t *testing.T) {
			cmd, args := sqlQuery([]string{"TotalSteps"}, value.opts...)
			if cmd != value.query {
				t.Errorf("mismatch got '%s' vs. expected '%s'", cmd, value.query)
			}
			if !slices.Equal(args, value.args) {
				t.Errorf("args mismatch got %v vs. expected %v", args, value.args)
			}
		})
	}
}
