package plot

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/jylitalo/garminconnect/storage"
)

type Storage interface {
	Query(fields []string, opts ...storage.QueryOption) (*sql.Rows, error)
	QueryYears(opts ...storage.QueryOption) ([]int, error)
}

type numbers struct {
	xs     map[int][]float64
	ys     map[int][]float64
	totals map[int]float64
	xmax   float64
}

func scan(rows *sql.Rows, years []int, tz *time.Location) (*numbers, error) {
	var xmax float64

	items := map[int]int{}
	xs := map[int][]float64{}
	ys := map[int][]float64{}
	totals := map[int]float64{}
	for _, year := range years {
		items[year] = 0
		xs[year] = []float64{}
		ys[year] = []float64{}
		totals[year] = 0
	}
	for rows.Next() {
		var year, month, day int
		var value float64
		err := rows.Scan(&year, &month, &day, &value)
		if err != nil {
			return nil, err
		}
		totals[year] = totals[year] + value
		day1 := time.Date(year, time.January, 1, 6, 0, 0, 0, tz)
		now := time.Date(year, time.Month(month), day, 6, 0, 0, 0, tz)
		days := now.Sub(day1).Hours() / 24
		if items[year] > 0 && days-xs[year][items[year]-1] > 1 {
			xs[year] = append(xs[year], days-1)
			ys[year] = append(ys[year], ys[year][items[year]-1])
			items[year]++
		}
		xmax = max(xmax, days)
		xs[year] = append(xs[year], days)
		ys[year] = append(ys[year], totals[year])
		items[year]++
	}
	for year := range xs {
		idx := len(xs[year]) - 1
		if idx < 0 || xs[year][idx] == xmax {
			continue
		}
		xs[year] = append(xs[year], xmax)
		ys[year] = append(ys[year], ys[year][idx])
	}
	return &numbers{xs: xs, ys: ys, totals: totals, xmax: xmax}, nil
}

// Steps draws cumulative daily steps per year into filename, one line per
// year up to the given month/day.
func Steps(db Storage, month, day int, tz *time.Location, filename string) error {
	opts := []storage.QueryOption{storage.WithDayOfYear(day, month)}
	years, err := db.QueryYears(opts...)
	if err != nil {
		return err
	}
	o := []string{"Year", "Month", "Day"}
	rows, err := db.Query(
		// missing days are stored as -1, don't let them drag the sum down
		[]string{"Year", "Month", "Day", "sum(max(TotalSteps,0))"},
		append(opts, storage.WithOrder(storage.OrderConfig{GroupBy: o, OrderBy: o}))...,
	)
	if err != nil {
		return fmt.Errorf("select caused: %w", err)
	}
	defer rows.Close()
	numbers, err := scan(rows, years, tz)
	if err != nil {
		return err
	}
	p := plot.New()
	p.X.Label.Text = "date"
	ticks := []plot.Tick{
		{Value: 0, Label: "January"},
		{Value: 31, Label: "February"},
		{Value: 59, Label: "March"},
		{Value: 90, Label: "April"},
		{Value: 121, Label: "May"},
		{Value: 152, Label: "June"},
		{Value: 182, Label: "July"},
		{Value: 213, Label: "August"},
		{Value: 244, Label: "September"},
		{Value: 274, Label: "October"},
		{Value: 305, Label: "November"},
		{Value: 335, Label: "December"},
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Title.Text = fmt.Sprintf("steps year to day (to %s %d)", ticks[month-1].Label, day)
	p.X.Tick.Label.XAlign = text.XLeft
	p.Y.Label.Text = "steps"
	p.X.Min = 0
	p.X.Max = numbers.xmax
	p.Y.Min = 0
	yearLines := []interface{}{}
	for _, year := range years {
		yearLines = append(yearLines, strconv.FormatInt(int64(year), 10), hplot.ZipXY(numbers.xs[year], numbers.ys[year]))
	}
	if err = plotutil.AddLines(p, yearLines...); err != nil {
		return errors.New("failed to plot years")
	}
	if err = p.Save(40*vg.Centimeter, 20*vg.Centimeter, filename); err != nil {
		return errors.New("failed to save image")
	}
	slog.Info("Plot created", "filename", filename)
	return nil
}
