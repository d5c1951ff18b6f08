package analysis

import (
	"fmt"
	"strings"
	"time"

	"spot-analytics/internal/model"
)

// Timeframe presets offered by the dashboard.
const (
	Timeframe1D  = "1D"
	Timeframe1S  = "1S"
	Timeframe1M  = "1M"
	Timeframe3M  = "3M"
	Timeframe6M  = "6M"
	Timeframe1A  = "1A"
	TimeframeMax = "MAX"
)

var timeframeDays = map[string]int{
	Timeframe1D: 1,
	Timeframe1S: 7,
	Timeframe1M: 30,
	Timeframe3M: 90,
	Timeframe6M: 180,
	Timeframe1A: 365,
}

// ResolveTimeframe turns a preset into a date range ending at the last date of ts.
// The start is the last date minus the preset's day count, clamped to the first date;
// MAX spans the whole series.
func ResolveTimeframe(ts *model.TimeSeries, preset string) (from, to time.Time, err error) {
	first, ok := ts.First()
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("cannot resolve timeframe %q on an empty series", preset)
	}
	last, _ := ts.Last()
	to = last.Date

	key := strings.ToUpper(strings.TrimSpace(preset))
	if key == TimeframeMax {
		return first.Date, to, nil
	}
	days, ok := timeframeDays[key]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("unknown timeframe %q (want 1D, 1S, 1M, 3M, 6M, 1A or MAX)", preset)
	}
	from = to.AddDate(0, 0, -days)
	if from.Before(first.Date) {
		from = first.Date
	}
	return from, to, nil
}
