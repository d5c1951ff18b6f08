package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used by the upstream API and the CSV store.
const DateLayout = "2006-01-02"

// PricePoint is one hourly spot-price observation.
// Units:
// - Date: local calendar date (Europe/Madrid), stored as midnight UTC
// - Hour: local clock hour 0..23
// - Price: €/MWh
type PricePoint struct {
	Date  time.Time
	Hour  int
	Price float64
}

// NewPricePoint builds a point from a local wall-clock instant.
func NewPricePoint(local time.Time, price float64) PricePoint {
	return PricePoint{
		Date:  DateOf(local),
		Hour:  local.Hour(),
		Price: price,
	}
}

// DateOf strips the clock and zone from t, keeping its calendar date as seen in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// Ordinal is the number of hours between the Unix epoch and the (Date, Hour) pair.
// It is the sort and dedup key of a TimeSeries; two points share it iff they share (Date, Hour).
func (p PricePoint) Ordinal() int64 {
	return DateOf(p.Date).Unix()/3600 + int64(p.Hour)
}

// FECHA returns the date column value.
func (p PricePoint) FECHA() string {
	return p.Date.Format(DateLayout)
}

// HORA returns the zero-padded hour column value.
func (p PricePoint) HORA() string {
	return fmt.Sprintf("%02d", p.Hour)
}

func (p PricePoint) String() string {
	return fmt.Sprintf("%s %s %g", p.FECHA(), p.HORA(), p.Price)
}
