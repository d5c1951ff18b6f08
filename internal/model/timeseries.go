package model

import (
	"sort"
	"time"
)

// TimeSeries is an ordered, duplicate-free sequence of hourly price points.
//
// A TimeSeries is immutable once built: every accessor returns a copy and every
// transformation returns a new value. Hourly coverage is not guaranteed; missing hours
// (DST transitions, dropped chunks) are kept as gaps and never interpolated.
type TimeSeries struct {
	points []PricePoint
}

// NewTimeSeries sorts points ascending by (Date, Hour) and drops later duplicates.
// The first occurrence of a (Date, Hour) pair in input order wins.
func NewTimeSeries(points []PricePoint) *TimeSeries {
	seen := make(map[int64]struct{}, len(points))
	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		p.Date = DateOf(p.Date)
		k := p.Ordinal()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Ordinal() < out[j].Ordinal()
	})
	return &TimeSeries{points: out}
}

// Len returns the number of observations.
func (ts *TimeSeries) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.points)
}

// At returns the i-th observation.
func (ts *TimeSeries) At(i int) PricePoint {
	return ts.points[i]
}

// Points returns a copy of the observations.
func (ts *TimeSeries) Points() []PricePoint {
	if ts == nil {
		return nil
	}
	out := make([]PricePoint, len(ts.points))
	copy(out, ts.points)
	return out
}

// Prices returns the price column in series order.
func (ts *TimeSeries) Prices() []float64 {
	if ts == nil {
		return nil
	}
	out := make([]float64, len(ts.points))
	for i, p := range ts.points {
		out[i] = p.Price
	}
	return out
}

// First returns the earliest observation. ok is false for an empty series.
func (ts *TimeSeries) First() (PricePoint, bool) {
	if ts.Len() == 0 {
		return PricePoint{}, false
	}
	return ts.points[0], true
}

// Last returns the latest observation. ok is false for an empty series.
func (ts *TimeSeries) Last() (PricePoint, bool) {
	if ts.Len() == 0 {
		return PricePoint{}, false
	}
	return ts.points[len(ts.points)-1], true
}

// Between returns the sub-series whose dates fall in [from, to], both inclusive.
// A zero from or to leaves that side unbounded.
func (ts *TimeSeries) Between(from, to time.Time) *TimeSeries {
	if ts.Len() == 0 {
		return &TimeSeries{}
	}
	lo := 0
	if !from.IsZero() {
		start := DateOf(from).Unix() / 3600
		lo = sort.Search(len(ts.points), func(i int) bool {
			return ts.points[i].Ordinal() >= start
		})
	}
	hi := len(ts.points)
	if !to.IsZero() {
		end := DateOf(to).AddDate(0, 0, 1).Unix() / 3600
		hi = sort.Search(len(ts.points), func(i int) bool {
			return ts.points[i].Ordinal() >= end
		})
	}
	if lo >= hi {
		return &TimeSeries{}
	}
	out := make([]PricePoint, hi-lo)
	copy(out, ts.points[lo:hi])
	return &TimeSeries{points: out}
}

// Equal reports whether both series hold identical observations in identical order.
func (ts *TimeSeries) Equal(other *TimeSeries) bool {
	if ts.Len() != other.Len() {
		return false
	}
	for i := range ts.points {
		a, b := ts.points[i], other.points[i]
		if !a.Date.Equal(b.Date) || a.Hour != b.Hour || a.Price != b.Price {
			return false
		}
	}
	return true
}
