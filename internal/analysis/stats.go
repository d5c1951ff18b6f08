package analysis

import (
	"math"
	"sort"
	"time"

	"spot-analytics/internal/indicator"
	"spot-analytics/internal/model"
)

// Summary is the stat-card view of a (sub-)range of the price series.
type Summary struct {
	StartDate time.Time
	EndDate   time.Time

	Count int

	Min  float64
	Max  float64
	Mean float64
	// Std is the sample standard deviation; undefined for fewer than two observations.
	Std model.IndicatorValue
	P05 float64
	P95 float64

	SpreadP95P05 float64
}

// ComputeSummary summarizes every observation of ts.
func ComputeSummary(ts *model.TimeSeries) (Summary, error) {
	s := Summary{}
	if ts.Len() == 0 {
		return s, indicator.ErrEmptySeries
	}
	first, _ := ts.First()
	last, _ := ts.Last()
	s.StartDate = first.Date
	s.EndDate = last.Date
	s.Count = ts.Len()

	vals := ts.Prices()
	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	for _, v := range vals {
		sum += v
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	s.Min = minv
	s.Max = maxv
	s.Mean = sum / float64(len(vals))
	if len(vals) > 1 {
		ss := 0.0
		for _, v := range vals {
			d := v - s.Mean
			ss += d * d
		}
		s.Std = model.Defined(math.Sqrt(ss / float64(len(vals)-1)))
	}

	sort.Float64s(vals)
	s.P05 = percentileSorted(vals, 0.05)
	s.P95 = percentileSorted(vals, 0.95)
	s.SpreadP95P05 = s.P95 - s.P05
	return s, nil
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// DailyStats is the price band of one calendar date.
type DailyStats struct {
	Date  time.Time
	Hours int
	Mean  float64
	Min   float64
	Max   float64
}

// ComputeDailyStats groups ts by date, in date order. Dates with no observation are absent.
func ComputeDailyStats(ts *model.TimeSeries) []DailyStats {
	var out []DailyStats
	for i := 0; i < ts.Len(); i++ {
		p := ts.At(i)
		n := len(out)
		if n == 0 || !out[n-1].Date.Equal(p.Date) {
			out = append(out, DailyStats{Date: p.Date, Min: p.Price, Max: p.Price})
			n++
		}
		d := &out[n-1]
		d.Hours++
		d.Mean += p.Price
		if p.Price < d.Min {
			d.Min = p.Price
		}
		if p.Price > d.Max {
			d.Max = p.Price
		}
	}
	for i := range out {
		out[i].Mean /= float64(out[i].Hours)
	}
	return out
}
