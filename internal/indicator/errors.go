// Package indicator derives overlay series from a canonical price series.
//
// Every function is pure: it reads an immutable *model.TimeSeries and returns a new
// model.IndicatorSeries aligned index-for-index with it. Positions without enough history
// are marked undefined rather than filled with zero or NaN. Gaps in the hourly series are
// not interpolated; a window simply spans the observations that exist.
package indicator

import (
	"errors"

	"spot-analytics/internal/model"
)

var (
	// ErrEmptySeries is returned for a series with no observations.
	ErrEmptySeries = errors.New("indicator: empty series")
	// ErrInvalidWindow is returned for a window too small for the statistic.
	ErrInvalidWindow = errors.New("indicator: invalid window")
	// ErrInvalidMultiplier is returned for a negative band width multiplier.
	ErrInvalidMultiplier = errors.New("indicator: band multiplier must not be negative")
)

func checkSeries(ts *model.TimeSeries) error {
	if ts.Len() == 0 {
		return ErrEmptySeries
	}
	return nil
}

func undefinedSeries(n int) model.IndicatorSeries {
	return make(model.IndicatorSeries, n)
}
