package indicator

import (
	"fmt"
	"math"

	"spot-analytics/internal/model"
)

const (
	DefaultBollingerWindow = 20
	DefaultBollingerStd    = 2.0
)

// Bands holds the three Bollinger lines, each aligned with the source series.
type Bands struct {
	Upper  model.IndicatorSeries
	Middle model.IndicatorSeries
	Lower  model.IndicatorSeries
}

// Bollinger returns SMA(window) plus and minus numStd rolling sample standard deviations
// over the same window. Positions where the SMA is undefined are undefined in all three
// lines, and Upper >= Middle >= Lower wherever they are defined.
func Bollinger(ts *model.TimeSeries, window int, numStd float64) (Bands, error) {
	if err := checkSeries(ts); err != nil {
		return Bands{}, err
	}
	// The sample deviation needs two observations.
	if window < 2 {
		return Bands{}, fmt.Errorf("%w: Bollinger window %d", ErrInvalidWindow, window)
	}
	if numStd < 0 || math.IsNaN(numStd) {
		return Bands{}, fmt.Errorf("%w: %v", ErrInvalidMultiplier, numStd)
	}

	prices := ts.Prices()
	n := len(prices)
	bands := Bands{
		Upper:  undefinedSeries(n),
		Middle: sma(prices, window),
		Lower:  undefinedSeries(n),
	}
	for i, m := range bands.Middle {
		if !m.Defined {
			continue
		}
		width := numStd * sampleStd(prices[i-window+1:i+1])
		bands.Upper[i] = model.Defined(m.Value + width)
		bands.Lower[i] = model.Defined(m.Value - width)
	}
	return bands, nil
}

// sampleStd is the standard deviation with n-1 degrees of freedom. len(xs) must be >= 2.
func sampleStd(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
