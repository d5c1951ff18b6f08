package indicator

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"spot-analytics/internal/model"
)

// SMA is the trailing arithmetic mean of the last window observations.
// The first window-1 positions are undefined; a window longer than the series leaves
// every position undefined.
func SMA(ts *model.TimeSeries, window int) (model.IndicatorSeries, error) {
	if err := checkSeries(ts); err != nil {
		return nil, err
	}
	if window < 1 {
		return nil, fmt.Errorf("%w: SMA window %d", ErrInvalidWindow, window)
	}
	return sma(ts.Prices(), window), nil
}

func sma(prices []float64, window int) model.IndicatorSeries {
	out := undefinedSeries(len(prices))
	// talib indexes past the input when it is shorter than the period.
	if len(prices) < window {
		return out
	}
	avg := talib.Sma(prices, window)
	for i := window - 1; i < len(prices); i++ {
		out[i] = model.Defined(avg[i])
	}
	return out
}
