package indicator

import (
	"fmt"

	"spot-analytics/internal/model"
)

// EMA is the exponentially weighted mean with alpha = 2/(window+1).
// The recurrence is seeded with the first observation, so every position is defined.
//
// talib.Ema seeds with an SMA of the first window prices instead and leaves a warm-up
// prefix, which is why this one is computed directly.
func EMA(ts *model.TimeSeries, window int) (model.IndicatorSeries, error) {
	if err := checkSeries(ts); err != nil {
		return nil, err
	}
	if window < 1 {
		return nil, fmt.Errorf("%w: EMA window %d", ErrInvalidWindow, window)
	}

	prices := ts.Prices()
	alpha := 2 / (float64(window) + 1)
	out := make(model.IndicatorSeries, len(prices))
	ema := prices[0]
	out[0] = model.Defined(ema)
	for i := 1; i < len(prices); i++ {
		ema = alpha*prices[i] + (1-alpha)*ema
		out[i] = model.Defined(ema)
	}
	return out, nil
}
