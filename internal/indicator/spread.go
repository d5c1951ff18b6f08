package indicator

import "spot-analytics/internal/model"

// PeakOffpeakSpread compares each hour against the whole-range mean of the other bucket.
//
// For a peak hour the value is price - mean(off-peak prices); for an off-peak hour it is
// mean(peak prices) - price. Both means are taken once over the entire input. The two
// halves of the output are therefore on different scales; callers that need a symmetric
// spread must compute it themselves. When one bucket is empty the other bucket's
// positions are undefined.
func PeakOffpeakSpread(ts *model.TimeSeries) (model.IndicatorSeries, error) {
	if err := checkSeries(ts); err != nil {
		return nil, err
	}

	var peakSum, offSum float64
	var peakN, offN int
	for i := 0; i < ts.Len(); i++ {
		p := ts.At(i)
		if model.IsPeakHour(p.Hour) {
			peakSum += p.Price
			peakN++
		} else {
			offSum += p.Price
			offN++
		}
	}

	out := undefinedSeries(ts.Len())
	for i := 0; i < ts.Len(); i++ {
		p := ts.At(i)
		switch {
		case model.IsPeakHour(p.Hour) && offN > 0:
			out[i] = model.Defined(p.Price - offSum/float64(offN))
		case !model.IsPeakHour(p.Hour) && peakN > 0:
			out[i] = model.Defined(peakSum/float64(peakN) - p.Price)
		}
	}
	return out, nil
}
