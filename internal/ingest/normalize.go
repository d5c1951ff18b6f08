package ingest

import "spot-analytics/internal/model"

// Normalize turns raw fetched points into the canonical series.
//
// Points are deduplicated by (Date, Hour), keeping the first one in input order, then
// stable-sorted. On the autumn DST day local hour 02 occurs twice; the later one is
// dropped. On the spring day local hour 02 does not exist and stays absent.
// Missing hours are never filled in.
func Normalize(points []model.PricePoint) *model.TimeSeries {
	return model.NewTimeSeries(points)
}
