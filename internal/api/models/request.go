package models

// RangeQuery selects a date range of the served series.
// Timeframe, when set, wins over StartDate/EndDate. Missing bounds default to the
// first and last date of the series.
type RangeQuery struct {
	StartDate string `form:"start_date"` // YYYY-MM-DD
	EndDate   string `form:"end_date"`   // YYYY-MM-DD
	Timeframe string `form:"timeframe"`  // 1D, 1S, 1M, 3M, 6M, 1A, MAX
}

// IndicatorQuery parameterizes GET /api/v1/indicators/:kind.
type IndicatorQuery struct {
	RangeQuery
	Window int      `form:"window" binding:"omitempty,min=1,max=8784"` // default depends on kind
	NumStd *float64 `form:"num_std" binding:"omitempty,gte=0"`        // bollinger only, default 2; 0 is a valid width
}

// RefreshQuery parameterizes POST /api/v1/refresh.
type RefreshQuery struct {
	Wait bool `form:"wait"` // block until the run finishes and return its summary
}
