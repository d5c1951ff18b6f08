package models

import (
	"time"

	"spot-analytics/internal/analysis"
	"spot-analytics/internal/ingest"
	"spot-analytics/internal/model"
)

// DateRange echoes the resolved range of a response.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: from.Format(model.DateLayout), To: to.Format(model.DateLayout)}
}

// PricePoint is one hour of the series.
type PricePoint struct {
	Date   string       `json:"date"`
	Hour   int          `json:"hour"`
	Price  float64      `json:"price"`
	Bucket model.Bucket `json:"bucket"`
}

func NewPricePoint(p model.PricePoint) PricePoint {
	return PricePoint{
		Date:   p.FECHA(),
		Hour:   p.Hour,
		Price:  p.Price,
		Bucket: model.BucketFromHour(p.Hour),
	}
}

// SeriesResponse represents GET /api/v1/series
type SeriesResponse struct {
	IndicatorID int          `json:"indicator_id"`
	Range       DateRange    `json:"range"`
	Count       int          `json:"count"`
	Points      []PricePoint `json:"points"`
}

// IndicatorRow is one hour with its overlay values; undefined values are null.
type IndicatorRow struct {
	PricePoint
	Values map[string]model.IndicatorValue `json:"values"`
}

// IndicatorResponse represents GET /api/v1/indicators/:kind
type IndicatorResponse struct {
	Indicator string         `json:"indicator"`
	Window    int            `json:"window,omitempty"`
	NumStd    *float64       `json:"num_std,omitempty"` // bollinger only
	Columns   []string       `json:"columns"`
	Range     DateRange      `json:"range"`
	Defined   int            `json:"defined"`
	Rows      []IndicatorRow `json:"rows"`
}

// SummaryResponse represents GET /api/v1/stats
type SummaryResponse struct {
	Range        DateRange            `json:"range"`
	Count        int                  `json:"count"`
	Min          float64              `json:"min"`
	Max          float64              `json:"max"`
	Mean         float64              `json:"mean"`
	Std          model.IndicatorValue `json:"std"`
	P05          float64              `json:"p05"`
	P95          float64              `json:"p95"`
	SpreadP95P05 float64              `json:"spread_p95_p05"`
}

func NewSummaryResponse(s analysis.Summary) SummaryResponse {
	return SummaryResponse{
		Range:        NewDateRange(s.StartDate, s.EndDate),
		Count:        s.Count,
		Min:          s.Min,
		Max:          s.Max,
		Mean:         s.Mean,
		Std:          s.Std,
		P05:          s.P05,
		P95:          s.P95,
		SpreadP95P05: s.SpreadP95P05,
	}
}

// DailyStats is one date of GET /api/v1/stats/daily
type DailyStats struct {
	Date  string  `json:"date"`
	Hours int     `json:"hours"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

type DailyStatsResponse struct {
	Range DateRange    `json:"range"`
	Days  []DailyStats `json:"days"`
}

func NewDailyStatsResponse(r DateRange, stats []analysis.DailyStats) DailyStatsResponse {
	days := make([]DailyStats, len(stats))
	for i, d := range stats {
		days[i] = DailyStats{
			Date:  d.Date.Format(model.DateLayout),
			Hours: d.Hours,
			Mean:  d.Mean,
			Min:   d.Min,
			Max:   d.Max,
		}
	}
	return DailyStatsResponse{Range: r, Days: days}
}

// HourProfile is one clock hour of GET /api/v1/stats/hourly
type HourProfile struct {
	Hour    int          `json:"hour"`
	Bucket  model.Bucket `json:"bucket"`
	Samples int          `json:"samples"`
	Mean    float64      `json:"mean"`
	Rank    int          `json:"rank"` // 1 = cheapest
}

type HourlyProfileResponse struct {
	Range DateRange     `json:"range"`
	Hours []HourProfile `json:"hours"`
}

func NewHourlyProfileResponse(r DateRange, profile []analysis.HourProfile) HourlyProfileResponse {
	hours := make([]HourProfile, len(profile))
	for i, h := range profile {
		hours[i] = HourProfile{Hour: h.Hour, Bucket: h.Bucket, Samples: h.Samples, Mean: h.Mean, Rank: h.Rank}
	}
	return HourlyProfileResponse{Range: r, Hours: hours}
}

// CoverageResponse represents GET /api/v1/coverage
type CoverageResponse struct {
	Range    DateRange     `json:"range"`
	Expected int           `json:"expected_hours"`
	Present  int           `json:"present_hours"`
	Missing  []ingest.Slot `json:"missing"`
	Gaps     []ingest.Gap  `json:"gaps"`
	Complete bool          `json:"complete"`
}

func NewCoverageResponse(c ingest.CoverageReport) CoverageResponse {
	missing := c.Missing
	if missing == nil {
		missing = []ingest.Slot{}
	}
	gaps := c.Gaps
	if gaps == nil {
		gaps = []ingest.Gap{}
	}
	return CoverageResponse{
		Range:    NewDateRange(c.From, c.To),
		Expected: c.Expected,
		Present:  c.Present,
		Missing:  missing,
		Gaps:     gaps,
		Complete: c.Complete(),
	}
}

// StatusResponse represents GET /api/v1/status
type StatusResponse struct {
	IndicatorID int                `json:"indicator_id"`
	Loaded      bool               `json:"loaded"`
	Points      int                `json:"points"`
	Range       *DateRange         `json:"range,omitempty"`
	UpdatedAt   *time.Time         `json:"updated_at,omitempty"`
	Refreshing  bool               `json:"refreshing"`
	LastRun     *ingest.RunSummary `json:"last_run,omitempty"`
}

// RefreshResponse represents POST /api/v1/refresh
type RefreshResponse struct {
	Status  string             `json:"status"` // "accepted" or the run status
	Summary *ingest.RunSummary `json:"summary,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// IndicatorInfo describes one overlay family offered by the API
type IndicatorInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Columns     []string        `json:"columns"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes an indicator query parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}
