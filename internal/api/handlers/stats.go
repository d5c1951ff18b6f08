package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spot-analytics/internal/analysis"
	"spot-analytics/internal/api/models"
	"spot-analytics/internal/dataset"
	"spot-analytics/internal/ingest"
)

// StatsHandler serves summary statistics and coverage of the served series
type StatsHandler struct {
	Dataset  *dataset.Dataset
	Location *time.Location
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(ds *dataset.Dataset, loc *time.Location) *StatsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsHandler{Dataset: ds, Location: loc}
}

// GetSummary handles GET /api/v1/stats
func (h *StatsHandler) GetSummary(c *gin.Context) {
	sub, from, to, ok := bindRange(c, h.Dataset)
	if !ok {
		return
	}
	summary, err := analysis.ComputeSummary(sub)
	if err != nil {
		noDataInRange(c, from, to)
		return
	}
	c.JSON(http.StatusOK, models.NewSummaryResponse(summary))
}

// GetDailyStats handles GET /api/v1/stats/daily
func (h *StatsHandler) GetDailyStats(c *gin.Context) {
	sub, from, to, ok := bindRange(c, h.Dataset)
	if !ok {
		return
	}
	if sub.Len() == 0 {
		noDataInRange(c, from, to)
		return
	}
	c.JSON(http.StatusOK, models.NewDailyStatsResponse(models.NewDateRange(from, to), analysis.ComputeDailyStats(sub)))
}

// GetHourlyProfile handles GET /api/v1/stats/hourly
func (h *StatsHandler) GetHourlyProfile(c *gin.Context) {
	sub, from, to, ok := bindRange(c, h.Dataset)
	if !ok {
		return
	}
	if sub.Len() == 0 {
		noDataInRange(c, from, to)
		return
	}
	c.JSON(http.StatusOK, models.NewHourlyProfileResponse(models.NewDateRange(from, to), analysis.ComputeHourlyProfile(sub)))
}

// GetCoverage handles GET /api/v1/coverage
//
// An empty range is a valid answer here: every expected hour is reported missing.
func (h *StatsHandler) GetCoverage(c *gin.Context) {
	sub, from, to, ok := bindRange(c, h.Dataset)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.NewCoverageResponse(ingest.Coverage(sub, from, to, h.Location)))
}

func noDataInRange(c *gin.Context, from, to time.Time) {
	r := models.NewDateRange(from, to)
	respondError(c, http.StatusNotFound, CodeNoDataInRange, "no observations in the requested range",
		map[string]interface{}{"from": r.From, "to": r.To})
}
