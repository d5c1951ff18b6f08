package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spot-analytics/internal/api/models"
	"spot-analytics/internal/dataset"
)

// SeriesHandler serves the canonical hourly series
type SeriesHandler struct {
	Dataset *dataset.Dataset
}

// NewSeriesHandler creates a new series handler
func NewSeriesHandler(ds *dataset.Dataset) *SeriesHandler {
	return &SeriesHandler{Dataset: ds}
}

// GetSeries handles GET /api/v1/series
func (h *SeriesHandler) GetSeries(c *gin.Context) {
	sub, from, to, ok := bindRange(c, h.Dataset)
	if !ok {
		return
	}

	points := make([]models.PricePoint, sub.Len())
	for i := range points {
		points[i] = models.NewPricePoint(sub.At(i))
	}

	c.JSON(http.StatusOK, models.SeriesResponse{
		IndicatorID: h.Dataset.IndicatorID,
		Range:       models.NewDateRange(from, to),
		Count:       len(points),
		Points:      points,
	})
}
