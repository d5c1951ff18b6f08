// Package api wires the HTTP read API over the served price series.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spot-analytics/internal/api/handlers"
	"spot-analytics/internal/api/middleware"
	"spot-analytics/internal/dataset"
	"spot-analytics/internal/metrics"
	"spot-analytics/internal/overlay"
	"spot-analytics/internal/scheduler"
)

// Deps are the components the router serves from.
type Deps struct {
	Dataset     *dataset.Dataset
	Job         *scheduler.RefreshJob
	Engine      *overlay.Engine
	Metrics     *metrics.Metrics
	Location    *time.Location
	CORSOrigins []string
	Logger      *zap.Logger
	// Ctx bounds background refreshes started over HTTP.
	Ctx context.Context
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}
	if d.Engine == nil {
		d.Engine = overlay.New(d.Metrics)
	}

	router := gin.New()
	router.Use(middleware.ErrorHandler(d.Logger))
	router.Use(middleware.CORS(d.CORSOrigins))
	router.Use(middleware.Logger(d.Logger))
	router.NoRoute(middleware.NotFound())

	seriesHandler := handlers.NewSeriesHandler(d.Dataset)
	indicatorHandler := handlers.NewIndicatorHandler(d.Dataset, d.Engine)
	statsHandler := handlers.NewStatsHandler(d.Dataset, d.Location)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "loaded": d.Dataset.Loaded()})
	})
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/series", seriesHandler.GetSeries)

		api.GET("/indicators", indicatorHandler.ListIndicators)
		api.GET("/indicators/:kind", indicatorHandler.GetIndicator)

		api.GET("/stats", statsHandler.GetSummary)
		api.GET("/stats/daily", statsHandler.GetDailyStats)
		api.GET("/stats/hourly", statsHandler.GetHourlyProfile)
		api.GET("/coverage", statsHandler.GetCoverage)

		if d.Job != nil {
			refreshHandler := handlers.NewRefreshHandler(d.Ctx, d.Job, d.Logger)
			api.POST("/refresh", refreshHandler.Refresh)
			api.GET("/status", refreshHandler.Status)
		}
	}

	return router
}
