package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spot-analytics/internal/api/models"
	"spot-analytics/internal/dataset"
	"spot-analytics/internal/ingest"
	"spot-analytics/internal/scheduler"
)

// RefreshHandler triggers ingestion runs and reports the dataset state
type RefreshHandler struct {
	Job     *scheduler.RefreshJob
	Dataset *dataset.Dataset
	// Ctx bounds background refreshes; it is cancelled on server shutdown.
	Ctx    context.Context
	Logger *zap.Logger
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(ctx context.Context, job *scheduler.RefreshJob, logger *zap.Logger) *RefreshHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshHandler{Job: job, Dataset: job.Dataset, Ctx: ctx, Logger: logger}
}

// Refresh handles POST /api/v1/refresh
//
// By default the run starts in the background and the call answers 202. With ?wait=true
// the call blocks and answers with the run summary.
func (h *RefreshHandler) Refresh(c *gin.Context) {
	var q models.RefreshQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	}
	if h.Job.Running() {
		respondError(c, http.StatusConflict, CodeRefreshInProgress, scheduler.ErrRefreshInProgress.Error(), nil)
		return
	}

	if !q.Wait {
		go func() {
			summary, err := h.Job.Refresh(h.Ctx)
			if err != nil {
				h.Logger.Error("refresh failed", zap.Error(err))
				return
			}
			h.Logger.Info("refresh done", zap.String("run_id", summary.RunID), zap.String("status", string(summary.Status)))
		}()
		c.JSON(http.StatusAccepted, models.RefreshResponse{Status: "accepted"})
		return
	}

	summary, err := h.Job.Refresh(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, models.RefreshResponse{Status: string(summary.Status), Summary: summary})
	case errors.Is(err, scheduler.ErrRefreshInProgress):
		respondError(c, http.StatusConflict, CodeRefreshInProgress, err.Error(), nil)
	case errors.Is(err, ingest.ErrNoData):
		details := map[string]interface{}{}
		if summary != nil {
			details["run_id"] = summary.RunID
			details["dropped_chunks"] = summary.DroppedChunks
		}
		respondError(c, http.StatusBadGateway, CodeNoData, err.Error(), details)
	default:
		respondError(c, http.StatusInternalServerError, CodeRefreshFailed, err.Error(), nil)
	}
}

// Status handles GET /api/v1/status
func (h *RefreshHandler) Status(c *gin.Context) {
	resp := models.StatusResponse{
		IndicatorID: h.Dataset.IndicatorID,
		Refreshing:  h.Job.Running(),
		LastRun:     h.Dataset.LastRun(),
	}
	if ts := h.Dataset.Series(); ts != nil && ts.Len() > 0 {
		first, _ := ts.First()
		last, _ := ts.Last()
		r := models.NewDateRange(first.Date, last.Date)
		updated := h.Dataset.UpdatedAt()
		resp.Loaded = true
		resp.Points = ts.Len()
		resp.Range = &r
		resp.UpdatedAt = &updated
	}
	c.JSON(http.StatusOK, resp)
}
