package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spot-analytics/internal/analysis"
	"spot-analytics/internal/api/models"
	"spot-analytics/internal/dataset"
	"spot-analytics/internal/model"
)

// Error codes returned in models.ErrorDetail.Code.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeInvalidDate       = "INVALID_DATE"
	CodeInvalidRange      = "INVALID_RANGE"
	CodeInvalidTimeframe  = "INVALID_TIMEFRAME"
	CodeInvalidParameter  = "INVALID_PARAMETER"
	CodeUnknownIndicator  = "UNKNOWN_INDICATOR"
	CodeNotLoaded         = "DATASET_NOT_LOADED"
	CodeNoDataInRange     = "NO_DATA_IN_RANGE"
	CodeRefreshInProgress = "REFRESH_IN_PROGRESS"
	CodeRefreshFailed     = "REFRESH_FAILED"
	CodeNoData            = "NO_DATA"
	CodeInternal          = "INTERNAL_ERROR"
)

func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// requestError is a client error carrying its response code.
type requestError struct {
	status int
	code   string
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(code string, err error) error {
	return &requestError{status: http.StatusBadRequest, code: code, err: err}
}

// respondRequestError writes err as a JSON error, defaulting to 500.
func respondRequestError(c *gin.Context, err error) {
	var re *requestError
	if errors.As(err, &re) {
		respondError(c, re.status, re.code, re.Error(), nil)
		return
	}
	respondError(c, http.StatusInternalServerError, CodeInternal, err.Error(), nil)
}

// currentSeries returns the served series or writes a 503 when none is loaded yet.
func currentSeries(c *gin.Context, ds *dataset.Dataset) (*model.TimeSeries, bool) {
	ts := ds.Series()
	if ts == nil || ts.Len() == 0 {
		respondError(c, http.StatusServiceUnavailable, CodeNotLoaded,
			"no price series loaded yet; run a refresh first",
			map[string]interface{}{"indicator_id": ds.IndicatorID})
		return nil, false
	}
	return ts, true
}

// resolveRange turns a RangeQuery into inclusive dates within ts. Explicit bounds are
// clamped to the first and last date of ts; a range that does not overlap ts at all is a 404.
func resolveRange(ts *model.TimeSeries, q models.RangeQuery) (from, to time.Time, err error) {
	if q.Timeframe != "" {
		from, to, err = analysis.ResolveTimeframe(ts, q.Timeframe)
		if err != nil {
			return time.Time{}, time.Time{}, badRequest(CodeInvalidTimeframe, err)
		}
		return from, to, nil
	}

	first, _ := ts.First()
	last, _ := ts.Last()
	from, to = first.Date, last.Date

	if q.StartDate != "" {
		if from, err = model.ParseDate(q.StartDate); err != nil {
			return time.Time{}, time.Time{}, badRequest(CodeInvalidDate, fmt.Errorf("start_date: %w", err))
		}
	}
	if q.EndDate != "" {
		if to, err = model.ParseDate(q.EndDate); err != nil {
			return time.Time{}, time.Time{}, badRequest(CodeInvalidDate, fmt.Errorf("end_date: %w", err))
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, badRequest(CodeInvalidRange,
			fmt.Errorf("end_date %s is before start_date %s", to.Format(model.DateLayout), from.Format(model.DateLayout)))
	}
	if to.Before(first.Date) || from.After(last.Date) {
		return time.Time{}, time.Time{}, &requestError{
			status: http.StatusNotFound,
			code:   CodeNoDataInRange,
			err: fmt.Errorf("no observations between %s and %s; the series covers %s to %s",
				from.Format(model.DateLayout), to.Format(model.DateLayout),
				first.Date.Format(model.DateLayout), last.Date.Format(model.DateLayout)),
		}
	}
	if from.Before(first.Date) {
		from = first.Date
	}
	if to.After(last.Date) {
		to = last.Date
	}
	return from, to, nil
}

// bindRange binds the range query parameters and slices the served series.
// It writes the error response itself and reports false on failure.
func bindRange(c *gin.Context, ds *dataset.Dataset) (sub *model.TimeSeries, from, to time.Time, ok bool) {
	ts, ok := currentSeries(c, ds)
	if !ok {
		return nil, time.Time{}, time.Time{}, false
	}
	var q models.RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return nil, time.Time{}, time.Time{}, false
	}
	from, to, err := resolveRange(ts, q)
	if err != nil {
		respondRequestError(c, err)
		return nil, time.Time{}, time.Time{}, false
	}
	return ts.Between(from, to), from, to, true
}
