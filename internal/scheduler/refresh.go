package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"spot-analytics/internal/dataset"
	"spot-analytics/internal/ingest"
)

// ErrRefreshInProgress is returned when a refresh is requested while one is running.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Target is an additional indicator written to its own store but not served.
type Target struct {
	IndicatorID int
	OutputPath  string
}

// RefreshJob re-ingests the configured range and swaps the result into the dataset.
type RefreshJob struct {
	Pipeline  *ingest.Pipeline
	Dataset   *dataset.Dataset
	Secondary []Target
	StartDate time.Time
	// EndDate resolves the last date to fetch at refresh time.
	EndDate func(now time.Time) (time.Time, error)
	Logger  *zap.Logger

	mu      sync.Mutex
	running bool
}

// Refresh runs one ingestion for the served indicator, then for each secondary target.
// Only the served indicator's summary is returned; secondary failures are logged.
func (j *RefreshJob) Refresh(ctx context.Context) (*ingest.RunSummary, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil, ErrRefreshInProgress
	}
	j.running = true
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	log := j.logger()
	end, err := j.endDate()
	if err != nil {
		return nil, err
	}

	ts, summary, err := j.Pipeline.Run(ctx, j.Dataset.IndicatorID, j.StartDate, end, j.Dataset.Path)
	switch {
	case err == nil:
		j.Dataset.Replace(ts, summary)
	case summary != nil:
		j.Dataset.RecordRun(summary)
		return summary, err
	default:
		return nil, err
	}

	for _, t := range j.Secondary {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if _, _, err := j.Pipeline.Run(ctx, t.IndicatorID, j.StartDate, end, t.OutputPath); err != nil {
			log.Warn("secondary indicator refresh failed", zap.Int("indicator", t.IndicatorID), zap.Error(err))
		}
	}
	return summary, nil
}

// Running reports whether a refresh is in flight.
func (j *RefreshJob) Running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *RefreshJob) endDate() (time.Time, error) {
	if j.EndDate == nil {
		return time.Time{}, fmt.Errorf("refresh job has no end date resolver")
	}
	end, err := j.EndDate(time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve end date: %w", err)
	}
	if end.Before(j.StartDate) {
		return time.Time{}, fmt.Errorf("end date %s is before start date %s",
			end.Format("2006-01-02"), j.StartDate.Format("2006-01-02"))
	}
	return end, nil
}

func (j *RefreshJob) logger() *zap.Logger {
	if j.Logger == nil {
		return zap.NewNop()
	}
	return j.Logger
}
