package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"spot-analytics/internal/data"
	"spot-analytics/internal/metrics"
	"spot-analytics/internal/model"
)

// ErrNoData is returned when a run yields no observations at all. The store is left untouched.
var ErrNoData = errors.New("ingestion produced no observations")

// Pipeline runs one ingestion: fetch, normalize once, check coverage, write the store.
type Pipeline struct {
	Fetcher *Fetcher
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// NewPipeline wires a pipeline around f.
func NewPipeline(f *Fetcher, logger *zap.Logger, m *metrics.Metrics) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{Fetcher: f, Logger: logger, Metrics: m, Now: time.Now}
}

// Run ingests seriesID over [start, end] and, when outputPath is set, replaces the CSV
// store with the canonical series.
//
// The series and summary are returned even when the run has gaps. A cancelled run
// returns what was gathered together with ctx.Err() and does not write the store.
func (p *Pipeline) Run(ctx context.Context, seriesID int, start, end time.Time, outputPath string) (*model.TimeSeries, *RunSummary, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	startedAt := now()

	res, fetchErr := p.Fetcher.Fetch(ctx, seriesID, start, end)
	if res == nil {
		return nil, nil, fmt.Errorf("fetch indicator %d: %w", seriesID, fetchErr)
	}

	ts := Normalize(res.Points)
	cov := Coverage(ts, start, end, p.Fetcher.Location)
	summary := NewRunSummary(res, ts, cov, startedAt, now())

	log := p.Logger.With(zap.String("run_id", summary.RunID), zap.Int("indicator", seriesID))

	if fetchErr != nil {
		summary.Cancelled = true
		log.Warn("ingestion cancelled", zap.Int("points", ts.Len()), zap.Error(fetchErr))
		return ts, summary, fetchErr
	}
	if ts.Len() == 0 {
		log.Error("ingestion produced no data", zap.Int("dropped_chunks", len(summary.DroppedChunks)))
		return ts, summary, ErrNoData
	}

	if outputPath != "" {
		if err := data.WriteSeriesCSV(outputPath, ts); err != nil {
			return ts, summary, fmt.Errorf("write %s: %w", outputPath, err)
		}
		summary.OutputPath = outputPath
	}
	summary.FinishedAt = now()
	p.Metrics.ObserveSeries(ts.Len(), summary.MissingHours, summary.FinishedAt)

	log.Info("ingestion finished",
		zap.String("status", string(summary.Status)),
		zap.Int("points", summary.Points),
		zap.Int("missing_hours", summary.MissingHours),
		zap.Int("dropped_chunks", len(summary.DroppedChunks)),
		zap.String("output", outputPath),
	)
	return ts, summary, nil
}
