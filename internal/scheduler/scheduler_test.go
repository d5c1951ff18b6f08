package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spot-analytics/internal/data"
	"spot-analytics/internal/dataset"
	"spot-analytics/internal/ingest"
	"spot-analytics/internal/model"
)

// hourlySource returns one UTC value per hour of the requested dates for geo 3.
type hourlySource struct {
	calls   atomic.Int32
	block   chan struct{}
	failAll bool
}

func (s *hourlySource) QueryIndicator(ctx context.Context, p data.QueryIndicatorParams) (*model.IndicatorResponse, error) {
	s.calls.Add(1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.failAll {
		return nil, &data.ESIOSError{StatusCode: 401, Code: "UNAUTHORIZED", Message: "bad key"}
	}
	var values []model.IndicatorPoint
	stop := p.EndDate.AddDate(0, 0, 1)
	for t := p.StartDate; t.Before(stop); t = t.Add(time.Hour) {
		v := float64(t.Hour())
		values = append(values, model.IndicatorPoint{
			GeoID:       ingest.DefaultGeoID,
			DatetimeUTC: t.UTC().Format(time.RFC3339),
			Value:       &v,
		})
	}
	return &model.IndicatorResponse{Indicator: model.Indicator{ID: p.IndicatorID, Values: values}}, nil
}

func newJob(t *testing.T, src ingest.IndicatorSource) *RefreshJob {
	t.Helper()
	f, err := ingest.NewFetcher(src, zap.NewNop())
	require.NoError(t, err)
	f.Location = time.UTC
	f.Policy.Sleep = func(context.Context, time.Duration) error { return nil }

	dir := t.TempDir()
	return &RefreshJob{
		Pipeline:  ingest.NewPipeline(f, zap.NewNop(), nil),
		Dataset:   dataset.New(600, filepath.Join(dir, "precios_spot.csv")),
		Secondary: []Target{{IndicatorID: 1001, OutputPath: filepath.Join(dir, "precios_spot_1001.csv")}},
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate: func(time.Time) (time.Time, error) {
			return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), nil
		},
	}
}

func TestRefresh_SwapsDataset(t *testing.T) {
	src := &hourlySource{}
	job := newJob(t, src)

	summary, err := job.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ingest.StatusComplete, summary.Status)
	assert.Equal(t, 48, job.Dataset.Series().Len())
	assert.Same(t, summary, job.Dataset.LastRun())
	assert.Equal(t, int32(2), src.calls.Load()) // served + secondary

	secondary, err := data.ReadSeriesCSV(job.Secondary[0].OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 48, secondary.Len())

	// the swapped-in series matches what was written to disk
	reloaded := dataset.New(600, job.Dataset.Path)
	require.NoError(t, reloaded.Load())
	assert.True(t, reloaded.Series().Equal(job.Dataset.Series()))
}

func TestRefresh_NoDataKeepsSeries(t *testing.T) {
	job := newJob(t, &hourlySource{})
	_, err := job.Refresh(context.Background())
	require.NoError(t, err)
	before := job.Dataset.Series()

	failing := newJob(t, &hourlySource{failAll: true})
	failing.Dataset = job.Dataset

	summary, err := failing.Refresh(context.Background())
	assert.ErrorIs(t, err, ingest.ErrNoData)
	require.NotNil(t, summary)
	assert.Len(t, summary.DroppedChunks, 1)
	assert.Same(t, before, job.Dataset.Series())
	assert.Same(t, summary, job.Dataset.LastRun())
}

func TestRefresh_RejectsConcurrentRuns(t *testing.T) {
	src := &hourlySource{block: make(chan struct{})}
	job := newJob(t, src)

	done := make(chan error, 1)
	go func() {
		_, err := job.Refresh(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return src.calls.Load() > 0 }, time.Second, time.Millisecond)
	assert.True(t, job.Running())

	_, err := job.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(src.block)
	require.NoError(t, <-done)
	assert.False(t, job.Running())
}

func TestRefresh_BadEndDate(t *testing.T) {
	job := newJob(t, &hourlySource{})
	job.EndDate = func(time.Time) (time.Time, error) { return time.Time{}, errors.New("boom") }
	_, err := job.Refresh(context.Background())
	assert.Error(t, err)

	job.EndDate = func(time.Time) (time.Time, error) {
		return time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), nil
	}
	_, err = job.Refresh(context.Background())
	assert.Error(t, err)
	assert.Nil(t, job.Dataset.LastRun())
}

func TestScheduler_RegisterAndRunNow(t *testing.T) {
	src := &hourlySource{}
	s := NewScheduler(context.Background(), newJob(t, src), nil)

	require.NoError(t, s.Register(""))
	assert.Empty(t, s.Cron.Entries())

	assert.Error(t, s.Register("every morning"))
	require.NoError(t, s.Register("0 6 * * *"))
	require.NoError(t, s.Register("@every 6h"))
	assert.Len(t, s.Cron.Entries(), 2)

	s.Start()
	s.RunNow()
	s.Stop()

	assert.True(t, s.Job.Dataset.Loaded())
}
