package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spot-analytics/internal/config"
	"spot-analytics/internal/metrics"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ESIOS.APIKey = "k"
	cfg.ESIOS.IndicatorIDs = []int{600, 1001}
	cfg.ESIOS.Timezone = "Atlantic/Canary"
	cfg.ESIOS.GeoID = 8742
	cfg.Fetch.ChunkDays = 10
	cfg.Fetch.Concurrency = 4
	cfg.Fetch.MaxAttempts = 5
	cfg.Fetch.BackoffBase = 250 * time.Millisecond
	cfg.Fetch.StartDate = "2024-01-01"
	cfg.Cache.Enabled = true
	cfg.Storage.OutputPath = "out/prices.csv"
	return cfg
}

func TestNewClient(t *testing.T) {
	cfg := testConfig()
	c := NewClient(cfg, zap.NewNop(), nil)
	assert.Equal(t, "k", c.APIKey)
	assert.Equal(t, "https://api.esios.ree.es", c.BaseURL)
	assert.NotNil(t, c.Cache)

	cfg.Cache.Enabled = false
	assert.Nil(t, NewClient(cfg, nil, nil).Cache)
}

func TestNewFetcher_AppliesConfig(t *testing.T) {
	cfg := testConfig()
	m := metrics.New()
	f, err := NewFetcher(cfg, NewClient(cfg, nil, m), zap.NewNop(), m)
	require.NoError(t, err)

	assert.Equal(t, "Atlantic/Canary", f.Location.String())
	assert.Equal(t, 8742, f.GeoID)
	assert.Equal(t, 10, f.ChunkDays)
	assert.Equal(t, 4, f.Concurrency)
	assert.Equal(t, 5, f.Policy.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, f.Policy.Backoff(0))
	assert.Equal(t, time.Second, f.Policy.Backoff(2))
	assert.Same(t, m, f.Metrics)

	cfg.ESIOS.Timezone = "Nowhere/Special"
	_, err = NewFetcher(cfg, nil, nil, nil)
	assert.Error(t, err)
}

func TestNewRefreshJob(t *testing.T) {
	cfg := testConfig()
	p, err := NewPipeline(cfg, NewClient(cfg, nil, nil), nil, nil)
	require.NoError(t, err)

	ds := NewDataset(cfg)
	assert.Equal(t, 600, ds.IndicatorID)
	assert.Equal(t, "out/prices.csv", ds.Path)

	job, err := NewRefreshJob(cfg, p, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", job.StartDate.Format("2006-01-02"))
	require.Len(t, job.Secondary, 1)
	assert.Equal(t, 1001, job.Secondary[0].IndicatorID)
	assert.Equal(t, "out/prices_1001.csv", job.Secondary[0].OutputPath)

	end, err := job.EndDate(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", end.Format("2006-01-02"))
}
