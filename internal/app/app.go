// Package app builds the ingestion components from a loaded configuration.
// Both commands share it so the CLI and the server fetch the same way.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"spot-analytics/internal/config"
	"spot-analytics/internal/data"
	"spot-analytics/internal/dataset"
	"spot-analytics/internal/ingest"
	"spot-analytics/internal/metrics"
	"spot-analytics/internal/scheduler"
)

// NewClient builds the ESIOS client, with the response cache when enabled.
func NewClient(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *data.ESIOSClient {
	client := data.NewESIOSClient(cfg.ESIOS.APIKey, cfg.ESIOS.BaseURL, cfg.ESIOS.Timeout, logger)
	client.Metrics = m
	if cfg.Cache.Enabled {
		client.Cache = data.NewResponseCache(cfg.Cache.TTL)
	}
	return client
}

// NewFetcher configures a fetcher over source from the esios and fetch sections.
func NewFetcher(cfg *config.Config, source ingest.IndicatorSource, logger *zap.Logger, m *metrics.Metrics) (*ingest.Fetcher, error) {
	f, err := ingest.NewFetcher(source, logger)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.ESIOS.Timezone)
	if err != nil {
		return nil, fmt.Errorf("esios.timezone: %w", err)
	}
	f.Location = loc
	f.GeoID = cfg.ESIOS.GeoID
	f.ChunkDays = cfg.Fetch.ChunkDays
	f.Concurrency = cfg.Fetch.Concurrency
	f.Policy.MaxAttempts = cfg.Fetch.MaxAttempts
	f.Policy.Backoff = ingest.ExponentialBackoff(cfg.Fetch.BackoffBase)
	f.Metrics = m
	return f, nil
}

// NewPipeline is NewFetcher plus the pipeline around it.
func NewPipeline(cfg *config.Config, source ingest.IndicatorSource, logger *zap.Logger, m *metrics.Metrics) (*ingest.Pipeline, error) {
	f, err := NewFetcher(cfg, source, logger, m)
	if err != nil {
		return nil, err
	}
	return ingest.NewPipeline(f, logger, m), nil
}

// NewRefreshJob serves the primary indicator from ds and writes every other configured
// indicator to its own store.
func NewRefreshJob(cfg *config.Config, p *ingest.Pipeline, ds *dataset.Dataset, logger *zap.Logger) (*scheduler.RefreshJob, error) {
	start, err := cfg.StartDate()
	if err != nil {
		return nil, fmt.Errorf("fetch.start_date: %w", err)
	}
	job := &scheduler.RefreshJob{
		Pipeline:  p,
		Dataset:   ds,
		StartDate: start,
		EndDate:   cfg.EndDate,
		Logger:    logger,
	}
	for _, id := range cfg.ESIOS.IndicatorIDs {
		if id == ds.IndicatorID {
			continue
		}
		job.Secondary = append(job.Secondary, scheduler.Target{IndicatorID: id, OutputPath: cfg.OutputPathFor(id)})
	}
	return job, nil
}

// NewDataset holds the primary indicator's store.
func NewDataset(cfg *config.Config) *dataset.Dataset {
	id := cfg.PrimaryIndicator()
	return dataset.New(id, cfg.OutputPathFor(id))
}
