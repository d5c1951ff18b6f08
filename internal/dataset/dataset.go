// Package dataset holds the canonical series served by the API.
//
// A refresh builds a new immutable TimeSeries and swaps it in; readers keep whatever
// pointer they took, so no request ever sees a half-updated series.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"spot-analytics/internal/data"
	"spot-analytics/internal/ingest"
	"spot-analytics/internal/model"
)

// ErrNotLoaded is returned by Load when the store file does not exist yet.
var ErrNotLoaded = errors.New("dataset not loaded")

type Dataset struct {
	IndicatorID int
	Path        string

	mu        sync.RWMutex
	series    *model.TimeSeries
	lastRun   *ingest.RunSummary
	updatedAt time.Time
}

func New(indicatorID int, path string) *Dataset {
	return &Dataset{IndicatorID: indicatorID, Path: path}
}

// Load reads the CSV store into memory. A missing file yields ErrNotLoaded and leaves
// the current series in place.
func (d *Dataset) Load() error {
	ts, err := data.ReadSeriesCSV(d.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", d.Path, ErrNotLoaded)
		}
		return fmt.Errorf("load %s: %w", d.Path, err)
	}
	info, statErr := os.Stat(d.Path)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.series = ts
	d.updatedAt = time.Now()
	if statErr == nil {
		d.updatedAt = info.ModTime()
	}
	return nil
}

// Replace swaps in a freshly ingested series and the run that produced it.
// A nil or empty series only records the run.
func (d *Dataset) Replace(ts *model.TimeSeries, run *ingest.RunSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if run != nil {
		d.lastRun = run
	}
	if ts == nil || ts.Len() == 0 {
		return
	}
	d.series = ts
	d.updatedAt = time.Now()
	if run != nil && !run.FinishedAt.IsZero() {
		d.updatedAt = run.FinishedAt
	}
}

// RecordRun stores the summary of a run that did not produce a new series.
func (d *Dataset) RecordRun(run *ingest.RunSummary) {
	d.Replace(nil, run)
}

// Series returns the current series, or nil before the first load.
func (d *Dataset) Series() *model.TimeSeries {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.series
}

func (d *Dataset) LastRun() *ingest.RunSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastRun
}

func (d *Dataset) UpdatedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.updatedAt
}

// Loaded reports whether a non-empty series is available.
func (d *Dataset) Loaded() bool {
	ts := d.Series()
	return ts != nil && ts.Len() > 0
}
