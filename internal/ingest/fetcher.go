package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // Europe/Madrid must resolve on hosts without a zoneinfo database

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"spot-analytics/internal/data"
	"spot-analytics/internal/metrics"
	"spot-analytics/internal/model"
)

const (
	// DefaultGeoID is the ESIOS geography id for peninsular Spain.
	DefaultGeoID = 3
	// DefaultTimezone is the civil time zone prices are published in.
	DefaultTimezone = "Europe/Madrid"
	// SpotPriceIndicator is the ESIOS daily spot market price.
	SpotPriceIndicator = 600
)

// IndicatorSource answers one chunk request. *data.ESIOSClient satisfies it.
type IndicatorSource interface {
	QueryIndicator(ctx context.Context, params data.QueryIndicatorParams) (*model.IndicatorResponse, error)
}

// Fetcher retrieves a long date range from an IndicatorSource in bounded chunks.
// A chunk that still fails after the retry policy is exhausted is dropped; the run goes on.
type Fetcher struct {
	Source      IndicatorSource
	Policy      RetryPolicy
	GeoID       int
	Location    *time.Location
	ChunkDays   int
	Concurrency int

	Logger  *zap.Logger
	Metrics *metrics.Metrics

	validate *validator.Validate
}

// NewFetcher returns a sequential fetcher with the default chunking, retry policy,
// geography and time zone.
func NewFetcher(source IndicatorSource, logger *zap.Logger) (*Fetcher, error) {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %s: %w", DefaultTimezone, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		Source:      source,
		Policy:      DefaultRetryPolicy(),
		GeoID:       DefaultGeoID,
		Location:    loc,
		ChunkDays:   DefaultChunkDays,
		Concurrency: 1,
		Logger:      logger,
		validate:    validator.New(),
	}, nil
}

// ChunkOutcome is the result of one (indicator, chunk) request after retries.
type ChunkOutcome struct {
	IndicatorID int
	Range       DateRange
	Attempts    int
	Points      int // kept after geo filtering
	Skipped     int // malformed upstream values
	Filtered    int // values for other geographies
	Err         error
}

// Dropped reports whether the chunk contributed nothing because every attempt failed.
func (o ChunkOutcome) Dropped() bool {
	return o.Err != nil
}

// FetchResult holds the raw points of one indicator over the requested range.
// Points are grouped by chunk in chunk order but are not sorted or deduplicated.
type FetchResult struct {
	IndicatorID int
	Start       time.Time
	End         time.Time
	Points      []model.PricePoint
	Chunks      []ChunkOutcome
}

// Dropped returns the chunks that failed.
func (r *FetchResult) Dropped() []ChunkOutcome {
	var out []ChunkOutcome
	for _, c := range r.Chunks {
		if c.Dropped() {
			out = append(out, c)
		}
	}
	return out
}

// Skipped returns the number of malformed and foreign-geography values ignored.
func (r *FetchResult) Skipped() (malformed, filtered int) {
	for _, c := range r.Chunks {
		malformed += c.Skipped
		filtered += c.Filtered
	}
	return malformed, filtered
}

// Fetch retrieves seriesID over [start, end].
//
// Chunk failures never make Fetch fail. The returned error is non-nil only for an invalid
// range or when ctx is cancelled; in the latter case the result still carries every point
// gathered before cancellation.
func (f *Fetcher) Fetch(ctx context.Context, seriesID int, start, end time.Time) (*FetchResult, error) {
	if f.Source == nil {
		return nil, errors.New("fetcher has no indicator source")
	}
	chunkDays := f.ChunkDays
	if chunkDays <= 0 {
		chunkDays = DefaultChunkDays
	}
	chunks, err := Chunks(start, end, chunkDays)
	if err != nil {
		return nil, err
	}

	log := f.logger().With(zap.Int("indicator", seriesID))
	log.Info("fetch started",
		zap.String("start", model.DateOf(start).Format(model.DateLayout)),
		zap.String("end", model.DateOf(end).Format(model.DateLayout)),
		zap.Int("chunks", len(chunks)),
	)

	if f.validate == nil {
		f.validate = validator.New()
	}

	workers := f.Concurrency
	if workers < 1 {
		workers = 1
	}

	// Each chunk writes only its own slot, so no lock is needed and the merged output
	// keeps chunk order regardless of completion order.
	outcomes := make([]ChunkOutcome, len(chunks))
	points := make([][]model.PricePoint, len(chunks))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, r := range chunks {
		outcomes[i] = ChunkOutcome{IndicatorID: seriesID, Range: r}
		select {
		case <-ctx.Done():
			outcomes[i].Err = ctx.Err()
			continue
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			<-sem
			outcomes[i].Err = ctx.Err()
			continue
		}

		wg.Add(1)
		go func(i int, r DateRange) {
			defer wg.Done()
			defer func() { <-sem }()
			points[i], outcomes[i] = f.fetchChunk(ctx, log, seriesID, r)
		}(i, r)
	}
	wg.Wait()

	result := &FetchResult{
		IndicatorID: seriesID,
		Start:       model.DateOf(start),
		End:         model.DateOf(end),
		Chunks:      outcomes,
	}
	for _, p := range points {
		result.Points = append(result.Points, p...)
	}

	dropped := len(result.Dropped())
	malformed, filtered := result.Skipped()
	log.Info("fetch finished",
		zap.Int("points", len(result.Points)),
		zap.Int("dropped_chunks", dropped),
		zap.Int("skipped", malformed),
		zap.Int("filtered", filtered),
	)

	return result, ctx.Err()
}

// FetchAll runs Fetch for every id in order. It stops early only on cancellation.
func (f *Fetcher) FetchAll(ctx context.Context, ids []int, start, end time.Time) ([]*FetchResult, error) {
	results := make([]*FetchResult, 0, len(ids))
	for _, id := range ids {
		res, err := f.Fetch(ctx, id, start, end)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (f *Fetcher) fetchChunk(ctx context.Context, log *zap.Logger, seriesID int, r DateRange) ([]model.PricePoint, ChunkOutcome) {
	outcome := ChunkOutcome{IndicatorID: seriesID, Range: r}
	params := data.QueryIndicatorParams{
		IndicatorID: seriesID,
		StartDate:   r.Start,
		EndDate:     r.End,
	}

	var resp *model.IndicatorResponse
	attempts, err := f.Policy.Do(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = f.Source.QueryIndicator(ctx, params)
		if callErr == nil && resp == nil {
			callErr = errors.New("empty response body")
		}
		if callErr != nil {
			log.Debug("chunk attempt failed", zap.Stringer("chunk", r), zap.Error(callErr))
		}
		return callErr
	})
	outcome.Attempts = attempts
	for i := 1; i < attempts; i++ {
		f.Metrics.IncRetry()
	}

	if err != nil {
		outcome.Err = err
		f.Metrics.ObserveChunk(true, 0)
		log.Warn("chunk dropped",
			zap.Stringer("chunk", r),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, outcome
	}

	pts := f.convert(resp.Indicator.Values, &outcome)
	outcome.Points = len(pts)
	f.Metrics.ObserveChunk(false, len(pts))
	f.Metrics.AddSkipped("malformed", outcome.Skipped)
	f.Metrics.AddSkipped("geo", outcome.Filtered)
	log.Debug("chunk fetched",
		zap.Stringer("chunk", r),
		zap.Int("attempts", attempts),
		zap.Int("points", len(pts)),
	)
	return pts, outcome
}

// convert keeps valid values of the target geography and moves them to local civil time.
func (f *Fetcher) convert(values []model.IndicatorPoint, outcome *ChunkOutcome) []model.PricePoint {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	out := make([]model.PricePoint, 0, len(values))
	for _, val := range values {
		if err := f.validate.Struct(val); err != nil {
			outcome.Skipped++
			continue
		}
		if val.GeoID != f.GeoID {
			outcome.Filtered++
			continue
		}
		instant, err := time.Parse(time.RFC3339, val.DatetimeUTC)
		if err != nil {
			outcome.Skipped++
			continue
		}
		out = append(out, model.NewPricePoint(instant.In(loc), *val.Value))
	}
	return out
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}
