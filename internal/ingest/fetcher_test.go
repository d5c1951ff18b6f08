package ingest

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-analytics/internal/data"
	"spot-analytics/internal/model"
)

func TestFetch_RetryBoundMatchesHealthySource(t *testing.T) {
	start, end := date("2024-01-01"), date("2024-03-01")

	healthy := testFetcher(newFakeSource())
	want, err := healthy.Fetch(context.Background(), SpotPriceIndicator, start, end)
	require.NoError(t, err)

	flaky := newFakeSource().failFor("2024-01-31", 2)
	got, err := testFetcher(flaky).Fetch(context.Background(), SpotPriceIndicator, start, end)
	require.NoError(t, err)

	assert.Equal(t, 3, flaky.callsFor("2024-01-31"))
	assert.Equal(t, 3, got.Chunks[1].Attempts)
	assert.Empty(t, got.Dropped())
	assert.True(t, Normalize(want.Points).Equal(Normalize(got.Points)))
}

func TestFetch_ExhaustedChunkIsDropped(t *testing.T) {
	src := newFakeSource().failFor("2024-01-31", 3)
	res, err := testFetcher(src).Fetch(context.Background(), SpotPriceIndicator, date("2024-01-01"), date("2024-03-01"))
	require.NoError(t, err)

	assert.Equal(t, 3, src.callsFor("2024-01-31"))
	dropped := res.Dropped()
	require.Len(t, dropped, 1)
	assert.Equal(t, "2024-01-31..2024-02-29", dropped[0].Range.String())
	assert.Equal(t, 3, dropped[0].Attempts)
	assert.Zero(t, dropped[0].Points)

	for _, p := range res.Points {
		inDropped := !p.Date.Before(dropped[0].Range.Start) && !p.Date.After(dropped[0].Range.End)
		assert.False(t, inDropped, "point %s from a dropped chunk", p)
	}
	// January 1..30 and March 1 are untouched.
	assert.Equal(t, (30+1)*24, len(res.Points))
}

func TestFetch_PermanentErrorIsNotRetried(t *testing.T) {
	src := newFakeSource().failFor("2024-01-01", 10)
	src.failErr = &data.ESIOSError{StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED"}

	res, err := testFetcher(src).Fetch(context.Background(), SpotPriceIndicator, date("2024-01-01"), date("2024-01-10"))
	require.NoError(t, err)
	assert.Equal(t, 1, src.callsFor("2024-01-01"))
	require.Len(t, res.Dropped(), 1)
	assert.Empty(t, res.Points)
}

func TestFetch_KeepsOnlyTargetGeography(t *testing.T) {
	res, err := testFetcher(newFakeSource()).Fetch(context.Background(), SpotPriceIndicator, date("2024-01-01"), date("2024-01-02"))
	require.NoError(t, err)

	require.Len(t, res.Points, 48)
	for _, p := range res.Points {
		assert.GreaterOrEqual(t, p.Price, 0.0)
	}
	malformed, filtered := res.Skipped()
	assert.Zero(t, malformed)
	assert.Equal(t, 48, filtered)
}

func TestFetch_ConvertsUTCToMadrid(t *testing.T) {
	res, err := testFetcher(newFakeSource()).Fetch(context.Background(), SpotPriceIndicator, date("2024-07-01"), date("2024-07-01"))
	require.NoError(t, err)
	ts := Normalize(res.Points)
	require.Equal(t, 24, ts.Len())

	// 2024-06-30T22:00Z is local midnight in summer (UTC+2).
	first := ts.At(0)
	assert.Equal(t, "2024-07-01", first.FECHA())
	assert.Equal(t, 0, first.Hour)
	assert.Equal(t, priceAt(time.Date(2024, 6, 30, 22, 0, 0, 0, time.UTC)), first.Price)
}

func TestFetch_DSTTransitions(t *testing.T) {
	f := testFetcher(newFakeSource())

	spring, err := f.Fetch(context.Background(), SpotPriceIndicator, date("2024-03-31"), date("2024-03-31"))
	require.NoError(t, err)
	springTS := Normalize(spring.Points)
	assert.Equal(t, 23, springTS.Len())
	for _, p := range springTS.Points() {
		assert.NotEqual(t, 2, p.Hour)
	}

	autumn, err := f.Fetch(context.Background(), SpotPriceIndicator, date("2024-10-27"), date("2024-10-27"))
	require.NoError(t, err)
	assert.Len(t, autumn.Points, 25)
	autumnTS := Normalize(autumn.Points)
	require.Equal(t, 24, autumnTS.Len())

	// The first 02h (00:00Z, still CEST) wins over the repeated one (01:00Z).
	hour2 := autumnTS.At(2)
	assert.Equal(t, 2, hour2.Hour)
	assert.Equal(t, priceAt(time.Date(2024, 10, 27, 0, 0, 0, 0, time.UTC)), hour2.Price)
}

func TestFetch_SkipsMalformedValues(t *testing.T) {
	src := newFakeSource()
	src.extra = []model.IndicatorPoint{
		{GeoID: DefaultGeoID, DatetimeUTC: "", Value: price(1)},
		{GeoID: DefaultGeoID, DatetimeUTC: "2024-01-01 10:00", Value: price(1)},
		{GeoID: DefaultGeoID, DatetimeUTC: "2024-01-01T10:00:00Z", Value: nil},
		{GeoID: 0, DatetimeUTC: "2024-01-01T10:00:00Z", Value: price(1)},
	}

	res, err := testFetcher(src).Fetch(context.Background(), SpotPriceIndicator, date("2024-01-01"), date("2024-01-01"))
	require.NoError(t, err)
	assert.Len(t, res.Points, 24)
	malformed, _ := res.Skipped()
	assert.Equal(t, 4, malformed)
}

func TestFetch_ConcurrentMatchesSequential(t *testing.T) {
	start, end := date("2023-01-01"), date("2023-12-31")

	seq, err := testFetcher(newFakeSource()).Fetch(context.Background(), SpotPriceIndicator, start, end)
	require.NoError(t, err)

	f := testFetcher(newFakeSource().failFor("2023-05-01", 1))
	f.Concurrency = 4
	par, err := f.Fetch(context.Background(), SpotPriceIndicator, start, end)
	require.NoError(t, err)

	assert.Equal(t, len(seq.Chunks), len(par.Chunks))
	assert.True(t, Normalize(seq.Points).Equal(Normalize(par.Points)))
	// 365 days less the skipped spring-forward hour
	assert.Equal(t, 8759, Normalize(par.Points).Len())
}

func TestFetch_ChunkMergeMatchesSingleRequest(t *testing.T) {
	start, end := date("2024-02-10"), date("2024-04-20")

	chunked := testFetcher(newFakeSource())
	a, err := chunked.Fetch(context.Background(), SpotPriceIndicator, start, end)
	require.NoError(t, err)
	require.Greater(t, len(a.Chunks), 1)

	whole := testFetcher(newFakeSource())
	whole.ChunkDays = 365
	b, err := whole.Fetch(context.Background(), SpotPriceIndicator, start, end)
	require.NoError(t, err)
	require.Len(t, b.Chunks, 1)

	assert.True(t, Normalize(a.Points).Equal(Normalize(b.Points)))
}

func TestFetch_Idempotent(t *testing.T) {
	f := testFetcher(newFakeSource())
	start, end := date("2024-10-01"), date("2024-11-15")

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		res, err := f.Fetch(context.Background(), SpotPriceIndicator, start, end)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, data.EncodeSeriesCSV(&buf, Normalize(res.Points)))
		outputs = append(outputs, buf.Bytes())
	}
	assert.Equal(t, outputs[0], outputs[1])
}

func TestFetch_CancelledReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := testFetcher(newFakeSource()).Fetch(ctx, SpotPriceIndicator, date("2024-01-01"), date("2024-03-01"))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Len(t, res.Chunks, 3)
	assert.Len(t, res.Dropped(), 3)
	assert.Empty(t, res.Points)
}

func TestFetch_InvalidRange(t *testing.T) {
	_, err := testFetcher(newFakeSource()).Fetch(context.Background(), SpotPriceIndicator, date("2024-02-01"), date("2024-01-01"))
	assert.Error(t, err)
}

func TestFetchAll(t *testing.T) {
	results, err := testFetcher(newFakeSource()).FetchAll(context.Background(), []int{600, 1001}, date("2024-01-01"), date("2024-01-01"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 600, results[0].IndicatorID)
	assert.Equal(t, 1001, results[1].IndicatorID)
	assert.Len(t, results[1].Points, 24)
}
