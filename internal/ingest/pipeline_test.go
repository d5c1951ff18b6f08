package ingest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spot-analytics/internal/data"
	"spot-analytics/internal/metrics"
)

func TestPipeline_WritesStore(t *testing.T) {
	out := filepath.Join(t.TempDir(), "data", "precios.csv")
	p := NewPipeline(testFetcher(newFakeSource()), zap.NewNop(), metrics.New())

	ts, summary, err := p.Run(context.Background(), SpotPriceIndicator, date("2024-01-01"), date("2024-01-31"), out)
	require.NoError(t, err)
	assert.Equal(t, 31*24, ts.Len())
	assert.Equal(t, StatusComplete, summary.Status)
	assert.True(t, summary.Complete())
	assert.Equal(t, out, summary.OutputPath)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Chunks)

	stored, err := data.ReadSeriesCSV(out)
	require.NoError(t, err)
	assert.True(t, stored.Equal(ts))
}

func TestPipeline_IdempotentStore(t *testing.T) {
	out := filepath.Join(t.TempDir(), "precios.csv")
	p := NewPipeline(testFetcher(newFakeSource()), nil, nil)

	_, _, err := p.Run(context.Background(), SpotPriceIndicator, date("2024-03-20"), date("2024-04-05"), out)
	require.NoError(t, err)
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	_, _, err = p.Run(context.Background(), SpotPriceIndicator, date("2024-03-20"), date("2024-04-05"), out)
	require.NoError(t, err)
	second, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second))
}

func TestPipeline_DroppedChunkHasGaps(t *testing.T) {
	out := filepath.Join(t.TempDir(), "precios.csv")
	src := newFakeSource().failFor("2024-01-31", 3)
	p := NewPipeline(testFetcher(src), nil, nil)

	ts, summary, err := p.Run(context.Background(), SpotPriceIndicator, date("2024-01-01"), date("2024-03-01"), out)
	require.NoError(t, err)
	assert.Equal(t, 31*24, ts.Len())
	assert.Equal(t, StatusHasGaps, summary.Status)
	require.Len(t, summary.DroppedChunks, 1)
	assert.Equal(t, "2024-01-31", summary.DroppedChunks[0].Start)
	assert.Equal(t, 3, summary.DroppedChunks[0].Attempts)
	assert.Equal(t, 30*24, summary.MissingHours)
	require.Len(t, summary.Gaps, 1)
	assert.Equal(t, 30*24, summary.Gaps[0].Hours)

	var buf bytes.Buffer
	summary.Print(&buf)
	assert.Contains(t, buf.String(), "has gaps")
	assert.Contains(t, buf.String(), "dropped 2024-01-31..2024-02-29 after 3 attempt(s)")
}

func TestPipeline_NoDataLeavesStoreUntouched(t *testing.T) {
	out := filepath.Join(t.TempDir(), "precios.csv")
	require.NoError(t, os.WriteFile(out, []byte("FECHA,HORA,PRECIO\n2020-01-01,00,1\n"), 0o644))

	src := newFakeSource().failFor("2024-01-01", 3)
	p := NewPipeline(testFetcher(src), nil, nil)

	ts, summary, err := p.Run(context.Background(), SpotPriceIndicator, date("2024-01-01"), date("2024-01-05"), out)
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Zero(t, ts.Len())
	assert.Equal(t, StatusHasGaps, summary.Status)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "2020-01-01")
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := filepath.Join(t.TempDir(), "precios.csv")
	p := NewPipeline(testFetcher(newFakeSource()), nil, nil)
	p.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	_, summary, err := p.Run(ctx, SpotPriceIndicator, date("2024-01-01"), date("2024-01-05"), out)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.True(t, summary.Cancelled)
	assert.NoFileExists(t, out)
}
