package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-analytics/internal/indicator"
	"spot-analytics/internal/model"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func days(n int, price func(d, h int) float64) *model.TimeSeries {
	var points []model.PricePoint
	for d := 0; d < n; d++ {
		for h := 0; h < 24; h++ {
			points = append(points, model.PricePoint{Date: day0.AddDate(0, 0, d), Hour: h, Price: price(d, h)})
		}
	}
	return model.NewTimeSeries(points)
}

func TestComputeSummary(t *testing.T) {
	ts := model.NewTimeSeries([]model.PricePoint{
		{Date: day0, Hour: 0, Price: 1},
		{Date: day0, Hour: 1, Price: 2},
		{Date: day0, Hour: 2, Price: 3},
		{Date: day0, Hour: 3, Price: 4},
		{Date: day0, Hour: 4, Price: 5},
	})

	s, err := ComputeSummary(ts)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.Mean)
	require.True(t, s.Std.Defined)
	assert.InDelta(t, math.Sqrt(2.5), s.Std.Value, 1e-12)
	assert.InDelta(t, 1.2, s.P05, 1e-12)
	assert.InDelta(t, 4.8, s.P95, 1e-12)
	assert.InDelta(t, 3.6, s.SpreadP95P05, 1e-12)
	assert.True(t, s.StartDate.Equal(day0))
}

func TestComputeSummary_SinglePointHasNoStd(t *testing.T) {
	s, err := ComputeSummary(model.NewTimeSeries([]model.PricePoint{{Date: day0, Hour: 3, Price: 7}}))
	require.NoError(t, err)
	assert.False(t, s.Std.Defined)
	assert.Equal(t, 7.0, s.P05)
	assert.Equal(t, 7.0, s.P95)
}

func TestComputeSummary_Empty(t *testing.T) {
	_, err := ComputeSummary(model.NewTimeSeries(nil))
	assert.ErrorIs(t, err, indicator.ErrEmptySeries)
}

func TestComputeDailyStats(t *testing.T) {
	ts := days(3, func(d, h int) float64 { return float64(d*100 + h) })
	stats := ComputeDailyStats(ts)
	require.Len(t, stats, 3)
	for d, s := range stats {
		assert.True(t, s.Date.Equal(day0.AddDate(0, 0, d)))
		assert.Equal(t, 24, s.Hours)
		assert.Equal(t, float64(d*100), s.Min)
		assert.Equal(t, float64(d*100+23), s.Max)
		assert.InDelta(t, float64(d*100)+11.5, s.Mean, 1e-12)
	}
	assert.Empty(t, ComputeDailyStats(nil))
}

func TestComputeHourlyProfile(t *testing.T) {
	// Price falls with the hour, so hour 23 is the cheapest.
	ts := days(2, func(d, h int) float64 { return float64(100 - h + d) })
	profile := ComputeHourlyProfile(ts)
	require.Len(t, profile, 24)

	assert.Equal(t, 0, profile[0].Hour)
	assert.Equal(t, 24, profile[0].Rank)
	assert.Equal(t, 1, profile[23].Rank)
	assert.Equal(t, 2, profile[23].Samples)
	assert.InDelta(t, 77.5, profile[23].Mean, 1e-12)
	assert.Equal(t, model.BucketPeak, profile[7].Bucket)
	assert.Equal(t, model.BucketOffPeak, profile[12].Bucket)

	ranked := RankByMean(profile)
	assert.Equal(t, 23, ranked[0].Hour)
	assert.Equal(t, 0, ranked[23].Hour)
}

func TestComputeHourlyProfile_SkipsMissingHours(t *testing.T) {
	ts := model.NewTimeSeries([]model.PricePoint{
		{Date: day0, Hour: 3, Price: 10},
		{Date: day0, Hour: 5, Price: 5},
	})
	profile := ComputeHourlyProfile(ts)
	require.Len(t, profile, 2)
	assert.Equal(t, 2, profile[0].Rank)
	assert.Equal(t, 1, profile[1].Rank)
}

func TestResolveTimeframe(t *testing.T) {
	ts := days(400, func(d, h int) float64 { return 1 })
	last := day0.AddDate(0, 0, 399)

	tests := []struct {
		preset string
		from   time.Time
	}{
		{"1D", last.AddDate(0, 0, -1)},
		{"1s", last.AddDate(0, 0, -7)},
		{"1M", last.AddDate(0, 0, -30)},
		{"3M", last.AddDate(0, 0, -90)},
		{"6M", last.AddDate(0, 0, -180)},
		{"1A", last.AddDate(0, 0, -365)},
		{"MAX", day0},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			from, to, err := ResolveTimeframe(ts, tt.preset)
			require.NoError(t, err)
			assert.True(t, to.Equal(last))
			assert.True(t, from.Equal(tt.from), "got %s", from)
		})
	}

	short := days(10, func(d, h int) float64 { return 1 })
	from, _, err := ResolveTimeframe(short, "1A")
	require.NoError(t, err)
	assert.True(t, from.Equal(day0))

	_, _, err = ResolveTimeframe(ts, "2W")
	assert.Error(t, err)
	_, _, err = ResolveTimeframe(model.NewTimeSeries(nil), "MAX")
	assert.Error(t, err)
}
