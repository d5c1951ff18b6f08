package analysis

import (
	"sort"

	"spot-analytics/internal/model"
)

// HourProfile is the average price of one local clock hour across a range.
type HourProfile struct {
	Hour    int
	Bucket  model.Bucket
	Samples int
	Mean    float64
	// Rank is 1 for the cheapest hour.
	Rank int
}

// ComputeHourlyProfile averages ts by hour of day. Hours with no observation are omitted.
// The result is in hour order; Rank orders the hours by mean price.
func ComputeHourlyProfile(ts *model.TimeSeries) []HourProfile {
	var sums [24]float64
	var counts [24]int
	for i := 0; i < ts.Len(); i++ {
		p := ts.At(i)
		sums[p.Hour] += p.Price
		counts[p.Hour]++
	}

	out := make([]HourProfile, 0, 24)
	for h := 0; h < 24; h++ {
		if counts[h] == 0 {
			continue
		}
		out = append(out, HourProfile{
			Hour:    h,
			Bucket:  model.BucketFromHour(h),
			Samples: counts[h],
			Mean:    sums[h] / float64(counts[h]),
		})
	}

	for rank, h := range RankByMean(out) {
		for i := range out {
			if out[i].Hour == h.Hour {
				out[i].Rank = rank + 1
			}
		}
	}
	return out
}

// RankByMean returns a copy of profile sorted by ascending mean price, ties by hour.
func RankByMean(profile []HourProfile) []HourProfile {
	out := make([]HourProfile, len(profile))
	copy(out, profile)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Mean == out[j].Mean {
			return out[i].Hour < out[j].Hour
		}
		return out[i].Mean < out[j].Mean
	})
	return out
}
