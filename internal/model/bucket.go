package model

// Bucket is the daily demand period an hour belongs to.
// Keep these values stable; they are intended for CSV output.
type Bucket string

const (
	BucketPeak    Bucket = "PEAK"
	BucketOffPeak Bucket = "OFFPEAK"
)

// Peak hours are [6,10) and [19,23) local time.
var peakWindows = [][2]int{{6, 10}, {19, 23}}

// BucketFromHour classifies a local clock hour.
func BucketFromHour(hour int) Bucket {
	if IsPeakHour(hour) {
		return BucketPeak
	}
	return BucketOffPeak
}

// IsPeakHour reports whether hour falls in a peak window.
func IsPeakHour(hour int) bool {
	for _, w := range peakWindows {
		if hour >= w[0] && hour < w[1] {
			return true
		}
	}
	return false
}
