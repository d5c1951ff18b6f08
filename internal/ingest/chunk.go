package ingest

import (
	"fmt"
	"time"

	"spot-analytics/internal/model"
)

// DefaultChunkDays bounds the calendar span of one upstream request.
// Whole-range requests over several years time out upstream.
const DefaultChunkDays = 30

// DateRange is an inclusive span of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout))
}

// Days returns the number of calendar days covered, bounds included.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Chunks partitions [start, end] into consecutive ranges of at most days calendar days.
// The next chunk starts the day after the previous one ends, so chunks never overlap.
func Chunks(start, end time.Time, days int) ([]DateRange, error) {
	if days < 1 {
		return nil, fmt.Errorf("chunk size must be at least one day, got %d", days)
	}
	start, end = model.DateOf(start), model.DateOf(end)
	if start.After(end) {
		return nil, fmt.Errorf("start date %s is after end date %s",
			start.Format(model.DateLayout), end.Format(model.DateLayout))
	}

	var out []DateRange
	for cur := start; !cur.After(end); {
		chunkEnd := cur.AddDate(0, 0, days-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		out = append(out, DateRange{Start: cur, End: chunkEnd})
		cur = chunkEnd.AddDate(0, 0, 1)
	}
	return out, nil
}
