package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"spot-analytics/internal/data"
	"spot-analytics/internal/model"
)

var madrid = mustLocation(DefaultTimezone)

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func date(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// fakeSource serves synthetic hourly prices for every local hour of the requested dates,
// for geo 3 and a foreign geo 8741. Failures can be scripted per chunk start date.
type fakeSource struct {
	mu       sync.Mutex
	failures map[string]int // chunk start -> failures left
	failErr  error
	calls    map[string]int
	extra    []model.IndicatorPoint // appended to every response
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		failures: map[string]int{},
		calls:    map[string]int{},
		failErr:  errors.New("connection reset by peer"),
	}
}

func (s *fakeSource) failFor(start string, n int) *fakeSource {
	s.failures[start] = n
	return s
}

func (s *fakeSource) callsFor(start string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[start]
}

func (s *fakeSource) QueryIndicator(ctx context.Context, params data.QueryIndicatorParams) (*model.IndicatorResponse, error) {
	key := params.StartDate.Format(model.DateLayout)

	s.mu.Lock()
	s.calls[key]++
	if s.failures[key] > 0 {
		s.failures[key]--
		s.mu.Unlock()
		return nil, s.failErr
	}
	s.mu.Unlock()

	return &model.IndicatorResponse{Indicator: model.Indicator{
		ID:     params.IndicatorID,
		Values: append(syntheticValues(params.StartDate, params.EndDate), s.extra...),
	}}, nil
}

// syntheticValues emits one value per UTC hour covering the local dates [start, end].
func syntheticValues(start, end time.Time) []model.IndicatorPoint {
	var out []model.IndicatorPoint
	begin := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, madrid)
	stop := time.Date(end.Year(), end.Month(), end.Day()+1, 0, 0, 0, 0, madrid)
	for t := begin; t.Before(stop); t = t.Add(time.Hour) {
		ts := t.UTC().Format("2006-01-02T15:04:05Z")
		out = append(out,
			model.IndicatorPoint{GeoID: DefaultGeoID, GeoName: "España", DatetimeUTC: ts, Value: price(priceAt(t))},
			model.IndicatorPoint{GeoID: 8741, GeoName: "Portugal", DatetimeUTC: ts, Value: price(-1)},
		)
	}
	return out
}

func priceAt(t time.Time) float64 {
	return float64(t.Unix()/3600%500) / 4
}

func price(v float64) *float64 { return &v }

func noSleep(context.Context, time.Duration) error { return nil }

func testFetcher(src IndicatorSource) *Fetcher {
	f, err := NewFetcher(src, zap.NewNop())
	if err != nil {
		panic(err)
	}
	f.Policy.Sleep = noSleep
	return f
}
