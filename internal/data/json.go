package data

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"spot-analytics/internal/model"
)

// LoadIndicatorJSON reads a saved /indicators/{id} response from disk.
func LoadIndicatorJSON(path string) (*model.IndicatorResponse, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var resp model.IndicatorResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &resp, nil
}

// SnapshotSource answers chunk requests from a saved response instead of the API.
// Values are selected by their local calendar date. Values whose timestamp does not
// parse are returned once, with the first answered chunk, so the caller counts them once.
type SnapshotSource struct {
	Response *model.IndicatorResponse
	Location *time.Location

	mu               sync.Mutex
	malformedPending bool
}

// NewSnapshotSource loads path as a SnapshotSource in loc.
func NewSnapshotSource(path string, loc *time.Location) (*SnapshotSource, error) {
	resp, err := LoadIndicatorJSON(path)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SnapshotSource{Response: resp, Location: loc, malformedPending: true}, nil
}

func (s *SnapshotSource) QueryIndicator(ctx context.Context, params QueryIndicatorParams) (*model.IndicatorResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Response.Indicator.ID != 0 && params.IndicatorID != s.Response.Indicator.ID {
		return nil, fmt.Errorf("snapshot holds indicator %d, not %d", s.Response.Indicator.ID, params.IndicatorID)
	}

	s.mu.Lock()
	withMalformed := s.malformedPending
	s.malformedPending = false
	s.mu.Unlock()

	from := model.DateOf(params.StartDate)
	to := model.DateOf(params.EndDate)
	out := &model.IndicatorResponse{Indicator: model.Indicator{
		ID:   s.Response.Indicator.ID,
		Name: s.Response.Indicator.Name,
	}}
	for _, v := range s.Response.Indicator.Values {
		t, err := time.Parse(time.RFC3339, v.DatetimeUTC)
		if err != nil {
			if withMalformed {
				out.Indicator.Values = append(out.Indicator.Values, v)
			}
			continue
		}
		d := model.DateOf(t.In(s.Location))
		if d.Before(from) || d.After(to) {
			continue
		}
		out.Indicator.Values = append(out.Indicator.Values, v)
	}
	return out, nil
}
