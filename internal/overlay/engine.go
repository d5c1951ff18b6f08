package overlay

import (
	"fmt"

	"spot-analytics/internal/indicator"
	"spot-analytics/internal/metrics"
	"spot-analytics/internal/model"
)

type Engine struct {
	Metrics *metrics.Metrics
}

func New(m *metrics.Metrics) *Engine { return &Engine{Metrics: m} }

// Compute evaluates one spec over ts. Bollinger yields three columns, the others one.
func (e *Engine) Compute(ts *model.TimeSeries, spec Spec) ([]Column, error) {
	done := e.Metrics.TimeIndicator(string(spec.Kind))
	defer done()

	names := spec.Columns()
	switch spec.Kind {
	case KindSMA:
		vals, err := indicator.SMA(ts, spec.Window)
		if err != nil {
			return nil, err
		}
		return []Column{{Name: names[0], Values: vals}}, nil
	case KindEMA:
		vals, err := indicator.EMA(ts, spec.Window)
		if err != nil {
			return nil, err
		}
		return []Column{{Name: names[0], Values: vals}}, nil
	case KindBollinger:
		bands, err := indicator.Bollinger(ts, spec.Window, spec.NumStd)
		if err != nil {
			return nil, err
		}
		return []Column{
			{Name: names[0], Values: bands.Upper},
			{Name: names[1], Values: bands.Middle},
			{Name: names[2], Values: bands.Lower},
		}, nil
	case KindSpread:
		vals, err := indicator.PeakOffpeakSpread(ts)
		if err != nil {
			return nil, err
		}
		return []Column{{Name: names[0], Values: vals}}, nil
	default:
		return nil, fmt.Errorf("unknown overlay kind %q", spec.Kind)
	}
}

// Run computes every spec over ts and aligns the results into one report.
func (e *Engine) Run(ts *model.TimeSeries, specs []Spec) (*Result, error) {
	if ts.Len() == 0 {
		return nil, indicator.ErrEmptySeries
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no overlays requested")
	}

	res := &Result{Series: ts}
	for _, spec := range specs {
		cols, err := e.Compute(ts, spec)
		if err != nil {
			return nil, fmt.Errorf("overlay %s: %w", spec, err)
		}
		res.Columns = append(res.Columns, cols...)
	}
	return res, nil
}
