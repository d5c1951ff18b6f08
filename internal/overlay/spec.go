package overlay

import (
	"fmt"
	"strconv"
	"strings"

	"spot-analytics/internal/indicator"
)

// Kind names an indicator family.
type Kind string

const (
	KindSMA       Kind = "sma"
	KindEMA       Kind = "ema"
	KindBollinger Kind = "bollinger"
	KindSpread    Kind = "spread"
)

// Spec is one requested overlay. Window is in observations (hours); NumStd is only
// used by Bollinger.
type Spec struct {
	Kind   Kind
	Window int
	NumStd float64
}

// DefaultSpecs are the dashboard overlays: 7-day and 30-day SMA, Bollinger 20/2 and the
// peak/off-peak spread.
func DefaultSpecs() []Spec {
	return []Spec{
		{Kind: KindSMA, Window: 24 * 7},
		{Kind: KindSMA, Window: 24 * 30},
		{Kind: KindBollinger, Window: indicator.DefaultBollingerWindow, NumStd: indicator.DefaultBollingerStd},
		{Kind: KindSpread},
	}
}

// Columns returns the report column names the spec produces.
func (s Spec) Columns() []string {
	switch s.Kind {
	case KindSMA:
		return []string{fmt.Sprintf("SMA_%d", s.Window)}
	case KindEMA:
		return []string{fmt.Sprintf("EMA_%d", s.Window)}
	case KindBollinger:
		suffix := fmt.Sprintf("%d_%s", s.Window, strconv.FormatFloat(s.NumStd, 'f', -1, 64))
		return []string{"BB_UPPER_" + suffix, "BB_MIDDLE_" + suffix, "BB_LOWER_" + suffix}
	case KindSpread:
		return []string{"SPREAD"}
	default:
		return nil
	}
}

func (s Spec) String() string {
	switch s.Kind {
	case KindSpread:
		return string(s.Kind)
	case KindBollinger:
		return fmt.Sprintf("%s:%d:%s", s.Kind, s.Window, strconv.FormatFloat(s.NumStd, 'f', -1, 64))
	default:
		return fmt.Sprintf("%s:%d", s.Kind, s.Window)
	}
}

// ParseSpec parses "sma:168", "ema:24", "bollinger", "bollinger:20", "bollinger:20:2"
// or "spread".
func ParseSpec(raw string) (Spec, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), ":")
	spec := Spec{Kind: Kind(parts[0])}

	switch spec.Kind {
	case KindSpread:
		if len(parts) != 1 {
			return Spec{}, fmt.Errorf("overlay %q: spread takes no parameters", raw)
		}
		return spec, nil
	case KindBollinger:
		spec.Window = indicator.DefaultBollingerWindow
		spec.NumStd = indicator.DefaultBollingerStd
		if len(parts) > 3 {
			return Spec{}, fmt.Errorf("overlay %q: want bollinger[:window[:std]]", raw)
		}
		if len(parts) >= 2 {
			w, err := strconv.Atoi(parts[1])
			if err != nil {
				return Spec{}, fmt.Errorf("overlay %q: window: %w", raw, err)
			}
			spec.Window = w
		}
		if len(parts) == 3 {
			k, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return Spec{}, fmt.Errorf("overlay %q: std: %w", raw, err)
			}
			spec.NumStd = k
		}
		return spec, nil
	case KindSMA, KindEMA:
		if len(parts) != 2 {
			return Spec{}, fmt.Errorf("overlay %q: want %s:window", raw, spec.Kind)
		}
		w, err := strconv.Atoi(parts[1])
		if err != nil {
			return Spec{}, fmt.Errorf("overlay %q: window: %w", raw, err)
		}
		spec.Window = w
		return spec, nil
	default:
		return Spec{}, fmt.Errorf("unknown overlay %q (want sma, ema, bollinger or spread)", raw)
	}
}

// ParseSpecs parses a comma-separated list. An empty list yields DefaultSpecs.
func ParseSpecs(raw string) ([]Spec, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultSpecs(), nil
	}
	var specs []Spec
	for _, item := range strings.Split(raw, ",") {
		s, err := ParseSpec(item)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}
