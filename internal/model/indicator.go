package model

import (
	"bytes"
	"fmt"
	"strconv"
)

// IndicatorValue is one position of a derived series.
// Defined is false before a rolling window has accumulated enough history,
// or when the statistic has no meaning for that position (e.g. an empty bucket mean).
type IndicatorValue struct {
	Value   float64
	Defined bool
}

// Undefined is the explicit "no value" marker.
var Undefined = IndicatorValue{}

// Defined wraps v as a defined value.
func Defined(v float64) IndicatorValue {
	return IndicatorValue{Value: v, Defined: true}
}

// MarshalJSON renders undefined values as null.
func (v IndicatorValue) MarshalJSON() ([]byte, error) {
	if !v.Defined {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.Value, 'f', -1, 64), nil
}

// UnmarshalJSON reads null as Undefined and a number as a defined value.
func (v *IndicatorValue) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		*v = Undefined
		return nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return fmt.Errorf("indicator value %s: %w", raw, err)
	}
	*v = Defined(f)
	return nil
}

// IndicatorSeries is aligned index-for-index with the TimeSeries it was computed from.
type IndicatorSeries []IndicatorValue

// Values returns the defined values and a parallel mask.
func (s IndicatorSeries) Values() ([]float64, []bool) {
	vals := make([]float64, len(s))
	mask := make([]bool, len(s))
	for i, v := range s {
		vals[i] = v.Value
		mask[i] = v.Defined
	}
	return vals, mask
}

// CountDefined returns how many positions hold a value.
func (s IndicatorSeries) CountDefined() int {
	n := 0
	for _, v := range s {
		if v.Defined {
			n++
		}
	}
	return n
}
