package overlay

import "spot-analytics/internal/model"

// Column is one derived series of a report, aligned with Result.Series.
type Column struct {
	Name   string
	Values model.IndicatorSeries
}

// Row is one hour of a report.
type Row struct {
	Index  int
	Point  model.PricePoint
	Bucket model.Bucket
	Values []model.IndicatorValue
}

type Result struct {
	Series  *model.TimeSeries
	Columns []Column
}

// ColumnNames returns the overlay column names in order.
func (r *Result) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// Rows transposes the report into one row per observation.
func (r *Result) Rows() []Row {
	rows := make([]Row, r.Series.Len())
	for i := range rows {
		p := r.Series.At(i)
		vals := make([]model.IndicatorValue, len(r.Columns))
		for j, c := range r.Columns {
			vals[j] = c.Values[i]
		}
		rows[i] = Row{
			Index:  i,
			Point:  p,
			Bucket: model.BucketFromHour(p.Hour),
			Values: vals,
		}
	}
	return rows
}
