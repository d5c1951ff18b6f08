package model

// IndicatorResponse matches the JSON shape of GET /indicators/{id}.
//
// Example:
//
//	{
//	  "indicator": {
//	    "id": 600,
//	    "name": "Precio mercado spot diario",
//	    "values": [ ... ]
//	  }
//	}
type IndicatorResponse struct {
	Indicator Indicator `json:"indicator"`
}

type Indicator struct {
	ID     int              `json:"id"`
	Name   string           `json:"name"`
	Values []IndicatorPoint `json:"values"`
}

// IndicatorPoint is one element of indicator.values.
// DatetimeUTC is kept as the raw string (YYYY-MM-DDTHH:MM:SSZ); it is parsed during ingestion
// so that a single malformed element can be skipped instead of failing the whole payload.
type IndicatorPoint struct {
	GeoID       int      `json:"geo_id" validate:"required"`
	GeoName     string   `json:"geo_name"`
	DatetimeUTC string   `json:"datetime_utc" validate:"required"`
	Value       *float64 `json:"value" validate:"required"`
}
