package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"spot-analytics/internal/api/models"
	"spot-analytics/internal/dataset"
	"spot-analytics/internal/indicator"
	"spot-analytics/internal/model"
	"spot-analytics/internal/overlay"
)

// Default windows in hours when the request does not name one. Bollinger defaults
// live in the indicator package.
const (
	defaultSMAWindow = 168
	defaultEMAWindow = 24
)

// IndicatorHandler computes overlays on the served series
type IndicatorHandler struct {
	Dataset *dataset.Dataset
	Engine  *overlay.Engine
}

// NewIndicatorHandler creates a new indicator handler
func NewIndicatorHandler(ds *dataset.Dataset, engine *overlay.Engine) *IndicatorHandler {
	if engine == nil {
		engine = overlay.New(nil)
	}
	return &IndicatorHandler{Dataset: ds, Engine: engine}
}

// GetIndicator handles GET /api/v1/indicators/:kind
//
// Overlays are computed over the requested range only: rolling windows start at its first
// hour and the spread's bucket means are means of the range.
func (h *IndicatorHandler) GetIndicator(c *gin.Context) {
	ts, ok := currentSeries(c, h.Dataset)
	if !ok {
		return
	}

	var q models.IndicatorQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		return
	}

	spec, err := specFor(c.Param("kind"), q)
	if err != nil {
		respondError(c, http.StatusNotFound, CodeUnknownIndicator, err.Error(),
			map[string]interface{}{"supported": []string{"sma", "ema", "bollinger", "spread"}})
		return
	}

	from, to, err := resolveRange(ts, q.RangeQuery)
	if err != nil {
		respondRequestError(c, err)
		return
	}

	sub := ts.Between(from, to)
	if sub.Len() == 0 {
		noDataInRange(c, from, to)
		return
	}

	cols, err := h.Engine.Compute(sub, spec)
	if err != nil {
		if errors.Is(err, indicator.ErrInvalidWindow) || errors.Is(err, indicator.ErrInvalidMultiplier) {
			respondError(c, http.StatusBadRequest, CodeInvalidParameter, err.Error(), nil)
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, err.Error(), nil)
		return
	}

	res := &overlay.Result{Series: sub, Columns: cols}
	resp := models.IndicatorResponse{
		Indicator: string(spec.Kind),
		Window:    spec.Window,
		Columns:   res.ColumnNames(),
		Range:     models.NewDateRange(from, to),
		Defined:   res.Columns[0].Values.CountDefined(),
		Rows:      make([]models.IndicatorRow, 0, res.Series.Len()),
	}
	if spec.Kind == overlay.KindBollinger {
		numStd := spec.NumStd
		resp.NumStd = &numStd
	}
	for _, row := range res.Rows() {
		values := make(map[string]model.IndicatorValue, len(cols))
		for i, v := range row.Values {
			values[cols[i].Name] = v
		}
		resp.Rows = append(resp.Rows, models.IndicatorRow{
			PricePoint: models.NewPricePoint(row.Point),
			Values:     values,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func specFor(kind string, q models.IndicatorQuery) (overlay.Spec, error) {
	switch overlay.Kind(kind) {
	case overlay.KindSMA:
		return overlay.Spec{Kind: overlay.KindSMA, Window: orDefault(q.Window, defaultSMAWindow)}, nil
	case overlay.KindEMA:
		return overlay.Spec{Kind: overlay.KindEMA, Window: orDefault(q.Window, defaultEMAWindow)}, nil
	case overlay.KindBollinger:
		numStd := indicator.DefaultBollingerStd
		if q.NumStd != nil {
			numStd = *q.NumStd
		}
		return overlay.Spec{
			Kind:   overlay.KindBollinger,
			Window: orDefault(q.Window, indicator.DefaultBollingerWindow),
			NumStd: numStd,
		}, nil
	case overlay.KindSpread:
		return overlay.Spec{Kind: overlay.KindSpread}, nil
	default:
		return overlay.Spec{}, fmt.Errorf("unknown indicator %q", kind)
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// ListIndicators handles GET /api/v1/indicators
func (h *IndicatorHandler) ListIndicators(c *gin.Context) {
	window := func(def int, desc string) models.ParameterInfo {
		return models.ParameterInfo{Name: "window", Type: "int", Description: desc, Default: def}
	}
	sma := overlay.Spec{Kind: overlay.KindSMA, Window: defaultSMAWindow}
	ema := overlay.Spec{Kind: overlay.KindEMA, Window: defaultEMAWindow}
	bb := overlay.Spec{Kind: overlay.KindBollinger, Window: indicator.DefaultBollingerWindow, NumStd: indicator.DefaultBollingerStd}
	spread := overlay.Spec{Kind: overlay.KindSpread}

	indicators := []models.IndicatorInfo{
		{
			Name:        string(overlay.KindSMA),
			Description: "Simple moving average of the last `window` hourly prices within the requested range.",
			Columns:     sma.Columns(),
			Parameters:  []models.ParameterInfo{window(defaultSMAWindow, "Window length in hours (168 = 7 days, 720 = 30 days)")},
		},
		{
			Name:        string(overlay.KindEMA),
			Description: "Exponential moving average seeded with the first price, alpha = 2/(window+1).",
			Columns:     ema.Columns(),
			Parameters:  []models.ParameterInfo{window(defaultEMAWindow, "Smoothing window in hours")},
		},
		{
			Name:        string(overlay.KindBollinger),
			Description: "Bollinger bands: rolling mean plus and minus num_std sample standard deviations.",
			Columns:     bb.Columns(),
			Parameters: []models.ParameterInfo{
				window(indicator.DefaultBollingerWindow, "Window length in hours (at least 2)"),
				{Name: "num_std", Type: "float", Description: "Band width in standard deviations", Default: indicator.DefaultBollingerStd},
			},
		},
		{
			Name:        string(overlay.KindSpread),
			Description: "Peak price minus the off-peak mean of the requested range, or the range's peak mean minus the off-peak price.",
			Columns:     spread.Columns(),
			Parameters:  []models.ParameterInfo{},
		},
	}

	c.JSON(http.StatusOK, gin.H{"indicators": indicators})
}
