package overlay

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"spot-analytics/internal/model"
)

// WriteReportCSV writes the report as FECHA,HORA,PRECIO,BUCKET followed by one column per
// overlay. Undefined values are empty cells.
func WriteReportCSV(path string, res *Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := EncodeReportCSV(f, res); err != nil {
		return err
	}
	return f.Close()
}

func EncodeReportCSV(out io.Writer, res *Result) error {
	w := csv.NewWriter(out)

	header := append([]string{"FECHA", "HORA", "PRECIO", "BUCKET"}, res.ColumnNames()...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range res.Rows() {
		row := []string{
			r.Point.FECHA(),
			r.Point.HORA(),
			strconv.FormatFloat(r.Point.Price, 'f', -1, 64),
			string(r.Bucket),
		}
		for _, v := range r.Values {
			row = append(row, fmtValue(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtValue(v model.IndicatorValue) string {
	if !v.Defined {
		return ""
	}
	return strconv.FormatFloat(v.Value, 'f', 6, 64)
}
