package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"spot-analytics/internal/model"
)

// Column names of the canonical price store.
var seriesHeader = []string{"FECHA", "HORA", "PRECIO"}

// WriteSeriesCSV writes ts to path as FECHA,HORA,PRECIO rows in series order.
// The file is written next to path and renamed into place, so readers never observe a partial store.
func WriteSeriesCSV(path string, ts *model.TimeSeries) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := EncodeSeriesCSV(tmp, ts); err != nil {
		tmp.Close()
		return err
	}
	// CreateTemp makes the file owner-only; the store is read by other processes.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// EncodeSeriesCSV writes the canonical CSV representation of ts to w.
func EncodeSeriesCSV(w io.Writer, ts *model.TimeSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeader); err != nil {
		return err
	}
	for i := 0; i < ts.Len(); i++ {
		p := ts.At(i)
		if err := cw.Write([]string{p.FECHA(), p.HORA(), fmtFloat(p.Price)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSeriesCSV loads a canonical price store. Rows are normalized on read,
// so a hand-edited file with duplicates or out-of-order rows still yields a valid series.
func ReadSeriesCSV(path string) (*model.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeSeriesCSV(f)
}

// DecodeSeriesCSV parses the canonical CSV representation.
func DecodeSeriesCSV(r io.Reader) (*model.TimeSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(seriesHeader)

	header, err := cr.Read()
	if err == io.EOF {
		return model.NewTimeSeries(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, name := range seriesHeader {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i, header[i], name)
		}
	}

	var points []model.PricePoint
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		date, err := model.ParseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		hour, err := strconv.Atoi(rec[1])
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("line %d: invalid HORA %q", line, rec[1])
		}
		price, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid PRECIO %q: %w", line, rec[2], err)
		}
		points = append(points, model.PricePoint{Date: date, Hour: hour, Price: price})
	}
	return model.NewTimeSeries(points), nil
}

// fmtFloat uses the shortest representation that parses back to the same float64,
// which keeps repeated writes of the same series byte-identical.
func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
