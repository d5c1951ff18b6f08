package ingest

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"spot-analytics/internal/model"
)

// RunStatus is the user-facing verdict of an ingestion run.
type RunStatus string

const (
	StatusComplete RunStatus = "complete"
	StatusHasGaps  RunStatus = "has gaps"
)

// DroppedChunk describes a chunk that contributed no data.
type DroppedChunk struct {
	IndicatorID int    `json:"indicator_id"`
	Start       string `json:"start_date"`
	End         string `json:"end_date"`
	Attempts    int    `json:"attempts"`
	Error       string `json:"error"`
}

// RunSummary is reported once per ingestion run. Partial data is a status, never a crash.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	IndicatorID int       `json:"indicator_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Status      RunStatus `json:"status"`

	Chunks        int            `json:"chunks"`
	DroppedChunks []DroppedChunk `json:"dropped_chunks"`
	RawPoints     int            `json:"raw_points"`
	Points        int            `json:"points"`
	Skipped       int            `json:"skipped"`
	Filtered      int            `json:"filtered"`

	ExpectedHours int   `json:"expected_hours"`
	MissingHours  int   `json:"missing_hours"`
	Gaps          []Gap `json:"gaps"`

	OutputPath string `json:"output_path,omitempty"`
	Cancelled  bool   `json:"cancelled,omitempty"`
}

// NewRunSummary assembles the summary of a fetch and the series normalized from it.
func NewRunSummary(res *FetchResult, ts *model.TimeSeries, cov CoverageReport, startedAt, finishedAt time.Time) *RunSummary {
	s := &RunSummary{
		RunID:         uuid.NewString(),
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
		Points:        ts.Len(),
		ExpectedHours: cov.Expected,
		MissingHours:  len(cov.Missing),
		Gaps:          cov.Gaps,
		DroppedChunks: []DroppedChunk{},
	}
	if res != nil {
		s.IndicatorID = res.IndicatorID
		s.StartDate = res.Start.Format(model.DateLayout)
		s.EndDate = res.End.Format(model.DateLayout)
		s.Chunks = len(res.Chunks)
		s.RawPoints = len(res.Points)
		s.Skipped, s.Filtered = res.Skipped()
		for _, c := range res.Dropped() {
			s.DroppedChunks = append(s.DroppedChunks, DroppedChunk{
				IndicatorID: c.IndicatorID,
				Start:       c.Range.Start.Format(model.DateLayout),
				End:         c.Range.End.Format(model.DateLayout),
				Attempts:    c.Attempts,
				Error:       c.Err.Error(),
			})
		}
	}

	s.Status = StatusComplete
	if len(s.DroppedChunks) > 0 || s.MissingHours > 0 {
		s.Status = StatusHasGaps
	}
	return s
}

// Complete reports whether the run produced a gap-free series.
func (s *RunSummary) Complete() bool {
	return s.Status == StatusComplete
}

// Print writes a human-readable report.
func (s *RunSummary) Print(w io.Writer) {
	fmt.Fprintf(w, "Run %s\n", s.RunID)
	fmt.Fprintf(w, "  indicator:     %d\n", s.IndicatorID)
	fmt.Fprintf(w, "  range:         %s .. %s\n", s.StartDate, s.EndDate)
	fmt.Fprintf(w, "  status:        %s\n", s.Status)
	fmt.Fprintf(w, "  chunks:        %d (%d dropped)\n", s.Chunks, len(s.DroppedChunks))
	fmt.Fprintf(w, "  points:        %d (raw %d, skipped %d, other geo %d)\n", s.Points, s.RawPoints, s.Skipped, s.Filtered)
	fmt.Fprintf(w, "  missing hours: %d of %d\n", s.MissingHours, s.ExpectedHours)
	if s.OutputPath != "" {
		fmt.Fprintf(w, "  output:        %s\n", s.OutputPath)
	}
	if s.Cancelled {
		fmt.Fprintln(w, "  run was cancelled; output not written")
	}
	for _, c := range s.DroppedChunks {
		fmt.Fprintf(w, "  dropped %s..%s after %d attempt(s): %s\n", c.Start, c.End, c.Attempts, c.Error)
	}

	const maxGaps = 20
	for i, g := range s.Gaps {
		if i == maxGaps {
			fmt.Fprintf(w, "  ... %d more gap(s)\n", len(s.Gaps)-maxGaps)
			break
		}
		fmt.Fprintf(w, "  gap %s\n", g)
	}
	fmt.Fprintf(w, "  took:          %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
}
