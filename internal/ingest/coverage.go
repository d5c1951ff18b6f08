package ingest

import (
	"fmt"
	"time"

	"spot-analytics/internal/model"
)

// Slot identifies one local (Date, Hour) position.
type Slot struct {
	Date time.Time
	Hour int
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %02d", s.Date.Format(model.DateLayout), s.Hour)
}

func (s Slot) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"date":%q,"hour":%d}`, s.Date.Format(model.DateLayout), s.Hour)), nil
}

// Gap is a run of consecutive missing slots.
type Gap struct {
	From  Slot `json:"from"`
	To    Slot `json:"to"`
	Hours int  `json:"hours"`
}

func (g Gap) String() string {
	if g.Hours == 1 {
		return g.From.String()
	}
	return fmt.Sprintf("%s .. %s (%dh)", g.From, g.To, g.Hours)
}

// CoverageReport compares a series against the local hours a date range should hold.
type CoverageReport struct {
	From     time.Time
	To       time.Time
	Expected int
	Present  int
	Missing  []Slot
	// Gaps groups Missing into runs that are consecutive in local time.
	Gaps []Gap
}

// Complete reports whether every expected slot is present.
func (c CoverageReport) Complete() bool {
	return len(c.Missing) == 0
}

// ExpectedHours lists the distinct local hours that exist on date in loc, ascending.
// That is 23 hours on the spring-forward day and 24 otherwise; the repeated autumn hour
// collapses into one slot.
func ExpectedHours(date time.Time, loc *time.Location) []int {
	y, m, d := date.Date()
	begin := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := time.Date(y, m, d+1, 0, 0, 0, 0, loc)

	var seen [24]bool
	hours := make([]int, 0, 24)
	for t := begin; t.Before(end); t = t.Add(time.Hour) {
		h := t.In(loc).Hour()
		if !seen[h] {
			seen[h] = true
			hours = append(hours, h)
		}
	}
	return hours
}

// Coverage checks ts against every expected local slot in [from, to].
func Coverage(ts *model.TimeSeries, from, to time.Time, loc *time.Location) CoverageReport {
	if loc == nil {
		loc = time.UTC
	}
	from, to = model.DateOf(from), model.DateOf(to)
	report := CoverageReport{From: from, To: to}
	if from.After(to) {
		return report
	}

	present := make(map[int64]struct{}, ts.Len())
	for _, p := range ts.Between(from, to).Points() {
		present[p.Ordinal()] = struct{}{}
	}

	prevMissing := false
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		for _, h := range ExpectedHours(d, loc) {
			report.Expected++
			key := model.PricePoint{Date: d, Hour: h}.Ordinal()
			if _, ok := present[key]; ok {
				report.Present++
				prevMissing = false
				continue
			}

			slot := Slot{Date: d, Hour: h}
			report.Missing = append(report.Missing, slot)
			if n := len(report.Gaps); prevMissing && n > 0 {
				report.Gaps[n-1].To = slot
				report.Gaps[n-1].Hours++
			} else {
				report.Gaps = append(report.Gaps, Gap{From: slot, To: slot, Hours: 1})
			}
			prevMissing = true
		}
	}
	return report
}
