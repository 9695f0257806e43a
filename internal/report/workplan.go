package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/ginjaninja78/ciim-report-sync/internal/calendar"
	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
)

// WorkPlanDates returns the distinct dates of the work plan's date column,
// oldest first. Cells that do not hold a date are ignored.
func WorkPlanDates(path string, spec config.SheetSpec, dateColumn string) ([]time.Time, error) {
	book, err := sheet.Open(path)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	s, err := book.Sheet(spec.Sheet)
	if err != nil {
		return nil, err
	}

	idx, err := sheet.BuildHeaderIndex(s, spec.HeaderRow, []string{dateColumn})
	if err != nil {
		return nil, err
	}
	if err := idx.Require(dateColumn); err != nil {
		return nil, err
	}
	col, _ := idx.Column(dateColumn)

	rows, err := s.Rows(spec.DataStartRow)
	if err != nil {
		return nil, err
	}

	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, row := range rows {
		v := row.Value(col)
		d, ok := calendar.CellDate(v.Raw)
		if !ok {
			if d, ok = calendar.CellDate(v.Text); !ok {
				continue
			}
		}
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// WorkPlanDates returns the dates of the session's work plan.
func (s *Session) WorkPlanDates() ([]time.Time, error) {
	wp, err := s.WorkPlan()
	if err != nil {
		return nil, err
	}
	dates, err := WorkPlanDates(wp, s.cfg.Reports.WorkPlan, s.cfg.Classification.WorkPlanDateColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to read dates from %s: %w", wp, err)
	}
	return dates, nil
}

// batchDates returns dates, or the work plan's dates when dates is empty.
func (s *Session) batchDates(dates []time.Time) ([]time.Time, error) {
	if len(dates) > 0 {
		out := make([]time.Time, len(dates))
		for i, d := range dates {
			out[i] = calendar.Truncate(d)
		}
		return out, nil
	}
	dates, err := s.WorkPlanDates()
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, ErrNoDates
	}
	return dates, nil
}
