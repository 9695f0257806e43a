package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/ciim-report-sync/internal/classify"
	"github.com/ginjaninja78/ciim-report-sync/internal/filesafety"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
	"github.com/ginjaninja78/ciim-report-sync/internal/transfer"
	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

// DailyOptions controls CreateDaily.
type DailyOptions struct {
	// Recreate replaces an existing report with a fresh template copy,
	// after the session's confirmation callback agrees.
	Recreate bool
}

// DailyResult reports what CreateDaily or CopyToPreviousDay did.
type DailyResult struct {
	Report         string
	Created        bool
	Existing       bool
	FoldersCreated []string
	Rows           int
	Planned        int
	Cancelled      int
	RowsTrimmed    int
	Missing        []transfer.MissingField
}

// CreateDaily creates the daily report for date and fills it with the work
// plan rows of that date. An existing report is left untouched unless
// Recreate is set and confirmed.
//
// PROCESSING FLOW:
//  1. Refuse to continue if the report or the work plan is open elsewhere
//  2. Stop if the report exists and no recreate was asked for
//  3. Create the year/week/day folders
//  4. Copy the template (replacing the report once Recreate is confirmed)
//  5. Transfer the date's work plan rows
//  6. Write the title, count planned and cancelled activities
//  7. Apply the configured transforms and trim unused template rows
//  8. Save once
func (s *Session) CreateDaily(date time.Time, opts DailyOptions) (DailyResult, error) {
	var res DailyResult

	wp, err := s.WorkPlan()
	if err != nil {
		return res, err
	}
	loc := s.Resolve(date)
	res.Report = loc.ReportPath()

	// Step 1: Locks.
	if err := filesafety.EnsureWritable(res.Report, wp); err != nil {
		return res, err
	}

	// Step 2: Existing report.
	if utils.FileExists(res.Report) && !opts.Recreate {
		res.Existing = true
		s.log.Info("%s already exists; left unchanged", res.Report)
		return res, nil
	}

	// Step 3: Folders.
	if res.FoldersCreated, err = s.paths.Ensure(loc); err != nil {
		return res, err
	}

	// Step 4: Template.
	policy := filesafety.IfMissing
	if opts.Recreate {
		policy = filesafety.ConfirmOverwrite
	}
	template := s.templatePath(s.cfg.Reports.DailyTemplate)
	if res.Created, err = filesafety.EnsureTemplate(res.Report, template, policy, s.confirm); err != nil {
		return res, err
	}
	if res.Created {
		s.log.Info("copied template to %s", res.Report)
	}

	// Steps 5-8.
	if err := s.fillDaily(&res, wp, date, s.cfg.Reports.Daily.DataStartRow, true); err != nil {
		return res, err
	}
	return res, nil
}

// CopyToPreviousDay appends the work plan rows of the day before date to
// that day's existing report, starting at startRow. Rows already in the
// report above startRow are kept.
func (s *Session) CopyToPreviousDay(date time.Time, startRow int) (DailyResult, error) {
	var res DailyResult

	wp, err := s.WorkPlan()
	if err != nil {
		return res, err
	}

	prev := s.paths.PreviousDay(date, s.cfg.ConstructionPath())
	res.Report = prev.ReportPath()
	if !utils.FileExists(res.Report) {
		return res, &PathNotFoundError{Path: res.Report, Date: prev.Day.Date}
	}

	if first := s.cfg.Reports.Daily.DataStartRow; startRow < first {
		return res, fmt.Errorf("start row %d is above the first data row %d", startRow, first)
	}

	if err := s.fillDaily(&res, wp, prev.Day.Date, startRow, false); err != nil {
		return res, err
	}
	return res, nil
}

// fillDaily transfers the work plan rows of date into the report at
// res.Report. fresh marks a report just created from its template: the
// title is written and unused template rows are trimmed.
func (s *Session) fillDaily(res *DailyResult, workPlan string, date time.Time, startRow int, fresh bool) error {
	if err := filesafety.EnsureWritable(res.Report, workPlan); err != nil {
		return err
	}

	srcBook, err := sheet.Open(workPlan)
	if err != nil {
		return err
	}
	defer srcBook.Close()

	dstBook, err := sheet.Open(res.Report)
	if err != nil {
		return err
	}
	defer dstBook.Close()

	wpSpec, dailySpec := s.cfg.Reports.WorkPlan, s.cfg.Reports.Daily
	src, err := srcBook.Sheet(wpSpec.Sheet)
	if err != nil {
		return err
	}
	dst, err := dstBook.Sheet(dailySpec.Sheet)
	if err != nil {
		return err
	}

	// Transfer.
	tr, err := s.engine.Transfer(src, dst, s.dailyTable, transfer.Options{
		SourceHeaderRow:    wpSpec.HeaderRow,
		SourceDataStartRow: wpSpec.DataStartRow,
		DestHeaderRow:      dailySpec.HeaderRow,
		DestStartRow:       startRow,
		Rules:              classify.WorkPlanDayRules(s.cfg.Classification, date),
		WriteHeaders:       fresh && s.cfg.Reports.WriteHeaders,
	})
	if err != nil {
		return err
	}
	res.Rows = tr.RowsTransferred
	res.Missing = tr.MissingFields

	if tr.Empty() {
		s.log.Warn("no work plan rows for %s; %s left unchanged", date.Format("2006-01-02"), res.Report)
		return nil
	}
	lastRow := startRow + tr.RowsTransferred - 1

	// Title and counts.
	if fresh {
		if err := dst.SetAt(s.cfg.Reports.TitleCell, utils.StripExt(res.Report)); err != nil {
			return err
		}
	}
	if res.Planned, res.Cancelled, err = s.countActivities(dst, startRow, lastRow); err != nil {
		return err
	}

	// Transforms and trim.
	if _, err := s.transformer.ApplyToSheet(dst, dailySpec.HeaderRow, startRow, lastRow); err != nil {
		return err
	}
	if fresh {
		if res.RowsTrimmed, err = transfer.TrimTrailingRows(dst, startRow, tr.RowsTransferred); err != nil {
			return err
		}
	}

	// Save.
	if err := dstBook.Save(); err != nil {
		return err
	}
	s.log.Info("%s: %d planned, %d cancelled", utils.StripExt(res.Report), res.Planned, res.Cancelled)
	return nil
}

// countActivities splits rows firstRow..lastRow into planned and cancelled
// by the summary column.
func (s *Session) countActivities(dst *sheet.Sheet, firstRow, lastRow int) (planned, cancelled int, err error) {
	summary := s.cfg.Classification.SummaryColumn
	idx, err := sheet.BuildHeaderIndex(dst, s.cfg.Reports.Daily.HeaderRow, []string{summary})
	if err != nil {
		return 0, 0, err
	}
	col, ok := idx.Column(summary)
	if !ok {
		return lastRow - firstRow + 1, 0, nil
	}

	isCancelled := classify.ContainsAny(s.cfg.Classification.DelayExcludeKeywords)
	for row := firstRow; row <= lastRow; row++ {
		v, err := dst.Get(row, col)
		if err != nil {
			return 0, 0, err
		}
		if isCancelled.Match(v.Text) {
			cancelled++
		} else {
			planned++
		}
	}
	return planned, cancelled, nil
}

func (s *Session) templatePath(name string) string {
	return filepath.Join(s.cfg.TemplatesPath(), name)
}
