package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/ciim-report-sync/internal/classify"
	"github.com/ginjaninja78/ciim-report-sync/internal/filesafety"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
	"github.com/ginjaninja78/ciim-report-sync/internal/transfer"
	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

// Scope selects the delay report flavour.
type Scope int

const (
	// Weekly covers every date of the batch in "<prefix> WW<week>.xlsx".
	Weekly Scope = iota
	// Daily covers one date in "<prefix> <dd.mm.yy>.xlsx".
	Daily
)

func (s Scope) String() string {
	if s == Daily {
		return "daily"
	}
	return "weekly"
}

// ParseScope accepts "weekly" or "daily".
func ParseScope(v string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "weekly", "week":
		return Weekly, nil
	case "daily", "day":
		return Daily, nil
	default:
		return Weekly, fmt.Errorf("unknown scope %q (want weekly or daily)", v)
	}
}

// BatchOptions controls DelayBatch.
type BatchOptions struct {
	Scope Scope

	// Dates to collect delays for. Empty means every date of the work plan.
	// A daily batch uses the first date only.
	Dates []time.Time
}

// DayOutcome is the delay transfer of one date.
type DayOutcome struct {
	Date   time.Time
	Source string
	Rows   int
	Err    error
}

// BatchResult reports what DelayBatch did.
type BatchResult struct {
	Report        string
	Created       bool
	Cancellations int
	Delays        int
	Days          []DayOutcome
	Missing       []transfer.MissingField
	RunLog        string
}

// Failed returns the dates whose delays could not be collected.
func (r BatchResult) Failed() []DayOutcome { return failed(r.Days) }

// DelayBatch builds a delays & cancellations report.
//
// PROCESSING FLOW:
//  1. Refuse to continue if the report or the work plan is open elsewhere
//  2. Instantiate the template (existing reports need confirmation)
//  3. Cancellations: cancelled work plan rows (one date for a daily batch)
//  4. Delays: non-cancelled rows of each date's daily report, appended one
//     date after the other; a missing daily report is recorded and skipped
//  5. Title, trim both sheets, save once
func (s *Session) DelayBatch(opts BatchOptions) (res BatchResult, err error) {
	rec := s.newRecorder("delays_" + opts.Scope.String())
	defer func() { res.RunLog = s.finish(rec) }()

	wp, err := s.WorkPlan()
	if err != nil {
		return res, err
	}
	dates, err := s.batchDates(opts.Dates)
	if err != nil {
		return res, err
	}

	var name, template string
	var cancelDate time.Time
	if opts.Scope == Daily {
		dates = dates[:1]
		cancelDate = dates[0]
		name = s.paths.DailyDelayName(dates[0])
		template = s.cfg.Reports.DailyDelayTemplate
	} else {
		name = s.paths.WeeklyDelayName(dates[0])
		template = s.cfg.Reports.WeeklyDelayTemplate
	}
	res.Report = filepath.Join(s.cfg.TrackingPath(), name)

	// Step 1: Locks.
	if err := filesafety.EnsureWritable(res.Report, wp); err != nil {
		rec.add("error", res.Report, err.Error(), 0)
		return res, err
	}

	// Step 2: Template.
	if res.Created, err = filesafety.EnsureTemplate(res.Report, s.templatePath(template), filesafety.ConfirmOverwrite, s.confirm); err != nil {
		rec.add("error", res.Report, err.Error(), 0)
		return res, err
	}

	dstBook, err := sheet.Open(res.Report)
	if err != nil {
		return res, err
	}
	defer dstBook.Close()

	cancelSpec, delaySpec := s.cfg.Reports.Cancellations, s.cfg.Reports.Delays
	cancelSheet, err := dstBook.Sheet(cancelSpec.Sheet)
	if err != nil {
		return res, err
	}
	delaySheet, err := dstBook.Sheet(delaySpec.Sheet)
	if err != nil {
		return res, err
	}

	// Step 3: Cancellations.
	if res.Cancellations, err = s.transferCancellations(wp, cancelSheet, cancelDate, &res); err != nil {
		rec.add("error", wp, err.Error(), 0)
		return res, err
	}
	rec.add("info", wp, "cancellations transferred", res.Cancellations)

	// Step 4: Delays.
	cursor := delaySpec.DataStartRow
	for _, d := range dates {
		day := s.transferDelays(d, delaySheet, cursor, &res)
		res.Days = append(res.Days, day)
		if day.Err != nil {
			s.log.Warn("%s: %v", d.Format("2006-01-02"), day.Err)
			rec.add("error", day.Source, day.Err.Error(), 0)
			continue
		}
		rec.add("info", day.Source, "delays transferred", day.Rows)
		cursor += day.Rows
		res.Delays += day.Rows
	}

	// Step 5: Title, trim, save.
	if err := delaySheet.SetAt(s.cfg.Reports.TitleCell, utils.StripExt(res.Report)); err != nil {
		return res, err
	}
	if _, err := transfer.TrimTrailingRows(delaySheet, delaySpec.DataStartRow, res.Delays); err != nil {
		return res, err
	}
	if _, err := transfer.TrimTrailingRows(cancelSheet, cancelSpec.DataStartRow, res.Cancellations); err != nil {
		return res, err
	}
	if err := dstBook.Save(); err != nil {
		rec.add("error", res.Report, err.Error(), 0)
		return res, err
	}

	s.log.Info("%s: %d delay(s), %d cancellation(s)", name, res.Delays, res.Cancellations)
	return res, nil
}

func (s *Session) transferCancellations(workPlan string, dst *sheet.Sheet, date time.Time, res *BatchResult) (int, error) {
	srcBook, err := sheet.Open(workPlan)
	if err != nil {
		return 0, err
	}
	defer srcBook.Close()

	wpSpec := s.cfg.Reports.WorkPlan
	src, err := srcBook.Sheet(wpSpec.Sheet)
	if err != nil {
		return 0, err
	}

	tr, err := s.engine.Transfer(src, dst, s.cancellationTable, transfer.Options{
		SourceHeaderRow:    wpSpec.HeaderRow,
		SourceDataStartRow: wpSpec.DataStartRow,
		DestHeaderRow:      s.cfg.Reports.Cancellations.HeaderRow,
		DestStartRow:       s.cfg.Reports.Cancellations.DataStartRow,
		Rules:              classify.CancellationRules(s.cfg.Classification, date),
	})
	if err != nil {
		return 0, err
	}
	res.Missing = append(res.Missing, tr.MissingFields...)
	return tr.RowsTransferred, nil
}

func (s *Session) transferDelays(date time.Time, dst *sheet.Sheet, cursor int, res *BatchResult) DayOutcome {
	loc := s.Resolve(date)
	day := DayOutcome{Date: loc.Day.Date, Source: loc.ReportPath()}

	if !utils.FileExists(day.Source) {
		day.Err = &PathNotFoundError{Path: day.Source, Date: day.Date}
		return day
	}

	srcBook, err := sheet.Open(day.Source)
	if err != nil {
		day.Err = err
		return day
	}
	defer srcBook.Close()

	dailySpec := s.cfg.Reports.Daily
	src, err := srcBook.Sheet(dailySpec.Sheet)
	if err != nil {
		day.Err = err
		return day
	}

	tr, err := s.engine.Transfer(src, dst, s.delayTable, transfer.Options{
		SourceHeaderRow:    dailySpec.HeaderRow,
		SourceDataStartRow: dailySpec.DataStartRow,
		DestHeaderRow:      s.cfg.Reports.Delays.HeaderRow,
		DestStartRow:       cursor,
		Rules:              classify.DelayRules(s.cfg.Classification),
	})
	if err != nil {
		day.Err = err
		return day
	}
	res.Missing = append(res.Missing, tr.MissingFields...)
	day.Rows = tr.RowsTransferred
	return day
}

// IsPathNotFound reports whether err is a *PathNotFoundError.
func IsPathNotFound(err error) bool {
	var p *PathNotFoundError
	return errors.As(err, &p)
}
