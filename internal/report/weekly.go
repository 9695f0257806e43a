package report

import (
	"time"

	"github.com/ginjaninja78/ciim-report-sync/internal/classify"
	"github.com/ginjaninja78/ciim-report-sync/internal/filesafety"
	"github.com/ginjaninja78/ciim-report-sync/internal/mapping"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
	"github.com/ginjaninja78/ciim-report-sync/internal/transfer"
	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

// WeeklyResult reports what WeeklyReport did.
type WeeklyResult struct {
	Report  string
	Created bool
	Rows    int
	Days    []DayOutcome
	Missing []transfer.MissingField
	RunLog  string
}

// WeeklyReport gathers the rows of every daily report of the batch into one
// workbook built from the daily template, in date order. Days without a
// report are recorded and skipped.
//
// The columns copied are the ones on the template's header row. A template
// without headers gets the daily mapping's destination names.
func (s *Session) WeeklyReport(dates []time.Time) (res WeeklyResult, err error) {
	rec := s.newRecorder("weekly_report")
	defer func() { res.RunLog = s.finish(rec) }()

	dates, err = s.batchDates(dates)
	if err != nil {
		return res, err
	}

	res.Report = s.paths.WeeklyReportPath(dates[0], s.cfg.ConstructionPath())
	if err := filesafety.EnsureWritable(res.Report); err != nil {
		rec.add("error", res.Report, err.Error(), 0)
		return res, err
	}
	template := s.templatePath(s.cfg.Reports.DailyTemplate)
	if res.Created, err = filesafety.EnsureTemplate(res.Report, template, filesafety.IfMissing, s.confirm); err != nil {
		rec.add("error", res.Report, err.Error(), 0)
		return res, err
	}

	dstBook, err := sheet.Open(res.Report)
	if err != nil {
		return res, err
	}
	defer dstBook.Close()

	spec := s.cfg.Reports.Daily
	dst, err := dstBook.Sheet(spec.Sheet)
	if err != nil {
		return res, err
	}

	idx, err := sheet.BuildHeaderIndex(dst, spec.HeaderRow, nil)
	if err != nil {
		return res, err
	}
	table := mapping.Identity(idx.Headers())
	writeHeaders := false
	if len(table) == 0 {
		table = mapping.Identity(s.dailyTable.DestNames())
		writeHeaders = true
	}

	cursor := spec.DataStartRow
	for _, d := range dates {
		day := s.appendDaily(d, dst, table, cursor, writeHeaders, &res)
		res.Days = append(res.Days, day)
		if day.Err != nil {
			s.log.Warn("%s: %v", d.Format("2006-01-02"), day.Err)
			rec.add("error", day.Source, day.Err.Error(), 0)
			continue
		}
		rec.add("info", day.Source, "rows appended", day.Rows)
		writeHeaders = false
		cursor += day.Rows
		res.Rows += day.Rows
	}

	if err := dst.SetAt(s.cfg.Reports.TitleCell, utils.StripExt(res.Report)); err != nil {
		return res, err
	}
	if _, err := transfer.TrimTrailingRows(dst, spec.DataStartRow, res.Rows); err != nil {
		return res, err
	}
	if err := dstBook.Save(); err != nil {
		rec.add("error", res.Report, err.Error(), 0)
		return res, err
	}

	s.log.Info("%s: %d row(s) from %d day(s)", utils.StripExt(res.Report), res.Rows, len(dates)-len(failed(res.Days)))
	return res, nil
}

func (s *Session) appendDaily(date time.Time, dst *sheet.Sheet, table mapping.Table, cursor int, writeHeaders bool, res *WeeklyResult) DayOutcome {
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

	spec := s.cfg.Reports.Daily
	src, err := srcBook.Sheet(spec.Sheet)
	if err != nil {
		day.Err = err
		return day
	}

	tr, err := s.engine.Transfer(src, dst, table, transfer.Options{
		SourceHeaderRow:    spec.HeaderRow,
		SourceDataStartRow: spec.DataStartRow,
		DestHeaderRow:      spec.HeaderRow,
		DestStartRow:       cursor,
		Rules:              classify.DailyRowRules(s.cfg.Classification),
		WriteHeaders:       writeHeaders,
	})
	if err != nil {
		day.Err = err
		return day
	}
	res.Missing = append(res.Missing, tr.MissingFields...)
	day.Rows = tr.RowsTransferred
	return day
}

func failed(days []DayOutcome) []DayOutcome {
	var out []DayOutcome
	for _, d := range days {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}
