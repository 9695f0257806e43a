package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/filesafety"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

var (
	monday  = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tuesday = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
)

type sheetRows struct {
	name string
	rows map[int][]interface{}
}

func writeWorkbook(t *testing.T, path string, sheets ...sheetRows) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatal(err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatal(err)
		}
		for row, values := range s.rows {
			for col, v := range values {
				if v == nil {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(s.name, cell, v); err != nil {
					t.Fatal(err)
				}
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

// newFixture lays out a root with a work plan covering Monday and Tuesday
// and the three templates.
func newFixture(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.WorkPlan = "work plan.xlsx"
	cfg.Mappings.DailyReport = []config.MappingSpec{
		{From: config.HeaderDate, To: config.HeaderDate},
		{From: config.HeaderWorkPlanStart, To: config.HeaderPlannedStart},
		{From: config.HeaderWorkPlanTL, To: config.HeaderTeamLeader},
		{From: "Work Description", To: "Activity Description"},
		{From: config.HeaderObservations, To: config.HeaderSummary},
	}
	cfg.Mappings.Delay = []config.MappingSpec{
		{From: config.HeaderDate, To: config.HeaderDate},
		{From: config.HeaderTeamLeader, To: "Team leader Name"},
		{From: "Activity Description", To: "Activity Description"},
	}
	cfg.Mappings.Cancellation = []config.MappingSpec{
		{From: config.HeaderDate, To: config.HeaderDate},
		{From: "Work Description", To: "Activity Description"},
		{From: config.HeaderObservations, To: "Cancellation Cause"},
	}

	writeWorkbook(t, cfg.WorkPlanPath(), sheetRows{
		name: "Const. Plan",
		rows: map[int][]interface{}{
			1: {"Construction plan WW10"},
			2: {config.HeaderDate, config.HeaderWorkPlanStart, config.HeaderWorkPlanTL, config.HeaderObservations, "Work Description"},
			3: {45355, 0.3125, "Avi Cohen (050-1234567)", "Cancel - rain", "Track works"},
			4: {45355, 0.375, "Dana Levi (052-7654321)", nil, "Signal test"},
			5: {45356, 0.3333, "Avi Cohen (050-1234567)", "postponed", "Cabling"},
			7: {45356, 0.5, "Noa", nil, "Inspection"},
		},
	})

	// The daily template is pre-formatted down to row 6.
	writeWorkbook(t, filepath.Join(cfg.TemplatesPath(), cfg.Reports.DailyTemplate), sheetRows{
		name: "Sheet1",
		rows: map[int][]interface{}{
			1: {"CIIM Report Table"},
			3: {config.HeaderDate, config.HeaderPlannedStart, config.HeaderTeamLeader, "Activity Description", config.HeaderSummary},
			4: {nil, nil, nil, nil, nil, "-"},
			5: {nil, nil, nil, nil, nil, "-"},
			6: {nil, nil, nil, nil, nil, "-"},
		},
	})
	for _, name := range []string{cfg.Reports.WeeklyDelayTemplate, cfg.Reports.DailyDelayTemplate} {
		writeWorkbook(t, filepath.Join(cfg.TemplatesPath(), name),
			sheetRows{name: "Delays", rows: map[int][]interface{}{
				1: {"Delays"},
				2: {config.HeaderDate, "Team leader Name", "Activity Description"},
			}},
			sheetRows{name: "Cancellations", rows: map[int][]interface{}{
				1: {"Cancellations"},
				2: {config.HeaderDate, "Activity Description", "Cancellation Cause"},
			}},
		)
	}
	return cfg
}

func newSession(t *testing.T, cfg *config.Config, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(cfg, opts...)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s
}

func openSheet(t *testing.T, path, name string) *sheet.Sheet {
	t.Helper()
	book, err := sheet.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { book.Close() })
	s, err := book.Sheet(name)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func text(t *testing.T, s *sheet.Sheet, row, col int) string {
	t.Helper()
	v, err := s.Get(row, col)
	if err != nil {
		t.Fatal(err)
	}
	return v.Text
}

func TestCreateDaily(t *testing.T) {
	cfg := newFixture(t)
	s := newSession(t, cfg)

	res, err := s.CreateDaily(monday, DailyOptions{})
	if err != nil {
		t.Fatalf("CreateDaily failed: %v", err)
	}

	want := filepath.Join(cfg.ConstructionPath(), "2024", "WW10", "240304", "CIIM Report Table 04.03.24.xlsx")
	if res.Report != want {
		t.Errorf("report path:\n got %s\nwant %s", res.Report, want)
	}
	if !res.Created || len(res.FoldersCreated) == 0 {
		t.Errorf("expected a new report in new folders: %+v", res)
	}
	if res.Rows != 2 || res.Planned != 1 || res.Cancelled != 1 {
		t.Errorf("rows %d, planned %d, cancelled %d", res.Rows, res.Planned, res.Cancelled)
	}
	if res.RowsTrimmed != 1 || len(res.Missing) != 0 {
		t.Errorf("trimmed %d, missing %v", res.RowsTrimmed, res.Missing)
	}

	dst := openSheet(t, res.Report, "")
	if got := text(t, dst, 1, 1); got != "CIIM Report Table 04.03.24" {
		t.Errorf("title: %q", got)
	}
	if got := text(t, dst, 4, 3); got != "Avi Cohen" {
		t.Errorf("team leader not cleaned: %q", got)
	}
	if got := text(t, dst, 5, 4); got != "Signal test" {
		t.Errorf("activity: %q", got)
	}
	if got := text(t, dst, 4, 5); got != "Cancel - rain" {
		t.Errorf("summary: %q", got)
	}
	if n, _ := dst.MaxRow(); n != 5 {
		t.Errorf("expected the unused template row to be trimmed, max row %d", n)
	}
}

// editCell changes one cell of a saved workbook, as a user would by hand.
func editCell(t *testing.T, path, sheetName, cell string, value interface{}) {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		t.Fatal(err)
	}
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}
}

// lockWorkbook leaves the owner file Excel writes beside an open workbook.
func lockWorkbook(t *testing.T, path string) {
	t.Helper()
	owner := filepath.Join(filepath.Dir(path), "~$"+filepath.Base(path))
	if err := os.WriteFile(owner, []byte("owner"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCreateDailyTwiceKeepsReport(t *testing.T) {
	cfg := newFixture(t)
	s := newSession(t, cfg)

	first, err := s.CreateDaily(monday, DailyOptions{})
	if err != nil {
		t.Fatal(err)
	}
	editCell(t, first.Report, "Sheet1", "D6", "Extra activity added by crew")

	res, err := s.CreateDaily(monday, DailyOptions{})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !res.Existing || res.Created || res.Rows != 0 || len(res.FoldersCreated) != 0 {
		t.Errorf("second run: %+v", res)
	}
	if got := text(t, openSheet(t, res.Report, ""), 6, 4); got != "Extra activity added by crew" {
		t.Errorf("hand-added row lost: %q", got)
	}

	_, err = s.CreateDaily(monday, DailyOptions{Recreate: true})
	if !errors.Is(err, filesafety.ErrOverwriteDeclined) {
		t.Errorf("expected the overwrite to be declined, got %v", err)
	}

	res, err = newSession(t, cfg, WithConfirm(filesafety.Always)).CreateDaily(monday, DailyOptions{Recreate: true})
	if err != nil || !res.Created || res.Existing || res.Rows != 2 {
		t.Errorf("confirmed recreate: %+v, %v", res, err)
	}
	if n, _ := openSheet(t, res.Report, "").MaxRow(); n != 5 {
		t.Errorf("recreated report: max row %d", n)
	}
}

func TestCreateDailyRecreateWithLockedWorkPlan(t *testing.T) {
	cfg := newFixture(t)
	first, err := newSession(t, cfg).CreateDaily(monday, DailyOptions{})
	if err != nil {
		t.Fatal(err)
	}
	lockWorkbook(t, cfg.WorkPlanPath())

	_, err = newSession(t, cfg, WithConfirm(filesafety.Always)).CreateDaily(monday, DailyOptions{Recreate: true})
	var locked *filesafety.LockedError
	if !errors.As(err, &locked) || locked.Path != cfg.WorkPlanPath() {
		t.Fatalf("expected the work plan to be reported as open, got %v", err)
	}
	if got := text(t, openSheet(t, first.Report, ""), 4, 4); got != "Track works" {
		t.Errorf("report changed by the aborted run: %q", got)
	}
}

func TestCreateDailyWithoutWorkPlan(t *testing.T) {
	cfg := newFixture(t)
	cfg.WorkPlan = ""
	if _, err := newSession(t, cfg).CreateDaily(monday, DailyOptions{}); !errors.Is(err, ErrNoWorkPlan) {
		t.Errorf("expected ErrNoWorkPlan, got %v", err)
	}

	cfg.WorkPlan = "absent.xlsx"
	_, err := newSession(t, cfg).CreateDaily(monday, DailyOptions{})
	if !IsPathNotFound(err) {
		t.Errorf("expected PathNotFoundError, got %v", err)
	}
}

func TestCopyToPreviousDay(t *testing.T) {
	cfg := newFixture(t)
	s := newSession(t, cfg)

	if _, err := s.CopyToPreviousDay(tuesday, 6); !IsPathNotFound(err) {
		t.Fatalf("expected the missing Monday report to be reported, got %v", err)
	}
	if _, err := s.CreateDaily(monday, DailyOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CopyToPreviousDay(tuesday, 2); err == nil {
		t.Error("expected an error for a start row inside the header")
	}

	res, err := s.CopyToPreviousDay(tuesday, 6)
	if err != nil {
		t.Fatalf("CopyToPreviousDay failed: %v", err)
	}
	if res.Created || res.Rows != 2 || res.RowsTrimmed != 0 {
		t.Errorf("unexpected result: %+v", res)
	}

	dst := openSheet(t, res.Report, "")
	if got := text(t, dst, 4, 4); got != "Track works" {
		t.Errorf("existing rows changed: %q", got)
	}
	if got := text(t, dst, 6, 4); got != "Track works" {
		t.Errorf("appended row: %q", got)
	}
	if got := text(t, dst, 7, 3); got != "Dana Levi" {
		t.Errorf("appended team leader: %q", got)
	}
}

func TestWorkPlanDates(t *testing.T) {
	cfg := newFixture(t)
	dates, err := newSession(t, cfg).WorkPlanDates()
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 2 || !dates[0].Equal(monday) || !dates[1].Equal(tuesday) {
		t.Errorf("dates: %v", dates)
	}
}

func TestDelayBatchWeekly(t *testing.T) {
	cfg := newFixture(t)
	cfg.RunLogDir = "logs"
	s := newSession(t, cfg)
	if _, err := s.CreateDaily(monday, DailyOptions{}); err != nil {
		t.Fatal(err)
	}

	res, err := s.DelayBatch(BatchOptions{Scope: Weekly})
	if err != nil {
		t.Fatalf("DelayBatch failed: %v", err)
	}
	if res.Report != filepath.Join(cfg.TrackingPath(), "Delays & Cancellations WW10.xlsx") || !res.Created {
		t.Errorf("report: %s (created %v)", res.Report, res.Created)
	}
	if res.Cancellations != 2 || res.Delays != 1 {
		t.Errorf("cancellations %d, delays %d", res.Cancellations, res.Delays)
	}
	if len(res.Days) != 2 {
		t.Fatalf("expected both dates, got %v", res.Days)
	}
	failed := res.Failed()
	if len(failed) != 1 || !failed[0].Date.Equal(tuesday) || !IsPathNotFound(failed[0].Err) {
		t.Errorf("expected Tuesday to be missing: %v", failed)
	}
	if res.RunLog == "" || !utils.FileExists(res.RunLog) {
		t.Errorf("run log not written: %q", res.RunLog)
	}

	delays := openSheet(t, res.Report, "Delays")
	if got := text(t, delays, 1, 1); got != "Delays & Cancellations WW10" {
		t.Errorf("title: %q", got)
	}
	if got := text(t, delays, 3, 2); got != "Dana Levi" {
		t.Errorf("delay row: %q", got)
	}
	cancels := openSheet(t, res.Report, "Cancellations")
	if got := text(t, cancels, 3, 3); got != "Cancel - rain" {
		t.Errorf("first cancellation: %q", got)
	}
	if got := text(t, cancels, 4, 2); got != "Cabling" {
		t.Errorf("second cancellation: %q", got)
	}

	// an existing report is only replaced after confirmation
	if _, err := s.DelayBatch(BatchOptions{Scope: Weekly}); !errors.Is(err, filesafety.ErrOverwriteDeclined) {
		t.Errorf("expected the overwrite to be declined, got %v", err)
	}
}

func TestDelayBatchOverwriteWithLockedWorkPlan(t *testing.T) {
	cfg := newFixture(t)
	s := newSession(t, cfg, WithConfirm(filesafety.Always))
	first, err := s.DelayBatch(BatchOptions{Scope: Weekly})
	if err != nil {
		t.Fatal(err)
	}
	lockWorkbook(t, cfg.WorkPlanPath())

	_, err = s.DelayBatch(BatchOptions{Scope: Weekly})
	var locked *filesafety.LockedError
	if !errors.As(err, &locked) {
		t.Fatalf("expected the work plan to be reported as open, got %v", err)
	}
	if got := text(t, openSheet(t, first.Report, "Cancellations"), 3, 3); got != "Cancel - rain" {
		t.Errorf("report changed by the aborted run: %q", got)
	}
}

func TestDelayBatchDaily(t *testing.T) {
	cfg := newFixture(t)
	s := newSession(t, cfg)

	res, err := s.DelayBatch(BatchOptions{Scope: Daily, Dates: []time.Time{tuesday, monday}})
	if err != nil {
		t.Fatalf("DelayBatch failed: %v", err)
	}
	if filepath.Base(res.Report) != "Delays & Cancellations 05.03.24.xlsx" {
		t.Errorf("report: %s", res.Report)
	}
	if res.Cancellations != 1 || res.Delays != 0 || len(res.Days) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.RunLog != "" {
		t.Errorf("no run log folder configured, got %s", res.RunLog)
	}
}

func TestDelayBatchWithoutWorkPlan(t *testing.T) {
	cfg := newFixture(t)
	cfg.WorkPlan = ""
	if _, err := newSession(t, cfg).DelayBatch(BatchOptions{}); !errors.Is(err, ErrNoWorkPlan) {
		t.Errorf("expected ErrNoWorkPlan, got %v", err)
	}
}

func TestWeeklyReport(t *testing.T) {
	cfg := newFixture(t)
	s := newSession(t, cfg)
	if _, err := s.CreateDaily(monday, DailyOptions{}); err != nil {
		t.Fatal(err)
	}

	res, err := s.WeeklyReport(nil)
	if err != nil {
		t.Fatalf("WeeklyReport failed: %v", err)
	}
	want := filepath.Join(cfg.ConstructionPath(), "2024", "WW10", "Weekly Reports", "CIIM Report Table WW10.xlsx")
	if res.Report != want {
		t.Errorf("report path:\n got %s\nwant %s", res.Report, want)
	}
	if res.Rows != 2 || len(res.Days) != 2 || len(res.Missing) != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	for _, d := range res.Days {
		if d.Date.Equal(tuesday) && !IsPathNotFound(d.Err) {
			t.Errorf("Tuesday has no report: %v", d.Err)
		}
	}

	dst := openSheet(t, res.Report, "")
	if got := text(t, dst, 1, 1); got != "CIIM Report Table WW10" {
		t.Errorf("title: %q", got)
	}
	if got := text(t, dst, 5, 3); got != "Dana Levi" {
		t.Errorf("second row: %q", got)
	}
	if n, _ := dst.MaxRow(); n != 5 {
		t.Errorf("max row %d", n)
	}
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"": Weekly, "weekly": Weekly, " Daily ": Daily, "day": Daily} {
		if got, err := ParseScope(in); err != nil || got != want {
			t.Errorf("%q: %v, %v", in, got, err)
		}
	}
	if _, err := ParseScope("monthly"); err == nil {
		t.Error("expected an error")
	}
}
