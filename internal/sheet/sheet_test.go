package sheet

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// newTestSheet builds an in-memory worksheet from rows starting at A1.
func newTestSheet(t *testing.T, rows [][]interface{}) *Sheet {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	return New(f, "Sheet1")
}

func TestBuildHeaderIndex(t *testing.T) {
	s := newTestSheet(t, [][]interface{}{
		{"Title"},
		{"Date", " Team Leader ", "Activity\r\nSummary", "Date", nil, "Unused"},
	})

	idx, err := BuildHeaderIndex(s, 2, []string{"Date", "Team Leader", "Activity\nSummary", "Absent"})
	if err != nil {
		t.Fatalf("BuildHeaderIndex failed: %v", err)
	}

	if col, ok := idx.Column("Date"); !ok || col != 1 {
		t.Errorf("Date: expected left-most column 1, got %d (%v)", col, ok)
	}
	if col, ok := idx.Column("Team Leader"); !ok || col != 2 {
		t.Errorf("Team Leader: got %d (%v)", col, ok)
	}
	if col, ok := idx.Column("Activity\nSummary"); !ok || col != 3 {
		t.Errorf("Activity Summary: got %d (%v)", col, ok)
	}
	if idx.Has("Absent") {
		t.Error("Absent should not be indexed")
	}
	if idx.Has("Unused") {
		t.Error("names that were not asked for should not be indexed")
	}
	if idx.Len() != 3 {
		t.Errorf("expected 3 names, got %d", idx.Len())
	}

	headers := idx.Headers()
	if len(headers) != 5 || headers[4] != "Unused" {
		t.Errorf("unexpected headers: %q", headers)
	}
	names := idx.Names()
	if len(names) != 3 || names[0] != "Date" || names[2] != "Activity\nSummary" {
		t.Errorf("unexpected column order: %q", names)
	}
}

func TestBuildHeaderIndexEmptyRow(t *testing.T) {
	s := newTestSheet(t, [][]interface{}{{"only row"}})
	idx, err := BuildHeaderIndex(s, 5, []string{"Date"})
	if err != nil {
		t.Fatalf("BuildHeaderIndex failed: %v", err)
	}
	if idx.Len() != 0 || len(idx.Headers()) != 0 {
		t.Fatalf("expected an empty index, got %v", idx.Headers())
	}
	if idx.Suggest("Date") != "" {
		t.Error("expected no suggestion on an empty row")
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Date ":          "Date",
		"Activity\r\nNote": "Activity\nNote",
		"Cafe\u0301":       "Caf\u00e9",
		"Two  Spaces":      "Two  Spaces",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRequire(t *testing.T) {
	s := newTestSheet(t, [][]interface{}{
		{"Date", "Activity Summary", "Team Leader"},
	})
	idx, err := BuildHeaderIndex(s, 1, []string{"Date", "Activity Summery"})
	if err != nil {
		t.Fatal(err)
	}

	if err := idx.Require("Date"); err != nil {
		t.Errorf("Date is present: %v", err)
	}

	err = idx.Require("Date", "Activity Summery")
	var missing *HeaderMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected HeaderMissingError, got %v", err)
	}
	if missing.Sheet != "Sheet1" || len(missing.Names) != 1 || missing.Names[0] != "Activity Summery" {
		t.Errorf("unexpected error: %+v", missing)
	}
	if got := missing.Suggestions["Activity Summery"]; got != "Activity Summary" {
		t.Errorf("expected suggestion Activity Summary, got %q", got)
	}
}

func TestRowsAndValues(t *testing.T) {
	s := newTestSheet(t, [][]interface{}{
		{"Name", "Count", "Done"},
		{"alpha", 45355, true},
		{nil},
		{"gamma"},
	})

	rows, err := s.Rows(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows from row 2, got %d", len(rows))
	}
	if rows[0].Index != 2 || rows[2].Index != 4 {
		t.Errorf("unexpected indexes %d, %d", rows[0].Index, rows[2].Index)
	}
	if !rows[1].Blank() {
		t.Error("row 3 should be blank")
	}
	if rows[2].Blank() {
		t.Error("row 4 should not be blank")
	}

	if got := rows[0].Value(1).Typed(); got != "alpha" {
		t.Errorf("text cell: got %#v", got)
	}
	if got := rows[0].Value(2).Typed(); got != float64(45355) {
		t.Errorf("number cell: got %#v", got)
	}
	if got := rows[0].Value(3).Typed(); got != true {
		t.Errorf("bool cell: got %#v", got)
	}
	if got := rows[2].Value(2).Typed(); got != nil {
		t.Errorf("empty cell: got %#v", got)
	}
	if rows[0].Text(9) != "" {
		t.Error("out of range column should be empty")
	}
}

func TestSetGetAndRemoveRow(t *testing.T) {
	s := newTestSheet(t, [][]interface{}{
		{"a"}, {"b"}, {"c"},
	})

	if err := s.Set(2, 2, "x"); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get(2, 2)
	if err != nil || v.Text != "x" {
		t.Fatalf("Get: %+v, %v", v, err)
	}

	if err := s.RemoveRow(1); err != nil {
		t.Fatal(err)
	}
	v, err = s.Get(1, 1)
	if err != nil || v.Text != "b" {
		t.Fatalf("after RemoveRow expected b in A1, got %+v, %v", v, err)
	}

	n, err := s.MaxRow()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}
}

func TestWorkbookSheetSelection(t *testing.T) {
	f := excelize.NewFile()
	if _, err := f.NewSheet("Delays"); err != nil {
		t.Fatal(err)
	}
	wb := Wrap(f, filepath.Join(t.TempDir(), "book.xlsx"))
	defer wb.Close()

	first, err := wb.Sheet("")
	if err != nil || first.Name() != "Sheet1" {
		t.Fatalf("first sheet: %v, %v", first, err)
	}
	if _, err := wb.Sheet("Delays"); err != nil {
		t.Errorf("Delays: %v", err)
	}
	if _, err := wb.Sheet("Missing"); err == nil {
		t.Error("expected error for a missing sheet")
	}

	if err := wb.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reopened, err := Open(wb.Path())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	reopened.Close()
}
