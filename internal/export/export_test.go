package export

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ciim-report-sync/internal/config"
)

// writeDailyReport saves a daily report with its header on row 3.
func writeDailyReport(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	cells := map[string]interface{}{
		"A1": "CIIM Report Table 04.03.24",
		"A3": "Date", "B3": "Planned Start", "C3": "Team Leader Name", "D3": "Activity Summary",
		"A4": 45355, "B4": 0.3541666667, "C4": "Zoë Café", "D4": "Cancel - rain",
		"A6": "05/03/2024", "B6": "9:15", "C6": "Avi", "D6": "Budget 5€, \"urgent\"",
	}
	for cell, v := range cells {
		if err := f.SetCellValue("Sheet1", cell, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func testOptions(encoding, delimiter string) Options {
	opts := OptionsFromConfig(config.Default())
	opts.Encoding = encoding
	opts.Delimiter = delimiter
	return opts
}

var wantRecords = [][]string{
	{"Date", "Planned Start", "Team Leader Name", "Activity Summary"},
	{"04/03/2024", "08:30", "Zoë Café", "Cancel - rain"},
	{"05/03/2024", "09:15", "Avi", "Budget 5€, \"urgent\""},
}

func TestRecords(t *testing.T) {
	src := filepath.Join(t.TempDir(), "CIIM Report Table 04.03.24.xlsx")
	writeDailyReport(t, src)

	e, err := NewExporter(testOptions("UTF-8", ","), nil)
	if err != nil {
		t.Fatal(err)
	}
	records, err := e.Records(src)
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if !reflect.DeepEqual(records, wantRecords) {
		t.Fatalf("got %q\nwant %q", records, wantRecords)
	}
}

func TestRecordsMissingHeaderRow(t *testing.T) {
	src := filepath.Join(t.TempDir(), "report.xlsx")
	writeDailyReport(t, src)

	opts := testOptions("", "")
	opts.HeaderRow = 40
	e, err := NewExporter(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Records(src); err == nil {
		t.Fatal("expected an error for a header row past the data")
	}
}

func TestExportRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		encoding  string
		delimiter string
	}{
		{"UTF-8", ","},
		{"UTF-8-BOM", ";"},
		{"windows-1252", "tab"},
	} {
		t.Run(tc.encoding, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "CIIM Report Table 04.03.24.xlsx")
			writeDailyReport(t, src)

			e, err := NewExporter(testOptions(tc.encoding, tc.delimiter), nil)
			if err != nil {
				t.Fatal(err)
			}
			res, err := e.ExportFile(src, filepath.Join(dir, "CSV"))
			if err != nil {
				t.Fatalf("ExportFile failed: %v", err)
			}
			if res.Rows != 2 || filepath.Base(res.Output) != "CIIM Report Table 04.03.24.csv" {
				t.Fatalf("unexpected result: %+v", res)
			}

			got, err := ReadCSV(res.Output, tc.encoding, tc.delimiter)
			if err != nil {
				t.Fatalf("ReadCSV failed: %v", err)
			}
			if !reflect.DeepEqual(got, wantRecords) {
				t.Fatalf("got %q\nwant %q", got, wantRecords)
			}
		})
	}
}

func TestExportEncodingBytes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.xlsx")
	writeDailyReport(t, src)

	read := func(encoding string) []byte {
		t.Helper()
		e, err := NewExporter(testOptions(encoding, ","), nil)
		if err != nil {
			t.Fatal(err)
		}
		res, err := e.ExportFile(src, filepath.Join(dir, encoding))
		if err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(res.Output)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	if data := read("UTF-8-BOM"); !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("missing byte order mark")
	}
	if data := read("windows-1252"); !bytes.Contains(data, []byte{'Z', 'o', 0xEB}) || !bytes.Contains(data, []byte{'5', 0x80}) {
		t.Error("expected single-byte windows-1252 characters")
	}
	// ISO-8859-1 has no euro sign; it is replaced instead of failing
	latin := read("iso-8859-1")
	if !bytes.Contains(latin, []byte{'Z', 'o', 0xEB}) || bytes.Contains(latin, []byte{0x80}) {
		t.Error("unexpected ISO-8859-1 bytes")
	}

	// UTF-8 reads ignore a byte order mark
	e, _ := NewExporter(testOptions("UTF-8-BOM", ","), nil)
	res, err := e.ExportFile(src, filepath.Join(dir, "bom"))
	if err != nil {
		t.Fatal(err)
	}
	records, err := ReadCSV(res.Output, "UTF-8", ",")
	if err != nil {
		t.Fatal(err)
	}
	if records[0][0] != "Date" {
		t.Errorf("byte order mark leaked into %q", records[0][0])
	}
}

func TestExportFiles(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"CIIM Report Table 04.03.24.xlsx", "CIIM Report Table 05.03.24.xlsx"} {
		p := filepath.Join(dir, name)
		writeDailyReport(t, p)
		files = append(files, p)
	}
	files = append(files[:1], filepath.Join(dir, "missing.xlsx"), files[1])

	e, err := NewExporter(testOptions("", ""), nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := e.ExportFiles(files, filepath.Join(dir, "CSV"))
	if err == nil {
		t.Fatal("expected the missing workbook to be reported")
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(out))
	}
	if filepath.Base(out[0].Output) != "CIIM Report Table 04.03.24.csv" || filepath.Base(out[1].Output) != "CIIM Report Table 05.03.24.csv" {
		t.Errorf("results out of order: %v", out)
	}

	all, err := e.ExportDir(dir, "CIIM Report Table *.xlsx", filepath.Join(dir, "again"))
	if err != nil || len(all) != 2 {
		t.Errorf("ExportDir: %d, %v", len(all), err)
	}
}

func TestNewExporterRejectsBadOptions(t *testing.T) {
	if _, err := NewExporter(testOptions("ebcdic", ","), nil); err == nil {
		t.Error("expected an encoding error")
	}
	if _, err := NewExporter(testOptions("UTF-8", "::"), nil); err == nil {
		t.Error("expected a delimiter error")
	}
}

func TestDelimiter(t *testing.T) {
	cases := map[string]rune{
		"":          ',',
		",":         ',',
		"tab":       '\t',
		`\t`:        '\t',
		"pipe":      '|',
		"semicolon": ';',
		":":         ':',
	}
	for in, want := range cases {
		got, err := Delimiter(in)
		if err != nil || got != want {
			t.Errorf("%q: got %q, %v", in, got, err)
		}
	}
	for _, bad := range []string{`"`, "\n", "ab"} {
		if _, err := Delimiter(bad); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}
