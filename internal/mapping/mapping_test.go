package mapping

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
)

func TestTimeRange(t *testing.T) {
	cases := []struct {
		name   string
		values []sheet.Value
		want   string
	}{
		{"fractions", []sheet.Value{{Raw: "0.3333333333", Text: "08:00"}, {Raw: "0.6875", Text: "16:30"}}, "08:00-16:30"},
		{"text", []sheet.Value{{Text: "8:00"}, {Text: "16:30"}}, "08:00-16:30"},
		{"missing end", []sheet.Value{{Raw: "0.25"}, {}}, "06:00-None"},
		{"not a time", []sheet.Value{{Text: "tbd"}, {Raw: "0.5"}}, "None-12:00"},
	}
	for _, tc := range cases {
		if got := TimeRange(tc.values); got != tc.want {
			t.Errorf("%s: got %v, want %s", tc.name, got, tc.want)
		}
	}
}

func TestJoin(t *testing.T) {
	got := Join(" / ")([]sheet.Value{{Text: " Dana "}, {}, {Text: "Avi"}})
	if got != "Dana / Avi" {
		t.Fatalf("got %v", got)
	}
}

func TestFromSpecs(t *testing.T) {
	table, err := FromSpecs([]config.MappingSpec{
		{From: "Work Description", To: "Activity Description"},
		{Sources: []string{"T.P Start [Time]", "T.P End [Time]"}, Combine: "time_range", To: "Planned Window"},
		{From: "Work Description", To: "Copy"},
	})
	if err != nil {
		t.Fatalf("FromSpecs failed: %v", err)
	}
	if len(table) != 3 || !table[1].IsCombined() || table[0].IsCombined() {
		t.Fatalf("unexpected table: %v", table)
	}
	if got := table[1].String(); got != "time_range(T.P Start [Time], T.P End [Time]) -> Planned Window" {
		t.Errorf("String: %s", got)
	}

	sources := table.SourceNames()
	if len(sources) != 3 || sources[0] != "Work Description" || sources[2] != "T.P End [Time]" {
		t.Errorf("SourceNames: %q", sources)
	}
	dests := table.DestNames()
	if len(dests) != 3 || dests[1] != "Planned Window" {
		t.Errorf("DestNames: %q", dests)
	}

	if _, err := FromSpecs([]config.MappingSpec{{Sources: []string{"a"}, Combine: "sum", To: "b"}}); err == nil {
		t.Error("expected an error for an unknown combiner")
	}
}

func TestEntryValue(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	for cell, v := range map[string]interface{}{
		"A1": "Start", "B1": "End", "C1": "Name",
		"A2": 0.25, "B2": 0.5, "C2": "Dana",
	} {
		if err := f.SetCellValue("Sheet1", cell, v); err != nil {
			t.Fatal(err)
		}
	}
	s := sheet.New(f, "Sheet1")

	idx, err := sheet.BuildHeaderIndex(s, 1, []string{"Start", "End", "Name"})
	if err != nil {
		t.Fatal(err)
	}
	row, err := s.Row(2)
	if err != nil {
		t.Fatal(err)
	}

	window := Combined([]string{"Start", "End"}, "Window", TimeRange)
	if v, ok := window.Value(row, idx); !ok || v != "06:00-12:00" {
		t.Errorf("combined: %v, %v", v, ok)
	}
	if v, ok := Simple("Name", "Team Leader").Value(row, idx); !ok || v != "Dana" {
		t.Errorf("simple: %v, %v", v, ok)
	}
	if _, ok := Simple("Absent", "X").Value(row, idx); ok {
		t.Error("missing source should report false")
	}
}

func TestIdentity(t *testing.T) {
	table := Identity([]string{"A", "B"})
	if len(table) != 2 || table[1].Dest() != "B" || table[1].Sources()[0] != "B" {
		t.Fatalf("unexpected identity table: %v", table)
	}
}
