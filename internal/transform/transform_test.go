package transform

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
)

func TestApplyTransformation(t *testing.T) {
	cases := []struct {
		name   string
		value  string
		action config.TransformationAction
		want   string
	}{
		{"trim", "  x ", config.TransformationAction{Type: "trim"}, "x"},
		{"uppercase", "ab", config.TransformationAction{Type: "uppercase"}, "AB"},
		{"prepend", "1", config.TransformationAction{Type: "prepend_string", Value: "EP-"}, "EP-1"},
		{"replace", "a-b-c", config.TransformationAction{Type: "replace", Find: "-", Value: "/"}, "a/b/c"},
		{"strip phone", "Dana Levi (050-1234567)", config.TransformationAction{Type: "regex_replace", Find: `\s*\(.*?\)\s*$`}, "Dana Levi"},
		{"keep cancelled", "Cancel - by crew", config.TransformationAction{Type: "clear_unless_match", Find: `(?i)cancel`}, "Cancel - by crew"},
		{"clear other", "Works as planned", config.TransformationAction{Type: "clear_unless_match", Find: `(?i)cancel`}, ""},
		{"default", " ", config.TransformationAction{Type: "if_empty_use_default", Value: "N/A"}, "N/A"},
		{"lookup", "N", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"N": "Night"}}, "Night"},
		{"lookup default", "X", config.TransformationAction{Type: "lookup_with_default", Value: "?", LookupTable: map[string]string{"N": "Night"}}, "?"},
		{"whitespace", " a   b ", config.TransformationAction{Type: "normalize_whitespace"}, "a b"},
	}
	for _, tc := range cases {
		got, err := ApplyTransformation(tc.value, tc.action, nil)
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}

	if _, err := ApplyTransformation("x", config.TransformationAction{Type: "explode"}, nil); err == nil {
		t.Error("expected an error for an unknown type")
	}
}

func TestNewTransformerRejectsBadPattern(t *testing.T) {
	_, err := NewTransformer([]config.TransformationRule{
		{Field: "X", Actions: []config.TransformationAction{{Type: "regex_replace", Find: "("}}},
	}, nil)
	if err == nil {
		t.Fatal("expected an error for an invalid pattern")
	}
}

func TestTransformUnknownFieldIsUnchanged(t *testing.T) {
	tr, err := NewTransformer(config.DefaultTransforms(), nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := tr.Transform("Discipline", "Track (north)")
	if err != nil || got != "Track (north)" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestApplyToSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	for cell, v := range map[string]interface{}{
		"A3": config.HeaderTeamLeader, "B3": config.HeaderSummary, "C3": config.HeaderPlannedStart,
		"A4": "Dana (050-111)", "B4": "Cancel - rain", "C4": 0.25,
		"A5": "Avi", "B5": "Started late", "C5": 0.5,
	} {
		if err := f.SetCellValue("Sheet1", cell, v); err != nil {
			t.Fatal(err)
		}
	}
	s := sheet.New(f, "Sheet1")

	tr, err := NewTransformer(config.DefaultTransforms(), nil)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := tr.ApplyToSheet(s, 3, 4, 5)
	if err != nil {
		t.Fatalf("ApplyToSheet failed: %v", err)
	}

	if stats.CellsChanged != 2 {
		t.Errorf("expected 2 changed cells, got %d", stats.CellsChanged)
	}
	if len(stats.Missing) != 1 || stats.Missing[0] != config.HeaderForeman {
		t.Errorf("expected the foreman column reported missing, got %q", stats.Missing)
	}

	check := func(cell, want string) {
		t.Helper()
		got, err := f.GetCellValue("Sheet1", cell)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("%s: got %q, want %q", cell, got, want)
		}
	}
	check("A4", "Dana")
	check("A5", "Avi")
	check("B4", "Cancel - rain")
	check("B5", "")

	raw, _ := f.GetCellValue("Sheet1", "C4", excelize.Options{RawCellValue: true})
	if raw != "0.25" {
		t.Errorf("numeric cell changed: %q", raw)
	}
}
