// =============================================================================
// CIIM Report Sync - Mapping Tables
// =============================================================================
//
// A mapping table says which source column feeds which destination column.
// It is configuration, never derived from a sheet, and is read in order.
//
// ENTRY KINDS:
//   Simple   : one source header copied as-is into one destination header
//   Combined : several source headers folded into one destination value by
//              a named combiner (e.g. "08:00-16:30" from a start and an end
//              time column)
//
// =============================================================================

package mapping

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/ciim-report-sync/internal/calendar"
	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
)

// Combiner folds the cells of a combined entry into one value.
type Combiner func(values []sheet.Value) interface{}

// Entry is one row of a mapping table.
type Entry struct {
	sources  []string
	dest     string
	combiner Combiner
	label    string
}

// Simple maps one source header to one destination header.
func Simple(from, to string) Entry {
	return Entry{sources: []string{from}, dest: to}
}

// Combined maps several source headers to one destination header.
func Combined(sources []string, to string, c Combiner) Entry {
	return Entry{sources: append([]string(nil), sources...), dest: to, combiner: c, label: "custom"}
}

// IsCombined reports whether the entry has a combiner.
func (e Entry) IsCombined() bool { return e.combiner != nil }

// Sources returns the source header names.
func (e Entry) Sources() []string { return append([]string(nil), e.sources...) }

// Dest returns the destination header name.
func (e Entry) Dest() string { return e.dest }

// String renders the entry for logs.
func (e Entry) String() string {
	if e.IsCombined() {
		return fmt.Sprintf("%s(%s) -> %s", e.label, strings.Join(e.sources, ", "), e.dest)
	}
	return fmt.Sprintf("%s -> %s", e.sources[0], e.dest)
}

// Value computes the destination value of the entry for row. It returns
// false when a source header is not in src; the caller treats that field as
// missing.
func (e Entry) Value(row sheet.Row, src *sheet.HeaderIndex) (interface{}, bool) {
	values := make([]sheet.Value, 0, len(e.sources))
	for _, name := range e.sources {
		col, ok := src.Column(name)
		if !ok {
			return nil, false
		}
		values = append(values, row.Value(col))
	}

	if e.IsCombined() {
		return e.combiner(values), true
	}
	return values[0].Typed(), true
}

// Table is an ordered mapping table.
type Table []Entry

// SourceNames returns every distinct source header, parts of combined
// entries included, in table order.
func (t Table) SourceNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range t {
		for _, s := range e.sources {
			if !seen[s] {
				seen[s] = true
				names = append(names, s)
			}
		}
	}
	return names
}

// DestNames returns the destination headers in table order.
func (t Table) DestNames() []string {
	names := make([]string, 0, len(t))
	for _, e := range t {
		names = append(names, e.dest)
	}
	return names
}

// Identity maps each name onto itself.
func Identity(names []string) Table {
	t := make(Table, 0, len(names))
	for _, n := range names {
		t = append(t, Simple(n, n))
	}
	return t
}

// FromSpecs builds a table from configuration.
func FromSpecs(specs []config.MappingSpec) (Table, error) {
	t := make(Table, 0, len(specs))
	for i, s := range specs {
		if len(s.Sources) == 0 {
			t = append(t, Simple(s.From, s.To))
			continue
		}
		c, err := CombinerByName(s.Combine)
		if err != nil {
			return nil, fmt.Errorf("mapping entry %d (%s): %w", i, s.To, err)
		}
		e := Combined(s.Sources, s.To, c)
		e.label = s.Combine
		t = append(t, e)
	}
	return t, nil
}

// =============================================================================
// COMBINERS
// =============================================================================

// CombinerByName returns a built-in combiner.
//
//	time_range : "HH:MM-HH:MM", "None" for a missing side
//	join       : non-empty texts joined with " "
func CombinerByName(name string) (Combiner, error) {
	switch name {
	case "time_range":
		return TimeRange, nil
	case "join":
		return Join(" "), nil
	default:
		return nil, fmt.Errorf("unknown combiner %q", name)
	}
}

// TimeRange formats each value as HH:MM, or "None" when it is empty or not a
// time, and joins them with "-".
func TimeRange(values []sheet.Value) interface{} {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = "None"
		if v.Empty() {
			continue
		}
		raw := v.Raw
		if raw == "" {
			raw = v.Text
		}
		if clock, ok := calendar.ClockText(raw); ok {
			parts[i] = clock
		} else if clock, ok := calendar.ClockText(v.Text); ok {
			parts[i] = clock
		}
	}
	return strings.Join(parts, "-")
}

// Join concatenates the non-empty texts with sep.
func Join(sep string) Combiner {
	return func(values []sheet.Value) interface{} {
		var parts []string
		for _, v := range values {
			if t := strings.TrimSpace(v.Text); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, sep)
	}
}
