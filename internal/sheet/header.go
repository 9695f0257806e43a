package sheet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/unicode/norm"
)

// HeaderMissingError reports columns that a transfer cannot run without.
type HeaderMissingError struct {
	Sheet       string
	Names       []string
	Suggestions map[string]string
}

func (e *HeaderMissingError) Error() string {
	parts := make([]string, 0, len(e.Names))
	for _, n := range e.Names {
		if s := e.Suggestions[n]; s != "" {
			parts = append(parts, fmt.Sprintf("%q (closest: %q)", n, s))
		} else {
			parts = append(parts, fmt.Sprintf("%q", n))
		}
	}
	return fmt.Sprintf("sheet %q is missing column(s) %s", e.Sheet, strings.Join(parts, ", "))
}

// HeaderIndex maps header text to 1-based column positions for one header
// row. Only names the caller asked for are indexed; a name that is not on
// the sheet is simply absent.
type HeaderIndex struct {
	sheet   string
	row     int
	cols    map[string]int
	headers []string
}

// Normalize canonicalizes header text: NFC form, "\r\n" folded to "\n",
// surrounding whitespace removed. Inner spacing and line breaks are kept
// because templates genuinely differ on them.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

// BuildHeaderIndex scans headerRow of s and records the column of every cell
// whose text equals one of interesting. A name listed in interesting may
// come from a combined mapping; each of its parts is passed separately.
// When a header appears twice the left-most column wins.
func BuildHeaderIndex(s *Sheet, headerRow int, interesting []string) (*HeaderIndex, error) {
	row, err := s.Row(headerRow)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]string, len(interesting))
	for _, name := range interesting {
		wanted[Normalize(name)] = name
	}

	idx := &HeaderIndex{sheet: s.Name(), row: headerRow, cols: make(map[string]int)}
	for col := 1; col <= row.Width(); col++ {
		text := Normalize(row.Text(col))
		if text == "" {
			continue
		}
		idx.headers = append(idx.headers, text)

		name, ok := wanted[text]
		if !ok {
			continue
		}
		if _, seen := idx.cols[name]; !seen {
			idx.cols[name] = col
		}
	}
	return idx, nil
}

// Sheet is the worksheet the index was built from.
func (h *HeaderIndex) Sheet() string { return h.sheet }

// Row is the header row the index was built from.
func (h *HeaderIndex) Row() int { return h.row }

// Column returns the 1-based column of name.
func (h *HeaderIndex) Column(name string) (int, bool) {
	col, ok := h.cols[name]
	return col, ok
}

// Has reports whether name was found.
func (h *HeaderIndex) Has(name string) bool {
	_, ok := h.cols[name]
	return ok
}

// Len is the number of indexed names.
func (h *HeaderIndex) Len() int { return len(h.cols) }

// Names returns the indexed names in column order.
func (h *HeaderIndex) Names() []string {
	names := make([]string, 0, len(h.cols))
	for n := range h.cols {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return h.cols[names[i]] < h.cols[names[j]] })
	return names
}

// Headers returns every non-empty header text of the row, in column order.
func (h *HeaderIndex) Headers() []string {
	return append([]string(nil), h.headers...)
}

// Missing returns the names from names that were not found.
func (h *HeaderIndex) Missing(names []string) []string {
	var out []string
	for _, n := range names {
		if !h.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Suggest returns the header on the row closest to name, or "" when the row
// is empty.
func (h *HeaderIndex) Suggest(name string) string {
	return Closest(h.headers, name)
}

// Require fails with a HeaderMissingError unless every name is present.
func (h *HeaderIndex) Require(names ...string) error {
	missing := h.Missing(names)
	if len(missing) == 0 {
		return nil
	}
	sugg := make(map[string]string, len(missing))
	for _, m := range missing {
		if s := h.Suggest(m); s != "" {
			sugg[m] = s
		}
	}
	return &HeaderMissingError{Sheet: h.sheet, Names: missing, Suggestions: sugg}
}

// Closest returns the candidate closest to name.
func Closest(candidates []string, name string) string {
	if len(candidates) == 0 {
		return ""
	}
	cm := closestmatch.New(candidates, []int{2, 3})
	return cm.Closest(name)
}
