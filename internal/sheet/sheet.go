// =============================================================================
// CIIM Report Sync - Sheet Access
// =============================================================================
//
// Thin layer over excelize giving the transfer engine what it needs from a
// worksheet: a header row, rows of cells below it, single-cell writes, the
// last used row and row removal.
//
// CELL VALUES:
//   Every cell is read twice: the formatted text (what a person sees, used
//   for header matching and keyword checks) and the raw stored value (used
//   when copying so numbers, dates and times keep their type and pick up the
//   destination template's number formats).
//
// =============================================================================

package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// WORKBOOK
// =============================================================================

// Workbook is an open .xlsx file.
type Workbook struct {
	f    *excelize.File
	path string
}

// Open opens the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Workbook{f: f, path: path}, nil
}

// Wrap turns an excelize file into a Workbook saved to path.
func Wrap(f *excelize.File, path string) *Workbook {
	return &Workbook{f: f, path: path}
}

// Path is where Save writes.
func (w *Workbook) Path() string { return w.path }

// File exposes the underlying excelize file.
func (w *Workbook) File() *excelize.File { return w.f }

// Sheet returns the named worksheet. An empty name selects the first sheet.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	if name == "" {
		name = w.f.GetSheetName(0)
		if name == "" {
			return nil, fmt.Errorf("workbook %s has no sheets", w.path)
		}
		return &Sheet{f: w.f, name: name}, nil
	}

	idx, err := w.f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook %s has no sheet %q", w.path, name)
	}
	return &Sheet{f: w.f, name: name}, nil
}

// Save writes the workbook back to its path.
func (w *Workbook) Save() error {
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save %s: %w", w.path, err)
	}
	return nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// =============================================================================
// SHEET
// =============================================================================

// Sheet is one worksheet of a workbook.
type Sheet struct {
	f    *excelize.File
	name string
}

// New wraps a worksheet of f.
func New(f *excelize.File, name string) *Sheet {
	return &Sheet{f: f, name: name}
}

// Name returns the worksheet name.
func (s *Sheet) Name() string { return s.name }

// Value is one cell as read from the sheet.
type Value struct {
	Text string
	Raw  string
	Type excelize.CellType
}

// Empty reports whether the cell holds nothing but whitespace.
func (v Value) Empty() bool {
	return strings.TrimSpace(v.Raw) == "" && strings.TrimSpace(v.Text) == ""
}

// Typed returns the value to write into another cell: a float64 for
// numeric cells (numbers, dates and times are all stored as numbers) and the
// text for everything else. Empty cells give nil.
func (v Value) Typed() interface{} {
	if v.Empty() {
		return nil
	}
	switch v.Type {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return v.Text
	case excelize.CellTypeBool:
		return v.Raw == "1" || strings.EqualFold(v.Raw, "true")
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(v.Raw), 64); err == nil {
		return f
	}
	return v.Text
}

// Row is one physical row.
type Row struct {
	Index int
	text  []string
	raw   []string
	sheet *Sheet
}

// Value returns the cell at the 1-based column col.
func (r Row) Value(col int) Value {
	if col < 1 {
		return Value{}
	}
	v := Value{}
	if col <= len(r.text) {
		v.Text = r.text[col-1]
	}
	if col <= len(r.raw) {
		v.Raw = r.raw[col-1]
	}
	if v.Empty() || r.sheet == nil {
		return v
	}
	if cell, err := excelize.CoordinatesToCellName(col, r.Index); err == nil {
		if t, err := r.sheet.f.GetCellType(r.sheet.name, cell); err == nil {
			v.Type = t
		}
	}
	return v
}

// Text returns the formatted text at column col, trimmed.
func (r Row) Text(col int) string {
	if col < 1 || col > len(r.text) {
		return ""
	}
	return strings.TrimSpace(r.text[col-1])
}

// Width is the number of cells read for the row.
func (r Row) Width() int {
	if len(r.raw) > len(r.text) {
		return len(r.raw)
	}
	return len(r.text)
}

// Blank reports whether every cell of the row is empty.
func (r Row) Blank() bool {
	for _, t := range r.text {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	return true
}

// Rows returns every row from fromRow down to the last row holding a value,
// in physical order.
func (s *Sheet) Rows(fromRow int) ([]Row, error) {
	text, err := s.f.GetRows(s.name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", s.name, err)
	}
	raw, err := s.f.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", s.name, err)
	}

	if fromRow < 1 {
		fromRow = 1
	}
	var rows []Row
	for i := fromRow - 1; i < len(text); i++ {
		row := Row{Index: i + 1, text: text[i], sheet: s}
		if i < len(raw) {
			row.raw = raw[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Row returns a single row.
func (s *Sheet) Row(index int) (Row, error) {
	rows, err := s.Rows(index)
	if err != nil {
		return Row{}, err
	}
	if len(rows) == 0 || rows[0].Index != index {
		return Row{Index: index, sheet: s}, nil
	}
	return rows[0], nil
}

// Get reads a single cell.
func (s *Sheet) Get(row, col int) (Value, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return Value{}, err
	}
	text, err := s.f.GetCellValue(s.name, cell)
	if err != nil {
		return Value{}, err
	}
	raw, err := s.f.GetCellValue(s.name, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return Value{}, err
	}
	t, _ := s.f.GetCellType(s.name, cell)
	return Value{Text: text, Raw: raw, Type: t}, nil
}

// Set writes v into the cell at (row, col). nil clears the cell value.
func (s *Sheet) Set(row, col int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := s.f.SetCellValue(s.name, cell, v); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", s.name, cell, err)
	}
	return nil
}

// SetAt writes v into a cell given by reference, e.g. "A1".
func (s *Sheet) SetAt(ref string, v interface{}) error {
	if err := s.f.SetCellValue(s.name, ref, v); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", s.name, ref, err)
	}
	return nil
}

// MaxRow is the last row the sheet stores, including rows that only carry
// formatting. Templates are usually pre-formatted far below the data.
func (s *Sheet) MaxRow() (int, error) {
	rows, err := s.f.Rows(s.name)
	if err != nil {
		return 0, fmt.Errorf("failed to scan %s: %w", s.name, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Error(); err != nil {
		return 0, fmt.Errorf("failed to scan %s: %w", s.name, err)
	}
	return n, nil
}

// RemoveRow deletes a row, shifting the rows below it up.
func (s *Sheet) RemoveRow(row int) error {
	if err := s.f.RemoveRow(s.name, row); err != nil {
		return fmt.Errorf("failed to remove row %d of %s: %w", row, s.name, err)
	}
	return nil
}
