// =============================================================================
// CIIM Report Sync - CSV Export
// =============================================================================
//
// Writes daily reports out as CSV for systems that cannot read xlsx.
//
// FEATURES:
//   - Header row and data start row taken from the daily report layout
//   - Excel time fractions in time columns written as HH:MM
//   - Excel date serials in date columns written as DD/MM/YYYY
//   - Output encodings: UTF-8, UTF-8 with BOM, windows-1252, ISO-8859-1
//     (characters the target code page lacks are replaced)
//   - Delimiter names: "," ";" "|" "tab"
//
// CUSTOMIZATION:
//   Add encodings to encoderFor.
//
// =============================================================================

package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ginjaninja78/ciim-report-sync/internal/calendar"
	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/logging"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Options controls an export.
type Options struct {
	// Sheet is the worksheet exported. Empty means the first sheet.
	Sheet string

	// HeaderRow is the row written first. Rows above it are not exported.
	HeaderRow int

	// Encoding of the output. Default: UTF-8
	Encoding string

	// Delimiter between fields. Default: ","
	Delimiter string

	// TimeColumns and DateColumns name the columns converted from Excel
	// serial values.
	TimeColumns []string
	DateColumns []string

	// NameFormat is the output file name pattern passed to
	// utils.GenerateOutputFileName. Default: "{filename}"
	NameFormat string
}

// OptionsFromConfig builds export options for daily reports.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Sheet:       cfg.Reports.Daily.Sheet,
		HeaderRow:   cfg.Reports.Daily.HeaderRow,
		Encoding:    cfg.Export.Encoding,
		Delimiter:   cfg.Export.Delimiter,
		TimeColumns: cfg.Export.TimeColumns,
		DateColumns: cfg.Export.DateColumns,
	}
}

// Exported describes one written CSV file.
type Exported struct {
	Source string
	Output string
	Rows   int
}

// Exporter writes CSV files.
type Exporter struct {
	opts    Options
	comma   rune
	encoder func() transform.Transformer
	log     logging.Logger
}

// NewExporter validates opts and returns an Exporter.
func NewExporter(opts Options, log logging.Logger) (*Exporter, error) {
	if log == nil {
		log = logging.Discard()
	}
	if opts.HeaderRow < 1 {
		opts.HeaderRow = 1
	}
	if opts.NameFormat == "" {
		opts.NameFormat = "{filename}"
	}

	comma, err := Delimiter(opts.Delimiter)
	if err != nil {
		return nil, err
	}
	enc, err := encoderFor(opts.Encoding)
	if err != nil {
		return nil, err
	}
	return &Exporter{opts: opts, comma: comma, encoder: enc, log: log}, nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportFile writes src as CSV into outDir.
//
// RETURNS:
//   - The written file and row count (header excluded).
//   - An error if src cannot be read or the output cannot be written.
func (e *Exporter) ExportFile(src, outDir string) (Exported, error) {
	res := Exported{Source: src}

	records, err := e.Records(src)
	if err != nil {
		return res, err
	}

	if _, err := utils.EnsureDirectories(outDir); err != nil {
		return res, err
	}
	name := utils.GenerateOutputFileName(e.opts.NameFormat, map[string]string{
		"filename": filepath.Base(utils.StripExt(src)),
	}, ".csv")
	res.Output = filepath.Join(outDir, name)

	if err := e.write(res.Output, records); err != nil {
		return res, err
	}
	if len(records) > 0 {
		res.Rows = len(records) - 1
	}
	e.log.Info("exported %s (%d rows)", res.Output, res.Rows)
	return res, nil
}

// ExportDir exports every workbook in dir matching pattern.
func (e *Exporter) ExportDir(dir, pattern, outDir string) ([]Exported, error) {
	files, err := utils.DiscoverFiles(dir, pattern)
	if err != nil {
		return nil, err
	}
	return e.ExportFiles(files, outDir)
}

// ExportFiles exports files concurrently, one goroutine per file. A file
// that fails is logged and does not stop the others; the first failure in
// input order is returned after every file was tried. Results keep the
// input order.
func (e *Exporter) ExportFiles(files []string, outDir string) ([]Exported, error) {
	type result struct {
		index int
		res   Exported
		err   error
	}

	var wg sync.WaitGroup
	results := make(chan result, len(files))
	for i, f := range files {
		wg.Add(1)
		go func(index int, src string) {
			defer wg.Done()
			res, err := e.ExportFile(src, outDir)
			results <- result{index: index, res: res, err: err}
		}(i, f)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]result, len(files))
	for r := range results {
		ordered[r.index] = r
	}

	var out []Exported
	var firstErr error
	for _, r := range ordered {
		if r.err != nil {
			e.log.Error("failed to export %s: %v", r.res.Source, r.err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to export %s: %w", r.res.Source, r.err)
			}
			continue
		}
		out = append(out, r.res)
	}
	return out, firstErr
}

// Records reads src into CSV records: the header row followed by every
// non-blank data row.
func (e *Exporter) Records(src string) ([][]string, error) {
	book, err := sheet.Open(src)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	s, err := book.Sheet(e.opts.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := s.Rows(e.opts.HeaderRow)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].Index != e.opts.HeaderRow {
		return nil, fmt.Errorf("%s has no header row %d", src, e.opts.HeaderRow)
	}

	header := rows[0]
	width := header.Width()
	kinds := make([]columnKind, width+1)
	records := [][]string{make([]string, width)}
	for col := 1; col <= width; col++ {
		name := sheet.Normalize(header.Text(col))
		records[0][col-1] = name
		kinds[col] = kindOf(name, e.opts)
	}

	for _, row := range rows[1:] {
		if row.Blank() {
			continue
		}
		rec := make([]string, width)
		for col := 1; col <= width; col++ {
			rec[col-1] = formatCell(row.Value(col), kinds[col])
		}
		records = append(records, rec)
	}
	return records, nil
}

func (e *Exporter) write(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	var w io.Writer = buf
	var tw io.WriteCloser
	if e.encoder != nil {
		tw = transform.NewWriter(buf, e.encoder())
		w = tw
	}

	cw := csv.NewWriter(w)
	cw.Comma = e.comma
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return fmt.Errorf("failed to encode %s: %w", path, err)
		}
	}
	return buf.Flush()
}

// =============================================================================
// CELL FORMATTING
// =============================================================================

type columnKind int

const (
	kindText columnKind = iota
	kindTime
	kindDate
)

func kindOf(header string, opts Options) columnKind {
	for _, c := range opts.TimeColumns {
		if sheet.Normalize(c) == header {
			return kindTime
		}
	}
	for _, c := range opts.DateColumns {
		if sheet.Normalize(c) == header {
			return kindDate
		}
	}
	return kindText
}

func formatCell(v sheet.Value, kind columnKind) string {
	if v.Empty() {
		return ""
	}
	switch kind {
	case kindTime:
		if t, ok := calendar.ClockText(v.Raw); ok {
			return t
		}
	case kindDate:
		if d, ok := calendar.CellDate(v.Raw); ok {
			return d.Format("02/01/2006")
		}
	}
	return strings.TrimSpace(v.Text)
}

// =============================================================================
// ENCODING AND DELIMITERS
// =============================================================================

// Encodings lists the accepted output encodings.
var Encodings = []string{"utf-8", "utf-8-bom", "windows-1252", "iso-8859-1"}

func encodingFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-8-bom", "utf8-bom", "utf-8 bom":
		return unicode.UTF8BOM, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q (supported: %s)", name, strings.Join(Encodings, ", "))
	}
}

func encoderFor(name string) (func() transform.Transformer, error) {
	enc, err := encodingFor(name)
	if err != nil || enc == nil {
		return nil, err
	}
	return func() transform.Transformer {
		return encoding.ReplaceUnsupported(enc.NewEncoder())
	}, nil
}

// Decoder returns a reader that decodes r from the named encoding. A UTF-8
// byte order mark is dropped.
func Decoder(r io.Reader, name string) (io.Reader, error) {
	enc, err := encodingFor(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		enc = unicode.UTF8BOM
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// Delimiter parses a delimiter setting.
func Delimiter(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case "\\t", "\t", "tab", "TAB":
		return '\t', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\r' || r[0] == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r[0], nil
}

// ReadCSV reads a CSV file written in the named encoding.
func ReadCSV(path, encodingName, delimiter string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	r, err := Decoder(bufio.NewReader(file), encodingName)
	if err != nil {
		return nil, err
	}
	comma, err := Delimiter(delimiter)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}
