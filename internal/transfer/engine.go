// =============================================================================
// CIIM Report Sync - Transfer Engine
// =============================================================================
//
// Copies the mapped fields of every qualifying source row into the
// destination sheet, starting at a cursor row.
//
// PROCESSING FLOW:
//   1. Index the source header row (mapping sources + classifier columns)
//   2. Optionally write the mapping's destination names as headers
//   3. Index the destination header row (mapping destinations)
//   4. Warn once per mapping entry whose header is missing on either side
//   5. For each source row in physical order: classify; if included, write
//      every usable entry at the cursor and advance the cursor by one
//
// The engine works on in-memory sheets and never saves. The caller saves
// the destination workbook once, after every transfer into it succeeded.
//
// =============================================================================

package transfer

import (
	"fmt"

	"github.com/ginjaninja78/ciim-report-sync/internal/classify"
	"github.com/ginjaninja78/ciim-report-sync/internal/logging"
	"github.com/ginjaninja78/ciim-report-sync/internal/mapping"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
)

// Options positions a transfer.
type Options struct {
	// SourceHeaderRow is the source header row. Default: 1
	SourceHeaderRow int

	// SourceDataStartRow is the first source row read.
	// Default: SourceHeaderRow + 1
	SourceDataStartRow int

	// DestHeaderRow is the destination header row. Default: 1
	DestHeaderRow int

	// DestStartRow is the first destination row written.
	// Default: DestHeaderRow + 1
	DestStartRow int

	// Rules selects the rows to transfer.
	Rules classify.Rules

	// WriteHeaders writes the mapping's destination names into the
	// destination header row, one per column from column 1, before the
	// destination is indexed.
	WriteHeaders bool
}

func (o *Options) applyDefaults() {
	if o.SourceHeaderRow < 1 {
		o.SourceHeaderRow = 1
	}
	if o.SourceDataStartRow <= o.SourceHeaderRow {
		o.SourceDataStartRow = o.SourceHeaderRow + 1
	}
	if o.DestHeaderRow < 1 {
		o.DestHeaderRow = 1
	}
	if o.DestStartRow <= o.DestHeaderRow {
		o.DestStartRow = o.DestHeaderRow + 1
	}
}

// Result reports what a transfer did.
type Result struct {
	// RowsTransferred is the number of destination rows written.
	RowsTransferred int

	// NextRow is the cursor after the transfer: DestStartRow + RowsTransferred.
	NextRow int

	// Skipped counts source rows per non-included outcome.
	Skipped map[classify.Outcome]int

	// MissingFields lists mapping entries that were skipped because a
	// header was missing on either side.
	MissingFields []MissingField
}

// Empty reports whether no row qualified.
func (r Result) Empty() bool { return r.RowsTransferred == 0 }

// MissingField is a mapping entry that could not be used.
type MissingField struct {
	Entry      string
	Side       string
	Header     string
	Suggestion string
}

func (m MissingField) String() string {
	s := fmt.Sprintf("%s header %q missing (%s)", m.Side, m.Header, m.Entry)
	if m.Suggestion != "" {
		s += fmt.Sprintf(", closest %q", m.Suggestion)
	}
	return s
}

// Engine runs transfers.
type Engine struct {
	log logging.Logger
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(log logging.Logger) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{log: log}
}

// usable is a mapping entry with its destination column resolved.
type usable struct {
	entry mapping.Entry
	col   int
}

// Transfer copies qualifying rows from src to dst.
//
// RETURNS:
//   - The transfer result. A zero-row result is not an error.
//   - A *sheet.HeaderMissingError when a column the rules depend on is
//     missing from the source; nothing is written in that case.
func (e *Engine) Transfer(src, dst *sheet.Sheet, table mapping.Table, opts Options) (Result, error) {
	opts.applyDefaults()
	res := Result{NextRow: opts.DestStartRow, Skipped: make(map[classify.Outcome]int)}

	// Step 1: Index the source.
	interesting := append(table.SourceNames(), opts.Rules.Columns()...)
	srcIdx, err := sheet.BuildHeaderIndex(src, opts.SourceHeaderRow, interesting)
	if err != nil {
		return res, fmt.Errorf("failed to index %s: %w", src.Name(), err)
	}
	if err := srcIdx.Require(opts.Rules.Required()...); err != nil {
		return res, err
	}

	// Step 2: Optional header row.
	if opts.WriteHeaders {
		for i, name := range table.DestNames() {
			if err := dst.Set(opts.DestHeaderRow, i+1, name); err != nil {
				return res, err
			}
		}
	}

	// Step 3: Index the destination.
	dstIdx, err := sheet.BuildHeaderIndex(dst, opts.DestHeaderRow, table.DestNames())
	if err != nil {
		return res, fmt.Errorf("failed to index %s: %w", dst.Name(), err)
	}

	// Step 4: Resolve usable entries.
	fields := e.resolve(table, srcIdx, dstIdx, &res)

	// Step 5: Stream rows.
	rows, err := src.Rows(opts.SourceDataStartRow)
	if err != nil {
		return res, err
	}

	cursor := opts.DestStartRow
	for _, row := range rows {
		outcome := classify.Classify(row, srcIdx, opts.Rules)
		if outcome != classify.Included {
			res.Skipped[outcome]++
			if outcome != classify.Blank {
				e.log.Debug("%s row %d skipped: %s", src.Name(), row.Index, outcome)
			}
			continue
		}

		for _, f := range fields {
			v, _ := f.entry.Value(row, srcIdx)
			if err := dst.Set(cursor, f.col, v); err != nil {
				return res, err
			}
		}
		cursor++
	}

	res.RowsTransferred = cursor - opts.DestStartRow
	res.NextRow = cursor
	e.log.Info("%s -> %s: %d row(s) transferred from row %d", src.Name(), dst.Name(), res.RowsTransferred, opts.DestStartRow)
	return res, nil
}

func (e *Engine) resolve(table mapping.Table, srcIdx, dstIdx *sheet.HeaderIndex, res *Result) []usable {
	var fields []usable
	for _, entry := range table {
		ok := true
		for _, s := range entry.Sources() {
			if !srcIdx.Has(s) {
				res.MissingFields = append(res.MissingFields, MissingField{
					Entry: entry.String(), Side: "source", Header: s, Suggestion: srcIdx.Suggest(s),
				})
				ok = false
			}
		}
		col, found := dstIdx.Column(entry.Dest())
		if !found {
			res.MissingFields = append(res.MissingFields, MissingField{
				Entry: entry.String(), Side: "destination", Header: entry.Dest(), Suggestion: dstIdx.Suggest(entry.Dest()),
			})
			ok = false
		}
		if ok {
			fields = append(fields, usable{entry: entry, col: col})
		}
	}

	for _, m := range res.MissingFields {
		e.log.Warn("skipping field: %s", m)
	}
	return fields
}
