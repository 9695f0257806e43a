// =============================================================================
// CIIM Report Sync - Row Classifier
// =============================================================================
//
// Decides, per source row, whether the row takes part in a transfer.
//
// ORDER OF CHECKS:
//   1. Blank     : every key column is empty. Checked first and
//                  unconditionally, so trailing pre-formatted rows never count.
//   2. Date      : optional; rows of other dates are out of category.
//   3. Category  : the stream predicate on the free-text column
//                  (cancellations: contains a keyword; delays: does not).
//   4. Exclusion : optional; rows already reported by an upstream system.
//
// Classification never modifies the row.
//
// =============================================================================

package classify

import (
	"strings"
	"time"

	"github.com/ginjaninja78/ciim-report-sync/internal/calendar"
	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
)

// Outcome is the result of classifying one row.
type Outcome int

const (
	// Blank rows are skipped unconditionally.
	Blank Outcome = iota
	// Included rows are transferred.
	Included
	// ExcludedBySource rows belong to the category but were already
	// reported by another system.
	ExcludedBySource
	// OutOfCategory rows are real rows that this stream does not want.
	OutOfCategory
)

func (o Outcome) String() string {
	switch o {
	case Blank:
		return "blank"
	case Included:
		return "included"
	case ExcludedBySource:
		return "excluded_by_source"
	case OutOfCategory:
		return "out_of_category"
	default:
		return "unknown"
	}
}

// =============================================================================
// MATCHERS
// =============================================================================

// Matcher is a predicate on free text.
type Matcher interface {
	Match(text string) bool
}

// ContainsAny matches text containing at least one keyword, ignoring case.
// Empty text never matches.
type ContainsAny []string

func (k ContainsAny) Match(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	for _, kw := range k {
		if kw != "" && strings.Contains(t, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// ContainsNone matches text containing none of the keywords, ignoring case.
// Empty text always matches.
type ContainsNone []string

func (k ContainsNone) Match(text string) bool {
	return !ContainsAny(k).Match(text)
}

// =============================================================================
// RULES
// =============================================================================

// Rules configures one classification pass.
type Rules struct {
	// KeyColumns decide blankness. Names missing from the header index are
	// ignored; if none is present the whole row is checked instead.
	KeyColumns []string

	// TextColumn is read by Category and Exclusion.
	TextColumn string

	// Category selects the stream. Nil accepts every non-blank row.
	Category Matcher

	// Exclusion drops category rows reported elsewhere. Nil disables it.
	Exclusion Matcher

	// DateColumn and OnDate restrict rows to one date. A zero OnDate
	// disables the filter.
	DateColumn string
	OnDate     time.Time
}

// Columns returns every header the rules read.
func (r Rules) Columns() []string {
	cols := append([]string(nil), r.KeyColumns...)
	if r.TextColumn != "" {
		cols = append(cols, r.TextColumn)
	}
	if r.DateColumn != "" {
		cols = append(cols, r.DateColumn)
	}
	return cols
}

// Required returns the headers the rules cannot work without: the text
// column when a text rule is set and the date column when filtering.
func (r Rules) Required() []string {
	var cols []string
	if (r.Category != nil || r.Exclusion != nil) && r.TextColumn != "" {
		cols = append(cols, r.TextColumn)
	}
	if !r.OnDate.IsZero() && r.DateColumn != "" {
		cols = append(cols, r.DateColumn)
	}
	return cols
}

// Classify decides what to do with row.
func Classify(row sheet.Row, idx *sheet.HeaderIndex, rules Rules) Outcome {
	if isBlank(row, idx, rules.KeyColumns) {
		return Blank
	}

	if !rules.OnDate.IsZero() {
		col, ok := idx.Column(rules.DateColumn)
		if !ok {
			return OutOfCategory
		}
		v := row.Value(col)
		d, ok := calendar.CellDate(v.Raw)
		if !ok {
			d, ok = calendar.CellDate(v.Text)
		}
		if !ok || !d.Equal(calendar.Truncate(rules.OnDate)) {
			return OutOfCategory
		}
	}

	text := ""
	if col, ok := idx.Column(rules.TextColumn); ok {
		text = row.Text(col)
	}

	if rules.Category != nil && !rules.Category.Match(text) {
		return OutOfCategory
	}
	if rules.Exclusion != nil && rules.Exclusion.Match(text) {
		return ExcludedBySource
	}
	return Included
}

func isBlank(row sheet.Row, idx *sheet.HeaderIndex, keys []string) bool {
	found := false
	for _, k := range keys {
		col, ok := idx.Column(k)
		if !ok {
			continue
		}
		found = true
		if !row.Value(col).Empty() {
			return false
		}
	}
	if !found {
		return row.Blank()
	}
	return true
}

// =============================================================================
// STREAM RULES
// =============================================================================

// CancellationRules selects cancelled work plan rows. A non-zero date
// restricts them to that day.
func CancellationRules(c config.Classification, date time.Time) Rules {
	r := Rules{
		KeyColumns: c.WorkPlanKeyColumns,
		TextColumn: c.ObservationColumn,
		Category:   ContainsAny(c.CancelKeywords),
		DateColumn: c.WorkPlanDateColumn,
		OnDate:     date,
	}
	if c.SourceExclusion.Enabled {
		r.Exclusion = ContainsAny(c.SourceExclusion.Keywords)
	}
	return r
}

// DelayRules selects daily report rows that were not cancelled.
func DelayRules(c config.Classification) Rules {
	return Rules{
		KeyColumns: c.DailyKeyColumns,
		TextColumn: c.SummaryColumn,
		Category:   ContainsNone(c.DelayExcludeKeywords),
	}
}

// WorkPlanDayRules selects every non-blank work plan row of one date.
func WorkPlanDayRules(c config.Classification, date time.Time) Rules {
	return Rules{
		KeyColumns: c.WorkPlanKeyColumns,
		DateColumn: c.WorkPlanDateColumn,
		OnDate:     date,
	}
}

// DailyRowRules selects every non-blank daily report row.
func DailyRowRules(c config.Classification) Rules {
	return Rules{KeyColumns: c.DailyKeyColumns}
}
