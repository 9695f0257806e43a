// =============================================================================
// CIIM Report Sync - Configuration Validation
// =============================================================================
//
// Checks a configuration against the workbooks it will run on, before any
// report is touched:
//   - The configuration itself (Config.Validate)
//   - Every mapping destination exists on its template's header row
//   - Every mapping source exists in a sample work plan / daily report
//   - Classification columns exist where the classifier reads them
//   - Transform fields exist on the daily template
//   - Work plan date cells hold dates (optional)
//
// ERROR HANDLING:
//   - Problems are collected, not returned one at a time
//   - Each problem names the workbook, sheet and header involved, and the
//     closest header actually present when there is one
//   - Problems are errors (a workflow would fail or write nothing) or
//     warnings (a workflow would run but skip a field)
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/ciim-report-sync/internal/calendar"
	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/mapping"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError is a single problem.
type ValidationError struct {
	// Severity is "error" or "warning".
	Severity string

	// File is the workbook checked, empty for configuration problems.
	File string

	// Sheet is the worksheet checked.
	Sheet string

	// Field is the header or configuration key involved.
	Field string

	// Rule is the check that failed: config, template, destination,
	// source, classification, transform or date.
	Rule string

	// Message is a human-readable description.
	Message string

	// Suggestion is the closest header present, if any.
	Suggestion string

	// Row is the sheet row for cell-level problems.
	Row int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(e.Severity), e.Rule)
	if e.File != "" {
		fmt.Fprintf(&b, " %s", filepath.Base(e.File))
		if e.Sheet != "" {
			fmt.Fprintf(&b, "!%s", e.Sheet)
		}
		if e.Row > 0 {
			fmt.Fprintf(&b, " row %d", e.Row)
		}
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (closest: %q)", e.Suggestion)
	}
	return b.String()
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors (and no warnings when
	// TreatWarningsAsErrors is set).
	IsValid bool

	// Errors contains every problem, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// HeadersChecked is the number of header lookups performed.
	HeadersChecked int

	// FilesChecked lists the workbooks opened.
	FilesChecked []string
}

func (r *ValidationResult) add(e *ValidationError, warningsAreErrors bool) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
	if warningsAreErrors {
		r.IsValid = false
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// SampleWorkPlan is a work plan to check mapping sources against.
	// Empty means the configured work plan, when it exists.
	SampleWorkPlan string

	// SampleDailyReport is a daily report to check delay sources against.
	SampleDailyReport string

	// CheckDates flags work plan rows whose date cell holds no date.
	CheckDates bool

	// TreatWarningsAsErrors makes any warning invalidate the result.
	TreatWarningsAsErrors bool
}

// Validator checks one configuration.
type Validator struct {
	cfg     *config.Config
	options ValidationOptions
	result  *ValidationResult
}

// NewValidator creates a Validator with default options.
func NewValidator(cfg *config.Config) *Validator {
	return NewValidatorWithOptions(cfg, ValidationOptions{})
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(cfg *config.Config, options ValidationOptions) *Validator {
	return &Validator{cfg: cfg, options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate runs every check with default options.
func Validate(cfg *config.Config) *ValidationResult {
	return NewValidator(cfg).ValidateAll()
}

// ValidateAll runs every check and returns the collected result.
//
// PROCESSING FLOW:
//  1. Configuration consistency; stop here if mappings do not parse
//  2. Daily template: daily mapping destinations, transform fields
//  3. Delay templates: delay and cancellation destinations
//  4. Work plan sample: daily and cancellation sources, classification
//     columns, optionally date cells
//  5. Daily report sample: delay sources, summary column
func (v *Validator) ValidateAll() *ValidationResult {
	v.result = &ValidationResult{IsValid: true}

	// Step 1: Configuration.
	if err := v.cfg.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			v.report(&ValidationError{Severity: SeverityError, Rule: "config", Message: line})
		}
	}
	daily, errD := mapping.FromSpecs(v.cfg.Mappings.DailyReport)
	delay, errL := mapping.FromSpecs(v.cfg.Mappings.Delay)
	cancel, errC := mapping.FromSpecs(v.cfg.Mappings.Cancellation)
	if errD != nil || errL != nil || errC != nil {
		return v.result
	}

	r := v.cfg.Reports

	// Step 2: Daily template.
	dailyTemplate := filepath.Join(v.cfg.TemplatesPath(), r.DailyTemplate)
	if !r.WriteHeaders {
		v.checkHeaders(dailyTemplate, r.Daily, daily.DestNames(), "destination", SeverityError)
	}
	fields := make([]string, 0, len(v.cfg.Transforms))
	for _, t := range v.cfg.Transforms {
		fields = append(fields, t.Field)
	}
	v.checkHeaders(dailyTemplate, r.Daily, fields, "transform", SeverityWarning)

	// Step 3: Delay templates.
	for _, name := range []string{r.WeeklyDelayTemplate, r.DailyDelayTemplate} {
		path := filepath.Join(v.cfg.TemplatesPath(), name)
		v.checkHeaders(path, r.Delays, delay.DestNames(), "destination", SeverityError)
		v.checkHeaders(path, r.Cancellations, cancel.DestNames(), "destination", SeverityError)
	}

	// Step 4: Work plan.
	workPlan := v.options.SampleWorkPlan
	if workPlan == "" && v.cfg.WorkPlan != "" {
		if p := v.cfg.WorkPlanPath(); fileExists(p) {
			workPlan = p
		}
	}
	if workPlan != "" {
		c := v.cfg.Classification
		v.checkHeaders(workPlan, r.WorkPlan, []string{c.WorkPlanDateColumn, c.ObservationColumn}, "classification", SeverityError)
		v.checkHeaders(workPlan, r.WorkPlan, union(daily.SourceNames(), cancel.SourceNames()), "source", SeverityWarning)
		if v.options.CheckDates {
			v.checkDates(workPlan, r.WorkPlan, c.WorkPlanDateColumn)
		}
	}

	// Step 5: Daily report.
	if p := v.options.SampleDailyReport; p != "" {
		v.checkHeaders(p, r.Daily, []string{v.cfg.Classification.SummaryColumn}, "classification", SeverityError)
		v.checkHeaders(p, r.Daily, delay.SourceNames(), "source", SeverityWarning)
	}

	return v.result
}

func (v *Validator) report(e *ValidationError) {
	v.result.add(e, v.options.TreatWarningsAsErrors)
}

// checkHeaders reports every name missing from spec's header row in path.
func (v *Validator) checkHeaders(path string, spec config.SheetSpec, names []string, rule, severity string) {
	if len(names) == 0 {
		return
	}
	idx, sheetName, err := headerIndex(path, spec, names)
	if err != nil {
		v.report(&ValidationError{Severity: SeverityError, File: path, Sheet: spec.Sheet, Rule: "template", Message: err.Error()})
		return
	}
	v.noteFile(path)

	for _, name := range names {
		v.result.HeadersChecked++
		if idx.Has(name) {
			continue
		}
		v.report(&ValidationError{
			Severity:   severity,
			File:       path,
			Sheet:      sheetName,
			Field:      name,
			Rule:       rule,
			Message:    fmt.Sprintf("header %q not found on row %d", name, spec.HeaderRow),
			Suggestion: idx.Suggest(name),
		})
	}
}

// checkDates warns about non-empty date cells that do not hold a date.
func (v *Validator) checkDates(path string, spec config.SheetSpec, column string) {
	book, err := sheet.Open(path)
	if err != nil {
		return
	}
	defer book.Close()

	s, err := book.Sheet(spec.Sheet)
	if err != nil {
		return
	}
	idx, err := sheet.BuildHeaderIndex(s, spec.HeaderRow, []string{column})
	if err != nil {
		return
	}
	col, ok := idx.Column(column)
	if !ok {
		return
	}
	rows, err := s.Rows(spec.DataStartRow)
	if err != nil {
		return
	}

	for _, row := range rows {
		cell := row.Value(col)
		if strings.TrimSpace(cell.Text) == "" || validDate(cell) {
			continue
		}
		v.report(&ValidationError{
			Severity: SeverityWarning,
			File:     path,
			Sheet:    s.Name(),
			Field:    column,
			Rule:     "date",
			Message:  fmt.Sprintf("%q is not a date", cell.Text),
			Row:      row.Index,
		})
	}
}

func (v *Validator) noteFile(path string) {
	for _, f := range v.result.FilesChecked {
		if f == path {
			return
		}
	}
	v.result.FilesChecked = append(v.result.FilesChecked, path)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func headerIndex(path string, spec config.SheetSpec, names []string) (*sheet.HeaderIndex, string, error) {
	if !fileExists(path) {
		return nil, "", fmt.Errorf("workbook not found: %s", path)
	}
	book, err := sheet.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer book.Close()

	s, err := book.Sheet(spec.Sheet)
	if err != nil {
		return nil, "", err
	}
	idx, err := sheet.BuildHeaderIndex(s, spec.HeaderRow, names)
	if err != nil {
		return nil, "", err
	}
	return idx, s.Name(), nil
}

func validDate(v sheet.Value) bool {
	if _, ok := calendar.CellDate(v.Raw); ok {
		return true
	}
	_, ok := calendar.CellDate(v.Text)
	return ok
}

func union(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lists {
		for _, n := range l {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d problem(s):\n\n", len(errors)))
	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}

// WriteErrorLog writes validation errors to filePath, preceded by a
// timestamp line.
func WriteErrorLog(errors []*ValidationError, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Validation run %s\n\n", time.Now().Format(time.RFC3339))
	writer.WriteString(FormatErrors(errors))
	return writer.Flush()
}
