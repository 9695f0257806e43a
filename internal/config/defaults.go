package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tiendc/go-deepcopy"

	"github.com/ginjaninja78/ciim-report-sync/internal/calendar"
)

// =============================================================================
// DEFAULT VALUES
// =============================================================================

// Default header names of the construction work plan and daily report.
const (
	HeaderDate          = "Date"
	HeaderObservations  = "Observations"
	HeaderSummary       = "Activity Summary"
	HeaderPlannedStart  = "Planned Start"
	HeaderTeamLeader    = "Team Leader Name"
	HeaderForeman       = "Foreman Name"
	HeaderWorkPlanStart = "T.P Start [Time]"
	HeaderWorkPlanTL    = "Team Leader\nName (Phone)"
)

// DefaultDailyReportMapping feeds the daily report from the work plan.
func DefaultDailyReportMapping() []MappingSpec {
	return []MappingSpec{
		{From: "Discipline", To: "Discipline"},
		{From: HeaderDate, To: HeaderDate},
		{From: HeaderWorkPlanStart, To: HeaderPlannedStart},
		{From: "T.P End [Time]", To: "Planned End"},
		{From: "EP", To: "EP"},
		{From: "ISR Start Section [Name]", To: "Start Section"},
		{From: "ISR  End Section [Name]", To: "End Section"},
		{From: "T.P Start [K.P]", To: "Start KP"},
		{From: "T.P End [K.P]", To: "End KP"},
		{From: "Foremen [Israel]", To: HeaderForeman},
		{From: HeaderWorkPlanTL, To: HeaderTeamLeader},
		{From: "Work Description", To: "Activity Description"},
		{From: HeaderObservations, To: HeaderSummary},
	}
}

// DefaultDelayMapping feeds the "Delays" sheet from a daily report.
func DefaultDelayMapping() []MappingSpec {
	return []MappingSpec{
		{From: "Discipline", To: "Discipline"},
		{From: HeaderDate, To: HeaderDate},
		{From: "Start Section", To: "Start Section"},
		{From: "End Section", To: "End Section"},
		{From: "Delay Cause", To: "Delay Cause"},
		{From: HeaderTeamLeader, To: "Team leader Name"},
		{From: "EP", To: "EP"},
		{From: "Activity Description", To: "Activity Description"},
		{From: "Toolbox", To: "Toolbox"},
		{From: "Worklog", To: "Worklog"},
		{From: HeaderPlannedStart, To: HeaderPlannedStart},
		{From: "Actual Start", To: "Actual Start"},
		{From: "Planned End", To: "Planned End"},
		{From: "Actual End", To: "Actual End"},
		{From: "Mid Shift Delay", To: "Mid Shift Delay"},
	}
}

// DefaultCancellationMapping feeds the "Cancellations" sheet from the work
// plan.
func DefaultCancellationMapping() []MappingSpec {
	return []MappingSpec{
		{From: HeaderDate, To: HeaderDate},
		{From: "Discipline", To: "Discipline"},
		{From: HeaderWorkPlanStart, To: HeaderPlannedStart},
		{From: "T.P End [Time]", To: "Planned End"},
		{From: "EP", To: "EP"},
		{From: HeaderWorkPlanTL, To: "Team leader Name"},
		{From: "Work Description", To: "Activity Description"},
		{From: HeaderObservations, To: "Cancellation Cause"},
	}
}

// DefaultTransforms strips trailing "(phone)" annotations from person
// columns and clears the summary of rows that were not cancelled.
func DefaultTransforms() []TransformationRule {
	strip := TransformationAction{Type: "regex_replace", Find: `\s*\(.*?\)\s*$`, Value: ""}
	return []TransformationRule{
		{Field: HeaderForeman, Actions: []TransformationAction{strip}},
		{Field: HeaderTeamLeader, Actions: []TransformationAction{strip}},
		{Field: HeaderSummary, Actions: []TransformationAction{{Type: "clear_unless_match", Find: `(?i)cancel`}}},
	}
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.ConstructionDir == "" {
		cfg.ConstructionDir = "CIIM - General"
	}
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = filepath.Join("CIIM - Guidelines", "Templates")
	}
	if cfg.TrackingDir == "" {
		cfg.TrackingDir = filepath.Join("CIIM - Admin Records", "CIIM", "Performance Tracking")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.WeekRule == "" {
		cfg.WeekRule = calendar.RuleISOAdjusted
	}

	// Layout defaults.
	l := &cfg.Layout
	if l.Year == "" {
		l.Year = "{year}"
	}
	if l.Week == "" {
		l.Week = "WW{week}"
	}
	if l.Day == "" {
		l.Day = "{compact}"
	}
	if l.WeekSubfolders == nil {
		l.WeekSubfolders = []string{"Nominations", "Pictures", "Worklogs", "Toolboxes", "Daily Reports", "Weekly Reports", "Other"}
	}
	if l.DaySubfolders == nil {
		l.DaySubfolders = []string{"Foreman", "Track possession", "TS Worklogs", "PDF Files", "Worklogs"}
	}
	if l.TeamSubfolders == nil {
		l.TeamSubfolders = []string{"Pictures", "Worklogs"}
	}

	// Report defaults.
	r := &cfg.Reports
	if r.DailyPrefix == "" {
		r.DailyPrefix = "CIIM Report Table"
	}
	if r.DelayPrefix == "" {
		r.DelayPrefix = "Delays & Cancellations"
	}
	if r.WeeklyFolder == "" {
		r.WeeklyFolder = "Weekly Reports"
	}
	if r.DailyTemplate == "" {
		r.DailyTemplate = "CIIM Report Table - Template.xlsx"
	}
	if r.WeeklyDelayTemplate == "" {
		r.WeeklyDelayTemplate = "Delays & Cancellations - WEEKLY TEMPLATE.xlsx"
	}
	if r.DailyDelayTemplate == "" {
		r.DailyDelayTemplate = "Delays & Cancellations - DAILY TEMPLATE.xlsx"
	}
	if r.TitleCell == "" {
		r.TitleCell = "A1"
	}
	sheetDefaults(&r.WorkPlan, "Const. Plan", 2)
	sheetDefaults(&r.Daily, "", 3)
	sheetDefaults(&r.Delays, "Delays", 2)
	sheetDefaults(&r.Cancellations, "Cancellations", 2)

	// Classification defaults.
	c := &cfg.Classification
	if c.WorkPlanKeyColumns == nil {
		c.WorkPlanKeyColumns = []string{HeaderWorkPlanStart, HeaderWorkPlanTL, HeaderDate}
	}
	if c.DailyKeyColumns == nil {
		c.DailyKeyColumns = []string{HeaderPlannedStart, HeaderTeamLeader, HeaderDate}
	}
	if c.WorkPlanDateColumn == "" {
		c.WorkPlanDateColumn = HeaderDate
	}
	if c.ObservationColumn == "" {
		c.ObservationColumn = HeaderObservations
	}
	if c.SummaryColumn == "" {
		c.SummaryColumn = HeaderSummary
	}
	if c.CancelKeywords == nil {
		c.CancelKeywords = []string{"cancel", "activity moved", "completed", "done", "postponed"}
	}
	if c.DelayExcludeKeywords == nil {
		c.DelayExcludeKeywords = []string{"cancel"}
	}
	if c.SourceExclusion.Keywords == nil {
		c.SourceExclusion.Keywords = []string{"by scada", "by ocs", "by ocs-l", "by ocs-d"}
	}

	// Mapping defaults.
	if cfg.Mappings.DailyReport == nil {
		cfg.Mappings.DailyReport = DefaultDailyReportMapping()
	}
	if cfg.Mappings.Delay == nil {
		cfg.Mappings.Delay = DefaultDelayMapping()
	}
	if cfg.Mappings.Cancellation == nil {
		cfg.Mappings.Cancellation = DefaultCancellationMapping()
	}
	if cfg.Transforms == nil {
		cfg.Transforms = DefaultTransforms()
	}

	// Export defaults.
	e := &cfg.Export
	if e.OutputDir == "" {
		e.OutputDir = filepath.Join("Other", "CSV")
	}
	if e.Encoding == "" {
		e.Encoding = "UTF-8"
	}
	if e.Delimiter == "" {
		e.Delimiter = ","
	}
	if e.TimeColumns == nil {
		e.TimeColumns = []string{HeaderPlannedStart, "Planned End", "Actual Start", "Actual End"}
	}
	if e.DateColumns == nil {
		e.DateColumns = []string{HeaderDate}
	}

	// Server defaults.
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8080"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
}

func sheetDefaults(s *SheetSpec, name string, headerRow int) {
	if s.Sheet == "" {
		s.Sheet = name
	}
	if s.HeaderRow == 0 {
		s.HeaderRow = headerRow
	}
	if s.DataStartRow == 0 {
		s.DataStartRow = s.HeaderRow + 1
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

var supportedCombiners = map[string]bool{"time_range": true, "join": true}

var delimiterNames = map[string]bool{"tab": true, "TAB": true, `\t`: true, "pipe": true, "PIPE": true, "semicolon": true}

var supportedEncodings = map[string]bool{"utf-8": true, "utf-8-bom": true, "windows-1252": true, "iso-8859-1": true}

// Validate checks the configuration for values that would make a workflow
// fail halfway through.
func (c *Config) Validate() error {
	var errs []error

	if _, err := calendar.RuleByName(c.WeekRule); err != nil {
		errs = append(errs, err)
	}

	for _, tpl := range []struct{ name, value string }{
		{"layout.year", c.Layout.Year},
		{"layout.week", c.Layout.Week},
		{"layout.day", c.Layout.Day},
	} {
		if strings.TrimSpace(tpl.value) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", tpl.name))
		}
	}
	if c.Layout.TeamFolders < 0 {
		errs = append(errs, fmt.Errorf("layout.team_folders must not be negative"))
	}

	for name, s := range map[string]SheetSpec{
		"reports.work_plan":     c.Reports.WorkPlan,
		"reports.daily":         c.Reports.Daily,
		"reports.delays":        c.Reports.Delays,
		"reports.cancellations": c.Reports.Cancellations,
	} {
		if s.HeaderRow < 1 {
			errs = append(errs, fmt.Errorf("%s.header_row must be at least 1", name))
		}
		if s.DataStartRow <= s.HeaderRow {
			errs = append(errs, fmt.Errorf("%s.data_start_row must be below the header row", name))
		}
	}

	for name, specs := range map[string][]MappingSpec{
		"mappings.daily_report": c.Mappings.DailyReport,
		"mappings.delay":        c.Mappings.Delay,
		"mappings.cancellation": c.Mappings.Cancellation,
	} {
		if err := validateMapping(name, specs); err != nil {
			errs = append(errs, err)
		}
	}

	for _, rule := range c.Transforms {
		for _, action := range rule.Actions {
			if action.Type == "regex_replace" || action.Type == "clear_unless_match" {
				if _, err := regexp.Compile(action.Find); err != nil {
					errs = append(errs, fmt.Errorf("transform %q: invalid pattern %q: %w", rule.Field, action.Find, err))
				}
			}
		}
	}

	if !supportedEncodings[strings.ToLower(c.Export.Encoding)] {
		errs = append(errs, fmt.Errorf("export.encoding %q is not supported", c.Export.Encoding))
	}
	if !delimiterNames[c.Export.Delimiter] && len([]rune(c.Export.Delimiter)) != 1 {
		errs = append(errs, fmt.Errorf("export.delimiter must be a single character or one of tab, pipe, semicolon"))
	}

	return errors.Join(errs...)
}

func validateMapping(name string, specs []MappingSpec) error {
	var errs []error
	seen := make(map[string]bool)

	for i, s := range specs {
		switch {
		case s.To == "":
			errs = append(errs, fmt.Errorf("%s[%d]: missing \"to\"", name, i))
		case s.From == "" && len(s.Sources) == 0:
			errs = append(errs, fmt.Errorf("%s[%d]: one of \"from\" or \"sources\" is required", name, i))
		case s.From != "" && len(s.Sources) > 0:
			errs = append(errs, fmt.Errorf("%s[%d]: \"from\" and \"sources\" are mutually exclusive", name, i))
		case len(s.Sources) > 0 && !supportedCombiners[s.Combine]:
			errs = append(errs, fmt.Errorf("%s[%d]: unknown combiner %q", name, i, s.Combine))
		}
		if s.To != "" {
			if seen[s.To] {
				errs = append(errs, fmt.Errorf("%s[%d]: destination %q is mapped twice", name, i, s.To))
			}
			seen[s.To] = true
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a deep copy so that a session can adjust its configuration
// without affecting others.
func (c *Config) Clone() (*Config, error) {
	var out Config
	if err := deepcopy.Copy(&out, c); err != nil {
		return nil, fmt.Errorf("failed to copy configuration: %w", err)
	}
	return &out, nil
}

// Resolve returns p anchored at Root unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// ConstructionPath is the absolute report tree root.
func (c *Config) ConstructionPath() string { return c.Resolve(c.ConstructionDir) }

// TemplatesPath is the absolute templates folder.
func (c *Config) TemplatesPath() string { return c.Resolve(c.TemplatesDir) }

// TrackingPath is the absolute tracking folder.
func (c *Config) TrackingPath() string { return c.Resolve(c.TrackingDir) }

// WorkPlanPath is the absolute work plan path, or "" when unset.
func (c *Config) WorkPlanPath() string { return c.Resolve(c.WorkPlan) }

// Rule returns the configured week rule.
func (c *Config) Rule() calendar.WeekRule {
	rule, err := calendar.RuleByName(c.WeekRule)
	if err != nil {
		return calendar.ISOAdjusted{}
	}
	return rule
}
