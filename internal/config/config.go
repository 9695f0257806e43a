// =============================================================================
// CIIM Report Sync - Configuration Module
// =============================================================================
//
// This module loads and validates the single configuration file that drives
// every workflow: where the report tree lives, how folders are named, which
// week-numbering rule is in force, how rows are classified, and which source
// column feeds which destination column.
//
// CONFIGURATION FILES:
//   config.yaml (default) or config.toml. The format is chosen by extension.
//
// ARCHITECTURE:
//   Everything that changed between releases of the reporting workflow is a
//   configuration value here rather than a constant in code:
//   - Folder naming templates and the week rule
//   - Classification keyword lists and the source-exclusion toggle
//   - The three mapping tables (daily report, delay, cancellation)
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the whole application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// Root is the CIIM base folder. Relative directories below resolve
	// against it.
	// Default: "."
	Root string `yaml:"root" toml:"root"`

	// ConstructionDir is the report tree holding year/week/day folders.
	// Default: "CIIM - General"
	ConstructionDir string `yaml:"construction_dir" toml:"construction_dir"`

	// TemplatesDir holds the blank report templates.
	// Default: "CIIM - Guidelines/Templates"
	TemplatesDir string `yaml:"templates_dir" toml:"templates_dir"`

	// TrackingDir receives the delay and cancellation reports.
	// Default: "CIIM - Admin Records/CIIM/Performance Tracking"
	TrackingDir string `yaml:"tracking_dir" toml:"tracking_dir"`

	// WorkPlan is the path of the construction work plan. Relative paths
	// resolve against Root. It can be overridden per command.
	WorkPlan string `yaml:"work_plan" toml:"work_plan"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format" toml:"log_format"`

	// RunLogDir receives one log file per batch run. Empty disables run logs.
	RunLogDir string `yaml:"run_log_dir" toml:"run_log_dir"`

	// =========================================================================
	// CALENDAR SETTINGS
	// =========================================================================

	// WeekRule selects the week-numbering rule: "iso_adjusted" or
	// "sunday_epoch". A deployment must never mix them.
	// Default: "iso_adjusted"
	WeekRule string `yaml:"week_rule" toml:"week_rule"`

	Layout         Layout               `yaml:"layout" toml:"layout"`
	Reports        Reports              `yaml:"reports" toml:"reports"`
	Classification Classification       `yaml:"classification" toml:"classification"`
	Mappings       Mappings             `yaml:"mappings" toml:"mappings"`
	Transforms     []TransformationRule `yaml:"transforms" toml:"transforms"`
	Export         Export               `yaml:"export" toml:"export"`
	Server         Server               `yaml:"server" toml:"server"`
}

// =============================================================================
// LAYOUT
// =============================================================================

// Layout describes how dates map onto folders.
//
// Templates accept the tokens {year} {yy} {week} {compact} {dot}.
type Layout struct {
	// Year is the year folder name. Default: "{year}"
	Year string `yaml:"year" toml:"year"`

	// Week is the week folder name. Default: "WW{week}"
	//
	// CUSTOMIZATION: some deployments use "Working Week N{week}".
	Week string `yaml:"week" toml:"week"`

	// Day is the day folder path under the week folder. It may contain
	// slashes, e.g. "Daily Reports/{compact}".
	// Default: "{compact}"
	Day string `yaml:"day" toml:"day"`

	// WeekSubfolders are created inside every week folder by Ensure.
	WeekSubfolders []string `yaml:"week_subfolders" toml:"week_subfolders"`

	// DaySubfolders are created inside every day folder by Ensure.
	DaySubfolders []string `yaml:"day_subfolders" toml:"day_subfolders"`

	// TeamFolders is the number of W<n> and S<n> team folders per day.
	TeamFolders int `yaml:"team_folders" toml:"team_folders"`

	// TeamSubfolders are created inside every team folder.
	TeamSubfolders []string `yaml:"team_subfolders" toml:"team_subfolders"`
}

// =============================================================================
// REPORTS
// =============================================================================

// SheetSpec locates a table inside a workbook.
type SheetSpec struct {
	// Sheet is the worksheet name. Empty means the first sheet.
	Sheet string `yaml:"sheet" toml:"sheet"`

	// HeaderRow is the 1-based row holding column headers.
	HeaderRow int `yaml:"header_row" toml:"header_row"`

	// DataStartRow is the first row below the header that holds data.
	DataStartRow int `yaml:"data_start_row" toml:"data_start_row"`
}

// Reports holds report names, templates and table locations.
type Reports struct {
	// DailyPrefix names daily reports: "<prefix> <dd.mm.yy>.xlsx".
	// Default: "CIIM Report Table"
	DailyPrefix string `yaml:"daily_prefix" toml:"daily_prefix"`

	// DelayPrefix names delay reports: "<prefix> WW<week>.xlsx" or
	// "<prefix> <dd.mm.yy>.xlsx".
	// Default: "Delays & Cancellations"
	DelayPrefix string `yaml:"delay_prefix" toml:"delay_prefix"`

	// WeeklyFolder is the week subfolder receiving the weekly report.
	// Default: "Weekly Reports"
	WeeklyFolder string `yaml:"weekly_folder" toml:"weekly_folder"`

	DailyTemplate       string `yaml:"daily_template" toml:"daily_template"`
	WeeklyDelayTemplate string `yaml:"weekly_delay_template" toml:"weekly_delay_template"`
	DailyDelayTemplate  string `yaml:"daily_delay_template" toml:"daily_delay_template"`

	// TitleCell receives the report title (file name without extension).
	// Default: "A1"
	TitleCell string `yaml:"title_cell" toml:"title_cell"`

	// WriteHeaders writes the daily mapping's destination names into the
	// daily report's header row before transferring.
	WriteHeaders bool `yaml:"write_headers" toml:"write_headers"`

	WorkPlan      SheetSpec `yaml:"work_plan" toml:"work_plan"`
	Daily         SheetSpec `yaml:"daily" toml:"daily"`
	Delays        SheetSpec `yaml:"delays" toml:"delays"`
	Cancellations SheetSpec `yaml:"cancellations" toml:"cancellations"`
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classification holds the row classification rules.
type Classification struct {
	// WorkPlanKeyColumns decide blankness of work plan rows.
	WorkPlanKeyColumns []string `yaml:"work_plan_key_columns" toml:"work_plan_key_columns"`

	// DailyKeyColumns decide blankness of daily report rows.
	DailyKeyColumns []string `yaml:"daily_key_columns" toml:"daily_key_columns"`

	// WorkPlanDateColumn filters work plan rows by date.
	// Default: "Date"
	WorkPlanDateColumn string `yaml:"work_plan_date_column" toml:"work_plan_date_column"`

	// ObservationColumn is the work plan free-text column.
	// Default: "Observations"
	ObservationColumn string `yaml:"observation_column" toml:"observation_column"`

	// SummaryColumn is the daily report free-text column.
	// Default: "Activity Summary"
	SummaryColumn string `yaml:"summary_column" toml:"summary_column"`

	// CancelKeywords put a row in the cancellation stream.
	CancelKeywords []string `yaml:"cancel_keywords" toml:"cancel_keywords"`

	// DelayExcludeKeywords remove a row from the delay stream.
	// Default: ["cancel"]
	DelayExcludeKeywords []string `yaml:"delay_exclude_keywords" toml:"delay_exclude_keywords"`

	// SourceExclusion drops cancellations already reported by another
	// system.
	SourceExclusion SourceExclusion `yaml:"source_exclusion" toml:"source_exclusion"`
}

// SourceExclusion is the toggleable upstream-system rule.
type SourceExclusion struct {
	Enabled  bool     `yaml:"enabled" toml:"enabled"`
	Keywords []string `yaml:"keywords" toml:"keywords"`
}

// =============================================================================
// MAPPINGS
// =============================================================================

// Mappings holds the three mapping tables.
type Mappings struct {
	DailyReport  []MappingSpec `yaml:"daily_report" toml:"daily_report"`
	Delay        []MappingSpec `yaml:"delay" toml:"delay"`
	Cancellation []MappingSpec `yaml:"cancellation" toml:"cancellation"`
}

// MappingSpec is one row of a mapping table. Exactly one of From or Sources
// is set.
//
// Example:
//
//	- from: "Work Description"
//	  to: "Activity Description"
//	- sources: ["T.P Start [Time]", "T.P End [Time]"]
//	  combine: time_range
//	  to: "Planned Window"
type MappingSpec struct {
	From    string   `yaml:"from,omitempty" toml:"from,omitempty"`
	Sources []string `yaml:"sources,omitempty" toml:"sources,omitempty"`
	Combine string   `yaml:"combine,omitempty" toml:"combine,omitempty"`
	To      string   `yaml:"to" toml:"to"`
}

// =============================================================================
// TRANSFORMS
// =============================================================================

// TransformationRule applies actions to one destination column after a
// transfer.
type TransformationRule struct {
	// Field is the destination header the rule applies to.
	Field string `yaml:"field" toml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions" toml:"actions"`
}

// TransformationAction is one post-write action.
type TransformationAction struct {
	// Type is one of:
	//   - "trim"
	//   - "uppercase" / "lowercase"
	//   - "replace"           : replace Find with Value
	//   - "regex_replace"     : replace pattern Find with Value
	//   - "clear_unless_match": empty the cell unless it matches Find
	//   - "prepend_string" / "append_string"
	//   - "lookup"            : replace using LookupTable
	Type string `yaml:"type" toml:"type"`

	Value       string            `yaml:"value,omitempty" toml:"value,omitempty"`
	Find        string            `yaml:"find,omitempty" toml:"find,omitempty"`
	LookupTable map[string]string `yaml:"lookup_table,omitempty" toml:"lookup_table,omitempty"`
}

// =============================================================================
// EXPORT / SERVER
// =============================================================================

// Export controls CSV export of daily reports.
type Export struct {
	// OutputDir receives CSV files. Relative to the week folder.
	// Default: "Other/CSV"
	OutputDir string `yaml:"output_dir" toml:"output_dir"`

	// Encoding: "UTF-8", "UTF-8-BOM", "windows-1252", "iso-8859-1".
	// Default: "UTF-8"
	Encoding string `yaml:"encoding" toml:"encoding"`

	// Delimiter is a single character. Default: ","
	Delimiter string `yaml:"delimiter" toml:"delimiter"`

	// TimeColumns are rendered as HH:MM.
	TimeColumns []string `yaml:"time_columns" toml:"time_columns"`

	// DateColumns are rendered as DD/MM/YYYY.
	DateColumns []string `yaml:"date_columns" toml:"date_columns"`
}

// Server controls the HTTP boundary.
type Server struct {
	// Addr is the listen address. Default: "127.0.0.1:8080"
	Addr string `yaml:"addr" toml:"addr"`

	// Mode is the gin mode: "debug", "release" or "test".
	// Default: "release"
	Mode string `yaml:"mode" toml:"mode"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the configuration file at configPath.
//
// PARAMETERS:
//   - configPath: path to a .yaml, .yml or .toml file.
//
// RETURNS:
//   - The loaded configuration with defaults applied.
//   - An error if the file cannot be read, parsed or validated.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
	}
	return cfg, nil
}

// Parse decodes configuration data. ext selects the format (".toml" for
// TOML, anything else for YAML).
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config

	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration holding only default values.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}
