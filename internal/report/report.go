// =============================================================================
// CIIM Report Sync - Report Workflows
// =============================================================================
//
// This package strings the building blocks together into the operations the
// reporting office runs every day:
//
//   CreateDaily        : daily report for a date, filled from the work plan
//   CopyToPreviousDay  : append the previous day's work plan rows to its
//                        existing report
//   DelayBatch         : weekly or daily delays & cancellations report
//   WeeklyReport       : all daily reports of a week in one workbook
//   WorkPlanDates      : the dates a work plan covers
//
// ARCHITECTURE:
//   A Session carries everything a workflow needs (configuration, resolvers,
//   engine, logger, the overwrite confirmation callback). Nothing is read
//   from package-level state, so several sessions can run side by side with
//   different configurations.
//
// PERSISTENCE:
//   Every workflow opens its destination once, runs all transfers in memory
//   and saves once at the end. A failure before the save leaves the file on
//   disk as it was.
//
// =============================================================================

package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/ginjaninja78/ciim-report-sync/internal/calendar"
	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/filesafety"
	"github.com/ginjaninja78/ciim-report-sync/internal/logging"
	"github.com/ginjaninja78/ciim-report-sync/internal/mapping"
	"github.com/ginjaninja78/ciim-report-sync/internal/paths"
	"github.com/ginjaninja78/ciim-report-sync/internal/transfer"
	"github.com/ginjaninja78/ciim-report-sync/internal/transform"
	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

// =============================================================================
// ERRORS
// =============================================================================

// PathNotFoundError is returned when a report a workflow reads from does not
// exist.
type PathNotFoundError struct {
	Path string
	Date time.Time
}

func (e *PathNotFoundError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("file not found: %s", e.Path)
	}
	return fmt.Sprintf("report for %s not found: %s", e.Date.Format("2006-01-02"), e.Path)
}

// ErrNoWorkPlan is returned when a workflow needs the work plan and none
// was configured.
var ErrNoWorkPlan = errors.New("no construction work plan selected")

// ErrNoDates is returned when a batch has nothing to process.
var ErrNoDates = errors.New("no dates to process")

// =============================================================================
// SESSION
// =============================================================================

// Session runs workflows for one configuration.
type Session struct {
	cfg         *config.Config
	paths       *paths.Resolver
	engine      *transfer.Engine
	transformer *transform.Transformer
	log         logging.Logger
	confirm     filesafety.Confirm

	dailyTable        mapping.Table
	delayTable        mapping.Table
	cancellationTable mapping.Table
}

// Option customizes a Session.
type Option func(*Session)

// WithConfirm sets the callback asked before an existing report is
// replaced. Without it every overwrite is declined.
func WithConfirm(c filesafety.Confirm) Option {
	return func(s *Session) { s.confirm = c }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession prepares a Session. cfg is cloned; later changes to it do not
// affect the session.
func NewSession(cfg *config.Config, opts ...Option) (*Session, error) {
	own, err := cfg.Clone()
	if err != nil {
		return nil, err
	}

	s := &Session{cfg: own, log: logging.Discard(), confirm: filesafety.Never}
	for _, opt := range opts {
		opt(s)
	}

	cal := calendar.NewResolver(own.Rule())
	s.paths = paths.NewResolver(cal, paths.Layout{
		Year:           own.Layout.Year,
		Week:           own.Layout.Week,
		Day:            own.Layout.Day,
		WeekSubfolders: own.Layout.WeekSubfolders,
		DaySubfolders:  own.Layout.DaySubfolders,
		TeamFolders:    own.Layout.TeamFolders,
		TeamSubfolders: own.Layout.TeamSubfolders,
	}, paths.Names{
		DailyPrefix:  own.Reports.DailyPrefix,
		DelayPrefix:  own.Reports.DelayPrefix,
		WeeklyFolder: own.Reports.WeeklyFolder,
	})
	s.engine = transfer.NewEngine(s.log)

	if s.transformer, err = transform.NewTransformer(own.Transforms, s.log); err != nil {
		return nil, err
	}
	if s.dailyTable, err = mapping.FromSpecs(own.Mappings.DailyReport); err != nil {
		return nil, fmt.Errorf("daily report mapping: %w", err)
	}
	if s.delayTable, err = mapping.FromSpecs(own.Mappings.Delay); err != nil {
		return nil, fmt.Errorf("delay mapping: %w", err)
	}
	if s.cancellationTable, err = mapping.FromSpecs(own.Mappings.Cancellation); err != nil {
		return nil, fmt.Errorf("cancellation mapping: %w", err)
	}
	return s, nil
}

// Config returns the session's configuration. Callers must not modify it.
func (s *Session) Config() *config.Config { return s.cfg }

// Paths returns the path resolver.
func (s *Session) Paths() *paths.Resolver { return s.paths }

// Resolve returns the location of date in the report tree.
func (s *Session) Resolve(date time.Time) paths.Location {
	return s.paths.Resolve(date, s.cfg.ConstructionPath())
}

// WorkPlan returns the work plan path, failing when none is configured or
// the file does not exist.
func (s *Session) WorkPlan() (string, error) {
	p := s.cfg.WorkPlanPath()
	if p == "" {
		return "", ErrNoWorkPlan
	}
	if !utils.FileExists(p) {
		return "", &PathNotFoundError{Path: p}
	}
	return p, nil
}

// =============================================================================
// RUN RECORDING
// =============================================================================

// recorder collects run log entries for batch workflows.
type recorder struct {
	summary utils.RunSummary
}

func (s *Session) newRecorder(op string) *recorder {
	return &recorder{summary: utils.RunSummary{
		RunID:     utils.NewRunID(),
		Operation: op,
		StartTime: time.Now(),
	}}
}

func (r *recorder) add(kind, path, msg string, rows int) {
	r.summary.Entries = append(r.summary.Entries, utils.RunLogEntry{
		Timestamp: time.Now(), Kind: kind, Path: path, Message: msg, Rows: rows,
	})
}

// finish writes the run log when a run log folder is configured.
func (s *Session) finish(r *recorder) string {
	r.summary.EndTime = time.Now()
	if s.cfg.RunLogDir == "" {
		return ""
	}
	p, err := utils.WriteRunLog(r.summary, s.cfg.Resolve(s.cfg.RunLogDir))
	if err != nil {
		s.log.Warn("could not write run log: %v", err)
		return ""
	}
	return p
}
