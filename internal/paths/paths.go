// =============================================================================
// CIIM Report Sync - Path Resolver
// =============================================================================
//
// Maps a date onto the report tree:
//
//   <root>/<year>/<week>/<day>/<DailyPrefix> <dd.mm.yy>.xlsx
//
// Folder names come from layout templates; the tokens are:
//   {year}    : folder year from the week rule (ISO year under iso_adjusted)
//   {yy}      : last two digits of {year}
//   {week}    : two digit week number
//   {compact} : YYMMDD
//   {dot}     : DD.MM.YY
//
// Resolve is pure. Creating folders is a separate call (Ensure).
//
// =============================================================================

package paths

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/ciim-report-sync/internal/calendar"
	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

// Layout holds the folder naming templates.
type Layout struct {
	Year string
	Week string
	Day  string

	WeekSubfolders []string
	DaySubfolders  []string
	TeamFolders    int
	TeamSubfolders []string
}

// DefaultLayout is "{year}/WW{week}/{compact}".
func DefaultLayout() Layout {
	return Layout{Year: "{year}", Week: "WW{week}", Day: "{compact}"}
}

// Names holds report file name prefixes.
type Names struct {
	DailyPrefix  string
	DelayPrefix  string
	WeeklyFolder string
}

// Location is where one date's files live.
type Location struct {
	Day calendar.Day

	YearPath   string
	WeekPath   string
	DayPath    string
	ReportName string
}

// ReportPath is the full path of the date's daily report.
func (l Location) ReportPath() string {
	return filepath.Join(l.DayPath, l.ReportName)
}

// Resolver builds Locations.
type Resolver struct {
	cal    *calendar.Resolver
	layout Layout
	names  Names
}

// NewResolver creates a Resolver. Empty layout templates fall back to
// DefaultLayout.
func NewResolver(cal *calendar.Resolver, layout Layout, names Names) *Resolver {
	def := DefaultLayout()
	if layout.Year == "" {
		layout.Year = def.Year
	}
	if layout.Week == "" {
		layout.Week = def.Week
	}
	if layout.Day == "" {
		layout.Day = def.Day
	}
	if names.DailyPrefix == "" {
		names.DailyPrefix = "CIIM Report Table"
	}
	if names.DelayPrefix == "" {
		names.DelayPrefix = "Delays & Cancellations"
	}
	if names.WeeklyFolder == "" {
		names.WeeklyFolder = "Weekly Reports"
	}
	return &Resolver{cal: cal, layout: layout, names: names}
}

// Calendar returns the underlying calendar resolver.
func (r *Resolver) Calendar() *calendar.Resolver {
	return r.cal
}

// Resolve computes the location of date under root.
func (r *Resolver) Resolve(date time.Time, root string) Location {
	day := r.cal.Describe(date)

	yearPath := filepath.Join(root, Expand(r.layout.Year, day))
	weekPath := filepath.Join(yearPath, Expand(r.layout.Week, day))
	dayPath := filepath.Join(weekPath, filepath.FromSlash(Expand(r.layout.Day, day)))

	return Location{
		Day:        day,
		YearPath:   yearPath,
		WeekPath:   weekPath,
		DayPath:    dayPath,
		ReportName: r.DailyReportName(day),
	}
}

// PreviousDay resolves the day before date.
func (r *Resolver) PreviousDay(date time.Time, root string) Location {
	return r.Resolve(calendar.Truncate(date).AddDate(0, 0, -1), root)
}

// =============================================================================
// REPORT NAMES
// =============================================================================

// DailyReportName is "<DailyPrefix> <dd.mm.yy>.xlsx".
func (r *Resolver) DailyReportName(day calendar.Day) string {
	return fmt.Sprintf("%s %s.xlsx", r.names.DailyPrefix, day.Formatted.Dot)
}

// WeeklyReportPath is "<week>/<WeeklyFolder>/<DailyPrefix> WW<week>.xlsx".
func (r *Resolver) WeeklyReportPath(date time.Time, root string) string {
	loc := r.Resolve(date, root)
	name := fmt.Sprintf("%s WW%s.xlsx", r.names.DailyPrefix, loc.Day.WeekLabel)
	return filepath.Join(loc.WeekPath, r.names.WeeklyFolder, name)
}

// WeeklyDelayName is "<DelayPrefix> WW<week>.xlsx".
func (r *Resolver) WeeklyDelayName(date time.Time) string {
	return fmt.Sprintf("%s WW%s.xlsx", r.names.DelayPrefix, r.cal.WeekNumber(date))
}

// DailyDelayName is "<DelayPrefix> <dd.mm.yy>.xlsx".
func (r *Resolver) DailyDelayName(date time.Time) string {
	return fmt.Sprintf("%s %s.xlsx", r.names.DelayPrefix, calendar.FormattedDates(date).Dot)
}

// Expand substitutes layout tokens in tpl.
func Expand(tpl string, day calendar.Day) string {
	year := strconv.Itoa(day.Year)
	yy := year
	if len(yy) > 2 {
		yy = yy[len(yy)-2:]
	}
	return strings.NewReplacer(
		"{year}", year,
		"{yy}", yy,
		"{week}", day.WeekLabel,
		"{compact}", day.Formatted.Compact,
		"{dot}", day.Formatted.Dot,
	).Replace(tpl)
}

// =============================================================================
// DIRECTORY SCAFFOLDING
// =============================================================================

// Ensure creates loc's folders and the configured subfolders.
//
// RETURNS:
//   - The directories that did not exist before.
//   - An error if any directory cannot be created.
func (r *Resolver) Ensure(loc Location) ([]string, error) {
	dirs := []string{loc.YearPath, loc.WeekPath}
	for _, sub := range r.layout.WeekSubfolders {
		dirs = append(dirs, filepath.Join(loc.WeekPath, sub))
	}

	dirs = append(dirs, loc.DayPath)
	for _, sub := range r.layout.DaySubfolders {
		dirs = append(dirs, filepath.Join(loc.DayPath, sub))
	}

	for i := 1; i <= r.layout.TeamFolders; i++ {
		for _, prefix := range []string{"W", "S"} {
			team := filepath.Join(loc.DayPath, fmt.Sprintf("%s%d", prefix, i))
			dirs = append(dirs, team)
			for _, sub := range r.layout.TeamSubfolders {
				dirs = append(dirs, filepath.Join(team, sub))
			}
		}
	}

	created, err := utils.EnsureDirectories(dirs...)
	if err != nil {
		return created, fmt.Errorf("failed to prepare folders for %s: %w", loc.Day.Date.Format("2006-01-02"), err)
	}
	return created, nil
}
