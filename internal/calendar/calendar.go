// =============================================================================
// CIIM Report Sync - Calendar Resolver
// =============================================================================
//
// Turns a calendar date into a working-week number and the canonical date
// strings used in folder and report names.
//
// WEEK RULES:
//   Two week-numbering rules have been used by the reporting office. A single
//   installation must use exactly one of them, otherwise dates of the same
//   week land in different folders.
//
//   iso_adjusted : a Sunday is moved to the following Monday, then the ISO
//                  week of the result is used. The folder year is the ISO
//                  year, so 2024-12-30 belongs to 2025 / week 01.
//   sunday_epoch : weeks start on Sunday and are counted from the first
//                  Sunday of the calendar year (strftime %U). The folder
//                  year is the calendar year.
//
// DATE FORMATS:
//   slash   : DD/MM/YY
//   dot     : DD.MM.YY
//   compact : YYMMDD
//
// =============================================================================

package calendar

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// WEEK RULES
// =============================================================================

// Rule names accepted in configuration.
const (
	RuleISOAdjusted = "iso_adjusted"
	RuleSundayEpoch = "sunday_epoch"
)

// WeekRule computes the week number and the folder year of a date.
type WeekRule interface {
	// Name is the configuration name of the rule.
	Name() string

	// Week returns the week number of the date.
	Week(d time.Time) int

	// Year returns the year the date's week folder lives under.
	Year(d time.Time) int
}

// ISOAdjusted treats Monday as the first business day while keeping ISO
// week boundaries.
type ISOAdjusted struct{}

func (ISOAdjusted) Name() string { return RuleISOAdjusted }

func (ISOAdjusted) Week(d time.Time) int {
	_, week := isoAdjust(d).ISOWeek()
	return week
}

func (ISOAdjusted) Year(d time.Time) int {
	year, _ := isoAdjust(d).ISOWeek()
	return year
}

func isoAdjust(d time.Time) time.Time {
	if d.Weekday() == time.Sunday {
		return d.AddDate(0, 0, 1)
	}
	return d
}

// SundayEpoch numbers weeks from the first Sunday of the year. Days before
// that Sunday are in week 0.
type SundayEpoch struct{}

func (SundayEpoch) Name() string { return RuleSundayEpoch }

func (SundayEpoch) Week(d time.Time) int {
	yday := d.YearDay() - 1
	wday := int(d.Weekday())
	return (yday + 7 - wday) / 7
}

func (SundayEpoch) Year(d time.Time) int {
	return d.Year()
}

// RuleByName returns the week rule for a configuration name.
func RuleByName(name string) (WeekRule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RuleISOAdjusted, "iso":
		return ISOAdjusted{}, nil
	case RuleSundayEpoch, "sunday":
		return SundayEpoch{}, nil
	default:
		return nil, fmt.Errorf("unknown week rule %q (want %q or %q)", name, RuleISOAdjusted, RuleSundayEpoch)
	}
}

// =============================================================================
// RESOLVER
// =============================================================================

// Formatted holds the canonical string forms of a date.
type Formatted struct {
	Slash   string
	Dot     string
	Compact string
}

// Day is a date together with everything derived from it.
type Day struct {
	Date      time.Time
	Week      int
	WeekLabel string
	Year      int
	Formatted Formatted
}

// Resolver derives week numbers and formatted dates using one WeekRule.
type Resolver struct {
	rule WeekRule
}

// NewResolver creates a Resolver. A nil rule means ISOAdjusted.
func NewResolver(rule WeekRule) *Resolver {
	if rule == nil {
		rule = ISOAdjusted{}
	}
	return &Resolver{rule: rule}
}

// Rule returns the rule in use.
func (r *Resolver) Rule() WeekRule {
	return r.rule
}

// WeekNumber returns the zero-padded two digit week of d.
func (r *Resolver) WeekNumber(d time.Time) string {
	return fmt.Sprintf("%02d", r.rule.Week(Truncate(d)))
}

// PathYear returns the year used for d's folders.
func (r *Resolver) PathYear(d time.Time) int {
	return r.rule.Year(Truncate(d))
}

// Describe returns the full derived view of d.
func (r *Resolver) Describe(d time.Time) Day {
	d = Truncate(d)
	return Day{
		Date:      d,
		Week:      r.rule.Week(d),
		WeekLabel: r.WeekNumber(d),
		Year:      r.rule.Year(d),
		Formatted: FormattedDates(d),
	}
}

// FormattedDates returns the slash, dot and compact forms of d.
func FormattedDates(d time.Time) Formatted {
	return Formatted{
		Slash:   d.Format("02/01/06"),
		Dot:     d.Format("02.01.06"),
		Compact: d.Format("060102"),
	}
}

// Truncate drops the clock part of t and pins it to UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
