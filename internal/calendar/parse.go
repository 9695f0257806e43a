package calendar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// MalformedDateError is returned when a user- or sheet-supplied date cannot
// be parsed.
type MalformedDateError struct {
	Input string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q (expected YYYY-MM-DD, DD/MM/YYYY, DD/MM/YY or DD.MM.YY)", e.Input)
}

// Four-digit year layouts come first so "04/03/2024" is not cut at "20".
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"02.01.2006",
	"02/01/06",
	"02.01.06",
	"2/1/2006",
	"2/1/06",
}

// ParseDate parses s using the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, &MalformedDateError{Input: s}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return Truncate(t), nil
		}
	}
	return time.Time{}, &MalformedDateError{Input: s}
}

// CellDate interprets a raw cell value as a date. Excel serial numbers and
// every ParseDate layout are accepted.
func CellDate(raw string) (time.Time, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		// below 1 is a pure time of day, not a date
		if f < 1 || f > 2958465 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, false
		}
		return Truncate(t), true
	}
	t, err := ParseDate(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ClockText renders a cell value as HH:MM. It understands Excel day
// fractions (0.5 is 12:00, the fraction of a full serial is used) and the
// usual text forms "8:00", "08:00" and "08:00:00".
func ClockText(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}

	if f, err := strconv.ParseFloat(v, 64); err == nil {
		_, frac := math.Modf(f)
		minutes := int(math.Round(frac * 24 * 60))
		minutes %= 24 * 60
		return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60), true
	}

	for _, layout := range []string{"15:04", "15:04:05", "3:04 PM", "3:04:05 PM", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}
