// =============================================================================
// CIIM Report Sync - Post-Write Transforms
// =============================================================================
//
// After rows land in a report, some columns are tidied in place:
//   - Foreman and team leader names lose their trailing "(phone)" note
//   - The activity summary is cleared unless the activity was cancelled
//
// Rules are configuration (config.TransformationRule); each rule names a
// destination header and a list of actions applied in order.
//
// CUSTOMIZATION:
//   Add new action types to ApplyTransformation.
//
// =============================================================================

package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/logging"
	"github.com/ginjaninja78/ciim-report-sync/internal/sheet"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies configured rules to cells.
type Transformer struct {
	rules    []config.TransformationRule
	patterns map[string]*regexp.Regexp
	log      logging.Logger
}

// NewTransformer compiles the rules' patterns.
func NewTransformer(rules []config.TransformationRule, log logging.Logger) (*Transformer, error) {
	if log == nil {
		log = logging.Discard()
	}
	t := &Transformer{rules: rules, patterns: make(map[string]*regexp.Regexp), log: log}
	for _, r := range rules {
		for _, a := range r.Actions {
			if a.Find == "" || (a.Type != "regex_replace" && a.Type != "clear_unless_match") {
				continue
			}
			re, err := regexp.Compile(a.Find)
			if err != nil {
				return nil, fmt.Errorf("transform %q: invalid regex pattern: %w", r.Field, err)
			}
			t.patterns[a.Find] = re
		}
	}
	return t, nil
}

// Fields returns the headers the rules apply to.
func (t *Transformer) Fields() []string {
	fields := make([]string, 0, len(t.rules))
	for _, r := range t.rules {
		fields = append(fields, r.Field)
	}
	return fields
}

// Transform applies every action of the rule for fieldName to value.
// Fields without a rule are returned unchanged.
func (t *Transformer) Transform(fieldName, value string) (string, error) {
	result := value
	for _, rule := range t.rules {
		if rule.Field != fieldName {
			continue
		}
		for _, action := range rule.Actions {
			var err error
			result, err = t.apply(result, action)
			if err != nil {
				return "", fmt.Errorf("transformation '%s' failed: %w", action.Type, err)
			}
		}
	}
	return result, nil
}

func (t *Transformer) apply(value string, action config.TransformationAction) (string, error) {
	return ApplyTransformation(value, action, t.patterns[action.Find])
}

// ApplyTransformation applies a single action. re is the compiled Find
// pattern for regex actions; nil compiles it on the fly.
func ApplyTransformation(value string, action config.TransformationAction, re *regexp.Regexp) (string, error) {
	if re == nil && action.Find != "" && (action.Type == "regex_replace" || action.Type == "clear_unless_match") {
		var err error
		if re, err = regexp.Compile(action.Find); err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
	}

	switch action.Type {

	// =========================================================================
	// STRING MANIPULATION
	// =========================================================================

	case "prepend_string":
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "normalize_whitespace":
		return strings.Join(strings.Fields(value), " "), nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		if re == nil {
			return value, nil
		}
		return re.ReplaceAllString(value, action.Value), nil

	// =========================================================================
	// CONDITIONAL
	// =========================================================================

	case "clear_unless_match":
		// Cancelled activities keep their note; everything else is cleared
		// for the crew to fill in.
		if re == nil || re.MatchString(value) {
			return value, nil
		}
		return "", nil

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	// =========================================================================
	// LOOKUP
	// =========================================================================

	case "lookup":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return value, nil

	case "lookup_with_default":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return action.Value, nil

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

// =============================================================================
// SHEET APPLICATION
// =============================================================================

// Stats counts what ApplyToSheet changed.
type Stats struct {
	CellsChanged int
	Missing      []string
}

// ApplyToSheet transforms the rule columns of rows firstRow..lastRow.
// Numeric cells (times, dates, numbers) are left alone. Rule fields that are
// not on the header row are reported in Stats.Missing.
func (t *Transformer) ApplyToSheet(s *sheet.Sheet, headerRow, firstRow, lastRow int) (Stats, error) {
	var stats Stats
	if len(t.rules) == 0 || lastRow < firstRow {
		return stats, nil
	}

	idx, err := sheet.BuildHeaderIndex(s, headerRow, t.Fields())
	if err != nil {
		return stats, err
	}
	stats.Missing = idx.Missing(t.Fields())
	for _, m := range stats.Missing {
		t.log.Warn("transform skipped: %s has no %q column", s.Name(), m)
	}

	for _, field := range idx.Names() {
		col, _ := idx.Column(field)
		for row := firstRow; row <= lastRow; row++ {
			v, err := s.Get(row, col)
			if err != nil {
				return stats, err
			}
			text, ok := v.Typed().(string)
			if !ok && !v.Empty() {
				continue
			}

			out, err := t.Transform(field, text)
			if err != nil {
				return stats, fmt.Errorf("%s row %d: %w", field, row, err)
			}
			if out == text {
				continue
			}
			var nv interface{} = out
			if out == "" {
				nv = nil
			}
			if err := s.Set(row, col, nv); err != nil {
				return stats, err
			}
			stats.CellsChanged++
		}
	}
	return stats, nil
}
