package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ginjaninja78/ciim-report-sync/internal/calendar"
	"github.com/ginjaninja78/ciim-report-sync/internal/transfer"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// summaryStyleFunc styles one cell of a summary table.
type summaryStyleFunc func(row, col int, rowData []string) lipgloss.Style

// renderTable prints a bordered table. styles may be nil.
func renderTable(title string, headers []string, rows [][]string, styles summaryStyleFunc) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if styles != nil && row >= 0 && row < len(rows) {
				return styles(row, col, rows[row])
			}
			return cellStyle
		})

	if title != "" {
		fmt.Println(titleStyle.Render(title))
	}
	fmt.Println(t.Render())
}

// statusStyles colours the status column of a table.
func statusStyles(statusCol int) summaryStyleFunc {
	return func(row, col int, rowData []string) lipgloss.Style {
		if col != statusCol {
			return cellStyle
		}
		switch {
		case strings.HasPrefix(rowData[col], "ok"):
			return cellStyle.Inherit(okStyle)
		case strings.HasPrefix(rowData[col], "missing"), strings.HasPrefix(rowData[col], "skipped"):
			return cellStyle.Inherit(warnStyle)
		default:
			return cellStyle.Inherit(failStyle)
		}
	}
}

func printMissing(missing []transfer.MissingField) {
	if len(missing) == 0 {
		return
	}
	fmt.Println(warnStyle.Render(fmt.Sprintf("%d field(s) skipped:", len(missing))))
	seen := make(map[string]bool)
	for _, m := range missing {
		line := m.String()
		if seen[line] {
			continue
		}
		seen[line] = true
		fmt.Printf("  - %s\n", line)
	}
}

func printRunLog(path string) {
	if path != "" {
		fmt.Printf("Run log: %s\n", path)
	}
}

// =============================================================================
// PROMPTS AND ARGUMENTS
// =============================================================================

// confirmOverwrite asks on the terminal before an existing report is
// replaced. --yes answers for the user.
func confirmOverwrite(path string) bool {
	if assumeYes {
		return true
	}
	fmt.Printf("%s already exists. Overwrite it? [y/N] ", filepath.Base(path))
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// parseDates parses every argument as a date.
func parseDates(args []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(args))
	for _, a := range args {
		d, err := calendar.ParseDate(a)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// dateArg parses the single date argument, defaulting to today.
func dateArg(args []string) (time.Time, error) {
	if len(args) == 0 {
		return calendar.Truncate(time.Now()), nil
	}
	return calendar.ParseDate(args[0])
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
