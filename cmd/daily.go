// =============================================================================
// CIIM Report Sync - Daily Command
// =============================================================================
//
// COMMAND USAGE:
//   ciim daily [date] [flags]
//
// FLAGS:
//   --recreate          : Replace an existing report with a fresh template
//                         copy (asks first unless --yes)
//   --previous-day-row  : Instead of creating the date's report, append the
//                         previous day's work plan rows to that day's report
//                         from this row on
//
// =============================================================================

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ciim-report-sync/internal/report"
)

// recreate replaces an existing daily report.
var recreate bool

// previousDayRow is the first row written by the previous-day copy.
var previousDayRow int

var dailyCmd = &cobra.Command{
	Use:   "daily [date]",
	Short: "Create and fill the daily report for a date",
	Long: `Create the folders and the daily report for a date (default: today) and fill
it with that date's rows from the construction work plan.

The report title is written, team leader and foreman names lose their
"(phone)" note, the activity summary is kept only for cancelled activities,
and unused template rows are removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaily(args)
	},
}

func init() {
	rootCmd.AddCommand(dailyCmd)
	dailyCmd.Flags().BoolVar(&recreate, "recreate", false, "Replace an existing report with a fresh template copy")
	dailyCmd.Flags().IntVar(&previousDayRow, "previous-day-row", 0, "Append the previous day's rows to its report from this row")
}

func runDaily(args []string) error {
	date, err := dateArg(args)
	if err != nil {
		return err
	}
	s, _, err := newSession()
	if err != nil {
		return err
	}

	var res report.DailyResult
	if previousDayRow > 0 {
		fmt.Printf("Copying the previous day's rows from row %d...\n", previousDayRow)
		res, err = s.CopyToPreviousDay(date, previousDayRow)
	} else {
		fmt.Printf("Creating the daily report for %s...\n", date.Format("02/01/2006"))
		res, err = s.CreateDaily(date, report.DailyOptions{Recreate: recreate})
	}
	if err != nil {
		return err
	}
	if res.Existing {
		fmt.Println(warnStyle.Render(res.Report + " already exists and was left unchanged; use --recreate to replace it."))
		return nil
	}

	renderTable("=== Daily Report ===", []string{"Item", "Value"}, [][]string{
		{"Report", res.Report},
		{"Template copied", yesNo(res.Created)},
		{"Folders created", strconv.Itoa(len(res.FoldersCreated))},
		{"Rows transferred", strconv.Itoa(res.Rows)},
		{"Planned", strconv.Itoa(res.Planned)},
		{"Cancelled", strconv.Itoa(res.Cancelled)},
		{"Rows trimmed", strconv.Itoa(res.RowsTrimmed)},
	}, nil)
	printMissing(res.Missing)

	if res.Rows == 0 {
		fmt.Println(warnStyle.Render("No work plan rows for this date; the report was left unchanged."))
	}
	return nil
}
