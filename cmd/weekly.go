package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ciim-report-sync/internal/report"
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly [date...]",
	Short: "Gather the week's daily reports into one workbook",
	Long: `Append the rows of every daily report of the given dates (default: every
date of the work plan) to the weekly report in the week's "Weekly Reports"
folder. Days without a report are listed and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWeekly(args)
	},
}

func init() {
	rootCmd.AddCommand(weeklyCmd)
}

func runWeekly(args []string) error {
	dates, err := parseDates(args)
	if err != nil {
		return err
	}
	s, _, err := newSession()
	if err != nil {
		return err
	}

	res, err := s.WeeklyReport(dates)
	if err != nil {
		printRunLog(res.RunLog)
		return err
	}

	rows := make([][]string, 0, len(res.Days))
	for _, d := range res.Days {
		status := "ok"
		if d.Err != nil {
			status = d.Err.Error()
			if report.IsPathNotFound(d.Err) {
				status = "skipped: no report"
			}
		}
		rows = append(rows, []string{d.Date.Format("02/01/2006"), strconv.Itoa(d.Rows), status})
	}
	renderTable("=== Weekly Report ===", []string{"Date", "Rows", "Status"}, rows, statusStyles(2))
	fmt.Printf("Report: %s (%d rows)\n", res.Report, res.Rows)
	printMissing(res.Missing)
	printRunLog(res.RunLog)
	return nil
}
