// =============================================================================
// CIIM Report Sync - Delays Command
// =============================================================================
//
// This file defines the 'delays' command, which builds the delays &
// cancellations report from the work plan and the daily reports.
//
// COMMAND USAGE:
//   ciim delays [date...] [flags]
//
// FLAGS:
//   --scope : weekly (default) or daily
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Work out the dates (arguments, or every date of the work plan)
//   3. Copy the template into the tracking folder (asks before replacing)
//   4. Cancellations from the work plan
//   5. Delays from each date's daily report; missing reports are listed
//   6. Summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ciim-report-sync/internal/report"
)

// scope is "weekly" or "daily".
var scope string

var delaysCmd = &cobra.Command{
	Use:   "delays [date...]",
	Short: "Build the delays & cancellations report",
	Long: `Build the delays & cancellations report in the tracking folder.

Cancelled activities are taken from the construction work plan; delays are the
non-cancelled rows of each date's daily report. Without dates every date of
the work plan is used. A date whose daily report does not exist is reported
and skipped; the other dates are still processed.

A daily scope report covers the first date only, and only that date's
cancellations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelays(args)
	},
}

func init() {
	rootCmd.AddCommand(delaysCmd)
	delaysCmd.Flags().StringVar(&scope, "scope", "weekly", "Report scope: weekly or daily")
}

func runDelays(args []string) error {
	startTime := time.Now()

	sc, err := report.ParseScope(scope)
	if err != nil {
		return err
	}
	dates, err := parseDates(args)
	if err != nil {
		return err
	}

	fmt.Println("=== Delays & Cancellations ===")
	fmt.Println("Loading configuration...")
	s, _, err := newSession()
	if err != nil {
		return err
	}

	fmt.Printf("Building the %s report...\n", sc)
	res, err := s.DelayBatch(report.BatchOptions{Scope: sc, Dates: dates})
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
				status = "missing: " + d.Source
			}
		}
		rows = append(rows, []string{d.Date.Format("02/01/2006"), strconv.Itoa(d.Rows), status})
	}
	renderTable("Delays per day", []string{"Date", "Rows", "Status"}, rows, statusStyles(2))

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Report:          %s\n", res.Report)
	fmt.Printf("Cancellations:   %d\n", res.Cancellations)
	fmt.Printf("Delays:          %d\n", res.Delays)
	fmt.Printf("Days failed:     %d\n", len(res.Failed()))
	fmt.Printf("Time elapsed:    %s\n", time.Since(startTime).Round(time.Millisecond))
	printMissing(res.Missing)
	printRunLog(res.RunLog)
	return nil
}
