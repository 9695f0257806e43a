// =============================================================================
// CIIM Report Sync - Main Entry Point
// =============================================================================
//
// USAGE:
//   ciim daily <date>        - Create and fill the daily report for a date
//   ciim delays [date...]    - Build the delays & cancellations report
//   ciim weekly [date...]    - Gather a week's daily reports in one workbook
//   ciim serve               - Serve the same operations over HTTP
//   ciim version             - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (calendar, paths, sheets, transfer, reports)
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/ciim-report-sync/cmd"
)

func main() {
	cmd.Execute()
}
