package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

// ensureFolders creates the resolved folders.
var ensureFolders bool

var resolveCmd = &cobra.Command{
	Use:   "resolve [date]",
	Short: "Show the week number, folders and report name of a date",
	Long: `Resolve a date (default: today) to its week number, formatted forms and
the year / week / day folders its reports live in. With --ensure the folders
and their standard subfolders are created.

Accepted date forms: 2024-03-04, 04/03/2024, 04.03.2024, 04/03/24, 04.03.24`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResolve(args)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolVar(&ensureFolders, "ensure", false, "Create the folders")
}

func runResolve(args []string) error {
	date, err := dateArg(args)
	if err != nil {
		return err
	}
	s, _, err := newSession()
	if err != nil {
		return err
	}

	loc := s.Resolve(date)
	renderTable(fmt.Sprintf("%s (%s)", loc.Day.Formatted.Slash, s.Paths().Calendar().Rule().Name()),
		[]string{"Item", "Value"},
		[][]string{
			{"Week", loc.Day.WeekLabel},
			{"Year", strconv.Itoa(loc.Day.Year)},
			{"Dot", loc.Day.Formatted.Dot},
			{"Compact", loc.Day.Formatted.Compact},
			{"Year folder", loc.YearPath},
			{"Week folder", loc.WeekPath},
			{"Day folder", loc.DayPath},
			{"Daily report", loc.ReportPath()},
			{"Report exists", yesNo(utils.FileExists(loc.ReportPath()))},
			{"Weekly report", s.Paths().WeeklyReportPath(date, s.Config().ConstructionPath())},
			{"Weekly delays", s.Paths().WeeklyDelayName(date)},
			{"Daily delays", s.Paths().DailyDelayName(date)},
		}, nil)

	if !ensureFolders {
		return nil
	}
	created, err := s.Paths().Ensure(loc)
	if err != nil {
		return err
	}
	fmt.Printf("Created %d folder(s)\n", len(created))
	return nil
}
