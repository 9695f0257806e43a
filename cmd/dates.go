package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List the dates covered by the construction work plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDates()
	},
}

func init() {
	rootCmd.AddCommand(datesCmd)
}

func runDates() error {
	s, _, err := newSession()
	if err != nil {
		return err
	}
	dates, err := s.WorkPlanDates()
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		fmt.Println("The work plan holds no dates.")
		return nil
	}

	rows := make([][]string, 0, len(dates))
	for _, d := range dates {
		day := s.Paths().Calendar().Describe(d)
		rows = append(rows, []string{d.Format("Mon"), day.Formatted.Slash, "WW" + day.WeekLabel})
	}
	renderTable(fmt.Sprintf("%d date(s)", len(dates)), []string{"Day", "Date", "Week"}, rows, nil)
	return nil
}
