package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ciim-report-sync/internal/filesafety"
	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

var checkCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Check whether workbooks are open in another program",
	Long: `Check whether workbooks are open elsewhere (Excel keeps them locked).
Without arguments the configured work plan is checked. Relative paths are
taken from the configured root.

The command fails when any file is locked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(args)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(args))
	for _, a := range args {
		paths = append(paths, cfg.Resolve(a))
	}
	if len(paths) == 0 {
		if cfg.WorkPlan == "" {
			return fmt.Errorf("no file given and no work plan configured")
		}
		paths = append(paths, cfg.WorkPlanPath())
	}

	locked := 0
	rows := make([][]string, 0, len(paths))
	for _, p := range paths {
		status := "ok"
		switch {
		case !utils.FileExists(p):
			status = "missing"
		case filesafety.IsLocked(p):
			status = "locked"
			locked++
		}
		rows = append(rows, []string{p, status})
	}
	renderTable("", []string{"File", "Status"}, rows, statusStyles(1))

	if locked > 0 {
		return fmt.Errorf("%d file(s) are open in another program", locked)
	}
	return nil
}
