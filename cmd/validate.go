package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ciim-report-sync/internal/validation"
)

var (
	sampleWorkPlan string
	sampleDaily    string
	checkDates     bool
	strict         bool
	errorLogPath   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration against the templates and a sample work plan",
	Long: `Check the configuration without touching any report:
  - mapping destinations exist on the template header rows
  - mapping sources exist in the work plan (and --daily sample)
  - classification and transform columns exist
  - work plan date cells hold dates (--check-dates)

Missing headers are reported with the closest header found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&sampleWorkPlan, "work-plan-sample", "", "Work plan to check instead of the configured one")
	validateCmd.Flags().StringVar(&sampleDaily, "daily", "", "Sample daily report to check delay sources against")
	validateCmd.Flags().BoolVar(&checkDates, "check-dates", false, "Check every work plan date cell")
	validateCmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	validateCmd.Flags().StringVar(&errorLogPath, "log", "", "Write the problems to this file")
}

func runValidate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	v := validation.NewValidatorWithOptions(cfg, validation.ValidationOptions{
		SampleWorkPlan:        cfg.Resolve(sampleWorkPlan),
		SampleDailyReport:     cfg.Resolve(sampleDaily),
		CheckDates:            checkDates,
		TreatWarningsAsErrors: strict,
	})
	res := v.ValidateAll()

	rows := make([][]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		rows = append(rows, []string{e.Severity, e.Rule, e.Error()})
	}
	if len(rows) > 0 {
		renderTable("", []string{"Severity", "Check", "Problem"}, rows, nil)
	}

	renderTable("=== Validation ===", []string{"Item", "Value"}, [][]string{
		{"Files checked", strconv.Itoa(len(res.FilesChecked))},
		{"Headers checked", strconv.Itoa(res.HeadersChecked)},
		{"Errors", strconv.Itoa(res.ErrorCount)},
		{"Warnings", strconv.Itoa(res.WarningCount)},
	}, nil)

	if errorLogPath != "" {
		if err := validation.WriteErrorLog(res.Errors, errorLogPath); err != nil {
			return err
		}
		fmt.Printf("Problems written to %s\n", errorLogPath)
	}

	if !res.IsValid {
		return fmt.Errorf("configuration is not valid")
	}
	fmt.Println(okStyle.Render("Configuration is valid."))
	return nil
}
