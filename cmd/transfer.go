package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ciim-report-sync/internal/calendar"
	"github.com/ginjaninja78/ciim-report-sync/internal/classify"
	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/mapping"
	"github.com/ginjaninja78/ciim-report-sync/internal/transfer"
)

// =============================================================================
// TRANSFER COMMAND
// =============================================================================

var (
	transferStream   string
	transferDate     string
	transferStartRow int
	transferNoTrim   bool
)

var transferCmd = &cobra.Command{
	Use:   "transfer <source.xlsx> <dest.xlsx>",
	Short: "Move rows of one stream between two workbooks",
	Long: `Run a single header-driven transfer between two workbooks outside the
report workflows, for example to repair one sheet by hand.

Streams:
  cancellations  work plan -> Cancellations sheet (--date limits to one day)
  delays         daily report -> Delays sheet
  daily          work plan -> daily report (--date required)

Sheets, header rows and mappings come from the configuration. Rows below the
last written row are removed unless --no-trim is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransfer(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferCmd.Flags().StringVar(&transferStream, "stream", "cancellations", "Stream: cancellations, delays or daily")
	transferCmd.Flags().StringVar(&transferDate, "date", "", "Only rows of this date")
	transferCmd.Flags().IntVar(&transferStartRow, "start-row", 0, "First destination row (default: the sheet's first data row)")
	transferCmd.Flags().BoolVar(&transferNoTrim, "no-trim", false, "Keep destination rows below the written ones")
}

// streamJob is everything one stream needs from the configuration.
type streamJob struct {
	specs []config.MappingSpec
	src   config.SheetSpec
	dst   config.SheetSpec
	rules classify.Rules
}

func streamFor(cfg *config.Config, stream string, date time.Time) (streamJob, error) {
	r, c := cfg.Reports, cfg.Classification
	switch stream {
	case "cancellations":
		return streamJob{cfg.Mappings.Cancellation, r.WorkPlan, r.Cancellations, classify.CancellationRules(c, date)}, nil
	case "delays":
		return streamJob{cfg.Mappings.Delay, r.Daily, r.Delays, classify.DelayRules(c)}, nil
	case "daily":
		if date.IsZero() {
			return streamJob{}, fmt.Errorf("the daily stream needs --date")
		}
		return streamJob{cfg.Mappings.DailyReport, r.WorkPlan, r.Daily, classify.WorkPlanDayRules(c, date)}, nil
	default:
		return streamJob{}, fmt.Errorf("unknown stream %q (want cancellations, delays or daily)", stream)
	}
}

func runTransfer(source, dest string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	var date time.Time
	if transferDate != "" {
		if date, err = calendar.ParseDate(transferDate); err != nil {
			return err
		}
	}
	job, err := streamFor(cfg, transferStream, date)
	if err != nil {
		return err
	}
	table, err := mapping.FromSpecs(job.specs)
	if err != nil {
		return err
	}

	source, dest = cfg.Resolve(source), cfg.Resolve(dest)
	fmt.Printf("Transferring %s rows from %s to %s...\n", transferStream, source, dest)

	res, err := transfer.NewEngine(log).TransferFile(transfer.FileJob{
		Source:      source,
		SourceSheet: job.src.Sheet,
		Dest:        dest,
		DestSheet:   job.dst.Sheet,
		Trim:        !transferNoTrim,
	}, table, transfer.Options{
		SourceHeaderRow:    job.src.HeaderRow,
		SourceDataStartRow: job.src.DataStartRow,
		DestHeaderRow:      job.dst.HeaderRow,
		DestStartRow:       transferStartRow,
		Rules:              job.rules,
	})
	if err != nil {
		return err
	}

	rows := [][]string{
		{"Rows transferred", strconv.Itoa(res.RowsTransferred)},
		{"Next free row", strconv.Itoa(res.NextRow)},
	}
	outcomes := make([]classify.Outcome, 0, len(res.Skipped))
	for o := range res.Skipped {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i] < outcomes[j] })
	for _, o := range outcomes {
		rows = append(rows, []string{"Skipped (" + o.String() + ")", strconv.Itoa(res.Skipped[o])})
	}
	renderTable("", []string{"", ""}, rows, nil)

	printMissing(res.MissingFields)
	if res.Empty() {
		fmt.Println(warnStyle.Render("Nothing matched; the destination was not written."))
	}
	return nil
}
