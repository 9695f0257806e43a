package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ciim-report-sync/internal/export"
	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

// exportEncoding overrides the configured CSV encoding.
var exportEncoding string

// exportOut overrides the output folder.
var exportOut string

// exportDir exports one folder instead of the week.
var exportDir string

// exportVerify reads every written file back.
var exportVerify bool

var exportCmd = &cobra.Command{
	Use:   "export [date]",
	Short: "Write the week's daily reports as CSV",
	Long: `Export every daily report of the week containing date (default: today) to
CSV. Output goes to the configured folder inside the week folder unless --out
is given. With --dir only the daily reports directly inside that folder are
exported. Time columns are written as HH:MM and date columns as DD/MM/YYYY.

Encodings: utf-8, utf-8-bom, windows-1252, iso-8859-1`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(args)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportEncoding, "encoding", "", "CSV encoding (default from config)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output folder")
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Export this folder only (not recursive)")
	exportCmd.Flags().BoolVar(&exportVerify, "verify", false, "Read each CSV back and compare row counts")
}

func runExport(args []string) error {
	date, err := dateArg(args)
	if err != nil {
		return err
	}
	s, log, err := newSession()
	if err != nil {
		return err
	}
	cfg := s.Config()

	opts := export.OptionsFromConfig(cfg)
	if exportEncoding != "" {
		opts.Encoding = exportEncoding
	}
	exporter, err := export.NewExporter(opts, log)
	if err != nil {
		return err
	}

	pattern := cfg.Reports.DailyPrefix + " *.xlsx"
	if exportDir != "" {
		dir := cfg.Resolve(exportDir)
		outDir := exportOut
		if outDir == "" {
			outDir = filepath.Join(dir, cfg.Export.OutputDir)
		}
		fmt.Printf("Exporting %s to %s...\n", dir, outDir)
		exported, err := exporter.ExportDir(dir, pattern, outDir)
		return finishExport(exported, opts, err)
	}

	loc := s.Resolve(date)
	outDir := exportOut
	if outDir == "" {
		outDir = filepath.Join(loc.WeekPath, cfg.Export.OutputDir)
	}

	files, err := utils.DiscoverFilesRecursive(loc.WeekPath, pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No daily reports under %s\n", loc.WeekPath)
		return nil
	}
	fmt.Printf("Exporting %d report(s) to %s...\n", len(files), outDir)

	exported, err := exporter.ExportFiles(files, outDir)
	return finishExport(exported, opts, err)
}

// finishExport prints the exported files and, with --verify, checks that
// each CSV reads back with the same number of rows.
func finishExport(exported []export.Exported, opts export.Options, exportErr error) error {
	headers := []string{"Report", "CSV", "Rows"}
	if exportVerify {
		headers = append(headers, "Status")
	}

	var verifyErr error
	rows := make([][]string, 0, len(exported))
	for _, e := range exported {
		row := []string{filepath.Base(e.Source), filepath.Base(e.Output), strconv.Itoa(e.Rows)}
		if exportVerify {
			records, err := export.ReadCSV(e.Output, opts.Encoding, opts.Delimiter)
			switch {
			case err != nil:
				row = append(row, "unreadable")
				verifyErr = err
			case len(records)-1 != e.Rows:
				row = append(row, "mismatch")
				verifyErr = fmt.Errorf("%s: wrote %d rows, read %d", e.Output, e.Rows, len(records)-1)
			default:
				row = append(row, "ok")
			}
		}
		rows = append(rows, row)
	}

	var styles summaryStyleFunc
	if exportVerify {
		styles = statusStyles(3)
	}
	renderTable("", headers, rows, styles)
	if exportErr != nil {
		return exportErr
	}
	return verifyErr
}
