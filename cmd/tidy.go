package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ciim-report-sync/pkg/utils"
)

// nominationsFolder is the week subfolder holding scanned nominations.
var nominationsFolder string

var tidyCmd = &cobra.Command{
	Use:   "tidy",
	Short: "Folder housekeeping",
}

var tidyEmptyCmd = &cobra.Command{
	Use:   "empty [dir]",
	Short: "Delete empty folders below a folder",
	Long: `Delete every empty folder below dir (default: the construction folder),
deepest first, so that folders left empty by the deletion go too. dir itself
is kept.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTidyEmpty(args)
	},
}

var tidyNominationsCmd = &cobra.Command{
	Use:   "nominations [date]",
	Short: "Rename scanned nominations of a week",
	Long: `Rename "<ep>_<NM>_<YYYY-MM-DD>_<N1|N2>.<ext>" files in the Nominations folder
of the week containing date (default: today) to
"<YYYY-MM-DD>_<NM>_<ep>_<N1|N2>.<ext>". Existing files are never replaced.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTidyNominations(args)
	},
}

func init() {
	rootCmd.AddCommand(tidyCmd)
	tidyCmd.AddCommand(tidyEmptyCmd, tidyNominationsCmd)
	tidyNominationsCmd.Flags().StringVar(&nominationsFolder, "folder", "Nominations", "Week subfolder holding the nominations")
}

func runTidyEmpty(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.ConstructionPath()
	if len(args) == 1 {
		dir = cfg.Resolve(args[0])
	}

	removed, err := utils.DeleteEmptyFolders(dir)
	for _, r := range removed {
		if verbose {
			fmt.Printf("  removed %s\n", r)
		}
	}
	fmt.Printf("Deleted %d empty folder(s) below %s\n", len(removed), dir)
	return err
}

func runTidyNominations(args []string) error {
	date, err := dateArg(args)
	if err != nil {
		return err
	}
	s, _, err := newSession()
	if err != nil {
		return err
	}

	dir := filepath.Join(s.Resolve(date).WeekPath, nominationsFolder)
	renames, skipped, err := utils.RenameNominations(dir)

	rows := make([][]string, 0, len(renames))
	for _, r := range renames {
		rows = append(rows, []string{filepath.Base(r.From), filepath.Base(r.To)})
	}
	if len(rows) > 0 {
		renderTable("", []string{"From", "To"}, rows, nil)
	}
	fmt.Printf("Renamed %d file(s), left %d unchanged in %s\n", len(renames), len(skipped), dir)
	return err
}
