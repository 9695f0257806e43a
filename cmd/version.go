// =============================================================================
// CIIM Report Sync - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   ciim version [--short]
//
// Build values come from ldflags:
//   go build -ldflags "-X '.../cmd.Version=1.4.0' -X '.../cmd.BuildDate=2024-03-04'"
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version is the release, stamped at build time.
	Version = "dev"
	// BuildDate is the day the binary was built.
	BuildDate = "unknown"

	shortVersion bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the release and build of this binary",
	Long: `Show the release, build date, Go runtime and platform. With --short only
the release is printed, for scripts that compare installed versions on the
site laptops.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if shortVersion {
			fmt.Println(Version)
			return
		}
		renderTable("=== CIIM Report Sync ===", []string{"Item", "Value"}, [][]string{
			{"Version", Version},
			{"Build date", BuildDate},
			{"Go", runtime.Version()},
			{"Platform", runtime.GOOS + "/" + runtime.GOARCH},
		}, nil)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&shortVersion, "short", false, "Print only the release")
}
