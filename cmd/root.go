// =============================================================================
// CIIM Report Sync - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ciim)
//   ├── resolveCmd   (ciim resolve <date>)
//   ├── checkCmd     (ciim check <file>...)
//   ├── dailyCmd     (ciim daily <date>)
//   ├── delaysCmd    (ciim delays [date...])
//   ├── weeklyCmd    (ciim weekly [date...])
//   ├── transferCmd  (ciim transfer <source> <dest>)
//   ├── datesCmd     (ciim dates)
//   ├── exportCmd    (ciim export <date>)
//   ├── tidyCmd      (ciim tidy empty|nominations)
//   ├── validateCmd  (ciim validate)
//   ├── serveCmd     (ciim serve)
//   └── versionCmd   (ciim version)
//
// CONFIGURATION:
//   Settings are layered, later layers winning:
//   1. Built-in defaults (config.Default)
//   2. The config file (--config, YAML or TOML)
//   3. .env in the working directory (ignored when missing)
//   4. CIIM_* environment variables
//   5. Persistent flags
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/ciim-report-sync/internal/config"
	"github.com/ginjaninja78/ciim-report-sync/internal/logging"
	"github.com/ginjaninja78/ciim-report-sync/internal/report"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging.
var verbose bool

// assumeYes answers yes to every overwrite question.
var assumeYes bool

// settings layers the environment and flags over the config file.
var settings = viper.New()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "ciim",
	Short: "CIIM Report Sync - build daily, weekly and delay reports from the construction work plan",
	Long: `CIIM Report Sync prepares the construction reporting folders and workbooks
for a date and moves rows between the construction work plan and the daily,
weekly and delays & cancellations reports.

Key Features:
  - Year / week / day folder scaffolding with configurable week numbering
  - Header-driven row transfer with per-field mappings
  - Cancellation and delay classification by keyword
  - Locked-file detection before any workbook is written
  - CSV export and folder housekeeping

Example Usage:
  ciim resolve 2024-03-04                   # Where does that day live?
  ciim daily 04/03/2024                     # Create and fill the daily report
  ciim delays --scope weekly                # Weekly delays & cancellations
  ciim delays --config ./site.toml 2024-03-04`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "config.yaml", "Path to the configuration file (YAML or TOML)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to every overwrite question")

	flags.String("root", "", "Root folder the configured directories are relative to")
	flags.String("work-plan", "", "Construction work plan workbook")
	flags.String("week-rule", "", "Week numbering: iso_adjusted or sunday_epoch")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")

	for _, name := range []string{"root", "work-plan", "week-rule", "log-level", "log-format"} {
		settings.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}
	settings.SetEnvPrefix("CIIM")
	settings.AutomaticEnv()
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// loadConfig builds the configuration for a command run.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg *config.Config
	if _, err := os.Stat(cfgFile); err == nil {
		if cfg, err = config.Load(cfgFile); err != nil {
			return nil, err
		}
	} else if rootCmd.PersistentFlags().Changed("config") {
		return nil, fmt.Errorf("config file not found: %s", cfgFile)
	} else {
		cfg = config.Default()
	}

	override := func(key string, dst *string) {
		if v := strings.TrimSpace(settings.GetString(key)); v != "" {
			*dst = v
		}
	}
	override("root", &cfg.Root)
	override("work_plan", &cfg.WorkPlan)
	override("week_rule", &cfg.WeekRule)
	override("log_level", &cfg.LogLevel)
	override("log_format", &cfg.LogFormat)
	if verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// newLogger creates the logger configured for cfg, writing to stderr.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})
}

// newSession loads the configuration and opens a report session.
func newSession() (*report.Session, logging.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := newLogger(cfg)
	s, err := report.NewSession(cfg, report.WithLogger(log), report.WithConfirm(confirmOverwrite))
	if err != nil {
		return nil, nil, err
	}
	return s, log, nil
}
