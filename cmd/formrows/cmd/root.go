package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	workers   int
	wkt       bool
)

// outputWriter receives command output (rows, reports); tests replace it.
var outputWriter io.Writer = os.Stdout

func setOutputWriter(w io.Writer) {
	outputWriter = w
}

func resetOutputWriter() {
	outputWriter = os.Stdout
}

var rootCmd = &cobra.Command{
	Use:   "formrows",
	Short: "Form submission to table rows converter",
	Long: `A CLI for turning XML form submissions into flat table rows.

Each form is described by a schema of typed fields. The root table holds one
row per submission; every repeat group becomes its own table with one row per
repeat instance, linked to its parent by a stable hashed id.

Features:
  - Stream conversion of a single submission file, no database needed
  - Submission store on MySQL or SQLite with attachment tracking
  - Parallel export to CSV, JSON or a zip with one CSV per table
  - Geopoints as GeoJSON points or WKT`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "formrows.yaml",
		"Path to configuration file")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0,
		"Override number of parallel conversion workers")
	rootCmd.PersistentFlags().BoolVar(&wkt, "wkt", false,
		"Render geopoints as WKT strings instead of GeoJSON")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	Workers   int
	WKT       bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		Workers:   workers,
		WKT:       wkt,
	}
}
