/*
dispo - disposition settlement engine

COMMANDS:
  dispo serve                        Run the HTTP API
  dispo parse <file> [--csv]         Print parsed assignments as JSON
  dispo settle <file> [--csv] [--report]
                                     Print settlements (or the aggregated
                                     report) as JSON

  <file> may be "-" to read standard input.

CONFIGURATION:
  --config points at a TOML file with [server], [[employees]] and [[rules]]
  sections. A .env file in the working directory and the DISPO_* variables
  override it. See config/config.go.

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Settings and roster
*/
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/disposition-engine/config"
	"github.com/warp/disposition-engine/disposition"
	"github.com/warp/disposition-engine/settlement"
)

var rootCmd = &cobra.Command{
	Use:           "dispo",
	Short:         "Parse personnel dispositions and compute surcharge settlements",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a disposition file and print the assignments",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var settleCmd = &cobra.Command{
	Use:   "settle <file>",
	Short: "Parse a disposition file and print its settlements",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettle,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file")

	serveCmd.Flags().Int("port", 0, "HTTP server port (overrides config)")

	parseCmd.Flags().Bool("csv", false, "Input is comma-separated with a header line")
	settleCmd.Flags().Bool("csv", false, "Input is comma-separated with a header line")
	settleCmd.Flags().Bool("report", false, "Print the aggregated report instead of single settlements")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(settleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newEngine builds the engine from config. Skipped assignments are logged to
// stderr so that stdout stays valid JSON.
func newEngine(cmd *cobra.Command, cfg *config.Config) (*settlement.Engine, *settlement.MemoryDirectory, error) {
	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	engine, dir, err := cfg.BuildEngine(settlement.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("building engine: %w", err)
	}
	return engine, dir, nil
}

func readInput(cmd *cobra.Command, name string) (disposition.Format, disposition.ParseReport, error) {
	format := disposition.FormatDelimited
	if csv, _ := cmd.Flags().GetBool("csv"); csv {
		format = disposition.FormatCSV
	}

	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", disposition.ParseReport{}, fmt.Errorf("reading input: %w", err)
	}
	return format, disposition.Parse(format, string(data)), nil
}
