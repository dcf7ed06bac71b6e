package main

import (
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/warp/disposition-engine/api"
)

func runParse(cmd *cobra.Command, args []string) error {
	format, report, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, api.NewParseResponse(format, report))
}

func runSettle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	engine, _, err := newEngine(cmd, cfg)
	if err != nil {
		return err
	}
	_, report, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	batch := engine.EvaluateBatchReport(report.Assignments)
	if asReport, _ := cmd.Flags().GetBool("report"); asReport {
		return printJSON(cmd, api.NewReportResponse(report, batch, engine.Now()))
	}
	return printJSON(cmd, api.NewSettlementsResponse(report, batch))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
