package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bizlens/bizlens/internal/config"
	"github.com/bizlens/bizlens/internal/observability"
	"github.com/bizlens/bizlens/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configured services and endpoint health",
	Long:  "Validate the configuration and render the status report for the configured services and endpoints",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().String("output", "table", "Output format: table, json, yaml")
}

func runStatus(cmd *cobra.Command, args []string) error {
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	orch := buildOrchestrator(cfg, observability.Logger())
	report := orch.StatusReport()

	var rendered string
	switch format {
	case output.FormatJSON:
		formatter := &output.JSONFormatter{Indent: true}
		rendered, err = formatter.Format(report)
	case output.FormatYAML:
		formatter := &output.YAMLFormatter{}
		rendered, err = formatter.Format(report)
	default:
		formatter := &output.TableFormatter{}
		rendered, err = formatter.FormatStatus(&report)
	}
	if err != nil {
		return err
	}

	if strings.TrimSpace(rendered) != "" {
		fmt.Println(rendered)
	}
	return nil
}
