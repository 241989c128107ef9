package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bizlens/bizlens/internal/config"
	"github.com/bizlens/bizlens/internal/core"
	"github.com/bizlens/bizlens/internal/observability"
	"github.com/bizlens/bizlens/internal/output"
)

var requestCmd = &cobra.Command{
	Use:   "request <service> <path>",
	Short: "Issue a single request through the orchestrator",
	Long:  "Resolve one request against the named logical service, with failover across its configured endpoints",
	Args:  cobra.ExactArgs(2),
	RunE:  runRequest,
}

func init() {
	rootCmd.AddCommand(requestCmd)

	requestCmd.Flags().String("method", "GET", "HTTP method")
	requestCmd.Flags().StringSlice("param", nil, "query parameter as key=value (repeatable)")
	requestCmd.Flags().Int("ttl", 3600, "cache TTL in seconds (0 disables caching)")
	requestCmd.Flags().Bool("indent", true, "indent JSON output")
}

func runRequest(cmd *cobra.Command, args []string) error {
	service := strings.TrimSpace(args[0])
	path := strings.TrimSpace(args[1])
	if service == "" || path == "" {
		return errors.New("service and path are required")
	}

	method, err := cmd.Flags().GetString("method")
	if err != nil {
		return err
	}

	rawParams, err := cmd.Flags().GetStringSlice("param")
	if err != nil {
		return err
	}
	params, err := parseParams(rawParams)
	if err != nil {
		return err
	}

	ttlSeconds, err := cmd.Flags().GetInt("ttl")
	if err != nil {
		return err
	}

	indent, err := cmd.Flags().GetBool("indent")
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	orch := buildOrchestrator(cfg, observability.Logger())

	response := orch.Request(cmd.Context(), core.RequestSpec{
		Service:  service,
		Path:     path,
		Method:   method,
		Params:   params,
		CacheTTL: time.Duration(ttlSeconds) * time.Second,
	})

	formatter := &output.JSONFormatter{Indent: indent}
	rendered, err := formatter.Format(response)
	if err != nil {
		return err
	}
	fmt.Println(rendered)

	if !response.Success {
		return fmt.Errorf("request failed: %s", response.ErrorMessage)
	}
	return nil
}

func parseParams(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	params := make(map[string]string, len(raw))
	for _, pair := range raw {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}
