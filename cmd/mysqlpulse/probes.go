package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbaops/mysqlpulse/internal/models"
	"github.com/dbaops/mysqlpulse/pkg/config"
)

// NewProbesCmd creates the probes command
func NewProbesCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "probes",
		Short: "List the builtin probe catalog",
		Long: `List every builtin diagnostic probe with its category, result mode,
and timeout. The same --categories and --exclude selection flags as the
check command apply.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Normalize()
			return runProbes(cmd, cfg)
		},
	}

	cmd.Flags().StringSliceVar(&cfg.Categories, "categories", nil, "Probe categories to list (default: all)")
	cmd.Flags().StringSliceVar(&cfg.ExcludeProbes, "exclude", nil, "Probe IDs or name segments to exclude")
	cmd.Flags().StringSliceVar(&cfg.ExcludeFilters, "exclude-categories", nil, "Probe categories to exclude")

	return cmd
}

func runProbes(cmd *cobra.Command, cfg *config.Config) error {
	probes := selectProbes(cfg)
	if len(probes) == 0 {
		return fmt.Errorf("no probes match the selection")
	}

	cmd.Printf("%-36s %-20s %-10s %s\n", "PROBE", "CATEGORY", "MODE", "TIMEOUT")
	cmd.Println(strings.Repeat("-", 78))
	for _, probe := range probes {
		timeout := "default"
		if probe.Timeout > 0 {
			timeout = probe.Timeout.String()
		}
		cmd.Printf("%-36s %-20s %-10s %s\n", probe.ID, probe.Category, probeModeName(probe.Mode), timeout)
	}
	cmd.Printf("\n%d probes in %d categories\n", len(probes), countCategories(probes))

	return nil
}

func probeModeName(mode models.ProbeMode) string {
	switch mode {
	case models.ModeKeyValue:
		return "keyvalue"
	case models.ModeRowSet:
		return "rowset"
	default:
		return "scalar"
	}
}

func countCategories(probes []models.Probe) int {
	seen := make(map[models.Category]struct{})
	for _, probe := range probes {
		seen[probe.Category] = struct{}{}
	}
	return len(seen)
}
