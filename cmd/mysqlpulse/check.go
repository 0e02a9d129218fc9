package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"github.com/dbaops/mysqlpulse/internal/baseline"
	"github.com/dbaops/mysqlpulse/internal/catalog"
	"github.com/dbaops/mysqlpulse/internal/engine"
	"github.com/dbaops/mysqlpulse/internal/evaluator"
	"github.com/dbaops/mysqlpulse/internal/k8s"
	"github.com/dbaops/mysqlpulse/internal/models"
	"github.com/dbaops/mysqlpulse/internal/normalizer"
	"github.com/dbaops/mysqlpulse/internal/reporter"
	"github.com/dbaops/mysqlpulse/pkg/config"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	cmd, _ := newCheckCmd()
	return cmd
}

func newCheckCmd() (*cobra.Command, *config.Config) {
	cfg := config.DefaultConfig()

	// String variables for custom duration parsing
	var queryTimeoutStr string
	var runTimeoutStr string
	var connWaitStr string
	var k8sCacheTTLStr string
	var configPath string

	cmd := &cobra.Command{
		Use:     "check",
		Aliases: []string{"collect"},
		Short:   "Run diagnostic probes and generate a report",
		Long: `Run the probe catalog against a MySQL server, evaluate the collected
metrics against thresholds, and write a status report.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			var fileCfg *config.FileConfig
			var err error

			if configPath != "" {
				fileCfg, err = config.LoadFile(configPath)
				if err != nil {
					return err
				}
			} else {
				fileCfg, _, err = config.AutoLoadFile()
				if err != nil {
					return err
				}
			}
			if fileCfg != nil {
				// Flags bound directly to non-zero defaults cannot rely on
				// ApplyTo's zero-value convention; clear the file value when
				// the flag was set explicitly so the flag wins.
				if cmd.Flags().Changed("format") {
					fileCfg.Format = ""
				}
				if cmd.Flags().Changed("workers") {
					fileCfg.Workers = nil
				}
				if err := fileCfg.ApplyTo(cfg); err != nil {
					return err
				}
			}

			if queryTimeoutStr != "" {
				cfg.QueryTimeout, err = config.ParseDuration(queryTimeoutStr)
				if err != nil {
					return fmt.Errorf("invalid --query-timeout duration: %w", err)
				}
			}
			if runTimeoutStr != "" {
				cfg.RunTimeout, err = config.ParseDuration(runTimeoutStr)
				if err != nil {
					return fmt.Errorf("invalid --run-timeout duration: %w", err)
				}
			}
			if connWaitStr != "" {
				cfg.ConnWait, err = config.ParseDuration(connWaitStr)
				if err != nil {
					return fmt.Errorf("invalid --conn-wait duration: %w", err)
				}
			}
			if k8sCacheTTLStr != "" {
				cfg.K8sCacheTTL, err = config.ParseDuration(k8sCacheTTLStr)
				if err != nil {
					return fmt.Errorf("invalid --k8s-cache-ttl duration: %w", err)
				}
			}

			switch cfg.Format {
			case "", "json", "text", "sarif":
			default:
				return fmt.Errorf("invalid --format value: %q (expected json, text, or sarif)", cfg.Format)
			}

			if cfg.DSN == "" {
				return fmt.Errorf("--dsn is required")
			}

			cfg.Normalize()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cfg)
		},
	}

	// MySQL flags
	cmd.Flags().StringVar(&cfg.DSN, "dsn", "", "MySQL DSN, e.g. user:pass@tcp(host:3306)/information_schema (required)")
	cmd.Flags().StringVar(&cfg.Target, "target", "", "Target label for the report (default: host from DSN)")
	cmd.Flags().StringVar(&queryTimeoutStr, "query-timeout", "", "Default per-probe query timeout (e.g., 30s, 2m)")
	cmd.Flags().StringVar(&connWaitStr, "conn-wait", "", "Max wait for a pooled connection before skipping a probe")
	cmd.Flags().IntVar(&cfg.MaxOpenConns, "max-conns", cfg.MaxOpenConns, "Max open connections to the server")

	// Selection flags
	cmd.Flags().StringSliceVar(&cfg.Categories, "categories", nil, "Probe categories to run (default: all)")
	cmd.Flags().StringSliceVar(&cfg.ExcludeProbes, "exclude", nil, "Probe IDs or name segments to exclude")
	cmd.Flags().StringSliceVar(&cfg.ExcludeFilters, "exclude-categories", nil, "Probe categories to exclude")

	// Kubernetes flags
	cmd.Flags().BoolVar(&cfg.ResolveK8s, "resolve-k8s", false, "Resolve processlist client IPs to Kubernetes workloads")
	cmd.Flags().StringVar(&cfg.KubeConfig, "kubeconfig", "", "Path to kubeconfig (default: ~/.kube/config)")
	cmd.Flags().StringVar(&k8sCacheTTLStr, "k8s-cache-ttl", "", "Kubernetes cache TTL (e.g., 5m, 10m, 1h)")
	cmd.Flags().IntVar(&cfg.K8sRateLimit, "k8s-rate-limit", cfg.K8sRateLimit, "Kubernetes API rate limit (requests/sec)")

	// Concurrency flags
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "Probe worker pool size")
	cmd.Flags().StringVar(&runTimeoutStr, "run-timeout", "", "Overall collection deadline (e.g., 5m)")

	// Output flags
	cmd.Flags().StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Output directory")
	cmd.Flags().StringVar(&cfg.Format, "format", cfg.Format, "Output format (json, text, sarif)")

	// Baseline flags
	cmd.Flags().StringVar(&cfg.BaselinePath, "baseline", "", "Baseline file for suppressing known findings")
	cmd.Flags().BoolVar(&cfg.UpdateBaseline, "update-baseline", false, "Record current findings into the baseline file")

	// Operational flags
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a .mysqlpulse.yaml config file")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "Verbose logging")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Dry run mode (don't write output)")

	return cmd, cfg
}

// runCheck executes the collection workflow
func runCheck(cfg *config.Config) error {
	startTime := time.Now()
	ctx := context.Background()

	slog.Debug("starting collection",
		slog.String("dsn", maskDSN(cfg.DSN)),
		slog.Int("workers", cfg.Workers),
		slog.Duration("run_timeout", cfg.RunTimeout),
		slog.Bool("resolve_k8s", cfg.ResolveK8s),
	)

	// 1. Connect to MySQL
	fmt.Println("🔌 Connecting to MySQL...")
	client, err := engine.NewMySQLClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	defer client.Close()

	target := cfg.Target
	if target == "" {
		target = client.Addr()
	}

	// 2. Initialize K8s resolver (if enabled)
	var resolver k8s.Resolver
	if cfg.ResolveK8s {
		fmt.Println("☸️  Connecting to Kubernetes...")
		resolver, err = k8s.NewResolver(cfg)
		if err != nil {
			slog.Warn("failed to initialize Kubernetes resolver, continuing without resolution",
				slog.String("error", err.Error()))
			cfg.ResolveK8s = false
			resolver = nil
		}
	}

	// 3. Select and run probes
	probes := selectProbes(cfg)
	if len(probes) == 0 {
		return fmt.Errorf("no probes selected: check --categories and --exclude values")
	}

	fmt.Printf("📊 Running %d probes...\n", len(probes))
	eng := engine.New(client, cfg.Workers, cfg.RunTimeout)
	results := eng.RunAll(ctx, probes)

	// 4. Normalize results into metrics
	metrics, mismatches := normalizer.NormalizeAll(results, probes)
	fmt.Printf("✓ Collected %d metrics\n", len(metrics))

	// 5. Evaluate thresholds
	rules := evaluator.BuildRules(cfg.Thresholds)
	findings := evaluator.Evaluate(metrics, rules)

	// 6. Resolve client peers from the processlist
	var peers []models.ClientPeer
	if rows := processListRows(results, probes); len(rows) > 0 {
		peers = k8s.ResolvePeers(ctx, resolver, rows)
	}
	if resolver != nil {
		defer resolver.Close()
	}

	// 7. Apply baseline suppression
	suppressed := 0
	if cfg.BaselinePath != "" || cfg.UpdateBaseline {
		findings, suppressed, err = applyBaseline(cfg, findings)
		if err != nil {
			return err
		}
	}

	// 8. Assemble and write the report
	report := reporter.Assemble(reporter.Input{
		Version:            version,
		Target:             target,
		Probes:             probes,
		Results:            results,
		Metrics:            metrics,
		Findings:           findings,
		Clients:            peers,
		SchemaMismatches:   mismatches,
		Workers:            cfg.Workers,
		K8sResolution:      cfg.ResolveK8s,
		BaselineSuppressed: suppressed,
		Elapsed:            time.Since(startTime),
	})

	if !cfg.DryRun {
		fmt.Println("📝 Writing report...")
		if err := reporter.New(cfg).Generate(report); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		fmt.Printf("✓ Report written to: %s\n", cfg.OutputDir)
	} else {
		fmt.Println("🏃 Dry run mode - skipping output")
	}

	fmt.Printf("\n✅ Collection complete in %s: status=%s findings=%d\n",
		time.Since(startTime).Round(time.Millisecond), report.Status, len(findings))
	if report.Incomplete {
		fmt.Printf("⚠️  Report is incomplete: %d probes failed, %d skipped\n",
			report.Metadata.ProbesFailed, len(report.SkippedProbes))
	}

	if len(findings) > 0 {
		return &FindingsError{Count: len(findings)}
	}
	return nil
}

// selectProbes filters the builtin catalog by category includes and probe
// excludes, preserving registration order.
func selectProbes(cfg *config.Config) []models.Probe {
	all := catalog.Builtin().List()
	selected := make([]models.Probe, 0, len(all))
	for _, probe := range all {
		category := string(probe.Category)
		if !cfg.IsCategorySelected(category) {
			continue
		}
		if cfg.IsProbeExcluded(probe.ID, category) {
			continue
		}
		selected = append(selected, probe)
	}
	return selected
}

// processListRows extracts the raw rows of the processlist probe, if it ran.
func processListRows(results []models.ExecutionResult, probes []models.Probe) []models.Row {
	for i, probe := range probes {
		if probe.ID != catalog.ProbeProcessList {
			continue
		}
		if i < len(results) && results[i].Success() {
			return results[i].Rows
		}
		return nil
	}
	return nil
}

// applyBaseline suppresses known findings and optionally records the
// current findings for future runs.
func applyBaseline(cfg *config.Config, findings []models.Finding) ([]models.Finding, int, error) {
	path := cfg.BaselinePath
	if path == "" {
		path = baseline.DefaultPath
	}

	known, err := baseline.Load(path)
	if err != nil {
		return nil, 0, err
	}

	if cfg.UpdateBaseline {
		baseline.AddAll(known, baseline.CollectFingerprints(findings))
		if err := baseline.Save(path, known); err != nil {
			return nil, 0, err
		}
		slog.Debug("baseline updated", slog.String("path", path), slog.Int("fingerprints", len(known)))
	}

	remaining, suppressed := baseline.SuppressKnown(findings, known)
	if suppressed > 0 {
		slog.Debug("baseline suppressed findings", slog.Int("count", suppressed))
	}
	return remaining, suppressed, nil
}

// maskDSN hides credentials when the DSN is echoed in logs.
func maskDSN(dsn string) string {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "***"
	}
	if parsed.Passwd != "" {
		parsed.Passwd = "***"
	}
	return parsed.FormatDSN()
}
