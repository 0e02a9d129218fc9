package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbaops/mysqlpulse/internal/models"
	"github.com/dbaops/mysqlpulse/pkg/config"
)

const (
	textANSIReset = "\x1b[0m"
	textANSIBold  = "\x1b[1m"
)

// WriteText writes a human-readable text report to report.txt and stdout.
func WriteText(report *models.Report, cfg *config.Config) error {
	return writeText(report, cfg, os.Stdout)
}

func writeText(report *models.Report, cfg *config.Config, out io.Writer) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if out == nil {
		return fmt.Errorf("writer is nil")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rendered := renderTextReport(report, supportsANSI(out))
	outputPath := filepath.Join(cfg.OutputDir, "report.txt")

	if err := os.WriteFile(outputPath, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write report.txt: %w", err)
	}

	if _, err := io.WriteString(out, rendered); err != nil {
		return fmt.Errorf("failed to write text report to output: %w", err)
	}

	return nil
}

func renderTextReport(report *models.Report, useANSI bool) string {
	var b strings.Builder

	generatedAt := "unknown"
	if !report.GeneratedAt.IsZero() {
		generatedAt = report.GeneratedAt.UTC().Format(time.RFC3339)
	}

	target := strings.TrimSpace(report.Target)
	if target == "" {
		target = "unknown"
	}

	writeTextSectionHeader(&b, "MySQLPulse Diagnostics Report", useANSI)
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt)
	fmt.Fprintf(&b, "Target: %s\n", target)
	fmt.Fprintf(&b, "Status: %s\n", report.Status)
	if report.Incomplete {
		b.WriteString("Incomplete: yes (some probes did not run to completion)\n")
	}
	b.WriteString("\n")

	warnings, criticals := findingDistribution(report.Findings)
	writeTextSectionHeader(&b, "Summary", useANSI)
	fmt.Fprintf(&b, "Probes: %d total, %d succeeded, %d failed, %d skipped\n",
		report.Metadata.ProbesTotal,
		report.Metadata.ProbesSucceeded,
		report.Metadata.ProbesFailed,
		len(report.SkippedProbes),
	)
	fmt.Fprintf(&b, "Metrics collected: %d\n", len(report.Metrics))
	fmt.Fprintf(&b, "Findings: %d critical, %d warning\n", criticals, warnings)
	if report.Metadata.SchemaMismatches > 0 {
		fmt.Fprintf(&b, "Schema mismatches: %d rows dropped\n", report.Metadata.SchemaMismatches)
	}
	if report.Metadata.BaselineSuppressed > 0 {
		fmt.Fprintf(&b, "Baseline-suppressed findings: %d\n", report.Metadata.BaselineSuppressed)
	}
	fmt.Fprintf(&b, "Collection time: %s (%d workers)\n", report.Metadata.CollectionDuration, report.Metadata.WorkerCount)
	b.WriteString("\n")

	writeTextSectionHeader(&b, "Findings", useANSI)
	if len(report.Findings) == 0 {
		b.WriteString("No threshold breaches detected.\n")
	} else {
		b.WriteString("SEVERITY  METRIC                                       OBSERVED        THRESHOLD\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, finding := range report.Findings {
			fmt.Fprintf(
				&b,
				"%-9s %-44s %-15s %s %s\n",
				finding.Severity,
				truncateTextValue(finding.Metric, 44),
				finding.Observed.Text(),
				finding.Rule,
				finding.Threshold,
			)
		}
		b.WriteString("\n")
		for _, finding := range report.Findings {
			fmt.Fprintf(&b, "- %s\n", finding.Message)
		}
	}
	b.WriteString("\n")

	writeTextSectionHeader(&b, "Probe Outcomes", useANSI)
	b.WriteString("PROBE                                        CATEGORY             OUTCOME    TIME\n")
	b.WriteString("--------------------------------------------------------------------------------\n")
	for _, probe := range report.Probes {
		duration := probe.Duration
		if duration == "" {
			duration = "-"
		}
		fmt.Fprintf(
			&b,
			"%-44s %-20s %-10s %s\n",
			truncateTextValue(probe.ID, 44),
			probe.Category,
			probe.Outcome,
			duration,
		)
		if probe.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", probe.Error)
		}
	}

	if len(report.Clients) > 0 {
		b.WriteString("\n")
		writeTextSectionHeader(&b, "Connected Clients", useANSI)
		for _, client := range report.Clients {
			label := client.Addr
			if client.Service != "" {
				label = fmt.Sprintf("%s (%s/%s", client.Addr, client.Namespace, client.Service)
				if client.Pod != "" {
					label += " pod=" + client.Pod
				}
				label += ")"
			}
			fmt.Fprintf(&b, "- %s sessions=%d\n", label, client.Sessions)
		}
	}

	return b.String()
}

func writeTextSectionHeader(b *strings.Builder, title string, useANSI bool) {
	header := title
	if useANSI {
		header = textANSIBold + title + textANSIReset
	}
	fmt.Fprintf(b, "%s\n", header)
	fmt.Fprintf(b, "%s\n", strings.Repeat("-", len(title)))
}

func supportsANSI(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}

	info, err := file.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

func truncateTextValue(value string, width int) string {
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

func findingDistribution(findings []models.Finding) (int, int) {
	warnings := 0
	criticals := 0
	for _, finding := range findings {
		switch finding.Severity {
		case models.SeverityWarning:
			warnings++
		case models.SeverityCritical:
			criticals++
		}
	}
	return warnings, criticals
}
