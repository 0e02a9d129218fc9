package reporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dbaops/mysqlpulse/internal/models"
	"github.com/dbaops/mysqlpulse/pkg/config"
)

func assertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", needle, haystack)
	}
}

func sampleReport() *models.Report {
	return &models.Report{
		Tool:        "mysqlpulse",
		Version:     "1.2.3",
		GeneratedAt: time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC),
		Target:      "db.internal:3306",
		Status:      models.SeverityWarning,
		Incomplete:  true,
		SkippedProbes: []string{
			"size.unused_indexes",
		},
		Findings: []models.Finding{
			{
				Metric:    "deadlocks.count",
				Severity:  models.SeverityWarning,
				Observed:  models.IntValue(42),
				Threshold: "0",
				Rule:      "warn_above",
				Message:   "deadlocks.count is 42, above warning threshold 0",
				Probe:     "deadlocks.count",
			},
		},
		Metrics: []models.Metric{
			{Name: "deadlocks.count", Value: models.IntValue(42), Probe: "deadlocks.count"},
		},
		Probes: []models.ProbeStatus{
			{ID: "health.ping", Category: models.CategoryHealthCheck, Outcome: models.OutcomeSuccess, Duration: "12ms"},
			{ID: "deadlocks.count", Category: models.CategoryDeadlockAudit, Outcome: models.OutcomeSuccess, Duration: "35ms"},
			{ID: "size.unused_indexes", Category: models.CategorySizeIndex, Outcome: models.OutcomeSkipped},
		},
		Clients: []models.ClientPeer{
			{Addr: "10.0.0.1", Service: "api", Namespace: "prod", Sessions: 4},
		},
		Metadata: models.Metadata{
			CollectionDuration: "520ms",
			ProbesTotal:        3,
			ProbesSucceeded:    2,
			WorkerCount:        4,
		},
	}
}

func TestWriteTextProducesReadableOutput(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()

	var out bytes.Buffer
	if err := writeText(sampleReport(), cfg, &out); err != nil {
		t.Fatalf("writeText failed: %v", err)
	}

	textOutput := out.String()
	assertContains(t, textOutput, "MySQLPulse Diagnostics Report")
	assertContains(t, textOutput, "Target: db.internal:3306")
	assertContains(t, textOutput, "Status: warning")
	assertContains(t, textOutput, "Incomplete: yes")
	assertContains(t, textOutput, "Probes: 3 total, 2 succeeded, 0 failed, 1 skipped")
	assertContains(t, textOutput, "deadlocks.count is 42, above warning threshold 0")
	assertContains(t, textOutput, "prod/api")
	assertContains(t, textOutput, "sessions=4")

	if strings.Contains(textOutput, textANSIBold) {
		t.Fatalf("buffered output must not contain ANSI sequences")
	}

	written, err := os.ReadFile(filepath.Join(cfg.OutputDir, "report.txt"))
	if err != nil {
		t.Fatalf("failed to read report.txt: %v", err)
	}
	if string(written) != textOutput {
		t.Fatalf("report.txt content must match streamed output")
	}
}

func TestWriteTextNilInputs(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()

	var out bytes.Buffer
	if err := writeText(nil, cfg, &out); err == nil {
		t.Fatalf("expected error for nil report")
	}
	if err := writeText(sampleReport(), nil, &out); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestRenderTextReportNoFindings(t *testing.T) {
	report := sampleReport()
	report.Findings = nil
	report.Clients = nil

	rendered := renderTextReport(report, false)
	assertContains(t, rendered, "No threshold breaches detected.")
	if strings.Contains(rendered, "Connected Clients") {
		t.Fatalf("client section must be omitted when no clients resolved")
	}
}
