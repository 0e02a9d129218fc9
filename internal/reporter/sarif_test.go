package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dbaops/mysqlpulse/internal/models"
	"github.com/dbaops/mysqlpulse/pkg/config"
)

func TestWriteSARIFStructure(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()

	report := sampleReport()
	report.Findings = append(report.Findings, models.Finding{
		Metric:    "bufferpool.hit_rate_percent",
		Severity:  models.SeverityCritical,
		Observed:  models.FloatValue(91.2),
		Threshold: "95",
		Rule:      "crit_below",
		Message:   "bufferpool.hit_rate_percent is 91.2%, below critical threshold 95",
		Probe:     "bufferpool.efficiency",
	})
	report.Probes = append(report.Probes, models.ProbeStatus{
		ID:       "slowquery.digests",
		Category: models.CategorySlowQuery,
		Outcome:  models.OutcomeTimeout,
		Error:    "probe timed out",
	})

	if err := WriteSARIF(report, cfg); err != nil {
		t.Fatalf("WriteSARIF failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "report.sarif"))
	if err != nil {
		t.Fatalf("failed to read report.sarif: %v", err)
	}

	var decoded sarifLog
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report.sarif is not valid JSON: %v", err)
	}

	if decoded.Version != "2.1.0" {
		t.Fatalf("expected SARIF version 2.1.0, got %q", decoded.Version)
	}
	if len(decoded.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(decoded.Runs))
	}

	run := decoded.Runs[0]
	if run.Tool.Driver.Name != "mysqlpulse" {
		t.Fatalf("unexpected driver name: %q", run.Tool.Driver.Name)
	}
	if run.Tool.Driver.SemanticVersion != "1.2.3" {
		t.Fatalf("expected semantic version 1.2.3, got %q", run.Tool.Driver.SemanticVersion)
	}

	// 2 findings + 1 failed probe; success and skipped probes emit nothing.
	if len(run.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(run.Results))
	}

	levelsByRule := make(map[string][]string)
	for _, result := range run.Results {
		levelsByRule[result.RuleID] = append(levelsByRule[result.RuleID], result.Level)
		if len(result.PartialFingerprints) == 0 {
			t.Fatalf("result %q has no fingerprint", result.RuleID)
		}
	}

	breachLevels := levelsByRule[ruleThresholdBreach]
	if len(breachLevels) != 2 || breachLevels[0] != "warning" || breachLevels[1] != "error" {
		t.Fatalf("unexpected threshold breach levels: %v", breachLevels)
	}
	if got := levelsByRule[ruleProbeFailure]; len(got) != 1 || got[0] != "note" {
		t.Fatalf("unexpected probe failure levels: %v", got)
	}
}

func TestNormalizeSemanticVersion(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{input: "1.2.3", expected: "1.2.3"},
		{input: "v1.2.3", expected: "1.2.3"},
		{input: "1.2.3-rc.1", expected: "1.2.3-rc.1"},
		{input: "dev", expected: ""},
		{input: "", expected: ""},
	}

	for _, tc := range cases {
		if got := normalizeSemanticVersion(tc.input); got != tc.expected {
			t.Fatalf("normalizeSemanticVersion(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestGenerateDispatchesOnFormat(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Format = "sarif"

	if err := New(cfg).Generate(sampleReport()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, name := range []string{"report.json", "report.sarif"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); err != nil {
			t.Fatalf("expected %s to be written: %v", name, err)
		}
	}

	cfg.Format = "yaml"
	if err := New(cfg).Generate(sampleReport()); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
