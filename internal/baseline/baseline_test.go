package baseline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dbaops/mysqlpulse/internal/models"
)

func sampleFindings() []models.Finding {
	return []models.Finding{
		{
			Metric:   "deadlocks.count",
			Severity: models.SeverityWarning,
			Observed: models.IntValue(42),
			Rule:     "warn_above",
		},
		{
			Metric:   "bufferpool.hit_rate_percent",
			Severity: models.SeverityCritical,
			Observed: models.FloatValue(91.2),
			Rule:     "crit_below",
		},
	}
}

func TestLoadMissingFileReturnsEmptySet(t *testing.T) {
	set, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %d entries", len(set))
	}
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	if _, err := Load("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := os.WriteFile(path, []byte(`{"version": 7, "fingerprints": []}`), 0644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unsupported version")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "baseline.json")

	set := Set{}
	AddAll(set, CollectFingerprints(sampleFindings()))
	AddAll(set, []string{"", "zz-manual"})

	if err := Save(path, set); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 fingerprints, got %d", len(loaded))
	}

	sorted := Sorted(loaded)
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1] >= sorted[i] {
			t.Fatalf("fingerprints not sorted: %v", sorted)
		}
	}
}

func TestFingerprintIgnoresObservedValue(t *testing.T) {
	a := models.Finding{Metric: "deadlocks.count", Severity: models.SeverityWarning, Rule: "warn_above", Observed: models.IntValue(1)}
	b := a
	b.Observed = models.IntValue(900)

	if Fingerprint(a) != Fingerprint(b) {
		t.Fatalf("fingerprint must be stable across observed values")
	}

	b.Severity = models.SeverityCritical
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("severity change must produce a new fingerprint")
	}
}

func TestSuppressKnown(t *testing.T) {
	findings := sampleFindings()

	known := Set{}
	AddAll(known, []string{Fingerprint(findings[0])})

	remaining, suppressed := SuppressKnown(findings, known)
	if suppressed != 1 {
		t.Fatalf("expected 1 suppressed finding, got %d", suppressed)
	}
	if len(remaining) != 1 || remaining[0].Metric != "bufferpool.hit_rate_percent" {
		t.Fatalf("unexpected remaining findings: %+v", remaining)
	}

	remaining, suppressed = SuppressKnown(findings, Set{})
	if suppressed != 0 || len(remaining) != 2 {
		t.Fatalf("empty baseline must suppress nothing")
	}
}
