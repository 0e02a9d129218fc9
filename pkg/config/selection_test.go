package config

import "testing"

func TestIsCategorySelected(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsCategorySelected("deadlock_audit") {
		t.Fatalf("empty include list must select every category")
	}

	cfg.Categories = []string{"health_check", "buffer_*"}
	cfg.Normalize()

	cases := []struct {
		category string
		expected bool
	}{
		{category: "health_check", expected: true},
		{category: "HEALTH_CHECK", expected: true},
		{category: "buffer_pool", expected: true},
		{category: "deadlock_audit", expected: false},
		{category: "", expected: false},
	}

	for _, tc := range cases {
		if got := cfg.IsCategorySelected(tc.category); got != tc.expected {
			t.Fatalf("IsCategorySelected(%q) = %v, expected %v", tc.category, got, tc.expected)
		}
	}
}

func TestIsProbeExcluded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExcludeProbes = []string{"slowquery", "size.unused_indexes", "dataquality.*"}
	cfg.ExcludeFilters = []string{"appointment_lookup"}
	cfg.Normalize()

	cases := []struct {
		probeID  string
		category string
		expected bool
	}{
		{probeID: "slowquery.digests", category: "slow_query", expected: true},
		{probeID: "size.unused_indexes", category: "size_index", expected: true},
		{probeID: "size.schema_bytes", category: "size_index", expected: false},
		{probeID: "dataquality.orphan_appointments", category: "data_quality", expected: true},
		{probeID: "appointments.by_status", category: "appointment_lookup", expected: true},
		{probeID: "health.ping", category: "health_check", expected: false},
		{probeID: "", category: "health_check", expected: false},
	}

	for _, tc := range cases {
		if got := cfg.IsProbeExcluded(tc.probeID, tc.category); got != tc.expected {
			t.Fatalf("IsProbeExcluded(%q, %q) = %v, expected %v", tc.probeID, tc.category, got, tc.expected)
		}
	}
}

func TestNormalizeDropsEmptyPatterns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Categories = []string{" Health_Check ", "", "  "}
	cfg.Normalize()

	if len(cfg.Categories) != 1 || cfg.Categories[0] != "health_check" {
		t.Fatalf("unexpected normalized categories: %v", cfg.Categories)
	}
}
