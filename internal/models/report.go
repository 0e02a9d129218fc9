package models

import "time"

// Report is the complete output structure for one collection run. It is
// immutable after assembly and handed to the renderers as-is.
type Report struct {
	Tool          string        `json:"tool"`
	Version       string        `json:"version"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Target        string        `json:"target"`
	Status        Severity      `json:"status"`
	Incomplete    bool          `json:"incomplete"`
	SkippedProbes []string      `json:"skipped_probes,omitempty"`
	Findings      []Finding     `json:"findings"`
	Metrics       []Metric      `json:"metrics"`
	Probes        []ProbeStatus `json:"probes"`
	Clients       []ClientPeer  `json:"clients,omitempty"`
	Metadata      Metadata      `json:"metadata"`
}

// ProbeStatus records the per-probe execution outcome in the report.
type ProbeStatus struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Outcome  Outcome  `json:"outcome"`
	Duration string   `json:"duration,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Metadata contains report generation info.
type Metadata struct {
	CollectionDuration string `json:"collection_duration"`
	ProbesTotal        int    `json:"probes_total"`
	ProbesSucceeded    int    `json:"probes_succeeded"`
	ProbesFailed       int    `json:"probes_failed"`
	SchemaMismatches   int    `json:"schema_mismatches"`
	WorkerCount        int    `json:"worker_count"`
	K8sResolution      bool   `json:"k8s_resolution_enabled"`
	BaselineSuppressed int    `json:"baseline_suppressed,omitempty"`
}
