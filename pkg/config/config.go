package config

import "time"

// Config holds all runtime configuration
type Config struct {
	// MySQL settings
	DSN          string
	Target       string
	QueryTimeout time.Duration
	ConnWait     time.Duration
	MaxOpenConns int

	// Catalog selection
	Categories     []string
	ExcludeProbes  []string
	ExcludeFilters []string

	// Threshold rules keyed by metric name. Nil means defaults apply;
	// an empty map clears every default.
	Thresholds map[string]ThresholdRule

	// Kubernetes settings
	ResolveK8s   bool
	KubeConfig   string
	K8sCacheTTL  time.Duration
	K8sRateLimit int

	// Concurrency settings
	Workers    int
	RunTimeout time.Duration

	// Output settings
	OutputDir string
	Format    string

	// Baseline settings
	BaselinePath   string
	UpdateBaseline bool

	// Operational flags
	Verbose bool
	DryRun  bool
}

// ThresholdRule is one configurable threshold for a single metric. Numeric
// bounds apply to numeric metrics; equality values apply to string metrics.
type ThresholdRule struct {
	WarnAbove  *float64 `yaml:"warn_above,omitempty"`
	CritAbove  *float64 `yaml:"crit_above,omitempty"`
	WarnBelow  *float64 `yaml:"warn_below,omitempty"`
	CritBelow  *float64 `yaml:"crit_below,omitempty"`
	WarnEquals *string  `yaml:"warn_equals,omitempty"`
	CritEquals *string  `yaml:"crit_equals,omitempty"`
}

// Empty reports whether the rule carries no condition at all.
func (r ThresholdRule) Empty() bool {
	return r.WarnAbove == nil && r.CritAbove == nil &&
		r.WarnBelow == nil && r.CritBelow == nil &&
		r.WarnEquals == nil && r.CritEquals == nil
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		QueryTimeout: 30 * time.Second,
		ConnWait:     5 * time.Second,
		MaxOpenConns: 6,
		ResolveK8s:   false,
		K8sCacheTTL:  5 * time.Minute,
		K8sRateLimit: 10,
		Workers:      4,
		RunTimeout:   5 * time.Minute,
		OutputDir:    "./report",
		Format:       "json",
		Verbose:      false,
		DryRun:       false,
	}
}
