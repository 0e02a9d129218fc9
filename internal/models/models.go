package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Category groups diagnostic probes by the area of the server they inspect.
type Category string

const (
	CategoryDataQuality       Category = "data_quality"
	CategoryProcessMonitoring Category = "process_monitoring"
	CategoryPerformanceSchema Category = "performance_schema"
	CategorySlowQuery         Category = "slow_query"
	CategorySizeIndex         Category = "size_index"
	CategoryAppointmentLookup Category = "appointment_lookup"
	CategoryGlobalStatus      Category = "global_status"
	CategoryHealthCheck       Category = "health_check"
	CategoryDeadlockAudit     Category = "deadlock_audit"
	CategoryBufferPool        Category = "buffer_pool"
)

// Categories lists every probe category in catalog order.
func Categories() []Category {
	return []Category{
		CategoryHealthCheck,
		CategoryGlobalStatus,
		CategoryBufferPool,
		CategoryDeadlockAudit,
		CategoryProcessMonitoring,
		CategorySlowQuery,
		CategoryPerformanceSchema,
		CategorySizeIndex,
		CategoryDataQuality,
		CategoryAppointmentLookup,
	}
}

// ValueKind declares how a raw column value is interpreted during
// normalization. Duration kinds are all canonicalized to seconds.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
	KindPercent
	KindSeconds
	KindMilliseconds
	KindMicroseconds
	KindPicoseconds
)

// IsDuration reports whether the kind is a duration counter.
func (k ValueKind) IsDuration() bool {
	switch k {
	case KindSeconds, KindMilliseconds, KindMicroseconds, KindPicoseconds:
		return true
	}
	return false
}

// Aggregate selects how a row-set column folds into a single metric.
type Aggregate int

const (
	AggregateNone Aggregate = iota
	AggregateMax
	AggregateSum
)

// ProbeMode declares the result shape a probe produces.
type ProbeMode int

const (
	// ModeScalar: a single row, one metric per declared column.
	ModeScalar ProbeMode = iota
	// ModeKeyValue: two-column name/value rows, one metric per row
	// (SHOW GLOBAL STATUS style).
	ModeKeyValue
	// ModeRowSet: arbitrary rows, a row-count metric plus per-column
	// aggregates.
	ModeRowSet
)

// ColumnSpec is one entry of a probe's declared result schema. Unit is
// optional display metadata; percent and duration kinds imply their own.
type ColumnSpec struct {
	Name      string
	Kind      ValueKind
	Aggregate Aggregate
	Unit      string
}

// Probe is a single named read-only diagnostic query with a declared
// expected result shape. Probes are immutable once registered.
type Probe struct {
	ID       string
	Category Category
	Query    string
	Mode     ProbeMode
	Columns  []ColumnSpec
	Timeout  time.Duration
	// MetricPrefix names the metrics derived from this probe. Defaults to
	// the probe ID when empty.
	MetricPrefix string
}

// Prefix returns the metric name prefix for this probe.
func (p Probe) Prefix() string {
	if p.MetricPrefix != "" {
		return p.MetricPrefix
	}
	return p.ID
}

// Value is a typed scalar captured from a result column.
type Value struct {
	Kind  ValueKind
	Null  bool
	Int   int64
	Float float64
	Str   string
}

// NullValue returns an explicit null marker.
func NullValue() Value {
	return Value{Null: true}
}

// IntValue wraps an integer scalar.
func IntValue(v int64) Value {
	return Value{Kind: KindInt, Int: v}
}

// FloatValue wraps a float scalar.
func FloatValue(v float64) Value {
	return Value{Kind: KindFloat, Float: v}
}

// StringValue wraps a string scalar.
func StringValue(v string) Value {
	return Value{Kind: KindString, Str: v}
}

// SecondsValue wraps a duration already canonicalized to seconds.
func SecondsValue(v float64) Value {
	return Value{Kind: KindSeconds, Float: v}
}

// Float64 returns the numeric value and whether the value is numeric.
func (v Value) Float64() (float64, bool) {
	if v.Null {
		return 0, false
	}
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat, KindPercent, KindSeconds, KindMilliseconds, KindMicroseconds, KindPicoseconds:
		return v.Float, true
	}
	return 0, false
}

// Text renders the value for messages and the text report.
func (v Value) Text() string {
	if v.Null {
		return "null"
	}
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindString:
		return v.Str
	default:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	}
}

// MarshalJSON renders null as JSON null and numbers as JSON numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Null {
		return []byte("null"), nil
	}
	switch v.Kind {
	case KindInt:
		return json.Marshal(v.Int)
	case KindString:
		return json.Marshal(v.Str)
	default:
		return json.Marshal(v.Float)
	}
}

// UnmarshalJSON accepts JSON null, numbers, and strings, the shapes
// MarshalJSON emits. Integral numbers decode as integers.
func (v *Value) UnmarshalJSON(data []byte) error {
	text := string(data)
	if text == "null" {
		*v = NullValue()
		return nil
	}
	if len(text) > 0 && text[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		*v = IntValue(i)
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("value must be null, a number, or a string: %s", text)
	}
	*v = FloatValue(f)
	return nil
}

// Row maps result column names to raw captured values.
type Row map[string]Value

// Outcome classifies a single probe execution.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeError     Outcome = "error"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeSkipped   Outcome = "skipped"
)

// ExecutionResult is the outcome of running one probe once. Rows carry raw
// string/null values keyed by server column names; the normalizer coerces
// them against the probe's declared schema.
type ExecutionResult struct {
	ProbeID   string
	StartedAt time.Time
	Rows      []Row
	Duration  time.Duration
	Outcome   Outcome
	Err       string
}

// Success reports whether the execution produced usable rows.
func (r ExecutionResult) Success() bool {
	return r.Outcome == OutcomeSuccess
}

// Metric is a normalized numeric or categorical fact derived from probe
// results.
type Metric struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
	Unit  string `json:"unit,omitempty"`
	Probe string `json:"probe"`
}

// Severity orders finding levels from informational to critical.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// MarshalJSON renders the severity as its string name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a severity from its string name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "info":
		*s = SeverityInfo
	case "warning":
		*s = SeverityWarning
	case "critical":
		*s = SeverityCritical
	default:
		return fmt.Errorf("unknown severity: %q", name)
	}
	return nil
}

// Finding is the output of comparing a Metric to a configured threshold.
type Finding struct {
	Metric    string   `json:"metric"`
	Severity  Severity `json:"severity"`
	Observed  Value    `json:"observed"`
	Threshold string   `json:"threshold"`
	Rule      string   `json:"rule"`
	Message   string   `json:"message"`
	Probe     string   `json:"probe,omitempty"`
}

// ClientPeer is a database client observed in the processlist, optionally
// resolved to a Kubernetes workload.
type ClientPeer struct {
	Addr      string `json:"addr"`
	Service   string `json:"service,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Pod       string `json:"pod,omitempty"`
	Sessions  uint64 `json:"sessions"`
}
