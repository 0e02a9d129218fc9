package evaluator

import (
	"github.com/dbaops/mysqlpulse/pkg/config"
)

// Rules maps metric names to their configured thresholds. Metrics without a
// rule produce no finding; they are still carried in the report's raw
// metric list.
type Rules map[string]config.ThresholdRule

func floatPtr(v float64) *float64 { return &v }

// DefaultRules returns illustrative operational thresholds. They are
// defaults only: configuration can override or clear every one of them.
func DefaultRules() Rules {
	return Rules{
		"bufferpool.hit_rate_percent": {
			WarnBelow: floatPtr(99.0),
			CritBelow: floatPtr(95.0),
		},
		"deadlocks.count": {
			WarnAbove: floatPtr(0),
		},
		"status.innodb_row_lock_waits": {
			WarnAbove: floatPtr(0),
		},
		"status.slow_queries": {
			WarnAbove: floatPtr(100),
			CritAbove: floatPtr(1000),
		},
		"status.aborted_connects": {
			WarnAbove: floatPtr(50),
		},
		"process.time_max": {
			WarnAbove: floatPtr(60),
			CritAbove: floatPtr(600),
		},
		"size.unused_indexes.count": {
			WarnAbove: floatPtr(0),
		},
		"dataquality.orphan_appointments.total": {
			WarnAbove: floatPtr(0),
		},
	}
}

// BuildRules merges configured overrides onto the defaults. A nil override
// map keeps the defaults; a non-nil map replaces rules per metric, and an
// empty rule for a metric clears its default entirely. An empty non-nil map
// with no entries keeps defaults untouched only for metrics it does not
// name.
func BuildRules(overrides map[string]config.ThresholdRule) Rules {
	rules := DefaultRules()
	for metric, rule := range overrides {
		if rule.Empty() {
			delete(rules, metric)
			continue
		}
		rules[metric] = rule
	}
	return rules
}
