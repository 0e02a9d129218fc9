package evaluator

import (
	"fmt"
	"strconv"

	"github.com/dbaops/mysqlpulse/internal/models"
	"github.com/dbaops/mysqlpulse/pkg/config"
)

// Evaluate compares metrics against the configured rules and produces at
// most one finding per metric. Critical conditions are checked before
// warnings: a value breaching both is reported once, at Critical. Null
// metric values never match a numeric rule.
func Evaluate(metrics []models.Metric, rules Rules) []models.Finding {
	var findings []models.Finding
	for _, metric := range metrics {
		rule, exists := rules[metric.Name]
		if !exists {
			continue
		}
		if finding, breached := evaluateOne(metric, rule); breached {
			findings = append(findings, finding)
		}
	}
	return findings
}

// WorstSeverity returns the maximum severity across findings, Info when
// there are none.
func WorstSeverity(findings []models.Finding) models.Severity {
	worst := models.SeverityInfo
	for _, finding := range findings {
		if finding.Severity > worst {
			worst = finding.Severity
		}
	}
	return worst
}

func evaluateOne(metric models.Metric, rule config.ThresholdRule) (models.Finding, bool) {
	if num, ok := metric.Value.Float64(); ok {
		return evaluateNumeric(metric, num, rule)
	}
	if metric.Value.Kind == models.KindString && !metric.Value.Null {
		return evaluateString(metric, rule)
	}
	return models.Finding{}, false
}

func evaluateNumeric(metric models.Metric, observed float64, rule config.ThresholdRule) (models.Finding, bool) {
	type check struct {
		threshold *float64
		severity  models.Severity
		name      string
		breached  func(observed, threshold float64) bool
	}

	above := func(observed, threshold float64) bool { return observed > threshold }
	below := func(observed, threshold float64) bool { return observed < threshold }

	// Crit before warn: a value breaching both reports once, at Critical.
	checks := []check{
		{rule.CritAbove, models.SeverityCritical, "crit_above", above},
		{rule.CritBelow, models.SeverityCritical, "crit_below", below},
		{rule.WarnAbove, models.SeverityWarning, "warn_above", above},
		{rule.WarnBelow, models.SeverityWarning, "warn_below", below},
	}

	for _, c := range checks {
		if c.threshold == nil || !c.breached(observed, *c.threshold) {
			continue
		}
		direction := "above"
		if c.name == "crit_below" || c.name == "warn_below" {
			direction = "below"
		}
		return models.Finding{
			Metric:    metric.Name,
			Severity:  c.severity,
			Observed:  metric.Value,
			Threshold: formatThreshold(*c.threshold),
			Rule:      c.name,
			Message: fmt.Sprintf("%s is %s, %s %s threshold %s%s",
				metric.Name, renderValue(metric), direction,
				c.severity, formatThreshold(*c.threshold), unitSuffix(metric.Unit)),
			Probe: metric.Probe,
		}, true
	}

	return models.Finding{}, false
}

func evaluateString(metric models.Metric, rule config.ThresholdRule) (models.Finding, bool) {
	// String metrics only support equality rules.
	type check struct {
		threshold *string
		severity  models.Severity
		name      string
	}

	checks := []check{
		{rule.CritEquals, models.SeverityCritical, "crit_equals"},
		{rule.WarnEquals, models.SeverityWarning, "warn_equals"},
	}

	for _, c := range checks {
		if c.threshold == nil || metric.Value.Str != *c.threshold {
			continue
		}
		return models.Finding{
			Metric:    metric.Name,
			Severity:  c.severity,
			Observed:  metric.Value,
			Threshold: *c.threshold,
			Rule:      c.name,
			Message: fmt.Sprintf("%s is %q, matching %s condition",
				metric.Name, metric.Value.Str, c.severity),
			Probe: metric.Probe,
		}, true
	}

	return models.Finding{}, false
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func renderValue(metric models.Metric) string {
	return metric.Value.Text() + unitSuffix(metric.Unit)
}

func unitSuffix(unit string) string {
	switch unit {
	case "":
		return ""
	case "%":
		return "%"
	default:
		return " " + unit
	}
}
