package normalizer

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dbaops/mysqlpulse/internal/models"
)

// SchemaMismatchError reports a single row whose shape or types disagree
// with the probe's declared schema. Mismatches are recovered at row
// granularity: remaining rows are still processed.
type SchemaMismatchError struct {
	Probe  string
	Row    int
	Column string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("probe %s row %d column %q: %s", e.Probe, e.Row, e.Column, e.Reason)
}

// Normalize maps one execution result into typed metrics according to the
// probe's declared schema. Failed executions produce no metrics: metrics
// are never fabricated from failed results. The returned errors are
// per-row SchemaMismatchErrors.
func Normalize(result models.ExecutionResult, probe models.Probe) ([]models.Metric, []error) {
	if !result.Success() {
		return nil, nil
	}

	switch probe.Mode {
	case models.ModeKeyValue:
		return normalizeKeyValue(result, probe)
	case models.ModeRowSet:
		return normalizeRowSet(result, probe)
	default:
		return normalizeScalar(result, probe)
	}
}

// NormalizeAll normalizes every result against its probe, preserving probe
// order, and returns the total schema mismatch count.
func NormalizeAll(results []models.ExecutionResult, probes []models.Probe) ([]models.Metric, int) {
	var metrics []models.Metric
	mismatches := 0

	for i, result := range results {
		if i >= len(probes) {
			break
		}
		derived, errs := Normalize(result, probes[i])
		metrics = append(metrics, derived...)
		mismatches += len(errs)
		for _, err := range errs {
			slog.Warn("schema mismatch", slog.String("error", err.Error()))
		}
	}

	return append(metrics, Derive(metrics)...), mismatches
}

func normalizeKeyValue(result models.ExecutionResult, probe models.Probe) ([]models.Metric, []error) {
	nameCol := probe.Columns[0].Name
	valueCol := probe.Columns[1]

	metrics := make([]models.Metric, 0, len(result.Rows))
	var errs []error

	for i, row := range result.Rows {
		rawName, ok := row[nameCol]
		if !ok || rawName.Null || rawName.Kind != models.KindString {
			errs = append(errs, &SchemaMismatchError{
				Probe: probe.ID, Row: i, Column: nameCol,
				Reason: "missing or non-string name column",
			})
			continue
		}

		rawValue, ok := row[valueCol.Name]
		if !ok {
			errs = append(errs, &SchemaMismatchError{
				Probe: probe.ID, Row: i, Column: valueCol.Name,
				Reason: "column missing from row",
			})
			continue
		}

		value, unit, err := coerce(rawValue, valueCol)
		if err != nil {
			errs = append(errs, &SchemaMismatchError{
				Probe: probe.ID, Row: i, Column: valueCol.Name,
				Reason: err.Error(),
			})
			continue
		}

		metrics = append(metrics, models.Metric{
			Name:  probe.Prefix() + "." + metricKey(rawName.Str),
			Value: value,
			Unit:  unit,
			Probe: probe.ID,
		})
	}

	return metrics, errs
}

func normalizeScalar(result models.ExecutionResult, probe models.Probe) ([]models.Metric, []error) {
	if len(result.Rows) == 0 {
		return nil, nil
	}

	var errs []error
	for i := 1; i < len(result.Rows); i++ {
		errs = append(errs, &SchemaMismatchError{
			Probe: probe.ID, Row: i,
			Reason: "unexpected extra row for single-row probe",
		})
	}

	row := result.Rows[0]
	metrics := make([]models.Metric, 0, len(probe.Columns))
	for _, col := range probe.Columns {
		raw, ok := row[col.Name]
		if !ok {
			errs = append(errs, &SchemaMismatchError{
				Probe: probe.ID, Row: 0, Column: col.Name,
				Reason: "column missing from row",
			})
			continue
		}

		value, unit, err := coerce(raw, col)
		if err != nil {
			errs = append(errs, &SchemaMismatchError{
				Probe: probe.ID, Row: 0, Column: col.Name,
				Reason: err.Error(),
			})
			continue
		}

		metrics = append(metrics, models.Metric{
			Name:  probe.Prefix() + "." + metricKey(col.Name),
			Value: value,
			Unit:  unit,
			Probe: probe.ID,
		})
	}

	return metrics, errs
}

func normalizeRowSet(result models.ExecutionResult, probe models.Probe) ([]models.Metric, []error) {
	type aggState struct {
		col   models.ColumnSpec
		max   float64
		sum   float64
		count int
		unit  string
	}

	var aggs []*aggState
	for _, col := range probe.Columns {
		if col.Aggregate != models.AggregateNone {
			aggs = append(aggs, &aggState{col: col})
		}
	}

	var errs []error
	validRows := 0

rowLoop:
	for i, row := range result.Rows {
		// Validate the row against the declared schema before it counts.
		coerced := make(map[string]models.Value, len(probe.Columns))
		for _, col := range probe.Columns {
			raw, ok := row[col.Name]
			if !ok {
				errs = append(errs, &SchemaMismatchError{
					Probe: probe.ID, Row: i, Column: col.Name,
					Reason: "column missing from row",
				})
				continue rowLoop
			}
			value, unit, err := coerce(raw, col)
			if err != nil {
				errs = append(errs, &SchemaMismatchError{
					Probe: probe.ID, Row: i, Column: col.Name,
					Reason: err.Error(),
				})
				continue rowLoop
			}
			coerced[col.Name] = value
			for _, agg := range aggs {
				if agg.col.Name == col.Name {
					agg.unit = unit
				}
			}
		}

		validRows++
		for _, agg := range aggs {
			value := coerced[agg.col.Name]
			num, ok := value.Float64()
			if !ok {
				// Null aggregate inputs are ignored, not coerced to zero.
				continue
			}
			if agg.count == 0 || num > agg.max {
				agg.max = num
			}
			agg.sum += num
			agg.count++
		}
	}

	metrics := []models.Metric{{
		Name:  probe.Prefix() + ".count",
		Value: models.IntValue(int64(validRows)),
		Probe: probe.ID,
	}}

	for _, agg := range aggs {
		if agg.count == 0 {
			continue
		}
		name := probe.Prefix() + "." + metricKey(agg.col.Name)
		value := agg.sum
		suffix := "_sum"
		if agg.col.Aggregate == models.AggregateMax {
			value = agg.max
			suffix = "_max"
		}
		metrics = append(metrics, models.Metric{
			Name:  name + suffix,
			Value: aggValue(agg.col.Kind, value),
			Unit:  agg.unit,
			Probe: probe.ID,
		})
	}

	return metrics, errs
}

func aggValue(kind models.ValueKind, v float64) models.Value {
	if kind == models.KindInt {
		return models.IntValue(int64(v))
	}
	if kind.IsDuration() {
		return models.SecondsValue(v)
	}
	return models.FloatValue(v)
}

// coerce converts a raw captured value into the declared kind. NULL maps to
// an explicit null marker, never zero. Duration counters canonicalize to
// seconds for cross-probe comparability.
func coerce(raw models.Value, col models.ColumnSpec) (models.Value, string, error) {
	unit := col.Unit
	switch {
	case col.Kind == models.KindPercent:
		unit = "%"
	case col.Kind.IsDuration():
		unit = "s"
	}

	if raw.Null {
		return models.NullValue(), unit, nil
	}

	text := raw.Str
	if raw.Kind != models.KindString {
		text = raw.Text()
	}

	switch col.Kind {
	case models.KindString:
		return models.StringValue(text), unit, nil

	case models.KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return models.Value{}, unit, fmt.Errorf("expected integer, got %q", text)
		}
		return models.IntValue(n), unit, nil

	case models.KindFloat, models.KindPercent:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return models.Value{}, unit, fmt.Errorf("expected number, got %q", text)
		}
		if col.Kind == models.KindPercent {
			return models.Value{Kind: models.KindPercent, Float: f}, unit, nil
		}
		return models.FloatValue(f), unit, nil

	default: // duration kinds
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return models.Value{}, unit, fmt.Errorf("expected duration counter, got %q", text)
		}
		return models.SecondsValue(f / durationDivisor(col.Kind)), unit, nil
	}
}

func durationDivisor(kind models.ValueKind) float64 {
	switch kind {
	case models.KindMilliseconds:
		return 1e3
	case models.KindMicroseconds:
		return 1e6
	case models.KindPicoseconds:
		return 1e12
	default:
		return 1
	}
}

func metricKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
