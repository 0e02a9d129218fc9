package reporter

import (
	"time"

	"github.com/dbaops/mysqlpulse/internal/evaluator"
	"github.com/dbaops/mysqlpulse/internal/models"
)

// Input carries everything one collection run produced.
type Input struct {
	Version            string
	Target             string
	Probes             []models.Probe
	Results            []models.ExecutionResult
	Metrics            []models.Metric
	Findings           []models.Finding
	Clients            []models.ClientPeer
	SchemaMismatches   int
	Workers            int
	K8sResolution      bool
	BaselineSuppressed int
	Elapsed            time.Duration
}

// Assemble builds the final report from one run's outputs. The returned
// report is never mutated afterwards; renderers only read it.
func Assemble(in Input) *models.Report {
	report := &models.Report{
		Tool:        "mysqlpulse",
		Version:     in.Version,
		GeneratedAt: time.Now().UTC(),
		Target:      in.Target,
		Status:      evaluator.WorstSeverity(in.Findings),
		Findings:    in.Findings,
		Metrics:     in.Metrics,
		Clients:     in.Clients,
		Probes:      make([]models.ProbeStatus, 0, len(in.Results)),
		Metadata: models.Metadata{
			CollectionDuration: in.Elapsed.Round(time.Millisecond).String(),
			ProbesTotal:        len(in.Results),
			WorkerCount:        in.Workers,
			SchemaMismatches:   in.SchemaMismatches,
			K8sResolution:      in.K8sResolution,
			BaselineSuppressed: in.BaselineSuppressed,
		},
	}
	if report.Findings == nil {
		report.Findings = []models.Finding{}
	}
	if report.Metrics == nil {
		report.Metrics = []models.Metric{}
	}

	for i, result := range in.Results {
		status := models.ProbeStatus{
			ID:      result.ProbeID,
			Outcome: result.Outcome,
			Error:   result.Err,
		}
		if i < len(in.Probes) {
			if status.ID == "" {
				status.ID = in.Probes[i].ID
			}
			status.Category = in.Probes[i].Category
		}
		if result.Duration > 0 {
			status.Duration = result.Duration.Round(time.Millisecond).String()
		}

		switch result.Outcome {
		case models.OutcomeSuccess:
			report.Metadata.ProbesSucceeded++
		case models.OutcomeSkipped:
			report.Incomplete = true
			report.SkippedProbes = append(report.SkippedProbes, status.ID)
		default:
			report.Incomplete = true
			report.Metadata.ProbesFailed++
		}

		report.Probes = append(report.Probes, status)
	}

	return report
}
