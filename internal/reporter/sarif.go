package reporter

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dbaops/mysqlpulse/internal/models"
	"github.com/dbaops/mysqlpulse/pkg/config"
)

const (
	ruleThresholdBreach = "mysqlpulse/THRESHOLD_BREACH"
	ruleProbeFailure    = "mysqlpulse/PROBE_FAILURE"

	ruleIndexThresholdBreach = 0
	ruleIndexProbeFailure    = 1

	sarifFallbackLocationURI = "README.md"
	sarifSchemaURI           = "https://docs.oasis-open.org/sarif/sarif/v2.1.0/cs01/schemas/sarif-schema-2.1.0.json"
)

var semanticVersionPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool               `json:"tool"`
	Results           []sarifResult           `json:"results"`
	AutomationDetails *sarifAutomationDetails `json:"automationDetails,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifAutomationDetails struct {
	ID string `json:"id"`
}

type sarifDriver struct {
	Name            string       `json:"name"`
	Version         string       `json:"version,omitempty"`
	InformationURI  string       `json:"informationUri,omitempty"`
	ShortDesc       sarifMessage `json:"shortDescription"`
	FullDesc        sarifMessage `json:"fullDescription"`
	Rules           []sarifRule  `json:"rules"`
	SemanticVersion string       `json:"semanticVersion,omitempty"`
}

type sarifRule struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	ShortDesc     sarifMessage `json:"shortDescription"`
	FullDesc      sarifMessage `json:"fullDescription"`
	DefaultConfig sarifConfig  `json:"defaultConfiguration"`
}

type sarifConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           *int              `json:"ruleIndex,omitempty"`
	Level               string            `json:"level,omitempty"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Properties          map[string]any    `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation  `json:"physicalLocation,omitempty"`
	LogicalLocations []sarifLogicalLocation `json:"logicalLocations,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

type sarifLogicalLocation struct {
	Name               string `json:"name,omitempty"`
	FullyQualifiedName string `json:"fullyQualifiedName,omitempty"`
	Kind               string `json:"kind,omitempty"`
}

// WriteSARIF writes SARIF 2.1.0 output to report.sarif.
func WriteSARIF(report *models.Report, cfg *config.Config) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	output := sarifLog{
		Version: "2.1.0",
		Schema:  sarifSchemaURI,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:            "mysqlpulse",
						Version:         report.Version,
						SemanticVersion: normalizeSemanticVersion(report.Version),
						InformationURI:  "https://github.com/dbaops/mysqlpulse",
						ShortDesc: sarifMessage{
							Text: "MySQL diagnostics collector",
						},
						FullDesc: sarifMessage{
							Text: "Runs read-only diagnostic probes against a MySQL server and evaluates the derived metrics against configured thresholds.",
						},
						Rules: []sarifRule{
							{
								ID:        ruleThresholdBreach,
								Name:      "THRESHOLD_BREACH",
								ShortDesc: sarifMessage{Text: "Metric breached a configured threshold"},
								FullDesc:  sarifMessage{Text: "A normalized metric crossed its configured warning or critical threshold."},
								DefaultConfig: sarifConfig{
									Level: "warning",
								},
							},
							{
								ID:        ruleProbeFailure,
								Name:      "PROBE_FAILURE",
								ShortDesc: sarifMessage{Text: "Diagnostic probe did not complete"},
								FullDesc:  sarifMessage{Text: "A diagnostic probe failed, timed out, or was cancelled before producing usable rows."},
								DefaultConfig: sarifConfig{
									Level: "note",
								},
							},
						},
					},
				},
				Results: buildSARIFResults(report),
				AutomationDetails: &sarifAutomationDetails{
					ID: "mysqlpulse/check",
				},
			},
		},
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal SARIF: %w", err)
	}

	outputPath := filepath.Join(cfg.OutputDir, "report.sarif")
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report.sarif: %w", err)
	}

	return nil
}

func buildSARIFResults(report *models.Report) []sarifResult {
	results := make([]sarifResult, 0)
	if report == nil {
		return results
	}

	for _, finding := range report.Findings {
		fingerprint := hashSARIFParts(
			"finding",
			finding.Metric,
			finding.Severity.String(),
			finding.Rule,
		)
		results = append(results, sarifResult{
			RuleID:    ruleThresholdBreach,
			RuleIndex: ruleIndexPtr(ruleIndexThresholdBreach),
			Level:     mapSeverityToSARIFLevel(finding.Severity),
			Message:   sarifMessage{Text: finding.Message},
			Locations: metricLocation(finding.Metric),
			PartialFingerprints: map[string]string{
				"mysqlpulse/findingHash": fingerprint,
			},
			Properties: map[string]any{
				"metric":    finding.Metric,
				"severity":  finding.Severity.String(),
				"rule":      finding.Rule,
				"threshold": finding.Threshold,
				"observed":  finding.Observed.Text(),
				"probe":     finding.Probe,
			},
		})
	}

	for _, probe := range report.Probes {
		switch probe.Outcome {
		case models.OutcomeSuccess, models.OutcomeSkipped:
			continue
		}

		message := fmt.Sprintf("Probe %q %s.", probe.ID, probe.Outcome)
		if probe.Error != "" {
			message = fmt.Sprintf("Probe %q %s: %s", probe.ID, probe.Outcome, probe.Error)
		}
		fingerprint := hashSARIFParts("probe", probe.ID, string(probe.Outcome))
		results = append(results, sarifResult{
			RuleID:    ruleProbeFailure,
			RuleIndex: ruleIndexPtr(ruleIndexProbeFailure),
			Level:     "note",
			Message:   sarifMessage{Text: message},
			Locations: probeLocation(probe.ID),
			PartialFingerprints: map[string]string{
				"mysqlpulse/findingHash": fingerprint,
			},
			Properties: map[string]any{
				"probe":    probe.ID,
				"category": string(probe.Category),
				"outcome":  string(probe.Outcome),
			},
		})
	}

	return results
}

func metricLocation(metric string) []sarifLocation {
	normalized := strings.TrimSpace(metric)
	if normalized == "" {
		normalized = "unknown_metric"
	}

	return []sarifLocation{
		{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: sarifFallbackLocationURI},
				Region: &sarifRegion{
					StartLine: 1,
				},
			},
			LogicalLocations: []sarifLogicalLocation{
				{
					Name:               normalized,
					FullyQualifiedName: normalized,
					Kind:               "metric",
				},
			},
		},
	}
}

func probeLocation(probeID string) []sarifLocation {
	normalized := strings.TrimSpace(probeID)
	if normalized == "" {
		normalized = "unknown_probe"
	}

	return []sarifLocation{
		{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: sarifFallbackLocationURI},
				Region: &sarifRegion{
					StartLine: 1,
				},
			},
			LogicalLocations: []sarifLogicalLocation{
				{
					Name:               normalized,
					FullyQualifiedName: normalized,
					Kind:               "probe",
				},
			},
		},
	}
}

func mapSeverityToSARIFLevel(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return "error"
	case models.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

func normalizeSemanticVersion(version string) string {
	normalized := strings.TrimSpace(strings.TrimPrefix(version, "v"))
	if semanticVersionPattern.MatchString(normalized) {
		return normalized
	}
	return ""
}

func hashSARIFParts(parts ...string) string {
	canonical := strings.Join(parts, "\x1f")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func ruleIndexPtr(index int) *int {
	value := index
	return &value
}
