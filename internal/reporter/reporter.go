package reporter

import (
	"fmt"

	"github.com/dbaops/mysqlpulse/internal/models"
	"github.com/dbaops/mysqlpulse/pkg/config"
)

// Reporter renders an assembled report to the configured output format.
type Reporter interface {
	Generate(report *models.Report) error
}

type reporter struct {
	config *config.Config
}

// New creates a new reporter instance
func New(cfg *config.Config) Reporter {
	return &reporter{
		config: cfg,
	}
}

// Generate writes the report. The machine-readable JSON file is always
// produced; text and SARIF renderings are added on top when selected.
func (r *reporter) Generate(report *models.Report) error {
	if err := WriteJSON(report, r.config); err != nil {
		return err
	}

	switch r.config.Format {
	case "", "json":
		return nil
	case "text":
		return WriteText(report, r.config)
	case "sarif":
		return WriteSARIF(report, r.config)
	default:
		return fmt.Errorf("unknown report format: %q", r.config.Format)
	}
}
