package catalog

import (
	"fmt"
	"strings"

	"github.com/dbaops/mysqlpulse/internal/models"
)

// DuplicateProbeError reports a probe identifier registered twice. Catalog
// misconfiguration is fatal at startup.
type DuplicateProbeError struct {
	ID string
}

func (e *DuplicateProbeError) Error() string {
	return fmt.Sprintf("duplicate probe id: %q", e.ID)
}

// Catalog is an immutable-after-startup registry of diagnostic probes,
// preserved in registration order. It performs no I/O.
type Catalog struct {
	probes []models.Probe
	index  map[string]int
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		index: make(map[string]int),
	}
}

// Register adds a probe. It fails with DuplicateProbeError when the
// identifier already exists and validates the probe shape.
func (c *Catalog) Register(probe models.Probe) error {
	id := strings.TrimSpace(probe.ID)
	if id == "" {
		return fmt.Errorf("probe id is empty")
	}
	if strings.TrimSpace(probe.Query) == "" {
		return fmt.Errorf("probe %q has no query", id)
	}
	if probe.Mode == models.ModeKeyValue && len(probe.Columns) != 2 {
		return fmt.Errorf("probe %q: key/value probes require exactly 2 columns, got %d", id, len(probe.Columns))
	}
	if _, exists := c.index[id]; exists {
		return &DuplicateProbeError{ID: id}
	}

	probe.ID = id
	c.index[id] = len(c.probes)
	c.probes = append(c.probes, probe)
	return nil
}

// MustRegister registers a probe and panics on error. Used only for the
// builtin catalog, where a registration failure is a programming error.
func (c *Catalog) MustRegister(probe models.Probe) {
	if err := c.Register(probe); err != nil {
		panic(err)
	}
}

// List returns probes in registration order, optionally filtered by
// category. The returned slice is a copy.
func (c *Catalog) List(categories ...models.Category) []models.Probe {
	if len(categories) == 0 {
		out := make([]models.Probe, len(c.probes))
		copy(out, c.probes)
		return out
	}

	wanted := make(map[models.Category]bool, len(categories))
	for _, category := range categories {
		wanted[category] = true
	}

	out := make([]models.Probe, 0, len(c.probes))
	for _, probe := range c.probes {
		if wanted[probe.Category] {
			out = append(out, probe)
		}
	}
	return out
}

// Get looks up a probe by identifier.
func (c *Catalog) Get(id string) (models.Probe, bool) {
	idx, exists := c.index[id]
	if !exists {
		return models.Probe{}, false
	}
	return c.probes[idx], true
}

// Len returns the number of registered probes.
func (c *Catalog) Len() int {
	return len(c.probes)
}
