package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFileYAML is the canonical config filename.
	DefaultConfigFileYAML = ".mysqlpulse.yaml"
	// DefaultConfigFileYML is a compatible alternate config filename.
	DefaultConfigFileYML = ".mysqlpulse.yml"
)

// FileConfig represents values loaded from a .mysqlpulse.yaml file.
type FileConfig struct {
	DSN            string                   `yaml:"dsn"`
	Target         string                   `yaml:"target"`
	Categories     []string                 `yaml:"categories"`
	ExcludeProbes  []string                 `yaml:"exclude_probes"`
	ExcludeFilters []string                 `yaml:"exclude_categories"`
	Format         string                   `yaml:"format"`
	QueryTimeout   string                   `yaml:"query_timeout"`
	RunTimeout     string                   `yaml:"run_timeout"`
	Workers        *int                     `yaml:"workers"`
	Thresholds     map[string]ThresholdRule `yaml:"thresholds"`
}

// Normalize trims and removes empty items from list fields.
func (fc *FileConfig) Normalize() {
	if fc == nil {
		return
	}
	fc.DSN = strings.TrimSpace(fc.DSN)
	fc.Target = strings.TrimSpace(fc.Target)
	fc.Format = strings.TrimSpace(fc.Format)
	fc.QueryTimeout = strings.TrimSpace(fc.QueryTimeout)
	fc.RunTimeout = strings.TrimSpace(fc.RunTimeout)
	fc.Categories = normalizePatterns(fc.Categories)
	fc.ExcludeProbes = normalizePatterns(fc.ExcludeProbes)
	fc.ExcludeFilters = normalizePatterns(fc.ExcludeFilters)
}

// ApplyTo copies file values onto cfg, without overriding values already set
// by flags (non-zero fields win over file values). Format and Workers carry
// non-zero defaults, so a file value for them always applies here; callers
// must blank the file field when the corresponding flag was set explicitly.
func (fc *FileConfig) ApplyTo(cfg *Config) error {
	if fc == nil || cfg == nil {
		return nil
	}

	if cfg.DSN == "" {
		cfg.DSN = fc.DSN
	}
	if cfg.Target == "" {
		cfg.Target = fc.Target
	}
	if fc.Format != "" {
		cfg.Format = fc.Format
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = fc.Categories
	}
	if len(cfg.ExcludeProbes) == 0 {
		cfg.ExcludeProbes = fc.ExcludeProbes
	}
	if len(cfg.ExcludeFilters) == 0 {
		cfg.ExcludeFilters = fc.ExcludeFilters
	}
	if fc.Workers != nil && *fc.Workers > 0 {
		cfg.Workers = *fc.Workers
	}
	if fc.QueryTimeout != "" {
		timeout, err := ParseDuration(fc.QueryTimeout)
		if err != nil {
			return fmt.Errorf("invalid query_timeout in config file: %w", err)
		}
		cfg.QueryTimeout = timeout
	}
	if fc.RunTimeout != "" {
		timeout, err := ParseDuration(fc.RunTimeout)
		if err != nil {
			return fmt.Errorf("invalid run_timeout in config file: %w", err)
		}
		cfg.RunTimeout = timeout
	}
	if fc.Thresholds != nil {
		cfg.Thresholds = fc.Thresholds
	}

	return nil
}

// AutoLoadFile discovers and loads the first available config file.
func AutoLoadFile() (*FileConfig, string, error) {
	candidates := []string{
		DefaultConfigFileYAML,
		DefaultConfigFileYML,
	}

	if homeDir, err := os.UserHomeDir(); err == nil && strings.TrimSpace(homeDir) != "" {
		candidates = append(candidates,
			filepath.Join(homeDir, DefaultConfigFileYAML),
			filepath.Join(homeDir, DefaultConfigFileYML),
		)
	}

	return LoadFirstExistingFile(candidates)
}

// LoadFirstExistingFile loads the first config file that exists in paths.
func LoadFirstExistingFile(paths []string) (*FileConfig, string, error) {
	for _, path := range paths {
		candidate := strings.TrimSpace(path)
		if candidate == "" {
			continue
		}

		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("failed to access config file %q: %w", candidate, err)
		}
		if info.IsDir() {
			return nil, "", fmt.Errorf("config path %q is a directory, expected a file", candidate)
		}

		cfg, err := LoadFile(candidate)
		if err != nil {
			return nil, "", err
		}
		return cfg, candidate, nil
	}

	return nil, "", nil
}

// LoadFile loads config values from a specific YAML file path.
func LoadFile(path string) (*FileConfig, error) {
	filename := strings.TrimSpace(path)
	if filename == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", filename, err)
	}

	cfg := &FileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", filename, err)
	}

	cfg.Normalize()
	return cfg, nil
}
