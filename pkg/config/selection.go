package config

import (
	"path"
	"strings"
)

// Normalize trims selection patterns and removes empty values.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.Categories = normalizePatterns(c.Categories)
	c.ExcludeProbes = normalizePatterns(c.ExcludeProbes)
	c.ExcludeFilters = normalizePatterns(c.ExcludeFilters)
}

// IsCategorySelected reports whether a category passes the include list.
// An empty include list selects every category.
func (c *Config) IsCategorySelected(category string) bool {
	if c == nil || len(c.Categories) == 0 {
		return true
	}

	value := normalizePattern(category)
	for _, pattern := range c.Categories {
		if patternMatches(pattern, value) {
			return true
		}
	}
	return false
}

// IsProbeExcluded reports whether a probe ID matches exclude patterns,
// either by full ID or by its category segment.
func (c *Config) IsProbeExcluded(probeID, category string) bool {
	if c == nil {
		return false
	}

	id := normalizePattern(probeID)
	if id == "" {
		return false
	}

	for _, pattern := range c.ExcludeFilters {
		if patternMatches(pattern, normalizePattern(category)) {
			return true
		}
	}

	for _, pattern := range c.ExcludeProbes {
		if patternMatches(pattern, id) {
			return true
		}
		// Allow excluding by the probe's leading name segment, e.g.
		// "slowquery" matches "slowquery.top_digests".
		if segment, _, found := strings.Cut(id, "."); found && patternMatches(pattern, segment) {
			return true
		}
	}

	return false
}

func normalizePatterns(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}

	normalized := make([]string, 0, len(values))
	for _, pattern := range values {
		p := normalizePattern(pattern)
		if p == "" {
			continue
		}
		normalized = append(normalized, p)
	}
	return normalized
}

func normalizePattern(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func patternMatches(pattern, value string) bool {
	normalizedPattern := normalizePattern(pattern)
	normalizedValue := normalizePattern(value)
	if normalizedPattern == "" || normalizedValue == "" {
		return false
	}

	// Invalid glob patterns are treated as exact matches.
	matched, err := path.Match(normalizedPattern, normalizedValue)
	if err == nil {
		return matched
	}
	return normalizedPattern == normalizedValue
}
