package config

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		input    string
		expected time.Duration
	}{
		{input: "30s", expected: 30 * time.Second},
		{input: "5m", expected: 5 * time.Minute},
		{input: "2h", expected: 2 * time.Hour},
		{input: "7d", expected: 7 * 24 * time.Hour},
		{input: "90ms", expected: 90 * time.Millisecond},
		{input: "1h30m", expected: 90 * time.Minute},
	}

	for _, tc := range cases {
		got, err := ParseDuration(tc.input)
		if err != nil {
			t.Fatalf("ParseDuration(%q) failed: %v", tc.input, err)
		}
		if got != tc.expected {
			t.Fatalf("ParseDuration(%q) = %v, expected %v", tc.input, got, tc.expected)
		}
	}
}

func TestParseDurationInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "7w", "-"} {
		if _, err := ParseDuration(input); err == nil {
			t.Fatalf("ParseDuration(%q) should fail", input)
		}
	}
}
