package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.005", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"1e3", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.out)), "input %q: got %s", tc.in, got)
	}
}

func TestParseBudget(t *testing.T) {
	cases := map[string]string{
		"100":   "100",
		"12,5":  "12.5",
		"":      "0",
		"abc":   "0",
		"-20":   "0",
		" 7.25": "7.25",
	}
	for in, want := range cases {
		got := ParseBudget(in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "ParseBudget(%q) = %s, want %s", in, got, want)
	}
}
