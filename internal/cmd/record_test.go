package cmd

import (
	"testing"

	"github.com/msgward/msgward/internal/core"
)

func TestParseOutcome(t *testing.T) {
	cases := []struct {
		input   string
		want    core.Outcome
		wantErr bool
	}{
		{"allowed", core.OutcomeAllowed, false},
		{"THROTTLED", core.OutcomeThrottled, false},
		{" blocked ", core.OutcomeBlocked, false},
		{"banned", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := parseOutcome(tc.input)
		if tc.wantErr && err == nil {
			t.Fatalf("expected error for %q", tc.input)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("parseOutcome(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseTier(t *testing.T) {
	cases := []struct {
		input   string
		want    core.Tier
		wantErr bool
	}{
		{"free", core.TierFree, false},
		{"Paid", core.TierPaid, false},
		{"enterprise", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := parseTier(tc.input)
		if tc.wantErr && err == nil {
			t.Fatalf("expected error for %q", tc.input)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("parseTier(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
