package config

import "testing"

func TestLoadPlans_Defaults(t *testing.T) {
	table, err := LoadPlans("")
	if err != nil {
		t.Fatalf("LoadPlans() returned unexpected error: %v", err)
	}

	tests := []struct {
		plan      string
		dividends int
		minutes   int
	}{
		{"trial", 2, 2},
		{"starter", 2, 2},
		{"professional", 10, 10},
		{"enterprise", 0, 0},
		{"accountant", 0, 0},
		{"ENTERPRISE", 0, 0},
		{"unknown-plan", 2, 2},
		{"", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			got := table.Lookup(tt.plan)
			if got.Dividends != tt.dividends || got.Minutes != tt.minutes {
				t.Errorf("Lookup(%q) = %+v, want dividends=%d minutes=%d", tt.plan, got, tt.dividends, tt.minutes)
			}
		})
	}
}

func TestParsePlans_Errors(t *testing.T) {
	t.Run("missing default", func(t *testing.T) {
		_, err := ParsePlans([]byte("default: gold\nplans:\n  trial: {dividends: 1, minutes: 1}\n"))
		if err == nil {
			t.Error("expected error for undefined default plan")
		}
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := ParsePlans([]byte("default: trial\nplans:\n  trial: {dividends: -1, minutes: 1}\n"))
		if err == nil {
			t.Error("expected error for negative limit")
		}
	})

	t.Run("empty table", func(t *testing.T) {
		_, err := ParsePlans([]byte("default: trial\n"))
		if err == nil {
			t.Error("expected error for empty table")
		}
	})
}
