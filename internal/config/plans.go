package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlans []byte

// PlanLimits is the monthly quota of one subscription plan.
// A value of 0 is the unlimited sentinel, not a zero quota.
type PlanLimits struct {
	Dividends int `yaml:"dividends" json:"dividends"`
	Minutes   int `yaml:"minutes" json:"minutes"`
}

// PlanTable maps plan codes to their limits. It is loaded once at startup
// so every call site shares one definition of the quotas.
type PlanTable struct {
	Default string                `yaml:"default"`
	Plans   map[string]PlanLimits `yaml:"plans"`
}

// LoadPlans parses the plan table from path, or the embedded defaults when
// path is empty.
func LoadPlans(path string) (*PlanTable, error) {
	data := defaultPlans
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read plans file: %w", err)
		}
	}
	return ParsePlans(data)
}

// ParsePlans parses a YAML plan table and checks that the default plan exists.
func ParsePlans(data []byte) (*PlanTable, error) {
	var table PlanTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse plans: %w", err)
	}
	if len(table.Plans) == 0 {
		return nil, fmt.Errorf("plans table is empty")
	}

	normalised := make(map[string]PlanLimits, len(table.Plans))
	for code, limits := range table.Plans {
		if limits.Dividends < 0 || limits.Minutes < 0 {
			return nil, fmt.Errorf("plan %q has a negative limit", code)
		}
		normalised[strings.ToLower(code)] = limits
	}
	table.Plans = normalised
	table.Default = strings.ToLower(table.Default)

	if _, ok := table.Plans[table.Default]; !ok {
		return nil, fmt.Errorf("default plan %q is not defined", table.Default)
	}
	return &table, nil
}

// Lookup returns the limits of a plan code. Unknown or empty codes resolve to
// the default plan.
func (t *PlanTable) Lookup(plan string) PlanLimits {
	if limits, ok := t.Plans[strings.ToLower(strings.TrimSpace(plan))]; ok {
		return limits
	}
	return t.Plans[t.Default]
}
