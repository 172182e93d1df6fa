// Package policy maps enrichment output to risk tiers. Thresholds live in a
// single table so tuning never touches pipeline code; the table can be
// replaced wholesale from a YAML file.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"intel-system/internal/store"
)

// Rule escalates specific categories beyond the default tiering.
type Rule struct {
	Categories    []store.Category `yaml:"categories"`
	CriticalBelow float64          `yaml:"critical_below"`
	HighBelow     float64          `yaml:"high_below"`
}

// Table is the full risk policy. Sentiment thresholds are inclusive upper
// bounds: a rule fires when sentiment <= the bound.
type Table struct {
	Rules       []Rule  `yaml:"rules"`
	HighBelow   float64 `yaml:"high_below"`
	MediumBelow float64 `yaml:"medium_below"`
}

// Default returns the shipped policy: military and humanitarian coverage with
// strongly negative sentiment escalates to critical/high, everything else
// tiers off sentiment alone.
func Default() Table {
	return Table{
		Rules: []Rule{
			{
				Categories:    []store.Category{store.CategoryMilitary, store.CategoryHumanitarian},
				CriticalBelow: -0.6,
				HighBelow:     -0.2,
			},
		},
		HighBelow:   -0.5,
		MediumBelow: -0.2,
	}
}

// Load reads a policy table from a YAML file.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read policy file: %w", err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse policy file: %w", err)
	}
	if len(t.Rules) == 0 && t.HighBelow == 0 && t.MediumBelow == 0 {
		return Table{}, fmt.Errorf("policy file %s defines no thresholds", path)
	}
	return t, nil
}

// Map assigns a risk level from category and sentiment. It is deterministic:
// the first matching rule wins, then the default tiering applies.
func (t Table) Map(category store.Category, sentiment float64) store.RiskLevel {
	for _, rule := range t.Rules {
		if !rule.matches(category) {
			continue
		}
		if sentiment <= rule.CriticalBelow {
			return store.RiskCritical
		}
		if sentiment <= rule.HighBelow {
			return store.RiskHigh
		}
		return store.RiskMedium
	}

	if sentiment <= t.HighBelow {
		return store.RiskHigh
	}
	if sentiment <= t.MediumBelow {
		return store.RiskMedium
	}
	return store.RiskLow
}

func (r Rule) matches(category store.Category) bool {
	for _, c := range r.Categories {
		if c == category {
			return true
		}
	}
	return false
}
