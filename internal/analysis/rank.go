package analysis

import (
	"sort"
)

// Scenario is one named installation variant and its simulated year.
type Scenario struct {
	Name    string
	Summary AnnualSummary
}

// RankByPayback sorts scenarios by ascending payback period. Unreachable
// payback goes last; ties are broken by higher annual savings, then name.
func RankByPayback(scenarios []Scenario) []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Summary, out[j].Summary
		if a.PaybackReachable() != b.PaybackReachable() {
			return a.PaybackReachable()
		}
		if a.PaybackReachable() && a.PaybackYears != b.PaybackYears {
			return a.PaybackYears < b.PaybackYears
		}
		if a.AnnualSavings != b.AnnualSavings {
			return a.AnnualSavings > b.AnnualSavings
		}
		return out[i].Name < out[j].Name
	})
	return out
}
