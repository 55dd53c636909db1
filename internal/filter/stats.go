package filter

// ExclusionStats is a derived reporting view over a batch of filter results:
// how many opportunities each rule excluded, as counts and as percentages of
// the total evaluated.
type ExclusionStats struct {
	Total    int                `json:"total"`
	Passed   int                `json:"passed"`
	Excluded map[string]int     `json:"excluded_by_rule"`
	Percent  map[string]float64 `json:"percent_by_rule"`
}

// ComputeExclusionStats aggregates results by ExcludedByRule (first-failing
// rule only, matching the engine's first-match semantics).
func ComputeExclusionStats(results []FilterResult) ExclusionStats {
	stats := ExclusionStats{
		Total:    len(results),
		Excluded: make(map[string]int),
		Percent:  make(map[string]float64),
	}

	for _, r := range results {
		if r.Passed {
			stats.Passed++
			continue
		}
		if r.ExcludedByRule != "" {
			stats.Excluded[r.ExcludedByRule]++
		}
	}

	if stats.Total > 0 {
		for rule, n := range stats.Excluded {
			stats.Percent[rule] = float64(n) * 100 / float64(stats.Total)
		}
	}
	return stats
}
