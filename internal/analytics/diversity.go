package analytics

import "math"

// DiversityScore computes the normalized Shannon entropy of a count
// distribution, typically artist play counts. The result is 0 for an empty
// or single-key map and approaches 1 as counts spread evenly across many
// keys. Non-positive counts are ignored; they can appear when negative
// feedback weighting drives an entry below zero.
func DiversityScore(counts map[string]int) float64 {
	var total float64
	keys := 0
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		total += float64(c)
		keys++
	}
	if keys <= 1 || total == 0 {
		return 0
	}

	var entropy float64
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}

	score := entropy / math.Log2(float64(keys))
	return math.Min(1, math.Max(0, score))
}
