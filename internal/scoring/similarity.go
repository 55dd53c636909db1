// Package scoring ranks filter-passing opportunities: a bag-of-words
// similarity shortlist followed by per-item relevance scoring through a
// pluggable backend.
package scoring

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]{2,}`)

// tokenize lowercases and extracts alphanumeric tokens of length >= 2.
func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// termFreq builds a term-frequency map for one text.
func termFreq(text string) map[string]int {
	tf := make(map[string]int)
	for _, tok := range tokenize(text) {
		tf[tok]++
	}
	return tf
}

func tfTotal(tf map[string]int) int {
	total := 0
	for _, n := range tf {
		total += n
	}
	if total == 0 {
		return 1
	}
	return total
}

// OverlapScore scores how much query overlaps with positive examples versus
// negative ones. Overlap with an example is the sum over shared tokens of
// query_count * example_count, normalized by the example's token total and
// averaged per label. Bad-example overlap carries a 1.5x penalty: recommending
// something the user already marked a poor fit costs more than missing a
// positive signal. No examples at all means no information, so 0.5.
func OverlapScore(query map[string]int, positives, negatives []map[string]int) float64 {
	if len(positives) == 0 && len(negatives) == 0 {
		return 0.5
	}

	posScore := labelScore(query, positives)
	negScore := labelScore(query, negatives)

	raw := 0.5 + posScore - 1.5*negScore
	if raw < 0 {
		return 0
	}
	if raw > 1 {
		return 1
	}
	return raw
}

func labelScore(query map[string]int, examples []map[string]int) float64 {
	if len(examples) == 0 {
		return 0
	}
	sum := 0.0
	for _, ex := range examples {
		common := 0
		for tok, qn := range query {
			if en, ok := ex[tok]; ok {
				common += qn * en
			}
		}
		sum += float64(common) / float64(tfTotal(ex))
	}
	return sum / float64(len(examples))
}

// ComputeSimilarityScores returns one score per candidate text, order
// preserved. Blank example texts are skipped.
func ComputeSimilarityScores(candidateTexts, goodTexts, badTexts []string) []float64 {
	goodTFs := make([]map[string]int, 0, len(goodTexts))
	for _, t := range goodTexts {
		if strings.TrimSpace(t) != "" {
			goodTFs = append(goodTFs, termFreq(t))
		}
	}
	badTFs := make([]map[string]int, 0, len(badTexts))
	for _, t := range badTexts {
		if strings.TrimSpace(t) != "" {
			badTFs = append(badTFs, termFreq(t))
		}
	}

	scores := make([]float64, 0, len(candidateTexts))
	for _, text := range candidateTexts {
		scores = append(scores, OverlapScore(termFreq(text), goodTFs, badTFs))
	}
	return scores
}
