// Package matching holds the deterministic text primitives shared by the
// filter rules and the relevance scorer.
package matching

import (
	"regexp"
	"strings"
)

// ExcludeMatches reports whether keyword occurs as a standalone word in text.
// Word-boundary regex alone still accepts "printing" inside "non-printing",
// so matches immediately preceded by a hyphen are rejected too.
func ExcludeMatches(text, keyword string) bool {
	kw := strings.TrimSpace(strings.ToLower(keyword))
	if kw == "" || text == "" {
		return false
	}
	lower := strings.ToLower(text)

	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(kw) + `\b`)
	if err != nil {
		return false
	}

	for _, loc := range re.FindAllStringIndex(lower, -1) {
		if loc[0] > 0 && lower[loc[0]-1] == '-' {
			continue
		}
		return true
	}
	return false
}

// wordInText is a plain word-boundary match for a single word.
func wordInText(text, word string) bool {
	if word == "" || text == "" {
		return false
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(word)) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(strings.ToLower(text))
}

// PositiveMatches reports whether a positive keyword applies to text.
// Single-word keywords need a whole-word match. Multi-word keywords match on
// the exact phrase, or when at least min(2, len(words)) of their constituent
// words longer than two characters appear as whole words. That lets
// "software and development" satisfy "software development" without letting a
// single stray word through.
func PositiveMatches(text, keyword string) bool {
	kw := strings.TrimSpace(strings.ToLower(keyword))
	if kw == "" {
		return false
	}

	words := strings.Fields(kw)
	if len(words) == 1 {
		return wordInText(text, words[0])
	}

	if strings.Contains(strings.ToLower(text), kw) {
		return true
	}

	need := 2
	if len(words) < need {
		need = len(words)
	}
	hits := 0
	for _, w := range words {
		if len(w) > 2 && wordInText(text, w) {
			hits++
			if hits >= need {
				return true
			}
		}
	}
	return false
}

// regionMapping is checked in order: more specific substrings ("ncr",
// "national capital") must come before the generic "national" they nest in.
type regionMapping struct {
	substr string
	code   string
}

// RegionNational is the sentinel code for country-wide opportunities.
const RegionNational = "National"

var regionMap = []regionMapping{
	{"alberta", "AB"},
	{"british columbia", "BC"},
	{"manitoba", "MB"},
	{"new brunswick", "NB"},
	{"moncton", "NB"},
	{"newfoundland", "NL"},
	{"labrador", "NL"},
	{"nova scotia", "NS"},
	{"ncr", "ON"},
	{"ontario", "ON"},
	{"ottawa", "ON"},
	{"toronto", "ON"},
	{"quebec", "QC"},
	{"montreal", "QC"},
	{"shawinigan", "QC"},
	{"saskatchewan", "SK"},
	{"regina", "SK"},
	{"prince edward", "PE"},
	{"northwest territories", "NT"},
	{"nunavut", "NU"},
	{"yukon", "YT"},
	{"canada", RegionNational},
	{"national capital", RegionNational},
	{"national", RegionNational},
	{"world", RegionNational},
	{"north america", RegionNational},
	{"remote offsite", RegionNational},
	{"unspecified", RegionNational},
}

// RegionToCode maps a free-text region string (e.g. "*Ontario (except NCR)")
// to a two-letter province/territory code or the "National" sentinel. Unknown
// strings fall back to their first two characters uppercased so callers
// always get structured output.
func RegionToCode(region string) string {
	r := strings.TrimSpace(strings.ToLower(strings.ReplaceAll(region, "*", "")))
	for _, m := range regionMap {
		if strings.Contains(r, m.substr) {
			return m.code
		}
	}
	if len(r) >= 2 {
		return strings.ToUpper(r[:2])
	}
	return strings.ToUpper(r)
}
