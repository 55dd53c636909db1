// Package filter applies a fixed, ordered pipeline of hard exclusion rules
// plus a non-exclusionary eligibility classifier to normalized opportunities.
package filter

import (
	"github.com/david/rfp-finder/internal/models"
)

// Eligibility is the tri-state outcome of the eligibility classifier.
// It annotates results and never excludes.
type Eligibility string

const (
	EligibilityEligible   Eligibility = "eligible"
	EligibilityIneligible Eligibility = "ineligible"
	EligibilityUnknown    Eligibility = "unknown"
)

// FilterResult is the verdict for one opportunity. Explanations always has
// one entry per hard rule plus a trailing eligibility entry, in rule order,
// regardless of pass/fail.
type FilterResult struct {
	Passed         bool                          `json:"passed"`
	Explanations   []string                      `json:"explanations"`
	Eligibility    Eligibility                   `json:"eligibility"`
	Opportunity    *models.NormalizedOpportunity `json:"opportunity"`
	ExcludedByRule string                        `json:"excluded_by_rule,omitempty"`
}

// Engine evaluates one immutable profile against opportunities.
type Engine struct {
	profile *models.UserProfile
	rules   []RuleFn
}

// NewEngine validates the profile and builds an engine over the fixed rule
// order. An invalid profile is a hard failure: the pipeline must not start.
func NewEngine(profile *models.UserProfile) (*Engine, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &Engine{profile: profile, rules: hardRules}, nil
}

// Filter runs every hard rule (all of them, even after a failure, so the
// explanation trail is complete), then the eligibility classifier.
// ExcludedByRule names the first rule that failed.
func (e *Engine) Filter(opp *models.NormalizedOpportunity) FilterResult {
	result := FilterResult{
		Passed:       true,
		Explanations: make([]string, 0, len(e.rules)+1),
		Opportunity:  opp,
	}

	for _, rule := range e.rules {
		out := rule(opp, e.profile)
		result.Explanations = append(result.Explanations, out.Explanation)
		if !out.Passed {
			result.Passed = false
			if result.ExcludedByRule == "" {
				result.ExcludedByRule = out.RuleID
			}
		}
	}

	eligibility, explanation := classifyEligibility(opp, e.profile)
	result.Eligibility = eligibility
	result.Explanations = append(result.Explanations, explanation)

	return result
}

// FilterMany evaluates each opportunity independently, preserving order.
func (e *Engine) FilterMany(opps []*models.NormalizedOpportunity) []FilterResult {
	results := make([]FilterResult, 0, len(opps))
	for _, opp := range opps {
		results = append(results, e.Filter(opp))
	}
	return results
}

// FilterPassed returns only the results whose hard rules all passed.
func (e *Engine) FilterPassed(opps []*models.NormalizedOpportunity) []FilterResult {
	var passed []FilterResult
	for _, r := range e.FilterMany(opps) {
		if r.Passed {
			passed = append(passed, r)
		}
	}
	return passed
}
