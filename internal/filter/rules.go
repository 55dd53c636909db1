package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/david/rfp-finder/internal/matching"
	"github.com/david/rfp-finder/internal/models"
)

// Hard rule identifiers, in evaluation order.
const (
	RuleRegion   = "region"
	RuleKeywords = "keywords"
	RuleDeadline = "deadline"
	RuleBudget   = "budget"
)

// RuleOutcome is the shared result shape of every hard rule.
type RuleOutcome struct {
	Passed      bool
	Explanation string
	RuleID      string
}

// RuleFn is a pure function over (opportunity, profile). Rules never error:
// absent fields resolve to "not applicable, pass" because upstream data is
// unreliable free text and the filter must only exclude on positive evidence.
type RuleFn func(opp *models.NormalizedOpportunity, profile *models.UserProfile) RuleOutcome

// hardRules is the fixed rule order. ExcludedByRule semantics depend on this
// matching declaration order, which TestRuleOrder pins down.
var hardRules = []RuleFn{
	applyRegionRule,
	applyKeywordsRule,
	applyDeadlineRule,
	applyBudgetRule,
}

func applyRegionRule(opp *models.NormalizedOpportunity, profile *models.UserProfile) RuleOutcome {
	out := RuleOutcome{RuleID: RuleRegion}

	if len(profile.EligibleRegions) == 0 && len(profile.ExcludeRegions) == 0 {
		out.Passed = true
		out.Explanation = "Region filter not set"
		return out
	}

	region := strings.TrimSpace(opp.Region)
	if region == "" {
		out.Passed = true
		out.Explanation = "Region not applicable (no region on opportunity)"
		return out
	}

	code := strings.ToUpper(matching.RegionToCode(region))
	for _, ex := range profile.ExcludeRegions {
		if code == strings.ToUpper(strings.TrimSpace(ex)) {
			out.Explanation = fmt.Sprintf("Excluded: region %s in exclude_regions", region)
			return out
		}
	}

	if len(profile.EligibleRegions) == 0 {
		out.Passed = true
		out.Explanation = fmt.Sprintf("Region %s (no eligible_regions restriction)", region)
		return out
	}

	for _, el := range profile.EligibleRegions {
		if code == strings.ToUpper(strings.TrimSpace(el)) {
			out.Passed = true
			out.Explanation = fmt.Sprintf("Matches region: %s", region)
			return out
		}
	}
	if code == strings.ToUpper(matching.RegionNational) {
		out.Passed = true
		out.Explanation = fmt.Sprintf("Matches region: %s (national scope)", region)
		return out
	}

	out.Explanation = fmt.Sprintf("Excluded: region %s not in eligible_regions", region)
	return out
}

func applyKeywordsRule(opp *models.NormalizedOpportunity, profile *models.UserProfile) RuleOutcome {
	out := RuleOutcome{RuleID: RuleKeywords}

	if len(profile.Keywords) == 0 && len(profile.ExcludeKeywords) == 0 {
		out.Passed = true
		out.Explanation = "Keywords filter not set"
		return out
	}

	searchable := strings.ToLower(strings.Join([]string{
		opp.Title,
		opp.Summary,
		strings.Join(opp.Categories, " "),
		strings.Join(opp.CommodityCodes, " "),
	}, " "))

	// Deal-breakers use standalone-word matching: "construction" must not
	// fire on "reconstruction" or on hyphenated compounds like
	// "non-printing".
	for _, exc := range profile.ExcludeKeywords {
		if matching.ExcludeMatches(searchable, exc) {
			out.Explanation = fmt.Sprintf("Excluded: deal-breaker keyword %q found", exc)
			return out
		}
	}

	switch profile.EffectiveKeywordsMode() {
	case models.KeywordsModePreferred, models.KeywordsModeExcludeOnly:
		out.Passed = true
		out.Explanation = "Keywords optional (mode passes candidates to scoring)"
		return out
	}

	if len(profile.Keywords) == 0 {
		out.Passed = true
		out.Explanation = "No required keywords"
		return out
	}

	for _, kw := range profile.Keywords {
		if kw != "" && strings.Contains(searchable, strings.ToLower(kw)) {
			out.Passed = true
			out.Explanation = fmt.Sprintf("Matches keyword: %s", kw)
			return out
		}
	}

	out.Explanation = fmt.Sprintf("No required keywords found (need one of: %s)", strings.Join(profile.Keywords, ", "))
	return out
}

func applyDeadlineRule(opp *models.NormalizedOpportunity, profile *models.UserProfile) RuleOutcome {
	out := RuleOutcome{RuleID: RuleDeadline}

	if profile.MaxDaysToClose == nil {
		out.Passed = true
		out.Explanation = "Deadline filter not set"
		return out
	}

	if opp.ClosingAt == nil {
		out.Passed = true
		out.Explanation = "Deadline not applicable (no closing date on opportunity)"
		return out
	}

	now := time.Now().UTC()
	closing := opp.ClosingAt.UTC()

	if closing.Before(now) {
		out.Explanation = fmt.Sprintf("Excluded: closing date %s has passed", closing.Format(time.RFC3339))
		return out
	}

	daysOut := int(closing.Sub(now).Hours() / 24)
	if daysOut > *profile.MaxDaysToClose {
		out.Explanation = fmt.Sprintf("Excluded: closing in %d days (max %d)", daysOut, *profile.MaxDaysToClose)
		return out
	}

	out.Passed = true
	out.Explanation = fmt.Sprintf("Closing in %d days (within window)", daysOut)
	return out
}

func applyBudgetRule(opp *models.NormalizedOpportunity, profile *models.UserProfile) RuleOutcome {
	out := RuleOutcome{RuleID: RuleBudget}

	if profile.MinBudget == nil && profile.MaxBudget == nil {
		out.Passed = true
		out.Explanation = "Budget filter not set"
		return out
	}

	if opp.BudgetMin == nil && opp.BudgetMax == nil {
		out.Passed = true
		out.Explanation = "Budget not applicable (no budget on opportunity)"
		return out
	}

	if profile.MinBudget != nil {
		upper := opp.BudgetMax
		if upper == nil {
			upper = opp.BudgetMin
		}
		if upper != nil && upper.LessThan(*profile.MinBudget) {
			out.Explanation = fmt.Sprintf("Excluded: max budget %s below profile min %s", upper, profile.MinBudget)
			return out
		}
	}

	if profile.MaxBudget != nil {
		lower := opp.BudgetMin
		if lower == nil {
			lower = opp.BudgetMax
		}
		if lower != nil && lower.GreaterThan(*profile.MaxBudget) {
			out.Explanation = fmt.Sprintf("Excluded: min budget %s above profile max %s", lower, profile.MaxBudget)
			return out
		}
	}

	out.Passed = true
	out.Explanation = "Within budget range"
	return out
}

// classifyEligibility compares the explicit eligibility axes. It never
// excludes; unknown stays unknown rather than collapsing into a boolean.
func classifyEligibility(opp *models.NormalizedOpportunity, profile *models.UserProfile) (Eligibility, string) {
	if profile.CitizenshipRequired == nil && profile.SecurityClearance == nil && profile.LocalVendorOnly == nil {
		return EligibilityUnknown, "Eligibility filter not set"
	}

	if opp.CitizenshipRequired == "" && opp.SecurityClearance == "" && opp.LocalVendorOnly == nil {
		return EligibilityUnknown, "Eligibility unknown (no eligibility fields on opportunity)"
	}

	var ineligible, eligible []string

	if profile.CitizenshipRequired != nil && opp.CitizenshipRequired != "" {
		if !strings.EqualFold(opp.CitizenshipRequired, *profile.CitizenshipRequired) {
			ineligible = append(ineligible, fmt.Sprintf(
				"Citizenship: opportunity requires %s, profile has %s",
				opp.CitizenshipRequired, *profile.CitizenshipRequired))
		} else {
			eligible = append(eligible, "Citizenship matches")
		}
	}

	if profile.SecurityClearance != nil && opp.SecurityClearance != "" {
		if !strings.EqualFold(opp.SecurityClearance, *profile.SecurityClearance) {
			ineligible = append(ineligible, fmt.Sprintf(
				"Security clearance: opportunity requires %s, profile has %s",
				opp.SecurityClearance, *profile.SecurityClearance))
		} else {
			eligible = append(eligible, "Security clearance matches")
		}
	}

	if profile.LocalVendorOnly != nil && opp.LocalVendorOnly != nil {
		if *opp.LocalVendorOnly != *profile.LocalVendorOnly {
			ineligible = append(ineligible, fmt.Sprintf(
				"Local vendor: opportunity=%v, profile=%v", *opp.LocalVendorOnly, *profile.LocalVendorOnly))
		} else {
			eligible = append(eligible, "Local vendor requirement matches")
		}
	}

	if len(ineligible) > 0 {
		return EligibilityIneligible, strings.Join(ineligible, "; ")
	}
	if len(eligible) > 0 {
		return EligibilityEligible, strings.Join(eligible, "; ")
	}
	return EligibilityUnknown, "Eligibility unknown (partial field overlap)"
}
