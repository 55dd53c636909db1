package models

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Keyword matching modes. Exclude keywords always apply; the mode only
// controls whether positive keywords are required to pass the filter.
const (
	KeywordsModeRequired    = "required"
	KeywordsModePreferred   = "preferred"
	KeywordsModeExcludeOnly = "exclude_only"
)

// UserProfile configures filtering and scoring for one user. List fields
// default to empty, which means "no constraint on this axis". Loaded once per
// invocation and treated as immutable for the run.
type UserProfile struct {
	ProfileID string

	Keywords            []string
	ExcludeKeywords     []string
	PreferredCategories []string
	KeywordsMode        string

	EligibleRegions []string
	ExcludeRegions  []string

	CitizenshipRequired *string
	SecurityClearance   *string
	LocalVendorOnly     *bool

	MinBudget      *decimal.Decimal
	MaxBudget      *decimal.Decimal
	MaxDaysToClose *int

	GoodExampleURLs []string
	BadExampleURLs  []string
}

type profileFile struct {
	ProfileID string `yaml:"profile_id"`
	Filters   struct {
		Keywords            []string `yaml:"keywords"`
		ExcludeKeywords     []string `yaml:"exclude_keywords"`
		KeywordsMode        string   `yaml:"keywords_mode"`
		PreferredCategories []string `yaml:"preferred_categories"`
		Regions             []string `yaml:"regions"`
		ExcludeRegions      []string `yaml:"exclude_regions"`
		MinBudget           *string  `yaml:"min_budget"`
		MaxBudget           *string  `yaml:"max_budget"`
		MaxDaysToClose      *int     `yaml:"max_days_to_close"`
	} `yaml:"filters"`
	Eligibility struct {
		CitizenshipRequired *string `yaml:"citizenship_required"`
		SecurityClearance   *string `yaml:"security_clearance"`
		LocalVendorOnly     *bool   `yaml:"local_vendor_only"`
	} `yaml:"eligibility"`
	Examples struct {
		Good []string `yaml:"good"`
		Bad  []string `yaml:"bad"`
	} `yaml:"examples"`
}

// LoadProfile reads a profile YAML file. Environment variables in the file
// (e.g. ${HOME}) are expanded before parsing.
func LoadProfile(path string) (*UserProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var pf profileFile
	if err := yaml.Unmarshal([]byte(expanded), &pf); err != nil {
		return nil, fmt.Errorf("failed to parse profile yaml: %w", err)
	}

	p := &UserProfile{
		ProfileID:           pf.ProfileID,
		Keywords:            pf.Filters.Keywords,
		ExcludeKeywords:     pf.Filters.ExcludeKeywords,
		PreferredCategories: pf.Filters.PreferredCategories,
		KeywordsMode:        pf.Filters.KeywordsMode,
		EligibleRegions:     pf.Filters.Regions,
		ExcludeRegions:      pf.Filters.ExcludeRegions,
		MaxDaysToClose:      pf.Filters.MaxDaysToClose,
		CitizenshipRequired: pf.Eligibility.CitizenshipRequired,
		SecurityClearance:   pf.Eligibility.SecurityClearance,
		LocalVendorOnly:     pf.Eligibility.LocalVendorOnly,
		GoodExampleURLs:     pf.Examples.Good,
		BadExampleURLs:      pf.Examples.Bad,
	}

	if pf.Filters.MinBudget != nil {
		d, err := decimal.NewFromString(*pf.Filters.MinBudget)
		if err != nil {
			return nil, fmt.Errorf("invalid min_budget %q: %w", *pf.Filters.MinBudget, err)
		}
		p.MinBudget = &d
	}
	if pf.Filters.MaxBudget != nil {
		d, err := decimal.NewFromString(*pf.Filters.MaxBudget)
		if err != nil {
			return nil, fmt.Errorf("invalid max_budget %q: %w", *pf.Filters.MaxBudget, err)
		}
		p.MaxBudget = &d
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate rejects configurations the pipeline must not start with.
func (p *UserProfile) Validate() error {
	if p.ProfileID == "" {
		return fmt.Errorf("profile_id is required")
	}
	switch p.KeywordsMode {
	case "", KeywordsModeRequired, KeywordsModePreferred, KeywordsModeExcludeOnly:
	default:
		return fmt.Errorf("invalid keywords_mode %q", p.KeywordsMode)
	}
	if p.MinBudget != nil && p.MaxBudget != nil && p.MinBudget.GreaterThan(*p.MaxBudget) {
		return fmt.Errorf("min_budget %s exceeds max_budget %s", p.MinBudget, p.MaxBudget)
	}
	if p.MaxDaysToClose != nil && *p.MaxDaysToClose < 0 {
		return fmt.Errorf("max_days_to_close must be >= 0")
	}
	return nil
}

// EffectiveKeywordsMode resolves the default mode when the profile omits it.
func (p *UserProfile) EffectiveKeywordsMode() string {
	if p.KeywordsMode == "" {
		return KeywordsModeRequired
	}
	return p.KeywordsMode
}
