package bidsandtenders

import (
	"sort"
	"strings"
)

// TenantInfo identifies one bids&tenders portal. Each tenant lives on its
// own subdomain of bidsandtenders.ca.
type TenantInfo struct {
	Subdomain string
	Name      string
	Province  string
	Region    string
}

// Known tenants. The list is extensible; unknown keys passed to
// TenantSubdomains are treated as literal subdomains.
var tenants = map[string]TenantInfo{
	"bids": {Subdomain: "bids", Name: "BidsAndTenders (shared)", Region: "National"},

	"halifax":            {Subdomain: "halifax", Name: "Halifax Regional Municipality", Province: "NS"},
	"moncton":            {Subdomain: "moncton", Name: "City of Moncton", Province: "NB"},
	"dieppe":             {Subdomain: "dieppe", Name: "City of Dieppe", Province: "NB"},
	"nlhydro":            {Subdomain: "nlhydro", Name: "NL Hydro", Province: "NL"},
	"princeedwardisland": {Subdomain: "princeedwardisland", Name: "Prince Edward Island", Province: "PE"},

	"vaughan":         {Subdomain: "vaughan", Name: "City of Vaughan", Province: "ON"},
	"mississauga":     {Subdomain: "mississauga", Name: "City of Mississauga", Province: "ON"},
	"guelph":          {Subdomain: "guelph", Name: "City of Guelph", Province: "ON"},
	"belleville":      {Subdomain: "belleville", Name: "City of Belleville", Province: "ON"},
	"burlington":      {Subdomain: "burlington", Name: "City of Burlington", Province: "ON"},
	"owensound":       {Subdomain: "owensound", Name: "City of Owen Sound", Province: "ON"},
	"kitchener":       {Subdomain: "kitchener", Name: "City of Kitchener", Province: "ON"},
	"london":          {Subdomain: "london", Name: "City of London", Province: "ON"},
	"whitby":          {Subdomain: "whitby", Name: "Town of Whitby", Province: "ON"},
	"regionofwaterloo": {Subdomain: "regionofwaterloo", Name: "Region of Waterloo", Province: "ON"},

	"saskatoon": {Subdomain: "saskatoon", Name: "City of Saskatoon", Province: "SK"},
	"regina":    {Subdomain: "regina", Name: "City of Regina", Province: "SK"},

	"burnaby":           {Subdomain: "burnaby", Name: "City of Burnaby", Province: "BC"},
	"metrovancouver":    {Subdomain: "metrovancouver", Name: "Metro Vancouver", Province: "BC"},
	"astsbc":            {Subdomain: "astsbc", Name: "ASTSBC", Province: "BC"},
	"interiorpurchasing": {Subdomain: "interiorpurchasing", Name: "Interior Purchasing Office", Province: "BC"},

	"ae-bc": {Subdomain: "ae-bc", Name: "Associated Engineering (BC, YK, NWT)", Province: "BC"},
	"ae-ab": {Subdomain: "ae-ab", Name: "Associated Engineering - Alberta", Province: "AB"},
	"ae-sk": {Subdomain: "ae-sk", Name: "Associated Engineering - Saskatchewan", Province: "SK"},
	"ae-mb": {Subdomain: "ae-mb", Name: "Associated Engineering - Manitoba", Province: "MB"},

	"mwsb": {Subdomain: "mwsb", Name: "Manitoba Water Services Board", Province: "MB"},

	"bidcentral": {Subdomain: "bidcentral", Name: "Bid Central", Region: "National"},
}

// TenantSubdomains resolves the subdomains to query. Explicit keys win,
// then a province filter, then the shared "bids" portal.
func TenantSubdomains(keys []string, province string) []string {
	if len(keys) > 0 {
		for _, k := range keys {
			if strings.TrimSpace(strings.ToLower(k)) == "all" || strings.TrimSpace(k) == "*" {
				return allSubdomains()
			}
		}
		var subdomains []string
		for _, k := range keys {
			key := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(k)), "_", "-")
			if ti, ok := tenants[key]; ok {
				subdomains = append(subdomains, ti.Subdomain)
			} else {
				subdomains = append(subdomains, key)
			}
		}
		return subdomains
	}

	if province != "" {
		prov := strings.ToUpper(province)
		var subdomains []string
		for _, ti := range tenants {
			if ti.Province == prov {
				subdomains = append(subdomains, ti.Subdomain)
			}
		}
		sort.Strings(subdomains)
		return subdomains
	}

	return []string{"bids"}
}

func allSubdomains() []string {
	subdomains := make([]string, 0, len(tenants))
	for _, ti := range tenants {
		subdomains = append(subdomains, ti.Subdomain)
	}
	sort.Strings(subdomains)
	return subdomains
}

// BaseURLForTenant builds the portal URL for a tenant subdomain.
func BaseURLForTenant(subdomain string) string {
	return "https://" + subdomain + ".bidsandtenders.ca"
}
