package bidsandtenders

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/david/rfp-finder/internal/connectors"
	"github.com/david/rfp-finder/internal/models"
)

// MultiConnector fans one fetch out across several tenant portals and
// concatenates the results. Individual portal failures are logged and
// skipped; the fetch fails only when every portal fails.
type MultiConnector struct {
	Subdomains []string

	newTenant func(subdomain string) connectors.Connector
}

// NewForTenants resolves tenant keys (or a province filter) against the
// known-tenant table and builds one connector per portal.
func NewForTenants(keys []string, province string) *MultiConnector {
	return &MultiConnector{
		Subdomains: TenantSubdomains(keys, province),
		newTenant: func(subdomain string) connectors.Connector {
			return NewForBaseURL(BaseURLForTenant(subdomain))
		},
	}
}

func (m *MultiConnector) Source() string {
	return SourceID
}

func (m *MultiConnector) FetchAll(ctx context.Context) ([]*models.NormalizedOpportunity, error) {
	return m.fetch(ctx, func(conn connectors.Connector) ([]*models.NormalizedOpportunity, error) {
		return conn.FetchAll(ctx)
	})
}

func (m *MultiConnector) FetchIncremental(ctx context.Context, since time.Time) ([]*models.NormalizedOpportunity, error) {
	return m.fetch(ctx, func(conn connectors.Connector) ([]*models.NormalizedOpportunity, error) {
		return conn.FetchIncremental(ctx, since)
	})
}

func (m *MultiConnector) fetch(ctx context.Context, do func(connectors.Connector) ([]*models.NormalizedOpportunity, error)) ([]*models.NormalizedOpportunity, error) {
	var all []*models.NormalizedOpportunity
	seen := make(map[string]bool)
	var failures []string

	for _, subdomain := range m.Subdomains {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		opps, err := do(m.newTenant(subdomain))
		if err != nil {
			log.Printf("Tenant %s fetch failed: %v", subdomain, err)
			failures = append(failures, subdomain)
			continue
		}
		for _, opp := range opps {
			if seen[opp.ID] {
				continue
			}
			seen[opp.ID] = true
			all = append(all, opp)
		}
	}

	if len(failures) == len(m.Subdomains) {
		return nil, fmt.Errorf("all tenant portals failed: %s", strings.Join(failures, ", "))
	}
	return all, nil
}
