package connectors

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/david/rfp-finder/internal/models"
)

// RawOpportunity is an unnormalized record exactly as a source produced it,
// keyed by source-native field names.
type RawOpportunity struct {
	Data map[string]string
}

// Connector is the standard interface for RFP sources. FetchAll returns
// every currently listed notice; FetchIncremental returns only notices
// published at or after since, using a cheaper feed when the source has one.
type Connector interface {
	Source() string
	FetchAll(ctx context.Context) ([]*models.NormalizedOpportunity, error)
	FetchIncremental(ctx context.Context, since time.Time) ([]*models.NormalizedOpportunity, error)
}

// Registry maps source identifiers to connector constructors.
type Registry struct {
	factories map[string]func() Connector
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() Connector)}
}

func (r *Registry) Register(sourceID string, factory func() Connector) {
	r.factories[sourceID] = factory
}

// Get returns a connector instance for the given source id.
func (r *Registry) Get(sourceID string) (Connector, error) {
	factory, ok := r.factories[sourceID]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (available: %v)", sourceID, r.AvailableSources())
	}
	return factory(), nil
}

// AvailableSources returns registered source identifiers, sorted.
func (r *Registry) AvailableSources() []string {
	sources := make([]string, 0, len(r.factories))
	for id := range r.factories {
		sources = append(sources, id)
	}
	sort.Strings(sources)
	return sources
}
