// Package providers defines the interface for DEX price sources.
package providers

import (
	"context"
	"errors"
)

// ErrNoData is returned by a source that has no price for the requested pair.
var ErrNoData = errors.New("no price data")

// PriceSource is the interface that all DEX price sources must implement.
// Callers treat any returned error as "no data" for that source.
type PriceSource interface {
	// Name returns the display name for this source.
	Name() string

	// GetPrice returns output units per input unit for the pair.
	GetPrice(ctx context.Context, inputMint, outputMint string, amount uint64) (float64, error)
}

// Registry holds price sources in registration order. Order matters: it is
// the tie-break order when two sources quote the same extreme price.
type Registry struct {
	sources []PriceSource
	byName  map[string]PriceSource
}

// NewRegistry creates a registry holding the given sources.
func NewRegistry(sources ...PriceSource) *Registry {
	r := &Registry{byName: make(map[string]PriceSource)}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register appends a source. A source with a name that is already
// registered replaces the earlier one in place.
func (r *Registry) Register(s PriceSource) {
	if existing, ok := r.byName[s.Name()]; ok {
		for i, cur := range r.sources {
			if cur == existing {
				r.sources[i] = s
				break
			}
		}
	} else {
		r.sources = append(r.sources, s)
	}
	r.byName[s.Name()] = s
}

// Get retrieves a source by name.
func (r *Registry) Get(name string) (PriceSource, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// All returns the registered sources in registration order.
func (r *Registry) All() []PriceSource {
	out := make([]PriceSource, len(r.sources))
	copy(out, r.sources)
	return out
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	return len(r.sources)
}
