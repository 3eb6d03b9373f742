package providers

import (
	"fmt"

	"github.com/lvonguyen/costintel/internal/model"
)

// Mode selects which AdapterFactory implementation to build.
type Mode string

const (
	ModeLive      Mode = "live"
	ModeSimulated Mode = "simulated"
)

// AdapterFactory builds a provider Adapter for a given provider identity.
// This is the explicit, dependency-injected replacement for the teacher's
// env-flag branching in cmd/aggregator/main.go (runAggregate's
// os.Getenv("AWS_REGION") != "" gating) and for the original Python
// source's global simulation-mode flag (SPEC_FULL.md §6, design note on
// global mutable mode flags).
type AdapterFactory interface {
	Build(provider model.Provider) (Adapter, error)
	Mode() Mode
}

// staticFactory wraps a fixed set of already-constructed adapters, keyed by
// provider identity. Both the live and simulated factories are instances of
// this shape; what differs is how main.go populates the map.
type staticFactory struct {
	mode     Mode
	adapters map[model.Provider]Adapter
}

// NewStaticFactory builds an AdapterFactory over a pre-constructed adapter
// set. mode is carried for diagnostics/logging only.
func NewStaticFactory(mode Mode, adapters map[model.Provider]Adapter) AdapterFactory {
	return &staticFactory{mode: mode, adapters: adapters}
}

func (f *staticFactory) Mode() Mode { return f.mode }

func (f *staticFactory) Build(provider model.Provider) (Adapter, error) {
	adapter, ok := f.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("providers: no %s adapter configured for mode %s", provider, f.mode)
	}
	return adapter, nil
}

// Providers returns every provider this factory has an adapter for, in a
// stable order (AWS, Azure, GCP, then any extensions found).
func Providers(f AdapterFactory) []model.Provider {
	sf, ok := f.(*staticFactory)
	if !ok {
		return nil
	}
	ordered := []model.Provider{model.AWS, model.Azure, model.GCP}
	out := make([]model.Provider, 0, len(sf.adapters))
	seen := make(map[model.Provider]bool)
	for _, p := range ordered {
		if _, ok := sf.adapters[p]; ok {
			out = append(out, p)
			seen[p] = true
		}
	}
	for p := range sf.adapters {
		if !seen[p] {
			out = append(out, p)
		}
	}
	return out
}
