// Package inventory implements the minimal resource-inventory port consumed
// by the recommendation engine (SPEC_FULL.md §6's "Inventory interface").
// Grounded on original_source/provider-selection-service/recommendation.py's
// ResourceInventory.list_resources/get_resource calls; this in-memory
// implementation stands in for whatever CMDB or cloud-native inventory API a
// deployment would wire in production, following the same single-writer,
// multi-reader discipline the comparison and selection engines use.
package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lvonguyen/costintel/internal/model"
)

// Store is an in-memory Resource registry, safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	resources map[string]model.Resource
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{resources: make(map[string]model.Resource)}
}

// Put inserts or replaces a resource by ID.
func (s *Store) Put(r model.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID] = r
}

// Delete removes a resource by ID; a no-op if it does not exist.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resources, id)
}

// Get returns the resource with the given ID.
func (s *Store) Get(ctx context.Context, id string) (model.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok {
		return model.Resource{}, fmt.Errorf("inventory: no resource with id %q", id)
	}
	return r, nil
}

// List returns every resource matching resourceType and region, sorted by
// ID for deterministic iteration order.
func (s *Store) List(ctx context.Context, resourceType model.ResourceType, region model.Region) ([]model.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Resource
	for _, r := range s.resources {
		if r.Type != resourceType {
			continue
		}
		if region != "" && r.Region != region {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
