// Package store provides in-memory and PostgreSQL bond repositories.
package store

import (
	"context"
	"sort"
	"sync"

	"bondbook/internal/bond/models"
	id "bondbook/pkg/domain"
	"bondbook/pkg/platform/sentinel"
	"bondbook/pkg/requestcontext"
)

type bondKey struct {
	owner id.OwnerID
	isin  string
}

// InMemory keeps bonds in a map keyed by (owner, isin). Check-and-insert runs
// under one lock so concurrent inserts of the same key cannot both succeed.
type InMemory struct {
	mu    sync.RWMutex
	bonds map[bondKey]models.Bond
}

func NewInMemory() *InMemory {
	return &InMemory{bonds: make(map[bondKey]models.Bond)}
}

// Find returns the owner's bonds matching every set filter, ordered by ISIN.
func (s *InMemory) Find(_ context.Context, owner id.OwnerID, filter models.Filter) ([]*models.Bond, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Bond, 0)
	for key, b := range s.bonds {
		if key.owner != owner || !filter.Matches(&b) {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISIN < out[j].ISIN })
	return out, nil
}

// Insert stores b and stamps its Created date from the request time.
func (s *InMemory) Insert(ctx context.Context, b *models.Bond) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bondKey{owner: b.Owner, isin: b.ISIN}
	if _, exists := s.bonds[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	b.Created = models.DateOf(requestcontext.Now(ctx))
	s.bonds[key] = *b
	return nil
}

// DeleteByKey removes the owner's bond with the given ISIN.
func (s *InMemory) DeleteByKey(_ context.Context, owner id.OwnerID, isin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bondKey{owner: owner, isin: isin}
	if _, exists := s.bonds[key]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.bonds, key)
	return nil
}
