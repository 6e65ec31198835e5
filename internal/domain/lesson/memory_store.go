package lesson

import (
	"context"
	"sync"

	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
)

// MemoryIdentityStore is an in-process IdentityStore. Used when Redis is
// disabled or unreachable: mappings survive only for the process lifetime,
// after which resolution falls back to structural slug parsing.
type MemoryIdentityStore struct {
	mu   sync.RWMutex
	data map[string]Identity
}

// NewMemoryIdentityStore creates an empty in-memory store.
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		data: make(map[string]Identity),
	}
}

// Get returns the identity stored under slug.
func (s *MemoryIdentityStore) Get(_ context.Context, slug string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.data[slug]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	copied := identity
	return &copied, nil
}

// Put stores the identity under its slug. Last write wins.
func (s *MemoryIdentityStore) Put(_ context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[identity.Slug] = *identity
	return nil
}
