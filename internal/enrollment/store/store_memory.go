package store

import (
	"context"
	"sort"
	"sync"

	"facepay/internal/enrollment/models"
)

// InMemoryStore keeps enrollments for the process lifetime. A single RWMutex
// serializes writes against each other and against reads.
type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[string]*models.EnrolledIdentity
}

// New constructs an empty in-memory enrollment store.
func New() *InMemoryStore {
	return &InMemoryStore{identities: make(map[string]*models.EnrolledIdentity)}
}

func (s *InMemoryStore) Insert(_ context.Context, identity *models.EnrolledIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.IdentityKey]; ok {
		return ErrAlreadyEnrolled
	}
	cp := *identity
	s.identities[identity.IdentityKey] = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, key string) (*models.EnrolledIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *identity
	return &cp, nil
}

// Keys returns the enrolled identity keys in sorted order.
func (s *InMemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.identities))
	for k := range s.identities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.identities)
	return nil
}
