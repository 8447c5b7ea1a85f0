package memory

import (
	"context"
	"strings"
	"sync"
)

// Store is the in-memory gate state: administrator whitelist plus the
// operational flag. The whitelist is fixed at construction; the reference
// behavior has no runtime role management.
type Store struct {
	mu          sync.RWMutex
	admins      map[string]struct{}
	operational bool
}

func NewStore(admins []string, operational bool) *Store {
	whitelist := make(map[string]struct{}, len(admins))
	for _, admin := range admins {
		admin = strings.TrimSpace(admin)
		if admin != "" {
			whitelist[admin] = struct{}{}
		}
	}
	return &Store{
		admins:      whitelist,
		operational: operational,
	}
}

func (s *Store) IsAdmin(_ context.Context, caller string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[strings.TrimSpace(caller)]
	return ok, nil
}

func (s *Store) Operational(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.operational, nil
}

func (s *Store) SetOperational(_ context.Context, operational bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operational = operational
	return nil
}
