// Package session keeps the identity of the operator driving the panel.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/pkg/logger"
)

// Store is read by many components and written by one flow at a time:
// startup resolution or the reaction to a self-rename.
type Store struct {
	mu       sync.RWMutex
	identity string
	role     string
	onChange []func(identity string)
}

func NewStore(identity string) *Store {
	return &Store{identity: strings.TrimSpace(identity)}
}

// Identity returns the current operator name, empty when unknown.
func (s *Store) Identity() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Role returns the operator role when the backend reported one.
func (s *Store) Role() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// Matches reports whether key is the operator's own identity.
func (s *Store) Matches(key string) bool {
	id := s.Identity()
	return id != "" && item.SameKey(id, strings.TrimSpace(key))
}

// Set replaces the identity and notifies OnChange hooks when it changed.
func (s *Store) Set(ctx context.Context, identity, role string) {
	identity = strings.TrimSpace(identity)
	s.mu.Lock()
	changed := s.identity != identity
	s.identity = identity
	if role != "" {
		s.role = role
	}
	hooks := append([]func(string){}, s.onChange...)
	s.mu.Unlock()
	if !changed {
		return
	}
	logger.FromContext(ctx).Debug("session identity updated", "identity", identity)
	for _, fn := range hooks {
		fn(identity)
	}
}

// OnChange registers a hook called after every identity change.
func (s *Store) OnChange(fn func(identity string)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}
