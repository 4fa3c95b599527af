// Package auth implements the authentication state pipeline: an event
// provider (the auth service), a reducer that applies lifecycle events, the
// local authoritative store, and the backends the service talks to.
package auth

import (
	"sync"

	"github.com/earnwise/earnwise-go/internal/models"
)

// Store is the local authoritative owner of the current user and token pair.
// The Redis query cache only ever holds derived data; auth state lives here
// and nowhere else.
type Store struct {
	mu     sync.RWMutex
	user   *models.AuthUser
	tokens *models.AuthTokens
}

// NewStore creates an empty, signed-out store.
func NewStore() *Store {
	return &Store{}
}

// SetUser replaces the current user. Nil signs the store out of a user.
func (s *Store) SetUser(user *models.AuthUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// SetTokens replaces the current token pair.
func (s *Store) SetTokens(tokens *models.AuthTokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
}

// User returns the current user, or nil when signed out.
func (s *Store) User() *models.AuthUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Tokens returns the current token pair, or nil when signed out.
func (s *Store) Tokens() *models.AuthTokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// IsAuthenticated is derived: a store with a user is authenticated.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}
