// Package auth resolves and tracks the authenticated identity that all
// listing queries are scoped to.
package auth

import (
	"context"
	"sync"

	"github.com/inventory-hub/internal/logging"
	"github.com/inventory-hub/internal/types"
)

// UserStore checks identities against the backing store
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*types.Identity, error)
}

// SessionService resolves the current identity and notifies observers
// when it changes. It is an explicit, constructible object with a
// defined lifecycle, so multiple instances (e.g. in tests) never share
// state.
//
// Absence of a session is an expected condition and is reported as a
// tagged Unauthenticated result, not an error.
type SessionService struct {
	store UserStore

	mu          sync.RWMutex
	initialized bool
	current     types.IdentityResult
	subscribers map[int]func(types.IdentityResult)
	nextSubID   int
}

// NewSessionService creates a session service over the given user store
func NewSessionService(store UserStore) *SessionService {
	return &SessionService{
		store:       store,
		current:     types.Unauthenticated(),
		subscribers: make(map[int]func(types.IdentityResult)),
	}
}

// Init marks the service ready. Resolve before Init always reports
// Unauthenticated.
func (s *SessionService) Init() {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

// Dispose drops all subscribers and resets the session state
func (s *SessionService) Dispose() {
	s.mu.Lock()
	s.initialized = false
	s.current = types.Unauthenticated()
	s.subscribers = make(map[int]func(types.IdentityResult))
	s.mu.Unlock()
}

// Resolve validates a claimed user id against the store and records the
// result as the current session. An empty id or unknown user yields the
// Unauthenticated result; store failures are logged and also yield
// Unauthenticated (a query cannot proceed without a confirmed identity).
func (s *SessionService) Resolve(ctx context.Context, userID string) types.IdentityResult {
	s.mu.RLock()
	ready := s.initialized
	s.mu.RUnlock()

	if !ready || userID == "" {
		return s.update(types.Unauthenticated())
	}

	identity, err := s.store.GetUser(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Identity lookup failed")
		return s.update(types.Unauthenticated())
	}
	if identity == nil {
		return s.update(types.Unauthenticated())
	}

	return s.update(types.Authenticated(identity))
}

// Current returns the last resolved identity result
func (s *SessionService) Current() types.IdentityResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers an observer for session changes and returns its
// unsubscribe function. Observers are called synchronously on every
// change.
func (s *SessionService) Subscribe(fn func(types.IdentityResult)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// update stores the result and notifies observers when it changed
func (s *SessionService) update(result types.IdentityResult) types.IdentityResult {
	s.mu.Lock()
	changed := s.current.OK != result.OK ||
		(result.OK && s.current.Identity != nil && result.Identity != nil &&
			s.current.Identity.UserID != result.Identity.UserID) ||
		(result.OK && s.current.Identity == nil)
	s.current = result
	var observers []func(types.IdentityResult)
	if changed {
		observers = make([]func(types.IdentityResult), 0, len(s.subscribers))
		for _, fn := range s.subscribers {
			observers = append(observers, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(result)
	}

	return result
}
