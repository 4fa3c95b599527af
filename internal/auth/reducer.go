package auth

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/earnwise/earnwise-go/internal/models"
)

// historyCapacity bounds the rolling diagnostic log of recent auth events.
// Oldest events are evicted first.
const historyCapacity = 10

// CacheClearer is the slice of the remote query cache the reducer needs:
// invalidation only, never reads or writes.
type CacheClearer interface {
	Clear(ctx context.Context) error
}

// Provider is the contract an auth event source presents: it delivers
// lifecycle events, in order, to a single registered listener.
type Provider interface {
	OnAuthEvent(listener func(ctx context.Context, evt models.AuthEvent))
}

// Reducer applies auth lifecycle events to the local store and the remote
// query cache. Event handling is serialized by an internal mutex so the
// ordering invariant holds even when the provider is called concurrently.
type Reducer struct {
	mu      sync.Mutex
	store   *Store
	cache   CacheClearer
	logger  *logrus.Logger
	history []models.AuthEvent
}

// NewReducer creates a reducer over the given store and cache. The cache may
// be nil when no remote cache is wired (some tests).
func NewReducer(store *Store, cache CacheClearer, logger *logrus.Logger) *Reducer {
	return &Reducer{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Handle applies one event. Every event is appended to the bounded history
// regardless of type; only SIGNED_IN, SIGNED_OUT and TOKEN_REFRESHED touch
// store or cache state. Unknown types are recorded no-ops.
func (r *Reducer) Handle(ctx context.Context, evt models.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record(evt)

	switch evt.Type {
	case models.AuthEventSignedIn:
		if evt.User != nil {
			r.store.SetUser(evt.User)
		} else if evt.Session != nil && evt.Session.User != nil {
			r.store.SetUser(evt.Session.User)
		}
		if evt.Session != nil && evt.Session.Tokens != nil {
			r.store.SetTokens(evt.Session.Tokens)
		}

	case models.AuthEventSignedOut:
		r.clearAll(ctx)

	case models.AuthEventTokenRefreshed:
		// Tokens only; the user is untouched.
		if evt.Session != nil && evt.Session.Tokens != nil {
			r.store.SetTokens(evt.Session.Tokens)
		}

	default:
		r.logger.WithField("event_type", evt.Type).Debug("Recorded auth event with no state effect")
	}
}

// ForceSignOut is the refresh-failure compensation: a SIGNED_OUT-equivalent
// effect applied directly, outside the normal event flow.
func (r *Reducer) ForceSignOut(ctx context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.WithField("reason", reason).Warn("Forcing sign-out")
	r.clearAll(ctx)
}

// History returns the retained events oldest-first. The returned slice is a
// copy; callers cannot disturb the buffer.
func (r *Reducer) History() []models.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.AuthEvent, len(r.history))
	copy(out, r.history)
	return out
}

func (r *Reducer) record(evt models.AuthEvent) {
	if len(r.history) == historyCapacity {
		// FIFO eviction: drop the oldest.
		copy(r.history, r.history[1:])
		r.history = r.history[:historyCapacity-1]
	}
	r.history = append(r.history, evt)
}

func (r *Reducer) clearAll(ctx context.Context) {
	r.store.SetUser(nil)
	r.store.SetTokens(nil)

	if r.cache == nil {
		return
	}
	if err := r.cache.Clear(ctx); err != nil {
		// The cache holds only derived, rebuildable entries; a failed clear
		// must not block the sign-out itself.
		r.logger.WithError(err).Warn("Failed to clear query cache on sign-out")
	}
}
