package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/earnwise/earnwise-go/internal/models"
	"github.com/earnwise/earnwise-go/internal/utils"
)

// Service drives the auth backend and emits lifecycle events to a single
// registered listener, normally the reducer. Events are delivered on the
// caller's goroutine so that ordering matches the order of completed
// operations.
type Service struct {
	backend Backend
	logger  *logrus.Logger

	mu             sync.RWMutex
	listener       func(ctx context.Context, evt models.AuthEvent)
	refreshFailure func(ctx context.Context, reason string)
}

func NewService(backend Backend, logger *logrus.Logger) *Service {
	return &Service{
		backend: backend,
		logger:  logger,
	}
}

// OnAuthEvent registers the listener that receives lifecycle events. Only
// one listener is supported; a second call replaces the first.
func (s *Service) OnAuthEvent(listener func(ctx context.Context, evt models.AuthEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = listener
}

// OnRefreshFailure registers the compensation hook invoked when a token
// refresh fails.
func (s *Service) OnRefreshFailure(hook func(ctx context.Context, reason string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshFailure = hook
}

// SignIn authenticates the user and emits SIGNED_IN on success.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	session, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		return nil, utils.NewAuthOperationError("sign_in", "sign-in failed", err)
	}

	s.emit(ctx, models.AuthEvent{
		ID:         uuid.New().String(),
		Type:       models.AuthEventSignedIn,
		User:       session.User,
		Session:    session,
		OccurredAt: time.Now().UTC(),
	})
	return session, nil
}

// SignUp registers a new user and emits SIGNED_IN, mirroring backends that
// start a session immediately after registration.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	session, err := s.backend.SignUp(ctx, email, password)
	if err != nil {
		return nil, utils.NewAuthOperationError("sign_up", "sign-up failed", err)
	}

	s.emit(ctx, models.AuthEvent{
		ID:         uuid.New().String(),
		Type:       models.AuthEventSignedIn,
		User:       session.User,
		Session:    session,
		OccurredAt: time.Now().UTC(),
	})
	return session, nil
}

// SignOut ends the session and emits SIGNED_OUT on success. The event, not
// this method, is what clears local and cached state.
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	if err := s.backend.SignOut(ctx, accessToken); err != nil {
		return utils.NewAuthOperationError("sign_out", "sign-out failed", err)
	}

	s.emit(ctx, models.AuthEvent{
		ID:         uuid.New().String(),
		Type:       models.AuthEventSignedOut,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// RefreshTokens exchanges the refresh token for a new session and emits
// TOKEN_REFRESHED. On failure the refresh-failure hook runs first, so the
// local session is already torn down by the time the error is returned.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	session, err := s.backend.RefreshSession(ctx, refreshToken)
	if err != nil {
		s.logger.WithError(err).Warn("Token refresh failed")

		s.mu.RLock()
		hook := s.refreshFailure
		s.mu.RUnlock()
		if hook != nil {
			hook(ctx, "token refresh failed")
		}
		return nil, utils.NewAuthOperationError("refresh", "token refresh failed", err)
	}

	s.emit(ctx, models.AuthEvent{
		ID:         uuid.New().String(),
		Type:       models.AuthEventTokenRefreshed,
		User:       session.User,
		Session:    session,
		OccurredAt: time.Now().UTC(),
	})
	return session, nil
}

func (s *Service) emit(ctx context.Context, evt models.AuthEvent) {
	s.mu.RLock()
	listener := s.listener
	s.mu.RUnlock()

	if listener == nil {
		s.logger.WithField("event_type", evt.Type).Debug("Auth event dropped, no listener registered")
		return
	}
	listener(ctx, evt)
}
