package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/earnwise/earnwise-go/internal/config"
	"github.com/earnwise/earnwise-go/internal/models"
	"github.com/earnwise/earnwise-go/internal/utils"
)

const testJWTSecret = "test-secret"

func testBackend() *MemoryBackend {
	return NewMemoryBackend(config.AuthConfig{
		JWTSecret:  testJWTSecret,
		JWTExpiry:  "1h",
		BcryptCost: bcrypt.MinCost,
	})
}

type eventRecorder struct {
	mu     sync.Mutex
	events []models.AuthEvent
}

func (r *eventRecorder) record(ctx context.Context, evt models.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *eventRecorder) all() []models.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuthEvent, len(r.events))
	copy(out, r.events)
	return out
}

func TestServiceSignUpEmitsSignedIn(t *testing.T) {
	rec := &eventRecorder{}
	svc := NewService(testBackend(), testLogger())
	svc.OnAuthEvent(rec.record)

	session, err := svc.SignUp(context.Background(), "driver@example.com", "hunter2!")
	require.NoError(t, err)
	require.NotNil(t, session.User)
	require.NotNil(t, session.Tokens)
	assert.Equal(t, "driver@example.com", session.User.Email)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.AuthEventSignedIn, events[0].Type)
	assert.NotEmpty(t, events[0].ID)
	require.NotNil(t, events[0].Session)
	assert.Equal(t, session.Tokens.AccessToken, events[0].Session.Tokens.AccessToken)
}

func TestServiceSignUpDuplicateEmail(t *testing.T) {
	svc := NewService(testBackend(), testLogger())

	_, err := svc.SignUp(context.Background(), "driver@example.com", "hunter2!")
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), "Driver@Example.com", "other-pass")
	require.Error(t, err)

	var authErr *utils.AuthOperationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "sign_up", authErr.Operation)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestServiceSignInMintsVerifiableJWT(t *testing.T) {
	svc := NewService(testBackend(), testLogger())

	_, err := svc.SignUp(context.Background(), "driver@example.com", "hunter2!")
	require.NoError(t, err)

	session, err := svc.SignIn(context.Background(), "driver@example.com", "hunter2!")
	require.NoError(t, err)

	token, err := jwt.Parse(session.Tokens.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, session.User.ID, claims["user_id"])
	assert.Equal(t, "driver@example.com", claims["email"])
}

func TestServiceSignInWrongPassword(t *testing.T) {
	rec := &eventRecorder{}
	svc := NewService(testBackend(), testLogger())
	svc.OnAuthEvent(rec.record)

	_, err := svc.SignUp(context.Background(), "driver@example.com", "hunter2!")
	require.NoError(t, err)

	_, err = svc.SignIn(context.Background(), "driver@example.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Only the sign-up event was emitted.
	assert.Len(t, rec.all(), 1)
}

func TestServiceSignOutEmitsSignedOut(t *testing.T) {
	rec := &eventRecorder{}
	svc := NewService(testBackend(), testLogger())
	svc.OnAuthEvent(rec.record)

	session, err := svc.SignUp(context.Background(), "driver@example.com", "hunter2!")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(context.Background(), session.Tokens.AccessToken))

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.AuthEventSignedOut, events[1].Type)
}

func TestServiceRefreshRotatesTokens(t *testing.T) {
	rec := &eventRecorder{}
	svc := NewService(testBackend(), testLogger())
	svc.OnAuthEvent(rec.record)

	session, err := svc.SignUp(context.Background(), "driver@example.com", "hunter2!")
	require.NoError(t, err)

	refreshed, err := svc.RefreshTokens(context.Background(), session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.AuthEventTokenRefreshed, events[1].Type)

	// The old refresh token is spent.
	_, err = svc.RefreshTokens(context.Background(), session.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestServiceRefreshFailureRunsCompensation(t *testing.T) {
	svc := NewService(testBackend(), testLogger())

	var reason string
	svc.OnRefreshFailure(func(ctx context.Context, r string) {
		reason = r
	})

	_, err := svc.RefreshTokens(context.Background(), "bogus-token")
	require.Error(t, err)

	var authErr *utils.AuthOperationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "refresh", authErr.Operation)
	assert.Equal(t, "token refresh failed", reason)
}

func TestServiceWithReducerEndToEnd(t *testing.T) {
	store := NewStore()
	cache := &fakeCache{}
	reducer := NewReducer(store, cache, testLogger())

	svc := NewService(testBackend(), testLogger())
	svc.OnAuthEvent(reducer.Handle)
	svc.OnRefreshFailure(reducer.ForceSignOut)

	session, err := svc.SignUp(context.Background(), "driver@example.com", "hunter2!")
	require.NoError(t, err)
	assert.True(t, store.IsAuthenticated())

	refreshed, err := svc.RefreshTokens(context.Background(), session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, refreshed.Tokens.AccessToken, store.Tokens().AccessToken)

	// Spending the same refresh token again tears the session down.
	_, err = svc.RefreshTokens(context.Background(), session.Tokens.RefreshToken)
	require.Error(t, err)
	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.Tokens())
	assert.Equal(t, 1, cache.clearCount())
}

func TestServiceErrorsUnwrap(t *testing.T) {
	svc := NewService(testBackend(), testLogger())

	_, err := svc.SignIn(context.Background(), "nobody@example.com", "pw")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}
