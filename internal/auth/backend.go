package auth

import (
	"context"
	"errors"

	"github.com/earnwise/earnwise-go/internal/models"
)

// Sentinel errors returned by backends. Callers wrap them in an
// AuthOperationError before surfacing.
var (
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// Backend performs the actual credential operations. The in-memory backend
// serves development and tests; the HTTP backend delegates to an external
// auth service.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignUp(ctx context.Context, email, password string) (*models.AuthSession, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
}
