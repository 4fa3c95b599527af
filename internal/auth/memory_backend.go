package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/earnwise/earnwise-go/internal/config"
	"github.com/earnwise/earnwise-go/internal/models"
)

type memoryUser struct {
	user         models.AuthUser
	passwordHash []byte
}

// MemoryBackend is a self-contained auth backend. It hashes passwords with
// bcrypt, mints HS256 access tokens and rotates opaque refresh tokens. Used
// when no external auth service is configured, and in tests.
type MemoryBackend struct {
	mu         sync.Mutex
	users      map[string]*memoryUser // keyed by lowercased email
	refresh    map[string]string      // refresh token -> user ID
	jwtSecret  []byte
	jwtExpiry  time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewMemoryBackend creates an empty backend configured from AuthConfig.
func NewMemoryBackend(cfg config.AuthConfig) *MemoryBackend {
	return &MemoryBackend{
		users:      make(map[string]*memoryUser),
		refresh:    make(map[string]string),
		jwtSecret:  []byte(cfg.JWTSecret),
		jwtExpiry:  cfg.JWTExpiryDuration(),
		bcryptCost: cfg.BcryptCost,
		now:        time.Now,
	}
}

func (b *MemoryBackend) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.users[key]; exists {
		return nil, ErrUserExists
	}

	u := &memoryUser{
		user: models.AuthUser{
			ID:        uuid.New().String(),
			Email:     key,
			CreatedAt: b.now().UTC(),
		},
		passwordHash: hash,
	}
	b.users[key] = u

	return b.mintSessionLocked(&u.user)
}

func (b *MemoryBackend) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[key]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return b.mintSessionLocked(&u.user)
}

func (b *MemoryBackend) RefreshSession(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userID, ok := b.refresh[refreshToken]
	if !ok {
		return nil, ErrInvalidRefreshToken
	}
	// Rotation: a refresh token is single use.
	delete(b.refresh, refreshToken)

	for _, u := range b.users {
		if u.user.ID == userID {
			return b.mintSessionLocked(&u.user)
		}
	}
	return nil, ErrInvalidRefreshToken
}

func (b *MemoryBackend) SignOut(ctx context.Context, accessToken string) error {
	// Access tokens are stateless; nothing to revoke here. Refresh tokens for
	// the user stay rotated out as they are single use.
	return nil
}

func (b *MemoryBackend) mintSessionLocked(user *models.AuthUser) (*models.AuthSession, error) {
	expiresAt := b.now().Add(b.jwtExpiry)

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"iat":     b.now().Unix(),
		"exp":     expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString(b.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken := uuid.New().String()
	b.refresh[refreshToken] = user.ID

	userCopy := *user
	return &models.AuthSession{
		User: &userCopy,
		Tokens: &models.AuthTokens{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    expiresAt.UTC(),
		},
	}, nil
}
