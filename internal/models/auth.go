package models

import "time"

// AuthEventType identifies an auth lifecycle transition emitted by the auth
// provider. The reducer only acts on the three types below; any other value
// is recorded in the event history and otherwise ignored.
type AuthEventType string

const (
	AuthEventSignedIn         AuthEventType = "SIGNED_IN"
	AuthEventSignedOut        AuthEventType = "SIGNED_OUT"
	AuthEventTokenRefreshed   AuthEventType = "TOKEN_REFRESHED"
	AuthEventUserUpdated      AuthEventType = "USER_UPDATED"
	AuthEventPasswordRecovery AuthEventType = "PASSWORD_RECOVERY"
)

// AuthUser represents an authenticated app user
type AuthUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthTokens holds the access/refresh token pair issued by the auth service
type AuthTokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthSession couples a user with their current tokens
type AuthSession struct {
	User   *AuthUser   `json:"user,omitempty"`
	Tokens *AuthTokens `json:"tokens,omitempty"`
}

// AuthEvent is a discrete auth lifecycle event consumed by the reducer.
// User and Session are optional depending on the event type.
type AuthEvent struct {
	ID         string        `json:"id"`
	Type       AuthEventType `json:"type"`
	User       *AuthUser     `json:"user,omitempty"`
	Session    *AuthSession  `json:"session,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}
