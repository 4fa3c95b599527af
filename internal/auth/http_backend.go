package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/earnwise/earnwise-go/internal/config"
	"github.com/earnwise/earnwise-go/internal/models"
)

// HTTPBackend delegates credential operations to an external auth service
// over JSON/HTTP.
type HTTPBackend struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewHTTPBackend(cfg config.AuthConfig, logger *logrus.Logger) *HTTPBackend {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPBackend{
		baseURL:    strings.TrimSuffix(cfg.ServiceURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authErrorResponse struct {
	Error string `json:"error"`
}

func (b *HTTPBackend) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	var session models.AuthSession
	if err := b.makeRequest(ctx, http.MethodPost, "/v1/auth/login", credentialsRequest{Email: email, Password: password}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (b *HTTPBackend) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	var session models.AuthSession
	if err := b.makeRequest(ctx, http.MethodPost, "/v1/auth/register", credentialsRequest{Email: email, Password: password}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (b *HTTPBackend) RefreshSession(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	var session models.AuthSession
	if err := b.makeRequest(ctx, http.MethodPost, "/v1/auth/refresh", refreshRequest{RefreshToken: refreshToken}, &session); err != nil {
		// A rejected refresh is a spent or revoked refresh token, not bad
		// credentials.
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return &session, nil
}

func (b *HTTPBackend) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			b.logger.WithError(err).Warn("Error closing response body")
		}
	}()

	if resp.StatusCode >= 400 {
		return b.statusError(resp)
	}
	return nil
}

func (b *HTTPBackend) makeRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "earnwise-go/1.0")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			b.logger.WithError(err).Warn("Error closing response body")
		}
	}()

	if resp.StatusCode >= 400 {
		return b.statusError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// statusError maps HTTP failure codes onto the backend sentinel errors so
// callers can treat remote and in-memory backends uniformly.
func (b *HTTPBackend) statusError(resp *http.Response) error {
	respBody, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrInvalidCredentials
	case http.StatusConflict:
		return ErrUserExists
	}

	var errResp authErrorResponse
	if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("auth service error (%d): %s", resp.StatusCode, errResp.Error)
	}
	return fmt.Errorf("auth service error (%d)", resp.StatusCode)
}
