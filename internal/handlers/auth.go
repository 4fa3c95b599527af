package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/earnwise/earnwise-go/internal/auth"
	"github.com/earnwise/earnwise-go/internal/models"
)

// AuthHandler exposes the auth service and the local session state over HTTP.
type AuthHandler struct {
	service *auth.Service
	store   *auth.Store
	reducer *auth.Reducer
	logger  *logrus.Logger
}

func NewAuthHandler(service *auth.Service, store *auth.Store, reducer *auth.Reducer, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		store:   store,
		reducer: reducer,
		logger:  logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	session, err := h.service.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		h.logger.WithError(err).Error("Sign-in failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign-in failed"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	session, err := h.service.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		h.logger.WithError(err).Error("Sign-up failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign-up failed"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// Refresh handles POST /auth/refresh. On refresh failure the local session
// has already been torn down by the time the error response is sent.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	session, err := h.service.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) || errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
			return
		}
		// Backend unreachable or misbehaving; the local session has already
		// been torn down by the refresh-failure hook.
		h.logger.WithError(err).Error("Token refresh failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Token refresh failed"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	accessToken := ""
	if tokens := h.store.Tokens(); tokens != nil {
		accessToken = tokens.AccessToken
	}

	if err := h.service.SignOut(c.Request.Context(), accessToken); err != nil {
		h.logger.WithError(err).Error("Sign-out failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign-out failed"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Session handles GET /auth/session and reports the local session state.
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authenticated": h.store.IsAuthenticated(),
		"user":          h.store.User(),
	})
}

// EventHistory handles GET /auth/events and returns the retained auth
// events, oldest first.
func (h *AuthHandler) EventHistory(c *gin.Context) {
	history := h.reducer.History()
	if history == nil {
		history = []models.AuthEvent{}
	}
	c.JSON(http.StatusOK, gin.H{
		"events": history,
		"count":  len(history),
	})
}
