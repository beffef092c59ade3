package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/middleware"
	"github.com/spendlens/spendlens-backend/internal/service"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthCallbackRequest optionally overrides profile fields taken from the token
type AuthCallbackRequest struct {
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// HandleCallback handles POST /api/v1/auth/callback. It runs behind token
// validation only, so first-time users can be provisioned here.
func (h *AuthHandler) HandleCallback(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return NewUnauthorizedError(c, "Not authenticated")
	}

	var req AuthCallbackRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	email := req.Email
	name := req.Name
	if claims := middleware.GetCustomClaims(c); claims != nil {
		if email == "" {
			email = claims.Email
		}
		if name == nil && claims.Name != "" {
			claimName := claims.Name
			name = &claimName
		}
	}
	if email == "" {
		return NewValidationError(c, "Email is required", []FieldError{
			{Field: "email", Message: "Email missing from token and request"},
		})
	}

	user, err := h.authService.HandleCallback(auth0ID, email, name)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Auth callback failed")
		return NewInternalError(c, "Failed to complete sign-in")
	}

	return Success(c, http.StatusOK, "Signed in successfully", toUserResponse(user))
}

// GetMe handles GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return NewUnauthorizedError(c, "Not authenticated")
	}

	user, err := h.authService.GetUserByAuth0ID(auth0ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NewNotFoundError(c, "User not provisioned")
		}
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to load user")
		return NewInternalError(c, "Failed to load user")
	}

	return Success(c, http.StatusOK, "User retrieved successfully", toUserResponse(user))
}
