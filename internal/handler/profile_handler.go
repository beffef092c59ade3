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

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// UpdateProfileRequest represents the update profile request body
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Currency *string `json:"currency"`
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID := middleware.GetUserID(c)

	user, err := h.profileService.GetProfile(userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NewNotFoundError(c, "User not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to load profile")
		return NewInternalError(c, "Failed to load profile")
	}

	return Success(c, http.StatusOK, "Profile retrieved successfully", toUserResponse(user))
}

// UpdateProfile handles PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var currency *domain.Currency
	if req.Currency != nil {
		parsed := domain.Currency(*req.Currency)
		currency = &parsed
	}

	user, err := h.profileService.UpdateProfile(userID, req.Name, currency)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return NewNotFoundError(c, "User not found")
		case errors.Is(err, domain.ErrInvalidCurrency):
			return NewValidationError(c, "Validation failed", []FieldError{
				{Field: "currency", Message: "Unsupported currency"},
			})
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to update profile")
			return NewInternalError(c, "Failed to update profile")
		}
	}

	log.Info().Str("user_id", userID.String()).Msg("Profile updated")
	return Success(c, http.StatusOK, "Profile updated successfully", toUserResponse(user))
}
