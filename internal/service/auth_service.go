package service

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spendlens/spendlens-backend/internal/domain"
)

// AuthService provisions users from validated Auth0 identities
type AuthService struct {
	userRepo        domain.UserRepository
	categoryService *CategoryService
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, categoryService *CategoryService) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		categoryService: categoryService,
	}
}

// HandleCallback resolves the Auth0 identity to a local user, creating the
// user row and seeding the default category catalog on first login
func (s *AuthService) HandleCallback(auth0ID, email string, name *string) (*domain.User, error) {
	user, err := s.userRepo.CreateOrGetByAuth0ID(auth0ID, email, name)
	if err != nil {
		return nil, err
	}

	if _, seeded, err := s.categoryService.SetupDefaults(user.ID); err != nil {
		// The user exists; failing the login over seed trouble helps nobody
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to seed default categories")
	} else if seeded {
		log.Info().Str("user_id", user.ID.String()).Msg("Provisioned new user")
	}

	return user, nil
}

// GetUserByAuth0ID returns the local user for an Auth0 identity
func (s *AuthService) GetUserByAuth0ID(auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(auth0ID)
}

// GetUserIDByAuth0ID satisfies the auth middleware's UserProvider and the
// websocket validator's UserLookup
func (s *AuthService) GetUserIDByAuth0ID(auth0ID string) (uuid.UUID, error) {
	user, err := s.userRepo.GetByAuth0ID(auth0ID)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}
