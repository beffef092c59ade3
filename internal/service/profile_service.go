package service

import (
	"github.com/google/uuid"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/websocket"
)

// ProfileService handles user profile reads and updates
type ProfileService struct {
	userRepo       domain.UserRepository
	eventPublisher websocket.EventPublisher
}

// NewProfileService creates a new ProfileService
func NewProfileService(userRepo domain.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ProfileService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// GetProfile returns the user's profile
func (s *ProfileService) GetProfile(userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateProfile updates the user's display name and/or preferred currency
func (s *ProfileService) UpdateProfile(userID uuid.UUID, name *string, currency *domain.Currency) (*domain.User, error) {
	if currency != nil && !currency.IsValid() {
		return nil, domain.ErrInvalidCurrency
	}

	user, err := s.userRepo.UpdateProfile(userID, name, currency)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, websocket.ProfileUpdated(user))
	}
	return user, nil
}
