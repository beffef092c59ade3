package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/testutil"
)

func TestUpdateProfile(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	service := NewProfileService(userRepo)
	publisher := &testutil.RecordingPublisher{}
	service.SetEventPublisher(publisher)

	user := &domain.User{ID: uuid.New(), Auth0ID: "auth0|abc", Email: "ada@example.com", Currency: domain.CurrencyUSD}
	userRepo.AddUser(user)

	name := "Ada Lovelace"
	currency := domain.CurrencyEUR
	updated, err := service.UpdateProfile(user.ID, &name, &currency)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if updated.Name == nil || *updated.Name != name {
		t.Error("expected name updated")
	}
	if updated.Currency != domain.CurrencyEUR {
		t.Errorf("expected currency EUR, got '%s'", updated.Currency)
	}

	if len(publisher.Events) != 1 || publisher.Events[0].Type != "profile.updated" {
		t.Errorf("expected one profile.updated event, got %v", publisher.Events)
	}
}

func TestUpdateProfile_InvalidCurrency(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	service := NewProfileService(userRepo)

	user := &domain.User{ID: uuid.New(), Auth0ID: "auth0|abc", Email: "ada@example.com"}
	userRepo.AddUser(user)

	bad := domain.Currency("XYZ")
	if _, err := service.UpdateProfile(user.ID, nil, &bad); !errors.Is(err, domain.ErrInvalidCurrency) {
		t.Errorf("expected ErrInvalidCurrency, got: %v", err)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	service := NewProfileService(testutil.NewMockUserRepository())

	if _, err := service.GetProfile(uuid.New()); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
}
