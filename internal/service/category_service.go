package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/websocket"
)

// CategoryService handles category business logic
type CategoryService struct {
	categoryRepo   domain.CategoryRepository
	expenseRepo    domain.ExpenseRepository
	eventPublisher websocket.EventPublisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository, expenseRepo domain.ExpenseRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		expenseRepo:  expenseRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *CategoryService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *CategoryService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateCategoryInput carries the fields a user can set on a new category
type CreateCategoryInput struct {
	Name          string
	Description   *string
	Icon          string
	Color         string
	ParentID      *uuid.UUID
	MonthlyBudget decimal.Decimal
	YearlyBudget  decimal.Decimal
}

// CreateCategory creates a new user-owned category
func (s *CategoryService) CreateCategory(userID uuid.UUID, input CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxCategoryNameLength {
		return nil, domain.ErrNameTooLong
	}
	if input.Description != nil && len(*input.Description) > domain.MaxCategoryDescriptionLength {
		return nil, domain.ErrTextTooLong
	}

	icon := input.Icon
	if icon == "" {
		icon = domain.DefaultCategoryIcon
	}
	color := input.Color
	if color == "" {
		color = domain.DefaultCategoryColor
	}
	if !domain.IsValidHexColor(color) {
		return nil, domain.ErrInvalidInput
	}
	if input.MonthlyBudget.IsNegative() || input.YearlyBudget.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	// Reject names already used by an active category (case-insensitive)
	if _, err := s.categoryRepo.GetByName(userID, name); err == nil {
		return nil, domain.ErrDuplicateCategoryName
	} else if !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, err
	}

	if input.ParentID != nil {
		if _, err := s.categoryRepo.GetByID(userID, *input.ParentID); err != nil {
			if errors.Is(err, domain.ErrCategoryNotFound) {
				return nil, domain.ErrInvalidParentCategory
			}
			return nil, err
		}
	}

	category := &domain.Category{
		UserID:        userID,
		Name:          name,
		Description:   input.Description,
		Icon:          icon,
		Color:         color,
		IsActive:      true,
		ParentID:      input.ParentID,
		MonthlyBudget: input.MonthlyBudget,
		YearlyBudget:  input.YearlyBudget,
	}

	created, err := s.categoryRepo.Create(category)
	if err != nil {
		return nil, err
	}

	s.publishEvent(userID, websocket.CategoryCreated(created))
	return created, nil
}

// GetCategories returns all active categories visible to the user,
// defaults first then alphabetically
func (s *CategoryService) GetCategories(userID uuid.UUID) ([]*domain.Category, error) {
	return s.categoryRepo.GetAllForUser(userID)
}

// GetCategoryByID resolves a category owned by the user or marked default
func (s *CategoryService) GetCategoryByID(userID, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.GetByID(userID, id)
}

// GetSubcategories returns the active children of a visible category
func (s *CategoryService) GetSubcategories(userID, id uuid.UUID) ([]*domain.Category, error) {
	if _, err := s.categoryRepo.GetByID(userID, id); err != nil {
		return nil, err
	}
	return s.categoryRepo.GetSubcategories(userID, id)
}

// UpdateCategoryInput carries a partial category update; nil fields are untouched
type UpdateCategoryInput struct {
	Name          *string
	Description   *string
	Icon          *string
	Color         *string
	ParentID      *uuid.UUID
	MonthlyBudget *decimal.Decimal
	YearlyBudget  *decimal.Decimal
}

// UpdateCategory updates a non-default category owned by the user
func (s *CategoryService) UpdateCategory(userID, id uuid.UUID, input UpdateCategoryInput) (*domain.Category, error) {
	category, err := s.categoryRepo.GetOwnedByID(userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		if len(name) > domain.MaxCategoryNameLength {
			return nil, domain.ErrNameTooLong
		}
		if !strings.EqualFold(name, category.Name) {
			if existing, err := s.categoryRepo.GetByName(userID, name); err == nil && existing.ID != category.ID {
				return nil, domain.ErrDuplicateCategoryName
			} else if err != nil && !errors.Is(err, domain.ErrCategoryNotFound) {
				return nil, err
			}
		}
		category.Name = name
	}
	if input.Description != nil {
		if len(*input.Description) > domain.MaxCategoryDescriptionLength {
			return nil, domain.ErrTextTooLong
		}
		category.Description = input.Description
	}
	if input.Icon != nil {
		if *input.Icon == "" {
			return nil, domain.ErrInvalidInput
		}
		category.Icon = *input.Icon
	}
	if input.Color != nil {
		if !domain.IsValidHexColor(*input.Color) {
			return nil, domain.ErrInvalidInput
		}
		category.Color = *input.Color
	}
	if input.ParentID != nil {
		if *input.ParentID == category.ID {
			return nil, domain.ErrCategorySelfParent
		}
		if _, err := s.categoryRepo.GetByID(userID, *input.ParentID); err != nil {
			if errors.Is(err, domain.ErrCategoryNotFound) {
				return nil, domain.ErrInvalidParentCategory
			}
			return nil, err
		}
		category.ParentID = input.ParentID
	}
	if input.MonthlyBudget != nil {
		if input.MonthlyBudget.IsNegative() {
			return nil, domain.ErrInvalidAmount
		}
		category.MonthlyBudget = *input.MonthlyBudget
	}
	if input.YearlyBudget != nil {
		if input.YearlyBudget.IsNegative() {
			return nil, domain.ErrInvalidAmount
		}
		category.YearlyBudget = *input.YearlyBudget
	}

	updated, err := s.categoryRepo.Update(category)
	if err != nil {
		return nil, err
	}

	s.publishEvent(userID, websocket.CategoryUpdated(updated))
	return updated, nil
}

// DeleteCategory soft-deletes a non-default category owned by the user.
// Deletion is refused while expenses or subcategories still reference it.
func (s *CategoryService) DeleteCategory(userID, id uuid.UUID) error {
	category, err := s.categoryRepo.GetOwnedByID(userID, id)
	if err != nil {
		return err
	}

	expenseCount, err := s.expenseRepo.CountByCategory(id)
	if err != nil {
		return err
	}
	if expenseCount > 0 {
		return domain.ErrCategoryHasExpenses
	}

	hasSubs, err := s.categoryRepo.HasSubcategories(userID, id)
	if err != nil {
		return err
	}
	if hasSubs {
		return domain.ErrCategoryHasSubcategories
	}

	if err := s.categoryRepo.SoftDelete(userID, id); err != nil {
		return err
	}

	s.publishEvent(userID, websocket.CategoryDeleted(category))
	return nil
}

// SetupDefaults seeds the default catalog for a user. Idempotent: if default
// categories already exist they are returned unchanged.
func (s *CategoryService) SetupDefaults(userID uuid.UUID) ([]*domain.Category, bool, error) {
	existing, err := s.categoryRepo.GetDefaults(userID)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return existing, false, nil
	}

	categories := make([]*domain.Category, len(domain.DefaultCategorySeeds))
	for i, seed := range domain.DefaultCategorySeeds {
		categories[i] = &domain.Category{
			UserID:    userID,
			Name:      seed.Name,
			Icon:      seed.Icon,
			Color:     seed.Color,
			IsDefault: true,
			IsActive:  true,
		}
	}

	created, err := s.categoryRepo.CreateBatch(categories)
	if err != nil {
		return nil, false, err
	}

	log.Info().Str("user_id", userID.String()).Int("count", len(created)).Msg("Seeded default categories")
	s.publishEvent(userID, websocket.CategoriesSeeded(created))
	return created, true, nil
}

// GetCategoriesWithTotals returns every visible category with its expense
// totals in the optional date range, descending by total spent
func (s *CategoryService) GetCategoriesWithTotals(userID uuid.UUID, startDate, endDate *time.Time) ([]*domain.CategoryWithTotals, error) {
	return s.categoryRepo.GetWithTotals(userID, startDate, endDate)
}
