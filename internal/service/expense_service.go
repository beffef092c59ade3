package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/websocket"
)

// ExpenseService handles expense business logic
type ExpenseService struct {
	expenseRepo    domain.ExpenseRepository
	categoryRepo   domain.CategoryRepository
	userRepo       domain.UserRepository
	eventPublisher websocket.EventPublisher
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(expenseRepo domain.ExpenseRepository, categoryRepo domain.CategoryRepository, userRepo domain.UserRepository) *ExpenseService {
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ExpenseService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ExpenseService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateExpenseInput carries the fields a user can set on a new expense
type CreateExpenseInput struct {
	Title            string
	Description      *string
	Amount           decimal.Decimal
	Currency         *domain.Currency
	CategoryID       uuid.UUID
	Date             time.Time
	PaymentMethod    *domain.PaymentMethod
	Location         *string
	Tags             []string
	Notes            *string
	IsRecurring      bool
	RecurringPattern *domain.RecurringPattern
}

func validateExpenseText(title string, description, location, notes *string, tags []string) error {
	if strings.TrimSpace(title) == "" {
		return domain.ErrTitleRequired
	}
	if len(title) > domain.MaxExpenseTitleLength {
		return domain.ErrTextTooLong
	}
	if description != nil && len(*description) > domain.MaxExpenseDescriptionLength {
		return domain.ErrTextTooLong
	}
	if location != nil && len(*location) > domain.MaxExpenseLocationLength {
		return domain.ErrTextTooLong
	}
	if notes != nil && len(*notes) > domain.MaxExpenseNotesLength {
		return domain.ErrTextTooLong
	}
	for _, tag := range tags {
		if len(tag) > domain.MaxTagLength {
			return domain.ErrTextTooLong
		}
	}
	return nil
}

func validateRecurring(isRecurring bool, pattern *domain.RecurringPattern) error {
	if !isRecurring {
		return nil
	}
	if pattern == nil || !pattern.Frequency.IsValid() || pattern.Interval < 1 {
		return domain.ErrInvalidRecurringPattern
	}
	return nil
}

// CreateExpense validates and persists a new expense for the user.
// Currency defaults to the user's preferred currency, payment method to cash.
func (s *ExpenseService) CreateExpense(userID uuid.UUID, input CreateExpenseInput) (*domain.Expense, error) {
	title := strings.TrimSpace(input.Title)
	if err := validateExpenseText(title, input.Description, input.Location, input.Notes, input.Tags); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if err := validateRecurring(input.IsRecurring, input.RecurringPattern); err != nil {
		return nil, err
	}

	currency := domain.DefaultCurrency
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return nil, domain.ErrInvalidCurrency
		}
		currency = *input.Currency
	} else {
		user, err := s.userRepo.GetByID(userID)
		if err != nil {
			return nil, err
		}
		currency = user.Currency
	}

	paymentMethod := domain.DefaultPaymentMethod
	if input.PaymentMethod != nil {
		if !input.PaymentMethod.IsValid() {
			return nil, domain.ErrInvalidPaymentMethod
		}
		paymentMethod = *input.PaymentMethod
	}

	// The category must be visible to the user (owned or default)
	category, err := s.categoryRepo.GetByID(userID, input.CategoryID)
	if err != nil {
		return nil, domain.ErrInvalidCategory
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}

	expense := &domain.Expense{
		UserID:        userID,
		CategoryID:    category.ID,
		Title:         title,
		Description:   input.Description,
		Amount:        input.Amount,
		Currency:      currency,
		Date:          date,
		PaymentMethod: paymentMethod,
		Location:      input.Location,
		Tags:          input.Tags,
		Notes:         input.Notes,
		IsRecurring:   input.IsRecurring,
	}
	if input.IsRecurring {
		expense.RecurringPattern = input.RecurringPattern
	}

	created, err := s.expenseRepo.Create(expense)
	if err != nil {
		return nil, err
	}
	created.CategoryName = category.Name
	created.CategoryIcon = category.Icon
	created.CategoryColor = category.Color

	s.publishEvent(userID, websocket.ExpenseCreated(created))
	return created, nil
}

// GetExpenses returns one page of the user's expenses after normalizing
// the page and limit bounds
func (s *ExpenseService) GetExpenses(userID uuid.UUID, filters *domain.ExpenseFilters) (*domain.PaginatedExpenses, error) {
	if filters == nil {
		filters = &domain.ExpenseFilters{}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 {
		filters.Limit = domain.DefaultPageSize
	}
	if filters.Limit > domain.MaxPageSize {
		filters.Limit = domain.MaxPageSize
	}
	if filters.PaymentMethod != nil && !filters.PaymentMethod.IsValid() {
		return nil, domain.ErrInvalidPaymentMethod
	}
	return s.expenseRepo.GetByUser(userID, filters)
}

// GetExpenseByID resolves a single expense owned by the user
func (s *ExpenseService) GetExpenseByID(userID, id uuid.UUID) (*domain.Expense, error) {
	return s.expenseRepo.GetByID(userID, id)
}

// GetRecentExpenses returns the user's newest expenses, capped at 50
func (s *ExpenseService) GetRecentExpenses(userID uuid.UUID, limit int32) ([]*domain.Expense, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > domain.MaxRecentLimit {
		limit = domain.MaxRecentLimit
	}
	return s.expenseRepo.GetRecent(userID, limit)
}

// UpdateExpenseInput carries a partial expense update; nil fields are untouched
type UpdateExpenseInput struct {
	Title            *string
	Description      *string
	Amount           *decimal.Decimal
	Currency         *domain.Currency
	CategoryID       *uuid.UUID
	Date             *time.Time
	PaymentMethod    *domain.PaymentMethod
	Location         *string
	Tags             []string
	Notes            *string
	IsRecurring      *bool
	RecurringPattern *domain.RecurringPattern
}

// UpdateExpense applies a partial update to an expense owned by the user
func (s *ExpenseService) UpdateExpense(userID, id uuid.UUID, input UpdateExpenseInput) (*domain.Expense, error) {
	expense, err := s.expenseRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, domain.ErrTitleRequired
		}
		if len(title) > domain.MaxExpenseTitleLength {
			return nil, domain.ErrTextTooLong
		}
		expense.Title = title
	}
	if input.Description != nil {
		if len(*input.Description) > domain.MaxExpenseDescriptionLength {
			return nil, domain.ErrTextTooLong
		}
		expense.Description = input.Description
	}
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		expense.Amount = *input.Amount
	}
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return nil, domain.ErrInvalidCurrency
		}
		expense.Currency = *input.Currency
	}
	if input.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(userID, *input.CategoryID)
		if err != nil {
			return nil, domain.ErrInvalidCategory
		}
		expense.CategoryID = category.ID
		expense.CategoryName = category.Name
		expense.CategoryIcon = category.Icon
		expense.CategoryColor = category.Color
	}
	if input.Date != nil {
		expense.Date = *input.Date
	}
	if input.PaymentMethod != nil {
		if !input.PaymentMethod.IsValid() {
			return nil, domain.ErrInvalidPaymentMethod
		}
		expense.PaymentMethod = *input.PaymentMethod
	}
	if input.Location != nil {
		if len(*input.Location) > domain.MaxExpenseLocationLength {
			return nil, domain.ErrTextTooLong
		}
		expense.Location = input.Location
	}
	if input.Tags != nil {
		for _, tag := range input.Tags {
			if len(tag) > domain.MaxTagLength {
				return nil, domain.ErrTextTooLong
			}
		}
		expense.Tags = input.Tags
	}
	if input.Notes != nil {
		if len(*input.Notes) > domain.MaxExpenseNotesLength {
			return nil, domain.ErrTextTooLong
		}
		expense.Notes = input.Notes
	}
	if input.IsRecurring != nil {
		expense.IsRecurring = *input.IsRecurring
	}
	if input.RecurringPattern != nil {
		expense.RecurringPattern = input.RecurringPattern
	}
	if err := validateRecurring(expense.IsRecurring, expense.RecurringPattern); err != nil {
		return nil, err
	}
	if !expense.IsRecurring {
		expense.RecurringPattern = nil
	}

	updated, err := s.expenseRepo.Update(expense)
	if err != nil {
		return nil, err
	}

	s.publishEvent(userID, websocket.ExpenseUpdated(updated))
	return updated, nil
}

// DeleteExpense removes an expense owned by the user
func (s *ExpenseService) DeleteExpense(userID, id uuid.UUID) error {
	expense, err := s.expenseRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.expenseRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publishEvent(userID, websocket.ExpenseDeleted(expense))
	return nil
}
