package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/websocket"
)

// BudgetService handles budget business logic. Spend-derived attributes
// are recomputed from expense aggregates on every read.
type BudgetService struct {
	budgetRepo     domain.BudgetRepository
	expenseRepo    domain.ExpenseRepository
	categoryRepo   domain.CategoryRepository
	userRepo       domain.UserRepository
	eventPublisher websocket.EventPublisher

	// now is swappable in tests
	now func() time.Time
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(budgetRepo domain.BudgetRepository, expenseRepo domain.ExpenseRepository, categoryRepo domain.CategoryRepository, userRepo domain.UserRepository) *BudgetService {
	return &BudgetService{
		budgetRepo:   budgetRepo,
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		now:          time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *BudgetService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *BudgetService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// AllocationInput is one category allocation on a budget write
type AllocationInput struct {
	CategoryID      uuid.UUID
	AllocatedAmount decimal.Decimal
}

// CreateBudgetInput carries the fields a user can set on a new budget
type CreateBudgetInput struct {
	Name            string
	Description     *string
	Amount          decimal.Decimal
	Currency        *domain.Currency
	Period          *domain.BudgetPeriod
	StartDate       time.Time
	EndDate         time.Time
	Allocations     []AllocationInput
	AlertThresholds *domain.AlertThresholds
	AutoRenew       bool
	Notes           *string
}

func validateBudgetText(name string, description, notes *string) error {
	if strings.TrimSpace(name) == "" {
		return domain.ErrNameRequired
	}
	if len(name) > domain.MaxBudgetNameLength {
		return domain.ErrNameTooLong
	}
	if description != nil && len(*description) > domain.MaxBudgetDescriptionLength {
		return domain.ErrTextTooLong
	}
	if notes != nil && len(*notes) > domain.MaxBudgetNotesLength {
		return domain.ErrTextTooLong
	}
	return nil
}

func validateThresholds(t domain.AlertThresholds) error {
	hundred := decimal.NewFromInt(100)
	for _, v := range []decimal.Decimal{t.Warning, t.Critical} {
		if v.IsNegative() || v.GreaterThan(hundred) {
			return domain.ErrInvalidThreshold
		}
	}
	return nil
}

// resolveAllocations verifies every allocated category is visible to the
// user and attaches its identity
func (s *BudgetService) resolveAllocations(userID uuid.UUID, inputs []AllocationInput) ([]domain.BudgetAllocation, error) {
	allocations := make([]domain.BudgetAllocation, len(inputs))
	for i, in := range inputs {
		category, err := s.categoryRepo.GetByID(userID, in.CategoryID)
		if err != nil {
			return nil, domain.ErrInvalidCategory
		}
		allocations[i] = domain.BudgetAllocation{
			CategoryID:      category.ID,
			CategoryName:    category.Name,
			CategoryIcon:    category.Icon,
			CategoryColor:   category.Color,
			AllocatedAmount: in.AllocatedAmount,
		}
	}
	return allocations, nil
}

// CreateBudget validates and persists a new budget with its allocations.
// All validation runs before any write.
func (s *BudgetService) CreateBudget(userID uuid.UUID, input CreateBudgetInput) (*domain.Budget, error) {
	name := strings.TrimSpace(input.Name)
	if err := validateBudgetText(name, input.Description, input.Notes); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if len(input.Allocations) == 0 {
		return nil, domain.ErrNoAllocations
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

	period := domain.DefaultBudgetPeriod
	if input.Period != nil {
		if !input.Period.IsValid() {
			return nil, domain.ErrInvalidPeriod
		}
		period = *input.Period
	}

	thresholds := domain.AlertThresholds{
		Warning:  domain.DefaultWarningThreshold,
		Critical: domain.DefaultCriticalThreshold,
	}
	if input.AlertThresholds != nil {
		if err := validateThresholds(*input.AlertThresholds); err != nil {
			return nil, err
		}
		thresholds = *input.AlertThresholds
	}

	allocations, err := s.resolveAllocations(userID, input.Allocations)
	if err != nil {
		return nil, err
	}

	budget := &domain.Budget{
		UserID:          userID,
		Name:            name,
		Description:     input.Description,
		Amount:          input.Amount,
		Currency:        currency,
		Period:          period,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Allocations:     allocations,
		AlertThresholds: thresholds,
		IsActive:        true,
		AutoRenew:       input.AutoRenew,
		Notes:           input.Notes,
	}
	if err := budget.ValidateWindow(); err != nil {
		return nil, err
	}
	if err := budget.ValidateAllocations(); err != nil {
		return nil, err
	}

	created, err := s.budgetRepo.Create(budget)
	if err != nil {
		return nil, err
	}

	s.publishEvent(userID, websocket.BudgetCreated(created))
	return created, nil
}

// GetBudgets lists the user's budgets, newest window first
func (s *BudgetService) GetBudgets(userID uuid.UUID, filters *domain.BudgetFilters) ([]*domain.Budget, error) {
	if filters == nil {
		filters = &domain.BudgetFilters{}
	}
	if filters.Period != nil && !filters.Period.IsValid() {
		return nil, domain.ErrInvalidPeriod
	}
	return s.budgetRepo.GetByUser(userID, filters)
}

// withSpending derives the full budget view from in-window expense aggregates
func (s *BudgetService) withSpending(budget *domain.Budget, now time.Time) (*domain.BudgetView, error) {
	total, err := s.expenseRepo.TotalForUser(budget.UserID, &budget.StartDate, &budget.EndDate)
	if err != nil {
		return nil, err
	}

	spendingByCategory := make(map[uuid.UUID]*domain.CategorySpending)
	if ids := budget.CategoryIDs(); len(ids) > 0 {
		perCategory, err := s.expenseRepo.ByCategoryIn(budget.UserID, ids, budget.StartDate, budget.EndDate)
		if err != nil {
			return nil, err
		}
		for _, cs := range perCategory {
			spendingByCategory[cs.CategoryID] = cs
		}
	}

	return domain.DeriveBudgetView(budget, total.Total, spendingByCategory, now), nil
}

// GetBudgetByID returns a budget owned by the user with derived spending
func (s *BudgetService) GetBudgetByID(userID, id uuid.UUID) (*domain.BudgetView, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	return s.withSpending(budget, s.now())
}

// GetCurrentBudgets returns the user's active budgets whose window contains
// now, each with derived spending
func (s *BudgetService) GetCurrentBudgets(userID uuid.UUID) ([]*domain.BudgetView, error) {
	now := s.now()
	budgets, err := s.budgetRepo.GetCurrent(userID, now)
	if err != nil {
		return nil, err
	}

	views := make([]*domain.BudgetView, len(budgets))
	for i, budget := range budgets {
		view, err := s.withSpending(budget, now)
		if err != nil {
			return nil, err
		}
		views[i] = view
	}
	return views, nil
}

// UpdateBudgetInput carries a partial budget update; nil fields are untouched
type UpdateBudgetInput struct {
	Name            *string
	Description     *string
	Amount          *decimal.Decimal
	Currency        *domain.Currency
	Period          *domain.BudgetPeriod
	StartDate       *time.Time
	EndDate         *time.Time
	Allocations     []AllocationInput
	AlertThresholds *domain.AlertThresholds
	IsActive        *bool
	AutoRenew       *bool
	Notes           *string
}

// UpdateBudget applies a partial update, re-running all validations against
// the merged state before writing
func (s *BudgetService) UpdateBudget(userID, id uuid.UUID, input UpdateBudgetInput) (*domain.Budget, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		budget.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		budget.Description = input.Description
	}
	if err := validateBudgetText(budget.Name, budget.Description, budget.Notes); err != nil {
		return nil, err
	}
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		budget.Amount = *input.Amount
	}
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return nil, domain.ErrInvalidCurrency
		}
		budget.Currency = *input.Currency
	}
	if input.Period != nil {
		if !input.Period.IsValid() {
			return nil, domain.ErrInvalidPeriod
		}
		budget.Period = *input.Period
	}
	if input.StartDate != nil {
		budget.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		budget.EndDate = *input.EndDate
	}
	if input.Allocations != nil {
		if len(input.Allocations) == 0 {
			return nil, domain.ErrNoAllocations
		}
		allocations, err := s.resolveAllocations(userID, input.Allocations)
		if err != nil {
			return nil, err
		}
		budget.Allocations = allocations
	}
	if input.AlertThresholds != nil {
		if err := validateThresholds(*input.AlertThresholds); err != nil {
			return nil, err
		}
		budget.AlertThresholds = *input.AlertThresholds
	}
	if input.IsActive != nil {
		budget.IsActive = *input.IsActive
	}
	if input.AutoRenew != nil {
		budget.AutoRenew = *input.AutoRenew
	}
	if input.Notes != nil {
		if len(*input.Notes) > domain.MaxBudgetNotesLength {
			return nil, domain.ErrTextTooLong
		}
		budget.Notes = input.Notes
	}

	if err := budget.ValidateWindow(); err != nil {
		return nil, err
	}
	if err := budget.ValidateAllocations(); err != nil {
		return nil, err
	}

	updated, err := s.budgetRepo.Update(budget)
	if err != nil {
		return nil, err
	}

	s.publishEvent(userID, websocket.BudgetUpdated(updated))
	return updated, nil
}

// DeleteBudget removes a budget owned by the user
func (s *BudgetService) DeleteBudget(userID, id uuid.UUID) error {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.budgetRepo.Delete(userID, id); err != nil {
		return err
	}

	s.publishEvent(userID, websocket.BudgetDeleted(budget))
	return nil
}

// BudgetAlert flags a budget at or past one of its alert thresholds
type BudgetAlert struct {
	BudgetID      uuid.UUID       `json:"budgetId"`
	BudgetName    string          `json:"budgetName"`
	Level         string          `json:"level"`
	Percentage    decimal.Decimal `json:"percentage"`
	SpentAmount   decimal.Decimal `json:"spentAmount"`
	BudgetAmount  decimal.Decimal `json:"budgetAmount"`
	DaysRemaining int             `json:"daysRemaining"`
}

// BudgetOverview is the roll-up across the user's current budgets
type BudgetOverview struct {
	TotalBudgets  int                         `json:"totalBudgets"`
	StatusCounts  map[domain.BudgetStatus]int `json:"statusCounts"`
	ExceededCount int                         `json:"exceededCount"`
	TotalBudgeted decimal.Decimal             `json:"totalBudgeted"`
	TotalSpent    decimal.Decimal             `json:"totalSpent"`
	Alerts        []BudgetAlert               `json:"alerts"`
	Budgets       []*domain.BudgetView        `json:"budgets"`
}

// GetOverview rolls up the user's current budgets: per-status counts,
// exceeded count, totals, and threshold alerts
func (s *BudgetService) GetOverview(userID uuid.UUID) (*BudgetOverview, error) {
	views, err := s.GetCurrentBudgets(userID)
	if err != nil {
		return nil, err
	}

	overview := &BudgetOverview{
		TotalBudgets: len(views),
		StatusCounts: map[domain.BudgetStatus]int{
			domain.StatusNotStarted: 0,
			domain.StatusOnTrack:    0,
			domain.StatusWarning:    0,
			domain.StatusCritical:   0,
		},
		TotalBudgeted: decimal.Zero,
		TotalSpent:    decimal.Zero,
		Alerts:        []BudgetAlert{},
		Budgets:       views,
	}

	for _, view := range views {
		overview.StatusCounts[view.Status]++
		overview.TotalBudgeted = overview.TotalBudgeted.Add(view.Amount)
		overview.TotalSpent = overview.TotalSpent.Add(view.SpentAmount)
		if view.IsExceeded {
			overview.ExceededCount++
		}
		if view.Status == domain.StatusWarning || view.Status == domain.StatusCritical {
			overview.Alerts = append(overview.Alerts, BudgetAlert{
				BudgetID:      view.ID,
				BudgetName:    view.Name,
				Level:         string(view.Status),
				Percentage:    view.SpentPercentage,
				SpentAmount:   view.SpentAmount,
				BudgetAmount:  view.Amount,
				DaysRemaining: view.DaysRemaining,
			})
		}
	}

	return overview, nil
}
