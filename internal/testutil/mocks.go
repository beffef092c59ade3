package testutil

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/websocket"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	ByID     map[uuid.UUID]*domain.User
	CreateFn func(auth0ID, email string, name *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:       uuid.New(),
		Auth0ID:  auth0ID,
		Email:    email,
		Name:     name,
		Currency: domain.DefaultCurrency,
	}
	m.Users[auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// UpdateProfile updates the user's name and/or currency
func (m *MockUserRepository) UpdateProfile(id uuid.UUID, name *string, currency *domain.Currency) (*domain.User, error) {
	user, ok := m.ByID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if name != nil {
		user.Name = name
	}
	if currency != nil {
		user.Currency = *currency
	}
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[uuid.UUID]*domain.Category
	CreateFn   func(category *domain.Category) (*domain.Category, error)
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[uuid.UUID]*domain.Category),
	}
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	m.Categories[category.ID] = category
}

// Create creates a new category
func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	if m.CreateFn != nil {
		return m.CreateFn(category)
	}
	category.ID = uuid.New()
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	m.Categories[category.ID] = category
	return category, nil
}

// GetByID retrieves an active category visible to the user (owned or default).
// A copy is returned so callers cannot mutate stored state before Update.
func (m *MockCategoryRepository) GetByID(userID, id uuid.UUID) (*domain.Category, error) {
	c, ok := m.Categories[id]
	if !ok || !c.IsActive || (c.UserID != userID && !c.IsDefault) {
		return nil, domain.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

// GetOwnedByID retrieves a non-default active category owned by the user
func (m *MockCategoryRepository) GetOwnedByID(userID, id uuid.UUID) (*domain.Category, error) {
	c, ok := m.Categories[id]
	if !ok || !c.IsActive || c.UserID != userID || c.IsDefault {
		return nil, domain.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

// GetByName matches active categories case-insensitively
func (m *MockCategoryRepository) GetByName(userID uuid.UUID, name string) (*domain.Category, error) {
	for _, c := range m.Categories {
		if c.IsActive && (c.UserID == userID || c.IsDefault) && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

// GetAllForUser returns active categories, defaults first then name ascending
func (m *MockCategoryRepository) GetAllForUser(userID uuid.UUID) ([]*domain.Category, error) {
	var result []*domain.Category
	for _, c := range m.Categories {
		if c.IsActive && (c.UserID == userID || c.IsDefault) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsDefault != result[j].IsDefault {
			return result[i].IsDefault
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// GetDefaults returns the user's default categories
func (m *MockCategoryRepository) GetDefaults(userID uuid.UUID) ([]*domain.Category, error) {
	var result []*domain.Category
	for _, c := range m.Categories {
		if c.IsDefault && c.UserID == userID {
			result = append(result, c)
		}
	}
	return result, nil
}

// GetSubcategories returns the active children of a category
func (m *MockCategoryRepository) GetSubcategories(userID, id uuid.UUID) ([]*domain.Category, error) {
	var result []*domain.Category
	for _, c := range m.Categories {
		if c.IsActive && c.ParentID != nil && *c.ParentID == id && (c.UserID == userID || c.IsDefault) {
			result = append(result, c)
		}
	}
	return result, nil
}

// CreateBatch creates several categories at once
func (m *MockCategoryRepository) CreateBatch(categories []*domain.Category) ([]*domain.Category, error) {
	for _, c := range categories {
		c.ID = uuid.New()
		c.CreatedAt = time.Now()
		c.UpdatedAt = c.CreatedAt
		m.Categories[c.ID] = c
	}
	return categories, nil
}

// Update updates an existing category
func (m *MockCategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	if _, ok := m.Categories[category.ID]; !ok {
		return nil, domain.ErrCategoryNotFound
	}
	category.UpdatedAt = time.Now()
	m.Categories[category.ID] = category
	return category, nil
}

// SoftDelete marks a category inactive
func (m *MockCategoryRepository) SoftDelete(userID, id uuid.UUID) error {
	c, ok := m.Categories[id]
	if !ok || c.UserID != userID {
		return domain.ErrCategoryNotFound
	}
	c.IsActive = false
	return nil
}

// HasSubcategories reports whether any active category has the given parent
func (m *MockCategoryRepository) HasSubcategories(userID, id uuid.UUID) (bool, error) {
	subs, err := m.GetSubcategories(userID, id)
	if err != nil {
		return false, err
	}
	return len(subs) > 0, nil
}

// GetWithTotals joins categories with their expense totals. The mock does
// not track expenses, so totals are zero.
func (m *MockCategoryRepository) GetWithTotals(userID uuid.UUID, startDate, endDate *time.Time) ([]*domain.CategoryWithTotals, error) {
	categories, err := m.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.CategoryWithTotals, len(categories))
	for i, c := range categories {
		result[i] = &domain.CategoryWithTotals{Category: *c}
	}
	return result, nil
}

// MockExpenseRepository is a mock implementation of domain.ExpenseRepository
type MockExpenseRepository struct {
	Expenses map[uuid.UUID]*domain.Expense
	CreateFn func(expense *domain.Expense) (*domain.Expense, error)
}

// NewMockExpenseRepository creates a new MockExpenseRepository
func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{
		Expenses: make(map[uuid.UUID]*domain.Expense),
	}
}

// AddExpense adds an expense to the mock repository (helper for tests)
func (m *MockExpenseRepository) AddExpense(expense *domain.Expense) {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	m.Expenses[expense.ID] = expense
}

// Create creates a new expense
func (m *MockExpenseRepository) Create(expense *domain.Expense) (*domain.Expense, error) {
	if m.CreateFn != nil {
		return m.CreateFn(expense)
	}
	expense.ID = uuid.New()
	expense.CreatedAt = time.Now()
	expense.UpdatedAt = expense.CreatedAt
	m.Expenses[expense.ID] = expense
	return expense, nil
}

// GetByID retrieves an expense owned by the user
func (m *MockExpenseRepository) GetByID(userID, id uuid.UUID) (*domain.Expense, error) {
	e, ok := m.Expenses[id]
	if !ok || e.UserID != userID {
		return nil, domain.ErrExpenseNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *MockExpenseRepository) forUser(userID uuid.UUID, startDate, endDate *time.Time) []*domain.Expense {
	var result []*domain.Expense
	for _, e := range m.Expenses {
		if e.UserID != userID {
			continue
		}
		if startDate != nil && e.Date.Before(*startDate) {
			continue
		}
		if endDate != nil && e.Date.After(*endDate) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// GetByUser returns one page of the user's expenses applying the filters
func (m *MockExpenseRepository) GetByUser(userID uuid.UUID, filters *domain.ExpenseFilters) (*domain.PaginatedExpenses, error) {
	matched := m.forUser(userID, filters.StartDate, filters.EndDate)
	var filtered []*domain.Expense
	for _, e := range matched {
		if filters.CategoryID != nil && e.CategoryID != *filters.CategoryID {
			continue
		}
		if filters.MinAmount != nil && e.Amount.LessThan(*filters.MinAmount) {
			continue
		}
		if filters.MaxAmount != nil && e.Amount.GreaterThan(*filters.MaxAmount) {
			continue
		}
		if filters.PaymentMethod != nil && e.PaymentMethod != *filters.PaymentMethod {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(filters.Search)) {
			continue
		}
		filtered = append(filtered, e)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].Date.Equal(filtered[j].Date) {
			return filtered[i].Date.After(filtered[j].Date)
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := int64(len(filtered))
	start := (filters.Page - 1) * filters.Limit
	if start > int32(len(filtered)) {
		start = int32(len(filtered))
	}
	end := start + filters.Limit
	if end > int32(len(filtered)) {
		end = int32(len(filtered))
	}
	totalPages := int32((total + int64(filters.Limit) - 1) / int64(filters.Limit))

	return &domain.PaginatedExpenses{
		Expenses: filtered[start:end],
		Pagination: domain.Pagination{
			CurrentPage:  filters.Page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: filters.Limit,
			HasNextPage:  filters.Page < totalPages,
			HasPrevPage:  filters.Page > 1,
		},
	}, nil
}

// Update updates an existing expense
func (m *MockExpenseRepository) Update(expense *domain.Expense) (*domain.Expense, error) {
	if _, ok := m.Expenses[expense.ID]; !ok {
		return nil, domain.ErrExpenseNotFound
	}
	expense.UpdatedAt = time.Now()
	m.Expenses[expense.ID] = expense
	return expense, nil
}

// Delete removes an expense owned by the user
func (m *MockExpenseRepository) Delete(userID, id uuid.UUID) error {
	e, ok := m.Expenses[id]
	if !ok || e.UserID != userID {
		return domain.ErrExpenseNotFound
	}
	delete(m.Expenses, id)
	return nil
}

// GetRecent returns the user's newest expenses by creation time
func (m *MockExpenseRepository) GetRecent(userID uuid.UUID, limit int32) ([]*domain.Expense, error) {
	result := m.forUser(userID, nil, nil)
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if int32(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountByCategory counts expenses referencing a category
func (m *MockExpenseRepository) CountByCategory(categoryID uuid.UUID) (int64, error) {
	var count int64
	for _, e := range m.Expenses {
		if e.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

// TotalForUser sums all matching expenses
func (m *MockExpenseRepository) TotalForUser(userID uuid.UUID, startDate, endDate *time.Time) (*domain.ExpenseTotal, error) {
	total := &domain.ExpenseTotal{Total: decimal.Zero}
	for _, e := range m.forUser(userID, startDate, endDate) {
		total.Total = total.Total.Add(e.Amount)
		total.Count++
	}
	return total, nil
}

// ByCategory groups sums per category, descending by total
func (m *MockExpenseRepository) ByCategory(userID uuid.UUID, startDate, endDate *time.Time) ([]*domain.CategorySpending, error) {
	expenses := m.forUser(userID, startDate, endDate)
	buckets := domain.Aggregate(expenses, func(e *domain.Expense) uuid.UUID { return e.CategoryID })

	result := make([]*domain.CategorySpending, 0, len(buckets))
	for id, b := range buckets {
		result = append(result, &domain.CategorySpending{
			CategoryID: id,
			Total:      b.Total,
			Count:      b.Count,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Total.GreaterThan(result[j].Total)
	})
	return result, nil
}

// ByCategoryIn restricts the grouping to the given categories within the range
func (m *MockExpenseRepository) ByCategoryIn(userID uuid.UUID, categoryIDs []uuid.UUID, startDate, endDate time.Time) ([]*domain.CategorySpending, error) {
	wanted := make(map[uuid.UUID]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = true
	}

	all, err := m.ByCategory(userID, &startDate, &endDate)
	if err != nil {
		return nil, err
	}
	var result []*domain.CategorySpending
	for _, cs := range all {
		if wanted[cs.CategoryID] {
			result = append(result, cs)
		}
	}
	return result, nil
}

// MonthlyTrend buckets a calendar year's expenses by month
func (m *MockExpenseRepository) MonthlyTrend(userID uuid.UUID, year int) ([]*domain.MonthlyTotal, error) {
	var expenses []*domain.Expense
	for _, e := range m.forUser(userID, nil, nil) {
		if e.Date.Year() == year {
			expenses = append(expenses, e)
		}
	}
	buckets := domain.Aggregate(expenses, func(e *domain.Expense) int { return int(e.Date.Month()) })

	result := make([]*domain.MonthlyTotal, 0, len(buckets))
	for month, b := range buckets {
		result = append(result, &domain.MonthlyTotal{Month: month, Total: b.Total, Count: b.Count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result, nil
}

// MockBudgetRepository is a mock implementation of domain.BudgetRepository
type MockBudgetRepository struct {
	Budgets  map[uuid.UUID]*domain.Budget
	CreateFn func(budget *domain.Budget) (*domain.Budget, error)
}

// NewMockBudgetRepository creates a new MockBudgetRepository
func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{
		Budgets: make(map[uuid.UUID]*domain.Budget),
	}
}

// AddBudget adds a budget to the mock repository (helper for tests)
func (m *MockBudgetRepository) AddBudget(budget *domain.Budget) {
	if budget.ID == uuid.Nil {
		budget.ID = uuid.New()
	}
	m.Budgets[budget.ID] = budget
}

// Create creates a new budget with its allocations
func (m *MockBudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	if m.CreateFn != nil {
		return m.CreateFn(budget)
	}
	budget.ID = uuid.New()
	budget.CreatedAt = time.Now()
	budget.UpdatedAt = budget.CreatedAt
	m.Budgets[budget.ID] = budget
	return budget, nil
}

// GetByID retrieves a budget owned by the user
func (m *MockBudgetRepository) GetByID(userID, id uuid.UUID) (*domain.Budget, error) {
	b, ok := m.Budgets[id]
	if !ok || b.UserID != userID {
		return nil, domain.ErrBudgetNotFound
	}
	copied := *b
	copied.Allocations = append([]domain.BudgetAllocation(nil), b.Allocations...)
	return &copied, nil
}

// GetByUser lists the user's budgets, newest window first
func (m *MockBudgetRepository) GetByUser(userID uuid.UUID, filters *domain.BudgetFilters) ([]*domain.Budget, error) {
	var result []*domain.Budget
	for _, b := range m.Budgets {
		if b.UserID != userID {
			continue
		}
		if filters.IsActive != nil && b.IsActive != *filters.IsActive {
			continue
		}
		if filters.Period != nil && b.Period != *filters.Period {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartDate.After(result[j].StartDate)
	})
	return result, nil
}

// GetCurrent returns active budgets whose window contains now, inclusive
func (m *MockBudgetRepository) GetCurrent(userID uuid.UUID, now time.Time) ([]*domain.Budget, error) {
	var result []*domain.Budget
	for _, b := range m.Budgets {
		if b.UserID == userID && b.IsActive && !now.Before(b.StartDate) && !now.After(b.EndDate) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartDate.After(result[j].StartDate)
	})
	return result, nil
}

// Update updates an existing budget and its allocations
func (m *MockBudgetRepository) Update(budget *domain.Budget) (*domain.Budget, error) {
	if _, ok := m.Budgets[budget.ID]; !ok {
		return nil, domain.ErrBudgetNotFound
	}
	budget.UpdatedAt = time.Now()
	m.Budgets[budget.ID] = budget
	return budget, nil
}

// Delete removes a budget owned by the user
func (m *MockBudgetRepository) Delete(userID, id uuid.UUID) error {
	b, ok := m.Budgets[id]
	if !ok || b.UserID != userID {
		return domain.ErrBudgetNotFound
	}
	delete(m.Budgets, id)
	return nil
}

// RecordingPublisher captures published events for assertions
type RecordingPublisher struct {
	Events []PublishedEvent
}

// PublishedEvent is one captured Publish call
type PublishedEvent struct {
	UserID uuid.UUID
	Type   string
}

// Publish records the event
func (r *RecordingPublisher) Publish(userID uuid.UUID, event websocket.Event) {
	r.Events = append(r.Events, PublishedEvent{UserID: userID, Type: event.Type})
}
