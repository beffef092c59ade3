package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/testutil"
)

func newBudgetService() (*BudgetService, *testutil.MockBudgetRepository, *testutil.MockExpenseRepository, *testutil.MockCategoryRepository, *testutil.MockUserRepository) {
	budgetRepo := testutil.NewMockBudgetRepository()
	expenseRepo := testutil.NewMockExpenseRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	userRepo := testutil.NewMockUserRepository()
	return NewBudgetService(budgetRepo, expenseRepo, categoryRepo, userRepo), budgetRepo, expenseRepo, categoryRepo, userRepo
}

func monthWindow() (time.Time, time.Time) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	return start, end
}

func TestCreateBudget(t *testing.T) {
	service, _, _, categoryRepo, userRepo := newBudgetService()
	user := addTestUser(userRepo, domain.CurrencyGBP)
	category := addTestCategory(categoryRepo, user.ID, "Groceries")
	start, end := monthWindow()

	created, err := service.CreateBudget(user.ID, CreateBudgetInput{
		Name:      "August",
		Amount:    decimal.NewFromInt(500),
		StartDate: start,
		EndDate:   end,
		Allocations: []AllocationInput{
			{CategoryID: category.ID, AllocatedAmount: decimal.NewFromInt(300)},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if created.Currency != domain.CurrencyGBP {
		t.Errorf("expected user's preferred currency GBP, got '%s'", created.Currency)
	}
	if created.Period != domain.PeriodMonthly {
		t.Errorf("expected default period monthly, got '%s'", created.Period)
	}
	if !created.AlertThresholds.Warning.Equal(domain.DefaultWarningThreshold) {
		t.Errorf("expected default warning threshold 80, got %s", created.AlertThresholds.Warning.String())
	}
	if !created.AlertThresholds.Critical.Equal(domain.DefaultCriticalThreshold) {
		t.Errorf("expected default critical threshold 95, got %s", created.AlertThresholds.Critical.String())
	}
	if !created.IsActive {
		t.Error("expected new budget to be active")
	}
	if created.Allocations[0].CategoryName != "Groceries" {
		t.Errorf("expected resolved allocation category name, got '%s'", created.Allocations[0].CategoryName)
	}
}

func TestCreateBudget_Validation(t *testing.T) {
	service, _, _, categoryRepo, userRepo := newBudgetService()
	user := addTestUser(userRepo, domain.DefaultCurrency)
	category := addTestCategory(categoryRepo, user.ID, "Groceries")
	start, end := monthWindow()

	valid := func() CreateBudgetInput {
		return CreateBudgetInput{
			Name:      "August",
			Amount:    decimal.NewFromInt(500),
			StartDate: start,
			EndDate:   end,
			Allocations: []AllocationInput{
				{CategoryID: category.ID, AllocatedAmount: decimal.NewFromInt(300)},
			},
		}
	}

	t.Run("no allocations", func(t *testing.T) {
		input := valid()
		input.Allocations = nil
		if _, err := service.CreateBudget(user.ID, input); !errors.Is(err, domain.ErrNoAllocations) {
			t.Errorf("expected ErrNoAllocations, got: %v", err)
		}
	})

	t.Run("window inverted", func(t *testing.T) {
		input := valid()
		input.StartDate, input.EndDate = end, start
		if _, err := service.CreateBudget(user.ID, input); !errors.Is(err, domain.ErrInvalidDateRange) {
			t.Errorf("expected ErrInvalidDateRange, got: %v", err)
		}
	})

	t.Run("over-allocation", func(t *testing.T) {
		input := valid()
		input.Allocations = []AllocationInput{
			{CategoryID: category.ID, AllocatedAmount: decimal.NewFromInt(600)},
		}
		if _, err := service.CreateBudget(user.ID, input); !errors.Is(err, domain.ErrOverAllocation) {
			t.Errorf("expected ErrOverAllocation, got: %v", err)
		}
	})

	t.Run("threshold out of range", func(t *testing.T) {
		input := valid()
		input.AlertThresholds = &domain.AlertThresholds{
			Warning:  decimal.NewFromInt(80),
			Critical: decimal.NewFromInt(120),
		}
		if _, err := service.CreateBudget(user.ID, input); !errors.Is(err, domain.ErrInvalidThreshold) {
			t.Errorf("expected ErrInvalidThreshold, got: %v", err)
		}
	})

	t.Run("unknown allocation category", func(t *testing.T) {
		input := valid()
		input.Allocations = []AllocationInput{
			{CategoryID: uuid.New(), AllocatedAmount: decimal.NewFromInt(100)},
		}
		if _, err := service.CreateBudget(user.ID, input); !errors.Is(err, domain.ErrInvalidCategory) {
			t.Errorf("expected ErrInvalidCategory, got: %v", err)
		}
	})
}

func TestGetBudgetByID_Spending(t *testing.T) {
	service, _, expenseRepo, categoryRepo, userRepo := newBudgetService()
	user := addTestUser(userRepo, domain.DefaultCurrency)
	groceries := addTestCategory(categoryRepo, user.ID, "Groceries")
	other := addTestCategory(categoryRepo, user.ID, "Other")
	start, end := monthWindow()

	created, err := service.CreateBudget(user.ID, CreateBudgetInput{
		Name:      "August",
		Amount:    decimal.NewFromInt(500),
		StartDate: start,
		EndDate:   end,
		Allocations: []AllocationInput{
			{CategoryID: groceries.ID, AllocatedAmount: decimal.NewFromInt(300)},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	inWindow := start.Add(24 * time.Hour)
	// In the allocated category
	expenseRepo.AddExpense(&domain.Expense{
		UserID: user.ID, CategoryID: groceries.ID, Title: "Shop",
		Amount: decimal.NewFromInt(120), Date: inWindow,
	})
	// Outside the allocated categories but still the user's in-window spend
	expenseRepo.AddExpense(&domain.Expense{
		UserID: user.ID, CategoryID: other.ID, Title: "Cinema",
		Amount: decimal.NewFromInt(80), Date: inWindow,
	})
	// Outside the window
	expenseRepo.AddExpense(&domain.Expense{
		UserID: user.ID, CategoryID: groceries.ID, Title: "Old",
		Amount: decimal.NewFromInt(999), Date: start.Add(-48 * time.Hour),
	})

	service.now = func() time.Time { return start.Add(10 * 24 * time.Hour) }

	view, err := service.GetBudgetByID(user.ID, created.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Budget-level spend covers ALL in-window expenses
	if !view.SpentAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected spent 200, got %s", view.SpentAmount.String())
	}
	if !view.RemainingAmount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected remaining 300, got %s", view.RemainingAmount.String())
	}
	if !view.SpentPercentage.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected 40%%, got %s", view.SpentPercentage.String())
	}
	if view.Status != domain.StatusOnTrack {
		t.Errorf("expected on_track, got '%s'", view.Status)
	}
	if view.IsExceeded {
		t.Error("expected not exceeded")
	}

	// Allocation spend is restricted to the allocated category
	if len(view.Allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(view.Allocations))
	}
	alloc := view.Allocations[0]
	if !alloc.SpentAmount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("expected allocation spent 120, got %s", alloc.SpentAmount.String())
	}
	if alloc.TransactionCount != 1 {
		t.Errorf("expected 1 transaction, got %d", alloc.TransactionCount)
	}
	if !alloc.RemainingAmount.Equal(decimal.NewFromInt(180)) {
		t.Errorf("expected allocation remaining 180, got %s", alloc.RemainingAmount.String())
	}
}

func TestGetCurrentBudgets_WindowInclusive(t *testing.T) {
	service, budgetRepo, _, _, _ := newBudgetService()
	userID := uuid.New()
	start, end := monthWindow()

	budgetRepo.AddBudget(&domain.Budget{
		UserID: userID, Name: "Current", Amount: decimal.NewFromInt(100),
		StartDate: start, EndDate: end, IsActive: true,
	})
	budgetRepo.AddBudget(&domain.Budget{
		UserID: userID, Name: "Inactive", Amount: decimal.NewFromInt(100),
		StartDate: start, EndDate: end, IsActive: false,
	})
	budgetRepo.AddBudget(&domain.Budget{
		UserID: userID, Name: "Past", Amount: decimal.NewFromInt(100),
		StartDate: start.AddDate(0, -2, 0), EndDate: end.AddDate(0, -2, 0), IsActive: true,
	})

	// Exactly on the boundary counts as inside
	service.now = func() time.Time { return start }

	views, err := service.GetCurrentBudgets(userID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 current budget, got %d", len(views))
	}
	if views[0].Name != "Current" {
		t.Errorf("expected 'Current', got '%s'", views[0].Name)
	}
}

func TestUpdateBudget_RevalidatesMergedState(t *testing.T) {
	service, _, _, categoryRepo, userRepo := newBudgetService()
	user := addTestUser(userRepo, domain.DefaultCurrency)
	category := addTestCategory(categoryRepo, user.ID, "Groceries")
	start, end := monthWindow()

	created, err := service.CreateBudget(user.ID, CreateBudgetInput{
		Name:      "August",
		Amount:    decimal.NewFromInt(500),
		StartDate: start,
		EndDate:   end,
		Allocations: []AllocationInput{
			{CategoryID: category.ID, AllocatedAmount: decimal.NewFromInt(400)},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Shrinking the amount below the existing allocations must fail
	amount := decimal.NewFromInt(300)
	if _, err := service.UpdateBudget(user.ID, created.ID, UpdateBudgetInput{Amount: &amount}); !errors.Is(err, domain.ErrOverAllocation) {
		t.Errorf("expected ErrOverAllocation, got: %v", err)
	}

	// The stored budget is untouched by the failed update
	stored, err := service.budgetRepo.GetByID(user.ID, created.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !stored.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected stored amount 500, got %s", stored.Amount.String())
	}
}

func TestUpdateBudget_Deactivate(t *testing.T) {
	service, _, _, categoryRepo, userRepo := newBudgetService()
	user := addTestUser(userRepo, domain.DefaultCurrency)
	category := addTestCategory(categoryRepo, user.ID, "Groceries")
	start, end := monthWindow()

	created, err := service.CreateBudget(user.ID, CreateBudgetInput{
		Name:      "August",
		Amount:    decimal.NewFromInt(500),
		StartDate: start,
		EndDate:   end,
		Allocations: []AllocationInput{
			{CategoryID: category.ID, AllocatedAmount: decimal.NewFromInt(300)},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	active := false
	updated, err := service.UpdateBudget(user.ID, created.ID, UpdateBudgetInput{IsActive: &active})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if updated.IsActive {
		t.Error("expected budget to be inactive")
	}

	service.now = func() time.Time { return start.Add(24 * time.Hour) }
	views, err := service.GetCurrentBudgets(user.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("expected deactivated budget excluded from current, got %d", len(views))
	}
}

func TestGetOverview(t *testing.T) {
	service, budgetRepo, expenseRepo, categoryRepo, _ := newBudgetService()
	userID := uuid.New()
	category := addTestCategory(categoryRepo, userID, "Groceries")
	start, end := monthWindow()
	inWindow := start.Add(24 * time.Hour)

	critical := &domain.Budget{
		UserID: userID, Name: "Tight", Amount: decimal.NewFromInt(100),
		StartDate: start, EndDate: end, IsActive: true,
		AlertThresholds: domain.AlertThresholds{
			Warning:  domain.DefaultWarningThreshold,
			Critical: domain.DefaultCriticalThreshold,
		},
		Allocations: []domain.BudgetAllocation{
			{CategoryID: category.ID, AllocatedAmount: decimal.NewFromInt(100)},
		},
	}
	budgetRepo.AddBudget(critical)

	expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: category.ID, Title: "Blowout",
		Amount: decimal.NewFromInt(120), Date: inWindow,
	})

	service.now = func() time.Time { return inWindow }

	overview, err := service.GetOverview(userID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if overview.TotalBudgets != 1 {
		t.Errorf("expected 1 budget, got %d", overview.TotalBudgets)
	}
	if overview.StatusCounts[domain.StatusCritical] != 1 {
		t.Errorf("expected 1 critical budget, got %d", overview.StatusCounts[domain.StatusCritical])
	}
	if overview.ExceededCount != 1 {
		t.Errorf("expected 1 exceeded budget, got %d", overview.ExceededCount)
	}
	if !overview.TotalBudgeted.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected total budgeted 100, got %s", overview.TotalBudgeted.String())
	}
	if !overview.TotalSpent.Equal(decimal.NewFromInt(120)) {
		t.Errorf("expected total spent 120, got %s", overview.TotalSpent.String())
	}
	if len(overview.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(overview.Alerts))
	}
	if overview.Alerts[0].Level != string(domain.StatusCritical) {
		t.Errorf("expected critical alert, got '%s'", overview.Alerts[0].Level)
	}
}

func TestDeleteBudget_ForeignOwner(t *testing.T) {
	service, budgetRepo, _, _, _ := newBudgetService()
	owner := uuid.New()
	start, end := monthWindow()

	budget := &domain.Budget{
		UserID: owner, Name: "Private", Amount: decimal.NewFromInt(100),
		StartDate: start, EndDate: end, IsActive: true,
	}
	budgetRepo.AddBudget(budget)

	if err := service.DeleteBudget(uuid.New(), budget.ID); !errors.Is(err, domain.ErrBudgetNotFound) {
		t.Errorf("expected ErrBudgetNotFound, got: %v", err)
	}
}

func TestBudgetEvents(t *testing.T) {
	service, _, _, categoryRepo, userRepo := newBudgetService()
	publisher := &testutil.RecordingPublisher{}
	service.SetEventPublisher(publisher)

	user := addTestUser(userRepo, domain.DefaultCurrency)
	category := addTestCategory(categoryRepo, user.ID, "Groceries")
	start, end := monthWindow()

	created, err := service.CreateBudget(user.ID, CreateBudgetInput{
		Name:      "August",
		Amount:    decimal.NewFromInt(500),
		StartDate: start,
		EndDate:   end,
		Allocations: []AllocationInput{
			{CategoryID: category.ID, AllocatedAmount: decimal.NewFromInt(300)},
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := service.DeleteBudget(user.ID, created.ID); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(publisher.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(publisher.Events))
	}
	if publisher.Events[0].Type != "budget.created" {
		t.Errorf("expected budget.created, got '%s'", publisher.Events[0].Type)
	}
	if publisher.Events[1].Type != "budget.deleted" {
		t.Errorf("expected budget.deleted, got '%s'", publisher.Events[1].Type)
	}
}
