package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/service"
	"github.com/spendlens/spendlens-backend/internal/testutil"
)

type budgetTestEnv struct {
	handler      *BudgetHandler
	budgetRepo   *testutil.MockBudgetRepository
	expenseRepo  *testutil.MockExpenseRepository
	categoryRepo *testutil.MockCategoryRepository
	userRepo     *testutil.MockUserRepository
}

func newBudgetTestEnv() budgetTestEnv {
	budgetRepo := testutil.NewMockBudgetRepository()
	expenseRepo := testutil.NewMockExpenseRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	userRepo := testutil.NewMockUserRepository()
	budgetService := service.NewBudgetService(budgetRepo, expenseRepo, categoryRepo, userRepo)
	return budgetTestEnv{
		handler:      NewBudgetHandler(budgetService),
		budgetRepo:   budgetRepo,
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
	}
}

func (env budgetTestEnv) addUser() *domain.User {
	user := &domain.User{ID: uuid.New(), Auth0ID: "auth0|budget", Email: "b@example.com", Currency: domain.CurrencyUSD}
	env.userRepo.AddUser(user)
	return user
}

func (env budgetTestEnv) addCategory(userID uuid.UUID, name string) *domain.Category {
	category := &domain.Category{UserID: userID, Name: name, Icon: "folder", Color: "#6B7280", IsActive: true}
	env.categoryRepo.AddCategory(category)
	return category
}

func TestCreateBudget_Handler(t *testing.T) {
	e := echo.New()
	env := newBudgetTestEnv()
	user := env.addUser()
	category := env.addCategory(user.ID, "Groceries")

	reqBody := `{
		"name": "August Budget",
		"amount": 500,
		"startDate": "2026-08-01",
		"endDate": "2026-08-31",
		"categories": [{"category": "` + category.ID.String() + `", "allocatedAmount": 300}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, user.ID)

	if err := env.handler.CreateBudget(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var resp BudgetResponse
	decodeData(t, decodeEnvelope(t, rec), &resp)
	if resp.Name != "August Budget" {
		t.Errorf("Expected name 'August Budget', got '%s'", resp.Name)
	}
	if resp.Currency != string(domain.CurrencyUSD) {
		t.Errorf("Expected currency from profile, got '%s'", resp.Currency)
	}
	if resp.Period != string(domain.PeriodMonthly) {
		t.Errorf("Expected default monthly period, got '%s'", resp.Period)
	}
	if resp.AlertThresholds.Warning != 80 || resp.AlertThresholds.Critical != 95 {
		t.Errorf("Expected default thresholds 80/95, got %v", resp.AlertThresholds)
	}
	if len(resp.Categories) != 1 || resp.Categories[0].Category.Name != "Groceries" {
		t.Errorf("Expected resolved allocation category, got %v", resp.Categories)
	}
}

func TestCreateBudget_Handler_NoAllocations(t *testing.T) {
	e := echo.New()
	env := newBudgetTestEnv()
	user := env.addUser()

	reqBody := `{"name": "Empty", "amount": 500, "startDate": "2026-08-01", "endDate": "2026-08-31", "categories": []}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, user.ID)

	if err := env.handler.CreateBudget(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	envResp := decodeEnvelope(t, rec)
	if len(envResp.Errors) == 0 || envResp.Errors[0].Field != "categories" {
		t.Errorf("Expected a field error on 'categories', got %v", envResp.Errors)
	}
}

func TestCreateBudget_Handler_OverAllocation(t *testing.T) {
	e := echo.New()
	env := newBudgetTestEnv()
	user := env.addUser()
	category := env.addCategory(user.ID, "Groceries")

	reqBody := `{
		"name": "Tight",
		"amount": 100,
		"startDate": "2026-08-01",
		"endDate": "2026-08-31",
		"categories": [{"category": "` + category.ID.String() + `", "allocatedAmount": 150}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, user.ID)

	if err := env.handler.CreateBudget(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetBudget_Handler_Spending(t *testing.T) {
	e := echo.New()
	env := newBudgetTestEnv()
	userID := uuid.New()
	categoryID := uuid.New()

	now := time.Now()
	start := now.AddDate(0, 0, -5)
	end := now.AddDate(0, 0, 5)

	budget := &domain.Budget{
		UserID:    userID,
		Name:      "Active",
		Amount:    decimal.NewFromInt(500),
		Currency:  domain.CurrencyUSD,
		Period:    domain.PeriodMonthly,
		StartDate: start,
		EndDate:   end,
		Allocations: []domain.BudgetAllocation{
			{CategoryID: categoryID, CategoryName: "Groceries", AllocatedAmount: decimal.NewFromInt(300)},
		},
		AlertThresholds: domain.AlertThresholds{Warning: decimal.NewFromInt(80), Critical: decimal.NewFromInt(95)},
		IsActive:        true,
	}
	env.budgetRepo.AddBudget(budget)

	env.expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: categoryID, Title: "Shop",
		Amount: decimal.NewFromInt(120), Date: now,
	})
	env.expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: uuid.New(), Title: "Other",
		Amount: decimal.NewFromInt(80), Date: now,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budgets/"+budget.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(budget.ID.String())
	setUserContext(c, userID)

	if err := env.handler.GetBudget(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var resp BudgetViewResponse
	decodeData(t, decodeEnvelope(t, rec), &resp)
	if resp.SpentAmount != 200 {
		t.Errorf("Expected spent 200, got %f", resp.SpentAmount)
	}
	if resp.RemainingAmount != 300 {
		t.Errorf("Expected remaining 300, got %f", resp.RemainingAmount)
	}
	if resp.SpentPercentage != 40 {
		t.Errorf("Expected 40%% used, got %f", resp.SpentPercentage)
	}
	if resp.Status != string(domain.StatusOnTrack) {
		t.Errorf("Expected on_track status, got '%s'", resp.Status)
	}
	if len(resp.Allocations) != 1 {
		t.Fatalf("Expected 1 allocation, got %d", len(resp.Allocations))
	}
	if resp.Allocations[0].SpentAmount != 120 {
		t.Errorf("Expected allocation spend 120, got %f", resp.Allocations[0].SpentAmount)
	}
}

func TestGetBudget_Handler_NotFound(t *testing.T) {
	e := echo.New()
	env := newBudgetTestEnv()

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/budgets/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	setUserContext(c, uuid.New())

	if err := env.handler.GetBudget(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestUpdateBudget_Handler_InvalidThreshold(t *testing.T) {
	e := echo.New()
	env := newBudgetTestEnv()
	userID := uuid.New()

	budget := &domain.Budget{
		UserID:    userID,
		Name:      "Active",
		Amount:    decimal.NewFromInt(500),
		Currency:  domain.CurrencyUSD,
		Period:    domain.PeriodMonthly,
		StartDate: time.Now().AddDate(0, 0, -1),
		EndDate:   time.Now().AddDate(0, 0, 29),
		Allocations: []domain.BudgetAllocation{
			{CategoryID: uuid.New(), AllocatedAmount: decimal.NewFromInt(100)},
		},
		AlertThresholds: domain.AlertThresholds{Warning: decimal.NewFromInt(80), Critical: decimal.NewFromInt(95)},
		IsActive:        true,
	}
	env.budgetRepo.AddBudget(budget)

	reqBody := `{"alertThresholds": {"critical": 150}}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/budgets/"+budget.ID.String(), strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(budget.ID.String())
	setUserContext(c, userID)

	if err := env.handler.UpdateBudget(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestDeleteBudget_Handler_ForeignUser(t *testing.T) {
	e := echo.New()
	env := newBudgetTestEnv()

	budget := &domain.Budget{
		UserID:   uuid.New(),
		Name:     "Someone else's",
		Amount:   decimal.NewFromInt(100),
		IsActive: true,
	}
	env.budgetRepo.AddBudget(budget)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/budgets/"+budget.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(budget.ID.String())
	setUserContext(c, uuid.New())

	if err := env.handler.DeleteBudget(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetBudgetOverview_Handler(t *testing.T) {
	e := echo.New()
	env := newBudgetTestEnv()
	userID := uuid.New()
	categoryID := uuid.New()

	now := time.Now()
	budget := &domain.Budget{
		UserID:    userID,
		Name:      "Current",
		Amount:    decimal.NewFromInt(100),
		Currency:  domain.CurrencyUSD,
		Period:    domain.PeriodMonthly,
		StartDate: now.AddDate(0, 0, -5),
		EndDate:   now.AddDate(0, 0, 5),
		Allocations: []domain.BudgetAllocation{
			{CategoryID: categoryID, AllocatedAmount: decimal.NewFromInt(100)},
		},
		AlertThresholds: domain.AlertThresholds{Warning: decimal.NewFromInt(80), Critical: decimal.NewFromInt(95)},
		IsActive:        true,
	}
	env.budgetRepo.AddBudget(budget)

	env.expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: categoryID, Title: "Big spend",
		Amount: decimal.NewFromInt(96), Date: now,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budgets/stats/overview", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, userID)

	if err := env.handler.GetBudgetOverview(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var resp BudgetOverviewResponse
	decodeData(t, decodeEnvelope(t, rec), &resp)
	if resp.TotalBudgets != 1 {
		t.Errorf("Expected 1 budget, got %d", resp.TotalBudgets)
	}
	if resp.StatusCounts[string(domain.StatusCritical)] != 1 {
		t.Errorf("Expected 1 critical budget, got %v", resp.StatusCounts)
	}
	if len(resp.Alerts) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(resp.Alerts))
	}
	if resp.Alerts[0].Level != "critical" {
		t.Errorf("Expected critical alert, got '%s'", resp.Alerts[0].Level)
	}
	if resp.TotalSpent != 96 {
		t.Errorf("Expected total spent 96, got %f", resp.TotalSpent)
	}
}
