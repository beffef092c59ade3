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

type expenseTestEnv struct {
	handler      *ExpenseHandler
	expenseRepo  *testutil.MockExpenseRepository
	categoryRepo *testutil.MockCategoryRepository
	userRepo     *testutil.MockUserRepository
}

func newExpenseTestEnv() expenseTestEnv {
	expenseRepo := testutil.NewMockExpenseRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	userRepo := testutil.NewMockUserRepository()
	expenseService := service.NewExpenseService(expenseRepo, categoryRepo, userRepo)
	aggregationService := service.NewAggregationService(expenseRepo)
	return expenseTestEnv{
		handler:      NewExpenseHandler(expenseService, aggregationService),
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
	}
}

func (env expenseTestEnv) addUser(currency domain.Currency) *domain.User {
	user := &domain.User{ID: uuid.New(), Auth0ID: "auth0|expense", Email: "e@example.com", Currency: currency}
	env.userRepo.AddUser(user)
	return user
}

func (env expenseTestEnv) addCategory(userID uuid.UUID, name string) *domain.Category {
	category := &domain.Category{UserID: userID, Name: name, Icon: "folder", Color: "#6B7280", IsActive: true}
	env.categoryRepo.AddCategory(category)
	return category
}

func TestCreateExpense_Handler(t *testing.T) {
	e := echo.New()
	env := newExpenseTestEnv()
	user := env.addUser(domain.CurrencyUSD)
	category := env.addCategory(user.ID, "Groceries")

	reqBody := `{"title": "Weekly shop", "amount": 45.5, "category": "` + category.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, user.ID)

	if err := env.handler.CreateExpense(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var resp ExpenseResponse
	decodeData(t, decodeEnvelope(t, rec), &resp)
	if resp.Title != "Weekly shop" {
		t.Errorf("Expected title 'Weekly shop', got '%s'", resp.Title)
	}
	if resp.Amount != 45.5 {
		t.Errorf("Expected amount 45.5, got %f", resp.Amount)
	}
	if resp.Category.Name != "Groceries" {
		t.Errorf("Expected resolved category name, got '%s'", resp.Category.Name)
	}
	if resp.PaymentMethod != string(domain.PaymentMethodCash) {
		t.Errorf("Expected default payment method, got '%s'", resp.PaymentMethod)
	}
}

func TestCreateExpense_Handler_ZeroAmount(t *testing.T) {
	e := echo.New()
	env := newExpenseTestEnv()
	user := env.addUser(domain.CurrencyUSD)
	category := env.addCategory(user.ID, "Groceries")

	reqBody := `{"title": "Free lunch", "amount": 0, "category": "` + category.ID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, user.ID)

	if err := env.handler.CreateExpense(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	env2 := decodeEnvelope(t, rec)
	if len(env2.Errors) == 0 || env2.Errors[0].Field != "amount" {
		t.Errorf("Expected a field error on 'amount', got %v", env2.Errors)
	}
}

func TestCreateExpense_Handler_UnknownCategory(t *testing.T) {
	e := echo.New()
	env := newExpenseTestEnv()
	user := env.addUser(domain.CurrencyUSD)

	reqBody := `{"title": "Thing", "amount": 5, "category": "` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, user.ID)

	if err := env.handler.CreateExpense(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetExpenses_Handler_Filters(t *testing.T) {
	e := echo.New()
	env := newExpenseTestEnv()
	userID := uuid.New()
	groceries := uuid.New()
	travel := uuid.New()

	env.expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: groceries, Title: "Shop",
		Amount: decimal.NewFromInt(50), Date: time.Now(),
	})
	env.expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: travel, Title: "Train",
		Amount: decimal.NewFromInt(30), Date: time.Now(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses?category="+groceries.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, userID)

	if err := env.handler.GetExpenses(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var resp PaginatedExpensesResponse
	decodeData(t, decodeEnvelope(t, rec), &resp)
	if len(resp.Expenses) != 1 {
		t.Fatalf("Expected 1 expense, got %d", len(resp.Expenses))
	}
	if resp.Expenses[0].Title != "Shop" {
		t.Errorf("Expected 'Shop', got '%s'", resp.Expenses[0].Title)
	}
	if resp.Pagination.TotalItems != 1 {
		t.Errorf("Expected 1 total item, got %d", resp.Pagination.TotalItems)
	}
}

func TestGetExpenses_Handler_InvalidAmountFilter(t *testing.T) {
	e := echo.New()
	env := newExpenseTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses?minAmount=abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, uuid.New())

	if err := env.handler.GetExpenses(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUpdateExpense_Handler_NotFound(t *testing.T) {
	e := echo.New()
	env := newExpenseTestEnv()

	id := uuid.NewString()
	reqBody := `{"title": "New title"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/expenses/"+id, strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	setUserContext(c, uuid.New())

	if err := env.handler.UpdateExpense(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestDeleteExpense_Handler(t *testing.T) {
	e := echo.New()
	env := newExpenseTestEnv()
	userID := uuid.New()

	expense := &domain.Expense{UserID: userID, CategoryID: uuid.New(), Title: "Coffee", Amount: decimal.NewFromInt(4)}
	env.expenseRepo.AddExpense(expense)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/expenses/"+expense.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(expense.ID.String())
	setUserContext(c, userID)

	if err := env.handler.DeleteExpense(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if len(env.expenseRepo.Expenses) != 0 {
		t.Error("Expected expense removed from store")
	}
}

func TestGetExpenseSummary_Handler(t *testing.T) {
	e := echo.New()
	env := newExpenseTestEnv()
	userID := uuid.New()
	category := uuid.New()

	env.expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: category, Title: "One",
		Amount: decimal.NewFromInt(30), Date: time.Now(),
	})
	env.expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: category, Title: "Two",
		Amount: decimal.NewFromInt(70), Date: time.Now(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses/stats/summary", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, userID)

	if err := env.handler.GetExpenseSummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var resp ExpenseSummaryResponse
	decodeData(t, decodeEnvelope(t, rec), &resp)
	if resp.Summary.TotalAmount != 100 {
		t.Errorf("Expected total 100, got %f", resp.Summary.TotalAmount)
	}
	if resp.Summary.TotalTransactions != 2 {
		t.Errorf("Expected 2 transactions, got %d", resp.Summary.TotalTransactions)
	}
	if resp.Summary.AveragePerTransaction != 50 {
		t.Errorf("Expected average 50, got %f", resp.Summary.AveragePerTransaction)
	}
	if len(resp.CategoryBreakdown) != 1 {
		t.Errorf("Expected 1 breakdown row, got %d", len(resp.CategoryBreakdown))
	}
}

func TestGetExpenseSummary_Handler_InvertedRange(t *testing.T) {
	e := echo.New()
	env := newExpenseTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses/stats/summary?startDate=2026-08-31&endDate=2026-08-01", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, uuid.New())

	if err := env.handler.GetExpenseSummary(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetRecentExpenses_Handler(t *testing.T) {
	e := echo.New()
	env := newExpenseTestEnv()
	userID := uuid.New()

	for i := 0; i < 15; i++ {
		env.expenseRepo.AddExpense(&domain.Expense{
			UserID: userID, CategoryID: uuid.New(), Title: "e",
			Amount: decimal.NewFromInt(1), Date: time.Now(),
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses/stats/recent?limit=5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUserContext(c, userID)

	if err := env.handler.GetRecentExpenses(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var resp []ExpenseResponse
	decodeData(t, decodeEnvelope(t, rec), &resp)
	if len(resp) != 5 {
		t.Errorf("Expected 5 expenses, got %d", len(resp))
	}
}
