package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/middleware"
	"github.com/spendlens/spendlens-backend/internal/service"
)

// ExpenseHandler handles expense HTTP requests
type ExpenseHandler struct {
	expenseService     *service.ExpenseService
	aggregationService *service.AggregationService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *service.ExpenseService, aggregationService *service.AggregationService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService:     expenseService,
		aggregationService: aggregationService,
	}
}

// RecurringPatternRequest is the recurring block of an expense request
type RecurringPatternRequest struct {
	Frequency string  `json:"frequency"`
	Interval  int32   `json:"interval"`
	EndDate   *string `json:"endDate"`
}

// CreateExpenseRequest represents the create expense request body
type CreateExpenseRequest struct {
	Title            string                   `json:"title"`
	Description      *string                  `json:"description"`
	Amount           float64                  `json:"amount"`
	Currency         *string                  `json:"currency"`
	Category         string                   `json:"category"`
	Date             *string                  `json:"date"`
	PaymentMethod    *string                  `json:"paymentMethod"`
	Location         *string                  `json:"location"`
	Tags             []string                 `json:"tags"`
	Notes            *string                  `json:"notes"`
	IsRecurring      bool                     `json:"isRecurring"`
	RecurringPattern *RecurringPatternRequest `json:"recurringPattern"`
}

// UpdateExpenseRequest represents the update expense request body
type UpdateExpenseRequest struct {
	Title            *string                  `json:"title"`
	Description      *string                  `json:"description"`
	Amount           *float64                 `json:"amount"`
	Currency         *string                  `json:"currency"`
	Category         *string                  `json:"category"`
	Date             *string                  `json:"date"`
	PaymentMethod    *string                  `json:"paymentMethod"`
	Location         *string                  `json:"location"`
	Tags             []string                 `json:"tags"`
	Notes            *string                  `json:"notes"`
	IsRecurring      *bool                    `json:"isRecurring"`
	RecurringPattern *RecurringPatternRequest `json:"recurringPattern"`
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func toRecurringPattern(req *RecurringPatternRequest) (*domain.RecurringPattern, error) {
	if req == nil {
		return nil, nil
	}
	pattern := &domain.RecurringPattern{
		Frequency: domain.RecurringFrequency(req.Frequency),
		Interval:  req.Interval,
	}
	if req.EndDate != nil {
		endDate, err := parseDate(*req.EndDate)
		if err != nil {
			return nil, err
		}
		pattern.EndDate = &endDate
	}
	return pattern, nil
}

func mapExpenseError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrExpenseNotFound):
		return NewNotFoundError(c, "Expense not found")
	case errors.Is(err, domain.ErrTitleRequired):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "title", Message: "Title is required"},
		})
	case errors.Is(err, domain.ErrTextTooLong):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "title", Message: "A text field exceeds its maximum length"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "amount", Message: "Amount must be greater than 0"},
		})
	case errors.Is(err, domain.ErrInvalidCurrency):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "currency", Message: "Unsupported currency"},
		})
	case errors.Is(err, domain.ErrInvalidPaymentMethod):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "paymentMethod", Message: "Unsupported payment method"},
		})
	case errors.Is(err, domain.ErrInvalidCategory):
		return NewValidationError(c, "Category not found", []FieldError{
			{Field: "category", Message: "Category does not exist"},
		})
	case errors.Is(err, domain.ErrInvalidRecurringPattern):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "recurringPattern", Message: "Recurring expenses require a frequency and an interval of at least 1"},
		})
	case errors.Is(err, domain.ErrUserNotFound):
		return NewUnauthorizedError(c, "User not found")
	default:
		log.Error().Err(err).Str("user_id", middleware.GetUserID(c).String()).Msgf("Failed to %s expense", action)
		return NewInternalError(c, fmt.Sprintf("Failed to %s expense", action))
	}
}

// CreateExpense handles POST /api/v1/expenses
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	categoryID, err := parseOptionalUUID(&req.Category)
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	pattern, err := toRecurringPattern(req.RecurringPattern)
	if err != nil {
		return NewValidationError(c, "Invalid recurring pattern end date", nil)
	}

	input := service.CreateExpenseInput{
		Title:            req.Title,
		Description:      req.Description,
		Amount:           decimal.NewFromFloat(req.Amount),
		CategoryID:       *categoryID,
		Location:         req.Location,
		Tags:             req.Tags,
		Notes:            req.Notes,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: pattern,
	}
	if req.Currency != nil {
		currency := domain.Currency(*req.Currency)
		input.Currency = &currency
	}
	if req.PaymentMethod != nil {
		method := domain.PaymentMethod(*req.PaymentMethod)
		input.PaymentMethod = &method
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return NewValidationError(c, "Invalid date", nil)
		}
		input.Date = date
	}

	expense, err := h.expenseService.CreateExpense(userID, input)
	if err != nil {
		return mapExpenseError(c, err, "create")
	}

	log.Info().Str("user_id", userID.String()).Str("expense_id", expense.ID.String()).Str("amount", expense.Amount.String()).Msg("Expense created")
	return Success(c, http.StatusCreated, "Expense created successfully", toExpenseResponse(expense))
}

// GetExpenses handles GET /api/v1/expenses
func (h *ExpenseHandler) GetExpenses(c echo.Context) error {
	userID := middleware.GetUserID(c)

	filters, err := h.parseFilters(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	page, err := h.expenseService.GetExpenses(userID, filters)
	if err != nil {
		return mapExpenseError(c, err, "list")
	}

	return Success(c, http.StatusOK, "Expenses retrieved successfully", PaginatedExpensesResponse{
		Expenses:   toExpenseResponses(page.Expenses),
		Pagination: page.Pagination,
	})
}

func (h *ExpenseHandler) parseFilters(c echo.Context) (*domain.ExpenseFilters, error) {
	filters := &domain.ExpenseFilters{
		Search: c.QueryParam("search"),
	}

	if raw := c.QueryParam("category"); raw != "" {
		id, err := parseOptionalUUID(&raw)
		if err != nil {
			return nil, fmt.Errorf("invalid category ID")
		}
		filters.CategoryID = id
	}

	startDate, endDate, err := parseDateRangeQuery(c)
	if err != nil {
		return nil, err
	}
	filters.StartDate = startDate
	filters.EndDate = endDate

	if raw := c.QueryParam("minAmount"); raw != "" {
		min, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid minAmount")
		}
		filters.MinAmount = &min
	}
	if raw := c.QueryParam("maxAmount"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid maxAmount")
		}
		filters.MaxAmount = &max
	}
	if raw := c.QueryParam("paymentMethod"); raw != "" {
		method := domain.PaymentMethod(raw)
		filters.PaymentMethod = &method
	}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid page")
		}
		filters.Page = int32(page)
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid limit")
		}
		filters.Limit = int32(limit)
	}
	return filters, nil
}

// GetExpense handles GET /api/v1/expenses/:id
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	expense, err := h.expenseService.GetExpenseByID(userID, id)
	if err != nil {
		return mapExpenseError(c, err, "get")
	}

	return Success(c, http.StatusOK, "Expense retrieved successfully", toExpenseResponse(expense))
}

// UpdateExpense handles PUT /api/v1/expenses/:id
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	var req UpdateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	pattern, err := toRecurringPattern(req.RecurringPattern)
	if err != nil {
		return NewValidationError(c, "Invalid recurring pattern end date", nil)
	}

	input := service.UpdateExpenseInput{
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		Tags:             req.Tags,
		Notes:            req.Notes,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: pattern,
	}
	if req.Amount != nil {
		amount := decimal.NewFromFloat(*req.Amount)
		input.Amount = &amount
	}
	if req.Currency != nil {
		currency := domain.Currency(*req.Currency)
		input.Currency = &currency
	}
	if req.Category != nil {
		categoryID, err := parseOptionalUUID(req.Category)
		if err != nil {
			return NewValidationError(c, "Invalid category ID", nil)
		}
		input.CategoryID = categoryID
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return NewValidationError(c, "Invalid date", nil)
		}
		input.Date = &date
	}
	if req.PaymentMethod != nil {
		method := domain.PaymentMethod(*req.PaymentMethod)
		input.PaymentMethod = &method
	}

	expense, err := h.expenseService.UpdateExpense(userID, id, input)
	if err != nil {
		return mapExpenseError(c, err, "update")
	}

	log.Info().Str("user_id", userID.String()).Str("expense_id", expense.ID.String()).Msg("Expense updated")
	return Success(c, http.StatusOK, "Expense updated successfully", toExpenseResponse(expense))
}

// DeleteExpense handles DELETE /api/v1/expenses/:id
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	if err := h.expenseService.DeleteExpense(userID, id); err != nil {
		return mapExpenseError(c, err, "delete")
	}

	log.Info().Str("user_id", userID.String()).Str("expense_id", id.String()).Msg("Expense deleted")
	return Success(c, http.StatusOK, "Expense deleted successfully", nil)
}

// GetExpenseSummary handles GET /api/v1/expenses/stats/summary
func (h *ExpenseHandler) GetExpenseSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)

	startDate, endDate, err := parseDateRangeQuery(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	summary, err := h.aggregationService.GetSummary(userID, startDate, endDate)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDateRange) {
			return NewValidationError(c, "endDate must not be before startDate", nil)
		}
		return mapExpenseError(c, err, "summarize")
	}

	return Success(c, http.StatusOK, "Expense summary retrieved successfully", toExpenseSummaryResponse(summary))
}

// GetRecentExpenses handles GET /api/v1/expenses/stats/recent
func (h *ExpenseHandler) GetRecentExpenses(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var limit int32
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError(c, "Invalid limit", nil)
		}
		limit = int32(parsed)
	}

	expenses, err := h.expenseService.GetRecentExpenses(userID, limit)
	if err != nil {
		return mapExpenseError(c, err, "list")
	}

	return Success(c, http.StatusOK, "Recent expenses retrieved successfully", toExpenseResponses(expenses))
}
