package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/middleware"
	"github.com/spendlens/spendlens-backend/internal/service"
)

// BudgetHandler handles budget HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// AllocationRequest is one category allocation in a budget request
type AllocationRequest struct {
	Category        string  `json:"category"`
	AllocatedAmount float64 `json:"allocatedAmount"`
}

// AlertThresholdsRequest carries optional warning/critical percentages
type AlertThresholdsRequest struct {
	Warning  *float64 `json:"warning"`
	Critical *float64 `json:"critical"`
}

// CreateBudgetRequest represents the create budget request body
type CreateBudgetRequest struct {
	Name            string                  `json:"name"`
	Description     *string                 `json:"description"`
	Amount          float64                 `json:"amount"`
	Currency        *string                 `json:"currency"`
	Period          *string                 `json:"period"`
	StartDate       string                  `json:"startDate"`
	EndDate         string                  `json:"endDate"`
	Categories      []AllocationRequest     `json:"categories"`
	AlertThresholds *AlertThresholdsRequest `json:"alertThresholds"`
	AutoRenew       bool                    `json:"autoRenew"`
	Notes           *string                 `json:"notes"`
}

// UpdateBudgetRequest represents the update budget request body
type UpdateBudgetRequest struct {
	Name            *string                 `json:"name"`
	Description     *string                 `json:"description"`
	Amount          *float64                `json:"amount"`
	Currency        *string                 `json:"currency"`
	Period          *string                 `json:"period"`
	StartDate       *string                 `json:"startDate"`
	EndDate         *string                 `json:"endDate"`
	Categories      []AllocationRequest     `json:"categories"`
	AlertThresholds *AlertThresholdsRequest `json:"alertThresholds"`
	IsActive        *bool                   `json:"isActive"`
	AutoRenew       *bool                   `json:"autoRenew"`
	Notes           *string                 `json:"notes"`
}

func toAllocationInputs(requests []AllocationRequest) ([]service.AllocationInput, error) {
	inputs := make([]service.AllocationInput, len(requests))
	for i, req := range requests {
		id, err := parseOptionalUUID(&req.Category)
		if err != nil {
			return nil, err
		}
		inputs[i] = service.AllocationInput{
			CategoryID:      *id,
			AllocatedAmount: decimal.NewFromFloat(req.AllocatedAmount),
		}
	}
	return inputs, nil
}

func toAlertThresholds(req *AlertThresholdsRequest) *domain.AlertThresholds {
	if req == nil {
		return nil
	}
	thresholds := domain.AlertThresholds{
		Warning:  domain.DefaultWarningThreshold,
		Critical: domain.DefaultCriticalThreshold,
	}
	if req.Warning != nil {
		thresholds.Warning = decimal.NewFromFloat(*req.Warning)
	}
	if req.Critical != nil {
		thresholds.Critical = decimal.NewFromFloat(*req.Critical)
	}
	return &thresholds
}

func mapBudgetError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrBudgetNotFound):
		return NewNotFoundError(c, "Budget not found")
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "name", Message: fmt.Sprintf("Name must be %d characters or less", domain.MaxBudgetNameLength)},
		})
	case errors.Is(err, domain.ErrTextTooLong):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "description", Message: "A text field exceeds its maximum length"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "amount", Message: "Amounts must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidCurrency):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "currency", Message: "Unsupported currency"},
		})
	case errors.Is(err, domain.ErrInvalidPeriod):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "period", Message: "Period must be daily, weekly, monthly or yearly"},
		})
	case errors.Is(err, domain.ErrInvalidDateRange):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "endDate", Message: "End date must be after start date"},
		})
	case errors.Is(err, domain.ErrNoAllocations):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "categories", Message: "At least one category allocation is required"},
		})
	case errors.Is(err, domain.ErrOverAllocation):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "categories", Message: "Total allocated amount cannot exceed the budget amount"},
		})
	case errors.Is(err, domain.ErrInvalidThreshold):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "alertThresholds", Message: "Thresholds must be between 0 and 100"},
		})
	case errors.Is(err, domain.ErrInvalidCategory):
		return NewValidationError(c, "Allocated category not found", []FieldError{
			{Field: "categories", Message: "An allocated category does not exist"},
		})
	case errors.Is(err, domain.ErrUserNotFound):
		return NewUnauthorizedError(c, "User not found")
	default:
		log.Error().Err(err).Str("user_id", middleware.GetUserID(c).String()).Msgf("Failed to %s budget", action)
		return NewInternalError(c, fmt.Sprintf("Failed to %s budget", action))
	}
}

// CreateBudget handles POST /api/v1/budgets
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return NewValidationError(c, "Invalid start date", nil)
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return NewValidationError(c, "Invalid end date", nil)
	}
	allocations, err := toAllocationInputs(req.Categories)
	if err != nil {
		return NewValidationError(c, "Invalid allocation category ID", nil)
	}

	input := service.CreateBudgetInput{
		Name:            req.Name,
		Description:     req.Description,
		Amount:          decimal.NewFromFloat(req.Amount),
		StartDate:       startDate,
		EndDate:         endDate,
		Allocations:     allocations,
		AlertThresholds: toAlertThresholds(req.AlertThresholds),
		AutoRenew:       req.AutoRenew,
		Notes:           req.Notes,
	}
	if req.Currency != nil {
		currency := domain.Currency(*req.Currency)
		input.Currency = &currency
	}
	if req.Period != nil {
		period := domain.BudgetPeriod(*req.Period)
		input.Period = &period
	}

	budget, err := h.budgetService.CreateBudget(userID, input)
	if err != nil {
		return mapBudgetError(c, err, "create")
	}

	log.Info().Str("user_id", userID.String()).Str("budget_id", budget.ID.String()).Str("name", budget.Name).Msg("Budget created")
	return Success(c, http.StatusCreated, "Budget created successfully", toBudgetResponse(budget))
}

// GetBudgets handles GET /api/v1/budgets
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	userID := middleware.GetUserID(c)

	filters := &domain.BudgetFilters{}
	if raw := c.QueryParam("active"); raw != "" {
		active := raw == "true"
		filters.IsActive = &active
	}
	if raw := c.QueryParam("period"); raw != "" {
		period := domain.BudgetPeriod(raw)
		filters.Period = &period
	}

	budgets, err := h.budgetService.GetBudgets(userID, filters)
	if err != nil {
		return mapBudgetError(c, err, "list")
	}

	responses := make([]BudgetResponse, len(budgets))
	for i, b := range budgets {
		responses[i] = toBudgetResponse(b)
	}
	return Success(c, http.StatusOK, "Budgets retrieved successfully", responses)
}

// GetCurrentBudgets handles GET /api/v1/budgets/current
func (h *BudgetHandler) GetCurrentBudgets(c echo.Context) error {
	userID := middleware.GetUserID(c)

	views, err := h.budgetService.GetCurrentBudgets(userID)
	if err != nil {
		return mapBudgetError(c, err, "list")
	}

	return Success(c, http.StatusOK, "Current budgets retrieved successfully", toBudgetViewResponses(views))
}

// GetBudget handles GET /api/v1/budgets/:id
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	view, err := h.budgetService.GetBudgetByID(userID, id)
	if err != nil {
		return mapBudgetError(c, err, "get")
	}

	return Success(c, http.StatusOK, "Budget retrieved successfully", toBudgetViewResponse(view))
}

// UpdateBudget handles PUT /api/v1/budgets/:id
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	var req UpdateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateBudgetInput{
		Name:            req.Name,
		Description:     req.Description,
		AlertThresholds: toAlertThresholds(req.AlertThresholds),
		IsActive:        req.IsActive,
		AutoRenew:       req.AutoRenew,
		Notes:           req.Notes,
	}
	if req.Amount != nil {
		amount := decimal.NewFromFloat(*req.Amount)
		input.Amount = &amount
	}
	if req.Currency != nil {
		currency := domain.Currency(*req.Currency)
		input.Currency = &currency
	}
	if req.Period != nil {
		period := domain.BudgetPeriod(*req.Period)
		input.Period = &period
	}
	if req.StartDate != nil {
		startDate, err := parseDate(*req.StartDate)
		if err != nil {
			return NewValidationError(c, "Invalid start date", nil)
		}
		input.StartDate = &startDate
	}
	if req.EndDate != nil {
		endDate, err := parseDate(*req.EndDate)
		if err != nil {
			return NewValidationError(c, "Invalid end date", nil)
		}
		input.EndDate = &endDate
	}
	if req.Categories != nil {
		allocations, err := toAllocationInputs(req.Categories)
		if err != nil {
			return NewValidationError(c, "Invalid allocation category ID", nil)
		}
		input.Allocations = allocations
	}

	budget, err := h.budgetService.UpdateBudget(userID, id, input)
	if err != nil {
		return mapBudgetError(c, err, "update")
	}

	log.Info().Str("user_id", userID.String()).Str("budget_id", budget.ID.String()).Msg("Budget updated")
	return Success(c, http.StatusOK, "Budget updated successfully", toBudgetResponse(budget))
}

// DeleteBudget handles DELETE /api/v1/budgets/:id
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	if err := h.budgetService.DeleteBudget(userID, id); err != nil {
		return mapBudgetError(c, err, "delete")
	}

	log.Info().Str("user_id", userID.String()).Str("budget_id", id.String()).Msg("Budget deleted")
	return Success(c, http.StatusOK, "Budget deleted successfully", nil)
}

// GetBudgetOverview handles GET /api/v1/budgets/stats/overview
func (h *BudgetHandler) GetBudgetOverview(c echo.Context) error {
	userID := middleware.GetUserID(c)

	overview, err := h.budgetService.GetOverview(userID)
	if err != nil {
		return mapBudgetError(c, err, "summarize")
	}

	return Success(c, http.StatusOK, "Budget overview retrieved successfully", toBudgetOverviewResponse(overview))
}
