package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/middleware"
	"github.com/spendlens/spendlens-backend/internal/service"
)

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the create category request body
type CreateCategoryRequest struct {
	Name          string   `json:"name"`
	Description   *string  `json:"description"`
	Icon          string   `json:"icon"`
	Color         string   `json:"color"`
	ParentID      *string  `json:"parentCategory"`
	MonthlyBudget *float64 `json:"monthlyBudget"`
	YearlyBudget  *float64 `json:"yearlyBudget"`
}

// UpdateCategoryRequest represents the update category request body
type UpdateCategoryRequest struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Icon          *string  `json:"icon"`
	Color         *string  `json:"color"`
	ParentID      *string  `json:"parentCategory"`
	MonthlyBudget *float64 `json:"monthlyBudget"`
	YearlyBudget  *float64 `json:"yearlyBudget"`
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseDateRangeQuery reads optional inclusive startDate/endDate query
// parameters (RFC 3339 or YYYY-MM-DD)
func parseDateRangeQuery(c echo.Context) (*time.Time, *time.Time, error) {
	parse := func(raw string) (*time.Time, error) {
		if raw == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t, nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}

	start, err := parse(c.QueryParam("startDate"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid startDate: %w", err)
	}
	end, err := parse(c.QueryParam("endDate"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid endDate: %w", err)
	}
	return start, end, nil
}

func mapCategoryError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "Category not found")
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "name", Message: fmt.Sprintf("Name must be %d characters or less", domain.MaxCategoryNameLength)},
		})
	case errors.Is(err, domain.ErrTextTooLong):
		return NewValidationError(c, "Validation failed", []FieldError{
			{Field: "description", Message: fmt.Sprintf("Description must be %d characters or less", domain.MaxCategoryDescriptionLength)},
		})
	case errors.Is(err, domain.ErrDuplicateCategoryName):
		return NewValidationError(c, "A category with this name already exists", []FieldError{
			{Field: "name", Message: "Name is already in use"},
		})
	case errors.Is(err, domain.ErrInvalidParentCategory):
		return NewValidationError(c, "Parent category not found", []FieldError{
			{Field: "parentCategory", Message: "Parent category does not exist"},
		})
	case errors.Is(err, domain.ErrCategorySelfParent):
		return NewValidationError(c, "A category cannot be its own parent", []FieldError{
			{Field: "parentCategory", Message: "Category cannot be its own parent"},
		})
	case errors.Is(err, domain.ErrCategoryHasExpenses):
		return NewValidationError(c, "Cannot delete a category that has expenses", nil)
	case errors.Is(err, domain.ErrCategoryHasSubcategories):
		return NewValidationError(c, "Cannot delete a category that has subcategories", nil)
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Budget amounts must not be negative", nil)
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid icon or color", nil)
	default:
		log.Error().Err(err).Str("user_id", middleware.GetUserID(c).String()).Msgf("Failed to %s category", action)
		return NewInternalError(c, fmt.Sprintf("Failed to %s category", action))
	}
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		return NewValidationError(c, "Invalid parent category ID", nil)
	}

	input := service.CreateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		ParentID:    parentID,
	}
	if req.MonthlyBudget != nil {
		input.MonthlyBudget = decimal.NewFromFloat(*req.MonthlyBudget)
	}
	if req.YearlyBudget != nil {
		input.YearlyBudget = decimal.NewFromFloat(*req.YearlyBudget)
	}

	category, err := h.categoryService.CreateCategory(userID, input)
	if err != nil {
		return mapCategoryError(c, err, "create")
	}

	log.Info().Str("user_id", userID.String()).Str("category_id", category.ID.String()).Str("name", category.Name).Msg("Category created")
	return Success(c, http.StatusCreated, "Category created successfully", toCategoryResponse(category))
}

// GetCategories handles GET /api/v1/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	userID := middleware.GetUserID(c)

	categories, err := h.categoryService.GetCategories(userID)
	if err != nil {
		return mapCategoryError(c, err, "list")
	}

	return Success(c, http.StatusOK, "Categories retrieved successfully", toCategoryResponses(categories))
}

// GetCategoriesWithTotals handles GET /api/v1/categories/with-totals
func (h *CategoryHandler) GetCategoriesWithTotals(c echo.Context) error {
	userID := middleware.GetUserID(c)

	startDate, endDate, err := parseDateRangeQuery(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	categories, err := h.categoryService.GetCategoriesWithTotals(userID, startDate, endDate)
	if err != nil {
		return mapCategoryError(c, err, "list")
	}

	responses := make([]CategoryWithTotalsResponse, len(categories))
	for i, cwt := range categories {
		responses[i] = CategoryWithTotalsResponse{
			CategoryResponse: toCategoryResponse(&cwt.Category),
			TotalSpent:       money(cwt.TotalSpent),
			ExpenseCount:     cwt.ExpenseCount,
		}
	}
	return Success(c, http.StatusOK, "Categories retrieved successfully", responses)
}

// GetCategory handles GET /api/v1/categories/:id
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	category, err := h.categoryService.GetCategoryByID(userID, id)
	if err != nil {
		return mapCategoryError(c, err, "get")
	}

	return Success(c, http.StatusOK, "Category retrieved successfully", toCategoryResponse(category))
}

// GetSubcategories handles GET /api/v1/categories/:id/subcategories
func (h *CategoryHandler) GetSubcategories(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	subcategories, err := h.categoryService.GetSubcategories(userID, id)
	if err != nil {
		return mapCategoryError(c, err, "list")
	}

	return Success(c, http.StatusOK, "Subcategories retrieved successfully", toCategoryResponses(subcategories))
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		return NewValidationError(c, "Invalid parent category ID", nil)
	}

	input := service.UpdateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		ParentID:    parentID,
	}
	if req.MonthlyBudget != nil {
		monthly := decimal.NewFromFloat(*req.MonthlyBudget)
		input.MonthlyBudget = &monthly
	}
	if req.YearlyBudget != nil {
		yearly := decimal.NewFromFloat(*req.YearlyBudget)
		input.YearlyBudget = &yearly
	}

	category, err := h.categoryService.UpdateCategory(userID, id, input)
	if err != nil {
		return mapCategoryError(c, err, "update")
	}

	log.Info().Str("user_id", userID.String()).Str("category_id", category.ID.String()).Msg("Category updated")
	return Success(c, http.StatusOK, "Category updated successfully", toCategoryResponse(category))
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	if err := h.categoryService.DeleteCategory(userID, id); err != nil {
		return mapCategoryError(c, err, "delete")
	}

	log.Info().Str("user_id", userID.String()).Str("category_id", id.String()).Msg("Category deleted (soft)")
	return Success(c, http.StatusOK, "Category deleted successfully", nil)
}

// SetupDefaultCategories handles POST /api/v1/categories/setup-defaults
func (h *CategoryHandler) SetupDefaultCategories(c echo.Context) error {
	userID := middleware.GetUserID(c)

	categories, seeded, err := h.categoryService.SetupDefaults(userID)
	if err != nil {
		return mapCategoryError(c, err, "seed")
	}

	message := "Default categories already set up"
	code := http.StatusOK
	if seeded {
		message = "Default categories created successfully"
		code = http.StatusCreated
	}
	return Success(c, code, message, toCategoryResponses(categories))
}
