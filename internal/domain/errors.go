package domain

import "errors"

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInternalError = errors.New("internal error")

	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrBudgetNotFound   = errors.New("budget not found")

	ErrNameRequired  = errors.New("name is required")
	ErrNameTooLong   = errors.New("name exceeds maximum length")
	ErrTitleRequired = errors.New("title is required")
	ErrTextTooLong   = errors.New("text exceeds maximum length")

	ErrDuplicateCategoryName    = errors.New("category name already exists")
	ErrInvalidCategory          = errors.New("invalid category")
	ErrInvalidParentCategory    = errors.New("invalid parent category")
	ErrCategorySelfParent       = errors.New("category cannot be its own parent")
	ErrCategoryHasExpenses      = errors.New("category has associated expenses")
	ErrCategoryHasSubcategories = errors.New("category has subcategories")

	ErrInvalidAmount           = errors.New("amount must be greater than 0")
	ErrInvalidCurrency         = errors.New("invalid currency")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrInvalidRecurringPattern = errors.New("recurring pattern requires frequency and interval")

	ErrInvalidPeriod    = errors.New("invalid budget period")
	ErrInvalidDateRange = errors.New("end date must be after start date")
	ErrOverAllocation   = errors.New("total allocated amount cannot exceed budget amount")
	ErrInvalidThreshold = errors.New("alert threshold must be between 0 and 100")
	ErrNoAllocations    = errors.New("at least one category allocation is required")
)

// Validation constants
const (
	MaxCategoryNameLength        = 50
	MaxCategoryDescriptionLength = 200
	MaxExpenseTitleLength        = 100
	MaxExpenseDescriptionLength  = 500
	MaxExpenseLocationLength     = 200
	MaxExpenseNotesLength        = 1000
	MaxTagLength                 = 50
	MaxBudgetNameLength          = 100
	MaxBudgetDescriptionLength   = 300
	MaxBudgetNotesLength         = 500
)
