package handler

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/service"
)

// money renders a decimal amount as a JSON number with 2 decimals,
// the client contract for every monetary field
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// UserResponse represents a user profile in API responses
type UserResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	Currency  string  `json:"currency"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Currency:  string(user.Currency),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	Icon           string  `json:"icon"`
	Color          string  `json:"color"`
	IsDefault      bool    `json:"isDefault"`
	IsActive       bool    `json:"isActive"`
	ParentCategory *string `json:"parentCategory,omitempty"`
	MonthlyBudget  float64 `json:"monthlyBudget"`
	YearlyBudget   float64 `json:"yearlyBudget"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func toCategoryResponse(category *domain.Category) CategoryResponse {
	resp := CategoryResponse{
		ID:            category.ID.String(),
		Name:          category.Name,
		Description:   category.Description,
		Icon:          category.Icon,
		Color:         category.Color,
		IsDefault:     category.IsDefault,
		IsActive:      category.IsActive,
		MonthlyBudget: money(category.MonthlyBudget),
		YearlyBudget:  money(category.YearlyBudget),
		CreatedAt:     category.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     category.UpdatedAt.Format(time.RFC3339),
	}
	if category.ParentID != nil {
		parent := category.ParentID.String()
		resp.ParentCategory = &parent
	}
	return resp
}

func toCategoryResponses(categories []*domain.Category) []CategoryResponse {
	responses := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		responses[i] = toCategoryResponse(c)
	}
	return responses
}

// CategoryWithTotalsResponse adds expense totals to a category
type CategoryWithTotalsResponse struct {
	CategoryResponse
	TotalSpent   float64 `json:"totalSpent"`
	ExpenseCount int64   `json:"expenseCount"`
}

// CategoryRef is the resolved category identity embedded in expense and
// budget responses
type CategoryRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID               string                   `json:"id"`
	Title            string                   `json:"title"`
	Description      *string                  `json:"description,omitempty"`
	Amount           float64                  `json:"amount"`
	Currency         string                   `json:"currency"`
	Category         CategoryRef              `json:"category"`
	Date             string                   `json:"date"`
	PaymentMethod    string                   `json:"paymentMethod"`
	Location         *string                  `json:"location,omitempty"`
	Tags             []string                 `json:"tags"`
	Notes            *string                  `json:"notes,omitempty"`
	IsRecurring      bool                     `json:"isRecurring"`
	RecurringPattern *domain.RecurringPattern `json:"recurringPattern,omitempty"`
	CreatedAt        string                   `json:"createdAt"`
	UpdatedAt        string                   `json:"updatedAt"`
}

func toExpenseResponse(expense *domain.Expense) ExpenseResponse {
	tags := expense.Tags
	if tags == nil {
		tags = []string{}
	}
	return ExpenseResponse{
		ID:          expense.ID.String(),
		Title:       expense.Title,
		Description: expense.Description,
		Amount:      money(expense.Amount),
		Currency:    string(expense.Currency),
		Category: CategoryRef{
			ID:    expense.CategoryID.String(),
			Name:  expense.CategoryName,
			Icon:  expense.CategoryIcon,
			Color: expense.CategoryColor,
		},
		Date:             expense.Date.Format(time.RFC3339),
		PaymentMethod:    string(expense.PaymentMethod),
		Location:         expense.Location,
		Tags:             tags,
		Notes:            expense.Notes,
		IsRecurring:      expense.IsRecurring,
		RecurringPattern: expense.RecurringPattern,
		CreatedAt:        expense.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        expense.UpdatedAt.Format(time.RFC3339),
	}
}

func toExpenseResponses(expenses []*domain.Expense) []ExpenseResponse {
	responses := make([]ExpenseResponse, len(expenses))
	for i, e := range expenses {
		responses[i] = toExpenseResponse(e)
	}
	return responses
}

// PaginatedExpensesResponse is one expense page with its metadata
type PaginatedExpensesResponse struct {
	Expenses   []ExpenseResponse `json:"expenses"`
	Pagination domain.Pagination `json:"pagination"`
}

// CategorySpendingResponse is one row of a per-category breakdown
type CategorySpendingResponse struct {
	Category CategoryRef `json:"category"`
	Total    float64     `json:"total"`
	Count    int64       `json:"count"`
}

func toCategorySpendingResponses(spending []*domain.CategorySpending) []CategorySpendingResponse {
	responses := make([]CategorySpendingResponse, len(spending))
	for i, cs := range spending {
		responses[i] = CategorySpendingResponse{
			Category: CategoryRef{
				ID:    cs.CategoryID.String(),
				Name:  cs.CategoryName,
				Icon:  cs.CategoryIcon,
				Color: cs.CategoryColor,
			},
			Total: money(cs.Total),
			Count: cs.Count,
		}
	}
	return responses
}

// MonthlyTotalResponse is one month bucket of a yearly trend
type MonthlyTotalResponse struct {
	Month int     `json:"month"`
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

func toMonthlyTotalResponses(trend []*domain.MonthlyTotal) []MonthlyTotalResponse {
	responses := make([]MonthlyTotalResponse, len(trend))
	for i, mt := range trend {
		responses[i] = MonthlyTotalResponse{Month: mt.Month, Total: money(mt.Total), Count: mt.Count}
	}
	return responses
}

// BudgetAllocationResponse is one category allocation of a budget
type BudgetAllocationResponse struct {
	Category        CategoryRef `json:"category"`
	AllocatedAmount float64     `json:"allocatedAmount"`
}

// BudgetResponse represents a budget without derived spending
type BudgetResponse struct {
	ID              string                     `json:"id"`
	Name            string                     `json:"name"`
	Description     *string                    `json:"description,omitempty"`
	Amount          float64                    `json:"amount"`
	Currency        string                     `json:"currency"`
	Period          string                     `json:"period"`
	StartDate       string                     `json:"startDate"`
	EndDate         string                     `json:"endDate"`
	Categories      []BudgetAllocationResponse `json:"categories"`
	AlertThresholds AlertThresholdsResponse    `json:"alertThresholds"`
	IsActive        bool                       `json:"isActive"`
	AutoRenew       bool                       `json:"autoRenew"`
	Notes           *string                    `json:"notes,omitempty"`
	CreatedAt       string                     `json:"createdAt"`
	UpdatedAt       string                     `json:"updatedAt"`
}

// AlertThresholdsResponse carries the warning/critical percentages
type AlertThresholdsResponse struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

func toAllocationRef(a domain.BudgetAllocation) CategoryRef {
	return CategoryRef{
		ID:    a.CategoryID.String(),
		Name:  a.CategoryName,
		Icon:  a.CategoryIcon,
		Color: a.CategoryColor,
	}
}

func toBudgetResponse(budget *domain.Budget) BudgetResponse {
	allocations := make([]BudgetAllocationResponse, len(budget.Allocations))
	for i, a := range budget.Allocations {
		allocations[i] = BudgetAllocationResponse{
			Category:        toAllocationRef(a),
			AllocatedAmount: money(a.AllocatedAmount),
		}
	}
	return BudgetResponse{
		ID:          budget.ID.String(),
		Name:        budget.Name,
		Description: budget.Description,
		Amount:      money(budget.Amount),
		Currency:    string(budget.Currency),
		Period:      string(budget.Period),
		StartDate:   budget.StartDate.Format(time.RFC3339),
		EndDate:     budget.EndDate.Format(time.RFC3339),
		Categories:  allocations,
		AlertThresholds: AlertThresholdsResponse{
			Warning:  budget.AlertThresholds.Warning.InexactFloat64(),
			Critical: budget.AlertThresholds.Critical.InexactFloat64(),
		},
		IsActive:  budget.IsActive,
		AutoRenew: budget.AutoRenew,
		Notes:     budget.Notes,
		CreatedAt: budget.CreatedAt.Format(time.RFC3339),
		UpdatedAt: budget.UpdatedAt.Format(time.RFC3339),
	}
}

// AllocationViewResponse is an allocation with its in-window spending
type AllocationViewResponse struct {
	Category         CategoryRef `json:"category"`
	AllocatedAmount  float64     `json:"allocatedAmount"`
	SpentAmount      float64     `json:"spentAmount"`
	TransactionCount int64       `json:"transactionCount"`
	RemainingAmount  float64     `json:"remainingAmount"`
}

// BudgetViewResponse is a budget with every derived attribute
type BudgetViewResponse struct {
	BudgetResponse
	SpentAmount     float64                  `json:"spentAmount"`
	SpentPercentage float64                  `json:"spentPercentage"`
	RemainingAmount float64                  `json:"remainingAmount"`
	Status          string                   `json:"status"`
	DaysRemaining   int                      `json:"daysRemaining"`
	IsExceeded      bool                     `json:"isExceeded"`
	Allocations     []AllocationViewResponse `json:"categories"`
}

func toBudgetViewResponse(view *domain.BudgetView) BudgetViewResponse {
	allocations := make([]AllocationViewResponse, len(view.Allocations))
	for i, a := range view.Allocations {
		allocations[i] = AllocationViewResponse{
			Category:         toAllocationRef(a.BudgetAllocation),
			AllocatedAmount:  money(a.AllocatedAmount),
			SpentAmount:      money(a.SpentAmount),
			TransactionCount: a.TransactionCount,
			RemainingAmount:  money(a.RemainingAmount),
		}
	}
	resp := BudgetViewResponse{
		BudgetResponse:  toBudgetResponse(view.Budget),
		SpentAmount:     money(view.SpentAmount),
		SpentPercentage: view.SpentPercentage.InexactFloat64(),
		RemainingAmount: money(view.RemainingAmount),
		Status:          string(view.Status),
		DaysRemaining:   view.DaysRemaining,
		IsExceeded:      view.IsExceeded,
		Allocations:     allocations,
	}
	resp.BudgetResponse.Categories = nil
	return resp
}

func toBudgetViewResponses(views []*domain.BudgetView) []BudgetViewResponse {
	responses := make([]BudgetViewResponse, len(views))
	for i, v := range views {
		responses[i] = toBudgetViewResponse(v)
	}
	return responses
}

// BudgetAlertResponse flags a budget at or past a threshold
type BudgetAlertResponse struct {
	BudgetID      string  `json:"budgetId"`
	BudgetName    string  `json:"budgetName"`
	Level         string  `json:"level"`
	Percentage    float64 `json:"percentage"`
	SpentAmount   float64 `json:"spentAmount"`
	BudgetAmount  float64 `json:"budgetAmount"`
	DaysRemaining int     `json:"daysRemaining"`
}

// BudgetOverviewResponse is the roll-up across current budgets
type BudgetOverviewResponse struct {
	TotalBudgets  int                   `json:"totalBudgets"`
	StatusCounts  map[string]int        `json:"statusCounts"`
	ExceededCount int                   `json:"exceededCount"`
	TotalBudgeted float64               `json:"totalBudgeted"`
	TotalSpent    float64               `json:"totalSpent"`
	Alerts        []BudgetAlertResponse `json:"alerts"`
	Budgets       []BudgetViewResponse  `json:"budgets"`
}

func toBudgetOverviewResponse(overview *service.BudgetOverview) BudgetOverviewResponse {
	statusCounts := make(map[string]int, len(overview.StatusCounts))
	for status, count := range overview.StatusCounts {
		statusCounts[string(status)] = count
	}
	alerts := make([]BudgetAlertResponse, len(overview.Alerts))
	for i, a := range overview.Alerts {
		alerts[i] = BudgetAlertResponse{
			BudgetID:      a.BudgetID.String(),
			BudgetName:    a.BudgetName,
			Level:         a.Level,
			Percentage:    a.Percentage.InexactFloat64(),
			SpentAmount:   money(a.SpentAmount),
			BudgetAmount:  money(a.BudgetAmount),
			DaysRemaining: a.DaysRemaining,
		}
	}
	return BudgetOverviewResponse{
		TotalBudgets:  overview.TotalBudgets,
		StatusCounts:  statusCounts,
		ExceededCount: overview.ExceededCount,
		TotalBudgeted: money(overview.TotalBudgeted),
		TotalSpent:    money(overview.TotalSpent),
		Alerts:        alerts,
		Budgets:       toBudgetViewResponses(overview.Budgets),
	}
}

// SummaryResponse is the flat totals block of the stats summary
type SummaryResponse struct {
	TotalAmount           float64 `json:"totalAmount"`
	TotalTransactions     int64   `json:"totalTransactions"`
	AveragePerTransaction float64 `json:"averagePerTransaction"`
}

// ExpenseSummaryResponse is the stats summary payload
type ExpenseSummaryResponse struct {
	Summary           SummaryResponse            `json:"summary"`
	CategoryBreakdown []CategorySpendingResponse `json:"categoryBreakdown"`
	MonthlyTrend      []MonthlyTotalResponse     `json:"monthlyTrend"`
}

func toExpenseSummaryResponse(summary *service.ExpenseSummary) ExpenseSummaryResponse {
	return ExpenseSummaryResponse{
		Summary: SummaryResponse{
			TotalAmount:           money(summary.Summary.Total),
			TotalTransactions:     summary.Summary.Count,
			AveragePerTransaction: money(summary.Summary.Average),
		},
		CategoryBreakdown: toCategorySpendingResponses(summary.CategoryBreakdown),
		MonthlyTrend:      toMonthlyTotalResponses(summary.MonthlyTrend),
	}
}
