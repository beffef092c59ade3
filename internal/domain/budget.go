package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetPeriod is the nominal cadence of a budget
type BudgetPeriod string

const (
	PeriodDaily   BudgetPeriod = "daily"
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// DefaultBudgetPeriod is applied when the client omits one
const DefaultBudgetPeriod = PeriodMonthly

var budgetPeriods = map[BudgetPeriod]bool{
	PeriodDaily:   true,
	PeriodWeekly:  true,
	PeriodMonthly: true,
	PeriodYearly:  true,
}

// IsValid reports whether the period is in the enumerated set
func (p BudgetPeriod) IsValid() bool {
	return budgetPeriods[p]
}

// BudgetStatus is the derived spend-vs-plan classification
type BudgetStatus string

const (
	StatusNotStarted BudgetStatus = "not_started"
	StatusOnTrack    BudgetStatus = "on_track"
	StatusWarning    BudgetStatus = "warning"
	StatusCritical   BudgetStatus = "critical"
)

// Default alert thresholds (percent of budget amount)
var (
	DefaultWarningThreshold  = decimal.NewFromInt(80)
	DefaultCriticalThreshold = decimal.NewFromInt(95)
)

// AlertThresholds are the warning/critical percentages. No ordering between
// the two is enforced; both must be within [0, 100].
type AlertThresholds struct {
	Warning  decimal.Decimal `json:"warning"`
	Critical decimal.Decimal `json:"critical"`
}

// BudgetAllocation assigns part of a budget's amount to one category
type BudgetAllocation struct {
	CategoryID      uuid.UUID       `json:"category"`
	CategoryName    string          `json:"categoryName,omitempty"`
	CategoryIcon    string          `json:"categoryIcon,omitempty"`
	CategoryColor   string          `json:"categoryColor,omitempty"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
}

// Budget represents a user's spending plan over a date window.
// Spend-derived attributes are never stored; see DeriveBudgetView.
type Budget struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"userId"`
	Name            string             `json:"name"`
	Description     *string            `json:"description,omitempty"`
	Amount          decimal.Decimal    `json:"amount"`
	Currency        Currency           `json:"currency"`
	Period          BudgetPeriod       `json:"period"`
	StartDate       time.Time          `json:"startDate"`
	EndDate         time.Time          `json:"endDate"`
	Allocations     []BudgetAllocation `json:"categories"`
	AlertThresholds AlertThresholds    `json:"alertThresholds"`
	IsActive        bool               `json:"isActive"`
	AutoRenew       bool               `json:"autoRenew"`
	Notes           *string            `json:"notes,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// ValidateWindow checks that the budget's end date is strictly after its start date
func (b *Budget) ValidateWindow() error {
	if !b.EndDate.After(b.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// ValidateAllocations checks every allocated amount is non-negative and that
// the sum does not exceed the budget amount
func (b *Budget) ValidateAllocations() error {
	total := decimal.Zero
	for _, a := range b.Allocations {
		if a.AllocatedAmount.IsNegative() {
			return ErrInvalidAmount
		}
		total = total.Add(a.AllocatedAmount)
	}
	if total.GreaterThan(b.Amount) {
		return ErrOverAllocation
	}
	return nil
}

// CategoryIDs returns the IDs of all allocated categories
func (b *Budget) CategoryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(b.Allocations))
	for i, a := range b.Allocations {
		ids[i] = a.CategoryID
	}
	return ids
}

// AllocationView is a budget allocation with its in-window spending attached.
// RemainingAmount may be negative; it is deliberately not clamped.
type AllocationView struct {
	BudgetAllocation
	SpentAmount      decimal.Decimal `json:"spentAmount"`
	TransactionCount int64           `json:"transactionCount"`
	RemainingAmount  decimal.Decimal `json:"remainingAmount"`
}

// BudgetView is a budget with all derived attributes computed for one read.
// SpentAmount covers ALL of the user's expenses in the window; allocation
// spending is restricted to each allocation's category. The asymmetry is
// the documented product behavior, not an accident.
type BudgetView struct {
	*Budget
	SpentAmount     decimal.Decimal  `json:"spentAmount"`
	SpentPercentage decimal.Decimal  `json:"spentPercentage"`
	RemainingAmount decimal.Decimal  `json:"remainingAmount"`
	Status          BudgetStatus     `json:"status"`
	DaysRemaining   int              `json:"daysRemaining"`
	IsExceeded      bool             `json:"isExceeded"`
	Allocations     []AllocationView `json:"categories"`
}

// SpentPercentage computes spent/amount*100, guarded against zero amounts.
// The returned value is unrounded; callers round for display only.
func SpentPercentage(spent, amount decimal.Decimal) decimal.Decimal {
	if amount.IsZero() || spent.IsZero() {
		return decimal.Zero
	}
	return spent.Div(amount).Mul(decimal.NewFromInt(100))
}

// ClassifyStatus bands an unrounded percentage against the thresholds.
// Critical wins over warning when the thresholds are inverted.
func ClassifyStatus(pct decimal.Decimal, thresholds AlertThresholds) BudgetStatus {
	switch {
	case pct.IsZero():
		return StatusNotStarted
	case pct.GreaterThanOrEqual(thresholds.Critical):
		return StatusCritical
	case pct.GreaterThanOrEqual(thresholds.Warning):
		return StatusWarning
	default:
		return StatusOnTrack
	}
}

// DaysRemaining is ceil(endDate-now in days), floored at zero
func DaysRemaining(endDate, now time.Time) int {
	diff := endDate.Sub(now)
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// DeriveBudgetView computes every derived budget attribute from the stored
// budget and its aggregates. totalSpent is the user's full in-window spend;
// categorySpending maps category ID to that category's in-window aggregate.
func DeriveBudgetView(b *Budget, totalSpent decimal.Decimal, categorySpending map[uuid.UUID]*CategorySpending, now time.Time) *BudgetView {
	pct := SpentPercentage(totalSpent, b.Amount)

	allocations := make([]AllocationView, len(b.Allocations))
	for i, a := range b.Allocations {
		view := AllocationView{BudgetAllocation: a}
		if spending, ok := categorySpending[a.CategoryID]; ok {
			view.SpentAmount = spending.Total
			view.TransactionCount = spending.Count
		}
		view.RemainingAmount = a.AllocatedAmount.Sub(view.SpentAmount)
		allocations[i] = view
	}

	return &BudgetView{
		Budget:          b,
		SpentAmount:     totalSpent,
		SpentPercentage: pct.Round(2),
		RemainingAmount: b.Amount.Sub(totalSpent),
		Status:          ClassifyStatus(pct, b.AlertThresholds),
		DaysRemaining:   DaysRemaining(b.EndDate, now),
		IsExceeded:      totalSpent.GreaterThan(b.Amount),
		Allocations:     allocations,
	}
}

// BudgetFilters narrows a budget listing
type BudgetFilters struct {
	IsActive *bool
	Period   *BudgetPeriod
}

// BudgetRepository defines the interface for budget persistence operations.
// Create and Update persist the budget and its allocations atomically.
type BudgetRepository interface {
	Create(budget *Budget) (*Budget, error)
	GetByID(userID, id uuid.UUID) (*Budget, error)
	GetByUser(userID uuid.UUID, filters *BudgetFilters) ([]*Budget, error)
	// GetCurrent returns active budgets whose window contains now, inclusive
	GetCurrent(userID uuid.UUID, now time.Time) ([]*Budget, error)
	Update(budget *Budget) (*Budget, error)
	Delete(userID, id uuid.UUID) error
}
