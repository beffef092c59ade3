package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is an enumerated payment method tag
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCreditCard    PaymentMethod = "credit_card"
	PaymentMethodDebitCard     PaymentMethod = "debit_card"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
	PaymentMethodDigitalWallet PaymentMethod = "digital_wallet"
	PaymentMethodOther         PaymentMethod = "other"
)

// DefaultPaymentMethod is applied when the client omits one
const DefaultPaymentMethod = PaymentMethodCash

var paymentMethods = map[PaymentMethod]bool{
	PaymentMethodCash:          true,
	PaymentMethodCreditCard:    true,
	PaymentMethodDebitCard:     true,
	PaymentMethodBankTransfer:  true,
	PaymentMethodDigitalWallet: true,
	PaymentMethodOther:         true,
}

// IsValid reports whether the payment method is in the enumerated set
func (p PaymentMethod) IsValid() bool {
	return paymentMethods[p]
}

// RecurringFrequency is the cadence of a recurring expense
type RecurringFrequency string

const (
	FrequencyDaily   RecurringFrequency = "daily"
	FrequencyWeekly  RecurringFrequency = "weekly"
	FrequencyMonthly RecurringFrequency = "monthly"
	FrequencyYearly  RecurringFrequency = "yearly"
)

var recurringFrequencies = map[RecurringFrequency]bool{
	FrequencyDaily:   true,
	FrequencyWeekly:  true,
	FrequencyMonthly: true,
	FrequencyYearly:  true,
}

// IsValid reports whether the frequency is in the enumerated set
func (f RecurringFrequency) IsValid() bool {
	return recurringFrequencies[f]
}

// RecurringPattern describes the repetition of a recurring expense.
// Frequency and Interval are required whenever the expense is recurring.
type RecurringPattern struct {
	Frequency RecurringFrequency `json:"frequency"`
	Interval  int32              `json:"interval"`
	EndDate   *time.Time         `json:"endDate,omitempty"`
}

// Expense represents a single dated, categorized monetary record owned by one user
type Expense struct {
	ID               uuid.UUID         `json:"id"`
	UserID           uuid.UUID         `json:"userId"`
	CategoryID       uuid.UUID         `json:"category"`
	Title            string            `json:"title"`
	Description      *string           `json:"description,omitempty"`
	Amount           decimal.Decimal   `json:"amount"`
	Currency         Currency          `json:"currency"`
	Date             time.Time         `json:"date"`
	PaymentMethod    PaymentMethod     `json:"paymentMethod"`
	Location         *string           `json:"location,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
	IsRecurring      bool              `json:"isRecurring"`
	RecurringPattern *RecurringPattern `json:"recurringPattern,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`

	// CategoryName/Icon/Color are resolved from the category on reads
	CategoryName  string `json:"categoryName,omitempty"`
	CategoryIcon  string `json:"categoryIcon,omitempty"`
	CategoryColor string `json:"categoryColor,omitempty"`
}

// ExpenseFilters narrows an expense query. All range bounds are inclusive.
type ExpenseFilters struct {
	CategoryID    *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
	PaymentMethod *PaymentMethod
	// Search matches title/description/location case-insensitively,
	// or exact membership in tags
	Search string
	Page   int32
	Limit  int32
}

// Pagination limits
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxRecentLimit  = 50
)

// Pagination carries page metadata alongside a result page
type Pagination struct {
	CurrentPage  int32 `json:"currentPage"`
	TotalPages   int32 `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int32 `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// PaginatedExpenses is one page of expenses sorted by date desc, created desc
type PaginatedExpenses struct {
	Expenses   []*Expense `json:"expenses"`
	Pagination Pagination `json:"pagination"`
}

// ExpenseTotal is the flat sum/count over a filtered expense set
type ExpenseTotal struct {
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// CategorySpending is a per-category aggregate with resolved category identity
type CategorySpending struct {
	CategoryID    uuid.UUID       `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	CategoryIcon  string          `json:"categoryIcon"`
	CategoryColor string          `json:"categoryColor"`
	Total         decimal.Decimal `json:"total"`
	Count         int64           `json:"count"`
}

// MonthlyTotal is one month bucket of a yearly trend (sparse: months with
// no expenses are omitted)
type MonthlyTotal struct {
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// ExpenseRepository defines the interface for expense persistence operations
type ExpenseRepository interface {
	Create(expense *Expense) (*Expense, error)
	GetByID(userID, id uuid.UUID) (*Expense, error)
	GetByUser(userID uuid.UUID, filters *ExpenseFilters) (*PaginatedExpenses, error)
	Update(expense *Expense) (*Expense, error)
	Delete(userID, id uuid.UUID) error
	GetRecent(userID uuid.UUID, limit int32) ([]*Expense, error)
	CountByCategory(categoryID uuid.UUID) (int64, error)
	// TotalForUser sums all matching expenses in one pass
	TotalForUser(userID uuid.UUID, startDate, endDate *time.Time) (*ExpenseTotal, error)
	// ByCategory groups sums per category, descending by total
	ByCategory(userID uuid.UUID, startDate, endDate *time.Time) ([]*CategorySpending, error)
	// ByCategoryIn restricts the grouping to the given categories within the range
	ByCategoryIn(userID uuid.UUID, categoryIDs []uuid.UUID, startDate, endDate time.Time) ([]*CategorySpending, error)
	// MonthlyTrend buckets a calendar year's expenses by month
	MonthlyTrend(userID uuid.UUID, year int) ([]*MonthlyTotal, error)
}
