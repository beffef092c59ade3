package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// hexColorPattern matches #RGB and #RRGGBB colors
var hexColorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// IsValidHexColor reports whether s is a #RGB or #RRGGBB color
func IsValidHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// Category defaults applied when the client omits visual attributes
const (
	DefaultCategoryIcon  = "folder"
	DefaultCategoryColor = "#6B7280"
)

// Category represents an expense category. Default categories are seeded
// per user and cannot be modified or deleted; soft-deleted categories stay
// in the store with IsActive=false.
type Category struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	Icon          string          `json:"icon"`
	Color         string          `json:"color"`
	IsDefault     bool            `json:"isDefault"`
	IsActive      bool            `json:"isActive"`
	ParentID      *uuid.UUID      `json:"parentCategory,omitempty"`
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
	YearlyBudget  decimal.Decimal `json:"yearlyBudget"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// CategoryWithTotals is a category joined with its expense totals for a date range
type CategoryWithTotals struct {
	Category
	TotalSpent   decimal.Decimal `json:"totalSpent"`
	ExpenseCount int64           `json:"expenseCount"`
}

// CategorySeed describes one entry of the default catalog
type CategorySeed struct {
	Name  string
	Icon  string
	Color string
}

// DefaultCategorySeeds is the catalog inserted for every new user
var DefaultCategorySeeds = []CategorySeed{
	{Name: "Food & Dining", Icon: "restaurant", Color: "#F59E0B"},
	{Name: "Transportation", Icon: "car", Color: "#3B82F6"},
	{Name: "Shopping", Icon: "shopping-bag", Color: "#EC4899"},
	{Name: "Entertainment", Icon: "film", Color: "#8B5CF6"},
	{Name: "Bills & Utilities", Icon: "receipt", Color: "#EF4444"},
	{Name: "Healthcare", Icon: "heart", Color: "#10B981"},
	{Name: "Education", Icon: "academic-cap", Color: "#F97316"},
	{Name: "Travel", Icon: "airplane", Color: "#06B6D4"},
	{Name: "Groceries", Icon: "shopping-cart", Color: "#84CC16"},
	{Name: "Personal Care", Icon: "sparkles", Color: "#F472B6"},
	{Name: "Home & Garden", Icon: "home", Color: "#64748B"},
	{Name: "Gifts & Donations", Icon: "gift", Color: "#DC2626"},
	{Name: "Other", Icon: "dots-horizontal", Color: "#6B7280"},
}

// CategoryRepository defines the interface for category persistence operations
type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	// GetByID resolves a category visible to the user: owned or default
	GetByID(userID, id uuid.UUID) (*Category, error)
	// GetOwnedByID resolves a non-default category owned by the user
	GetOwnedByID(userID, id uuid.UUID) (*Category, error)
	// GetByName matches active categories case-insensitively
	GetByName(userID uuid.UUID, name string) (*Category, error)
	// GetAllForUser returns active categories, defaults first then name ascending
	GetAllForUser(userID uuid.UUID) ([]*Category, error)
	GetDefaults(userID uuid.UUID) ([]*Category, error)
	GetSubcategories(userID, id uuid.UUID) ([]*Category, error)
	CreateBatch(categories []*Category) ([]*Category, error)
	Update(category *Category) (*Category, error)
	SoftDelete(userID, id uuid.UUID) error
	HasSubcategories(userID, id uuid.UUID) (bool, error)
	// GetWithTotals joins categories with expense sums in the optional range,
	// sorted descending by total spent
	GetWithTotals(userID uuid.UUID, startDate, endDate *time.Time) ([]*CategoryWithTotals, error)
}
