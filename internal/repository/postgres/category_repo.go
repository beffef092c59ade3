package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spendlens/spendlens-backend/internal/domain"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = `id, user_id, name, description, icon, color, is_default, is_active, parent_id, monthly_budget, yearly_budget, created_at, updated_at`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var category domain.Category
	var description pgtype.Text
	var parentID pgtype.UUID
	var monthlyBudget, yearlyBudget pgtype.Numeric
	err := row.Scan(
		&category.ID, &category.UserID, &category.Name, &description,
		&category.Icon, &category.Color, &category.IsDefault, &category.IsActive,
		&parentID, &monthlyBudget, &yearlyBudget, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	category.Description = ptrFromText(description)
	if parentID.Valid {
		id := uuid.UUID(parentID.Bytes)
		category.ParentID = &id
	}
	category.MonthlyBudget = pgNumericToDecimal(monthlyBudget)
	category.YearlyBudget = pgNumericToDecimal(yearlyBudget)
	return &category, nil
}

func collectCategories(rows pgx.Rows) ([]*domain.Category, error) {
	defer rows.Close()
	var categories []*domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// Create inserts a new category
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()

	monthlyBudget, err := decimalToPgNumeric(category.MonthlyBudget)
	if err != nil {
		return nil, fmt.Errorf("invalid monthly budget: %w", err)
	}
	yearlyBudget, err := decimalToPgNumeric(category.YearlyBudget)
	if err != nil {
		return nil, fmt.Errorf("invalid yearly budget: %w", err)
	}

	var parentID pgtype.UUID
	if category.ParentID != nil {
		parentID.Bytes = *category.ParentID
		parentID.Valid = true
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, description, icon, color, is_default, is_active, parent_id, monthly_budget, yearly_budget)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+categoryColumns,
		category.UserID, category.Name, textFromPtr(category.Description),
		category.Icon, category.Color, category.IsDefault, category.IsActive,
		parentID, monthlyBudget, yearlyBudget)
	return scanCategory(row)
}

// GetByID resolves a category visible to the user: owned or default
func (r *CategoryRepository) GetByID(userID, id uuid.UUID) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE id = $1 AND user_id = $2 AND is_active = true`,
		id, userID)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetOwnedByID resolves a non-default category owned by the user
func (r *CategoryRepository) GetOwnedByID(userID, id uuid.UUID) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE id = $1 AND user_id = $2 AND is_default = false AND is_active = true`,
		id, userID)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetByName matches active categories case-insensitively
func (r *CategoryRepository) GetByName(userID uuid.UUID, name string) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = $1 AND lower(name) = lower($2) AND is_active = true`,
		userID, name)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetAllForUser returns active categories, defaults first then name ascending
func (r *CategoryRepository) GetAllForUser(userID uuid.UUID) ([]*domain.Category, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = $1 AND is_active = true
		ORDER BY is_default DESC, name ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

// GetDefaults returns the user's seeded default categories
func (r *CategoryRepository) GetDefaults(userID uuid.UUID) ([]*domain.Category, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = $1 AND is_default = true AND is_active = true
		ORDER BY name ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

// GetSubcategories lists the active children of a category
func (r *CategoryRepository) GetSubcategories(userID, id uuid.UUID) ([]*domain.Category, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = $1 AND parent_id = $2 AND is_active = true
		ORDER BY name ASC`,
		userID, id)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

// CreateBatch inserts the given categories in one database transaction
func (r *CategoryRepository) CreateBatch(categories []*domain.Category) ([]*domain.Category, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created := make([]*domain.Category, len(categories))
	for i, category := range categories {
		monthlyBudget, err := decimalToPgNumeric(category.MonthlyBudget)
		if err != nil {
			return nil, fmt.Errorf("invalid monthly budget: %w", err)
		}
		yearlyBudget, err := decimalToPgNumeric(category.YearlyBudget)
		if err != nil {
			return nil, fmt.Errorf("invalid yearly budget: %w", err)
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO categories (user_id, name, description, icon, color, is_default, is_active, monthly_budget, yearly_budget)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+categoryColumns,
			category.UserID, category.Name, textFromPtr(category.Description),
			category.Icon, category.Color, category.IsDefault, category.IsActive,
			monthlyBudget, yearlyBudget)
		created[i], err = scanCategory(row)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies the category's editable fields and returns the updated row
func (r *CategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()

	monthlyBudget, err := decimalToPgNumeric(category.MonthlyBudget)
	if err != nil {
		return nil, fmt.Errorf("invalid monthly budget: %w", err)
	}
	yearlyBudget, err := decimalToPgNumeric(category.YearlyBudget)
	if err != nil {
		return nil, fmt.Errorf("invalid yearly budget: %w", err)
	}

	var parentID pgtype.UUID
	if category.ParentID != nil {
		parentID.Bytes = *category.ParentID
		parentID.Valid = true
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $3, description = $4, icon = $5, color = $6, parent_id = $7,
		    monthly_budget = $8, yearly_budget = $9, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND is_default = false
		RETURNING `+categoryColumns,
		category.ID, category.UserID, category.Name, textFromPtr(category.Description),
		category.Icon, category.Color, parentID, monthlyBudget, yearlyBudget)
	updated, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return updated, nil
}

// SoftDelete marks a non-default category inactive
func (r *CategoryRepository) SoftDelete(userID, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND is_default = false AND is_active = true`,
		id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// HasSubcategories reports whether a category has active children
func (r *CategoryRepository) HasSubcategories(userID, id uuid.UUID) (bool, error) {
	ctx := context.Background()
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE user_id = $1 AND parent_id = $2 AND is_active = true
		)`,
		userID, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetWithTotals joins categories with expense sums in the optional range,
// sorted descending by total spent
func (r *CategoryRepository) GetWithTotals(userID uuid.UUID, startDate, endDate *time.Time) ([]*domain.CategoryWithTotals, error) {
	ctx := context.Background()

	var start, end pgtype.Timestamptz
	if startDate != nil {
		start.Time = *startDate
		start.Valid = true
	}
	if endDate != nil {
		end.Time = *endDate
		end.Valid = true
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.user_id, c.name, c.description, c.icon, c.color, c.is_default, c.is_active,
		       c.parent_id, c.monthly_budget, c.yearly_budget, c.created_at, c.updated_at,
		       COALESCE(SUM(e.amount), 0) AS total_spent,
		       COUNT(e.id) AS expense_count
		FROM categories c
		LEFT JOIN expenses e ON e.category_id = c.id AND e.user_id = c.user_id
			AND ($2::timestamptz IS NULL OR e.date >= $2)
			AND ($3::timestamptz IS NULL OR e.date <= $3)
		WHERE c.user_id = $1 AND c.is_active = true
		GROUP BY c.id
		ORDER BY total_spent DESC, c.name ASC`,
		userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.CategoryWithTotals
	for rows.Next() {
		var item domain.CategoryWithTotals
		var description pgtype.Text
		var parentID pgtype.UUID
		var monthlyBudget, yearlyBudget, totalSpent pgtype.Numeric
		err := rows.Scan(
			&item.ID, &item.UserID, &item.Name, &description,
			&item.Icon, &item.Color, &item.IsDefault, &item.IsActive,
			&parentID, &monthlyBudget, &yearlyBudget, &item.CreatedAt, &item.UpdatedAt,
			&totalSpent, &item.ExpenseCount,
		)
		if err != nil {
			return nil, err
		}
		item.Description = ptrFromText(description)
		if parentID.Valid {
			id := uuid.UUID(parentID.Bytes)
			item.ParentID = &id
		}
		item.MonthlyBudget = pgNumericToDecimal(monthlyBudget)
		item.YearlyBudget = pgNumericToDecimal(yearlyBudget)
		item.TotalSpent = pgNumericToDecimal(totalSpent)
		results = append(results, &item)
	}
	return results, rows.Err()
}
