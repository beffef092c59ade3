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

// BudgetRepository implements domain.BudgetRepository using PostgreSQL.
// A budget and its allocations are always written in one database transaction.
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

const budgetColumns = `id, user_id, name, description, amount, currency, period, start_date, end_date,
	warning_threshold, critical_threshold, is_active, auto_renew, notes, created_at, updated_at`

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var budget domain.Budget
	var description, notes pgtype.Text
	var amount, warning, critical pgtype.Numeric
	err := row.Scan(
		&budget.ID, &budget.UserID, &budget.Name, &description,
		&amount, &budget.Currency, &budget.Period, &budget.StartDate, &budget.EndDate,
		&warning, &critical, &budget.IsActive, &budget.AutoRenew, &notes,
		&budget.CreatedAt, &budget.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	budget.Description = ptrFromText(description)
	budget.Notes = ptrFromText(notes)
	budget.Amount = pgNumericToDecimal(amount)
	budget.AlertThresholds = domain.AlertThresholds{
		Warning:  pgNumericToDecimal(warning),
		Critical: pgNumericToDecimal(critical),
	}
	return &budget, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// loadAllocations attaches the budget's allocations with resolved category identity
func loadAllocations(ctx context.Context, q queryer, budget *domain.Budget) error {
	rows, err := q.Query(ctx, `
		SELECT a.category_id, COALESCE(c.name, ''), COALESCE(c.icon, ''), COALESCE(c.color, ''), a.allocated_amount
		FROM budget_allocations a
		LEFT JOIN categories c ON c.id = a.category_id
		WHERE a.budget_id = $1
		ORDER BY a.position ASC`,
		budget.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var allocations []domain.BudgetAllocation
	for rows.Next() {
		var a domain.BudgetAllocation
		var amount pgtype.Numeric
		if err := rows.Scan(&a.CategoryID, &a.CategoryName, &a.CategoryIcon, &a.CategoryColor, &amount); err != nil {
			return err
		}
		a.AllocatedAmount = pgNumericToDecimal(amount)
		allocations = append(allocations, a)
	}
	budget.Allocations = allocations
	return rows.Err()
}

func insertAllocations(ctx context.Context, tx pgx.Tx, budgetID uuid.UUID, allocations []domain.BudgetAllocation) error {
	for i, a := range allocations {
		amount, err := decimalToPgNumeric(a.AllocatedAmount)
		if err != nil {
			return fmt.Errorf("invalid allocated amount: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO budget_allocations (budget_id, category_id, allocated_amount, position)
			VALUES ($1, $2, $3, $4)`,
			budgetID, a.CategoryID, amount, i)
		if err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a budget and its allocations atomically
func (r *BudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(budget.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	warning, err := decimalToPgNumeric(budget.AlertThresholds.Warning)
	if err != nil {
		return nil, fmt.Errorf("invalid warning threshold: %w", err)
	}
	critical, err := decimalToPgNumeric(budget.AlertThresholds.Critical)
	if err != nil {
		return nil, fmt.Errorf("invalid critical threshold: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO budgets (user_id, name, description, amount, currency, period, start_date, end_date,
		                     warning_threshold, critical_threshold, is_active, auto_renew, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+budgetColumns,
		budget.UserID, budget.Name, textFromPtr(budget.Description), amount,
		string(budget.Currency), string(budget.Period), budget.StartDate, budget.EndDate,
		warning, critical, budget.IsActive, budget.AutoRenew, textFromPtr(budget.Notes))
	created, err := scanBudget(row)
	if err != nil {
		return nil, err
	}

	if err := insertAllocations(ctx, tx, created.ID, budget.Allocations); err != nil {
		return nil, err
	}
	if err := loadAllocations(ctx, tx, created); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a budget owned by the user, allocations included
func (r *BudgetRepository) GetByID(userID, id uuid.UUID) (*domain.Budget, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2`,
		id, userID)
	budget, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	if err := loadAllocations(ctx, r.pool, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

func (r *BudgetRepository) collectBudgets(ctx context.Context, rows pgx.Rows) ([]*domain.Budget, error) {
	defer rows.Close()
	var budgets []*domain.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, budget := range budgets {
		if err := loadAllocations(ctx, r.pool, budget); err != nil {
			return nil, err
		}
	}
	return budgets, nil
}

// GetByUser lists the user's budgets, newest window first
func (r *BudgetRepository) GetByUser(userID uuid.UUID, filters *domain.BudgetFilters) ([]*domain.Budget, error) {
	ctx := context.Background()

	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1`
	args := []interface{}{userID}
	if filters != nil {
		if filters.IsActive != nil {
			args = append(args, *filters.IsActive)
			query += fmt.Sprintf(" AND is_active = $%d", len(args))
		}
		if filters.Period != nil {
			args = append(args, string(*filters.Period))
			query += fmt.Sprintf(" AND period = $%d", len(args))
		}
	}
	query += ` ORDER BY start_date DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return r.collectBudgets(ctx, rows)
}

// GetCurrent returns active budgets whose window contains now, inclusive
func (r *BudgetRepository) GetCurrent(userID uuid.UUID, now time.Time) ([]*domain.Budget, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE user_id = $1 AND is_active = true AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date DESC, created_at DESC`,
		userID, now)
	if err != nil {
		return nil, err
	}
	return r.collectBudgets(ctx, rows)
}

// Update rewrites the budget row and replaces its allocations atomically
func (r *BudgetRepository) Update(budget *domain.Budget) (*domain.Budget, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(budget.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	warning, err := decimalToPgNumeric(budget.AlertThresholds.Warning)
	if err != nil {
		return nil, fmt.Errorf("invalid warning threshold: %w", err)
	}
	critical, err := decimalToPgNumeric(budget.AlertThresholds.Critical)
	if err != nil {
		return nil, fmt.Errorf("invalid critical threshold: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE budgets
		SET name = $3, description = $4, amount = $5, currency = $6, period = $7,
		    start_date = $8, end_date = $9, warning_threshold = $10, critical_threshold = $11,
		    is_active = $12, auto_renew = $13, notes = $14, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+budgetColumns,
		budget.ID, budget.UserID, budget.Name, textFromPtr(budget.Description), amount,
		string(budget.Currency), string(budget.Period), budget.StartDate, budget.EndDate,
		warning, critical, budget.IsActive, budget.AutoRenew, textFromPtr(budget.Notes))
	updated, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM budget_allocations WHERE budget_id = $1`, updated.ID); err != nil {
		return nil, err
	}
	if err := insertAllocations(ctx, tx, updated.ID, budget.Allocations); err != nil {
		return nil, err
	}
	if err := loadAllocations(ctx, tx, updated); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a budget owned by the user; allocations cascade
func (r *BudgetRepository) Delete(userID, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}
