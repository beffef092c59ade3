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

// ExpenseRepository implements domain.ExpenseRepository using PostgreSQL
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

// expenseColumns joins the category so reads carry resolved category identity
const expenseColumns = `
	e.id, e.user_id, e.category_id, e.title, e.description, e.amount, e.currency,
	e.date, e.payment_method, e.location, e.tags, e.notes,
	e.is_recurring, e.recurring_frequency, e.recurring_interval, e.recurring_end_date,
	e.created_at, e.updated_at,
	COALESCE(c.name, ''), COALESCE(c.icon, ''), COALESCE(c.color, '')`

const expenseFrom = `
	FROM expenses e
	LEFT JOIN categories c ON c.id = e.category_id`

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var expense domain.Expense
	var description, location, notes pgtype.Text
	var amount pgtype.Numeric
	var frequency pgtype.Text
	var interval pgtype.Int4
	var recurringEnd pgtype.Timestamptz
	err := row.Scan(
		&expense.ID, &expense.UserID, &expense.CategoryID, &expense.Title, &description,
		&amount, &expense.Currency, &expense.Date, &expense.PaymentMethod,
		&location, &expense.Tags, &notes,
		&expense.IsRecurring, &frequency, &interval, &recurringEnd,
		&expense.CreatedAt, &expense.UpdatedAt,
		&expense.CategoryName, &expense.CategoryIcon, &expense.CategoryColor,
	)
	if err != nil {
		return nil, err
	}
	expense.Description = ptrFromText(description)
	expense.Location = ptrFromText(location)
	expense.Notes = ptrFromText(notes)
	expense.Amount = pgNumericToDecimal(amount)
	if expense.IsRecurring && frequency.Valid {
		pattern := &domain.RecurringPattern{
			Frequency: domain.RecurringFrequency(frequency.String),
			Interval:  interval.Int32,
		}
		if recurringEnd.Valid {
			end := recurringEnd.Time
			pattern.EndDate = &end
		}
		expense.RecurringPattern = pattern
	}
	return &expense, nil
}

func collectExpenses(rows pgx.Rows) ([]*domain.Expense, error) {
	defer rows.Close()
	var expenses []*domain.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func recurringParams(expense *domain.Expense) (pgtype.Text, pgtype.Int4, pgtype.Timestamptz) {
	var frequency pgtype.Text
	var interval pgtype.Int4
	var endDate pgtype.Timestamptz
	if expense.RecurringPattern != nil {
		frequency.String = string(expense.RecurringPattern.Frequency)
		frequency.Valid = true
		interval.Int32 = expense.RecurringPattern.Interval
		interval.Valid = true
		if expense.RecurringPattern.EndDate != nil {
			endDate.Time = *expense.RecurringPattern.EndDate
			endDate.Valid = true
		}
	}
	return frequency, interval, endDate
}

// tagsOrEmpty keeps the tags column NOT NULL friendly
func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// Create inserts a new expense
func (r *ExpenseRepository) Create(expense *domain.Expense) (*domain.Expense, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	frequency, interval, recurringEnd := recurringParams(expense)

	row := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO expenses (user_id, category_id, title, description, amount, currency, date,
			                      payment_method, location, tags, notes,
			                      is_recurring, recurring_frequency, recurring_interval, recurring_end_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING *
		)
		SELECT `+expenseColumns+`
		FROM inserted e
		LEFT JOIN categories c ON c.id = e.category_id`,
		expense.UserID, expense.CategoryID, expense.Title, textFromPtr(expense.Description),
		amount, string(expense.Currency), expense.Date, string(expense.PaymentMethod),
		textFromPtr(expense.Location), tagsOrEmpty(expense.Tags), textFromPtr(expense.Notes),
		expense.IsRecurring, frequency, interval, recurringEnd)
	return scanExpense(row)
}

// GetByID retrieves an expense owned by the user
func (r *ExpenseRepository) GetByID(userID, id uuid.UUID) (*domain.Expense, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+expenseFrom+` WHERE e.id = $1 AND e.user_id = $2`,
		id, userID)
	expense, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}
	return expense, nil
}

// buildFilterClause appends WHERE conditions for the optional filters,
// returning the clause and the grown argument list
func buildFilterClause(userID uuid.UUID, filters *domain.ExpenseFilters) (string, []interface{}) {
	clause := ` WHERE e.user_id = $1`
	args := []interface{}{userID}

	if filters == nil {
		return clause, args
	}
	if filters.CategoryID != nil {
		args = append(args, *filters.CategoryID)
		clause += fmt.Sprintf(" AND e.category_id = $%d", len(args))
	}
	if filters.StartDate != nil {
		args = append(args, *filters.StartDate)
		clause += fmt.Sprintf(" AND e.date >= $%d", len(args))
	}
	if filters.EndDate != nil {
		args = append(args, *filters.EndDate)
		clause += fmt.Sprintf(" AND e.date <= $%d", len(args))
	}
	if filters.MinAmount != nil {
		args = append(args, filters.MinAmount.String())
		clause += fmt.Sprintf(" AND e.amount >= $%d::numeric", len(args))
	}
	if filters.MaxAmount != nil {
		args = append(args, filters.MaxAmount.String())
		clause += fmt.Sprintf(" AND e.amount <= $%d::numeric", len(args))
	}
	if filters.PaymentMethod != nil {
		args = append(args, string(*filters.PaymentMethod))
		clause += fmt.Sprintf(" AND e.payment_method = $%d", len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%", filters.Search)
		clause += fmt.Sprintf(` AND (e.title ILIKE $%d OR e.description ILIKE $%d OR e.location ILIKE $%d OR $%d = ANY(e.tags))`,
			len(args)-1, len(args)-1, len(args)-1, len(args))
	}
	return clause, args
}

// GetByUser retrieves a page of the user's expenses, date desc then created desc
func (r *ExpenseRepository) GetByUser(userID uuid.UUID, filters *domain.ExpenseFilters) (*domain.PaginatedExpenses, error) {
	ctx := context.Background()

	page := int32(1)
	limit := int32(domain.DefaultPageSize)
	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.Limit > 0 {
			limit = filters.Limit
			if limit > domain.MaxPageSize {
				limit = domain.MaxPageSize
			}
		}
	}
	offset := (page - 1) * limit

	clause, args := buildFilterClause(userID, filters)

	var totalItems int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+expenseFrom+clause, args...).Scan(&totalItems); err != nil {
		return nil, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + expenseColumns + expenseFrom + clause +
		fmt.Sprintf(` ORDER BY e.date DESC, e.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, err
	}

	totalPages := int32(totalItems / int64(limit))
	if totalItems%int64(limit) > 0 {
		totalPages++
	}

	return &domain.PaginatedExpenses{
		Expenses: expenses,
		Pagination: domain.Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   totalItems,
			ItemsPerPage: limit,
			HasNextPage:  page < totalPages,
			HasPrevPage:  page > 1,
		},
	}, nil
}

// Update applies the expense's editable fields and returns the updated row
func (r *ExpenseRepository) Update(expense *domain.Expense) (*domain.Expense, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	frequency, interval, recurringEnd := recurringParams(expense)

	row := r.pool.QueryRow(ctx, `
		WITH updated AS (
			UPDATE expenses
			SET category_id = $3, title = $4, description = $5, amount = $6, currency = $7,
			    date = $8, payment_method = $9, location = $10, tags = $11, notes = $12,
			    is_recurring = $13, recurring_frequency = $14, recurring_interval = $15,
			    recurring_end_date = $16, updated_at = now()
			WHERE id = $1 AND user_id = $2
			RETURNING *
		)
		SELECT `+expenseColumns+`
		FROM updated e
		LEFT JOIN categories c ON c.id = e.category_id`,
		expense.ID, expense.UserID, expense.CategoryID, expense.Title,
		textFromPtr(expense.Description), amount, string(expense.Currency), expense.Date,
		string(expense.PaymentMethod), textFromPtr(expense.Location), tagsOrEmpty(expense.Tags),
		textFromPtr(expense.Notes), expense.IsRecurring, frequency, interval, recurringEnd)
	updated, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes an expense owned by the user
func (r *ExpenseRepository) Delete(userID, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// GetRecent returns the most recently created expenses
func (r *ExpenseRepository) GetRecent(userID uuid.UUID, limit int32) ([]*domain.Expense, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+expenseColumns+expenseFrom+` WHERE e.user_id = $1 ORDER BY e.created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

// CountByCategory counts expenses referencing a category across all users
func (r *ExpenseRepository) CountByCategory(categoryID uuid.UUID) (int64, error) {
	ctx := context.Background()
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses WHERE category_id = $1`, categoryID).Scan(&count)
	return count, err
}

// TotalForUser sums all matching expenses in one pass
func (r *ExpenseRepository) TotalForUser(userID uuid.UUID, startDate, endDate *time.Time) (*domain.ExpenseTotal, error) {
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

	var total pgtype.Numeric
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM expenses
		WHERE user_id = $1
			AND ($2::timestamptz IS NULL OR date >= $2)
			AND ($3::timestamptz IS NULL OR date <= $3)`,
		userID, start, end).Scan(&total, &count)
	if err != nil {
		return nil, err
	}
	return &domain.ExpenseTotal{Total: pgNumericToDecimal(total), Count: count}, nil
}

func collectCategorySpending(rows pgx.Rows) ([]*domain.CategorySpending, error) {
	defer rows.Close()
	var results []*domain.CategorySpending
	for rows.Next() {
		var cs domain.CategorySpending
		var total pgtype.Numeric
		err := rows.Scan(&cs.CategoryID, &cs.CategoryName, &cs.CategoryIcon, &cs.CategoryColor, &total, &cs.Count)
		if err != nil {
			return nil, err
		}
		cs.Total = pgNumericToDecimal(total)
		results = append(results, &cs)
	}
	return results, rows.Err()
}

// ByCategory groups sums per category, descending by total
func (r *ExpenseRepository) ByCategory(userID uuid.UUID, startDate, endDate *time.Time) ([]*domain.CategorySpending, error) {
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
		SELECT e.category_id, COALESCE(c.name, ''), COALESCE(c.icon, ''), COALESCE(c.color, ''),
		       COALESCE(SUM(e.amount), 0) AS total, COUNT(*)
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1
			AND ($2::timestamptz IS NULL OR e.date >= $2)
			AND ($3::timestamptz IS NULL OR e.date <= $3)
		GROUP BY e.category_id, c.name, c.icon, c.color
		ORDER BY total DESC`,
		userID, start, end)
	if err != nil {
		return nil, err
	}
	return collectCategorySpending(rows)
}

// ByCategoryIn restricts the grouping to the given categories within the range
func (r *ExpenseRepository) ByCategoryIn(userID uuid.UUID, categoryIDs []uuid.UUID, startDate, endDate time.Time) ([]*domain.CategorySpending, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT e.category_id, COALESCE(c.name, ''), COALESCE(c.icon, ''), COALESCE(c.color, ''),
		       COALESCE(SUM(e.amount), 0) AS total, COUNT(*)
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1 AND e.category_id = ANY($2)
			AND e.date >= $3 AND e.date <= $4
		GROUP BY e.category_id, c.name, c.icon, c.color
		ORDER BY total DESC`,
		userID, categoryIDs, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return collectCategorySpending(rows)
}

// MonthlyTrend buckets a calendar year's expenses by month. Months with no
// expenses are omitted.
func (r *ExpenseRepository) MonthlyTrend(userID uuid.UUID, year int) ([]*domain.MonthlyTotal, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(MONTH FROM date)::int AS month,
		       COALESCE(SUM(amount), 0) AS total, COUNT(*)
		FROM expenses
		WHERE user_id = $1 AND EXTRACT(YEAR FROM date) = $2
		GROUP BY month
		ORDER BY month ASC`,
		userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.MonthlyTotal
	for rows.Next() {
		var mt domain.MonthlyTotal
		var total pgtype.Numeric
		if err := rows.Scan(&mt.Month, &total, &mt.Count); err != nil {
			return nil, err
		}
		mt.Total = pgNumericToDecimal(total)
		results = append(results, &mt)
	}
	return results, rows.Err()
}
