package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/spendlens/spendlens-backend/internal/domain"
)

// AggregationService computes spending roll-ups. Each aggregate is a single
// server-side SQL pass; nothing is paged through the application.
type AggregationService struct {
	expenseRepo domain.ExpenseRepository

	// now is swappable in tests
	now func() time.Time
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(expenseRepo domain.ExpenseRepository) *AggregationService {
	return &AggregationService{
		expenseRepo: expenseRepo,
		now:         time.Now,
	}
}

// ExpenseSummary combines the flat totals, category breakdown, and the
// current year's monthly trend for one dashboard read
type ExpenseSummary struct {
	Summary           domain.Summary             `json:"summary"`
	CategoryBreakdown []*domain.CategorySpending `json:"categoryBreakdown"`
	MonthlyTrend      []*domain.MonthlyTotal     `json:"monthlyTrend"`
}

// GetSummary builds the spending summary for an optional inclusive date
// range. The monthly trend always covers the current calendar year.
func (s *AggregationService) GetSummary(userID uuid.UUID, startDate, endDate *time.Time) (*ExpenseSummary, error) {
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, domain.ErrInvalidDateRange
	}

	total, err := s.expenseRepo.TotalForUser(userID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.expenseRepo.ByCategory(userID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	trend, err := s.expenseRepo.MonthlyTrend(userID, s.now().Year())
	if err != nil {
		return nil, err
	}

	return &ExpenseSummary{
		Summary:           domain.NewSummary(total.Total, total.Count),
		CategoryBreakdown: breakdown,
		MonthlyTrend:      trend,
	}, nil
}

// GetTotal returns the flat sum/count over the optional inclusive range
func (s *AggregationService) GetTotal(userID uuid.UUID, startDate, endDate *time.Time) (*domain.ExpenseTotal, error) {
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, domain.ErrInvalidDateRange
	}
	return s.expenseRepo.TotalForUser(userID, startDate, endDate)
}

// GetMonthlyTrend buckets a calendar year's spending by month
func (s *AggregationService) GetMonthlyTrend(userID uuid.UUID, year int) ([]*domain.MonthlyTotal, error) {
	if year == 0 {
		year = s.now().Year()
	}
	return s.expenseRepo.MonthlyTrend(userID, year)
}
