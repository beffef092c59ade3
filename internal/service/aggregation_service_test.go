package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/spendlens-backend/internal/domain"
	"github.com/spendlens/spendlens-backend/internal/testutil"
)

func TestGetSummary(t *testing.T) {
	expenseRepo := testutil.NewMockExpenseRepository()
	service := NewAggregationService(expenseRepo)
	userID := uuid.New()
	groceries := uuid.New()
	travel := uuid.New()

	service.now = func() time.Time { return time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC) }

	expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: groceries, Title: "Shop",
		Amount: decimal.NewFromFloat(45.50), Date: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
	})
	expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: groceries, Title: "Shop again",
		Amount: decimal.NewFromInt(12), Date: time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC),
	})
	expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: travel, Title: "Train",
		Amount: decimal.NewFromInt(30), Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	// Another user's expense never leaks in
	expenseRepo.AddExpense(&domain.Expense{
		UserID: uuid.New(), CategoryID: groceries, Title: "Foreign",
		Amount: decimal.NewFromInt(999), Date: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
	})

	summary, err := service.GetSummary(userID, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !summary.Summary.Total.Equal(decimal.NewFromFloat(87.50)) {
		t.Errorf("expected total 87.50, got %s", summary.Summary.Total.String())
	}
	if summary.Summary.Count != 3 {
		t.Errorf("expected 3 transactions, got %d", summary.Summary.Count)
	}
	if !summary.Summary.Average.Equal(decimal.NewFromFloat(29.17)) {
		t.Errorf("expected average 29.17, got %s", summary.Summary.Average.String())
	}

	// Breakdown descends by total
	if len(summary.CategoryBreakdown) != 2 {
		t.Fatalf("expected 2 breakdown rows, got %d", len(summary.CategoryBreakdown))
	}
	if summary.CategoryBreakdown[0].CategoryID != groceries {
		t.Error("expected groceries first in breakdown")
	}
	if !summary.CategoryBreakdown[0].Total.Equal(decimal.NewFromFloat(57.50)) {
		t.Errorf("expected groceries total 57.50, got %s", summary.CategoryBreakdown[0].Total.String())
	}

	// Trend is sparse: only March and August appear
	if len(summary.MonthlyTrend) != 2 {
		t.Fatalf("expected 2 trend buckets, got %d", len(summary.MonthlyTrend))
	}
	if summary.MonthlyTrend[0].Month != 3 || summary.MonthlyTrend[1].Month != 8 {
		t.Errorf("expected months [3 8], got [%d %d]", summary.MonthlyTrend[0].Month, summary.MonthlyTrend[1].Month)
	}
}

func TestGetSummary_Empty(t *testing.T) {
	service := NewAggregationService(testutil.NewMockExpenseRepository())

	summary, err := service.GetSummary(uuid.New(), nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !summary.Summary.Total.Equal(decimal.Zero) {
		t.Errorf("expected zero total, got %s", summary.Summary.Total.String())
	}
	if summary.Summary.Count != 0 {
		t.Errorf("expected zero count, got %d", summary.Summary.Count)
	}
	if !summary.Summary.Average.Equal(decimal.Zero) {
		t.Errorf("expected guarded zero average, got %s", summary.Summary.Average.String())
	}
}

func TestGetSummary_InvertedRange(t *testing.T) {
	service := NewAggregationService(testutil.NewMockExpenseRepository())

	start := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if _, err := service.GetSummary(uuid.New(), &start, &end); !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got: %v", err)
	}
}

func TestGetSummary_RangeInclusive(t *testing.T) {
	expenseRepo := testutil.NewMockExpenseRepository()
	service := NewAggregationService(expenseRepo)
	userID := uuid.New()
	category := uuid.New()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	// On both boundaries
	expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: category, Title: "First",
		Amount: decimal.NewFromInt(10), Date: start,
	})
	expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: category, Title: "Last",
		Amount: decimal.NewFromInt(20), Date: end,
	})
	// Just outside
	expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: category, Title: "Outside",
		Amount: decimal.NewFromInt(40), Date: end.Add(time.Second),
	})

	total, err := service.GetTotal(userID, &start, &end)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !total.Total.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected inclusive-bound total 30, got %s", total.Total.String())
	}
	if total.Count != 2 {
		t.Errorf("expected 2 expenses, got %d", total.Count)
	}
}

func TestGetMonthlyTrend_DefaultYear(t *testing.T) {
	expenseRepo := testutil.NewMockExpenseRepository()
	service := NewAggregationService(expenseRepo)
	userID := uuid.New()
	service.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: uuid.New(), Title: "This year",
		Amount: decimal.NewFromInt(5), Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	expenseRepo.AddExpense(&domain.Expense{
		UserID: userID, CategoryID: uuid.New(), Title: "Last year",
		Amount: decimal.NewFromInt(7), Date: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})

	trend, err := service.GetMonthlyTrend(userID, 0)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(trend) != 1 {
		t.Fatalf("expected 1 bucket for the current year, got %d", len(trend))
	}
	if trend[0].Month != 1 {
		t.Errorf("expected January bucket, got month %d", trend[0].Month)
	}
}
