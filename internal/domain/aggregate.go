package domain

import "github.com/shopspring/decimal"

// Bucket is one group's accumulated total and record count
type Bucket struct {
	Total decimal.Decimal
	Count int64
}

// Aggregate reduces a sequence of expenses into per-key buckets. It is
// independent of the storage engine so grouping rules can be tested without
// a database; the SQL aggregates mirror its semantics.
func Aggregate[K comparable](expenses []*Expense, key func(*Expense) K) map[K]Bucket {
	buckets := make(map[K]Bucket)
	for _, e := range expenses {
		k := key(e)
		b := buckets[k]
		b.Total = b.Total.Add(e.Amount)
		b.Count++
		buckets[k] = b
	}
	return buckets
}

// Summary is a flat total/count with a division-guarded average
type Summary struct {
	Total   decimal.Decimal `json:"totalAmount"`
	Count   int64           `json:"totalTransactions"`
	Average decimal.Decimal `json:"averagePerTransaction"`
}

// Summarize reduces expenses into a flat summary. An empty input yields
// zero total, count, and average.
func Summarize(expenses []*Expense) Summary {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return NewSummary(total, int64(len(expenses)))
}

// NewSummary builds a Summary from an already-aggregated total and count,
// guarding the average against a zero count.
func NewSummary(total decimal.Decimal, count int64) Summary {
	s := Summary{Total: total, Count: count}
	if count > 0 {
		s.Average = total.Div(decimal.NewFromInt(count)).Round(2)
	}
	return s
}
