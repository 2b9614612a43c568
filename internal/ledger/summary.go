package ledger

import (
	"context" // Request contexts
	"time"    // Periods

	"finance_tracker/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Exact amounts
)

// NetKey is the summary key holding the total across categories.
const NetKey = "Net"

// Summary maps category names, plus NetKey, to signed totals.
type Summary map[string]decimal.Decimal

// Summarize totals entries by category. Categories without entries are left
// out; Net is always present.
func Summarize(entries []domain.Entry) Summary {
	out := Summary{}
	net := decimal.Zero
	for _, e := range entries {
		key := string(e.Category)
		out[key] = out[key].Add(e.Amount)
		net = net.Add(e.Amount)
	}
	out[NetKey] = net
	return out
}

// MonthSummary totals a user's entries for one month.
func (l *Ledger) MonthSummary(ctx context.Context, userID uint, year int, month time.Month) (Summary, error) {
	entries, err := l.Month(ctx, userID, year, month, nil)
	if err != nil {
		return nil, err
	}
	return Summarize(entries), nil
}

// YearSummary totals a user's entries for one year.
func (l *Ledger) YearSummary(ctx context.Context, userID uint, year int) (Summary, error) {
	entries, err := l.Year(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	return Summarize(entries), nil
}
