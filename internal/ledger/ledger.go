// Package ledger holds the entry business rules: sign normalization,
// owner-checked updates and deletes, period summaries and recurring-entry
// generation.
package ledger

import (
	"context" // Request contexts
	"errors"  // Sentinel errors
	"fmt"     // Error wrapping
	"time"    // Entry dates

	"finance_tracker/internal/domain" // Importing domain models
	"finance_tracker/internal/store"  // Persistence errors

	"github.com/shopspring/decimal"  // Exact amounts
	"golang.org/x/sync/singleflight" // Per-user generation dedup
)

var (
	// ErrNotFound is returned when the entry id does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrUnauthorized is returned when the entry belongs to another user.
	ErrUnauthorized = errors.New("entry belongs to another user")
)

// Store is the persistence the ledger needs.
type Store interface {
	CreateEntry(ctx context.Context, entry *domain.Entry) error
	Entry(ctx context.Context, id uint) (*domain.Entry, error)
	SaveEntry(ctx context.Context, entry *domain.Entry) error
	DeleteEntry(ctx context.Context, id uint) error
	EntriesBetween(ctx context.Context, userID uint, from, to time.Time, category *domain.Category) ([]domain.Entry, error)
	LatestByName(ctx context.Context, userID uint, freq domain.Frequency) ([]domain.Entry, error)
}

// Ledger applies entry rules on top of a Store.
type Ledger struct {
	store  Store
	now    func() time.Time
	flight singleflight.Group // per-user recurring generation
}

// New creates a Ledger. A nil now defaults to time.Now.
func New(s Store, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: s, now: now}
}

// Today is the current calendar date as seen by the ledger.
func (l *Ledger) Today() time.Time {
	return domain.NormalizeDate(l.now())
}

// EntryInput carries the user-editable fields of an entry.
type EntryInput struct {
	Name      string
	Amount    decimal.Decimal
	Frequency domain.Frequency
	Category  domain.Category
	EntryDate *time.Time
}

// NormalizeAmount stores income as a positive magnitude and every other
// category as a negative one.
func NormalizeAmount(category domain.Category, amount decimal.Decimal) decimal.Decimal {
	if category.IsIncome() {
		return amount.Abs()
	}
	return amount.Abs().Neg()
}

// Create stores a new entry for userID. A missing date means today.
func (l *Ledger) Create(ctx context.Context, userID uint, in EntryInput) (*domain.Entry, error) {
	entry := &domain.Entry{UserID: userID}
	l.apply(entry, in)
	if err := l.store.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Update replaces every editable field of an entry owned by userID.
func (l *Ledger) Update(ctx context.Context, userID, id uint, in EntryInput) (*domain.Entry, error) {
	entry, err := l.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	l.apply(entry, in)
	if err := l.store.SaveEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry owned by userID.
func (l *Ledger) Delete(ctx context.Context, userID, id uint) error {
	if _, err := l.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := l.store.DeleteEntry(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("entry %d: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

// Month lists a user's entries in the given month, optionally in one category.
func (l *Ledger) Month(ctx context.Context, userID uint, year int, month time.Month, category *domain.Category) ([]domain.Entry, error) {
	from, to := MonthRange(year, month)
	return l.store.EntriesBetween(ctx, userID, from, to, category)
}

// Year lists a user's entries in the given year.
func (l *Ledger) Year(ctx context.Context, userID uint, year int) ([]domain.Entry, error) {
	from, to := YearRange(year)
	return l.store.EntriesBetween(ctx, userID, from, to, nil)
}

func (l *Ledger) owned(ctx context.Context, userID, id uint) (*domain.Entry, error) {
	entry, err := l.store.Entry(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("entry %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if entry.UserID != userID {
		return nil, fmt.Errorf("entry %d: %w", id, ErrUnauthorized)
	}
	return entry, nil
}

func (l *Ledger) apply(entry *domain.Entry, in EntryInput) {
	date := l.Today()
	if in.EntryDate != nil {
		date = domain.NormalizeDate(*in.EntryDate)
	}
	entry.Name = in.Name
	entry.Amount = NormalizeAmount(in.Category, in.Amount)
	entry.Frequency = in.Frequency
	entry.Category = in.Category
	entry.EntryDate = date
}

// MonthRange returns the half-open interval covering a calendar month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// YearRange returns the half-open interval covering a calendar year.
func YearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}
