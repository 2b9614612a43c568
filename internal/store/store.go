// Package store persists users and entries through GORM.
package store

import (
	"context" // Request contexts
	"errors"  // Sentinel errors
	"fmt"     // Error wrapping
	"strings" // Driver error matching
	"time"    // Date ranges

	"finance_tracker/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Store provides GORM-backed persistence for users and entries.
type Store struct {
	db *gorm.DB
}

// New wraps an open database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UserByEmail fetches a user by email address.
func (s *Store) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "find user")
	}
	return &user, nil
}

// CreateEntry inserts a new entry and fills in its id.
func (s *Store) CreateEntry(ctx context.Context, entry *domain.Entry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

// Entry fetches a single entry by id regardless of owner.
func (s *Store) Entry(ctx context.Context, id uint) (*domain.Entry, error) {
	var entry domain.Entry
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, notFound(err, "find entry")
	}
	return &entry, nil
}

// SaveEntry writes every field of an existing entry.
func (s *Store) SaveEntry(ctx context.Context, entry *domain.Entry) error {
	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return fmt.Errorf("save entry %d: %w", entry.ID, err)
	}
	return nil
}

// DeleteEntry removes an entry by id.
func (s *Store) DeleteEntry(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.Entry{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete entry %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EntriesBetween lists a user's entries with from <= entry_date < to,
// optionally restricted to one category, oldest first.
func (s *Store) EntriesBetween(ctx context.Context, userID uint, from, to time.Time, category *domain.Category) ([]domain.Entry, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND entry_date >= ? AND entry_date < ?", userID, from, to)
	if category != nil {
		q = q.Where("category = ?", *category)
	}
	var entries []domain.Entry
	if err := q.Order("entry_date asc").Order("id asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// LatestByName returns, for each distinct entry name with the given
// frequency, the user's entry with the greatest date. Ties on date resolve
// to the highest id.
func (s *Store) LatestByName(ctx context.Context, userID uint, freq domain.Frequency) ([]domain.Entry, error) {
	db := s.db.WithContext(ctx)
	latest := db.Model(&domain.Entry{}).
		Select("name, MAX(entry_date) AS latest_date").
		Where("user_id = ? AND frequency = ?", userID, freq).
		Group("name")

	var rows []domain.Entry
	err := db.Select("entries.*").
		Joins("JOIN (?) AS latest ON latest.name = entries.name AND latest.latest_date = entries.entry_date", latest).
		Where("entries.user_id = ? AND entries.frequency = ?", userID, freq).
		Order("entries.name asc").Order("entries.id desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("latest %s entries: %w", freq, err)
	}

	out := make([]domain.Entry, 0, len(rows))
	for _, row := range rows {
		if n := len(out); n > 0 && out[n-1].Name == row.Name {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isDuplicate recognises unique-constraint violations from MySQL (1062) and
// SQLite without importing either driver's error type.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
