package domain

import (
	"encoding/json" // Custom JSON shape for entry_date
	"fmt"           // Error wrapping
	"time"          // Entry dates

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// DateLayout is the wire and display format for entry dates.
const DateLayout = "2006-01-02"

// Entry Model
type Entry struct {
	ID        uint            `gorm:"primaryKey"`                                      // Primary key
	UserID    uint            `gorm:"index:idx_entries_owner_date;not null"`           // Foreign key to owning User
	Name      string          `gorm:"size:255;not null"`                               // Template identity key for recurring entries
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`                     // Signed amount: income positive, everything else negative
	Frequency Frequency       `gorm:"size:32;index;not null"`                          // How often the entry repeats
	Category  Category        `gorm:"size:32;not null"`                                // Income or expense category
	EntryDate time.Time       `gorm:"type:date;index:idx_entries_owner_date;not null"` // Calendar date, always UTC midnight
}

type entryJSON struct {
	ID        uint            `json:"id"`
	UserID    uint            `json:"user_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency Frequency       `json:"frequency"`
	Category  Category        `json:"category"`
	EntryDate string          `json:"entry_date"`
}

// MarshalJSON renders entry_date as a plain calendar date.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		ID:        e.ID,
		UserID:    e.UserID,
		Name:      e.Name,
		Amount:    e.Amount,
		Frequency: e.Frequency,
		Category:  e.Category,
		EntryDate: e.EntryDate.Format(DateLayout),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d, err := ParseDate(raw.EntryDate)
	if err != nil {
		return err
	}
	*e = Entry{
		ID:        raw.ID,
		UserID:    raw.UserID,
		Name:      raw.Name,
		Amount:    raw.Amount,
		Frequency: raw.Frequency,
		Category:  raw.Category,
		EntryDate: d,
	}
	return nil
}

// NormalizeDate truncates t to midnight UTC of its calendar day.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NormalizeDate(t), nil
}
