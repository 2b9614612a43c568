package domain

import (
	"encoding/json" // Validating JSON input
	"fmt"           // Error formatting
)

// Category is the closed set of entry categories.
type Category string

const (
	Income         Category = "Income"
	Housing        Category = "Housing"
	Food           Category = "Food"
	Personal       Category = "Personal"
	Entertainment  Category = "Entertainment"
	Transportation Category = "Transportation"
	OtherExpense   Category = "Other Expense"
)

// Categories lists every category in display order.
var Categories = []Category{Income, Housing, Food, Personal, Entertainment, Transportation, OtherExpense}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IsIncome reports whether amounts in this category are stored positive.
func (c Category) IsIncome() bool {
	return c == Income
}

// ParseCategory converts a raw string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("category must be a string: %w", err)
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
