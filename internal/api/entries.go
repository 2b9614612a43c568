package api

import (
	"context"  // Request contexts
	"fmt"      // Error formatting
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Periods

	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/ledger"     // Entry business rules
	"finance_tracker/internal/middleware" // Current user lookup

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact amounts
	"github.com/sirupsen/logrus"    // Logging library
)

// EntryService is the ledger behavior the entry handlers need
type EntryService interface {
	Today() time.Time
	Create(ctx context.Context, userID uint, in ledger.EntryInput) (*domain.Entry, error)
	Update(ctx context.Context, userID, id uint, in ledger.EntryInput) (*domain.Entry, error)
	Delete(ctx context.Context, userID, id uint) error
	Month(ctx context.Context, userID uint, year int, month time.Month, category *domain.Category) ([]domain.Entry, error)
	Year(ctx context.Context, userID uint, year int) ([]domain.Entry, error)
	MonthSummary(ctx context.Context, userID uint, year int, month time.Month) (ledger.Summary, error)
	YearSummary(ctx context.Context, userID uint, year int) (ledger.Summary, error)
}

// EntryRequest is the body of POST /entries/ and PUT /entries/:id
type EntryRequest struct {
	Name      string           `json:"name" binding:"required"`      // Template identity for recurring entries
	Amount    *decimal.Decimal `json:"amount" binding:"required"`    // Sign is fixed up from the category
	Frequency domain.Frequency `json:"frequency" binding:"required"` // One of the known frequencies
	Category  domain.Category  `json:"category" binding:"required"`  // One of the known categories
	EntryDate *string          `json:"entry_date"`                   // YYYY-MM-DD, defaults to today
}

func (r EntryRequest) input() (ledger.EntryInput, error) {
	in := ledger.EntryInput{
		Name:      r.Name,
		Amount:    *r.Amount,
		Frequency: r.Frequency,
		Category:  r.Category,
	}
	if r.EntryDate != nil && *r.EntryDate != "" {
		d, err := domain.ParseDate(*r.EntryDate)
		if err != nil {
			return ledger.EntryInput{}, err
		}
		in.EntryDate = &d
	}
	return in, nil
}

// CreateEntryHandler records a new entry for the current user
func CreateEntryHandler(entries EntryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Set by JWTAuthMiddleware
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		in, ok := bindEntry(c)
		if !ok {
			return
		}
		entry, err := entries.Create(c.Request.Context(), user.ID, in)
		if err != nil {
			internalError(c, "Failed to create entry", err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"user_id":    user.ID,
			"entry_id":   entry.ID,
			"category":   entry.Category,
			"frequency":  entry.Frequency,
		}).Info("Entry created")
		c.JSON(http.StatusOK, entry)
	}
}

// UpdateEntryHandler replaces every field of an entry owned by the current user
func UpdateEntryHandler(entries EntryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, ok := entryID(c)
		if !ok {
			return
		}
		in, ok := bindEntry(c)
		if !ok {
			return
		}
		entry, err := entries.Update(c.Request.Context(), user.ID, id, in)
		if err != nil {
			ledgerError(c, "Failed to update entry", err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// DeleteEntryHandler removes an entry owned by the current user
func DeleteEntryHandler(entries EntryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, ok := entryID(c)
		if !ok {
			return
		}
		if err := entries.Delete(c.Request.Context(), user.ID, id); err != nil {
			ledgerError(c, "Failed to delete entry", err)
			return
		}
		c.JSON(http.StatusOK, "Deleted")
	}
}

// MonthSummaryHandler totals the current user's entries per category for ?year&month
func MonthSummaryHandler(entries EntryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		today := entries.Today()
		year, err := parseYear(c.DefaultQuery("year", strconv.Itoa(today.Year())))
		if err != nil {
			badRequest(c, err)
			return
		}
		month, err := parseMonth(c.DefaultQuery("month", strconv.Itoa(int(today.Month()))))
		if err != nil {
			badRequest(c, err)
			return
		}
		summary, err := entries.MonthSummary(c.Request.Context(), user.ID, year, month)
		if err != nil {
			internalError(c, "Failed to summarize month", err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// YearSummaryHandler totals the current user's entries per category for a year
func YearSummaryHandler(entries EntryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		year, err := parseYear(c.Param("year"))
		if err != nil {
			badRequest(c, err)
			return
		}
		summary, err := entries.YearSummary(c.Request.Context(), user.ID, year)
		if err != nil {
			internalError(c, "Failed to summarize year", err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// MonthEntriesHandler lists the current user's entries for a month, optionally in one category
func MonthEntriesHandler(entries EntryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		month, err := parseMonth(c.Param("month"))
		if err != nil {
			badRequest(c, err)
			return
		}
		year, err := parseYear(c.DefaultQuery("year", strconv.Itoa(entries.Today().Year())))
		if err != nil {
			badRequest(c, err)
			return
		}
		var category *domain.Category
		if raw := c.Param("category"); raw != "" {
			parsed, err := domain.ParseCategory(raw)
			if err != nil {
				badRequest(c, err)
				return
			}
			category = &parsed
		}
		list, err := entries.Month(c.Request.Context(), user.ID, year, month, category)
		if err != nil {
			internalError(c, "Failed to list entries", err)
			return
		}
		if list == nil {
			list = []domain.Entry{} // Render an empty month as [] rather than null
		}
		c.JSON(http.StatusOK, list)
	}
}

func bindEntry(c *gin.Context) (ledger.EntryInput, bool) {
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return ledger.EntryInput{}, false
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, err)
		return ledger.EntryInput{}, false
	}
	return in, true
}

func entryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, fmt.Errorf("invalid entry id %q", c.Param("id")))
		return 0, false
	}
	return uint(id), true
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return year, nil
}

func parseMonth(s string) (time.Month, error) {
	month, err := strconv.Atoi(s)
	if err != nil || month < 1 || month > 12 {
		return 0, fmt.Errorf("invalid month %q", s)
	}
	return time.Month(month), nil
}
