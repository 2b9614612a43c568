package api

import (
	"fmt"      // Cell and file names
	"net/http" // HTTP status codes

	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/ledger"     // Summaries
	"finance_tracker/internal/middleware" // Current user lookup

	"github.com/gin-gonic/gin"    // Gin web framework
	"github.com/xuri/excelize/v2" // XLSX writer
)

const (
	entriesSheet = "Entries"
	summarySheet = "Summary"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportYearHandler streams the current user's entries for a year as an XLSX workbook
func ExportYearHandler(entries EntryService) gin.HandlerFunc {
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
		list, err := entries.Year(c.Request.Context(), user.ID, year)
		if err != nil {
			internalError(c, "Failed to list entries", err)
			return
		}
		f, err := BuildWorkbook(list)
		if err != nil {
			internalError(c, "Failed to build workbook", err)
			return
		}
		defer f.Close()

		c.Header("Content-Type", xlsxMIME)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"entries_%d.xlsx\"", year))
		if err := f.Write(c.Writer); err != nil {
			internalError(c, "Failed to write workbook", err)
		}
	}
}

// BuildWorkbook lays out entries on one sheet and their category totals on another
func BuildWorkbook(list []domain.Entry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", entriesSheet); err != nil {
		return nil, err
	}

	headers := []any{"Date", "Name", "Category", "Frequency", "Amount"}
	if err := f.SetSheetRow(entriesSheet, "A1", &headers); err != nil {
		return nil, err
	}
	for i, e := range list {
		amount, _ := e.Amount.Float64()
		row := []any{e.EntryDate.Format(domain.DateLayout), e.Name, string(e.Category), string(e.Frequency), amount}
		if err := f.SetSheetRow(entriesSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(entriesSheet, "A", "A", 12)
	_ = f.SetColWidth(entriesSheet, "B", "B", 30)
	_ = f.SetColWidth(entriesSheet, "C", "D", 16)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	summary := ledger.Summarize(list)
	rowNum := 1
	for _, cat := range domain.Categories {
		total, ok := summary[string(cat)]
		if !ok {
			continue
		}
		v, _ := total.Float64()
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", rowNum), &[]any{string(cat), v}); err != nil {
			return nil, err
		}
		rowNum++
	}
	net, _ := summary[ledger.NetKey].Float64()
	if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", rowNum), &[]any{ledger.NetKey, net}); err != nil {
		return nil, err
	}
	return f, nil
}
