package api

import (
	"net/http" // HTTP status codes

	"finance_tracker/internal/middleware" // Custom package for middleware
	"finance_tracker/internal/utils"      // Token issuer and locker

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Amount encoding
)

// Deps are the collaborators the HTTP layer is wired with
type Deps struct {
	Users     UserStore          // User persistence
	Entries   EntryService       // Entry rules and queries
	Generator RecurringGenerator // Runs on login
	Tokens    *utils.TokenIssuer // Bearer token signing
	Locker    *utils.Locker      // Optional per-user generation lock
}

// RegisterRoutes attaches every route to r
func RegisterRoutes(r *gin.Engine, d Deps) {
	decimal.MarshalJSONWithoutQuotes = true // Amounts go out as JSON numbers

	r.Use(middleware.RequestID())
	r.GET("/health", HealthHandler())

	auth := middleware.JWTAuthMiddleware(d.Tokens, d.Users)

	// User routes
	users := r.Group("/users")
	users.POST("/", RegisterHandler(d.Users))                                    // Registration endpoint
	users.POST("/login", LoginHandler(d.Users, d.Tokens, d.Generator, d.Locker)) // Login endpoint
	users.GET("/me", auth, MeHandler())                                          // Current user endpoint

	// Entry routes (protected by JWT)
	entries := r.Group("/entries")
	entries.Use(auth)
	entries.POST("/", CreateEntryHandler(d.Entries))                        // Create entry endpoint
	entries.PUT("/:id", UpdateEntryHandler(d.Entries))                      // Update entry endpoint
	entries.DELETE("/:id", DeleteEntryHandler(d.Entries))                   // Delete entry endpoint
	entries.GET("/month/", MonthSummaryHandler(d.Entries))                  // Month summary endpoint
	entries.GET("/month/:month/", MonthEntriesHandler(d.Entries))           // Month listing endpoint
	entries.GET("/month/:month/:category/", MonthEntriesHandler(d.Entries)) // Month listing by category
	entries.GET("/year/:year/", YearSummaryHandler(d.Entries))              // Year summary endpoint
	entries.GET("/year/:year/export", ExportYearHandler(d.Entries))         // Year workbook download
}

// HealthHandler reports that the process is serving requests
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
