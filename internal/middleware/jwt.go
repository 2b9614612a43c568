package middleware

import (
	"context"  // Request contexts
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"finance_tracker/internal/domain" // Importing domain models
	"finance_tracker/internal/store"  // User lookup
	"finance_tracker/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// CurrentUserKey is the gin context key holding the authenticated *domain.User
const CurrentUserKey = "currentUser"

// UserFinder resolves the subject of a token to a user
type UserFinder interface {
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// JWTAuthMiddleware validates bearer tokens and loads the user they name
func JWTAuthMiddleware(tokens *utils.TokenIssuer, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "Not authenticated")
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		email, err := tokens.ParseJWT(tokenStr)               // Parse the JWT token
		if err != nil {
			unauthorized(c, "Could not validate credentials")
			return
		}
		user, err := users.UserByEmail(c.Request.Context(), email) // Subject must still exist
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				logrus.WithFields(logrus.Fields{
					"request_id": c.GetString(RequestIDKey),
					"error":      err.Error(),
				}).Error("User lookup failed")
			}
			unauthorized(c, "Could not validate credentials")
			return
		}
		c.Set(CurrentUserKey, user) // Store user in context
		c.Next()                    // Proceed to the next handler
	}
}

// CurrentUser returns the user stored by JWTAuthMiddleware
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
