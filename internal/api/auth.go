package api

import (
	"context"  // Request contexts
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strconv"  // Lock key formatting
	"strings"  // String manipulation

	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/middleware" // Current user lookup
	"finance_tracker/internal/store"      // Persistence errors
	"finance_tracker/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// UserStore is the user persistence the auth handlers need
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// RecurringGenerator fills in recurring entries that fell due since the last login
type RecurringGenerator interface {
	GenerateRecurring(ctx context.Context, userID uint) (int, error)
}

// RegisterRequest is the body of POST /users/
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"` // Email must be provided and well formed
	Password string `json:"password" binding:"required"`    // Password must be provided
}

// LoginRequest accepts OAuth2-style form fields or the same keys as JSON
type LoginRequest struct {
	Username string `form:"username" json:"username" binding:"required"` // The user's email
	Password string `form:"password" json:"password" binding:"required"` // Password must be provided
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"` // Signed JWT
	TokenType   string `json:"token_type"`   // Always "bearer"
}

// RegisterHandler creates a user with a bcrypt-hashed password
func RegisterHandler(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			internalError(c, "Failed to hash password", err)
			return
		}
		// Emails are compared case-insensitively by storing them lowercased
		user := domain.User{Email: strings.ToLower(strings.TrimSpace(req.Email)), Password: string(hash)}
		if err := users.CreateUser(c.Request.Context(), &user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
				return
			}
			internalError(c, "Failed to create user", err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"user_id":    user.ID,
		}).Info("User registered")
		c.JSON(http.StatusOK, user)
	}
}

// LoginHandler authenticates a user, materializes due recurring entries and returns a bearer token
func LoginHandler(users UserStore, tokens *utils.TokenIssuer, generator RecurringGenerator, locker *utils.Locker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Form or JSON, chosen by Content-Type
		if err := c.ShouldBind(&req); err != nil {
			badRequest(c, err)
			return
		}
		ctx := c.Request.Context()
		user, err := users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Username)))
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			internalError(c, "Failed to fetch user", err)
			return
		}
		// Unknown email and wrong password look the same to the caller
		if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
			return
		}
		token, err := tokens.GenerateJWT(user.Email)
		if err != nil {
			internalError(c, "Failed to generate token", err)
			return
		}

		// Bring recurring entries up to today before handing out the token
		release, acquired, err := locker.Acquire(ctx, "recurring:lock:user:"+strconv.FormatUint(uint64(user.ID), 10))
		if err != nil {
			internalError(c, "Failed to lock recurring entries", err)
			return
		}
		if acquired {
			_, err = generator.GenerateRecurring(ctx, user.ID)
			release()
			if err != nil {
				internalError(c, "Failed to generate recurring entries", err)
				return
			}
		} else {
			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(middleware.RequestIDKey),
				"user_id":    user.ID,
			}).Info("Recurring generation already running, skipped")
		}

		c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}

// MeHandler returns the authenticated user
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
