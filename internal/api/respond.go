package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"finance_tracker/internal/ledger"     // Business errors
	"finance_tracker/internal/middleware" // Request id lookup

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}

// internalError logs the cause and hides it from the caller
func internalError(c *gin.Context, msg string, err error) {
	logrus.WithFields(logrus.Fields{
		"request_id": c.GetString(middleware.RequestIDKey),
		"path":       c.FullPath(),
		"error":      err.Error(),
	}).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// ledgerError maps business errors onto status codes
func ledgerError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		internalError(c, msg, err)
	}
}
