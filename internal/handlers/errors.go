package handlers

import (
	"errors"
	"log"
	"net/http"

	"balance-topup/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP responses
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var stateErr *services.InvalidStateError
	var fileErr *services.FileRejectedError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "validation failed",
			"fields":  validationErr.Fields,
		})
	case errors.As(err, &fileErr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fileErr.Reason})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{
			"success":        false,
			"error":          stateErr.Error(),
			"current_status": stateErr.Current,
		})
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrReceiptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrInvalidReferralCode),
		errors.Is(err, services.ErrSelfReferral),
		errors.Is(err, services.ErrAlreadyReferred):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrIDAllocationExhausted):
		log.Printf("Order id allocation exhausted: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "please try again"})
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}
