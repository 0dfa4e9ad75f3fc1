package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"gamerank/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// MessageResponse is returned by operations without a body of their own.
type MessageResponse struct {
	Message string `json:"message" example:"Game deleted"`
}

// respondStoreError maps store sentinels onto HTTP statuses. notFound and
// conflict are the user-visible messages; anything else is logged and hidden.
func respondStoreError(c *gin.Context, err error, notFound, conflict string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// codeParam parses a positive integer path parameter. It writes a 400 and
// returns false when the value is not usable.
func codeParam(c *gin.Context, name string) (int, bool) {
	code, err := strconv.Atoi(c.Param(name))
	if err != nil || code <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return code, true
}
