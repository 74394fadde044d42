package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopcore/shopcore/internal/models"
)

// respondError maps the core error taxonomy onto HTTP. Each sentinel gets a
// distinct code so clients can react without parsing messages.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.Is(err, models.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"code": "empty_cart", "error": err.Error()})
	case errors.Is(err, models.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"code": "insufficient_stock", "error": err.Error()})
	case errors.Is(err, models.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"code": "illegal_transition", "error": err.Error()})
	case errors.Is(err, models.ErrProductUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": "product_unavailable", "error": err.Error()})
	case errors.Is(err, models.ErrConcurrencyExhausted):
		// Retryable: the caller lost a version race, nothing is wrong with
		// the request itself.
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "concurrency_exhausted", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": err.Error()})
	}
}
