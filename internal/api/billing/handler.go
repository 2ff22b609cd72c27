package billing

import (
	"errors"
	"net/http"

	"taskboard/internal/payments"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	payments *payments.Service
}

func NewHandler(svc *payments.Service) *Handler {
	return &Handler{payments: svc}
}

// respondError maps the payments error taxonomy onto HTTP.
func respondError(c *gin.Context, err error) {
	var pe *payments.ProviderError
	switch {
	case errors.Is(err, payments.ErrInvalidPlan):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan", "details": err.Error()})
	case errors.Is(err, payments.ErrInvalidOrigin):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid origin_url", "details": err.Error()})
	case errors.As(err, &pe):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment provider error", "details": pe.Err.Error()})
	case errors.Is(err, payments.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment processing failed", "details": err.Error()})
	}
}
