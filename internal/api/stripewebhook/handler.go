package stripewebhooks

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"taskboard/internal/payments"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 65536

type Handler struct {
	payments *payments.Service
	logger   *slog.Logger
}

func NewHandler(svc *payments.Service, logger *slog.Logger) *Handler {
	return &Handler{payments: svc, logger: logger}
}

// POST /webhook/stripe. The raw body is passed through untouched because the
// signature covers its exact bytes.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading request body"})
		return
	}

	res, err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case errors.Is(err, payments.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	case errors.Is(err, payments.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload", "details": err.Error()})
		return
	case err != nil:
		// retryable: the provider will redeliver
		h.logger.Error("webhook processing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
		return
	}

	h.logger.Debug("webhook handled", "type", res.EventType, "session_id", res.SessionID, "outcome", res.Outcome)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
