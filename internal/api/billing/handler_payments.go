package billing

import (
	"net/http"
	"time"

	"taskboard/internal/app/http/middleware"
	"taskboard/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentDTO struct {
	SessionID     string                `json:"session_id"`
	Plan          string                `json:"plan"`
	Amount        decimal.Decimal       `json:"amount"`
	Currency      string                `json:"currency"`
	Status        billing.Status        `json:"status"`
	PaymentStatus billing.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func ToPaymentDTOs(rows []billing.Transaction) []PaymentDTO {
	out := make([]PaymentDTO, 0, len(rows))
	for _, t := range rows {
		out = append(out, PaymentDTO{
			SessionID:     t.SessionID,
			Plan:          t.Plan,
			Amount:        t.Amount,
			Currency:      t.Currency,
			Status:        t.Status,
			PaymentStatus: t.PaymentStatus,
			CreatedAt:     t.CreatedAt,
			UpdatedAt:     t.UpdatedAt,
		})
	}
	return out
}

// GET /payments
func (h *Handler) GetPaymentHistory(c *gin.Context) {
	rows, err := h.payments.History(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}
	c.JSON(http.StatusOK, ToPaymentDTOs(rows))
}
