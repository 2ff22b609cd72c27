package admin

import (
	"net/http"

	billingapi "taskboard/internal/api/billing"
	"taskboard/internal/domain/billing"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Handler struct {
	users        repository.UserRepository
	transactions repository.TransactionRepository
}

func NewHandler(userRepo repository.UserRepository, txnRepo repository.TransactionRepository) *Handler {
	return &Handler{users: userRepo, transactions: txnRepo}
}

type AdminPayment struct {
	UserID string `json:"user_id"`
	billingapi.PaymentDTO
}

type AdminStats struct {
	TotalUsers     int64           `json:"total_users"`
	PremiumUsers   int64           `json:"premium_users"`
	CompletedCount int             `json:"completed_payments"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}

// GET /admin/payments
func (h *Handler) ListAllPayments(c *gin.Context) {
	rows, err := h.transactions.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	dtos := billingapi.ToPaymentDTOs(rows)
	out := make([]AdminPayment, 0, len(rows))
	for i, t := range rows {
		out = append(out, AdminPayment{UserID: t.UserID, PaymentDTO: dtos[i]})
	}
	c.JSON(http.StatusOK, out)
}

// GET /admin/stats
func (h *Handler) GetAdminStats(c *gin.Context) {
	ctx := c.Request.Context()

	total, premium, err := h.users.Counts(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}
	revenue, err := h.transactions.CompletedRevenue(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute revenue"})
		return
	}
	rows, err := h.transactions.ListAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}
	completed := 0
	for _, t := range rows {
		if t.Status == billing.StatusCompleted {
			completed++
		}
	}

	c.JSON(http.StatusOK, AdminStats{
		TotalUsers:     total,
		PremiumUsers:   premium,
		CompletedCount: completed,
		TotalRevenue:   revenue,
	})
}
