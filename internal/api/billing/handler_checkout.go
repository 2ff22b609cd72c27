package billing

import (
	"net/http"

	"taskboard/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

// POST /checkout {plan, origin_url}
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body struct {
		Plan      string `json:"plan" binding:"required"`
		OriginURL string `json:"origin_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid plan/origin_url", "details": err.Error()})
		return
	}

	res, err := h.payments.InitiateCheckout(c.Request.Context(), middleware.UserID(c), body.Plan, body.OriginURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /checkout/status/:session_id
func (h *Handler) CheckoutStatus(c *gin.Context) {
	res, err := h.payments.CheckStatus(c.Request.Context(), c.Param("session_id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
