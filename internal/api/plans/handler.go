package plans

import (
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

// GET /plans
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.payments.Plans())
}
