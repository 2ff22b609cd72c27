package users

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/app/http/middleware"
	"taskboard/internal/domain/users"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	users repository.UserRepository
	now   func() time.Time
}

func NewHandler(userRepo repository.UserRepository, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{users: userRepo, now: now}
}

// GET /me
func (h *Handler) GetCurrentUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, buildMe(*user, h.now()))
}

// PUT /me/slack links (or with an empty id, unlinks) a Slack account.
func (h *Handler) LinkSlack(c *gin.Context) {
	var body struct {
		SlackUserID string `json:"slack_user_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	var slackID *string
	if id := strings.TrimSpace(body.SlackUserID); id != "" {
		slackID = &id
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)
	if err := h.users.SetSlackUserID(ctx, userID, slackID); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": "Slack account already linked to another user"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link Slack account", "details": err.Error()})
		}
		return
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, buildMe(*user, h.now()))
}

func buildMe(u users.User, now time.Time) MeResponse {
	sub := SubscriptionDTO{
		IsPremium: u.IsPremium,
		Active:    u.HasActiveEntitlement(now),
		Plan:      u.SubscriptionPlan,
		ExpiresAt: u.SubscriptionExpires,
	}
	if sub.Active {
		days := int(math.Ceil(u.SubscriptionExpires.Sub(now).Hours() / 24))
		sub.DaysLeft = &days
	}

	return MeResponse{
		User: UserDTO{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			Role:         u.Role,
			AuthProvider: u.AuthProvider,
			SlackUserID:  u.SlackUserID,
			CreatedAt:    u.CreatedAt,
		},
		Subscription: sub,
	}
}
