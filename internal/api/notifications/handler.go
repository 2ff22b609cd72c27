package notifications

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/app/http/middleware"
	"taskboard/internal/domain/notifications"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	notifications repository.NotificationRepository
	tasks         repository.TaskRepository
	now           func() time.Time
}

func NewHandler(notificationRepo repository.NotificationRepository, taskRepo repository.TaskRepository, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{notifications: notificationRepo, tasks: taskRepo, now: now}
}

// POST /notifications
func (h *Handler) Create(c *gin.Context) {
	var in struct {
		TaskID       *string   `json:"task_id"`
		Message      string    `json:"message" binding:"required"`
		ScheduledFor time.Time `json:"scheduled_for" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)
	n := notifications.Notification{
		ID:           uuid.NewString(),
		UserID:       userID,
		Message:      strings.TrimSpace(in.Message),
		ScheduledFor: in.ScheduledFor,
	}
	if in.TaskID != nil && *in.TaskID != "" {
		if _, err := h.tasks.Get(ctx, userID, *in.TaskID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown task_id"})
			return
		}
		n.TaskID = in.TaskID
	}

	if err := h.notifications.Create(ctx, &n); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, n)
}

// GET /notifications?unread=true
func (h *Handler) List(c *gin.Context) {
	out, err := h.notifications.List(c.Request.Context(), middleware.UserID(c), c.Query("unread") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}
	respond(c, out)
}

// GET /notifications/due
func (h *Handler) Due(c *gin.Context) {
	out, err := h.notifications.Due(c.Request.Context(), middleware.UserID(c), h.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}
	respond(c, out)
}

// PUT /notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	n, err := h.notifications.MarkRead(c.Request.Context(), middleware.UserID(c), c.Param("id"), h.now())
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	c.JSON(http.StatusOK, n)
}

func respond(c *gin.Context, out []notifications.Notification) {
	if out == nil {
		out = []notifications.Notification{}
	}
	c.JSON(http.StatusOK, out)
}
