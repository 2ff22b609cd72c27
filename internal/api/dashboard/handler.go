package dashboard

import (
	"net/http"
	"time"

	"taskboard/internal/app/http/middleware"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	now      func() time.Time
}

func NewHandler(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{tasks: taskRepo, projects: projectRepo, now: now}
}

// GET /dashboard/stats. "Today" is the current UTC day.
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	dayStart := h.now().UTC().Truncate(24 * time.Hour)
	stats, err := h.tasks.Stats(ctx, userID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load task stats"})
		return
	}
	stats.TotalProjects, err = h.projects.Count(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
