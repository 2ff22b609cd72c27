package projects

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"taskboard/internal/app/http/middleware"
	"taskboard/internal/domain/tasks"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	logger   *slog.Logger
}

func NewHandler(projectRepo repository.ProjectRepository, taskRepo repository.TaskRepository, logger *slog.Logger) *Handler {
	return &Handler{projects: projectRepo, tasks: taskRepo, logger: logger}
}

// POST /projects
func (h *Handler) Create(c *gin.Context) {
	var in struct {
		Name        string  `json:"name" binding:"required"`
		Description *string `json:"description"`
		Color       string  `json:"color"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	p := tasks.Project{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Color:       strings.TrimSpace(in.Color),
		UserID:      middleware.UserID(c),
	}
	if p.Color == "" {
		p.Color = tasks.DefaultProjectColor
	}
	if err := h.projects.Create(c.Request.Context(), &p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /projects
func (h *Handler) List(c *gin.Context) {
	out, err := h.projects.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load projects"})
		return
	}
	if out == nil {
		out = []tasks.Project{}
	}
	c.JSON(http.StatusOK, out)
}

// GET /projects/:id
func (h *Handler) Get(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /projects/:id also removes the project's tasks.
func (h *Handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	userID, id := middleware.UserID(c), c.Param("id")

	err := h.projects.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	removed, err := h.tasks.DeleteByProject(ctx, userID, id)
	if err != nil {
		h.logger.Error("cascade delete tasks failed", "project_id", id, "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully", "deleted_tasks": removed})
}
