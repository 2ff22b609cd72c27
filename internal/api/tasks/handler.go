package tasks

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
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	logger   *slog.Logger
}

func NewHandler(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, logger *slog.Logger) *Handler {
	return &Handler{tasks: taskRepo, projects: projectRepo, logger: logger}
}

// POST /tasks
func (h *Handler) Create(c *gin.Context) {
	var in createTaskRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	t := tasks.Task{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		Priority:         orDefault(in.Priority, tasks.PriorityMedium),
		Status:           orDefault(in.Status, tasks.StatusTodo),
		ProjectID:        emptyToNil(in.ProjectID),
		RecurringPattern: emptyToNil(in.RecurringPattern),
		UserID:           userID,
	}
	if !h.validate(c, &t) {
		return
	}

	if err := h.tasks.Create(c.Request.Context(), &t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, t)
}

// GET /tasks?project_id=&status=
func (h *Handler) List(c *gin.Context) {
	f := tasks.Filter{ProjectID: c.Query("project_id"), Status: c.Query("status")}
	if f.Status != "" && !tasks.ValidStatus(f.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	out, err := h.tasks.List(c.Request.Context(), middleware.UserID(c), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tasks"})
		return
	}
	if out == nil {
		out = []tasks.Task{}
	}
	c.JSON(http.StatusOK, out)
}

// GET /tasks/:id
func (h *Handler) Get(c *gin.Context) {
	t, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t)
}

// PUT /tasks/:id
func (h *Handler) Update(c *gin.Context) {
	var in updateTaskRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	t, ok := h.load(c)
	if !ok {
		return
	}

	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = in.Description
	}
	if in.StartTime != nil {
		t.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		t.EndTime = *in.EndTime
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.ProjectID != nil {
		t.ProjectID = emptyToNil(in.ProjectID)
	}
	if in.RecurringPattern != nil {
		t.RecurringPattern = emptyToNil(in.RecurringPattern)
	}
	if !h.validate(c, t) {
		return
	}

	if err := h.tasks.Save(c.Request.Context(), t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, t)
}

// DELETE /tasks/:id
func (h *Handler) Delete(c *gin.Context) {
	err := h.tasks.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// POST /tasks/:id/occurrences expands a recurring task into child tasks up
// to until. Start times that already have a child are skipped, so repeating
// the call is harmless.
func (h *Handler) ExpandOccurrences(c *gin.Context) {
	var in occurrencesRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	parent, ok := h.load(c)
	if !ok {
		return
	}
	if parent.RecurringPattern == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task is not recurring"})
		return
	}
	if !in.Until.After(parent.StartTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "until must be after the task start_time"})
		return
	}

	starts, err := tasks.Occurrences(*parent.RecurringPattern, parent.StartTime, in.Until, tasks.MaxOccurrences)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recurring pattern", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	existing, err := h.tasks.ChildStartTimes(ctx, parent.UserID, parent.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load occurrences"})
		return
	}
	seen := make(map[int64]struct{}, len(existing))
	for _, ts := range existing {
		seen[ts.Unix()] = struct{}{}
	}

	duration := parent.EndTime.Sub(parent.StartTime)
	parentID := parent.ID
	created := []tasks.Task{}
	for _, start := range starts {
		if _, dup := seen[start.Unix()]; dup {
			continue
		}
		child := tasks.Task{
			ID:           uuid.NewString(),
			Title:        parent.Title,
			Description:  parent.Description,
			StartTime:    start,
			EndTime:      start.Add(duration),
			Priority:     parent.Priority,
			Status:       tasks.StatusTodo,
			ProjectID:    parent.ProjectID,
			ParentTaskID: &parentID,
			UserID:       parent.UserID,
		}
		if err := h.tasks.Create(ctx, &child); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create occurrence", "details": err.Error()})
			return
		}
		created = append(created, child)
	}

	h.logger.Info("recurring task expanded",
		"task_id", parent.ID, "user_id", parent.UserID, "created", len(created), "skipped", len(starts)-len(created))
	c.JSON(http.StatusOK, gin.H{"created": len(created), "tasks": created})
}

func (h *Handler) load(c *gin.Context) (*tasks.Task, bool) {
	t, err := h.tasks.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load task"})
		return nil, false
	}
	return t, true
}

func (h *Handler) validate(c *gin.Context, t *tasks.Task) bool {
	switch {
	case t.Title == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
	case t.EndTime.Before(t.StartTime):
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_time must not be before start_time"})
	case !tasks.ValidPriority(t.Priority):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
	case !tasks.ValidStatus(t.Status):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
	default:
		if t.RecurringPattern != nil {
			if err := tasks.ValidatePattern(*t.RecurringPattern); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recurring pattern", "details": err.Error()})
				return false
			}
		}
		if t.ProjectID != nil {
			if _, err := h.projects.Get(c.Request.Context(), t.UserID, *t.ProjectID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown project_id"})
				return false
			}
		}
		return true
	}
	return false
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

