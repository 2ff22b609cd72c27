// Package slackbot serves the /slack/commands slash-command endpoint.
package slackbot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/domain/tasks"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/slack-go/slack"
)

const listLimit = 10

type Handler struct {
	signingSecret string
	users         repository.UserRepository
	tasks         repository.TaskRepository
	projects      repository.ProjectRepository
	logger        *slog.Logger
	now           func() time.Time
}

type Options struct {
	SigningSecret string
	Users         repository.UserRepository
	Tasks         repository.TaskRepository
	Projects      repository.ProjectRepository
	Logger        *slog.Logger
	Now           func() time.Time
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		signingSecret: opts.SigningSecret,
		users:         opts.Users,
		tasks:         opts.Tasks,
		projects:      opts.Projects,
		logger:        opts.Logger,
		now:           opts.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// POST /slack/commands
func (h *Handler) Command(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<16))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading request body"})
		return
	}

	verifier, err := slack.NewSecretsVerifier(c.Request.Header, h.signingSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Slack signature"})
		return
	}
	if _, err := verifier.Write(body); err != nil || verifier.Ensure() != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Slack signature"})
		return
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	cmd, err := slack.SlashCommandParse(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed slash command"})
		return
	}

	c.JSON(http.StatusOK, h.dispatch(c.Request.Context(), cmd))
}

func (h *Handler) dispatch(ctx context.Context, cmd slack.SlashCommand) *slack.Msg {
	user, err := h.users.GetBySlackUserID(ctx, cmd.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return reply("Your Slack account is not linked yet. Link it from your profile (PUT /me/slack).")
	}
	if err != nil {
		h.logger.Error("slack user lookup failed", "slack_user_id", cmd.UserID, "error", err)
		return reply("Something went wrong, please try again.")
	}

	sub, arg, _ := strings.Cut(strings.TrimSpace(cmd.Text), " ")
	switch strings.ToLower(sub) {
	case "list":
		return h.list(ctx, user.ID)
	case "add":
		return h.add(ctx, user.ID, strings.TrimSpace(arg))
	case "stats":
		return h.stats(ctx, user.ID)
	default:
		return reply(helpText(cmd.Command))
	}
}

func (h *Handler) list(ctx context.Context, userID string) *slack.Msg {
	all, err := h.tasks.List(ctx, userID, tasks.Filter{})
	if err != nil {
		return reply("Could not load your tasks.")
	}

	var b strings.Builder
	n := 0
	for _, t := range all {
		if t.Status == tasks.StatusCompleted {
			continue
		}
		if n == listLimit {
			break
		}
		fmt.Fprintf(&b, "• %s (%s, %s priority, starts %s)\n", t.Title, t.Status, t.Priority, t.StartTime.UTC().Format("Jan 2 15:04"))
		n++
	}
	if n == 0 {
		return reply("You have no open tasks. :tada:")
	}
	return reply(fmt.Sprintf("Your open tasks:\n%s", b.String()))
}

func (h *Handler) add(ctx context.Context, userID, title string) *slack.Msg {
	if title == "" {
		return reply("Usage: add <title>")
	}
	start := h.now().UTC()
	t := tasks.Task{
		ID:        uuid.NewString(),
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Priority:  tasks.PriorityMedium,
		Status:    tasks.StatusTodo,
		UserID:    userID,
	}
	if err := h.tasks.Create(ctx, &t); err != nil {
		h.logger.Error("slack add task failed", "user_id", userID, "error", err)
		return reply("Could not create the task.")
	}
	return reply(fmt.Sprintf("Added task: %s", title))
}

func (h *Handler) stats(ctx context.Context, userID string) *slack.Msg {
	dayStart := h.now().UTC().Truncate(24 * time.Hour)
	s, err := h.tasks.Stats(ctx, userID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return reply("Could not load your stats.")
	}
	projects, err := h.projects.Count(ctx, userID)
	if err != nil {
		return reply("Could not load your stats.")
	}
	return reply(fmt.Sprintf("Tasks: %d total, %d completed, %d pending, %d today. Projects: %d.",
		s.TotalTasks, s.CompletedTasks, s.PendingTasks, s.TodayTasks, projects))
}

func reply(text string) *slack.Msg {
	return &slack.Msg{ResponseType: slack.ResponseTypeEphemeral, Text: text}
}

func helpText(command string) string {
	if command == "" {
		command = "/tasks"
	}
	return fmt.Sprintf("Usage:\n`%[1]s list` open tasks\n`%[1]s add <title>` new task\n`%[1]s stats` your counters\n`%[1]s help` this message", command)
}
