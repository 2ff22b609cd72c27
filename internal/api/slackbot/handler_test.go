package slackbot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"taskboard/internal/domain/tasks"
	"taskboard/internal/domain/users"
	"taskboard/internal/observability"
	"taskboard/internal/repository"
	"taskboard/internal/repository/memory"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signingSecret = "slack_signing_test"

func setup(t *testing.T) (*gin.Engine, *repository.Repositories) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.New()
	slackID := "U1"
	store.PutUser(users.User{ID: "u-1", Email: "ada@example.com", SlackUserID: &slackID})
	repos := store.Repositories()

	h := NewHandler(Options{
		SigningSecret: signingSecret,
		Users:         repos.Users,
		Tasks:         repos.Tasks,
		Projects:      repos.Projects,
		Logger:        observability.DiscardLogger(),
	})
	r := gin.New()
	r.POST("/slack/commands", h.Command)
	return r, repos
}

func command(r *gin.Engine, userID, text, secret string) *httptest.ResponseRecorder {
	body := url.Values{
		"command":   {"/tasks"},
		"text":      {text},
		"user_id":   {userID},
		"team_id":   {"T1"},
		"user_name": {"ada"},
	}.Encode()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", ts, body)

	req := httptest.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) slack.Msg {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var msg slack.Msg
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, slack.ResponseTypeEphemeral, msg.ResponseType)
	return msg
}

func TestAddListStats(t *testing.T) {
	r, repos := setup(t)

	msg := decode(t, command(r, "U1", "add Water the plants", signingSecret))
	assert.Equal(t, "Added task: Water the plants", msg.Text)

	all, err := repos.Tasks.List(context.Background(), "u-1", tasks.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, tasks.StatusTodo, all[0].Status)

	msg = decode(t, command(r, "U1", "list", signingSecret))
	assert.Contains(t, msg.Text, "Water the plants")

	msg = decode(t, command(r, "U1", "stats", signingSecret))
	assert.Contains(t, msg.Text, "1 total")

	msg = decode(t, command(r, "U1", "", signingSecret))
	assert.Contains(t, msg.Text, "Usage")
}

func TestUnlinkedUser(t *testing.T) {
	r, _ := setup(t)
	msg := decode(t, command(r, "U999", "list", signingSecret))
	assert.Contains(t, msg.Text, "not linked")
}

func TestRejectsBadSignature(t *testing.T) {
	r, repos := setup(t)
	w := command(r, "U1", "add sneaky", "wrong-secret")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	all, err := repos.Tasks.List(context.Background(), "u-1", tasks.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
