package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/domain/users"
	"taskboard/internal/repository/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	iss := auth.NewIssuer("s3cret", time.Hour)
	r := gin.New()
	r.GET("/me", AuthMiddleware(iss), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "role": c.GetString(ContextRole)})
	})

	tok, err := iss.Issue(users.User{ID: "u-1", Email: "ada@example.com", Role: users.RoleUser})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + tok, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"no bearer prefix", tok, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(r, req)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"u-1","role":"user"}`, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		if role := c.Query("role"); role != "" {
			c.Set(ContextRole, role)
		}
	}, RequireRole(users.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/admin?role=admin", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, httptest.NewRequest(http.MethodGet, "/admin?role=user", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
}

func TestRequirePremium(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	future, past := now.Add(time.Hour), now.Add(-time.Hour)
	plan := "starter"

	store := memory.New()
	store.PutUser(users.User{ID: "active", IsPremium: true, SubscriptionPlan: &plan, SubscriptionExpires: &future})
	store.PutUser(users.User{ID: "lapsed", IsPremium: true, SubscriptionPlan: &plan, SubscriptionExpires: &past})
	store.PutUser(users.User{ID: "free"})

	r := gin.New()
	r.GET("/premium", func(c *gin.Context) {
		c.Set(ContextUserID, c.Query("as"))
	}, RequirePremium(store.Repositories().Users, func() time.Time { return now }), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/premium?as=active", nil)).Code)
	assert.Equal(t, http.StatusPaymentRequired, serve(r, httptest.NewRequest(http.MethodGet, "/premium?as=lapsed", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, httptest.NewRequest(http.MethodGet, "/premium?as=free", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/premium?as=ghost", nil)).Code)
}

func TestSanitizeAndCleanInput(t *testing.T) {
	r := gin.New()
	r.Use(SanitizeAndCleanInputMiddleware())
	r.POST("/echo", func(c *gin.Context) {
		raw, _ := io.ReadAll(c.Request.Body)
		c.Data(http.StatusOK, "application/json", raw)
	})

	body := `{"title":"<script>alert(1)</script>Buy milk","tags":["<b>x</b>"],"meta":{"note":"<i>hi</i>"},"n":3}`
	w := serve(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"title":"Buy milk","tags":["x"],"meta":{"note":"hi"},"n":3}`, w.Body.String())

	body = `{"title":"R&D <b>sync</b>","note":"Tom's \"plan\"","raw":"&lt;script&gt;"}`
	w = serve(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"title":"R&D sync","note":"Tom's \"plan\"","raw":"&lt;script&gt;"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("{oops")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/echo", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
