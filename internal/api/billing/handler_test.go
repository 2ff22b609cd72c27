package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskboard/internal/app/http/middleware"
	"taskboard/internal/domain/billing"
	"taskboard/internal/domain/plans"
	"taskboard/internal/domain/users"
	"taskboard/internal/payments"
	"taskboard/internal/repository/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	createErr error
	state     payments.SessionState
}

func (p *stubProvider) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	return &payments.CheckoutSession{ID: "cs_test_" + req.Metadata["plan_id"], URL: "https://pay.example/" + req.Metadata["plan_id"]}, nil
}

func (p *stubProvider) RetrieveSession(context.Context, string) (*payments.SessionState, error) {
	st := p.state
	return &st, nil
}

func (p *stubProvider) ParseWebhook([]byte, string) (*payments.WebhookEvent, error) {
	return nil, payments.ErrInvalidSignature
}

func setup(t *testing.T) (*gin.Engine, *stubProvider) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	catalog, err := plans.NewCatalog(plans.DefaultTiers())
	require.NoError(t, err)

	store := memory.New()
	store.PutUser(users.User{ID: "u-1", Email: "ada@example.com"})
	store.PutUser(users.User{ID: "u-2", Email: "bob@example.com"})
	provider := &stubProvider{}
	svc := payments.NewService(payments.Options{
		Catalog:  catalog,
		Ledger:   store.Repositories().Transactions,
		Users:    store.Repositories().Users,
		Provider: provider,
	})
	h := NewHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextUserID, c.GetHeader("X-User")) })
	r.POST("/checkout", h.CreateCheckoutSession)
	r.GET("/checkout/status/:session_id", h.CheckoutStatus)
	r.GET("/payments", h.GetPaymentHistory)
	return r, provider
}

func do(r *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", user)
	r.ServeHTTP(w, req)
	return w
}

func TestCheckoutAndStatus(t *testing.T) {
	r, provider := setup(t)

	w := do(r, http.MethodPost, "/checkout", "u-1", `{"plan":"starter","origin_url":"https://app.example.com"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"url":"https://pay.example/starter","session_id":"cs_test_starter"}`, w.Body.String())

	provider.state = payments.SessionState{Status: billing.StatusPending, PaymentStatus: billing.PaymentUnpaid}
	w = do(r, http.MethodGet, "/checkout/status/cs_test_starter", "u-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"pending","payment_status":"unpaid"}`, w.Body.String())

	provider.state = payments.SessionState{Status: billing.StatusComplete, PaymentStatus: billing.PaymentPaid}
	w = do(r, http.MethodGet, "/checkout/status/cs_test_starter", "u-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"complete","payment_status":"paid"}`, w.Body.String())

	w = do(r, http.MethodGet, "/checkout/status/cs_test_starter", "u-2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/payments", "u-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var history []PaymentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, billing.StatusCompleted, history[0].Status)
	assert.Equal(t, "9.99", history[0].Amount.StringFixed(2))
}

func TestCheckoutErrors(t *testing.T) {
	r, provider := setup(t)

	w := do(r, http.MethodPost, "/checkout", "u-1", `{"plan":"gold","origin_url":"https://app.example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid plan")

	w = do(r, http.MethodPost, "/checkout", "u-1", `{"plan":"starter"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	provider.createErr = errors.New("api_key_expired")
	w = do(r, http.MethodPost, "/checkout", "u-1", `{"plan":"starter","origin_url":"https://app.example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "api_key_expired")

	w = do(r, http.MethodGet, "/payments", "u-1", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}
