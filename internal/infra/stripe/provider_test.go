package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"taskboard/internal/domain/billing"
	"taskboard/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

func sign(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func completedPayload(sessionID string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_123",
  "object": "event",
  "api_version": "2023-08-16",
  "type": "checkout.session.completed",
  "data": {"object": {
    "id": %q,
    "object": "checkout.session",
    "amount_total": 1999,
    "currency": "usd",
    "status": "complete",
    "payment_status": "paid",
    "metadata": {"user_id": "user-1", "plan_id": "professional", "source": "web"}
  }}
}`, sessionID))
}

func TestParseWebhookVerifiesSignature(t *testing.T) {
	p := NewProvider(Config{SecretKey: "sk_test", WebhookSecret: testSecret})
	payload := completedPayload("cs_test_1")

	ev, err := p.ParseWebhook(payload, sign(payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_123", ev.ID)
	assert.Equal(t, payments.EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "cs_test_1", ev.SessionID)
	assert.Equal(t, int64(1999), ev.AmountTotal)
	assert.Equal(t, "usd", ev.Currency)
	assert.Equal(t, "professional", ev.Metadata["plan_id"])

	_, err = p.ParseWebhook(payload, sign(payload, "whsec_other", time.Now()))
	require.ErrorIs(t, err, payments.ErrInvalidSignature)

	_, err = p.ParseWebhook(payload, "")
	require.ErrorIs(t, err, payments.ErrInvalidSignature)

	stale := time.Now().Add(-time.Hour)
	_, err = p.ParseWebhook(payload, sign(payload, testSecret, stale))
	require.ErrorIs(t, err, payments.ErrInvalidSignature)
}

func TestParseWebhookUnsignedMode(t *testing.T) {
	p := NewProvider(Config{SecretKey: "sk_test"})

	ev, err := p.ParseWebhook(completedPayload("cs_test_2"), "")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_2", ev.SessionID)

	_, err = p.ParseWebhook([]byte("not json"), "")
	require.ErrorIs(t, err, payments.ErrInvalidPayload)

	ev, err = p.ParseWebhook([]byte(`{"id":"evt_9","type":"invoice.paid","data":{"object":{}}}`), "")
	require.NoError(t, err)
	assert.Equal(t, "invoice.paid", ev.Type)
	assert.Empty(t, ev.SessionID)
}

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewProvider(Config{SecretKey: "sk_test", URL: srv.URL, HTTPClient: srv.Client()})
}

func TestCreateCheckoutSession(t *testing.T) {
	var form map[string]string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_abc","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_abc"}`)
	})

	s, err := p.CreateCheckoutSession(context.Background(), payments.CheckoutRequest{
		ProductName: "Starter",
		AmountMinor: 999,
		Currency:    "usd",
		Mode:        "payment",
		SuccessURL:  "https://app.example.com/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   "https://app.example.com/pricing",
		Metadata:    map[string]string{"user_id": "user-1", "plan_id": "starter", "source": "web"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_abc", s.URL)

	assert.Equal(t, "payment", form["mode"])
	assert.Equal(t, "999", form["line_items[0][price_data][unit_amount]"])
	assert.Equal(t, "usd", form["line_items[0][price_data][currency]"])
	assert.Equal(t, "Starter", form["line_items[0][price_data][product_data][name]"])
	assert.Equal(t, "starter", form["metadata[plan_id]"])
	assert.Equal(t, "user-1", form["client_reference_id"])
	assert.Equal(t, "https://app.example.com/payment-success?session_id={CHECKOUT_SESSION_ID}", form["success_url"])
}

func TestRetrieveSession(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/cs_test_abc", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_abc","object":"checkout.session","status":"complete","payment_status":"paid"}`)
	})

	st, err := p.RetrieveSession(context.Background(), "cs_test_abc")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusComplete, st.Status)
	assert.Equal(t, billing.PaymentPaid, st.PaymentStatus)
}

func TestRetrieveSessionUpstreamError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"type":"invalid_request_error","message":"No such checkout.session: cs_nope"}}`)
	})

	_, err := p.RetrieveSession(context.Background(), "cs_nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No such checkout.session")
}

func TestProviderDoesNotRetry(t *testing.T) {
	bc := apiBackendConfig(Config{SecretKey: "sk_live"}, http.DefaultClient)
	require.NotNil(t, bc.MaxNetworkRetries)
	assert.Zero(t, *bc.MaxNetworkRetries)
	assert.Nil(t, bc.URL)

	var hits atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Stripe-Should-Retry", "true")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"type":"api_error","message":"try later"}}`)
	})

	_, err := p.RetrieveSession(context.Background(), "cs_busy")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}
