package payments

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"taskboard/internal/domain/billing"
	"taskboard/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startCheckout(t *testing.T, h *harness, userID, plan string) string {
	t.Helper()
	res, err := h.svc.InitiateCheckout(context.Background(), userID, plan, "https://app.example.com")
	require.NoError(t, err)
	return res.SessionID
}

func TestCheckStatusUnknownOrForeignSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := startCheckout(t, h, "user-1", "starter")

	_, err := h.svc.CheckStatus(ctx, "cs_missing", "user-1")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = h.svc.CheckStatus(ctx, sid, "user-2")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, h.provider.retrieveCount())
}

func TestCheckStatusOpenSessionStaysPending(t *testing.T) {
	h := newHarness(t)
	sid := startCheckout(t, h, "user-1", "starter")
	h.provider.setState(billing.StatusPending, billing.PaymentUnpaid)

	res, err := h.svc.CheckStatus(context.Background(), sid, "user-1")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPending, res.Status)
	assert.Equal(t, billing.PaymentUnpaid, res.PaymentStatus)

	assert.Equal(t, billing.StatusPending, h.txn(t, sid).Status)
	assert.False(t, h.user(t, "user-1").IsPremium)
	assert.Zero(t, h.ledger.grants.Load())
}

func TestCheckStatusExpiredSession(t *testing.T) {
	h := newHarness(t)
	sid := startCheckout(t, h, "user-1", "starter")
	h.provider.setState(billing.StatusExpired, billing.PaymentUnpaid)

	res, err := h.svc.CheckStatus(context.Background(), sid, "user-1")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusExpired, res.Status)
	assert.Equal(t, billing.StatusExpired, h.txn(t, sid).Status)
	assert.False(t, h.user(t, "user-1").IsPremium)
}

func TestCheckStatusPaidGrantsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := startCheckout(t, h, "user-1", "professional")
	h.provider.setState(billing.StatusComplete, billing.PaymentPaid)

	res, err := h.svc.CheckStatus(ctx, sid, "user-1")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusComplete, res.Status)
	assert.Equal(t, billing.PaymentPaid, res.PaymentStatus)

	txn := h.txn(t, sid)
	assert.Equal(t, billing.StatusCompleted, txn.Status)
	assert.Equal(t, billing.PaymentPaid, txn.PaymentStatus)

	u := h.user(t, "user-1")
	assert.True(t, u.IsPremium)
	require.NotNil(t, u.SubscriptionPlan)
	assert.Equal(t, "professional", *u.SubscriptionPlan)
	require.NotNil(t, u.SubscriptionExpires)
	assert.WithinDuration(t, h.now.Add(30*24*time.Hour), *u.SubscriptionExpires, time.Second)

	// later polls are served from the ledger
	h.now = h.now.Add(time.Hour)
	res, err = h.svc.CheckStatus(ctx, sid, "user-1")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusComplete, res.Status)
	assert.Equal(t, billing.PaymentPaid, res.PaymentStatus)
	assert.Equal(t, 1, h.provider.retrieveCount())
	assert.Equal(t, int32(1), h.ledger.grants.Load())
	assert.WithinDuration(t, h.now.Add(-time.Hour).Add(30*24*time.Hour), *h.user(t, "user-1").SubscriptionExpires, time.Second)
}

func TestCheckStatusProviderTimeout(t *testing.T) {
	h := newHarness(t)
	sid := startCheckout(t, h, "user-1", "starter")
	h.provider.retrieve = func(ctx context.Context, _ string) (*SessionState, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	h.svc.timeout = 20 * time.Millisecond

	_, err := h.svc.CheckStatus(context.Background(), sid, "user-1")
	require.Error(t, err)
	assert.True(t, IsProviderError(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, billing.StatusPending, h.txn(t, sid).Status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	h.provider.secret = "whsec_test"
	sid := startCheckout(t, h, "user-1", "starter")

	_, err := h.svc.HandleWebhook(context.Background(), completedEvent(t, sid, nil), "forged")
	require.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, billing.StatusPending, h.txn(t, sid).Status)
	assert.False(t, h.user(t, "user-1").IsPremium)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.HandleWebhook(context.Background(), []byte("{not json"), "")
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = h.svc.HandleWebhook(context.Background(), completedEvent(t, "", nil), "")
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestWebhookCompletesAndIgnoresDuplicates(t *testing.T) {
	h := newHarness(t)
	h.provider.secret = "whsec_test"
	ctx := context.Background()
	sid := startCheckout(t, h, "user-1", "enterprise")

	res, err := h.svc.HandleWebhook(ctx, completedEvent(t, sid, nil), "whsec_test")
	require.NoError(t, err)
	assert.Equal(t, "granted", res.Outcome)
	assert.Equal(t, sid, res.SessionID)

	u := h.user(t, "user-1")
	assert.True(t, u.IsPremium)
	assert.Equal(t, "enterprise", *u.SubscriptionPlan)
	assert.WithinDuration(t, h.now.Add(30*24*time.Hour), *u.SubscriptionExpires, time.Second)

	h.now = h.now.Add(time.Minute)
	res, err = h.svc.HandleWebhook(ctx, completedEvent(t, sid, nil), "whsec_test")
	require.NoError(t, err)
	assert.Equal(t, "duplicate", res.Outcome)
	assert.Equal(t, int32(1), h.ledger.grants.Load())

	// the pull path after a push does not call the provider
	status, err := h.svc.CheckStatus(ctx, sid, "user-1")
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentPaid, status.PaymentStatus)
	assert.Zero(t, h.provider.retrieveCount())
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	h := newHarness(t)
	sid := startCheckout(t, h, "user-1", "starter")
	raw, err := json.Marshal(webhookBody{ID: "evt_2", Type: "checkout.session.expired", Session: sid})
	require.NoError(t, err)

	res, err := h.svc.HandleWebhook(context.Background(), raw, "")
	require.NoError(t, err)
	assert.Equal(t, "ignored", res.Outcome)
	assert.Equal(t, billing.StatusPending, h.txn(t, sid).Status)
}

func TestWebhookUnknownSessionIsAcknowledged(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.HandleWebhook(context.Background(), completedEvent(t, "cs_elsewhere", nil), "")
	require.NoError(t, err)
	assert.Equal(t, "unknown_session", res.Outcome)

	rows, err := h.repos.Transactions.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWebhookForMissingUserIsAcknowledged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	payload := completedEvent(t, "cs_ghost", map[string]string{"user_id": "ghost", "plan_id": "starter"})

	for i := 0; i < 3; i++ {
		res, err := h.svc.HandleWebhook(ctx, payload, "")
		require.NoError(t, err, "delivery %d", i)
		assert.Equal(t, "unknown_session", res.Outcome)
	}

	_, err := h.repos.Transactions.GetBySessionID(ctx, "cs_ghost")
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.Zero(t, h.ledger.grants.Load())
}

func TestWebhookForTransactionWithoutOwnerIsAcknowledged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.repos.Transactions.Create(ctx, &billing.Transaction{
		ID: "t-orphan", SessionID: "cs_orphan", UserID: "deleted-user", Plan: "starter",
		Amount: decimal.RequireFromString("9.99"), Currency: "usd",
		Status: billing.StatusPending, PaymentStatus: billing.PaymentUnpaid,
	}))

	for i := 0; i < 2; i++ {
		res, err := h.svc.HandleWebhook(ctx, completedEvent(t, "cs_orphan", nil), "")
		require.NoError(t, err, "delivery %d", i)
		assert.Equal(t, "orphaned", res.Outcome)
	}
	assert.Zero(t, h.ledger.grants.Load())
}

func TestConcurrentReconciliationGrantsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sid := startCheckout(t, h, "user-1", "starter")
	h.provider.setState(billing.StatusComplete, billing.PaymentPaid)
	payload := completedEvent(t, sid, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, err := h.svc.CheckStatus(ctx, sid, "user-1")
				assert.NoError(t, err)
				return
			}
			_, err := h.svc.HandleWebhook(ctx, payload, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), h.ledger.grants.Load())
	assert.Equal(t, billing.StatusCompleted, h.txn(t, sid).Status)
	assert.True(t, h.user(t, "user-1").IsPremium)
}

func TestHistoryIsOwnerScoped(t *testing.T) {
	h := newHarness(t)
	startCheckout(t, h, "user-1", "starter")
	startCheckout(t, h, "user-2", "enterprise")

	rows, err := h.svc.History(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "starter", rows[0].Plan)
}
