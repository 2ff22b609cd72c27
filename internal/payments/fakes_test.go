package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taskboard/internal/domain/billing"
	"taskboard/internal/domain/plans"
	"taskboard/internal/domain/users"
	"taskboard/internal/observability"
	"taskboard/internal/repository"
	"taskboard/internal/repository/memory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu        sync.Mutex
	created   []CheckoutRequest
	retrieves int
	nextID    int

	createErr error
	state     SessionState
	retrieve  func(ctx context.Context, sessionID string) (*SessionState, error)
	secret    string
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.created = append(p.created, req)
	p.nextID++
	id := fmt.Sprintf("cs_test_%d", p.nextID)
	return &CheckoutSession{ID: id, URL: "https://checkout.example/pay/" + id}, nil
}

func (p *fakeProvider) RetrieveSession(ctx context.Context, sessionID string) (*SessionState, error) {
	p.mu.Lock()
	p.retrieves++
	fn, state := p.retrieve, p.state
	p.mu.Unlock()
	if fn != nil {
		return fn(ctx, sessionID)
	}
	return &state, nil
}

func (p *fakeProvider) setState(status billing.Status, payment billing.PaymentStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = SessionState{Status: status, PaymentStatus: payment}
}

func (p *fakeProvider) retrieveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retrieves
}

// webhookBody is the fake wire format: the signature must equal the secret.
type webhookBody struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Session  string            `json:"session"`
	Metadata map[string]string `json:"metadata"`
	Amount   int64             `json:"amount"`
}

func (p *fakeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if p.secret != "" && signature != p.secret {
		return nil, ErrInvalidSignature
	}
	var b webhookBody
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &WebhookEvent{ID: b.ID, Type: b.Type, SessionID: b.Session, Metadata: b.Metadata, AmountTotal: b.Amount}, nil
}

func completedEvent(t *testing.T, sessionID string, metadata map[string]string) []byte {
	t.Helper()
	raw, err := json.Marshal(webhookBody{ID: "evt_1", Type: EventCheckoutCompleted, Session: sessionID, Metadata: metadata})
	require.NoError(t, err)
	return raw
}

// countingLedger counts successful completions.
type countingLedger struct {
	repository.TransactionRepository
	grants atomic.Int32
}

func (l *countingLedger) Complete(ctx context.Context, sessionID string, ent billing.Entitlement) (bool, error) {
	applied, err := l.TransactionRepository.Complete(ctx, sessionID, ent)
	if applied {
		l.grants.Add(1)
	}
	return applied, err
}

type failingCreateLedger struct {
	repository.TransactionRepository
}

func (failingCreateLedger) Create(context.Context, *billing.Transaction) error {
	return fmt.Errorf("connection reset")
}

type harness struct {
	store    *memory.Store
	repos    *repository.Repositories
	ledger   *countingLedger
	provider *fakeProvider
	svc      *Service
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	catalog, err := plans.NewCatalog(plans.DefaultTiers())
	require.NoError(t, err)

	store := memory.New()
	repos := store.Repositories()
	h := &harness{
		store:    store,
		repos:    repos,
		ledger:   &countingLedger{TransactionRepository: repos.Transactions},
		provider: &fakeProvider{},
		now:      time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	h.svc = h.service(catalog, h.ledger)

	store.PutUser(users.User{ID: "user-1", Email: "ada@example.com", Username: "ada", Role: users.RoleUser})
	store.PutUser(users.User{ID: "user-2", Email: "bob@example.com", Username: "bob", Role: users.RoleUser})
	return h
}

func (h *harness) service(catalog *plans.Catalog, ledger repository.TransactionRepository) *Service {
	return NewService(Options{
		Catalog:         catalog,
		Ledger:          ledger,
		Users:           h.repos.Users,
		Provider:        h.provider,
		Logger:          observability.DiscardLogger(),
		Metrics:         observability.NewMetrics(prometheus.NewRegistry()),
		ProviderTimeout: time.Second,
		Now:             func() time.Time { return h.now },
	})
}

func (h *harness) user(t *testing.T, id string) *users.User {
	t.Helper()
	u, err := h.repos.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (h *harness) txn(t *testing.T, sessionID string) *billing.Transaction {
	t.Helper()
	txn, err := h.repos.Transactions.GetBySessionID(context.Background(), sessionID)
	require.NoError(t, err)
	return txn
}
