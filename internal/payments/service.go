package payments

import (
	"context"
	"log/slog"
	"time"

	"taskboard/internal/domain/billing"
	"taskboard/internal/domain/plans"
	"taskboard/internal/observability"
	"taskboard/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultGrantPeriod     = 30 * 24 * time.Hour
	DefaultProviderTimeout = 15 * time.Second

	checkoutSource = "web"
)

type Options struct {
	Catalog         *plans.Catalog
	Ledger          repository.TransactionRepository
	Users           repository.UserRepository
	Provider        Provider
	Logger          *slog.Logger
	Metrics         *observability.Metrics
	GrantPeriod     time.Duration
	ProviderTimeout time.Duration
	Now             func() time.Time
}

// Service owns the checkout initiator and the reconciliation engine.
// It keeps no in-process locks: every guard is a conditional update in the
// ledger.
type Service struct {
	catalog     *plans.Catalog
	ledger      repository.TransactionRepository
	users       repository.UserRepository
	provider    Provider
	logger      *slog.Logger
	metrics     *observability.Metrics
	grantPeriod time.Duration
	timeout     time.Duration
	now         func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		catalog:     opts.Catalog,
		ledger:      opts.Ledger,
		users:       opts.Users,
		provider:    opts.Provider,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		grantPeriod: opts.GrantPeriod,
		timeout:     opts.ProviderTimeout,
		now:         opts.Now,
	}
	if s.logger == nil {
		s.logger = observability.DiscardLogger()
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	if s.grantPeriod <= 0 {
		s.grantPeriod = DefaultGrantPeriod
	}
	if s.timeout <= 0 {
		s.timeout = DefaultProviderTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Plans exposes the catalog for the public listing.
func (s *Service) Plans() []plans.Plan {
	return s.catalog.All()
}

// History returns the caller's ledger rows, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]billing.Transaction, error) {
	return s.ledger.ListByUser(ctx, userID)
}

// complete applies the paid transition. Only the caller whose
// compare-and-set wins grants the entitlement.
func (s *Service) complete(ctx context.Context, txn *billing.Transaction, path string) (bool, error) {
	ent := billing.Entitlement{
		UserID:    txn.UserID,
		Plan:      txn.Plan,
		ExpiresAt: s.now().Add(s.grantPeriod),
	}

	applied, err := s.ledger.Complete(ctx, txn.SessionID, ent)
	if err != nil {
		s.logger.Error("complete transaction failed",
			"session_id", txn.SessionID, "user_id", txn.UserID, "path", path, "error", err)
		return false, err
	}
	if !applied {
		s.logger.Debug("transaction already completed",
			"session_id", txn.SessionID, "user_id", txn.UserID, "path", path)
		return false, nil
	}

	s.metrics.EntitlementGrants.WithLabelValues(path).Inc()
	s.logger.Info("entitlement granted",
		"session_id", txn.SessionID,
		"user_id", txn.UserID,
		"plan", txn.Plan,
		"from", txn.Status,
		"to", billing.StatusCompleted,
		"expires_at", ent.ExpiresAt,
		"path", path)
	return true, nil
}
