package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"taskboard/internal/domain/billing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// sessionPlaceholder is substituted by the provider with the real id.
const sessionPlaceholder = "{CHECKOUT_SESSION_ID}"

type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// InitiateCheckout opens a hosted checkout for planID and records a pending
// ledger row. The provider call always precedes the insert, so a rejected
// request never leaves a local row behind.
func (s *Service) InitiateCheckout(ctx context.Context, userID, planID, origin string) (*CheckoutResult, error) {
	plan, ok := s.catalog.Lookup(planID)
	if !ok {
		s.metrics.CheckoutSessions.WithLabelValues("invalid_plan").Inc()
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlan, planID)
	}
	base, err := normalizeOrigin(origin)
	if err != nil {
		s.metrics.CheckoutSessions.WithLabelValues("invalid_origin").Inc()
		return nil, err
	}

	metadata := map[string]string{
		"user_id": userID,
		"plan_id": plan.ID,
		"source":  checkoutSource,
	}

	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.provider.CreateCheckoutSession(pctx, CheckoutRequest{
		ProductName: plan.Name,
		AmountMinor: plan.MinorUnits(),
		Currency:    plan.Currency,
		Mode:        "payment",
		SuccessURL:  base + "/payment-success?session_id=" + sessionPlaceholder,
		CancelURL:   base + "/pricing",
		Metadata:    metadata,
	})
	if err != nil {
		s.metrics.CheckoutSessions.WithLabelValues("provider_error").Inc()
		s.logger.Warn("create checkout session failed", "user_id", userID, "plan", plan.ID, "error", err)
		return nil, &ProviderError{Op: "create checkout session", Err: err}
	}

	txn := &billing.Transaction{
		ID:            uuid.NewString(),
		SessionID:     session.ID,
		UserID:        userID,
		Plan:          plan.ID,
		Amount:        plan.Price,
		Currency:      plan.Currency,
		Status:        billing.StatusPending,
		PaymentStatus: billing.PaymentUnpaid,
		Metadata:      toJSONMap(metadata),
	}
	if err := s.ledger.Create(ctx, txn); err != nil {
		s.metrics.CheckoutSessions.WithLabelValues("ledger_error").Inc()
		s.logger.Error("store pending transaction failed",
			"session_id", session.ID, "user_id", userID, "plan", plan.ID, "error", err)
		return nil, fmt.Errorf("%w: session %s: %v", ErrLedgerWrite, session.ID, err)
	}

	s.metrics.CheckoutSessions.WithLabelValues("created").Inc()
	s.logger.Info("checkout session created",
		"session_id", session.ID, "user_id", userID, "plan", plan.ID, "amount", plan.Price.String())

	return &CheckoutResult{URL: session.URL, SessionID: session.ID}, nil
}

func normalizeOrigin(origin string) (string, error) {
	origin = strings.TrimSpace(origin)
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrigin, origin)
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/"), nil
}

func toJSONMap(m map[string]string) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IsClientError is true for failures caused by the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPlan) || errors.Is(err, ErrInvalidOrigin)
}
