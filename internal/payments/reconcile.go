package payments

import (
	"context"
	"errors"
	"fmt"

	"taskboard/internal/domain/billing"
	"taskboard/internal/domain/plans"
	"taskboard/internal/repository"

	"github.com/google/uuid"
)

type StatusResult struct {
	Status        billing.Status        `json:"status"`
	PaymentStatus billing.PaymentStatus `json:"payment_status"`
}

// WebhookResult tells the caller what happened; every nil-error result is
// acknowledged to the provider.
type WebhookResult struct {
	EventType string
	SessionID string
	Outcome   string // granted, duplicate, ignored, unknown_session, orphaned
}

// CheckStatus is the pull path. A session owned by someone else is reported
// as not found.
func (s *Service) CheckStatus(ctx context.Context, sessionID, requester string) (*StatusResult, error) {
	txn, err := s.ledger.GetBySessionID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && txn.UserID != requester) {
		s.metrics.Reconciliations.WithLabelValues("pull", "not_found").Inc()
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load transaction %s: %w", sessionID, err)
	}

	if txn.Status == billing.StatusCompleted {
		s.metrics.Reconciliations.WithLabelValues("pull", "cached").Inc()
		return &StatusResult{Status: billing.StatusComplete, PaymentStatus: billing.PaymentPaid}, nil
	}

	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	state, err := s.provider.RetrieveSession(pctx, sessionID)
	if err == nil && state == nil {
		err = errors.New("empty session state")
	}
	if err != nil {
		s.metrics.Reconciliations.WithLabelValues("pull", "provider_error").Inc()
		s.logger.Warn("retrieve checkout session failed", "session_id", sessionID, "error", err)
		return nil, &ProviderError{Op: "retrieve session", Err: err}
	}

	moved, err := s.ledger.UpdateProviderStatus(ctx, sessionID, state.Status, state.PaymentStatus)
	if err != nil {
		return nil, fmt.Errorf("record provider status for %s: %w", sessionID, err)
	}
	if moved && state.Status != txn.Status {
		s.logger.Info("transaction status updated",
			"session_id", sessionID, "user_id", txn.UserID, "from", txn.Status, "to", state.Status,
			"payment_status", state.PaymentStatus)
	}

	// guard on the snapshot taken before the provider call
	result := "synced"
	if state.PaymentStatus == billing.PaymentPaid && txn.Status != billing.StatusCompleted {
		applied, err := s.complete(ctx, txn, "pull")
		if err != nil {
			return nil, err
		}
		if applied {
			result = "granted"
		}
	}
	s.metrics.Reconciliations.WithLabelValues("pull", result).Inc()

	return &StatusResult{Status: state.Status, PaymentStatus: state.PaymentStatus}, nil
}

// HandleWebhook is the push path. Signature and parse failures are returned
// so the provider retries; everything else is acknowledged.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		reason := "invalid_payload"
		if errors.Is(err, ErrInvalidSignature) {
			reason = "invalid_signature"
		}
		s.metrics.WebhookEvents.WithLabelValues("unknown", reason).Inc()
		s.logger.Warn("webhook rejected", "reason", reason, "error", err)
		return nil, err
	}

	res := &WebhookResult{EventType: event.Type, SessionID: event.SessionID}
	if event.Type != EventCheckoutCompleted {
		res.Outcome = "ignored"
		s.metrics.WebhookEvents.WithLabelValues(event.Type, res.Outcome).Inc()
		return res, nil
	}
	if event.SessionID == "" {
		s.metrics.WebhookEvents.WithLabelValues(event.Type, "invalid_payload").Inc()
		return nil, fmt.Errorf("%w: event %s has no session id", ErrInvalidPayload, event.ID)
	}

	txn, err := s.ledger.GetBySessionID(ctx, event.SessionID)
	if errors.Is(err, repository.ErrNotFound) {
		txn, err = s.repair(ctx, event)
		if txn == nil && err == nil {
			res.Outcome = "unknown_session"
			s.metrics.WebhookEvents.WithLabelValues(event.Type, res.Outcome).Inc()
			s.logger.Info("webhook for unknown session acknowledged", "session_id", event.SessionID)
			return res, nil
		}
	}
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues(event.Type, "store_error").Inc()
		return nil, fmt.Errorf("load transaction %s: %w", event.SessionID, err)
	}

	res.Outcome = "duplicate"
	if txn.Status != billing.StatusCompleted {
		applied, err := s.complete(ctx, txn, "webhook")
		if errors.Is(err, repository.ErrNotFound) {
			// the owner is gone; redelivery cannot fix that
			res.Outcome = "orphaned"
			s.metrics.WebhookEvents.WithLabelValues(event.Type, res.Outcome).Inc()
			s.logger.Warn("webhook for transaction without owner acknowledged",
				"session_id", event.SessionID, "user_id", txn.UserID)
			return res, nil
		}
		if err != nil {
			s.metrics.WebhookEvents.WithLabelValues(event.Type, "store_error").Inc()
			return nil, err
		}
		if applied {
			res.Outcome = "granted"
		}
	}
	s.metrics.WebhookEvents.WithLabelValues(event.Type, res.Outcome).Inc()
	s.metrics.Reconciliations.WithLabelValues("webhook", res.Outcome).Inc()
	return res, nil
}

// repair recreates the ledger row for a session whose insert was lost after
// the provider accepted it. It returns (nil, nil) when the event does not
// carry enough to rebuild the row or names a user that does not exist.
func (s *Service) repair(ctx context.Context, event *WebhookEvent) (*billing.Transaction, error) {
	userID := event.Metadata["user_id"]
	plan, ok := s.catalog.Lookup(event.Metadata["plan_id"])
	if !ok || userID == "" {
		return nil, nil
	}
	if s.users != nil {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("webhook names unknown user, not repairing",
					"session_id", event.SessionID, "user_id", userID)
				return nil, nil
			}
			return nil, err
		}
	}

	amount := plan.Price
	if event.AmountTotal > 0 {
		amount = plans.FromMinorUnits(event.AmountTotal)
	}
	currency := plan.Currency
	if event.Currency != "" {
		currency = event.Currency
	}

	meta := make(map[string]string, len(event.Metadata)+1)
	for k, v := range event.Metadata {
		meta[k] = v
	}
	meta["repaired"] = "true"

	txn := &billing.Transaction{
		ID:            uuid.NewString(),
		SessionID:     event.SessionID,
		UserID:        userID,
		Plan:          plan.ID,
		Amount:        amount,
		Currency:      currency,
		Status:        billing.StatusPending,
		PaymentStatus: billing.PaymentUnpaid,
		Metadata:      toJSONMap(meta),
	}
	created, err := s.ledger.Upsert(ctx, txn)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Warn("ledger row repaired from webhook",
			"session_id", txn.SessionID, "user_id", userID, "plan", plan.ID)
	}
	return txn, nil
}
