package payments

import (
	"context"

	"taskboard/internal/domain/billing"
)

// EventCheckoutCompleted is the only webhook event that is acted upon.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutRequest describes a hosted checkout for a single line item.
type CheckoutRequest struct {
	ProductName string
	AmountMinor int64
	Currency    string
	Mode        string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// SessionState is the provider's view of a session, already normalised
// onto ledger statuses.
type SessionState struct {
	Status        billing.Status
	PaymentStatus billing.PaymentStatus
}

type WebhookEvent struct {
	ID          string
	Type        string
	SessionID   string
	Metadata    map[string]string
	AmountTotal int64
	Currency    string
}

// Provider is the hosted-checkout capability. ParseWebhook must return
// ErrInvalidSignature or ErrInvalidPayload for rejected input.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionState, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
