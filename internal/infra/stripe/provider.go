// Package stripe adapts the Stripe API to the payments.Provider contract.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taskboard/internal/payments"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
	"github.com/stripe/stripe-go/v75/webhook"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	// Timeout bounds every HTTP round trip to Stripe.
	Timeout time.Duration
	// HTTPClient overrides the default client; tests point it at httptest.
	HTTPClient *http.Client
	// URL overrides the API base URL.
	URL string
}

type Provider struct {
	api           *client.API
	webhookSecret string
}

var _ payments.Provider = (*Provider)(nil)

func NewProvider(cfg Config) *Provider {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	backends := stripe.NewBackends(hc)
	backends.API = stripe.GetBackendWithConfig(stripe.APIBackend, apiBackendConfig(cfg, hc))
	return &Provider{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
	}
}

// apiBackendConfig disables the client's own retries: a failed call is
// reported to the caller, who decides whether to try again.
func apiBackendConfig(cfg Config, hc *http.Client) *stripe.BackendConfig {
	bc := &stripe.BackendConfig{
		HTTPClient:        hc,
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.URL != "" {
		bc.URL = stripe.String(cfg.URL)
	}
	return bc
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(req.Mode),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if uid := req.Metadata["user_id"]; uid != "" {
		params.ClientReferenceID = stripe.String(uid)
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return &payments.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *Provider) RetrieveSession(ctx context.Context, sessionID string) (*payments.SessionState, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, err
	}
	return &payments.SessionState{
		Status:        NormalizeSessionStatus(string(s.Status)),
		PaymentStatus: NormalizePaymentStatus(string(s.PaymentStatus)),
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header when a webhook secret is
// configured. Without one, events are accepted unsigned (local development).
func (p *Provider) ParseWebhook(payload []byte, signature string) (*payments.WebhookEvent, error) {
	var event stripe.Event
	if p.webhookSecret != "" {
		ev, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", payments.ErrInvalidSignature, err)
		}
		event = ev
	} else if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrInvalidPayload, err)
	}

	out := &payments.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != payments.EventCheckoutCompleted {
		return out, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", payments.ErrInvalidPayload, event.ID)
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: checkout session: %v", payments.ErrInvalidPayload, err)
	}
	out.SessionID = session.ID
	out.Metadata = session.Metadata
	out.AmountTotal = session.AmountTotal
	out.Currency = string(session.Currency)
	return out, nil
}
