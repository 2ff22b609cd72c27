package stripe

import (
	"strings"

	"taskboard/internal/domain/billing"
)

// NormalizeSessionStatus maps a Checkout Session status onto the ledger
// vocabulary. Unknown values stay pending so they never move a row forward.
func NormalizeSessionStatus(s string) billing.Status {
	switch strings.TrimSpace(s) {
	case "complete":
		return billing.StatusComplete
	case "expired":
		return billing.StatusExpired
	default:
		return billing.StatusPending
	}
}

// NormalizePaymentStatus maps a Checkout Session payment status.
func NormalizePaymentStatus(s string) billing.PaymentStatus {
	switch strings.TrimSpace(s) {
	case "paid", "no_payment_required":
		return billing.PaymentPaid
	case "unpaid", "":
		return billing.PaymentUnpaid
	default:
		return billing.PaymentFailed
	}
}
