package payments

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPlan      = errors.New("payments: invalid plan")
	ErrInvalidOrigin    = errors.New("payments: invalid origin url")
	ErrNotFound         = errors.New("payments: transaction not found")
	ErrInvalidSignature = errors.New("payments: invalid webhook signature")
	ErrInvalidPayload   = errors.New("payments: malformed webhook payload")
	// ErrLedgerWrite means the provider accepted the checkout but the local
	// row could not be stored. The next webhook for the session repairs it.
	ErrLedgerWrite = errors.New("payments: ledger write failed")
)

// ProviderError carries an upstream failure, including timeouts. It is not
// retried here; callers may retry.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err came from the payment provider.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
