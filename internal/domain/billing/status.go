package billing

// Statuses only move forward:
//
//	pending -> complete | expired | failed -> completed
//	pending -> completed (webhook confirms before any poll)
//
// Writing the current value again is allowed everywhere except on completed,
// which only the completion compare-and-set may produce.
var predecessors = map[Status][]Status{
	StatusPending:   {StatusPending},
	StatusComplete:  {StatusPending, StatusComplete},
	StatusExpired:   {StatusPending, StatusExpired},
	StatusFailed:    {StatusPending, StatusFailed},
	StatusCompleted: {StatusPending, StatusComplete, StatusExpired, StatusFailed},
}

// Predecessors lists the statuses a row may be in for a move to `to`.
func Predecessors(to Status) []Status {
	return append([]Status(nil), predecessors[to]...)
}

// CanTransition reports whether from -> to respects the forward-only order.
func CanTransition(from, to Status) bool {
	for _, s := range predecessors[to] {
		if s == from {
			return true
		}
	}
	return false
}

// IsTerminal is true once the entitlement has been applied.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// CanPaymentTransition keeps payment status monotonic: unpaid may become
// paid or failed, and settled values never go back.
func CanPaymentTransition(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	return from == PaymentUnpaid
}
