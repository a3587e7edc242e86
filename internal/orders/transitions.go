package orders

import "github.com/jtorres-dev/storefront-backend/pkg/enums"

// allowedTransitions is the single authority for order status changes. Every
// status-changing entry point (admin update, cancel, return request) consults
// it; the terminal states cancelled and refunded have no outgoing edges.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered:  {enums.OrderStatusReturning},
	enums.OrderStatusReturning:  {enums.OrderStatusReturned},
	enums.OrderStatusReturned:   {enums.OrderStatusRefunded},
	enums.OrderStatusCancelled:  {},
	enums.OrderStatusRefunded:   {},
}

// CanTransition reports whether moving from the current status to the next is
// legal. Same-status transitions are always rejected so callers surface the
// no-op as an error instead of silently succeeding.
func CanTransition(current, next enums.OrderStatus) bool {
	if current == next {
		return false
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
