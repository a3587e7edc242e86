package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jtorres-dev/storefront-backend/pkg/enums"
)

func TestCanTransitionFullTable(t *testing.T) {
	all := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
		enums.OrderStatusReturning,
		enums.OrderStatusReturned,
		enums.OrderStatusRefunded,
	}

	legal := map[enums.OrderStatus][]enums.OrderStatus{
		enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
		enums.OrderStatusProcessing: {enums.OrderStatusShipped},
		enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
		enums.OrderStatusDelivered:  {enums.OrderStatusReturning},
		enums.OrderStatusReturning:  {enums.OrderStatusReturned},
		enums.OrderStatusReturned:   {enums.OrderStatusRefunded},
	}

	isLegal := func(from, to enums.OrderStatus) bool {
		for _, allowed := range legal[from] {
			if allowed == to {
				return true
			}
		}
		return false
	}

	for _, from := range all {
		for _, to := range all {
			got := CanTransition(from, to)
			want := isLegal(from, to)
			assert.Equalf(t, want, got, "transition %s -> %s", from, to)
		}
	}
}

func TestCanTransitionRejectsSameStatus(t *testing.T) {
	for status := range allowedTransitions {
		assert.Falsef(t, CanTransition(status, status), "same-status transition %s must be rejected", status)
	}
}

func TestCanTransitionTerminalStates(t *testing.T) {
	targets := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusReturning,
		enums.OrderStatusReturned,
	}
	for _, to := range targets {
		assert.False(t, CanTransition(enums.OrderStatusCancelled, to))
		assert.False(t, CanTransition(enums.OrderStatusRefunded, to))
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	assert.False(t, CanTransition(enums.OrderStatus("limbo"), enums.OrderStatusPending))
	assert.False(t, CanTransition(enums.OrderStatusPending, enums.OrderStatus("limbo")))
}
