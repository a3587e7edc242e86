package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemInput is one requested line, quantity only; the price is resolved
// server-side from the live product row.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// Input carries a checkout request. When Items is empty the shopper's saved
// cart is used instead.
type Input struct {
	AddressID uuid.UUID
	Items     []ItemInput
}

// SessionResult is the hosted-checkout redirect target returned to the client.
type SessionResult struct {
	SessionID string    `json:"session_id"`
	URL       string    `json:"url"`
	OrderID   uuid.UUID `json:"order_id"`
}

// OrderCreatedEvent is emitted when checkout opens a new order, COD or pending.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        uuid.UUID       `json:"user_id"`
	PaymentMethod string          `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}
