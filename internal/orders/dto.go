package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jtorres-dev/storefront-backend/pkg/db/models"
	"github.com/jtorres-dev/storefront-backend/pkg/enums"
)

// OrderSummary is the list-view shape; detail views load the full model.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	ItemCount     int                 `json:"item_count"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList is one page of a user's order history.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// CancelInput carries a customer cancellation request.
type CancelInput struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	Reason  string
}

// ReturnInput carries a customer return request.
type ReturnInput struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	Reason  string
}

// AdminStatusInput carries a back-office status change.
type AdminStatusInput struct {
	OrderID     uuid.UUID
	NextStatus  enums.OrderStatus
	ActorUserID uuid.UUID
}

// OrderCanceledEvent is emitted when a customer cancels a pending order.
type OrderCanceledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	Reason      string    `json:"reason"`
}

// OrderReturnRequestedEvent is emitted when a delivered order enters returning.
type OrderReturnRequestedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	Reason      string    `json:"reason"`
}

// OrderStatusChangedEvent is emitted for admin-driven transitions.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
}

// OrderItemView is the JSON shape of one snapshotted line.
type OrderItemView struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// OrderDetail is the full order shape returned by detail and mutation
// endpoints.
type OrderDetail struct {
	ID                uuid.UUID           `json:"id"`
	OrderNumber       string              `json:"order_number"`
	Status            enums.OrderStatus   `json:"status"`
	PaymentStatus     enums.PaymentStatus `json:"payment_status"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	ShippingFee       decimal.Decimal     `json:"shipping_fee"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	ShippingName      string              `json:"shipping_name"`
	ShippingPhone     string              `json:"shipping_phone"`
	ShippingLine1     string              `json:"shipping_line1"`
	ShippingLine2     *string             `json:"shipping_line2,omitempty"`
	ShippingCity      string              `json:"shipping_city"`
	ShippingState     string              `json:"shipping_state"`
	ShippingPostcode  string              `json:"shipping_postcode"`
	ShippingCountry   string              `json:"shipping_country"`
	CheckoutSessionID *string             `json:"checkout_session_id,omitempty"`
	CancelReason      *string             `json:"cancel_reason,omitempty"`
	ReturnReason      *string             `json:"return_reason,omitempty"`
	PaidAt            *time.Time          `json:"paid_at,omitempty"`
	CanceledAt        *time.Time          `json:"canceled_at,omitempty"`
	ReturnRequestedAt *time.Time          `json:"return_requested_at,omitempty"`
	RefundedAt        *time.Time          `json:"refunded_at,omitempty"`
	Items             []OrderItemView     `json:"items"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// NewOrderDetail maps the persistence model to its response shape.
func NewOrderDetail(order *models.Order) *OrderDetail {
	if order == nil {
		return nil
	}
	items := make([]OrderItemView, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemView{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Name:            item.Name,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			LineTotal:       item.LineTotal,
		}
	}
	return &OrderDetail{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		Status:            order.Status,
		PaymentStatus:     order.PaymentStatus,
		PaymentMethod:     order.PaymentMethod,
		Subtotal:          order.Subtotal,
		ShippingFee:       order.ShippingFee,
		TotalAmount:       order.TotalAmount,
		ShippingName:      order.ShippingName,
		ShippingPhone:     order.ShippingPhone,
		ShippingLine1:     order.ShippingLine1,
		ShippingLine2:     order.ShippingLine2,
		ShippingCity:      order.ShippingCity,
		ShippingState:     order.ShippingState,
		ShippingPostcode:  order.ShippingPostcode,
		ShippingCountry:   order.ShippingCountry,
		CheckoutSessionID: order.CheckoutSessionID,
		CancelReason:      order.CancelReason,
		ReturnReason:      order.ReturnReason,
		PaidAt:            order.PaidAt,
		CanceledAt:        order.CanceledAt,
		ReturnRequestedAt: order.ReturnRequestedAt,
		RefundedAt:        order.RefundedAt,
		Items:             items,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func summarize(order models.Order) OrderSummary {
	return OrderSummary{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		PaymentMethod: order.PaymentMethod,
		TotalAmount:   order.TotalAmount,
		ItemCount:     len(order.Items),
		CreatedAt:     order.CreatedAt,
	}
}
