package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jtorres-dev/storefront-backend/pkg/enums"
)

// Order is the storefront order aggregate. Status follows the fulfillment
// lifecycle while PaymentStatus tracks money movement independently; the two
// are only coupled at the pending->processing flip when payment lands.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber       string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status            enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingFee       decimal.Decimal     `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	TotalAmount       decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ShippingName      string              `gorm:"column:shipping_name;not null"`
	ShippingPhone     string              `gorm:"column:shipping_phone;not null"`
	ShippingLine1     string              `gorm:"column:shipping_line1;not null"`
	ShippingLine2     *string             `gorm:"column:shipping_line2"`
	ShippingCity      string              `gorm:"column:shipping_city;not null"`
	ShippingState     string              `gorm:"column:shipping_state;not null"`
	ShippingPostcode  string              `gorm:"column:shipping_postcode;not null"`
	ShippingCountry   string              `gorm:"column:shipping_country;not null"`
	CheckoutSessionID *string             `gorm:"column:checkout_session_id;uniqueIndex"`
	PaymentIntentID   *string             `gorm:"column:payment_intent_id"`
	PaidAt            *time.Time          `gorm:"column:paid_at"`
	CancelReason      *string             `gorm:"column:cancel_reason"`
	CanceledAt        *time.Time          `gorm:"column:canceled_at"`
	ReturnReason      *string             `gorm:"column:return_reason"`
	ReturnRequestedAt *time.Time          `gorm:"column:return_requested_at"`
	RefundedAt        *time.Time          `gorm:"column:refunded_at"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
