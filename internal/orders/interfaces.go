package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jtorres-dev/storefront-backend/pkg/db/models"
	"github.com/jtorres-dev/storefront-backend/pkg/enums"
	"github.com/jtorres-dev/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items. It is
// the sole writer of order state; payment fields change only through
// UpdatePaymentStatus.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByCheckoutSession(ctx context.Context, sessionID string) (*models.Order, error)
	FindLatestPendingStripeOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus, reason *string) error
	RequestReturn(ctx context.Context, orderID uuid.UUID, reason string) error
	MarkRefunded(ctx context.Context, orderID uuid.UUID) error
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus, sessionID, intentID *string) error
}
