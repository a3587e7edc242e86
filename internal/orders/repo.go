package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jtorres-dev/storefront-backend/pkg/db/models"
	"github.com/jtorres-dev/storefront-backend/pkg/enums"
	"github.com/jtorres-dev/storefront-backend/pkg/pagination"
)

// ErrNotReturnable signals that the guarded return update matched no row,
// meaning the order left the delivered state between check and write.
var ErrNotReturnable = errors.New("order is not in a returnable state")

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder persists the order and its item snapshots atomically. Order
// number collisions surface as constraint violations; given the
// timestamp-derived format they are treated as fatal, not retried.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.OrderNumber == "" {
		order.OrderNumber = generateOrderNumber(time.Now())
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == uuid.Nil {
				items[i].ID = uuid.New()
			}
			items[i].OrderID = order.ID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByCheckoutSession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("checkout_session_id = ?", sessionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindLatestPendingStripeOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND payment_method = ? AND payment_status = ? AND status = ?",
			userID, enums.PaymentMethodStripe, enums.PaymentStatusPending, enums.OrderStatusPending).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &OrderList{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Orders = append(list.Orders, summarize(row))
	}
	if hasMore {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus, reason *string) error {
	updates := map[string]any{
		"status":     next,
		"updated_at": time.Now(),
	}
	if reason != nil && next == enums.OrderStatusCancelled {
		updates["cancel_reason"] = *reason
		updates["canceled_at"] = time.Now()
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) RequestReturn(ctx context.Context, orderID uuid.UUID, reason string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusDelivered).
		Updates(map[string]any{
			"status":              enums.OrderStatusReturning,
			"return_reason":       reason,
			"return_requested_at": now,
			"updated_at":          now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotReturnable
	}
	return nil
}

// MarkRefunded records that money moved back to the shopper. Order status
// reaches refunded through the normal transition separately.
func (r *repository) MarkRefunded(ctx context.Context, orderID uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusRefunded,
			"refunded_at":    now,
			"updated_at":     now,
		}).Error
}

// UpdatePaymentStatus is the only mutator of payment fields. When payment
// becomes paid it also advances a pending order to processing; this is the one
// place status and payment status are coupled automatically.
func (r *repository) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus, sessionID, intentID *string) error {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return err
	}

	now := time.Now()
	updates := map[string]any{
		"payment_status": status,
		"updated_at":     now,
	}
	if sessionID != nil {
		updates["checkout_session_id"] = *sessionID
	}
	if intentID != nil {
		updates["payment_intent_id"] = *intentID
	}
	if status == enums.PaymentStatusPaid {
		updates["paid_at"] = now
		if order.Status == enums.OrderStatusPending {
			updates["status"] = enums.OrderStatusProcessing
		}
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", now.UTC().Format("20060102150405"), rand.IntN(10000))
}
