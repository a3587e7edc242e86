package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/jtorres-dev/storefront-backend/internal/checkout"
	"github.com/jtorres-dev/storefront-backend/internal/orders"
	"github.com/jtorres-dev/storefront-backend/pkg/db/models"
	"github.com/jtorres-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/jtorres-dev/storefront-backend/pkg/errors"
	"github.com/jtorres-dev/storefront-backend/pkg/logger"
	"github.com/jtorres-dev/storefront-backend/pkg/outbox"
)

// amountToleranceCents absorbs rounding drift between the order total and the
// provider's charged amount. Anything larger is treated as tampering.
const amountToleranceCents = 1

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productStore interface {
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OrderPaidEvent is emitted exactly once per order when payment is confirmed.
type OrderPaidEvent struct {
	OrderID           uuid.UUID       `json:"order_id"`
	OrderNumber       string          `json:"order_number"`
	UserID            uuid.UUID       `json:"user_id"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	CheckoutSessionID string          `json:"checkout_session_id"`
}

type ServiceParams struct {
	OrdersRepo        orders.Repository
	Products          productStore
	TransactionRunner txRunner
	Outbox            outboxPublisher
	Logger            *logger.Logger
}

// Service reconciles verified Stripe events against internal order state. It
// trusts nothing from the payload beyond the already-verified signature: the
// order id comes only from session metadata and the charged amount is
// cross-checked against the stored total before anything mutates.
type Service struct {
	ordersRepo orders.Repository
	products   productStore
	tx         txRunner
	outbox     outboxPublisher
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product store required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox publisher required")
	}
	return &Service{
		ordersRepo: params.OrdersRepo,
		products:   params.Products,
		tx:         params.TransactionRunner,
		outbox:     params.Outbox,
		logg:       params.Logger,
	}, nil
}

// HandleEvent routes a verified event. Business declines (unknown order,
// already paid, amount mismatch) return nil so the HTTP layer acknowledges the
// delivery and the provider stops retrying; they are logged, not errored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
		}
		return s.reconcileSessionCompleted(ctx, &session)
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
		s.info(ctx, fmt.Sprintf("stripe event %s observed", event.Type))
		return nil
	default:
		return nil
	}
}

func (s *Service) reconcileSessionCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	orderID, err := checkout.OrderIDFromMetadata(session.Metadata)
	if err != nil {
		s.warn(ctx, fmt.Sprintf("session %s carries no usable order id, dropping", session.ID))
		return nil
	}

	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.warn(ctx, fmt.Sprintf("order %s for session %s not found, dropping", orderID, session.ID))
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.PaymentStatus == enums.PaymentStatusPaid {
		s.info(ctx, fmt.Sprintf("order %s already paid, ignoring redelivery", order.ID))
		return nil
	}

	expected := amountInCents(order.TotalAmount)
	if diff := session.AmountTotal - expected; diff > amountToleranceCents || diff < -amountToleranceCents {
		s.warn(ctx, fmt.Sprintf(
			"amount mismatch for order %s: session paid %d, order total %d, refusing to mark paid",
			order.ID, session.AmountTotal, expected))
		return nil
	}

	sessionID := session.ID
	var intentID *string
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		intentID = &session.PaymentIntent.ID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)
		if err := repo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusPaid, &sessionID, intentID); err != nil {
			return err
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: OrderPaidEvent{
				OrderID:           order.ID,
				OrderNumber:       order.OrderNumber,
				UserID:            order.UserID,
				TotalAmount:       order.TotalAmount,
				CheckoutSessionID: sessionID,
			},
			Version: 1,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}

	s.decrementStock(ctx, order)
	s.info(ctx, fmt.Sprintf("order %s marked paid via session %s", order.ID, sessionID))
	return nil
}

// decrementStock runs after the paid commit. The order's paid check keeps this
// from running twice across redeliveries; a crash between commit and decrement
// is an accepted gap, matching the COD path.
func (s *Service) decrementStock(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.warn(ctx, fmt.Sprintf("stock decrement failed for product %s on order %s: %v", item.ProductID, order.ID, err))
		}
	}
}

func amountInCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (s *Service) info(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Info(ctx, msg)
	}
}

func (s *Service) warn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}
