package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jtorres-dev/storefront-backend/pkg/db/models"
	"github.com/jtorres-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/jtorres-dev/storefront-backend/pkg/errors"
	"github.com/jtorres-dev/storefront-backend/pkg/outbox"
	"github.com/jtorres-dev/storefront-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	order          *models.Order
	updatedStatus  enums.OrderStatus
	updatedReason  *string
	returnReason   string
	markedRefunded bool
	returnErr      error
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) FindByCheckoutSession(ctx context.Context, sessionID string) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindLatestPendingStripeOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return &OrderList{}, nil
}

func (s *stubOrdersRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus, reason *string) error {
	s.updatedStatus = next
	s.updatedReason = reason
	return nil
}

func (s *stubOrdersRepo) RequestReturn(ctx context.Context, orderID uuid.UUID, reason string) error {
	if s.returnErr != nil {
		return s.returnErr
	}
	s.returnReason = reason
	return nil
}

func (s *stubOrdersRepo) MarkRefunded(ctx context.Context, orderID uuid.UUID) error {
	s.markedRefunded = true
	return nil
}

func (s *stubOrdersRepo) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus, sessionID, intentID *string) error {
	panic("not implemented")
}

type stubOutboxPublisher struct {
	event  outbox.DomainEvent
	called bool
	err    error
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.called = true
	s.event = event
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestOrder(userID uuid.UUID, status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-20250801120000-0001",
		UserID:        userID,
		Status:        status,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodCOD,
		UpdatedAt:     time.Now(),
	}
}

func newTestService(t *testing.T, repo Repository, pub outboxPublisher) *service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, pub, 7*24*time.Hour)
	require.NoError(t, err)
	return svc.(*service)
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, code, coded.Code())
}

func TestCancelPendingOrder(t *testing.T) {
	userID := uuid.New()
	repo := &stubOrdersRepo{order: newTestOrder(userID, enums.OrderStatusPending)}
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub)

	order, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: repo.order.ID,
		UserID:  userID,
		Reason:  "changed my mind",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)
	assert.Equal(t, enums.OrderStatusCancelled, repo.updatedStatus)
	require.NotNil(t, repo.updatedReason)
	assert.Equal(t, "changed my mind", *repo.updatedReason)
	require.True(t, pub.called)
	assert.Equal(t, enums.EventOrderCanceled, pub.event.EventType)
}

func TestCancelRejectsNonPendingOrder(t *testing.T) {
	userID := uuid.New()
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	} {
		repo := &stubOrdersRepo{order: newTestOrder(userID, status)}
		svc := newTestService(t, repo, &stubOutboxPublisher{})

		_, err := svc.Cancel(context.Background(), CancelInput{
			OrderID: repo.order.ID,
			UserID:  userID,
			Reason:  "too late",
		})
		assertCode(t, err, pkgerrors.CodeStateConflict)
	}
}

func TestCancelRequiresReasonAndOwnership(t *testing.T) {
	userID := uuid.New()
	repo := &stubOrdersRepo{order: newTestOrder(userID, enums.OrderStatusPending)}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	_, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: repo.order.ID,
		UserID:  userID,
		Reason:  "   ",
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Cancel(context.Background(), CancelInput{
		OrderID: repo.order.ID,
		UserID:  uuid.New(),
		Reason:  "not mine",
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestRequestReturnWithinWindow(t *testing.T) {
	userID := uuid.New()
	order := newTestOrder(userID, enums.OrderStatusDelivered)
	order.UpdatedAt = time.Now().Add(-3 * 24 * time.Hour)
	repo := &stubOrdersRepo{order: order}
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub)

	result, err := svc.RequestReturn(context.Background(), ReturnInput{
		OrderID: order.ID,
		UserID:  userID,
		Reason:  "wrong size",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReturning, result.Status)
	assert.Equal(t, "wrong size", repo.returnReason)
	require.True(t, pub.called)
	assert.Equal(t, enums.EventOrderReturnRequested, pub.event.EventType)
}

func TestRequestReturnWindowBoundary(t *testing.T) {
	userID := uuid.New()
	deliveredAt := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	order := newTestOrder(userID, enums.OrderStatusDelivered)
	order.UpdatedAt = deliveredAt
	repo := &stubOrdersRepo{order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	// exactly at day 7: allowed
	svc.now = func() time.Time { return deliveredAt.Add(7 * 24 * time.Hour) }
	_, err := svc.RequestReturn(context.Background(), ReturnInput{
		OrderID: order.ID,
		UserID:  userID,
		Reason:  "still in window",
	})
	require.NoError(t, err)

	// one second past day 7: rejected
	order.Status = enums.OrderStatusDelivered
	svc.now = func() time.Time { return deliveredAt.Add(7*24*time.Hour + time.Second) }
	_, err = svc.RequestReturn(context.Background(), ReturnInput{
		OrderID: order.ID,
		UserID:  userID,
		Reason:  "too late",
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
	assert.Contains(t, err.Error(), "return window has expired")
}

func TestRequestReturnRejectsUndeliveredOrder(t *testing.T) {
	userID := uuid.New()
	repo := &stubOrdersRepo{order: newTestOrder(userID, enums.OrderStatusShipped)}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	_, err := svc.RequestReturn(context.Background(), ReturnInput{
		OrderID: repo.order.ID,
		UserID:  userID,
		Reason:  "not yet delivered",
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAdminUpdateStatusLegalTransition(t *testing.T) {
	order := newTestOrder(uuid.New(), enums.OrderStatusProcessing)
	repo := &stubOrdersRepo{order: order}
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub)

	result, err := svc.AdminUpdateStatus(context.Background(), AdminStatusInput{
		OrderID:     order.ID,
		NextStatus:  enums.OrderStatusShipped,
		ActorUserID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, result.Status)
	require.True(t, pub.called)
	assert.Equal(t, enums.EventOrderStatusChanged, pub.event.EventType)
}

func TestAdminUpdateStatusRejectsIllegalTransition(t *testing.T) {
	order := newTestOrder(uuid.New(), enums.OrderStatusPending)
	repo := &stubOrdersRepo{order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	_, err := svc.AdminUpdateStatus(context.Background(), AdminStatusInput{
		OrderID:     order.ID,
		NextStatus:  enums.OrderStatusDelivered,
		ActorUserID: uuid.New(),
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAdminUpdateStatusBlocksUnpaidStripeOrder(t *testing.T) {
	order := newTestOrder(uuid.New(), enums.OrderStatusPending)
	order.PaymentMethod = enums.PaymentMethodStripe
	order.PaymentStatus = enums.PaymentStatusPending
	repo := &stubOrdersRepo{order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	_, err := svc.AdminUpdateStatus(context.Background(), AdminStatusInput{
		OrderID:     order.ID,
		NextStatus:  enums.OrderStatusProcessing,
		ActorUserID: uuid.New(),
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)

	// cancelling an unpaid stripe order is still allowed
	result, err := svc.AdminUpdateStatus(context.Background(), AdminStatusInput{
		OrderID:     order.ID,
		NextStatus:  enums.OrderStatusCancelled,
		ActorUserID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, result.Status)
}

func TestAdminUpdateStatusRefundedSyncsPayment(t *testing.T) {
	order := newTestOrder(uuid.New(), enums.OrderStatusReturned)
	order.PaymentStatus = enums.PaymentStatusPaid
	repo := &stubOrdersRepo{order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	result, err := svc.AdminUpdateStatus(context.Background(), AdminStatusInput{
		OrderID:     order.ID,
		NextStatus:  enums.OrderStatusRefunded,
		ActorUserID: uuid.New(),
	})
	require.NoError(t, err)
	assert.True(t, repo.markedRefunded)
	assert.Equal(t, enums.PaymentStatusRefunded, result.PaymentStatus)
}

func TestGetOrderOwnership(t *testing.T) {
	userID := uuid.New()
	repo := &stubOrdersRepo{order: newTestOrder(userID, enums.OrderStatusPending)}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	order, err := svc.GetOrder(context.Background(), repo.order.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, repo.order.ID, order.ID)

	_, err = svc.GetOrder(context.Background(), repo.order.ID, uuid.New())
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.GetOrder(context.Background(), uuid.New(), userID)
	assertCode(t, err, pkgerrors.CodeNotFound)
}
