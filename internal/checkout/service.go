package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/jtorres-dev/storefront-backend/internal/orders"
	"github.com/jtorres-dev/storefront-backend/pkg/config"
	"github.com/jtorres-dev/storefront-backend/pkg/db/models"
	"github.com/jtorres-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/jtorres-dev/storefront-backend/pkg/errors"
	"github.com/jtorres-dev/storefront-backend/pkg/logger"
	"github.com/jtorres-dev/storefront-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productStore interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
}

type cartStore interface {
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type addressStore interface {
	FindByID(ctx context.Context, id, userID uuid.UUID) (*models.Address, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service turns a shopper's cart and address into either a finalized COD order
// or a hosted Stripe Checkout redirect. Pricing is always recomputed here from
// the live catalog.
type Service interface {
	PlaceCODOrder(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error)
	CreateStripeSession(ctx context.Context, userID uuid.UUID, input Input) (*SessionResult, error)
	RetryPayment(ctx context.Context, userID, orderID uuid.UUID) (*SessionResult, error)
}

type service struct {
	tx         txRunner
	ordersRepo orders.Repository
	products   productStore
	cart       cartStore
	addresses  addressStore
	sessions   StripeSessionClient
	outbox     outboxPublisher
	cfg        config.CheckoutConfig
	logg       *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	products productStore,
	cart cartStore,
	addresses addressStore,
	sessions StripeSessionClient,
	publisher outboxPublisher,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address store required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("stripe session client required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:         tx,
		ordersRepo: ordersRepo,
		products:   products,
		cart:       cart,
		addresses:  addresses,
		sessions:   sessions,
		outbox:     publisher,
		cfg:        cfg,
		logg:       logg,
	}, nil
}

// PlaceCODOrder finalizes a cash-on-delivery order in one request: snapshot the
// priced items, persist the order, decrement stock, clear the cart. The stock
// decrement and cart clear run after the order commit; a crash between the two
// leaves stock un-decremented for a real order, which is accepted rather than
// rolled back.
func (s *service) PlaceCODOrder(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	lines, fromCart, err := s.resolveItems(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	priced, err := s.priceItems(ctx, lines)
	if err != nil {
		return nil, err
	}
	addr, err := s.loadAddress(ctx, input.AddressID, userID)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(userID, addr, priced, enums.PaymentMethodCOD)

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		created, txErr = s.ordersRepo.WithTx(tx).CreateOrder(ctx, order, priced.items)
		if txErr != nil {
			return txErr
		}
		return s.emitOrderCreated(ctx, tx, created, userID)
	})
	if err != nil {
		return nil, err
	}

	for _, item := range created.Items {
		if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.warn(ctx, created.ID, fmt.Sprintf("stock decrement failed for product %s: %v", item.ProductID, err))
		}
	}
	if fromCart {
		if err := s.cart.Clear(ctx, userID); err != nil {
			s.warn(ctx, created.ID, fmt.Sprintf("cart clear failed: %v", err))
		}
	}

	return created, nil
}

// CreateStripeSession opens (or reuses) a pending order and returns the hosted
// checkout redirect. No stock is decremented and the cart is untouched until
// the payment webhook confirms the charge.
func (s *service) CreateStripeSession(ctx context.Context, userID uuid.UUID, input Input) (*SessionResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	lines, _, err := s.resolveItems(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	priced, err := s.priceItems(ctx, lines)
	if err != nil {
		return nil, err
	}
	addr, err := s.loadAddress(ctx, input.AddressID, userID)
	if err != nil {
		return nil, err
	}

	fresh := s.buildOrder(userID, addr, priced, enums.PaymentMethodStripe)

	order, err := s.reusablePendingOrder(ctx, userID, fresh.TotalAmount)
	if err != nil {
		return nil, err
	}
	if order == nil {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var txErr error
			order, txErr = s.ordersRepo.WithTx(tx).CreateOrder(ctx, fresh, priced.items)
			if txErr != nil {
				return txErr
			}
			return s.emitOrderCreated(ctx, tx, order, userID)
		})
		if err != nil {
			return nil, err
		}
	}

	return s.openSession(ctx, order)
}

// RetryPayment rebuilds the hosted session from the order's snapshotted items
// so the retried charge matches the original amount even if catalog prices
// moved meanwhile.
func (s *service) RetryPayment(ctx context.Context, userID, orderID uuid.UUID) (*SessionResult, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id required")
	}

	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.PaymentMethod != enums.PaymentMethodStripe ||
		order.Status != enums.OrderStatusPending ||
		order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	return s.openSession(ctx, order)
}

// reusablePendingOrder returns the user's latest pending stripe order when its
// stored total matches the fresh one. A stale order with a different total is
// left pending and simply superseded.
func (s *service) reusablePendingOrder(ctx context.Context, userID uuid.UUID, total decimal.Decimal) (*models.Order, error) {
	existing, err := s.ordersRepo.FindLatestPendingStripeOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up pending order")
	}
	if !totalsMatch(existing.TotalAmount, total) {
		return nil, nil
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, existing.ID.String()), "reusing pending checkout order")
	}
	return existing, nil
}

// openSession requests the hosted checkout session and persists the returned
// session id onto the order. Only the order id travels as metadata.
func (s *service) openSession(ctx context.Context, order *models.Order) (*SessionResult, error) {
	session, err := s.sessions.CreateSession(ctx, s.sessionParams(order))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	sessionID := session.ID
	if err := s.ordersRepo.UpdatePaymentStatus(ctx, order.ID, enums.PaymentStatusPending, &sessionID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout session id")
	}

	return &SessionResult{
		SessionID: session.ID,
		URL:       session.URL,
		OrderID:   order.ID,
	}, nil
}

func (s *service) sessionParams(order *models.Order) *stripe.CheckoutSessionCreateParams {
	lineItems := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(order.Items)+1)
	for _, item := range order.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(s.cfg.Currency),
				UnitAmount: stripe.Int64(toCents(item.UnitPrice)),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}
	if order.ShippingFee.IsPositive() {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(s.cfg.Currency),
				UnitAmount: stripe.Int64(toCents(order.ShippingFee)),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String("Shipping"),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		LineItems:  lineItems,
	}
	params.AddMetadata(orderIDMetadataKey, order.ID.String())
	return params
}

// resolveItems prefers explicit request lines and falls back to the saved
// cart. The second return reports whether the cart was the source, which
// decides whether COD clears it afterwards.
func (s *service) resolveItems(ctx context.Context, userID uuid.UUID, input Input) ([]ItemInput, bool, error) {
	if len(input.Items) > 0 {
		return input.Items, false, nil
	}
	cartItems, err := s.cart.ListItems(ctx, userID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cartItems) == 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	lines := make([]ItemInput, len(cartItems))
	for i, item := range cartItems {
		lines[i] = ItemInput{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return lines, true, nil
}

type pricedItems struct {
	items    []models.OrderItem
	subtotal decimal.Decimal
}

// priceItems builds the immutable line snapshot from live product rows. Any
// invalid line rejects the whole checkout; there are no partial orders.
func (s *service) priceItems(ctx context.Context, lines []ItemInput) (*pricedItems, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items to checkout")
	}

	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}
	productsByID, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	priced := &pricedItems{
		items:    make([]models.OrderItem, 0, len(lines)),
		subtotal: decimal.Zero,
	}
	for _, line := range lines {
		product, ok := productsByID[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s not found", line.ProductID))
		}
		if !product.Active {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %q is unavailable", product.Name))
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity for %q must be positive", product.Name))
		}
		if line.Quantity > product.Stock {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("insufficient stock for %q", product.Name))
		}

		unit := unitPriceAfterDiscount(product.Price, product.DiscountPercent)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
		priced.items = append(priced.items, models.OrderItem{
			ProductID:       product.ID,
			Name:            product.Name,
			Quantity:        line.Quantity,
			UnitPrice:       unit,
			DiscountPercent: product.DiscountPercent,
			LineTotal:       lineTotal,
		})
		priced.subtotal = priced.subtotal.Add(lineTotal)
	}
	return priced, nil
}

func (s *service) loadAddress(ctx context.Context, addressID, userID uuid.UUID) (*models.Address, error) {
	if addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	addr, err := s.addresses.FindByID(ctx, addressID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return addr, nil
}

// shippingFee is free at or above the configured subtotal threshold, otherwise
// the flat fee applies. Recomputed on every checkout, never trusted from the
// client.
func (s *service) shippingFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(s.cfg.Threshold()) {
		return decimal.Zero
	}
	return s.cfg.Fee()
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order, userID uuid.UUID) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.RoleCustomer)},
		Data: OrderCreatedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			UserID:        order.UserID,
			PaymentMethod: order.PaymentMethod.String(),
			TotalAmount:   order.TotalAmount,
		},
		Version: 1,
	})
}

func (s *service) warn(ctx context.Context, orderID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), msg)
}

// buildOrder assembles the order row with the shipping snapshot copied from
// the address and the grand total fixed as subtotal plus shipping.
func (s *service) buildOrder(userID uuid.UUID, addr *models.Address, priced *pricedItems, method enums.PaymentMethod) *models.Order {
	shipping := s.shippingFee(priced.subtotal)
	return &models.Order{
		UserID:           userID,
		Status:           enums.OrderStatusPending,
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentMethod:    method,
		Subtotal:         priced.subtotal,
		ShippingFee:      shipping,
		TotalAmount:      priced.subtotal.Add(shipping),
		ShippingName:     addr.Name,
		ShippingPhone:    addr.Phone,
		ShippingLine1:    addr.Line1,
		ShippingLine2:    addr.Line2,
		ShippingCity:     addr.City,
		ShippingState:    addr.State,
		ShippingPostcode: addr.Postcode,
		ShippingCountry:  addr.Country,
	}
}
