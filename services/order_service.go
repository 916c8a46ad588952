package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-api/exchange"
	"storefront-api/gateway"
	"storefront-api/models"
)

// OrderService owns the lifecycle of an order from tentative creation through
// payment confirmation or cancellation. All collaborators are injected so the
// workflow can be exercised without a live database or provider.
type OrderService struct {
	orders OrderStore
	users  UserStore
	gw     gateway.Client
	rates  exchange.RateSource
	log    *logrus.Logger

	baseCurrency       string
	settlementCurrency string

	now    func() time.Time
	newRef func() string
}

func NewOrderService(orders OrderStore, users UserStore, gw gateway.Client, rates exchange.RateSource, baseCurrency, settlementCurrency string, log *logrus.Logger) *OrderService {
	return &OrderService{
		orders:             orders,
		users:              users,
		gw:                 gw,
		rates:              rates,
		log:                log,
		baseCurrency:       baseCurrency,
		settlementCurrency: settlementCurrency,
		now:                time.Now,
		newRef:             uuid.NewString,
	}
}

// PlaceOrderInput is the trusted, already-authenticated input to order
// creation.
type PlaceOrderInput struct {
	UserID   primitive.ObjectID
	Items    []models.OrderItem
	Amount   float64
	Address  models.Address
	Currency string
}

// CreateOrder validates line items and persists a new order. The lifecycle
// depends on the payment method: COD orders are final immediately, gateway
// orders stay pending until verification.
func (s *OrderService) CreateOrder(ctx context.Context, in PlaceOrderInput, method models.PaymentMethod) (*models.Order, error) {
	if err := models.ValidateItems(in.Items); err != nil {
		return nil, Wrap(KindValidation, err.Error(), err)
	}

	currency := in.Currency
	if currency == "" {
		currency = s.baseCurrency
	}

	lifecycle := models.LifecycleConfirmed
	if method == models.PaymentPaystack {
		lifecycle = models.LifecyclePending
	}

	order := &models.Order{
		ID:            primitive.NewObjectID(),
		UserID:        in.UserID,
		Items:         in.Items,
		Amount:        in.Amount,
		Currency:      currency,
		Address:       in.Address,
		PaymentMethod: method,
		Payment:       false,
		Status:        models.StatusOrderReceived,
		Lifecycle:     lifecycle,
		Revision:      1,
		Date:          s.now(),
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, Wrap(KindUnexpected, "Failed to create order", err)
	}
	return order, nil
}

// PlaceCashOnDeliveryOrder creates a COD order and clears the user's cart.
// The cart is only touched after the order exists.
func (s *OrderService) PlaceCashOnDeliveryOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	order, err := s.CreateOrder(ctx, in, models.PaymentCOD)
	if err != nil {
		return nil, err
	}

	s.clearCart(ctx, in.UserID)
	return order, nil
}

// InitiateResult is what a successful gateway initialization hands back to
// the caller: where to send the payer.
type InitiateResult struct {
	Order            *models.Order
	AuthorizationURL string
	Reference        string
}

// InitiateGatewayPayment creates a pending order, converts the charge into
// the gateway's settlement currency and asks the provider for a redirect
// URL. If the provider refuses or is unreachable the pending order is
// cancelled before the error is returned, so a failed initialization never
// leaves an unreachable order behind.
func (s *OrderService) InitiateGatewayPayment(ctx context.Context, in PlaceOrderInput, callbackOrigin string) (*InitiateResult, error) {
	if in.Amount <= 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return nil, E(KindValidation, "Amount must be a positive number")
	}
	if strings.TrimSpace(in.Address.Email) == "" {
		return nil, E(KindValidation, "A contact email is required for gateway payment")
	}

	order, err := s.CreateOrder(ctx, in, models.PaymentPaystack)
	if err != nil {
		return nil, err
	}

	rate, err := s.rates.Rate(order.Currency, s.settlementCurrency)
	if err != nil {
		s.compensate(ctx, order, "exchange rate unavailable")
		return nil, Wrap(KindUnexpected, "Failed to convert order amount", err)
	}

	reference := s.newRef()
	req := gateway.InitializeRequest{
		AmountMinor: exchange.GatewayMinorUnits(order.Amount, rate),
		Currency:    s.settlementCurrency,
		Email:       order.Address.Email,
		Reference:   reference,
		CallbackURL: callbackOrigin + "/verify?orderId=" + order.ID.Hex(),
		Metadata: map[string]interface{}{
			"orderId": order.ID.Hex(),
			"userId":  order.UserID.Hex(),
		},
	}

	auth, err := s.gw.Initialize(ctx, req)
	if err != nil {
		s.compensate(ctx, order, "payment initialization failed")

		var rejected *gateway.RejectedError
		if errors.As(err, &rejected) {
			msg := rejected.Reason
			if msg == "" {
				msg = "Payment gateway rejected the transaction"
			}
			return nil, Wrap(KindGateway, msg, err)
		}
		return nil, Wrap(KindGateway, "Payment gateway is unreachable", err)
	}

	s.log.WithFields(logrus.Fields{
		"orderId":   order.ID.Hex(),
		"reference": auth.Reference,
	}).Info("gateway payment initialized")

	return &InitiateResult{
		Order:            order,
		AuthorizationURL: auth.AuthorizationURL,
		Reference:        auth.Reference,
	}, nil
}

// VerifyGatewayPayment settles a pending order. A settled "success" confirms
// the order and clears the cart; anything else cancels it. Re-verifying an
// already confirmed order reapplies the same state.
func (s *OrderService) VerifyGatewayPayment(ctx context.Context, reference, orderID string) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, E(KindValidation, "Transaction reference is required")
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, E(KindValidation, "Order ID is required")
	}

	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, Wrap(KindValidation, "Invalid order ID", err)
	}

	order, err := s.orders.FindActive(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, E(KindNotFound, "Order not found")
		}
		return nil, Wrap(KindUnexpected, "Failed to load order", err)
	}

	txn, err := s.gw.Verify(ctx, reference)
	if err != nil {
		s.compensate(ctx, order, "payment verification failed")

		var rejected *gateway.RejectedError
		if errors.As(err, &rejected) {
			return nil, Wrap(KindGateway, rejected.Error(), err)
		}
		return nil, Wrap(KindGateway, "Payment verification failed", err)
	}

	if txn.Status != gateway.SettlementSuccess {
		reason := txn.GatewayResponse
		if reason == "" {
			reason = "Unknown error"
		}
		s.compensate(ctx, order, reason)
		return nil, E(KindGateway, reason)
	}

	updated, err := s.orders.ConfirmPayment(ctx, id, order.Revision)
	if err != nil {
		switch {
		case errors.Is(err, ErrRevisionMismatch):
			return nil, Wrap(KindConflict, "Order was modified concurrently", err)
		case errors.Is(err, ErrOrderNotFound):
			return nil, E(KindNotFound, "Order not found")
		default:
			s.compensate(ctx, order, "payment confirmation failed")
			return nil, Wrap(KindUnexpected, "Failed to confirm payment", err)
		}
	}

	s.clearCart(ctx, order.UserID)

	s.log.WithFields(logrus.Fields{
		"orderId":   id.Hex(),
		"reference": reference,
	}).Info("gateway payment confirmed")

	return updated, nil
}

// ListOrders returns every order, cancelled ones included, for the admin
// panel.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, Wrap(KindUnexpected, "Failed to fetch orders", err)
	}
	return orders, nil
}

// ListUserOrders returns a user's active orders.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, Wrap(KindValidation, "Invalid user ID", err)
	}

	orders, err := s.orders.FindByUser(ctx, id)
	if err != nil {
		return nil, Wrap(KindUnexpected, "Failed to fetch orders", err)
	}
	return orders, nil
}

// UpdateOrderStatus applies one of the enumerated delivery statuses.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	if !models.IsValidStatus(status) {
		return E(KindValidation, "Invalid order status")
	}

	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return Wrap(KindValidation, "Invalid order ID", err)
	}

	if err := s.orders.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return E(KindNotFound, "Order not found")
		}
		return Wrap(KindUnexpected, "Failed to update order status", err)
	}
	return nil
}

// UpdatePaymentFlag is the administrative override for the payment-confirmed
// flag.
func (s *OrderService) UpdatePaymentFlag(ctx context.Context, orderID string, paid bool) error {
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return Wrap(KindValidation, "Invalid order ID", err)
	}

	if err := s.orders.SetPayment(ctx, id, paid); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return E(KindNotFound, "Order not found")
		}
		return Wrap(KindUnexpected, "Failed to update payment status", err)
	}
	return nil
}

// DeleteOrder removes the order record entirely. Cancellation retains rows;
// this is the hard administrative primitive.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return Wrap(KindValidation, "Invalid order ID", err)
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return E(KindNotFound, "Order not found")
		}
		return Wrap(KindUnexpected, "Failed to delete order", err)
	}
	return nil
}

// compensate cancels an order after a downstream failure. Best effort: a
// failed cancellation is logged and must not mask the original error.
func (s *OrderService) compensate(ctx context.Context, order *models.Order, reason string) {
	if err := s.orders.Cancel(ctx, order.ID, order.Revision, reason); err != nil {
		s.log.WithFields(logrus.Fields{
			"orderId": order.ID.Hex(),
			"reason":  reason,
		}).WithError(err).Error("failed to cancel order during compensation")
	}
}

// clearCart empties the user's cart. The order already exists at this point,
// so a failure here is logged rather than surfaced.
func (s *OrderService) clearCart(ctx context.Context, userID primitive.ObjectID) {
	if err := s.users.ClearCart(ctx, userID); err != nil {
		s.log.WithField("userId", userID.Hex()).WithError(err).Error("failed to clear cart")
	}
}
