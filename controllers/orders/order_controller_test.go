package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-api/exchange"
	"storefront-api/gateway"
	"storefront-api/models"
	"storefront-api/responses"
	"storefront-api/services"
)

type memOrderStore struct {
	orders map[primitive.ObjectID]*models.Order
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: map[primitive.ObjectID]*models.Order{}}
}

func (m *memOrderStore) Insert(_ context.Context, order *models.Order) error {
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *memOrderStore) FindActive(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok || order.Lifecycle == models.LifecycleCancelled {
		return nil, services.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *memOrderStore) FindAll(_ context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *memOrderStore) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID && o.Lifecycle != models.LifecycleCancelled {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrderStore) ConfirmPayment(_ context.Context, id primitive.ObjectID, expectedRevision int64) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok || order.Lifecycle == models.LifecycleCancelled {
		return nil, services.ErrOrderNotFound
	}
	if order.Revision != expectedRevision {
		return nil, services.ErrRevisionMismatch
	}
	order.Payment = true
	order.Status = models.StatusOrderReceived
	order.Lifecycle = models.LifecycleConfirmed
	order.Revision++
	cp := *order
	return &cp, nil
}

func (m *memOrderStore) Cancel(_ context.Context, id primitive.ObjectID, expectedRevision int64, reason string) error {
	order, ok := m.orders[id]
	if !ok {
		return services.ErrOrderNotFound
	}
	if order.Revision != expectedRevision {
		return services.ErrRevisionMismatch
	}
	order.Lifecycle = models.LifecycleCancelled
	order.Status = models.StatusCancelled
	order.CancelReason = reason
	order.Revision++
	return nil
}

func (m *memOrderStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.orders[id]; !ok {
		return services.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memOrderStore) SetStatus(_ context.Context, id primitive.ObjectID, status string) error {
	order, ok := m.orders[id]
	if !ok {
		return services.ErrOrderNotFound
	}
	order.Status = status
	order.Revision++
	return nil
}

func (m *memOrderStore) SetPayment(_ context.Context, id primitive.ObjectID, paid bool) error {
	order, ok := m.orders[id]
	if !ok {
		return services.ErrOrderNotFound
	}
	order.Payment = paid
	order.Revision++
	return nil
}

type memUserStore struct{ clearCalls int }

func (m *memUserStore) ClearCart(_ context.Context, _ primitive.ObjectID) error {
	m.clearCalls++
	return nil
}

type stubGateway struct {
	verifyCalls int
	txn         *gateway.Transaction
	initErr     error
}

func (s *stubGateway) Initialize(_ context.Context, req gateway.InitializeRequest) (*gateway.Authorization, error) {
	if s.initErr != nil {
		return nil, s.initErr
	}
	return &gateway.Authorization{
		AuthorizationURL: "https://checkout.example.com/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (s *stubGateway) Verify(_ context.Context, _ string) (*gateway.Transaction, error) {
	s.verifyCalls++
	if s.txn == nil {
		return &gateway.Transaction{Status: gateway.SettlementSuccess}, nil
	}
	return s.txn, nil
}

func newTestApp(store *memOrderStore, gw *stubGateway) *fiber.App {
	log := logrus.New()
	log.SetOutput(io.Discard)

	rates := exchange.NewStaticRates("USD", "NGN", 1600)
	svc := services.NewOrderService(store, &memUserStore{}, gw, rates, "USD", "NGN", log)
	ctrl := NewOrderController(svc, log, "http://localhost:5173")

	app := fiber.New()
	app.Post("/order/place", ctrl.PlaceOrder)
	app.Post("/order/gateway", ctrl.GatewayPayment)
	app.Post("/order/verify", ctrl.VerifyPayment)
	app.Post("/order/list", ctrl.ListOrders)
	app.Post("/order/userorders", ctrl.UserOrders)
	app.Post("/order/status", ctrl.UpdateStatus)
	app.Post("/order/payment-status", ctrl.UpdatePayment)
	app.Delete("/order/:orderId", ctrl.DeleteOrder)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, responses.OrderResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	var envelope responses.OrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, envelope
}

func placeBody(userID string) map[string]interface{} {
	return map[string]interface{}{
		"userId": userID,
		"items": []map[string]interface{}{
			{"productId": "p1", "name": "Sneaker", "price": 50, "quantity": 1},
		},
		"amount": 50,
		"address": map[string]interface{}{
			"firstName": "Ada",
			"email":     "ada@example.com",
			"street":    "1 Main St",
			"city":      "Lagos",
		},
	}
}

func TestPlaceOrderEndpoint(t *testing.T) {
	store := newMemOrderStore()
	app := newTestApp(store, &stubGateway{})

	resp, envelope := doJSON(t, app, fiber.MethodPost, "/order/place", placeBody(primitive.NewObjectID().Hex()))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !envelope.Success || envelope.Message != "Order Placed" {
		t.Errorf("unexpected envelope: %+v", envelope)
	}
	if len(store.orders) != 1 {
		t.Errorf("expected one stored order, got %d", len(store.orders))
	}
}

func TestPlaceOrderEndpointRejectsBadVariation(t *testing.T) {
	store := newMemOrderStore()
	app := newTestApp(store, &stubGateway{})

	body := placeBody(primitive.NewObjectID().Hex())
	body["items"] = []map[string]interface{}{
		{"productId": "p1", "variation": map[string]interface{}{"price": -1}},
	}

	resp, envelope := doJSON(t, app, fiber.MethodPost, "/order/place", body)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Success {
		t.Error("expected success=false")
	}
	if len(store.orders) != 0 {
		t.Error("no order may be persisted")
	}
}

func TestGatewayPaymentEndpoint(t *testing.T) {
	app := newTestApp(newMemOrderStore(), &stubGateway{})

	resp, envelope := doJSON(t, app, fiber.MethodPost, "/order/gateway", placeBody(primitive.NewObjectID().Hex()))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if envelope.AuthorizationURL == "" {
		t.Error("expected an authorization_url in the response")
	}
}

func TestGatewayPaymentEndpointBadGateway(t *testing.T) {
	gw := &stubGateway{initErr: &gateway.RejectedError{Reason: "Invalid key"}}
	app := newTestApp(newMemOrderStore(), gw)

	resp, envelope := doJSON(t, app, fiber.MethodPost, "/order/gateway", placeBody(primitive.NewObjectID().Hex()))
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	if envelope.Message != "Invalid key" {
		t.Errorf("message = %q, want the gateway's reason", envelope.Message)
	}
}

func TestVerifyEndpointRejectsEmptyReference(t *testing.T) {
	gw := &stubGateway{}
	app := newTestApp(newMemOrderStore(), gw)

	resp, envelope := doJSON(t, app, fiber.MethodPost, "/order/verify", map[string]interface{}{
		"reference": "",
		"orderId":   primitive.NewObjectID().Hex(),
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Success {
		t.Error("expected success=false")
	}
	if gw.verifyCalls != 0 {
		t.Errorf("no gateway call may be made, got %d", gw.verifyCalls)
	}
}

func TestVerifyEndpointConfirms(t *testing.T) {
	store := newMemOrderStore()
	app := newTestApp(store, &stubGateway{})

	_, gwEnvelope := doJSON(t, app, fiber.MethodPost, "/order/gateway", placeBody(primitive.NewObjectID().Hex()))
	if gwEnvelope.AuthorizationURL == "" {
		t.Fatal("gateway initiation failed")
	}

	var orderID string
	for id := range store.orders {
		orderID = id.Hex()
	}

	resp, envelope := doJSON(t, app, fiber.MethodPost, "/order/verify", map[string]interface{}{
		"reference": "ref-1",
		"orderId":   orderID,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if envelope.Order == nil || !envelope.Order.Payment {
		t.Errorf("expected the confirmed order in the response, got %+v", envelope.Order)
	}
}

func TestUpdateStatusEndpoint(t *testing.T) {
	store := newMemOrderStore()
	app := newTestApp(store, &stubGateway{})

	doJSON(t, app, fiber.MethodPost, "/order/place", placeBody(primitive.NewObjectID().Hex()))
	var orderID string
	for id := range store.orders {
		orderID = id.Hex()
	}

	resp, _ := doJSON(t, app, fiber.MethodPost, "/order/status", map[string]interface{}{
		"orderId": orderID,
		"status":  "Teleported",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("invalid status: code = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, fiber.MethodPost, "/order/status", map[string]interface{}{
		"orderId": orderID,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("missing status: code = %d, want 400", resp.StatusCode)
	}

	resp, envelope := doJSON(t, app, fiber.MethodPost, "/order/status", map[string]interface{}{
		"orderId": orderID,
		"status":  models.StatusDelivered,
	})
	if resp.StatusCode != fiber.StatusOK || !envelope.Success {
		t.Fatalf("valid update failed: code = %d, envelope = %+v", resp.StatusCode, envelope)
	}
}

func TestDeleteOrderEndpoint(t *testing.T) {
	store := newMemOrderStore()
	app := newTestApp(store, &stubGateway{})

	doJSON(t, app, fiber.MethodPost, "/order/place", placeBody(primitive.NewObjectID().Hex()))
	var orderID string
	for id := range store.orders {
		orderID = id.Hex()
	}

	resp, _ := doJSON(t, app, fiber.MethodDelete, "/order/"+orderID, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("delete: code = %d, want 200", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, fiber.MethodDelete, "/order/"+orderID, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("second delete: code = %d, want 404", resp.StatusCode)
	}
}

func TestUserOrdersEndpointRequiresUserID(t *testing.T) {
	app := newTestApp(newMemOrderStore(), &stubGateway{})

	resp, _ := doJSON(t, app, fiber.MethodPost, "/order/userorders", map[string]interface{}{})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("code = %d, want 400", resp.StatusCode)
	}
}

func TestPaymentStatusEndpointRequiresFlag(t *testing.T) {
	store := newMemOrderStore()
	app := newTestApp(store, &stubGateway{})

	doJSON(t, app, fiber.MethodPost, "/order/place", placeBody(primitive.NewObjectID().Hex()))
	var orderID string
	for id := range store.orders {
		orderID = id.Hex()
	}

	resp, _ := doJSON(t, app, fiber.MethodPost, "/order/payment-status", map[string]interface{}{
		"orderId": orderID,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("missing flag: code = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, fiber.MethodPost, "/order/payment-status", map[string]interface{}{
		"orderId": orderID,
		"payment": true,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("valid update: code = %d, want 200", resp.StatusCode)
	}
}
