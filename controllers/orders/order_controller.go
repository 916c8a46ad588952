package controllers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-api/models"
	"storefront-api/responses"
	"storefront-api/services"
)

// OrderController exposes the order workflow over HTTP. It owns request
// parsing and validation; all business decisions live in the service.
type OrderController struct {
	svc         *services.OrderService
	validate    *validator.Validate
	log         *logrus.Logger
	frontendURL string
}

func NewOrderController(svc *services.OrderService, log *logrus.Logger, frontendURL string) *OrderController {
	return &OrderController{
		svc:         svc,
		validate:    validator.New(),
		log:         log,
		frontendURL: frontendURL,
	}
}

type orderItemRequest struct {
	ProductID string           `json:"productId"`
	Name      string           `json:"name"`
	Price     float64          `json:"price"`
	Quantity  int              `json:"quantity"`
	Variation models.Variation `json:"variation,omitempty"`
}

type placeOrderRequest struct {
	UserID   string             `json:"userId" validate:"required"`
	Items    []orderItemRequest `json:"items" validate:"required,min=1"`
	Amount   float64            `json:"amount" validate:"required,gt=0"`
	Address  models.Address     `json:"address"`
	Currency string             `json:"currency"`
}

type verifyPaymentRequest struct {
	Reference string `json:"reference"`
	OrderID   string `json:"orderId"`
}

type userOrdersRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type updateStatusRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

type updatePaymentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Payment *bool  `json:"payment" validate:"required"`
}

// PlaceOrder handles POST /order/place (cash on delivery).
func (ct *OrderController) PlaceOrder(c *fiber.Ctx) error {
	in, err := ct.parsePlaceOrder(c)
	if err != nil {
		return ct.fail(c, err)
	}

	if _, err := ct.svc.PlaceCashOnDeliveryOrder(c.Context(), *in); err != nil {
		return ct.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(responses.OK("Order Placed"))
}

// GatewayPayment handles POST /order/gateway.
func (ct *OrderController) GatewayPayment(c *fiber.Ctx) error {
	in, err := ct.parsePlaceOrder(c)
	if err != nil {
		return ct.fail(c, err)
	}

	origin := c.Get("Origin")
	if origin == "" {
		origin = ct.frontendURL
	}

	result, err := ct.svc.InitiateGatewayPayment(c.Context(), *in, origin)
	if err != nil {
		return ct.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(responses.OrderResponse{
		Success:          true,
		Message:          "Payment initialized",
		AuthorizationURL: result.AuthorizationURL,
	})
}

// VerifyPayment handles POST /order/verify, the gateway callback target.
func (ct *OrderController) VerifyPayment(c *fiber.Ctx) error {
	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(responses.Fail("Invalid request body"))
	}

	order, err := ct.svc.VerifyGatewayPayment(c.Context(), req.Reference, req.OrderID)
	if err != nil {
		return ct.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(responses.OrderResponse{
		Success: true,
		Message: "Payment verified",
		Order:   order,
	})
}

// ListOrders handles POST /order/list (admin).
func (ct *OrderController) ListOrders(c *fiber.Ctx) error {
	orders, err := ct.svc.ListOrders(c.Context())
	if err != nil {
		return ct.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(responses.OrderResponse{
		Success: true,
		Orders:  orders,
	})
}

// UserOrders handles POST /order/userorders.
func (ct *OrderController) UserOrders(c *fiber.Ctx) error {
	var req userOrdersRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(responses.Fail("Invalid request body"))
	}
	if err := ct.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(responses.Fail("User ID is required"))
	}

	orders, err := ct.svc.ListUserOrders(c.Context(), req.UserID)
	if err != nil {
		return ct.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(responses.OrderResponse{
		Success: true,
		Orders:  orders,
	})
}

// UpdateStatus handles POST /order/status (admin).
func (ct *OrderController) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(responses.Fail("Invalid request body"))
	}
	if err := ct.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(responses.Fail("Order ID and status are required"))
	}

	if err := ct.svc.UpdateOrderStatus(c.Context(), req.OrderID, req.Status); err != nil {
		return ct.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(responses.OK("Status Updated"))
}

// UpdatePayment handles POST /order/payment-status (admin).
func (ct *OrderController) UpdatePayment(c *fiber.Ctx) error {
	var req updatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(responses.Fail("Invalid request body"))
	}
	if err := ct.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(responses.Fail("Order ID and payment flag are required"))
	}

	if err := ct.svc.UpdatePaymentFlag(c.Context(), req.OrderID, *req.Payment); err != nil {
		return ct.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(responses.OK("Payment Updated"))
}

// DeleteOrder handles DELETE /order/:orderId (admin).
func (ct *OrderController) DeleteOrder(c *fiber.Ctx) error {
	if err := ct.svc.DeleteOrder(c.Context(), c.Params("orderId")); err != nil {
		return ct.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(responses.OK("Order Deleted"))
}

func (ct *OrderController) parsePlaceOrder(c *fiber.Ctx) (*services.PlaceOrderInput, error) {
	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, services.Wrap(services.KindValidation, "Invalid request body", err)
	}
	if err := ct.validate.Struct(req); err != nil {
		return nil, services.Wrap(services.KindValidation, "Invalid order payload", err)
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return nil, services.Wrap(services.KindValidation, "Invalid user ID", err)
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Variation: item.Variation,
		})
	}

	return &services.PlaceOrderInput{
		UserID:   userID,
		Items:    items,
		Amount:   req.Amount,
		Address:  req.Address,
		Currency: req.Currency,
	}, nil
}

func (ct *OrderController) fail(c *fiber.Ctx, err error) error {
	kind := services.KindOf(err)
	if kind == services.KindUnexpected {
		ct.log.WithError(err).Error("order request failed")
	}
	return c.Status(statusForKind(kind)).JSON(responses.Fail(services.MessageOf(err)))
}

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return fiber.StatusBadRequest
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindGateway:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
