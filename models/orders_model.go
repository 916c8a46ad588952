package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	PaymentCOD      PaymentMethod = "COD"
	PaymentPaystack PaymentMethod = "Paystack"
)

// Lifecycle tracks the payment lifecycle of an order separately from the
// delivery status. Cancelled rows are retained instead of deleted so a failed
// payment leaves an audit trail.
type Lifecycle string

const (
	LifecyclePending   Lifecycle = "pending"
	LifecycleConfirmed Lifecycle = "confirmed"
	LifecycleCancelled Lifecycle = "cancelled"
)

const (
	StatusOrderReceived  = "Order Received"
	StatusPreparing      = "Preparing"
	StatusReadyForPickup = "Ready for Pickup"
	StatusOutForDelivery = "Out for Delivery"
	StatusDelivered      = "Delivered"
	StatusCancelled      = "Cancelled"
)

func IsValidStatus(status string) bool {
	switch status {
	case StatusOrderReceived, StatusPreparing, StatusReadyForPickup,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// Variation is the free-form selection a customer made for a line item
// (size, color, an optional override price). Shape is dictated by the
// storefront, so it stays a map rather than a struct.
type Variation map[string]interface{}

// ValidatePrice enforces that a non-empty variation carries a positive
// numeric price. An empty variation is fine.
func (v Variation) ValidatePrice() error {
	if len(v) == 0 {
		return nil
	}
	raw, ok := v["price"]
	if !ok {
		return fmt.Errorf("variation is missing a price")
	}
	price, ok := toFloat(raw)
	if !ok {
		return fmt.Errorf("variation price is not a number")
	}
	if price <= 0 {
		return fmt.Errorf("variation price must be greater than zero")
	}
	return nil
}

func toFloat(raw interface{}) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ProductID string    `json:"productId" bson:"productId"`
	Name      string    `json:"name" bson:"name"`
	Price     float64   `json:"price" bson:"price"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	Variation Variation `json:"variation,omitempty" bson:"variation,omitempty"`
}

// Address is the shipping and contact record captured at checkout. Email is
// required on the gateway path because the provider bills against it.
type Address struct {
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
	Email     string `json:"email" bson:"email" validate:"omitempty,email"`
	Street    string `json:"street" bson:"street"`
	City      string `json:"city" bson:"city"`
	State     string `json:"state" bson:"state"`
	ZipCode   string `json:"zipCode" bson:"zipCode"`
	Country   string `json:"country" bson:"country"`
	Phone     string `json:"phone" bson:"phone"`
}

// Order is a customer's purchase attempt and its payment/delivery state.
type Order struct {
	ID            primitive.ObjectID `json:"id" bson:"_id"`
	UserID        primitive.ObjectID `json:"userId" bson:"userId"`
	Items         []OrderItem        `json:"items" bson:"items"`
	Amount        float64            `json:"amount" bson:"amount"`
	Currency      string             `json:"currency" bson:"currency"`
	Address       Address            `json:"address" bson:"address"`
	PaymentMethod PaymentMethod      `json:"paymentMethod" bson:"paymentMethod"`
	Payment       bool               `json:"payment" bson:"payment"`
	Status        string             `json:"status" bson:"status"`
	Lifecycle     Lifecycle          `json:"lifecycle" bson:"lifecycle"`
	CancelReason  string             `json:"cancelReason,omitempty" bson:"cancelReason,omitempty"`
	Revision      int64              `json:"revision" bson:"revision"`
	Date          time.Time          `json:"date" bson:"date"`
}

// ValidateItems checks every line item's variation before the order is
// persisted.
func ValidateItems(items []OrderItem) error {
	for i, item := range items {
		if err := item.Variation.ValidatePrice(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}
