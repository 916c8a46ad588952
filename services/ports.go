package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-api/models"
)

var (
	// ErrOrderNotFound covers both truly absent orders and cancelled ones:
	// a cancelled order is gone as far as the workflow is concerned.
	ErrOrderNotFound = errors.New("order not found")

	// ErrRevisionMismatch means the order changed between read and write.
	ErrRevisionMismatch = errors.New("order revision mismatch")

	ErrUserNotFound = errors.New("user not found")
)

// OrderStore is the persistence surface the workflow needs for orders.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error

	// FindActive returns the order unless it is absent or cancelled, in
	// which case it returns ErrOrderNotFound.
	FindActive(ctx context.Context, id primitive.ObjectID) (*models.Order, error)

	FindAll(ctx context.Context) ([]models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)

	// ConfirmPayment marks the order paid and confirmed, guarded by the
	// expected revision. Returns the updated order, ErrRevisionMismatch on a
	// lost race, or ErrOrderNotFound.
	ConfirmPayment(ctx context.Context, id primitive.ObjectID, expectedRevision int64) (*models.Order, error)

	// Cancel retains the row with lifecycle=cancelled and the given reason,
	// guarded by the expected revision.
	Cancel(ctx context.Context, id primitive.ObjectID, expectedRevision int64, reason string) error

	Delete(ctx context.Context, id primitive.ObjectID) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	SetPayment(ctx context.Context, id primitive.ObjectID, paid bool) error
}

// UserStore is the slice of the user record store the workflow touches.
type UserStore interface {
	ClearCart(ctx context.Context, userID primitive.ObjectID) error
}
