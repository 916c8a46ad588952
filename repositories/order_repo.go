package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-api/models"
	"storefront-api/services"
)

var _ services.OrderStore = (*OrderRepo)(nil)

// OrderRepo is the MongoDB implementation of services.OrderStore.
type OrderRepo struct {
	coll *mongo.Collection
}

func NewOrderRepo(coll *mongo.Collection) *OrderRepo {
	return &OrderRepo{coll: coll}
}

func (r *OrderRepo) Insert(ctx context.Context, order *models.Order) error {
	_, err := r.coll.InsertOne(ctx, order)
	return err
}

func (r *OrderRepo) FindActive(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	filter := bson.M{
		"_id":       id,
		"lifecycle": bson.M{"$ne": models.LifecycleCancelled},
	}

	var order models.Order
	if err := r.coll.FindOne(ctx, filter).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) FindAll(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *OrderRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.find(ctx, bson.M{
		"userId":    userID,
		"lifecycle": bson.M{"$ne": models.LifecycleCancelled},
	})
}

func (r *OrderRepo) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepo) ConfirmPayment(ctx context.Context, id primitive.ObjectID, expectedRevision int64) (*models.Order, error) {
	filter := bson.M{
		"_id":       id,
		"revision":  expectedRevision,
		"lifecycle": bson.M{"$ne": models.LifecycleCancelled},
	}
	update := bson.M{
		"$set": bson.M{
			"payment":   true,
			"status":    models.StatusOrderReceived,
			"lifecycle": models.LifecycleConfirmed,
		},
		"$inc": bson.M{"revision": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Order
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}
	return nil, r.missOrMismatch(ctx, id)
}

func (r *OrderRepo) Cancel(ctx context.Context, id primitive.ObjectID, expectedRevision int64, reason string) error {
	filter := bson.M{"_id": id, "revision": expectedRevision}
	update := bson.M{
		"$set": bson.M{
			"lifecycle":    models.LifecycleCancelled,
			"status":       models.StatusCancelled,
			"cancelReason": reason,
		},
		"$inc": bson.M{"revision": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.missOrMismatch(ctx, id)
	}
	return nil
}

func (r *OrderRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return services.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	set := bson.M{"status": status}
	if status == models.StatusCancelled {
		set["lifecycle"] = models.LifecycleCancelled
	}
	update := bson.M{"$set": set, "$inc": bson.M{"revision": 1}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepo) SetPayment(ctx context.Context, id primitive.ObjectID, paid bool) error {
	update := bson.M{"$set": bson.M{"payment": paid}, "$inc": bson.M{"revision": 1}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrOrderNotFound
	}
	return nil
}

// missOrMismatch tells a stale revision apart from a row that is gone or
// cancelled.
func (r *OrderRepo) missOrMismatch(ctx context.Context, id primitive.ObjectID) error {
	count, err := r.coll.CountDocuments(ctx, bson.M{
		"_id":       id,
		"lifecycle": bson.M{"$ne": models.LifecycleCancelled},
	})
	if err != nil {
		return err
	}
	if count > 0 {
		return services.ErrRevisionMismatch
	}
	return services.ErrOrderNotFound
}
