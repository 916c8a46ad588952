package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-api/models"
	"storefront-api/services"
)

var _ services.UserStore = (*UserRepo)(nil)

// UserRepo is the MongoDB implementation of services.UserStore.
type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(coll *mongo.Collection) *UserRepo {
	return &UserRepo{coll: coll}
}

func (r *UserRepo) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"cart": []models.CartItem{}}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrUserNotFound
	}
	return nil
}
