package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	Id       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name     string             `bson:"name" json:"name" validate:"required"`
	Email    string             `bson:"email" json:"email" validate:"required,email"`
	Password string             `bson:"password" json:"-"`
	Type     string             `bson:"type,omitempty" json:"type,omitempty" validate:"omitempty,oneof=user admin"`
	Cart     []CartItem         `bson:"cart" json:"cart"`
}

type CartItem struct {
	ProductID string `bson:"productId" json:"productId"`
	Size      string `bson:"size,omitempty" json:"size,omitempty"`
	Quantity  int    `bson:"quantity" json:"quantity" validate:"required,min=1"`
}
