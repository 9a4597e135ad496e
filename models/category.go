package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is a home page shortcut tile.
type Category struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	IconURL   string             `bson:"iconUrl" json:"iconUrl"`
	Href      string             `bson:"href,omitempty" json:"href,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
