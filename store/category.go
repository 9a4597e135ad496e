package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/library/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) AllCategories(ctx context.Context) ([]models.Category, error) {
	cur, err := db.Categories().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var categories []models.Category
	if err := cur.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// UpsertCategory inserts or refreshes a category keyed by name.
func (db *DB) UpsertCategory(ctx context.Context, c *models.Category) error {
	set := bson.M{
		"name":    c.Name,
		"iconUrl": c.IconURL,
		"href":    c.Href,
	}
	update := bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": time.Now().UTC()}}
	_, err := db.Categories().UpdateOne(ctx, bson.M{"name": c.Name}, update, options.Update().SetUpsert(true))
	return err
}
