package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string, logger *zap.Logger) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Info("connected to MongoDB", zap.String("db", dbName))
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (db *DB) Books() *mongo.Collection {
	return db.Database.Collection("books")
}

func (db *DB) Reservations() *mongo.Collection {
	return db.Database.Collection("reservations")
}

func (db *DB) Categories() *mongo.Collection {
	return db.Database.Collection("categories")
}

// EnsureIndexes creates the indexes backing catalog search, filtering and reservation lookups. It is idempotent.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	bookIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "author", Value: "text"}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "difficulty", Value: 1}}},
		{Keys: bson.D{{Key: "sectionTags", Value: 1}}},
		{Keys: bson.D{{Key: "popularityScore", Value: -1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := db.Books().Indexes().CreateMany(ctx, bookIdx); err != nil {
		return err
	}
	reservationIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "bookId", Value: 1}}},
		{Keys: bson.D{{Key: "phone", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := db.Reservations().Indexes().CreateMany(ctx, reservationIdx); err != nil {
		return err
	}
	_, err := db.Categories().Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}})
	return err
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, nil)
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}
