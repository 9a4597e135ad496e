package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kevinaaaquil/library/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// InsertReservation stores r and fills in its id and timestamps.
func (db *DB) InsertReservation(ctx context.Context, r *models.Reservation) error {
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Status == "" {
		r.Status = models.ReservationPending
	}
	res, err := db.Reservations().InsertOne(ctx, r)
	if err != nil {
		return err
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ReservationByID returns nil, nil when the reservation does not exist.
func (db *DB) ReservationByID(ctx context.Context, id primitive.ObjectID) (*models.Reservation, error) {
	var r models.Reservation
	err := db.Reservations().FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReservations returns one page, newest first, with the total count for the same filter.
func (db *DB) ListReservations(ctx context.Context, status models.ReservationStatus, page, pageSize int) ([]models.Reservation, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(models.PageSkip(page, pageSize)).
		SetLimit(int64(pageSize))

	var (
		items []models.Reservation
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cur, err := db.Reservations().Find(gctx, filter, opts)
		if err != nil {
			return err
		}
		defer cur.Close(gctx)
		if err := cur.All(gctx, &items); err != nil {
			return fmt.Errorf("decode reservations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = db.Reservations().CountDocuments(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateReservationStatus moves a reservation from one status to another only if it is still in from.
// Returns nil, nil when the reservation is gone or its status changed underneath.
func (db *DB) UpdateReservationStatus(ctx context.Context, id primitive.ObjectID, from, to models.ReservationStatus) (*models.Reservation, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Reservation
	err := db.Reservations().FindOneAndUpdate(ctx, filter, update, opts).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
