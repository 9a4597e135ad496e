package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/kevinaaaquil/library/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	prepareBook(book, time.Now().UTC())
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// InsertBooks bulk-inserts seed data and returns how many documents were written.
func (db *DB) InsertBooks(ctx context.Context, books []models.Book) (int, error) {
	if len(books) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(books))
	for i := range books {
		prepareBook(&books[i], now)
		docs = append(docs, books[i])
	}
	res, err := db.Books().InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

// DeleteAllBooks wipes the books collection (seeding only).
func (db *DB) DeleteAllBooks(ctx context.Context) (int64, error) {
	res, err := db.Books().DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// BookByID returns nil, nil when the book does not exist.
func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (db *DB) BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return db.findBooks(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

// DeleteBook reports false when nothing matched the id.
func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := db.Books().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// ReserveBook flips a book from in_stock to reserved in one findOneAndUpdate. The status predicate is part of the
// filter, so of any number of concurrent callers exactly one matches. Returns nil, nil when the book is missing or
// not in stock.
func (db *DB) ReserveBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	return db.setBookStatus(ctx,
		bson.M{"_id": id, "status": models.BookInStock},
		models.BookReserved,
	)
}

// ReleaseBook puts a book back in stock whatever its current status. Returns nil, nil when the book is missing.
func (db *DB) ReleaseBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	return db.setBookStatus(ctx, bson.M{"_id": id}, models.BookInStock)
}

func (db *DB) setBookStatus(ctx context.Context, filter bson.M, status models.BookStatus) (*models.Book, error) {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var book models.Book
	err := db.Books().FindOneAndUpdate(ctx, filter, update, opts).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// HomeSection returns the most popular in-stock books carrying tag, newest first on ties.
func (db *DB) HomeSection(ctx context.Context, tag models.SectionTag, limit int) ([]models.Book, error) {
	filter := bson.M{"status": models.BookInStock, "sectionTags": tag}
	opts := options.Find().
		SetSort(bson.D{{Key: "popularityScore", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	return db.findBooks(ctx, filter, opts)
}

// CatalogBooks returns one page of the filtered catalog plus the total number of matches.
func (db *DB) CatalogBooks(ctx context.Context, q models.CatalogQuery) ([]models.Book, int64, error) {
	filter := catalogFilter(q.Filter)

	field := "popularityScore"
	if q.SortBy == models.SortByTitle {
		field = "title"
	}
	dir := 1
	if q.Order == models.SortDesc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}).
		SetSkip(q.Skip()).
		SetLimit(int64(q.PageSize))

	var (
		books []models.Book
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books, err = db.findBooks(gctx, filter, opts)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = db.Books().CountDocuments(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// DistinctAuthors lists authors alphabetically, optionally scoped to a section.
func (db *DB) DistinctAuthors(ctx context.Context, section models.SectionTag) ([]string, error) {
	filter := bson.M{}
	if section != "" {
		filter["sectionTags"] = section
	}
	values, err := db.Books().Distinct(ctx, "author", filter)
	if err != nil {
		return nil, err
	}
	authors := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			authors = append(authors, s)
		}
	}
	sort.Strings(authors)
	return authors, nil
}

// SearchBooks matches q as a case-insensitive substring of title or author.
func (db *DB) SearchBooks(ctx context.Context, q string, limit int, status models.BookStatus) ([]models.Book, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "popularityScore", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return db.findBooks(ctx, searchFilter(q, status), opts)
}

func (db *DB) CountSearch(ctx context.Context, q string, status models.BookStatus) (int64, error) {
	return db.Books().CountDocuments(ctx, searchFilter(q, status))
}

func (db *DB) findBooks(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}

func catalogFilter(f models.CatalogFilter) bson.M {
	filter := bson.M{}
	if len(f.Authors) > 0 {
		filter["author"] = bson.M{"$in": f.Authors}
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if len(f.Difficulties) > 0 {
		filter["difficulty"] = bson.M{"$in": f.Difficulties}
	}
	if f.Section != "" {
		filter["sectionTags"] = f.Section
	}
	return filter
}

func searchFilter(q string, status models.BookStatus) bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	filter := bson.M{
		"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"author": pattern},
		},
	}
	if status != "" {
		filter["status"] = status
	}
	return filter
}

func prepareBook(book *models.Book, now time.Time) {
	if book.Status == "" {
		book.Status = models.BookInStock
	}
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now
}
