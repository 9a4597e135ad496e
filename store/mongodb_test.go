package store

import (
	"context"
	"sync"
	"testing"

	"github.com/kevinaaaquil/library/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	mongodbTC "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// setupTestDB starts a throwaway MongoDB and returns a connected DB with indexes in place.
func setupTestDB(t *testing.T) *DB {
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := mongodbTC.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "Failed to start MongoDB container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := NewMongoDB(ctx, uri, "library_test", zap.NewNop())
	require.NoError(t, err, "Failed to connect to MongoDB")
	t.Cleanup(func() { _ = db.Disconnect(context.Background()) })

	require.NoError(t, db.EnsureIndexes(ctx))
	require.NoError(t, db.EnsureIndexes(ctx), "indexes are idempotent")
	return db
}

func seedBooks(t *testing.T, db *DB) []models.Book {
	ctx := context.Background()
	books := []models.Book{
		{Title: "Тигролови", Author: "Іван Багряний", CoverURL: "https://c/1.jpg", Difficulty: models.DifficultyBasic, PopularityScore: 99, SectionTags: []models.SectionTag{models.SectionRecommended}},
		{Title: "Місто", Author: "Валер'ян Підмогильний", CoverURL: "https://c/2.jpg", Difficulty: models.DifficultyMedium, PopularityScore: 60, SectionTags: []models.SectionTag{models.SectionNew}},
		{Title: "Захар Беркут", Author: "Іван Франко", CoverURL: "https://c/3.jpg", Status: models.BookIssued, PopularityScore: 80, SectionTags: []models.SectionTag{models.SectionRecommended, models.SectionCommander}},
		{Title: "C++ (друге видання)", Author: "Б. Страуструп", CoverURL: "https://c/4.jpg", PopularityScore: 10},
	}
	n, err := db.InsertBooks(ctx, books)
	require.NoError(t, err)
	require.Equal(t, len(books), n)

	page, _, err := db.CatalogBooks(ctx, models.CatalogQuery{SortBy: models.SortByPopularity, Order: models.SortDesc, Page: 1, PageSize: 10})
	require.NoError(t, err)
	return page
}

func TestMongoBooks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	books := seedBooks(t, db)
	require.Len(t, books, 4)
	assert.Equal(t, "Тигролови", books[0].Title)
	assert.Equal(t, models.BookInStock, books[0].Status, "status defaults to in_stock")
	assert.False(t, books[0].CreatedAt.IsZero())

	got, err := db.BookByID(ctx, books[1].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Місто", got.Title)

	got, err = db.BookByID(ctx, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Nil(t, got)

	t.Run("catalog filter and sort", func(t *testing.T) {
		page, total, err := db.CatalogBooks(ctx, models.CatalogQuery{
			Filter:   models.CatalogFilter{Section: models.SectionRecommended},
			SortBy:   models.SortByTitle,
			Order:    models.SortAsc,
			Page:     1,
			PageSize: 1,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, page, 1)
		assert.Equal(t, "Захар Беркут", page[0].Title)

		page, total, err = db.CatalogBooks(ctx, models.CatalogQuery{
			Filter:   models.CatalogFilter{Statuses: []models.BookStatus{models.BookInStock}, Difficulties: []models.Difficulty{models.DifficultyMedium}},
			SortBy:   models.SortByPopularity,
			Order:    models.SortDesc,
			Page:     1,
			PageSize: 10,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, "Місто", page[0].Title)
	})

	t.Run("home section skips unavailable books", func(t *testing.T) {
		section, err := db.HomeSection(ctx, models.SectionRecommended, 8)
		require.NoError(t, err)
		require.Len(t, section, 1)
		assert.Equal(t, "Тигролови", section[0].Title)
	})

	t.Run("distinct authors", func(t *testing.T) {
		authors, err := db.DistinctAuthors(ctx, "")
		require.NoError(t, err)
		assert.Len(t, authors, 4)

		authors, err = db.DistinctAuthors(ctx, models.SectionRecommended)
		require.NoError(t, err)
		assert.Equal(t, []string{"Іван Багряний", "Іван Франко"}, authors)
	})

	t.Run("search escapes regex metacharacters", func(t *testing.T) {
		hits, err := db.SearchBooks(ctx, "c++ (", 10, "")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "C++ (друге видання)", hits[0].Title)

		hits, err = db.SearchBooks(ctx, "іван", 10, models.BookInStock)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		count, err := db.CountSearch(ctx, "іван", "")
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		hits, err = db.SearchBooks(ctx, ".*", 10, "")
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("delete", func(t *testing.T) {
		ok, err := db.DeleteBook(ctx, books[3].ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = db.DeleteBook(ctx, books[3].ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMongoReserveBookIsExclusive(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	id, err := db.InsertBook(ctx, &models.Book{Title: "Місто", Author: "Валер'ян Підмогильний", CoverURL: "https://c/2.jpg"})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := db.ReserveBook(ctx, id)
			assert.NoError(t, err)
			if b != nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)

	b, err := db.BookByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.BookReserved, b.Status)

	b, err = db.ReleaseBook(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, models.BookInStock, b.Status)

	b, err = db.ReleaseBook(ctx, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestMongoReservations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	bookID := primitive.NewObjectID()

	var ids []primitive.ObjectID
	for _, phone := range []string{"+380501111111", "+380502222222", "+380503333333"} {
		r := &models.Reservation{BookID: bookID, FullName: "Петро Сагайдачний", Phone: phone, Subdivision: "1 рота"}
		require.NoError(t, db.InsertReservation(ctx, r))
		assert.False(t, r.ID.IsZero())
		assert.Equal(t, models.ReservationPending, r.Status)
		ids = append(ids, r.ID)
	}

	r, err := db.UpdateReservationStatus(ctx, ids[0], models.ReservationPending, models.ReservationConfirmed)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, models.ReservationConfirmed, r.Status)

	r, err = db.UpdateReservationStatus(ctx, ids[0], models.ReservationPending, models.ReservationRejected)
	require.NoError(t, err)
	assert.Nil(t, r, "stale from status does not match")

	items, total, err := db.ListReservations(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, ids[2], items[0].ID, "newest first")

	items, total, err = db.ListReservations(ctx, models.ReservationConfirmed, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, ids[0], items[0].ID)

	got, err := db.ReservationByID(ctx, ids[1])
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "+380502222222", got.Phone)

	got, err = db.ReservationByID(ctx, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMongoUpsertCategory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertCategory(ctx, &models.Category{Name: "Поезія", IconURL: "https://i/1.svg"}))
	require.NoError(t, db.UpsertCategory(ctx, &models.Category{Name: "Історія", IconURL: "https://i/2.svg"}))
	require.NoError(t, db.UpsertCategory(ctx, &models.Category{Name: "Поезія", IconURL: "https://i/3.svg", Href: "/books?section=new"}))

	cats, err := db.AllCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Історія", cats[0].Name)
	assert.Equal(t, "https://i/3.svg", cats[1].IconURL)
	assert.Equal(t, "/books?section=new", cats[1].Href)
	assert.False(t, cats[1].CreatedAt.IsZero())
}
