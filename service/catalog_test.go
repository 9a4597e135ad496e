package service_test

import (
	"context"
	"testing"

	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/service"
	"github.com/kevinaaaquil/library/store/stubs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedCatalog(t *testing.T) (*service.Catalog, *stubs.MemoryDB) {
	t.Helper()
	db := stubs.NewMemoryDB()
	books := []models.Book{
		{Title: "Тигролови", Author: "Іван Багряний", Difficulty: models.DifficultyMedium, PopularityScore: 90,
			SectionTags: []models.SectionTag{models.SectionRecommended}},
		{Title: "Сад Гетсиманський", Author: "Іван Багряний", Difficulty: models.DifficultyAdvanced, PopularityScore: 80,
			SectionTags: []models.SectionTag{models.SectionRecommended, models.SectionCommander}},
		{Title: "Захар Беркут", Author: "Іван Франко", Difficulty: models.DifficultyBasic, PopularityScore: 50,
			SectionTags: []models.SectionTag{models.SectionNew}},
		{Title: "Місто", Author: "Валер'ян Підмогильний", Difficulty: models.DifficultyMedium, PopularityScore: 70,
			SectionTags: []models.SectionTag{models.SectionNew, models.SectionCommander}},
	}
	for i := range books {
		books[i].CoverURL = "https://covers.example.com/books/cover.jpg"
		books[i].Status = models.BookInStock
	}
	_, err := db.InsertBooks(context.Background(), books)
	require.NoError(t, err)
	return service.NewCatalog(db, 0), db
}

func titles(books []models.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func TestHomeSections(t *testing.T) {
	catalog, db := seedCatalog(t)
	ctx := context.Background()

	home, err := catalog.HomeSections(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Тигролови", "Сад Гетсиманський"}, titles(home.Recommended))
	assert.Equal(t, []string{"Місто", "Захар Беркут"}, titles(home.NewArrivals))
	assert.Equal(t, []string{"Сад Гетсиманський", "Місто"}, titles(home.CommanderRecommends))

	home, err = catalog.HomeSections(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, home.Recommended, 1)

	// Reserved books drop out of the home page.
	reserved, err := db.ReserveBook(ctx, home.Recommended[0].ID)
	require.NoError(t, err)
	require.NotNil(t, reserved)
	home, err = catalog.HomeSections(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Сад Гетсиманський"}, titles(home.Recommended))
}

func TestBrowse(t *testing.T) {
	catalog, _ := seedCatalog(t)
	ctx := context.Background()

	page, err := catalog.Browse(ctx, service.CatalogRequest{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"Тигролови", "Сад Гетсиманський", "Місто"}, titles(page.Items))
	assert.EqualValues(t, 4, page.TotalItems)
	assert.EqualValues(t, 2, page.TotalPages)
	assert.Equal(t, "popularity", page.AppliedFilters.SortBy)
	assert.Equal(t, []string{}, page.AppliedFilters.Authors)

	page, err = catalog.Browse(ctx, service.CatalogRequest{Page: 1, PageSize: 10, SortBy: "title"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Захар Беркут", "Місто", "Сад Гетсиманський", "Тигролови"}, titles(page.Items))

	page, err = catalog.Browse(ctx, service.CatalogRequest{Page: 1, PageSize: 10, SortBy: "popularity", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, "Захар Беркут", page.Items[0].Title)

	page, err = catalog.Browse(ctx, service.CatalogRequest{
		Page: 1, PageSize: 10,
		Authors:      []string{"Іван Багряний"},
		Difficulties: []string{"advanced"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Сад Гетсиманський"}, titles(page.Items))
	assert.Equal(t, []string{"advanced"}, page.AppliedFilters.Difficulties)

	page, err = catalog.Browse(ctx, service.CatalogRequest{Page: 1, PageSize: 10, Section: "commander"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalItems)

	page, err = catalog.Browse(ctx, service.CatalogRequest{Page: 5, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 1, page.TotalPages)
}

func TestBrowseRejectsBadInput(t *testing.T) {
	catalog, _ := seedCatalog(t)
	ctx := context.Background()

	_, err := catalog.Browse(ctx, service.CatalogRequest{Page: 0, PageSize: 10})
	assert.True(t, service.HasCode(err, service.CodeInvalidParams))
	_, err = catalog.Browse(ctx, service.CatalogRequest{Page: 92233720368547760, PageSize: 100})
	assert.True(t, service.HasCode(err, service.CodeInvalidParams))

	_, err = catalog.Browse(ctx, service.CatalogRequest{Page: 1, PageSize: 10, Statuses: []string{"lost"}, SortBy: "rating"})
	apiErr, ok := service.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, service.CodeValidation, apiErr.Code)
	assert.Contains(t, apiErr.Fields, "status")
	assert.Contains(t, apiErr.Fields, "sortBy")
}

func TestFilters(t *testing.T) {
	catalog, _ := seedCatalog(t)
	ctx := context.Background()

	opts, err := catalog.Filters(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Іван Багряний", "Іван Франко", "Валер'ян Підмогильний"}, opts.Authors)
	require.Len(t, opts.Statuses, 3)
	assert.Equal(t, "in_stock", opts.Statuses[0].Value)
	assert.Equal(t, "В наявності", opts.Statuses[0].Label)
	require.Len(t, opts.Difficulties, 3)
	assert.Equal(t, "advanced", opts.Difficulties[2].ID)
	assert.Equal(t, "Поглиблений", opts.Difficulties[2].Label)

	opts, err = catalog.Filters(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, []string{"Іван Франко", "Валер'ян Підмогильний"}, opts.Authors)
}

func TestSearch(t *testing.T) {
	catalog, db := seedCatalog(t)
	ctx := context.Background()

	_, err := catalog.Search(ctx, " т ", 10, "")
	assert.True(t, service.HasCode(err, service.CodeInvalidQuery))

	res, err := catalog.Search(ctx, "ти", 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Тигролови"}, titles(res.Items))
	assert.EqualValues(t, 1, res.TotalItems)

	res, err = catalog.Search(ctx, "БАГРЯНИЙ", 1, "")
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.EqualValues(t, 2, res.TotalItems)

	db.SetBookStatus(res.Items[0].ID, models.BookIssued)
	res, err = catalog.Search(ctx, "багряний", 10, "in_stock")
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalItems)

	res, err = catalog.Search(ctx, "(.*)", 10, "")
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestGetCreateDelete(t *testing.T) {
	catalog, _ := seedCatalog(t)
	ctx := context.Background()

	_, err := catalog.Create(ctx, service.NewBook{Title: " ", Author: "", CoverURL: "x", PopularityScore: -1})
	apiErr, ok := service.AsAPIError(err)
	require.True(t, ok)
	assert.Contains(t, apiErr.Fields, "title")
	assert.Contains(t, apiErr.Fields, "author")
	assert.Contains(t, apiErr.Fields, "popularityScore")

	book, err := catalog.Create(ctx, service.NewBook{
		Title:       "Intermezzo",
		Author:      "Михайло Коцюбинський",
		CoverURL:    "https://covers.example.com/books/intermezzo.jpg",
		SectionTags: []string{"new", "new"},
	})
	require.NoError(t, err)
	assert.False(t, book.ID.IsZero())
	assert.Equal(t, models.BookInStock, book.Status)
	assert.Equal(t, []models.SectionTag{models.SectionNew}, book.SectionTags)

	got, err := catalog.Get(ctx, book.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Intermezzo", got.Title)

	require.NoError(t, catalog.Delete(ctx, book.ID.Hex()))
	_, err = catalog.Get(ctx, book.ID.Hex())
	assert.True(t, service.HasCode(err, service.CodeBookNotFound))
	assert.True(t, service.HasCode(catalog.Delete(ctx, book.ID.Hex()), service.CodeBookNotFound))
	assert.True(t, service.HasCode(catalog.Delete(ctx, "nope"), service.CodeBookNotFound))

	_, err = catalog.Get(ctx, primitive.NewObjectID().Hex())
	assert.True(t, service.HasCode(err, service.CodeBookNotFound))
}
