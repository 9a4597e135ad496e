package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultHomeLimit    = 8
	MinSearchQueryRunes = 2
)

type CatalogStore interface {
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error)
	DeleteBook(ctx context.Context, id primitive.ObjectID) (bool, error)
	HomeSection(ctx context.Context, tag models.SectionTag, limit int) ([]models.Book, error)
	CatalogBooks(ctx context.Context, q models.CatalogQuery) ([]models.Book, int64, error)
	DistinctAuthors(ctx context.Context, section models.SectionTag) ([]string, error)
	SearchBooks(ctx context.Context, q string, limit int, status models.BookStatus) ([]models.Book, error)
	CountSearch(ctx context.Context, q string, status models.BookStatus) (int64, error)
}

// Catalog is the read side over books, plus the admin create/delete operations.
type Catalog struct {
	store     CatalogStore
	homeLimit int
}

func NewCatalog(store CatalogStore, homeLimit int) *Catalog {
	if homeLimit <= 0 {
		homeLimit = DefaultHomeLimit
	}
	return &Catalog{store: store, homeLimit: homeLimit}
}

type HomeSections struct {
	Recommended         []models.Book
	NewArrivals         []models.Book
	CommanderRecommends []models.Book
}

// HomeSections returns the three curated in-stock lists. limit <= 0 uses the configured default.
func (c *Catalog) HomeSections(ctx context.Context, limit int) (*HomeSections, error) {
	if limit <= 0 {
		limit = c.homeLimit
	}
	var out HomeSections
	g, gctx := errgroup.WithContext(ctx)
	load := func(tag models.SectionTag, dst *[]models.Book) {
		g.Go(func() error {
			books, err := c.store.HomeSection(gctx, tag, limit)
			if err != nil {
				return fmt.Errorf("home section %s: %w", tag, err)
			}
			*dst = books
			return nil
		})
	}
	load(models.SectionRecommended, &out.Recommended)
	load(models.SectionNew, &out.NewArrivals)
	load(models.SectionCommander, &out.CommanderRecommends)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

type CatalogRequest struct {
	Page         int
	PageSize     int
	Authors      []string
	Statuses     []string
	Difficulties []string
	SortBy       string // popularity (default) or title
	SortOrder    string // empty picks desc for popularity, asc for title
	Section      string
}

type AppliedFilters struct {
	Authors      []string `json:"authors"`
	Statuses     []string `json:"statuses"`
	Difficulties []string `json:"difficulties"`
	SortBy       string   `json:"sortBy"`
}

type CatalogPage struct {
	Items []models.Book
	utils.PaginationMeta
	AppliedFilters AppliedFilters
}

func (c *Catalog) Browse(ctx context.Context, req CatalogRequest) (*CatalogPage, error) {
	if req.Page < 1 || req.PageSize < 1 {
		return nil, NewInvalidParams("Page and pageSize must be positive integers")
	}
	if req.Page > models.MaxPage {
		return nil, NewInvalidParams(fmt.Sprintf("Page must not exceed %d", models.MaxPage))
	}
	q, err := resolveCatalogQuery(req)
	if err != nil {
		return nil, err
	}
	books, total, err := c.store.CatalogBooks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return &CatalogPage{
		Items:          books,
		PaginationMeta: utils.BuildPaginationMeta(req.Page, req.PageSize, total),
		AppliedFilters: AppliedFilters{
			Authors:      nonNil(req.Authors),
			Statuses:     nonNil(req.Statuses),
			Difficulties: nonNil(req.Difficulties),
			SortBy:       string(q.SortBy),
		},
	}, nil
}

func resolveCatalogQuery(req CatalogRequest) (models.CatalogQuery, error) {
	fields := map[string]string{}
	q := models.CatalogQuery{Page: req.Page, PageSize: req.PageSize}

	q.Filter.Authors = req.Authors
	for _, s := range req.Statuses {
		if !models.ValidBookStatus(s) {
			fields["status"] = "status must be one of in_stock, reserved, issued"
			continue
		}
		q.Filter.Statuses = append(q.Filter.Statuses, models.BookStatus(s))
	}
	for _, d := range req.Difficulties {
		if !models.ValidDifficulty(d) {
			fields["difficulty"] = "difficulty must be one of basic, medium, advanced"
			continue
		}
		q.Filter.Difficulties = append(q.Filter.Difficulties, models.Difficulty(d))
	}
	if req.Section != "" {
		if !models.ValidSectionTag(req.Section) {
			fields["section"] = "section must be one of recommended, new, commander"
		}
		q.Filter.Section = models.SectionTag(req.Section)
	}

	switch req.SortBy {
	case "", string(models.SortByPopularity):
		q.SortBy = models.SortByPopularity
	case string(models.SortByTitle):
		q.SortBy = models.SortByTitle
	default:
		fields["sortBy"] = "sortBy must be one of popularity, title"
	}
	switch req.SortOrder {
	case "":
		if q.SortBy == models.SortByTitle {
			q.Order = models.SortAsc
		} else {
			q.Order = models.SortDesc
		}
	case string(models.SortAsc), string(models.SortDesc):
		q.Order = models.SortOrder(req.SortOrder)
	default:
		fields["sortOrder"] = "sortOrder must be one of asc, desc"
	}

	if len(fields) > 0 {
		return q, NewValidationError(fields)
	}
	return q, nil
}

type FilterOptions struct {
	Authors      []string                 `json:"authors"`
	Statuses     []utils.StatusOption     `json:"statuses"`
	Difficulties []utils.DifficultyOption `json:"difficulties"`
}

// Filters lists distinct authors (scoped to section when given) and the static status/difficulty labels.
func (c *Catalog) Filters(ctx context.Context, section string) (*FilterOptions, error) {
	if section != "" && !models.ValidSectionTag(section) {
		return nil, NewValidationError(map[string]string{"section": "section must be one of recommended, new, commander"})
	}
	authors, err := c.store.DistinctAuthors(ctx, models.SectionTag(section))
	if err != nil {
		return nil, fmt.Errorf("distinct authors: %w", err)
	}
	return &FilterOptions{
		Authors:      nonNil(authors),
		Statuses:     utils.StatusOptions(),
		Difficulties: utils.DifficultyOptions(),
	}, nil
}

type SearchResult struct {
	Items      []models.Book
	TotalItems int64
}

// Search finds books whose title or author contains q, ignoring case. q must have at least two characters.
func (c *Catalog) Search(ctx context.Context, q string, limit int, status string) (*SearchResult, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < MinSearchQueryRunes {
		return nil, NewInvalidQuery("Query must be at least 2 characters")
	}
	if status != "" && !models.ValidBookStatus(status) {
		return nil, NewValidationError(map[string]string{"status": "status must be one of in_stock, reserved, issued"})
	}
	if limit < 1 {
		limit = 10
	}
	st := models.BookStatus(status)

	var (
		items []models.Book
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = c.store.SearchBooks(gctx, q, limit, st)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = c.store.CountSearch(gctx, q, st)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}
	return &SearchResult{Items: items, TotalItems: total}, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*models.Book, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, errBookNotFound
	}
	book, err := c.store.BookByID(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("load book %s: %w", id, err)
	}
	if book == nil {
		return nil, errBookNotFound
	}
	return book, nil
}

type NewBook struct {
	Title           string
	Author          string
	CoverURL        string
	Status          string
	Description     string
	Difficulty      string
	PopularityScore int
	SectionTags     []string
}

func (c *Catalog) Create(ctx context.Context, in NewBook) (*models.Book, error) {
	fields := map[string]string{}
	book := &models.Book{
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		CoverURL:        strings.TrimSpace(in.CoverURL),
		Status:          models.BookInStock,
		Description:     strings.TrimSpace(in.Description),
		PopularityScore: in.PopularityScore,
	}
	if book.Title == "" {
		fields["title"] = "title is required"
	}
	if book.Author == "" {
		fields["author"] = "author is required"
	}
	if book.CoverURL == "" {
		fields["coverUrl"] = "coverUrl is required"
	}
	if in.Status != "" {
		if !models.ValidBookStatus(in.Status) {
			fields["status"] = "status must be one of in_stock, reserved, issued"
		}
		book.Status = models.BookStatus(in.Status)
	}
	if in.Difficulty != "" {
		if !models.ValidDifficulty(in.Difficulty) {
			fields["difficulty"] = "difficulty must be one of basic, medium, advanced"
		}
		book.Difficulty = models.Difficulty(in.Difficulty)
	}
	if in.PopularityScore < 0 {
		fields["popularityScore"] = "popularityScore must be greater than or equal to 0"
	}
	seen := map[string]bool{}
	for _, tag := range in.SectionTags {
		if !models.ValidSectionTag(tag) {
			fields["sectionTags"] = "sectionTags must contain only recommended, new, commander"
			continue
		}
		if !seen[tag] {
			seen[tag] = true
			book.SectionTags = append(book.SectionTags, models.SectionTag(tag))
		}
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	id, err := c.store.InsertBook(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	book.ID = id
	return book, nil
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return errBookNotFound
	}
	deleted, err := c.store.DeleteBook(ctx, oid)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	if !deleted {
		return errBookNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
