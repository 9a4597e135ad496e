package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/library/service"
	"github.com/kevinaaaquil/library/utils"
	"go.uber.org/zap"
)

type BooksHandler struct {
	Catalog  *service.Catalog
	Validate *Validator
	Logger   *zap.Logger
}

type homeQuery struct {
	Limit int `json:"limit" validate:"min=1,max=50"`
}

type homeResponse struct {
	Recommended         []bookListItem `json:"recommended"`
	NewArrivals         []bookListItem `json:"newArrivals"`
	CommanderRecommends []bookListItem `json:"commanderRecommends"`
}

// Home serves GET /books/home.
func (h *BooksHandler) Home(w http.ResponseWriter, r *http.Request) {
	qr := newQueryReader(r, "limit")
	q := homeQuery{Limit: qr.Int("limit", service.DefaultHomeLimit)}
	if err := qr.Err(h.Validate, &q); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	// Without an explicit limit the configured section size applies.
	limit := q.Limit
	if qr.String("limit") == "" {
		limit = 0
	}
	sections, err := h.Catalog.HomeSections(r.Context(), limit)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, homeResponse{
		Recommended:         toListItems(sections.Recommended),
		NewArrivals:         toListItems(sections.NewArrivals),
		CommanderRecommends: toListItems(sections.CommanderRecommends),
	})
}

type catalogQuery struct {
	Page         int      `json:"page" validate:"min=1,max=100000"`
	PageSize     int      `json:"pageSize" validate:"min=1,max=100"`
	Authors      []string `json:"author" validate:"dive,max=200"`
	Statuses     []string `json:"status" validate:"dive,oneof=in_stock reserved issued"`
	Difficulties []string `json:"difficulty" validate:"dive,oneof=basic medium advanced"`
	SortBy       string   `json:"sortBy" validate:"omitempty,oneof=popularity title"`
	SortOrder    string   `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Section      string   `json:"section" validate:"omitempty,oneof=recommended new commander"`
}

type catalogResponse struct {
	Items []bookListItem `json:"items"`
	utils.PaginationMeta
	AppliedFilters service.AppliedFilters `json:"appliedFilters"`
}

// List serves GET /books.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	qr := newQueryReader(r, "page", "pageSize", "author", "status", "difficulty", "sortBy", "sortOrder", "section")
	q := catalogQuery{
		Page:         qr.Int("page", 1),
		PageSize:     qr.Int("pageSize", 12),
		Authors:      qr.Strings("author"),
		Statuses:     qr.Strings("status"),
		Difficulties: qr.Strings("difficulty"),
		SortBy:       qr.String("sortBy"),
		SortOrder:    qr.String("sortOrder"),
		Section:      qr.String("section"),
	}
	if err := qr.Err(h.Validate, &q); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	page, err := h.Catalog.Browse(r.Context(), service.CatalogRequest{
		Page:         q.Page,
		PageSize:     q.PageSize,
		Authors:      q.Authors,
		Statuses:     q.Statuses,
		Difficulties: q.Difficulties,
		SortBy:       q.SortBy,
		SortOrder:    q.SortOrder,
		Section:      q.Section,
	})
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{
		Items:          toListItems(page.Items),
		PaginationMeta: page.PaginationMeta,
		AppliedFilters: page.AppliedFilters,
	})
}

type filtersQuery struct {
	Section string `json:"section" validate:"omitempty,oneof=recommended new commander"`
}

// Filters serves GET /books/filters.
func (h *BooksHandler) Filters(w http.ResponseWriter, r *http.Request) {
	qr := newQueryReader(r, "section")
	q := filtersQuery{Section: qr.String("section")}
	if err := qr.Err(h.Validate, &q); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	opts, err := h.Catalog.Filters(r.Context(), q.Section)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// q length is checked by the catalog so a short query reports invalid_query.
type searchQuery struct {
	Limit  int    `json:"limit" validate:"min=1,max=50"`
	Status string `json:"status" validate:"omitempty,oneof=in_stock reserved issued"`
}

type searchResponse struct {
	Items      []bookSearchItem `json:"items"`
	TotalItems int64            `json:"totalItems"`
}

// Search serves GET /books/search.
func (h *BooksHandler) Search(w http.ResponseWriter, r *http.Request) {
	qr := newQueryReader(r, "q", "limit", "status")
	q := searchQuery{Limit: qr.Int("limit", 10), Status: qr.String("status")}
	if err := qr.Err(h.Validate, &q); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	res, err := h.Catalog.Search(r.Context(), qr.String("q"), q.Limit, q.Status)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Items:      toSearchItems(res.Items),
		TotalItems: res.TotalItems,
	})
}

// Get serves GET /books/{id}.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := newQueryReader(r).Err(h.Validate, &struct{}{}); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	book, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookDetail(book))
}

type createBookRequest struct {
	Title           string   `json:"title" validate:"required,min=1,max=200"`
	Author          string   `json:"author" validate:"required,min=1,max=200"`
	CoverURL        string   `json:"coverUrl" validate:"required,url"`
	Status          string   `json:"status" validate:"omitempty,oneof=in_stock reserved issued"`
	Description     string   `json:"description" validate:"max=2000"`
	Difficulty      string   `json:"difficulty" validate:"omitempty,oneof=basic medium advanced"`
	PopularityScore *int     `json:"popularityScore" validate:"omitempty,min=0"`
	SectionTags     []string `json:"sectionTags" validate:"dive,oneof=recommended new commander"`
}

// Create serves POST /books.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	trimAll(&req.Title, &req.Author, &req.CoverURL, &req.Description)
	if err := h.Validate.Validate(&req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	in := service.NewBook{
		Title:       req.Title,
		Author:      req.Author,
		CoverURL:    req.CoverURL,
		Status:      req.Status,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		SectionTags: req.SectionTags,
	}
	if req.PopularityScore != nil {
		in.PopularityScore = *req.PopularityScore
	}
	book, err := h.Catalog.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	h.Logger.Info("book created", zap.String("book_id", book.ID.Hex()))
	writeJSON(w, http.StatusCreated, toBookDetail(book))
}

// Delete serves DELETE /books/{id}.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	h.Logger.Info("book deleted", zap.String("book_id", id))
	w.WriteHeader(http.StatusNoContent)
}
