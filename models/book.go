package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookStatus is the availability state of a book. It is the single source of truth for whether a book can be reserved.
type BookStatus string

const (
	BookInStock  BookStatus = "in_stock"
	BookReserved BookStatus = "reserved"
	BookIssued   BookStatus = "issued" // set manually by staff, never by the reservation flow
)

var BookStatuses = []BookStatus{BookInStock, BookReserved, BookIssued}

type Difficulty string

const (
	DifficultyBasic    Difficulty = "basic"
	DifficultyMedium   Difficulty = "medium"
	DifficultyAdvanced Difficulty = "advanced"
)

var Difficulties = []Difficulty{DifficultyBasic, DifficultyMedium, DifficultyAdvanced}

// SectionTag curates home page groupings.
type SectionTag string

const (
	SectionRecommended SectionTag = "recommended"
	SectionNew         SectionTag = "new"
	SectionCommander   SectionTag = "commander"
)

var SectionTags = []SectionTag{SectionRecommended, SectionNew, SectionCommander}

type Book struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Author          string             `bson:"author" json:"author"`
	CoverURL        string             `bson:"coverUrl" json:"coverUrl"`
	Status          BookStatus         `bson:"status" json:"status"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Difficulty      Difficulty         `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	PopularityScore int                `bson:"popularityScore" json:"popularityScore"`
	SectionTags     []SectionTag       `bson:"sectionTags,omitempty" json:"sectionTags,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasTag reports whether the book carries the given section tag.
func (b *Book) HasTag(tag SectionTag) bool {
	for _, t := range b.SectionTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Reservable reports whether the book is currently free to reserve.
func (b *Book) Reservable() bool {
	return b.Status == BookInStock
}

func ValidBookStatus(s string) bool {
	for _, v := range BookStatuses {
		if string(v) == s {
			return true
		}
	}
	return false
}

func ValidDifficulty(s string) bool {
	for _, v := range Difficulties {
		if string(v) == s {
			return true
		}
	}
	return false
}

func ValidSectionTag(s string) bool {
	for _, v := range SectionTags {
		if string(v) == s {
			return true
		}
	}
	return false
}

// CatalogSortBy selects the catalog ordering field.
type CatalogSortBy string

const (
	SortByPopularity CatalogSortBy = "popularity"
	SortByTitle      CatalogSortBy = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// CatalogFilter narrows the catalog listing. Empty slices mean "no restriction".
type CatalogFilter struct {
	Authors      []string
	Statuses     []BookStatus
	Difficulties []Difficulty
	Section      SectionTag
}

// CatalogQuery is a resolved catalog request: filter, explicit sort direction and page window.
type CatalogQuery struct {
	Filter   CatalogFilter
	SortBy   CatalogSortBy
	Order    SortOrder
	Page     int
	PageSize int
}

// MaxPage is the highest page number accepted by paginated listings.
const MaxPage = 100000

// Skip returns the number of documents before the requested page.
func (q CatalogQuery) Skip() int64 {
	return PageSkip(q.Page, q.PageSize)
}

// PageSkip returns (page-1)*pageSize, 0 for a non-positive page or size, and saturates at math.MaxInt64 instead of wrapping.
func PageSkip(page, pageSize int) int64 {
	if page < 1 || pageSize < 1 {
		return 0
	}
	p, size := int64(page-1), int64(pageSize)
	if p > math.MaxInt64/size {
		return math.MaxInt64
	}
	return p * size
}
