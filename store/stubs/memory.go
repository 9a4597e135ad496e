package stubs

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kevinaaaquil/library/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryDB is an in-memory implementation of the store operations used by the services.
// Every method holds the lock for its whole body, so ReserveBook is a true compare-and-set.
type MemoryDB struct {
	mu           sync.RWMutex
	books        map[primitive.ObjectID]models.Book
	reservations map[primitive.ObjectID]models.Reservation
	categories   map[string]models.Category
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		books:        make(map[primitive.ObjectID]models.Book),
		reservations: make(map[primitive.ObjectID]models.Reservation),
		categories:   make(map[string]models.Category),
	}
}

func (m *MemoryDB) Ping(ctx context.Context) error { return nil }

func (m *MemoryDB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertBookLocked(book, time.Now().UTC())
	return book.ID, nil
}

func (m *MemoryDB) InsertBooks(ctx context.Context, books []models.Book) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for i := range books {
		m.insertBookLocked(&books[i], now)
	}
	return len(books), nil
}

func (m *MemoryDB) insertBookLocked(book *models.Book, now time.Time) {
	if book.ID.IsZero() {
		book.ID = primitive.NewObjectID()
	}
	if book.Status == "" {
		book.Status = models.BookInStock
	}
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now
	m.books[book.ID] = cloneBook(*book)
}

func (m *MemoryDB) DeleteAllBooks(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.books))
	m.books = make(map[primitive.ObjectID]models.Book)
	return n, nil
}

func (m *MemoryDB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}
	b = cloneBook(b)
	return &b, nil
}

func (m *MemoryDB) BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Book
	for _, id := range ids {
		if b, ok := m.books[id]; ok {
			out = append(out, cloneBook(b))
		}
	}
	return out, nil
}

func (m *MemoryDB) DeleteBook(ctx context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return false, nil
	}
	delete(m.books, id)
	return true, nil
}

func (m *MemoryDB) ReserveBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok || b.Status != models.BookInStock {
		return nil, nil
	}
	return m.setStatusLocked(b, models.BookReserved), nil
}

func (m *MemoryDB) ReleaseBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}
	return m.setStatusLocked(b, models.BookInStock), nil
}

// SetBookStatus changes a book's status directly, the way staff mark a book issued.
func (m *MemoryDB) SetBookStatus(id primitive.ObjectID, status models.BookStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.books[id]; ok {
		m.setStatusLocked(b, status)
	}
}

func (m *MemoryDB) setStatusLocked(b models.Book, status models.BookStatus) *models.Book {
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	m.books[b.ID] = b
	out := cloneBook(b)
	return &out
}

func (m *MemoryDB) HomeSection(ctx context.Context, tag models.SectionTag, limit int) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Book
	for _, b := range m.books {
		if b.Status == models.BookInStock && b.HasTag(tag) {
			out = append(out, cloneBook(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PopularityScore != out[j].PopularityScore {
			return out[i].PopularityScore > out[j].PopularityScore
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryDB) CatalogBooks(ctx context.Context, q models.CatalogQuery) ([]models.Book, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []models.Book
	for _, b := range m.books {
		if catalogMatch(b, q.Filter) {
			matched = append(matched, cloneBook(b))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less, equal bool
		if q.SortBy == models.SortByTitle {
			less, equal = a.Title < b.Title, a.Title == b.Title
		} else {
			less, equal = a.PopularityScore < b.PopularityScore, a.PopularityScore == b.PopularityScore
		}
		if equal {
			return a.ID.Hex() < b.ID.Hex()
		}
		if q.Order == models.SortDesc {
			return !less
		}
		return less
	})
	total := int64(len(matched))
	start, end, ok := window(q.Skip(), q.PageSize, len(matched))
	if !ok {
		return []models.Book{}, total, nil
	}
	return matched[start:end], total, nil
}

func (m *MemoryDB) DistinctAuthors(ctx context.Context, section models.SectionTag) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	authors := []string{}
	for _, b := range m.books {
		if section != "" && !b.HasTag(section) {
			continue
		}
		if !seen[b.Author] {
			seen[b.Author] = true
			authors = append(authors, b.Author)
		}
	}
	sort.Strings(authors)
	return authors, nil
}

func (m *MemoryDB) SearchBooks(ctx context.Context, q string, limit int, status models.BookStatus) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.searchLocked(q, status)
	sort.Slice(out, func(i, j int) bool {
		if out[i].PopularityScore != out[j].PopularityScore {
			return out[i].PopularityScore > out[j].PopularityScore
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryDB) CountSearch(ctx context.Context, q string, status models.BookStatus) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.searchLocked(q, status))), nil
}

func (m *MemoryDB) searchLocked(q string, status models.BookStatus) []models.Book {
	needle := strings.ToLower(q)
	var out []models.Book
	for _, b := range m.books {
		if status != "" && b.Status != status {
			continue
		}
		if strings.Contains(strings.ToLower(b.Title), needle) || strings.Contains(strings.ToLower(b.Author), needle) {
			out = append(out, cloneBook(b))
		}
	}
	return out
}

func (m *MemoryDB) InsertReservation(ctx context.Context, r *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Status == "" {
		r.Status = models.ReservationPending
	}
	m.reservations[r.ID] = *r
	return nil
}

func (m *MemoryDB) ReservationByID(ctx context.Context, id primitive.ObjectID) (*models.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemoryDB) ListReservations(ctx context.Context, status models.ReservationStatus, page, pageSize int) ([]models.Reservation, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []models.Reservation
	for _, r := range m.reservations {
		if status == "" || r.Status == status {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})
	total := int64(len(matched))
	start, end, ok := window(models.PageSkip(page, pageSize), pageSize, len(matched))
	if !ok {
		return []models.Reservation{}, total, nil
	}
	return matched[start:end], total, nil
}

func (m *MemoryDB) UpdateReservationStatus(ctx context.Context, id primitive.ObjectID, from, to models.ReservationStatus) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok || r.Status != from {
		return nil, nil
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	m.reservations[id] = r
	return &r, nil
}

func (m *MemoryDB) AllCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryDB) UpsertCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.categories[c.Name]; ok {
		c.ID, c.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		c.ID = primitive.NewObjectID()
		c.CreatedAt = time.Now().UTC()
	}
	m.categories[c.Name] = *c
	return nil
}

// window converts a skip and page size into slice bounds over n items; ok is false when the page is past the end.
func window(skip int64, pageSize, n int) (start, end int, ok bool) {
	if skip >= int64(n) {
		return 0, 0, false
	}
	start = int(skip)
	end = n
	if pageSize > 0 && pageSize < n-start {
		end = start + pageSize
	}
	return start, end, true
}

func catalogMatch(b models.Book, f models.CatalogFilter) bool {
	if len(f.Authors) > 0 && !containsString(f.Authors, b.Author) {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if s == b.Status {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.Difficulties) > 0 {
		ok := false
		for _, d := range f.Difficulties {
			if d == b.Difficulty {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Section != "" && !b.HasTag(f.Section) {
		return false
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cloneBook(b models.Book) models.Book {
	if b.SectionTags != nil {
		b.SectionTags = append([]models.SectionTag(nil), b.SectionTags...)
	}
	return b
}
