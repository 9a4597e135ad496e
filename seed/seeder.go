package seed

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Store interface {
	DeleteAllBooks(ctx context.Context) (int64, error)
	InsertBooks(ctx context.Context, books []models.Book) (int, error)
	UpsertCategory(ctx context.Context, c *models.Category) error
}

// CoverUploader is the object storage the seeder pushes cover files to.
type CoverUploader interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

type DescriptionSource interface {
	FetchDescription(ctx context.Context, title, author string) (string, error)
}

// Seeder loads a books.json library into the store.
type Seeder struct {
	Store        Store
	Transformer  *Transformer
	CoverDir     string
	Uploader     CoverUploader     // nil skips uploads
	Descriptions DescriptionSource // nil skips enrichment
	KeepExisting bool
	Logger       *zap.Logger

	// LookupInterval spaces description lookups; zero means 250ms.
	LookupInterval time.Duration
}

// SeedBooks replaces the catalog with raw (or appends when KeepExisting is set) and returns the number inserted.
func (s *Seeder) SeedBooks(ctx context.Context, raw []RawBook) (int, error) {
	books := make([]models.Book, 0, len(raw))
	files := map[string]bool{}
	for _, rb := range raw {
		books = append(books, s.Transformer.Book(rb))
		if file, ok := s.Transformer.CoverFile(rb); ok {
			files[file] = true
		}
	}

	if s.Uploader != nil {
		if err := s.uploadCovers(ctx, files); err != nil {
			return 0, err
		}
	}
	if s.Descriptions != nil {
		s.enrich(ctx, books)
	}

	if !s.KeepExisting {
		deleted, err := s.Store.DeleteAllBooks(ctx)
		if err != nil {
			return 0, fmt.Errorf("clear books: %w", err)
		}
		s.Logger.Info("cleared books", zap.Int64("deleted", deleted))
	}
	if len(books) == 0 {
		return 0, nil
	}
	n, err := s.Store.InsertBooks(ctx, books)
	if err != nil {
		return 0, fmt.Errorf("insert books: %w", err)
	}
	s.Logger.Info("seeded books", zap.Int("count", n))
	return n, nil
}

func (s *Seeder) uploadCovers(ctx context.Context, files map[string]bool) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for file := range files {
		file := file
		g.Go(func() error {
			return s.uploadCover(gctx, file)
		})
	}
	return g.Wait()
}

func (s *Seeder) uploadCover(ctx context.Context, file string) error {
	key := service.CoverKey(file, "")
	exists, err := s.Uploader.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check cover %s: %w", key, err)
	}
	if exists {
		s.Logger.Debug("cover already uploaded", zap.String("key", key))
		return nil
	}
	f, err := os.Open(filepath.Join(s.CoverDir, file))
	if err != nil {
		// Manual map entries may name files that were never added locally.
		s.Logger.Warn("cover file missing, not uploaded", zap.String("file", file), zap.Error(err))
		return nil
	}
	defer f.Close()
	contentType := mime.TypeByExtension(filepath.Ext(file))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.Uploader.Put(ctx, key, f, contentType); err != nil {
		return fmt.Errorf("upload cover %s: %w", key, err)
	}
	s.Logger.Info("cover uploaded", zap.String("key", key))
	return nil
}

// enrich fills empty descriptions. Lookup failures are logged and skipped.
func (s *Seeder) enrich(ctx context.Context, books []models.Book) {
	interval := s.LookupInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for i := range books {
		if books[i].Description != "" {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		desc, err := s.Descriptions.FetchDescription(ctx, books[i].Title, books[i].Author)
		if err != nil {
			s.Logger.Warn("description lookup failed", zap.String("title", books[i].Title), zap.Error(err))
			continue
		}
		books[i].Description = desc
	}
}

// SeedCategories upserts categories by name.
func (s *Seeder) SeedCategories(ctx context.Context, cats []models.Category) (int, error) {
	for i := range cats {
		if err := s.Store.UpsertCategory(ctx, &cats[i]); err != nil {
			return i, fmt.Errorf("upsert category %q: %w", cats[i].Name, err)
		}
	}
	s.Logger.Info("seeded categories", zap.Int("count", len(cats)))
	return len(cats), nil
}
