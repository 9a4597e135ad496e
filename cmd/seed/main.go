package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/library/config"
	"github.com/kevinaaaquil/library/seed"
	"github.com/kevinaaaquil/library/service"
	"github.com/kevinaaaquil/library/store"
	"go.uber.org/zap"
)

type CLI struct {
	Books      BooksCmd      `cmd:"" default:"withargs" help:"Load books.json into the catalog"`
	Categories CategoriesCmd `cmd:"" help:"Upsert categories from a JSON file"`
}

type BooksCmd struct {
	File         string `short:"f" help:"Path to books.json" default:"books.json"`
	Covers       string `short:"c" help:"Directory with cover images" default:"books"`
	Upload       bool   `help:"Upload matched covers to the bucket before seeding"`
	Enrich       bool   `help:"Fill empty descriptions from Google Books"`
	KeepExisting bool   `help:"Append instead of replacing the books collection"`
}

type CategoriesCmd struct {
	File string `short:"f" help:"Path to categories JSON" required:"" type:"existingfile"`
}

// app carries what every command needs.
type app struct {
	ctx    context.Context
	cfg    *config.Config
	db     *store.DB
	logger *zap.Logger
}

func (c *BooksCmd) Run(a *app) error {
	if a.cfg.PublicCoverBase == "" {
		return fmt.Errorf("R2_PUBLIC_BASE_URL is required for seeding book cover URLs")
	}
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()
	raw, err := seed.LoadLibrary(f)
	if err != nil {
		return err
	}

	names, err := seed.ReadCoverDir(c.Covers)
	if err != nil {
		a.logger.Warn("cover directory unreadable, every book keeps its imageUrl", zap.String("dir", c.Covers), zap.Error(err))
	}
	covers := seed.NewCoverIndex(names)
	a.logger.Info("indexed covers", zap.Int("count", covers.Len()))

	s := &seed.Seeder{
		Store:        a.db,
		Transformer:  &seed.Transformer{Covers: covers, PublicBase: a.cfg.PublicCoverBase, Logger: a.logger},
		CoverDir:     c.Covers,
		KeepExisting: c.KeepExisting,
		Logger:       a.logger,
	}
	if c.Upload {
		s3, err := service.NewS3Service(a.ctx, service.S3Options{
			Bucket:          a.cfg.S3Bucket,
			Region:          a.cfg.S3Region,
			AccessKeyID:     a.cfg.S3AccessKeyID,
			SecretAccessKey: a.cfg.S3SecretKey,
			Endpoint:        a.cfg.S3Endpoint,
			PublicBaseURL:   a.cfg.PublicCoverBase,
		})
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		s.Uploader = s3
	}
	if c.Enrich {
		s.Descriptions = service.NewDescriptionFetcher()
	}

	n, err := s.SeedBooks(a.ctx, raw)
	if err != nil {
		return err
	}
	a.logger.Info("seeded books from file", zap.Int("count", n), zap.String("file", c.File))
	return nil
}

func (c *CategoriesCmd) Run(a *app) error {
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()
	cats, err := seed.LoadCategories(f)
	if err != nil {
		return err
	}
	s := &seed.Seeder{Store: a.db, Logger: a.logger}
	_, err = s.SeedCategories(a.ctx, cats)
	return err
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("seed"),
		kong.Description("Seed the library catalog."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName, logger)
	if err != nil {
		logger.Fatal("mongodb connect", zap.Error(err))
	}
	err = db.EnsureIndexes(ctx)
	if err == nil {
		err = kctx.Run(&app{ctx: ctx, cfg: cfg, db: db, logger: logger})
	}
	if derr := db.Disconnect(context.Background()); derr != nil {
		logger.Warn("mongodb disconnect", zap.Error(derr))
	}
	if err != nil {
		logger.Error("seed failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
