package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/library/config"
	"github.com/kevinaaaquil/library/handlers"
	"github.com/kevinaaaquil/library/middleware"
	"github.com/kevinaaaquil/library/service"
	"github.com/kevinaaaquil/library/store"
	"github.com/kevinaaaquil/library/store/stubs"
	"go.uber.org/zap"
)

// libraryStore is everything the services need from persistence.
type libraryStore interface {
	service.LedgerStore
	service.ReservationStore
	service.CatalogStore
	service.CategoryStore
	service.BookReader
	Ping(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	var db libraryStore
	if cfg.UseMemoryStore {
		logger.Warn("using in-memory store; data is lost on exit")
		db = stubs.NewMemoryDB()
	} else {
		mongoDB, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName, logger)
		if err != nil {
			logger.Fatal("mongodb connect", zap.Error(err))
		}
		defer func() {
			if err := mongoDB.Disconnect(context.Background()); err != nil {
				logger.Error("mongodb disconnect", zap.Error(err))
			}
		}()
		if err := mongoDB.EnsureIndexes(ctx); err != nil {
			logger.Fatal("mongodb indexes", zap.Error(err))
		}
		db = mongoDB
	}

	ledger := service.NewLedger(db)
	router := handlers.NewRouter(handlers.RouterDeps{
		Health:       db,
		Catalog:      service.NewCatalog(db, cfg.HomeSectionLimit),
		Reservations: service.NewReservations(db, db, ledger, logger),
		Categories:   service.NewCategories(db),
		Limiter:      middleware.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax, logger),
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
