package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/library/middleware"
	"github.com/kevinaaaquil/library/service"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Health       Pinger
	Catalog      *service.Catalog
	Reservations *service.Reservations
	Categories   *service.Categories
	Limiter      *middleware.RateLimiter
	CORSOrigins  []string
	Logger       *zap.Logger
}

// NewRouter wires every route of the API.
func NewRouter(d RouterDeps) http.Handler {
	v := NewValidator()
	books := &BooksHandler{Catalog: d.Catalog, Validate: v, Logger: d.Logger}
	reservations := &ReservationsHandler{Reservations: d.Reservations, Validate: v, Logger: d.Logger}
	categories := &CategoriesHandler{Categories: d.Categories, Validate: v, Logger: d.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(Recoverer(d.Logger))
	r.Use(middleware.CORS(d.CORSOrigins))
	r.Use(middleware.LimitBody(middleware.MaxBodyBytes))
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/health", health(d.Health, d.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Get("/home", books.Home)
			r.Get("/filters", books.Filters)
			r.Get("/search", books.Search)
			r.Get("/", books.List)
			r.Post("/", books.Create)
			r.Get("/{id}", books.Get)
			r.Delete("/{id}", books.Delete)
		})
		r.Get("/categories", categories.List)
		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", reservations.List)
			r.With(d.Limiter.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
				writeError(w, r, d.Logger, err)
			})).Post("/", reservations.Create)
			r.Get("/{id}", reservations.Get)
			r.Patch("/{id}/status", reservations.UpdateStatus)
		})
	})
	return r
}

// health pings the store with a short deadline; 503 when it does not answer.
func health(p Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			logger.Error("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
