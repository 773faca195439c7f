package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"userdesk/m/domain"
	"userdesk/m/internal/middleware"
	"userdesk/m/internal/service"
	"userdesk/m/internal/upload"
)

// UserService is the domain surface the HTTP layer drives.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, in service.UserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, in service.UserInput) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	Growth(ctx context.Context) ([]domain.GrowthPoint, error)
}

// Pinger reports database reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the router.
type Options struct {
	Logger *slog.Logger
	// AllowedOrigins for CORS; "*" allows any origin.
	AllowedOrigins []string
	// MaxMultipartMemory is passed to ParseMultipartForm.
	MaxMultipartMemory int64
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	users     UserService
	db        Pinger
	uploads   http.Handler
	logger    *slog.Logger
	origins   []string
	maxMemory int64
}

// New constructs a Handler. uploads serves the files stored under /uploads/.
func New(users UserService, db Pinger, uploads http.Handler, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxMemory := opts.MaxMultipartMemory
	if maxMemory <= 0 {
		maxMemory = 32 << 20
	}
	return &Handler{
		users:     users,
		db:        db,
		uploads:   uploads,
		logger:    logger,
		origins:   opts.AllowedOrigins,
		maxMemory: maxMemory,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Recoverer(h.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Handle(upload.PublicPrefix+"*", h.uploads)

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h.listUsers)
		r.Post("/", h.createUser)
		r.Get("/stats/growth", h.growthStats)
		r.Get("/{id}", h.getUser)
		r.Put("/{id}", h.updateUser)
		r.Delete("/{id}", h.deleteUser)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Resource not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "health check failed", slog.String("error", err.Error()))
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
