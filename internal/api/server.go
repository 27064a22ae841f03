// Package api provides the HTTP API server and handlers for the ClipClash ranking service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/clipclash/clipclash-server/internal/cache"
	"github.com/clipclash/clipclash-server/internal/config"
	"github.com/clipclash/clipclash-server/internal/ratelimit"
	"github.com/clipclash/clipclash-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store            *store.Store
	cache            *cache.Cache
	services         *Services
	cfg              *config.Config
	router           *chi.Mux
	api              huma.API
	recomputeLimiter *ratelimit.KeyedRateLimiter
	logger           *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, cache *cache.Cache, services *Services, cfg *config.Config, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	humaConfig := huma.DefaultConfig(cfg.Server.Name, "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	recomputeRate := float64(cfg.Ranking.RecomputeRatePerMinute) / 60.0

	s := &Server{
		store:            store,
		cache:            cache,
		services:         services,
		cfg:              cfg,
		router:           router,
		api:              api,
		recomputeLimiter: ratelimit.New(recomputeRate, cfg.Ranking.RecomputeRatePerMinute),
		logger:           logger,
	}

	s.registerHealthRoutes()
	s.registerLeaderboardRoutes()
	s.registerRecomputeRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-held resources.
func (s *Server) Close() {
	s.recomputeLimiter.Stop()
}
