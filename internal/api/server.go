// Package api exposes the book identity service over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/bookid-server/internal/auth"
	"github.com/listenupapp/bookid-server/internal/config"
	"github.com/listenupapp/bookid-server/internal/http/response"
	"github.com/listenupapp/bookid-server/internal/sse"
	"github.com/listenupapp/bookid-server/internal/store"
)

// DocumentCounter reports the size of the duplicate-candidate index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// Server is the HTTP API server.
type Server struct {
	store      store.Store
	services   *Services
	index      DocumentCounter
	sseManager *sse.Manager
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates a new API server with all routes registered.
// index may be nil when the search index is disabled.
func NewServer(
	st store.Store,
	services *Services,
	tokens *auth.TokenService,
	sseManager *sse.Manager,
	index DocumentCounter,
	cfg config.ServerConfig,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:      st,
		services:   services,
		index:      index,
		sseManager: sseManager,
		sseHandler: sse.NewHandler(sseManager, logger),
		router:     router,
		logger:     logger,
	}

	s.setupMiddleware(tokens, cfg.CORSOrigins)

	humaConfig := huma.DefaultConfig("Book Identity API", "1.0.0")
	humaConfig.Info.Description = "Canonical book records, ISBN editions, groups, duplicate reports and merges."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler(logger)

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for OpenAPI export and tests.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(tokens *auth.TokenService, origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	s.router.Use(authMiddleware(tokens, s.logger))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, s.logger)
	})
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerMergeRoutes()
	s.registerEditionRoutes()
	s.registerGroupRoutes()
	s.registerPreferenceRoutes()
	s.registerReportRoutes()

	// The event stream is served by chi directly.
	s.router.With(s.requireManager).Get("/api/v1/events", s.sseHandler.ServeHTTP)
}
