// Package web serves moviedeck's pages: the search page, movie details with
// a star rating form, the theme toggle and a websocket endpoint that streams
// debounced search results as the user types.
package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/s0up4200/moviedeck/query"
	"github.com/s0up4200/moviedeck/store"
)

// Config holds HTTP server settings
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	UpgradeInsecure bool
}

// DefaultConfig returns a server config with the usual timeouts
func DefaultConfig(addr string) Config {
	return Config{
		Addr:            addr,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		UpgradeInsecure: true,
	}
}

// Server renders pages backed by a query.Searcher and a store.Store
type Server struct {
	cfg      Config
	searcher *query.Searcher
	store    *store.Store
	logger   zerolog.Logger
	pages    *pages
	upgrader websocket.Upgrader
}

// New creates a server. Templates are parsed here so a broken template fails
// at startup rather than on first request.
func New(cfg Config, searcher *query.Searcher, st *store.Store, logger zerolog.Logger) (*Server, error) {
	p, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		cfg:      cfg,
		searcher: searcher,
		store:    st,
		logger:   logger,
		pages:    p,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}, nil
}

// Handler returns the router with all routes and middleware attached
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(s.cfg.UpgradeInsecure))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/static/*", http.StripPrefix("/static/", staticHandler()))

	r.Route("/movies", func(r chi.Router) {
		r.Get("/", s.handleSearch)
		r.Get("/live", s.handleLive)
		r.Get("/{id}", s.handleDetails)
		r.Post("/{id}/rating", s.handleRate)
	})

	r.Post("/theme", s.handleTheme)
	r.Post("/searches/clear", s.handleClearSearches)

	r.NotFound(s.handleNotFound)

	return r
}

// HTTPServer wraps Handler in an http.Server using the configured timeouts
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
}
