// Package server provides the HTTP server that wires all services together.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/leadscout/lead-scout/internal/bus"
	"github.com/leadscout/lead-scout/internal/business"
	"github.com/leadscout/lead-scout/internal/config"
	"github.com/leadscout/lead-scout/internal/places"
	"github.com/leadscout/lead-scout/internal/pkg/logger"
	"github.com/leadscout/lead-scout/internal/pkg/middleware"
	"github.com/leadscout/lead-scout/internal/quota"
	"github.com/leadscout/lead-scout/internal/search"
	"github.com/leadscout/lead-scout/internal/store"
	"github.com/leadscout/lead-scout/internal/store/postgres"
	"github.com/leadscout/lead-scout/internal/store/sqlite"
)

// Server is the main HTTP server that wires all services together.
type Server struct {
	cfg *config.Config
	log *logger.Logger

	httpServer *http.Server

	// Services
	store   store.Backend
	bus     bus.Bus
	tracker *quota.Tracker
	limiter *middleware.RateLimiter

	searchHandler   *search.Handler
	businessHandler *business.Handler
	healthHandler   *HealthHandler

	mu      sync.Mutex
	started bool
}

// New creates a server with all dependencies built from configuration.
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	var api places.API
	if cfg.Places.APIKey != "" {
		client, err := places.NewGoogleClient(cfg.Places.APIKey, cfg.Places.QPS)
		if err != nil {
			return nil, fmt.Errorf("creating places client: %w", err)
		}
		api = client
	}
	return NewWithPlacesAPI(cfg, log, api)
}

// NewWithPlacesAPI creates a server with a caller-supplied places API.
// Tests use this to inject fakes; a nil API rejects searches with a clear
// error instead of failing startup.
func NewWithPlacesAPI(cfg *config.Config, log *logger.Logger, api places.API) (*Server, error) {
	backend, err := openStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	eventBus, err := bus.New(cfg.Bus)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("creating event bus: %w", err)
	}

	limiter, err := newRateLimiter(cfg.RateLimit, log)
	if err != nil {
		eventBus.Close()
		backend.Close()
		return nil, fmt.Errorf("creating rate limiter: %w", err)
	}

	if api == nil {
		api = unconfiguredPlaces{}
	}

	tracker := quota.NewTracker(backend, cfg.Quota.MonthlyLimit)
	searchSvc := search.NewService(backend, api, tracker, eventBus, log)
	businessSvc := business.NewService(backend)

	return &Server{
		cfg:             cfg,
		log:             log.WithComponent("server"),
		store:           backend,
		bus:             eventBus,
		tracker:         tracker,
		limiter:         limiter,
		searchHandler:   search.NewHandler(searchSvc),
		businessHandler: business.NewHandler(businessSvc),
		healthHandler:   NewHealthHandler(cfg),
	}, nil
}

// openStore selects the storage backend by driver.
func openStore(cfg config.DatabaseConfig) (store.Backend, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return sqlite.New(cfg.Path)
	case "postgres":
		return postgres.New(context.Background(), cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}

// newRateLimiter selects the window store by config.
func newRateLimiter(cfg config.RateLimitConfig, log *logger.Logger) (*middleware.RateLimiter, error) {
	windowCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RequestsPerMinute > 0 {
		windowCfg.RequestsPerMinute = cfg.RequestsPerMinute
	}
	if cfg.BurstLimit > 0 {
		windowCfg.BurstLimit = cfg.BurstLimit
	}

	switch cfg.Store {
	case "memory", "":
		return middleware.NewRateLimiter(windowCfg, log), nil
	case "redis":
		windows, err := middleware.NewRedisWindows(cfg.RedisURL, windowCfg)
		if err != nil {
			return nil, err
		}
		return middleware.NewRateLimiterWithStore(windows, log), nil
	default:
		return nil, fmt.Errorf("unknown rate limit store: %s", cfg.Store)
	}
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.healthHandler.RegisterRoutes(mux)
	s.searchHandler.RegisterRoutes(mux)
	s.businessHandler.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(s.log)(handler)

	return handler
}

// Start runs the HTTP server until it is stopped.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true

	s.httpServer = &http.Server{
		Addr:         s.cfg.Address(),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.mu.Unlock()

	s.log.Info("starting HTTP server", "addr", s.cfg.Address())

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully stops the server and closes its resources.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return s.closeResources()
	}

	s.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Error("HTTP shutdown error")
	}

	s.started = false
	err := s.closeResources()
	s.log.Info("server stopped")
	return err
}

func (s *Server) closeResources() error {
	var errs []error

	if err := s.limiter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close rate limiter: %w", err))
	}
	if err := s.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close bus: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

// unconfiguredPlaces rejects every call. It stands in when no places API
// key is configured so the server still starts and reports its state on
// the health endpoint.
type unconfiguredPlaces struct{}

var errNoAPIKey = fmt.Errorf("places API key not configured")

func (unconfiguredPlaces) Geocode(context.Context, string) (*places.LatLng, error) {
	return nil, errNoAPIKey
}

func (unconfiguredPlaces) TextSearch(context.Context, string, places.LatLng, int) ([]places.Place, error) {
	return nil, errNoAPIKey
}

func (unconfiguredPlaces) Details(context.Context, string) (*places.Details, error) {
	return nil, errNoAPIKey
}
