// Package server hosts the signup board for browsers.
//
// Every visitor gets a page of their own, named by a session cookie. A page is created from the
// host markup and loaded with the activity catalog exactly once. A reload discards every page, so
// each visitor's next request gets a new page and a new load. Form posts become submit events on
// the visitor's page, and the rendered page reflects the outcome.
//
// # Endpoints
//
//   - GET / - The visitor's page, rendered as HTML
//   - GET /static/* - Page assets
//   - POST /signup - Signup form submission, answered with a redirect to /
//   - POST /reload - Discards every visitor page so each is loaded afresh
//   - GET /console - Diagnostic console of the visitor's page (?level=error for errors only)
//   - GET /config - Running configuration as YAML, when the server was given one
//   - GET /health - Simple health check, returns "ok"
//   - GET /version - Build and runtime properties
//   - GET /metrics - Prometheus metrics
//
// # Example
//
//	client, err := apiclient.New("http://localhost:8000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.New(client, server.WithListenAddr(":8080"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nomis52/signupboard/buildinfo"
	"github.com/nomis52/signupboard/config"
	"github.com/nomis52/signupboard/loader"
	"github.com/nomis52/signupboard/logging"
	"github.com/nomis52/signupboard/metrics"
	"github.com/nomis52/signupboard/page"
	"github.com/nomis52/signupboard/server/cron"
	"github.com/nomis52/signupboard/server/handlers"
	"github.com/nomis52/signupboard/server/types"
	"github.com/nomis52/signupboard/signup"
	"github.com/nomis52/signupboard/status"
)

//go:embed static
var staticFiles embed.FS

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultListenAddr      = ":8080"
	defaultMetricsPrefix   = "signupboard"
)

// API is the activities API the server talks to. *apiclient.Client implements it.
type API interface {
	loader.CatalogSource
	signup.Signer
}

// Server is the HTTP host of the signup board.
type Server struct {
	addr        string
	api         API
	apiURL      string
	logger      *slog.Logger
	markup      []byte
	config      *config.Config
	statusDelay time.Duration
	metricsNS   string
	cronSpec    string
	certFile    string
	keyFile     string
	maxSessions int

	registry    *metrics.ScrapeRegistry
	board       *metrics.Board
	loader      *loader.Loader
	cronTrigger *cron.Trigger
	certs       *certLoader
	startedAt   time.Time
	hostname    string

	sessionsMu sync.Mutex
	sessions   map[string]*session
	generation uint64
	reloadedAt time.Time

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr configures the address the server listens on.
// Default is ":8080".
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithLogger sets the process logger. Page consoles forward to it.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithMarkup replaces the embedded host page. The markup is checked when the server is created.
func WithMarkup(markup []byte) Option {
	return func(s *Server) error {
		s.markup = bytes.Clone(markup)
		return nil
	}
}

// WithMarkupFile reads the host page from path.
func WithMarkupFile(path string) Option {
	return func(s *Server) error {
		markup, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading page markup: %w", err)
		}
		s.markup = markup
		return nil
	}
}

// WithConfig exposes cfg on /config.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) error {
		s.config = cfg
		return nil
	}
}

// WithCron reloads the page on a cron schedule.
// The spec follows standard cron format (5 fields: minute, hour, day, month, weekday) or a
// descriptor such as @hourly.
func WithCron(spec string) Option {
	return func(s *Server) error {
		s.cronSpec = spec
		return nil
	}
}

// WithMetricsPrefix sets the namespace of the board metrics. Default is "signupboard".
func WithMetricsPrefix(prefix string) Option {
	return func(s *Server) error {
		s.metricsNS = prefix
		return nil
	}
}

// WithStatusDelay overrides how long status messages stay visible.
func WithStatusDelay(d time.Duration) Option {
	return func(s *Server) error {
		s.statusDelay = d
		return nil
	}
}

// WithTLS serves HTTPS with the key pair at certFile and keyFile. Replaced files are picked up
// without a restart.
func WithTLS(certFile, keyFile string) Option {
	return func(s *Server) error {
		s.certFile = certFile
		s.keyFile = keyFile
		return nil
	}
}

// WithMaxSessions bounds the number of visitor pages kept. When full, the least recently seen
// one is discarded. Default is 1000.
func WithMaxSessions(n int) Option {
	return func(s *Server) error {
		if n <= 0 {
			return fmt.Errorf("max sessions must be positive, got %d", n)
		}
		s.maxSessions = n
		return nil
	}
}

// WithAPIURL records the API address reported on /version.
func WithAPIURL(u string) Option {
	return func(s *Server) error {
		s.apiURL = u
		return nil
	}
}

// New creates a Server backed by api. Pages are created and loaded as visitors arrive.
func New(api API, opts ...Option) (*Server, error) {
	s := &Server{
		addr:        defaultListenAddr,
		api:         api,
		logger:      logging.Discard(),
		markup:      page.DefaultMarkup(),
		statusDelay: status.HideDelay,
		metricsNS:   defaultMetricsPrefix,
		maxSessions: defaultMaxSessions,
		sessions:    make(map[string]*session),
		startedAt:   time.Now(),
	}
	s.reloadedAt = s.startedAt
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if _, err := page.New(bytes.NewReader(s.markup)); err != nil {
		return nil, fmt.Errorf("invalid page markup: %w", err)
	}

	registry, err := metrics.NewScrapeRegistry()
	if err != nil {
		return nil, fmt.Errorf("creating metrics registry: %w", err)
	}
	board, err := metrics.NewBoard(registry, s.metricsNS)
	if err != nil {
		return nil, err
	}
	s.registry = registry
	s.board = board
	s.loader = loader.New(api, loader.WithMetrics(board))

	if s.cronSpec != "" {
		trigger, err := cron.NewTrigger(s.cronSpec, s.Reload, s.logger)
		if err != nil {
			return nil, fmt.Errorf("creating cron trigger: %w", err)
		}
		s.cronTrigger = trigger
	}

	if s.certFile != "" || s.keyFile != "" {
		certs, err := newCertLoader(s.certFile, s.keyFile, s.logger)
		if err != nil {
			return nil, fmt.Errorf("loading tls certificate: %w", err)
		}
		s.certs = certs
	}

	if hostname, err := os.Hostname(); err == nil {
		s.hostname = hostname
	}
	return s, nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Reload discards every visitor page. Each visitor's next request creates a new page, and the
// catalog is loaded into it before it is served, so the loader runs exactly once per page.
func (s *Server) Reload(ctx context.Context) error {
	dropped := s.dropSessions()
	s.logger.Info("pages discarded", "sessions", dropped)
	return nil
}

// Config returns the configuration the server was created with, if any.
func (s *Server) Config() *config.Config {
	return s.config
}

// Properties returns metadata about the running server.
func (s *Server) Properties() types.ServerProperties {
	s.sessionsMu.Lock()
	sessions, reloadedAt := len(s.sessions), s.reloadedAt
	s.sessionsMu.Unlock()

	props := types.ServerProperties{
		Build:      buildinfo.Get(),
		StartedAt:  s.startedAt,
		Hostname:   s.hostname,
		APIURL:     s.apiURL,
		Sessions:   sessions,
		ReloadedAt: reloadedAt,
	}
	if s.cronTrigger != nil {
		next := s.cronTrigger.NextRun()
		props.NextReload = &next
	}
	return props
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.HandleHealth)
	r.Method(http.MethodGet, "/version", handlers.NewVersionHandler(s))
	r.Method(http.MethodGet, "/metrics", s.registry.Handler())
	r.Method(http.MethodGet, "/console", handlers.NewConsoleHandler(s))
	r.Method(http.MethodPost, "/reload", handlers.NewReloadHandler(s.logger, s))
	r.Method(http.MethodPost, "/signup", handlers.NewSignupHandler(s.logger, s))
	if s.config != nil {
		r.Method(http.MethodGet, "/config", handlers.NewConfigHandler(s))
	}

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.logger.Error("failed to create static file system", "error", err)
	} else {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}
	r.Method(http.MethodGet, "/", handlers.NewPageHandler(s.logger, s))

	return r
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
// If a cron trigger is configured, it will be started automatically.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
	if s.certs != nil {
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion:     tls.VersionTLS12,
			GetCertificate: s.certs.GetCertificate,
		}
		ln = tls.NewListener(ln, s.httpServer.TLSConfig)
	}

	if s.cronTrigger != nil {
		s.logger.Info("starting cron trigger",
			"spec", s.cronTrigger.Spec(),
			"next_run", s.cronTrigger.NextRun(),
		)
		s.cronTrigger.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"tls", s.certs != nil,
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		err := s.httpServer.Shutdown(shutdownCtx)
		s.dropSessions()
		return err
	}
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
