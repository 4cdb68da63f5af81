package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/gousse"
	"github.com/vango-dev/gousse/internal/config"
	"github.com/vango-dev/gousse/pkg/loop"
	"github.com/vango-dev/gousse/pkg/middleware"
	"github.com/vango-dev/gousse/pkg/router"
	"github.com/vango-dev/gousse/pkg/site"
	"github.com/vango-dev/gousse/pkg/telemetry"
)

// ShutdownTimeout bounds a graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Server serves a site: rendered pages, live sessions and metrics.
type Server struct {
	config   *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	tel      *telemetry.Telemetry
	site     atomic.Pointer[site.Site]
	sessions *SessionManager
	session  *SessionConfig
	upgrader websocket.Upgrader
	handler  http.Handler

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	registry    *prometheus.Registry
	session     *SessionConfig
	maxSessions int
	checkOrigin func(*http.Request) bool
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry sets the registry metrics are registered in and served
// from. Default: a fresh registry with the Go and process collectors.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithSessionConfig sets the live session timeouts and limits.
func WithSessionConfig(c *SessionConfig) Option {
	return func(o *options) {
		o.session = c
	}
}

// WithMaxSessions limits the number of live sessions. 0 means no limit.
func WithMaxSessions(n int) Option {
	return func(o *options) {
		o.maxSessions = n
	}
}

// WithCheckOrigin sets the websocket origin check. Default: same host.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(o *options) {
		o.checkOrigin = fn
	}
}

// New creates a Server for st. A nil cfg uses config.Default().
func New(cfg *config.Config, st *site.Site, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
		o.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if o.session == nil {
		o.session = DefaultSessionConfig()
	}

	s := &Server{
		config:   cfg,
		logger:   o.logger,
		registry: o.registry,
		tel: telemetry.New(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithRegistry(o.registry),
		),
		sessions: NewSessionManager(o.maxSessions, o.logger),
		session:  o.session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     o.checkOrigin,
		},
	}
	s.site.Store(st)
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recover(s.logger),
		middleware.Logger(s.logger),
		middleware.Metrics(
			middleware.WithRegistry(s.registry),
			middleware.WithNamespace(s.config.Metrics.Namespace),
		),
		middleware.Tracing(middleware.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics"
		})),
	)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get(LivePath, s.HandleLive)
	r.Get("/*", s.HandlePage)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Site returns the site being served.
func (s *Server) Site() *site.Site {
	return s.site.Load()
}

// SetSite swaps the site. New requests use it, and live clients are told
// to reload.
func (s *Server) SetSite(st *site.Site) {
	s.site.Store(st)
	s.sessions.Broadcast(Frame{Type: FrameReload})
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Telemetry returns the telemetry shared by every App.
func (s *Server) Telemetry() *telemetry.Telemetry {
	return s.tel
}

// Registry returns the metrics registry.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// NewApp builds an App for st positioned on url. url may carry a
// fragment, which is the route in hash mode.
func (s *Server) NewApp(st *site.Site, url string, opts ...gousse.Option) (*gousse.App, *loop.Promise, error) {
	cfg := *s.config
	st.Apply(&cfg)

	path, fragment, _ := strings.Cut(url, "#")
	if path == "" {
		path = "/"
	}
	start := path
	if cfg.RouterMode() == router.ModeHash && fragment != "" {
		start = fragment
	}

	opts = append([]gousse.Option{
		gousse.WithLogger(s.logger),
		gousse.WithTelemetry(s.tel),
		gousse.WithURL(start),
	}, opts...)
	app := gousse.New(&cfg, opts...)
	if _, err := st.Build(app); err != nil {
		return nil, nil, err
	}
	return app, app.Boot(), nil
}

// HandlePage renders the requested URL. The response is 404 when no route
// pattern matches and 500 when the App fails to boot.
func (s *Server) HandlePage(w http.ResponseWriter, r *http.Request) {
	st := s.Site()
	app, boot, err := s.NewApp(st, r.URL.RequestURI())
	if err != nil {
		s.logger.Error("site build failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.Server.RenderTimeout)
	defer cancel()
	if err := app.Drain(ctx); err != nil {
		s.logger.Warn("render did not settle", "path", r.URL.Path, "error", err)
	}
	if _, err, ok := boot.Result(); ok && err != nil {
		s.logger.Error("app boot failed", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if _, _, ok := st.Table(s.logger).Lookup(r.URL.Path); !ok {
		status = http.StatusNotFound
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := Page(app, true).Render(r.Context(), w); err != nil {
		s.logger.Debug("page write failed", "error", err)
	}
}

// HandleLive upgrades to a websocket and starts a live session on the URL
// given by the url query parameter. ?codec=msgpack selects binary frames.
func (s *Server) HandleLive(w http.ResponseWriter, r *http.Request) {
	if s.sessions.Full() {
		http.Error(w, ErrTooManySessions.Error(), http.StatusServiceUnavailable)
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		url = "/"
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	sess := newSession(conn, CodecFor(r.URL.Query().Get("codec")), s.session, s.logger, s.tel)
	l := loop.New(loop.WithLogger(sess.logger), loop.WithIdle(sess.flush))
	app, _, err := s.NewApp(s.Site(), url, gousse.WithLoop(l), gousse.WithLogger(sess.logger))
	if err != nil {
		s.logger.Error("site build failed", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "site build failed"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	sess.app = app

	if err := s.sessions.Add(sess); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	// The session outlives the request.
	sess.Start(context.Background())
	sess.logger.Debug("session started", "url", url, "codec", sess.codec.Name())
}

// ListenAndServe serves on the configured address until ctx is done or
// the process is interrupted, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Server.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	s.sessions.Shutdown()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}
