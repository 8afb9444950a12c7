// Package server wires RuStream's HTTP surface together: router, shared
// state, and graceful shutdown, in the style of the teacher's
// cmd/server/main.go component-then-routes construction.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rustream/server/internal/audit"
	"github.com/rustream/server/internal/auth"
	"github.com/rustream/server/internal/config"
	"github.com/rustream/server/internal/content"
	"github.com/rustream/server/internal/metrics"
	"github.com/rustream/server/internal/middleware"
	"github.com/rustream/server/internal/ratelimit"
	"github.com/rustream/server/internal/session"
)

// Server owns every piece of shared, read-after-startup state a handler
// might need: configuration, the authenticator, the session store, the
// content indexer, and the ambient-stack collaborators (audit, metrics,
// rate limiting, logging).
type Server struct {
	cfg          *config.Config
	logger       *slog.Logger
	authn        *auth.Authenticator
	store        *session.Store
	telemetry    *session.Telemetry
	walker       *content.Walker
	cache        *content.Cache
	auditSvc     *audit.Service
	metricsC     *metrics.Collector
	connLimiter  *ratelimit.ConnectionLimiter
	loginLimiter *ratelimit.Limiter
	sessionAuth  *middleware.SessionAuth
	httpServer   *http.Server
}

// connectionStaleAfter bounds how long a host counts as "active" for
// session.Telemetry's cross-restart connection tracking.
const connectionStaleAfter = 10 * time.Minute

// loginRateLimit caps login attempts per client IP, independent of
// auth.Lockout's per-username tracking.
var loginRateLimit = ratelimit.LimitConfig{Rate: 20, Window: time.Minute}

// Deps bundles every collaborator New needs, constructed by
// cmd/rustream/main.go.
type Deps struct {
	Config       *config.Config
	Logger       *slog.Logger
	Authn        *auth.Authenticator
	Store        *session.Store
	Telemetry    *session.Telemetry
	Walker       *content.Walker
	Cache        *content.Cache
	Audit        *audit.Service
	Metrics      *metrics.Collector
	ConnLimiter  *ratelimit.ConnectionLimiter
	LoginLimiter *ratelimit.Limiter
}

func New(d Deps) *Server {
	return &Server{
		cfg:          d.Config,
		logger:       d.Logger,
		authn:        d.Authn,
		store:        d.Store,
		telemetry:    d.Telemetry,
		walker:       d.Walker,
		cache:        d.Cache,
		auditSvc:     d.Audit,
		metricsC:     d.Metrics,
		connLimiter:  d.ConnLimiter,
		loginLimiter: d.LoginLimiter,
		sessionAuth:  middleware.NewSessionAuth(d.Authn, d.Config.SecureSession),
	}
}

// Routes builds the full mux, matching the ServeMux method-aware pattern
// style of the teacher's cmd/server/main.go, then wraps it in the
// request-logging / connection-limit / CORS / audit middleware chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /{$}", s.indexHandler)
	if s.loginLimiter != nil {
		mux.Handle("POST /login", middleware.LoginLimit(s.loginLimiter, loginRateLimit)(http.HandlerFunc(s.loginHandler)))
	} else {
		mux.HandleFunc("POST /login", s.loginHandler)
	}
	mux.HandleFunc("GET /logout", s.logoutHandler)
	mux.HandleFunc("GET /error", s.errorPageHandler)
	if s.metricsC != nil {
		mux.Handle("GET /metrics", s.metricsC.Handler())
	}

	protect := s.sessionAuth.Require
	mux.Handle("GET /home", protect(http.HandlerFunc(s.homeHandler)))
	mux.Handle("GET /profile", protect(http.HandlerFunc(s.profileHandler)))
	mux.Handle("GET /stream/{path...}", protect(http.HandlerFunc(s.streamHandler)))
	mux.Handle("GET /media", protect(http.HandlerFunc(s.mediaHandler)))
	mux.Handle("GET /track", protect(http.HandlerFunc(s.trackHandler)))
	mux.Handle("GET /upload", protect(http.HandlerFunc(s.uploadPageHandler)))
	mux.Handle("POST /upload", protect(http.HandlerFunc(s.uploadHandler)))
	mux.Handle("POST /edit", protect(http.HandlerFunc(s.editHandler)))

	var handler http.Handler = mux
	handler = middleware.AuditLog(s.auditSvc)(handler)
	handler = middleware.CORS(s.cfg.Websites)(handler)
	handler = s.trackConnections(handler)
	if s.connLimiter != nil {
		handler = middleware.ConnectionLimit(s.connLimiter, s.logger)(handler)
	}
	handler = middleware.RequestLogger(s.logger, s.metricsC)(handler)
	return handler
}

// trackConnections records every host that has hit any handler at least
// once, backing invariant #3 (spec.md §3) without threading store.Touch
// through each individual handler.
func (s *Server) trackConnections(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := hostKey(r)
		s.store.Touch(host)
		if s.telemetry != nil {
			s.telemetry.RecordConnection(r.Context(), host, connectionStaleAfter)
		}
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and blocks until ctx is canceled, then
// drains in-flight requests with a bounded grace period, mirroring the
// teacher's ListenAndServe + context.WithTimeout shutdown shape.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    net.JoinHostPort(s.cfg.MediaHost, strconv.Itoa(int(s.cfg.MediaPort))),
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
			err = s.httpServer.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func hostKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func jsonSuccess(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, status int, detail string) {
	jsonSuccess(w, status, map[string]string{"detail": detail})
}

func textError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(detail))
}
