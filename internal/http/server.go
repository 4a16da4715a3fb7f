package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"reyes/internal/cache"
	"reyes/internal/core"
	"reyes/internal/identity"
	"reyes/internal/store"
	"reyes/internal/uf"
	"reyes/web"
)

const (
	// handlerTimeout bounds every storage read behind a fragment.
	handlerTimeout = 7 * time.Second

	// snapshotTTL caps how stale the dashboard can get when a write
	// slips past invalidation (a second process on the same database).
	snapshotTTL = 30 * time.Second

	snapshotKey = "projects"

	// sessionCookie carries the auth-provider JWT.
	sessionCookie = "session_token"
)

// Server wraps http.Server with the dashboard's dependencies: the
// record store, the UF rate client and the session secret.
type Server struct {
	http.Server

	records   store.RecordStore
	rates     *uf.Client
	jwtSecret string

	templates *template.Template
	limiter   *rateLimiter

	snapshot     *cache.LRUCache[[]core.Project]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer builds the dashboard server. rates may be nil, in which
// case UF entry is disabled and the converter widget reports the rate
// as unavailable.
func NewServer(addr string, records store.RecordStore, rates *uf.Client, jwtSecret string) (*Server, error) {
	templates, err := template.ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	staticRoot, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	s := &Server{
		records:      records,
		rates:        rates,
		jwtSecret:    jwtSecret,
		templates:    templates,
		limiter:      newRateLimiter(),
		snapshot:     cache.NewLRUCache[[]core.Project](4, snapshotTTL),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.snapshot)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.HandleFunc("/ui/kpis", s.handleKPIs)
	mux.HandleFunc("/ui/charts", s.handleCharts)
	mux.HandleFunc("/ui/projects", s.handleProjectsTable)
	mux.HandleFunc("/ui/uf", s.handleUFWidget)
	mux.HandleFunc("/export.csv", s.handleExportCSV)
	mux.HandleFunc("/projects", s.handleCreateProject)
	mux.HandleFunc("/projects/update", s.handleUpdateProject)
	mux.HandleFunc("/projects/delete", s.handleDeleteProject)
	mux.Handle("/static/", http.StripPrefix("/static/", cacheStatic(http.FileServer(http.FS(staticRoot)))))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.withSecurityHeaders(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Shutdown stops the background goroutines and drains in-flight
// requests. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		s.cacheManager.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// loadProjects returns the full project snapshot, served from cache
// between writes. Every fragment handler goes through here so the KPI
// cards, charts and table always agree with each other.
func (s *Server) loadProjects(ctx context.Context) ([]core.Project, error) {
	if cached, ok := s.snapshot.Get(snapshotKey); ok {
		return cached, nil
	}

	projects, err := s.records.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	s.snapshot.Set(snapshotKey, projects)
	return projects, nil
}

// invalidateProjects drops the snapshot after a write.
func (s *Server) invalidateProjects() {
	s.snapshot.Purge()
}

// currentUser resolves the signed-in user from the session cookie or a
// bearer token. Auth is best effort: a missing secret, missing token or
// bad signature all degrade to the anonymous fallback user rather than
// blocking the dashboard.
func (s *Server) currentUser(r *http.Request) identity.User {
	fallback := identity.User{Name: identity.FallbackName}
	if s.jwtSecret == "" {
		return fallback
	}

	token := ""
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
			token = auth[7:]
		}
	}
	if token == "" {
		return fallback
	}

	user, err := identity.ParseToken(token, s.jwtSecret)
	if err != nil {
		slog.WarnContext(r.Context(), "Rejected session token", "error", err)
		return fallback
	}
	return user
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz reports readiness by touching the record store.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := s.records.ListProjects(ctx); err != nil {
		slog.ErrorContext(ctx, "Readiness check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// cacheStatic adds a long-lived Cache-Control header to static assets.
func cacheStatic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// withSecurityHeaders assigns a request id, applies the write rate
// limit, sets security headers and logs each request.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()
		clientIP := extractClientIP(r)

		if r.Method == http.MethodPost && !s.limiter.allow(clientIP) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"request_id", requestID,
				"client_ip", clientIP,
				"path", r.URL.Path)
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		slog.InfoContext(r.Context(), "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	})
}
