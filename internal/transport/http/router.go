package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/strogmv/siterelay/internal/domain"
	"github.com/strogmv/siterelay/internal/pkg/logger"
	"github.com/strogmv/siterelay/internal/port"
)

const (
	DefaultSocketPath = "/socket"
	healthTimeout     = 2 * time.Second
)

type RouterConfig struct {
	SocketPath     string
	AllowedOrigins []string
}

// Deps are the handlers and services mounted by NewRouter. Queue and
// Sessions may be nil, in which case the pending route is not mounted.
type Deps struct {
	Socket   http.Handler
	Health   []port.HealthChecker
	Sessions port.SessionValidator
	Queue    port.NotificationQueue
	Logger   *slog.Logger
}

func NewRouter(cfg RouterConfig, deps Deps) http.Handler {
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			MaxAge:         300,
		}))
	}

	if deps.Socket != nil {
		r.Method(http.MethodGet, cfg.SocketPath, deps.Socket)
	}
	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	if deps.Queue != nil && deps.Sessions != nil {
		r.Get("/notifications/pending", pendingHandler(deps.Sessions, deps.Queue, log))
	}

	return otelhttp.NewHandler(r, "siterelay.http")
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthHandler(checkers []port.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checkers))}
		status := http.StatusOK
		for _, c := range checkers {
			if err := c.Ping(ctx); err != nil {
				resp.Checks[c.Name()] = err.Error()
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name()] = "ok"
		}
		writeJSON(w, status, resp)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func pendingHandler(sessions port.SessionValidator, queue port.NotificationQueue, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := r.URL.Query().Get("sessionId")

		ok, err := sessions.Validate(ctx, sessionID)
		if err != nil {
			logger.With(ctx, log).Error("validate session for pending", slog.Any("error", err))
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "session store unavailable"})
			return
		}
		if !ok {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied"})
			return
		}

		entries, err := queue.Pending(ctx, sessionID)
		if err != nil {
			logger.With(ctx, log).Error("read pending notifications", slog.Any("error", err))
			code := http.StatusInternalServerError
			if errors.Is(err, domain.ErrStoreUnavailable) {
				code = http.StatusServiceUnavailable
			}
			writeJSON(w, code, errorResponse{Error: "queue unavailable"})
			return
		}
		if entries == nil {
			entries = []domain.QueueEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
