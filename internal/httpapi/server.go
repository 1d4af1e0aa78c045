package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"printerd/internal/bridge"
	"printerd/pkg/types"
)

// Service is the device-facing surface the HTTP layer exposes: the live
// snapshot, the raw console history, command pass-through and link health.
// The bridge satisfies it; tests substitute a mock.
type Service interface {
	State() types.PrinterState
	Recent() []string
	SendCommand(cmd string) error
	Connected() bool
}

// NewMux builds the HTTP routing for the daemon. broker may be nil, in which
// case no websocket endpoint is mounted (REST-only, used by some tests).
func NewMux(svc Service, broker *Broker) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	r.Use(MetricsMiddleware)

	// Compression for JSON endpoints. The websocket stays outside this group:
	// its frames are already small and the upgrade needs the raw connection.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))

		r.Get("/api/state", handleState(svc))
		r.Get("/api/console", handleConsole(svc))
		r.Post("/api/commands", handleCommand(svc))

		r.Get("/healthz", handleHealthz)
		r.Get("/readyz", handleReadyz(svc))

		// Prometheus metrics endpoint
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	})

	if broker != nil {
		r.Get("/ws", broker.handleWS)
	}

	MountSwagger(r)
	return r
}

// handleState returns the live printer snapshot.
//
// @Summary  Printer state snapshot
// @Produce  json
// @Success  200 {object} types.PrinterState
// @Router   /api/state [get]
func handleState(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.State()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	}
}

// handleConsole returns the retained raw console lines, oldest first.
//
// @Summary  Recent raw console output
// @Produce  json
// @Success  200 {object} types.ConsoleResponse
// @Router   /api/console [get]
func handleConsole(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(types.ConsoleResponse{Lines: svc.Recent()}); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	}
}

// handleCommand forwards one raw command to the printer. The body is never
// interpreted here; the bridge appends the line terminator.
//
// @Summary  Send a raw command to the printer
// @Accept   json
// @Produce  json
// @Param    command body types.CommandRequest true "Command to forward"
// @Success  202 {object} map[string]string
// @Failure  400 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse "printer not connected"
// @Router   /api/commands [post]
func handleCommand(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Content-Type check
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.CommandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Command) == "" {
			writeJSONError(w, http.StatusBadRequest, "command is required")
			return
		}

		start := time.Now()
		if err := svc.SendCommand(req.Command); err != nil {
			switch {
			case bridge.IsNotConnected(err):
				writeJSONError(w, http.StatusServiceUnavailable, err.Error())
			default:
				if he, ok := err.(HTTPError); ok {
					writeJSONError(w, he.StatusCode(), he.Error())
					return
				}
				writeJSONError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		if zlog != nil && requestLogLevel(r) >= LevelInfo {
			z := zlog.Info().Str("command", req.Command).Dur("dur", time.Since(start))
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("command forwarded")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	}
}

// handleHealthz reports process liveness.
//
// @Summary  Liveness probe
// @Success  200 {string} string "ok"
// @Router   /healthz [get]
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleReadyz reports readiness: the daemon is ready when the printer link
// is up. Load balancers and the blackbox tests key off this.
//
// @Summary  Readiness probe
// @Success  200 {string} string "ready"
// @Failure  503 {string} string "disconnected"
// @Router   /readyz [get]
func handleReadyz(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc.Connected() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("disconnected"))
	}
}
