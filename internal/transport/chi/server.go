package chi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ghcount/internal/metrics"
	healthuc "github.com/kailas-cloud/ghcount/internal/usecase/health"
)

const (
	codeUnauthorized = "unauthorized"
	codeInternal     = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status       healthuc.Status                 `json:"status"`
	Checks       map[string]healthuc.CheckResult `json:"checks"`
	StreamLength *int64                          `json:"stream_length,omitempty"`
}

// Server serves the ops endpoints of the collector daemon.
type Server struct {
	health   *healthuc.Service
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewServer creates an ops server. gatherer is the registry the collector metrics live in.
func NewServer(health *healthuc.Service, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{health: health, gatherer: gatherer, logger: logger}
}

// Router builds the chi router with the middleware stack. tokens guard /metrics.
func (s *Server) Router(tokens []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(accessLog(s.logger))
	r.Use(BearerAuthMiddleware(tokens))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:       report.Status,
		Checks:       report.Checks,
		StreamLength: report.StreamLength,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
