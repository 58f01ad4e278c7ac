package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"surveyline/pkg/config"
	"surveyline/pkg/logging"
	"surveyline/pkg/metrics"
	"surveyline/pkg/version"
)

// NewServer creates and configures the HTTP server.
// gatherer backs /metrics; m records per-request metrics and may be nil.
func NewServer(cfg config.ServerConfig, surveys *SurveyHandler, gatherer prometheus.Gatherer, m *metrics.Manager) *http.Server {
	mux := http.NewServeMux()

	// 1. Health and Version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Logs
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 3. Surveys
	mux.HandleFunc("POST /api/surveys", surveys.HandleCreate)
	mux.HandleFunc("GET /api/surveys", surveys.HandleList)
	mux.HandleFunc("GET /api/surveys/{id}", surveys.HandleGet)
	mux.HandleFunc("DELETE /api/surveys/{id}", surveys.HandleDelete)
	mux.HandleFunc("GET /api/surveys/{id}/export", surveys.HandleExport)

	// 4. Metrics
	if gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(gatherer))
	}

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      loggingMiddleware(mux, m),
		ReadTimeout:  time.Duration(cfg.ReadTimeout),
		WriteTimeout: time.Duration(cfg.WriteTimeout),
		IdleTimeout:  60 * time.Second,
	}
}

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler, m *metrics.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", elapsed)
		if m != nil {
			// The mux fills in the matched pattern, which keeps label cardinality bounded.
			endpoint := r.Pattern
			if endpoint == "" {
				endpoint = "unmatched"
			}
			m.RecordHTTPRequest(endpoint, r.Method, strconv.Itoa(rec.status), elapsed)
		}
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	Formatter{}.WriteResponse(w, r, http.StatusOK, map[string]string{"version": version.Version})
}
