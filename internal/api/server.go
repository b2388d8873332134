package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apperrors "github.com/callcharge-production/internal/errors"
	"github.com/callcharge-production/internal/metrics"
	"github.com/callcharge-production/internal/models"
	"github.com/callcharge-production/internal/rateconfig"
	"github.com/callcharge-production/internal/rating"
)

// ConfigStore is the tenants' rate configuration store.
type ConfigStore interface {
	Get(tenant string) (*rateconfig.Configuration, error)
	Put(ctx context.Context, cfg *rateconfig.Configuration) error
	List() []string
}

// CallSource supplies raw call rows for a tenant and date range.
type CallSource interface {
	TenantExists(ctx context.Context, tenant string) (bool, error)
	Fetch(ctx context.Context, tenant string, start, end time.Time) ([]models.CallRow, error)
}

type Server struct {
	configs ConfigStore
	calls   CallSource
	rater   *rating.Service
	port    int
	logger  *zap.Logger
}

func NewServer(configs ConfigStore, calls CallSource, rater *rating.Service, port int, logger *zap.Logger) *Server {
	return &Server{
		configs: configs,
		calls:   calls,
		rater:   rater,
		port:    port,
		logger:  logger.Named("api"),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	// Middleware
	r.Use(s.loggingMiddleware)
	r.Use(corsMiddleware)

	r.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Tenant configuration
	r.HandleFunc("/api/tenants", s.handleListTenants).Methods("GET")
	r.HandleFunc("/api/tenants/{tenant}/config", s.handleGetConfig).Methods("GET")
	r.HandleFunc("/api/tenants/{tenant}/config", s.handlePutConfig).Methods("PUT")

	// Rating
	r.HandleFunc("/api/tenants/{tenant}/rate", s.handleRate).Methods("POST")
	r.HandleFunc("/api/tenants/{tenant}/charges", s.handleCharges).Methods("GET")

	return r
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		Addr:         fmt.Sprintf(":%d", s.port),
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.Int("port", s.port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(started)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := apperrors.TypeOf(err)
	switch kind {
	case apperrors.TypeInput, apperrors.TypeConfig,
		apperrors.TypeMalformedTimestamp, apperrors.TypeMalformedDuration:
		status = http.StatusBadRequest
	case apperrors.TypeNotFound, apperrors.TypeMissingConfiguration:
		status = http.StatusNotFound
	default:
		kind = apperrors.TypeInternal
		s.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: string(kind), Message: err.Error()})
}
