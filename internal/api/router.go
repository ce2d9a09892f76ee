package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/honeynil/ecommerce-api/internal/handler"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/auth"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/observability"
	"github.com/rs/cors"
)

const apiPrefix = "/api/accounts"

type RouterDeps struct {
	Handler        *handler.Handler
	Codec          *auth.TokenCodec
	Cookies        *auth.CookieTransport
	MetricsHandler http.Handler
	CORSOrigins    []string
}

func SetupRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger, metricsMiddleware)

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	accounts := r.PathPrefix(apiPrefix).Subrouter()
	deps.Handler.RegisterPublicRoutes(accounts)

	// Защищённые роуты с JWT
	protected := accounts.NewRoute().Subrouter()
	protected.Use(auth.AuthMiddleware(deps.Codec, deps.Cookies))
	deps.Handler.RegisterProtectedRoutes(protected)

	if len(deps.CORSOrigins) == 0 {
		return r
	}
	// Cookies only travel cross-origin with credentials allowed.
	c := cors.New(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// requestLogger attaches a logger carrying the request id to the context.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger := slog.Default().With("request_id", requestID)
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r.WithContext(observability.ContextWithLogger(r.Context(), logger)))

		logger.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.statusCode(),
			"duration", time.Since(start))
	})
}

// metricsMiddleware labels requests by route template rather than raw path.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		status := fmt.Sprintf("%d", recorder.statusCode())
		observability.RequestCounter.WithLabelValues(r.Method, endpoint, status).Inc()
		observability.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder для захвата статуса ответа
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
