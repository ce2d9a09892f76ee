package observability

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/honeynil/ecommerce-api/internal/infrastructure/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup initializes logging, metrics and tracing. It returns the tracer
// shutdown func and the handler serving /metrics.
func Setup(ctx context.Context, serviceName, otlpEndpoint string) (func(context.Context) error, http.Handler) {
	observability.InitLogger(slog.LevelInfo)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observability.InitMetrics(reg)

	tracerShutdown := observability.InitTracing(ctx, serviceName, otlpEndpoint)
	return tracerShutdown, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
