package dependency

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/emberchat/ember/infrastructure/cache"
	"github.com/emberchat/ember/infrastructure/events"
	"github.com/emberchat/ember/infrastructure/keystore"
	"github.com/emberchat/ember/infrastructure/metrics"
	"github.com/emberchat/ember/infrastructure/metrics/exporters"
	"github.com/emberchat/ember/infrastructure/tracing"
)

func (c *Container) initInfrastructure() error {
	tp, tracer, err := tracing.Init(c.Config)
	if err != nil {
		c.Logger.Error("failed to initialize Jaeger exporter", zap.Error(err))
		c.Logger.Warn("Continuing with noop tracer")
		tracer = otel.Tracer("ember")
	} else {
		c.TracerProvider = tp
		if c.Config.Jaeger.Enabled {
			c.Logger.Info("Jaeger exporter initialized successfully",
				zap.String("endpoint", c.Config.Jaeger.Endpoint),
				zap.String("service", c.Config.Jaeger.ServiceName),
			)
		}
	}
	c.tracer = tracer

	meter := exporters.Prometheus(c.Config.Jaeger.ServiceName, c.Config.Jaeger.ServiceVersion)
	if meter == nil {
		return fmt.Errorf("failed to initialize Prometheus exporter")
	}

	c.MetricsManager = metrics.NewMetricsManager(meter, c.Logger)

	c.MetricsManager.NewGauge("app_go_routines", "Number of goroutines")
	c.MetricsManager.NewGauge("app_sys_memory_alloc", "Bytes allocated and in use")
	c.MetricsManager.NewGauge("app_sys_total_alloc", "Total bytes allocated")
	c.MetricsManager.NewGauge("app_go_numGC", "Number of completed GC cycles")
	c.MetricsManager.NewGauge("app_go_sys", "Total bytes of memory obtained from OS")

	c.MetricsManager.NewCounter("http_requests_total", "Total number of HTTP requests")
	c.MetricsManager.NewHistogram("http_request_duration_seconds", "HTTP request duration in seconds",
		0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0)
	for _, class := range []string{"1xx", "2xx", "3xx", "4xx", "5xx"} {
		c.MetricsManager.NewCounter("http_responses_"+class+"_total", "HTTP responses with a "+class+" status")
	}

	c.Logger.Info("Metrics initialized successfully")

	c.Notifier = events.NewNotifier(cache.GetRedis(), c.Logger)
	c.KeyStore = keystore.New()

	c.Logger.Info("Infrastructure initialized successfully")

	return nil
}
