package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "pronaf-monitor"
	ServiceVersion = "1.0.0"
	MeterName      = "pronafmonitor"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
	}
}

// InitializeOTel initializes tracing and metrics providers.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case "none", "":
		// spans are still created so trace IDs reach the logs
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.Handler()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetMeterProvider(mp)

	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Dashboard metrics
	DashboardRenders        metric.Int64Counter
	DashboardRenderDuration metric.Float64Histogram
	EmptySelections         metric.Int64Counter
	MapFallbacks            metric.Int64Counter
	DatasetLoads            metric.Int64Counter
	DatasetRows             metric.Int64Gauge

	// Boundary fetch metrics
	GeoFetches       metric.Int64Counter
	GeoFetchFailures metric.Int64Counter
	GeoFetchDuration metric.Float64Histogram

	// Export metrics
	ExportsTotal metric.Int64Counter
	ExportBytes  metric.Int64Counter

	// WebSocket sessions
	ActiveSessions metric.Int64UpDownCounter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests")); err != nil {
		return nil, err
	}

	if m.DashboardRenders, err = meter.Int64Counter("dashboard_renders_total",
		metric.WithDescription("Total number of dashboard render descriptions produced")); err != nil {
		return nil, err
	}
	if m.DashboardRenderDuration, err = meter.Float64Histogram("dashboard_render_duration_seconds",
		metric.WithDescription("Time to derive a dashboard from the cached dataset"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.EmptySelections, err = meter.Int64Counter("dashboard_empty_selections_total",
		metric.WithDescription("Renders halted because the filter matched no records")); err != nil {
		return nil, err
	}
	if m.MapFallbacks, err = meter.Int64Counter("dashboard_map_fallbacks_total",
		metric.WithDescription("Renders that replaced the choropleth with the concentration chart")); err != nil {
		return nil, err
	}
	if m.DatasetLoads, err = meter.Int64Counter("dataset_loads_total",
		metric.WithDescription("Dataset loads from disk")); err != nil {
		return nil, err
	}
	if m.DatasetRows, err = meter.Int64Gauge("dataset_rows",
		metric.WithDescription("Rows in the cleaned dataset")); err != nil {
		return nil, err
	}

	if m.GeoFetches, err = meter.Int64Counter("geo_fetches_total",
		metric.WithDescription("Remote boundary document fetch attempts")); err != nil {
		return nil, err
	}
	if m.GeoFetchFailures, err = meter.Int64Counter("geo_fetch_failures_total",
		metric.WithDescription("Failed remote boundary document fetches")); err != nil {
		return nil, err
	}
	if m.GeoFetchDuration, err = meter.Float64Histogram("geo_fetch_duration_seconds",
		metric.WithDescription("Remote boundary document fetch duration"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}

	if m.ExportsTotal, err = meter.Int64Counter("exports_total",
		metric.WithDescription("Table exports served")); err != nil {
		return nil, err
	}
	if m.ExportBytes, err = meter.Int64Counter("export_bytes_total",
		metric.WithDescription("Bytes of exported table data"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}

	if m.ActiveSessions, err = meter.Int64UpDownCounter("websocket_active_sessions",
		metric.WithDescription("Open interactive dashboard sessions")); err != nil {
		return nil, err
	}

	return m, nil
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, val))
		case int:
			span.SetAttributes(attribute.Int(k, val))
		case int64:
			span.SetAttributes(attribute.Int64(k, val))
		case float64:
			span.SetAttributes(attribute.Float64(k, val))
		case bool:
			span.SetAttributes(attribute.Bool(k, val))
		default:
			span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
}

// RecordRender records one dashboard derivation.
func RecordRender(ctx context.Context, metrics *BusinessMetrics, duration time.Duration, records int, halted, fallback bool) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("halted", halted),
		attribute.Bool("map_fallback", fallback),
	}
	metrics.DashboardRenders.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.DashboardRenderDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	if halted {
		metrics.EmptySelections.Add(ctx, 1)
	}
	if fallback {
		metrics.MapFallbacks.Add(ctx, 1)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("dashboard.rendered",
			trace.WithAttributes(
				attribute.Int("records", records),
				attribute.Bool("halted", halted),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// RecordGeoFetch records one remote boundary fetch attempt.
func RecordGeoFetch(ctx context.Context, metrics *BusinessMetrics, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	status := attribute.String("status", "success")
	if err != nil {
		status = attribute.String("status", "failure")
		metrics.GeoFetchFailures.Add(ctx, 1)
	}
	metrics.GeoFetches.Add(ctx, 1, metric.WithAttributes(status))
	metrics.GeoFetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(status))
}

// RecordExport records a served export.
func RecordExport(ctx context.Context, metrics *BusinessMetrics, format string, size int, cached bool) {
	if metrics == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("format", format),
		attribute.Bool("cached", cached),
	)
	metrics.ExportsTotal.Add(ctx, 1, attrs)
	metrics.ExportBytes.Add(ctx, int64(size), attrs)
}

// RecordDatasetLoad records a dataset read from disk.
func RecordDatasetLoad(ctx context.Context, metrics *BusinessMetrics, source string, rows int) {
	if metrics == nil {
		return
	}

	metrics.DatasetLoads.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	metrics.DatasetRows.Record(ctx, int64(rows))
}
