package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestOTelInitialization tests OpenTelemetry initialization
func TestOTelInitialization(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	providers, err := InitializeOTel(nil, logger)
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

// TestTraceCorrelation tests trace ID correlation
func TestTraceCorrelation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	tracer := otel.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	// span trace IDs are visible to the logger without an explicit WithTraceID
	assert.Equal(t, traceID, GetTraceID(ctx))

	ctx = WithTraceID(ctx, "explicit")
	assert.Equal(t, "explicit", GetTraceID(ctx))
}

// TestBusinessMetrics tests business metrics creation and recording helpers
func TestBusinessMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.HTTPRequestsTotal)
	assert.NotNil(t, metrics.DashboardRenders)
	assert.NotNil(t, metrics.MapFallbacks)
	assert.NotNil(t, metrics.GeoFetchFailures)
	assert.NotNil(t, metrics.ExportBytes)
	assert.NotNil(t, metrics.ActiveSessions)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRender(ctx, metrics, 10*time.Millisecond, 42, false, true)
		RecordRender(ctx, metrics, time.Millisecond, 0, true, false)
		RecordGeoFetch(ctx, metrics, time.Second, errors.New("timeout"))
		RecordGeoFetch(ctx, metrics, time.Second, nil)
		RecordExport(ctx, metrics, "csv", 1024, false)
		RecordDatasetLoad(ctx, metrics, "csv", 142)
	})
}

func TestRecordHelpersTolerateNilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRender(ctx, nil, time.Millisecond, 1, false, false)
		RecordGeoFetch(ctx, nil, time.Millisecond, nil)
		RecordExport(ctx, nil, "xlsx", 1, true)
		RecordDatasetLoad(ctx, nil, "xlsx", 1)
	})
}

// TestPrometheusEndpoint tests the Prometheus metrics endpoint
func TestPrometheusEndpoint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}

// TestOTelConfiguration tests different configuration options
func TestOTelConfiguration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		config  *OTelConfig
		wantErr bool
	}{
		{
			name: "tracing only",
			config: &OTelConfig{
				ServiceName:   "test-service",
				EnableTracing: true,
				TraceExporter: "none",
				SampleRatio:   1.0,
			},
		},
		{
			name: "metrics only",
			config: &OTelConfig{
				ServiceName:    "test-service",
				EnableMetrics:  true,
				MetricExporter: "prometheus",
			},
		},
		{
			name: "unsupported trace exporter",
			config: &OTelConfig{
				ServiceName:   "test-service",
				EnableTracing: true,
				TraceExporter: "jaeger",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.config, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, providers.Shutdown(context.Background()))
		})
	}
}

// TestTracePropagation tests trace propagation across contexts
func TestTracePropagation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	tracer := otel.Tracer("propagation-test")

	ctx, parentSpan := tracer.Start(context.Background(), "parent-operation")
	defer parentSpan.End()

	_, childSpan := tracer.Start(ctx, "child-operation")
	defer childSpan.End()

	assert.Equal(t, parentSpan.SpanContext().TraceID(), childSpan.SpanContext().TraceID())
	assert.NotEqual(t, parentSpan.SpanContext().SpanID(), childSpan.SpanContext().SpanID())
}

func TestSetSpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "dashboard.render")
	SetSpanAttributes(ctx, map[string]interface{}{
		"records":      8,
		"credit":       7741001.5,
		"halted":       false,
		"region":       "Viçosa",
		"municipality": []string{"Cajuri"},
	})
	span.End()

	// no span in context is a no-op
	SetSpanAttributes(context.Background(), map[string]interface{}{"records": 1})

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	got := make(map[attribute.Key]attribute.Value)
	for _, kv := range ended[0].Attributes() {
		got[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(8), got["records"].AsInt64())
	assert.Equal(t, 7741001.5, got["credit"].AsFloat64())
	assert.False(t, got["halted"].AsBool())
	assert.Equal(t, "Viçosa", got["region"].AsString())
	assert.Equal(t, "[Cajuri]", got["municipality"].AsString())
}
