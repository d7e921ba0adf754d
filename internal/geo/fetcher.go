package geo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"pronafmonitor/internal/config"
	apperrors "pronafmonitor/internal/errors"
	"pronafmonitor/internal/infrastructure"
)

// maxDocumentSize bounds the boundary document read into memory.
const maxDocumentSize = 64 << 20

// Fetcher retrieves the municipal boundary document and keeps the first
// successful result for the life of the process. Failures are returned to
// the caller and the next call tries again. There is no retry.
type Fetcher struct {
	url     string
	idKey   string
	client  *http.Client
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
	tracer  trace.Tracer

	mu     sync.RWMutex
	cached *Boundaries
	group  singleflight.Group
}

// NewFetcher creates a fetcher for cfg.BoundariesURL with cfg.Timeout.
func NewFetcher(cfg config.GeoConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultGeoTimeout
	}
	idKey := cfg.FeatureIDKey
	if idKey == "" {
		idKey = "id"
	}
	return &Fetcher{
		url:     cfg.BoundariesURL,
		idKey:   idKey,
		client:  &http.Client{Timeout: timeout},
		logger:  infrastructure.WithComponent(logger, "geo_fetcher"),
		metrics: metrics,
		tracer:  otel.Tracer(infrastructure.ServiceName),
	}
}

// URL returns the document location.
func (f *Fetcher) URL() string {
	return f.url
}

// Cached returns the document if it has been fetched.
func (f *Fetcher) Cached() *Boundaries {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cached
}

// Get returns the boundary document, fetching it on first use.
// Concurrent first calls share a single request.
func (f *Fetcher) Get(ctx context.Context) (*Boundaries, error) {
	if b := f.Cached(); b != nil {
		return b, nil
	}

	v, err, _ := f.group.Do(f.url, func() (interface{}, error) {
		if b := f.Cached(); b != nil {
			return b, nil
		}
		// the shared fetch outlives any single caller; the client timeout bounds it
		b, err := f.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.cached = b
		f.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Boundaries), nil
}

func (f *Fetcher) fetch(ctx context.Context) (b *Boundaries, err error) {
	ctx, span := f.tracer.Start(ctx, "geo.fetch_boundaries",
		trace.WithAttributes(attribute.String("url", f.url)))
	start := time.Now()
	defer func() {
		infrastructure.RecordGeoFetch(ctx, f.metrics, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid boundaries url", err).WithContext("url", f.url)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.WarnContext(ctx, "boundary fetch failed",
			slog.String("url", f.url),
			slog.String("error", err.Error()))
		return nil, apperrors.NewNetworkError("boundary fetch failed", err).WithContext("url", f.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.WarnContext(ctx, "boundary fetch returned unexpected status",
			slog.String("url", f.url),
			slog.Int("status", resp.StatusCode))
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("boundary fetch returned status %d", resp.StatusCode), nil,
		).WithContext("url", f.url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, apperrors.NewNetworkError("boundary read failed", err).WithContext("url", f.url)
	}

	b, err = Parse(data, f.idKey)
	if err != nil {
		f.logger.WarnContext(ctx, "boundary document rejected",
			slog.String("url", f.url),
			slog.String("error", err.Error()))
		return nil, apperrors.NewParsingError("boundary document rejected", err).WithContext("url", f.url)
	}
	b.fetchedAt = time.Now()

	span.SetAttributes(attribute.Int("features", b.Len()), attribute.Int("bytes", len(data)))
	f.logger.InfoContext(ctx, "boundary document cached",
		slog.String("url", f.url),
		slog.Int("features", b.Len()),
		slog.Int("bytes", len(data)),
		slog.Duration("took", time.Since(start)))
	return b, nil
}
