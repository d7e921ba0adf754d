package exporter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/patrickmn/go-cache"

	"pronafmonitor/internal/config"
	"pronafmonitor/internal/infrastructure"
	"pronafmonitor/pkg/contracts/domain"
)

// Exporter encodes filtered tables and memoizes the result by content, so
// the same selection is serialized once per process.
type Exporter struct {
	store   *cache.Cache
	names   config.ExportConfig
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewExporter creates an exporter. Entries never expire.
func NewExporter(names config.ExportConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if names.CSVFileName == "" {
		names.CSVFileName = config.ExportCSVFileName
	}
	if names.XLSXFileName == "" {
		names.XLSXFileName = config.ExportXLSXFileName
	}
	return &Exporter{
		store:   cache.New(cache.NoExpiration, 0),
		names:   names,
		logger:  infrastructure.WithComponent(logger, "exporter"),
		metrics: metrics,
	}
}

// FileName returns the download name for f.
func (e *Exporter) FileName(f Format) string {
	if f == FormatXLSX {
		return e.names.XLSXFileName
	}
	return e.names.CSVFileName
}

// Export encodes table in format f. cached reports whether the bytes came
// from an earlier identical request.
func (e *Exporter) Export(ctx context.Context, f Format, table *domain.TableView) (art Artifact, cached bool, err error) {
	key := CacheKey(f, table)
	if v, ok := e.store.Get(key); ok {
		art = v.(Artifact)
		infrastructure.RecordExport(ctx, e.metrics, string(f), len(art.Data), true)
		return art, true, nil
	}

	var data []byte
	switch f {
	case FormatCSV:
		data, err = EncodeCSV(table)
	case FormatXLSX:
		data, err = EncodeXLSX(table)
	default:
		err = fmt.Errorf("unsupported export format %q", f)
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("encode %s: %w", f, err)
	}

	art = Artifact{Format: f, FileName: e.FileName(f), MimeType: f.MimeType(), Data: data}
	e.store.Set(key, art, cache.NoExpiration)

	e.logger.DebugContext(ctx, "export encoded",
		slog.String("format", string(f)),
		slog.Int("rows", len(table.Rows)),
		slog.Int("bytes", len(data)))
	infrastructure.RecordExport(ctx, e.metrics, string(f), len(data), false)
	return art, false, nil
}

// Len returns the number of cached artifacts.
func (e *Exporter) Len() int {
	return e.store.ItemCount()
}

// Flush drops every cached artifact.
func (e *Exporter) Flush() {
	e.store.Flush()
}

// CacheKey fingerprints the format and the exact table content.
func CacheKey(f Format, table *domain.TableView) string {
	h := sha256.New()
	write := func(s string) {
		// length prefix keeps cell boundaries unambiguous
		fmt.Fprintf(h, "%d:%s", len(s), s)
	}
	write(string(f))
	for _, c := range table.Columns {
		write(c)
	}
	for _, row := range table.Rows {
		h.Write([]byte{'\n'})
		for _, cell := range row {
			write(cell)
		}
	}
	return "export:" + hex.EncodeToString(h.Sum(nil))
}
