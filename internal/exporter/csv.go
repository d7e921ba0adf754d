package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"pronafmonitor/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // lets spreadsheet tools detect UTF-8
	Delimiter rune
}

// WriteCSVTo writes headers and records to w.
func WriteCSVTo(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if options.Delimiter != 0 {
		writer.Comma = options.Delimiter
	}

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// EncodeCSV serializes a table as UTF-8 CSV with a byte order mark, one
// header line and one line per row.
func EncodeCSV(table *domain.TableView) ([]byte, error) {
	var buf bytes.Buffer
	err := WriteCSVTo(&buf, WriteOptions{
		Headers:   table.Columns,
		Records:   table.Rows,
		BOMPrefix: true,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	slog.Info("Writing export file",
		slog.String("file_path", path),
		slog.Int("bytes", len(data)))

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
