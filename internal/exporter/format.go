package exporter

import (
	"fmt"
	"strings"

	"pronafmonitor/internal/config"
)

// Format is a download format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// MimeType returns the content type served for f.
func (f Format) MimeType() string {
	if f == FormatXLSX {
		return config.ExportXLSXMimeType
	}
	return config.ExportCSVMimeType
}

// Artifact is an encoded download.
type Artifact struct {
	Format   Format
	FileName string
	MimeType string
	Data     []byte
}
