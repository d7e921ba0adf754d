package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"pronafmonitor/internal/config"
	apperrors "pronafmonitor/internal/errors"
	"pronafmonitor/pkg/contracts/domain"
)

// ErrDataFileNotFound is returned when the configured table is absent.
var ErrDataFileNotFound = errors.New("data file not found")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadOptions controls how a source file is read.
type LoadOptions struct {
	Delimiter rune
	Sheet     string
}

// DefaultLoadOptions reads comma separated files and the first sheet of a workbook.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Delimiter: ','}
}

// Loader reads municipality tables from disk.
type Loader struct {
	opts   LoadOptions
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(opts LoadOptions, logger *slog.Logger) *Loader {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{opts: opts, logger: logger.With(slog.String("component", "loader"))}
}

// Load reads path into a raw table. Files ending in .xlsx are read as
// workbooks, everything else as delimited text. A missing file yields a
// DATA_UNAVAILABLE application error wrapping ErrDataFileNotFound.
func (l *Loader) Load(ctx context.Context, path string) (*domain.RawTable, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewDataUnavailableError(
				fmt.Sprintf(config.MsgDataFileNotFound, path),
				fmt.Errorf("%w: %w", ErrDataFileNotFound, err),
			).WithContext("path", path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var (
		table *domain.RawTable
		err   error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		table, err = l.loadWorkbook(path)
	} else {
		table, err = l.loadDelimited(path)
	}
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read %s", path), err).
			WithContext("path", path)
	}
	table.Source = path

	l.logger.InfoContext(ctx, "dataset file read",
		slog.String("path", path),
		slog.Int("rows", len(table.Rows)),
		slog.Int("columns", len(table.Header)))

	if missing := MissingColumns(table.Header); len(missing) > 0 {
		l.logger.WarnContext(ctx, "declared columns missing from source, defaulting",
			slog.String("path", path),
			slog.Any("columns", missing))
	}
	if odd := IrregularColumns(table.Header); len(odd) > 0 {
		l.logger.WarnContext(ctx, "blank or repeated column names, the first copy is used",
			slog.String("path", path),
			slog.Any("columns", odd))
	}
	return table, nil
}

func (l *Loader) loadDelimited(path string) (*domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	return ReadDelimited(f, l.opts.Delimiter)
}

// ReadDelimited parses delimited text into a raw table. Every column is
// read as text; a leading UTF-8 byte order mark is ignored. A header
// without data rows is an empty table, not an error. Header cells are kept
// exactly as written, blank and repeated names included.
func ReadDelimited(r io.Reader, delimiter rune) (*domain.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read delimited: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	header, hasRows, err := readHeader(data, delimiter)
	if err != nil {
		return nil, fmt.Errorf("parse delimited: %w", err)
	}
	if !hasRows {
		return &domain.RawTable{Header: header}, nil
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.WithDelimiter(delimiter),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("parse delimited: %w", df.Err)
	}

	// gota renames blank and repeated header cells (X0, Name_0, Name_1)
	records := df.Records()
	return &domain.RawTable{Header: header, Rows: records[1:]}, nil
}

// readHeader returns the first record of data and whether another follows.
func readHeader(data []byte, delimiter rune) ([]string, bool, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, errors.New("no header")
	}
	if err != nil {
		return nil, false, err
	}
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return header, false, nil
		}
		return nil, false, err
	}
	return header, true, nil
}

func (l *Loader) loadWorkbook(path string) (*domain.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := l.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	header := rows[0]
	body := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		// GetRows trims trailing empty cells
		padded := make([]string, len(header))
		copy(padded, row)
		body = append(body, padded)
	}
	return &domain.RawTable{Header: header, Rows: body}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// MissingColumns returns the declared columns absent from header, in
// declaration order.
func MissingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, col := range config.DeclaredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// IrregularColumns returns the header cells that are blank or repeat an
// earlier name, each once. Cleaning reads the first column of a repeated
// name.
func IrregularColumns(header []string) []string {
	seen := make(map[string]int, len(header))
	var odd []string
	for _, h := range header {
		seen[h]++
		if (h == "" && seen[h] == 1) || (h != "" && seen[h] == 2) {
			odd = append(odd, h)
		}
	}
	return odd
}
