package exporter

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"pronafmonitor/internal/config"
	"pronafmonitor/pkg/contracts/domain"
)

// DefaultSheetName is the worksheet the table is written to.
const DefaultSheetName = "Municipios"

var numericColumns = func() map[string]bool {
	m := make(map[string]bool, len(config.NumericColumns))
	for _, c := range config.NumericColumns {
		m[c] = true
	}
	return m
}()

// EncodeXLSX serializes a table as a single-sheet workbook. Declared
// numeric columns are stored as numbers, everything else as text, and the
// header row is frozen.
func EncodeXLSX(table *domain.TableView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := DefaultSheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if len(table.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(table.Columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, boldStyle); err != nil {
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	for r, row := range table.Rows {
		values := make([]interface{}, len(row))
		for c, cell := range row {
			values[c] = cellValue(table.Columns, c, cell)
		}
		start, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(columns []string, idx int, cell string) interface{} {
	if idx >= len(columns) || !numericColumns[columns[idx]] {
		return cell
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}
