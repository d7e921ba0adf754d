// Package exporter serializes the filtered municipality table for download.
//
// EncodeCSV writes UTF-8 CSV with a byte order mark so spreadsheet tools
// detect the encoding. EncodeXLSX writes a single-sheet workbook with
// numeric cells typed. Exporter memoizes both by a fingerprint of the
// table content.
//
// WriteSQLite produces a standalone snapshot of the cleaned dataset for
// offline analysis.
//
// Example usage:
//
//	exp := exporter.NewExporter(cfg.Export, logger, metrics)
//	art, cached, err := exp.Export(ctx, exporter.FormatCSV, dataprocessing.BuildTable(filtered))
package exporter
