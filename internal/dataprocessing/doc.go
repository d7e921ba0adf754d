// Package dataprocessing turns the municipality table into dashboard inputs.
//
// # Architecture
//
// The package is organized as a one-way pipeline:
//
//  1. Loader: reads a delimited file (gota) or an xlsx workbook (excelize) into a raw table
//  2. Cleaner: coerces numeric columns, zero-fills and normalizes the IBGE code
//  3. Filter: cascading region then municipality narrowing
//  4. Analytics and charts: KPI sums and chart specifications
//
// Store memoizes cleaned datasets per source path.
//
// # Usage
//
//	store := dataprocessing.NewStore(dataprocessing.NewLoader(dataprocessing.DefaultLoadOptions(), logger), logger)
//	ds, err := store.Get(ctx, "data/df_merged.csv")
//	if err != nil {
//	    return err
//	}
//	filtered, _ := dataprocessing.ApplySelection(ds, domain.Selection{Region: "Muriaé"})
//	tiles := dataprocessing.KPITiles(dataprocessing.ComputeKPIs(filtered))
//
// # Data Flow
//
//	CSV/XLSX → Loader → RawTable → Clean → Dataset → ApplySelection → KPIs / charts / table
//
// # Error Handling
//
// A missing source file is reported as a DATA_UNAVAILABLE application error
// wrapping ErrDataFileNotFound. Dirty numeric cells are never errors; they
// are repaired to zero.
package dataprocessing
