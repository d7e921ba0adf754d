// Package shared holds helpers used across the dashboard's packages that do
// not belong to any single layer.
//
// The testutil subpackage provides:
//
//	- a buffered slog handler for asserting on structured logs
//	- the sample Zona da Mata municipality table as CSV or XLSX files
//	- a matching municipal boundary FeatureCollection
//
// Example usage:
//
//	func TestLoad(t *testing.T) {
//	    path := testutil.WriteSampleCSV(t, t.TempDir())
//	    logger, handler := testutil.NewTestLogger(t)
//	    ...
//	}
//
// testutil must only import config-level packages so that any package's
// internal tests can use it without an import cycle.
package shared
