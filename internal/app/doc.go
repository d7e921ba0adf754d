// Package app wires the dashboard server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from PRONAF_* variables and the optional YAML file
//	2. Initialize logging and OpenTelemetry
//	3. Build the dataset store, the boundary fetcher and the exporter
//	4. Build the dashboard and health services and the WebSocket hub
//	5. Set up the chi router and its middleware chain
//	6. Create the HTTP server
//
// New performs these steps for an explicit configuration; NewApplication
// loads it first. Start warms the dataset, starts the hub and listens;
// Run additionally waits for SIGINT or SIGTERM and then calls Stop.
//
// # Degraded Startup
//
// A missing dataset or an unreachable boundary source does not stop the
// server. The page reports the missing file and the map falls back to the
// placeholder until the document can be fetched.
//
// # Error Handling
//
// All initialization errors are returned to the caller. The package never
// calls os.Exit.
package app
