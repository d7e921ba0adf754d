// Package contracts groups the shapes shared between the server, the
// browser page and offline consumers of the exports.
package contracts

import "pronafmonitor/pkg/contracts/events"

const (
	// APIVersion prefixes the JSON routes (/api/...) and names the
	// api/v1 package.
	APIVersion = "v1"

	// DataYear is the reference year of the credit and operation columns.
	DataYear = 2025

	// SnapshotSchema is bumped whenever the SQLite snapshot layout changes.
	SnapshotSchema = 1
)

// Contracts describes the interfaces a client can rely on.
type Contracts struct {
	API            string `json:"api_version"`
	Protocol       string `json:"ws_protocol"`
	DataYear       int    `json:"data_year"`
	SnapshotSchema int    `json:"snapshot_schema"`
}

// Current returns the contract versions compiled into this binary.
func Current() Contracts {
	return Contracts{
		API:            APIVersion,
		Protocol:       events.ProtocolVersion,
		DataYear:       DataYear,
		SnapshotSchema: SnapshotSchema,
	}
}
