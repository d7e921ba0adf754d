// Package geo fetches and indexes the municipal boundary document used by
// the choropleth. The document is decoded with go-geom and kept for the life
// of the process once a fetch succeeds.
package geo
