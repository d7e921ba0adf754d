package services

import "errors"

// Dashboard service errors
var (
	// Selection errors
	ErrNoRecords        = errors.New("no records match the selection")
	ErrUnknownRegion    = errors.New("unknown region")
	ErrInvalidSelection = errors.New("invalid selection")

	// Geo errors
	ErrOutsideBoundaries = errors.New("point is outside every municipal boundary")

	// General errors
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
