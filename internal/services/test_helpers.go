package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pronafmonitor/internal/geo"
)

// MockBoundarySource is a mock for the BoundarySource interface
type MockBoundarySource struct {
	mock.Mock
}

func (m *MockBoundarySource) Get(ctx context.Context) (*geo.Boundaries, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).(*geo.Boundaries)
	return b, args.Error(1)
}

func (m *MockBoundarySource) Cached() *geo.Boundaries {
	args := m.Called()
	b, _ := args.Get(0).(*geo.Boundaries)
	return b
}

func (m *MockBoundarySource) URL() string {
	return "http://boundaries.test/geojs-31-mun.json"
}

// staticProbe is a fixed ReadinessProbe.
type staticProbe struct {
	dataset, boundaries bool
}

func (p staticProbe) Ready() (bool, bool) {
	return p.dataset, p.boundaries
}

// staticSessions is a fixed SessionCounter with s open sessions.
type staticSessions int

func (s staticSessions) Stats() map[string]int64 {
	return map[string]int64{
		"active_sessions": int64(s),
		"total_sessions":  int64(s) + 2,
		"broadcasts_sent": 1,
	}
}
