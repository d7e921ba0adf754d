package http

import (
	"context"

	"pronafmonitor/internal/exporter"
	"pronafmonitor/internal/geo"
	"pronafmonitor/internal/services"
	"pronafmonitor/pkg/contracts/domain"
)

// DashboardServiceInterface defines the interface for the dashboard service
type DashboardServiceInterface interface {
	Render(ctx context.Context, sel domain.Selection) (*domain.Dashboard, error)
	Unavailable(sel domain.Selection, err error) *domain.Dashboard
	Filters(ctx context.Context, sel domain.Selection) (*domain.FilterState, error)
	Charts(ctx context.Context, sel domain.Selection) (*domain.Charts, error)
	Export(ctx context.Context, sel domain.Selection, f exporter.Format) (exporter.Artifact, error)
	Boundaries(ctx context.Context) (*geo.Boundaries, error)
	Locate(ctx context.Context, lon, lat float64) (*services.LocateResult, error)
}

var _ DashboardServiceInterface = (*services.DashboardService)(nil)
