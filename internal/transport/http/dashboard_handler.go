package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"pronafmonitor/internal/charts"
	"pronafmonitor/internal/config"
	"pronafmonitor/internal/dataprocessing"
	apierrors "pronafmonitor/internal/errors"
	"pronafmonitor/internal/exporter"
	"pronafmonitor/internal/middleware"
	"pronafmonitor/internal/services"
	api "pronafmonitor/pkg/contracts/api/v1"
	"pronafmonitor/pkg/contracts/domain"
)

// Default PNG size of /charts/{chart}.png.
const (
	defaultChartWidth  = 960
	defaultChartHeight = 540
)

// DashboardHandler serves the dashboard JSON API, downloads, chart images
// and the boundary passthrough.
type DashboardHandler struct {
	service      DashboardServiceInterface
	validate     *validator.Validate
	params       *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validate:     middleware.NewValidator(),
		params:       middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes adds the dashboard routes to r, which is expected to be
// mounted under the API base path.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/dashboard", h.GetDashboard)
	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/filters", h.GetFilters)
	r.With(middleware.AuditLog(h.logger)).Get("/export.{format}", h.Export)
	r.Get("/charts/{chart}.png", h.GetChartPNG)

	r.Route("/geo", func(r chi.Router) {
		r.Get("/boundaries", h.GetBoundaries)
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/locate", h.Locate)
	})
}

// selection reads and validates the filter parameters. On failure the
// problem response has been written.
func (h *DashboardHandler) selection(w http.ResponseWriter, r *http.Request) (domain.Selection, bool) {
	req := api.ParseSelection(r.URL.Query())
	if err := middleware.ValidateStruct(h.validate, req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.Selection{}, false
	}
	return req.Selection(), true
}

// GetDashboard handles GET /api/dashboard. An empty selection answers 200
// with a halted dashboard; a missing dataset answers 503.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}

	d, err := h.service.Render(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, d)
}

// GetFilters handles GET /api/filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}

	state, err := h.service.Filters(r.Context(), sel)
	if err != nil {
		if errors.Is(err, services.ErrUnknownRegion) {
			err = apierrors.ErrValidation(api.ParamRegion, fmt.Sprintf("unknown region %q", sel.Region))
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, state)
}

// Export handles GET /api/export.{format}
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}

	req := api.ExportRequest{Format: chi.URLParam(r, "format")}
	if err := middleware.ValidateStruct(h.validate, req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	f, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(api.ParamFormat, err.Error()))
		return
	}

	art, err := h.service.Export(r.Context(), sel, f)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.exportError(f, err))
		return
	}

	w.Header().Set("Content-Type", art.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Data); err != nil {
		h.logger.DebugContext(r.Context(), "export write aborted", slog.String("error", err.Error()))
	}
}

func (h *DashboardHandler) exportError(f exporter.Format, err error) error {
	var appErr *apierrors.AppError
	switch {
	case errors.Is(err, services.ErrNoRecords):
		return apierrors.NoRecordsError(config.MsgNoRecords, "records")
	case errors.As(err, &appErr):
		return err
	default:
		return apierrors.ExportError(string(f), err)
	}
}

// GetChartPNG handles GET /api/charts/{chart}.png
func (h *DashboardHandler) GetChartPNG(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}

	req := api.ChartRequest{Chart: chi.URLParam(r, "chart")}
	if err := middleware.ValidateStruct(h.validate, req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrChartNotFound)
		return
	}
	if req.Width, ok = h.params.ValidateInt(w, r, api.ParamWidth, 200, 4000, defaultChartWidth); !ok {
		return
	}
	if req.Height, ok = h.params.ValidateInt(w, r, api.ParamHeight, 200, 4000, defaultChartHeight); !ok {
		return
	}

	set, err := h.service.Charts(r.Context(), sel)
	if err != nil {
		if errors.Is(err, services.ErrNoRecords) {
			err = apierrors.NoRecordsError(config.MsgNoRecords, req.Chart)
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	img, err := charts.NewRenderer(req.Width, req.Height).Render(req.Chart, set)
	if err != nil {
		switch {
		case errors.Is(err, charts.ErrUnknownChart):
			err = apierrors.ErrChartNotFound
		case errors.Is(err, charts.ErrNothingToPlot):
			err = apierrors.NothingToPlotError(config.MsgNothingToPlot, req.Chart)
		case errors.Is(err, charts.ErrNoData):
			err = apierrors.NoRecordsError(config.MsgNoRecords, req.Chart)
		default:
			err = apierrors.NewInternalError(fmt.Sprintf("failed to draw %s chart", req.Chart))
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// GetBoundaries handles GET /api/geo/boundaries. The upstream document is
// passed through byte for byte.
func (h *DashboardHandler) GetBoundaries(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Boundaries(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, boundariesError(err))
		return
	}

	raw := b.Raw()
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// Locate handles GET /api/geo/locate?lon=&lat=
func (h *DashboardHandler) Locate(w http.ResponseWriter, r *http.Request) {
	req, ok := api.ParseLocate(r.URL.Query())
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("lon,lat", "lon and lat must be decimal degrees"))
		return
	}
	if err := middleware.ValidateStruct(h.validate, req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Locate(r.Context(), req.Lon, req.Lat)
	if err != nil {
		if errors.Is(err, services.ErrOutsideBoundaries) {
			err = apierrors.NotFoundError("municipality")
		} else {
			err = boundariesError(err)
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// boundariesError maps boundary failures: no configured source is 503,
// an upstream failure is 502. Dataset errors pass through.
func boundariesError(err error) error {
	var appErr *apierrors.AppError
	switch {
	case errors.Is(err, dataprocessing.ErrNoBoundaries):
		return apierrors.ErrBoundariesNotConfigured
	case errors.As(err, &appErr):
		return err
	default:
		return apierrors.BoundariesError(err)
	}
}
