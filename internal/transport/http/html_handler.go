package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"pronafmonitor/internal/config"
	"pronafmonitor/internal/middleware"
	api "pronafmonitor/pkg/contracts/api/v1"
	"pronafmonitor/pkg/contracts/domain"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

// PlotlyURL is the browser charting bundle loaded by the page.
const PlotlyURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// pageData is the template model of the dashboard page.
type pageData struct {
	BrowserTitle  string
	Icon          string
	PlotlyURL     string
	APIBase       string
	WebSocketPath string
	Labels        pageLabels
	Dashboard     *domain.Dashboard
}

type pageLabels struct {
	Sidebar       string
	Region        string
	Municipality  string
	AllRegions    string
	AllMunis      string
	KPIs          string
	Vulnerability string
	Demographics  string
	Table         string
}

// PageHandler serves the dashboard page at /.
type PageHandler struct {
	service  DashboardServiceInterface
	tmpl     *template.Template
	validate *validator.Validate
	logger   *slog.Logger
}

// NewPageHandler parses the embedded page template.
func NewPageHandler(service DashboardServiceInterface, logger *slog.Logger) (*PageHandler, error) {
	tmpl, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"selected": contains,
		"colspan": func(width int) string {
			return fmt.Sprintf("col-%d", width)
		},
	}).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	return &PageHandler{
		service:  service,
		tmpl:     tmpl,
		validate: middleware.NewValidator(),
		logger:   logger.With(slog.String("handler", "page")),
	}, nil
}

// ServeHTTP handles GET /. The page is rendered server side for the
// selection in the query string; a missing dataset renders the halted page
// with status 503.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK

	req := api.ParseSelection(r.URL.Query())
	var notice *domain.Notice
	if err := middleware.ValidateStruct(h.validate, req); err != nil {
		h.logger.WarnContext(ctx, "ignoring invalid selection", slog.String("error", err.Error()))
		notice = &domain.Notice{Level: domain.NoticeWarning, Message: "Filtro inválido ignorado."}
		req = api.SelectionRequest{}
	}
	sel := req.Selection()

	d, err := h.service.Render(ctx, sel)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard unavailable", slog.String("error", err.Error()))
		d = h.service.Unavailable(sel, err)
		status = http.StatusServiceUnavailable
	}
	if notice != nil {
		d.Notices = append([]domain.Notice{*notice}, d.Notices...)
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, h.model(d)); err != nil {
		h.logger.ErrorContext(ctx, "page template failed", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *PageHandler) model(d *domain.Dashboard) pageData {
	return pageData{
		BrowserTitle:  config.BrowserTitle,
		Icon:          config.PageIcon,
		PlotlyURL:     PlotlyURL,
		APIBase:       config.APIBasePath,
		WebSocketPath: config.WebSocketEndpoint,
		Labels: pageLabels{
			Sidebar:       config.SidebarHeader,
			Region:        config.RegionFilterLabel,
			Municipality:  config.MunicipalityLabel,
			AllRegions:    domain.AllRegions,
			AllMunis:      domain.AllMunicipalities,
			KPIs:          config.SectionKPIs,
			Vulnerability: config.SectionVulnerability,
			Demographics:  config.SectionDemographics,
			Table:         config.SectionTable,
		},
		Dashboard: d,
	}
}

func contains(v string, list []string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
