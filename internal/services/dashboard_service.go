package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pronafmonitor/internal/config"
	"pronafmonitor/internal/dataprocessing"
	apperrors "pronafmonitor/internal/errors"
	"pronafmonitor/internal/exporter"
	"pronafmonitor/internal/geo"
	"pronafmonitor/internal/infrastructure"
	"pronafmonitor/pkg/contracts/domain"
)

// DatasetSource returns the cleaned dataset for a path.
type DatasetSource interface {
	Get(ctx context.Context, path string) (*domain.Dataset, error)
	Loaded(path string) bool
}

// BoundarySource returns the municipal boundary document.
type BoundarySource interface {
	Get(ctx context.Context) (*geo.Boundaries, error)
	Cached() *geo.Boundaries
	URL() string
}

// TableExporter encodes a table for download.
type TableExporter interface {
	Export(ctx context.Context, f exporter.Format, table *domain.TableView) (exporter.Artifact, bool, error)
	FileName(f exporter.Format) string
}

// LocateResult is the municipality found under a point.
type LocateResult struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Lon          float64        `json:"lon"`
	Lat          float64        `json:"lat"`
	Record       *domain.Record `json:"record,omitempty"`
	OutsideScope bool           `json:"outside_scope"`
}

// DashboardService derives render descriptions from the dataset for a
// filter selection. It holds no per-request state.
type DashboardService struct {
	dataPath   string
	store      DatasetSource
	boundaries BoundarySource
	exports    TableExporter
	mapOpts    dataprocessing.ChoroplethOptions
	logger     *slog.Logger
	metrics    *infrastructure.BusinessMetrics
	tracer     trace.Tracer
	now        func() time.Time
}

// NewDashboardService creates the dashboard service.
func NewDashboardService(cfg *config.Config, dataPath string, store DatasetSource, boundaries BoundarySource, exports TableExporter, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}

	mapOpts := dataprocessing.DefaultChoroplethOptions()
	if cfg != nil {
		if cfg.Geo.CenterLat != 0 || cfg.Geo.CenterLon != 0 {
			mapOpts.Center = domain.LatLon{Lat: cfg.Geo.CenterLat, Lon: cfg.Geo.CenterLon}
		}
		if cfg.Geo.Zoom > 0 {
			mapOpts.Zoom = cfg.Geo.Zoom
		}
		if cfg.Geo.FeatureIDKey != "" {
			mapOpts.FeatureIDKey = cfg.Geo.FeatureIDKey
		}
	}
	if boundaries != nil {
		mapOpts.GeoJSONURL = boundaries.URL()
	}

	logger.Info("DashboardService initialized",
		slog.String("data_file", dataPath),
		slog.String("boundaries_url", mapOpts.GeoJSONURL))

	return &DashboardService{
		dataPath:   dataPath,
		store:      store,
		boundaries: boundaries,
		exports:    exports,
		mapOpts:    mapOpts,
		logger:     infrastructure.WithComponent(logger, "dashboard_service"),
		metrics:    metrics,
		tracer:     otel.Tracer(infrastructure.ServiceName),
		now:        time.Now,
	}
}

// DataPath returns the dataset location.
func (s *DashboardService) DataPath() string {
	return s.dataPath
}

// Dataset returns the full cleaned dataset.
func (s *DashboardService) Dataset(ctx context.Context) (*domain.Dataset, error) {
	return s.store.Get(ctx, s.dataPath)
}

// Warm loads the dataset ahead of the first request. Failures are logged
// and returned; the next request retries.
func (s *DashboardService) Warm(ctx context.Context) error {
	ds, err := s.Dataset(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "dataset warm-up failed", slog.String("error", err.Error()))
		return err
	}
	s.logger.InfoContext(ctx, "dataset ready", slog.Int("records", ds.Len()))
	return nil
}

// Render produces the dashboard for sel. A missing data file is returned as
// an error; use Unavailable to turn it into a halted page. An empty filter
// result is not an error: the dashboard comes back halted with a warning.
func (s *DashboardService) Render(ctx context.Context, sel domain.Selection) (*domain.Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.render",
		trace.WithAttributes(
			attribute.String("region", sel.Normalized().Region),
			attribute.Int("municipalities", len(sel.Municipalities)),
		))
	defer span.End()
	start := time.Now()

	ds, err := s.Dataset(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	filtered, options := dataprocessing.ApplySelection(ds, sel)
	d := s.shell(ds, sel, options)
	d.RecordCount = filtered.Len()

	if filtered.Len() == 0 {
		d.Halted = true
		d.Notices = append(d.Notices, domain.Notice{Level: domain.NoticeWarning, Message: config.MsgNoRecords})
		infrastructure.SetSpanAttributes(ctx, map[string]interface{}{"records": 0, "halted": true})
		infrastructure.RecordRender(ctx, s.metrics, time.Since(start), 0, true, false)
		s.logger.DebugContext(ctx, "selection matched no records",
			slog.String("region", d.Filters.Region),
			slog.Any("municipalities", d.Filters.Municipalities))
		return d, nil
	}

	d.KPIs = dataprocessing.KPITiles(dataprocessing.ComputeKPIs(filtered))
	d.Charts = s.charts(ctx, filtered)
	if d.Charts.MapFallback {
		d.Notices = append(d.Notices, domain.Notice{Level: domain.NoticeWarning, Message: config.MsgMapFallback})
	}
	d.Layout = Layout(d.Charts.MapFallback)
	d.Table = dataprocessing.BuildTable(filtered)
	d.Exports = s.exportLinks(sel)

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"records":      filtered.Len(),
		"halted":       false,
		"map_fallback": d.Charts.MapFallback,
	})
	infrastructure.RecordRender(ctx, s.metrics, time.Since(start), filtered.Len(), false, d.Charts.MapFallback)
	return d, nil
}

// Unavailable returns the halted dashboard shown when the dataset cannot be
// loaded.
func (s *DashboardService) Unavailable(sel domain.Selection, err error) *domain.Dashboard {
	d := s.shell(nil, sel, nil)
	d.Halted = true
	d.Notices = append(d.Notices, domain.Notice{Level: domain.NoticeError, Message: userMessage(err)})
	return d
}

func (s *DashboardService) shell(ds *domain.Dataset, sel domain.Selection, options []string) *domain.Dashboard {
	norm := sel.Normalized()
	d := &domain.Dashboard{
		Title:       config.PageTitle,
		Caption:     config.PageCaption,
		GeneratedAt: s.now().UTC(),
		Filters: domain.FilterState{
			RegionOptions:       []string{domain.AllRegions},
			Region:              norm.Region,
			MunicipalityOptions: append([]string{domain.AllMunicipalities}, options...),
			Municipalities:      norm.Municipalities,
		},
	}
	if ds != nil {
		d.Filters.RegionOptions = dataprocessing.RegionOptions(ds)
	}
	return d
}

// charts builds every chart. The map falls back to the concentration ranking
// when the boundary document cannot be fetched or joined.
func (s *DashboardService) charts(ctx context.Context, ds *domain.Dataset) *domain.Charts {
	c := &domain.Charts{
		Concentration: dataprocessing.BuildConcentration(ds, config.ConcentrationN),
		Scatter:       dataprocessing.BuildScatter(ds, config.ScatterSizeMax),
		Gender:        dataprocessing.BuildGenderDonut(ds),
	}

	m, err := s.choropleth(ctx, ds)
	if err != nil {
		s.logger.WarnContext(ctx, "choropleth unavailable, using concentration chart",
			slog.String("error", err.Error()))
		c.MapFallback = true
		return c
	}
	if len(m.Unmatched) > 0 {
		s.logger.DebugContext(ctx, "municipality codes without boundary",
			slog.Any("codes", m.Unmatched))
	}
	c.Map = m
	return c
}

func (s *DashboardService) choropleth(ctx context.Context, ds *domain.Dataset) (*domain.ChoroplethSpec, error) {
	if s.boundaries == nil {
		return nil, dataprocessing.ErrNoBoundaries
	}
	b, err := s.boundaries.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch boundaries: %w", err)
	}
	return dataprocessing.BuildChoropleth(ds, b, s.mapOpts)
}

// Layout returns the page grid. On fallback the concentration chart takes
// the map slot and its own full-width row is dropped.
func Layout(mapFallback bool) []domain.LayoutRow {
	first := domain.LayoutSlot{Chart: domain.SlotMap, Width: 6}
	rows := make([]domain.LayoutRow, 0, 3)
	if mapFallback {
		first.Chart = domain.SlotConcentration
	}
	rows = append(rows, domain.LayoutRow{Slots: []domain.LayoutSlot{first, {Chart: domain.SlotScatter, Width: 6}}})
	if !mapFallback {
		rows = append(rows, domain.LayoutRow{Slots: []domain.LayoutSlot{{Chart: domain.SlotConcentration, Width: 12}}})
	}
	rows = append(rows, domain.LayoutRow{Slots: []domain.LayoutSlot{
		{Chart: domain.SlotGender, Width: 4},
		{Chart: domain.SlotTable, Width: 8},
	}})
	return rows
}

// Filters returns the filter panel for a region without rendering.
func (s *DashboardService) Filters(ctx context.Context, sel domain.Selection) (*domain.FilterState, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	if !sel.AllRegionsSelected() && !contains(ds.Regions(), sel.Region) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, sel.Region)
	}
	_, options := dataprocessing.ApplySelection(ds, sel)
	d := s.shell(ds, sel, options)
	return &d.Filters, nil
}

// Charts derives the chart specifications for sel without the map.
func (s *DashboardService) Charts(ctx context.Context, sel domain.Selection) (*domain.Charts, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	filtered, _ := dataprocessing.ApplySelection(ds, sel)
	if filtered.Len() == 0 {
		return nil, ErrNoRecords
	}
	return &domain.Charts{
		Concentration: dataprocessing.BuildConcentration(filtered, config.ConcentrationN),
		Scatter:       dataprocessing.BuildScatter(filtered, config.ScatterSizeMax),
		Gender:        dataprocessing.BuildGenderDonut(filtered),
	}, nil
}

// Export encodes the filtered table in format f.
func (s *DashboardService) Export(ctx context.Context, sel domain.Selection, f exporter.Format) (exporter.Artifact, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return exporter.Artifact{}, err
	}
	filtered, _ := dataprocessing.ApplySelection(ds, sel)
	if filtered.Len() == 0 {
		return exporter.Artifact{}, ErrNoRecords
	}

	art, cached, err := s.exports.Export(ctx, f, dataprocessing.BuildTable(filtered))
	if err != nil {
		return exporter.Artifact{}, err
	}
	s.logger.InfoContext(ctx, "export served",
		slog.String("format", string(f)),
		slog.Int("records", filtered.Len()),
		slog.Bool("cached", cached))
	return art, nil
}

// Boundaries returns the boundary document.
func (s *DashboardService) Boundaries(ctx context.Context) (*geo.Boundaries, error) {
	if s.boundaries == nil {
		return nil, dataprocessing.ErrNoBoundaries
	}
	return s.boundaries.Get(ctx)
}

// Locate finds the municipality under a point and attaches its record when
// the dataset covers it.
func (s *DashboardService) Locate(ctx context.Context, lon, lat float64) (*LocateResult, error) {
	b, err := s.Boundaries(ctx)
	if err != nil {
		return nil, err
	}
	id, ok := b.Locate(lon, lat)
	if !ok {
		return nil, ErrOutsideBoundaries
	}

	res := &LocateResult{ID: id, Lon: lon, Lat: lat, OutsideScope: true}
	if f, ok := b.Feature(id); ok {
		res.Name = f.Name
	}

	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	for i := range ds.Records {
		if key, ok := ds.Records[i].GeoKey(); ok && key == id {
			rec := ds.Records[i]
			res.Record = &rec
			res.OutsideScope = false
			if res.Name == "" {
				res.Name = rec.Municipality
			}
			break
		}
	}
	return res, nil
}

// Ready reports whether the dataset is loaded and the boundary document is
// cached.
func (s *DashboardService) Ready() (dataset, boundaries bool) {
	dataset = s.store.Loaded(s.dataPath)
	boundaries = s.boundaries != nil && s.boundaries.Cached() != nil
	return dataset, boundaries
}

func (s *DashboardService) exportLinks(sel domain.Selection) []domain.ExportLink {
	q := SelectionQuery(sel).Encode()
	link := func(f exporter.Format, label string) domain.ExportLink {
		u := config.APIBasePath + "/export." + string(f)
		if q != "" {
			u += "?" + q
		}
		return domain.ExportLink{
			Format:   string(f),
			Label:    label,
			FileName: s.exports.FileName(f),
			MimeType: f.MimeType(),
			URL:      u,
		}
	}
	return []domain.ExportLink{
		link(exporter.FormatCSV, config.ExportCSVLabel),
		link(exporter.FormatXLSX, config.ExportXLSXLabel),
	}
}

// SelectionQuery encodes sel as URL query parameters, omitting sentinels.
func SelectionQuery(sel domain.Selection) url.Values {
	q := url.Values{}
	if !sel.AllRegionsSelected() {
		q.Set("region", sel.Region)
	}
	if !sel.AllMunicipalitiesSelected() {
		for _, m := range sel.Municipalities {
			q.Add("municipality", m)
		}
	}
	return q
}

func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
