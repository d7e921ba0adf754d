package domain

import "time"

// NoticeLevel is the severity of a banner shown above the dashboard.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// KPISet holds the four headline aggregates of a filtered dataset.
type KPISet struct {
	FamilyFarmers  int64   `json:"family_farmers"`
	Credit         float64 `json:"credit"`
	WomenActive    int64   `json:"women_active"`
	Municipalities int     `json:"municipalities"`
}

// KPI is one formatted headline tile.
type KPI struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value string  `json:"value"`
	Raw   float64 `json:"raw"`
}

// LatLon is a geographic position.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is an axis-aligned lon/lat envelope.
type Bounds struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// ChoroplethSpec describes the municipal map coloured by family farmers.
type ChoroplethSpec struct {
	Title        string   `json:"title"`
	Locations    []string `json:"locations"`
	Names        []string `json:"names"`
	Values       []int64  `json:"values"`
	FeatureIDKey string   `json:"feature_id_key"`
	ColorScale   string   `json:"color_scale"`
	Center       LatLon   `json:"center"`
	Zoom         float64  `json:"zoom"`
	Opacity      float64  `json:"opacity"`
	MapStyle     string   `json:"map_style"`
	GeoJSONURL   string   `json:"geojson_url"`
	Matched      int      `json:"matched"`
	Unmatched    []string `json:"unmatched,omitempty"`
	Bounds       *Bounds  `json:"bounds,omitempty"`
}

// BarSpec describes the horizontal credit concentration ranking.
type BarSpec struct {
	Title          string    `json:"title"`
	Municipalities []string  `json:"municipalities"`
	Credits        []float64 `json:"credits"`
	Labels         []string  `json:"labels"`
	Orientation    string    `json:"orientation"`
	ColorScale     string    `json:"color_scale"`
	TickPrefix     string    `json:"tick_prefix"`
}

// ScatterPoint is one municipality in the vulnerability scatter.
type ScatterPoint struct {
	Municipality  string  `json:"municipality"`
	Region        string  `json:"region"`
	FamilyFarmers int64   `json:"family_farmers"`
	Credit        float64 `json:"credit"`
	Size          int64   `json:"size"`
	MarkerSize    float64 `json:"marker_size"`
	Color         string  `json:"color"`
}

// ScatterSpec describes farmers against credit, sized by active individual
// registrations and coloured by region.
type ScatterSpec struct {
	Title   string            `json:"title"`
	XTitle  string            `json:"x_title"`
	YTitle  string            `json:"y_title"`
	Points  []ScatterPoint    `json:"points"`
	Regions []string          `json:"regions"`
	Colors  map[string]string `json:"colors"`
	SizeMax float64           `json:"size_max"`
	SizeRef float64           `json:"size_ref"`
}

// DonutSpec describes the gender split of active registrations.
type DonutSpec struct {
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
	Colors []string `json:"colors"`
	Hole   float64  `json:"hole"`
}

// Charts groups the chart specifications of one render. Map is nil when the
// choropleth could not be built; MapFallback is then true.
type Charts struct {
	Map           *ChoroplethSpec `json:"map,omitempty"`
	Concentration *BarSpec        `json:"concentration"`
	Scatter       *ScatterSpec    `json:"scatter"`
	Gender        *DonutSpec      `json:"gender"`
	MapFallback   bool            `json:"map_fallback"`
}

// Chart slot identifiers used by Layout.
const (
	SlotMap           = "map"
	SlotConcentration = "concentration"
	SlotScatter       = "scatter"
	SlotGender        = "gender"
	SlotTable         = "table"
)

// LayoutSlot places one chart in a twelve column row.
type LayoutSlot struct {
	Chart string `json:"chart"`
	Width int    `json:"width"`
}

// LayoutRow is one row of the page grid.
type LayoutRow struct {
	Slots []LayoutSlot `json:"slots"`
}

// FilterState is the filter panel: options and the current choice.
type FilterState struct {
	RegionOptions       []string `json:"region_options"`
	Region              string   `json:"region"`
	MunicipalityOptions []string `json:"municipality_options"`
	Municipalities      []string `json:"municipalities"`
}

// TableView is the filtered dataset in display form.
type TableView struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ExportLink advertises a download of the filtered table.
type ExportLink struct {
	Format   string `json:"format"`
	Label    string `json:"label"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}

// Dashboard is the render description returned for a selection. When Halted
// is true only Title, Caption, Filters and Notices are meaningful.
type Dashboard struct {
	Title       string       `json:"title"`
	Caption     string       `json:"caption"`
	Filters     FilterState  `json:"filters"`
	Notices     []Notice     `json:"notices"`
	Halted      bool         `json:"halted"`
	RecordCount int          `json:"record_count"`
	KPIs        []KPI        `json:"kpis,omitempty"`
	Charts      *Charts      `json:"charts,omitempty"`
	Layout      []LayoutRow  `json:"layout,omitempty"`
	Table       *TableView   `json:"table,omitempty"`
	Exports     []ExportLink `json:"exports,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}
