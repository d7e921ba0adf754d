package dataprocessing

import (
	"errors"
	"math"
	"sort"

	"pronafmonitor/internal/config"
	"pronafmonitor/pkg/contracts/domain"
)

// ErrNoBoundaries is returned by BuildChoropleth when no boundary index is
// available.
var ErrNoBoundaries = errors.New("boundary document unavailable")

// FeatureIndex answers lookups against a municipal boundary document.
type FeatureIndex interface {
	Has(id string) bool
	Bounds(ids []string) (domain.Bounds, bool)
}

// RegionPalette is the qualitative palette regions are coloured with, in
// order of first appearance.
var RegionPalette = []string{
	"#636efa", "#ef553b", "#00cc96", "#ab63fa", "#ffa15a",
	"#19d3f3", "#ff6692", "#b6e880", "#ff97ff", "#fecb52",
}

// ChoroplethOptions carries the map presentation settings.
type ChoroplethOptions struct {
	Center       domain.LatLon
	Zoom         float64
	FeatureIDKey string
	GeoJSONURL   string
}

// DefaultChoroplethOptions centres the map on the Zona da Mata.
func DefaultChoroplethOptions() ChoroplethOptions {
	return ChoroplethOptions{
		Center:       domain.LatLon{Lat: config.MapCenterLat, Lon: config.MapCenterLon},
		Zoom:         config.MapZoom,
		FeatureIDKey: "id",
	}
}

// BuildChoropleth joins records with an identifier to the boundary
// features. Records without an identifier are dropped. Codes with no
// matching feature are listed in Unmatched.
func BuildChoropleth(ds *domain.Dataset, index FeatureIndex, opts ChoroplethOptions) (*domain.ChoroplethSpec, error) {
	if index == nil {
		return nil, ErrNoBoundaries
	}

	spec := &domain.ChoroplethSpec{
		Title:        config.MapTitle,
		Locations:    make([]string, 0, len(ds.Records)),
		Names:        make([]string, 0, len(ds.Records)),
		Values:       make([]int64, 0, len(ds.Records)),
		FeatureIDKey: "properties." + opts.FeatureIDKey,
		ColorScale:   config.MapColorScale,
		Center:       opts.Center,
		Zoom:         opts.Zoom,
		Opacity:      config.MapOpacity,
		MapStyle:     config.MapStyle,
		GeoJSONURL:   opts.GeoJSONURL,
	}

	var matched []string
	for _, r := range ds.Records {
		key, ok := r.GeoKey()
		if !ok {
			continue
		}
		spec.Locations = append(spec.Locations, key)
		spec.Names = append(spec.Names, r.Municipality)
		spec.Values = append(spec.Values, r.FamilyFarmers)
		if index.Has(key) {
			matched = append(matched, key)
		} else {
			spec.Unmatched = append(spec.Unmatched, key)
		}
	}
	spec.Matched = len(matched)
	if b, ok := index.Bounds(matched); ok {
		spec.Bounds = &b
	}
	return spec, nil
}

// BuildConcentration ranks the top n municipalities by credit and returns
// them in ascending order, so a horizontal bar chart reads largest on top.
// Ties keep input order.
func BuildConcentration(ds *domain.Dataset, n int) *domain.BarSpec {
	ranked := append([]domain.Record(nil), ds.Records...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Credit > ranked[j].Credit
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Credit < ranked[j].Credit
	})

	spec := &domain.BarSpec{
		Title:          config.ConcentrationTitle,
		Municipalities: make([]string, len(ranked)),
		Credits:        make([]float64, len(ranked)),
		Labels:         make([]string, len(ranked)),
		Orientation:    "h",
		ColorScale:     config.MapColorScale,
		TickPrefix:     config.CurrencyTickPrefix,
	}
	for i, r := range ranked {
		spec.Municipalities[i] = r.Municipality
		spec.Credits[i] = r.Credit
		spec.Labels[i] = FormatBRL(r.Credit)
	}
	return spec
}

// BuildScatter plots family farmers against credit. Marker area scales with
// active individual registrations so the largest reaches sizeMax pixels
// across. Regions receive palette colours in order of first appearance.
func BuildScatter(ds *domain.Dataset, sizeMax float64) *domain.ScatterSpec {
	spec := &domain.ScatterSpec{
		Title:   config.ScatterTitle,
		XTitle:  config.ColFamilyFarmers,
		YTitle:  config.ColCredit,
		Points:  make([]domain.ScatterPoint, 0, len(ds.Records)),
		Colors:  make(map[string]string),
		SizeMax: sizeMax,
	}

	var maxSize int64
	for _, r := range ds.Records {
		if r.CAFIndividualActive > maxSize {
			maxSize = r.CAFIndividualActive
		}
		if _, seen := spec.Colors[r.ImmediateRegion]; !seen {
			spec.Colors[r.ImmediateRegion] = RegionPalette[len(spec.Regions)%len(RegionPalette)]
			spec.Regions = append(spec.Regions, r.ImmediateRegion)
		}
	}

	// plotly area sizing: sizeref = 2*max/size_max^2
	spec.SizeRef = 1
	if maxSize > 0 {
		spec.SizeRef = 2 * float64(maxSize) / (sizeMax * sizeMax)
	}

	for _, r := range ds.Records {
		var marker float64
		if maxSize > 0 {
			marker = math.Sqrt(float64(r.CAFIndividualActive)/float64(maxSize)) * sizeMax
		}
		spec.Points = append(spec.Points, domain.ScatterPoint{
			Municipality:  r.Municipality,
			Region:        r.ImmediateRegion,
			FamilyFarmers: r.FamilyFarmers,
			Credit:        r.Credit,
			Size:          r.CAFIndividualActive,
			MarkerSize:    marker,
			Color:         spec.Colors[r.ImmediateRegion],
		})
	}
	return spec
}

// BuildGenderDonut splits active registrations between women and men.
func BuildGenderDonut(ds *domain.Dataset) *domain.DonutSpec {
	women, men := GenderTotals(ds)
	return &domain.DonutSpec{
		Title:  config.DonutTitle,
		Labels: []string{config.WomenLabel, config.MenLabel},
		Values: []int64{women, men},
		Colors: []string{config.WomenColor, config.MenColor},
		Hole:   config.DonutHole,
	}
}
