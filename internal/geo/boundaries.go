package geo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"

	"pronafmonitor/pkg/contracts/domain"
)

// Municipality is one boundary feature keyed by its identifier property.
type Municipality struct {
	ID       string
	Name     string
	Geometry geom.T
}

// Boundaries is a decoded municipal boundary document. It is immutable
// once built and safe for concurrent reads.
type Boundaries struct {
	raw       []byte
	features  map[string]*Municipality
	order     []string
	fetchedAt time.Time
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

type rawFeature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
}

// Parse decodes a GeoJSON FeatureCollection, indexing features by the
// property named idKey. Features without that property are skipped.
func Parse(data []byte, idKey string) (*Boundaries, error) {
	var fc rawCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unexpected document type %q", fc.Type)
	}

	b := &Boundaries{
		raw:      data,
		features: make(map[string]*Municipality, len(fc.Features)),
		order:    make([]string, 0, len(fc.Features)),
	}
	for i, f := range fc.Features {
		id := propertyString(f.Properties, idKey)
		if id == "" {
			continue
		}
		var g geom.T
		if len(f.Geometry) > 0 && string(f.Geometry) != "null" {
			if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
				return nil, fmt.Errorf("decode geometry of feature %d (%s): %w", i, id, err)
			}
		}
		if _, dup := b.features[id]; !dup {
			b.order = append(b.order, id)
		}
		b.features[id] = &Municipality{
			ID:       id,
			Name:     propertyString(f.Properties, "name"),
			Geometry: g,
		}
	}
	return b, nil
}

func propertyString(props map[string]interface{}, key string) string {
	switch v := props[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Has reports whether a feature with id exists.
func (b *Boundaries) Has(id string) bool {
	_, ok := b.features[id]
	return ok
}

// Feature returns the feature with id.
func (b *Boundaries) Feature(id string) (*Municipality, bool) {
	m, ok := b.features[id]
	return m, ok
}

// Len returns the number of indexed features.
func (b *Boundaries) Len() int {
	return len(b.features)
}

// IDs returns feature identifiers in document order.
func (b *Boundaries) IDs() []string {
	return append([]string(nil), b.order...)
}

// Raw returns the document exactly as fetched.
func (b *Boundaries) Raw() []byte {
	return b.raw
}

// FetchedAt is when the document was retrieved.
func (b *Boundaries) FetchedAt() time.Time {
	return b.fetchedAt
}

// Bounds returns the envelope of the geometries of ids. ok is false when
// none of them has a geometry.
func (b *Boundaries) Bounds(ids []string) (domain.Bounds, bool) {
	env := geom.NewBounds(geom.XY)
	found := false
	for _, id := range ids {
		m, ok := b.features[id]
		if !ok || m.Geometry == nil {
			continue
		}
		env.Extend(m.Geometry)
		found = true
	}
	if !found {
		return domain.Bounds{}, false
	}
	return domain.Bounds{
		MinLon: env.Min(0),
		MinLat: env.Min(1),
		MaxLon: env.Max(0),
		MaxLat: env.Max(1),
	}, true
}

// Locate returns the identifier of the feature whose outer ring contains
// the point, if any.
func (b *Boundaries) Locate(lon, lat float64) (string, bool) {
	pt := geom.Coord{lon, lat}
	for _, id := range b.order {
		m := b.features[id]
		switch g := m.Geometry.(type) {
		case *geom.Polygon:
			if polygonContains(g, pt) {
				return id, true
			}
		case *geom.MultiPolygon:
			for i := 0; i < g.NumPolygons(); i++ {
				if polygonContains(g.Polygon(i), pt) {
					return id, true
				}
			}
		}
	}
	return "", false
}

func polygonContains(p *geom.Polygon, pt geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	ring := p.LinearRing(0)
	if !ring.Bounds().OverlapsPoint(ring.Layout(), pt) {
		return false
	}
	return xy.IsPointInRing(ring.Layout(), pt, ring.FlatCoords())
}
