package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronafmonitor/internal/shared/testutil"
)

func TestParse(t *testing.T) {
	b, err := Parse([]byte(testutil.SampleGeoJSON()), "id")
	require.NoError(t, err)

	assert.Equal(t, 7, b.Len())
	assert.Equal(t, "3136702", b.IDs()[0])

	m, ok := b.Feature("3171303")
	require.True(t, ok)
	assert.Equal(t, "Viçosa", m.Name)
	assert.NotNil(t, m.Geometry)
	assert.Equal(t, testutil.SampleGeoJSON(), string(b.Raw()))
}

func TestParse_NumericIdentifier(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"id":3136702},"geometry":null},
		{"type":"Feature","properties":{"name":"sem id"},"geometry":null}
	]}`
	b, err := Parse([]byte(doc), "id")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())
	assert.True(t, b.Has("3136702"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", "<html>"},
		{"wrong type", `{"type":"Feature"}`},
		{"bad geometry", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"id":"1"},"geometry":{"type":"Blob"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "id")
			assert.Error(t, err)
		})
	}
}

func TestBoundaries_Bounds(t *testing.T) {
	b, err := Parse([]byte(testutil.SampleGeoJSON()), "id")
	require.NoError(t, err)

	env, ok := b.Bounds([]string{"3136702", "3171303"})
	require.True(t, ok)
	assert.InDelta(t, -43.5, env.MinLon, 1e-9)
	assert.InDelta(t, -21.8, env.MinLat, 1e-9)
	assert.InDelta(t, -42.8, env.MaxLon, 1e-9)
	assert.InDelta(t, -20.65, env.MaxLat, 1e-9)

	_, ok = b.Bounds([]string{"9999999"})
	assert.False(t, ok)
}

func TestBoundaries_Locate(t *testing.T) {
	b, err := Parse([]byte(testutil.SampleGeoJSON()), "id")
	require.NoError(t, err)

	id, ok := b.Locate(-42.85, -20.7)
	require.True(t, ok)
	assert.Equal(t, "3171303", id)

	_, ok = b.Locate(0, 0)
	assert.False(t, ok)
}
