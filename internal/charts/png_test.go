package charts

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronafmonitor/internal/config"
	"pronafmonitor/internal/dataprocessing"
	"pronafmonitor/internal/shared/testutil"
	"pronafmonitor/pkg/contracts/domain"
)

func sampleCharts() *domain.Charts {
	ds := dataprocessing.Clean(&domain.RawTable{Header: testutil.SampleHeader, Rows: testutil.SampleRows})
	return &domain.Charts{
		Concentration: dataprocessing.BuildConcentration(ds, config.ConcentrationN),
		Scatter:       dataprocessing.BuildScatter(ds, config.ScatterSizeMax),
		Gender:        dataprocessing.BuildGenderDonut(ds),
	}
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(640, 400)
	set := sampleCharts()

	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			data, err := r.Render(name, set)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Positive(t, img.Bounds().Dx())
		})
	}
}

func TestRenderer_UnknownChart(t *testing.T) {
	_, err := NewRenderer(0, 0).Render("map", sampleCharts())
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestRenderer_NoData(t *testing.T) {
	r := NewRenderer(0, 0)
	empty := &domain.Dataset{}

	_, err := r.Concentration(dataprocessing.BuildConcentration(empty, 10))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = r.Scatter(dataprocessing.BuildScatter(empty, 45))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = r.Donut(dataprocessing.BuildGenderDonut(empty))
	assert.ErrorIs(t, err, ErrNoData)
	assert.ErrorIs(t, err, ErrNothingToPlot)

	_, err = r.Render(NameGender, nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRenderer_ConcentrationAllZero(t *testing.T) {
	spec := &domain.BarSpec{
		Title:          "Concentração",
		Municipalities: []string{"Tocantins", "Ubá"},
		Credits:        []float64{0, 0},
		Labels:         []string{"R$ 0,00", "R$ 0,00"},
	}

	data, err := NewRenderer(640, 400).Concentration(spec)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
}

func TestNewRenderer_Defaults(t *testing.T) {
	r := NewRenderer(0, -1)
	assert.Equal(t, 960, r.Width)
	assert.Equal(t, 540, r.Height)
}
