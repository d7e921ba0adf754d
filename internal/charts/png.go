package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"pronafmonitor/internal/dataprocessing"
	"pronafmonitor/pkg/contracts/domain"
)

// Chart names served as images.
const (
	NameConcentration = domain.SlotConcentration
	NameScatter       = domain.SlotScatter
	NameGender        = domain.SlotGender
)

var (
	// ErrUnknownChart is returned for a chart name without an image renderer.
	ErrUnknownChart = errors.New("unknown chart")
	// ErrNoData is returned when a chart has nothing to draw.
	ErrNoData = errors.New("chart has no data")
	// ErrNothingToPlot is returned for a chart whose values are all zero
	// and that cannot be drawn at zero size. It matches ErrNoData.
	ErrNothingToPlot = fmt.Errorf("%w: all values are zero", ErrNoData)
)

// Names lists the charts that can be rendered as images.
var Names = []string{NameConcentration, NameScatter, NameGender}

// Renderer draws chart specifications as PNG images.
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer returns a renderer producing width x height images.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = 960
	}
	if height <= 0 {
		height = 540
	}
	return &Renderer{Width: width, Height: height}
}

// Render draws the named chart from set.
func (r *Renderer) Render(name string, set *domain.Charts) ([]byte, error) {
	if set == nil {
		return nil, ErrNoData
	}
	switch name {
	case NameConcentration:
		return r.Concentration(set.Concentration)
	case NameScatter:
		return r.Scatter(set.Scatter)
	case NameGender:
		return r.Donut(set.Gender)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
}

func (r *Renderer) background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 24, Bottom: 16}}
}

// Concentration draws the credit ranking as bars, one per municipality.
// When every credit is zero the bars have zero height on a 0 to 1 axis.
func (r *Renderer) Concentration(spec *domain.BarSpec) ([]byte, error) {
	if spec == nil || len(spec.Credits) == 0 {
		return nil, ErrNoData
	}

	ramp := []drawing.Color{
		hexColor("#ffffb2"), hexColor("#fecc5c"), hexColor("#fd8d3c"), hexColor("#f03b20"), hexColor("#bd0026"),
	}
	top := maxFloat(spec.Credits)
	axisMax := padRange(top)
	bars := make([]chart.Value, len(spec.Credits))
	for i, v := range spec.Credits {
		col := ramp[0]
		if top > 0 {
			col = ramp[int(v/top*float64(len(ramp)-1))]
		}
		bars[i] = chart.Value{
			Value: v,
			Label: spec.Municipalities[i],
			Style: chart.Style{FillColor: col, StrokeColor: col},
		}
	}

	bc := chart.BarChart{
		Title:      spec.Title,
		Background: r.background(),
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   max(8, (r.Width-120)/(len(bars)*2)),
		XAxis:      chart.Style{TextRotationDegrees: 30, FontSize: 8},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: axisMax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return dataprocessing.FormatBRL(f)
				}
				return ""
			},
		},
		Bars: bars,
	}
	return renderPNG(bc.Render)
}

// Scatter draws family farmers against credit, one series per region.
func (r *Renderer) Scatter(spec *domain.ScatterSpec) ([]byte, error) {
	if spec == nil || len(spec.Points) == 0 {
		return nil, ErrNoData
	}

	var maxX, maxY float64
	byRegion := make(map[string][]domain.ScatterPoint, len(spec.Regions))
	for _, p := range spec.Points {
		byRegion[p.Region] = append(byRegion[p.Region], p)
		maxX = max(maxX, float64(p.FamilyFarmers))
		maxY = max(maxY, p.Credit)
	}

	series := make([]chart.Series, 0, len(spec.Regions))
	for _, region := range spec.Regions {
		points := byRegion[region]
		xs := make([]float64, len(points))
		ys := make([]float64, len(points))
		for i, p := range points {
			xs[i] = float64(p.FamilyFarmers)
			ys[i] = p.Credit
		}
		col := hexColor(spec.Colors[region])
		series = append(series, chart.ContinuousSeries{
			Name:    region,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotColor:    col.WithAlpha(180),
				DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
					// marker sizes are diameters; the renderer wants a radius
					return max(2, points[index].MarkerSize/2)
				},
			},
		})
	}

	ch := chart.Chart{
		Title:      spec.Title,
		Background: r.background(),
		Width:      r.Width,
		Height:     r.Height,
		XAxis: chart.XAxis{
			Name:  spec.XTitle,
			Range: &chart.ContinuousRange{Min: 0, Max: padRange(maxX)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return dataprocessing.FormatInt(int64(f))
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name:  spec.YTitle,
			Range: &chart.ContinuousRange{Min: 0, Max: padRange(maxY)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return dataprocessing.FormatBRL(f)
				}
				return ""
			},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return renderPNG(ch.Render)
}

// Donut draws the gender split.
func (r *Renderer) Donut(spec *domain.DonutSpec) ([]byte, error) {
	if spec == nil {
		return nil, ErrNoData
	}
	var total int64
	for _, v := range spec.Values {
		total += v
	}
	if total <= 0 {
		return nil, ErrNothingToPlot
	}

	values := make([]chart.Value, 0, len(spec.Values))
	for i, v := range spec.Values {
		if v <= 0 {
			continue
		}
		col := hexColor(spec.Colors[i%len(spec.Colors)])
		pct := float64(v) / float64(total) * 100
		values = append(values, chart.Value{
			Value: float64(v),
			Label: fmt.Sprintf("%s %.1f%%", spec.Labels[i], pct),
			Style: chart.Style{FillColor: col, StrokeColor: drawing.ColorWhite, FontColor: drawing.ColorWhite},
		})
	}

	dc := chart.DonutChart{
		Title:      spec.Title,
		Background: r.background(),
		Width:      r.Height,
		Height:     r.Height,
		Values:     values,
	}
	return renderPNG(dc.Render)
}

func renderPNG(render func(chart.RendererProvider, io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func hexColor(s string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
}

func maxFloat(vs []float64) float64 {
	var m float64
	for _, v := range vs {
		m = max(m, v)
	}
	return m
}

func padRange(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v * 1.1
}
