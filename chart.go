package zerocurve

import (
	"bytes"
	"errors"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/aerissecure/zerocurve/curve"
)

const (
	ChartTitle  = "Continuous Monthly Zero Rates"
	ChartXLabel = "Months"
	ChartYLabel = "Interest Rates (%)"

	DefaultChartWidth  = 640
	DefaultChartHeight = 480
)

type chartConfig struct {
	width, height int
}

// ChartOption configures RenderChart.
type ChartOption func(*chartConfig)

// WithChartSize overrides the PNG size in pixels. Non-positive values keep the default.
func WithChartSize(width, height int) ChartOption {
	return func(c *chartConfig) {
		if width > 0 {
			c.width = width
		}
		if height > 0 {
			c.height = height
		}
	}
}

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    3,
		DotColor:    col,
	}
}

var gridStyle = chart.Style{
	StrokeColor: drawing.ColorFromHex("d0d0d0"),
	StrokeWidth: 1,
}

// RenderChart draws the dense series as a PNG scatter of annualized zero rate (percent)
// against months.
func RenderChart(s *curve.Series, opts ...ChartOption) ([]byte, error) {
	if s == nil {
		return nil, errors.New("RenderChart: nil series")
	}
	cfg := chartConfig{width: DefaultChartWidth, height: DefaultChartHeight}
	for _, o := range opts {
		o(&cfg)
	}

	rows := s.Rows()
	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	for i, r := range rows {
		xs[i] = float64(r.Months)
		ys[i] = r.Zero * 100
	}

	ch := chart.Chart{
		Title:  ChartTitle,
		Width:  cfg.width,
		Height: cfg.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:           ChartXLabel,
			Range:          &chart.ContinuousRange{Min: curve.FirstMonths, Max: curve.LastMonths},
			GridMajorStyle: gridStyle,
		},
		YAxis: chart.YAxis{
			Name:           ChartYLabel,
			GridMajorStyle: gridStyle,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "zero",
				XValues: xs,
				YValues: ys,
				Style:   pointStyle(chart.ColorBlue),
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("RenderChart: %w", err)
	}
	return buf.Bytes(), nil
}
