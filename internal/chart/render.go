package chart

import (
	"io"

	"github.com/rotisserie/eris"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoPoints is returned when there is nothing to draw.
var ErrNoPoints = eris.New("chart: no points to render")

// Options controls chart rendering.
type Options struct {
	Width  int
	Height int
	// Labels draws each company name on its bubble.
	Labels bool
	// Color is the bubble fill as a hex string without '#'.
	Color string
}

const (
	defaultWidth  = 960
	defaultHeight = 260
	defaultColor  = "1f77b4"
	dotWidth      = 7.5
	dotAlpha      = 178
)

// bubbleStyle renders points only, no connecting line.
func bubbleStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeWidth: gochart.Disabled,
		DotWidth:    dotWidth,
		DotColor:    col.WithAlpha(dotAlpha),
	}
}

// Render writes fig as an SVG bubble chart.
func Render(w io.Writer, fig Figure, opts Options) error {
	if len(fig.Points) == 0 {
		return ErrNoPoints
	}
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	if opts.Color == "" {
		opts.Color = defaultColor
	}

	xs := make([]float64, len(fig.Points))
	ys := make([]float64, len(fig.Points))
	for i, p := range fig.Points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	// go-chart takes the x range from the tick extent when ticks are set,
	// so unlabelled ticks pin both ends to fig.XRange.
	ticks := make([]gochart.Tick, 0, len(fig.Axis)+2)
	ticks = append(ticks, gochart.Tick{Value: fig.XRange[0]})
	for i, band := range fig.Axis {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: band})
	}
	ticks = append(ticks, gochart.Tick{Value: fig.XRange[1]})

	series := []gochart.Series{
		gochart.ContinuousSeries{
			Name:    "Companies",
			XValues: xs,
			YValues: ys,
			Style:   bubbleStyle(drawing.ColorFromHex(opts.Color)),
		},
	}
	if opts.Labels {
		annotations := make([]gochart.Value2, len(fig.Points))
		for i, p := range fig.Points {
			annotations[i] = gochart.Value2{XValue: p.X, YValue: p.Y, Label: p.Name}
		}
		series = append(series, gochart.AnnotationSeries{Annotations: annotations})
	}

	graph := gochart.Chart{
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: gochart.Style{
			FillColor: drawing.ColorFromHex("f0f2f6"),
		},
		XAxis: gochart.XAxis{
			Ticks: ticks,
			Range: &gochart.ContinuousRange{Min: fig.XRange[0], Max: fig.XRange[1]},
		},
		YAxis: gochart.YAxis{
			Style: gochart.Hidden(),
			Range: &gochart.ContinuousRange{Min: fig.YRange[0], Max: fig.YRange[1]},
		},
		Series: series,
	}

	if err := graph.Render(gochart.SVG, w); err != nil {
		return eris.Wrap(err, "chart: render svg")
	}
	return nil
}
