package chart

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/where2work/internal/model"
)

func makeRecords(perBand map[string]int) []model.Company {
	var records []model.Company
	for _, band := range model.DefaultBands {
		for i := 0; i < perBand[band]; i++ {
			c := model.Company{
				LegalName:    fmt.Sprintf("%s #%d", band, i),
				EmployeeBand: band,
			}
			c.Derive(model.DefaultBands)
			records = append(records, c)
		}
	}
	return records
}

func TestLayout_Deterministic(t *testing.T) {
	records := makeRecords(map[string]int{"1–5 Employees": 5, "6–19 Employees": 3, "20–49 Employees": 8})

	a := Layout(records, model.DefaultBands, DefaultSeed)
	b := Layout(records, model.DefaultBands, DefaultSeed)
	c := Layout(records, model.DefaultBands, DefaultSeed+1)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestLayout_PointsWithinRanges(t *testing.T) {
	records := makeRecords(map[string]int{"1–5 Employees": 40, "6–19 Employees": 2, "20–49 Employees": 17})
	axis := model.DefaultBands
	xr := XRange(axis)

	points := Layout(records, axis, DefaultSeed)
	require.Len(t, points, len(records))

	for _, p := range points {
		assert.Equal(t, axis.Index(p.Band), p.BandIndex)
		assert.LessOrEqual(t, math.Abs(p.X-float64(p.BandIndex)), jitterX+1e-9)
		assert.LessOrEqual(t, math.Abs(p.Y), jitterY+1e-9)
		assert.Greater(t, p.X, xr[0])
		assert.Less(t, p.X, xr[1])
		assert.Greater(t, p.Y, YMin)
		assert.Less(t, p.Y, YMax)
	}
}

func TestLayout_SingleCompanyCentred(t *testing.T) {
	records := makeRecords(map[string]int{"6–19 Employees": 1})

	points := Layout(records, model.DefaultBands, DefaultSeed)
	require.Len(t, points, 1)
	assert.Equal(t, 1.0, points[0].X)
	assert.Equal(t, 0.0, points[0].Y)
}

func TestLayout_KeepsRecordOrderAndSkipsUnplaced(t *testing.T) {
	records := []model.Company{
		{LegalName: "c", StandardBand: "20–49 Employees"},
		{LegalName: "no band"},
		{LegalName: "a", StandardBand: "1–5 Employees"},
		{LegalName: "b", StandardBand: "20–49 Employees"},
	}

	points := Layout(records, model.DefaultBands, DefaultSeed)
	require.Len(t, points, 3)
	assert.Equal(t, "c", points[0].Name)
	assert.Equal(t, "a", points[1].Name)
	assert.Equal(t, "b", points[2].Name)
}

func TestBuild_ExtendsAxisWithUnknownBands(t *testing.T) {
	records := []model.Company{
		{LegalName: "Big Co", StandardBand: "200+ Employees", BandCode: 6},
		{LegalName: "Small Co", StandardBand: "1–5 Employees", BandCode: 1},
	}

	fig := Build(records, model.DefaultBands, DefaultSeed)
	assert.Len(t, fig.Axis, 4)
	assert.Equal(t, [2]float64{-0.5, 3.5}, fig.XRange)
	assert.Equal(t, [2]float64{YMin, YMax}, fig.YRange)
	require.Len(t, fig.Points, 2)
	assert.Equal(t, 3.0, fig.Points[0].X)
}

func TestRender_SVG(t *testing.T) {
	records := makeRecords(map[string]int{"1–5 Employees": 3, "20–49 Employees": 1})
	fig := Build(records, model.DefaultBands, DefaultSeed)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fig, Options{Width: 800, Height: 240}))

	svg := buf.String()
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "6–19 Employees")
	assert.NotContains(t, svg, "1–5 Employees #0")
}

var circleRe = regexp.MustCompile(`<circle cx="(-?[0-9.]+)" cy="(-?[0-9.]+)"`)

// circleCentres returns the centre of every <circle> in an SVG document.
func circleCentres(t *testing.T, svg string) [][2]float64 {
	t.Helper()
	var out [][2]float64
	for _, m := range circleRe.FindAllStringSubmatch(svg, -1) {
		x, err := strconv.ParseFloat(m[1], 64)
		require.NoError(t, err)
		y, err := strconv.ParseFloat(m[2], 64)
		require.NoError(t, err)
		out = append(out, [2]float64{x, y})
	}
	return out
}

func TestRender_BubblesStayOnCanvas(t *testing.T) {
	// Crowded edge bands push jitter to both ends of the x range.
	records := makeRecords(map[string]int{"1–5 Employees": 30, "6–19 Employees": 5, "20–49 Employees": 30})
	fig := Build(records, model.DefaultBands, DefaultSeed)

	var minX, maxX float64 = math.Inf(1), math.Inf(-1)
	for _, p := range fig.Points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
	}
	require.Less(t, minX, 0.0, "layout should place some bubbles left of the first band")
	require.Greater(t, maxX, 2.0, "layout should place some bubbles right of the last band")

	const width, height = 600, 240
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fig, Options{Width: width, Height: height}))

	centres := circleCentres(t, buf.String())
	require.GreaterOrEqual(t, len(centres), len(fig.Points))
	for _, c := range centres {
		assert.GreaterOrEqual(t, c[0], 0.0)
		assert.LessOrEqual(t, c[0], float64(width))
		assert.GreaterOrEqual(t, c[1], 0.0)
		assert.LessOrEqual(t, c[1], float64(height))
	}
}

func TestRender_SingleBandAxis(t *testing.T) {
	bands := model.BandOrder{"1–5 Employees"}
	records := []model.Company{
		{LegalName: "a", StandardBand: "1–5 Employees", BandCode: 1},
		{LegalName: "b", StandardBand: "1–5 Employees", BandCode: 1},
	}
	fig := Build(records, bands, DefaultSeed)
	require.Len(t, fig.Axis, 1)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fig, Options{Width: 400, Height: 200}))
	for _, c := range circleCentres(t, buf.String()) {
		assert.GreaterOrEqual(t, c[0], 0.0)
		assert.LessOrEqual(t, c[0], 400.0)
	}
}

func TestRender_Labels(t *testing.T) {
	records := makeRecords(map[string]int{"6–19 Employees": 2})
	fig := Build(records, model.DefaultBands, DefaultSeed)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fig, Options{Labels: true}))
	assert.Contains(t, buf.String(), "6–19 Employees #1")
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Build(nil, model.DefaultBands, DefaultSeed), Options{})
	assert.ErrorIs(t, err, ErrNoPoints)
	assert.Zero(t, buf.Len())
}
