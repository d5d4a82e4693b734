// Package chart lays out companies as bubbles keyed on employee band and
// renders the bubble chart.
package chart

import (
	"math"
	"math/rand"

	"github.com/sells-group/where2work/internal/model"
)

// DefaultSeed gives the same bubble arrangement on every render.
const DefaultSeed = 42

// Jitter spread and plot ranges. Y carries only jitter.
const (
	jitterX   = 0.45
	jitterY   = 2.5
	minRadius = 0.3
	maxRadius = 1.0
	maxAngle  = 0.3

	YMin = -3.5
	YMax = 3.5
)

// Point is one company placed on the chart.
type Point struct {
	Name       string  `json:"name"`
	Band       string  `json:"band"`
	BandIndex  int     `json:"band_index"`
	EntityType string  `json:"entity_type"`
	Location   string  `json:"location"`
	Industry   string  `json:"industry"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// Figure is the full chart description returned by the JSON API.
type Figure struct {
	Axis   model.BandOrder `json:"axis"`
	Points []Point         `json:"points"`
	XRange [2]float64      `json:"x_range"`
	YRange [2]float64      `json:"y_range"`
}

// Build lays out records against the axis derived from bands.
func Build(records []model.Company, bands model.BandOrder, seed int64) Figure {
	axis := bands.Axis(records)
	return Figure{
		Axis:   axis,
		Points: Layout(records, axis, seed),
		XRange: XRange(axis),
		YRange: [2]float64{YMin, YMax},
	}
}

// XRange returns the x extent for an axis: half a band either side.
func XRange(axis model.BandOrder) [2]float64 {
	return [2]float64{-0.5, float64(len(axis)) - 0.5}
}

// Layout places each record at its band's ordinal position plus a jitter
// that spreads a band's companies around an ellipse. A band with a single
// company sits at its centre. Records whose band is not on the axis are
// left out. Points keep record order.
func Layout(records []model.Company, axis model.BandOrder, seed int64) []Point {
	rng := rand.New(rand.NewSource(seed))

	members := make([][]int, len(axis))
	for i, r := range records {
		if idx := axis.Index(r.StandardBand); idx >= 0 {
			members[idx] = append(members[idx], i)
		}
	}

	placed := make(map[int]Point, len(records))
	for bandIdx, idxs := range members {
		n := len(idxs)
		if n == 0 {
			continue
		}

		dx := make([]float64, n)
		dy := make([]float64, n)
		if n > 1 {
			radii := make([]float64, n)
			for i := range radii {
				radii[i] = minRadius + rng.Float64()*(maxRadius-minRadius)
			}
			step := 2 * math.Pi / float64(n)
			for i := 0; i < n; i++ {
				angle := float64(i)*step + (rng.Float64()*2-1)*maxAngle
				dx[i] = radii[i] * math.Cos(angle) * jitterX
				dy[i] = radii[i] * math.Sin(angle) * jitterY
			}
		}

		for i, recIdx := range idxs {
			r := records[recIdx]
			placed[recIdx] = Point{
				Name:       r.LegalName,
				Band:       r.StandardBand,
				BandIndex:  bandIdx,
				EntityType: r.EntityTypeLabel,
				Location:   r.Location,
				Industry:   r.IndustryDescription,
				X:          float64(bandIdx) + dx[i],
				Y:          dy[i],
			}
		}
	}

	points := make([]Point, 0, len(placed))
	for i := range records {
		if p, ok := placed[i]; ok {
			points = append(points, p)
		}
	}
	return points
}
