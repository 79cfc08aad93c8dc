package render

import (
	"math"

	"github.com/paulmach/orb"
)

// Projection is a Natural Earth I projection fitted to a viewport.
type Projection struct {
	scale  float64
	tx, ty float64
}

// naturalEarth projects lon/lat in degrees onto the unscaled Natural Earth I
// plane, y pointing up.
func naturalEarth(lon, lat float64) orb.Point {
	lambda := lon * math.Pi / 180
	phi := lat * math.Pi / 180
	phi2 := phi * phi
	phi4 := phi2 * phi2
	x := lambda * (0.8707 - 0.131979*phi2 + phi4*(-0.013791+phi4*(0.003971*phi2-0.001529*phi4)))
	y := phi * (1.007226 + phi2*(0.015085+phi4*(-0.044475+0.028874*phi2-0.005916*phi4)))
	return orb.Point{x, y}
}

// FitProjection scales and centres the features inside a width×height
// viewport less padding on each side. An empty feature set fits the whole
// globe.
func FitProjection(features []Feature, width, height, padding float64) Projection {
	var b orb.Bound
	first := true
	extend := func(p orb.Point) {
		q := naturalEarth(p[0], p[1])
		if first {
			b = orb.Bound{Min: q, Max: q}
			first = false
			return
		}
		b = b.Extend(q)
	}
	for _, f := range features {
		for _, poly := range f.Polygons {
			for _, ring := range poly {
				for _, p := range ring {
					extend(p)
				}
			}
		}
	}
	if first {
		extend(orb.Point{-180, -90})
		extend(orb.Point{180, 90})
	}

	innerW := math.Max(1, width-2*padding)
	innerH := math.Max(1, height-2*padding)
	dx := math.Max(b.Max[0]-b.Min[0], 1e-9)
	dy := math.Max(b.Max[1]-b.Min[1], 1e-9)
	scale := math.Min(innerW/dx, innerH/dy)

	// Centre the fitted bounds; SVG y grows downward.
	cx := (b.Min[0] + b.Max[0]) / 2
	cy := (b.Min[1] + b.Max[1]) / 2
	return Projection{
		scale: scale,
		tx:    width/2 - cx*scale,
		ty:    height/2 + cy*scale,
	}
}

// Project maps lon/lat degrees to viewport pixels.
func (p Projection) Project(lon, lat float64) (x, y float64) {
	q := naturalEarth(lon, lat)
	return p.tx + q[0]*p.scale, p.ty - q[1]*p.scale
}
