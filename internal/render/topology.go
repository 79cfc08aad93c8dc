package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// UnknownID marks a feature whose topology id could not be read.
const UnknownID = -1

// Feature is one map region: a numeric topology id and its polygons in
// lon/lat degrees. Features are decoded once and shared read-only between
// renderers.
type Feature struct {
	ID       int
	Name     string
	Polygons []orb.Polygon
}

// DecodeTopology reads a GeoJSON FeatureCollection. Each feature's id may be
// a JSON number or a zero-padded numeric string ("004"); features without a
// usable id keep UnknownID and render as "no data". Non-areal geometries are
// dropped.
func DecodeTopology(data []byte) ([]Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}

	out := make([]Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		feat := Feature{ID: featureID(f), Name: f.Properties.MustString("name", "")}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			feat.Polygons = []orb.Polygon{g}
		case orb.MultiPolygon:
			feat.Polygons = []orb.Polygon(g)
		default:
			continue
		}
		out = append(out, feat)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("decode topology: no polygon features")
	}
	return out, nil
}

func featureID(f *geojson.Feature) int {
	id := f.ID
	if id == nil {
		id = f.Properties["id"]
	}
	switch v := id.(type) {
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return UnknownID
}
