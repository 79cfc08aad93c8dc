package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
)

// buildPath renders a feature's rings as an SVG path in viewport pixels.
func buildPath(proj Projection, f *Feature) string {
	var b strings.Builder
	buf := make([]byte, 0, 16)
	for _, poly := range f.Polygons {
		for _, ring := range poly {
			for i, pt := range ring {
				x, y := proj.Project(pt[0], pt[1])
				if i == 0 {
					b.WriteByte('M')
				} else {
					b.WriteByte('L')
				}
				buf = strconv.AppendFloat(buf[:0], x, 'f', 1, 64)
				b.Write(buf)
				b.WriteByte(',')
				buf = strconv.AppendFloat(buf[:0], y, 'f', 1, 64)
				b.Write(buf)
			}
			if len(ring) > 0 {
				b.WriteByte('Z')
			}
		}
	}
	return b.String()
}

// WriteSVG writes the map as a standalone SVG document with every polygon at
// its current fill.
func (r *GeoRenderer) WriteSVG(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`,
		r.width, r.height, r.width, r.height)
	fmt.Fprintf(bw, `<g class="countries" stroke="%s" stroke-width="%g">`, html.EscapeString(r.stroke), r.cfg.StrokeWidth)

	fills := r.Fills()
	for i, p := range r.polygons {
		f := fills[i]
		fmt.Fprintf(bw, `<path data-id="%d"`, f.ID)
		if f.Code != "" {
			fmt.Fprintf(bw, ` data-code="%s"`, f.Code)
		}
		if p.feature.Name != "" {
			fmt.Fprintf(bw, ` data-name="%s"`, html.EscapeString(p.feature.Name))
		}
		fmt.Fprintf(bw, ` fill="%s" fill-opacity="%g" d="%s"/>`, f.Color, f.Opacity, p.path)
	}

	bw.WriteString(`</g></svg>`)
	return bw.Flush()
}
