// Package hexgrid encodes perimeter polygons as sets of H3 cells.
package hexgrid

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/uber/h3-go/v3"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

// Encode converts every polygon perimeter of c into the H3 cells at
// resolution whose centres fall inside it, holes excluded. Cells are unique
// and sorted per perimeter. Perimeters covering no cell are dropped.
func Encode(c perimeter.Collection, resolution int) perimeter.Collection {
	out := perimeter.Collection{Format: perimeter.FormatHex, Perimeters: make([]perimeter.Perimeter, 0, len(c.Perimeters))}
	for _, p := range c.Perimeters {
		cells := Cells(p.Geometry, resolution)
		if len(cells) == 0 {
			continue
		}
		hp := p.Clone()
		hp.Geometry = nil
		hp.Cells = cells
		out.Perimeters = append(out.Perimeters, hp)
	}
	return out
}

// Cells polyfills an areal geometry at resolution.
func Cells(g geom.T, resolution int) []string {
	seen := make(map[h3.H3Index]struct{})
	for _, p := range perimeter.Polygons(g) {
		for _, idx := range h3.Polyfill(geoPolygon(p), resolution) {
			if idx != 0 {
				seen[idx] = struct{}{}
			}
		}
	}
	cells := make([]string, 0, len(seen))
	for idx := range seen {
		cells = append(cells, h3.ToString(idx))
	}
	sort.Strings(cells)
	return cells
}

func geoPolygon(p *geom.Polygon) h3.GeoPolygon {
	var gp h3.GeoPolygon
	for i := 0; i < p.NumLinearRings(); i++ {
		loop := geoLoop(perimeter.RingXY(p.LinearRing(i)))
		if i == 0 {
			gp.Geofence = loop
		} else {
			gp.Holes = append(gp.Holes, loop)
		}
	}
	return gp
}

// geoLoop converts a closed lon/lat ring into an open H3 loop.
func geoLoop(flat []float64) []h3.GeoCoord {
	n := len(flat) / 2
	if n > 1 && flat[0] == flat[2*(n-1)] && flat[1] == flat[2*(n-1)+1] {
		n--
	}
	loop := make([]h3.GeoCoord, 0, n)
	for i := 0; i < n; i++ {
		loop = append(loop, h3.GeoCoord{Latitude: flat[2*i+1], Longitude: flat[2*i]})
	}
	return loop
}

// Centroids decodes cells back to lon/lat cell centres.
func Centroids(cells []string) ([]geom.Coord, error) {
	out := make([]geom.Coord, 0, len(cells))
	for _, s := range cells {
		idx := h3.FromString(s)
		if !h3.IsValid(idx) {
			return nil, eris.Errorf("hexgrid: invalid cell %q", s)
		}
		c := h3.ToGeo(idx)
		out = append(out, geom.Coord{c.Longitude, c.Latitude})
	}
	return out, nil
}
