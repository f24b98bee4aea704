package source

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

// shell is an outer ring and the holes it contains, as flat XY coordinates.
type shell struct {
	outer []float64
	holes [][]float64
}

// closeRing appends the first position when the ring is not closed.
func closeRing(flat []float64) []float64 {
	n := len(flat)
	if n < 4 {
		return flat
	}
	if flat[0] != flat[n-2] || flat[1] != flat[n-1] {
		flat = append(flat, flat[0], flat[1])
	}
	return flat
}

// usableRing closes the ring and reports whether it still encloses area.
func usableRing(flat []float64) ([]float64, bool) {
	flat = closeRing(flat)
	if len(flat) < 8 {
		return nil, false
	}
	return flat, xy.SignedArea(geom.XY, flat) != 0
}

func (s shell) polygon() *geom.Polygon {
	flat := append([]float64(nil), perimeter.OrientRing(s.outer, false)...)
	ends := []int{len(flat)}
	for _, h := range s.holes {
		flat = append(flat, perimeter.OrientRing(h, true)...)
		ends = append(ends, len(flat))
	}
	return geom.NewPolygonFlat(geom.XY, flat, ends)
}

// fromEsriRings assembles Esri rings: clockwise rings are shells,
// counter-clockwise rings are holes of the smallest shell containing them.
// A hole outside every shell is promoted to a shell of its own. The result
// uses RFC 7946 winding.
func fromEsriRings(rings [][]float64) geom.T {
	var shells []shell
	var holes [][]float64
	for _, r := range rings {
		r, ok := usableRing(r)
		if !ok {
			continue
		}
		if perimeter.IsClockwise(r) {
			shells = append(shells, shell{outer: r})
		} else {
			holes = append(holes, r)
		}
	}
	// Islands nest inside lakes, so a hole belongs to the innermost shell
	// around it rather than the outer boundary.
	var orphans []shell
	for _, h := range holes {
		p := geom.Coord{h[0], h[1]}
		best, bestArea := -1, math.Inf(1)
		for i := range shells {
			if !xy.IsPointInRing(geom.XY, p, shells[i].outer) {
				continue
			}
			if a := math.Abs(xy.SignedArea(geom.XY, shells[i].outer)); a < bestArea {
				best, bestArea = i, a
			}
		}
		if best < 0 {
			orphans = append(orphans, shell{outer: h})
			continue
		}
		shells[best].holes = append(shells[best].holes, h)
	}
	shells = append(shells, orphans...)

	polys := make([]*geom.Polygon, 0, len(shells))
	for _, s := range shells {
		polys = append(polys, s.polygon())
	}
	return perimeter.FromPolygons(polys)
}
