// Package simplify filters perimeters by size and reduces their vertex count
// with Douglas-Peucker simplification.
package simplify

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

const (
	// minRingPositions is the smallest closed ring: a triangle plus closure.
	minRingPositions = 4
	// shrinkFactor scales the tolerance down after a shell collapses.
	shrinkFactor = 0.99
	// maxShrinkAttempts bounds the retries before keeping the original shell.
	maxShrinkAttempts = 200
)

// Filter keeps valid perimeters whose acreage is strictly greater than
// minAcres.
func Filter(c perimeter.Collection, minAcres float64) perimeter.Collection {
	f := c.Format
	return c.Filter(func(p perimeter.Perimeter) bool {
		return p.Valid(f) && p.Acres > minAcres
	})
}

// Simplify returns a copy of c with every polygon ring simplified at the
// given tolerance, in degrees. Shells never vanish: a shell that collapses
// is retried at a shrinking tolerance and finally kept as-is. Holes that
// collapse are dropped. Hex collections are copied unchanged.
func Simplify(c perimeter.Collection, tolerance float64) perimeter.Collection {
	out := perimeter.Collection{Format: c.Format, Perimeters: make([]perimeter.Perimeter, 0, len(c.Perimeters))}
	for _, p := range c.Perimeters {
		cp := p.Clone()
		if c.Format == perimeter.FormatPolygon && tolerance > 0 {
			cp.Geometry = simplifyGeometry(cp.Geometry, tolerance)
		}
		out.Perimeters = append(out.Perimeters, cp)
	}
	return out
}

// Apply filters c with the tier threshold and simplifies the survivors with
// the tier tolerance.
func Apply(c perimeter.Collection, tier perimeter.Tier) perimeter.Collection {
	return Simplify(Filter(c, tier.MinAcres), tier.Tolerance)
}

func simplifyGeometry(g geom.T, tolerance float64) geom.T {
	polys := perimeter.Polygons(g)
	if len(polys) == 0 {
		return nil
	}
	out := make([]*geom.Polygon, 0, len(polys))
	for _, p := range polys {
		if sp := simplifyPolygon(p, tolerance); sp != nil {
			out = append(out, sp)
		}
	}
	return perimeter.FromPolygons(out)
}

func simplifyPolygon(p *geom.Polygon, tolerance float64) *geom.Polygon {
	if p.NumLinearRings() == 0 {
		return nil
	}
	flat := simplifyShell(perimeter.RingXY(p.LinearRing(0)), tolerance)
	ends := []int{len(flat)}
	for i := 1; i < p.NumLinearRings(); i++ {
		hole, ok := simplifyRing(perimeter.RingXY(p.LinearRing(i)), tolerance)
		if !ok {
			continue
		}
		flat = append(flat, hole...)
		ends = append(ends, len(flat))
	}
	return geom.NewPolygonFlat(geom.XY, flat, ends)
}

func simplifyShell(ring []float64, tolerance float64) []float64 {
	for range maxShrinkAttempts {
		if out, ok := simplifyRing(ring, tolerance); ok {
			return out
		}
		tolerance *= shrinkFactor
	}
	return ring
}

// simplifyRing runs Douglas-Peucker over a closed ring. It reports false
// when the result is no longer a ring enclosing area.
func simplifyRing(ring []float64, tolerance float64) ([]float64, bool) {
	if len(ring) < 2*minRingPositions {
		return nil, false
	}
	idx := xy.SimplifyFlatCoords(ring, tolerance, 2)
	if len(idx) < minRingPositions {
		return nil, false
	}
	out := make([]float64, 0, len(idx)*2)
	for _, i := range idx {
		out = append(out, ring[2*i], ring[2*i+1])
	}
	area := xy.SignedArea(geom.XY, out)
	if area == 0 || (area > 0) != perimeter.IsClockwise(ring) {
		return nil, false
	}
	return out, true
}
