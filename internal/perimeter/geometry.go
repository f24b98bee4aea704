package perimeter

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// IsClockwise reports the winding of a closed flat XY ring. The shoelace sum
// in xy.SignedArea is positive for clockwise rings.
func IsClockwise(flat []float64) bool {
	return xy.SignedArea(geom.XY, flat) > 0
}

// ReverseRing returns a reversed copy of a flat XY ring.
func ReverseRing(flat []float64) []float64 {
	n := len(flat) / 2
	out := make([]float64, len(flat))
	for i := 0; i < n; i++ {
		out[2*i] = flat[2*(n-1-i)]
		out[2*i+1] = flat[2*(n-1-i)+1]
	}
	return out
}

// OrientRing returns flat wound in the requested direction, copying only
// when it has to be reversed.
func OrientRing(flat []float64, clockwise bool) []float64 {
	if IsClockwise(flat) == clockwise {
		return flat
	}
	return ReverseRing(flat)
}

// RingXY returns a ring's coordinates as flat XY, dropping Z and M.
func RingXY(r *geom.LinearRing) []float64 {
	stride := r.Stride()
	src := r.FlatCoords()
	out := make([]float64, 0, len(src)/stride*2)
	for i := 0; i+1 < len(src); i += stride {
		out = append(out, src[i], src[i+1])
	}
	return out
}

// Polygons returns the parts of an areal geometry.
func Polygons(g geom.T) []*geom.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		if t == nil {
			return nil
		}
		return []*geom.Polygon{t}
	case *geom.MultiPolygon:
		if t == nil {
			return nil
		}
		out := make([]*geom.Polygon, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			out = append(out, t.Polygon(i))
		}
		return out
	default:
		return nil
	}
}

// FromPolygons returns nil for no parts, the polygon itself for one part and
// a MultiPolygon otherwise.
func FromPolygons(polys []*geom.Polygon) geom.T {
	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	}
	mp := geom.NewMultiPolygon(geom.XY)
	for _, p := range polys {
		if err := mp.Push(p); err != nil {
			continue
		}
	}
	return mp
}

// Orient returns a 2D copy of an areal geometry with RFC 7946 winding: shells
// counter-clockwise, holes clockwise. Rings enclosing no area are dropped, as
// are polygons whose shell encloses none. Non-areal input yields nil.
func Orient(g geom.T) geom.T {
	var out []*geom.Polygon
	for _, p := range Polygons(g) {
		var (
			flat []float64
			ends []int
		)
		for i := 0; i < p.NumLinearRings(); i++ {
			ring := RingXY(p.LinearRing(i))
			if len(ring) < 8 || xy.SignedArea(geom.XY, ring) == 0 {
				if i == 0 {
					break
				}
				continue
			}
			flat = append(flat, OrientRing(ring, i > 0)...)
			ends = append(ends, len(flat))
		}
		if len(ends) > 0 {
			out = append(out, geom.NewPolygonFlat(geom.XY, flat, ends))
		}
	}
	return FromPolygons(out)
}
