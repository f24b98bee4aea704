// Package perimeter defines the canonical wildfire perimeter model shared by
// every pipeline stage.
package perimeter

import (
	"math"
	"time"

	"github.com/twpayne/go-geom"
)

// Format discriminates how a Collection stores perimeter shapes.
type Format int

const (
	// FormatPolygon stores shapes as go-geom polygons or multipolygons.
	FormatPolygon Format = iota
	// FormatHex stores shapes as sets of H3 cell identifiers.
	FormatHex
)

// String returns the human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatPolygon:
		return "polygon"
	case FormatHex:
		return "hex"
	default:
		return "unknown"
	}
}

// Perimeter is one surveyed boundary snapshot of one fire.
type Perimeter struct {
	RawID    string
	Name     string
	Date     *time.Time // nil when the source has no usable survey time
	Acres    float64    // NaN when missing or unparseable
	IsLatest bool
	Region   string
	Year     int

	// Geometry is a *geom.Polygon or *geom.MultiPolygon in lon/lat.
	Geometry geom.T
	// Cells holds H3 cell identifiers for FormatHex collections.
	Cells []string
}

// ID returns the composite identity used to group perimeters of one fire.
// The raw identifier is known to collide upstream, so the name is appended.
func (p Perimeter) ID() string {
	return p.RawID + "-" + p.Name
}

// HasShape reports whether the perimeter carries a renderable shape for the
// given format.
func (p Perimeter) HasShape(f Format) bool {
	if f == FormatHex {
		return len(p.Cells) > 0
	}
	switch g := p.Geometry.(type) {
	case *geom.Polygon:
		return g != nil && g.NumLinearRings() > 0
	case *geom.MultiPolygon:
		return g != nil && g.NumPolygons() > 0
	default:
		return false
	}
}

// Valid reports whether the perimeter may appear in an output artifact.
func (p Perimeter) Valid(f Format) bool {
	return p.Name != "" && IsFinite(p.Acres) && p.HasShape(f)
}

// Clone returns a deep copy. Geometry and cells are never shared between the
// original and the copy.
func (p Perimeter) Clone() Perimeter {
	out := p
	if p.Date != nil {
		d := *p.Date
		out.Date = &d
	}
	out.Geometry = CloneGeometry(p.Geometry)
	if p.Cells != nil {
		out.Cells = append([]string(nil), p.Cells...)
	}
	return out
}

// DateMillis returns the survey time as epoch milliseconds, or nil.
func (p Perimeter) DateMillis() *int64 {
	if p.Date == nil {
		return nil
	}
	ms := p.Date.UnixMilli()
	return &ms
}

// CloneGeometry deep-copies the areal geometry types used by the pipeline.
// Other geometry types yield nil.
func CloneGeometry(g geom.T) geom.T {
	switch g := g.(type) {
	case *geom.Polygon:
		if g == nil {
			return nil
		}
		return g.Clone()
	case *geom.MultiPolygon:
		if g == nil {
			return nil
		}
		return g.Clone()
	default:
		return nil
	}
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Collection is an ordered set of perimeters in a single format.
type Collection struct {
	Format     Format
	Perimeters []Perimeter
}

// Len returns the number of perimeters.
func (c Collection) Len() int {
	return len(c.Perimeters)
}

// Filter returns a new collection holding deep copies of the perimeters that
// satisfy keep.
func (c Collection) Filter(keep func(Perimeter) bool) Collection {
	out := Collection{Format: c.Format, Perimeters: make([]Perimeter, 0, len(c.Perimeters))}
	for _, p := range c.Perimeters {
		if keep(p) {
			out.Perimeters = append(out.Perimeters, p.Clone())
		}
	}
	return out
}

// ValidOnly drops every perimeter that may not be written.
func (c Collection) ValidOnly() Collection {
	f := c.Format
	return c.Filter(func(p Perimeter) bool { return p.Valid(f) })
}

// Latest keeps only perimeters flagged as the fire's final survey.
func (c Collection) Latest() Collection {
	return c.Filter(func(p Perimeter) bool { return p.IsLatest })
}
