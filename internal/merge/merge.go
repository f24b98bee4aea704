// Package merge collapses repeated perimeters of the same fire into one
// feature per fire identity.
package merge

import (
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

// Dedupe keeps one perimeter per Perimeter.ID, in first-seen order. A repeat
// is merged into the kept feature: shapes are unioned (geometric union for
// polygon collections, set union of cells for hex collections), the date and
// acreage become the maximum of both, and every other property is taken
// from the repeat. Invalid perimeters are skipped.
func Dedupe(c perimeter.Collection) (perimeter.Collection, error) {
	out := perimeter.Collection{Format: c.Format, Perimeters: make([]perimeter.Perimeter, 0, len(c.Perimeters))}
	index := make(map[string]int, len(c.Perimeters))

	for _, p := range c.Perimeters {
		if !p.Valid(c.Format) {
			continue
		}
		id := p.ID()
		i, ok := index[id]
		if !ok {
			index[id] = len(out.Perimeters)
			out.Perimeters = append(out.Perimeters, p.Clone())
			continue
		}
		merged, err := combine(out.Perimeters[i], p, c.Format)
		if err != nil {
			return perimeter.Collection{}, eris.Wrapf(err, "merge: combine %s", id)
		}
		out.Perimeters[i] = merged
	}
	return out, nil
}

// Final keeps the perimeters flagged as latest and dedupes them.
func Final(c perimeter.Collection) (perimeter.Collection, error) {
	return Dedupe(c.Latest())
}

func combine(prev, next perimeter.Perimeter, f perimeter.Format) (perimeter.Perimeter, error) {
	m := next.Clone()
	m.Date = laterDate(prev.Date, next.Date)
	m.Acres = math.Max(prev.Acres, next.Acres)

	if f == perimeter.FormatHex {
		m.Cells = unionCells(prev.Cells, next.Cells)
		return m, nil
	}

	g, err := Union(prev.Geometry, next.Geometry)
	if err != nil {
		return perimeter.Perimeter{}, err
	}
	m.Geometry = g
	return m, nil
}

func laterDate(a, b *time.Time) *time.Time {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		d := *b
		return &d
	case b == nil || a.After(*b):
		d := *a
		return &d
	default:
		d := *b
		return &d
	}
}

func unionCells(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, c := range a {
		set[c] = struct{}{}
	}
	for _, c := range b {
		set[c] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
