// Package summary computes the per-season metadata consumed by the timeline
// chart.
package summary

import (
	"math"
	"time"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

// Metadata is the content of metadata.json.
type Metadata struct {
	AcresPerMonth [12]int64 `json:"acresPerMonth"`
}

// Build computes the metadata for one unit's perimeters.
func Build(c perimeter.Collection) Metadata {
	return Metadata{AcresPerMonth: AcresPerMonth(c)}
}

// AcresPerMonth sums, for each calendar month (UTC), the acreage of the
// latest perimeter of every fire name surveyed in that month. Acreage is
// truncated to whole acres. Perimeters without a name, date or finite
// acreage are ignored.
func AcresPerMonth(c perimeter.Collection) [12]int64 {
	type latest struct {
		date  time.Time
		acres int64
	}
	months := [12]map[string]latest{}
	order := [12][]string{}

	for _, p := range c.Perimeters {
		if p.Name == "" || p.Date == nil || !perimeter.IsFinite(p.Acres) {
			continue
		}
		d := p.Date.UTC()
		m := int(d.Month()) - 1
		if months[m] == nil {
			months[m] = make(map[string]latest)
		}
		prev, ok := months[m][p.Name]
		if !ok {
			order[m] = append(order[m], p.Name)
		}
		if !ok || prev.date.Before(d) {
			months[m][p.Name] = latest{date: d, acres: int64(math.Trunc(p.Acres))}
		}
	}

	var out [12]int64
	for m := range months {
		for _, name := range order[m] {
			out[m] += months[m][name].acres
		}
	}
	return out
}
