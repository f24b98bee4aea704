// Package pipeline runs the per-unit fetch, process and write cycle that
// turns upstream perimeters into map artifacts.
package pipeline

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sells-group/wildfire-cli/internal/config"
)

// Unit is one (region, year) pair and the directory its artifacts live in.
type Unit struct {
	Region     string // two-letter code, upper case
	RegionName string // display name, may be empty
	Year       int
	Dir        string
}

// Units flattens a region list into units in region order, then year order.
// Each unit's directory is <dest>/<year>/<region>.
func Units(regions []config.Region, dest string) []Unit {
	var units []Unit
	for _, r := range regions {
		code := strings.ToUpper(r.Code)
		for _, y := range r.Years {
			units = append(units, Unit{
				Region:     code,
				RegionName: r.Name,
				Year:       y,
				Dir:        filepath.Join(dest, strconv.Itoa(y), code),
			})
		}
	}
	return units
}
