// Package source translates upstream perimeter documents (Esri JSON, GeoJSON,
// shapefiles) into a canonical perimeter.Collection.
package source

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

// ErrMissingCompanion is returned when a shapefile lacks its .dbf or .prj file.
var ErrMissingCompanion = eris.New("source: shapefile companion file missing")

// Result is the outcome of parsing one upstream document.
type Result struct {
	Collection perimeter.Collection
	// Truncated is set when the provider reported more records than it returned.
	Truncated bool
	// Invalid counts records kept in Collection that fail perimeter validity.
	Invalid int
}

func newResult(ps []perimeter.Perimeter, truncated bool) *Result {
	res := &Result{
		Collection: perimeter.Collection{Format: perimeter.FormatPolygon, Perimeters: ps},
		Truncated:  truncated,
	}
	for _, p := range ps {
		if !p.Valid(perimeter.FormatPolygon) {
			res.Invalid++
		}
	}
	return res
}

// Schema maps one provider's drifting attribute names onto the canonical
// perimeter fields. Aliases are matched case-insensitively, first hit wins.
type Schema struct {
	Name   string
	ID     []string
	Label  []string
	Date   []string
	Acres  []string
	Latest []string
	Region []string
	Year   []string
}

// NIFCSchema covers the NIFC historic perimeter feature service.
var NIFCSchema = Schema{
	Name:   "nifc",
	ID:     []string{"uniquefireidentifier"},
	Label:  []string{"incidentname"},
	Date:   []string{"perimeterdatetime"},
	Acres:  []string{"gisacres"},
	Latest: []string{"latest"},
	Region: []string{"state"},
	Year:   []string{"fireyear"},
}

// GeoMACSchema covers the legacy GeoMAC shapefiles, whose attribute names
// changed between seasons.
var GeoMACSchema = Schema{
	Name:   "geomac",
	ID:     []string{"uniquefireidentifier", "uniquefire", "inciwebid", "objectid"},
	Label:  []string{"fire_name", "firename", "incidentname"},
	Date:   []string{"date_", "perdattime", "datecurrent", "perimeterdatetime"},
	Acres:  []string{"gisacres", "acres"},
	Latest: []string{"latest"},
	Region: []string{"state", "statename"},
	Year:   []string{"fireyear", "year_", "year"},
}

// record is an attribute map keyed by lower-cased attribute name.
type record map[string]any

func newRecord(attrs map[string]any) record {
	r := make(record, len(attrs))
	for k, v := range attrs {
		r[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return r
}

func (r record) lookup(aliases []string) any {
	for _, a := range aliases {
		if v, ok := r[a]; ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}

// Normalize maps a raw attribute map onto a perimeter without geometry.
// Missing or unparseable optional values become nil or NaN sentinels.
func (s Schema) Normalize(attrs map[string]any) perimeter.Perimeter {
	r := newRecord(attrs)
	return perimeter.Perimeter{
		RawID:    toString(r.lookup(s.ID)),
		Name:     toString(r.lookup(s.Label)),
		Date:     parseDate(r.lookup(s.Date)),
		Acres:    parseAcres(r.lookup(s.Acres)),
		IsLatest: parseLatest(r.lookup(s.Latest)),
		Region:   toString(r.lookup(s.Region)),
		Year:     parseYear(r.lookup(s.Year)),
	}
}
