package artifact

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

// Properties returns the attribute map written for one perimeter. Keys match
// the names the map client reads.
func Properties(p perimeter.Perimeter) map[string]any {
	latest := "N"
	if p.IsLatest {
		latest = "Y"
	}
	var date any
	if ms := p.DateMillis(); ms != nil {
		date = *ms
	}
	return map[string]any{
		"id":                   p.ID(),
		"uniquefireidentifier": p.RawID,
		"incidentname":         p.Name,
		"perimeterdatetime":    date,
		"gisacres":             p.Acres,
		"latest":               latest,
		"state":                p.Region,
		"fireyear":             p.Year,
	}
}

// Encode serializes a collection in its own format. Invalid perimeters are
// dropped.
func Encode(c perimeter.Collection) ([]byte, error) {
	if c.Format == perimeter.FormatHex {
		return EncodeHex(c)
	}
	return EncodePolygons(c)
}

// EncodePolygons writes a GeoJSON FeatureCollection of polygon features.
func EncodePolygons(c perimeter.Collection) ([]byte, error) {
	valid := c.ValidOnly()
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, valid.Len())}
	for _, p := range valid.Perimeters {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   p.Geometry,
			Properties: Properties(p),
		})
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "artifact: encode polygons")
	}
	return data, nil
}

type hexFeature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   []string       `json:"geometry"`
}

type hexCollection struct {
	Type     string       `json:"type"`
	Features []hexFeature `json:"features"`
}

// EncodeHex writes the hex variant: a FeatureCollection whose geometry is a
// plain array of H3 cell identifiers.
func EncodeHex(c perimeter.Collection) ([]byte, error) {
	if c.Format != perimeter.FormatHex {
		return nil, eris.Errorf("artifact: encode hex: collection is %s", c.Format)
	}
	valid := c.ValidOnly()
	out := hexCollection{Type: "FeatureCollection", Features: make([]hexFeature, 0, valid.Len())}
	for _, p := range valid.Perimeters {
		out.Features = append(out.Features, hexFeature{
			Type:       "Feature",
			Properties: Properties(p),
			Geometry:   p.Cells,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, eris.Wrap(err, "artifact: encode hex")
	}
	return data, nil
}
