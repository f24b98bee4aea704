package source

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

// ParseGeoJSON decodes an externally produced GeoJSON FeatureCollection.
// Properties are matched against the lenient GeoMAC schema, which also covers
// the NIFC attribute names.
func ParseGeoJSON(data []byte) (*Result, error) {
	return ParseGeoJSONWith(data, GeoMACSchema)
}

// ParseGeoJSONWith decodes a GeoJSON FeatureCollection using the given schema.
func ParseGeoJSONWith(data []byte, schema Schema) (*Result, error) {
	var fc geojson.FeatureCollection
	if err := fc.UnmarshalJSON(data); err != nil {
		return nil, eris.Wrap(err, "source: decode geojson")
	}

	ps := make([]perimeter.Perimeter, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		p := schema.Normalize(f.Properties)
		p.Geometry = perimeter.Orient(f.Geometry)
		ps = append(ps, p)
	}
	return newResult(ps, false), nil
}
