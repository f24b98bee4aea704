package source

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

type esriDocument struct {
	Features              []esriFeature `json:"features"`
	ExceededTransferLimit bool          `json:"exceededTransferLimit"`
	Error                 *esriError    `json:"error"`
}

type esriFeature struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   *esriGeometry  `json:"geometry"`
}

type esriGeometry struct {
	Rings [][][]float64 `json:"rings"`
}

type esriError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// CheckArcGIS reports whether data is a usable query response: valid JSON
// that is not an error document. ArcGIS answers failed queries with HTTP 200.
func CheckArcGIS(data []byte) error {
	var doc struct {
		Error *esriError `json:"error"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return eris.Wrap(err, "source: decode arcgis response")
	}
	return doc.Error.err()
}

func (e *esriError) err() error {
	if e == nil {
		return nil
	}
	msg := e.Message
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return eris.Errorf("source: arcgis error %d: %s", e.Code, msg)
}

// ParseArcGIS decodes an Esri JSON feature-service query response using the
// NIFC attribute schema.
func ParseArcGIS(data []byte) (*Result, error) {
	var doc esriDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "source: decode arcgis response")
	}
	if err := doc.Error.err(); err != nil {
		return nil, err
	}

	ps := make([]perimeter.Perimeter, 0, len(doc.Features))
	for _, f := range doc.Features {
		p := NIFCSchema.Normalize(f.Attributes)
		if f.Geometry != nil {
			p.Geometry = fromEsriRings(flattenRings(f.Geometry.Rings))
		}
		ps = append(ps, p)
	}
	return newResult(ps, doc.ExceededTransferLimit), nil
}

// flattenRings converts Esri position arrays to flat XY slices, ignoring any
// Z or M ordinates and malformed positions.
func flattenRings(rings [][][]float64) [][]float64 {
	out := make([][]float64, 0, len(rings))
	for _, r := range rings {
		flat := make([]float64, 0, len(r)*2)
		for _, pos := range r {
			if len(pos) < 2 {
				continue
			}
			flat = append(flat, pos[0], pos[1])
		}
		out = append(out, flat)
	}
	return out
}
