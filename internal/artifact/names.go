package artifact

import "github.com/sells-group/wildfire-cli/internal/perimeter"

// Fixed artifact names. Tiered names are built by the functions below.
const (
	RawGeoJSONFile = "rawPerimeters.geojson"
	MetadataFile   = "metadata.json"
)

// AllFile names the every-snapshot polygon artifact of a tier.
func AllFile(t perimeter.Tier) string {
	return "allPerimeters" + t.Suffix() + ".geojson"
}

// AllHexFile names the every-snapshot hex artifact of a tier.
func AllHexFile(t perimeter.Tier) string {
	return "allH3Perimeters" + t.Suffix() + ".geojson"
}

// FinalFile names the one-per-fire polygon artifact of a tier.
func FinalFile(t perimeter.Tier) string {
	return "finalPerimeters" + t.Suffix() + ".geojson"
}

// FinalHexFile names the one-per-fire hex artifact of a tier.
func FinalHexFile(t perimeter.Tier) string {
	return "finalH3Perimeters" + t.Suffix() + ".geojson"
}
