package perimeter

// Tier names.
const (
	TierHigh = "high"
	TierLow  = "low"
)

// Tier bundles the filtering threshold, simplification tolerance and hex grid
// resolution used to produce one rendering-resolution variant of the output.
type Tier struct {
	Name          string  `yaml:"name" mapstructure:"name"`
	MinAcres      float64 `yaml:"min_acres" mapstructure:"min_acres"`
	Tolerance     float64 `yaml:"tolerance" mapstructure:"tolerance"`
	HexResolution int     `yaml:"hex_resolution" mapstructure:"hex_resolution"`
}

// Suffix returns the filename suffix for artifacts of this tier.
func (t Tier) Suffix() string {
	if t.Name == TierLow {
		return "-low"
	}
	return ""
}

// DefaultHigh returns the detailed tier used for zoomed-in rendering.
func DefaultHigh() Tier {
	return Tier{Name: TierHigh, MinAcres: 100, Tolerance: 0.001, HexResolution: 8}
}

// DefaultLow returns the coarse tier used for zoomed-out rendering.
func DefaultLow() Tier {
	return Tier{Name: TierLow, MinAcres: 5000, Tolerance: 0.005, HexResolution: 7}
}
