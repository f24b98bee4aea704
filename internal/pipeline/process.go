package pipeline

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/wildfire-cli/internal/artifact"
	"github.com/sells-group/wildfire-cli/internal/hexgrid"
	"github.com/sells-group/wildfire-cli/internal/merge"
	"github.com/sells-group/wildfire-cli/internal/perimeter"
	"github.com/sells-group/wildfire-cli/internal/simplify"
	"github.com/sells-group/wildfire-cli/internal/summary"
)

// TierOutput holds the four collections derived for one quality tier.
type TierOutput struct {
	Tier     perimeter.Tier
	All      perimeter.Collection
	AllHex   perimeter.Collection
	Final    perimeter.Collection
	FinalHex perimeter.Collection
}

// Output is everything written for one unit.
type Output struct {
	Raw      perimeter.Collection
	Tiers    []TierOutput
	Metadata summary.Metadata
}

// Process derives every artifact collection from a unit's raw perimeters.
// Each tier is computed from raw independently. Metadata is taken from the
// high tier's all-perimeters collection, or the first tier when no tier is
// named high.
func Process(raw perimeter.Collection, tiers []perimeter.Tier) (*Output, error) {
	out := &Output{Raw: raw.ValidOnly()}

	metaIdx := -1
	for _, t := range tiers {
		all := simplify.Apply(raw, t)
		allHex := hexgrid.Encode(all, t.HexResolution)

		final, err := merge.Final(all)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: final perimeters (%s)", t.Name)
		}
		finalHex, err := merge.Final(allHex)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: final hex perimeters (%s)", t.Name)
		}

		out.Tiers = append(out.Tiers, TierOutput{
			Tier:     t,
			All:      all,
			AllHex:   allHex,
			Final:    final,
			FinalHex: finalHex,
		})
		if metaIdx < 0 || t.Name == perimeter.TierHigh {
			metaIdx = len(out.Tiers) - 1
		}
	}

	if metaIdx >= 0 {
		out.Metadata = summary.Build(out.Tiers[metaIdx].All)
	}
	return out, nil
}

// Files lists the artifacts to write for the output.
func (o *Output) Files() []artifact.File {
	files := []artifact.File{artifact.CollectionFile(artifact.RawGeoJSONFile, o.Raw)}
	for _, t := range o.Tiers {
		files = append(files,
			artifact.CollectionFile(artifact.AllFile(t.Tier), t.All),
			artifact.CollectionFile(artifact.AllHexFile(t.Tier), t.AllHex),
			artifact.CollectionFile(artifact.FinalFile(t.Tier), t.Final),
			artifact.CollectionFile(artifact.FinalHexFile(t.Tier), t.FinalHex),
		)
	}
	return append(files, artifact.MetadataFileOf(o.Metadata))
}
