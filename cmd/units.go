package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/wildfire-cli/internal/config"
	"github.com/sells-group/wildfire-cli/internal/pipeline"
)

// unitFlags selects the region/year units a command works on.
type unitFlags struct {
	year    int
	region  string
	regions string // path to a region list file
	dest    string
}

func (f *unitFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.year, "year", 0, "fire season to process")
	cmd.Flags().StringVar(&f.region, "region", "", "two-letter state code")
	cmd.Flags().StringVar(&f.regions, "config", "", "JSON or YAML region list ({\"states\":[{code,name,years}]})")
	cmd.Flags().StringVar(&f.dest, "dest", "", "output root (default from output.dest)")
}

func (f *unitFlags) destOr(fallback string) string {
	if f.dest != "" {
		return f.dest
	}
	return fallback
}

// units resolves the flags into units. Either --config or both --year and
// --region must be given.
func (f *unitFlags) units(defaultDest string) ([]pipeline.Unit, error) {
	dest := f.destOr(defaultDest)
	if f.regions != "" {
		regions, err := config.LoadRegions(f.regions)
		if err != nil {
			return nil, err
		}
		return pipeline.Units(regions, dest), nil
	}
	if f.region == "" || f.year == 0 {
		return nil, eris.New("either --config or both --year and --region are required")
	}
	return pipeline.Units([]config.Region{{Code: f.region, Years: []int{f.year}}}, dest), nil
}
