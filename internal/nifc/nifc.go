// Package nifc fetches historic fire perimeters from the NIFC ArcGIS feature
// service.
package nifc

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wildfire-cli/internal/artifact"
	"github.com/sells-group/wildfire-cli/internal/fetcher"
	"github.com/sells-group/wildfire-cli/internal/pipeline"
	"github.com/sells-group/wildfire-cli/internal/source"
)

// RawFile is the name of the raw upstream payload in a unit directory.
const RawFile = "arcgis.json"

// OutFields are the attributes requested from the service.
var OutFields = []string{
	"uniquefireidentifier",
	"fireyear",
	"incidentname",
	"perimeterdatetime",
	"gisacres",
	"state",
	"latest",
}

// NeedsLatestOnly reports whether the layer for region/year must be limited
// to latest perimeters. The 2015 California layer is too large to page
// through otherwise.
func NeedsLatestOnly(region string, year int) bool {
	return strings.EqualFold(region, "CA") && year == 2015
}

// QueryURL builds the feature-service query for one region and season.
func QueryURL(baseURL, layerPrefix, region string, year int) string {
	where := "state = '" + strings.ToUpper(region) + "'"
	if NeedsLatestOnly(region, year) {
		where += " AND latest = 'Y'"
	}

	q := url.Values{}
	q.Set("where", where)
	q.Set("outFields", strings.Join(OutFields, ","))
	q.Set("orderByFields", "incidentname,perimeterdatetime")
	q.Set("outSR", "4326")
	q.Set("f", "json")

	return strings.TrimRight(baseURL, "/") + "/" + layerPrefix + strconv.Itoa(year) +
		"/FeatureServer/0/query?" + q.Encode()
}

var _ pipeline.Source = (*Source)(nil)

// Source implements pipeline.Source for the NIFC service.
type Source struct {
	fetch       fetcher.Fetcher
	baseURL     string
	layerPrefix string
}

// NewSource creates a NIFC source.
func NewSource(f fetcher.Fetcher, baseURL, layerPrefix string) *Source {
	return &Source{fetch: f, baseURL: baseURL, layerPrefix: layerPrefix}
}

// Name implements pipeline.Source.
func (s *Source) Name() string { return "nifc" }

// Fetch downloads the unit's query response into arcgis.json. An error
// document leaves any earlier payload in place.
func (s *Source) Fetch(ctx context.Context, unit pipeline.Unit) error {
	u := QueryURL(s.baseURL, s.layerPrefix, unit.Region, unit.Year)
	body, err := s.fetch.Download(ctx, u)
	if err != nil {
		return eris.Wrapf(err, "nifc: fetch %s %d", unit.Region, unit.Year)
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return eris.Wrapf(err, "nifc: read %s %d", unit.Region, unit.Year)
	}
	if err := source.CheckArcGIS(data); err != nil {
		return eris.Wrapf(err, "nifc: rejected response for %s %d", unit.Region, unit.Year)
	}
	if err := artifact.WriteFileAtomic(filepath.Join(unit.Dir, RawFile), data); err != nil {
		return eris.Wrap(err, "nifc: store raw payload")
	}

	zap.L().Debug("nifc: downloaded perimeters",
		zap.String("region", unit.Region),
		zap.Int("year", unit.Year),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Load parses the unit's arcgis.json.
func (s *Source) Load(_ context.Context, unit pipeline.Unit) (*source.Result, error) {
	data, err := os.ReadFile(filepath.Join(unit.Dir, RawFile))
	if err != nil {
		return nil, eris.Wrap(err, "nifc: read raw payload")
	}
	res, err := source.ParseArcGIS(data)
	if err != nil {
		return nil, eris.Wrapf(err, "nifc: parse %s %d", unit.Region, unit.Year)
	}
	return res, nil
}
