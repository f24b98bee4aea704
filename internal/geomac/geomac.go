// Package geomac scrapes the legacy GeoMAC perimeter archive, an HTML file
// index of per-fire shapefile bundles.
package geomac

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/wildfire-cli/internal/fetcher"
	"github.com/sells-group/wildfire-cli/internal/perimeter"
	"github.com/sells-group/wildfire-cli/internal/pipeline"
	"github.com/sells-group/wildfire-cli/internal/source"
)

// Skipped lists snapshots that are known to be unusable upstream.
var Skipped = map[string]string{
	"ca_brannan_20140605_1000_dd83":                "null geometry",
	"ca_gasquet_complex_divide_20150804_0956_dd83": "null geometry",
	"ca_gasquet_complex_divide_20150804_2137_dd83": "null geometry",
	"ca_cabin_20170811_0000_dd83":                  "null geometry",
	"ca_route_complex_20150813_2230_dd83":          "undecodable",
}

// StateNames maps region codes to the directory names used by the archive.
var StateNames = map[string]string{
	"AK": "Alaska", "AZ": "Arizona", "CA": "California", "CO": "Colorado",
	"ID": "Idaho", "MT": "Montana", "NM": "New_Mexico", "NV": "Nevada",
	"OR": "Oregon", "UT": "Utah", "WA": "Washington", "WY": "Wyoming",
}

var unsafeDirChars = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)

var _ pipeline.Source = (*Source)(nil)

// Source implements pipeline.Source for the GeoMAC archive.
type Source struct {
	fetch   fetcher.Fetcher
	baseURL string
}

// NewSource creates a GeoMAC source rooted at baseURL.
func NewSource(f fetcher.Fetcher, baseURL string) *Source {
	return &Source{fetch: f, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements pipeline.Source.
func (s *Source) Name() string { return "geomac" }

// IndexURL returns the region index for one season.
func (s *Source) IndexURL(unit pipeline.Unit) string {
	name := unit.RegionName
	if name == "" {
		name = StateNames[strings.ToUpper(unit.Region)]
	}
	if name == "" {
		name = unit.Region
	}
	return s.baseURL + "/" + strconv.Itoa(unit.Year) + "_fire_data/" + ArchiveDir(name) + "/"
}

// ArchiveDir formats a region display name the way the archive names its
// directories: title case with underscores, e.g. "new mexico" -> "New_Mexico".
func ArchiveDir(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	return strings.ReplaceAll(cases.Title(language.English).String(strings.Join(words, " ")), " ", "_")
}

// Fetch downloads every complete bundle of every fire into one
// sub-directory per fire. Components already on disk are not downloaded
// again. Per-fire failures are logged and skipped.
func (s *Source) Fetch(ctx context.Context, unit pipeline.Unit) error {
	log := zap.L().With(
		zap.String("component", "geomac"),
		zap.String("region", unit.Region),
		zap.Int("year", unit.Year),
	)

	indexURL := s.IndexURL(unit)
	links, err := s.links(ctx, indexURL)
	if err != nil {
		return eris.Wrapf(err, "geomac: fetch index %s", indexURL)
	}

	fires := FireLinks(links)
	log.Info("geomac: scraping fires", zap.Int("fires", len(fires)))

	for _, fire := range fires {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "geomac: fetch cancelled")
		}
		if err := s.fetchFire(ctx, unit, fire); err != nil {
			log.Warn("geomac: fire failed", zap.String("fire", fire.Text), zap.Error(err))
		}
	}
	return nil
}

func (s *Source) links(ctx context.Context, pageURL string) ([]Link, error) {
	body, err := s.fetch.Download(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck
	return ParseIndex(body, pageURL)
}

func (s *Source) fetchFire(ctx context.Context, unit pipeline.Unit, fire Link) error {
	dir := filepath.Join(unit.Dir, FireDir(fire.Text))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "geomac: create fire directory")
	}

	links, err := s.links(ctx, fire.URL)
	if err != nil {
		return err
	}

	for _, b := range Bundles(links) {
		if b.Zip != "" {
			if err := s.fetchZip(ctx, dir, b); err != nil {
				return err
			}
			continue
		}
		for _, ext := range ShapefileExts {
			dest := filepath.Join(dir, b.Name+ext)
			if _, err := os.Stat(dest); err == nil {
				continue
			}
			if _, err := s.fetch.DownloadToFile(ctx, b.Files[ext], dest); err != nil {
				return eris.Wrapf(err, "geomac: download %s%s", b.Name, ext)
			}
		}
	}
	return nil
}

func (s *Source) fetchZip(ctx context.Context, dir string, b Bundle) error {
	if _, ok := source.Companion(filepath.Join(dir, b.Name+".shp"), ".prj"); ok {
		return nil
	}
	archive := filepath.Join(dir, b.Name+".zip")
	if _, err := s.fetch.DownloadToFile(ctx, b.Zip, archive); err != nil {
		return eris.Wrapf(err, "geomac: download %s.zip", b.Name)
	}
	defer os.Remove(archive) //nolint:errcheck

	if _, err := fetcher.ExtractBundle(archive, dir, ".shp", ".dbf", ".prj", ".shx"); err != nil {
		return eris.Wrapf(err, "geomac: extract %s.zip", b.Name)
	}
	return nil
}

// FireDir turns an index link label into a safe directory name.
func FireDir(label string) string {
	name := strings.TrimSpace(strings.Trim(label, "/"))
	name = unsafeDirChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// Load decodes every snapshot under the unit directory: shapefiles, or
// GeoJSON conversions of them. Fire directories
// and snapshots are read in name order; the last snapshot of each fire is
// flagged as its final perimeter. Unreadable snapshots are logged and
// skipped.
func (s *Source) Load(_ context.Context, unit pipeline.Unit) (*source.Result, error) {
	log := zap.L().With(
		zap.String("component", "geomac"),
		zap.String("region", unit.Region),
		zap.Int("year", unit.Year),
	)

	entries, err := os.ReadDir(unit.Dir)
	if err != nil {
		return nil, eris.Wrap(err, "geomac: read unit directory")
	}

	out := &source.Result{Collection: perimeter.Collection{Format: perimeter.FormatPolygon}}
	var fires int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		paths := snapshotPaths(filepath.Join(unit.Dir, e.Name()))
		if len(paths) == 0 {
			continue
		}

		var snapshots []*source.Result
		for _, path := range paths {
			stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if reason, skip := Skipped[stem]; skip {
				log.Warn("geomac: skipping known-bad snapshot", zap.String("file", stem), zap.String("reason", reason))
				continue
			}
			res, err := readSnapshot(path)
			if err != nil {
				log.Warn("geomac: unreadable snapshot", zap.String("file", stem), zap.Error(err))
				continue
			}
			snapshots = append(snapshots, res)
		}
		if len(snapshots) == 0 {
			continue
		}
		fires++

		for i, res := range snapshots {
			final := i == len(snapshots)-1
			for _, p := range res.Collection.Perimeters {
				p.IsLatest = final
				if p.Region == "" {
					p.Region = unit.Region
				}
				if p.Year == 0 {
					p.Year = unit.Year
				}
				if !p.Valid(perimeter.FormatPolygon) {
					out.Invalid++
				}
				out.Collection.Perimeters = append(out.Collection.Perimeters, p)
			}
		}
	}

	if fires == 0 {
		return nil, eris.Errorf("geomac: no snapshots under %s", unit.Dir)
	}
	return out, nil
}

// snapshotPaths lists a fire directory's snapshots in name order. A GeoJSON
// snapshot is used only when no shapefile shares its stem.
func snapshotPaths(dir string) []string {
	shps, _ := filepath.Glob(filepath.Join(dir, "*.shp"))
	jsons, _ := filepath.Glob(filepath.Join(dir, "*.geojson"))

	stems := make(map[string]bool, len(shps))
	for _, p := range shps {
		stems[strings.TrimSuffix(p, filepath.Ext(p))] = true
	}
	paths := shps
	for _, p := range jsons {
		if !stems[strings.TrimSuffix(p, filepath.Ext(p))] {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func readSnapshot(path string) (*source.Result, error) {
	if !strings.EqualFold(filepath.Ext(path), ".geojson") {
		return source.ReadShapefile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "geomac: read geojson snapshot")
	}
	return source.ParseGeoJSON(data)
}
