package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/wildfire-cli/internal/artifact"
	"github.com/sells-group/wildfire-cli/internal/config"
	"github.com/sells-group/wildfire-cli/internal/geomac"
	"github.com/sells-group/wildfire-cli/internal/monitoring"
	"github.com/sells-group/wildfire-cli/internal/nifc"
	"github.com/sells-group/wildfire-cli/internal/perimeter"
	"github.com/sells-group/wildfire-cli/internal/pipeline"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"fetch", "metadata"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "wildfire-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("metrics-file"))
}

func TestFetchCommand_Flags(t *testing.T) {
	for _, name := range []string{"year", "region", "config", "dest", "source", "reprocess"} {
		require.NotNil(t, fetchCmd.Flags().Lookup(name), "fetch command should have --%s flag", name)
	}
	assert.Equal(t, "false", fetchCmd.Flags().Lookup("reprocess").DefValue)
}

func TestMetadataCommand_Flags(t *testing.T) {
	for _, name := range []string{"year", "region", "config", "dest"} {
		require.NotNil(t, metadataCmd.Flags().Lookup(name), "metadata command should have --%s flag", name)
	}
}

func TestUnitFlags_Single(t *testing.T) {
	f := unitFlags{year: 2018, region: "ca"}
	units, err := f.units("static/data/fires")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "CA", units[0].Region)
	assert.Equal(t, filepath.Join("static/data/fires", "2018", "CA"), units[0].Dir)
}

func TestUnitFlags_DestOverride(t *testing.T) {
	f := unitFlags{year: 2018, region: "NV", dest: "out"}
	units, err := f.units("static/data/fires")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "2018", "NV"), units[0].Dir)
}

func TestUnitFlags_RegionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"states":[{"code":"CA","name":"California","years":[2010,2011]}]}`), 0o644))

	f := unitFlags{regions: path, dest: "out"}
	units, err := f.units("")
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, 2010, units[0].Year)
	assert.Equal(t, 2011, units[1].Year)
	assert.Equal(t, "California", units[0].RegionName)
}

func TestUnitFlags_Missing(t *testing.T) {
	f := unitFlags{region: "CA"}
	_, err := f.units("dest")
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	fc := config.FetchConfig{NIFCBaseURL: "http://nifc", GeoMACBaseURL: "http://geomac", TimeoutSecs: 5}

	src, err := newSource("nifc", fc)
	require.NoError(t, err)
	assert.IsType(t, &nifc.Source{}, src)

	src, err = newSource("geomac", fc)
	require.NoError(t, err)
	assert.IsType(t, &geomac.Source{}, src)

	_, err = newSource("inciweb", fc)
	assert.Error(t, err)
}

func TestRunFetch_SingleUnitFatal(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	src, err := newSource("nifc", config.FetchConfig{NIFCBaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	m := monitoring.NewMetrics()
	runner := &pipeline.Runner{
		Source:  src,
		Writer:  artifact.NewWriter(m),
		Tiers:   []perimeter.Tier{perimeter.DefaultHigh()},
		Clock:   clockwork.NewFakeClock(),
		Metrics: m,
	}
	units := []pipeline.Unit{{Region: "CA", Year: 2020, Dir: filepath.Join(blocker, "2020", "CA")}}

	err = runFetch(context.Background(), runner, units, m)
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrFatal)

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.UnitsFatal)
}

func TestRebuildMetadata(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2020", "CA")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	d := time.Date(2020, time.August, 20, 0, 0, 0, 0, time.UTC)
	c := perimeter.Collection{Format: perimeter.FormatPolygon, Perimeters: []perimeter.Perimeter{{
		RawID: "1", Name: "LNU Lightning", Date: &d, Acres: 363220.7, IsLatest: true, Region: "CA", Year: 2020,
		Geometry: geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{{-122, 38}, {-121, 38}, {-121, 39}, {-122, 39}, {-122, 38}}}),
	}}}
	data, err := artifact.EncodePolygons(c)
	require.NoError(t, err)
	require.NoError(t, artifact.WriteFileAtomic(filepath.Join(dir, "allPerimeters.geojson"), data))

	units := []pipeline.Unit{
		{Region: "CA", Year: 2020, Dir: dir},
		{Region: "CA", Year: 2021, Dir: filepath.Join(t.TempDir(), "missing")},
	}
	failed := rebuildMetadata(context.Background(), artifact.NewWriter(nil), units)
	assert.Equal(t, 1, failed)

	md, err := os.ReadFile(filepath.Join(dir, artifact.MetadataFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"acresPerMonth":[0,0,0,0,0,0,0,363220,0,0,0,0]}`, string(md))
}
