// Package shptest writes GeoMAC-style shapefile bundles for tests.
package shptest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

// Fire is one polygon record. Ring is a closed, clockwise outer ring.
type Fire struct {
	Name  string
	Date  string // YYYYMMDD
	Acres float64
	Ring  []shp.Point
}

// Square returns a clockwise unit-degree ring with its south-west corner at
// (x, y).
func Square(x, y float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x, Y: y + 1}, {X: x + 1, Y: y + 1}, {X: x + 1, Y: y}, {X: x, Y: y}}
}

// Write creates dir/stem.{shp,shx,dbf} holding fires, plus a .prj when
// withPrj is set, and returns the .shp path.
func Write(t testing.TB, dir, stem string, withPrj bool, fires ...Fire) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	base := filepath.Join(dir, stem)

	w, err := shp.Create(base+".shp", shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("FIRE_NAME", 40),
		shp.StringField("DATE_", 8),
		shp.FloatField("ACRES", 12, 2),
	}))
	for _, f := range fires {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{f.Ring}))
		row := int(w.Write(&poly))
		require.NoError(t, w.WriteAttribute(row, 0, f.Name))
		require.NoError(t, w.WriteAttribute(row, 1, f.Date))
		require.NoError(t, w.WriteAttribute(row, 2, f.Acres))
	}
	w.Close()

	// go-shp v0.1.1 names the attribute table "<stem>dbf".
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}

	if withPrj {
		require.NoError(t, os.WriteFile(base+".prj", []byte(`GEOGCS["GCS_North_American_1983"]`), 0o644))
	}
	return base + ".shp"
}
