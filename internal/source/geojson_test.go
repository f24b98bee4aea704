package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

func TestParseGeoJSON(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"uniquefireidentifier":"A1","incidentname":"Alpha","gisacres":"200","latest":"N","perimeterdatetime":1577836800000},
	   "geometry":{"type":"Polygon","coordinates":[[[0,0,5],[0,1,5],[1,1,5],[1,0,5],[0,0,5]]]}},
	  {"type":"Feature","properties":{"incidentname":"Line"},
	   "geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}},
	  {"type":"Feature","properties":{"incidentname":"Empty"},"geometry":null}
	]}`

	res, err := ParseGeoJSON([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, 3, res.Collection.Len())
	assert.Equal(t, 2, res.Invalid)

	first := res.Collection.Perimeters[0]
	assert.Equal(t, "A1-Alpha", first.ID())
	assert.InDelta(t, 200, first.Acres, 1e-9)
	assert.False(t, first.IsLatest)

	poly, ok := first.Geometry.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, geom.XY, poly.Layout())
	assert.True(t, xy.IsRingCounterClockwise(geom.XY, poly.LinearRing(0).FlatCoords()))

	assert.Nil(t, res.Collection.Perimeters[1].Geometry)
	assert.Nil(t, res.Collection.Perimeters[2].Geometry)
}

func TestParseGeoJSON_NotACollection(t *testing.T) {
	_, err := ParseGeoJSON([]byte(`{"type":"Feature","properties":{},"geometry":null}`))
	require.Error(t, err)
}
