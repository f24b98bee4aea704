package simplify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

func square(x, y, size float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		x, y, x + size, y, x + size, y + size, x, y + size, x, y,
	}, []int{10})
}

// circle returns a counter-clockwise ring of n vertices plus closure.
func circle(cx, cy, r float64, n int) []float64 {
	flat := make([]float64, 0, (n+1)*2)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		flat = append(flat, cx+r*math.Cos(a), cy+r*math.Sin(a))
	}
	return append(flat, flat[0], flat[1])
}

func fire(name string, acres float64) perimeter.Perimeter {
	return perimeter.Perimeter{RawID: "id", Name: name, Acres: acres, Geometry: square(0, 0, 1)}
}

func names(c perimeter.Collection) []string {
	out := make([]string, 0, c.Len())
	for _, p := range c.Perimeters {
		out = append(out, p.Name)
	}
	return out
}

func TestFilter_StrictThreshold(t *testing.T) {
	c := perimeter.Collection{Perimeters: []perimeter.Perimeter{
		fire("at-high", 100),
		fire("above-high", 100.01),
		fire("at-low", 5000),
		fire("above-low", 5000.01),
		fire("nan", math.NaN()),
		{Name: "no-geometry", Acres: 9999},
	}}

	assert.Equal(t, []string{"above-high", "at-low", "above-low"}, names(Filter(c, perimeter.DefaultHigh().MinAcres)))
	assert.Equal(t, []string{"above-low"}, names(Filter(c, perimeter.DefaultLow().MinAcres)))
}

func TestSimplify_ReducesVertices(t *testing.T) {
	ring := circle(-120, 38, 0.5, 360)
	poly := geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)})
	c := perimeter.Collection{Perimeters: []perimeter.Perimeter{{Name: "Round", Acres: 500, Geometry: poly}}}

	out := Simplify(c, 0.01)
	got, ok := out.Perimeters[0].Geometry.(*geom.Polygon)
	require.True(t, ok)

	flat := got.LinearRing(0).FlatCoords()
	n := len(flat) / 2
	assert.Less(t, n, 361)
	assert.GreaterOrEqual(t, n, 4)
	assert.Equal(t, flat[0], flat[len(flat)-2], "ring must stay closed")
	assert.Equal(t, flat[1], flat[len(flat)-1], "ring must stay closed")
	assert.True(t, xy.IsRingCounterClockwise(geom.XY, flat))
	assert.InDelta(t, poly.Area(), got.Area(), poly.Area()*0.05)

	// Input untouched.
	assert.Len(t, poly.FlatCoords(), len(ring))
}

func TestSimplify_CollapsedShellKeepsOriginal(t *testing.T) {
	tiny := square(-120, 38, 0.0001)
	c := perimeter.Collection{Perimeters: []perimeter.Perimeter{{Name: "Spot", Acres: 150, Geometry: tiny}}}

	out := Simplify(c, 1)
	got, ok := out.Perimeters[0].Geometry.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, tiny.FlatCoords(), got.FlatCoords())
}

func TestSimplify_CollapsedHoleDropped(t *testing.T) {
	poly := geom.NewPolygonFlat(geom.XY, []float64{
		0, 0, 1, 0, 1, 1, 0, 1, 0, 0,
		0.5, 0.5, 0.5, 0.5001, 0.5001, 0.5001, 0.5001, 0.5, 0.5, 0.5,
	}, []int{10, 20})
	c := perimeter.Collection{Perimeters: []perimeter.Perimeter{{Name: "Holey", Acres: 150, Geometry: poly}}}

	got, ok := Simplify(c, 0.01).Perimeters[0].Geometry.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 1, got.NumLinearRings())
}

func TestSimplify_MultiPolygon(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(square(0, 0, 1)))
	require.NoError(t, mp.Push(square(5, 5, 1)))
	c := perimeter.Collection{Perimeters: []perimeter.Perimeter{{Name: "Twin", Acres: 150, Geometry: mp}}}

	got, ok := Simplify(c, 0.001).Perimeters[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, got.NumPolygons())
	assert.InDelta(t, 2, got.Area(), 1e-9)
}

func TestSimplify_HexUnchanged(t *testing.T) {
	c := perimeter.Collection{Format: perimeter.FormatHex, Perimeters: []perimeter.Perimeter{
		{Name: "Hex", Acres: 150, Cells: []string{"882830829bfffff"}},
	}}
	out := Simplify(c, 0.5)
	assert.Equal(t, perimeter.FormatHex, out.Format)
	assert.Equal(t, []string{"882830829bfffff"}, out.Perimeters[0].Cells)
}

func TestApply_TiersIndependent(t *testing.T) {
	ring := circle(-120, 38, 0.5, 720)
	raw := perimeter.Collection{Perimeters: []perimeter.Perimeter{
		{Name: "Big", Acres: 6000, Geometry: geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)})},
		{Name: "Small", Acres: 100, Geometry: square(0, 0, 1)},
	}}

	high := Apply(raw, perimeter.DefaultHigh())
	low := Apply(raw, perimeter.DefaultLow())

	assert.Equal(t, []string{"Big"}, names(high))
	assert.Equal(t, []string{"Big"}, names(low))

	highVerts := len(high.Perimeters[0].Geometry.(*geom.Polygon).FlatCoords())
	lowVerts := len(low.Perimeters[0].Geometry.(*geom.Polygon).FlatCoords())
	assert.Less(t, lowVerts, highVerts)
	assert.Len(t, raw.Perimeters[0].Geometry.(*geom.Polygon).FlatCoords(), len(ring))
}
