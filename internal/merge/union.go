package merge

import (
	sfgeom "github.com/peterstace/simplefeatures/geom"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

// Union returns the geometric union of two areal geometries with RFC 7946
// winding. A nil side yields a copy of the other. When the overlay engine
// rejects the input topology the parts are collected into a MultiPolygon
// instead.
func Union(a, b geom.T) (geom.T, error) {
	pa, pb := perimeter.Polygons(a), perimeter.Polygons(b)
	switch {
	case len(pa) == 0:
		return perimeter.Orient(b), nil
	case len(pb) == 0:
		return perimeter.Orient(a), nil
	}

	u, err := overlay(a, b)
	if err == nil {
		return u, nil
	}

	zap.L().Debug("merge: overlay failed, collecting parts", zap.Error(err))
	return perimeter.Orient(perimeter.FromPolygons(append(pa, pb...))), nil
}

func overlay(a, b geom.T) (geom.T, error) {
	sa, err := toSimple(a)
	if err != nil {
		return nil, err
	}
	sb, err := toSimple(b)
	if err != nil {
		return nil, err
	}
	u, err := sfgeom.Union(sa, sb)
	if err != nil {
		return nil, eris.Wrap(err, "merge: union")
	}
	return fromSimple(u)
}

func toSimple(g geom.T) (sfgeom.Geometry, error) {
	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return sfgeom.Geometry{}, eris.Wrap(err, "merge: encode wkb")
	}
	sg, err := sfgeom.UnmarshalWKB(data)
	if err != nil {
		return sfgeom.Geometry{}, eris.Wrap(err, "merge: decode wkb for overlay")
	}
	return sg, nil
}

func fromSimple(sg sfgeom.Geometry) (geom.T, error) {
	g, err := wkb.Unmarshal(sg.AsBinary())
	if err != nil {
		return nil, eris.Wrap(err, "merge: decode overlay result")
	}
	if gc, ok := g.(*geom.GeometryCollection); ok {
		var polys []*geom.Polygon
		for _, part := range gc.Geoms() {
			polys = append(polys, perimeter.Polygons(part)...)
		}
		return perimeter.Orient(perimeter.FromPolygons(polys)), nil
	}
	return perimeter.Orient(g), nil
}
