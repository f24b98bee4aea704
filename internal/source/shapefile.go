package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

// ReadShapefile decodes a polygon shapefile and its attribute table using the
// GeoMAC schema. The .dbf and .prj companions must sit beside the .shp.
func ReadShapefile(shpPath string) (*Result, error) {
	for _, ext := range []string{".dbf", ".prj"} {
		if _, ok := Companion(shpPath, ext); !ok {
			return nil, eris.Wrapf(ErrMissingCompanion, "source: %s has no %s", filepath.Base(shpPath), ext)
		}
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var (
		ps      []perimeter.Perimeter
		skipped int
	)
	for reader.Next() {
		_, shape := reader.Shape()

		attrs := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				attrs[name] = val
			}
		}

		p := GeoMACSchema.Normalize(attrs)
		if rings := polygonParts(shape); rings != nil {
			p.Geometry = fromEsriRings(rings)
		} else {
			skipped++
		}
		ps = append(ps, p)
	}

	if skipped > 0 {
		zap.L().Debug("source: shapefile records without polygon geometry",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return newResult(ps, false), nil
}

// Companion returns the path of the file sharing shpPath's base name with the
// given extension, matching the extension case-insensitively.
func Companion(shpPath, ext string) (string, bool) {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	for _, candidate := range []string{base + strings.ToLower(ext), base + strings.ToUpper(ext)} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// polygonParts splits a shapefile polygon into flat XY rings. Z and M
// variants are read as 2D. Other shape types yield nil.
func polygonParts(shape shp.Shape) [][]float64 {
	switch p := shape.(type) {
	case *shp.Polygon:
		return ringsFromParts(p.NumParts, p.Parts, p.Points)
	case *shp.PolygonZ:
		return ringsFromParts(p.NumParts, p.Parts, p.Points)
	case *shp.PolygonM:
		return ringsFromParts(p.NumParts, p.Parts, p.Points)
	default:
		return nil
	}
}

func ringsFromParts(numParts int32, parts []int32, points []shp.Point) [][]float64 {
	if numParts == 0 || len(points) == 0 || int(numParts) > len(parts) {
		return nil
	}
	rings := make([][]float64, 0, numParts)
	for i := int32(0); i < numParts; i++ {
		start := parts[i]
		end := int32(len(points))
		if i+1 < numParts {
			end = parts[i+1]
		}
		if start < 0 || start > end || end > int32(len(points)) {
			continue
		}
		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, points[j].X, points[j].Y)
		}
		rings = append(rings, flat)
	}
	return rings
}
