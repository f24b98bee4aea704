package geomac

import (
	"path"
	"slices"
	"strings"
)

// ShapefileExts are the files that make up a usable perimeter bundle.
var ShapefileExts = []string{".shp", ".dbf", ".prj"}

// Bundle is one perimeter snapshot offered on a fire page, either as a zip
// archive or as loose shapefile components.
type Bundle struct {
	Name string
	// Zip is set when the snapshot is offered as an archive.
	Zip string
	// Files maps a lower-case extension to its URL for loose components.
	Files map[string]string
}

// Bundles groups a fire page's links into complete perimeter bundles. Loose
// shapefiles missing any of ShapefileExts are dropped. A zip is preferred
// over loose files of the same name.
func Bundles(links []Link) []Bundle {
	loose := make(map[string]map[string]string)
	zips := make(map[string]string)
	var order []string
	seen := make(map[string]bool)

	for _, l := range links {
		name := path.Base(strings.TrimRight(l.Text, "/"))
		ext := strings.ToLower(path.Ext(name))
		stem := strings.TrimSuffix(name, path.Ext(name))
		if stem == "" {
			continue
		}
		switch {
		case ext == ".zip":
			zips[stem] = l.URL
		case slices.Contains(ShapefileExts, ext):
			if loose[stem] == nil {
				loose[stem] = make(map[string]string)
			}
			loose[stem][ext] = l.URL
		default:
			continue
		}
		if !seen[stem] {
			seen[stem] = true
			order = append(order, stem)
		}
	}

	var out []Bundle
	for _, stem := range order {
		if z, ok := zips[stem]; ok {
			out = append(out, Bundle{Name: stem, Zip: z})
			continue
		}
		files := loose[stem]
		complete := true
		for _, ext := range ShapefileExts {
			if _, ok := files[ext]; !ok {
				complete = false
				break
			}
		}
		if complete {
			out = append(out, Bundle{Name: stem, Files: files})
		}
	}
	return out
}
