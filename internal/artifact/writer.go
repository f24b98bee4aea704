// Package artifact serializes perimeter collections into the files the map
// client loads and writes them atomically into a unit directory.
package artifact

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/wildfire-cli/internal/monitoring"
	"github.com/sells-group/wildfire-cli/internal/perimeter"
	"github.com/sells-group/wildfire-cli/internal/source"
	"github.com/sells-group/wildfire-cli/internal/summary"
)

// File is one artifact to write. Exactly one of Collection or Metadata is set.
type File struct {
	Name       string
	Collection *perimeter.Collection
	Metadata   *summary.Metadata
}

// CollectionFile wraps a collection artifact.
func CollectionFile(name string, c perimeter.Collection) File {
	return File{Name: name, Collection: &c}
}

// MetadataFileOf wraps the metadata artifact.
func MetadataFileOf(md summary.Metadata) File {
	return File{Name: MetadataFile, Metadata: &md}
}

func (f File) encode() ([]byte, int, error) {
	switch {
	case f.Collection != nil:
		data, err := Encode(*f.Collection)
		return data, f.Collection.ValidOnly().Len(), err
	case f.Metadata != nil:
		data, err := json.Marshal(f.Metadata)
		if err != nil {
			return nil, 0, eris.Wrap(err, "artifact: encode metadata")
		}
		return data, 0, nil
	default:
		return nil, 0, eris.Errorf("artifact: %s has no content", f.Name)
	}
}

// Writer persists artifact files.
type Writer struct {
	metrics *monitoring.Metrics
}

// NewWriter creates a writer. m may be nil.
func NewWriter(m *monitoring.Metrics) *Writer {
	return &Writer{metrics: m}
}

// WriteAll writes every file into dir concurrently and waits for all of them.
// Every failure is returned combined; files that were written are kept.
func (w *Writer) WriteAll(ctx context.Context, dir string, files []File) error {
	errs := make([]error, len(files))
	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			errs[i] = w.write(ctx, dir, f)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			w.metrics.WriteFailed()
		}
	}
	return multierr.Combine(errs...)
}

func (w *Writer) write(ctx context.Context, dir string, f File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	data, n, err := f.encode()
	if err != nil {
		return eris.Wrapf(err, "artifact: write %s", f.Name)
	}
	if err := WriteFileAtomic(filepath.Join(dir, f.Name), data); err != nil {
		return err
	}
	w.metrics.AddPerimeters(monitoring.StageWritten, n)
	zap.L().Debug("artifact: wrote file",
		zap.String("component", "artifact"),
		zap.String("file", filepath.Join(dir, f.Name)),
		zap.Int("features", n),
		zap.Int("bytes", len(data)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// WriteFileAtomic writes data to a temporary file beside path and renames it
// into place, so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "artifact: create temp for %s", path)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return eris.Wrapf(err, "artifact: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrapf(err, "artifact: close %s", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrapf(err, "artifact: rename %s", path)
	}
	return nil
}

// ReadCollection reads a polygon artifact back into a collection.
func ReadCollection(path string) (perimeter.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return perimeter.Collection{}, eris.Wrapf(err, "artifact: read %s", path)
	}
	res, err := source.ParseGeoJSONWith(data, source.NIFCSchema)
	if err != nil {
		return perimeter.Collection{}, eris.Wrapf(err, "artifact: parse %s", path)
	}
	return res.Collection, nil
}
