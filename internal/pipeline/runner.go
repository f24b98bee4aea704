package pipeline

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wildfire-cli/internal/artifact"
	"github.com/sells-group/wildfire-cli/internal/monitoring"
	"github.com/sells-group/wildfire-cli/internal/perimeter"
	"github.com/sells-group/wildfire-cli/internal/source"
)

// ErrFatal marks failures that abort a unit before any work is attempted,
// such as an unusable output directory.
var ErrFatal = eris.New("pipeline: fatal")

// FatalError wraps an error so that errors.Is(err, ErrFatal) holds.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *FatalError) Unwrap() error { return e.Err }

// Is reports whether target is ErrFatal.
func (e *FatalError) Is(target error) bool { return target == ErrFatal }

// Source fetches and decodes one upstream provider's perimeters.
type Source interface {
	Name() string
	// Fetch writes the unit's raw payload into unit.Dir.
	Fetch(ctx context.Context, unit Unit) error
	// Load decodes the raw payload found in unit.Dir.
	Load(ctx context.Context, unit Unit) (*source.Result, error)
}

// Writer persists a unit's artifacts.
type Writer interface {
	WriteAll(ctx context.Context, dir string, files []artifact.File) error
}

var _ Writer = (*artifact.Writer)(nil)

// Result summarizes a batch run.
type Result struct {
	RunID     string
	Succeeded int
	Failed    int
	Fatal     int
	Skipped   int // units not started because the context ended
	Errors    []error
}

// Runner processes units one at a time.
type Runner struct {
	Source    Source
	Writer    Writer
	Tiers     []perimeter.Tier
	Reprocess bool // skip Fetch and rebuild from payloads already on disk
	Clock     clockwork.Clock
	Metrics   *monitoring.Metrics
}

func (r *Runner) clock() clockwork.Clock {
	if r.Clock == nil {
		return clockwork.NewRealClock()
	}
	return r.Clock
}

// Run processes units serially. A failed unit is logged and the run moves on
// to the next one; no new unit starts once ctx is done.
func (r *Runner) Run(ctx context.Context, units []Unit) Result {
	res := Result{RunID: uuid.New().String()}
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("run_id", res.RunID),
		zap.String("source", r.Source.Name()),
	)
	log.Info("pipeline: run starting", zap.Int("units", len(units)), zap.Bool("reprocess", r.Reprocess))

	for i, u := range units {
		if ctx.Err() != nil {
			res.Skipped = len(units) - i
			log.Warn("pipeline: run interrupted", zap.Int("skipped_units", res.Skipped), zap.Error(ctx.Err()))
			break
		}

		start := r.clock().Now()
		err := r.RunUnit(ctx, u)
		elapsed := r.clock().Since(start)

		ulog := log.With(
			zap.String("region", u.Region),
			zap.Int("year", u.Year),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
		)
		switch {
		case err == nil:
			res.Succeeded++
			r.Metrics.UnitFinished(monitoring.OutcomeSucceeded, elapsed)
			ulog.Info("pipeline: unit complete")
		case errors.Is(err, ErrFatal):
			res.Fatal++
			res.Errors = append(res.Errors, err)
			r.Metrics.UnitFinished(monitoring.OutcomeFatal, elapsed)
			ulog.Error("pipeline: unit aborted", zap.Error(err))
		default:
			res.Failed++
			res.Errors = append(res.Errors, err)
			r.Metrics.UnitFinished(monitoring.OutcomeFailed, elapsed)
			ulog.Error("pipeline: unit failed", zap.Error(err))
		}
	}

	r.Metrics.RunFinished(r.clock().Now())
	log.Info("pipeline: run complete",
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
		zap.Int("fatal", res.Fatal),
	)
	return res
}

// RunUnit fetches, processes and writes one unit. A fetch failure is logged
// and processing continues with whatever payload is on disk.
func (r *Runner) RunUnit(ctx context.Context, u Unit) error {
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("source", r.Source.Name()),
		zap.String("region", u.Region),
		zap.Int("year", u.Year),
	)

	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return &FatalError{Err: eris.Wrapf(err, "pipeline: create unit directory %s", u.Dir)}
	}

	stage := func(name string, fn func() error) error {
		start := r.clock().Now()
		err := fn()
		d := r.clock().Since(start)
		if err != nil {
			log.Warn("pipeline: stage failed", zap.String("stage", name), zap.Int64("duration_ms", d.Milliseconds()), zap.Error(err))
			return err
		}
		log.Debug("pipeline: stage complete", zap.String("stage", name), zap.Int64("duration_ms", d.Milliseconds()))
		return nil
	}

	if !r.Reprocess {
		// A failed fetch falls back to the payload already on disk.
		_ = stage("fetch", func() error { return r.Source.Fetch(ctx, u) })
	}

	var loaded *source.Result
	if err := stage("load", func() error {
		var err error
		loaded, err = r.Source.Load(ctx, u)
		return err
	}); err != nil {
		return eris.Wrapf(err, "pipeline: load %s %d", u.Region, u.Year)
	}

	r.Metrics.AddPerimeters(monitoring.StageLoaded, loaded.Collection.Len())
	r.Metrics.AddPerimeters(monitoring.StageInvalid, loaded.Invalid)
	if loaded.Truncated {
		r.Metrics.UpstreamTruncated()
		log.Warn("pipeline: upstream response truncated; some perimeters are missing",
			zap.Int("received", loaded.Collection.Len()))
	}

	var out *Output
	if err := stage("process", func() error {
		var err error
		out, err = Process(loaded.Collection, r.Tiers)
		return err
	}); err != nil {
		return eris.Wrapf(err, "pipeline: process %s %d", u.Region, u.Year)
	}

	if err := stage("write", func() error {
		return r.Writer.WriteAll(ctx, u.Dir, out.Files())
	}); err != nil {
		return eris.Wrapf(err, "pipeline: write %s %d", u.Region, u.Year)
	}

	log.Debug("pipeline: unit summary",
		zap.Int("raw", out.Raw.Len()),
		zap.Int("invalid", loaded.Invalid),
		zap.Int("tiers", len(out.Tiers)),
	)
	return nil
}
