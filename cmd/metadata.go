package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wildfire-cli/internal/artifact"
	"github.com/sells-group/wildfire-cli/internal/perimeter"
	"github.com/sells-group/wildfire-cli/internal/pipeline"
	"github.com/sells-group/wildfire-cli/internal/summary"
)

var metadataUnits unitFlags

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Recompute metadata.json from existing artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		units, err := metadataUnits.units(cfg.Output.Dest)
		if err != nil {
			return err
		}
		failed := rebuildMetadata(ctx, artifact.NewWriter(nil), units)
		if len(units) == 1 && failed == 1 {
			return eris.New("metadata: unit failed")
		}
		return nil
	},
}

func init() {
	metadataUnits.register(metadataCmd)
	rootCmd.AddCommand(metadataCmd)
}

// rebuildMetadata rewrites metadata.json for each unit from its high-tier
// allPerimeters file and returns how many units failed.
func rebuildMetadata(ctx context.Context, w *artifact.Writer, units []pipeline.Unit) int {
	src := artifact.AllFile(perimeter.DefaultHigh())
	var failed int
	for _, u := range units {
		if ctx.Err() != nil {
			break
		}
		log := zap.L().With(zap.String("region", u.Region), zap.Int("year", u.Year))

		c, err := artifact.ReadCollection(filepath.Join(u.Dir, src))
		if err == nil {
			err = w.WriteAll(ctx, u.Dir, []artifact.File{artifact.MetadataFileOf(summary.Build(c))})
		}
		if err != nil {
			failed++
			log.Error("metadata: unit failed", zap.Error(err))
			continue
		}
		log.Info("metadata: written", zap.String("dir", u.Dir))
	}
	return failed
}
