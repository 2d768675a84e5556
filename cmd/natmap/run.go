package main

import (
	"time"

	"github.com/LdDl/natmap"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runStates []string
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build national datasets from state deliveries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(runStates) > 0 {
			cfg.Outputs.States = runStates
		}
		runID := uuid.New().String()
		options, err := cfg.PipelineOptions(runID)
		if err != nil {
			return err
		}

		ws, err := openWorkspace(ctx, cfg, runDryRun)
		if err != nil {
			return err
		}
		defer ws.Close()

		st := time.Now()
		pipeline := natmap.NewPipeline(openSource(cfg), ws, options)
		report, runErr := pipeline.Run(ctx)

		if cfg.Metrics.Textfile != "" {
			if err := pipeline.Metrics().WriteTextfile(cfg.Metrics.Textfile); err != nil {
				zap.L().Warn("Can't write metrics", zap.Error(err))
			}
		}
		if runErr != nil {
			return errors.Wrap(runErr, "run pipeline")
		}

		zap.L().Info("Run finished",
			zap.String("run_id", report.RunID),
			zap.Strings("states", report.States),
			zap.Strings("failed_states", report.FailedStates),
			zap.Int("streets", report.Streets),
			zap.Int("nodes", report.Nodes),
			zap.Int("turns", report.Turns),
			zap.Int("signposts", report.Signposts),
			zap.Int("signpost_records", report.SignpostRecords),
			zap.Int("skipped_signposts", report.SkippedSignposts),
			zap.Int("crossings", report.Crossings),
			zap.Int("landmarks", report.Landmarks),
			zap.Int("junctions", report.Junctions),
			zap.Int("locator_records", report.LocatorRecords),
			zap.String("package", report.PackageFile),
			zap.Duration("elapsed", time.Since(st)),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringSliceVar(&runStates, "states", nil, "states to process (overrides outputs.states), e.g. NY,NJ or ALL")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "keep datasets in memory instead of configured workspace")
}
