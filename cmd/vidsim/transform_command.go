package main

import (
	"fmt"

	"github.com/spf13/cobra"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/reporter"
	"github.com/five82/vidsim/internal/util"
)

func newTransformCommand(ctx *commandContext) *cobra.Command {
	var o transformOverrides

	cmd := &cobra.Command{
		Use:   "transform [file|dir ...]",
		Short: "Re-encode videos with small randomized changes",
		Long: `Re-encode videos with a random crop, brightness, saturation and speed change,
an optional mirror, and an optional background audio mix. Without arguments the
configured incoming directory is processed. Outputs get random names in the
ready directory and inputs are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.start(cmd, "transform")
			if err != nil {
				return err
			}
			defer s.close()

			store, err := openHistory(s.cfg)
			if err != nil {
				s.logger.Warn("History unavailable, post-encode scores will not be recorded", "error", err)
				store = nil
			} else {
				defer func() { _ = store.Close() }()
			}
			t := newTransformer(s.cfg, o, s.rep, s.logger, store)

			targets := args
			if len(targets) == 0 {
				targets = []string{s.cfg.Paths.IncomingDir}
			}

			var failed int
			for _, target := range targets {
				if util.DirectoryExists(target) {
					s.runLog.Info("Transforming directory %s", target)
					res, err := t.Batch(cmd.Context(), target)
					if err != nil {
						return err
					}
					for file, ferr := range res.Failures {
						s.runLog.Error("%s: %v", file, ferr)
					}
					failed += len(res.Failures)
					continue
				}

				s.runLog.Info("Transforming %s", target)
				outcome, err := t.Process(cmd.Context(), target)
				if err != nil {
					s.runLog.Error("%s: %v", target, err)
					s.rep.Error(reporter.ReporterError{
						Title:   "Transform failed",
						Message: err.Error(),
						Context: target,
					})
					failed++
					continue
				}
				s.runLog.Info("Wrote %s (%s)", outcome.Output, util.FormatBytes(outcome.OutputSize))
			}

			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if failed > 0 {
				return vserrors.NewOperationFailedError(fmt.Sprintf("%d file(s) failed to transform", failed), nil)
			}
			s.rep.OperationComplete("Transform complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&o.outputDir, "output", "o", "", "Output directory (defaults to paths.ready_dir)")
	cmd.Flags().IntVar(&o.workers, "workers", 0, fmt.Sprintf("Concurrent encodes (default from config, suggested %d)", util.DefaultWorkers()))
	cmd.Flags().BoolVar(&o.noCompare, "no-compare", false, "Skip the post-encode SSIM comparison")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "Random seed for reproducible parameters (0 picks one)")
	cmd.Flags().StringVar(&o.background, "background", "", "Background audio file (defaults to paths.background_audio)")
	return cmd
}
