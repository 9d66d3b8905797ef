package main

import (
	"fmt"

	"github.com/spf13/cobra"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/ffprobe"
	"github.com/five82/vidsim/internal/history"
	"github.com/five82/vidsim/internal/reporter"
	"github.com/five82/vidsim/internal/similarity"
	"github.com/five82/vidsim/internal/util"
)

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var width, height int
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "compare <reference> <distorted>",
		Short: "Score how similar two videos look",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.start(cmd, "compare")
			if err != nil {
				return err
			}
			defer s.close()

			cfg := *s.cfg
			if cmd.Flags().Changed("width") {
				cfg.Compare.Width = width
			}
			if cmd.Flags().Changed("height") {
				cfg.Compare.Height = height
			}
			geometry := similarity.Geometry{Width: cfg.Compare.Width, Height: cfg.Compare.Height}
			if err := geometry.Validate(); err != nil {
				return err
			}
			reference, distorted := args[0], args[1]
			runCtx := cmd.Context()

			prober := ffprobe.NewProber(cfg.FFprobeBinary())
			for _, p := range args {
				if !util.IsVideoFile(p) {
					s.rep.Warning(fmt.Sprintf("%s does not have a known video extension", p))
				}
				info, err := prober.Probe(runCtx, p)
				if err != nil {
					s.rep.Error(reporter.ReporterError{
						Title:      "Unreadable input",
						Message:    err.Error(),
						Context:    p,
						Suggestion: "Check that the file is a playable video",
					})
					return err
				}
				s.runLog.Info("Input %s: %dx%d, %.1fs, audio=%v", p, info.Width, info.Height, info.Duration, info.HasAudio)
			}

			classifier := newClassifier(&cfg, s.logger)
			s.rep.ComparisonStarted(reporter.ComparisonInfo{
				Reference: reference,
				Distorted: distorted,
				Geometry:  classifier.Geometry().String(),
			})
			s.runLog.Info("Comparing %s against %s at %s", distorted, reference, classifier.Geometry())

			res, cmpErr := classifier.Compare(runCtx, reference, distorted)
			if !noHistory {
				recordComparison(cmd, s, reference, distorted, res, cmpErr)
			}

			if cmpErr != nil {
				s.runLog.Error("Comparison failed: %v", cmpErr)
				s.rep.ComparisonFailed(reporter.ComparisonFailure{
					Reference:     reference,
					Distorted:     distorted,
					Reason:        cmpErr.Error(),
					ScoreNotFound: vserrors.IsScoreNotFound(cmpErr),
				})
				return cmpErr
			}

			s.runLog.Info("SSIM %.6f (%s) in %s", float64(res.Score), res.Rating, util.FormatElapsed(res.Elapsed))
			s.rep.ComparisonComplete(reporter.ComparisonSummary{
				Reference: reference,
				Distorted: distorted,
				Score:     float64(res.Score),
				Rating:    res.Rating.Label(),
				Elapsed:   res.Elapsed,
			})
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "Normalization width (defaults to compare.width)")
	cmd.Flags().IntVar(&height, "height", 0, "Normalization height (defaults to compare.height)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the result in the history database")
	return cmd
}

func recordComparison(cmd *cobra.Command, s *runSession, reference, distorted string, res similarity.Result, cmpErr error) {
	store, err := openHistory(s.cfg)
	if err != nil {
		s.logger.Warn("History unavailable", "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	entry := history.Entry{Source: history.SourceCLI, Reference: reference, Distorted: distorted}
	if cmpErr != nil {
		entry.Error = cmpErr.Error()
	} else {
		score := float64(res.Score)
		entry.Score = &score
		entry.Rating = res.Rating.Label()
	}
	if _, err := store.Record(cmd.Context(), entry); err != nil {
		s.logger.Warn("Failed to record comparison", "error", err)
	}
}
