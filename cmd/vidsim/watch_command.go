package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/vidsim/internal/lockfile"
	"github.com/five82/vidsim/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var o transformOverrides
	var settle time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Transform new .mp4 files as they land in the incoming directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.start(cmd, "watch")
			if err != nil {
				return err
			}
			defer s.close()

			dir := s.cfg.Paths.IncomingDir
			lock, err := lockfile.Acquire(dir)
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					s.logger.Warn("Failed to release lock", "path", lock.Path(), "error", err)
				}
			}()

			store, err := openHistory(s.cfg)
			if err != nil {
				s.logger.Warn("History unavailable, post-encode scores will not be recorded", "error", err)
				store = nil
			} else {
				defer func() { _ = store.Close() }()
			}
			t := newTransformer(s.cfg, o, s.rep, s.logger, store)

			handler := func(ctx context.Context, path string) error {
				s.runLog.Info("New file %s", path)
				outcome, err := t.Process(ctx, path)
				if err != nil {
					s.runLog.Error("%s: %v", path, err)
					s.rep.Warning("Failed to transform " + path + ": " + err.Error())
					return err
				}
				s.runLog.Info("Wrote %s", outcome.Output)
				return nil
			}

			w := watch.New(dir, handler,
				watch.WithSettle(settle),
				watch.WithLogger(s.logger),
			)
			s.runLog.Info("Watching %s", dir)
			if err := w.Run(cmd.Context()); err != nil {
				return err
			}
			s.runLog.Info("Watcher stopped")
			return nil
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "How long a file must stay unchanged before it is processed")
	cmd.Flags().StringVarP(&o.outputDir, "output", "o", "", "Output directory (defaults to paths.ready_dir)")
	cmd.Flags().BoolVar(&o.noCompare, "no-compare", false, "Skip the post-encode SSIM comparison")
	cmd.Flags().StringVar(&o.background, "background", "", "Background audio file (defaults to paths.background_audio)")
	return cmd
}
