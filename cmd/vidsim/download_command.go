package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/vidsim/internal/download"
	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/reporter"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "download <link> [link...]",
		Short: "Download TikTok videos or a profile's recent videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.start(cmd, "download")
			if err != nil {
				return err
			}
			defer s.close()

			d := newDownloader(s.cfg, s.logger)
			var failed int
			for _, link := range args {
				s.runLog.Info("Downloading %s", link)
				res, err := d.Fetch(cmd.Context(), link, count)
				if vserrors.IsCancelled(err) {
					return err
				}
				if err != nil {
					failed++
					s.runLog.Error("%s: %v", link, err)
					rerr := reporter.ReporterError{Title: "Download failed", Message: err.Error(), Context: link}
					switch {
					case errors.Is(err, download.ErrNothingDownloaded):
						rerr.Suggestion = "The link may be private, removed, or already fetched"
					case errors.Is(err, download.ErrUnsupportedLink):
						rerr.Suggestion = "Use a video link (/video/) or a profile link (/@user)"
					}
					s.rep.Error(rerr)
					continue
				}
				for _, f := range res.Files {
					s.runLog.Info("Saved %s", f)
				}
				s.rep.DownloadComplete(reporter.DownloadSummary{
					Link:    res.Link,
					Kind:    res.Kind.String(),
					Files:   res.Files,
					Elapsed: res.Elapsed,
				})
			}

			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if failed > 0 {
				return vserrors.NewOperationFailedError(fmt.Sprintf("%d of %d link(s) failed", failed, len(args)), nil)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, fmt.Sprintf("Recent videos to fetch for profile links (max %d)", download.MaxProfileVideos))
	return cmd
}
