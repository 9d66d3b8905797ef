package main

import (
	"time"

	"github.com/five82/vidsim/internal/config"
	"github.com/five82/vidsim/internal/download"
	"github.com/five82/vidsim/internal/ffmpeg"
	"github.com/five82/vidsim/internal/ffprobe"
	"github.com/five82/vidsim/internal/history"
	"github.com/five82/vidsim/internal/logging"
	"github.com/five82/vidsim/internal/reporter"
	"github.com/five82/vidsim/internal/similarity"
	"github.com/five82/vidsim/internal/transform"
	"github.com/five82/vidsim/internal/util"
)

// staleReportAge is how old an orphaned SSIM report must be before startup
// removes it.
const staleReportAge = 24 * time.Hour

func newClassifier(cfg *config.Config, logger *logging.Logger) *similarity.Classifier {
	if n, err := util.CleanupStaleTempFiles(cfg.Paths.WorkDir, similarity.ReportPrefix, staleReportAge); err != nil {
		logger.Warn("Failed to clean stale reports", "dir", cfg.Paths.WorkDir, "error", err)
	} else if n > 0 {
		logger.Debug("Removed stale reports", "count", n)
	}

	engine := similarity.NewFFmpegEngine(ffmpeg.NewRunner(cfg.FFmpegBinary()), cfg.Paths.WorkDir, logger)
	return similarity.NewClassifier(engine,
		similarity.WithGeometry(similarity.Geometry{Width: cfg.Compare.Width, Height: cfg.Compare.Height}),
		similarity.WithTimeout(cfg.CompareTimeout()),
		similarity.WithLogger(logger),
	)
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	return history.Open(cfg.Paths.HistoryDB)
}

type transformOverrides struct {
	outputDir  string
	workers    int
	noCompare  bool
	seed       uint64
	background string
}

func newTransformer(cfg *config.Config, o transformOverrides, rep reporter.Reporter, logger *logging.Logger, store *history.Store) *transform.Transformer {
	t := cfg.Transform
	opts := transform.Options{
		OutputDir:        cfg.Paths.ReadyDir,
		BackgroundAudio:  cfg.Paths.BackgroundAudio,
		BackgroundVolume: t.BackgroundVolume,
		CRF:              t.CRF,
		Preset:           t.Preset,
		AudioBitrateKbps: t.AudioBitrateKbps,
		CompareAfter:     t.CompareAfter && !o.noCompare,
		Workers:          t.Workers,
	}
	if o.outputDir != "" {
		opts.OutputDir = o.outputDir
	}
	if o.workers > 0 {
		opts.Workers = o.workers
	}
	if o.background != "" {
		opts.BackgroundAudio = o.background
	}

	ranges := transform.RangesFromConfig(t)
	randomizer := transform.NewTimeSeededRandomizer(ranges)
	if o.seed != 0 {
		randomizer = transform.NewRandomizer(ranges, o.seed)
	}

	options := []transform.Option{
		transform.WithReporter(rep),
		transform.WithLogger(logger),
	}
	if opts.CompareAfter {
		options = append(options, transform.WithComparer(newClassifier(cfg, logger)))
		if store != nil {
			options = append(options, transform.WithRecorder(store))
		}
	}

	return transform.New(
		ffmpeg.NewRunner(cfg.FFmpegBinary()),
		ffprobe.NewProber(cfg.FFprobeBinary()),
		randomizer,
		opts,
		options...,
	)
}

func newDownloader(cfg *config.Config, logger *logging.Logger) *download.Downloader {
	return download.New(ffmpeg.NewRunner(cfg.Download.Binary), download.Options{
		Dir:              cfg.Paths.DownloadDir,
		Format:           cfg.Download.Format,
		Timeout:          cfg.DownloadTimeout(),
		MaxProfileVideos: cfg.Download.MaxProfileVideos,
	}, logger)
}
