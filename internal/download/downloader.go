package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/ffmpeg"
	"github.com/five82/vidsim/internal/logging"
	"github.com/five82/vidsim/internal/util"
)

// DefaultTimeout bounds a single yt-dlp run.
const DefaultTimeout = 180 * time.Second

// DefaultFormat prefers the best video and audio streams, merged.
const DefaultFormat = "bv*+ba/best"

const outputTemplate = "%(id)s.%(ext)s"

// ErrNothingDownloaded is returned when yt-dlp succeeded but produced no files.
var ErrNothingDownloaded = errors.New("no new videos were downloaded")

// ErrUnsupportedLink is returned for links that are neither a video nor a profile.
var ErrUnsupportedLink = errors.New("unsupported link format")

// Runner executes the downloader binary.
type Runner interface {
	Run(ctx context.Context, args []string, stderr io.Writer) error
}

// Options configures a Downloader.
type Options struct {
	Dir              string
	Format           string
	Timeout          time.Duration
	MaxProfileVideos int
}

// Result lists the files fetched for one link, sorted by name.
type Result struct {
	Link    string
	Kind    Kind
	Files   []string
	Elapsed time.Duration
}

// Downloader runs yt-dlp into a directory.
type Downloader struct {
	runner Runner
	opts   Options
	logger *logging.Logger
}

// New creates a Downloader.
func New(runner Runner, opts Options, logger *logging.Logger) *Downloader {
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxProfileVideos <= 0 || opts.MaxProfileVideos > MaxProfileVideos {
		opts.MaxProfileVideos = MaxProfileVideos
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Downloader{runner: runner, opts: opts, logger: logger}
}

// Dir returns the download directory.
func (d *Downloader) Dir() string {
	return d.opts.Dir
}

// BuildArgs returns the yt-dlp arguments for link. limit is only used for
// profiles.
func BuildArgs(link string, kind Kind, limit int, outputDir, format string) []string {
	args := []string{
		"-f", format,
		"-o", filepath.Join(outputDir, outputTemplate),
		"--merge-output-format", "mp4",
		"--no-warnings",
		"--quiet",
	}
	if kind == KindProfile {
		args = append(args, "--playlist-end", strconv.Itoa(limit))
	}
	return append(args, link)
}

// Fetch downloads link. Each call stages into its own subdirectory so
// concurrent fetches never claim each other's files; staged files are then
// moved into the download directory.
func (d *Downloader) Fetch(ctx context.Context, link string, limit int) (*Result, error) {
	kind := Classify(link)
	if kind == KindUnsupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLink, link)
	}
	limit = min(ClampCount(limit), d.opts.MaxProfileVideos)

	if err := util.EnsureDirectory(d.opts.Dir); err != nil {
		return nil, vserrors.NewIOError("cannot create download directory", err)
	}
	util.CheckDiskSpace(d.opts.Dir, func(format string, args ...any) {
		d.logger.Warn(fmt.Sprintf(format, args...))
	})

	stage, err := util.CreateTempDir(d.opts.Dir, ".fetch")
	if err != nil {
		return nil, vserrors.NewIOError("cannot create staging directory", err)
	}
	defer func() {
		if err := stage.Cleanup(); err != nil {
			d.logger.Warn("Failed to remove staging directory", "error", vserrors.NewCleanupError(stage.Path(), err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	start := time.Now()
	stderr := ffmpeg.NewTailBuffer(0)
	args := BuildArgs(link, kind, limit, stage.Path(), d.opts.Format)
	d.logger.Info("Downloading", "link", link, "kind", kind.String(), "limit", limit)

	if err := d.runner.Run(runCtx, args, stderr); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, vserrors.NewDownloadError(fmt.Sprintf("download timed out after %s", d.opts.Timeout), err)
		}
		if ctx.Err() != nil {
			return nil, vserrors.NewCancelledError()
		}
		return nil, vserrors.NewDownloadError("yt-dlp failed", vserrors.WrapExecError("yt-dlp", err, stderr.String()))
	}

	staged, err := util.ListFiles(stage.Path())
	if err != nil {
		return nil, vserrors.NewIOError("cannot list staged downloads", err)
	}
	if len(staged) == 0 {
		return nil, ErrNothingDownloaded
	}

	names := make([]string, 0, len(staged))
	for name := range staged {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]string, 0, len(names))
	for _, name := range names {
		dst := filepath.Join(d.opts.Dir, name)
		if err := os.Rename(filepath.Join(stage.Path(), name), dst); err != nil {
			return nil, vserrors.NewIOError("cannot move download into place", err)
		}
		files = append(files, dst)
	}

	elapsed := time.Since(start)
	d.logger.Info("Download complete", "link", link, "files", len(files), "elapsed", elapsed)
	return &Result{Link: link, Kind: kind, Files: files, Elapsed: elapsed}, nil
}
