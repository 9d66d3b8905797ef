// Package vidsim scores how similar two videos look.
//
// Both inputs are letterboxed to a common frame size and compared with
// ffmpeg's SSIM filter. The aggregate score is mapped to a rating such as
// "Very similar".
//
// Basic usage:
//
//	c := vidsim.New(vidsim.WithGeometry(720, 1280))
//	res, err := c.Compare(ctx, "original.mp4", "reupload.mp4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("SSIM %.4f: %s\n", res.Score, res.Rating)
package vidsim

import (
	"context"
	"os"
	"time"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/ffmpeg"
	"github.com/five82/vidsim/internal/similarity"
)

// Rating is a qualitative similarity bucket.
type Rating = similarity.Rating

const (
	RatingAlmostIdentical        = similarity.RatingAlmostIdentical
	RatingVerySimilar            = similarity.RatingVerySimilar
	RatingModeratelyDifferent    = similarity.RatingModeratelyDifferent
	RatingSignificantlyDifferent = similarity.RatingSignificantlyDifferent
)

// ClassifyScore maps an SSIM score to its rating.
func ClassifyScore(score float64) Rating {
	return similarity.Classify(score)
}

// Result is the outcome of one comparison.
type Result struct {
	Reference string
	Distorted string
	Score     float64
	Rating    Rating
	Elapsed   time.Duration
}

// Label returns the human-readable rating.
func (r *Result) Label() string {
	return r.Rating.Label()
}

// Comparer runs comparisons with ffmpeg.
type Comparer struct {
	ffmpegPath string
	workDir    string
	geometry   similarity.Geometry
	timeout    time.Duration
	runner     ffmpeg.Runner
}

// Option configures a Comparer.
type Option func(*Comparer)

// WithGeometry sets the frame size both inputs are normalized to.
func WithGeometry(width, height int) Option {
	return func(c *Comparer) {
		c.geometry = similarity.Geometry{Width: width, Height: height}
	}
}

// WithFFmpeg sets the ffmpeg binary.
func WithFFmpeg(path string) Option {
	return func(c *Comparer) {
		c.ffmpegPath = path
	}
}

// WithWorkDir sets where SSIM reports are written. Defaults to the system
// temp directory.
func WithWorkDir(dir string) Option {
	return func(c *Comparer) {
		c.workDir = dir
	}
}

// WithTimeout bounds each comparison.
func WithTimeout(d time.Duration) Option {
	return func(c *Comparer) {
		c.timeout = d
	}
}

// New creates a Comparer.
func New(opts ...Option) *Comparer {
	c := &Comparer{
		geometry: similarity.DefaultGeometry(),
		workDir:  os.TempDir(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner == nil {
		c.runner = ffmpeg.NewRunner(c.ffmpegPath)
	}
	return c
}

// Compare scores distorted against reference. Use IsScoreNotFound to tell a
// missing score apart from an ffmpeg failure.
func (c *Comparer) Compare(ctx context.Context, reference, distorted string) (*Result, error) {
	engine := similarity.NewFFmpegEngine(c.runner, c.workDir, nil)
	classifier := similarity.NewClassifier(engine,
		similarity.WithGeometry(c.geometry),
		similarity.WithTimeout(c.timeout),
	)
	res, err := classifier.Compare(ctx, reference, distorted)
	if err != nil {
		return nil, err
	}
	return &Result{
		Reference: res.Reference,
		Distorted: res.Distorted,
		Score:     float64(res.Score),
		Rating:    res.Rating,
		Elapsed:   res.Elapsed,
	}, nil
}

// IsScoreNotFound reports whether ffmpeg ran but no score could be read.
func IsScoreNotFound(err error) bool {
	return vserrors.IsScoreNotFound(err)
}

// IsEngineFailure reports whether ffmpeg could not complete the comparison.
func IsEngineFailure(err error) bool {
	return vserrors.IsEngineFailure(err)
}
