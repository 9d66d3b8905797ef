package similarity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/logging"
)

// Default normalization frame size.
const (
	DefaultWidth  = 720
	DefaultHeight = 1280
)

// Geometry is the frame size both inputs are letterboxed to before comparison.
type Geometry struct {
	Width  int
	Height int
}

// DefaultGeometry returns the 720x1280 portrait geometry.
func DefaultGeometry() Geometry {
	return Geometry{Width: DefaultWidth, Height: DefaultHeight}
}

// Validate checks that both dimensions are positive.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return vserrors.NewConfigError(fmt.Sprintf("geometry must be positive, got %dx%d", g.Width, g.Height))
	}
	return nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// Score is an SSIM value, nominally in [0, 1]. Measurement noise can push it
// slightly above 1.
type Score float64

// Engine computes a similarity score for two inputs normalized to geometry.
type Engine interface {
	ComputeSimilarity(ctx context.Context, reference, distorted string, geometry Geometry) (Score, error)
}

// ComparisonRequest names the two inputs of one comparison.
type ComparisonRequest struct {
	Reference string
	Distorted string
	Geometry  Geometry
}

// Validate checks the request preconditions.
func (r ComparisonRequest) Validate() error {
	if err := r.Geometry.Validate(); err != nil {
		return err
	}
	for _, p := range []string{r.Reference, r.Distorted} {
		if p == "" {
			return vserrors.NewPathError("comparison input path is empty")
		}
		info, err := os.Stat(p)
		if err != nil {
			return vserrors.NewPathError(fmt.Sprintf("cannot read input %s: %v", p, err))
		}
		if info.IsDir() {
			return vserrors.NewPathError(fmt.Sprintf("input %s is a directory", p))
		}
	}
	return nil
}

// Result is the outcome of a successful comparison.
type Result struct {
	Score     Score
	Rating    Rating
	Reference string
	Distorted string
	Elapsed   time.Duration
}

// Classifier runs comparisons through an Engine and rates the scores.
type Classifier struct {
	engine   Engine
	geometry Geometry
	timeout  time.Duration
	logger   *logging.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithGeometry sets the normalization geometry used by Compare.
func WithGeometry(g Geometry) Option {
	return func(c *Classifier) {
		c.geometry = g
	}
}

// WithTimeout bounds each engine run. Zero means no limit beyond ctx.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClassifier creates a Classifier backed by engine.
func NewClassifier(engine Engine, opts ...Option) *Classifier {
	c := &Classifier{
		engine:   engine,
		geometry: DefaultGeometry(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geometry returns the configured normalization geometry.
func (c *Classifier) Geometry() Geometry {
	return c.geometry
}

// Compare scores reference against distorted using the configured geometry.
func (c *Classifier) Compare(ctx context.Context, reference, distorted string) (Result, error) {
	return c.CompareRequest(ctx, ComparisonRequest{
		Reference: reference,
		Distorted: distorted,
		Geometry:  c.geometry,
	})
}

// CompareRequest runs one comparison. The error is an EngineInvocation
// error when the engine failed, or a ScoreNotFound error (ReportUnreadable
// matches it too) when no score could be extracted. No retry is attempted.
func (c *Classifier) CompareRequest(ctx context.Context, req ComparisonRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log := c.logger.With("reference", req.Reference, "distorted", req.Distorted, "geometry", req.Geometry.String())
	log.Debug("Starting comparison")

	start := time.Now()
	score, err := c.engine.ComputeSimilarity(ctx, req.Reference, req.Distorted, req.Geometry)
	elapsed := time.Since(start)
	if err != nil {
		err = classifyEngineError(err)
		log.Warn("Comparison failed", "error", err, "elapsed", elapsed)
		return Result{}, err
	}

	rating := Classify(float64(score))
	log.Info("Comparison complete", "score", float64(score), "rating", rating.Label(), "elapsed", elapsed)

	return Result{
		Score:     score,
		Rating:    rating,
		Reference: req.Reference,
		Distorted: req.Distorted,
		Elapsed:   elapsed,
	}, nil
}

// classifyEngineError keeps classified errors and folds anything else into
// an EngineInvocation error.
func classifyEngineError(err error) error {
	if vserrors.IsScoreNotFound(err) || vserrors.IsEngineFailure(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return vserrors.NewEngineInvocationError("comparison timed out", err)
	}
	return vserrors.NewEngineInvocationError("comparison engine failed", err)
}
