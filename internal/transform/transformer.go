package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/ffmpeg"
	"github.com/five82/vidsim/internal/ffprobe"
	"github.com/five82/vidsim/internal/history"
	"github.com/five82/vidsim/internal/logging"
	"github.com/five82/vidsim/internal/reporter"
	"github.com/five82/vidsim/internal/similarity"
	"github.com/five82/vidsim/internal/util"
	"github.com/five82/vidsim/internal/validation"
)

// OutputNameLength is the number of random characters in output file names.
const OutputNameLength = 8

// freeSpaceFactor is the multiple of the input size required free in the
// output directory before encoding starts.
const freeSpaceFactor = 2

// Prober reads stream information from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffprobe.MediaInfo, error)
}

// Comparer scores an output against its source.
type Comparer interface {
	Compare(ctx context.Context, reference, distorted string) (similarity.Result, error)
}

// Recorder stores comparison outcomes.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
}

// Options holds encode settings.
type Options struct {
	OutputDir        string
	BackgroundAudio  string
	BackgroundVolume float64
	CRF              uint8
	Preset           string
	AudioBitrateKbps int
	CompareAfter     bool
	Workers          int
}

// Outcome is the result of one transform.
type Outcome struct {
	Input        string
	Output       string
	Params       Params
	OriginalSize uint64
	OutputSize   uint64
	Elapsed      time.Duration

	// Comparison is set when the post-encode comparison succeeded.
	Comparison *similarity.Result
	// CompareErr is set when the post-encode comparison ran and failed.
	CompareErr error
	// Validation is the output check; nil when the output could not be probed.
	Validation *validation.Result
}

// Transformer runs randomized re-encodes.
type Transformer struct {
	opts       Options
	runner     ffmpeg.Runner
	prober     Prober
	randomizer *Randomizer
	comparer   Comparer
	recorder   Recorder
	reporter   reporter.Reporter
	logger     *logging.Logger
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithComparer enables post-encode comparisons through c.
func WithComparer(c Comparer) Option {
	return func(t *Transformer) {
		t.comparer = c
	}
}

// WithRecorder stores post-encode comparisons through r.
func WithRecorder(r Recorder) Option {
	return func(t *Transformer) {
		t.recorder = r
	}
}

// WithReporter sets the progress reporter.
func WithReporter(r reporter.Reporter) Option {
	return func(t *Transformer) {
		if r != nil {
			t.reporter = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Transformer.
func New(runner ffmpeg.Runner, prober Prober, randomizer *Randomizer, opts Options, options ...Option) *Transformer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	t := &Transformer{
		opts:       opts,
		runner:     runner,
		prober:     prober,
		randomizer: randomizer,
		reporter:   reporter.NullReporter{},
		logger:     logging.Nop(),
	}
	for _, o := range options {
		o(t)
	}
	return t
}

// Process transforms a single input into a randomly named file in the output
// directory. The input is never modified or removed.
func (t *Transformer) Process(ctx context.Context, input string) (*Outcome, error) {
	return t.process(ctx, input, true)
}

func (t *Transformer) process(ctx context.Context, input string, showProgress bool) (*Outcome, error) {
	start := time.Now()
	log := t.logger.With("input", input)

	if !util.FileExists(input) {
		return nil, vserrors.NewPathError(fmt.Sprintf("input file not found: %s", input))
	}
	originalSize, err := util.GetFileSize(input)
	if err != nil {
		return nil, vserrors.NewIOError("cannot stat input", err)
	}

	info, err := t.prober.Probe(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := util.EnsureDirectory(t.opts.OutputDir); err != nil {
		return nil, vserrors.NewIOError("cannot create output directory", err)
	}
	if err := util.EnsureDirectoryWritable(t.opts.OutputDir); err != nil {
		return nil, vserrors.NewIOError("preflight failed", err)
	}
	if err := util.EnsureFreeSpace(t.opts.OutputDir, originalSize*freeSpaceFactor); err != nil {
		return nil, vserrors.NewIOError("preflight failed", err)
	}
	util.CheckDiskSpace(t.opts.OutputDir, func(format string, args ...any) {
		t.reporter.Warning(fmt.Sprintf(format, args...))
	})

	output, err := util.RandomOutputPath(t.opts.OutputDir, OutputNameLength, ".mp4")
	if err != nil {
		return nil, vserrors.NewIOError("cannot choose output name", err)
	}

	params := t.randomizer.Next()
	encode := &ffmpeg.EncodeParams{
		InputPath:        input,
		OutputPath:       output,
		VideoFilter:      params.VideoFilter(),
		HasAudio:         info.HasAudio,
		CRF:              t.opts.CRF,
		Preset:           t.opts.Preset,
		AudioBitrateKbps: t.opts.AudioBitrateKbps,
		Duration:         params.OutputDuration(info.Duration),
	}
	if info.HasAudio {
		encode.AudioFilter = params.AudioFilter()
		if t.opts.BackgroundAudio != "" {
			if util.FileExists(t.opts.BackgroundAudio) {
				encode.BackgroundAudio = t.opts.BackgroundAudio
				encode.BackgroundVolume = t.opts.BackgroundVolume
			} else {
				log.Warn("Background audio not found, skipping overlay", "path", t.opts.BackgroundAudio)
				t.reporter.Warning(fmt.Sprintf("Background audio file not found, skipping overlay: %s", t.opts.BackgroundAudio))
			}
		}
	}

	t.reporter.TransformStarted(reporter.TransformInfo{
		InputFile:     util.GetFilename(input),
		OutputFile:    util.GetFilename(output),
		Duration:      util.FormatDuration(info.Duration),
		Resolution:    fmt.Sprintf("%dx%d", info.Width, info.Height),
		HasAudio:      info.HasAudio,
		VideoFilter:   encode.VideoFilter,
		AudioFilter:   encode.AudioFilter,
		Speed:         params.Speed,
		BackgroundMix: encode.BackgroundAudio != "",
	})
	log.Info("Encoding", "output", output, "video_filter", encode.VideoFilter, "audio_filter", encode.AudioFilter)

	var progress ffmpeg.ProgressCallback
	if showProgress {
		progress = func(p ffmpeg.Progress) {
			t.reporter.TransformProgress(reporter.ProgressSnapshot{
				CurrentFrame: p.CurrentFrame,
				Percent:      p.Percent,
				Speed:        p.Speed,
				FPS:          p.FPS,
				ETA:          p.ETA,
				Bitrate:      p.Bitrate,
			})
		}
	}

	result := ffmpeg.RunEncode(ctx, t.runner, encode, progress)
	if !result.Success {
		if rmErr := util.RemoveIfExists(output); rmErr != nil {
			log.Warn("Failed to remove partial output", "error", vserrors.NewCleanupError(output, rmErr))
		}
		log.Error("Encode failed", "error", result.Error)
		return nil, result.Error
	}

	outputSize, err := util.GetFileSize(output)
	if err != nil {
		return nil, vserrors.NewIOError("encoded output missing", err)
	}

	outcome := &Outcome{
		Input:        input,
		Output:       output,
		Params:       params,
		OriginalSize: originalSize,
		OutputSize:   outputSize,
	}

	t.validate(ctx, outcome, info)

	if t.opts.CompareAfter && t.comparer != nil {
		t.compare(ctx, outcome)
	}

	outcome.Elapsed = time.Since(start)
	t.reporter.TransformComplete(outcomeReport(outcome))
	return outcome, nil
}

// validate probes the output and checks it against the encode parameters.
// Mismatches are warnings; the output is kept.
func (t *Transformer) validate(ctx context.Context, outcome *Outcome, input *ffprobe.MediaInfo) {
	width, height := outcome.Params.OutputSize(input.Width, input.Height)
	exp := validation.Expectations{
		VideoCodec: ffmpeg.OutputVideoCodec,
		Width:      width,
		Height:     height,
		Duration:   outcome.Params.OutputDuration(input.Duration),
		HasAudio:   input.HasAudio,
	}
	if input.HasAudio {
		exp.AudioCodec = ffmpeg.OutputAudioCodec
	}

	result, err := validation.Validate(ctx, t.prober, outcome.Output, exp)
	if err != nil {
		t.logger.Warn("Output validation skipped", "output", outcome.Output, "error", err)
		t.reporter.Warning(fmt.Sprintf("Could not validate output: %v", err))
		return
	}
	outcome.Validation = result
	for _, step := range result.Steps() {
		t.logger.Debug("Validation step", "output", outcome.Output, "step", step.Name, "passed", step.Passed, "details", step.Details)
	}
	if !result.IsValid() {
		t.reporter.Warning(fmt.Sprintf("Output validation failed: %s", strings.Join(result.Failures(), "; ")))
	}
}

// compare scores the output against its source. Failures are reported as
// warnings and never fail the transform.
func (t *Transformer) compare(ctx context.Context, outcome *Outcome) {
	entry := history.Entry{
		Source:    history.SourceTransform,
		Reference: outcome.Input,
		Distorted: outcome.Output,
	}

	res, err := t.comparer.Compare(ctx, outcome.Input, outcome.Output)
	if err != nil {
		outcome.CompareErr = err
		entry.Error = err.Error()
		t.reporter.Warning(fmt.Sprintf("SSIM comparison failed: %v", err))
	} else {
		outcome.Comparison = &res
		score := float64(res.Score)
		entry.Score = &score
		entry.Rating = res.Rating.Label()
	}

	if t.recorder == nil {
		return
	}
	if _, err := t.recorder.Record(ctx, entry); err != nil {
		t.logger.Warn("Failed to record comparison", "error", err)
	}
}

func outcomeReport(o *Outcome) reporter.TransformOutcome {
	r := reporter.TransformOutcome{
		InputFile:    util.GetFilename(o.Input),
		OutputPath:   o.Output,
		OriginalSize: o.OriginalSize,
		OutputSize:   o.OutputSize,
		TotalTime:    o.Elapsed,
	}
	if o.Comparison != nil {
		score := float64(o.Comparison.Score)
		r.Score = &score
		r.Rating = o.Comparison.Rating.Label()
	}
	return r
}
