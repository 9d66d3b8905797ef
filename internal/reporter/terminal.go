package reporter

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/five82/vidsim/internal/util"
	"github.com/schollz/progressbar/v3"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu         sync.Mutex
	out        io.Writer
	errOut     io.Writer
	verbose    bool
	progress   *progressbar.ProgressBar
	maxPercent float32
	cyan       *color.Color
	green      *color.Color
	yellow     *color.Color
	red        *color.Color
	magenta    *color.Color
	bold       *color.Color
	faint      *color.Color
}

// NewTerminalReporterWithWriters creates a terminal reporter with custom writers.
func NewTerminalReporterWithWriters(out, errOut io.Writer, verbose bool) *TerminalReporter {
	return &TerminalReporter{
		out:     out,
		errOut:  errOut,
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
		faint:   color.New(color.Faint),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
	r.maxPercent = 0
}

func (r *TerminalReporter) section(title string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, title)
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) Hardware(summary HardwareSummary) {
	r.section("HARDWARE")
	r.printLabel(10, "Hostname:", summary.Hostname)
	r.printLabel(10, "CPUs:", fmt.Sprintf("%d", summary.NumCPU))
}

func (r *TerminalReporter) ComparisonStarted(info ComparisonInfo) {
	r.section("COMPARE")
	r.printLabel(10, "Reference:", info.Reference)
	r.printLabel(10, "Distorted:", info.Distorted)
	r.printLabel(10, "Geometry:", info.Geometry)
}

func (r *TerminalReporter) ComparisonComplete(summary ComparisonSummary) {
	r.finishProgress()
	score := util.FormatScore(summary.Score)
	_, _ = fmt.Fprintf(r.out, "  %s %s %s\n",
		r.bold.Sprint("SSIM:"),
		r.ratingColor(summary.Score).Sprint(score),
		r.faint.Sprintf("(%s, %s)", summary.Rating, util.FormatElapsed(summary.Elapsed)))
}

func (r *TerminalReporter) ratingColor(score float64) *color.Color {
	switch {
	case score >= 0.95:
		return r.green
	case score >= 0.70:
		return r.yellow
	default:
		return r.red
	}
}

func (r *TerminalReporter) ComparisonFailed(failure ComparisonFailure) {
	r.finishProgress()
	label := "Comparison failed:"
	if failure.ScoreNotFound {
		label = "SSIM score not found:"
	}
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.red.Sprint(label), failure.Reason)
}

func (r *TerminalReporter) TransformStarted(info TransformInfo) {
	r.finishProgress()
	r.section("TRANSFORM")
	const w = 11
	r.printLabel(w, "File:", info.InputFile)
	r.printLabel(w, "Output:", info.OutputFile)
	r.printLabel(w, "Duration:", info.Duration)
	r.printLabel(w, "Resolution:", info.Resolution)
	r.printLabel(w, "Video:", info.VideoFilter)
	if info.HasAudio {
		audio := info.AudioFilter
		if info.BackgroundMix {
			audio += " + background mix"
		}
		r.printLabel(w, "Audio:", audio)
	} else {
		r.printLabel(w, "Audio:", r.faint.Sprint("none"))
	}
	r.printLabel(w, "Speed:", fmt.Sprintf("%.2fx", info.Speed))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = progressbar.NewOptions64(
		100,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(r.errOut),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "Encoding [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) TransformProgress(progress ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	clamped := min(max(progress.Percent, 0), 100)
	if clamped >= r.maxPercent {
		r.maxPercent = clamped
		_ = r.progress.Set64(int64(clamped))
	}

	desc := fmt.Sprintf("speed %.1fx, fps %.1f, eta %s",
		progress.Speed, progress.FPS, util.FormatDuration(progress.ETA.Seconds()))
	r.progress.Describe(desc)
}

func (r *TerminalReporter) TransformComplete(outcome TransformOutcome) {
	r.finishProgress()

	r.section("RESULTS")
	_, _ = fmt.Fprintf(r.out, "  %s %s -> %s\n",
		r.bold.Sprint("Size:"),
		util.FormatBytes(outcome.OriginalSize),
		util.FormatBytes(outcome.OutputSize))
	if outcome.Score != nil {
		_, _ = fmt.Fprintf(r.out, "  %s %s (%s)\n",
			r.bold.Sprint("SSIM:"),
			r.ratingColor(*outcome.Score).Sprint(util.FormatScore(*outcome.Score)),
			outcome.Rating)
	}
	_, _ = fmt.Fprintf(r.out, "  %s %s\n",
		r.bold.Sprint("Time:"),
		util.FormatElapsed(outcome.TotalTime))
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint("Saved to"), r.green.Sprint(outcome.OutputPath))
}

func (r *TerminalReporter) DownloadComplete(summary DownloadSummary) {
	r.section("DOWNLOAD")
	r.printLabel(6, "Link:", summary.Link)
	r.printLabel(6, "Kind:", summary.Kind)
	for _, f := range summary.Files {
		_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.magenta.Sprint("›"), f)
	}
	_, _ = fmt.Fprintf(r.out, "  %s\n", r.faint.Sprintf("%d file(s) in %s",
		len(summary.Files), util.FormatElapsed(summary.Elapsed)))
}

func (r *TerminalReporter) Warning(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.yellow.Fprintf(r.out, "WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	r.finishProgress()
	_, _ = fmt.Fprintln(r.errOut)
	_, _ = r.red.Fprintf(r.errOut, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(r.errOut, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintf(r.out, "%s %s\n", color.New(color.FgGreen, color.Bold).Sprint("✓"), r.bold.Sprint(message))
}

func (r *TerminalReporter) BatchStarted(info BatchStartInfo) {
	r.section("BATCH")
	_, _ = fmt.Fprintf(r.out, "  Processing %d files -> %s\n", info.TotalFiles, r.bold.Sprint(info.OutputDir))
	for i, name := range info.FileList {
		_, _ = fmt.Fprintf(r.out, "  %d. %s\n", i+1, name)
	}
}

func (r *TerminalReporter) FileProgress(context FileProgressContext) {
	_, _ = fmt.Fprintf(r.out, "\nFile %s of %d %s\n",
		r.bold.Sprint(context.CurrentFile),
		context.TotalFiles,
		r.faint.Sprint(context.Filename))
}

func (r *TerminalReporter) BatchComplete(summary BatchSummary) {
	r.finishProgress()

	r.section("BATCH SUMMARY")
	_, _ = fmt.Fprintf(r.out, "  %s\n", r.bold.Sprintf("%d of %d succeeded", summary.SuccessfulCount, summary.TotalFiles))
	_, _ = fmt.Fprintf(r.out, "  Size: %s -> %s\n",
		util.FormatBytes(summary.TotalOriginalSize), util.FormatBytes(summary.TotalOutputSize))
	if avg, ok := summary.AverageScore(); ok {
		_, _ = fmt.Fprintf(r.out, "  Average SSIM: %s\n", util.FormatScore(avg))
	}
	_, _ = fmt.Fprintf(r.out, "  Time: %s\n", util.FormatElapsed(summary.TotalDuration))

	for _, result := range summary.FileResults {
		switch {
		case result.Error != "":
			_, _ = fmt.Fprintf(r.out, "  - %s %s\n", result.Filename, r.red.Sprint(result.Error))
		case result.Score != nil:
			_, _ = fmt.Fprintf(r.out, "  - %s -> %s (SSIM %s, %s)\n",
				result.Filename, filepath.Base(result.Output), util.FormatScore(*result.Score), result.Rating)
		default:
			_, _ = fmt.Fprintf(r.out, "  - %s -> %s\n", result.Filename, filepath.Base(result.Output))
		}
	}
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s\n", r.faint.Sprint(message))
}
