package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/util"
)

// DefaultBinary is the ffmpeg executable looked up on PATH.
const DefaultBinary = "ffmpeg"

// stderrTailBytes bounds how much diagnostic output is kept per run.
const stderrTailBytes = 4096

// Runner executes ffmpeg with the given arguments, streaming stderr to w.
type Runner interface {
	Run(ctx context.Context, args []string, stderr io.Writer) error
}

// ExecRunner runs a real ffmpeg binary.
type ExecRunner struct {
	Binary string
}

// NewRunner returns an ExecRunner for binary, or ffmpeg when empty.
func NewRunner(binary string) *ExecRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ExecRunner{Binary: binary}
}

// Run starts ffmpeg and waits for it. When ctx ends first the process is
// killed and the returned error wraps ctx.Err().
func (r *ExecRunner) Run(ctx context.Context, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Stderr = stderr
	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%s interrupted: %w", r.Binary, ctx.Err())
	}
	return err
}

// TailBuffer is an io.Writer that keeps only the last N bytes written.
type TailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

// NewTailBuffer creates a TailBuffer keeping at most limit bytes.
func NewTailBuffer(limit int) *TailBuffer {
	if limit <= 0 {
		limit = stderrTailBytes
	}
	return &TailBuffer{limit: limit}
}

func (t *TailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

// String returns the retained output with surrounding whitespace trimmed.
func (t *TailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}

// Progress represents encoding progress information.
type Progress struct {
	CurrentFrame uint64
	Percent      float32
	Speed        float32
	FPS          float32
	ETA          time.Duration
	Bitrate      string
	ElapsedSecs  float64
}

// ProgressCallback is called with progress updates during encoding.
type ProgressCallback func(Progress)

// Result contains the result of an FFmpeg encode operation.
type Result struct {
	Success bool
	Error   error
	Stderr  string
}

var timeRegex = regexp.MustCompile(`time=(\d{2}:\d{2}:\d{2}\.?\d*)`)

// RunEncode executes an encode with progress reporting.
func RunEncode(ctx context.Context, runner Runner, params *EncodeParams, callback ProgressCallback) Result {
	if err := params.Validate(); err != nil {
		return Result{Error: vserrors.NewFFmpegError(err.Error())}
	}

	tail := NewTailBuffer(stderrTailBytes)
	w := &progressWriter{tail: tail, duration: params.Duration, callback: callback}

	err := runner.Run(ctx, BuildEncodeArgs(params), w)
	w.flush()
	stderrStr := tail.String()

	if err != nil {
		if ctx.Err() != nil {
			return Result{
				Error:  fmt.Errorf("encoding cancelled: %w", ctx.Err()),
				Stderr: stderrStr,
			}
		}
		if strings.Contains(stderrStr, "No streams found") {
			return Result{
				Error:  vserrors.NewFFmpegError("no streams found in input file"),
				Stderr: stderrStr,
			}
		}
		return Result{
			Error:  vserrors.WrapExecError("ffmpeg", err, stderrStr),
			Stderr: stderrStr,
		}
	}

	return Result{Success: true, Stderr: stderrStr}
}

// progressWriter splits ffmpeg stderr on \r and \n and reports progress lines.
type progressWriter struct {
	tail     *TailBuffer
	line     []byte
	duration float64
	callback ProgressCallback
}

func (w *progressWriter) Write(p []byte) (int, error) {
	_, _ = w.tail.Write(p)
	for _, b := range p {
		if b == '\r' || b == '\n' {
			w.emit()
			continue
		}
		w.line = append(w.line, b)
	}
	return len(p), nil
}

func (w *progressWriter) flush() {
	w.emit()
}

func (w *progressWriter) emit() {
	line := string(w.line)
	w.line = w.line[:0]
	if w.callback == nil || !strings.Contains(line, "frame=") {
		return
	}
	w.callback(parseProgressLine(line, w.duration))
}

// parseProgressLine extracts progress information from an FFmpeg progress line.
func parseProgressLine(line string, duration float64) Progress {
	var elapsedSecs float64
	if matches := timeRegex.FindStringSubmatch(line); len(matches) >= 2 {
		if secs, ok := util.ParseFFmpegTime(matches[1]); ok {
			elapsedSecs = secs
		}
	}

	var frame uint64
	var fps, speed float32

	if v := fieldValue(line, "frame="); v != "" {
		if f, err := strconv.ParseUint(v, 10, 64); err == nil {
			frame = f
		}
	}

	if v := fieldValue(line, "fps="); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			fps = float32(f)
		}
	}

	bitrate := fieldValue(line, "bitrate=")

	if v := strings.TrimSuffix(fieldValue(line, "speed="), "x"); v != "" {
		if s, err := strconv.ParseFloat(v, 32); err == nil {
			speed = float32(s)
		}
	}

	var percent float32
	if duration > 0 {
		percent = float32((elapsedSecs / duration) * 100)
		if percent > 100 {
			percent = 100
		}
	}

	var eta time.Duration
	if speed > 0 && duration > 0 && elapsedSecs < duration {
		etaSeconds := (duration - elapsedSecs) / float64(speed)
		eta = time.Duration(etaSeconds * float64(time.Second))
	}

	return Progress{
		CurrentFrame: frame,
		Percent:      percent,
		Speed:        speed,
		FPS:          fps,
		ETA:          eta,
		Bitrate:      bitrate,
		ElapsedSecs:  elapsedSecs,
	}
}

// fieldValue returns the whitespace-delimited token after key, allowing
// ffmpeg's padding spaces between the key and its value.
func fieldValue(line, key string) string {
	idx := strings.Index(line, key)
	if idx < 0 {
		return ""
	}
	remaining := strings.TrimLeft(line[idx+len(key):], " ")
	if end := strings.IndexAny(remaining, " \t"); end >= 0 {
		remaining = remaining[:end]
	}
	return remaining
}
