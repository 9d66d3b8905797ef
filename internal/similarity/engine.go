package similarity

import (
	"context"
	"errors"
	"strings"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/ffmpeg"
	"github.com/five82/vidsim/internal/logging"
	"github.com/five82/vidsim/internal/util"
)

// ReportPrefix is the file name prefix of SSIM reports in the work directory.
const ReportPrefix = "ssim"

// FFmpegEngine computes SSIM with ffmpeg's ssim filter.
type FFmpegEngine struct {
	runner  ffmpeg.Runner
	workDir string
	logger  *logging.Logger
}

// NewFFmpegEngine creates an engine that writes reports into workDir.
func NewFFmpegEngine(runner ffmpeg.Runner, workDir string, logger *logging.Logger) *FFmpegEngine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &FFmpegEngine{runner: runner, workDir: workDir, logger: logger}
}

// ComputeSimilarity runs ffmpeg once and reads the report it wrote. The
// report lives at a unique path and is removed before returning on every path.
func (e *FFmpegEngine) ComputeSimilarity(ctx context.Context, reference, distorted string, g Geometry) (Score, error) {
	if err := util.EnsureDirectory(e.workDir); err != nil {
		return 0, vserrors.NewEngineInvocationError("cannot create work directory", err)
	}
	reportPath, err := util.CreateTempFilePath(e.workDir, ReportPrefix, "log")
	if err != nil {
		return 0, vserrors.NewEngineInvocationError("cannot allocate report path", err)
	}
	defer e.cleanup(reportPath)

	stderr := ffmpeg.NewTailBuffer(0)
	args := ffmpeg.BuildSSIMArgs(reference, distorted, g.Width, g.Height, reportPath)
	e.logger.Debug("Running ffmpeg ssim", "report", reportPath)

	if err := e.runner.Run(ctx, args, stderr); err != nil {
		diag := stderr.String()
		if errors.Is(err, context.Canceled) {
			return 0, vserrors.NewEngineInvocationError("comparison cancelled", err)
		}
		msg := "ffmpeg ssim run failed"
		if line := lastLine(diag); line != "" {
			msg += ": " + line
		}
		return 0, vserrors.NewEngineInvocationError(msg, vserrors.WrapExecError("ffmpeg", err, diag))
	}

	if summary, ok := ExtractScore(strings.Split(stderr.String(), "\n")); ok {
		e.logger.Debug("ffmpeg ssim summary", "all", summary)
	}

	value, err := ReadReport(reportPath)
	if err != nil {
		return 0, err
	}
	return Score(value), nil
}

// cleanup removes the report. Failures are logged and never replace the
// comparison outcome.
func (e *FFmpegEngine) cleanup(path string) {
	if err := util.RemoveIfExists(path); err != nil {
		e.logger.Warn("Failed to remove report", "error", vserrors.NewCleanupError(path, err))
	}
}

// lastLine returns the final non-empty line of ffmpeg's diagnostic output.
func lastLine(diag string) string {
	lines := strings.FieldsFunc(diag, func(r rune) bool { return r == '\n' || r == '\r' })
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
