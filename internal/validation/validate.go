package validation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/five82/vidsim/internal/ffprobe"
)

const (
	// durationToleranceSecs is the maximum allowed difference between the
	// expected and actual output duration.
	durationToleranceSecs = 1.0
	// dimensionTolerancePx absorbs rounding in the crop and scale filters.
	dimensionTolerancePx = 2
)

// Prober reads stream information from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffprobe.MediaInfo, error)
}

// Expectations describes the output an encode should have produced. Zero
// values skip the corresponding check.
type Expectations struct {
	VideoCodec string
	Width      int64
	Height     int64
	Duration   float64
	HasAudio   bool
	AudioCodec string
}

// Validate probes path and compares it with exp.
func Validate(ctx context.Context, prober Prober, path string, exp Expectations) (*Result, error) {
	info, err := prober.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	return Check(info, exp), nil
}

// Check compares already probed output information with exp.
func Check(info *ffprobe.MediaInfo, exp Expectations) *Result {
	result := &Result{
		IsCodecCorrect:    true,
		IsSizeCorrect:     true,
		IsDurationCorrect: true,
		CodecName:         info.VideoCodec,
		AudioCodec:        info.AudioCodec,
		expectedCodec:     exp.VideoCodec,
	}

	if exp.VideoCodec != "" {
		result.IsCodecCorrect = strings.EqualFold(info.VideoCodec, exp.VideoCodec)
	}

	actualDims := [2]int64{info.Width, info.Height}
	result.ActualDimensions = &actualDims
	if exp.Width > 0 && exp.Height > 0 {
		expectedDims := [2]int64{exp.Width, exp.Height}
		result.ExpectedDimensions = &expectedDims
		result.IsSizeCorrect, result.SizeMessage = validateDimensions(info.Width, info.Height, exp.Width, exp.Height)
	} else {
		result.SizeMessage = fmt.Sprintf("%dx%d", info.Width, info.Height)
	}

	actualDuration := info.Duration
	result.ActualDuration = &actualDuration
	if exp.Duration > 0 {
		expectedDuration := exp.Duration
		result.ExpectedDuration = &expectedDuration
		result.IsDurationCorrect, result.DurationMessage = validateDuration(info.Duration, exp.Duration)
	} else {
		result.DurationMessage = fmt.Sprintf("%.1fs", info.Duration)
	}

	result.IsAudioCorrect, result.AudioMessage = validateAudio(info, exp)
	return result
}

// validateDimensions checks that dimensions are within tolerance of the expected values.
func validateDimensions(actualW, actualH, expectedW, expectedH int64) (bool, string) {
	if absInt(actualW-expectedW) <= dimensionTolerancePx && absInt(actualH-expectedH) <= dimensionTolerancePx {
		return true, fmt.Sprintf("Dimensions match: %dx%d", actualW, actualH)
	}
	return false, fmt.Sprintf("Dimension mismatch: got %dx%d, expected %dx%d",
		actualW, actualH, expectedW, expectedH)
}

// validateDuration checks that duration is within acceptable tolerance.
func validateDuration(actual, expected float64) (bool, string) {
	diff := math.Abs(actual - expected)
	if diff <= durationToleranceSecs {
		return true, fmt.Sprintf("Duration matches (%.1fs)", actual)
	}
	return false, fmt.Sprintf("Duration mismatch: got %.1fs, expected %.1fs (diff: %.1fs)",
		actual, expected, diff)
}

func validateAudio(info *ffprobe.MediaInfo, exp Expectations) (bool, string) {
	switch {
	case !exp.HasAudio && !info.HasAudio:
		return true, "No audio"
	case !exp.HasAudio:
		return true, fmt.Sprintf("Audio present (%s)", info.AudioCodec)
	case !info.HasAudio:
		return false, "Audio track missing"
	case exp.AudioCodec != "" && !strings.EqualFold(info.AudioCodec, exp.AudioCodec):
		return false, fmt.Sprintf("Expected %s audio, got %s", exp.AudioCodec, info.AudioCodec)
	default:
		return true, fmt.Sprintf("Audio present (%s)", info.AudioCodec)
	}
}

func absInt(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
