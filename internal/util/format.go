// Package util holds the small formatting and filesystem helpers shared by
// the reporters, the bots and the CLI.
package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	KiB = 1024
	MiB = KiB * 1024
	GiB = MiB * 1024
)

// FormatBytes renders a size with the largest binary unit that keeps it >= 1.
func FormatBytes(bytes uint64) string {
	bf := float64(bytes)
	switch {
	case bf >= GiB:
		return fmt.Sprintf("%.2f GiB", bf/GiB)
	case bf >= MiB:
		return fmt.Sprintf("%.2f MiB", bf/MiB)
	case bf >= KiB:
		return fmt.Sprintf("%.2f KiB", bf/KiB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatDuration renders seconds as HH:MM:SS. Negative or NaN input
// (unknown media duration) renders as "??:??:??".
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		return "??:??:??"
	}
	total := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// FormatElapsed renders a wall-clock measurement. Comparisons usually finish
// in seconds, so sub-minute values keep one decimal instead of HH:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return FormatDuration(d.Seconds())
}

// FormatScore renders an SSIM score the way every surface displays it.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 4, 64)
}

// ParseFFmpegTime parses the HH:MM:SS.ms clock ffmpeg prints in progress
// lines into seconds.
func ParseFFmpegTime(clock string) (float64, bool) {
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, false
	}
	var seconds float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		seconds = seconds*60 + v
	}
	return seconds, true
}

// SizeChangePercent reports how much output grew relative to input, so a
// smaller transform result is negative. Zero input reports no change.
func SizeChangePercent(inputSize, outputSize uint64) float64 {
	if inputSize == 0 {
		return 0
	}
	return (float64(outputSize) - float64(inputSize)) / float64(inputSize) * 100
}
