// Package ffmpeg provides FFmpeg command building and execution.
package ffmpeg

import (
	"fmt"
	"strings"
)

// Codec names ffprobe reports for encoded outputs.
const (
	OutputVideoCodec = "h264"
	OutputAudioCodec = "aac"
)

// EncodeParams describes one libx264/AAC re-encode.
type EncodeParams struct {
	InputPath  string
	OutputPath string

	// BackgroundAudio is mixed under the source audio when set.
	BackgroundAudio  string
	BackgroundVolume float64

	VideoFilter string
	AudioFilter string
	HasAudio    bool

	CRF              uint8
	Preset           string
	AudioBitrateKbps int

	// Duration of the output in seconds, used for progress percentages.
	Duration float64
}

// Validate checks that the parameters can produce a command.
func (p *EncodeParams) Validate() error {
	if p.InputPath == "" || p.OutputPath == "" {
		return fmt.Errorf("input and output paths are required")
	}
	if p.InputPath == p.OutputPath {
		return fmt.Errorf("output path must differ from input path")
	}
	if strings.TrimSpace(p.Preset) == "" {
		return fmt.Errorf("x264 preset is required")
	}
	if p.HasAudio && p.AudioBitrateKbps <= 0 {
		return fmt.Errorf("audio bitrate must be positive, got %d", p.AudioBitrateKbps)
	}
	return nil
}

// mixesBackground reports whether the background track is used.
func (p *EncodeParams) mixesBackground() bool {
	return p.HasAudio && p.BackgroundAudio != ""
}

// metadataStripArgs removes container and stream metadata from the output.
func metadataStripArgs() []string {
	return []string{
		"-map_metadata", "-1",
		"-metadata", "title=",
		"-metadata", "comment=",
		"-metadata", "artist=",
		"-metadata", "encoder=",
	}
}
