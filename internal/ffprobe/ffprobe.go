// Package ffprobe provides functions for extracting media information using ffprobe.
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	vserrors "github.com/five82/vidsim/internal/errors"
)

// DefaultBinary is the ffprobe executable looked up on PATH.
const DefaultBinary = "ffprobe"

// MediaInfo contains basic media information.
type MediaInfo struct {
	Duration   float64
	Width      int64
	Height     int64
	VideoCodec string
	HasAudio   bool
	AudioCodec string
}

// IsPortrait reports whether the video is taller than it is wide.
func (m *MediaInfo) IsPortrait() bool {
	return m.Height > m.Width
}

// ffprobeOutput represents the JSON output from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int64  `json:"width"`
	Height    int64  `json:"height"`
	Channels  int    `json:"channels"`
	Duration  string `json:"duration"`
}

// Prober runs ffprobe.
type Prober struct {
	Binary string
}

// NewProber returns a Prober for binary, or ffprobe when empty.
func NewProber(binary string) *Prober {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Prober{Binary: binary}
}

// Probe returns stream information for inputPath. A file without a video
// stream is an error.
func (p *Prober) Probe(ctx context.Context, inputPath string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, p.Binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return nil, vserrors.WrapExecError(p.Binary, err, stderr.String())
	}

	probe, err := parseFFprobeOutput(output)
	if err != nil {
		return nil, err
	}
	return mediaInfoFromProbe(probe, inputPath)
}

func parseFFprobeOutput(data []byte) (*ffprobeOutput, error) {
	var result ffprobeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, vserrors.NewJSONParseError("failed to parse ffprobe output", err)
	}
	return &result, nil
}

func mediaInfoFromProbe(probe *ffprobeOutput, inputPath string) (*MediaInfo, error) {
	info := &MediaInfo{}

	if probe.Format.Duration != "" {
		d, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return nil, vserrors.NewFFprobeParseError(fmt.Sprintf("invalid duration %q in %s", probe.Format.Duration, inputPath))
		}
		info.Duration = d
	}

	foundVideo := false
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			if info.Duration == 0 && stream.Duration != "" {
				if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					info.Duration = d
				}
			}
		case "audio":
			if !info.HasAudio && stream.Channels > 0 {
				info.HasAudio = true
				info.AudioCodec = stream.CodecName
			}
		}
	}

	if !foundVideo {
		return nil, vserrors.NewFFprobeParseError(fmt.Sprintf("no video stream found in %s", inputPath))
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, vserrors.NewFFprobeParseError(fmt.Sprintf("invalid dimensions in %s: %dx%d", inputPath, info.Width, info.Height))
	}
	return info, nil
}
