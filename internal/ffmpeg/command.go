package ffmpeg

import "fmt"

// BuildEncodeArgs builds the argument list for a transform encode.
func BuildEncodeArgs(p *EncodeParams) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", p.InputPath}

	if p.mixesBackground() {
		args = append(args, "-i", p.BackgroundAudio)

		video := p.VideoFilter
		if video == "" {
			video = "null"
		}
		audio := p.AudioFilter
		if audio == "" {
			audio = "anull"
		}
		graph := fmt.Sprintf(
			"[0:v]%s[v];[0:a]%s[a1];[1:a]volume=%g[a2];[a1][a2]amix=inputs=2:duration=first:dropout_transition=2[a]",
			video, audio, p.BackgroundVolume)
		args = append(args, "-filter_complex", graph, "-map", "[v]", "-map", "[a]")
	} else {
		args = append(args, "-map", "0:v:0")
		if p.VideoFilter != "" {
			args = append(args, "-vf", p.VideoFilter)
		}
		if p.HasAudio {
			args = append(args, "-map", "0:a:0")
			if p.AudioFilter != "" {
				args = append(args, "-af", p.AudioFilter)
			}
		}
	}

	args = append(args,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-preset", p.Preset,
		"-crf", fmt.Sprintf("%d", p.CRF),
	)

	if p.HasAudio {
		args = append(args, "-c:a", "aac", "-b:a", fmt.Sprintf("%dk", p.AudioBitrateKbps))
	} else {
		args = append(args, "-an")
	}

	args = append(args, "-movflags", "+faststart")
	args = append(args, metadataStripArgs()...)
	args = append(args, p.OutputPath)
	return args
}

// BuildSSIMArgs builds an invocation that compares reference against distorted
// after normalizing both to width x height. Only the stats file is produced.
func BuildSSIMArgs(reference, distorted string, width, height int, reportPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-i", reference,
		"-i", distorted,
		"-filter_complex", SSIMFilterGraph(width, height, reportPath),
		"-an",
		"-f", "null",
		"-",
	}
}
