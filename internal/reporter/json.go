package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/five82/vidsim/internal/util"
)

// JSONReporter outputs NDJSON events, one object per line.
type JSONReporter struct {
	writer             io.Writer
	mu                 sync.Mutex
	lastProgressBucket int
	lastProgressTime   time.Time
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		lastProgressBucket: -1,
	}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) Hardware(summary HardwareSummary) {
	r.write(map[string]any{
		"type":      "hardware",
		"hostname":  summary.Hostname,
		"num_cpu":   summary.NumCPU,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) ComparisonStarted(info ComparisonInfo) {
	r.write(map[string]any{
		"type":      "comparison_started",
		"reference": info.Reference,
		"distorted": info.Distorted,
		"geometry":  info.Geometry,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) ComparisonComplete(summary ComparisonSummary) {
	r.write(map[string]any{
		"type":            "comparison_complete",
		"reference":       summary.Reference,
		"distorted":       summary.Distorted,
		"score":           summary.Score,
		"rating":          summary.Rating,
		"elapsed_seconds": summary.Elapsed.Seconds(),
		"timestamp":       r.timestamp(),
	})
}

func (r *JSONReporter) ComparisonFailed(failure ComparisonFailure) {
	r.write(map[string]any{
		"type":            "comparison_failed",
		"reference":       failure.Reference,
		"distorted":       failure.Distorted,
		"reason":          failure.Reason,
		"score_not_found": failure.ScoreNotFound,
		"timestamp":       r.timestamp(),
	})
}

func (r *JSONReporter) TransformStarted(info TransformInfo) {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write(map[string]any{
		"type":           "transform_started",
		"input_file":     info.InputFile,
		"output_file":    info.OutputFile,
		"duration":       info.Duration,
		"resolution":     info.Resolution,
		"has_audio":      info.HasAudio,
		"video_filter":   info.VideoFilter,
		"audio_filter":   info.AudioFilter,
		"speed":          info.Speed,
		"background_mix": info.BackgroundMix,
		"timestamp":      r.timestamp(),
	})
}

func (r *JSONReporter) TransformProgress(progress ProgressSnapshot) {
	const progressBucketSize = 1
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent) / progressBucketSize
	now := time.Now()

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	shouldEmit := bucket > r.lastProgressBucket || intervalElapsed || progress.Percent >= 99.0

	if !shouldEmit {
		r.mu.Unlock()
		return
	}

	if bucket > r.lastProgressBucket {
		r.lastProgressBucket = bucket
	}
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]any{
		"type":          "transform_progress",
		"stage":         "encoding",
		"current_frame": progress.CurrentFrame,
		"percent":       progress.Percent,
		"speed":         progress.Speed,
		"fps":           progress.FPS,
		"eta_seconds":   int64(progress.ETA.Seconds()),
		"bitrate":       progress.Bitrate,
		"timestamp":     r.timestamp(),
	})
}

func (r *JSONReporter) TransformComplete(outcome TransformOutcome) {
	event := map[string]any{
		"type":                "transform_complete",
		"input_file":          outcome.InputFile,
		"output_path":         outcome.OutputPath,
		"original_size":       outcome.OriginalSize,
		"output_size":         outcome.OutputSize,
		"size_change_percent": util.SizeChangePercent(outcome.OriginalSize, outcome.OutputSize),
		"duration_seconds":    int64(outcome.TotalTime.Seconds()),
		"timestamp":           r.timestamp(),
	}
	if outcome.Score != nil {
		event["score"] = *outcome.Score
		event["rating"] = outcome.Rating
	}
	r.write(event)
}

func (r *JSONReporter) DownloadComplete(summary DownloadSummary) {
	r.write(map[string]any{
		"type":            "download_complete",
		"link":            summary.Link,
		"kind":            summary.Kind,
		"files":           summary.Files,
		"elapsed_seconds": summary.Elapsed.Seconds(),
		"timestamp":       r.timestamp(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]any{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]any{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]any{
		"type":      "operation_complete",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) BatchStarted(info BatchStartInfo) {
	r.write(map[string]any{
		"type":        "batch_started",
		"total_files": info.TotalFiles,
		"file_list":   info.FileList,
		"output_dir":  info.OutputDir,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) FileProgress(context FileProgressContext) {
	r.write(map[string]any{
		"type":         "file_progress",
		"current_file": context.CurrentFile,
		"total_files":  context.TotalFiles,
		"filename":     context.Filename,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) BatchComplete(summary BatchSummary) {
	results := make([]map[string]any, len(summary.FileResults))
	for i, fr := range summary.FileResults {
		entry := map[string]any{
			"filename": fr.Filename,
			"output":   fr.Output,
		}
		if fr.Score != nil {
			entry["score"] = *fr.Score
			entry["rating"] = fr.Rating
		}
		if fr.Error != "" {
			entry["error"] = fr.Error
		}
		results[i] = entry
	}

	event := map[string]any{
		"type":                   "batch_complete",
		"successful_count":       summary.SuccessfulCount,
		"total_files":            summary.TotalFiles,
		"total_original_size":    summary.TotalOriginalSize,
		"total_output_size":      summary.TotalOutputSize,
		"total_duration_seconds": int64(summary.TotalDuration.Seconds()),
		"file_results":           results,
		"timestamp":              r.timestamp(),
	}
	if avg, ok := summary.AverageScore(); ok {
		event["average_score"] = avg
	}
	r.write(event)
}

func (r *JSONReporter) Verbose(message string) {
	r.write(map[string]any{
		"type":      "verbose",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}
