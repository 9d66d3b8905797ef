// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// HardwareSummary contains host information.
type HardwareSummary struct {
	Hostname string
	NumCPU   int
}

// ComparisonInfo describes a comparison about to run.
type ComparisonInfo struct {
	Reference string
	Distorted string
	Geometry  string
}

// ComparisonSummary contains a rated comparison result.
type ComparisonSummary struct {
	Reference string
	Distorted string
	Score     float64
	Rating    string
	Elapsed   time.Duration
}

// ComparisonFailure describes a comparison that produced no score.
type ComparisonFailure struct {
	Reference string
	Distorted string
	Reason    string
	// ScoreNotFound is true when the engine ran but no aggregate score was found.
	ScoreNotFound bool
}

// TransformInfo describes the file and randomized parameters of a transform.
type TransformInfo struct {
	InputFile     string
	OutputFile    string
	Duration      string
	Resolution    string
	HasAudio      bool
	VideoFilter   string
	AudioFilter   string
	Speed         float64
	BackgroundMix bool
}

// ProgressSnapshot contains encoding progress information.
type ProgressSnapshot struct {
	CurrentFrame uint64
	Percent      float32
	Speed        float32
	FPS          float32
	ETA          time.Duration
	Bitrate      string
}

// TransformOutcome contains final transform results.
type TransformOutcome struct {
	InputFile    string
	OutputPath   string
	OriginalSize uint64
	OutputSize   uint64
	TotalTime    time.Duration
	// Score is nil when no post-encode comparison ran or it failed.
	Score  *float64
	Rating string
}

// DownloadSummary contains the files fetched for one link.
type DownloadSummary struct {
	Link    string
	Kind    string
	Files   []string
	Elapsed time.Duration
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// BatchStartInfo contains batch start metadata.
type BatchStartInfo struct {
	TotalFiles int
	FileList   []string
	OutputDir  string
}

// FileProgressContext contains current file index within a batch.
type FileProgressContext struct {
	CurrentFile int
	TotalFiles  int
	Filename    string
}

// BatchSummary contains batch completion information.
type BatchSummary struct {
	SuccessfulCount   int
	TotalFiles        int
	TotalOriginalSize uint64
	TotalOutputSize   uint64
	TotalDuration     time.Duration
	FileResults       []FileResult
}

// FileResult contains the per-file transform result.
type FileResult struct {
	Filename string
	Output   string
	Score    *float64
	Rating   string
	Error    string
}

// AverageScore returns the mean post-encode score over files that have one.
func (s BatchSummary) AverageScore() (float64, bool) {
	var sum float64
	var n int
	for _, r := range s.FileResults {
		if r.Score != nil {
			sum += *r.Score
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
