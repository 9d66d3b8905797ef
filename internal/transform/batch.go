package transform

import (
	"context"
	"time"

	"github.com/five82/vidsim/internal/discovery"
	"github.com/five82/vidsim/internal/lockfile"
	"github.com/five82/vidsim/internal/reporter"
	"github.com/five82/vidsim/internal/util"
	"github.com/five82/vidsim/internal/worker"
)

// BatchResult collects the outcome of every file in a batch.
type BatchResult struct {
	Outcomes []*Outcome
	Failures map[string]error
	Summary  reporter.BatchSummary
}

// Batch transforms every .mp4 and .mov file directly inside dir. The
// directory is locked for the duration so concurrent runs do not pick up the
// same files. Per-file failures are collected and do not stop the batch.
func (t *Transformer) Batch(ctx context.Context, dir string) (*BatchResult, error) {
	lock, err := lockfile.Acquire(dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			t.logger.Warn("Failed to release lock", "path", lock.Path(), "error", err)
		}
	}()

	files, err := discovery.FindTransformCandidates(dir)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = util.GetFilename(f)
	}
	t.reporter.BatchStarted(reporter.BatchStartInfo{
		TotalFiles: len(files),
		FileList:   names,
		OutputDir:  t.opts.OutputDir,
	})

	// Interleaved progress bars are unreadable, so only a serial batch shows them.
	showProgress := t.opts.Workers == 1
	outcomes := make([]*Outcome, len(files))
	jobs := make([]worker.Job, len(files))
	for i, file := range files {
		jobs[i] = func(ctx context.Context) error {
			t.reporter.FileProgress(reporter.FileProgressContext{
				CurrentFile: i + 1,
				TotalFiles:  len(files),
				Filename:    names[i],
			})
			outcome, err := t.process(ctx, file, showProgress)
			if err != nil {
				t.reporter.Warning("Failed to transform " + names[i] + ": " + err.Error())
				return err
			}
			outcomes[i] = outcome
			return nil
		}
	}

	results := worker.Run(ctx, worker.NewSemaphore(t.opts.Workers), jobs)

	batch := &BatchResult{Failures: make(map[string]error)}
	summary := reporter.BatchSummary{TotalFiles: len(files)}
	for _, r := range results {
		file := files[r.Index]
		fr := reporter.FileResult{Filename: names[r.Index]}
		if r.Error != nil {
			batch.Failures[file] = r.Error
			fr.Error = r.Error.Error()
			summary.FileResults = append(summary.FileResults, fr)
			continue
		}
		o := outcomes[r.Index]
		batch.Outcomes = append(batch.Outcomes, o)
		summary.SuccessfulCount++
		summary.TotalOriginalSize += o.OriginalSize
		summary.TotalOutputSize += o.OutputSize
		fr.Output = o.Output
		if o.Comparison != nil {
			score := float64(o.Comparison.Score)
			fr.Score = &score
			fr.Rating = o.Comparison.Rating.Label()
		}
		summary.FileResults = append(summary.FileResults, fr)
	}
	summary.TotalDuration = time.Since(start)
	batch.Summary = summary

	t.reporter.BatchComplete(summary)
	return batch, nil
}
