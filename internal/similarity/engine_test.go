package similarity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	vserrors "github.com/five82/vidsim/internal/errors"
)

// fakeFFmpeg writes a report to the stats_file named in the filter graph.
type fakeFFmpeg struct {
	mu      sync.Mutex
	reports []string

	// content returns the report body for a reference input.
	content func(reference string) string
	stderr  string
	err     error
	delay   time.Duration
}

func (f *fakeFFmpeg) Run(ctx context.Context, args []string, stderr io.Writer) error {
	graph := args[slices.Index(args, "-filter_complex")+1]
	report := graph[strings.LastIndex(graph, "stats_file=")+len("stats_file="):]
	reference := args[slices.Index(args, "-i")+1]

	f.mu.Lock()
	f.reports = append(f.reports, report)
	f.mu.Unlock()

	if f.content != nil {
		if err := os.WriteFile(report, []byte(f.content(reference)), 0o644); err != nil {
			return err
		}
	}
	if f.stderr != "" {
		_, _ = io.WriteString(stderr, f.stderr)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return fmt.Errorf("ffmpeg interrupted: %w", ctx.Err())
		}
	}
	return f.err
}

func (f *fakeFFmpeg) reportPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.reports)
}

func assertRemoved(t *testing.T, paths []string) {
	t.Helper()
	for _, p := range paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("report %s was not removed", p)
		}
	}
}

func TestFFmpegEngineSuccess(t *testing.T) {
	work := filepath.Join(t.TempDir(), "work")
	runner := &fakeFFmpeg{content: func(string) string {
		return "n:1 Y:0.9 All:0.91 (10.0)\nn:2 Y:0.93 All:0.9321 (11.0)\n"
	}}

	engine := NewFFmpegEngine(runner, work, nil)
	score, err := engine.ComputeSimilarity(context.Background(), "/a.mp4", "/b.mp4", DefaultGeometry())
	if err != nil {
		t.Fatalf("ComputeSimilarity: %v", err)
	}
	if score != 0.9321 {
		t.Errorf("score = %v, want 0.9321", score)
	}

	paths := runner.reportPaths()
	if len(paths) != 1 || filepath.Dir(paths[0]) != work {
		t.Fatalf("unexpected report paths %v", paths)
	}
	if !strings.HasPrefix(filepath.Base(paths[0]), ReportPrefix+"_") {
		t.Errorf("report name %s lacks prefix", paths[0])
	}
	assertRemoved(t, paths)
}

func TestFFmpegEngineNonZeroExitCleansUp(t *testing.T) {
	runner := &fakeFFmpeg{
		content: func(string) string { return "n:1 Y:0.5 All:0.5 (3.0)\n" },
		stderr:  "b.mp4: Invalid data found when processing input\n",
		err:     errors.New("exit status 1"),
	}

	engine := NewFFmpegEngine(runner, t.TempDir(), nil)
	_, err := engine.ComputeSimilarity(context.Background(), "/a.mp4", "/b.mp4", DefaultGeometry())
	if !vserrors.IsEngineFailure(err) {
		t.Fatalf("expected engine failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data") {
		t.Errorf("error should carry diagnostic text: %v", err)
	}
	assertRemoved(t, runner.reportPaths())
}

func TestFFmpegEngineMissingAggregate(t *testing.T) {
	runner := &fakeFFmpeg{content: func(string) string { return "n:1 Y:0.5\n" }}

	engine := NewFFmpegEngine(runner, t.TempDir(), nil)
	_, err := engine.ComputeSimilarity(context.Background(), "/a.mp4", "/b.mp4", DefaultGeometry())
	if !vserrors.IsScoreNotFound(err) {
		t.Fatalf("expected score not found, got %v", err)
	}
	if vserrors.IsEngineFailure(err) {
		t.Error("score not found must be distinct from engine failure")
	}
	assertRemoved(t, runner.reportPaths())
}

func TestFFmpegEngineNoReportWritten(t *testing.T) {
	runner := &fakeFFmpeg{}

	engine := NewFFmpegEngine(runner, t.TempDir(), nil)
	_, err := engine.ComputeSimilarity(context.Background(), "/a.mp4", "/b.mp4", DefaultGeometry())
	if !vserrors.IsKind(err, vserrors.KindReportUnreadable) {
		t.Fatalf("expected report unreadable, got %v", err)
	}
}

func TestFFmpegEngineCancellationCleansUp(t *testing.T) {
	runner := &fakeFFmpeg{
		content: func(string) string { return "n:1 Y:0.9 All:0.9\n" },
		delay:   time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	engine := NewFFmpegEngine(runner, t.TempDir(), nil)
	_, err := engine.ComputeSimilarity(ctx, "/a.mp4", "/b.mp4", DefaultGeometry())
	if !vserrors.IsEngineFailure(err) {
		t.Fatalf("expected engine failure, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline in chain, got %v", err)
	}
	assertRemoved(t, runner.reportPaths())
}

func TestConcurrentComparisons(t *testing.T) {
	dir := t.TempDir()
	pairs := [][2]string{
		{writeInput(t, dir, "a1.mp4"), writeInput(t, dir, "b1.mp4")},
		{writeInput(t, dir, "a2.mp4"), writeInput(t, dir, "b2.mp4")},
	}
	want := map[string]Score{
		pairs[0][0]: 0.97,
		pairs[1][0]: 0.42,
	}

	runner := &fakeFFmpeg{
		content: func(reference string) string {
			return fmt.Sprintf("n:1 All:0.1\nn:2 All:%g\n", float64(want[reference]))
		},
		delay: 5 * time.Millisecond,
	}
	c := NewClassifier(NewFFmpegEngine(runner, filepath.Join(dir, "work"), nil))

	const rounds = 10
	var wg sync.WaitGroup
	errs := make(chan error, len(pairs)*rounds)
	for _, p := range pairs {
		for range rounds {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := c.Compare(context.Background(), p[0], p[1])
				if err != nil {
					errs <- err
					return
				}
				if res.Score != want[p[0]] {
					errs <- fmt.Errorf("%s scored %v, want %v", p[0], res.Score, want[p[0]])
				}
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	paths := runner.reportPaths()
	seen := make(map[string]bool)
	for _, p := range paths {
		if seen[p] {
			t.Errorf("report path %s reused", p)
		}
		seen[p] = true
	}
	assertRemoved(t, paths)
}
