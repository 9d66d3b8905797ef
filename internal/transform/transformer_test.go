package transform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/ffprobe"
	"github.com/five82/vidsim/internal/history"
	"github.com/five82/vidsim/internal/reporter"
	"github.com/five82/vidsim/internal/similarity"
)

// fakeEncoder writes the output file named by the last argument.
type fakeEncoder struct {
	mu      sync.Mutex
	calls   [][]string
	failFor string
}

func (f *fakeEncoder) Run(_ context.Context, args []string, stderr io.Writer) error {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()

	output := args[len(args)-1]
	if err := os.WriteFile(output, []byte("partial"), 0o644); err != nil {
		return err
	}
	if f.failFor != "" && strings.Contains(strings.Join(args, " "), f.failFor) {
		_, _ = io.WriteString(stderr, "Conversion failed!\n")
		return errors.New("exit status 1")
	}
	_, _ = io.WriteString(stderr, "frame=  100 fps=50 q=23.0 size=  100kB time=00:00:05.00 bitrate= 163.8kbits/s speed=2.0x\r")
	return os.WriteFile(output, []byte("encoded-output"), 0o644)
}

// fakeProber reports output for files fakeEncoder finished and info for
// everything else.
type fakeProber struct {
	info   *ffprobe.MediaInfo
	output *ffprobe.MediaInfo
	err    error
}

func (f fakeProber) Probe(_ context.Context, path string) (*ffprobe.MediaInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	src := f.info
	if data, err := os.ReadFile(path); err == nil && string(data) == "encoded-output" && f.output != nil {
		src = f.output
	}
	info := *src
	return &info, nil
}

type fakeComparer struct {
	score similarity.Score
	err   error
}

func (f fakeComparer) Compare(_ context.Context, reference, distorted string) (similarity.Result, error) {
	if f.err != nil {
		return similarity.Result{}, f.err
	}
	return similarity.Result{
		Score:     f.score,
		Rating:    similarity.Classify(float64(f.score)),
		Reference: reference,
		Distorted: distorted,
	}, nil
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (m *memoryRecorder) Record(_ context.Context, e history.Entry) (history.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return e, nil
}

type eventReporter struct {
	reporter.NullReporter
	mu        sync.Mutex
	started   []reporter.TransformInfo
	progress  int
	completed []reporter.TransformOutcome
	warnings  []string
	batch     *reporter.BatchSummary
}

func (e *eventReporter) TransformStarted(info reporter.TransformInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = append(e.started, info)
}

func (e *eventReporter) TransformProgress(reporter.ProgressSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress++
}

func (e *eventReporter) TransformComplete(o reporter.TransformOutcome) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed = append(e.completed, o)
}

func (e *eventReporter) Warning(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.warnings = append(e.warnings, msg)
}

func (e *eventReporter) BatchComplete(s reporter.BatchSummary) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batch = &s
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("source-video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions(outputDir string) Options {
	return Options{
		OutputDir:        outputDir,
		BackgroundVolume: 0.1,
		CRF:              23,
		Preset:           "veryfast",
		AudioBitrateKbps: 128,
		CompareAfter:     true,
		Workers:          1,
	}
}

func fixedRandomizer() *Randomizer {
	return NewRandomizer(Ranges{
		CropMin: 0.02, CropMax: 0.02,
		SaturationMin: 1, SaturationMax: 1,
		SpeedMin: 1.01, SpeedMax: 1.01,
	}, 1)
}

func withAudio() fakeProber {
	return fakeProber{
		info:   &ffprobe.MediaInfo{Duration: 10, Width: 1080, Height: 1920, VideoCodec: "hevc", HasAudio: true, AudioCodec: "aac"},
		output: &ffprobe.MediaInfo{Duration: 9.9, Width: 1058, Height: 1880, VideoCodec: "h264", HasAudio: true, AudioCodec: "aac"},
	}
}

func TestProcessSuccess(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	input := writeInput(t, inDir, "clip.mp4")
	enc := &fakeEncoder{}
	rec := &memoryRecorder{}
	rep := &eventReporter{}

	tr := New(enc, withAudio(), fixedRandomizer(), testOptions(outDir),
		WithComparer(fakeComparer{score: 0.97}), WithRecorder(rec), WithReporter(rep))

	outcome, err := tr.Process(context.Background(), input)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if filepath.Dir(outcome.Output) != outDir {
		t.Errorf("output %s not in %s", outcome.Output, outDir)
	}
	name := strings.TrimSuffix(filepath.Base(outcome.Output), ".mp4")
	if len(name) != OutputNameLength {
		t.Errorf("output name %q has length %d", name, len(name))
	}
	if _, err := os.Stat(input); err != nil {
		t.Errorf("input was removed: %v", err)
	}
	if outcome.OutputSize != uint64(len("encoded-output")) {
		t.Errorf("OutputSize = %d", outcome.OutputSize)
	}
	if outcome.Comparison == nil || outcome.Comparison.Rating != similarity.RatingAlmostIdentical {
		t.Errorf("unexpected comparison %+v", outcome.Comparison)
	}

	args := strings.Join(enc.calls[0], " ")
	for _, want := range []string{"crop=iw*0.98:ih*0.98", "setpts=PTS/1.01", "-af atempo=1.01", "-map_metadata -1"} {
		if !strings.Contains(args, want) {
			t.Errorf("encode args missing %q: %s", want, args)
		}
	}

	if len(rec.entries) != 1 || rec.entries[0].Source != history.SourceTransform || rec.entries[0].Score == nil {
		t.Errorf("unexpected history %+v", rec.entries)
	}
	if len(rep.started) != 1 || len(rep.completed) != 1 || rep.progress == 0 {
		t.Errorf("events started=%d completed=%d progress=%d", len(rep.started), len(rep.completed), rep.progress)
	}
	if rep.completed[0].Score == nil || *rep.completed[0].Score != 0.97 {
		t.Errorf("completion event missing score: %+v", rep.completed[0])
	}
	if outcome.Validation == nil || !outcome.Validation.IsValid() {
		t.Errorf("expected passing validation, got %+v", outcome.Validation)
	}
	if len(rep.warnings) != 0 {
		t.Errorf("unexpected warnings %v", rep.warnings)
	}
}

func TestProcessValidationMismatchWarns(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	input := writeInput(t, inDir, "clip.mp4")
	rep := &eventReporter{}

	prober := withAudio()
	prober.output = &ffprobe.MediaInfo{Duration: 10, Width: 1080, Height: 1920, VideoCodec: "h264"}

	outcome, err := New(&fakeEncoder{}, prober, fixedRandomizer(), testOptions(outDir), WithReporter(rep)).
		Process(context.Background(), input)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Validation == nil || outcome.Validation.IsValid() {
		t.Fatalf("expected failed validation, got %+v", outcome.Validation)
	}
	if len(outcome.Validation.Failures()) != 2 {
		t.Errorf("Failures() = %v", outcome.Validation.Failures())
	}
	if len(rep.warnings) != 1 || !strings.Contains(rep.warnings[0], "Output validation failed") {
		t.Errorf("warnings = %v", rep.warnings)
	}
	if _, err := os.Stat(outcome.Output); err != nil {
		t.Errorf("output removed after failed validation: %v", err)
	}
}

func TestProcessWithoutAudioSkipsAudioFilters(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	input := writeInput(t, inDir, "silent.mov")
	bg := writeInput(t, inDir, "background.mp3")
	enc := &fakeEncoder{}

	opts := testOptions(outDir)
	opts.BackgroundAudio = bg
	prober := fakeProber{
		info:   &ffprobe.MediaInfo{Duration: 4, Width: 720, Height: 1280, VideoCodec: "h264"},
		output: &ffprobe.MediaInfo{Duration: 3.96, Width: 704, Height: 1254, VideoCodec: "h264"},
	}

	if _, err := New(enc, prober, fixedRandomizer(), opts).Process(context.Background(), input); err != nil {
		t.Fatalf("Process: %v", err)
	}
	args := strings.Join(enc.calls[0], " ")
	if !strings.Contains(args, "-an") || strings.Contains(args, "atempo") || strings.Contains(args, bg) {
		t.Errorf("expected no audio handling: %s", args)
	}
}

func TestProcessBackgroundMix(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	input := writeInput(t, inDir, "clip.mp4")
	bg := writeInput(t, inDir, "background.mp3")
	enc := &fakeEncoder{}

	opts := testOptions(outDir)
	opts.BackgroundAudio = bg
	if _, err := New(enc, withAudio(), fixedRandomizer(), opts).Process(context.Background(), input); err != nil {
		t.Fatalf("Process: %v", err)
	}
	args := strings.Join(enc.calls[0], " ")
	if !strings.Contains(args, "[1:a]volume=0.1[a2]") || !strings.Contains(args, "-i "+bg) {
		t.Errorf("expected background mix: %s", args)
	}
}

func TestProcessMissingBackgroundWarns(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	input := writeInput(t, inDir, "clip.mp4")
	rep := &eventReporter{}

	opts := testOptions(outDir)
	opts.BackgroundAudio = filepath.Join(inDir, "missing.mp3")
	if _, err := New(&fakeEncoder{}, withAudio(), fixedRandomizer(), opts, WithReporter(rep)).
		Process(context.Background(), input); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(rep.warnings) != 1 || !strings.Contains(rep.warnings[0], "Background audio") {
		t.Errorf("expected background warning, got %v", rep.warnings)
	}
}

func TestProcessEncodeFailureRemovesPartialOutput(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	input := writeInput(t, inDir, "clip.mp4")
	enc := &fakeEncoder{failFor: "clip.mp4"}

	_, err := New(enc, withAudio(), fixedRandomizer(), testOptions(outDir)).Process(context.Background(), input)
	if err == nil {
		t.Fatal("expected encode failure")
	}
	entries, _ := os.ReadDir(outDir)
	if len(entries) != 0 {
		t.Errorf("partial output left behind: %v", entries)
	}
}

func TestProcessCompareFailureIsWarning(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	input := writeInput(t, inDir, "clip.mp4")
	rec := &memoryRecorder{}
	rep := &eventReporter{}
	cmpErr := vserrors.NewScoreNotFoundError("SSIM score not found in output")

	outcome, err := New(&fakeEncoder{}, withAudio(), fixedRandomizer(), testOptions(outDir),
		WithComparer(fakeComparer{err: cmpErr}), WithRecorder(rec), WithReporter(rep)).
		Process(context.Background(), input)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Comparison != nil || !vserrors.IsScoreNotFound(outcome.CompareErr) {
		t.Errorf("unexpected comparison state %+v", outcome)
	}
	if len(rep.warnings) != 1 || len(rec.entries) != 1 || rec.entries[0].Error == "" {
		t.Errorf("warnings=%v history=%+v", rep.warnings, rec.entries)
	}
}

func TestProcessErrors(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	input := writeInput(t, inDir, "clip.mp4")
	probeErr := vserrors.NewFFprobeParseError("no video stream found")

	if _, err := New(&fakeEncoder{}, withAudio(), fixedRandomizer(), testOptions(outDir)).
		Process(context.Background(), filepath.Join(inDir, "missing.mp4")); !vserrors.IsKind(err, vserrors.KindPath) {
		t.Errorf("missing input error = %v", err)
	}

	if _, err := New(&fakeEncoder{}, fakeProber{err: probeErr}, fixedRandomizer(), testOptions(outDir)).
		Process(context.Background(), input); !errors.Is(err, probeErr) {
		t.Errorf("probe error = %v", err)
	}
}

func TestBatch(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	for _, name := range []string{"a.mp4", "b.MOV", "broken.mp4", "skip.mkv"} {
		writeInput(t, inDir, name)
	}
	rep := &eventReporter{}
	enc := &fakeEncoder{failFor: "broken.mp4"}

	opts := testOptions(outDir)
	opts.Workers = 2
	tr := New(enc, withAudio(), fixedRandomizer(), opts,
		WithComparer(fakeComparer{score: 0.9}), WithReporter(rep))

	result, err := tr.Batch(context.Background(), inDir)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(result.Outcomes) != 2 || len(result.Failures) != 1 {
		t.Fatalf("outcomes=%d failures=%d", len(result.Outcomes), len(result.Failures))
	}
	if _, ok := result.Failures[filepath.Join(inDir, "broken.mp4")]; !ok {
		t.Errorf("expected broken.mp4 failure, got %v", result.Failures)
	}
	if rep.progress != 0 {
		t.Errorf("progress events with parallel workers: %d", rep.progress)
	}
	if rep.batch == nil || rep.batch.SuccessfulCount != 2 || rep.batch.TotalFiles != 3 {
		t.Errorf("unexpected batch summary %+v", rep.batch)
	}
	if avg, ok := rep.batch.AverageScore(); !ok || avg != 0.9 {
		t.Errorf("AverageScore() = %v, %v", avg, ok)
	}
	for _, name := range []string{"a.mp4", "b.MOV", "broken.mp4"} {
		if _, err := os.Stat(filepath.Join(inDir, name)); err != nil {
			t.Errorf("input %s removed: %v", name, err)
		}
	}
}

func TestBatchEmptyDir(t *testing.T) {
	tr := New(&fakeEncoder{}, withAudio(), fixedRandomizer(), testOptions(t.TempDir()))
	_, err := tr.Batch(context.Background(), t.TempDir())
	if !vserrors.IsNoFilesFound(err) {
		t.Errorf("expected no-files-found, got %v", err)
	}
}

func ExampleAtempoChain() {
	fmt.Println(AtempoChain(3.0))
	// Output: [1.5 2]
}
