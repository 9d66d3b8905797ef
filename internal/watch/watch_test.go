package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestIsMP4(t *testing.T) {
	tests := map[string]bool{
		"a.mp4":      true,
		"A.MP4":      true,
		"a.mov":      false,
		"a.mp4.part": false,
		"mp4":        false,
	}
	for path, want := range tests {
		if got := IsMP4(path); got != want {
			t.Errorf("IsMP4(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcherHandlesSettledFilesOnce(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var handled []string
	done := make(chan struct{}, 4)
	handler := func(_ context.Context, path string) error {
		mu.Lock()
		handled = append(handled, path)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}

	w := New(dir, handler, WithSettle(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never became ready")
	}

	target := filepath.Join(dir, "clip.mp4")
	f, err := os.Create(target)
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		_, _ = f.WriteString("chunk")
		time.Sleep(20 * time.Millisecond)
	}
	_ = f.Close()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	// A later write to the same path does not trigger a second run.
	if err := os.WriteFile(target, []byte("more"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(400 * time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != target {
		t.Errorf("handled = %v, want [%s]", handled, target)
	}
}

func TestWatcherCustomMatcher(t *testing.T) {
	dir := t.TempDir()
	done := make(chan string, 1)
	w := New(dir, func(_ context.Context, path string) error {
		done <- path
		return nil
	}, WithSettle(50*time.Millisecond), WithMatcher(func(p string) bool { return filepath.Ext(p) == ".mov" }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	<-w.Ready()

	target := filepath.Join(dir, "clip.mov")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-done:
		if got != target {
			t.Errorf("handled %s, want %s", got, target)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
}

func TestWatcherRunIsSingleUse(t *testing.T) {
	w := New(t.TempDir(), func(context.Context, string) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never became ready")
	}
	cancel()
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("first Run: %v", err)
	}

	if err := w.Run(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Run = %v, want ErrAlreadyStarted", err)
	}
}
