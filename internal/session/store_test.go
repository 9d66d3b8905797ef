package session

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewStore(ttl, WithClock(clock.Now)), clock
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadsTakeInOrder(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	if n := s.AddUpload(1, "a.mp4"); n != 1 {
		t.Fatalf("AddUpload = %d, want 1", n)
	}
	if _, ok := s.TakeUploads(1, 2); ok {
		t.Fatal("TakeUploads succeeded with one pending upload")
	}
	if n := s.AddUpload(1, "b.mp4"); n != 2 {
		t.Fatalf("AddUpload = %d, want 2", n)
	}
	s.AddUpload(2, "other.mp4")

	got, ok := s.TakeUploads(1, 2)
	if !ok || !reflect.DeepEqual(got, []string{"a.mp4", "b.mp4"}) {
		t.Fatalf("TakeUploads = %v, %v", got, ok)
	}
	snap, ok := s.Get(1)
	if !ok || len(snap.Uploads) != 0 {
		t.Errorf("session 1 after take: %+v", snap)
	}
	if snap, _ := s.Get(2); len(snap.Uploads) != 1 {
		t.Errorf("session 2 affected: %+v", snap)
	}
}

func TestProfileLink(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	if _, ok := s.TakeProfileLink(7); ok {
		t.Fatal("unexpected pending link")
	}
	s.SetProfileLink(7, "https://www.tiktok.com/@u")
	link, ok := s.TakeProfileLink(7)
	if !ok || link != "https://www.tiktok.com/@u" {
		t.Fatalf("TakeProfileLink = %q, %v", link, ok)
	}
	if _, ok := s.TakeProfileLink(7); ok {
		t.Error("link returned twice")
	}
}

func TestExpiryDropsStateAndFiles(t *testing.T) {
	dir := t.TempDir()
	s, clock := newTestStore(time.Minute)

	first := writeFile(t, dir, "first.mp4")
	s.AddUpload(1, first)
	s.SetProfileLink(1, "https://www.tiktok.com/@u")
	oldID := s.ID(1)

	clock.Advance(2 * time.Minute)

	if _, ok := s.Get(1); ok {
		t.Error("expired session still visible")
	}
	if _, ok := s.TakeProfileLink(1); ok {
		t.Error("expired profile link returned")
	}

	// A new upload after expiry starts a fresh session.
	second := writeFile(t, dir, "second.mp4")
	if n := s.AddUpload(1, second); n != 1 {
		t.Errorf("AddUpload after expiry = %d, want 1", n)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Errorf("stale upload not removed: %v", err)
	}
	if s.ID(1) == oldID {
		t.Error("session id reused after expiry")
	}
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	s, clock := newTestStore(time.Minute)

	stale := writeFile(t, dir, "stale.mp4")
	s.AddUpload(1, stale)
	clock.Advance(30 * time.Second)
	fresh := writeFile(t, dir, "fresh.mp4")
	s.AddUpload(2, fresh)
	clock.Advance(45 * time.Second)

	if n := s.Sweep(); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale upload not removed: %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh upload removed: %v", err)
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	s, _ := newTestStore(time.Minute)
	path := writeFile(t, dir, "a.mp4")
	s.AddUpload(3, path)

	s.Clear(3)
	s.Clear(4) // unknown key is a no-op

	if s.Len() != 0 {
		t.Errorf("Len = %d after Clear", s.Len())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("upload not removed: %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := NewStore(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
