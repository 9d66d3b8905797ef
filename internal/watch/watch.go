// Package watch triggers processing of videos dropped into a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/five82/vidsim/internal/logging"
	"github.com/five82/vidsim/internal/util"
)

// DefaultSettle is how long a file must go without events before it is
// considered fully written.
const DefaultSettle = 2 * time.Second

const queueSize = 256

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("watcher already started")

// Handler processes one settled file.
type Handler func(ctx context.Context, path string) error

// IsMP4 matches .mp4 files, case-insensitively.
func IsMP4(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp4")
}

// Watcher watches a single directory, non-recursively.
type Watcher struct {
	dir     string
	handler Handler
	settle  time.Duration
	match   func(string) bool
	logger  *logging.Logger

	started atomic.Bool
	ready   chan struct{}
	settled chan string
	pending map[string]*time.Timer
	seen    map[string]struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithMatcher overrides the IsMP4 filter.
func WithMatcher(match func(string) bool) Option {
	return func(w *Watcher) {
		if match != nil {
			w.match = match
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for dir.
func New(dir string, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     dir,
		handler: handler,
		settle:  DefaultSettle,
		match:   IsMP4,
		logger:  logging.Nop(),
		ready:   make(chan struct{}),
		settled: make(chan string, queueSize),
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed once the directory is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Each matching path is handled at most
// once, after it has settled. Handlers run one at a time, in settle order.
// A Watcher runs once; later calls return ErrAlreadyStarted.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if err := util.EnsureDirectory(w.dir); err != nil {
		return fmt.Errorf("create watch directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	close(w.ready)
	w.logger.Info("Watching for new videos", "dir", w.dir, "settle", w.settle)

	jobs := make(chan string, queueSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for path := range jobs {
			if ctx.Err() != nil {
				return
			}
			w.logger.Info("New video detected", "path", path)
			if err := w.handler(ctx, path); err != nil {
				w.logger.Error("Processing failed", "path", path, "error", err)
			}
		}
	}()

	defer func() {
		for _, t := range w.pending {
			t.Stop()
		}
		close(jobs)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.match(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)

		case path := <-w.settled:
			delete(w.pending, path)
			if _, done := w.seen[path]; done {
				continue
			}
			if !util.FileExists(path) {
				continue
			}
			w.seen[path] = struct{}{}
			select {
			case jobs <- path:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		select {
		case w.settled <- path:
		case <-ctx.Done():
		}
	})
}
