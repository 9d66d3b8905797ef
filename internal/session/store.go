// Package session keeps per-user chat state between messages.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	vserrors "github.com/five82/vidsim/internal/errors"
	"github.com/five82/vidsim/internal/logging"
	"github.com/five82/vidsim/internal/util"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 30 * time.Minute

// Key identifies the chat user a session belongs to.
type Key int64

// Snapshot is a copy of a session's state.
type Snapshot struct {
	Key         Key
	ID          string
	Uploads     []string
	ProfileLink string
	UpdatedAt   time.Time
}

type entry struct {
	id          string
	uploads     []string
	profileLink string
	updatedAt   time.Time
}

// Store holds sessions keyed by user. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	logger   *logging.Logger
	sessions map[Key]*entry
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a Store whose sessions expire after ttl without activity.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:      ttl,
		now:      time.Now,
		logger:   logging.Nop(),
		sessions: make(map[Key]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session's unique id, creating the session if needed. The
// id changes once a session expires or is cleared.
func (s *Store) ID(key Key) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touch(key).id
}

// AddUpload records a received file and returns how many are pending.
func (s *Store) AddUpload(key Key, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.touch(key)
	e.uploads = append(e.uploads, path)
	return len(e.uploads)
}

// TakeUploads removes and returns the first n pending uploads. It reports
// false, leaving the session unchanged, when fewer than n are pending.
func (s *Store) TakeUploads(key Key, n int) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || len(e.uploads) < n {
		return nil, false
	}
	taken := append([]string(nil), e.uploads[:n]...)
	e.uploads = append([]string(nil), e.uploads[n:]...)
	e.updatedAt = s.now()
	return taken, true
}

// SetProfileLink records a profile link awaiting a count reply.
func (s *Store) SetProfileLink(key Key, link string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(key).profileLink = link
}

// TakeProfileLink removes and returns the pending profile link.
func (s *Store) TakeProfileLink(key Key) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.profileLink == "" {
		return "", false
	}
	link := e.profileLink
	e.profileLink = ""
	e.updatedAt = s.now()
	return link, true
}

// Get returns a copy of the session, if it exists and has not expired.
func (s *Store) Get(key Key) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{
		Key:         key,
		ID:          e.id,
		Uploads:     append([]string(nil), e.uploads...),
		ProfileLink: e.profileLink,
		UpdatedAt:   e.updatedAt,
	}, true
}

// Clear drops the session and deletes its pending uploads.
func (s *Store) Clear(key Key) {
	s.mu.Lock()
	e, ok := s.sessions[key]
	delete(s.sessions, key)
	s.mu.Unlock()
	if ok {
		s.removeFiles(e.uploads)
	}
}

// Sweep drops expired sessions and deletes their pending uploads. Returns
// how many sessions were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	var expired []*entry
	for key, e := range s.sessions {
		if s.expired(e) {
			expired = append(expired, e)
			delete(s.sessions, key)
		}
	}
	s.mu.Unlock()

	for _, e := range expired {
		s.removeFiles(e.uploads)
	}
	if len(expired) > 0 {
		s.logger.Debug("Expired sessions swept", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len returns the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// touch returns a live session for key, replacing an expired one. Caller holds mu.
func (s *Store) touch(key Key) *entry {
	e, ok := s.sessions[key]
	if ok && s.expired(e) {
		s.removeFiles(e.uploads)
		ok = false
	}
	if !ok {
		e = &entry{id: uuid.NewString()}
		s.sessions[key] = e
	}
	e.updatedAt = s.now()
	return e
}

// live returns the session for key unless it is missing or expired. Caller holds mu.
func (s *Store) live(key Key) (*entry, bool) {
	e, ok := s.sessions[key]
	if !ok || s.expired(e) {
		return nil, false
	}
	return e, true
}

func (s *Store) expired(e *entry) bool {
	return s.now().Sub(e.updatedAt) > s.ttl
}

func (s *Store) removeFiles(paths []string) {
	for _, p := range paths {
		if err := util.RemoveIfExists(p); err != nil {
			s.logger.Warn("Failed to remove session file", "error", vserrors.NewCleanupError(p, err))
		}
	}
}
