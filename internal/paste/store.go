package paste

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/livepaste/internal/domain"
)

// Store is the process-local shared record. Last writer wins.
type Store struct {
	mu         sync.RWMutex
	content    *string
	expiry     *time.Time
	persistent *string

	ttl      time.Duration
	clock    clockwork.Clock
	recorder domain.PasteRecorder
}

var _ domain.PasteStore = (*Store)(nil)

// NewStore creates an empty store. recorder may be nil.
func NewStore(ttl time.Duration, clock clockwork.Clock, recorder domain.PasteRecorder) *Store {
	return &Store{
		ttl:      ttl,
		clock:    clock,
		recorder: recorder,
	}
}

// Apply writes an edit. Empty content clears the targeted blob. Edits to the
// expiring blob always push the expiry to now+ttl, even when they clear it.
func (s *Store) Apply(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Persistent {
		s.persistent = optional(msg.Content)
		s.recordUpdate(domain.BlobPersistent, msg.Content)
		return
	}

	s.content = optional(msg.Content)
	expiry := s.clock.Now().Add(s.ttl)
	s.expiry = &expiry
	s.recordUpdate(domain.BlobExpiring, msg.Content)
}

// Current returns the expiring blob, clearing it first if it has expired.
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expireLocked() {
		s.recordExpiration(domain.ExpiryTriggerRead)
	}
	return deref(s.content)
}

// Persistent returns the blob that never expires.
func (s *Store) Persistent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deref(s.persistent)
}

// Snapshot copies the raw record without applying expiry.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap domain.Snapshot
	if s.content != nil {
		c := *s.content
		snap.Content = &c
	}
	if s.expiry != nil {
		e := *s.expiry
		snap.Expiry = &e
	}
	if s.persistent != nil {
		p := *s.persistent
		snap.Persistent = &p
	}
	return snap
}

// TTL is the inactivity window for the expiring blob.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// ExpireStale clears the expiring blob if its expiry has passed.
// Returns true when content was actually removed.
func (s *Store) ExpireStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.expireLocked() {
		return false
	}
	s.recordExpiration(domain.ExpiryTriggerSweep)
	return true
}

// StartExpiryTimer clears expired content every interval in the background.
// Returns a stop function. An interval <= 0 starts nothing.
func (s *Store) StartExpiryTimer(interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}

	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				if s.ExpireStale() {
					slog.Debug("Expired paste content", "ttl", s.ttl)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

// expireLocked must be called with mu held for writing. It reports whether
// it removed content; an expiry past due on an already-empty blob is a no-op.
func (s *Store) expireLocked() bool {
	if s.expiry == nil || s.clock.Now().Before(*s.expiry) {
		return false
	}
	if s.content == nil {
		return false
	}
	s.content = nil
	return true
}

func (s *Store) recordUpdate(blob, content string) {
	if s.recorder != nil {
		s.recorder.RecordUpdate(blob, len(content))
	}
}

func (s *Store) recordExpiration(trigger string) {
	if s.recorder != nil {
		s.recorder.RecordExpiration(trigger)
	}
}

func optional(content string) *string {
	if content == "" {
		return nil
	}
	return &content
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
