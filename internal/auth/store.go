// Package auth holds the proxy's login and key-creation state: the
// in-memory pending authorization map bridging a new-key request to its
// SSO callback, and the session cookie identifying the logged-in account.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alexjbarnes/esi-proxy/internal/models"
)

const (
	// DefaultPendingLifetime controls how long a pending authorization
	// remains valid.
	DefaultPendingLifetime = 10 * time.Minute

	// DefaultSweepInterval controls how often expired entries are reaped.
	DefaultSweepInterval = 5 * time.Minute
)

// PendingStore maps unguessable state tokens to pending new-key requests.
// One mutex covers request access and the sweep. Entries never leave the
// process.
type PendingStore struct {
	mu       sync.Mutex
	entries  map[string]models.PendingAuth
	lifetime time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewPendingStore creates an empty store. Zero durations fall back to the
// defaults. The sweep only runs while Run is active.
func NewPendingStore(logger *slog.Logger, lifetime, interval time.Duration) *PendingStore {
	if lifetime <= 0 {
		lifetime = DefaultPendingLifetime
	}

	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &PendingStore{
		entries:  make(map[string]models.PendingAuth),
		lifetime: lifetime,
		interval: interval,
		now:      time.Now,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Put stores p under a fresh state token and returns the token.
// CreatedAt is stamped when unset.
func (s *PendingStore) Put(p models.PendingAuth) (string, error) {
	state, err := NewStateToken()
	if err != nil {
		return "", fmt.Errorf("generating state token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}

	s.entries[state] = p

	return state, nil
}

// Take retrieves and deletes the entry for state. It returns false if the
// token is unknown, empty, or older than the lifetime.
func (s *PendingStore) Take(state string) (models.PendingAuth, bool) {
	if state == "" {
		return models.PendingAuth{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.entries[state]
	if !ok {
		return models.PendingAuth{}, false
	}

	delete(s.entries, state)

	if s.expired(p) {
		return models.PendingAuth{}, false
	}

	return p, true
}

// Len returns the number of entries, expired or not.
func (s *PendingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Run sweeps expired entries every interval until ctx is cancelled or
// Stop is called.
func (s *PendingStore) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop terminates Run. Safe to call more than once.
func (s *PendingStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// sweep removes expired entries. A panic is logged and the next tick
// runs normally.
func (s *PendingStore) sweep() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pending auth sweep panicked", slog.Any("panic", r))
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	for k, p := range s.entries {
		if s.expired(p) {
			delete(s.entries, k)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("swept pending auth entries",
			slog.Int("removed", removed),
			slog.Int("remaining", len(s.entries)),
		)
	}
}

func (s *PendingStore) expired(p models.PendingAuth) bool {
	return s.now().Sub(p.CreatedAt) > s.lifetime
}
