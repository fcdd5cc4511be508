package security

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/novatech/pkg/clock"
)

const (
	DefaultMaxAttempts   = 5
	DefaultBlockDuration = time.Hour
)

type blacklistEntry struct {
	attempts     int
	blockedUntil time.Time
	lastFailure  time.Time
}

// Guard counts failed authentications per client identity and blacklists an
// identity for BlockDuration once it reaches MaxAttempts.
type Guard struct {
	mu            sync.Mutex
	entries       map[string]*blacklistEntry
	maxAttempts   int
	blockDuration time.Duration
	clock         clock.Clock
	logger        *slog.Logger
}

// NewGuard creates a Guard. Non-positive limits fall back to the defaults.
func NewGuard(maxAttempts int, blockDuration time.Duration, clk clock.Clock, logger *slog.Logger) *Guard {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if blockDuration <= 0 {
		blockDuration = DefaultBlockDuration
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		entries:       make(map[string]*blacklistEntry),
		maxAttempts:   maxAttempts,
		blockDuration: blockDuration,
		clock:         clk,
		logger:        logger,
	}
}

// IsBlocked reports whether identity is currently blacklisted.
// An entry whose block has elapsed is evicted, so the next failure counts from 1.
func (g *Guard) IsBlocked(identity string) bool {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[identity]
	if !ok || entry.blockedUntil.IsZero() {
		return false
	}
	if now.Before(entry.blockedUntil) {
		return true
	}

	delete(g.entries, identity)
	return false
}

// RecordFailure counts one failed authentication for identity.
// It returns true when this failure moved the identity into the blocked state.
func (g *Guard) RecordFailure(identity string) bool {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[identity]
	if ok && !entry.blockedUntil.IsZero() && !now.Before(entry.blockedUntil) {
		// block elapsed without an IsBlocked call in between
		ok = false
	}
	if !ok {
		entry = &blacklistEntry{}
		g.entries[identity] = entry
	}

	entry.attempts++
	entry.lastFailure = now

	if entry.attempts >= g.maxAttempts && entry.blockedUntil.IsZero() {
		entry.blockedUntil = now.Add(g.blockDuration)
		g.logger.Warn("client identity blacklisted",
			slog.String("identity", identity),
			slog.Int("attempts", entry.attempts),
			slog.Time("blocked_until", entry.blockedUntil))
		return true
	}
	return false
}

// Reset clears all failure state for identity
func (g *Guard) Reset(identity string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, identity)
}

// Attempts returns the failure count currently held for identity
func (g *Guard) Attempts(identity string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if entry, ok := g.entries[identity]; ok {
		return entry.attempts
	}
	return 0
}

// Sweep drops expired blocks and unblocked entries whose last failure is older than idle
func (g *Guard) Sweep(idle time.Duration) int {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for identity, entry := range g.entries {
		expired := !entry.blockedUntil.IsZero() && !now.Before(entry.blockedUntil)
		stale := entry.blockedUntil.IsZero() && now.Sub(entry.lastFailure) >= idle
		if expired || stale {
			delete(g.entries, identity)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identities
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
