package security

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/novatech/pkg/clock"
)

// Route classes with their own request windows
const (
	ClassDefault     = "default"
	ClassLogin       = "login"
	ClassMasterLogin = "master_login"
	ClassContact     = "contact"
	ClassApplication = "application"
	ClassTrialLesson = "trial_lesson"
	ClassAnalytics   = "analytics"
)

// DefaultWindow is the trailing window every route class counts over
const DefaultWindow = 60 * time.Second

// RoutePolicy is the request budget for one route class
type RoutePolicy struct {
	Limit  int
	Window time.Duration
}

// DefaultPolicies returns the per-class budgets applied when nothing is configured
func DefaultPolicies() map[string]RoutePolicy {
	return map[string]RoutePolicy{
		ClassDefault:     {Limit: 100, Window: DefaultWindow},
		ClassLogin:       {Limit: 10, Window: DefaultWindow},
		ClassMasterLogin: {Limit: 5, Window: DefaultWindow},
		ClassContact:     {Limit: 5, Window: DefaultWindow},
		ClassApplication: {Limit: 3, Window: DefaultWindow},
		ClassTrialLesson: {Limit: 5, Window: DefaultWindow},
		ClassAnalytics:   {Limit: 60, Window: DefaultWindow},
	}
}

type windowKey struct {
	identity string
	class    string
}

// Limiter is a sliding-log request counter keyed by client identity and route class.
// Each key keeps the timestamps of its accepted requests inside the trailing window.
type Limiter struct {
	mu      sync.Mutex
	windows map[windowKey][]time.Time
	clock   clock.Clock
	logger  *slog.Logger
}

// NewLimiter creates an empty Limiter
func NewLimiter(clk clock.Clock, logger *slog.Logger) *Limiter {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		windows: make(map[windowKey][]time.Time),
		clock:   clk,
		logger:  logger,
	}
}

// Allow reports whether one more request from identity on routeClass fits in the window.
// Timestamps older than window are dropped first; a rejected call is not recorded.
func (l *Limiter) Allow(identity, routeClass string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return false
	}

	now := l.clock.Now()
	key := windowKey{identity: identity, class: routeClass}

	l.mu.Lock()
	defer l.mu.Unlock()

	stamps := prune(l.windows[key], now.Add(-window))
	if len(stamps) >= limit {
		l.windows[key] = stamps
		l.logger.Debug("rate limit exceeded",
			slog.String("identity", identity),
			slog.String("route_class", routeClass),
			slog.Int("limit", limit))
		return false
	}

	l.windows[key] = append(stamps, now)
	return true
}

// AllowPolicy is Allow with the limit and window taken from p
func (l *Limiter) AllowPolicy(identity, routeClass string, p RoutePolicy) bool {
	return l.Allow(identity, routeClass, p.Limit, p.Window)
}

// Sweep removes keys whose newest request is older than idle and returns how many were dropped
func (l *Limiter) Sweep(idle time.Duration) int {
	cutoff := l.clock.Now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, stamps := range l.windows {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked (identity, route class) keys
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// prune drops the leading timestamps at or before cutoff. stamps is ordered oldest first.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return stamps
	}
	// copy so the dropped prefix can be collected
	kept := make([]time.Time, len(stamps)-i, cap(stamps)-i)
	copy(kept, stamps[i:])
	return kept
}
