package preview

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/wangtile/internal/config"
)

// EditLimiter throttles one viewer's edits with a sliding window.
type EditLimiter struct {
	mu      sync.Mutex
	enabled bool
	max     int
	window  time.Duration
	edits   []time.Time
	now     func() time.Time
}

// NewEditLimiter creates a limiter from cfg. A disabled config or a
// non-positive MaxEdits allows everything.
func NewEditLimiter(cfg config.EditRateConfig) *EditLimiter {
	window := time.Duration(cfg.WindowSeconds) * time.Second
	if window <= 0 {
		window = time.Second
	}
	return &EditLimiter{
		enabled: cfg.Enabled && cfg.MaxEdits > 0,
		max:     cfg.MaxEdits,
		window:  window,
		now:     time.Now,
	}
}

// Allow records an edit and reports whether it is within the limit. When it
// is not, the returned duration is how long until the oldest edit expires.
func (l *EditLimiter) Allow() (bool, time.Duration) {
	if !l.enabled {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.edits[:0]
	for _, t := range l.edits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.edits = kept

	if len(l.edits) >= l.max {
		return false, l.edits[0].Add(l.window).Sub(now)
	}
	l.edits = append(l.edits, now)
	return true, 0
}

// Reset forgets all recorded edits.
func (l *EditLimiter) Reset() {
	l.mu.Lock()
	l.edits = nil
	l.mu.Unlock()
}
