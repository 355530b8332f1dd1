package appointment

import (
	"context"
	"sync"
	"time"

	"github.com/thomas7124/aidentalbackend/pkg/logging"
)

// Guard suppresses duplicate booking submissions within a short window.
// Voice channels retry on audio timeouts, so the same utterance can arrive
// twice; the guard is a best-effort heuristic, not a correctness guarantee.
type Guard interface {
	// TryAcquire claims the fingerprint. It returns false if an identical
	// request is already in flight or recently succeeded.
	TryAcquire(ctx context.Context, fingerprint string) (bool, error)
	// Release frees the fingerprint after a terminal failure so a genuine
	// retry is not starved. Success intentionally leaves the entry in place
	// to block replays until the TTL expires.
	Release(ctx context.Context, fingerprint string) error
}

// MemoryGuard is the default in-process Guard: a mutex-protected map of
// fingerprint to expiry. It does not coordinate across instances.
type MemoryGuard struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
	logger  *logging.Logger
}

// NewMemoryGuard creates a MemoryGuard with the given entry TTL.
func NewMemoryGuard(ttl time.Duration, logger *logging.Logger) *MemoryGuard {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryGuard{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// TryAcquire atomically checks and inserts the fingerprint. Expired entries
// are treated as absent, so a repeat request after the TTL window is a new
// submission.
func (g *MemoryGuard) TryAcquire(_ context.Context, fingerprint string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if expiry, ok := g.entries[fingerprint]; ok && g.now().Before(expiry) {
		return false, nil
	}
	g.entries[fingerprint] = g.now().Add(g.ttl)
	return true, nil
}

// Release removes the fingerprint immediately.
func (g *MemoryGuard) Release(_ context.Context, fingerprint string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, fingerprint)
	return nil
}

// Run sweeps expired entries periodically until ctx is cancelled. Lazy expiry
// in TryAcquire keeps the guard correct without it; the sweep only bounds
// memory for fingerprints that are never retried.
func (g *MemoryGuard) Run(ctx context.Context) {
	ticker := time.NewTicker(g.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := g.sweep(); removed > 0 {
				g.logger.Debug("dedup guard: swept expired entries", "removed", removed)
			}
		}
	}
}

func (g *MemoryGuard) sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	removed := 0
	for fp, expiry := range g.entries {
		if !now.Before(expiry) {
			delete(g.entries, fp)
			removed++
		}
	}
	return removed
}
