package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// memoryWindow is the single-process approximation of the sliding window,
// used when Redis is unavailable. The mutex makes check-and-record
// linearizable per process; counters are not shared across processes.
type memoryWindow struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

func newMemoryWindow() *memoryWindow {
	return &memoryWindow{entries: make(map[string][]time.Time)}
}

func (m *memoryWindow) admit(userID string, cfg Config, now time.Time) Verdict {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.prune(userID, cfg, now)

	if len(live) >= cfg.MaxRequests {
		retry := live[0].Add(cfg.Window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Verdict{
			Reason:     fmt.Sprintf("rate limit exceeded: max %d requests per %s", cfg.MaxRequests, cfg.Window),
			RetryAfter: retry,
		}
	}

	m.entries[userID] = append(live, now)
	return Verdict{
		Allowed:   true,
		Reason:    "OK",
		Remaining: cfg.MaxRequests - len(live) - 1,
	}
}

func (m *memoryWindow) count(userID string, cfg Config, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prune(userID, cfg, now))
}

// prune drops timestamps older than the window. Caller holds the lock. The
// user's entry itself is never deleted; it simply holds zero or more live
// timestamps.
func (m *memoryWindow) prune(userID string, cfg Config, now time.Time) []time.Time {
	cutoff := now.Add(-cfg.Window)
	recorded := m.entries[userID]

	live := recorded[:0]
	for _, ts := range recorded {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	m.entries[userID] = live
	return live
}
