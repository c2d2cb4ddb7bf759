package runtime

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Throttle suppresses repeated notifications for the same sender→receiver
// pair inside a TTL window. Backed by a fixed-capacity expiring cache, so
// memory stays bounded no matter how many pairs show up.
type Throttle struct {
	cache *ristretto.Cache[string, struct{}]
	ttl   time.Duration
}

// NewThrottle holds at most capacity pair entries for ttl each.
// A zero ttl disables throttling: Allow always returns true.
func NewThrottle(capacity int64, ttl time.Duration) (*Throttle, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: capacity * 10,
		MaxCost:     capacity,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Throttle{cache: cache, ttl: ttl}, nil
}

// Allow reports whether a notification for the pair key may be created
// now, and if so opens the suppression window.
func (t *Throttle) Allow(key string) bool {
	if t.ttl <= 0 {
		return true
	}
	if _, seen := t.cache.Get(key); seen {
		return false
	}
	t.cache.SetWithTTL(key, struct{}{}, 1, t.ttl)
	return true
}

// Wait flushes pending cache writes. Only needed by tests that assert on
// the suppression window immediately after Allow.
func (t *Throttle) Wait() { t.cache.Wait() }

func (t *Throttle) Close() { t.cache.Close() }
