package screenshots

import (
	"sync"
	"time"
)

// dedupWindow is how long a path stays suppressed after an accepted
// screenshot. Filesystem watchers commonly fire several events for one file
// (create, then writes); everything inside the window collapses into the
// first capture.
const dedupWindow = 5 * time.Second

// deduper suppresses repeat events for the same path inside a cooldown
// window. After the window expires the path may be captured again (a
// re-saved screenshot is a new capture).
type deduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func newDeduper(ttl time.Duration) *deduper {
	return &deduper{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// Accept reports whether the path should be processed now, recording it when
// accepted. Expired entries are evicted on the way through.
func (d *deduper) Accept(path string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for p, at := range d.seen {
		if now.Sub(at) >= d.ttl {
			delete(d.seen, p)
		}
	}

	if at, ok := d.seen[path]; ok && now.Sub(at) < d.ttl {
		return false
	}
	d.seen[path] = now
	return true
}
