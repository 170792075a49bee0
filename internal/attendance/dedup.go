package attendance

import (
	"sync"
	"time"
)

// window remembers when each name was last logged. A name is suppressed
// while less than interval has passed since its mark.
type window struct {
	mu       sync.Mutex
	interval time.Duration
	seen     map[string]time.Time
}

func newWindow(interval time.Duration) *window {
	return &window{
		interval: interval,
		seen:     make(map[string]time.Time),
	}
}

// checkAndMark marks name at now unless it is still inside its interval.
// It returns the previous mark so a failed write can restore it.
func (w *window) checkAndMark(name string, now time.Time) (prev time.Time, had bool, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	prev, had = w.seen[name]
	if had && now.Sub(prev) < w.interval {
		return prev, had, false
	}

	w.seen[name] = now
	return prev, had, true
}

// restore undoes a mark made at at, unless a newer mark replaced it.
func (w *window) restore(name string, at, prev time.Time, had bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if cur, ok := w.seen[name]; !ok || !cur.Equal(at) {
		return
	}
	if had {
		w.seen[name] = prev
	} else {
		delete(w.seen, name)
	}
}

func (w *window) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seen = make(map[string]time.Time)
}

// prune drops marks that can no longer suppress anything.
func (w *window) prune(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for name, at := range w.seen {
		if now.Sub(at) >= w.interval {
			delete(w.seen, name)
			n++
		}
	}
	return n
}

func (w *window) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}
