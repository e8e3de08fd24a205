package spacetraveling

import (
	"sync"
	"time"
)

// RenderLimiter caps on-demand post renders per client IP within a sliding
// window.
type RenderLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	stop   chan struct{}
	once   sync.Once
}

// NewRenderLimiter allows max renders per IP per window. Stop releases the
// cleanup goroutine.
func NewRenderLimiter(max int, window time.Duration) *RenderLimiter {
	l := &RenderLimiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		stop:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *RenderLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			cutoff := now.Add(-l.window)
			l.mu.Lock()
			for ip, hits := range l.hits {
				if kept := pruneHits(hits, cutoff); len(kept) == 0 {
					delete(l.hits, ip)
				} else {
					l.hits[ip] = kept
				}
			}
			l.mu.Unlock()
		}
	}
}

func pruneHits(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Check reports whether the IP is under the limit without recording.
func (l *RenderLimiter) Check(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := pruneHits(l.hits[ip], time.Now().Add(-l.window))
	l.hits[ip] = kept
	return len(kept) < l.max
}

// Record registers a render for ip.
func (l *RenderLimiter) Record(ip string) {
	l.mu.Lock()
	l.hits[ip] = append(l.hits[ip], time.Now())
	l.mu.Unlock()
}

func (l *RenderLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
