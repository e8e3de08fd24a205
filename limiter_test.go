package spacetraveling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// admit records a render for ip when the limiter allows it.
func admit(l *RenderLimiter, ip string) bool {
	if !l.Check(ip) {
		return false
	}
	l.Record(ip)
	return true
}

func TestRenderLimiterBudget(t *testing.T) {
	l := NewRenderLimiter(2, time.Minute)
	defer l.Stop()

	got := []bool{
		admit(l, "203.0.113.10"),
		admit(l, "203.0.113.10"),
		admit(l, "203.0.113.10"),
		admit(l, "203.0.113.11"),
	}
	assert.Equal(t, []bool{true, true, false, true}, got)
}

func TestRenderLimiterWindowSlides(t *testing.T) {
	l := NewRenderLimiter(1, 100*time.Millisecond)
	defer l.Stop()
	ip := "203.0.113.20"

	assert.True(t, admit(l, ip))
	assert.False(t, l.Check(ip))
	assert.Eventually(t, func() bool { return l.Check(ip) }, time.Second, 20*time.Millisecond)
}

func TestRenderLimiterCheckIsReadOnly(t *testing.T) {
	l := NewRenderLimiter(1, time.Minute)
	defer l.Stop()
	ip := "203.0.113.40"

	for i := 0; i < 3; i++ {
		assert.True(t, l.Check(ip))
	}
	l.Record(ip)
	assert.False(t, l.Check(ip))
}

func TestRenderLimiterCleanupDropsIdleClients(t *testing.T) {
	l := NewRenderLimiter(1, 50*time.Millisecond)
	defer l.Stop()
	l.Record("203.0.113.50")

	assert.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		_, ok := l.hits["203.0.113.50"]
		return !ok
	}, time.Second, 20*time.Millisecond)
}

func TestRenderLimiterStopIsIdempotent(t *testing.T) {
	l := NewRenderLimiter(1, time.Minute)
	l.Stop()
	assert.NotPanics(t, l.Stop)
}
