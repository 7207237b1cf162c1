package tymws

import (
	"sync"

	"golang.org/x/time/rate"
)

// HandshakeLimiter throttles upgrade attempts per remote address. Optional:
// a Server without one negotiates every handshake it is given.
type HandshakeLimiter struct {
	mu      sync.Mutex
	remotes map[string]*rate.Limiter
	// Number of handshakes allowed per second per remote.
	rps int
	// Number of bursts allowed.
	burst int
}

func NewHandshakeLimiter(rps, burst int) *HandshakeLimiter {
	return &HandshakeLimiter{
		remotes: make(map[string]*rate.Limiter),
		rps:     rps,
		burst:   burst,
	}
}

func (l *HandshakeLimiter) allow(remote string) bool {
	if remote == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.remotes[remote]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
		l.remotes[remote] = limiter
	}

	return limiter.Allow()
}
