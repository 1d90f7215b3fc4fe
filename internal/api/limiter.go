package api

import (
	"sync"
)

const (
	defaultRenderPerIP = 4
	renderMaxTotal     = 64
)

// renderLimiter tracks in-flight chart renders per IP and globally.
type renderLimiter struct {
	mu       sync.Mutex
	inFlight map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

func newRenderLimiter(maxPerIP int) *renderLimiter {
	if maxPerIP < 1 {
		maxPerIP = defaultRenderPerIP
	}
	return &renderLimiter{
		inFlight: make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: renderMaxTotal,
	}
}

// acquire attempts to reserve a render slot for ip.
// Returns false if the IP or global limit has been reached.
func (l *renderLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal || l.inFlight[ip] >= l.maxPerIP {
		return false
	}
	l.inFlight[ip]++
	l.total++
	return true
}

// release frees a slot taken by acquire.
func (l *renderLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inFlight[ip]--
	l.total--
	if l.inFlight[ip] <= 0 {
		delete(l.inFlight, ip)
	}
}

func (l *renderLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight[ip]
}
