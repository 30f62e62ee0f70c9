package api

import "sync"

// defaultMaxTotal caps in-flight limited requests across all clients.
const defaultMaxTotal = 256

// clientLimiter tracks in-flight requests per client IP and globally.
// A maxPerIP of zero or less disables the limiter.
type clientLimiter struct {
	mu       sync.Mutex
	inFlight map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

func newClientLimiter(maxPerIP int) *clientLimiter {
	return &clientLimiter{
		inFlight: make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: defaultMaxTotal,
	}
}

// acquire registers a request for ip. It returns false when the per-IP or
// global limit has been reached.
func (l *clientLimiter) acquire(ip string) bool {
	if l.maxPerIP <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal || l.inFlight[ip] >= l.maxPerIP {
		return false
	}
	l.inFlight[ip]++
	l.total++
	return true
}

// release undoes a successful acquire.
func (l *clientLimiter) release(ip string) {
	if l.maxPerIP <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inFlight[ip]--
	l.total--
	if l.inFlight[ip] <= 0 {
		delete(l.inFlight, ip)
	}
}

func (l *clientLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight[ip]
}
