// Package rate limits requests per client with one token bucket each.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter struct {
	expiry   time.Duration
	burst    int
	limitRPS float64

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stop chan struct{}
	once sync.Once
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLimiter allows each client limitRPS requests per second with bursts of
// burst. Clients silent for longer than expiry are forgotten.
func NewLimiter(burst int, expiry time.Duration, limitRPS float64) *Limiter {
	l := &Limiter{
		expiry:   expiry,
		burst:    burst,
		limitRPS: limitRPS,
		clients:  make(map[string]*clientLimiter),
		stop:     make(chan struct{}),
	}
	go l.janitor(time.Minute)
	return l
}

// Allow reports whether client may make a request now.
func (l *Limiter) Allow(client string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.limitRPS), l.burst)}
		l.clients[client] = cl
	}
	cl.lastAccess = now
	return cl.limiter.AllowN(now, 1)
}

// Clients returns the number of clients currently tracked.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, v := range l.clients {
		if now.Sub(v.lastAccess) > l.expiry {
			delete(l.clients, id)
		}
	}
}

func (l *Limiter) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-t.C:
			l.sweep(now)
		}
	}
}

// Close stops forgetting idle clients.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}
