package app

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

// observerLimiter holds one token bucket per observer. Entries are created
// on first use and kept for the process lifetime; the observer population
// is small enough that no eviction is needed.
type observerLimiter struct {
	mu       sync.Mutex
	limiters map[primitive.ObjectID]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newObserverLimiter(perMinute, burst int) *observerLimiter {
	if burst < 1 {
		burst = 1
	}
	return &observerLimiter{
		limiters: make(map[primitive.ObjectID]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

func (l *observerLimiter) allow(id primitive.ObjectID) bool {
	l.mu.Lock()
	lim, ok := l.limiters[id]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[id] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
