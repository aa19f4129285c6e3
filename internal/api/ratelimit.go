package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 30 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// tenantLimiter keeps one token bucket per tenant. A nil limiter or a
// non-positive rate allows everything.
type tenantLimiter struct {
	rps   rate.Limit
	burst int

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newTenantLimiter(rps float64, burst int) *tenantLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(rps) + 1
	}
	return &tenantLimiter{rps: rate.Limit(rps), burst: burst, visitors: map[string]*visitor{}, lastSweep: time.Now()}
}

func (l *tenantLimiter) Allow(tenant string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}
	v, ok := l.visitors[tenant]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[tenant] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
