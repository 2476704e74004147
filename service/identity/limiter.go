package identity

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultFailureRetention is how long a name's failure count is remembered
// after its last failed attempt (or after its block ends).
const DefaultFailureRetention = 24 * time.Hour

type attempt struct {
	failures     int
	inFlight     int
	blockedUntil time.Time
}

// LoginLimiter counts consecutive failed logins per username and blocks the
// name once the threshold is hit. A login must Reserve a slot before
// comparing credentials, and the slots outstanding never exceed the failures
// the name has left, so parallel guesses cannot overshoot the threshold.
// State lives only in this process; idle entries age out of the cache.
type LoginLimiter struct {
	mu          sync.Mutex
	attempts    *ttlcache.Cache[string, *attempt]
	maxFailures int
	block       time.Duration
	retention   time.Duration
	now         func() time.Time
}

func NewLoginLimiter(maxFailures int, block, retention time.Duration) *LoginLimiter {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if block <= 0 {
		block = 15 * time.Minute
	}
	if retention <= 0 {
		retention = DefaultFailureRetention
	}
	return &LoginLimiter{
		attempts: ttlcache.New[string, *attempt](
			ttlcache.WithDisableTouchOnHit[string, *attempt](),
		),
		maxFailures: maxFailures,
		block:       block,
		retention:   retention,
		now:         time.Now,
	}
}

// lookup returns the live entry for username, clearing a block that has run
// out. The failure count survives the block. Callers hold l.mu.
func (l *LoginLimiter) lookup(username string) *attempt {
	item := l.attempts.Get(username)
	if item == nil {
		return nil
	}
	a := item.Value()
	if !a.blockedUntil.IsZero() && !l.now().Before(a.blockedUntil) {
		a.blockedUntil = time.Time{}
	}
	return a
}

func (l *LoginLimiter) remaining(a *attempt) time.Duration {
	if a == nil || a.blockedUntil.IsZero() {
		return 0
	}
	return a.blockedUntil.Sub(l.now())
}

// Check returns the time left on an active block, or zero if the username
// is not blocked.
func (l *LoginLimiter) Check(username string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining(l.lookup(username))
}

// Reserve claims an attempt slot for username. A zero result means the
// caller may compare credentials and must then call RecordSuccess,
// RecordFailure or Release. Otherwise it is how long the caller should wait.
func (l *LoginLimiter) Reserve(username string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts.DeleteExpired()

	a := l.lookup(username)
	if remaining := l.remaining(a); remaining > 0 {
		return remaining
	}
	if a == nil {
		a = &attempt{}
		l.attempts.Set(username, a, l.retention)
	}
	// Past the threshold (a block that has run out) one attempt at a time
	// is allowed, and its failure blocks the name again.
	allowed := max(1, l.maxFailures-a.failures)
	if a.inFlight >= allowed {
		return l.block
	}
	a.inFlight++
	return 0
}

// Release returns a reserved slot without counting the attempt either way.
func (l *LoginLimiter) Release(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a := l.lookup(username); a != nil && a.inFlight > 0 {
		a.inFlight--
	}
}

func (l *LoginLimiter) RecordFailure(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.lookup(username)
	if a == nil {
		a = &attempt{}
	}
	if a.inFlight > 0 {
		a.inFlight--
	}
	a.failures++
	ttl := l.retention
	if a.failures >= l.maxFailures {
		a.blockedUntil = l.now().Add(l.block)
		ttl += l.block
	}
	l.attempts.Set(username, a, ttl)
}

func (l *LoginLimiter) RecordSuccess(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts.Delete(username)
}

// Tracked reports how many usernames currently hold limiter state.
func (l *LoginLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts.DeleteExpired()
	return l.attempts.Len()
}
