package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage = "send_message"
	ActionSignal      = "signal"
	ActionJoinRoom    = "join_room"
	ActionCreateChat  = "create_chat"
	ActionHTTP        = "http"
)

// Policy is the refill rate and burst size for one action.
type Policy struct {
	Every time.Duration
	Burst int
}

// DefaultPolicies mirrors what the realtime and REST layers expect.
var DefaultPolicies = map[string]Policy{
	// 30 messages per minute, bursts of 10
	ActionSendMessage: {Every: 2 * time.Second, Burst: 10},
	// ICE gathering sends candidates in bursts
	ActionSignal:     {Every: 20 * time.Millisecond, Burst: 100},
	ActionJoinRoom:   {Every: 3 * time.Second, Burst: 20},
	ActionCreateChat: {Every: 6 * time.Second, Burst: 5},
	ActionHTTP:       {Every: 100 * time.Millisecond, Burst: 60},
}

var defaultPolicy = Policy{Every: 3 * time.Second, Burst: 20}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key and action.
type RateLimiter struct {
	policies map[string]Policy
	entries  map[string]*entry
	mutex    sync.Mutex
	idleTTL  time.Duration
	now      func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithPolicies(DefaultPolicies)
}

func NewRateLimiterWithPolicies(policies map[string]Policy) *RateLimiter {
	return &RateLimiter{
		policies: policies,
		entries:  make(map[string]*entry),
		idleTTL:  time.Hour,
		now:      time.Now,
	}
}

// Allow consumes one token for key/action. When denied it also returns how
// long until the next token is available.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := rl.now()
	lim := rl.limiter(key, action, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) limiter(key, action string, now time.Time) *rate.Limiter {
	id := key + ":" + action

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	e, ok := rl.entries[id]
	if !ok {
		p, found := rl.policies[action]
		if !found {
			p = defaultPolicy
		}
		e = &entry{limiter: rate.NewLimiter(rate.Every(p.Every), p.Burst)}
		rl.entries[id] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Cleanup drops buckets that have been idle longer than the TTL.
func (rl *RateLimiter) Cleanup() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	removed := 0
	for id, e := range rl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(rl.entries, id)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}
