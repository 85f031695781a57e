package scheduler

import (
	"sync"
	"time"

	"github.com/altsen/autoscorer-sub000/pkg/executor"
	"github.com/altsen/autoscorer-sub000/pkg/metrics"
)

// breakerKey identifies a circuit-breaker bucket, per spec.md §4.4: "a
// circuit-breaker per (executor_kind, image_registry)".
type breakerKey struct {
	kind     executor.Kind
	registry string
}

type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

// circuitBreaker tracks consecutive-failure counts per (executor, registry)
// bucket and opens for a cool-down window after a configured threshold.
type circuitBreaker struct {
	mu        sync.Mutex
	states    map[breakerKey]*breakerState
	threshold int
	cooldown  time.Duration
}

func newCircuitBreaker(threshold int, cooldown time.Duration) *circuitBreaker {
	return &circuitBreaker{
		states:    make(map[breakerKey]*breakerState),
		threshold: threshold,
		cooldown:  cooldown,
	}
}

// Open reports whether the bucket for (kind, registry) is currently open
// (i.e. the Scheduler should redirect to the fallback executor).
func (b *circuitBreaker) Open(kind executor.Kind, registry string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.states[breakerKey{kind, registry}]
	if !ok {
		return false
	}
	return time.Now().Before(s.openUntil)
}

// RecordSuccess resets the failure count for (kind, registry).
func (b *circuitBreaker) RecordSuccess(kind executor.Kind, registry string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.states, breakerKey{kind, registry})
}

// RecordFailure increments the failure count and, once it reaches the
// threshold, opens the breaker for the cool-down window.
func (b *circuitBreaker) RecordFailure(kind executor.Kind, registry string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := breakerKey{kind, registry}
	s, ok := b.states[key]
	if !ok {
		s = &breakerState{}
		b.states[key] = s
	}
	s.consecutiveFailures++
	if s.consecutiveFailures >= b.threshold {
		s.openUntil = time.Now().Add(b.cooldown)
		metrics.CircuitBreakerTrips.WithLabelValues(string(kind), registry).Inc()
	}
}
