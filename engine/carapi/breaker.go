package carapi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/WessleyAI/carbrowse/pkg/fn"
)

// ErrCircuitOpen is returned while the API is considered unavailable.
var ErrCircuitOpen = errors.New("carapi: circuit open")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerOpts configures the client's circuit breaker.
type BreakerOpts struct {
	// FailThreshold is how many consecutive tripping failures open the circuit.
	FailThreshold int
	// Cooldown is how long the circuit stays open before one probe is let through.
	Cooldown time.Duration
	// Trips reports whether err counts as an API outage. Nil counts every error.
	Trips func(error) bool
}

// DefaultBreakerOpts opens after 5 exhausted or failed requests for 30s.
var DefaultBreakerOpts = BreakerOpts{
	FailThreshold: 5,
	Cooldown:      30 * time.Second,
}

type breaker struct {
	mu       sync.Mutex
	opts     BreakerOpts
	state    breakerState
	failures int
	openedAt time.Time
	probing  bool
	now      func() time.Time
}

func newBreaker(opts BreakerOpts) *breaker {
	if opts.FailThreshold <= 0 {
		opts.FailThreshold = DefaultBreakerOpts.FailThreshold
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultBreakerOpts.Cooldown
	}
	return &breaker{opts: opts, now: time.Now}
}

// stateLocked moves open to half-open once the cooldown passed. Caller holds mu.
func (b *breaker) stateLocked() breakerState {
	if b.state == breakerOpen && b.now().Sub(b.openedAt) >= b.opts.Cooldown {
		b.state = breakerHalfOpen
		b.probing = false
	}
	return b.state
}

func (b *breaker) State() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// call runs f unless the circuit is open. Only errors accepted by Trips move
// the breaker; other errors leave it as it was.
func call[T any](b *breaker, ctx context.Context, f func(context.Context) fn.Result[T]) fn.Result[T] {
	b.mu.Lock()
	switch b.stateLocked() {
	case breakerOpen:
		b.mu.Unlock()
		return fn.Err[T](ErrCircuitOpen)
	case breakerHalfOpen:
		if b.probing {
			b.mu.Unlock()
			return fn.Err[T](ErrCircuitOpen)
		}
		b.probing = true
	}
	b.mu.Unlock()

	r := f(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	err := r.Error()
	switch {
	case err == nil:
		b.state = breakerClosed
		b.failures = 0
		b.probing = false
	case b.opts.Trips == nil || b.opts.Trips(err):
		b.failures++
		if b.state == breakerHalfOpen || b.failures >= b.opts.FailThreshold {
			b.state = breakerOpen
			b.openedAt = b.now()
			b.failures = 0
		}
		b.probing = false
	default:
		b.probing = false
	}
	return r
}
