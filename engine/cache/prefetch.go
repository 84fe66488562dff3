package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultPrefetchDelay is how long a hover must rest on a model before its
// trims are fetched.
const DefaultPrefetchDelay = 700 * time.Millisecond

// Timer is the part of *time.Timer the prefetcher needs.
type Timer interface {
	Stop() bool
}

// PrefetchOpts configures a Prefetcher.
type PrefetchOpts struct {
	Delay  time.Duration
	Logger *slog.Logger
	// AfterFunc schedules f after d. Defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) Timer
}

// Prefetcher warms caches for a model the user is hovering over. Hovers are
// debounced, and each model is prefetched at most once per session: the
// model is marked before its fetch starts.
type Prefetcher struct {
	ctx   context.Context
	fetch func(context.Context, int) error
	opts  PrefetchOpts

	mu      sync.Mutex
	seq     uint64
	pending Timer
	done    map[int]struct{}
	wg      sync.WaitGroup
}

// NewPrefetcher creates a Prefetcher that calls fetch(ctx, modelID).
func NewPrefetcher(ctx context.Context, fetch func(context.Context, int) error, opts PrefetchOpts) *Prefetcher {
	if opts.Delay <= 0 {
		opts.Delay = DefaultPrefetchDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	return &Prefetcher{ctx: ctx, fetch: fetch, opts: opts, done: make(map[int]struct{})}
}

// Hover schedules a prefetch for modelID, replacing any pending hover.
func (p *Prefetcher) Hover(modelID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.done[modelID]; ok {
		return
	}
	if p.pending != nil {
		p.pending.Stop()
	}
	p.seq++
	seq := p.seq
	p.pending = p.opts.AfterFunc(p.opts.Delay, func() { p.fire(seq, modelID) })
}

// Cancel drops the pending hover, if any.
func (p *Prefetcher) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
	p.seq++
}

// Wait blocks until prefetches already started have finished.
func (p *Prefetcher) Wait() { p.wg.Wait() }

// Prefetched reports whether modelID was already prefetched (or is running).
func (p *Prefetcher) Prefetched(modelID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.done[modelID]
	return ok
}

func (p *Prefetcher) fire(seq uint64, modelID int) {
	p.mu.Lock()
	if seq != p.seq {
		p.mu.Unlock()
		return
	}
	p.pending = nil
	if _, ok := p.done[modelID]; ok {
		p.mu.Unlock()
		return
	}
	p.done[modelID] = struct{}{}
	p.wg.Add(1)
	p.mu.Unlock()

	defer p.wg.Done()
	if err := p.fetch(p.ctx, modelID); err != nil {
		p.opts.Logger.Warn("prefetch failed", "model_id", modelID, "err", err)
		return
	}
	p.opts.Logger.Debug("prefetched model", "model_id", modelID)
}
