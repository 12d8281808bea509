// Package poller re-runs a fetch on a fixed cadence and keeps the last good result.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	nplog "github.com/voyagen/nowplaying/internal/log"
)

// Polling intervals used by display consumers.
const (
	NowPlayingInterval = 10 * time.Second
	TickerInterval     = 30 * time.Second
)

// Fetch produces a fresh value. It is called with a context bounded by the poll interval.
type Fetch[T any] func(ctx context.Context) (T, error)

// Snapshot is the last successfully fetched value.
type Snapshot[T any] struct {
	Value     T
	FetchedAt time.Time
	// Stale is set when one or more fetches have failed since FetchedAt.
	Stale bool
}

// Poller runs Fetch every interval. A failed fetch keeps the previous value.
// Readers never block on an in-flight fetch.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    Fetch[T]
	onUpdate func(Snapshot[T])
	logger   zerolog.Logger

	busy atomic.Bool

	mu       sync.RWMutex
	snap     Snapshot[T]
	have     bool
	lastErr  error
	failures int
}

// New creates a Poller. onUpdate, if non-nil, is called after every poll with the current snapshot.
func New[T any](name string, interval time.Duration, fetch Fetch[T], onUpdate func(Snapshot[T])) *Poller[T] {
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		onUpdate: onUpdate,
		logger:   nplog.WithComponent("poller").With().Str("poll", name).Logger(),
	}
}

// Start polls immediately and then on every tick. It blocks until ctx is canceled.
func (p *Poller[T]) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs one fetch unless another is still in flight.
func (p *Poller[T]) Poll(ctx context.Context) {
	if !p.busy.CompareAndSwap(false, true) {
		return
	}
	defer p.busy.Store(false)

	fctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()
	v, err := p.fetch(fctx)

	p.mu.Lock()
	if err != nil {
		p.lastErr = err
		p.failures++
		p.snap.Stale = p.have
	} else {
		p.snap = Snapshot[T]{Value: v, FetchedAt: time.Now()}
		p.have = true
		p.lastErr = nil
		p.failures = 0
	}
	snap, have, failures := p.snap, p.have, p.failures
	p.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn().Err(err).Int("consecutive_failures", failures).Msg("poll failed, keeping last value")
	}
	if p.onUpdate != nil && have {
		p.onUpdate(snap)
	}
}

// Latest returns the last good snapshot and whether any fetch has succeeded yet.
func (p *Poller[T]) Latest() (Snapshot[T], bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap, p.have
}

// Err returns the error of the most recent fetch, or nil if it succeeded.
func (p *Poller[T]) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}
