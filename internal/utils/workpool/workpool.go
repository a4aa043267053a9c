package workpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of concurrent backing-store operations for one
// logical consumer. It is a thin wrapper over a weighted semaphore so the
// acquire/release pairing is impossible to get wrong at call sites.
type Pool struct {
	sem *semaphore.Weighted
}

func New(capacity int64) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{sem: semaphore.NewWeighted(capacity)}
}

// Do runs fn while holding one slot. The slot is released on every exit
// path, including a panic inside fn.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
