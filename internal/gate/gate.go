// Package gate provides the in-process mutual-exclusion gate that serializes
// store operations. Unlike sync.Mutex, waiting on the gate honors a context.
package gate

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Gate admits one holder at a time. The zero value is not usable; call New.
type Gate struct {
	sem *semaphore.Weighted
}

// New returns an open gate.
func New() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Enter blocks until the gate is free or ctx is done. On success it returns
// a release func that must be called exactly once, typically via defer;
// calling it again is a no-op. On failure it returns ctx.Err() and the gate
// is left unchanged.
//
// A context that is already done never enters, even if the gate is free.
func (g *Gate) Enter(ctx context.Context) (release func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { g.sem.Release(1) }) }, nil
}
