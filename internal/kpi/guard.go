package kpi

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchKey identifies one aggregation request.
type FetchKey struct {
	WorkshopID int64
	Window     Window
}

func (k FetchKey) String() string {
	return fmt.Sprintf("%d:%d:%d", k.WorkshopID, k.Window.From.UnixNano(), k.Window.To.UnixNano())
}

// FetchGuard suppresses redundant aggregation requests. It remembers the key
// of the last successful fetch and collapses concurrent requests for the same
// key into a single in-flight call.
type FetchGuard struct {
	mu      sync.Mutex
	last    FetchKey
	hasLast bool
	group   singleflight.Group
}

// NewFetchGuard constructs a guard with no fetch history.
func NewFetchGuard() *FetchGuard {
	return &FetchGuard{}
}

// ShouldFetch reports whether a request for the key would do new work. True
// when forced, when no previous fetch succeeded, or when any component of the
// key differs from the last successful one.
func (g *FetchGuard) ShouldFetch(key FetchKey, force bool) bool {
	if force {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.hasLast {
		return true
	}
	return g.last.WorkshopID != key.WorkshopID || !g.last.Window.Equal(key.Window)
}

// Do runs fn unless the guard decides the request is redundant, in which case
// it returns the zero aggregate with ran=false. Concurrent calls for the same
// key share one execution instead of queuing. The remembered key is updated
// only when fn succeeds, so a failing request is retried on the next relevant
// filter change but not spuriously.
func (g *FetchGuard) Do(ctx context.Context, key FetchKey, force bool, fn func(context.Context) (Aggregate, error)) (agg Aggregate, ran bool, err error) {
	if !g.ShouldFetch(key, force) {
		return Aggregate{}, false, nil
	}
	result := g.group.DoChan(key.String(), func() (interface{}, error) {
		value, err := fn(ctx)
		if err != nil {
			return Aggregate{}, err
		}
		g.mu.Lock()
		g.last = key
		g.hasLast = true
		g.mu.Unlock()
		return value, nil
	})
	select {
	case <-ctx.Done():
		return Aggregate{}, false, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return Aggregate{}, false, res.Err
		}
		return res.Val.(Aggregate), true, nil
	}
}

// Reset forgets the last successful fetch so the next request always runs.
func (g *FetchGuard) Reset() {
	g.mu.Lock()
	g.hasLast = false
	g.mu.Unlock()
}
