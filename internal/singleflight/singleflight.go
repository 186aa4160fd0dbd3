package singleflight

import (
	"context"
	"sync"
)

// Group coalesces concurrent calls that share a key. The first caller for a
// key becomes the owner and runs the function; callers that arrive while the
// owner is in flight wait for the owner's result instead of duplicating work.
type Group struct {
	mu sync.Mutex
	m  map[string]*call
}

// call represents an active or completed function call.
type call struct {
	done chan struct{}
	val  interface{}
	err  error
}

// New creates a new singleflight Group.
func New() *Group {
	return &Group{
		m: make(map[string]*call),
	}
}

// Do executes fn, making sure only one execution is in flight for a given
// key at a time. Duplicate callers wait for the original to complete and
// receive the same results; shared reports whether the result came from
// another caller's execution. A waiting caller is released early when its
// context is canceled; the owner's execution is unaffected.
func (g *Group) Do(ctx context.Context, key string, fn func() (interface{}, error)) (val interface{}, err error, shared bool) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err, true
		case <-ctx.Done():
			return nil, ctx.Err(), true
		}
	}

	c := &call{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()

	g.mu.Lock()
	if g.m[key] == c {
		delete(g.m, key)
	}
	g.mu.Unlock()
	close(c.done)

	return c.val, c.err, false
}

// Forget drops the in-flight call for key so the next Do starts fresh.
// Waiters already attached to the dropped call still receive its result.
func (g *Group) Forget(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}
