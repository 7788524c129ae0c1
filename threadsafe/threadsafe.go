// Package threadsafe implements the thread-safe context (spec.md §4.6):
// an immutable compiled pattern shared by N workers, each borrowing an
// exclusively-owned matcher.Context from a pool for the duration of one
// callback, with no locking on the hot path beyond the pool's own
// acquire/release (following the teacher's sync.Pool-backed SearchState
// pattern).
package threadsafe

import (
	"sync"

	"github.com/obinexus/monoglot-rift-sub000/matcher"
	"github.com/obinexus/monoglot-rift-sub000/policy"
)

// Context wraps an immutable compiled pattern and vends per-invocation
// mutable matcher.Context values to concurrent callers. The wrapped
// compiled form is never mutated after construction and is safe to read
// from any number of goroutines without synchronization; publication of a
// Context (e.g. assigning it to a shared variable) happens-before any
// Execute that observes it.
type Context struct {
	pattern *matcher.Compiled
	limits  policy.LimitConfig
	manager *policy.Manager
	pool    sync.Pool
}

// New builds a thread-safe wrapper around a compiled pattern. limits is
// the effective backtrack-limit config every pooled matcher.Context is
// constructed with; manager is shared read-only across all of them (its
// strategies are stateless selectors — the mutable stagnation counters
// live in each call's own policy.BacktrackState, not in the manager).
func New(pattern *matcher.Compiled, limits policy.LimitConfig, manager *policy.Manager) *Context {
	c := &Context{pattern: pattern, limits: limits, manager: manager}
	c.pool = sync.Pool{
		New: func() any {
			return matcher.NewContext(pattern, limits, manager)
		},
	}
	return c
}

// Callback is invoked with an exclusively-owned matcher.Context. It must
// not retain mc beyond the call — Execute returns it to the pool on
// return, after which another worker may acquire and mutate it.
type Callback func(mc *matcher.Context, userData any) error

// Execute acquires an unused matcher.Context from the pool, invokes fn
// with it, and releases it back to the pool before returning fn's error.
// This is the only operation the core exposes for running matches across
// worker-supplied threads: no coroutine or cooperative scheduler is
// provided or assumed.
func (c *Context) Execute(fn Callback, userData any) error {
	mc := c.pool.Get().(*matcher.Context)
	defer func() {
		mc.Reset(0)
		c.pool.Put(mc)
	}()
	return fn(mc, userData)
}

// Pattern exposes the immutable compiled pattern for read-only inspection
// (e.g. GroupNames, Source) outside of Execute.
func (c *Context) Pattern() *matcher.Compiled { return c.pattern }
