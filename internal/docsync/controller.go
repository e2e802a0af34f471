// Package docsync bridges the document store's push-based change feeds to
// local aggregate state. A controller owns at most one live subscription at a
// time; switching scope tears the old one down before the new one is opened,
// so a delivery from a stale scope can never land in new-scope state.
package docsync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/storekit/storefront_backend/internal/core/ports/repositories"
)

// Scope is the tenant identity a subscription is bound to, expressed as the
// document or collection path it watches. Controllers compare scopes to
// discard deliveries from a torn-down subscription.
type Scope string

// SubscriptionError is the typed error state recorded when a change feed
// fails asynchronously. It is surfaced from Snapshot rather than panicking or
// crashing the feed consumer.
type SubscriptionError struct {
	Scope Scope
	Err   error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription for %q failed: %v", e.Scope, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// Handle identifies one live subscription. It carries the scope it was opened
// for so tests can assert which tenant slice a controller is actually bound
// to, rather than trusting a bare unsubscribe function.
type Handle struct {
	scope Scope
	close func()
	done  chan struct{}
}

// Scope reports the tenant identity this handle was opened for.
func (h *Handle) Scope() Scope { return h.scope }

// Controller keeps a single JSON document decoded into T and current with the
// remote store. T must round-trip through encoding/json.
type Controller[T any] struct {
	subscribe func(ctx context.Context, scope Scope) (repositories.DocSubscription, error)
	empty     func(scope Scope) T

	mu        sync.Mutex
	handle    *Handle
	state     T
	confirmed T
	err       error
	updates   chan struct{}
}

// NewController builds a controller over a single document. subscribe opens
// the change feed for a scope; empty produces the default aggregate delivered
// when the remote document does not exist.
func NewController[T any](
	subscribe func(ctx context.Context, scope Scope) (repositories.DocSubscription, error),
	empty func(scope Scope) T,
) *Controller[T] {
	return &Controller[T]{
		subscribe: subscribe,
		empty:     empty,
		updates:   make(chan struct{}, 1),
	}
}

// SetScope rebinds the controller to a new tenant slice. The previous
// subscription is torn down synchronously before the new one is established.
// Local state resets to the scope's empty default until the initial snapshot
// arrives.
func (c *Controller[T]) SetScope(ctx context.Context, scope Scope) (*Handle, error) {
	c.closeCurrent()

	sub, err := c.subscribe(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("docsync: open subscription for %q: %w", scope, err)
	}

	h := &Handle{scope: scope, close: sub.Close, done: make(chan struct{})}

	c.mu.Lock()
	c.handle = h
	c.state = c.empty(scope)
	c.confirmed = c.state
	c.err = nil
	c.mu.Unlock()

	go c.pump(h, sub)
	return h, nil
}

// pump drains the feed into local state until the subscription closes.
func (c *Controller[T]) pump(h *Handle, sub repositories.DocSubscription) {
	defer close(h.done)
	for snap := range sub.Snapshots() {
		next := c.empty(h.scope)
		if snap.Exists {
			if err := json.Unmarshal(snap.Data, &next); err != nil {
				c.recordErr(h, &SubscriptionError{Scope: h.scope, Err: err})
				continue
			}
		}
		c.replace(h, next)
	}
	if err := sub.Err(); err != nil {
		c.recordErr(h, &SubscriptionError{Scope: h.scope, Err: err})
	}
}

// replace installs a server snapshot wholesale. Deliveries from a handle that
// is no longer current are dropped.
func (c *Controller[T]) replace(h *Handle, next T) {
	c.mu.Lock()
	if c.handle != h {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.confirmed = next
	c.err = nil
	c.mu.Unlock()
	c.notify()
}

func (c *Controller[T]) recordErr(h *Handle, err error) {
	c.mu.Lock()
	if c.handle != h {
		c.mu.Unlock()
		return
	}
	c.err = err
	c.mu.Unlock()
	c.notify()
}

func (c *Controller[T]) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Snapshot returns the current local aggregate and any recorded subscription
// error. The error is state, not a fault: callers keep the last good value.
func (c *Controller[T]) Snapshot() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.err
}

// Updates signals whenever local state or error state changes. It coalesces
// bursts; consumers re-read via Snapshot.
func (c *Controller[T]) Updates() <-chan struct{} { return c.updates }

// Apply performs an optimistic mutation: mutate produces the next aggregate
// from the last confirmed state, the result is installed locally at once, and
// persist writes it to the store. If persist fails the local state rolls back
// to the last confirmed snapshot and the failure is recorded as error state.
func (c *Controller[T]) Apply(ctx context.Context, mutate func(T) T, persist func(context.Context, T) error) error {
	c.mu.Lock()
	h := c.handle
	next := mutate(c.confirmed)
	c.state = next
	c.mu.Unlock()
	c.notify()

	if err := persist(ctx, next); err != nil {
		c.mu.Lock()
		if c.handle == h {
			c.state = c.confirmed
			c.err = err
		}
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.mu.Lock()
	if c.handle == h {
		c.confirmed = next
		c.err = nil
	}
	c.mu.Unlock()
	return nil
}

// Close tears down the live subscription, if any, and waits for its feed
// goroutine to drain.
func (c *Controller[T]) Close() { c.closeCurrent() }

func (c *Controller[T]) closeCurrent() {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.mu.Unlock()
	if h == nil {
		return
	}
	h.close()
	<-h.done
}
