package docsync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/storekit/storefront_backend/internal/core/ports/repositories"
)

// ListController mirrors a whole collection as a decoded []T. Every delivery
// replaces the slice wholesale; ordering is whatever the store's feed emits.
type ListController[T any] struct {
	subscribe func(ctx context.Context, scope Scope) (repositories.CollectionSubscription, error)

	mu      sync.Mutex
	handle  *Handle
	items   []T
	err     error
	updates chan struct{}
}

// NewListController builds a controller over a collection change feed.
func NewListController[T any](
	subscribe func(ctx context.Context, scope Scope) (repositories.CollectionSubscription, error),
) *ListController[T] {
	return &ListController[T]{
		subscribe: subscribe,
		updates:   make(chan struct{}, 1),
	}
}

// SetScope rebinds the controller, tearing down the previous subscription
// synchronously first. Local items reset to empty until the initial snapshot
// arrives.
func (c *ListController[T]) SetScope(ctx context.Context, scope Scope) (*Handle, error) {
	c.closeCurrent()

	sub, err := c.subscribe(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("docsync: open collection subscription for %q: %w", scope, err)
	}

	h := &Handle{scope: scope, close: sub.Close, done: make(chan struct{})}

	c.mu.Lock()
	c.handle = h
	c.items = nil
	c.err = nil
	c.mu.Unlock()

	go c.pump(h, sub)
	return h, nil
}

func (c *ListController[T]) pump(h *Handle, sub repositories.CollectionSubscription) {
	defer close(h.done)
	for snap := range sub.Snapshots() {
		items := make([]T, 0, len(snap.Docs))
		decodeErr := error(nil)
		for _, doc := range snap.Docs {
			var item T
			if err := json.Unmarshal(doc.Data, &item); err != nil {
				decodeErr = &SubscriptionError{Scope: h.scope, Err: err}
				break
			}
			items = append(items, item)
		}
		if decodeErr != nil {
			c.recordErr(h, decodeErr)
			continue
		}
		c.replace(h, items)
	}
	if err := sub.Err(); err != nil {
		c.recordErr(h, &SubscriptionError{Scope: h.scope, Err: err})
	}
}

func (c *ListController[T]) replace(h *Handle, items []T) {
	c.mu.Lock()
	if c.handle != h {
		c.mu.Unlock()
		return
	}
	c.items = items
	c.err = nil
	c.mu.Unlock()
	c.notify()
}

func (c *ListController[T]) recordErr(h *Handle, err error) {
	c.mu.Lock()
	if c.handle != h {
		c.mu.Unlock()
		return
	}
	c.err = err
	c.mu.Unlock()
	c.notify()
}

func (c *ListController[T]) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Snapshot returns the current decoded collection and any recorded
// subscription error.
func (c *ListController[T]) Snapshot() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items, c.err
}

// Updates signals whenever the mirrored collection or error state changes.
func (c *ListController[T]) Updates() <-chan struct{} { return c.updates }

// Close tears down the live subscription, if any.
func (c *ListController[T]) Close() { c.closeCurrent() }

func (c *ListController[T]) closeCurrent() {
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
