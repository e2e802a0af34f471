package pgdoc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/storekit/storefront_backend/internal/apperrors"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
)

// subscription is the shared lifecycle for document and collection feeds.
// Errors from the asynchronous push path are captured as state, never thrown;
// Err surfaces them after the snapshot channel closes.
type subscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

func (sub *subscription) setErr(err error) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.err == nil {
		sub.err = err
	}
}

func (sub *subscription) Err() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}

func (sub *subscription) Close() {
	sub.closeOnce.Do(func() {
		sub.cancel()
		_ = sub.pubsub.Close()
	})
}

type docSubscription struct {
	subscription
	ch chan portsrepo.DocSnapshot
}

func (sub *docSubscription) Snapshots() <-chan portsrepo.DocSnapshot { return sub.ch }

// SubscribeDoc opens a change feed for a single document. The feed delivers
// the current state immediately and then re-reads the document on every
// change notification, so a missed pub/sub message is healed by the next one.
func (s *Store) SubscribeDoc(ctx context.Context, path string) (portsrepo.DocSubscription, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("change subscriptions require a redis client")
	}

	ctx, cancel := context.WithCancel(ctx)
	pubsub := s.redis.Subscribe(ctx, channelPrefix+path)
	sub := &docSubscription{
		subscription: subscription{pubsub: pubsub, cancel: cancel},
		ch:           make(chan portsrepo.DocSnapshot),
	}

	go func() {
		defer close(sub.ch)
		if !sub.emit(ctx, s, path) {
			return
		}
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				if !sub.emit(ctx, s, path) {
					return
				}
			}
		}
	}()
	return sub, nil
}

// emit reads the document and delivers a snapshot; it reports whether the
// feed should continue.
func (sub *docSubscription) emit(ctx context.Context, s *Store, path string) bool {
	snap := portsrepo.DocSnapshot{Path: path}
	doc, err := s.Get(ctx, path)
	switch {
	case err == nil:
		snap.Data = doc.Data
		snap.Exists = true
	case errors.Is(err, apperrors.ErrNotFound):
		// Absence is a legitimate snapshot: the default empty value.
	default:
		sub.setErr(err)
		return false
	}

	select {
	case sub.ch <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

type collSubscription struct {
	subscription
	ch chan portsrepo.CollectionSnapshot
}

func (sub *collSubscription) Snapshots() <-chan portsrepo.CollectionSnapshot { return sub.ch }

// SubscribeCollection opens a change feed for a whole collection, delivering
// the full current contents on every change.
func (s *Store) SubscribeCollection(ctx context.Context, collection string) (portsrepo.CollectionSubscription, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("change subscriptions require a redis client")
	}

	ctx, cancel := context.WithCancel(ctx)
	pubsub := s.redis.Subscribe(ctx, channelPrefix+collection)
	sub := &collSubscription{
		subscription: subscription{pubsub: pubsub, cancel: cancel},
		ch:           make(chan portsrepo.CollectionSnapshot),
	}

	go func() {
		defer close(sub.ch)
		if !sub.emit(ctx, s, collection) {
			return
		}
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				if !sub.emit(ctx, s, collection) {
					return
				}
			}
		}
	}()
	return sub, nil
}

func (sub *collSubscription) emit(ctx context.Context, s *Store, collection string) bool {
	docs, err := s.List(ctx, collection, portsrepo.Query{})
	if err != nil {
		sub.setErr(err)
		return false
	}
	select {
	case sub.ch <- portsrepo.CollectionSnapshot{Collection: collection, Docs: docs}:
		return true
	case <-ctx.Done():
		return false
	}
}
