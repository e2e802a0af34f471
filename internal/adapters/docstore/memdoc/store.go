// Package memdoc is an in-memory implementation of the document store port.
// It honors the full contract (merge writes, ordered queries, change
// subscriptions, transactions) so repositories and the sync controller can be
// tested without a running database.
package memdoc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/storekit/storefront_backend/internal/apperrors"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
)

type entry struct {
	data      []byte
	updatedAt time.Time
}

// Store is an in-memory, path-addressable document store.
type Store struct {
	mu        sync.Mutex
	docs      map[string]entry
	docSubs   map[string][]*docSubscription
	collSubs  map[string][]*collSubscription
	now       func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		docs:     make(map[string]entry),
		docSubs:  make(map[string][]*docSubscription),
		collSubs: make(map[string][]*collSubscription),
		now:      time.Now,
	}
}

var _ portsrepo.DocumentStore = (*Store)(nil)

// parentCollection returns the collection a document path belongs to.
func parentCollection(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func (s *Store) Get(ctx context.Context, path string) (*portsrepo.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(path)
}

func (s *Store) getLocked(path string) (*portsrepo.Document, error) {
	e, ok := s.docs[path]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	data := make([]byte, len(e.data))
	copy(data, e.data)
	return &portsrepo.Document{Path: path, Data: data, UpdatedAt: e.updatedAt}, nil
}

func (s *Store) Set(ctx context.Context, path string, data []byte, merge bool) error {
	s.mu.Lock()
	notify := s.setLocked(path, data, merge)
	s.mu.Unlock()
	notify()
	return nil
}

func (s *Store) setLocked(path string, data []byte, merge bool) func() {
	next := data
	if prev, ok := s.docs[path]; ok && merge {
		merged, err := mergeJSON(prev.data, data)
		if err == nil {
			next = merged
		}
	}
	stored := make([]byte, len(next))
	copy(stored, next)
	s.docs[path] = entry{data: stored, updatedAt: s.now()}
	return s.notifierLocked(path)
}

// mergeJSON overlays the top-level fields of patch onto base, preserving
// fields absent from patch.
func mergeJSON(base, patch []byte) ([]byte, error) {
	var baseMap, patchMap map[string]json.RawMessage
	if err := json.Unmarshal(base, &baseMap); err != nil {
		return nil, fmt.Errorf("merge base is not a JSON object: %w", err)
	}
	if err := json.Unmarshal(patch, &patchMap); err != nil {
		return nil, fmt.Errorf("merge patch is not a JSON object: %w", err)
	}
	for k, v := range patchMap {
		baseMap[k] = v
	}
	return json.Marshal(baseMap)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	_, existed := s.docs[path]
	delete(s.docs, path)
	var notify func()
	if existed {
		notify = s.notifierLocked(path)
	}
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string, q portsrepo.Query) ([]portsrepo.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(collection, q)
}

func (s *Store) listLocked(collection string, q portsrepo.Query) ([]portsrepo.Document, error) {
	prefix := collection + "/"
	docs := []portsrepo.Document{}
	for path, e := range s.docs {
		if !strings.HasPrefix(path, prefix) || strings.Contains(path[len(prefix):], "/") {
			continue
		}
		data := make([]byte, len(e.data))
		copy(data, e.data)
		docs = append(docs, portsrepo.Document{Path: path, Data: data, UpdatedAt: e.updatedAt})
	}

	if q.OrderBy != "" {
		keyOf := func(d portsrepo.Document) string { return topLevelString(d.Data, q.OrderBy) }
		less := func(a, b string) bool { return a < b }
		if q.TimeField {
			// RFC3339 strings with trimmed fractional zeros do not sort
			// chronologically, so timestamp fields compare as instants.
			less = timeLess
		}
		sort.Slice(docs, func(i, j int) bool {
			ki, kj := keyOf(docs[i]), keyOf(docs[j])
			if q.Descending {
				return less(kj, ki)
			}
			return less(ki, kj)
		})
		if q.After != "" {
			filtered := docs[:0]
			for _, d := range docs {
				key := keyOf(d)
				if (q.Descending && less(key, q.After)) || (!q.Descending && less(q.After, key)) {
					filtered = append(filtered, d)
				}
			}
			docs = filtered
		}
	} else {
		sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

// timeLess compares two RFC3339 strings as instants, falling back to string
// order when either does not parse.
func timeLess(a, b string) bool {
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)
	if errA != nil || errB != nil {
		return a < b
	}
	return ta.Before(tb)
}

// topLevelString extracts a top-level JSON field as its comparable string form.
func topLevelString(data []byte, field string) string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ""
	}
	raw, ok := m[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (s *Store) Increment(ctx context.Context, path, field string) (int64, error) {
	s.mu.Lock()
	value, notify, err := s.incrementLocked(path, field)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	notify()
	return value, nil
}

func (s *Store) incrementLocked(path, field string) (int64, func(), error) {
	doc := map[string]json.RawMessage{}
	if e, ok := s.docs[path]; ok {
		if err := json.Unmarshal(e.data, &doc); err != nil {
			return 0, nil, fmt.Errorf("document %s is not a JSON object: %w", path, err)
		}
	}
	var value int64
	if raw, ok := doc[field]; ok {
		if err := json.Unmarshal(raw, &value); err != nil {
			return 0, nil, fmt.Errorf("field %s of document %s is not numeric: %w", field, path, err)
		}
	}
	value++
	raw, err := json.Marshal(value)
	if err != nil {
		return 0, nil, err
	}
	doc[field] = raw
	data, err := json.Marshal(doc)
	if err != nil {
		return 0, nil, err
	}
	return value, s.setLocked(path, data, false), nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx portsrepo.DocumentReadWriter) error) error {
	s.mu.Lock()
	backup := make(map[string]entry, len(s.docs))
	for path, e := range s.docs {
		backup[path] = e
	}
	tx := &memTx{store: s}
	err := fn(ctx, tx)
	if err != nil {
		// Roll the whole transaction back; nothing becomes visible.
		s.docs = backup
	}
	notifiers := tx.notifiers
	s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, notify := range notifiers {
		notify()
	}
	return nil
}

// memTx runs against the already-locked store, collecting change
// notifications to fire after commit.
type memTx struct {
	store     *Store
	notifiers []func()
}

var _ portsrepo.DocumentReadWriter = (*memTx)(nil)

func (t *memTx) Get(ctx context.Context, path string) (*portsrepo.Document, error) {
	return t.store.getLocked(path)
}

func (t *memTx) Set(ctx context.Context, path string, data []byte, merge bool) error {
	t.notifiers = append(t.notifiers, t.store.setLocked(path, data, merge))
	return nil
}

func (t *memTx) Delete(ctx context.Context, path string) error {
	if _, ok := t.store.docs[path]; ok {
		delete(t.store.docs, path)
		t.notifiers = append(t.notifiers, t.store.notifierLocked(path))
	}
	return nil
}

func (t *memTx) List(ctx context.Context, collection string, q portsrepo.Query) ([]portsrepo.Document, error) {
	return t.store.listLocked(collection, q)
}

func (t *memTx) Increment(ctx context.Context, path, field string) (int64, error) {
	value, notify, err := t.store.incrementLocked(path, field)
	if err != nil {
		return 0, err
	}
	t.notifiers = append(t.notifiers, notify)
	return value, nil
}

// notifierLocked captures the subscribers interested in path and returns a
// function that delivers fresh snapshots to them. The returned function must
// be invoked without the store lock held.
func (s *Store) notifierLocked(path string) func() {
	docSubs := append([]*docSubscription(nil), s.docSubs[path]...)
	collection := parentCollection(path)
	collSubs := append([]*collSubscription(nil), s.collSubs[collection]...)
	return func() {
		for _, sub := range docSubs {
			sub.deliver(s.snapshotDoc(path))
		}
		for _, sub := range collSubs {
			sub.deliver(s.snapshotCollection(collection))
		}
	}
}

func (s *Store) snapshotDoc(path string) portsrepo.DocSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[path]
	if !ok {
		return portsrepo.DocSnapshot{Path: path, Exists: false}
	}
	data := make([]byte, len(e.data))
	copy(data, e.data)
	return portsrepo.DocSnapshot{Path: path, Data: data, Exists: true}
}

func (s *Store) snapshotCollection(collection string) portsrepo.CollectionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, _ := s.listLocked(collection, portsrepo.Query{})
	return portsrepo.CollectionSnapshot{Collection: collection, Docs: docs}
}

// subscription channel capacity; tests consume promptly, and a full channel
// drops the intermediate snapshot in favor of a later, fresher one.
const subBuffer = 64

type docSubscription struct {
	store  *Store
	path   string
	ch     chan portsrepo.DocSnapshot
	closed sync.Once
}

func (sub *docSubscription) Snapshots() <-chan portsrepo.DocSnapshot { return sub.ch }
func (sub *docSubscription) Err() error                             { return nil }

func (sub *docSubscription) Close() {
	sub.closed.Do(func() {
		sub.store.mu.Lock()
		subs := sub.store.docSubs[sub.path]
		for i, candidate := range subs {
			if candidate == sub {
				sub.store.docSubs[sub.path] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		sub.store.mu.Unlock()
		close(sub.ch)
	})
}

func (sub *docSubscription) deliver(snap portsrepo.DocSnapshot) {
	defer func() {
		// Send on a channel closed by Close loses the race; drop the snapshot.
		_ = recover()
	}()
	select {
	case sub.ch <- snap:
	default:
	}
}

func (s *Store) SubscribeDoc(ctx context.Context, path string) (portsrepo.DocSubscription, error) {
	sub := &docSubscription{store: s, path: path, ch: make(chan portsrepo.DocSnapshot, subBuffer)}
	s.mu.Lock()
	s.docSubs[path] = append(s.docSubs[path], sub)
	s.mu.Unlock()
	// Deliver the initial state, including "does not exist".
	sub.deliver(s.snapshotDoc(path))
	return sub, nil
}

type collSubscription struct {
	store      *Store
	collection string
	ch         chan portsrepo.CollectionSnapshot
	closed     sync.Once
}

func (sub *collSubscription) Snapshots() <-chan portsrepo.CollectionSnapshot { return sub.ch }
func (sub *collSubscription) Err() error                                    { return nil }

func (sub *collSubscription) Close() {
	sub.closed.Do(func() {
		sub.store.mu.Lock()
		subs := sub.store.collSubs[sub.collection]
		for i, candidate := range subs {
			if candidate == sub {
				sub.store.collSubs[sub.collection] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		sub.store.mu.Unlock()
		close(sub.ch)
	})
}

func (sub *collSubscription) deliver(snap portsrepo.CollectionSnapshot) {
	defer func() {
		_ = recover()
	}()
	select {
	case sub.ch <- snap:
	default:
	}
}

func (s *Store) SubscribeCollection(ctx context.Context, collection string) (portsrepo.CollectionSubscription, error) {
	sub := &collSubscription{store: s, collection: collection, ch: make(chan portsrepo.CollectionSnapshot, subBuffer)}
	s.mu.Lock()
	s.collSubs[collection] = append(s.collSubs[collection], sub)
	s.mu.Unlock()
	sub.deliver(s.snapshotCollection(collection))
	return sub, nil
}
