package repositories

import (
	"context"
	"time"
)

// Document is a point-in-time copy of a stored record. Data is the raw JSON
// payload of the aggregate.
type Document struct {
	Path      string
	Data      []byte
	UpdatedAt time.Time
}

// Query describes an ordered collection read. OrderBy names a top-level JSON
// field inside the document payload; After is an exclusive cursor bound on
// that field.
type Query struct {
	OrderBy    string
	Descending bool
	Limit      int
	After      string
	// TimeField marks OrderBy as an RFC3339 timestamp. Serialized timestamps
	// trim trailing fractional zeros, so they do not compare chronologically
	// as strings; implementations must compare them as instants.
	TimeField bool
	// ForUpdate locks matched rows for the duration of the surrounding
	// transaction. Only meaningful inside RunTransaction.
	ForUpdate bool
}

// DocSnapshot is one delivery from a document subscription. A snapshot with
// Exists=false is the default empty value for a document that does not exist
// (absence is "not yet created", not a fault).
type DocSnapshot struct {
	Path   string
	Data   []byte
	Exists bool
}

// CollectionSnapshot is one delivery from a collection subscription. It
// always carries the full current contents; consumers replace local state
// wholesale rather than merging.
type CollectionSnapshot struct {
	Collection string
	Docs       []Document
}

// DocSubscription is a live change feed for a single document. The channel
// delivers the initial state and then every remote change, in server-observed
// order, and is closed when the subscription ends. Err reports any
// asynchronous delivery failure after the channel closes.
type DocSubscription interface {
	Snapshots() <-chan DocSnapshot
	Err() error
	Close()
}

// CollectionSubscription is a live change feed for a whole collection.
type CollectionSubscription interface {
	Snapshots() <-chan CollectionSnapshot
	Err() error
	Close()
}

// DocumentReadWriter is the transactional subset of the document store:
// point reads and writes plus ordered queries.
type DocumentReadWriter interface {
	// Get returns the document at path, or apperrors.ErrNotFound if absent.
	Get(ctx context.Context, path string) (*Document, error)
	// Set writes data at path. With merge=true, top-level fields absent from
	// data are preserved rather than clobbered.
	Set(ctx context.Context, path string, data []byte, merge bool) error
	// Delete removes the document at path. Deleting an absent document is not
	// an error.
	Delete(ctx context.Context, path string) error
	// List returns the documents directly under collection, ordered per q.
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	// Increment atomically adds one to a numeric top-level field, creating
	// the document with the field at 1 when absent, and returns the new
	// value. Concurrent increments of the same document serialize, so the
	// returned values are unique; inside RunTransaction the underlying lock
	// is held until commit.
	Increment(ctx context.Context, path, field string) (int64, error)
}

// DocumentStore is the full port over the remote document store. It is always
// an explicitly constructed, dependency-injected handle, never a package
// level singleton, so every repository can be tested against an in-memory
// implementation.
type DocumentStore interface {
	DocumentReadWriter

	SubscribeDoc(ctx context.Context, path string) (DocSubscription, error)
	SubscribeCollection(ctx context.Context, collection string) (CollectionSubscription, error)

	// RunTransaction executes fn atomically against the store. Used where a
	// read-then-write sequence must not race (order numbering) and where two
	// documents must change together (checkout: create order + clear cart).
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx DocumentReadWriter) error) error
}
