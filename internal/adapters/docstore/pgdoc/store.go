// Package pgdoc implements the document store port on PostgreSQL. Documents
// live as JSONB rows addressed by hierarchical path; change subscriptions are
// fanned out over Redis pub/sub so every running instance observes writes
// made by any of them.
package pgdoc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/storekit/storefront_backend/internal/apperrors"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
)

// channelPrefix namespaces the Redis pub/sub channels carrying change
// notifications. The payload of every message is the changed document path.
const channelPrefix = "docs:"

// Store is a PostgreSQL-backed document store. It is constructed explicitly
// and injected into repositories; there is no package-level instance.
type Store struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

// NewStore creates a document store over the given connections.
func NewStore(pool *pgxpool.Pool, redisClient *redis.Client) *Store {
	return &Store{pool: pool, redis: redisClient}
}

var _ portsrepo.DocumentStore = (*Store)(nil)

// querier is the subset of pgxpool.Pool and pgx.Tx the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func parentCollection(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func (s *Store) Get(ctx context.Context, path string) (*portsrepo.Document, error) {
	return getDoc(ctx, s.pool, path)
}

func getDoc(ctx context.Context, q querier, path string) (*portsrepo.Document, error) {
	query := `
		SELECT data, updated_at
		FROM documents
		WHERE path = $1;
	`
	doc := portsrepo.Document{Path: path}
	err := q.QueryRow(ctx, query, path).Scan(&doc.Data, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Map db not found error to application specific error
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document %s: %w", path, err)
	}
	return &doc, nil
}

func (s *Store) Set(ctx context.Context, path string, data []byte, merge bool) error {
	if err := setDoc(ctx, s.pool, path, data, merge); err != nil {
		return err
	}
	s.publish(ctx, path)
	return nil
}

func setDoc(ctx context.Context, q querier, path string, data []byte, merge bool) error {
	// Merge keeps top-level fields the patch does not mention; a plain set
	// replaces the payload wholesale.
	action := `data = EXCLUDED.data`
	if merge {
		action = `data = documents.data || EXCLUDED.data`
	}
	query := fmt.Sprintf(`
		INSERT INTO documents (path, collection, data, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (path) DO UPDATE SET %s, updated_at = now();
	`, action)
	if _, err := q.Exec(ctx, query, path, parentCollection(path), data); err != nil {
		return fmt.Errorf("failed to set document %s: %w", path, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	deleted, err := deleteDoc(ctx, s.pool, path)
	if err != nil {
		return err
	}
	if deleted {
		s.publish(ctx, path)
	}
	return nil
}

func deleteDoc(ctx context.Context, q querier, path string) (bool, error) {
	tag, err := q.Exec(ctx, `DELETE FROM documents WHERE path = $1;`, path)
	if err != nil {
		return false, fmt.Errorf("failed to delete document %s: %w", path, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) Increment(ctx context.Context, path, field string) (int64, error) {
	value, err := incrementDoc(ctx, s.pool, path, field)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, path)
	return value, nil
}

// incrementDoc relies on the upsert taking the row lock: the insert arm wins
// for the first caller and every later caller blocks on the conflicting row
// until the holder commits, so returned values never repeat even across
// concurrent transactions.
func incrementDoc(ctx context.Context, q querier, path, field string) (int64, error) {
	query := `
		INSERT INTO documents (path, collection, data, created_at, updated_at)
		VALUES ($1, $2, jsonb_build_object($3::text, 1), now(), now())
		ON CONFLICT (path) DO UPDATE SET
			data = jsonb_set(documents.data, ARRAY[$3::text],
				to_jsonb(COALESCE((documents.data ->> $3)::bigint, 0) + 1)),
			updated_at = now()
		RETURNING (data ->> $3)::bigint;
	`
	var value int64
	if err := q.QueryRow(ctx, query, path, parentCollection(path), field).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to increment %s on document %s: %w", field, path, err)
	}
	return value, nil
}

func (s *Store) List(ctx context.Context, collection string, q portsrepo.Query) ([]portsrepo.Document, error) {
	return listDocs(ctx, s.pool, collection, q)
}

func listDocs(ctx context.Context, qr querier, collection string, q portsrepo.Query) ([]portsrepo.Document, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT path, data, updated_at
		FROM documents
		WHERE collection = $1`)
	args := []any{collection}

	// Trimmed fractional seconds make RFC3339 strings sort out of
	// chronological order, so timestamp fields compare as instants.
	key := `data->>$2`
	if q.TimeField {
		key = `(data->>$2)::timestamptz`
	}

	if q.OrderBy != "" && q.After != "" {
		cmp := ">"
		if q.Descending {
			cmp = "<"
		}
		after := `$3`
		if q.TimeField {
			after = `$3::timestamptz`
		}
		args = append(args, q.OrderBy, q.After)
		fmt.Fprintf(&sb, ` AND %s %s %s`, key, cmp, after)
	}

	if q.OrderBy != "" {
		if len(args) == 1 {
			args = append(args, q.OrderBy)
		}
		direction := "ASC"
		if q.Descending {
			direction = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY %s %s`, key, direction)
	} else {
		sb.WriteString(` ORDER BY path ASC`)
	}

	if q.Limit > 0 {
		fmt.Fprintf(&sb, ` LIMIT %d`, q.Limit)
	}
	if q.ForUpdate {
		sb.WriteString(` FOR UPDATE`)
	}
	sb.WriteString(`;`)

	rows, err := qr.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []portsrepo.Document{}
	for rows.Next() {
		var doc portsrepo.Document
		if err := rows.Scan(&doc.Path, &doc.Data, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row in %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows in %s: %w", collection, err)
	}
	return docs, nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx portsrepo.DocumentReadWriter) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = pgtx.Rollback(ctx) // Ignore rollback error
	}()

	tx := &docTx{tx: pgtx}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	// Notify only after commit so subscribers never observe uncommitted state.
	for _, path := range tx.changed {
		s.publish(ctx, path)
	}
	return nil
}

// docTx adapts a pgx transaction to the DocumentReadWriter port, recording
// changed paths for post-commit notification.
type docTx struct {
	tx      pgx.Tx
	changed []string
}

var _ portsrepo.DocumentReadWriter = (*docTx)(nil)

func (t *docTx) Get(ctx context.Context, path string) (*portsrepo.Document, error) {
	return getDoc(ctx, t.tx, path)
}

func (t *docTx) Set(ctx context.Context, path string, data []byte, merge bool) error {
	if err := setDoc(ctx, t.tx, path, data, merge); err != nil {
		return err
	}
	t.changed = append(t.changed, path)
	return nil
}

func (t *docTx) Delete(ctx context.Context, path string) error {
	deleted, err := deleteDoc(ctx, t.tx, path)
	if err != nil {
		return err
	}
	if deleted {
		t.changed = append(t.changed, path)
	}
	return nil
}

func (t *docTx) List(ctx context.Context, collection string, q portsrepo.Query) ([]portsrepo.Document, error) {
	return listDocs(ctx, t.tx, collection, q)
}

func (t *docTx) Increment(ctx context.Context, path, field string) (int64, error) {
	value, err := incrementDoc(ctx, t.tx, path, field)
	if err != nil {
		return 0, err
	}
	t.changed = append(t.changed, path)
	return value, nil
}

// publish fans a change notification out to both the document channel and its
// collection channel. Notification loss is tolerable (subscribers re-read on
// every message, and the database stays authoritative), so failures only log
// via the returned error being dropped by callers that cannot retry.
func (s *Store) publish(ctx context.Context, path string) {
	if s.redis == nil {
		return
	}
	s.redis.Publish(ctx, channelPrefix+path, path)
	if collection := parentCollection(path); collection != "" {
		s.redis.Publish(ctx, channelPrefix+collection, path)
	}
}
