package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"newsdigest/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    expires_at INTEGER
);
CREATE TABLE IF NOT EXISTS time_index (
    namespace TEXT NOT NULL,
    id        TEXT NOT NULL,
    ts        INTEGER NOT NULL,
    PRIMARY KEY (namespace, id)
);
CREATE INDEX IF NOT EXISTS time_index_ns_ts ON time_index (namespace, ts);
`

// SQLiteStore implements ports.Store over an embedded SQLite database.
// TTLs are enforced lazily: expired rows read as absent and are purged on
// access. The clock is injectable so expiry is testable without sleeping.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.Store = (*SQLiteStore)(nil)

// New opens (or creates) the database at path and ensures the schema.
// A nil clock defaults to time.Now.
func New(path string, now func() time.Time) (*SQLiteStore, error) {
	if now == nil {
		now = time.Now
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db, now: now}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Exists reports whether key holds a live (non-expired) value.
func (s *SQLiteStore) Exists(ctx context.Context, key string) (bool, error) {
	query, args, err := sq.Select("COUNT(1)").
		From("kv").
		Where(sq.Eq{"key": key}).
		Where(s.liveClause()).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}

	return count > 0, nil
}

// Put writes value under key. A zero ttl means the value never expires.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query, args, err := sq.Replace("kv").
		Columns("key", "value", "expires_at").
		Values(key, value, s.expiry(ttl)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build put query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	return nil
}

// PutIfAbsent writes value only when key is absent or expired; it reports
// whether the write happened. Usable as a short-lived claim record.
func (s *SQLiteStore) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := s.Put(ctx, key, value, ttl); err != nil {
		return false, err
	}

	return true, nil
}

// Get returns the value stored under key, or ports.ErrNotFound when the key
// is absent or expired. Expired rows are purged on read.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := sq.Select("value", "expires_at").
		From("kv").
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var (
		value     []byte
		expiresAt sql.NullInt64
	)
	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	if s.expired(expiresAt) {
		_, _ = s.Delete(ctx, key)
		return nil, ports.ErrNotFound
	}

	return value, nil
}

// GetMany fetches all live values for keys in a single round trip. Missing
// and expired keys are simply absent from the result map.
func (s *SQLiteStore) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	query, args, err := sq.Select("key", "value").
		From("kv").
		Where(sq.Eq{"key": keys}).
		Where(s.liveClause()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bulk get query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bulk get: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan bulk get row: %w", err)
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bulk get rows: %w", err)
	}

	return result, nil
}

// Delete removes keys and returns how many rows were actually deleted.
func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	query, args, err := sq.Delete("kv").
		Where(sq.Eq{"key": keys}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete keys: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete rows affected: %w", err)
	}

	return int(affected), nil
}

// ListKeys returns all live keys beginning with prefix.
func (s *SQLiteStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := sq.Select("key").
		From("kv").
		Where(sq.Expr("key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")).
		Where(s.liveClause()).
		OrderBy("key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}

	return keys, nil
}

// IndexByTime records id under namespace ranked by ts. Re-indexing an id
// replaces its rank.
func (s *SQLiteStore) IndexByTime(ctx context.Context, namespace, id string, ts time.Time) error {
	query, args, err := sq.Replace("time_index").
		Columns("namespace", "id", "ts").
		Values(namespace, id, ts.UnixMilli()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build index query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("index %s/%s: %w", namespace, id, err)
	}

	return nil
}

// RemoveFromIndex drops id from the namespace ranking.
func (s *SQLiteStore) RemoveFromIndex(ctx context.Context, namespace, id string) error {
	query, args, err := sq.Delete("time_index").
		Where(sq.Eq{"namespace": namespace, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build unindex query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("unindex %s/%s: %w", namespace, id, err)
	}

	return nil
}

// RangeByTimeDesc returns ids in namespace ordered most-recent-first.
func (s *SQLiteStore) RangeByTimeDesc(ctx context.Context, namespace string, offset, limit int) ([]string, error) {
	query, args, err := sq.Select("id").
		From("time_index").
		Where(sq.Eq{"namespace": namespace}).
		OrderBy("ts DESC", "id DESC").
		Offset(uint64(offset)).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build range query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", namespace, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan range id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("range rows: %w", err)
	}

	return ids, nil
}

// CountIndex returns the number of ids ranked under namespace.
func (s *SQLiteStore) CountIndex(ctx context.Context, namespace string) (int, error) {
	query, args, err := sq.Select("COUNT(1)").
		From("time_index").
		Where(sq.Eq{"namespace": namespace}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", namespace, err)
	}

	return count, nil
}

func (s *SQLiteStore) expiry(ttl time.Duration) any {
	if ttl <= 0 {
		return nil
	}
	return s.now().Add(ttl).UnixMilli()
}

func (s *SQLiteStore) expired(expiresAt sql.NullInt64) bool {
	return expiresAt.Valid && expiresAt.Int64 <= s.now().UnixMilli()
}

func (s *SQLiteStore) liveClause() sq.Sqlizer {
	return sq.Or{
		sq.Eq{"expires_at": nil},
		sq.Gt{"expires_at": s.now().UnixMilli()},
	}
}

func escapeLike(prefix string) string {
	// Record keys contain ':' and URLs; '%' and '_' are the only LIKE
	// metacharacters that could slip in via an identifier.
	out := make([]rune, 0, len(prefix))
	for _, r := range prefix {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
