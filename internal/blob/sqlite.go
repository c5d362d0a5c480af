package blob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore keeps objects in the blobs table. The table is created by the
// database package migrations.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	obj := Object{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		UpdatedAt:   s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (key, content_type, size, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			content_type = excluded.content_type,
			size = excluded.size,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, obj.Key, obj.ContentType, obj.Size, data, obj.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Object{}, fmt.Errorf("storing %s: %w", key, err)
	}
	return obj, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Object, []byte, error) {
	var (
		obj       Object
		data      []byte
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT key, content_type, size, data, updated_at FROM blobs WHERE key = ?
	`, key).Scan(&obj.Key, &obj.ContentType, &obj.Size, &data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Object{}, nil, ErrNotFound
	}
	if err != nil {
		return Object{}, nil, fmt.Errorf("reading %s: %w", key, err)
	}
	obj.UpdatedAt = parseTime(updatedAt)
	return obj, data, nil
}

func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]Object, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, content_type, size, updated_at FROM blobs
		WHERE substr(key, 1, length(?)) = ?
		ORDER BY key
	`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", prefix, err)
	}
	defer rows.Close()

	var objects []Object
	for rows.Next() {
		var (
			obj       Object
			updatedAt string
		)
		if err := rows.Scan(&obj.Key, &obj.ContentType, &obj.Size, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning blob row: %w", err)
		}
		obj.UpdatedAt = parseTime(updatedAt)
		objects = append(objects, obj)
	}
	return objects, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
