package pulse

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/teranos/deltaconsumer/errors"
)

// WatermarkStore persists the ingestion cursor between cycles.
type WatermarkStore interface {
	// Load returns the stored watermark; ok is false when none was saved.
	Load(ctx context.Context) (since time.Time, ok bool, err error)
	// Save stores since as the new watermark.
	Save(ctx context.Context, since time.Time) error
}

// SQLiteWatermarkStore keeps the watermark in the single-row watermark table.
type SQLiteWatermarkStore struct {
	db *sql.DB
}

// NewSQLiteWatermarkStore creates a watermark store on a migrated database.
func NewSQLiteWatermarkStore(db *sql.DB) *SQLiteWatermarkStore {
	return &SQLiteWatermarkStore{db: db}
}

// Load implements WatermarkStore.
func (s *SQLiteWatermarkStore) Load(ctx context.Context) (time.Time, bool, error) {
	var since string
	err := s.db.QueryRowContext(ctx, `SELECT since FROM watermark WHERE id = 1`).Scan(&since)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "failed to load watermark")
	}
	t, err := time.Parse(time.RFC3339Nano, since)
	if err != nil {
		return time.Time{}, false, errors.Wrapf(err, "stored watermark %q", since)
	}
	return t, true, nil
}

// Save implements WatermarkStore.
func (s *SQLiteWatermarkStore) Save(ctx context.Context, since time.Time) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watermark (id, since, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET since = excluded.since, updated_at = excluded.updated_at
	`, since.UTC().Format(time.RFC3339Nano), now)
	if err != nil {
		return errors.Wrap(err, "failed to save watermark")
	}
	return nil
}

// MemoryWatermarkStore keeps the watermark for the lifetime of the process.
type MemoryWatermarkStore struct {
	mu    sync.Mutex
	since time.Time
	set   bool
}

// Load implements WatermarkStore.
func (m *MemoryWatermarkStore) Load(context.Context) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.since, m.set, nil
}

// Save implements WatermarkStore.
func (m *MemoryWatermarkStore) Save(_ context.Context, since time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.since, m.set = since, true
	return nil
}
