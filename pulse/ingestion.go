package pulse

import (
	"context"
	"database/sql"
	"time"

	"github.com/teranos/deltaconsumer/errors"
)

// Ingestion is the history record of one attempt to ingest a delta file.
type Ingestion struct {
	ID          string
	FileID      string
	FileName    string
	FileCreated time.Time
	Status      string

	ErrorKind    string
	ErrorMessage string

	ChangeSets int
	Inserts    int
	Deletes    int

	StartedAt   time.Time
	CompletedAt *time.Time
	DurationMs  *int64
}

// Ingestion status constants
const (
	IngestionStatusRunning   = "running"
	IngestionStatusCompleted = "completed"
	IngestionStatusFailed    = "failed"
)

// IngestionStore handles persistence of ingestion history
type IngestionStore struct {
	db *sql.DB
}

// NewIngestionStore creates a new ingestion store
func NewIngestionStore(db *sql.DB) *IngestionStore {
	return &IngestionStore{db: db}
}

// CreateIngestion inserts a new ingestion record
func (s *IngestionStore) CreateIngestion(ctx context.Context, in *Ingestion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestions (
			id, file_id, file_name, file_created, status,
			error_kind, error_message,
			changesets, inserts, deletes,
			started_at, completed_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		in.ID, in.FileID, in.FileName, formatTime(in.FileCreated), in.Status,
		nullString(in.ErrorKind), nullString(in.ErrorMessage),
		in.ChangeSets, in.Inserts, in.Deletes,
		formatTime(in.StartedAt), nullTime(in.CompletedAt), nullInt(in.DurationMs),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create ingestion")
	}
	return nil
}

// UpdateIngestion stores the outcome of an ingestion record
func (s *IngestionStore) UpdateIngestion(ctx context.Context, in *Ingestion) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ingestions
		SET status = ?,
		    error_kind = ?,
		    error_message = ?,
		    changesets = ?,
		    inserts = ?,
		    deletes = ?,
		    completed_at = ?,
		    duration_ms = ?
		WHERE id = ?
	`,
		in.Status,
		nullString(in.ErrorKind), nullString(in.ErrorMessage),
		in.ChangeSets, in.Inserts, in.Deletes,
		nullTime(in.CompletedAt), nullInt(in.DurationMs),
		in.ID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update ingestion")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check rows affected")
	}
	if rowsAffected == 0 {
		return errors.Newf("ingestion not found: %s", in.ID)
	}
	return nil
}

// ListIngestions returns the most recent ingestion records, newest first
func (s *IngestionStore) ListIngestions(ctx context.Context, limit int) ([]*Ingestion, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, file_name, file_created, status,
		       error_kind, error_message,
		       changesets, inserts, deletes,
		       started_at, completed_at, duration_ms
		FROM ingestions
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ingestions")
	}
	defer rows.Close()

	var ingestions []*Ingestion
	for rows.Next() {
		var (
			in                                   Ingestion
			fileCreated, startedAt               string
			errorKind, errorMessage, completedAt sql.NullString
			durationMs                           sql.NullInt64
		)
		if err := rows.Scan(
			&in.ID, &in.FileID, &in.FileName, &fileCreated, &in.Status,
			&errorKind, &errorMessage,
			&in.ChangeSets, &in.Inserts, &in.Deletes,
			&startedAt, &completedAt, &durationMs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan ingestion")
		}

		in.ErrorKind = errorKind.String
		in.ErrorMessage = errorMessage.String
		if in.FileCreated, err = time.Parse(time.RFC3339Nano, fileCreated); err != nil {
			return nil, errors.Wrapf(err, "ingestion %s: file_created", in.ID)
		}
		if in.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, errors.Wrapf(err, "ingestion %s: started_at", in.ID)
		}
		if completedAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, completedAt.String)
			if err != nil {
				return nil, errors.Wrapf(err, "ingestion %s: completed_at", in.ID)
			}
			in.CompletedAt = &t
		}
		if durationMs.Valid {
			in.DurationMs = &durationMs.Int64
		}
		ingestions = append(ingestions, &in)
	}
	return ingestions, rows.Err()
}

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullInt(n *int64) interface{} {
	if n == nil {
		return nil
	}
	return *n
}
