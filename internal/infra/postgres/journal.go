package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"qlweb/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS print_journal (
	id BIGSERIAL PRIMARY KEY,
	request_id TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	label_size TEXT NOT NULL,
	model TEXT NOT NULL,
	printer TEXT NOT NULL,
	rows INTEGER NOT NULL DEFAULT 0,
	bytes INTEGER NOT NULL DEFAULT 0,
	dry_run BOOLEAN NOT NULL DEFAULT false,
	success BOOLEAN NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const schemaIndex = `CREATE INDEX IF NOT EXISTS idx_print_journal_created_at ON print_journal (created_at);`

// Journal records print attempts.
type Journal struct {
	DB  *DB
	DSN string

	schemaMu    sync.Mutex
	schemaReady bool
}

// NewJournal returns a journal writing to dsn.
func NewJournal(db *DB, dsn string) *Journal {
	return &Journal{DB: db, DSN: dsn}
}

// EnsureSchema creates the journal table if needed. Once it succeeds it is
// not run again; after a failure the next call retries.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	j.schemaMu.Lock()
	defer j.schemaMu.Unlock()
	if j.schemaReady {
		return nil
	}

	db, err := j.DB.Get(j.DSN)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create print_journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaIndex); err != nil {
		return fmt.Errorf("create print_journal index: %w", err)
	}
	j.schemaReady = true
	return nil
}

// Record inserts one print attempt.
func (j *Journal) Record(ctx context.Context, rec domain.PrintRecord) error {
	if err := j.EnsureSchema(ctx); err != nil {
		return err
	}
	db, err := j.DB.Get(j.DSN)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err = db.ExecContext(ctx, `INSERT INTO print_journal
		(request_id, kind, label_size, model, printer, rows, bytes, dry_run, success, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.RequestID, string(rec.Kind), rec.LabelSize, rec.Model, rec.Printer,
		rec.Rows, rec.Bytes, rec.DryRun, rec.Success, rec.Error, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert print record: %w", err)
	}
	return nil
}

// Recent returns the newest records first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]domain.PrintRecord, error) {
	if err := j.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	db, err := j.DB.Get(j.DSN)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, `SELECT request_id, kind, label_size, model, printer,
		rows, bytes, dry_run, success, error, created_at
		FROM print_journal ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query print journal: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]domain.PrintRecord, error) {
	out := []domain.PrintRecord{}
	for rows.Next() {
		var rec domain.PrintRecord
		var kind string
		if err := rows.Scan(&rec.RequestID, &kind, &rec.LabelSize, &rec.Model, &rec.Printer,
			&rec.Rows, &rec.Bytes, &rec.DryRun, &rec.Success, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Kind = domain.PrintKind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}
