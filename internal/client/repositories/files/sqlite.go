package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
	"github.com/dmitrijs2005/seedkeeper/internal/common"
	"github.com/dmitrijs2005/seedkeeper/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) upsert(ctx context.Context, path string, state models.UploadState, kind models.SyncErrorKind) error {
	query := `INSERT INTO files (path, state, error_kind, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET state = excluded.state,
			error_kind = excluded.error_kind,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, path, string(state), string(kind), r.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set %s state for %s: %w", state, path, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkPending(ctx context.Context, path string) error {
	query := `INSERT INTO files (path, state, error_kind, updated_at) VALUES (?, ?, '', ?)
		ON CONFLICT(path) DO UPDATE SET state = excluded.state,
			error_kind = '',
			updated_at = excluded.updated_at
		WHERE files.state <> excluded.state`
	_, err := r.db.ExecContext(ctx, query, path, string(models.UploadPending), r.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to mark %s pending: %w", path, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkUploaded(ctx context.Context, path string) error {
	return r.upsert(ctx, path, models.UploadDone, "")
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, path string, kind models.SyncErrorKind) error {
	return r.upsert(ctx, path, models.UploadFailed, kind)
}

func (r *SQLiteRepository) MarkDeleted(ctx context.Context, path string) error {
	return r.upsert(ctx, path, models.UploadDeleted, "")
}

func (r *SQLiteRepository) Get(ctx context.Context, path string) (*models.FileRecord, error) {
	query := `SELECT path, state, error_kind, updated_at FROM files WHERE path = ?`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", path, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) ListByState(ctx context.Context, states ...models.UploadState) ([]models.FileRecord, error) {
	if len(states) == 0 {
		return nil, nil
	}

	args := make([]any, len(states))
	for i, s := range states {
		args[i] = string(s)
	}
	query := `SELECT path, state, error_kind, updated_at FROM files WHERE state IN (?` +
		strings.Repeat(", ?", len(states)-1) + `) ORDER BY path`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var result []models.FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Forget(ctx context.Context, path string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to forget file %s: %w", path, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.FileRecord, error) {
	var (
		rec         models.FileRecord
		state, kind string
	)
	if err := s.Scan(&rec.Path, &state, &kind, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.State = models.UploadState(state)
	if kind != "" {
		rec.ErrorKind = models.ParseSyncErrorKind(kind)
	}
	return &rec, nil
}
