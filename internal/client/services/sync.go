package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/seedkeeper/internal/client/client"
	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
	"github.com/dmitrijs2005/seedkeeper/internal/client/repositories/files"
	"github.com/dmitrijs2005/seedkeeper/internal/common"
	"github.com/dmitrijs2005/seedkeeper/internal/dbx"
	"github.com/dmitrijs2005/seedkeeper/internal/logging"
)

// SyncReport summarises one Sync run.
type SyncReport struct {
	Uploaded int
	Deleted  int
	Failed   int
}

// SyncService tracks per-file upload state and pushes changes to the cloud.
// Record paths are relative to the container directory and double as
// remote keys.
type SyncService struct {
	db     *sql.DB
	files  files.Repository
	client client.Client
	log    logging.Logger

	// one Sync at a time
	mu sync.Mutex
}

// NewSyncService builds a SyncService over repo. db must be the database
// behind repo; renames are tracked in a transaction on it.
func NewSyncService(db *sql.DB, repo files.Repository, c client.Client, log logging.Logger) *SyncService {
	return &SyncService{
		db:     db,
		files:  repo,
		client: c,
		log:    log.With("component", "sync"),
	}
}

// TrackCreated queues rel for upload.
func (s *SyncService) TrackCreated(ctx context.Context, rel string) error {
	return s.files.MarkPending(ctx, rel)
}

// TrackRenamed queues the removal of oldRel and the upload of newRel in one
// transaction.
func (s *SyncService) TrackRenamed(ctx context.Context, oldRel, newRel string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := files.NewSQLiteRepository(tx)
		if err := repo.MarkDeleted(ctx, oldRel); err != nil {
			return err
		}
		return repo.MarkPending(ctx, newRel)
	})
}

// TrackDeleted queues the remote removal of rel.
func (s *SyncService) TrackDeleted(ctx context.Context, rel string) error {
	return s.files.MarkDeleted(ctx, rel)
}

// Status reports whether rel has been uploaded. Files without a record were
// not created here; for them the backend is asked directly.
func (s *SyncService) Status(ctx context.Context, rel string) (models.FileStatus, error) {
	rec, err := s.files.Get(ctx, rel)
	if errors.Is(err, common.ErrorNotFound) {
		ok, err := s.client.Exists(ctx, rel)
		if err != nil {
			return models.NotSynced(client.MapError(err)), nil
		}
		if ok {
			return models.Synced(), nil
		}
		return models.NotSynced(nil), nil
	}
	if err != nil {
		return models.NotSynced(nil), err
	}
	return rec.Status(), nil
}

// Sync uploads pending and failed files found under containerDir and removes
// remotely the files marked deleted. A pending file that no longer exists
// locally is treated as deleted. Individual failures are recorded and
// counted, not returned.
func (s *SyncService) Sync(ctx context.Context, containerDir string) (SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report SyncReport

	pending, err := s.files.ListByState(ctx, models.UploadPending, models.UploadFailed)
	if err != nil {
		return report, fmt.Errorf("list pending: %w", err)
	}
	for _, rec := range pending {
		err := s.upload(ctx, containerDir, rec.Path)
		if errors.Is(err, fs.ErrNotExist) {
			// gone locally: drop any remote copy in the deletion pass below
			s.log.Info(ctx, "pending file no longer exists", "path", rec.Path)
			if err := s.files.MarkDeleted(ctx, rec.Path); err != nil {
				return report, err
			}
			continue
		}
		if err != nil {
			se := client.MapError(err)
			s.log.Warn(ctx, "upload failed", "path", rec.Path, "kind", string(se.Kind), "error", err)
			if err := s.files.MarkFailed(ctx, rec.Path, se.Kind); err != nil {
				return report, err
			}
			report.Failed++
			continue
		}
		if err := s.files.MarkUploaded(ctx, rec.Path); err != nil {
			return report, err
		}
		report.Uploaded++
	}

	deleted, err := s.files.ListByState(ctx, models.UploadDeleted)
	if err != nil {
		return report, fmt.Errorf("list deleted: %w", err)
	}
	for _, rec := range deleted {
		if err := s.client.Delete(ctx, rec.Path); err != nil {
			// stays deleted and is retried on the next run
			s.log.Warn(ctx, "remote delete failed", "path", rec.Path, "error", err)
			report.Failed++
			continue
		}
		if err := s.files.Forget(ctx, rec.Path); err != nil {
			return report, err
		}
		report.Deleted++
	}

	if report.Uploaded+report.Deleted+report.Failed > 0 {
		s.log.Info(ctx, "sync finished",
			"uploaded", report.Uploaded, "deleted", report.Deleted, "failed", report.Failed)
	}
	return report, nil
}

func (s *SyncService) upload(ctx context.Context, containerDir, rel string) error {
	body, err := os.ReadFile(filepath.Join(containerDir, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	return s.client.Upload(ctx, rel, body)
}
