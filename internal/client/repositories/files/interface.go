package files

import (
	"context"

	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
)

// Repository describes the persistence of FileRecord values.
type Repository interface {
	// MarkPending records that path has local changes to upload. An already
	// pending record is left untouched.
	MarkPending(ctx context.Context, path string) error

	// MarkUploaded records a successful upload.
	MarkUploaded(ctx context.Context, path string) error

	// MarkFailed records a failed upload and its classified cause.
	MarkFailed(ctx context.Context, path string, kind models.SyncErrorKind) error

	// MarkDeleted records that the remote copy of path must be removed.
	MarkDeleted(ctx context.Context, path string) error

	// Get returns the record for path or common.ErrorNotFound.
	Get(ctx context.Context, path string) (*models.FileRecord, error)

	// ListByState returns records in the given states ordered by path.
	ListByState(ctx context.Context, states ...models.UploadState) ([]models.FileRecord, error)

	// Forget removes the record for path.
	Forget(ctx context.Context, path string) error
}
