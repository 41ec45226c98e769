package client

import (
	"context"
	"os"

	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
)

// FolderClient is used when the container root is already kept in sync by
// an external agent (iCloud Drive, Dropbox, a network share). Uploads are
// handled by that agent, so they succeed immediately.
type FolderClient struct {
	root string
}

func NewFolderClient(root string) *FolderClient {
	return &FolderClient{root: root}
}

// AccountStatus is available when the root exists and is a directory.
func (c *FolderClient) AccountStatus(_ context.Context) (models.AccountStatus, error) {
	fi, err := os.Stat(c.root)
	switch {
	case os.IsNotExist(err):
		return models.AccountNoAccount, nil
	case os.IsPermission(err):
		return models.AccountRestricted, nil
	case err != nil:
		return models.AccountCouldNotDetermine, err
	case !fi.IsDir():
		return models.AccountNoAccount, nil
	}
	return models.AccountAvailable, nil
}

func (c *FolderClient) Upload(_ context.Context, _ string, _ []byte) error { return nil }

func (c *FolderClient) Delete(_ context.Context, _ string) error { return nil }

func (c *FolderClient) Exists(_ context.Context, _ string) (bool, error) { return true, nil }
