package client

import (
	"context"

	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
)

// Client is the cloud backend that keeps the container in sync across devices.
type Client interface {
	// AccountStatus reports whether the cloud account can be used.
	AccountStatus(ctx context.Context) (models.AccountStatus, error)

	// Upload stores body under key (a container-relative path).
	Upload(ctx context.Context, key string, body []byte) error

	// Delete removes key. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is stored remotely.
	Exists(ctx context.Context, key string) (bool, error)
}
