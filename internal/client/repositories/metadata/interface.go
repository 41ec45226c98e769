// Package metadata persists small key/value facts about the local client,
// such as the last observed cloud account status.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyAccountStatus = "account_status"
	KeyContainerPath = "container_path"
)

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
