package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/seedkeeper/internal/client/client"
	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
	"github.com/dmitrijs2005/seedkeeper/internal/logging"
)

type fakeClient struct {
	mu        sync.Mutex
	status    models.AccountStatus
	statusErr error
	uploadErr error
	deleteErr error
	existsErr error
	remote    map[string][]byte
}

var _ client.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{status: models.AccountAvailable, remote: map[string][]byte{}}
}

func (f *fakeClient) setStatus(s models.AccountStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

func (f *fakeClient) AccountStatus(_ context.Context) (models.AccountStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.statusErr
}

func (f *fakeClient) Upload(_ context.Context, key string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.remote[key] = append([]byte(nil), body...)
	return nil
}

func (f *fakeClient) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.remote, key)
	return nil
}

func (f *fakeClient) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.remote[key]
	return ok, nil
}

func (f *fakeClient) get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.remote[key]
	return b, ok
}

var errBoom = errors.New("boom")

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestSync(t *testing.T, c client.Client) (*SyncService, *sql.DB) {
	t.Helper()
	db := newTestDB(t)
	repos := client.NewRepositories(db)
	return NewSyncService(db, repos.Files, c, logging.Nop()), db
}
