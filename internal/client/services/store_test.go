package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
	"github.com/dmitrijs2005/seedkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/seedkeeper/internal/common"
	"github.com/dmitrijs2005/seedkeeper/internal/logging"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

type storeFixture struct {
	store *DocumentStore
	fc    *fakeClient
	meta  metadata.Repository
	root  string
}

func (f *storeFixture) docsDir() string {
	return filepath.Join(f.root, "iCloud~test", common.DocumentsDir)
}

func newTestStore(t *testing.T) *storeFixture {
	t.Helper()
	fc := newFakeClient()
	svc, db := newTestSync(t, fc)
	meta := metadata.NewSQLiteRepository(db)
	root := t.TempDir()

	s := NewDocumentStore(StoreConfig{
		ContainerRoot:  root,
		ContainerID:    "iCloud~test",
		StatusInterval: 20 * time.Millisecond,
		SyncInterval:   time.Hour,
		QueryDebounce:  10 * time.Millisecond,
	}, fc, svc, meta, logging.Nop())

	return &storeFixture{store: s, fc: fc, meta: meta, root: root}
}

func startStore(t *testing.T) *storeFixture {
	t.Helper()
	f := newTestStore(t)
	require.NoError(t, f.store.Start(context.Background()))
	t.Cleanup(f.store.Stop)

	require.Eventually(t, func() bool { return f.store.ContainerDir() != "" }, waitFor, tick)
	return f
}

func labels(docs []models.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Name)
	}
	return out
}

func TestDocumentStore_ResolvesContainer(t *testing.T) {
	f := startStore(t)

	assert.Equal(t, models.AccountAvailable, f.store.Status())
	assert.Equal(t, f.docsDir(), f.store.ContainerDir())
	assert.DirExists(t, f.docsDir())

	saved, err := metadata.LoadAccountStatus(context.Background(), f.meta)
	require.NoError(t, err)
	assert.Equal(t, models.AccountAvailable, saved)

	assert.Eventually(t, func() bool {
		path, err := f.meta.Get(context.Background(), metadata.KeyContainerPath)
		return err == nil && string(path) == f.docsDir()
	}, waitFor, tick)
}

type countingMeta struct {
	metadata.Repository
	mu   sync.Mutex
	sets map[string]int
}

func (c *countingMeta) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.sets[key]++
	c.mu.Unlock()
	return c.Repository.Set(ctx, key, value)
}

func (c *countingMeta) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets[key]
}

func TestDocumentStore_ContainerPathSavedOnlyWhenChanged(t *testing.T) {
	ctx := context.Background()
	f := newTestStore(t)
	meta := &countingMeta{Repository: f.meta, sets: map[string]int{}}
	f.store.meta = meta
	require.NoError(t, meta.Repository.Set(ctx, metadata.KeyContainerPath, []byte(f.docsDir())))

	require.NoError(t, f.store.Start(ctx))
	t.Cleanup(f.store.Stop)
	require.Eventually(t, func() bool { return f.store.ContainerDir() != "" }, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, meta.count(metadata.KeyContainerPath), "unchanged location is not rewritten")

	require.NoError(t, meta.Repository.Set(ctx, metadata.KeyContainerPath, []byte("/old/place")))
	f.fc.setStatus(models.AccountNoAccount)
	require.Eventually(t, func() bool { return f.store.ContainerDir() == "" }, waitFor, tick)
	f.fc.setStatus(models.AccountAvailable)
	require.Eventually(t, func() bool { return meta.count(metadata.KeyContainerPath) == 1 }, waitFor, tick)
	path, err := meta.Get(ctx, metadata.KeyContainerPath)
	require.NoError(t, err)
	assert.Equal(t, f.docsDir(), string(path))
}

func TestDocumentStore_ListsExistingDocumentsOnResolve(t *testing.T) {
	f := newTestStore(t)
	require.NoError(t, os.MkdirAll(f.docsDir(), 0o700))
	name, err := models.EncodeFilename([]byte{7, 7, 7}, "Existing", time.Unix(1700000000, 0))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(f.docsDir(), name), []byte{7, 7, 7}, 0o600))

	require.NoError(t, f.store.Start(context.Background()))
	t.Cleanup(f.store.Stop)
	require.Eventually(t, func() bool { return f.store.ContainerDir() != "" }, waitFor, tick)

	assert.Equal(t, []string{"Existing"}, labels(f.store.Documents()), "listed as soon as the container is known")
}

func TestDocumentStore_CreateRenameDelete(t *testing.T) {
	f := startStore(t)
	ctx := context.Background()
	secret := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	doc, err := f.store.Create(ctx, "Main", secret)
	require.NoError(t, err)
	assert.Equal(t, "Main", doc.Name)
	assert.Equal(t, []string{"Main"}, labels(f.store.Documents()), "created documents are listed at once")

	body, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, secret, body)

	got, err := doc.Secret()
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	renamed, err := f.store.Rename(ctx, doc, "Savings")
	require.NoError(t, err)
	assert.Equal(t, doc.CreatedAt, renamed.CreatedAt)
	assert.Equal(t, []string{"Savings"}, labels(f.store.Documents()))
	assert.NoFileExists(t, doc.Path)
	assert.FileExists(t, renamed.Path)

	require.NoError(t, f.store.Delete(ctx, renamed))
	assert.Empty(t, f.store.Documents())
	assert.NoFileExists(t, renamed.Path)
	assert.NoFileExists(t, renamed.Path+common.DeletedSuffix)

	// the query agrees once it has caught up
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, f.store.Documents())
}

func TestDocumentStore_CreateValidation(t *testing.T) {
	f := startStore(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "", []byte{1})
	assert.ErrorIs(t, err, common.ErrInvalidLabel)

	_, err = f.store.Create(ctx, "x", nil)
	assert.ErrorIs(t, err, common.ErrInvalidFilename)

	doc, err := f.store.Create(ctx, "Dup", []byte{9, 9})
	require.NoError(t, err)
	_, err = f.store.Create(ctx, "Dup", []byte{9, 9})
	if doc.CreatedAt.Unix() == time.Now().Unix() {
		assert.ErrorIs(t, err, common.ErrAlreadyExists)
	}
}

func TestDocumentStore_CreateRejectsOversizedName(t *testing.T) {
	f := startStore(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, strings.Repeat("钱", models.MaxLabelLength), make([]byte, 32))
	require.ErrorIs(t, err, common.ErrInvalidLabel)
	assert.Empty(t, f.store.Documents())

	entries, err := os.ReadDir(f.docsDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written for a rejected label")
}

func TestDocumentStore_RenameToSameLabel(t *testing.T) {
	f := startStore(t)
	ctx := context.Background()

	doc, err := f.store.Create(ctx, "Main", []byte{4, 4, 4, 4})
	require.NoError(t, err)

	same, err := f.store.Rename(ctx, doc, "Main")
	require.NoError(t, err)
	assert.Equal(t, doc, same)
	assert.FileExists(t, doc.Path)
	assert.Equal(t, []string{"Main"}, labels(f.store.Documents()))
}

func TestDocumentStore_PicksUpExternalFiles(t *testing.T) {
	f := startStore(t)

	older, err := models.EncodeFilename([]byte{1}, "Older", time.Unix(1_600_000_000, 0))
	require.NoError(t, err)
	newer, err := models.EncodeFilename([]byte{2}, "Newer", time.Unix(1_700_000_000, 0))
	require.NoError(t, err)
	pending, err := models.EncodeFilename([]byte{3}, "Cloud", time.Unix(1_650_000_000, 0))
	require.NoError(t, err)

	dir := f.docsDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, newer), []byte{2}, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, older), []byte{1}, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "."+pending+common.PlaceholderSuffix), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, older+"x"+common.DeletedSuffix), nil, 0o600))

	require.Eventually(t, func() bool { return len(f.store.Documents()) == 4 }, waitFor, tick)

	docs := f.store.Documents()
	assert.Equal(t, []string{common.UndefinedName, "Older", "Cloud", "Newer"}, labels(docs))
	assert.False(t, docs[2].Downloaded)
	assert.Equal(t, models.Synced(), f.store.FileStatus(context.Background(), docs[2]))
}

func TestDocumentStore_FileStatusAndSync(t *testing.T) {
	f := startStore(t)
	ctx := context.Background()

	f.fc.mu.Lock()
	f.fc.uploadErr = errBoom
	f.fc.mu.Unlock()

	doc, err := f.store.Create(ctx, "Main", []byte{7, 7, 7})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st := f.store.FileStatus(ctx, doc)
		return st.Err != nil && st.Err.Kind == models.SyncErrorUnknown
	}, waitFor, tick)

	f.fc.mu.Lock()
	f.fc.uploadErr = nil
	f.fc.mu.Unlock()

	report, err := f.store.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Uploaded)
	assert.True(t, f.store.FileStatus(ctx, doc).Synced)

	_, ok := f.fc.get("Documents/" + doc.Filename())
	assert.True(t, ok)
}

func TestDocumentStore_Purge(t *testing.T) {
	f := startStore(t)
	dir := f.docsDir()

	name, err := models.EncodeFilename([]byte{1}, "Gone", time.Unix(1_700_000_000, 0))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+common.DeletedSuffix), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "."+name+common.DeletedSuffix+common.PlaceholderSuffix), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))

	n, err := f.store.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(dir, name))
}

func TestDocumentStore_StatusChangeClearsList(t *testing.T) {
	f := startStore(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "Main", []byte{1, 2})
	require.NoError(t, err)

	snaps, unsubscribe := f.store.Subscribe()
	defer unsubscribe()

	f.fc.setStatus(models.AccountNoAccount)

	deadline := time.After(waitFor)
	for {
		select {
		case snap := <-snaps:
			if snap.Status == models.AccountNoAccount {
				assert.Empty(t, snap.Documents)
				assert.Empty(t, f.store.Documents())
				assert.Equal(t, "", f.store.ContainerDir())

				_, err := f.store.Create(ctx, "Other", []byte{3})
				assert.ErrorIs(t, err, common.ErrAccountUnavailable)

				// back online: the container and its documents return
				f.fc.setStatus(models.AccountAvailable)
				require.Eventually(t, func() bool {
					return len(f.store.Documents()) == 1
				}, waitFor, tick)
				return
			}
		case <-deadline:
			t.Fatal("status change was not published")
		}
	}
}

func TestDocumentStore_RestoresSavedStatus(t *testing.T) {
	f := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, metadata.SaveAccountStatus(ctx, f.meta, models.AccountRestricted))

	f.fc.setStatus(models.AccountRestricted)
	require.NoError(t, f.store.Start(ctx))
	defer f.store.Stop()

	assert.Equal(t, models.AccountRestricted, f.store.Status())
	assert.ErrorIs(t, f.store.Start(ctx), ErrAlreadyStarted)

	_, err := f.store.Purge(ctx)
	assert.ErrorIs(t, err, common.ErrAccountUnavailable)
}

func TestDocumentStore_IndexAndFind(t *testing.T) {
	f := startStore(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "Main", []byte{1})
	require.NoError(t, err)

	d, err := f.store.Index(1)
	require.NoError(t, err)
	assert.Equal(t, "Main", d.Name)

	_, err = f.store.Index(2)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	d, err = f.store.Find("main")
	require.NoError(t, err)
	assert.Equal(t, "Main", d.Name)

	_, err = f.store.Find("nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
