package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/seedkeeper/internal/client/client"
	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
	"github.com/dmitrijs2005/seedkeeper/internal/client/query"
	"github.com/dmitrijs2005/seedkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/seedkeeper/internal/common"
	"github.com/dmitrijs2005/seedkeeper/internal/filex"
	"github.com/dmitrijs2005/seedkeeper/internal/logging"
)

// statusTimeout bounds a single account status check.
const statusTimeout = 3 * time.Second

var ErrAlreadyStarted = errors.New("store already started")

// StoreConfig configures a DocumentStore.
type StoreConfig struct {
	// ContainerRoot holds one directory per container id.
	ContainerRoot string
	ContainerID   string

	StatusInterval time.Duration
	SyncInterval   time.Duration

	// QueryDebounce is passed to the container query; zero uses the default.
	QueryDebounce time.Duration
}

// Snapshot is the state published to subscribers.
type Snapshot struct {
	Status    models.AccountStatus
	Documents []models.Document
}

// DocumentStore is the facade over the cloud container: it follows the
// account status, keeps the document list current and performs coordinated
// file operations. State is mutated only by the event loop started in Start.
type DocumentStore struct {
	cfg    StoreConfig
	client client.Client
	sync   *SyncService
	meta   metadata.Repository
	log    logging.Logger

	mu        sync.RWMutex
	status    models.AccountStatus
	docs      []models.Document
	container string
	coord     *filex.Coordinator

	// owned by the event loop
	queried []models.Document
	local   []models.Document
	removed map[string]bool
	query   *query.Query[models.Document]
	gen     int

	events   chan event
	syncReqs chan struct{}

	subsMu sync.Mutex
	subs   map[int]chan Snapshot
	nextID int

	startMu sync.Mutex
	cancel  context.CancelFunc
	done    <-chan struct{}
	wg      sync.WaitGroup
}

type event any

type statusEvent struct {
	status models.AccountStatus
}

type containerEvent struct {
	gen int
	dir string
	err error
}

// localEvent applies a local file operation to the list before the query
// observes it.
type localEvent struct {
	remove []string
	add    []models.Document
	done   chan struct{}
}

func NewDocumentStore(cfg StoreConfig, c client.Client, s *SyncService, meta metadata.Repository, log logging.Logger) *DocumentStore {
	return &DocumentStore{
		cfg:      cfg,
		client:   c,
		sync:     s,
		meta:     meta,
		log:      log.With("component", "store"),
		events:   make(chan event),
		syncReqs: make(chan struct{}, 1),
		subs:     make(map[int]chan Snapshot),
		removed:  make(map[string]bool),
	}
}

// Start restores the last known account status and starts the event loop,
// the status poller and the background syncer. It does not block.
func (s *DocumentStore) Start(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	if st, err := metadata.LoadAccountStatus(ctx, s.meta); err != nil {
		s.log.Warn(ctx, "could not load account status", "error", err)
	} else {
		s.mu.Lock()
		s.status = st
		s.mu.Unlock()
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = ctx.Done()

	s.wg.Add(3)
	go func() { defer s.wg.Done(); s.loop(ctx) }()
	go func() { defer s.wg.Done(); s.watchStatus(ctx) }()
	go func() { defer s.wg.Done(); s.runSyncer(ctx) }()
	return nil
}

// Stop ends all background work and closes subscriber channels.
func (s *DocumentStore) Stop() {
	s.startMu.Lock()
	cancel := s.cancel
	s.startMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()

	s.subsMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subsMu.Unlock()
}

// Subscribe returns a channel receiving the latest Snapshot after every
// change, starting with the current one. The returned func unsubscribes.
func (s *DocumentStore) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	ch <- s.snapshot()

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if _, ok := s.subs[id]; ok {
			close(ch)
			delete(s.subs, id)
		}
	}
}

// Documents returns the current list ordered by creation time.
func (s *DocumentStore) Documents() []models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Status returns the last observed account status.
func (s *DocumentStore) Status() models.AccountStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ContainerDir is the resolved documents directory, or "" while unresolved.
func (s *DocumentStore) ContainerDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.container
}

func (s *DocumentStore) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]models.Document, len(s.docs))
	copy(docs, s.docs)
	return Snapshot{Status: s.status, Documents: docs}
}

func (s *DocumentStore) publish() {
	snap := s.snapshot()
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Create stores a new document holding secret under label.
func (s *DocumentStore) Create(ctx context.Context, label string, secret []byte) (models.Document, error) {
	dir, coord, err := s.writable()
	if err != nil {
		return models.Document{}, err
	}

	name, err := models.EncodeFilename(secret, label, time.Now())
	if err != nil {
		return models.Document{}, err
	}
	path := filepath.Join(dir, name)

	if err := coord.Create(ctx, path, secret); err != nil {
		if errors.Is(err, filex.ErrDestinationExists) {
			return models.Document{}, fmt.Errorf("%w: %s", common.ErrAlreadyExists, label)
		}
		return models.Document{}, client.MapError(err)
	}

	doc := models.NewDocument(path)
	if err := s.sync.TrackCreated(ctx, s.rel(dir, path)); err != nil {
		s.log.Error(ctx, "could not track created document", "path", path, "error", err)
	}
	s.requestSync()

	s.log.Info(ctx, "document created", "name", doc.Name)
	return doc, s.apply(ctx, localEvent{add: []models.Document{doc}})
}

// Rename relabels doc, keeping its secret and creation time.
func (s *DocumentStore) Rename(ctx context.Context, doc models.Document, label string) (models.Document, error) {
	dir, coord, err := s.writable()
	if err != nil {
		return models.Document{}, err
	}

	newPath, err := doc.RenamedPath(label)
	if err != nil {
		return models.Document{}, err
	}
	if newPath == doc.Path {
		return doc, nil
	}
	renamed := models.NewDocument(newPath)
	renamed.Downloaded = doc.Downloaded

	if err := coord.Move(ctx, diskPath(doc), diskPath(renamed)); err != nil {
		if errors.Is(err, filex.ErrDestinationExists) {
			return models.Document{}, fmt.Errorf("%w: %s", common.ErrAlreadyExists, label)
		}
		return models.Document{}, client.MapError(err)
	}

	if err := s.sync.TrackRenamed(ctx, s.rel(dir, doc.Path), s.rel(dir, renamed.Path)); err != nil {
		s.log.Error(ctx, "could not track renamed document", "path", newPath, "error", err)
	}
	s.requestSync()

	s.log.Info(ctx, "document renamed", "from", doc.Name, "to", renamed.Name)
	return renamed, s.apply(ctx, localEvent{remove: []string{doc.Key()}, add: []models.Document{renamed}})
}

// Delete marks doc deleted, which hides it immediately, then removes the
// file. A failed removal is left for Purge.
func (s *DocumentStore) Delete(ctx context.Context, doc models.Document) error {
	dir, coord, err := s.writable()
	if err != nil {
		return err
	}

	src := diskPath(doc)
	marked := deletedPath(doc)
	if err := coord.Move(ctx, src, marked); err != nil {
		return client.MapError(err)
	}
	if err := s.apply(ctx, localEvent{remove: []string{doc.Key()}}); err != nil {
		return err
	}

	if err := coord.Remove(ctx, marked); err != nil {
		s.log.Warn(ctx, "could not remove deleted document", "path", marked, "error", err)
	}
	if err := s.sync.TrackDeleted(ctx, s.rel(dir, doc.Path)); err != nil {
		s.log.Error(ctx, "could not track deleted document", "path", doc.Path, "error", err)
	}
	s.requestSync()

	s.log.Info(ctx, "document deleted", "name", doc.Name)
	return nil
}

// Purge removes leftover soft-deleted files and returns how many went.
func (s *DocumentStore) Purge(ctx context.Context) (int, error) {
	dir, coord, err := s.writable()
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, client.MapError(err)
	}
	n := 0
	for _, e := range entries {
		name := e.Name()
		if target, ok := models.PlaceholderTarget(name); ok {
			name = target
		}
		if e.IsDir() || !models.IsDeleted(name) {
			continue
		}
		if err := coord.Remove(ctx, filepath.Join(dir, e.Name())); err != nil {
			return n, client.MapError(err)
		}
		n++
	}
	if n > 0 {
		s.log.Info(ctx, "purged deleted documents", "count", n)
	}
	return n, nil
}

// FileStatus reports whether doc has been uploaded. Placeholders stand for
// files that only exist in the cloud so far and are reported synced.
func (s *DocumentStore) FileStatus(ctx context.Context, doc models.Document) models.FileStatus {
	if !doc.Downloaded {
		return models.Synced()
	}
	dir := s.ContainerDir()
	if dir == "" {
		return models.NotSynced(models.NewSyncError(models.SyncErrorServerUnavailable, common.ErrContainerUnavailable))
	}
	st, err := s.sync.Status(ctx, s.rel(dir, doc.Path))
	if err != nil {
		s.log.Error(ctx, "could not read file status", "path", doc.Path, "error", err)
		return models.NotSynced(client.MapError(err))
	}
	return st
}

// Sync pushes pending changes now.
func (s *DocumentStore) Sync(ctx context.Context) (SyncReport, error) {
	dir, _, err := s.writable()
	if err != nil {
		return SyncReport{}, err
	}
	return s.sync.Sync(ctx, filepath.Dir(dir))
}

func (s *DocumentStore) writable() (string, *filex.Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != models.AccountAvailable {
		return "", nil, fmt.Errorf("%w: %s", common.ErrAccountUnavailable, s.status)
	}
	if s.container == "" {
		return "", nil, common.ErrContainerUnavailable
	}
	return s.container, s.coord, nil
}

// rel maps a document path to its container-relative key.
func (s *DocumentStore) rel(docsDir, path string) string {
	r, err := filepath.Rel(filepath.Dir(docsDir), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}

func diskPath(doc models.Document) string {
	if doc.Downloaded {
		return doc.Path
	}
	return filepath.Join(filepath.Dir(doc.Path), "."+doc.Filename()+common.PlaceholderSuffix)
}

func deletedPath(doc models.Document) string {
	if doc.Downloaded {
		return doc.Path + common.DeletedSuffix
	}
	return filepath.Join(filepath.Dir(doc.Path), "."+doc.Filename()+common.DeletedSuffix+common.PlaceholderSuffix)
}

// apply hands e to the event loop and waits until it is applied.
func (s *DocumentStore) apply(ctx context.Context, e localEvent) error {
	s.startMu.Lock()
	stopped := s.done
	s.startMu.Unlock()
	if stopped == nil {
		return common.ErrNotStarted
	}

	e.done = make(chan struct{})
	select {
	case s.events <- e:
	case <-stopped:
		return common.ErrNotStarted
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-e.done:
		return nil
	case <-stopped:
		return common.ErrNotStarted
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DocumentStore) requestSync() {
	select {
	case s.syncReqs <- struct{}{}:
	default:
	}
}

func (s *DocumentStore) loop(ctx context.Context) {
	defer s.stopQuery()

	for {
		var updates <-chan []models.Document
		if s.query != nil {
			updates = s.query.Updates()
		}

		select {
		case <-ctx.Done():
			return

		case e := <-s.events:
			switch e := e.(type) {
			case statusEvent:
				s.onStatus(ctx, e.status)
			case containerEvent:
				s.onContainer(ctx, e)
			case localEvent:
				s.onLocal(e)
				close(e.done)
			}

		case docs, ok := <-updates:
			if !ok {
				s.query = nil
				continue
			}
			seen := keys(docs)
			for k := range s.removed {
				if !seen[k] {
					delete(s.removed, k)
				}
			}
			s.queried = withoutKeys(docs, s.removed)
			s.local = pruneLocal(withoutKeys(s.local, seen))
			s.rebuild()
		}
	}
}

func (s *DocumentStore) onStatus(ctx context.Context, st models.AccountStatus) {
	s.mu.Lock()
	prev := s.status
	s.status = st
	resolved := s.container != ""
	s.mu.Unlock()

	if prev != st {
		s.log.Info(ctx, "account status changed", "from", prev.String(), "to", st.String())
		if err := metadata.SaveAccountStatus(ctx, s.meta, st); err != nil {
			s.log.Warn(ctx, "could not save account status", "error", err)
		}
	}

	if st != models.AccountAvailable {
		if prev != st || resolved {
			s.gen++
			s.resetContainer()
			s.publish()
		}
		return
	}

	if prev != st || !resolved {
		s.gen++
		s.resolveContainer(ctx, s.gen)
		if prev != st {
			s.publish()
		}
	}
}

// resolveContainer creates and locates the documents directory off the
// event loop and reports back with a containerEvent.
func (s *DocumentStore) resolveContainer(ctx context.Context, gen int) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		dir, err := filex.EnsureDir(filepath.Join(s.cfg.ContainerRoot, s.cfg.ContainerID, common.DocumentsDir))
		select {
		case s.events <- containerEvent{gen: gen, dir: dir, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (s *DocumentStore) onContainer(ctx context.Context, e containerEvent) {
	if e.gen != s.gen || s.Status() != models.AccountAvailable {
		return
	}
	if e.err != nil {
		s.log.Error(ctx, "could not resolve container", "error", e.err)
		return
	}

	s.stopQuery()
	opts := []query.Option{query.WithLogger(s.log)}
	if s.cfg.QueryDebounce > 0 {
		opts = append(opts, query.WithDebounce(s.cfg.QueryDebounce))
	}
	q := query.New(e.dir, func(it query.Item) models.Document { return models.NewDocument(it.Path) }, opts...)
	if err := q.Start(ctx); err != nil {
		s.log.Error(ctx, "could not start container query", "dir", e.dir, "error", err)
		return
	}
	s.query = q

	// the initial listing is ready once Start returns
	s.queried = withoutKeys(q.Results(), s.removed)
	s.local = withoutKeys(s.local, keys(s.queried))
	s.rebuild()

	s.mu.Lock()
	s.container = e.dir
	s.coord = filex.NewCoordinator(e.dir)
	s.mu.Unlock()

	s.saveContainerPath(ctx, e.dir)
	s.log.Info(ctx, "container resolved", "dir", e.dir, "documents", len(s.queried))
	s.requestSync()
}

// saveContainerPath records dir unless it is already the saved location.
func (s *DocumentStore) saveContainerPath(ctx context.Context, dir string) {
	prev, err := s.meta.Get(ctx, metadata.KeyContainerPath)
	if err != nil {
		s.log.Warn(ctx, "could not load container path", "error", err)
	}
	if string(prev) == dir {
		return
	}
	if prev != nil {
		s.log.Info(ctx, "container moved", "from", string(prev), "to", dir)
	}
	if err := s.meta.Set(ctx, metadata.KeyContainerPath, []byte(dir)); err != nil {
		s.log.Warn(ctx, "could not save container path", "error", err)
	}
}

func (s *DocumentStore) onLocal(e localEvent) {
	for _, k := range e.remove {
		s.removed[k] = true
	}
	for _, d := range e.add {
		delete(s.removed, d.Key())
	}
	s.queried = withoutKeys(s.queried, s.removed)
	s.local = withoutKeys(s.local, s.removed)
	s.local = append(s.local, e.add...)
	s.rebuild()
}

// rebuild recomputes the published list from the query results and local
// documents not yet seen by the query.
func (s *DocumentStore) rebuild() {
	docs := models.Merge(s.queried, s.local)
	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
	s.publish()
}

func (s *DocumentStore) resetContainer() {
	s.stopQuery()
	s.queried = nil
	s.local = nil
	clear(s.removed)
	s.mu.Lock()
	s.container = ""
	s.coord = nil
	s.docs = nil
	s.mu.Unlock()
}

func (s *DocumentStore) stopQuery() {
	if s.query != nil {
		s.query.Stop()
		s.query = nil
	}
}

// watchStatus polls the account status until ctx is done.
func (s *DocumentStore) watchStatus(ctx context.Context) {
	s.checkStatus(ctx)

	ticker := time.NewTicker(s.cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkStatus(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *DocumentStore) checkStatus(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, statusTimeout)
	st, err := s.client.AccountStatus(pctx)
	cancel()
	if err != nil {
		s.log.Warn(ctx, "account status check failed", "error", err)
	}

	select {
	case s.events <- statusEvent{status: st}:
	case <-ctx.Done():
	}
}

// runSyncer syncs on request and every SyncInterval.
func (s *DocumentStore) runSyncer(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-s.syncReqs:
		case <-ctx.Done():
			return
		}
		if _, err := s.Sync(ctx); err != nil && !isUnavailable(err) {
			s.log.Error(ctx, "sync failed", "error", err)
		}
	}
}

func isUnavailable(err error) bool {
	return errors.Is(err, common.ErrAccountUnavailable) || errors.Is(err, common.ErrContainerUnavailable)
}

// pruneLocal drops local documents whose file has disappeared.
func pruneLocal(docs []models.Document) []models.Document {
	out := docs[:0:0]
	for _, d := range docs {
		if ok, _ := filex.Exists(diskPath(d)); ok {
			out = append(out, d)
		}
	}
	return out
}

func keys(docs []models.Document) map[string]bool {
	m := make(map[string]bool, len(docs))
	for _, d := range docs {
		m[d.Key()] = true
	}
	return m
}

func withoutKeys(docs []models.Document, drop map[string]bool) []models.Document {
	if len(drop) == 0 {
		return docs
	}
	out := docs[:0:0]
	for _, d := range docs {
		if !drop[d.Key()] {
			out = append(out, d)
		}
	}
	return out
}

// Index returns the document at the 1-based position n of the current list.
func (s *DocumentStore) Index(n int) (models.Document, error) {
	docs := s.Documents()
	if n < 1 || n > len(docs) {
		return models.Document{}, fmt.Errorf("%w: document #%d", common.ErrorNotFound, n)
	}
	return docs[n-1], nil
}

// Find returns the first document whose label equals name, ignoring case.
func (s *DocumentStore) Find(name string) (models.Document, error) {
	for _, d := range s.Documents() {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return models.Document{}, fmt.Errorf("%w: %q", common.ErrorNotFound, name)
}
