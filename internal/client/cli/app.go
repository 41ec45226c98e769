package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/seedkeeper/internal/client/config"
	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
	"github.com/dmitrijs2005/seedkeeper/internal/client/services"
	"github.com/dmitrijs2005/seedkeeper/internal/logging"
)

// documentStore is the part of services.DocumentStore the CLI drives.
type documentStore interface {
	Start(ctx context.Context) error
	Stop()
	Subscribe() (<-chan services.Snapshot, func())
	Documents() []models.Document
	Status() models.AccountStatus
	ContainerDir() string
	Index(n int) (models.Document, error)
	Find(name string) (models.Document, error)
	Create(ctx context.Context, label string, secret []byte) (models.Document, error)
	Rename(ctx context.Context, doc models.Document, label string) (models.Document, error)
	Delete(ctx context.Context, doc models.Document) error
	Purge(ctx context.Context) (int, error)
	FileStatus(ctx context.Context, doc models.Document) models.FileStatus
	Sync(ctx context.Context) (services.SyncReport, error)
}

var _ documentStore = (*services.DocumentStore)(nil)

type App struct {
	config *config.Config
	store  documentStore
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer

	mu     sync.Mutex
	status models.AccountStatus
}

func NewApp(c *config.Config, store documentStore, log logging.Logger) *App {
	return &App{
		config: c,
		store:  store,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		status: store.Status(),
	}
}

// Run starts the store, runs the REPL and stops the store on exit.
func (a *App) Run(ctx context.Context) error {
	if err := a.store.Start(ctx); err != nil {
		return fmt.Errorf("start store: %w", err)
	}
	defer a.store.Stop()

	a.Root(ctx)
	return nil
}

func (a *App) setStatus(s models.AccountStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != s {
		a.status = s
		fmt.Fprintf(a.out, "Account status: %s\n", s)
	}
}

func (a *App) currentStatus() models.AccountStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// WatchStatus reports account status changes published by the store until
// ctx is done.
func (a *App) WatchStatus(ctx context.Context) {
	snaps, unsubscribe := a.store.Subscribe()
	defer unsubscribe()

	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			a.setStatus(snap.Status)
		case <-ctx.Done():
			return
		}
	}
}
