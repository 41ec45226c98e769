package query

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dmitrijs2005/seedkeeper/internal/logging"
)

// DefaultDebounce is how long a Query waits for the directory to settle
// before gathering again.
const DefaultDebounce = 100 * time.Millisecond

var ErrAlreadyStarted = errors.New("query already started")

type options struct {
	debounce time.Duration
	logger   logging.Logger
}

type Option func(*options)

func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Query is a live, filtered view of a directory.
type Query[T any] struct {
	dir       string
	transform func(Item) T
	opts      options

	mu      sync.Mutex
	started bool
	stopped bool
	paused  int
	dirty   bool
	results []T
	pending []T

	updates chan []T
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a query over dir. Nothing happens until Start.
func New[T any](dir string, transform func(Item) T, opts ...Option) *Query[T] {
	o := options{debounce: DefaultDebounce, logger: logging.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	return &Query[T]{
		dir:       dir,
		transform: transform,
		opts:      o,
		updates:   make(chan []T, 1),
		done:      make(chan struct{}),
	}
}

// Dir is the watched directory.
func (q *Query[T]) Dir() string { return q.dir }

// Updates delivers the latest result list. Only the most recent list is
// buffered; the channel is closed after Stop.
func (q *Query[T]) Updates() <-chan []T { return q.updates }

// Start performs the initial gather, publishes it and starts watching.
// It returns once the watcher is installed.
func (q *Query[T]) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return ErrAlreadyStarted
	}
	q.started = true
	q.mu.Unlock()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(q.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", q.dir, err)
	}

	if err := q.refresh(ctx); err != nil {
		_ = w.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	q.mu.Lock()
	q.cancel = cancel
	q.mu.Unlock()

	go q.loop(ctx, w)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (q *Query[T]) Stop() {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-q.done
}

func (q *Query[T]) loop(ctx context.Context, w *fsnotify.Watcher) {
	defer close(q.done)
	defer func() {
		_ = w.Close()
		q.mu.Lock()
		q.stopped = true
		close(q.updates)
		q.mu.Unlock()
	}()

	timer := time.NewTimer(q.opts.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			q.opts.logger.Debug(ctx, "container event", "op", ev.Op.String(), "name", ev.Name)
			timer.Reset(q.opts.debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			q.opts.logger.Warn(ctx, "watcher error", "dir", q.dir, "error", err)

		case <-timer.C:
			if err := q.refresh(ctx); err != nil {
				q.opts.logger.Error(ctx, "gather failed", "dir", q.dir, "error", err)
			}
		}
	}
}

// refresh gathers the directory and publishes the result unless paused.
func (q *Query[T]) refresh(ctx context.Context) error {
	items, err := gather(q.dir)
	if err != nil {
		return err
	}

	list := make([]T, 0, len(items))
	for _, it := range items {
		list = append(list, q.transform(it))
	}
	q.opts.logger.Debug(ctx, "gathered", "dir", q.dir, "count", len(list))

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.paused > 0 {
		q.pending = list
		q.dirty = true
		return nil
	}
	q.results = list
	q.publishLocked(list)
	return nil
}

func gather(dir string) ([]Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		items = append(items, newItem(dir, fi))
	}
	return filterAndSort(items), nil
}

// publishLocked replaces any unread list with list. q.mu must be held.
func (q *Query[T]) publishLocked(list []T) {
	if q.stopped {
		return
	}
	select {
	case <-q.updates:
	default:
	}
	q.updates <- clone(list)
}

// DisableUpdates pauses publication. Calls nest.
func (q *Query[T]) DisableUpdates() {
	q.mu.Lock()
	q.paused++
	q.mu.Unlock()
}

// EnableUpdates resumes publication, publishing anything gathered while
// paused.
func (q *Query[T]) EnableUpdates() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.paused == 0 {
		return
	}
	q.paused--
	if q.paused == 0 && q.dirty {
		q.results = q.pending
		q.pending = nil
		q.dirty = false
		q.publishLocked(q.results)
	}
}

// Results returns a snapshot of the current list with updates paused while
// it is copied.
func (q *Query[T]) Results() []T {
	q.DisableUpdates()
	defer q.EnableUpdates()

	q.mu.Lock()
	defer q.mu.Unlock()
	return clone(q.results)
}

func clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
