package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
)

func (a *App) getStatus() string {
	s := a.currentStatus()
	if s == models.AccountAvailable {
		return fmt.Sprintf("(%d)", len(a.store.Documents()))
	}
	return fmt.Sprintf("(%s)", s)
}

// Root runs the REPL on a.reader until the user exits.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to seedkeeper (type 'help' for commands)")
	fmt.Fprintf(a.out, "Container: %s\n", a.config.ContainerPath())
	a.log.Debug(ctx, "repl started", "backend", a.config.Backend)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.WatchStatus(ctx)

	runREPL(ctx, a, a.getStatus, a.reader)
}
