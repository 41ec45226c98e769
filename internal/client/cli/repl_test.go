package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
	args  [][]string
	err   error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.err
}

func (f *fakeExec) List(_ context.Context, a []string) error   { return f.record("list", a) }
func (f *fakeExec) Create(_ context.Context, a []string) error { return f.record("create", a) }
func (f *fakeExec) Import(_ context.Context, a []string) error { return f.record("import", a) }
func (f *fakeExec) Rename(_ context.Context, a []string) error { return f.record("rename", a) }
func (f *fakeExec) Delete(_ context.Context, a []string) error { return f.record("delete", a) }
func (f *fakeExec) Show(_ context.Context, a []string) error   { return f.record("show", a) }
func (f *fakeExec) Status(_ context.Context, a []string) error { return f.record("status", a) }
func (f *fakeExec) Sync(_ context.Context, a []string) error   { return f.record("sync", a) }
func (f *fakeExec) Purge(_ context.Context, a []string) error  { return f.record("purge", a) }

// capturePrintln collects REPL output for the duration of the test.
func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrintln(t)

	input := strings.Join([]string{
		"help",
		"l",
		"list",
		"create My Wallet",
		"import",
		"rename 2 Savings",
		"delete 1",
		"show 3",
		"status",
		"sync",
		"purge",
		"",
		"exit",
		"list",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{"list", "list", "create", "import", "rename", "delete", "show", "status", "sync", "purge"}, exec.calls)
	assert.Equal(t, []string{"My", "Wallet"}, exec.args[2])
	assert.Equal(t, []string{"2", "Savings"}, exec.args[4])
	assert.Empty(t, exec.args[3])
}

func TestRunREPL_UnknownCommandAndErrors(t *testing.T) {
	out := capturePrintln(t)

	exec := &fakeExec{err: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("foobar\nsync\nquit\n")))

	assert.Equal(t, []string{"sync"}, exec.calls)
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "Error: boom")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	capturePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("list\nsync")))

	assert.Equal(t, []string{"list", "sync"}, exec.calls)
}
