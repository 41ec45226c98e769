package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

const helpText = `Available commands:
  (l)ist                 list documents
  create [label]         create a new wallet
  import [label]         import a wallet from its recovery phrase
  rename [n] [label]     relabel document n
  delete [n]             delete document n
  show [n]               show the recovery phrase of document n
  status [n]             account status, or upload status of document n
  sync                   upload pending changes now
  purge                  remove leftover deleted files
  exit | quit
A document n is its number in the list or its label.`

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context, args []string) error
	Create(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Purge(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from reader, parses the first token as the command and
// passes the remaining tokens to the handler. Handlers prompt for missing
// arguments on the same reader. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("sk %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "create":
			cmdErr = a.Create(ctx, args)
		case "import":
			cmdErr = a.Import(ctx, args)
		case "rename":
			cmdErr = a.Rename(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "status":
			cmdErr = a.Status(ctx, args)
		case "sync":
			cmdErr = a.Sync(ctx, args)
		case "purge":
			cmdErr = a.Purge(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if errors.Is(err, io.EOF) {
			return
		}
	}
}
