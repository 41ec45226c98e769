// Package cli provides the interactive seedkeeper command-line client.
//
// It wires the document store to a small REPL: list the wallet documents in
// the cloud container, create or import a wallet, rename or delete it, show
// its recovery phrase and inspect account and upload status. A background
// watcher reports account status changes while the REPL runs.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, WatchStatus, and runREPL for details.
package cli
