// Package query watches a container directory and republishes its contents
// as a typed, filtered and sorted list whenever the directory changes.
//
// A Query gathers raw Items with os.ReadDir, drops directories, packages,
// soft-deleted and hidden files (placeholders of not-yet-downloaded files are
// kept), sorts the rest by name and maps each Item through a transform
// function. Updates are delivered on a channel that always holds the latest
// list. Publication can be paused with DisableUpdates and resumed with
// EnableUpdates; changes seen while paused are published once on resume.
package query
