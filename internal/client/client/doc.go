// Package client contains the cloud backends and local state bootstrap of
// the seedkeeper client.
//
// # Overview
//
//  1. A backend contract (see Client): account status probing plus upload,
//     delete and existence checks for container files.
//  2. FolderClient, for containers already synced by an external agent, and
//     S3Client, which mirrors the container into an S3-compatible bucket.
//  3. MapError, which folds backend and filesystem errors into the fixed
//     SyncError taxonomy (quota exceeded, server unavailable, file missing,
//     create/save failure, timeout, unknown).
//  4. InitDatabase/RunMigrations for the SQLite state database (goose
//     migrations embedded in internal/client/migrations).
package client
