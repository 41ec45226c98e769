// Package services holds the client business logic.
//
// DocumentStore is the facade used by the CLI: it tracks the cloud account
// status, resolves the container directory, keeps the document list current
// through a query over the container and performs coordinated create, rename
// and delete operations. SyncService records the upload state of every
// document file in the local database and pushes pending changes to the
// cloud backend.
package services
