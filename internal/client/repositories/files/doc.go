// Package files persists the upload state of document files.
//
// Each record is keyed by the container-relative path of a document and moves
// through the states pending -> uploaded | failed, or deleted once the local
// file is gone and the remote copy still has to be removed.
//
//	repo := files.NewSQLiteRepository(db)
//	_ = repo.MarkPending(ctx, "Documents/abc@def")
//	pend, _ := repo.ListByState(ctx, models.UploadPending)
//	_ = repo.MarkUploaded(ctx, "Documents/abc@def")
package files
