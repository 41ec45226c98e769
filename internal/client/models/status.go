package models

import "fmt"

// AccountStatus mirrors the availability states reported for the cloud account.
type AccountStatus int

const (
	AccountCouldNotDetermine AccountStatus = iota
	AccountAvailable
	AccountRestricted
	AccountNoAccount
	AccountTemporarilyUnavailable
)

var accountStatusNames = map[AccountStatus]string{
	AccountCouldNotDetermine:      "could_not_determine",
	AccountAvailable:              "available",
	AccountRestricted:             "restricted",
	AccountNoAccount:              "no_account",
	AccountTemporarilyUnavailable: "temporarily_unavailable",
}

func (s AccountStatus) String() string {
	if n, ok := accountStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("account_status(%d)", int(s))
}

// ParseAccountStatus is the inverse of String. Unknown names map to
// AccountCouldNotDetermine.
func ParseAccountStatus(name string) AccountStatus {
	for s, n := range accountStatusNames {
		if n == name {
			return s
		}
	}
	return AccountCouldNotDetermine
}

// SyncErrorKind is the fixed set of user-facing sync failures.
type SyncErrorKind string

const (
	SyncErrorUnknown           SyncErrorKind = "unknown"
	SyncErrorQuotaExceeded     SyncErrorKind = "quota_exceeded"
	SyncErrorServerUnavailable SyncErrorKind = "server_unavailable"
	SyncErrorFileMissing       SyncErrorKind = "file_missing"
	SyncErrorCreateSaveFailure SyncErrorKind = "create_save_failure"
	SyncErrorTimeout           SyncErrorKind = "timeout"
)

var syncErrorMessages = map[SyncErrorKind]string{
	SyncErrorUnknown:           "unknown sync error",
	SyncErrorQuotaExceeded:     "cloud storage quota exceeded",
	SyncErrorServerUnavailable: "cloud server unavailable",
	SyncErrorFileMissing:       "file is missing",
	SyncErrorCreateSaveFailure: "could not create or save the file",
	SyncErrorTimeout:           "operation timed out",
}

// ParseSyncErrorKind maps a stored kind back; anything unknown is SyncErrorUnknown.
func ParseSyncErrorKind(s string) SyncErrorKind {
	k := SyncErrorKind(s)
	if _, ok := syncErrorMessages[k]; ok {
		return k
	}
	return SyncErrorUnknown
}

// SyncError is a sync failure classified into SyncErrorKind.
type SyncError struct {
	Kind SyncErrorKind
	Err  error
}

func NewSyncError(kind SyncErrorKind, err error) *SyncError {
	return &SyncError{Kind: ParseSyncErrorKind(string(kind)), Err: err}
}

func (e *SyncError) Error() string {
	msg := syncErrorMessages[e.Kind]
	if msg == "" {
		msg = syncErrorMessages[SyncErrorUnknown]
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *SyncError) Unwrap() error { return e.Err }

// FileStatus tells whether a document has finished uploading.
// When Synced is false, Err optionally explains why.
type FileStatus struct {
	Synced bool
	Err    *SyncError
}

func Synced() FileStatus { return FileStatus{Synced: true} }

func NotSynced(err *SyncError) FileStatus { return FileStatus{Err: err} }

func (s FileStatus) String() string {
	switch {
	case s.Synced:
		return "synced"
	case s.Err != nil:
		return "not synced: " + s.Err.Error()
	default:
		return "not synced"
	}
}

// UploadState is the persisted sync state of a document file.
type UploadState string

const (
	UploadPending UploadState = "pending"
	UploadDone    UploadState = "uploaded"
	UploadFailed  UploadState = "failed"
	UploadDeleted UploadState = "deleted"
)

// FileRecord tracks the upload state of one document file, keyed by the
// container-relative path.
type FileRecord struct {
	Path      string
	State     UploadState
	ErrorKind SyncErrorKind
	UpdatedAt int64
}

// Status derives the FileStatus for the record.
func (r FileRecord) Status() FileStatus {
	switch r.State {
	case UploadDone:
		return Synced()
	case UploadFailed:
		return NotSynced(NewSyncError(r.ErrorKind, nil))
	default:
		return NotSynced(nil)
	}
}
