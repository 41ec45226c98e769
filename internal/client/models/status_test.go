package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountStatus_StringAndParse(t *testing.T) {
	for _, s := range []AccountStatus{AccountCouldNotDetermine, AccountAvailable, AccountRestricted, AccountNoAccount, AccountTemporarilyUnavailable} {
		assert.Equal(t, s, ParseAccountStatus(s.String()))
	}
	assert.Equal(t, AccountCouldNotDetermine, ParseAccountStatus("bogus"))
	assert.Equal(t, "account_status(42)", AccountStatus(42).String())
}

func TestSyncError(t *testing.T) {
	cause := errors.New("boom")
	e := NewSyncError(SyncErrorQuotaExceeded, cause)
	assert.Equal(t, "cloud storage quota exceeded: boom", e.Error())
	require.ErrorIs(t, e, cause)

	assert.Equal(t, SyncErrorUnknown, NewSyncError("weird", nil).Kind)
	assert.Equal(t, SyncErrorTimeout, ParseSyncErrorKind("timeout"))
}

func TestFileRecord_Status(t *testing.T) {
	assert.Equal(t, Synced(), FileRecord{State: UploadDone}.Status())
	assert.Equal(t, NotSynced(nil), FileRecord{State: UploadPending}.Status())

	st := FileRecord{State: UploadFailed, ErrorKind: SyncErrorServerUnavailable}.Status()
	assert.False(t, st.Synced)
	require.NotNil(t, st.Err)
	assert.Equal(t, SyncErrorServerUnavailable, st.Err.Kind)
	assert.Equal(t, "not synced: cloud server unavailable", st.String())
	assert.Equal(t, "synced", Synced().String())
}
