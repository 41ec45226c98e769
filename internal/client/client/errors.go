package client

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
)

var (
	ErrUnavailable  = errors.New("cloud service unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoAccount    = errors.New("no cloud account configured")
)

// MapError classifies err into the SyncError taxonomy. A nil error maps to nil.
func MapError(err error) *models.SyncError {
	if err == nil {
		return nil
	}
	var se *models.SyncError
	if errors.As(err, &se) {
		return se
	}
	return models.NewSyncError(classify(err), err)
}

func classify(err error) models.SyncErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.SyncErrorTimeout
	}
	if errors.Is(err, fs.ErrNotExist) {
		return models.SyncErrorFileMissing
	}
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return models.SyncErrorQuotaExceeded
	}
	if errors.Is(err, ErrUnavailable) {
		return models.SyncErrorServerUnavailable
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "QuotaExceeded", "QuotaExceededException", "EntityTooLarge", "TooManyBuckets":
			return models.SyncErrorQuotaExceeded
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return models.SyncErrorFileMissing
		case "RequestTimeout", "RequestTimeoutException":
			return models.SyncErrorTimeout
		case "ServiceUnavailable", "SlowDown", "InternalError", "Throttling":
			return models.SyncErrorServerUnavailable
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch code := respErr.HTTPStatusCode(); {
		case code == http.StatusNotFound:
			return models.SyncErrorFileMissing
		case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
			return models.SyncErrorTimeout
		case code == http.StatusInsufficientStorage || code == http.StatusRequestEntityTooLarge:
			return models.SyncErrorQuotaExceeded
		case code >= 500:
			return models.SyncErrorServerUnavailable
		}
	}

	// Network errors are matched by concrete type: syscall.Errno also
	// implements net.Error.
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return netKind(opErr)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return netKind(urlErr)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return netKind(dnsErr)
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return models.SyncErrorCreateSaveFailure
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return models.SyncErrorCreateSaveFailure
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return models.SyncErrorCreateSaveFailure
	}

	return models.SyncErrorUnknown
}

func netKind(err net.Error) models.SyncErrorKind {
	if err.Timeout() {
		return models.SyncErrorTimeout
	}
	return models.SyncErrorServerUnavailable
}
