// Package common defines shared constants and sentinel errors used across
// seedkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Document errors.
	ErrInvalidFilename = errors.New("invalid document filename")
	ErrInvalidLabel    = errors.New("invalid document label")
	ErrAlreadyExists   = errors.New("document already exists")

	// Container and account errors.
	ErrContainerUnavailable = errors.New("cloud container unavailable")
	ErrAccountUnavailable   = errors.New("cloud account unavailable")

	// Lifecycle errors.
	ErrNotStarted = errors.New("not started")
)
