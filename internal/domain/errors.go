package domain

import "errors"

var (
	ErrMalformedUpstreamMessage = errors.New("malformed upstream message")
	ErrInvalidCredentialShape   = errors.New("invalid credential shape")
	ErrAccessDenied             = errors.New("access denied")
	ErrStoreUnavailable         = errors.New("store unavailable")
	ErrQueueWriteFailed         = errors.New("queue write failed")
	ErrPushProviderFailure      = errors.New("push provider failure")
)
