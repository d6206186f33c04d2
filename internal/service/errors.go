package service

import "errors"

// Credential lifecycle errors
var (
	// ErrCredentialUnavailable means a refresh failed transiently; the
	// caller should retry on a later pass.
	ErrCredentialUnavailable = errors.New("provider credential temporarily unavailable")

	// ErrCredentialExpired means the refresh token itself was rejected;
	// fatal for the provider until external re-consent.
	ErrCredentialExpired = errors.New("provider credential expired, re-consent required")
)
