package model

import "fmt"

// CredentialError wraps a failed token exchange: bad secret, unreachable
// identity provider, non-2xx response, or a malformed token body. It is the
// only error class this core propagates to callers; catalog and metadata
// fetch failures are absorbed by their caches instead.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}
