package model

import "time"

// Credential is a bearer token obtained from the identity provider together
// with its absolute expiry. Exactly one live credential exists per process;
// it is owned and replaced by the application-layer credential cache.
type Credential struct {
	Value     string
	ExpiresAt time.Time
}

// UsableAt reports whether the credential can still be presented at the given
// instant. A credential at or past its expiry is never usable.
func (c Credential) UsableAt(now time.Time) bool {
	return c.Value != "" && now.Before(c.ExpiresAt)
}

// FreshAt reports whether the credential has more than margin of lifetime left
// at the given instant. Callers refresh proactively when this turns false
// rather than waiting for outright expiry.
func (c Credential) FreshAt(now time.Time, margin time.Duration) bool {
	return c.Value != "" && now.Add(margin).Before(c.ExpiresAt)
}
