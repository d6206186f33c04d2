package domain

import "time"

// Provider names for credential rows
const (
	ProviderCalendar = "calendar"
	ProviderEmail    = "email"
)

// CredentialStatus tracks the lifecycle of a stored OAuth credential
type CredentialStatus string

const (
	// CredentialValid means the credential can be used or refreshed
	CredentialValid CredentialStatus = "valid"

	// CredentialFailed means the refresh token itself was rejected;
	// terminal until external re-consent replaces the row.
	CredentialFailed CredentialStatus = "failed"
)

// Credential holds the OAuth tokens for one upstream provider
type Credential struct {
	Provider     string           `json:"provider" db:"provider"`
	AccessToken  string           `json:"-" db:"access_token"`
	RefreshToken string           `json:"-" db:"refresh_token"`
	Expiry       time.Time        `json:"expiry" db:"expiry"`
	Status       CredentialStatus `json:"status" db:"status"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the access token needs a refresh before use.
// A small skew keeps tokens from expiring mid-request.
func (c *Credential) Expired(now time.Time) bool {
	return !c.Expiry.After(now.Add(time.Minute))
}
