package domain

import "time"

// RefreshSkew is how long before expiry a service token counts as due for
// refresh. Charges and payouts can take a while to settle on the provider
// side, so a token is never handed out inside this window.
const RefreshSkew = 15 * time.Minute

// ServiceToken is the app-level credential used for payouts and payee
// management. Exactly one is current at any time; refreshes replace the whole
// record.
type ServiceToken struct {
	AccessToken string
	ExpiresIn   int // seconds, as reported by the provider
	ExpiresAt   time.Time
	RefreshedAt time.Time
}

// RefreshDue reports whether the token is absent, expired, or expiring within
// the refresh skew.
func (t ServiceToken) RefreshDue(now time.Time) bool {
	if t.AccessToken == "" {
		return true
	}
	return !now.Add(RefreshSkew).Before(t.ExpiresAt)
}

// Expired reports whether the token is unusable outright.
func (t ServiceToken) Expired(now time.Time) bool {
	return t.AccessToken == "" || !now.Before(t.ExpiresAt)
}
