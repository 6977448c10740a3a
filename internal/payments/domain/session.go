package domain

// UserSession is the result of exchanging an OAuth code for a user access
// token. It is request-scoped: the engine hands it back to the caller and
// keeps nothing (the game's user store owns persistence).
type UserSession struct {
	AccessToken    string `json:"accessToken"`
	ExpiresIn      int    `json:"expiresIn"`
	ProviderUserID string `json:"providerUserId"`

	// PayeeID is the resolved payee identity for payouts. Empty means
	// resolution did not complete; the caller should retry later and payouts
	// must be refused until it is set.
	PayeeID string `json:"payeeId,omitempty"`
}

// PayeeLink associates a provider-side user identity with the payee created
// (or discovered) for it. At most one payee is ever created per user.
type PayeeLink struct {
	ProviderUserID string
	PayeeID        string // empty until resolved
}

// Resolved reports whether the link carries a usable payee identity.
func (l PayeeLink) Resolved() bool { return l.PayeeID != "" }
