package domain

import "errors"

var (
	// ErrInvalidCode reports a missing or empty OAuth code.
	ErrInvalidCode = errors.New("invalid_code")

	// ErrInvalidInput reports a malformed request (missing identity, bad direction).
	ErrInvalidInput = errors.New("invalid_input")

	// ErrInvalidAmount reports a non-positive or non-finite amount.
	ErrInvalidAmount = errors.New("invalid_amount")

	// ErrProviderAuth reports a rejected code exchange or token refresh.
	ErrProviderAuth = errors.New("provider_auth_failed")

	// ErrProviderCall reports a transport failure or malformed provider
	// response. The operation must NOT be assumed successful.
	ErrProviderCall = errors.New("provider_call_failed")

	// ErrTokenExpired reports that the presented credential was rejected as
	// expired by the provider. The caller should discard its stored token.
	ErrTokenExpired = errors.New("token_expired")

	// ErrPayeeUnresolved reports a payout attempt for a user whose payee
	// identity has not been resolved yet.
	ErrPayeeUnresolved = errors.New("payee_unresolved")

	// ErrNoToken reports that no valid service token is available and the
	// refresh that would have produced one failed.
	ErrNoToken = errors.New("no_valid_token")
)
