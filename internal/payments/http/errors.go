package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lydia-game/payflow/internal/payments/domain"
	"github.com/lydia-game/payflow/pkg/httpx"
)

// APIError is the structured failure shape every endpoint returns.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidRequest is returned for malformed bodies or missing fields.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        "invalid_request",
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidCode is returned when the OAuth code is absent or empty.
	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        "invalid_code",
		Description: "missing or empty authorization code",
	}

	// ErrInvalidAmount is returned for non-positive amounts.
	ErrInvalidAmount = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        "invalid_amount",
		Description: "amount must be a positive number",
	}

	// ErrProviderAuth is returned when the provider rejects a code exchange
	// or token refresh.
	ErrProviderAuth = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        "provider_auth_failed",
		Description: "the wallet provider rejected the credential exchange",
	}

	// ErrProviderCall is returned on transport failures or malformed
	// responses. The operation was not assumed successful.
	ErrProviderCall = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        "provider_call_failed",
		Description: "the wallet provider call failed; the operation did not complete",
	}

	// ErrTokenExpired is returned when the presented wallet credential has
	// expired; the caller should discard it and reconnect the user.
	ErrTokenExpired = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "token_expired",
		Description: "the wallet credential has expired",
	}

	// ErrPayeeUnresolved is returned for payouts targeting a user with no
	// resolved payee identity.
	ErrPayeeUnresolved = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        "payee_unresolved",
		Description: "no payee identity resolved for this user; retry resolution first",
	}

	// ErrNoToken is returned when no valid service token is available.
	ErrNoToken = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        "no_valid_token",
		Description: "no valid service token available",
	}

	// ErrServerError is the fallback for unexpected failures.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        "server_error",
		Description: "internal server error",
	}
)

// writeDomainError maps engine errors onto API errors.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCode):
		ErrInvalidCode.WriteError(w)
	case errors.Is(err, domain.ErrInvalidAmount):
		ErrInvalidAmount.WriteError(w)
	case errors.Is(err, domain.ErrInvalidInput):
		ErrInvalidRequest.WriteError(w)
	case errors.Is(err, domain.ErrTokenExpired):
		ErrTokenExpired.WriteError(w)
	case errors.Is(err, domain.ErrPayeeUnresolved):
		ErrPayeeUnresolved.WriteError(w)
	case errors.Is(err, domain.ErrNoToken):
		ErrNoToken.WriteError(w)
	case errors.Is(err, domain.ErrProviderAuth):
		ErrProviderAuth.WriteError(w)
	case errors.Is(err, domain.ErrProviderCall):
		ErrProviderCall.WriteError(w)
	default:
		ErrServerError.WriteError(w)
	}
}
