package errors

import (
	"errors"
	"net/http"
)

// Credential errors. These are caller faults and never reach upstream.
var (
	ErrMalformedRequest = errors.New("malformed request")
	ErrUnknownKey       = errors.New("no access key with that id")
	ErrHashMismatch     = errors.New("incorrect hash for access key")
	ErrKeyExpired       = errors.New("access key has expired")
)

// Token errors. The key owner has to delete and re-create the key.
var (
	ErrMissingRefreshToken = errors.New("access key has no refresh token")
	ErrRefreshFailed       = errors.New("failed to refresh access token")
)

// Account and key management errors. ErrAdminOnly and
// ErrUnknownLoginSource end in an auth_error redirect rather than a
// status, so StatusCode does not map them.
var (
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrAccountNotFound    = errors.New("account not found")
	ErrKeyNotFound        = errors.New("access key not found")
	ErrKeyLimit           = errors.New("access key limit reached")
	ErrUnknownServerType  = errors.New("unknown server type")
	ErrAdminOnly          = errors.New("only administrative accounts may create access keys")
	ErrUnknownLoginSource = errors.New("unknown login source")
)

// StatusCode maps an error to the HTTP status returned to the caller.
// Errors outside the known set map to 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMalformedRequest),
		errors.Is(err, ErrUnknownKey),
		errors.Is(err, ErrHashMismatch),
		errors.Is(err, ErrKeyExpired),
		errors.Is(err, ErrUnknownServerType):
		return http.StatusBadRequest
	case errors.Is(err, ErrMissingRefreshToken),
		errors.Is(err, ErrRefreshFailed):
		return http.StatusForbidden
	case errors.Is(err, ErrNotLoggedIn),
		errors.Is(err, ErrKeyLimit):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrKeyNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
