package errs

import (
	"errors"
	"net/http"
)

// Authentication & Authorization Errors
var (
	ErrMissingToken = errors.New("missing admin token")
	ErrInvalidToken = errors.New("invalid admin token")
)

// NewMissingTokenError is returned when the admin header is absent.
func NewMissingTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrMissingToken,
		Details:    "No token provided, authorization denied",
		Field:      "x-admin-token",
	}
}

// NewInvalidTokenError is returned when the admin header does not match the secret.
func NewInvalidTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusForbidden,
		err:        ErrInvalidToken,
		Details:    "Invalid token, access denied",
		Field:      "x-admin-token",
	}
}
