package service

import (
	"errors"
	"fmt"
	"time"
)

// Business-rule violations the HTTP layer maps to 400-class responses.
// Anything else escaping the service is an internal error and collapses
// to the opaque 500 message at the boundary.
var (
	ErrMissingFields      = errors.New("please provide all the required fields")
	ErrInvalidEmail       = errors.New("please provide a valid email")
	ErrEmailTaken         = errors.New("email already exists")
	ErrUserIDTaken        = errors.New("userId already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenExpired       = errors.New("token expired")
	ErrAlreadyVerified    = errors.New("user is already verified")
	ErrRefreshMissing     = errors.New("refresh token not found")
	ErrInvalidRefresh     = errors.New("invalid refresh token")

	// ErrMailDispatch marks a failed delivery attempt. Deliberately
	// non-fatal to the caller-visible status: the user row and the
	// stored verification token are already in place.
	ErrMailDispatch = errors.New("error in sending mail")
)

// RateLimitedError reports how long the caller has to wait before a new
// verification mail may be requested.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("verification mail already sent, you can resend it after %d ms", e.RetryAfter.Milliseconds())
}
