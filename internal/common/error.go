// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrInvalidArgument = errors.New("invalid argument")

	// Registration / login errors.
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token rotation errors, in the order the redeem flow checks them.
	ErrTokenNotExpiredYet   = errors.New("token has not expired yet")
	ErrRefreshTokenNotFound = errors.New("refresh token does not exist")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrRefreshTokenUsed     = errors.New("refresh token already used")
	ErrTokenMismatch        = errors.New("refresh token does not match this token")
)
