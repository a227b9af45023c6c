package application

import "errors"

// Application error taxonomy. Handlers map these onto HTTP statuses:
// validation 400, authentication 401, forbidden 403, not found 404.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password does not meet the password requirements")
	ErrSamePassword       = errors.New("new password cannot be the same as the old password")
	ErrWrongPassword      = errors.New("old password does not match")
)
