package handlers

import (
	"errors"
	"net/http"

	"github.com/libertyblog/api/internal/application"
)

// statusFor maps application errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrEmailTaken),
		errors.Is(err, application.ErrWeakPassword),
		errors.Is(err, application.ErrSamePassword),
		errors.Is(err, application.ErrWrongPassword),
		errors.Is(err, application.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrEmailNotVerified):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
