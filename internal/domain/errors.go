package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers wrap these with context and the HTTP layer maps them with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrNotFound       = errors.New("not found")
	ErrUpstream       = errors.New("upstream service failed")
	ErrStore          = errors.New("record store failed")

	// ErrConflict is a validation failure caused by a uniqueness constraint.
	ErrConflict = fmt.Errorf("%w: already exists", ErrValidation)
	// ErrInvalidToken covers both unknown and expired reset tokens.
	ErrInvalidToken = fmt.Errorf("%w: password reset token is invalid or has expired", ErrNotFound)
)
