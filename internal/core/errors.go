package core

import "errors"

var (
	ErrLoginRequired   = errors.New("login required")
	ErrForbidden       = errors.New("your role does not allow this action")
	ErrInvalidInput    = errors.New("invalid input")
	ErrProfileNotFound = errors.New("profile not found")
)
