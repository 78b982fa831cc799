package identity

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

var (
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrEmailExists       = errors.New("an account with this email already exists")
	ErrPopupBlocked      = errors.New("sign-in popup was blocked")
	ErrRedirectDisabled  = errors.New("redirect sign-in is not configured")
	ErrInvalidState      = errors.New("invalid or expired sign-in state")
)

// mapToolkitError translates Identity Toolkit error codes. Unrecognized
// errors pass through wrapped.
func mapToolkitError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("identity service request failed: %w", err)
	}
	code := gerr.Message
	if i := strings.IndexAny(code, " :"); i > 0 {
		code = code[:i]
	}
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED",
		"INVALID_EMAIL", "INVALID_IDP_RESPONSE", "WEAK_PASSWORD":
		return fmt.Errorf("%w: %s", ErrInvalidCredential, gerr.Message)
	case "EMAIL_EXISTS":
		return ErrEmailExists
	}
	return fmt.Errorf("identity service request failed: %w", err)
}
