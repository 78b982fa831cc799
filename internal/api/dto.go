package api

import "github.com/example/campmeeting/internal/models"

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is the body of a completed action.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SignInResponse is returned by the sign-in endpoints. Redirect is where the
// page should go next: a hash route after a completed sign-in, or the Google
// consent URL when the popup was blocked.
type SignInResponse struct {
	Identity *models.Identity `json:"identity,omitempty"`
	IDToken  string           `json:"idToken,omitempty"`
	Redirect string           `json:"redirect"`
}

// PasswordResetRequest asks for a reset email.
type PasswordResetRequest struct {
	Email string `json:"email" form:"email" binding:"required"`
}

// GoogleSignInRequest carries the credential from the Google popup. An empty
// credential means the popup could not be shown.
type GoogleSignInRequest struct {
	Credential string `json:"credential" form:"credential"`
}
