package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/core"
	"github.com/example/campmeeting/internal/identity"
	"github.com/example/campmeeting/internal/middleware"
	"github.com/example/campmeeting/internal/models"
)

const (
	afterSignIn   = "/#/home"
	afterRegister = "/#/profile"
)

// AuthHandler serves the sign-in, registration and sign-out endpoints.
type AuthHandler struct {
	identity *identity.Service
	profiles core.ProfileService
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(ids *identity.Service, profiles core.ProfileService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{identity: ids, profiles: profiles, logger: logger}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var form models.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.identity.SignInWithPassword(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.establish(c, http.StatusOK, res, safeReturn(form.Return, afterSignIn))
}

// Register handles POST /auth/register. It creates the account, signs it in
// and writes the initial profile.
func (h *AuthHandler) Register(c *gin.Context) {
	var form models.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.identity.SignUp(c.Request.Context(), form.Email, form.Password, form.FullName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.profiles.Register(c.Request.Context(), res.Identity, form); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.establish(c, http.StatusCreated, res, afterRegister)
}

// PasswordReset handles POST /auth/password-reset.
func (h *AuthHandler) PasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.identity.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Password reset email sent."})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	app := middleware.App(c)
	if id, err := app.Identity(c.Request.Context()); err == nil && id != nil {
		if err := h.identity.SignOut(c.Request.Context(), id.UID); err != nil {
			h.logger.Warn("Failed to revoke refresh tokens", zap.String("uid", id.UID), zap.Error(err))
		}
	}
	if err := middleware.SetIDToken(c, ""); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := app.AuthStateChanged(c.Request.Context(), nil); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out."})
}

// Google handles POST /auth/google. A credential from the popup signs in
// directly; without one the response carries the consent URL of the redirect flow.
func (h *AuthHandler) Google(c *gin.Context) {
	var req GoogleSignInRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	state := identity.NewState()
	res, consentURL, err := h.identity.SignInWithGoogle(c.Request.Context(), credentialPopup(req.Credential), state)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if consentURL != "" {
		if err := middleware.SetOAuthState(c, state); err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, SignInResponse{Redirect: consentURL})
		return
	}
	h.establish(c, http.StatusOK, res, afterSignIn)
}

// GoogleCallback handles GET /auth/google/callback at the end of the redirect flow.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	want, err := middleware.TakeOAuthState(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if want == "" || c.Query("state") != want {
		respondError(c, h.logger, identity.ErrInvalidState)
		return
	}
	if c.Query("error") != "" {
		respondError(c, h.logger, identity.ErrInvalidCredential)
		return
	}
	res, err := h.identity.CompleteRedirect(c.Request.Context(), c.Query("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !h.signIn(c, res) {
		return
	}
	c.Redirect(http.StatusFound, afterSignIn)
}

func (h *AuthHandler) establish(c *gin.Context, status int, res *identity.Result, redirect string) {
	if !h.signIn(c, res) {
		return
	}
	id := res.Identity
	c.JSON(status, SignInResponse{Identity: &id, IDToken: res.IDToken, Redirect: redirect})
}

// signIn stores the token and moves the session's App to the new identity.
func (h *AuthHandler) signIn(c *gin.Context, res *identity.Result) bool {
	if err := middleware.SetIDToken(c, res.IDToken); err != nil {
		respondError(c, h.logger, err)
		return false
	}
	id := res.Identity
	if err := middleware.App(c).AuthStateChanged(c.Request.Context(), &id); err != nil {
		respondError(c, h.logger, err)
		return false
	}
	return true
}

// safeReturn accepts only same-origin paths.
func safeReturn(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return fallback
	}
	return target
}

type credentialPopup string

func (p credentialPopup) GoogleIDToken(context.Context) (string, error) {
	if p == "" {
		return "", identity.ErrPopupBlocked
	}
	return string(p), nil
}
