// Package identity signs users in against Firebase Authentication.
//
// Password, registration and reset flows go through the Identity Toolkit REST
// API with the web API key, the same calls the browser SDK makes. ID tokens are
// verified and refresh tokens revoked with the Admin SDK.
package identity

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"

	"firebase.google.com/go/v4/auth"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/example/campmeeting/internal/models"
)

const (
	providerPassword = "password"
	providerGoogle   = "google.com"
)

// Admin is the subset of the Admin SDK auth client the service needs.
type Admin interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// Popup obtains a Google ID token from an interactive popup. It returns
// ErrPopupBlocked when no popup could be shown.
type Popup interface {
	GoogleIDToken(ctx context.Context) (string, error)
}

// OAuthConfig configures the redirect fallback. Empty ClientID disables it.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Result is a completed sign-in.
type Result struct {
	Identity models.Identity
	IDToken  string
}

// Service implements the sign-in flows.
type Service struct {
	toolkit Toolkit
	admin   Admin
	oauth   *oauth2.Config
	logger  *zap.Logger
}

// NewService creates a Service.
func NewService(toolkit Toolkit, admin Admin, oauthCfg OAuthConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{toolkit: toolkit, admin: admin, logger: logger}
	if oauthCfg.ClientID != "" {
		s.oauth = &oauth2.Config{
			ClientID:     oauthCfg.ClientID,
			ClientSecret: oauthCfg.ClientSecret,
			RedirectURL:  oauthCfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return s
}

// VerifyIDToken checks a Firebase ID token and returns its identity.
func (s *Service) VerifyIDToken(ctx context.Context, idToken string) (*models.Identity, error) {
	if idToken == "" {
		return nil, ErrInvalidCredential
	}
	token, err := s.admin.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	id := &models.Identity{UID: token.UID, Provider: normalizeProvider(token.Firebase.SignInProvider)}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.DisplayName = name
	}
	return id, nil
}

// SignInWithPassword signs in with email and password.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*Result, error) {
	sess, err := s.toolkit.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.result(sess), nil
}

// SignUp creates a password account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*Result, error) {
	sess, err := s.toolkit.SignUp(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	if sess.DisplayName == "" {
		sess.DisplayName = displayName
	}
	return s.result(sess), nil
}

// SendPasswordReset asks the identity service to email a reset link.
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	return s.toolkit.SendPasswordReset(ctx, email)
}

// SignOut revokes the user's refresh tokens.
func (s *Service) SignOut(ctx context.Context, uid string) error {
	if uid == "" {
		return nil
	}
	if err := s.admin.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("failed to revoke tokens for '%s': %w", uid, err)
	}
	return nil
}

// SignInWithGoogle tries the popup first. When the popup is blocked it falls
// back to the redirect flow and returns the consent URL instead of a result.
func (s *Service) SignInWithGoogle(ctx context.Context, popup Popup, state string) (*Result, string, error) {
	idToken, err := popup.GoogleIDToken(ctx)
	if err == nil {
		res, err := s.signInWithAssertion(ctx, url.Values{"id_token": {idToken}, "providerId": {providerGoogle}})
		return res, "", err
	}
	if !errors.Is(err, ErrPopupBlocked) {
		return nil, "", err
	}
	if s.oauth == nil {
		return nil, "", ErrRedirectDisabled
	}
	s.logger.Debug("Popup blocked, falling back to redirect sign-in")
	return nil, s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// RedirectEnabled reports whether the redirect fallback is configured.
func (s *Service) RedirectEnabled() bool {
	return s.oauth != nil
}

// CompleteRedirect exchanges the authorization code and signs in with the Google credential.
func (s *Service) CompleteRedirect(ctx context.Context, code string) (*Result, error) {
	if s.oauth == nil {
		return nil, ErrRedirectDisabled
	}
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange failed: %v", ErrInvalidCredential, err)
	}
	body := url.Values{"providerId": {providerGoogle}}
	if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
		body.Set("id_token", idToken)
	} else {
		body.Set("access_token", token.AccessToken)
	}
	return s.signInWithAssertion(ctx, body)
}

func (s *Service) signInWithAssertion(ctx context.Context, body url.Values) (*Result, error) {
	requestURI := "http://localhost"
	if s.oauth != nil && s.oauth.RedirectURL != "" {
		requestURI = s.oauth.RedirectURL
	}
	sess, err := s.toolkit.VerifyAssertion(ctx, body.Encode(), requestURI)
	if err != nil {
		return nil, err
	}
	if sess.Provider == "" {
		sess.Provider = providerGoogle
	}
	return s.result(sess), nil
}

func (s *Service) result(sess *Session) *Result {
	return &Result{
		IDToken: sess.IDToken,
		Identity: models.Identity{
			UID:         sess.UID,
			Email:       sess.Email,
			DisplayName: sess.DisplayName,
			Provider:    normalizeProvider(sess.Provider),
		},
	}
}

func normalizeProvider(p string) string {
	if p == providerGoogle || p == models.ProviderGoogle {
		return models.ProviderGoogle
	}
	return models.ProviderPassword
}

// NewState returns a random value for the OAuth state parameter.
func NewState() string {
	return base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
}
