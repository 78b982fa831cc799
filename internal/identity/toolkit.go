package identity

import (
	"context"
	"fmt"

	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// Session is a successful sign-in returned by the identity service.
type Session struct {
	IDToken     string
	UID         string
	Email       string
	DisplayName string
	Provider    string
}

// Toolkit is the client-side half of the identity service: the calls a
// browser would make with the project's web API key.
type Toolkit interface {
	VerifyPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, displayName string) (*Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	VerifyAssertion(ctx context.Context, postBody, requestURI string) (*Session, error)
}

type restToolkit struct {
	rp *identitytoolkit.RelyingpartyService
}

// NewToolkit builds a Toolkit on the Identity Toolkit REST API.
func NewToolkit(ctx context.Context, apiKey string, opts ...option.ClientOption) (Toolkit, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing identity toolkit client: %w", err)
	}
	return &restToolkit{rp: svc.Relyingparty}, nil
}

func (t *restToolkit) VerifyPassword(ctx context.Context, email, password string) (*Session, error) {
	resp, err := t.rp.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapToolkitError(err)
	}
	return &Session{
		IDToken:     resp.IdToken,
		UID:         resp.LocalId,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		Provider:    providerPassword,
	}, nil
}

func (t *restToolkit) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	resp, err := t.rp.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapToolkitError(err)
	}
	return &Session{
		IDToken:     resp.IdToken,
		UID:         resp.LocalId,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		Provider:    providerPassword,
	}, nil
}

func (t *restToolkit) SendPasswordReset(ctx context.Context, email string) error {
	_, err := t.rp.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		Kind:        "identitytoolkit#relyingparty",
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}).Context(ctx).Do()
	if err != nil {
		return mapToolkitError(err)
	}
	return nil
}

func (t *restToolkit) VerifyAssertion(ctx context.Context, postBody, requestURI string) (*Session, error) {
	resp, err := t.rp.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          postBody,
		RequestUri:        requestURI,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapToolkitError(err)
	}
	if resp.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredential, resp.ErrorMessage)
	}
	name := resp.DisplayName
	if name == "" {
		name = resp.FullName
	}
	return &Session{
		IDToken:     resp.IdToken,
		UID:         resp.LocalId,
		Email:       resp.Email,
		DisplayName: name,
		Provider:    resp.ProviderId,
	}, nil
}
