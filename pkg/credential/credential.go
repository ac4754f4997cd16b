// Package credential acquires the bearer credential a batch runs with.
//
// A credential is acquired once, before any item of a batch executes, and is
// shared read-only by every unit of work of that batch. It is never refreshed
// mid-batch and never cached across batches.
package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// ErrMissingConfig is wrapped by AuthError when required secrets are absent.
var ErrMissingConfig = errors.New("credential configuration missing")

// Credential is an opaque bearer credential.
type Credential struct {
	token *oauth2.Token
}

// New wraps a raw access token.
func New(accessToken string) Credential {
	return Credential{token: &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}}
}

// FromToken wraps an oauth2 token.
func FromToken(t *oauth2.Token) Credential {
	return Credential{token: t}
}

// Apply sets the Authorization header on req. A zero Credential leaves req untouched.
func (c Credential) Apply(req *http.Request) {
	if c.token == nil || c.token.AccessToken == "" {
		return
	}
	c.token.SetAuthHeader(req)
}

// Valid reports whether the credential carries a non-expired token.
func (c Credential) Valid() bool {
	return c.token.Valid()
}

// Token returns the underlying token (nil for a zero Credential).
func (c Credential) Token() *oauth2.Token {
	return c.token
}

// String redacts the secret.
func (c Credential) String() string {
	if c.token == nil || c.token.AccessToken == "" {
		return "credential(empty)"
	}
	return fmt.Sprintf("credential(%s ****)", c.token.Type())
}

// Provider produces a credential for one batch.
type Provider interface {
	Acquire(ctx context.Context) (Credential, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (Credential, error)

// Acquire implements Provider.
func (f ProviderFunc) Acquire(ctx context.Context) (Credential, error) {
	return f(ctx)
}

// Static always returns the same access token.
type Static string

// Acquire implements Provider.
func (s Static) Acquire(context.Context) (Credential, error) {
	if s == "" {
		return Credential{}, &AuthError{Provider: "static", Err: ErrMissingConfig}
	}
	return New(string(s)), nil
}

// AuthError reports a failed acquisition. It is batch-fatal.
type AuthError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	msg := fmt.Sprintf("%s credential acquisition failed", e.Provider)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *AuthError) Unwrap() error {
	return e.Err
}
