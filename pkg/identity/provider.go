package identity

import (
	"context"
	"errors"
)

// ErrNoSession is returned by Token when nobody is signed in.
var ErrNoSession = errors.New("identity: no active session")

// Principal is the provider-side identity of a signed-in user.
type Principal struct {
	UID   string
	Email string
}

// Listener receives auth-state changes. A nil principal means signed out.
type Listener func(ctx context.Context, principal *Principal)

// Provider is the capability set consumed from the external identity provider.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Principal, error)
	SignUp(ctx context.Context, email, password string) (*Principal, error)
	SendPasswordReset(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
	Subscribe(fn Listener) (unsubscribe func())
	// Token returns a fresh ID token for the current session, refreshing it when close to expiry.
	Token(ctx context.Context) (string, error)
	// DeleteAccount removes the currently signed-in account.
	DeleteAccount(ctx context.Context) error
}

// Provider error codes, in the provider's own namespace.
const (
	CodeEmailInUse     = "auth/email-already-in-use"
	CodeInvalidEmail   = "auth/invalid-email"
	CodeWeakPassword   = "auth/weak-password"
	CodeUserNotFound   = "auth/user-not-found"
	CodeWrongPassword  = "auth/wrong-password"
	CodeTooManyRetries = "auth/too-many-requests"
	CodeUserDisabled   = "auth/user-disabled"
	CodeTokenExpired   = "auth/user-token-expired"
)

// Error is a provider failure carrying the provider's code and raw message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Code == "" {
		return "identity: " + e.Message
	}
	return "identity: " + e.Code + ": " + e.Message
}

// AsError extracts a provider error from err's chain.
func AsError(err error) (*Error, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}
