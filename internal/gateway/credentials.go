package gateway

import (
	"context"
	"sync/atomic"
)

// TokenSource yields a bearer token for the active identity session. Implementations must return a
// fresh token on every call rather than a cached credential.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

type credential struct {
	src TokenSource
}

// Credentials is the slot holding the credential every outgoing request is authorized with.
// Writers swap it atomically; each request snapshots it once at dispatch.
type Credentials struct {
	current atomic.Pointer[credential]
}

func NewCredentials() *Credentials {
	return &Credentials{}
}

// Set installs src as the current credential.
func (c *Credentials) Set(src TokenSource) {
	if src == nil {
		c.Clear()
		return
	}
	c.current.Store(&credential{src: src})
}

// Clear removes the current credential.
func (c *Credentials) Clear() {
	c.current.Store(nil)
}

// Active reports whether a credential is installed.
func (c *Credentials) Active() bool {
	return c.current.Load() != nil
}

func (c *Credentials) snapshot() *credential {
	return c.current.Load()
}

// clearIf removes the credential only if it is still the one observed at dispatch, so a late 401 from a
// previous session cannot wipe a newer one.
func (c *Credentials) clearIf(observed *credential) bool {
	if observed == nil {
		return false
	}
	return c.current.CompareAndSwap(observed, nil)
}
