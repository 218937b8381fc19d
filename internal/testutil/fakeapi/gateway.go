package fakeapi

import (
	"context"
	"testing"

	"github.com/gardenseed/storefront/internal/gateway"
	"github.com/gardenseed/storefront/pkg/config"
)

// StaticToken is a token source that always yields uid.
func StaticToken(uid string) gateway.TokenSource {
	return gateway.TokenSourceFunc(func(context.Context) (string, error) {
		return uid, nil
	})
}

// Gateway returns a gateway client for s signed in as uid. An empty uid gives an anonymous client.
func (s *Server) Gateway(t testing.TB, uid string, opts ...gateway.Option) *gateway.Client {
	t.Helper()
	creds := gateway.NewCredentials()
	if uid != "" {
		creds.Set(StaticToken(uid))
	}
	client, err := gateway.New(config.APIConfig{BaseURL: s.BaseURL()}, creds, opts...)
	if err != nil {
		t.Fatalf("build gateway: %v", err)
	}
	return client
}
