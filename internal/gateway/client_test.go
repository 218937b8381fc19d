package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gardenseed/storefront/pkg/config"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/identity"
	"github.com/gardenseed/storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestCarriesFreshTokenPerCall(t *testing.T) {
	var issued int32
	creds := NewCredentials()
	creds.Set(TokenSourceFunc(func(ctx context.Context) (string, error) {
		n := atomic.AddInt32(&issued, 1)
		return fmt.Sprintf("token-%d", n), nil
	}))

	var seen []string
	client := newTestClient(t, creds, func(req *http.Request) (*http.Response, error) {
		seen = append(seen, req.Header.Get("Authorization"))
		return response(http.StatusOK, `{"ok":true}`), nil
	})

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, client.Get(context.Background(), "/users/me", &out))
	require.NoError(t, client.Get(context.Background(), "/users/me", &out))

	assert.True(t, out.OK)
	assert.Equal(t, []string{"Bearer token-1", "Bearer token-2"}, seen)
}

func TestRequestWithoutCredentialIsAnonymous(t *testing.T) {
	client := newTestClient(t, NewCredentials(), func(req *http.Request) (*http.Response, error) {
		assert.Empty(t, req.Header.Get("Authorization"))
		assert.Equal(t, "http://api.test/api/v1/products", req.URL.Scheme+"://"+req.URL.Host+req.URL.Path)
		assert.Equal(t, "manufacturer", req.URL.Query().Get("include"))
		return response(http.StatusOK, `[]`), nil
	})

	var out []map[string]any
	require.NoError(t, client.Get(context.Background(), "/products", &out, WithQuery("include", "manufacturer")))
}

func TestNoSessionFromSourceSendsAnonymously(t *testing.T) {
	creds := NewCredentials()
	creds.Set(TokenSourceFunc(func(ctx context.Context) (string, error) {
		return "", identity.ErrNoSession
	}))
	client := newTestClient(t, creds, func(req *http.Request) (*http.Response, error) {
		assert.Empty(t, req.Header.Get("Authorization"))
		return response(http.StatusNoContent, ``), nil
	})
	require.NoError(t, client.Delete(context.Background(), "/cart/", nil))
}

func TestTokenFailureBlocksDispatch(t *testing.T) {
	creds := NewCredentials()
	creds.Set(TokenSourceFunc(func(ctx context.Context) (string, error) {
		return "", errors.New("refresh failed")
	}))
	client := newTestClient(t, creds, func(req *http.Request) (*http.Response, error) {
		t.Fatal("request must not be sent without a token")
		return nil, nil
	})

	err := client.Get(context.Background(), "/cart/", nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeIdentity))
}

func TestUnauthorizedClearsCredentialAndLegacyToken(t *testing.T) {
	creds := NewCredentials()
	creds.Set(TokenSourceFunc(func(ctx context.Context) (string, error) { return "expired", nil }))
	legacy := &legacyStore{}
	reg := prometheus.NewRegistry()
	gm := metrics.NewGatewayMetrics(reg)

	calls := 0
	var secondAuth string
	client := newTestClient(t, creds, func(req *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return response(http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`), nil
		}
		secondAuth = req.Header.Get("Authorization")
		return response(http.StatusOK, `{}`), nil
	}, WithLegacyTokenStore(legacy), WithMetrics(gm))

	err := client.Get(context.Background(), "/users/me", nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, http.StatusUnauthorized, pkgerrors.Status(err))
	assert.Equal(t, "Could not validate credentials", pkgerrors.As(err).Message())
	assert.False(t, creds.Active())
	assert.Equal(t, 1, legacy.removed)
	assert.Equal(t, 1.0, counterValue(t, reg, "storefront_api_unauthorized_total"))

	require.NoError(t, client.Get(context.Background(), "/products", nil))
	assert.Empty(t, secondAuth, "next request must go out without authorization")
}

func TestLateUnauthorizedKeepsNewerCredential(t *testing.T) {
	creds := NewCredentials()
	creds.Set(TokenSourceFunc(func(ctx context.Context) (string, error) { return "old", nil }))

	client := newTestClient(t, creds, func(req *http.Request) (*http.Response, error) {
		// a new session lands while the old request is in flight
		creds.Set(TokenSourceFunc(func(ctx context.Context) (string, error) { return "new", nil }))
		return response(http.StatusUnauthorized, `{"detail":"expired"}`), nil
	})

	require.Error(t, client.Get(context.Background(), "/orders/", nil))
	assert.True(t, creds.Active(), "a 401 for the previous session must not clear the new one")
}

func TestErrorsMapStatusAndDetail(t *testing.T) {
	cases := []struct {
		status  int
		body    string
		code    pkgerrors.Code
		message string
	}{
		{status: http.StatusBadRequest, body: `{"detail":"Category already exists"}`, code: pkgerrors.CodeValidation, message: "Category already exists"},
		{status: http.StatusNotFound, body: `{"detail":"Order not found"}`, code: pkgerrors.CodeNotFound, message: "Order not found"},
		{status: http.StatusUnprocessableEntity, body: `{"detail":[{"msg":"field required"},{"msg":"value is not a valid integer"}]}`, code: pkgerrors.CodeStateConflict, message: "field required; value is not a valid integer"},
		{status: http.StatusBadGateway, body: `upstream down`, code: pkgerrors.CodeDependency, message: "upstream down"},
		{status: http.StatusInternalServerError, body: ``, code: pkgerrors.CodeDependency, message: "POST /orders/ failed with status 500"},
	}
	for _, tc := range cases {
		client := newTestClient(t, NewCredentials(), func(req *http.Request) (*http.Response, error) {
			return response(tc.status, tc.body), nil
		})
		err := client.Post(context.Background(), "/orders/", map[string]any{"a": 1}, nil)
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, tc.code, typed.Code(), "status %d", tc.status)
		assert.Equal(t, tc.message, typed.Message(), "status %d", tc.status)
		assert.Equal(t, tc.status, typed.HTTPStatus())
	}
}

func TestTransportFailureIsDependencyError(t *testing.T) {
	client := newTestClient(t, NewCredentials(), func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	err := client.Get(context.Background(), "/cart/", nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
	assert.Zero(t, pkgerrors.Status(err))
}

func TestRequestBodyAndIdempotencyKey(t *testing.T) {
	client := newTestClient(t, NewCredentials(), func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		assert.JSONEq(t, `{"product_id":3,"quantity":2}`, string(body))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, "key-1", req.Header.Get("Idempotency-Key"))
		return response(http.StatusCreated, `{"id":11}`), nil
	})

	var out struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, client.Post(context.Background(), "cart/", map[string]int{"product_id": 3, "quantity": 2}, &out, WithIdempotencyKey("key-1")))
	assert.Equal(t, int64(11), out.ID)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/cart/item/:id", routeLabel("/cart/item/42"))
	assert.Equal(t, "/orders/admin/:id/status/", routeLabel("/orders/admin/7/status/"))
	assert.Equal(t, "/products", routeLabel("/products?include=manufacturer"))
	assert.Equal(t, "/a/:id/:id", routeLabel("/a/1/2"))
}

func newTestClient(t *testing.T, creds *Credentials, fn roundTripFunc, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: fn})}, opts...)
	client, err := New(config.APIConfig{BaseURL: "http://api.test/api/v1/"}, creds, opts...)
	require.NoError(t, err)
	return client
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

type legacyStore struct {
	removed int
}

func (l *legacyStore) RemoveLegacyToken(ctx context.Context) error {
	l.removed++
	return nil
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
