package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gardenseed/storefront/pkg/config"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/identity"
	"github.com/gardenseed/storefront/pkg/logger"
	"github.com/gardenseed/storefront/pkg/metrics"
)

const errorBodyReadLimit int64 = 4096

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// LegacyTokenStore holds the token older screens cached locally; a 401 removes it.
type LegacyTokenStore interface {
	RemoveLegacyToken(ctx context.Context) error
}

// Client is the single point of outbound HTTP communication with the backend REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      *Credentials
	legacy     LegacyTokenStore
	metrics    *metrics.GatewayMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithMetrics(m *metrics.GatewayMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// WithLegacyTokenStore registers the local store whose cached token is dropped on 401.
func WithLegacyTokenStore(store LegacyTokenStore) Option {
	return func(c *Client) { c.legacy = store }
}

// New builds the gateway for the configured API base URL.
func New(cfg config.APIConfig, creds *Credentials, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api base url is required")
	}
	if creds == nil {
		return nil, errors.New("credentials slot is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		creds:      creds,
		logg:       logger.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Credentials exposes the credential slot the session store writes.
func (c *Client) Credentials() *Credentials {
	return c.creds
}

// RequestOption decorates a single outgoing request.
type RequestOption func(*http.Request)

// WithIdempotencyKey tags the request so the backend can de-duplicate resubmissions.
func WithIdempotencyKey(key string) RequestOption {
	return func(r *http.Request) {
		if key != "" {
			r.Header.Set("Idempotency-Key", key)
		}
	}
}

// WithQuery appends a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(r *http.Request) {
		q := r.URL.Query()
		q.Set(key, value)
		r.URL.RawQuery = q.Encode()
	}
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do sends one request. The bearer token is obtained from the credential installed at dispatch time;
// obtaining it blocks the request. Non-2xx responses come back as typed errors carrying the status.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}

	cred := c.creds.snapshot()
	if err := c.authorize(ctx, req, cred); err != nil {
		return err
	}

	route := routeLabel(path)
	started := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, route, 0, c.now().Sub(started))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, route))
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.ObserveRequest(method, route, resp.StatusCode, c.now().Sub(started))

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx, cred)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp, method, route)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request, cred *credential) error {
	if cred == nil {
		return nil
	}
	token, err := cred.src.Token(ctx)
	if errors.Is(err, identity.ErrNoSession) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeIdentity, err, "obtain session token")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (c *Client) handleUnauthorized(ctx context.Context, cred *credential) {
	c.metrics.IncUnauthorized()
	c.creds.clearIf(cred)
	if c.legacy != nil {
		if err := c.legacy.RemoveLegacyToken(ctx); err != nil {
			c.logg.Error(ctx, "failed to remove legacy token", err)
		}
	}
	c.logg.Warn(ctx, "backend rejected credential; cleared local auth state")
}

func (c *Client) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func decodeError(resp *http.Response, method, route string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	message := detailMessage(raw)
	if message == "" {
		message = fmt.Sprintf("%s %s failed with status %d", method, route, resp.StatusCode)
	}
	return pkgerrors.New(pkgerrors.FromStatus(resp.StatusCode), message).
		WithStatus(resp.StatusCode).
		WithDetails(map[string]any{"method": method, "route": route})
}

// detailMessage extracts the backend's "detail" field, which is either a string or a list of
// validation entries.
func detailMessage(raw []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(raw))
	}
	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}
	var entries []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &entries); err == nil {
		msgs := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Msg != "" {
				msgs = append(msgs, e.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(envelope.Detail)
}

func routeLabel(path string) string {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	for numericSegment.MatchString(path) {
		path = numericSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}
