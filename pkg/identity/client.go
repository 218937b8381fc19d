package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gardenseed/storefront/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

const responseReadLimit int64 = 4096

// restErrorCodes maps the REST API's error messages onto provider codes.
var restErrorCodes = map[string]string{
	"EMAIL_EXISTS":                CodeEmailInUse,
	"INVALID_EMAIL":               CodeInvalidEmail,
	"WEAK_PASSWORD":               CodeWeakPassword,
	"EMAIL_NOT_FOUND":             CodeUserNotFound,
	"INVALID_PASSWORD":            CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   CodeWrongPassword,
	"TOO_MANY_ATTEMPTS_TRY_LATER": CodeTooManyRetries,
	"USER_DISABLED":               CodeUserDisabled,
	"TOKEN_EXPIRED":               CodeTokenExpired,
}

// Claims are the ID-token claims the client reads. The signature is verified by the backend, not here.
type Claims struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type sessionState struct {
	principal    Principal
	idToken      string
	refreshToken string
	expiresAt    time.Time
}

// Client talks to an Identity-Toolkit-style REST API and keeps the signed-in session in memory.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokenURL   string
	apiKey     string
	skew       time.Duration
	now        func() time.Time

	mu        sync.Mutex
	state     *sessionState
	listeners map[int]Listener
	nextID    int
	dispatch  func(fn func())
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

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSyncDispatch delivers auth-state events on the caller's goroutine instead of a new one.
func WithSyncDispatch() Option {
	return func(c *Client) {
		c.dispatch = func(fn func()) { fn() }
	}
}

// NewClient builds the provider client from config.
func NewClient(cfg config.IdentityConfig, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("identity api key is required")
	}
	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokenURL:   cfg.TokenURL,
		apiKey:     apiKey,
		skew:       cfg.Skew,
		now:        time.Now,
		listeners:  map[int]Listener{},
		dispatch:   func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type authResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// SignIn verifies credentials and starts a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	var resp authResponse
	if err := c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp); err != nil {
		return nil, err
	}
	return c.startSession(ctx, resp), nil
}

// SignUp creates an account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Principal, error) {
	var resp authResponse
	if err := c.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp); err != nil {
		return nil, err
	}
	return c.startSession(ctx, resp), nil
}

// SendPasswordReset asks the provider to email a reset link.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

// SignOut drops the local session and notifies listeners.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.state = nil
	c.mu.Unlock()
	c.notify(ctx, nil)
	return nil
}

// DeleteAccount deletes the signed-in account and ends the session.
func (c *Client) DeleteAccount(ctx context.Context) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}
	if err := c.post(ctx, "accounts:delete", map[string]any{"idToken": token}, nil); err != nil {
		return err
	}
	return c.SignOut(ctx)
}

// Subscribe registers fn for auth-state changes.
func (c *Client) Subscribe(fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Token returns the session's ID token, refreshing it first when it expires within the skew window.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state == nil {
		return "", ErrNoSession
	}
	if c.now().Add(c.skew).Before(state.expiresAt) {
		return state.idToken, nil
	}
	return c.refresh(ctx, state)
}

// CurrentPrincipal returns the signed-in principal, if any.
func (c *Client) CurrentPrincipal() *Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return nil
	}
	p := c.state.principal
	return &p
}

func (c *Client) refresh(ctx context.Context, state *sessionState) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", state.refreshToken)

	endpoint := c.tokenURL + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}

	next := &sessionState{
		principal:    state.principal,
		idToken:      resp.IDToken,
		refreshToken: resp.RefreshToken,
		expiresAt:    c.expiry(resp.IDToken, resp.ExpiresIn),
	}
	if next.refreshToken == "" {
		next.refreshToken = state.refreshToken
	}

	c.mu.Lock()
	// a sign-out or a different sign-in may have happened while refreshing
	if c.state == state {
		c.state = next
	}
	c.mu.Unlock()
	return next.idToken, nil
}

func (c *Client) startSession(ctx context.Context, resp authResponse) *Principal {
	principal := Principal{UID: resp.LocalID, Email: resp.Email}
	c.mu.Lock()
	c.state = &sessionState{
		principal:    principal,
		idToken:      resp.IDToken,
		refreshToken: resp.RefreshToken,
		expiresAt:    c.expiry(resp.IDToken, resp.ExpiresIn),
	}
	c.mu.Unlock()
	c.notify(ctx, &principal)
	out := principal
	return &out
}

// expiry prefers the token's exp claim and falls back to expiresIn seconds.
func (c *Client) expiry(idToken, expiresIn string) time.Time {
	if claims, err := ParseClaims(idToken); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(expiresIn)); err == nil {
		return c.now().Add(time.Duration(secs) * time.Second)
	}
	return c.now()
}

func (c *Client) notify(ctx context.Context, principal *Principal) {
	c.mu.Lock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	for _, fn := range listeners {
		var p *Principal
		if principal != nil {
			copied := *principal
			p = &copied
		}
		c.dispatch(func() { fn(detached, p) })
	}
}

func (c *Client) post(ctx context.Context, method string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}
	endpoint := fmt.Sprintf("%s/%s?key=%s", c.baseURL, method, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode identity response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Message == "" {
		return &Error{Message: fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))}
	}
	message := envelope.Error.Message
	// messages look like "WEAK_PASSWORD : Password should be at least 6 characters"
	key := strings.TrimSpace(strings.SplitN(message, ":", 2)[0])
	return &Error{Code: restErrorCodes[key], Message: message}
}

// ParseClaims decodes ID-token claims without verifying the signature.
func ParseClaims(idToken string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("parse id token: %w", err)
	}
	return claims, nil
}
