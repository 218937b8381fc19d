package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/gardenseed/storefront/internal/gateway"
	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/internal/users"
	"github.com/gardenseed/storefront/pkg/enums"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/identity"
	"github.com/gardenseed/storefront/pkg/logger"
	"github.com/gardenseed/storefront/pkg/types"
	"github.com/gardenseed/storefront/pkg/validators"
	"go.uber.org/multierr"
)

var (
	// ErrBusy is returned by Login while a previous sign-in is still settling.
	ErrBusy = errors.New("session: sign-in already in progress")

	ErrSignedOut = pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to update your profile")
)

// UserAPI is the slice of the users API the session needs.
type UserAPI interface {
	Me(ctx context.Context) (*users.User, error)
	Create(ctx context.Context, input users.CreateInput) (*users.User, error)
	UpdateProfile(ctx context.Context, input users.ProfileInput) (*users.User, error)
}

// principalReporter is implemented by providers that can report who is signed in right now.
type principalReporter interface {
	CurrentPrincipal() *identity.Principal
}

type Params struct {
	Provider    identity.Provider
	Users       UserAPI
	Credentials *gateway.Credentials
	LegacyToken gateway.LegacyTokenStore
	Notifier    notify.Notifier
	Navigator   notify.Navigator
	Logger      *logger.Logger
}

// Store maps the identity provider's session onto the backend user record.
//
// Overlapping HandleAuthState runs are not serialized; the mutex only keeps individual reads and
// writes of the store's fields consistent.
type Store struct {
	provider identity.Provider
	users    UserAPI
	creds    *gateway.Credentials
	legacy   gateway.LegacyTokenStore
	notifier notify.Notifier
	nav      notify.Navigator
	logg     *logger.Logger

	mu          sync.RWMutex
	user        *users.User
	loading     bool
	registering bool
	lastErr     error
	unsubscribe func()
}

func NewStore(p Params) (*Store, error) {
	if p.Provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if p.Users == nil {
		return nil, errors.New("users api is required")
	}
	if p.Credentials == nil {
		return nil, errors.New("credentials slot is required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Notifier == nil {
		p.Notifier = notify.NewLogNotifier(p.Logger)
	}
	if p.Navigator == nil {
		p.Navigator = notify.NewLogNavigator(p.Logger)
	}
	return &Store{
		provider: p.Provider,
		users:    p.Users,
		creds:    p.Credentials,
		legacy:   p.LegacyToken,
		notifier: p.Notifier,
		nav:      p.Navigator,
		logg:     p.Logger,
		loading:  true,
	}, nil
}

// Start subscribes to auth-state changes and settles the initial state.
func (s *Store) Start(ctx context.Context) {
	unsubscribe := s.provider.Subscribe(s.HandleAuthState)
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	var current *identity.Principal
	if reporter, ok := s.provider.(principalReporter); ok {
		current = reporter.CurrentPrincipal()
	}
	s.HandleAuthState(ctx, current)
}

// Stop detaches from the provider.
func (s *Store) Stop() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// HandleAuthState reacts to the provider reporting a principal (signed in) or nil (signed out).
func (s *Store) HandleAuthState(ctx context.Context, principal *identity.Principal) {
	defer s.setLoading(false)

	if principal == nil {
		s.clear()
		return
	}

	s.mu.RLock()
	registering := s.registering
	s.mu.RUnlock()
	if registering {
		// Register syncs the record itself once the backend user exists.
		s.creds.Set(s.tokenSource())
		return
	}
	_ = s.sync(ctx, principal)
}

// sync installs the session credential, fetches the backend record and routes by role. Any failure
// signs the principal out again.
func (s *Store) sync(ctx context.Context, principal *identity.Principal) error {
	ctx = s.logg.WithField(ctx, "user_uid", principal.UID)
	s.creds.Set(s.tokenSource())

	me, err := s.users.Me(ctx)
	if err == nil && !me.IsActive {
		err = pkgerrors.New(pkgerrors.CodeAccountLocked, MessageAccountBlocked)
	}
	if err != nil {
		s.logg.Error(ctx, "failed to sync session with backend", err)
		if signOutErr := s.provider.SignOut(ctx); signOutErr != nil {
			s.logg.Error(ctx, "failed to sign out after session sync failure", signOutErr)
		}
		s.clear()
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		if pkgerrors.Is(err, pkgerrors.CodeAccountLocked) {
			s.notifier.Error(ctx, MessageAccountBlocked, nil)
		}
		return err
	}

	s.mu.Lock()
	s.user = me.Clone()
	s.lastErr = nil
	s.mu.Unlock()

	ctx = s.logg.WithUserID(ctx, me.ID)
	s.logg.Info(ctx, "session synced")
	if me.IsSuperuser {
		s.nav.Navigate(ctx, enums.RouteAdmin)
	} else {
		s.nav.Navigate(ctx, enums.RouteHome)
	}
	return nil
}

// Login verifies credentials with the provider. The backend record arrives through HandleAuthState,
// so CurrentUser may still be nil when Login returns.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.loading = true
	s.mu.Unlock()
	defer s.setLoading(false)

	if _, err := s.provider.SignIn(ctx, strings.TrimSpace(email), password); err != nil {
		s.logg.Error(ctx, "login failed", err)
		s.notifier.Error(ctx, Message(err), nil)
		return err
	}
	return nil
}

// Register creates the provider account and then the backend record. When the backend step fails the
// provider account is deleted again so the two never diverge.
func (s *Store) Register(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validators.Var("email", email, "required,email"); err != nil {
		s.notifier.Error(ctx, Message(err), nil)
		return err
	}

	s.mu.Lock()
	s.registering = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.registering = false
		s.mu.Unlock()
	}()

	principal, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		s.logg.Error(ctx, "register failed", err)
		s.notifier.Error(ctx, Message(err), nil)
		return err
	}
	s.creds.Set(s.tokenSource())

	_, err = s.users.Create(ctx, users.CreateInput{
		Email:    email,
		Password: password,
		UserUID:  principal.UID,
		Theme:    enums.ThemeLight.String(),
	})
	if err != nil {
		ctx = s.logg.WithField(ctx, "user_uid", principal.UID)
		s.logg.Error(ctx, "failed to create backend user; rolling back identity account", err)
		if compErr := s.provider.DeleteAccount(ctx); compErr != nil {
			s.logg.Error(ctx, "failed to roll back identity account", compErr)
			err = multierr.Append(err, pkgerrors.Wrap(pkgerrors.CodeIdentity, compErr, "delete identity account"))
		}
		s.clear()
		s.notifier.Error(ctx, Message(err), nil)
		return err
	}

	s.mu.Lock()
	s.registering = false
	s.mu.Unlock()
	return s.sync(ctx, principal)
}

// Logout ends the provider session and drops every piece of local auth state.
func (s *Store) Logout(ctx context.Context) error {
	err := s.provider.SignOut(ctx)
	s.clear()
	if s.legacy != nil {
		err = multierr.Append(err, s.legacy.RemoveLegacyToken(ctx))
	}
	if err != nil {
		s.logg.Error(ctx, "logout cleanup failed", err)
	}
	s.nav.Navigate(ctx, enums.RouteLogin)
	return err
}

// ResetPassword asks the provider to send a reset email.
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validators.Var("email", email, "required,email"); err != nil {
		s.notifier.Error(ctx, Message(err), nil)
		return err
	}
	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		s.logg.Error(ctx, "password reset failed", err)
		s.notifier.Error(ctx, Message(err), nil)
		return err
	}
	s.notifier.Success(ctx, "Password reset email sent")
	return nil
}

// UpdateUser merges a local profile change into the current user. No-op when signed out.
func (s *Store) UpdateUser(patch users.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.user.Apply(patch)
	}
}

// SaveProfile sends the profile form and merges the returned record into the current user. A complete
// profile comes back verified, which is what lets the user check out.
func (s *Store) SaveProfile(ctx context.Context, input users.ProfileInput) (*users.User, error) {
	if s.CurrentUser() == nil {
		return nil, ErrSignedOut
	}
	input.Phone = users.FormatPhone(input.Phone)

	updated, err := s.users.UpdateProfile(ctx, input)
	if err != nil {
		s.logg.Error(ctx, "failed to update profile", err)
		msg := "Failed to update profile"
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation && typed.Message() != "" {
			msg = typed.Message()
		}
		s.notifier.Error(ctx, msg, nil)
		return nil, err
	}

	verified := updated.Verified
	patch := users.Patch{Verified: &verified, Addresses: updated.Addresses}
	if updated.FullName != nil {
		patch.FullName = updated.FullName
	}
	if patch.Addresses == nil {
		patch.Addresses = []types.Address{}
	}
	s.UpdateUser(patch)

	if verified {
		s.notifier.Success(ctx, "Profile updated and verified")
	} else {
		s.notifier.Success(ctx, "Profile updated; fill in every field to get verified")
	}
	return s.CurrentUser(), nil
}

// CurrentUser returns a copy of the backend record, or nil when signed out.
func (s *Store) CurrentUser() *users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsSuperuser
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError is the failure that ended the most recent session sync, if any.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) tokenSource() gateway.TokenSource {
	return gateway.TokenSourceFunc(s.provider.Token)
}

func (s *Store) clear() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	s.creds.Clear()
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
