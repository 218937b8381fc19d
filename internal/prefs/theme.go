package prefs

import (
	"context"
	"sync"

	"github.com/gardenseed/storefront/internal/users"
	"github.com/gardenseed/storefront/pkg/enums"
	"github.com/gardenseed/storefront/pkg/logger"
)

// RemoteTheme saves the theme on the backend user record.
type RemoteTheme interface {
	UpdateTheme(ctx context.Context, theme enums.Theme) (*users.User, error)
}

// SignedIn reports whether a backend user is currently signed in.
type SignedIn interface {
	CurrentUser() *users.User
}

// Theme holds the light/dark preference. The local store is authoritative; the user record is updated
// best-effort when someone is signed in.
type Theme struct {
	store   *Store
	remote  RemoteTheme
	session SignedIn
	logg    *logger.Logger

	mu      sync.RWMutex
	current enums.Theme
}

func NewTheme(store *Store, remote RemoteTheme, session SignedIn, logg *logger.Logger) *Theme {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Theme{store: store, remote: remote, session: session, logg: logg, current: enums.ThemeLight}
}

// Load reads the persisted theme, defaulting to light when absent or unreadable.
func (t *Theme) Load(ctx context.Context) enums.Theme {
	value, ok, err := t.store.Get(ctx, KeyTheme)
	if err != nil {
		t.logg.Error(ctx, "failed to read theme preference", err)
	}
	theme := enums.ThemeLight
	if ok {
		if parsed, err := enums.ParseTheme(value); err == nil {
			theme = parsed
		}
	}
	t.set(theme)
	return theme
}

// Toggle flips the theme and persists it locally. A failed backend update is only logged.
func (t *Theme) Toggle(ctx context.Context) (enums.Theme, error) {
	next := t.Current().Toggle()
	if err := t.store.Set(ctx, KeyTheme, next.String()); err != nil {
		return t.Current(), err
	}
	t.set(next)

	if t.remote == nil || t.session == nil {
		return next, nil
	}
	user := t.session.CurrentUser()
	if user == nil {
		return next, nil
	}
	ctx = t.logg.WithUserID(ctx, user.ID)
	if _, err := t.remote.UpdateTheme(ctx, next); err != nil {
		t.logg.Warn(t.logg.WithField(ctx, "error", err.Error()), "failed to save theme on user record")
	}
	return next, nil
}

// Sync adopts the theme stored on a freshly loaded user record.
func (t *Theme) Sync(ctx context.Context, user *users.User) error {
	if user == nil || !user.Theme.IsValid() || user.Theme == t.Current() {
		return nil
	}
	if err := t.store.Set(ctx, KeyTheme, user.Theme.String()); err != nil {
		return err
	}
	t.set(user.Theme)
	return nil
}

func (t *Theme) Current() enums.Theme {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func (t *Theme) set(theme enums.Theme) {
	t.mu.Lock()
	t.current = theme
	t.mu.Unlock()
}
