package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gardenseed/storefront/internal/admin"
	"github.com/gardenseed/storefront/internal/cart"
	"github.com/gardenseed/storefront/internal/catalog"
	"github.com/gardenseed/storefront/internal/chat"
	"github.com/gardenseed/storefront/internal/checkout"
	"github.com/gardenseed/storefront/internal/gateway"
	"github.com/gardenseed/storefront/internal/legacy"
	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/internal/orders"
	"github.com/gardenseed/storefront/internal/prefs"
	"github.com/gardenseed/storefront/internal/session"
	"github.com/gardenseed/storefront/internal/users"
	"github.com/gardenseed/storefront/pkg/config"
	"github.com/gardenseed/storefront/pkg/db"
	"github.com/gardenseed/storefront/pkg/identity"
	"github.com/gardenseed/storefront/pkg/logger"
	"github.com/gardenseed/storefront/pkg/metrics"
	"github.com/gardenseed/storefront/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// App holds every store of the storefront client, wired against one backend.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry

	Notifier  notify.Notifier
	Navigator notify.Navigator

	Identity    identity.Provider
	Credentials *gateway.Credentials
	Gateway     *gateway.Client
	Session     *session.Store

	Users    *users.API
	Cart     *cart.Store
	Orders   *orders.API
	History  *orders.History
	Checkout *checkout.Flow
	Catalog  *catalog.API

	OrderBoard        *orders.Board
	CategoryBoard     *admin.CategoryBoard
	ManufacturerBoard *admin.ManufacturerBoard
	ProductBoard      *admin.ProductBoard
	UserBoard         *admin.UserBoard

	Prefs  *prefs.Store
	Theme  *prefs.Theme
	Legacy *legacy.Service

	closers []func() error
}

type options struct {
	provider  identity.Provider
	notifier  notify.Notifier
	navigator notify.Navigator
	registry  *prometheus.Registry
}

type Option func(*options)

// WithIdentityProvider replaces the REST identity client built from config.
func WithIdentityProvider(p identity.Provider) Option {
	return func(o *options) { o.provider = p }
}

func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithNavigator(n notify.Navigator) Option {
	return func(o *options) { o.navigator = n }
}

func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// New connects the local databases (and redis when configured) and wires every store. The caller owns
// the returned App and must Close it.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts ...Option) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = notify.NewLogNotifier(logg)
	}
	if o.navigator == nil {
		o.navigator = notify.NewLogNavigator(logg)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	a := &App{
		Config:    cfg,
		Logger:    logg,
		Registry:  o.registry,
		Notifier:  o.notifier,
		Navigator: o.navigator,
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, a.Close())
		}
	}()

	localDB, err := db.New(ctx, db.Options{Driver: config.DriverSQLite, DSN: cfg.Local.Path}, logg)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	a.closers = append(a.closers, localDB.Close)
	if a.Prefs, err = prefs.NewStore(ctx, localDB); err != nil {
		return nil, err
	}

	legacyDB, err := db.New(ctx, db.Options{Driver: cfg.Legacy.Driver, DSN: cfg.Legacy.DSN}, logg)
	if err != nil {
		return nil, fmt.Errorf("opening legacy store: %w", err)
	}
	a.closers = append(a.closers, legacyDB.Close)
	if a.Legacy, err = legacy.NewService(ctx, legacyDB, cfg.Legacy.Collection, logg); err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		if redisClient, err = redis.New(ctx, cfg.Redis, logg); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redisClient.Close)
	}

	a.Identity = o.provider
	if a.Identity == nil {
		if a.Identity, err = identity.NewClient(cfg.Identity, identity.WithSyncDispatch()); err != nil {
			return nil, err
		}
	}

	a.Credentials = gateway.NewCredentials()
	a.Gateway, err = gateway.New(cfg.API, a.Credentials,
		gateway.WithLogger(logg),
		gateway.WithMetrics(metrics.NewGatewayMetrics(a.Registry)),
		gateway.WithLegacyTokenStore(a.Prefs),
	)
	if err != nil {
		return nil, err
	}

	a.Users = users.NewAPI(a.Gateway)
	a.Session, err = session.NewStore(session.Params{
		Provider:    a.Identity,
		Users:       a.Users,
		Credentials: a.Credentials,
		LegacyToken: a.Prefs,
		Notifier:    a.Notifier,
		Navigator:   a.Navigator,
		Logger:      logg,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { a.Session.Stop(); return nil })

	a.Theme = prefs.NewTheme(a.Prefs, a.Users, a.Session, logg)
	a.Cart = cart.NewStore(a.Gateway, a.Notifier, logg)
	a.Orders = orders.NewAPI(a.Gateway)
	a.History = orders.NewHistory(a.Orders, a.Notifier, logg)
	a.OrderBoard = orders.NewBoard(a.Orders, a.Notifier, logg)

	catalogOpts := []catalog.Option{catalog.WithLogger(logg)}
	var keys checkout.KeyStash = checkout.NewMemoryStash()
	if redisClient != nil {
		catalogOpts = append(catalogOpts, catalog.WithCache(redisClient, cfg.Cache.CatalogTTL))
		keys = checkout.NewRedisStash(redisClient)
	}
	a.Catalog = catalog.NewAPI(a.Gateway, catalogOpts...)
	a.CategoryBoard = admin.NewCategoryBoard(a.Catalog, a.Notifier, logg)
	a.ManufacturerBoard = admin.NewManufacturerBoard(a.Catalog, a.Notifier, logg)
	a.ProductBoard = admin.NewProductBoard(a.Catalog, a.Notifier, logg)
	a.UserBoard = admin.NewUserBoard(a.Users, a.Notifier, logg)

	a.Checkout, err = checkout.NewFlow(checkout.Params{
		Cart:      a.Cart,
		Session:   a.Session,
		Orders:    a.Orders,
		Keys:      keys,
		KeyTTL:    cfg.Checkout.IdempotencyKeyTTL,
		Notifier:  a.Notifier,
		Navigator: a.Navigator,
		Logger:    logg,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Start loads the stored theme and settles the session. A signed-in user's cart and theme are loaded.
func (a *App) Start(ctx context.Context) error {
	a.Theme.Load(ctx)
	a.Session.Start(ctx)
	return a.afterSignIn(ctx)
}

// Login signs in and, on success, loads the user's cart and theme.
func (a *App) Login(ctx context.Context, email, password string) error {
	if err := a.Session.Login(ctx, email, password); err != nil {
		return err
	}
	return a.afterSignIn(ctx)
}

// Register creates the account and, on success, loads the new user's cart.
func (a *App) Register(ctx context.Context, email, password string) error {
	if err := a.Session.Register(ctx, email, password); err != nil {
		return err
	}
	return a.afterSignIn(ctx)
}

// Logout signs out and drops the local cart.
func (a *App) Logout(ctx context.Context) error {
	err := a.Session.Logout(ctx)
	a.Cart.Reset()
	return err
}

func (a *App) afterSignIn(ctx context.Context) error {
	user := a.Session.CurrentUser()
	if user == nil {
		return a.Session.LastError()
	}
	if err := a.Theme.Sync(ctx, user); err != nil {
		a.Logger.Error(ctx, "failed to store user theme locally", err)
	}
	if user.IsSuperuser {
		return nil
	}
	return a.Cart.Fetch(ctx)
}

// Thread opens the chat of one order for the current user, in admin mode for superusers.
func (a *App) Thread(orderID int64) (*chat.Thread, error) {
	user := a.Session.CurrentUser()
	if user == nil {
		return nil, checkout.ErrNotSignedIn
	}
	mode := chat.ModeCustomer
	if user.IsSuperuser {
		mode = chat.ModeAdmin
	}
	return chat.NewThread(chat.Params{
		Gateway:     a.Gateway,
		OrderID:     orderID,
		ViewerEmail: user.Email,
		Mode:        mode,
		Notifier:    a.Notifier,
		Logger:      a.Logger,
	}), nil
}

// Close releases every resource opened by New, in reverse order.
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
