package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gardenseed/storefront/internal/cart"
	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/internal/orders"
	"github.com/gardenseed/storefront/internal/users"
	"github.com/gardenseed/storefront/pkg/enums"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotSignedIn       = pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	ErrProfileIncomplete = pkgerrors.New(pkgerrors.CodeValidation, "complete your profile to place an order")
	ErrNoAddress         = pkgerrors.New(pkgerrors.CodeValidation, "add a delivery address to your profile")
	ErrEmptyCart         = pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
)

// Cart is the cart store surface checkout reads and clears.
type Cart interface {
	Items() []cart.Item
	Clear(ctx context.Context) error
}

// Session reports the signed-in backend user.
type Session interface {
	CurrentUser() *users.User
}

// OrderCreator submits orders.
type OrderCreator interface {
	Create(ctx context.Context, input orders.CreateInput, idempotencyKey string) (*orders.Order, error)
}

type Params struct {
	Cart      Cart
	Session   Session
	Orders    OrderCreator
	Keys      KeyStash
	KeyTTL    time.Duration
	Notifier  notify.Notifier
	Navigator notify.Navigator
	Logger    *logger.Logger
}

// Flow drives one checkout: idle -> confirming -> submitting -> done | failed.
type Flow struct {
	cart     Cart
	session  Session
	orders   OrderCreator
	keys     KeyStash
	keyTTL   time.Duration
	notifier notify.Notifier
	nav      notify.Navigator
	logg     *logger.Logger
	newKey   func() string

	mu    sync.Mutex
	state enums.CheckoutState
	order *orders.Order
}

func NewFlow(p Params) (*Flow, error) {
	if p.Cart == nil || p.Session == nil || p.Orders == nil {
		return nil, errors.New("checkout requires cart, session and orders")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Keys == nil {
		p.Keys = NewMemoryStash()
	}
	if p.Notifier == nil {
		p.Notifier = notify.NewLogNotifier(p.Logger)
	}
	if p.Navigator == nil {
		p.Navigator = notify.NewLogNavigator(p.Logger)
	}
	return &Flow{
		cart:     p.Cart,
		session:  p.Session,
		orders:   p.Orders,
		keys:     p.Keys,
		keyTTL:   p.KeyTTL,
		notifier: p.Notifier,
		nav:      p.Navigator,
		logg:     p.Logger,
		newKey:   func() string { return uuid.NewString() },
		state:    enums.CheckoutStateIdle,
	}, nil
}

// Begin opens the confirmation step. A user without a verified profile is sent to the profile screen
// instead and the flow stays idle.
func (f *Flow) Begin(ctx context.Context) error {
	user := f.session.CurrentUser()
	if user == nil {
		return ErrNotSignedIn
	}
	if !user.Verified {
		f.notifier.Error(ctx, "Please complete your profile to place an order", nil)
		f.nav.Navigate(ctx, enums.RouteProfile)
		return ErrProfileIncomplete
	}
	if len(f.cart.Items()) == 0 {
		return ErrEmptyCart
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == enums.CheckoutStateSubmitting {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is being submitted")
	}
	f.state = enums.CheckoutStateConfirming
	f.order = nil
	return nil
}

// Cancel closes the confirmation step and abandons any pending attempt, so the next confirmation
// is submitted under a fresh idempotency key.
func (f *Flow) Cancel(ctx context.Context) {
	f.mu.Lock()
	if f.state == enums.CheckoutStateConfirming || f.state == enums.CheckoutStateFailed {
		f.state = enums.CheckoutStateIdle
	}
	f.mu.Unlock()

	user := f.session.CurrentUser()
	if user == nil {
		return
	}
	if err := f.keys.Drop(ctx, user.ID); err != nil {
		f.logg.Warn(f.logg.WithUserID(ctx, user.ID), "failed to drop checkout idempotency key")
	}
}

// CanConfirm reports whether the confirm action is enabled: the confirmation step is open, the user
// has a stored address and the cart has lines.
func (f *Flow) CanConfirm() bool {
	f.mu.Lock()
	state := f.state
	f.mu.Unlock()
	if state != enums.CheckoutStateConfirming && state != enums.CheckoutStateFailed {
		return false
	}
	user := f.session.CurrentUser()
	if user == nil {
		return false
	}
	if _, ok := user.PrimaryAddress(); !ok {
		return false
	}
	return len(f.cart.Items()) > 0
}

// Total previews the amount that will be submitted.
func (f *Flow) Total() decimal.Decimal {
	return orders.Sum(lines(f.cart.Items()))
}

// Confirm submits the order built from the live cart and the first stored address. On failure the flow
// stays on the confirmation step with the cart intact; a retry of the same order reuses the same
// idempotency key, while a changed cart or address gets a new one.
func (f *Flow) Confirm(ctx context.Context) (*orders.Order, error) {
	user := f.session.CurrentUser()
	if user == nil {
		return nil, ErrNotSignedIn
	}
	address, ok := user.PrimaryAddress()
	if !ok {
		return nil, ErrNoAddress
	}
	items := lines(f.cart.Items())
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	f.mu.Lock()
	if f.state != enums.CheckoutStateConfirming && f.state != enums.CheckoutStateFailed {
		state := f.state
		f.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot confirm from %s", state))
	}
	f.state = enums.CheckoutStateSubmitting
	f.mu.Unlock()

	ctx = f.logg.WithUserID(ctx, user.ID)
	input := orders.CreateInput{
		UserID:          user.ID,
		Status:          enums.OrderStatusPending,
		Items:           items,
		DeliveryAddress: address.Snapshot(),
		TotalAmount:     orders.Sum(items),
	}
	key := f.attemptKey(ctx, user.ID, input)

	order, err := f.orders.Create(ctx, input, key)
	if err != nil {
		f.setState(enums.CheckoutStateFailed, nil)
		f.logg.Error(f.logg.WithField(ctx, "idempotency_key", key), "failed to create order", err)
		f.notifier.Error(ctx, "Failed to place order", nil)
		return nil, err
	}

	ctx = f.logg.WithOrderID(ctx, order.ID)
	if err := f.keys.Drop(ctx, user.ID); err != nil {
		f.logg.Warn(ctx, "failed to drop checkout idempotency key")
	}
	if err := f.cart.Clear(ctx); err != nil {
		f.logg.Error(ctx, "order placed but cart could not be cleared", err)
	}
	f.setState(enums.CheckoutStateDone, order)
	f.logg.Info(ctx, "order placed")
	f.notifier.Success(ctx, "Order placed successfully")
	f.nav.Navigate(ctx, enums.RouteOrders)
	return order, nil
}

func (f *Flow) State() enums.CheckoutState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Order returns the order created by the last successful confirmation.
func (f *Flow) Order() *orders.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}

// attemptKey returns the pending key for userID when it was minted for the same payload, and
// otherwise mints and stashes a new one. Stash failures degrade to an unstashed key.
func (f *Flow) attemptKey(ctx context.Context, userID int64, input orders.CreateInput) string {
	hash, err := hashInput(input)
	if err != nil {
		f.logg.Error(ctx, "failed to hash order payload", err)
		return f.newKey()
	}
	pending, ok, err := f.keys.Get(ctx, userID)
	if err != nil {
		f.logg.Error(ctx, "failed to read checkout idempotency key", err)
	}
	if ok && pending.RequestHash == hash {
		return pending.Key
	}
	attempt := Attempt{Key: f.newKey(), RequestHash: hash}
	if err := f.keys.Put(ctx, userID, attempt, f.keyTTL); err != nil {
		f.logg.Error(ctx, "failed to stash checkout idempotency key", err)
	}
	return attempt.Key
}

func (f *Flow) setState(state enums.CheckoutState, order *orders.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.order = order
}

func lines(items []cart.Item) []orders.Item {
	out := make([]orders.Item, 0, len(items))
	for _, item := range items {
		productID := item.ProductID
		if productID == 0 {
			productID = item.Product.ID
		}
		out = append(out, orders.Item{
			ProductID: productID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
		})
	}
	return out
}
