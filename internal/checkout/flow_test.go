package checkout

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gardenseed/storefront/internal/cart"
	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/internal/orders"
	"github.com/gardenseed/storefront/internal/testutil/fakeapi"
	"github.com/gardenseed/storefront/internal/users"
	"github.com/gardenseed/storefront/pkg/enums"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

type staticSession struct {
	user *users.User
}

func (s staticSession) CurrentUser() *users.User { return s.user }

type fixture struct {
	api      *fakeapi.Server
	cart     *cart.Store
	flow     *Flow
	recorder *notify.Recorder
	keys     *MemoryStash
	user     *users.User
}

func newFixture(t *testing.T, verified bool, addresses []types.Address) *fixture {
	t.Helper()
	api := fakeapi.New(t)
	stored := api.AddUser(fakeapi.User{Email: "buyer@example.com", UserUID: "uid-1", IsActive: true, Verified: verified})
	a := api.AddProduct(fakeapi.Product{Name: "Tomato seeds", Price: 10})
	b := api.AddProduct(fakeapi.Product{Name: "Basil seeds", Price: 5})
	api.AddCartItem("uid-1", a.ID, 2)
	api.AddCartItem("uid-1", b.ID, 1)

	gw := api.Gateway(t, "uid-1")
	recorder := notify.NewRecorder()
	store := cart.NewStore(gw, recorder, nil)
	if err := store.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch cart: %v", err)
	}

	user := &users.User{ID: stored.ID, Email: stored.Email, Verified: verified, IsActive: true, Addresses: addresses}
	keys := NewMemoryStash()
	flow, err := NewFlow(Params{
		Cart:      store,
		Session:   staticSession{user: user},
		Orders:    orders.NewAPI(gw),
		Keys:      keys,
		KeyTTL:    time.Hour,
		Notifier:  recorder,
		Navigator: recorder,
	})
	if err != nil {
		t.Fatalf("new flow: %v", err)
	}
	return &fixture{api: api, cart: store, flow: flow, recorder: recorder, keys: keys, user: user}
}

func homeAddress() []types.Address {
	return []types.Address{{ID: 7, Address: "1 Garden Lane", City: "Minsk", PostalCode: "220000", Phone: "+375 29 123-45-67"}}
}

func TestConfirmPlacesOrderAndClearsCart(t *testing.T) {
	f := newFixture(t, true, homeAddress())
	ctx := context.Background()

	if err := f.flow.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !f.flow.CanConfirm() {
		t.Fatal("confirm should be enabled")
	}
	if !f.flow.Total().Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected total %s", f.flow.Total())
	}

	order, err := f.flow.Confirm(ctx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected status %s", order.Status)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected total amount %s", order.TotalAmount)
	}
	if order.DeliveryAddress == nil || order.DeliveryAddress.City != "Minsk" || order.DeliveryAddress.ID != 0 {
		t.Fatalf("unexpected delivery address %+v", order.DeliveryAddress)
	}
	if len(order.OrderItems) != 2 {
		t.Fatalf("expected two order lines, got %+v", order.OrderItems)
	}
	if f.flow.State() != enums.CheckoutStateDone {
		t.Fatalf("unexpected state %s", f.flow.State())
	}
	if len(f.cart.Items()) != 0 || len(f.api.Cart("uid-1")) != 0 {
		t.Fatal("cart should be empty after checkout")
	}
	if f.recorder.LastRoute() != enums.RouteOrders {
		t.Fatalf("expected navigation to orders, got %s", f.recorder.LastRoute())
	}
	if _, ok, _ := f.keys.Get(ctx, f.user.ID); ok {
		t.Fatal("idempotency key should be dropped after success")
	}
	reqs := f.api.Requests()
	var key string
	for _, r := range reqs {
		if r.Method == http.MethodPost && r.Path == "/orders" {
			key = r.IdempotencyKey
		}
	}
	if key == "" {
		t.Fatal("order request should carry an idempotency key")
	}
}

func TestBeginRedirectsUnverifiedUser(t *testing.T) {
	f := newFixture(t, false, homeAddress())

	err := f.flow.Begin(context.Background())
	if !errors.Is(err, ErrProfileIncomplete) {
		t.Fatalf("expected profile error, got %v", err)
	}
	if f.flow.State() != enums.CheckoutStateIdle {
		t.Fatalf("flow must stay idle, got %s", f.flow.State())
	}
	if f.recorder.LastRoute() != enums.RouteProfile {
		t.Fatalf("expected navigation to profile, got %s", f.recorder.LastRoute())
	}
	errs := f.recorder.Errors()
	if len(errs) != 1 || errs[0] != "Please complete your profile to place an order" {
		t.Fatalf("unexpected toasts %v", errs)
	}
	if f.api.Count(http.MethodPost, "/orders") != 0 {
		t.Fatal("no order should be submitted")
	}
}

func TestConfirmDisabledWithoutAddress(t *testing.T) {
	f := newFixture(t, true, nil)
	ctx := context.Background()

	if err := f.flow.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if f.flow.CanConfirm() {
		t.Fatal("confirm must be disabled without an address")
	}
	if _, err := f.flow.Confirm(ctx); !errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected address error, got %v", err)
	}
	if f.api.Count(http.MethodPost, "/orders") != 0 {
		t.Fatal("no order should be submitted")
	}
}

func TestBeginRejectsEmptyCart(t *testing.T) {
	f := newFixture(t, true, homeAddress())
	ctx := context.Background()
	if err := f.cart.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	err := f.flow.Begin(ctx)
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRetryAfterFailureReusesIdempotencyKey(t *testing.T) {
	f := newFixture(t, true, homeAddress())
	ctx := context.Background()
	if err := f.flow.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}

	f.api.FailNext(http.MethodPost, "/orders", http.StatusBadGateway, "upstream unavailable")
	if _, err := f.flow.Confirm(ctx); err == nil {
		t.Fatal("expected first attempt to fail")
	}
	if f.flow.State() != enums.CheckoutStateFailed {
		t.Fatalf("unexpected state %s", f.flow.State())
	}
	if len(f.cart.Items()) != 2 {
		t.Fatal("cart must be kept after a failed attempt")
	}
	if !f.flow.CanConfirm() {
		t.Fatal("confirm should stay enabled after failure")
	}
	stashed, ok, _ := f.keys.Get(ctx, f.user.ID)
	if !ok {
		t.Fatal("key should be stashed across attempts")
	}

	order, err := f.flow.Confirm(ctx)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if order == nil || f.flow.Order() == nil || f.flow.Order().ID != order.ID {
		t.Fatal("flow should expose the created order")
	}

	var keys []string
	for _, r := range f.api.Requests() {
		if r.Method == http.MethodPost && r.Path == "/orders" {
			keys = append(keys, r.IdempotencyKey)
		}
	}
	if len(keys) != 2 || keys[0] != stashed.Key || keys[1] != stashed.Key {
		t.Fatalf("expected both attempts to use %q, got %v", stashed.Key, keys)
	}
	if len(f.api.Orders()) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(f.api.Orders()))
	}
}

func TestConfirmRequiresOpenStep(t *testing.T) {
	f := newFixture(t, true, homeAddress())
	if _, err := f.flow.Confirm(context.Background()); err == nil {
		t.Fatal("confirm from idle should fail")
	}
	f.flow.Cancel(context.Background())
	if f.flow.State() != enums.CheckoutStateIdle {
		t.Fatalf("unexpected state %s", f.flow.State())
	}
}

func TestMemoryStashExpires(t *testing.T) {
	stash := NewMemoryStash()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	stash.now = func() time.Time { return now }
	ctx := context.Background()

	if err := stash.Put(ctx, 1, Attempt{Key: "k-1", RequestHash: "h-1"}, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got, ok, _ := stash.Get(ctx, 1); !ok || got.Key != "k-1" || got.RequestHash != "h-1" {
		t.Fatalf("expected stashed attempt, got %+v %v", got, ok)
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := stash.Get(ctx, 1); ok {
		t.Fatal("key should have expired")
	}
}

// lostResponse creates the order on the backend but reports a transport failure for the first n calls.
type lostResponse struct {
	next OrderCreator
	n    int
}

func (l *lostResponse) Create(ctx context.Context, input orders.CreateInput, key string) (*orders.Order, error) {
	order, err := l.next.Create(ctx, input, key)
	if err != nil {
		return nil, err
	}
	if l.n > 0 {
		l.n--
		return nil, errors.New("connection reset")
	}
	return order, nil
}

func (f *fixture) useCreator(t *testing.T, creator OrderCreator) {
	t.Helper()
	flow, err := NewFlow(Params{
		Cart:      f.cart,
		Session:   staticSession{user: f.user},
		Orders:    creator,
		Keys:      f.keys,
		KeyTTL:    time.Hour,
		Notifier:  f.recorder,
		Navigator: f.recorder,
	})
	if err != nil {
		t.Fatalf("new flow: %v", err)
	}
	f.flow = flow
}

func orderKeys(api *fakeapi.Server) []string {
	var keys []string
	for _, r := range api.Requests() {
		if r.Method == http.MethodPost && r.Path == "/orders" {
			keys = append(keys, r.IdempotencyKey)
		}
	}
	return keys
}

func TestCancelThenChangedCartPlacesNewOrder(t *testing.T) {
	f := newFixture(t, true, homeAddress())
	f.useCreator(t, &lostResponse{next: orders.NewAPI(f.api.Gateway(t, "uid-1")), n: 1})
	ctx := context.Background()

	if err := f.flow.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := f.flow.Confirm(ctx); err == nil {
		t.Fatal("expected lost response to fail the attempt")
	}
	f.flow.Cancel(ctx)
	if _, ok, _ := f.keys.Get(ctx, f.user.ID); ok {
		t.Fatal("cancel should abandon the pending key")
	}

	dill := f.api.AddProduct(fakeapi.Product{Name: "Dill seeds", Price: 2})
	if err := f.cart.Add(ctx, dill.ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.flow.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	order, err := f.flow.Confirm(ctx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if len(order.OrderItems) != 3 || !order.TotalAmount.Equal(decimal.NewFromInt(31)) {
		t.Fatalf("expected the new cart to be ordered, got %d lines total %s", len(order.OrderItems), order.TotalAmount)
	}
	if len(f.api.Orders()) != 2 {
		t.Fatalf("expected two backend orders, got %d", len(f.api.Orders()))
	}
	keys := orderKeys(f.api)
	if len(keys) != 2 || keys[0] == keys[1] {
		t.Fatalf("expected distinct keys per order payload, got %v", keys)
	}
}

func TestRetryWithChangedCartMintsFreshKey(t *testing.T) {
	f := newFixture(t, true, homeAddress())
	ctx := context.Background()
	if err := f.flow.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}

	f.api.FailNext(http.MethodPost, "/orders", http.StatusBadGateway, "upstream unavailable")
	if _, err := f.flow.Confirm(ctx); err == nil {
		t.Fatal("expected first attempt to fail")
	}
	first, _, _ := f.keys.Get(ctx, f.user.ID)

	items := f.cart.Items()
	if err := f.cart.UpdateQuantity(ctx, items[0].ID, 4); err != nil {
		t.Fatalf("update: %v", err)
	}
	order, err := f.flow.Confirm(ctx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	updated := lines(items[:1])[0].ProductID
	var qty int
	for _, line := range order.OrderItems {
		if line.ProductID == updated {
			qty = line.Quantity
		}
	}
	if qty != 4 {
		t.Fatalf("expected the updated quantity to be ordered, got %+v", order.OrderItems)
	}

	keys := orderKeys(f.api)
	if len(keys) != 2 || keys[0] != first.Key || keys[1] == first.Key {
		t.Fatalf("expected a fresh key after the cart changed, got %v (first %q)", keys, first.Key)
	}
}
