package cart

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/gardenseed/storefront/internal/gateway"
	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/internal/testutil/fakeapi"
	"github.com/shopspring/decimal"
)

type fixture struct {
	api      *fakeapi.Server
	store    *Store
	recorder *notify.Recorder
	productA fakeapi.Product
	productB fakeapi.Product
}

func newFixture(t *testing.T, opts ...gateway.Option) *fixture {
	t.Helper()
	api := fakeapi.New(t)
	api.AddUser(fakeapi.User{Email: "buyer@example.com", UserUID: "uid-1", IsActive: true})
	a := api.AddProduct(fakeapi.Product{Name: "Tomato seeds", Price: 10})
	b := api.AddProduct(fakeapi.Product{Name: "Basil seeds", Price: 5})
	recorder := notify.NewRecorder()
	store := NewStore(api.Gateway(t, "uid-1", opts...), recorder, nil)
	return &fixture{api: api, store: store, recorder: recorder, productA: a, productB: b}
}

func TestFetchReplacesState(t *testing.T) {
	f := newFixture(t)
	f.api.AddCartItem("uid-1", f.productA.ID, 2)
	f.api.AddCartItem("uid-1", f.productB.ID, 1)

	if err := f.store.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	snap := f.store.Snapshot()
	if len(snap.Items) != 2 {
		t.Fatalf("expected two items, got %+v", snap.Items)
	}
	if !snap.Total.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected total %s", snap.Total)
	}
	if snap.Items[0].Product.Name != "Tomato seeds" || !snap.Items[0].Product.Price.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected product snapshot %+v", snap.Items[0].Product)
	}
	if snap.Loading {
		t.Fatal("loading must be released")
	}
}

func TestFetchFailureKeepsPriorState(t *testing.T) {
	f := newFixture(t)
	f.api.AddCartItem("uid-1", f.productA.ID, 1)
	if err := f.store.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	f.api.FailNext(http.MethodGet, "/cart", http.StatusInternalServerError, "boom")
	if err := f.store.Fetch(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	snap := f.store.Snapshot()
	if len(snap.Items) != 1 || snap.Err != "Failed to fetch cart" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	toasts := f.recorder.Toasts()
	last := toasts[len(toasts)-1]
	if last.Success || last.Message != "Failed to load cart" || last.Retry == nil {
		t.Fatalf("expected retryable error toast, got %+v", last)
	}

	last.Retry(context.Background())
	if f.store.Snapshot().Err != "" {
		t.Fatal("retry should clear the error")
	}
}

func TestMutationsResyncFromServer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Add(ctx, f.productA.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.store.Add(ctx, f.productB.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	assertMatchesServer(t, f)

	items := f.store.Items()
	if err := f.store.UpdateQuantity(ctx, items[0].ID, 4); err != nil {
		t.Fatalf("update: %v", err)
	}
	assertMatchesServer(t, f)
	if !f.store.Total().Equal(decimal.NewFromInt(45)) {
		t.Fatalf("unexpected total %s", f.store.Total())
	}

	if err := f.store.Remove(ctx, items[1].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	assertMatchesServer(t, f)

	if got := f.api.Count(http.MethodGet, "/cart"); got != 4 {
		t.Fatalf("expected one refetch per mutation, got %d", got)
	}
}

func TestFailedMutationLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.store.Add(ctx, f.productA.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := f.store.Snapshot()
	gets := f.api.Count(http.MethodGet, "/cart")

	f.api.FailNext(http.MethodPost, "/cart", http.StatusBadRequest, "out of stock")
	if err := f.store.Add(ctx, f.productB.ID, 1); err == nil {
		t.Fatal("expected add error")
	}
	after := f.store.Snapshot()
	if len(after.Items) != len(before.Items) || !after.Total.Equal(before.Total) {
		t.Fatalf("state changed after failed add: %+v", after)
	}
	if f.api.Count(http.MethodGet, "/cart") != gets {
		t.Fatal("failed mutation must not refetch")
	}
	if errs := f.recorder.Errors(); len(errs) != 1 || errs[0] != "Failed to add item to cart" {
		t.Fatalf("unexpected toasts %v", errs)
	}
}

func TestClearSkipsRefetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.store.Add(ctx, f.productA.ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	gets := f.api.Count(http.MethodGet, "/cart")

	if err := f.store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	snap := f.store.Snapshot()
	if len(snap.Items) != 0 || !snap.Total.IsZero() {
		t.Fatalf("expected empty cart, got %+v", snap)
	}
	if f.api.Count(http.MethodGet, "/cart") != gets {
		t.Fatal("clear must not refetch")
	}
	if len(f.api.Cart("uid-1")) != 0 {
		t.Fatal("server cart not cleared")
	}
}

func TestLastSettledRefetchWins(t *testing.T) {
	gate := &gatedTransport{
		base:     http.DefaultTransport,
		captured: make(chan struct{}),
		release:  make(chan struct{}),
	}
	f := newFixture(t, gateway.WithHTTPClient(&http.Client{Transport: gate}))
	ctx := context.Background()
	item := f.api.AddCartItem("uid-1", f.productA.ID, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = f.store.UpdateQuantity(ctx, item.ID, 3)
	}()

	// the first refetch has read quantity 3 but its response is held back
	<-gate.captured
	if err := f.store.UpdateQuantity(ctx, item.ID, 5); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if got := f.store.Items()[0].Quantity; got != 5 {
		t.Fatalf("expected 5 after second refetch, got %d", got)
	}

	close(gate.release)
	wg.Wait()

	got := f.store.Items()[0].Quantity
	if got != 3 && got != 5 {
		t.Fatalf("quantity %d is neither submitted value", got)
	}
	if got != 3 {
		t.Fatalf("expected the stale refetch that settled last to win, got %d", got)
	}
	if server := f.api.Cart("uid-1")[0].Quantity; server != 5 {
		t.Fatalf("server should hold the last write, got %d", server)
	}
}

func assertMatchesServer(t *testing.T, f *fixture) {
	t.Helper()
	server := f.api.Cart("uid-1")
	local := f.store.Items()
	if len(server) != len(local) {
		t.Fatalf("local %+v differs from server %+v", local, server)
	}
	for i := range server {
		if server[i].ID != local[i].ID || server[i].Quantity != local[i].Quantity || server[i].ProductID != local[i].ProductID {
			t.Fatalf("line %d differs: local %+v server %+v", i, local[i], server[i])
		}
	}
}

// gatedTransport holds back the body of the first GET /cart response until released.
type gatedTransport struct {
	base     http.RoundTripper
	captured chan struct{}
	release  chan struct{}

	mu   sync.Mutex
	gets int
}

func (g *gatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := g.base.RoundTrip(req)
	if err != nil || req.Method != http.MethodGet || !strings.HasSuffix(req.URL.Path, "/cart/") {
		return resp, err
	}
	g.mu.Lock()
	g.gets++
	first := g.gets == 1
	g.mu.Unlock()
	if !first {
		return resp, nil
	}

	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	close(g.captured)
	<-g.release
	return resp, nil
}
