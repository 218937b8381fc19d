package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/gardenseed/storefront/internal/gateway"
	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// Product is the product snapshot embedded in a cart line.
type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
}

// Item is one cart line.
type Item struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

// Snapshot is a copy of the store's state at one point in time.
type Snapshot struct {
	Items   []Item
	Total   decimal.Decimal
	Loading bool
	Err     string
}

type cartResponse struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Store mirrors the server-side cart. Every mutation is followed by a full refetch; the local state is
// only ever a server snapshot (or empty after a successful clear).
type Store struct {
	gw       *gateway.Client
	notifier notify.Notifier
	logg     *logger.Logger

	mu      sync.RWMutex
	items   []Item
	total   decimal.Decimal
	pending int
	errMsg  string
}

func NewStore(gw *gateway.Client, notifier notify.Notifier, logg *logger.Logger) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logg)
	}
	return &Store{gw: gw, notifier: notifier, logg: logg}
}

// Fetch replaces local items and total with the server's cart. On failure prior state stays visible.
func (s *Store) Fetch(ctx context.Context) error {
	s.begin()
	defer s.end()

	var resp cartResponse
	if err := s.gw.Get(ctx, "/cart/", &resp); err != nil {
		s.fail(ctx, "Failed to fetch cart", "Failed to load cart", err, func(ctx context.Context) { _ = s.Fetch(ctx) })
		return err
	}

	s.mu.Lock()
	s.items = resp.Items
	if s.items == nil {
		s.items = []Item{}
	}
	s.total = resp.Total
	s.mu.Unlock()
	return nil
}

// Add puts quantity of productID into the cart and resyncs. The add response body is ignored.
func (s *Store) Add(ctx context.Context, productID int64, quantity int) error {
	s.begin()
	defer s.end()

	body := map[string]any{"product_id": productID, "quantity": quantity}
	if err := s.gw.Post(ctx, "/cart/", body, nil); err != nil {
		s.fail(ctx, "Failed to add item to cart", "Failed to add item to cart", err, nil)
		return err
	}
	_ = s.Fetch(ctx)
	s.notifier.Success(ctx, "Item added to cart")
	return nil
}

// UpdateQuantity sets the quantity of one line and resyncs. Callers ensure quantity >= 1.
func (s *Store) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	s.begin()
	defer s.end()

	if err := s.gw.Put(ctx, fmt.Sprintf("/cart/%d", itemID), map[string]int{"quantity": quantity}, nil); err != nil {
		s.fail(ctx, "Failed to update cart item", "Failed to update quantity", err, nil)
		return err
	}
	_ = s.Fetch(ctx)
	s.notifier.Success(ctx, "Quantity updated")
	return nil
}

// Remove deletes one line and resyncs.
func (s *Store) Remove(ctx context.Context, itemID int64) error {
	s.begin()
	defer s.end()

	if err := s.gw.Delete(ctx, fmt.Sprintf("/cart/item/%d", itemID), nil); err != nil {
		s.fail(ctx, "Failed to remove item from cart", "Failed to remove item from cart", err, nil)
		return err
	}
	_ = s.Fetch(ctx)
	s.notifier.Success(ctx, "Item removed from cart")
	return nil
}

// Clear empties the cart. On success the local state is set to empty without a refetch.
func (s *Store) Clear(ctx context.Context) error {
	s.begin()
	defer s.end()

	if err := s.gw.Delete(ctx, "/cart/", nil); err != nil {
		s.fail(ctx, "Failed to clear cart", "Failed to clear cart", err, nil)
		return err
	}
	s.Reset()
	s.notifier.Success(ctx, "Cart cleared")
	return nil
}

// Reset drops local state to a known-empty cart.
func (s *Store) Reset() {
	s.mu.Lock()
	s.items = []Item{}
	s.total = decimal.Zero
	s.mu.Unlock()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Items:   append([]Item{}, s.items...),
		Total:   s.total,
		Loading: s.pending > 0,
		Err:     s.errMsg,
	}
}

// Items returns a copy of the current lines.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Item{}, s.items...)
}

func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending > 0
}

func (s *Store) begin() {
	s.mu.Lock()
	s.pending++
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
}

func (s *Store) fail(ctx context.Context, state, toast string, err error, retry notify.Action) {
	s.mu.Lock()
	s.errMsg = state
	s.mu.Unlock()
	s.logg.Error(ctx, state, err)
	s.notifier.Error(ctx, toast, retry)
}
