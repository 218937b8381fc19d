package orders

import (
	"context"
	"fmt"
	"sync"

	"github.com/gardenseed/storefront/internal/notify"
	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
	"github.com/gardenseed/storefront/pkg/enums"
	"github.com/gardenseed/storefront/pkg/logger"
)

// Board is the admin view over every order. Status changes patch only the affected order locally.
type Board struct {
	api      *API
	notifier notify.Notifier
	logg     *logger.Logger

	mu      sync.RWMutex
	orders  []Order
	loading bool
	errMsg  string
}

func NewBoard(api *API, notifier notify.Notifier, logg *logger.Logger) *Board {
	if logg == nil {
		logg = logger.Nop()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logg)
	}
	return &Board{api: api, notifier: notifier, logg: logg}
}

func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	b.loading = true
	b.errMsg = ""
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.loading = false
		b.mu.Unlock()
	}()

	list, err := b.api.All(ctx)
	if err != nil {
		b.logg.Error(ctx, "failed to load admin orders", err)
		b.mu.Lock()
		b.errMsg = "Failed to load orders"
		b.mu.Unlock()
		b.notifier.Error(ctx, "Failed to load orders", func(ctx context.Context) { _ = b.Load(ctx) })
		return err
	}
	b.mu.Lock()
	b.orders = list
	b.mu.Unlock()
	return nil
}

// UpdateStatus sends the transition and, once the backend accepts it, sets the new status on the
// matching local order. Other orders are left untouched.
func (b *Board) UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}
	ctx = b.logg.WithOrderID(ctx, orderID)
	if _, err := b.api.UpdateStatus(ctx, orderID, status); err != nil {
		b.logg.Error(ctx, "failed to update order status", err)
		b.notifier.Error(ctx, "Failed to update order status", nil)
		return err
	}

	b.mu.Lock()
	for i := range b.orders {
		if b.orders[i].ID == orderID {
			b.orders[i].Status = status
			b.orders[i].StatusDisplay = ""
		}
	}
	b.mu.Unlock()
	b.notifier.Success(ctx, "Order status updated")
	return nil
}

func (b *Board) Orders() []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneOrders(b.orders)
}

// Find returns a copy of the order with id.
func (b *Board) Find(orderID int64) (Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, o := range b.orders {
		if o.ID == orderID {
			return cloneOrders([]Order{o})[0], true
		}
	}
	return Order{}, false
}

func (b *Board) Err() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.errMsg
}

func (b *Board) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}
