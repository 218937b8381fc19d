package orders

import (
	"context"
	"sync"

	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/pkg/logger"
)

// History is the customer's order list.
type History struct {
	api      *API
	notifier notify.Notifier
	logg     *logger.Logger

	mu      sync.RWMutex
	orders  []Order
	loading bool
	errMsg  string
}

func NewHistory(api *API, notifier notify.Notifier, logg *logger.Logger) *History {
	if logg == nil {
		logg = logger.Nop()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logg)
	}
	return &History{api: api, notifier: notifier, logg: logg}
}

// Load replaces the list with the server's. On failure the previous list stays.
func (h *History) Load(ctx context.Context) error {
	h.mu.Lock()
	h.loading = true
	h.errMsg = ""
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.loading = false
		h.mu.Unlock()
	}()

	list, err := h.api.List(ctx)
	if err != nil {
		h.logg.Error(ctx, "failed to load orders", err)
		h.mu.Lock()
		h.errMsg = "Failed to load orders"
		h.mu.Unlock()
		h.notifier.Error(ctx, "Failed to load orders", func(ctx context.Context) { _ = h.Load(ctx) })
		return err
	}
	h.mu.Lock()
	h.orders = list
	h.mu.Unlock()
	return nil
}

func (h *History) Orders() []Order {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return cloneOrders(h.orders)
}

func (h *History) Err() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.errMsg
}

func (h *History) Loading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loading
}
