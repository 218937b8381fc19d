package admin

import (
	"context"
	"sync"

	"github.com/gardenseed/storefront/internal/notify"
	"github.com/gardenseed/storefront/pkg/logger"
)

// collection is a locally held list that is only patched after the backend has confirmed a change.
type collection[T any] struct {
	name     string
	idOf     func(T) int64
	notifier notify.Notifier
	logg     *logger.Logger

	mu      sync.RWMutex
	items   []T
	pending int
	errMsg  string
}

func newCollection[T any](name string, idOf func(T) int64, notifier notify.Notifier, logg *logger.Logger) *collection[T] {
	if logg == nil {
		logg = logger.Nop()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logg)
	}
	return &collection[T]{name: name, idOf: idOf, notifier: notifier, logg: logg, items: []T{}}
}

func (c *collection[T]) load(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	c.begin()
	defer c.end()

	list, err := fetch(ctx)
	if err != nil {
		msg := "Failed to load " + c.name
		c.logg.Error(ctx, msg, err)
		c.setErr(msg)
		c.notifier.Error(ctx, msg, func(ctx context.Context) { _ = c.load(ctx, fetch) })
		return err
	}
	if list == nil {
		list = []T{}
	}
	c.mu.Lock()
	c.items = list
	c.mu.Unlock()
	return nil
}

// run performs one mutation and, on success, applies patch to the local list.
func (c *collection[T]) run(ctx context.Context, failure, success string, call func() error, patch func([]T) []T) error {
	c.begin()
	defer c.end()

	if err := call(); err != nil {
		c.logg.Error(ctx, failure, err)
		c.setErr(failure)
		c.notifier.Error(ctx, failureMessage(failure, err), nil)
		return err
	}
	c.mu.Lock()
	c.items = patch(c.items)
	c.mu.Unlock()
	if success != "" {
		c.notifier.Success(ctx, success)
	}
	return nil
}

func (c *collection[T]) replaceItem(item T) func([]T) []T {
	id := c.idOf(item)
	return func(items []T) []T {
		out := make([]T, len(items))
		for i, existing := range items {
			if c.idOf(existing) == id {
				existing = item
			}
			out[i] = existing
		}
		return out
	}
}

func (c *collection[T]) removeID(id int64) func([]T) []T {
	return func(items []T) []T {
		out := make([]T, 0, len(items))
		for _, existing := range items {
			if c.idOf(existing) != id {
				out = append(out, existing)
			}
		}
		return out
	}
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T{}, c.items...)
}

func (c *collection[T]) find(id int64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if c.idOf(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *collection[T]) loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending > 0
}

func (c *collection[T]) err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

func (c *collection[T]) begin() {
	c.mu.Lock()
	c.pending++
	c.errMsg = ""
	c.mu.Unlock()
}

func (c *collection[T]) end() {
	c.mu.Lock()
	c.pending--
	c.mu.Unlock()
}

func (c *collection[T]) setErr(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}
