package notify

import (
	"context"
	"sync"

	"github.com/gardenseed/storefront/pkg/enums"
	"github.com/gardenseed/storefront/pkg/logger"
)

// Action is the retry affordance attached to an error toast when a failure blocks a whole view.
type Action func(ctx context.Context)

// Notifier surfaces transient user-facing messages.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string, retry Action)
}

// Navigator moves the client to another screen.
type Navigator interface {
	Navigate(ctx context.Context, route enums.Route)
}

// LogNotifier writes toasts to the structured log. Used by headless front ends.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) Success(ctx context.Context, message string) {
	n.logg.Info(n.logg.WithField(ctx, "toast", "success"), message)
}

func (n *LogNotifier) Error(ctx context.Context, message string, retry Action) {
	ctx = n.logg.WithFields(ctx, map[string]any{"toast": "error", "retryable": retry != nil})
	n.logg.Warn(ctx, message)
}

// LogNavigator records route changes in the log and remembers the latest one.
type LogNavigator struct {
	logg *logger.Logger

	mu      sync.Mutex
	current enums.Route
}

func NewLogNavigator(logg *logger.Logger) *LogNavigator {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogNavigator{logg: logg}
}

func (n *LogNavigator) Navigate(ctx context.Context, route enums.Route) {
	n.mu.Lock()
	n.current = route
	n.mu.Unlock()
	n.logg.Info(n.logg.WithField(ctx, "route", route.String()), "navigate")
}

// Current returns the last route navigated to.
func (n *LogNavigator) Current() enums.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
